// Package events records what happened during BOM generation as an append-only log with one
// stream per generation.
package events

import (
	"time"
)

// Event is one immutable fact about a generation. StreamID is the generation id; BuildNumber is
// empty for events that concern the whole order.
type Event interface {
	Type() string
	StreamID() string
	BuildNumber() string
	Data() any
	Timestamp() time.Time
	Version() int
}

// EventHandler reacts to published events
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events to generation streams and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// Record is the stored and wire form of a generation event
type Record struct {
	EventType    string    `json:"type"`
	GenerationID string    `json:"generationId"`
	Build        string    `json:"buildNumber,omitempty"`
	Payload      any       `json:"data"`
	RecordedAt   time.Time `json:"timestamp"`
	Sequence     int       `json:"version"`
}

func (r Record) Type() string         { return r.EventType }
func (r Record) StreamID() string     { return r.GenerationID }
func (r Record) BuildNumber() string  { return r.Build }
func (r Record) Data() any            { return r.Payload }
func (r Record) Timestamp() time.Time { return r.RecordedAt }
func (r Record) Version() int         { return r.Sequence }

// newRecord stamps a fresh event; the store assigns the final version on append
func newRecord(eventType, generationID, buildNumber string, payload any) Record {
	return Record{
		EventType:    eventType,
		GenerationID: generationID,
		Build:        buildNumber,
		Payload:      payload,
		RecordedAt:   time.Now(),
		Sequence:     1,
	}
}

// PayloadAs returns the payload of e when it holds a T, e.g. PayloadAs[GenerationCompleted](e)
func PayloadAs[T any](e Event) (T, bool) {
	payload, ok := e.Data().(T)
	return payload, ok
}

type funcHandler struct {
	eventTypes map[string]bool
	fn         func(Event) error
}

// HandleFunc returns a handler that runs fn for the given event types
func HandleFunc(fn func(Event) error, eventTypes ...string) EventHandler {
	h := &funcHandler{eventTypes: make(map[string]bool, len(eventTypes)), fn: fn}
	for _, t := range eventTypes {
		h.eventTypes[t] = true
	}
	return h
}

func (h *funcHandler) Handle(event Event) error {
	return h.fn(event)
}

func (h *funcHandler) CanHandle(eventType string) bool {
	return h.eventTypes[eventType]
}
