package events

import (
	"sync"

	"go.uber.org/zap"
)

// StoreOption customizes an InMemoryEventStore
type StoreOption func(*InMemoryEventStore)

// WithRetention keeps at most maxStreams generation streams, evicting the oldest stream first.
// Zero keeps every stream.
func WithRetention(maxStreams int) StoreOption {
	return func(s *InMemoryEventStore) { s.maxStreams = maxStreams }
}

// InMemoryEventStore keeps generation streams in memory. Subscribers are notified asynchronously.
// Positions passed to ReadAllEvents index the retained log, so they shift when a stream is evicted.
type InMemoryEventStore struct {
	mutex       sync.RWMutex
	streams     map[string][]Event
	streamOrder []string
	log         []Event
	subscribers map[string][]EventHandler
	maxStreams  int
	logger      *zap.Logger
}

// NewInMemoryEventStore creates an empty store; a nil logger discards handler errors
func NewInMemoryEventStore(logger *zap.Logger, opts ...StoreOption) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendEvent stores event at the end of streamID and assigns its version
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stream, exists := s.streams[streamID]
	if !exists {
		s.streamOrder = append(s.streamOrder, streamID)
	}

	stored := Record{
		EventType:    event.Type(),
		GenerationID: streamID,
		Build:        event.BuildNumber(),
		Payload:      event.Data(),
		RecordedAt:   event.Timestamp(),
		Sequence:     len(stream) + 1,
	}
	s.streams[streamID] = append(stream, stored)
	s.log = append(s.log, stored)

	if !exists {
		s.evict()
	}

	go s.notifySubscribers(stored)

	return nil
}

// evict drops the oldest streams beyond the retention limit. Callers hold the write lock.
func (s *InMemoryEventStore) evict() {
	if s.maxStreams <= 0 || len(s.streamOrder) <= s.maxStreams {
		return
	}

	evicted := make(map[string]bool)
	for len(s.streamOrder) > s.maxStreams {
		oldest := s.streamOrder[0]
		s.streamOrder = s.streamOrder[1:]
		delete(s.streams, oldest)
		evicted[oldest] = true
	}

	kept := make([]Event, 0, len(s.log))
	for _, e := range s.log {
		if !evicted[e.StreamID()] {
			kept = append(kept, e)
		}
	}
	s.log = kept
	s.logger.Debug("evicted event streams", zap.Int("streams", len(evicted)))
}

// ReadEvents returns the events of streamID from version fromVersion on
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stream, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return []Event{}, nil
	}

	return append([]Event(nil), stream[fromVersion-1:]...), nil
}

// ReadAllEvents returns the retained log from fromPosition on
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.log) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.log[fromPosition:]...), nil
}

// StreamCount returns the number of retained streams
func (s *InMemoryEventStore) StreamCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.streams)
}

// Subscribe registers handler for the given event types
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

// Unsubscribe removes handler from every event type
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}

func (s *InMemoryEventStore) notifySubscribers(event Event) {
	s.mutex.RLock()
	handlers := append([]EventHandler(nil), s.subscribers[event.Type()]...)
	s.mutex.RUnlock()

	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		go func(h EventHandler, e Event) {
			if err := h.Handle(e); err != nil {
				s.logger.Warn("event handler failed",
					zap.String("event_type", e.Type()),
					zap.String("stream_id", e.StreamID()),
					zap.Error(err))
			}
		}(handler, event)
	}
}
