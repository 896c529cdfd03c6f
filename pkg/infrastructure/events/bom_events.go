package events

import (
	"time"

	"github.com/vsinha/sinkbom/pkg/domain/entities"
)

const (
	GenerationStartedEvent   = "generation.started"
	BuildExpandedEvent       = "build.expanded"
	BuildFailedEvent         = "build.failed"
	GenerationCompletedEvent = "generation.completed"
)

// AllBOMEventTypes lists every event type the generator emits
var AllBOMEventTypes = []string{
	GenerationStartedEvent,
	BuildExpandedEvent,
	BuildFailedEvent,
	GenerationCompletedEvent,
}

type GenerationStarted struct {
	GenerationID   string   `json:"generation_id"`
	BuildNumbers   []string `json:"build_numbers"`
	CatalogVersion string   `json:"catalog_version"`
}

type BuildExpanded struct {
	BuildNumber   string           `json:"build_number"`
	TopLevelItems int              `json:"top_level_items"`
	NodeCount     int              `json:"node_count"`
	Warnings      int              `json:"warnings"`
	Duration      time.Duration    `json:"duration"`
	Issues        []entities.Issue `json:"issues,omitempty"`
}

type BuildFailed struct {
	BuildNumber string           `json:"build_number"`
	Issues      []entities.Issue `json:"issues"`
}

type GenerationCompleted struct {
	GenerationID    string        `json:"generation_id"`
	SucceededBuilds int           `json:"succeeded_builds"`
	FailedBuilds    int           `json:"failed_builds"`
	TotalItems      int           `json:"total_items"`
	TotalQuantity   int64         `json:"total_quantity"`
	Duration        time.Duration `json:"duration"`
}

func NewGenerationStartedEvent(generationID string, buildNumbers []string, catalogVersion string) Event {
	return newRecord(GenerationStartedEvent, generationID, "", GenerationStarted{
		GenerationID:   generationID,
		BuildNumbers:   buildNumbers,
		CatalogVersion: catalogVersion,
	})
}

func NewBuildExpandedEvent(generationID string, data BuildExpanded) Event {
	return newRecord(BuildExpandedEvent, generationID, data.BuildNumber, data)
}

func NewBuildFailedEvent(generationID, buildNumber string, issues []entities.Issue) Event {
	return newRecord(BuildFailedEvent, generationID, buildNumber, BuildFailed{
		BuildNumber: buildNumber,
		Issues:      issues,
	})
}

func NewGenerationCompletedEvent(data GenerationCompleted) Event {
	return newRecord(GenerationCompletedEvent, data.GenerationID, "", data)
}
