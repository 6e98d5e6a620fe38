// Package restore defines the Kafka event published after the catalog dataset is restored.
package restore

import (
	"time"

	"github.com/fundaciones-espana/catalog-backend/model"
)

// EventTypeDatasetRestored is the event_type of DatasetRestoredEvent.
const EventTypeDatasetRestored = "fundaciones.dataset.restored"

// DatasetRestoredEvent tells downstream consumers that catalog contents changed.
type DatasetRestoredEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	Database   string `json:"database"`
	Collection string `json:"collection"`

	Restore model.RestoreSummary `json:"restore"`
}
