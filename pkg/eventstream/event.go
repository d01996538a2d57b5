package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeBatchIndexed is emitted after a batch is committed to the vector store.
	EventTypeBatchIndexed = "marquee.index.batch"

	// EventTypeIndexCompleted is emitted when an indexing run finishes or is skipped.
	EventTypeIndexCompleted = "marquee.index.completed"
)

// Envelope carries the fields shared by every event.
type Envelope struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// IndexSource identifies the collection and model an event refers to.
type IndexSource struct {
	Collection string `json:"collection"`
	Model      string `json:"model"`
}

// BatchIndexedEvent reports progress of an indexing run.
type BatchIndexedEvent struct {
	Envelope
	Source IndexSource `json:"source"`

	BatchIndex int `json:"batch_index"`
	BatchCount int `json:"batch_count"`
	BatchSize  int `json:"batch_size"`
	Indexed    int `json:"indexed"`
	Total      int `json:"total"`
}

// IndexCompletedEvent reports the outcome of an indexing run.
type IndexCompletedEvent struct {
	Envelope
	Source IndexSource `json:"source"`

	Skipped    bool  `json:"skipped"`
	Forced     bool  `json:"forced"`
	Indexed    int   `json:"indexed"`
	TotalItems int   `json:"total_items"`
	DurationMs int64 `json:"duration_ms"`
}

// NewEnvelope stamps a fresh event id and time on an event of the given type.
func NewEnvelope(eventType string) Envelope {
	return Envelope{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
	}
}
