package application

import "time"

// Run statuses carried by DatasetReplaced.
const (
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// DatasetReplacedEventType names the event on the bus.
const DatasetReplacedEventType = "ais.dataset.replaced"

// DatasetReplaced is emitted when an ingestion run ends.
type DatasetReplaced struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Rows       int64     `json:"rows"`
	Chunks     int       `json:"chunks"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventType implements eventing.Typed.
func (DatasetReplaced) EventType() string {
	return DatasetReplacedEventType
}

// EventTime implements eventing.Timed.
func (e DatasetReplaced) EventTime() time.Time {
	return e.OccurredAt
}
