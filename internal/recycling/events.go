package recycling

import (
	"time"
)

// EventType identifies the kind of observation the service emits.
type EventType string

const (
	// EventClassRegistered records a class registration or reactivation.
	EventClassRegistered EventType = "class.registered"
	// EventClassRateUpdated records a rate change.
	EventClassRateUpdated EventType = "class.rate_updated"
	// EventClassStatusChanged records an activation toggle.
	EventClassStatusChanged EventType = "class.status_changed"
	// EventRecycleCompleted records one successful exchange.
	EventRecycleCompleted EventType = "recycle.completed"
	// EventBatchItemFailed records a per-item failure inside a batch.
	// Batch failures surface as observations, never as errors.
	EventBatchItemFailed EventType = "recycle.batch_item_failed"
	// EventRescuePerformed records an emergency rescue of a custodial unit.
	EventRescuePerformed EventType = "admin.rescue_performed"
	// EventPauseChanged records a pause or unpause.
	EventPauseChanged EventType = "admin.pause_changed"
)

// Event is one observation published on the service broker. The exact
// downstream sink (log file, dashboard, external system) is the
// integrator's concern; the core emits exactly one Event per observable
// occurrence.
type Event struct {
	Type      EventType
	Actor     Identity
	ClassID   string
	UnitID    string
	Points    uint64
	Rate      uint64
	Active    bool
	Paused    bool
	Reason    string
	Timestamp time.Time
}
