package recycling

import (
	"time"
)

// MaxPointsPerUnit is the system-wide ceiling on a class's rate.
const MaxPointsPerUnit uint64 = 1_000_000

// ClassStatus is the lifecycle state of an asset class. A class moves
// from Unregistered to Active on first registration and then only
// toggles between Active and Inactive; it is never erased.
type ClassStatus int

const (
	// StatusUnregistered means the class has never been registered.
	StatusUnregistered ClassStatus = iota
	// StatusActive means new exchanges against the class are permitted.
	StatusActive
	// StatusInactive means the class is soft-disabled: configuration and
	// history persist, but new exchanges are rejected.
	StatusInactive
)

func (s ClassStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unregistered"
	}
}

// ClassConfig is the registry's record of one asset class.
type ClassConfig struct {
	// ClassID is the class identifier.
	ClassID string
	// PointsPerUnit is the rate paid per recycled unit. Positive,
	// bounded above by MaxPointsPerUnit.
	PointsPerUnit uint64
	// Active gates whether new exchanges are permitted.
	Active bool
	// TotalRecycled counts exchanges completed against this class.
	// Monotonically non-decreasing.
	TotalRecycled uint64
	// RegisteredAt is the time of first registration. Never changes once
	// set; a zero value means the class has never been registered.
	RegisteredAt time.Time
}

// Status derives the lifecycle state from the config fields.
func (c *ClassConfig) Status() ClassStatus {
	if c == nil || c.RegisteredAt.IsZero() {
		return StatusUnregistered
	}
	if c.Active {
		return StatusActive
	}
	return StatusInactive
}
