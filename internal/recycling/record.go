package recycling

import (
	"time"

	"github.com/google/uuid"
)

// Method distinguishes the two exchange variants.
type Method string

const (
	// MethodDestruction destroys the unit outright.
	MethodDestruction Method = "destruction"
	// MethodTransfer moves the unit into custodial holding.
	MethodTransfer Method = "transfer"
)

// Record is one completed exchange. Records are immutable and appended
// exactly once per successful exchange; no update or delete path exists.
type Record struct {
	// ID is the record's unique identifier.
	ID string
	// Seq is the record's position in the ledger (starts at 1).
	// Assigned by the ledger on append.
	Seq uint64
	// Actor performed the exchange.
	Actor Identity
	// ClassID is the class exchanged.
	ClassID string
	// UnitID is the specific unit within that class.
	UnitID string
	// Method is how the unit was given up.
	Method Method
	// Points is the award, fixed at the class's rate at the moment of
	// exchange. Later rate changes never touch recorded history.
	Points uint64
	// Timestamp is when the exchange completed.
	Timestamp time.Time
}

// newRecordID generates a record identifier.
func newRecordID() string {
	return uuid.New().String()
}
