// Package recycling implements the asset recycling core: the class
// registry, the append-only exchange ledger, and the single and batch
// recycle pipelines.
package recycling

import (
	"errors"
)

// ===========================================================================
// Validation Errors
// ===========================================================================

// ErrValidation is returned for malformed input: empty identifiers,
// zero or out-of-range rates, and batch size/shape violations.
var ErrValidation = errors.New("validation failed")

// ErrAuthorization is returned when a non-admin actor attempts an
// administrative operation.
var ErrAuthorization = errors.New("actor is not authorized")

// ===========================================================================
// Registry Errors
// ===========================================================================

// ErrNotRegistered is returned when an operation references a class that
// has never been registered.
var ErrNotRegistered = errors.New("asset class is not registered")

// ErrNotActive is returned when an exchange targets a registered but
// deactivated class.
var ErrNotActive = errors.New("asset class is not active")

// ErrAlreadyRegistered is returned when registering a class that is
// currently active.
var ErrAlreadyRegistered = errors.New("asset class is already registered")

// ErrCapabilityMissing is returned when a collaborator does not expose the
// ownership-query capability required at registration.
var ErrCapabilityMissing = errors.New("collaborator does not support ownership queries")

// ===========================================================================
// Exchange Errors
// ===========================================================================

// ErrNotOwner is returned when the calling actor does not own the unit
// being exchanged.
var ErrNotOwner = errors.New("actor does not own unit")

// ErrUnitNotFound is returned when the ownership query for a unit fails.
var ErrUnitNotFound = errors.New("unit not found")

// ErrOperationFailed is returned when the collaborator's disposal or
// transfer call fails.
var ErrOperationFailed = errors.New("disposal operation failed")

// ErrPostcondition is returned when a destruction call claimed success but
// the unit is still resolvable. This is a fatal inconsistency, never a
// recoverable condition.
var ErrPostcondition = errors.New("unit still exists after destruction")

// ===========================================================================
// Service Errors
// ===========================================================================

// ErrPaused is returned when any exchange is attempted while the service
// is administratively paused.
var ErrPaused = errors.New("recycling is paused")

// ErrReentrancy is returned when a top-level exchange is attempted while
// another exchange is already executing.
var ErrReentrancy = errors.New("exchange already in progress")

// ErrDuplicateRequest is returned when an identical exchange request is
// seen again within the dedup TTL window.
var ErrDuplicateRequest = errors.New("duplicate exchange request within TTL window")

// FailureReason maps an exchange error to the short reason string used
// in batch failure observations and eligibility answers.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotOwner):
		return "not owner"
	case errors.Is(err, ErrUnitNotFound):
		return "unit not found"
	case errors.Is(err, ErrNotRegistered):
		return "not registered"
	case errors.Is(err, ErrNotActive):
		return "not active"
	case errors.Is(err, ErrCapabilityMissing):
		return "capability missing"
	case errors.Is(err, ErrOperationFailed):
		return "operation failed"
	case errors.Is(err, ErrPostcondition):
		return "postcondition failed"
	case errors.Is(err, ErrPaused):
		return "paused"
	case errors.Is(err, ErrReentrancy):
		return "reentrancy"
	case errors.Is(err, ErrDuplicateRequest):
		return "duplicate request"
	case errors.Is(err, ErrAuthorization):
		return "not authorized"
	case errors.Is(err, ErrValidation):
		return "validation failed"
	default:
		return err.Error()
	}
}
