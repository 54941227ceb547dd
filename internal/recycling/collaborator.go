package recycling

import (
	"fmt"
)

// Identity identifies an actor: an end user, the custodial holding
// account, or the administrative account. How an identity is
// authenticated is the collaborator's concern, not ours.
type Identity string

// AssetClass is the contract every registrable collaborator must satisfy.
// A collaborator owns the units of one asset class and answers ownership
// queries and transfer requests for them.
type AssetClass interface {
	// OwnerOf returns the current owner of a unit.
	// It returns an error if the unit does not exist.
	OwnerOf(unitID string) (Identity, error)

	// Transfer moves a unit from one identity to another.
	Transfer(from, to Identity, unitID string) error

	// SupportsOwnership is the capability-introspection probe used at
	// registration time to reject non-conforming collaborators.
	SupportsOwnership() bool
}

// Destroyer is the optional destruction capability. It is probed via type
// assertion at call time; registration does not require it.
type Destroyer interface {
	// Destroy permanently removes a unit. After a successful call the
	// unit must no longer resolve via OwnerOf.
	Destroy(unitID string) error
}

// supportsOwnership probes a collaborator's capability introspection.
// A panicking probe is treated the same as a negative one: the
// collaborator is untrusted code.
func supportsOwnership(class AssetClass) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return class.SupportsOwnership()
}

// The safe* helpers below invoke collaborator methods with panic
// recovery. Collaborators are externally supplied; a panic inside one
// must surface as an ordinary error, not take down the service.

func safeOwnerOf(class AssetClass, unitID string) (owner Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			owner, err = "", fmt.Errorf("owner query panicked: %v", r)
		}
	}()
	return class.OwnerOf(unitID)
}

func safeTransfer(class AssetClass, from, to Identity, unitID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transfer panicked: %v", r)
		}
	}()
	return class.Transfer(from, to, unitID)
}

func safeDestroy(destroyer Destroyer, unitID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("destroy panicked: %v", r)
		}
	}()
	return destroyer.Destroy(unitID)
}
