package assetclass

import (
	"fmt"

	"github.com/zjrosen/reclaim/internal/recycling"
)

// UnitStore persists unit ownership for stored asset classes. The sqlite
// infrastructure implements it; the not-found condition must surface as
// an error wrapping ErrUnknownUnit.
type UnitStore interface {
	Owner(classID, unitID string) (recycling.Identity, error)
	SetOwner(classID, unitID string, owner recycling.Identity) error
	Insert(classID, unitID string, owner recycling.Identity) error
	Remove(classID, unitID string) error
}

// Stored is an asset class whose unit ownership lives in a UnitStore,
// so units survive across process restarts.
type Stored struct {
	classID string
	units   UnitStore
}

var (
	_ recycling.AssetClass = (*Stored)(nil)
	_ recycling.Destroyer  = (*Stored)(nil)
)

// NewStored creates a stored asset class over a unit store.
func NewStored(classID string, units UnitStore) *Stored {
	return &Stored{classID: classID, units: units}
}

// Mint persists a fresh unit assigned to an owner.
func (s *Stored) Mint(unitID string, owner recycling.Identity) error {
	return s.units.Insert(s.classID, unitID, owner)
}

// OwnerOf returns the current owner of a unit.
func (s *Stored) OwnerOf(unitID string) (recycling.Identity, error) {
	return s.units.Owner(s.classID, unitID)
}

// Transfer moves a unit between identities. The sender must currently
// own the unit.
func (s *Stored) Transfer(from, to recycling.Identity, unitID string) error {
	owner, err := s.units.Owner(s.classID, unitID)
	if err != nil {
		return err
	}
	if owner != from {
		return fmt.Errorf("%w: %q belongs to %q", ErrWrongOwner, unitID, owner)
	}
	return s.units.SetOwner(s.classID, unitID, to)
}

// Destroy permanently removes a unit.
func (s *Stored) Destroy(unitID string) error {
	if _, err := s.units.Owner(s.classID, unitID); err != nil {
		return err
	}
	return s.units.Remove(s.classID, unitID)
}

// SupportsOwnership reports the ownership-query capability.
func (s *Stored) SupportsOwnership() bool {
	return true
}
