// Package assetclass provides asset-class collaborators: the external
// parties that own units and answer ownership queries, transfers, and
// destruction requests for them.
package assetclass

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/reclaim/internal/recycling"
)

// ErrUnknownUnit is returned when a unit does not exist in the class.
var ErrUnknownUnit = errors.New("unknown unit")

// ErrWrongOwner is returned when a transfer names a sender that does not
// own the unit.
var ErrWrongOwner = errors.New("sender does not own unit")

// pool is the shared unit-ownership map behind the in-memory classes.
type pool struct {
	mu     sync.RWMutex
	owners map[string]recycling.Identity
}

func newPool() pool {
	return pool{owners: make(map[string]recycling.Identity)}
}

// Mint assigns a fresh unit to an owner, replacing any existing
// assignment.
func (p *pool) Mint(unitID string, owner recycling.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owners[unitID] = owner
}

// OwnerOf returns the current owner of a unit.
func (p *pool) OwnerOf(unitID string) (recycling.Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	owner, ok := p.owners[unitID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, unitID)
	}
	return owner, nil
}

// Transfer moves a unit between identities. The sender must currently
// own the unit.
func (p *pool) Transfer(from, to recycling.Identity, unitID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	owner, ok := p.owners[unitID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unitID)
	}
	if owner != from {
		return fmt.Errorf("%w: %q belongs to %q", ErrWrongOwner, unitID, owner)
	}
	p.owners[unitID] = to
	return nil
}

// SupportsOwnership reports the ownership-query capability.
func (p *pool) SupportsOwnership() bool {
	return true
}

// Size returns the number of units currently in the class.
func (p *pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.owners)
}

// Memory is an in-memory asset class supporting ownership queries,
// transfers, and destruction. It is safe for concurrent use.
type Memory struct {
	pool
}

var (
	_ recycling.AssetClass = (*Memory)(nil)
	_ recycling.Destroyer  = (*Memory)(nil)
)

// NewMemory creates an empty in-memory asset class.
func NewMemory() *Memory {
	return &Memory{pool: newPool()}
}

// Destroy permanently removes a unit.
func (m *Memory) Destroy(unitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owners[unitID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unitID)
	}
	delete(m.owners, unitID)
	return nil
}

// TransferOnly is an in-memory asset class without the destruction
// capability. Destructive exchanges against it fail and suggest the
// custodial variant.
type TransferOnly struct {
	pool
}

var _ recycling.AssetClass = (*TransferOnly)(nil)

// NewTransferOnly creates an empty transfer-only asset class.
func NewTransferOnly() *TransferOnly {
	return &TransferOnly{pool: newPool()}
}
