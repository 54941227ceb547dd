package recycling

import (
	"fmt"
	"sync"
	"time"
)

// Registry owns the mapping from class identifier to its configuration
// and collaborator. It is the single source of truth for whether a class
// is accepted and at what rate.
//
// Authorization is not the registry's concern; the Service gates every
// mutation behind its Authorizer before calling in here.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*ClassConfig
	binding map[string]AssetClass
	clock   func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*ClassConfig),
		binding: make(map[string]AssetClass),
		clock:   time.Now,
	}
}

// Register creates the config for a class and binds its collaborator.
// A class that was deactivated may be registered again: it reactivates
// with the new rate, keeping its original RegisteredAt and counters.
func (r *Registry) Register(classID string, class AssetClass, pointsPerUnit uint64) (*ClassConfig, error) {
	if classID == "" {
		return nil, fmt.Errorf("%w: class id is required", ErrValidation)
	}
	if class == nil {
		return nil, fmt.Errorf("%w: class %q does not resolve to a collaborator", ErrValidation, classID)
	}
	if pointsPerUnit == 0 || pointsPerUnit > MaxPointsPerUnit {
		return nil, fmt.Errorf("%w: points per unit must be in 1..%d, got %d", ErrValidation, MaxPointsPerUnit, pointsPerUnit)
	}
	if !supportsOwnership(class) {
		return nil, fmt.Errorf("%w: class %q", ErrCapabilityMissing, classID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, known := r.classes[classID]
	if known && cfg.Active {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyRegistered, classID)
	}
	if !known {
		cfg = &ClassConfig{
			ClassID:      classID,
			RegisteredAt: r.clock(),
		}
		r.classes[classID] = cfg
	}
	cfg.PointsPerUnit = pointsPerUnit
	cfg.Active = true
	r.binding[classID] = class

	snapshot := *cfg
	return &snapshot, nil
}

// UpdateRate changes the rate for future exchanges. Past records are
// untouched.
func (r *Registry) UpdateRate(classID string, pointsPerUnit uint64) (*ClassConfig, error) {
	if pointsPerUnit == 0 || pointsPerUnit > MaxPointsPerUnit {
		return nil, fmt.Errorf("%w: points per unit must be in 1..%d, got %d", ErrValidation, MaxPointsPerUnit, pointsPerUnit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.classes[classID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	cfg.PointsPerUnit = pointsPerUnit

	snapshot := *cfg
	return &snapshot, nil
}

// SetActive toggles eligibility without touching history or counters.
func (r *Registry) SetActive(classID string, active bool) (*ClassConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.classes[classID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	cfg.Active = active

	snapshot := *cfg
	return &snapshot, nil
}

// Deactivate is the only removal path: configuration and history persist.
func (r *Registry) Deactivate(classID string) (*ClassConfig, error) {
	return r.SetActive(classID, false)
}

// Get returns a copy of a class's config, or nil if never registered.
func (r *Registry) Get(classID string) *ClassConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.classes[classID]
	if !ok {
		return nil
	}
	snapshot := *cfg
	return &snapshot
}

// Collaborator returns the bound collaborator for a class, or nil if the
// class was never registered or was restored from storage without a
// runtime binding.
func (r *Registry) Collaborator(classID string) AssetClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.binding[classID]
}

// Bind attaches a collaborator to an already-known class. Used when
// registry state is restored from storage, where bindings cannot be
// persisted.
func (r *Registry) Bind(classID string, class AssetClass) error {
	if class == nil {
		return fmt.Errorf("%w: collaborator is required", ErrValidation)
	}
	if !supportsOwnership(class) {
		return fmt.Errorf("%w: class %q", ErrCapabilityMissing, classID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[classID]; !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	r.binding[classID] = class
	return nil
}

// Restore inserts a config loaded from storage without a collaborator
// binding. It rejects classes the registry already knows. The persisted
// exchange counter is discarded: counters are derived state, so the
// ledger replay rebuilds them record by record. A counter row that went
// stale because its write failed after a durable append is corrected
// here rather than trusted.
func (r *Registry) Restore(cfg ClassConfig) error {
	if cfg.ClassID == "" || cfg.RegisteredAt.IsZero() {
		return fmt.Errorf("%w: restored config must carry class id and registration time", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[cfg.ClassID]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, cfg.ClassID)
	}
	stored := cfg
	stored.TotalRecycled = 0
	r.classes[cfg.ClassID] = &stored
	return nil
}

// rollbackRegister undoes an in-memory registration whose storage write
// failed. A nil previous means the call created the entry, so it is
// removed outright together with its binding; otherwise the prior
// snapshot is put back.
func (r *Registry) rollbackRegister(classID string, previous *ClassConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous == nil {
		delete(r.classes, classID)
		delete(r.binding, classID)
		return
	}
	snapshot := *previous
	r.classes[classID] = &snapshot
}

// IncrementRecycled bumps a class's exchange counter. Called by the
// ledger append path only.
func (r *Registry) IncrementRecycled(classID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cfg, ok := r.classes[classID]; ok {
		cfg.TotalRecycled++
	}
}

// ActiveCount returns the number of currently active classes.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, cfg := range r.classes {
		if cfg.Active {
			count++
		}
	}
	return count
}

// List returns copies of every known config.
func (r *Registry) List() []ClassConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ClassConfig, 0, len(r.classes))
	for _, cfg := range r.classes {
		result = append(result, *cfg)
	}
	return result
}
