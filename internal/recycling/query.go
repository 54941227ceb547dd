package recycling

import (
	"fmt"
	"math"
)

// The query surface is side-effect free and callable by anyone. Reads
// that span the registry and the ledger take the shared read lock so
// they never observe a half-applied append.

// Stats is the aggregate projection over the registry and the ledger.
type Stats struct {
	TotalRecyclings uint64
	TotalPoints     uint64
	ActiveClasses   int
}

// GetClassConfig returns a class's configuration.
func (s *Service) GetClassConfig(classID string) (ClassConfig, error) {
	cfg := s.registry.Get(classID)
	if cfg == nil {
		return ClassConfig{}, fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	return *cfg, nil
}

// ListClasses returns every known class config.
func (s *Service) ListClasses() []ClassConfig {
	return s.registry.List()
}

// IsAccepted reports whether new exchanges against the class are
// currently permitted.
func (s *Service) IsAccepted(classID string) bool {
	cfg := s.registry.Get(classID)
	return cfg != nil && cfg.Active
}

// CalculatePoints returns rate * quantity for a registered class,
// refusing to overflow.
func (s *Service) CalculatePoints(classID string, quantity uint64) (uint64, error) {
	cfg := s.registry.Get(classID)
	if cfg == nil {
		return 0, fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	if quantity != 0 && cfg.PointsPerUnit > math.MaxUint64/quantity {
		return 0, fmt.Errorf("%w: %d * %d overflows", ErrValidation, cfg.PointsPerUnit, quantity)
	}
	return cfg.PointsPerUnit * quantity, nil
}

// HistoryForActor returns an actor's exchange records in append order.
func (s *Service) HistoryForActor(actor Identity) []Record {
	return s.ledger.HistoryForActor(actor)
}

// HistoryForClass returns a class's exchange records in append order.
func (s *Service) HistoryForClass(classID string) []Record {
	return s.ledger.HistoryForClass(classID)
}

// RecentRecords returns the most recent n ledger records.
func (s *Service) RecentRecords(n int) []Record {
	return s.ledger.Tail(n)
}

// HistorySize returns the ledger length.
func (s *Service) HistorySize() int {
	return s.ledger.Size()
}

// GetStats returns the aggregate counters as one consistent snapshot.
func (s *Service) GetStats() Stats {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return Stats{
		TotalRecyclings: uint64(s.ledger.Size()),
		TotalPoints:     s.ledger.TotalPoints(),
		ActiveClasses:   s.registry.ActiveCount(),
	}
}

// CanRecycle replicates the eligibility checks of an exchange without
// mutating state. The answer comes back as a value, never an error.
func (s *Service) CanRecycle(actor Identity, classID, unitID string) (bool, string) {
	cfg := s.registry.Get(classID)
	if cfg == nil {
		return false, "not registered"
	}
	if !cfg.Active {
		return false, "not active"
	}
	class := s.registry.Collaborator(classID)
	if class == nil {
		return false, "capability missing"
	}

	owner, err := safeOwnerOf(class, unitID)
	if err != nil {
		return false, "unit not found"
	}
	if owner != actor {
		return false, "not owner"
	}
	return true, ""
}
