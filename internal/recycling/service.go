package recycling

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/reclaim/internal/cachemanager"
	"github.com/zjrosen/reclaim/internal/log"
	"github.com/zjrosen/reclaim/internal/pubsub"
)

// Operation names an administrative operation for authorization checks.
type Operation string

const (
	OpRegister   Operation = "register"
	OpUpdateRate Operation = "update_rate"
	OpSetActive  Operation = "set_active"
	OpPause      Operation = "pause"
	OpRescue     Operation = "rescue"
)

// Authorizer decides whether an actor may perform an administrative
// operation. Identity establishment is the caller's concern; the service
// only consults this capability at the top of each administrative call.
type Authorizer func(actor Identity, op Operation) bool

// AdminOnly returns the default authorizer: a single administrative
// identity may perform every operation.
func AdminOnly(admin Identity) Authorizer {
	return func(actor Identity, _ Operation) bool {
		return actor == admin && admin != ""
	}
}

// Store persists registry and ledger state. Writes happen before the
// corresponding in-memory effects so that a storage failure aborts the
// operation cleanly.
type Store interface {
	SaveClass(cfg ClassConfig) error
	AppendRecord(record Record) error
}

// PauseStore is an optional Store extension that persists the pause
// flag across restarts.
type PauseStore interface {
	SavePaused(paused bool) error
	LoadPaused() (bool, error)
}

// Options configures a Service.
type Options struct {
	// Admin is the administrative identity. Ignored when Authorizer is
	// set.
	Admin Identity
	// Authorizer overrides the default admin-only check.
	Authorizer Authorizer
	// Custodian is the destination identity for transfer-based
	// exchanges.
	Custodian Identity
	// Store persists state. Optional; nil keeps everything in memory.
	Store Store
	// DedupWindow enables the duplicate-request guard when positive: a
	// successful exchange key repeated within the window is rejected.
	DedupWindow time.Duration
	// Tracer instruments the exchange pipelines. Optional.
	Tracer trace.Tracer
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Service is the subsystem facade: it owns the registry, the ledger, the
// pause flag, the reentrancy guard, and the observation broker. Every
// top-level call is one atomic transition; there is exactly one writer
// per logical transaction and writers never interleave partial updates.
type Service struct {
	registry  *Registry
	ledger    *Ledger
	broker    *pubsub.Broker[Event]
	store     Store
	authorize Authorizer
	custodian Identity
	clock     func() time.Time
	tracer    trace.Tracer

	// stateMu makes the multi-structure write in appendExchange (and
	// the read pair in Stats) one indivisible step for observers.
	stateMu sync.RWMutex

	// inProgress is the global exchange-in-progress guard. It rejects
	// re-entrant top-level exchanges regardless of the read/write
	// ordering inside the pipeline.
	inProgress atomic.Bool

	paused atomic.Bool

	dedup       cachemanager.CacheManager[string, struct{}]
	dedupWindow time.Duration
}

// NewService creates a Service from options.
func NewService(opts Options) *Service {
	authorize := opts.Authorizer
	if authorize == nil {
		authorize = AdminOnly(opts.Admin)
	}
	custodian := opts.Custodian
	if custodian == "" {
		custodian = "custody:reclaim"
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("reclaim")
	}

	s := &Service{
		registry:    NewRegistry(),
		ledger:      NewLedger(),
		broker:      pubsub.NewBroker[Event](),
		store:       opts.Store,
		authorize:   authorize,
		custodian:   custodian,
		clock:       clock,
		tracer:      tracer,
		dedupWindow: opts.DedupWindow,
	}
	s.registry.clock = clock
	if opts.DedupWindow > 0 {
		s.dedup = cachemanager.NewInMemoryCacheManager[string, struct{}](
			"exchange-dedup", opts.DedupWindow, cachemanager.DefaultCleanupInterval)
	}
	return s
}

// Subscribe returns a channel of service observations. The subscription
// ends when ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context) <-chan Event {
	return s.broker.Subscribe(ctx)
}

// Close shuts down the observation broker.
func (s *Service) Close() {
	s.broker.Close()
}

// Custodian returns the custodial holding identity.
func (s *Service) Custodian() Identity {
	return s.custodian
}

// ===========================================================================
// Administrative surface
// ===========================================================================

// Register adds an asset class at the given rate and marks it active.
func (s *Service) Register(actor Identity, classID string, class AssetClass, pointsPerUnit uint64) (*ClassConfig, error) {
	if !s.authorize(actor, OpRegister) {
		return nil, fmt.Errorf("%w: %s", ErrAuthorization, OpRegister)
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	previous := s.registry.Get(classID)
	cfg, err := s.registry.Register(classID, class, pointsPerUnit)
	if err != nil {
		return nil, err
	}
	if err := s.saveClass(*cfg); err != nil {
		// Undo the in-memory registration so state matches storage. A
		// first-time registration is removed entirely; a reactivation
		// falls back to the prior snapshot.
		s.registry.rollbackRegister(classID, previous)
		return nil, err
	}

	log.Info(log.CatRegistry, "class registered", "class", classID, "rate", pointsPerUnit)
	s.broker.Publish(Event{
		Type:      EventClassRegistered,
		Actor:     actor,
		ClassID:   classID,
		Rate:      pointsPerUnit,
		Active:    true,
		Timestamp: s.clock(),
	})
	return cfg, nil
}

// UpdateRate changes the rate used by future exchanges. Recorded history
// is never touched.
func (s *Service) UpdateRate(actor Identity, classID string, pointsPerUnit uint64) (*ClassConfig, error) {
	if !s.authorize(actor, OpUpdateRate) {
		return nil, fmt.Errorf("%w: %s", ErrAuthorization, OpUpdateRate)
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	previous := s.registry.Get(classID)
	cfg, err := s.registry.UpdateRate(classID, pointsPerUnit)
	if err != nil {
		return nil, err
	}
	if err := s.saveClass(*cfg); err != nil {
		_, _ = s.registry.UpdateRate(classID, previous.PointsPerUnit)
		return nil, err
	}

	log.Info(log.CatRegistry, "rate updated", "class", classID, "rate", pointsPerUnit)
	s.broker.Publish(Event{
		Type:      EventClassRateUpdated,
		Actor:     actor,
		ClassID:   classID,
		Rate:      pointsPerUnit,
		Active:    cfg.Active,
		Timestamp: s.clock(),
	})
	return cfg, nil
}

// SetActive toggles a class's eligibility without touching history.
func (s *Service) SetActive(actor Identity, classID string, active bool) (*ClassConfig, error) {
	if !s.authorize(actor, OpSetActive) {
		return nil, fmt.Errorf("%w: %s", ErrAuthorization, OpSetActive)
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	previous := s.registry.Get(classID)
	cfg, err := s.registry.SetActive(classID, active)
	if err != nil {
		return nil, err
	}
	if err := s.saveClass(*cfg); err != nil {
		_, _ = s.registry.SetActive(classID, previous.Active)
		return nil, err
	}

	log.Info(log.CatRegistry, "class status changed", "class", classID, "active", active)
	s.broker.Publish(Event{
		Type:      EventClassStatusChanged,
		Actor:     actor,
		ClassID:   classID,
		Rate:      cfg.PointsPerUnit,
		Active:    active,
		Timestamp: s.clock(),
	})
	return cfg, nil
}

// Deactivate is the only removal path; configuration and history persist.
func (s *Service) Deactivate(actor Identity, classID string) (*ClassConfig, error) {
	return s.SetActive(actor, classID, false)
}

// Pause halts all recycle operations. Registry mutation and queries stay
// available.
func (s *Service) Pause(actor Identity) error {
	return s.setPaused(actor, true)
}

// Unpause resumes recycle operations.
func (s *Service) Unpause(actor Identity) error {
	return s.setPaused(actor, false)
}

// Paused reports whether exchanges are halted.
func (s *Service) Paused() bool {
	return s.paused.Load()
}

func (s *Service) setPaused(actor Identity, paused bool) error {
	if !s.authorize(actor, OpPause) {
		return fmt.Errorf("%w: %s", ErrAuthorization, OpPause)
	}
	if ps, ok := s.store.(PauseStore); ok {
		if err := ps.SavePaused(paused); err != nil {
			return fmt.Errorf("persist pause flag: %w", err)
		}
	}
	s.paused.Store(paused)

	log.Info(log.CatAdmin, "pause changed", "paused", paused)
	s.broker.Publish(Event{
		Type:      EventPauseChanged,
		Actor:     actor,
		Paused:    paused,
		Timestamp: s.clock(),
	})
	return nil
}

// EmergencyRescue moves a stuck custodial unit out to a designated
// recovery identity. It works regardless of the pause flag and never
// touches the ledger.
func (s *Service) EmergencyRescue(actor Identity, classID, unitID string, to Identity) error {
	if !s.authorize(actor, OpRescue) {
		return fmt.Errorf("%w: %s", ErrAuthorization, OpRescue)
	}
	if unitID == "" || to == "" {
		return fmt.Errorf("%w: unit id and recovery identity are required", ErrValidation)
	}

	if !s.inProgress.CompareAndSwap(false, true) {
		return ErrReentrancy
	}
	defer s.inProgress.Store(false)

	cfg := s.registry.Get(classID)
	if cfg == nil {
		return fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	class := s.registry.Collaborator(classID)
	if class == nil {
		return fmt.Errorf("%w: class %q has no runtime binding", ErrCapabilityMissing, classID)
	}

	owner, err := safeOwnerOf(class, unitID)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnitNotFound, unitID, err)
	}
	if owner != s.custodian {
		return fmt.Errorf("%w: unit %q is not in custodial holding", ErrValidation, unitID)
	}

	if err := safeTransfer(class, s.custodian, to, unitID); err != nil {
		return fmt.Errorf("%w: rescue transfer: %v", ErrOperationFailed, err)
	}

	log.Info(log.CatAdmin, "rescue performed", "class", classID, "unit", unitID, "to", to)
	s.broker.Publish(Event{
		Type:      EventRescuePerformed,
		Actor:     to,
		ClassID:   classID,
		UnitID:    unitID,
		Timestamp: s.clock(),
	})
	return nil
}

// ===========================================================================
// State restoration
// ===========================================================================

// RestoreClass loads a persisted class config. The collaborator binding
// must be attached afterwards via BindCollaborator before the class can
// exchange again.
func (s *Service) RestoreClass(cfg ClassConfig) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.registry.Restore(cfg)
}

// RestoreRecord re-appends a persisted ledger record, preserving its
// original sequence number and timestamp. Records must arrive in
// sequence order. Each replayed record bumps its class's exchange
// counter, rebuilding the counters RestoreClass zeroed so they agree
// with the ledger fold even when a counter row went stale in storage.
func (s *Service) RestoreRecord(record Record) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if record.Seq != s.ledger.NextSeq() {
		return fmt.Errorf("%w: record %q out of sequence: got %d, want %d",
			ErrValidation, record.ID, record.Seq, s.ledger.NextSeq())
	}
	s.ledger.Append(record)
	s.registry.IncrementRecycled(record.ClassID)
	return nil
}

// BindCollaborator attaches a runtime collaborator to a restored class.
func (s *Service) BindCollaborator(classID string, class AssetClass) error {
	return s.registry.Bind(classID, class)
}

// RestorePaused loads a persisted pause flag without authorization or
// observation.
func (s *Service) RestorePaused(paused bool) {
	s.paused.Store(paused)
}

// ===========================================================================
// Shared record creation
// ===========================================================================

// appendExchange performs the single indivisible update shared by both
// exchange variants: ledger append, per-actor/per-class index update,
// class counter increment, and both global aggregates. Storage writes
// happen first so a failure leaves memory untouched.
func (s *Service) appendExchange(actor Identity, classID, unitID string, method Method, points uint64) (Record, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	record := Record{
		ID:        newRecordID(),
		Seq:       s.ledger.NextSeq(),
		Actor:     actor,
		ClassID:   classID,
		UnitID:    unitID,
		Method:    method,
		Points:    points,
		Timestamp: s.clock(),
	}

	if s.store != nil {
		if err := s.store.AppendRecord(record); err != nil {
			return Record{}, fmt.Errorf("persist record: %w", err)
		}
	}

	s.ledger.Append(record)
	s.registry.IncrementRecycled(classID)

	if cfg := s.registry.Get(classID); cfg != nil {
		if err := s.saveClass(*cfg); err != nil {
			// The record is already durable; counter persistence will
			// catch up on the next class write. Log, don't fail.
			log.ErrorErr(log.CatDB, "persist class counter", err, "class", classID)
		}
	}

	log.Debug(log.CatLedger, "record appended",
		"seq", record.Seq, "actor", actor, "class", classID, "unit", unitID, "points", points)
	return record, nil
}

func (s *Service) saveClass(cfg ClassConfig) error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveClass(cfg)
}
