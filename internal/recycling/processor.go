package recycling

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/reclaim/internal/log"
)

// The exchange pipelines follow a strict read-external-write ordering:
// every state read, including the rate capture, completes before the one
// call into the collaborator, and every state write happens after it
// returns. Even if the collaborator re-enters the service, it observes
// pre-write state and cannot double-spend a unit: by re-entry time the
// unit has already moved or been destroyed, so a repeated attempt fails
// at the ownership check. The in-progress guard rejects re-entrant
// top-level calls outright, independent of that ordering.

// RecycleByDestruction destroys a unit in exchange for points at the
// class's current rate.
func (s *Service) RecycleByDestruction(ctx context.Context, actor Identity, classID, unitID string) (Record, error) {
	return s.recycleOne(ctx, actor, classID, unitID, MethodDestruction)
}

// RecycleByTransfer moves a unit into custodial holding in exchange for
// points at the class's current rate.
func (s *Service) RecycleByTransfer(ctx context.Context, actor Identity, classID, unitID string) (Record, error) {
	return s.recycleOne(ctx, actor, classID, unitID, MethodTransfer)
}

func (s *Service) recycleOne(ctx context.Context, actor Identity, classID, unitID string, method Method) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "recycling.exchange", trace.WithAttributes(
		attribute.String("recycling.class_id", classID),
		attribute.String("recycling.unit_id", unitID),
		attribute.String("recycling.method", string(method)),
	))
	defer span.End()

	record, err := s.exchange(ctx, actor, classID, unitID, method)
	if err != nil {
		span.SetStatus(codes.Error, FailureReason(err))
		return Record{}, err
	}
	span.SetAttributes(attribute.Int64("recycling.points", int64(record.Points)))
	return record, nil
}

func (s *Service) exchange(_ context.Context, actor Identity, classID, unitID string, method Method) (Record, error) {
	if s.paused.Load() {
		return Record{}, ErrPaused
	}
	if actor == "" || classID == "" || unitID == "" {
		return Record{}, fmt.Errorf("%w: actor, class id, and unit id are required", ErrValidation)
	}

	// Exchange-in-progress guard: one top-level exchange at a time.
	if !s.inProgress.CompareAndSwap(false, true) {
		return Record{}, ErrReentrancy
	}
	defer s.inProgress.Store(false)

	if err := s.checkDuplicate(actor, classID, unitID); err != nil {
		return Record{}, err
	}

	// Reads. The rate is captured here, before the external call, so a
	// re-entrant rate change cannot affect this exchange.
	cfg := s.registry.Get(classID)
	if cfg == nil {
		return Record{}, fmt.Errorf("%w: %q", ErrNotRegistered, classID)
	}
	if !cfg.Active {
		return Record{}, fmt.Errorf("%w: %q", ErrNotActive, classID)
	}
	class := s.registry.Collaborator(classID)
	if class == nil {
		return Record{}, fmt.Errorf("%w: class %q has no runtime binding", ErrCapabilityMissing, classID)
	}

	owner, err := safeOwnerOf(class, unitID)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q: %v", ErrUnitNotFound, unitID, err)
	}
	if owner != actor {
		return Record{}, fmt.Errorf("%w: unit %q belongs to %q", ErrNotOwner, unitID, owner)
	}

	points := cfg.PointsPerUnit

	// The one external call.
	switch method {
	case MethodDestruction:
		destroyer, ok := class.(Destroyer)
		if !ok {
			return Record{}, fmt.Errorf("%w: class %q does not support destruction; use transfer-based recycling instead", ErrOperationFailed, classID)
		}
		if err := safeDestroy(destroyer, unitID); err != nil {
			return Record{}, fmt.Errorf("%w: destroy %q: %v; transfer-based recycling may still work", ErrOperationFailed, unitID, err)
		}
		// Postcondition: the unit must no longer resolve. A destruction
		// call that reports success while the unit survives is a fatal
		// inconsistency; no record may be created.
		if _, err := safeOwnerOf(class, unitID); err == nil {
			log.Error(log.CatRecycle, "destruction postcondition violated", "class", classID, "unit", unitID)
			return Record{}, fmt.Errorf("%w: %q", ErrPostcondition, unitID)
		}
	case MethodTransfer:
		if err := safeTransfer(class, actor, s.custodian, unitID); err != nil {
			return Record{}, fmt.Errorf("%w: transfer %q to custody: %v", ErrOperationFailed, unitID, err)
		}
	default:
		return Record{}, fmt.Errorf("%w: unknown method %q", ErrValidation, method)
	}

	// Writes.
	record, err := s.appendExchange(actor, classID, unitID, method, points)
	if err != nil {
		return Record{}, err
	}
	s.markProcessed(actor, classID, unitID)

	log.Info(log.CatRecycle, "exchange completed",
		"actor", actor, "class", classID, "unit", unitID, "method", method, "points", points)
	s.broker.Publish(Event{
		Type:      EventRecycleCompleted,
		Actor:     actor,
		ClassID:   classID,
		UnitID:    unitID,
		Points:    points,
		Timestamp: record.Timestamp,
	})
	return record, nil
}

func (s *Service) checkDuplicate(actor Identity, classID, unitID string) error {
	if s.dedup == nil {
		return nil
	}
	key := dedupKey(actor, classID, unitID)
	if _, seen := s.dedup.Get(context.Background(), key); seen {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, key)
	}
	return nil
}

func (s *Service) markProcessed(actor Identity, classID, unitID string) {
	if s.dedup == nil {
		return
	}
	s.dedup.Set(context.Background(), dedupKey(actor, classID, unitID), struct{}{}, s.dedupWindow)
}

func dedupKey(actor Identity, classID, unitID string) string {
	return string(actor) + "|" + classID + "|" + unitID
}
