package recycling

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/reclaim/internal/log"
)

// MaxBatchSize is the ceiling on items per batch call.
const MaxBatchSize = 50

// BatchItem is one requested exchange inside a batch.
type BatchItem struct {
	ClassID        string
	UnitID         string
	UseDestruction bool
}

// ItemResult is the outcome of one batch item: either a completed record
// or a failure reason. No error ever propagates past the batch boundary.
type ItemResult struct {
	Index  int
	Item   BatchItem
	Record Record
	Err    error
}

// Failed reports whether the item failed.
func (r ItemResult) Failed() bool {
	return r.Err != nil
}

// Reason returns the short failure reason, or "" on success.
func (r ItemResult) Reason() string {
	return FailureReason(r.Err)
}

// BatchResult aggregates a batch call.
type BatchResult struct {
	// TotalPoints sums points across successful items only.
	TotalPoints uint64
	// Items holds one result per input item, in input order.
	Items []ItemResult
}

// Succeeded returns the number of successful items.
func (r BatchResult) Succeeded() int {
	count := 0
	for _, item := range r.Items {
		if !item.Failed() {
			count++
		}
	}
	return count
}

// RecycleBatch executes up to MaxBatchSize independent exchanges inside
// one caller-visible operation. Shape violations fail the whole call
// before any item runs; after that, each item is an isolated
// sub-operation. A failure is recorded as an observation and processing
// continues in input order; prior successes are never unwound, and
// failures are never retried or reordered.
func (s *Service) RecycleBatch(ctx context.Context, actor Identity, items []BatchItem) (BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "recycling.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("recycling.batch_size", len(items)))

	if s.paused.Load() {
		return BatchResult{}, ErrPaused
	}
	if len(items) == 0 {
		return BatchResult{}, fmt.Errorf("%w: batch is empty", ErrValidation)
	}
	if len(items) > MaxBatchSize {
		return BatchResult{}, fmt.Errorf("%w: batch of %d exceeds ceiling of %d", ErrValidation, len(items), MaxBatchSize)
	}

	result := BatchResult{Items: make([]ItemResult, 0, len(items))}
	for i, item := range items {
		method := MethodTransfer
		if item.UseDestruction {
			method = MethodDestruction
		}

		// Isolated sub-operation: the per-item guard is acquired and
		// released inside recycleOne, so a collaborator invoked from
		// item i cannot re-enter before item i+1 runs.
		record, err := s.recycleOne(ctx, actor, item.ClassID, item.UnitID, method)
		if err != nil {
			log.Warn(log.CatBatch, "batch item failed",
				"index", i, "class", item.ClassID, "unit", item.UnitID, "reason", FailureReason(err))
			s.broker.Publish(Event{
				Type:      EventBatchItemFailed,
				Actor:     actor,
				ClassID:   item.ClassID,
				UnitID:    item.UnitID,
				Reason:    FailureReason(err),
				Timestamp: s.clock(),
			})
			result.Items = append(result.Items, ItemResult{Index: i, Item: item, Err: err})
			continue
		}

		result.TotalPoints += record.Points
		result.Items = append(result.Items, ItemResult{Index: i, Item: item, Record: record})
	}

	log.Info(log.CatBatch, "batch completed",
		"actor", actor, "items", len(items), "succeeded", result.Succeeded(), "points", result.TotalPoints)
	return result, nil
}

// RecycleBatchSlices is the slice-per-field form of RecycleBatch: all
// three slices must have equal length.
func (s *Service) RecycleBatchSlices(ctx context.Context, actor Identity, classIDs, unitIDs []string, useDestruction []bool) (BatchResult, error) {
	if len(classIDs) != len(unitIDs) || len(classIDs) != len(useDestruction) {
		return BatchResult{}, fmt.Errorf("%w: batch slices must have equal length: %d classes, %d units, %d flags",
			ErrValidation, len(classIDs), len(unitIDs), len(useDestruction))
	}

	items := make([]BatchItem, len(classIDs))
	for i := range classIDs {
		items[i] = BatchItem{ClassID: classIDs[i], UnitID: unitIDs[i], UseDestruction: useDestruction[i]}
	}
	return s.RecycleBatch(ctx, actor, items)
}
