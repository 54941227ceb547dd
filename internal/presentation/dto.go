package presentation

import (
	"time"

	"github.com/zjrosen/reclaim/internal/recycling"
)

// ClassDTO represents a registered recyclable class for presentation
type ClassDTO struct {
	ClassID       string `json:"class_id"`
	PointsPerUnit uint64 `json:"points_per_unit"`
	Status        string `json:"status"`
	TotalRecycled uint64 `json:"total_recycled"`
	RegisteredAt  string `json:"registered_at"`
}

// RecordDTO represents one ledger entry for presentation
type RecordDTO struct {
	ID        string `json:"id"`
	Seq       uint64 `json:"seq"`
	Actor     string `json:"actor"`
	ClassID   string `json:"class_id"`
	UnitID    string `json:"unit_id"`
	Method    string `json:"method"`
	Points    uint64 `json:"points"`
	Timestamp string `json:"timestamp"`
}

// StatsDTO represents aggregate ledger statistics
type StatsDTO struct {
	TotalRecyclings uint64 `json:"total_recyclings"`
	TotalPoints     uint64 `json:"total_points"`
	ActiveClasses   int    `json:"active_classes"`
}

// BatchItemDTO represents a single batch item outcome
type BatchItemDTO struct {
	Index   int        `json:"index"`
	ClassID string     `json:"class_id"`
	UnitID  string     `json:"unit_id"`
	OK      bool       `json:"ok"`
	Points  uint64     `json:"points,omitempty"`
	Reason  string     `json:"reason,omitempty"`
	Record  *RecordDTO `json:"record,omitempty"`
}

// BatchResultDTO represents the outcome of a batch recycle operation
type BatchResultDTO struct {
	TotalPoints uint64         `json:"total_points"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Items       []BatchItemDTO `json:"items"`
}

// FromClass converts a domain class config to a DTO.
func FromClass(cfg recycling.ClassConfig) ClassDTO {
	registeredAt := ""
	if !cfg.RegisteredAt.IsZero() {
		registeredAt = cfg.RegisteredAt.Format(time.RFC3339)
	}
	return ClassDTO{
		ClassID:       cfg.ClassID,
		PointsPerUnit: cfg.PointsPerUnit,
		Status:        cfg.Status().String(),
		TotalRecycled: cfg.TotalRecycled,
		RegisteredAt:  registeredAt,
	}
}

// FromClasses converts a slice of domain class configs to DTOs
func FromClasses(cfgs []recycling.ClassConfig) []ClassDTO {
	dtos := make([]ClassDTO, len(cfgs))
	for i, cfg := range cfgs {
		dtos[i] = FromClass(cfg)
	}
	return dtos
}

// FromRecord converts a ledger record to a DTO.
func FromRecord(rec recycling.Record) RecordDTO {
	return RecordDTO{
		ID:        rec.ID,
		Seq:       rec.Seq,
		Actor:     string(rec.Actor),
		ClassID:   rec.ClassID,
		UnitID:    rec.UnitID,
		Method:    string(rec.Method),
		Points:    rec.Points,
		Timestamp: rec.Timestamp.Format(time.RFC3339),
	}
}

// FromRecords converts a slice of ledger records to DTOs
func FromRecords(recs []recycling.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = FromRecord(rec)
	}
	return dtos
}

// FromStats converts ledger statistics to a DTO
func FromStats(stats recycling.Stats) StatsDTO {
	return StatsDTO{
		TotalRecyclings: stats.TotalRecyclings,
		TotalPoints:     stats.TotalPoints,
		ActiveClasses:   stats.ActiveClasses,
	}
}

// FromBatchResult converts a batch outcome to a DTO, flattening each
// item into an ok/reason shape that is easy to scan in JSON output.
func FromBatchResult(result recycling.BatchResult) BatchResultDTO {
	items := make([]BatchItemDTO, len(result.Items))
	failed := 0
	for i, item := range result.Items {
		dto := BatchItemDTO{
			Index:   item.Index,
			ClassID: item.Item.ClassID,
			UnitID:  item.Item.UnitID,
			OK:      !item.Failed(),
		}
		if item.Failed() {
			dto.Reason = item.Reason()
			failed++
		} else {
			dto.Points = item.Record.Points
			rec := FromRecord(item.Record)
			dto.Record = &rec
		}
		items[i] = dto
	}
	return BatchResultDTO{
		TotalPoints: result.TotalPoints,
		Succeeded:   result.Succeeded(),
		Failed:      failed,
		Items:       items,
	}
}
