package sqlite

import (
	"time"

	"github.com/zjrosen/reclaim/internal/recycling"
)

// ClassModel is the database shape of a class config. Timestamps are
// stored as unix seconds, booleans as integers.
type ClassModel struct {
	ClassID       string
	PointsPerUnit int64
	Active        int64
	TotalRecycled int64
	RegisteredAt  int64
}

func toClassModel(cfg recycling.ClassConfig) ClassModel {
	active := int64(0)
	if cfg.Active {
		active = 1
	}
	return ClassModel{
		ClassID:       cfg.ClassID,
		PointsPerUnit: int64(cfg.PointsPerUnit),
		Active:        active,
		TotalRecycled: int64(cfg.TotalRecycled),
		RegisteredAt:  cfg.RegisteredAt.Unix(),
	}
}

func (m ClassModel) toDomain() recycling.ClassConfig {
	return recycling.ClassConfig{
		ClassID:       m.ClassID,
		PointsPerUnit: uint64(m.PointsPerUnit),
		Active:        m.Active != 0,
		TotalRecycled: uint64(m.TotalRecycled),
		RegisteredAt:  time.Unix(m.RegisteredAt, 0),
	}
}

// RecordModel is the database shape of a ledger record.
type RecordModel struct {
	Seq       int64
	ID        string
	Actor     string
	ClassID   string
	UnitID    string
	Method    string
	Points    int64
	CreatedAt int64
}

func toRecordModel(record recycling.Record) RecordModel {
	return RecordModel{
		Seq:       int64(record.Seq),
		ID:        record.ID,
		Actor:     string(record.Actor),
		ClassID:   record.ClassID,
		UnitID:    record.UnitID,
		Method:    string(record.Method),
		Points:    int64(record.Points),
		CreatedAt: record.Timestamp.Unix(),
	}
}

func (m RecordModel) toDomain() recycling.Record {
	return recycling.Record{
		ID:        m.ID,
		Seq:       uint64(m.Seq),
		Actor:     recycling.Identity(m.Actor),
		ClassID:   m.ClassID,
		UnitID:    m.UnitID,
		Method:    recycling.Method(m.Method),
		Points:    uint64(m.Points),
		Timestamp: time.Unix(m.CreatedAt, 0),
	}
}
