package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/zjrosen/reclaim/internal/recycling"
)

const recordColumns = `seq, id, actor, class_id, unit_id, method, points, created_at`

// LedgerRepository persists class configs and ledger records. It
// implements recycling.Store; records are insert-only, matching the
// ledger's append-only contract.
type LedgerRepository struct {
	db *sql.DB
}

var (
	_ recycling.Store      = (*LedgerRepository)(nil)
	_ recycling.PauseStore = (*LedgerRepository)(nil)
)

// SaveClass inserts or updates a class config. RegisteredAt never
// changes after the first insert.
func (r *LedgerRepository) SaveClass(cfg recycling.ClassConfig) error {
	model := toClassModel(cfg)
	_, err := r.db.Exec(
		`INSERT INTO classes (class_id, points_per_unit, active, total_recycled, registered_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (class_id) DO UPDATE SET
			points_per_unit = excluded.points_per_unit,
			active = excluded.active,
			total_recycled = excluded.total_recycled`,
		model.ClassID, model.PointsPerUnit, model.Active, model.TotalRecycled, model.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save class: %w", err)
	}
	return nil
}

// AppendRecord inserts a ledger record. The seq primary key rejects any
// attempt to write the same position twice.
func (r *LedgerRepository) AppendRecord(record recycling.Record) error {
	model := toRecordModel(record)
	_, err := r.db.Exec(
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.Seq, model.ID, model.Actor, model.ClassID, model.UnitID, model.Method, model.Points, model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// LoadClasses returns every persisted class config.
func (r *LedgerRepository) LoadClasses() ([]recycling.ClassConfig, error) {
	rows, err := r.db.Query(
		`SELECT class_id, points_per_unit, active, total_recycled, registered_at FROM classes ORDER BY class_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}
	defer rows.Close()

	var configs []recycling.ClassConfig
	for rows.Next() {
		var model ClassModel
		if err := rows.Scan(&model.ClassID, &model.PointsPerUnit, &model.Active, &model.TotalRecycled, &model.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		configs = append(configs, model.toDomain())
	}
	return configs, rows.Err()
}

// LoadRecords returns every persisted record in sequence order.
func (r *LedgerRepository) LoadRecords() ([]recycling.Record, error) {
	rows, err := r.db.Query(`SELECT ` + recordColumns + ` FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	var records []recycling.Record
	for rows.Next() {
		var model RecordModel
		if err := rows.Scan(&model.Seq, &model.ID, &model.Actor, &model.ClassID, &model.UnitID, &model.Method, &model.Points, &model.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, model.toDomain())
	}
	return records, rows.Err()
}

// SavePaused persists the operational pause flag.
func (r *LedgerRepository) SavePaused(paused bool) error {
	value := "0"
	if paused {
		value = "1"
	}
	_, err := r.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('paused', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		value,
	)
	if err != nil {
		return fmt.Errorf("failed to save pause flag: %w", err)
	}
	return nil
}

// LoadPaused returns the persisted pause flag, defaulting to unpaused.
func (r *LedgerRepository) LoadPaused() (bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM meta WHERE key = 'paused'`).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load pause flag: %w", err)
	}
	return value == "1", nil
}
