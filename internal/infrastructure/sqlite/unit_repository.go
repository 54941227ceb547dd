package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/reclaim/internal/assetclass"
	"github.com/zjrosen/reclaim/internal/recycling"
)

// UnitRepository persists unit ownership for stored asset classes.
type UnitRepository struct {
	db *sql.DB
}

var _ assetclass.UnitStore = (*UnitRepository)(nil)

// Owner returns the current owner of a unit.
func (r *UnitRepository) Owner(classID, unitID string) (recycling.Identity, error) {
	var owner string
	err := r.db.QueryRow(
		`SELECT owner FROM units WHERE class_id = ? AND unit_id = ?`,
		classID, unitID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", assetclass.ErrUnknownUnit, unitID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query unit owner: %w", err)
	}
	return recycling.Identity(owner), nil
}

// SetOwner reassigns an existing unit.
func (r *UnitRepository) SetOwner(classID, unitID string, owner recycling.Identity) error {
	result, err := r.db.Exec(
		`UPDATE units SET owner = ? WHERE class_id = ? AND unit_id = ?`,
		string(owner), classID, unitID,
	)
	if err != nil {
		return fmt.Errorf("failed to update unit owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", assetclass.ErrUnknownUnit, unitID)
	}
	return nil
}

// Insert creates a fresh unit with an owner.
func (r *UnitRepository) Insert(classID, unitID string, owner recycling.Identity) error {
	_, err := r.db.Exec(
		`INSERT INTO units (class_id, unit_id, owner) VALUES (?, ?, ?)`,
		classID, unitID, string(owner),
	)
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

// Remove deletes a unit permanently.
func (r *UnitRepository) Remove(classID, unitID string) error {
	result, err := r.db.Exec(
		`DELETE FROM units WHERE class_id = ? AND unit_id = ?`,
		classID, unitID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove unit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", assetclass.ErrUnknownUnit, unitID)
	}
	return nil
}
