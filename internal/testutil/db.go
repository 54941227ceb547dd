// Package testutil provides test fixtures: an in-memory database with
// the recycling schema and a builder for pre-populated services.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/require"
)

// Schema mirrors the migration schema for tests that exercise raw SQL
// without going through the migration runner.
const Schema = `
CREATE TABLE classes (
	class_id TEXT PRIMARY KEY,
	points_per_unit INTEGER NOT NULL CHECK (points_per_unit > 0),
	active INTEGER NOT NULL DEFAULT 1,
	total_recycled INTEGER NOT NULL DEFAULT 0,
	registered_at INTEGER NOT NULL
);

CREATE TABLE records (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	actor TEXT NOT NULL,
	class_id TEXT NOT NULL,
	unit_id TEXT NOT NULL,
	method TEXT NOT NULL,
	points INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY (class_id) REFERENCES classes(class_id)
);

CREATE INDEX idx_records_actor ON records(actor);
CREATE INDEX idx_records_class ON records(class_id);

CREATE TABLE units (
	class_id TEXT NOT NULL,
	unit_id TEXT NOT NULL,
	owner TEXT NOT NULL,
	PRIMARY KEY (class_id, unit_id)
);

CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewTestDB creates an in-memory SQLite database with the recycling
// schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err, "failed to open in-memory database")

	_, err = db.Exec(Schema)
	require.NoError(t, err, "failed to create schema")

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err, "failed to enable foreign keys")

	return db
}
