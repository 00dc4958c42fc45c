// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package sqlite implements the record and vector stores on a single SQLite
// world database.
package sqlite

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lorekeep-dev/lorekeep/internal/store"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface checks.
var (
	_ store.RecordStore = (*Store)(nil)
	_ store.VectorStore = (*Store)(nil)
)

// Store is the SQLite-backed world database: entity and event records plus
// the semantic index entries, all in one file so the index travels with the
// world it describes.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// mu serializes index mutations (single-writer discipline). Record
	// CRUD and scans rely on SQLite's own WAL snapshot isolation.
	mu sync.Mutex
}

// Open opens (or creates) the world database at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "migrating world tables")
	}

	return &Store{db: db, logger: slog.Default()}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS entities (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	entity_type TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	event_type  TEXT NOT NULL DEFAULT '',
	event_date  TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS index_entries (
	object_id   TEXT NOT NULL,
	object_type TEXT NOT NULL,
	provider_id TEXT NOT NULL,
	model_id    TEXT NOT NULL,
	embedding   BLOB NOT NULL,
	text_hash   TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (object_id, object_type)
);

CREATE TABLE IF NOT EXISTS index_dims (
	provider_id TEXT NOT NULL,
	model_id    TEXT NOT NULL,
	dims        INTEGER NOT NULL,
	PRIMARY KEY (provider_id, model_id)
);

CREATE INDEX IF NOT EXISTS idx_entries_type ON index_entries(object_type, object_id);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
