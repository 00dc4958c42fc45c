// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/lorekeep-dev/lorekeep/internal/store"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// Upsert replaces any existing entry for (ObjectID, ObjectType) atomically.
// The first entry written for a (ProviderID, ModelID) pair registers its
// dimension; later entries under the same pair must match it or the call
// fails with index.upsert.dimension_conflict and the store is unchanged.
func (s *Store) Upsert(ctx context.Context, entry store.IndexEntry) error {
	if entry.ObjectID == "" || !store.ValidObjectType(entry.ObjectType) {
		return lkerr.New(lkerr.CodeRecordInvalidInput, "index entry needs an object id and a valid object type")
	}
	if len(entry.Embedding) == 0 {
		return lkerr.New(lkerr.CodeRecordInvalidInput, "index entry needs a non-empty embedding")
	}

	blob, err := sqlite_vec.SerializeFloat32(entry.Embedding)
	if err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "serializing embedding")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var dims int
	err = tx.QueryRowContext(ctx,
		`SELECT dims FROM index_dims WHERE provider_id = ? AND model_id = ?`,
		entry.ProviderID, entry.ModelID).Scan(&dims)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		dims = len(entry.Embedding)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_dims (provider_id, model_id, dims) VALUES (?, ?, ?)`,
			entry.ProviderID, entry.ModelID, dims); err != nil {
			return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "registering embedding dimension")
		}
	case err != nil:
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "querying embedding dimension")
	case dims != len(entry.Embedding):
		return lkerr.New(lkerr.CodeIndexDimensionConflict, "embedding dimension conflict",
			lkerr.FieldProvider(entry.ProviderID),
			lkerr.FieldModel(entry.ModelID),
			lkerr.Field("expected_dims", dims),
			lkerr.Field("got_dims", len(entry.Embedding)))
	}

	const q = `INSERT INTO index_entries (object_id, object_type, provider_id, model_id, embedding, text_hash, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(object_id, object_type) DO UPDATE SET
	provider_id = excluded.provider_id,
	model_id    = excluded.model_id,
	embedding   = excluded.embedding,
	text_hash   = excluded.text_hash,
	updated_at  = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, q,
		entry.ObjectID, string(entry.ObjectType), entry.ProviderID, entry.ModelID,
		blob, entry.TextHash, formatTime(entry.UpdatedAt)); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "upserting index entry %s", entry.ObjectID)
	}

	if err := tx.Commit(); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "committing index upsert")
	}
	return nil
}

// Delete removes the entry for (ObjectType, id) if present. Idempotent.
func (s *Store) Delete(ctx context.Context, t store.ObjectType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM index_entries WHERE object_id = ? AND object_type = ?`,
		id, string(t)); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "deleting index entry %s", id)
	}
	return nil
}

// Get returns the stored entry, or nil when none exists.
func (s *Store) Get(ctx context.Context, t store.ObjectType, id string) (*store.IndexEntry, error) {
	const q = `SELECT object_id, object_type, provider_id, model_id, embedding, text_hash, updated_at
FROM index_entries WHERE object_id = ? AND object_type = ?`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, q, id, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Scan materializes all entries, optionally restricted to one object type.
// Rows whose embedding length disagrees with their (provider_id, model_id)
// registration are treated as corrupt: logged and skipped, never fatal.
func (s *Store) Scan(ctx context.Context, typeFilter *store.ObjectType) ([]store.IndexEntry, error) {
	q := `SELECT e.object_id, e.object_type, e.provider_id, e.model_id, e.embedding, e.text_hash, e.updated_at, d.dims
FROM index_entries e
JOIN index_dims d ON d.provider_id = e.provider_id AND d.model_id = e.model_id`
	var args []any
	if typeFilter != nil {
		q += ` WHERE e.object_type = ?`
		args = append(args, string(*typeFilter))
	}
	q += ` ORDER BY e.object_type, e.object_id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "scanning index entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []store.IndexEntry
	for rows.Next() {
		var e store.IndexEntry
		var objectType, updated string
		var blob []byte
		var dims int
		if err := rows.Scan(&e.ObjectID, &objectType, &e.ProviderID, &e.ModelID,
			&blob, &e.TextHash, &updated, &dims); err != nil {
			return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "scanning index entry row")
		}

		embedding, err := deserializeFloat32(blob)
		if err != nil || len(embedding) != dims {
			s.logger.Warn("excluding corrupt index entry",
				"object_id", e.ObjectID,
				"object_type", objectType,
				"provider", e.ProviderID,
				"model", e.ModelID,
				"expected_dims", dims,
			)
			continue
		}

		e.ObjectType = store.ObjectType(objectType)
		e.Embedding = embedding
		e.UpdatedAt = parseTime(updated)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "iterating index entries")
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*store.IndexEntry, error) {
	var e store.IndexEntry
	var objectType, updated string
	var blob []byte
	if err := row.Scan(&e.ObjectID, &objectType, &e.ProviderID, &e.ModelID,
		&blob, &e.TextHash, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "scanning index entry")
	}

	embedding, err := deserializeFloat32(blob)
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "decoding embedding blob")
	}

	e.ObjectType = store.ObjectType(objectType)
	e.Embedding = embedding
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}

// deserializeFloat32 decodes the little-endian float32 blob layout written
// by sqlite_vec.SerializeFloat32.
func deserializeFloat32(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, lkerr.Errorf(lkerr.CodeStoreDatabaseFailure, "embedding blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}
