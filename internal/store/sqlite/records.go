// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lorekeep-dev/lorekeep/internal/store"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// CreateEntity inserts a new entity. A missing ID is generated; timestamps
// are set if zero.
func (s *Store) CreateEntity(ctx context.Context, e *store.Entity) error {
	if e.Name == "" {
		return lkerr.New(lkerr.CodeRecordInvalidInput, "entity name must not be empty")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}

	const q = `INSERT INTO entities (id, name, entity_type, description, tags, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, e.ID, e.Name, e.Type, e.Description, tags,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt)); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "inserting entity %s", e.ID)
	}
	return nil
}

// GetEntity returns the entity with the given id.
func (s *Store) GetEntity(ctx context.Context, id string) (*store.Entity, error) {
	const q = `SELECT id, name, entity_type, description, tags, created_at, updated_at
FROM entities WHERE id = ?`

	var e store.Entity
	var tags, created, updated string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Name, &e.Type, &e.Description, &tags, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lkerr.New(lkerr.CodeRecordNotFound, "entity not found",
			lkerr.FieldObjectID(id), lkerr.FieldObjectType(string(store.ObjectTypeEntity)))
	}
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "querying entity %s", id)
	}

	e.Tags = unmarshalTags(tags)
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}

// ListEntities returns all entities ordered by id.
func (s *Store) ListEntities(ctx context.Context) ([]store.Entity, error) {
	const q = `SELECT id, name, entity_type, description, tags, created_at, updated_at
FROM entities ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "listing entities")
	}
	defer func() { _ = rows.Close() }()

	var out []store.Entity
	for rows.Next() {
		var e store.Entity
		var tags, created, updated string
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Description, &tags, &created, &updated); err != nil {
			return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "scanning entity row")
		}
		e.Tags = unmarshalTags(tags)
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "iterating entities")
	}
	return out, nil
}

// DeleteEntity removes an entity. Deleting an absent entity returns
// record.object.not_found so callers can distinguish it from a no-op.
func (s *Store) DeleteEntity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "deleting entity %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lkerr.New(lkerr.CodeRecordNotFound, "entity not found",
			lkerr.FieldObjectID(id), lkerr.FieldObjectType(string(store.ObjectTypeEntity)))
	}
	return nil
}

// CreateEvent inserts a new event.
func (s *Store) CreateEvent(ctx context.Context, e *store.Event) error {
	if e.Name == "" {
		return lkerr.New(lkerr.CodeRecordInvalidInput, "event name must not be empty")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}

	const q = `INSERT INTO events (id, name, event_type, event_date, description, tags, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, e.ID, e.Name, e.Type, e.Date, e.Description, tags,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt)); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "inserting event %s", e.ID)
	}
	return nil
}

// GetEvent returns the event with the given id.
func (s *Store) GetEvent(ctx context.Context, id string) (*store.Event, error) {
	const q = `SELECT id, name, event_type, event_date, description, tags, created_at, updated_at
FROM events WHERE id = ?`

	var e store.Event
	var tags, created, updated string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Name, &e.Type, &e.Date, &e.Description, &tags, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lkerr.New(lkerr.CodeRecordNotFound, "event not found",
			lkerr.FieldObjectID(id), lkerr.FieldObjectType(string(store.ObjectTypeEvent)))
	}
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "querying event %s", id)
	}

	e.Tags = unmarshalTags(tags)
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return &e, nil
}

// ListEvents returns all events ordered by id.
func (s *Store) ListEvents(ctx context.Context) ([]store.Event, error) {
	const q = `SELECT id, name, event_type, event_date, description, tags, created_at, updated_at
FROM events ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "listing events")
	}
	defer func() { _ = rows.Close() }()

	var out []store.Event
	for rows.Next() {
		var e store.Event
		var tags, created, updated string
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.Date, &e.Description, &tags, &created, &updated); err != nil {
			return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "scanning event row")
		}
		e.Tags = unmarshalTags(tags)
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "iterating events")
	}
	return out, nil
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "deleting event %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lkerr.New(lkerr.CodeRecordNotFound, "event not found",
			lkerr.FieldObjectID(id), lkerr.FieldObjectType(string(store.ObjectTypeEvent)))
	}
	return nil
}

// ListRecords exposes all objects of the given type as indexable records.
func (s *Store) ListRecords(ctx context.Context, t store.ObjectType) ([]store.Record, error) {
	switch t {
	case store.ObjectTypeEntity:
		entities, err := s.ListEntities(ctx)
		if err != nil {
			return nil, err
		}
		records := make([]store.Record, 0, len(entities))
		for i := range entities {
			records = append(records, entityRecord(&entities[i]))
		}
		return records, nil
	case store.ObjectTypeEvent:
		events, err := s.ListEvents(ctx)
		if err != nil {
			return nil, err
		}
		records := make([]store.Record, 0, len(events))
		for i := range events {
			records = append(records, eventRecord(&events[i]))
		}
		return records, nil
	default:
		return nil, lkerr.Errorf(lkerr.CodeRecordInvalidInput, "unknown object type %q", t)
	}
}

// GetRecord exposes one object as an indexable record.
func (s *Store) GetRecord(ctx context.Context, t store.ObjectType, id string) (*store.Record, error) {
	switch t {
	case store.ObjectTypeEntity:
		e, err := s.GetEntity(ctx, id)
		if err != nil {
			return nil, err
		}
		r := entityRecord(e)
		return &r, nil
	case store.ObjectTypeEvent:
		e, err := s.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		r := eventRecord(e)
		return &r, nil
	default:
		return nil, lkerr.Errorf(lkerr.CodeRecordInvalidInput, "unknown object type %q", t)
	}
}

func entityRecord(e *store.Entity) store.Record {
	return store.Record{
		ID: e.ID,
		Attributes: map[string]string{
			"name":        e.Name,
			"type":        e.Type,
			"description": e.Description,
			"tags":        strings.Join(e.Tags, ", "),
		},
	}
}

func eventRecord(e *store.Event) store.Record {
	return store.Record{
		ID: e.ID,
		Attributes: map[string]string{
			"name":        e.Name,
			"type":        e.Type,
			"date":        e.Date,
			"description": e.Description,
			"tags":        strings.Join(e.Tags, ", "),
		},
	}
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", lkerr.Wrapf(err, lkerr.CodeStoreDatabaseFailure, "marshalling tags")
	}
	return string(b), nil
}

func unmarshalTags(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}
