// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package store defines the persistence interfaces for world records and the
// semantic index. Implementations live in subpackages (currently sqlite).
package store

import "context"

// RecordSource is the read surface the index manager consumes: enumeration
// and lookup of indexable objects as (id, attribute-map) pairs.
type RecordSource interface {
	// ListRecords returns all records of the given type. Order is stable
	// (ascending id) so rebuild summaries are reproducible.
	ListRecords(ctx context.Context, t ObjectType) ([]Record, error)

	// GetRecord returns one record by id, or a record.object.not_found
	// error when the record store confirms absence.
	GetRecord(ctx context.Context, t ObjectType, id string) (*Record, error)
}

// RecordStore is the full CRUD surface backing the CLI record commands.
type RecordStore interface {
	RecordSource

	CreateEntity(ctx context.Context, e *Entity) error
	GetEntity(ctx context.Context, id string) (*Entity, error)
	ListEntities(ctx context.Context) ([]Entity, error)
	DeleteEntity(ctx context.Context, id string) error

	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// VectorStore persists index entries. Mutations follow a single-writer
// discipline: implementations serialize Upsert/Delete against one store
// instance, and each Upsert is atomic from a reader's view.
type VectorStore interface {
	// Upsert replaces any existing entry sharing (ObjectID, ObjectType).
	// It fails with index.upsert.dimension_conflict if the embedding's
	// dimension disagrees with the established dimension for the entry's
	// (ProviderID, ModelID) pair.
	Upsert(ctx context.Context, entry IndexEntry) error

	// Delete removes the entry if present; absence is not an error.
	Delete(ctx context.Context, t ObjectType, id string) error

	// Get returns the stored entry, or nil when absent.
	Get(ctx context.Context, t ObjectType, id string) (*IndexEntry, error)

	// Scan materializes all entries, optionally restricted to one object
	// type. Entries whose stored dimension disagrees with their
	// (ProviderID, ModelID) registration are excluded and logged.
	Scan(ctx context.Context, typeFilter *ObjectType) ([]IndexEntry, error)

	Close() error
}
