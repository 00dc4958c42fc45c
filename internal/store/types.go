// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package store

import "time"

// ObjectType identifies the kind of world object an index entry or record
// refers to.
type ObjectType string

const (
	ObjectTypeEntity ObjectType = "entity"
	ObjectTypeEvent  ObjectType = "event"
)

// ValidObjectType reports whether t is one of the known object types.
func ValidObjectType(t ObjectType) bool {
	return t == ObjectTypeEntity || t == ObjectTypeEvent
}

// --- Record types ---

// Entity is a named thing in the world: a character, place, faction, item.
type Entity struct {
	ID          string
	Name        string
	Type        string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is something that happened in the world, optionally anchored to an
// in-world date string (calendar semantics live outside this package).
type Event struct {
	ID          string
	Name        string
	Type        string
	Date        string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Record is the indexable view of an entity or event: a stable id plus the
// attribute values the composer renders. Attribute ordering is owned by the
// composer, not the record.
type Record struct {
	ID         string
	Attributes map[string]string
}

// --- Index types ---

// IndexEntry links one world object to its current embedding and provenance.
// Exactly one live entry exists per (ObjectID, ObjectType); vectors from
// different (ProviderID, ModelID) pairs are never comparable.
type IndexEntry struct {
	ObjectID   string
	ObjectType ObjectType
	ProviderID string
	ModelID    string
	Embedding  []float32
	TextHash   string
	UpdatedAt  time.Time
}
