// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package compose renders an object's indexable attributes into the exact
// text that gets embedded. The rendering must be deterministic: the sha256
// of the composed text is what the index manager uses to decide whether an
// object needs re-embedding.
package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/lorekeep-dev/lorekeep/internal/store"
)

// Attribute order is declared once per object type. Changing it invalidates
// every stored text hash, so additions go at the end.
var attributeOrder = map[store.ObjectType][]string{
	store.ObjectTypeEntity: {"name", "type", "description", "tags"},
	store.ObjectTypeEvent:  {"name", "type", "date", "description", "tags"},
}

// Order returns the declared attribute order for t; nil for unknown types,
// which compose to the empty string.
func Order(t store.ObjectType) []string {
	return attributeOrder[t]
}

// Compose renders the non-excluded attributes of one object into a single
// newline-separated text blob. Values are trimmed and internal whitespace is
// collapsed to single spaces; empty or missing attributes contribute nothing.
// Compose is a pure function of its inputs and never fails.
func Compose(t store.ObjectType, attributes map[string]string, excluded map[string]bool) string {
	var parts []string
	for _, name := range attributeOrder[t] {
		if excluded[name] {
			continue
		}
		value := normalize(attributes[name])
		if value == "" {
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, "\n")
}

// Hash returns the hex sha256 digest of composed text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ExclusionSet parses a comma-separated attribute list into a lookup set.
// Blank items are dropped; names are trimmed.
func ExclusionSet(csv string) map[string]bool {
	if csv == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = true
		}
	}
	return set
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
