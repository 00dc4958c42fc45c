// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package compose_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorekeep-dev/lorekeep/internal/compose"
	"github.com/lorekeep-dev/lorekeep/internal/store"
)

func TestCompose_AttributeOrder(t *testing.T) {
	attrs := map[string]string{
		"description": "An ancient fortress.",
		"name":        "Kargath Hold",
		"type":        "place",
		"tags":        "dwarven, ruin",
	}

	got := compose.Compose(store.ObjectTypeEntity, attrs, nil)
	assert.Equal(t, "Kargath Hold\nplace\nAn ancient fortress.\ndwarven, ruin", got)
}

func TestCompose_EventIncludesDate(t *testing.T) {
	attrs := map[string]string{
		"name":        "Fall of Kargath",
		"type":        "battle",
		"date":        "Third Age 412",
		"description": "The hold fell.",
	}

	got := compose.Compose(store.ObjectTypeEvent, attrs, nil)
	assert.Equal(t, "Fall of Kargath\nbattle\nThird Age 412\nThe hold fell.", got)
}

func TestCompose_ExcludedAttributesOmitted(t *testing.T) {
	attrs := map[string]string{
		"name":        "Kargath Hold",
		"type":        "place",
		"description": "An ancient fortress.",
		"tags":        "dwarven",
	}

	got := compose.Compose(store.ObjectTypeEntity, attrs, map[string]bool{"tags": true, "type": true})
	assert.Equal(t, "Kargath Hold\nAn ancient fortress.", got)
	assert.NotContains(t, got, "dwarven")
}

func TestCompose_MissingAndEmptyAttributesContributeNothing(t *testing.T) {
	attrs := map[string]string{
		"name": "Kargath Hold",
		"tags": "   ",
	}

	// No stray separators from empty description/type/tags.
	got := compose.Compose(store.ObjectTypeEntity, attrs, nil)
	assert.Equal(t, "Kargath Hold", got)
}

func TestCompose_WhitespaceCollapsed(t *testing.T) {
	attrs := map[string]string{
		"name":        "  Kargath   Hold ",
		"description": "An\tancient\n\nfortress.",
	}

	got := compose.Compose(store.ObjectTypeEntity, attrs, nil)
	assert.Equal(t, "Kargath Hold\nAn ancient fortress.", got)
}

func TestCompose_Deterministic(t *testing.T) {
	attrs := map[string]string{
		"name":        "Mira",
		"type":        "character",
		"description": "A wandering cartographer.",
		"tags":        "guild, northern",
	}
	excluded := map[string]bool{"tags": true}

	first := compose.Compose(store.ObjectTypeEntity, attrs, excluded)
	for range 10 {
		assert.Equal(t, first, compose.Compose(store.ObjectTypeEntity, attrs, excluded))
	}
	assert.Equal(t, compose.Hash(first), compose.Hash(first))
}

func TestCompose_UnknownTypeIsEmpty(t *testing.T) {
	got := compose.Compose(store.ObjectType("relic"), map[string]string{"name": "x"}, nil)
	assert.Empty(t, got)
}

func TestHash_DiffersForDifferentText(t *testing.T) {
	assert.NotEqual(t, compose.Hash("a"), compose.Hash("b"))
	assert.Len(t, compose.Hash(""), 64)
}

func TestExclusionSet(t *testing.T) {
	assert.Nil(t, compose.ExclusionSet(""))
	assert.Equal(t, map[string]bool{"tags": true, "type": true}, compose.ExclusionSet(" tags , type ,"))
}
