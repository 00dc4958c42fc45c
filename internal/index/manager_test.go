// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package index_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep-dev/lorekeep/internal/index"
	"github.com/lorekeep-dev/lorekeep/internal/store"
	"github.com/lorekeep-dev/lorekeep/internal/store/sqlite"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

func seedEntities(t *testing.T, s *sqlite.Store, names ...string) {
	t.Helper()
	for i, name := range names {
		e := store.Entity{ID: fmt.Sprintf("e%02d", i), Name: name, Type: "character"}
		require.NoError(t, s.CreateEntity(context.Background(), &e))
	}
}

func TestRebuild_IndexesAllObjects(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "rebuild-all")
	seedEntities(t, s, "Mira", "Tobin", "Ashe")
	require.NoError(t, s.CreateEvent(ctx, &store.Event{ID: "v1", Name: "Fall of Kargath", Date: "Third Age 412"}))

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()

	summary, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Indexed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	entries, err := s.Scan(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestRebuild_SecondRunSkipsWithoutEmbedding(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "rebuild-cache")
	seedEntities(t, s, "Mira", "Tobin", "Ashe")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()

	_, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)

	emb.calls = 0
	summary, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Indexed)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 0, emb.calls, "unchanged objects must not be re-embedded")
}

func TestRebuild_ModelChangeForcesReembedding(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "rebuild-model-change")
	seedEntities(t, s, "Mira", "Tobin")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()
	_, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)

	other := newFakeEmbedder()
	other.model = "other-embed"
	summary, err := m.Rebuild(ctx, other, nil, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 0, summary.Skipped)
}

func TestRebuild_ExclusionChangeForcesReembedding(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "rebuild-exclusion")
	seedEntities(t, s, "Mira")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()
	_, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)

	summary, err := m.Rebuild(ctx, emb, nil, index.Options{Excluded: map[string]bool{"name": true}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed, "excluding an attribute changes the composed text")
}

func TestRebuild_TypeFilter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "rebuild-filter")
	seedEntities(t, s, "Mira")
	require.NoError(t, s.CreateEvent(ctx, &store.Event{ID: "v1", Name: "Fall of Kargath"}))

	m := index.NewManager(s, s)
	filter := store.ObjectTypeEvent
	summary, err := m.Rebuild(ctx, newFakeEmbedder(), &filter, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)

	entries, err := s.Scan(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.ObjectTypeEvent, entries[0].ObjectType)
}

func TestRebuild_OneFailureDoesNotAbortTheRest(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "rebuild-partial")
	seedEntities(t, s, "Mira", "Tobin", "Cursed Amulet", "Ashe", "Bram")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()
	emb.failWhen = func(text string) error {
		if strings.Contains(text, "Cursed") {
			return lkerr.New(lkerr.CodeProviderRejected, "input rejected")
		}
		return nil
	}

	summary, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "e02", summary.Failures[0].ObjectID)
	assert.Contains(t, summary.Failures[0].Reason, "rejected")

	entries, err := s.Scan(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestRebuild_CancellationStopsBetweenCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := openStore(t, "rebuild-cancel")
	seedEntities(t, s, "Mira", "Tobin", "Ashe")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()
	emb.failWhen = func(string) error {
		cancel() // fires during the embed call, before any commit
		return nil
	}

	summary, err := m.Rebuild(ctx, emb, nil, index.Options{})
	require.NoError(t, err)
	assert.True(t, summary.Canceled)
	assert.Equal(t, 0, summary.Indexed)
}

func TestIndexObject_IndexesAndSkips(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "indexobj")
	seedEntities(t, s, "Mira")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()

	skipped, err := m.IndexObject(ctx, emb, store.ObjectTypeEntity, "e00", index.Options{})
	require.NoError(t, err)
	assert.False(t, skipped)

	skipped, err = m.IndexObject(ctx, emb, store.ObjectTypeEntity, "e00", index.Options{})
	require.NoError(t, err)
	assert.True(t, skipped)
}

func TestIndexObject_UnknownObject(t *testing.T) {
	s := openStore(t, "indexobj-missing")
	m := index.NewManager(s, s)

	_, err := m.IndexObject(context.Background(), newFakeEmbedder(), store.ObjectTypeEntity, "nope", index.Options{})
	require.Error(t, err)
	assert.True(t, lkerr.HasCode(err, lkerr.CodeRecordNotFound))
}

func TestIndexObject_FailureLeavesPriorEntryUntouched(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "indexobj-rollback")
	seedEntities(t, s, "Mira")

	m := index.NewManager(s, s)
	emb := newFakeEmbedder()
	_, err := m.IndexObject(ctx, emb, store.ObjectTypeEntity, "e00", index.Options{})
	require.NoError(t, err)

	// A different model misses the cache and forces a fresh embedding, which
	// fails before anything is written.
	broken := newFakeEmbedder()
	broken.model = "other-embed"
	broken.failWhen = func(string) error {
		return lkerr.New(lkerr.CodeProviderUnavailable, "backend down")
	}
	_, err = m.IndexObject(ctx, broken, store.ObjectTypeEntity, "e00", index.Options{})
	require.Error(t, err)

	got, err := s.Get(ctx, store.ObjectTypeEntity, "e00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "test-embed", got.ModelID)
}

func TestDeleteObject_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, "deleteobj")
	seedEntities(t, s, "Mira")

	m := index.NewManager(s, s)
	_, err := m.IndexObject(ctx, newFakeEmbedder(), store.ObjectTypeEntity, "e00", index.Options{})
	require.NoError(t, err)

	require.NoError(t, m.DeleteObject(ctx, store.ObjectTypeEntity, "e00"))
	require.NoError(t, m.DeleteObject(ctx, store.ObjectTypeEntity, "e00"))

	got, err := s.Get(ctx, store.ObjectTypeEntity, "e00")
	require.NoError(t, err)
	assert.Nil(t, got)
}
