// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package sentencetransformers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep-dev/lorekeep/internal/provider"
	"github.com/lorekeep-dev/lorekeep/internal/provider/sentencetransformers"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

func TestNew_DefaultModel(t *testing.T) {
	c, err := sentencetransformers.New(provider.Config{})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, provider.IDSentenceTransformers, c.ProviderID())
	assert.Equal(t, sentencetransformers.DefaultModel, c.Model())
}

func TestNew_UnsupportedModel(t *testing.T) {
	_, err := sentencetransformers.New(provider.Config{Model: "no-such-model"})
	require.Error(t, err)
	assert.True(t, lkerr.HasCode(err, lkerr.CodeProviderRejected))
}

func TestEmbed_DimensionsAndDeterminism(t *testing.T) {
	ctx := context.Background()
	c, err := sentencetransformers.New(provider.Config{Model: "all-MiniLM-L6-v2"})
	require.NoError(t, err)

	first, err := c.Embed(ctx, []string{"a wandering cartographer of the northern guild"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Len(t, first[0], 384)

	second, err := c.Embed(ctx, []string{"a wandering cartographer of the northern guild"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbed_BatchPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c, err := sentencetransformers.New(provider.Config{})
	require.NoError(t, err)

	single1, err := c.Embed(ctx, []string{"alpha"})
	require.NoError(t, err)
	single2, err := c.Embed(ctx, []string{"beta"})
	require.NoError(t, err)

	batch, err := c.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, single1[0], batch[0])
	assert.Equal(t, single2[0], batch[1])
}

func TestEmbed_EmptyTextYieldsZeroVector(t *testing.T) {
	ctx := context.Background()
	c, err := sentencetransformers.New(provider.Config{})
	require.NoError(t, err)

	vectors, err := c.Embed(ctx, []string{"   "})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	for _, v := range vectors[0] {
		assert.Zero(t, v)
	}
}

func TestEmbed_NormalizedVectors(t *testing.T) {
	ctx := context.Background()
	c, err := sentencetransformers.New(provider.Config{Model: "all-mpnet-base-v2"})
	require.NoError(t, err)

	vectors, err := c.Embed(ctx, []string{"the fall of the hold"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Len(t, vectors[0], 768)

	var norm float64
	for _, v := range vectors[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestEmbed_Canceled(t *testing.T) {
	c, err := sentencetransformers.New(provider.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Embed(ctx, []string{"anything"})
	require.Error(t, err)
	assert.True(t, lkerr.HasCode(err, lkerr.CodeProviderUnavailable))
}

func TestRegistry_BuildsLocalBackend(t *testing.T) {
	emb, err := provider.New(provider.Config{Provider: provider.IDSentenceTransformers})
	require.NoError(t, err)
	assert.Equal(t, provider.IDSentenceTransformers, emb.ProviderID())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	_, err := provider.New(provider.Config{Provider: "ollama"})
	require.Error(t, err)
	assert.True(t, lkerr.HasCode(err, lkerr.CodeProviderUnknown))
}
