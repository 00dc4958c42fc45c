// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package sentencetransformers implements the local in-process embedding
// backend. It computes deterministic feature-hashed bag-of-token projections
// at the published dimension of the named sentence-transformers model, so it
// needs no network I/O and no external runtime. Vectors are comparable only
// to vectors from the same model name, which is exactly the contract the
// index enforces per (provider_id, model_id) pair.
package sentencetransformers

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/lorekeep-dev/lorekeep/internal/provider"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = "all-MiniLM-L6-v2"

// modelDims maps supported model names to their output dimension.
var modelDims = map[string]int{
	"all-MiniLM-L6-v2":          384,
	"all-MiniLM-L12-v2":         384,
	"all-mpnet-base-v2":         768,
	"paraphrase-MiniLM-L3-v2":   384,
	"multi-qa-MiniLM-L6-cos-v1": 384,
}

func init() {
	provider.Register(provider.IDSentenceTransformers, func(cfg provider.Config) (provider.Embedder, error) {
		return New(cfg)
	})
}

// model is the process-wide loaded state for one model name: initialized
// lazily exactly once and never reloaded for the lifetime of the process.
type model struct {
	name string
	dims int
	seed uint64
}

var (
	loadMu sync.Mutex
	loaded = map[string]*model{}
)

// loadModel returns the process-wide model for name, loading it on first use.
func loadModel(name string) (*model, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if m, ok := loaded[name]; ok {
		return m, nil
	}

	dims, ok := modelDims[name]
	if !ok {
		return nil, lkerr.New(lkerr.CodeProviderRejected, "unsupported local embedding model",
			lkerr.FieldProvider(provider.IDSentenceTransformers),
			lkerr.FieldModel(name))
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	m := &model{name: name, dims: dims, seed: h.Sum64()}
	loaded[name] = m
	return m, nil
}

// Compile-time interface check.
var _ provider.Embedder = (*Client)(nil)

// Client is the local in-process embedding backend.
type Client struct {
	model *model
}

// New resolves (and if necessary loads) the named model.
func New(cfg provider.Config) (*Client, error) {
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}

	m, err := loadModel(name)
	if err != nil {
		return nil, err
	}
	return &Client{model: m}, nil
}

func (c *Client) ProviderID() string { return provider.IDSentenceTransformers }

func (c *Client) Model() string { return c.model.name }

// Embed computes one vector per text, in input order. Pure CPU work; the
// context is only consulted between texts.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, lkerr.Wrap(err, lkerr.CodeProviderUnavailable, "embedding canceled",
				lkerr.FieldProvider(provider.IDSentenceTransformers))
		}
		vectors[i] = c.model.embed(text)
	}
	return vectors, nil
}

func (c *Client) Close() error { return nil }

// embed hashes unigrams and bigrams of the lowercased token stream into a
// signed accumulator of the model's dimension, then L2-normalizes. Empty
// text yields the zero vector.
func (m *model) embed(text string) []float32 {
	vec := make([]float64, m.dims)
	tokens := strings.Fields(strings.ToLower(text))

	for i, tok := range tokens {
		m.accumulate(vec, tok, 1.0)
		if i+1 < len(tokens) {
			m.accumulate(vec, tok+" "+tokens[i+1], 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}

	out := make([]float32, m.dims)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (m *model) accumulate(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64() ^ m.seed

	bucket := int(sum % uint64(len(vec)))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}
