// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package provider defines the embedding backend boundary. The index manager
// and query engine only ever see the Embedder capability; which backend
// serves it is an explicit configuration choice.
package provider

import (
	"context"

	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// Provider identifiers. Selection is always explicit, never inferred from
// runtime types.
const (
	IDLMStudio             = "lmstudio"
	IDSentenceTransformers = "sentence-transformers"
)

// Embedder turns batches of texts into batches of vectors. Implementations
// must preserve order correspondence between input texts and output vectors
// and must produce fixed-length vectors per (ProviderID, Model) pair.
type Embedder interface {
	// Embed returns one vector per input text, in input order. Failures
	// carry one of the provider.embed.* error codes so callers can decide
	// retry-vs-abort.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ProviderID identifies the backend (e.g. "lmstudio").
	ProviderID() string

	// Model identifies the embedding model the backend runs.
	Model() string

	Close() error
}

// Config selects and parameterizes a backend for one invocation.
type Config struct {
	Provider string
	Model    string // optional override; each backend has a default
	Endpoint string // remote backends only
	APIKey   string // remote backends only, optional
}

// Factory builds an Embedder for a named provider.
type Factory func(cfg Config) (Embedder, error)

var factories = map[string]Factory{}

// Register installs a factory for a provider id. Called from variant
// package init functions.
func Register(id string, f Factory) {
	factories[id] = f
}

// New builds the Embedder selected by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, lkerr.New(lkerr.CodeProviderUnknown, "unknown embedding provider",
			lkerr.FieldProvider(cfg.Provider))
	}
	return f(cfg)
}
