// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package lmstudio implements the remote embedding backend against an
// LM Studio server, which speaks the OpenAI embeddings API.
package lmstudio

import (
	"context"
	"errors"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lorekeep-dev/lorekeep/internal/provider"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

const (
	// DefaultModel is used when no model override is configured.
	DefaultModel = "text-embedding-nomic-embed-text-v1.5"

	// maxRetries bounds the SDK's exponential-backoff retry policy.
	// The SDK only retries transient failures (connection errors, 408,
	// 429, 5xx); other 4xx fail immediately.
	maxRetries     = 2
	requestTimeout = 30 * time.Second
)

func init() {
	provider.Register(provider.IDLMStudio, func(cfg provider.Config) (provider.Embedder, error) {
		return New(cfg)
	})
}

// Compile-time interface check.
var _ provider.Embedder = (*Client)(nil)

// Client is the remote HTTP embedding backend.
type Client struct {
	client openaisdk.Client
	model  string
}

// New builds a client for the configured endpoint. The API key is optional;
// LM Studio ignores authentication by default but hosted gateways do not.
func New(cfg provider.Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, lkerr.New(lkerr.CodeProviderRejected, "lmstudio: endpoint must be configured",
			lkerr.FieldProvider(provider.IDLMStudio))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.Endpoint),
		option.WithMaxRetries(maxRetries),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		// The SDK requires a key; LM Studio accepts any bearer value.
		opts = append(opts, option.WithAPIKey("lm-studio"))
	}

	return &Client{client: openaisdk.NewClient(opts...), model: model}, nil
}

func (c *Client) ProviderID() string { return provider.IDLMStudio }

func (c *Client) Model() string { return c.model }

// Embed posts the batch to the embeddings endpoint and returns vectors in
// input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaisdk.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, classify(err, c.model)
	}

	if len(resp.Data) != len(texts) {
		return nil, lkerr.New(lkerr.CodeProviderMalformedResponse, "embedding count mismatch",
			lkerr.FieldProvider(provider.IDLMStudio),
			lkerr.Field("want", len(texts)),
			lkerr.Field("got", len(resp.Data)))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(texts) || vectors[item.Index] != nil {
			return nil, lkerr.New(lkerr.CodeProviderMalformedResponse, "embedding index out of range",
				lkerr.FieldProvider(provider.IDLMStudio),
				lkerr.Field("index", item.Index))
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}

	dims := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) == 0 || len(vec) != dims {
			return nil, lkerr.New(lkerr.CodeProviderMalformedResponse, "inconsistent embedding dimensions",
				lkerr.FieldProvider(provider.IDLMStudio),
				lkerr.Field("index", i))
		}
	}

	return vectors, nil
}

func (c *Client) Close() error { return nil }

// classify maps SDK failures onto the provider error taxonomy. By the time
// an *openaisdk.Error surfaces here, the SDK has already exhausted its
// transient-failure retries.
func classify(err error, model string) error {
	var apierr *openaisdk.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode >= 500 || apierr.StatusCode == 408 || apierr.StatusCode == 429 {
			return lkerr.Wrap(err, lkerr.CodeProviderUnavailable, "embedding backend unavailable",
				lkerr.FieldProvider(provider.IDLMStudio), lkerr.FieldModel(model))
		}
		return lkerr.Wrap(err, lkerr.CodeProviderRejected, "embedding request rejected",
			lkerr.FieldProvider(provider.IDLMStudio), lkerr.FieldModel(model))
	}

	// Connection failures, timeouts, cancellations.
	return lkerr.Wrap(err, lkerr.CodeProviderUnavailable, "embedding backend unreachable",
		lkerr.FieldProvider(provider.IDLMStudio), lkerr.FieldModel(model))
}
