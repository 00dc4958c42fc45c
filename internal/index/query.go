// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package index

import (
	"context"
	"math"
	"sort"

	"github.com/lorekeep-dev/lorekeep/internal/provider"
	"github.com/lorekeep-dev/lorekeep/internal/store"
)

// DefaultTopK is the result limit when the caller does not set one.
const DefaultTopK = 10

// Match is one ranked query result.
type Match struct {
	ObjectID   string           `json:"object_id"`
	ObjectType store.ObjectType `json:"object_type"`
	Score      float64          `json:"score"`
}

// QueryEngine answers similarity queries by reading the vector store. It
// never mutates anything and runs independently of the Manager.
type QueryEngine struct {
	vectors store.VectorStore
}

// NewQueryEngine wires a query engine over the vector store.
func NewQueryEngine(vectors store.VectorStore) *QueryEngine {
	return &QueryEngine{vectors: vectors}
}

// Query embeds text through emb, scores every stored entry produced by the
// same (provider, model) against it by cosine similarity, and returns the
// top-k matches in descending score order (ties broken by ascending object
// id). Entries from other providers or models live in incomparable vector
// spaces and are excluded, never coerced. An empty candidate set yields an
// empty result, not an error.
func (q *QueryEngine) Query(ctx context.Context, emb provider.Embedder, text string, typeFilter *store.ObjectType, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	queryVec := vectors[0]

	entries, err := q.vectors.Scan(ctx, typeFilter)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.ProviderID != emb.ProviderID() || e.ModelID != emb.Model() {
			continue
		}
		if len(e.Embedding) != len(queryVec) {
			continue
		}
		matches = append(matches, Match{
			ObjectID:   e.ObjectID,
			ObjectType: e.ObjectType,
			Score:      cosine(queryVec, e.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ObjectID < matches[j].ObjectID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// cosine returns the cosine similarity of a and b. Degenerate (zero-norm)
// vectors score -1 so they always rank last instead of dividing by zero.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
