// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package index orchestrates embedding of world records into the vector
// store and answers similarity queries over it.
package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorekeep-dev/lorekeep/internal/compose"
	"github.com/lorekeep-dev/lorekeep/internal/provider"
	"github.com/lorekeep-dev/lorekeep/internal/store"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// embedBatchSize bounds how many texts go to the provider per call during a
// rebuild. LM Studio handles small batches well; larger ones mostly add
// retry blast radius.
const embedBatchSize = 16

// Manager drives index mutations. It never touches the query path.
type Manager struct {
	records store.RecordSource
	vectors store.VectorStore
	logger  *slog.Logger
}

// NewManager wires a manager over the given record source and vector store.
func NewManager(records store.RecordSource, vectors store.VectorStore) *Manager {
	return &Manager{records: records, vectors: vectors, logger: slog.Default()}
}

// Options carries per-invocation indexing parameters.
type Options struct {
	// Excluded attribute names are omitted from composed text entirely.
	Excluded map[string]bool
}

// Failure records one object the rebuild could not index.
type Failure struct {
	ObjectID   string           `json:"object_id"`
	ObjectType store.ObjectType `json:"object_type"`
	Reason     string           `json:"reason"`
}

// Summary reports the outcome of a rebuild.
type Summary struct {
	Indexed  int       `json:"indexed"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
	Canceled bool      `json:"canceled,omitempty"`
}

// pending is one object whose composed text needs a fresh embedding.
type pending struct {
	objectID   string
	objectType store.ObjectType
	text       string
	hash       string
}

// Rebuild re-indexes all objects of the requested types. Objects whose
// stored text_hash and (provider, model) already match are skipped without
// an embedding call, which is what makes repeated rebuilds cheap. One
// object's failure is recorded and counted but never aborts the rest.
// Cancellation is honored between objects; work committed before the cancel
// stays committed and the summary reports a partial run.
func (m *Manager) Rebuild(ctx context.Context, emb provider.Embedder, typeFilter *store.ObjectType, opts Options) (*Summary, error) {
	types := []store.ObjectType{store.ObjectTypeEntity, store.ObjectTypeEvent}
	if typeFilter != nil {
		types = []store.ObjectType{*typeFilter}
	}

	summary := &Summary{}
	for _, t := range types {
		records, err := m.records.ListRecords(ctx, t)
		if err != nil {
			return nil, err
		}

		var queue []pending
		for i := range records {
			if ctx.Err() != nil {
				summary.Canceled = true
				return summary, nil
			}

			text := compose.Compose(t, records[i].Attributes, opts.Excluded)
			hash := compose.Hash(text)

			existing, err := m.vectors.Get(ctx, t, records[i].ID)
			if err != nil {
				summary.record(Failure{ObjectID: records[i].ID, ObjectType: t, Reason: err.Error()})
				continue
			}
			if upToDate(existing, emb, hash) {
				summary.Skipped++
				continue
			}

			queue = append(queue, pending{
				objectID:   records[i].ID,
				objectType: t,
				text:       text,
				hash:       hash,
			})
		}

		if m.embedAndCommit(ctx, emb, queue, summary) {
			summary.Canceled = true
			return summary, nil
		}
	}

	m.logger.Info("rebuild finished",
		"indexed", summary.Indexed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// embedAndCommit processes the queue in batches. A failed batch call falls
// back to embedding its members one by one, so a single poisoned object
// only fails itself. Commits are sequential; only embedding is batched.
// Reports whether the context was canceled mid-run.
func (m *Manager) embedAndCommit(ctx context.Context, emb provider.Embedder, queue []pending, summary *Summary) (canceled bool) {
	for start := 0; start < len(queue); start += embedBatchSize {
		if ctx.Err() != nil {
			return true
		}

		end := min(start+embedBatchSize, len(queue))
		batch := queue[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.text
		}

		vectors, err := emb.Embed(ctx, texts)
		if err == nil && len(vectors) != len(batch) {
			err = lkerr.New(lkerr.CodeProviderMalformedResponse, "embedding count mismatch",
				lkerr.FieldProvider(emb.ProviderID()))
		}
		if err != nil {
			if len(batch) == 1 {
				summary.record(Failure{ObjectID: batch[0].objectID, ObjectType: batch[0].objectType, Reason: err.Error()})
				continue
			}
			// Retry members individually so batch peers survive.
			for _, p := range batch {
				if ctx.Err() != nil {
					return true
				}
				if err := m.embedOne(ctx, emb, p, summary); err != nil {
					summary.record(Failure{ObjectID: p.objectID, ObjectType: p.objectType, Reason: err.Error()})
				}
			}
			continue
		}

		for i, p := range batch {
			if ctx.Err() != nil {
				return true
			}
			if err := m.commit(ctx, emb, p, vectors[i]); err != nil {
				summary.record(Failure{ObjectID: p.objectID, ObjectType: p.objectType, Reason: err.Error()})
				continue
			}
			summary.Indexed++
		}
	}
	return false
}

func (m *Manager) embedOne(ctx context.Context, emb provider.Embedder, p pending, summary *Summary) error {
	vectors, err := emb.Embed(ctx, []string{p.text})
	if err != nil {
		return err
	}
	if len(vectors) != 1 {
		return lkerr.New(lkerr.CodeProviderMalformedResponse, "embedding count mismatch",
			lkerr.FieldProvider(emb.ProviderID()))
	}
	if err := m.commit(ctx, emb, p, vectors[0]); err != nil {
		return err
	}
	summary.Indexed++
	return nil
}

func (m *Manager) commit(ctx context.Context, emb provider.Embedder, p pending, vector []float32) error {
	return m.vectors.Upsert(ctx, store.IndexEntry{
		ObjectID:   p.objectID,
		ObjectType: p.objectType,
		ProviderID: emb.ProviderID(),
		ModelID:    emb.Model(),
		Embedding:  vector,
		TextHash:   p.hash,
		UpdatedAt:  time.Now(),
	})
}

// IndexObject indexes a single object. All-or-nothing: on any failure the
// prior entry, if one exists, is left untouched. Returns true if the stored
// entry was already current and no embedding call was made.
func (m *Manager) IndexObject(ctx context.Context, emb provider.Embedder, t store.ObjectType, id string, opts Options) (skipped bool, err error) {
	record, err := m.records.GetRecord(ctx, t, id)
	if err != nil {
		return false, err
	}

	text := compose.Compose(t, record.Attributes, opts.Excluded)
	hash := compose.Hash(text)

	existing, err := m.vectors.Get(ctx, t, id)
	if err != nil {
		return false, err
	}
	if upToDate(existing, emb, hash) {
		return true, nil
	}

	vectors, err := emb.Embed(ctx, []string{text})
	if err != nil {
		return false, err
	}
	if len(vectors) != 1 {
		return false, lkerr.New(lkerr.CodeProviderMalformedResponse, "embedding count mismatch",
			lkerr.FieldProvider(emb.ProviderID()))
	}

	if err := m.commit(ctx, emb, pending{objectID: id, objectType: t, text: text, hash: hash}, vectors[0]); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteObject removes the object's index entry. Idempotent; it does not
// consult the record store, since it is the reaction to a record deletion.
func (m *Manager) DeleteObject(ctx context.Context, t store.ObjectType, id string) error {
	return m.vectors.Delete(ctx, t, id)
}

// upToDate reports whether the stored entry already reflects the composed
// text under the requested backend. Hash equality alone is not enough:
// vectors from a different (provider, model) pair are not comparable, so a
// config change forces re-embedding even for unchanged text.
func upToDate(existing *store.IndexEntry, emb provider.Embedder, hash string) bool {
	return existing != nil &&
		existing.TextHash == hash &&
		existing.ProviderID == emb.ProviderID() &&
		existing.ModelID == emb.Model()
}

func (s *Summary) record(f Failure) {
	s.Failed++
	s.Failures = append(s.Failures, f)
}
