// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package index_test

import (
	"context"
	"hash/fnv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorekeep-dev/lorekeep/internal/store/sqlite"
)

// openStore opens a store on a fresh temp database and closes it with the test.
func openStore(t *testing.T, name string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), name+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeEmbedder is a deterministic in-memory provider. Vectors come from the
// fixed map when present, otherwise from a hash of the text, so identical
// texts always embed identically.
type fakeEmbedder struct {
	id    string
	model string
	dims  int

	// failWhen, if set, fails the whole Embed call when any text matches.
	failWhen func(text string) error

	// fixed pins exact vectors for specific texts.
	fixed map[string][]float32

	calls    int
	embedded []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{id: "lmstudio", model: "test-embed", dims: 4}
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failWhen != nil {
			if err := f.failWhen(text); err != nil {
				return nil, err
			}
		}
		f.embedded = append(f.embedded, text)
		out[i] = f.vector(text)
	}
	return out, nil
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if v, ok := f.fixed[text]; ok {
		return v
	}
	v := make([]float32, f.dims)
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	v[int(h.Sum32()%uint32(f.dims))] = 1
	return v
}

func (f *fakeEmbedder) ProviderID() string { return f.id }
func (f *fakeEmbedder) Model() string      { return f.model }
func (f *fakeEmbedder) Close() error       { return nil }
