// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lorekeep-dev/lorekeep/internal/store/sqlite"
)

// testDBPath returns a database path inside a per-test temp directory.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

// openStore opens a store on a fresh temp database and closes it with the test.
func openStore(t *testing.T, name string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(testDBPath(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
