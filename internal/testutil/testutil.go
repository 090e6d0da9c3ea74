// Package testutil holds small helpers shared by tests across packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/fhttp/internal/pathutil"
)

// WriteFile writes content under dir and returns the file's path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteRequestFile writes a request file and returns its canonical path.
func WriteRequestFile(t *testing.T, dir, name, content string) pathutil.CanonicalPath {
	t.Helper()
	path := WriteFile(t, dir, name, content)
	canonical, err := pathutil.Canonicalize(path)
	require.NoError(t, err)
	return canonical
}
