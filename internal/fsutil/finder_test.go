package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtensionWalksDirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"a.hcl", "b.txt", filepath.Join("nested", "c.hcl")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "nested", "c.hcl"),
	}, files)
}

func TestFindFilesByExtensionReturnsFileDirectly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// A direct file path is returned as-is, whatever its extension.
	path := filepath.Join(dir, "suite.other")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	files, err := FindFilesByExtension(path, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestFindFilesByExtensionMissingPath(t *testing.T) {
	t.Parallel()
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".hcl")
	require.Error(t, err)
}

func TestFindFilesByExtensionPanicsOnEmptyExtension(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		_, _ = FindFilesByExtension(t.TempDir(), "")
	})
}
