package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/argonaut/internal/fileutil"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes content", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.yaml")
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("kind: Workflow\n"), 0644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "kind: Workflow\n", string(got))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "deep", "out.yaml")
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("x"), 0644))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out.yaml")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("new"), 0644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("applies permissions", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "secret.yaml")
		require.NoError(t, fileutil.WriteFileAtomic(path, []byte("x"), 0600))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, fileutil.WriteFileAtomic(filepath.Join(dir, "a.yaml"), []byte("x"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("rejects symlink", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		target := filepath.Join(dir, "target.yaml")
		link := filepath.Join(dir, "link.yaml")
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
		require.NoError(t, os.Symlink(target, link))

		err := fileutil.WriteFileAtomic(link, []byte("y"), 0644)
		assert.True(t, errors.Is(err, fileutil.ErrSymlinkNotSupported))
	})
}

func TestListYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.yml", "a.yaml", "notes.txt", ".hidden.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yml"), 0755))

	paths, err := fileutil.ListYAML(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, paths)
}

func TestListYAML_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := fileutil.ListYAML(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}

func TestIsYAMLAndStem(t *testing.T) {
	t.Parallel()

	assert.True(t, fileutil.IsYAML("a.yml"))
	assert.True(t, fileutil.IsYAML("A.YAML"))
	assert.False(t, fileutil.IsYAML("a.json"))
	assert.Equal(t, "pipeline", fileutil.Stem("/x/y/pipeline.yaml"))
}
