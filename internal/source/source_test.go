package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one committed declaration file.
func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "workflows"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflows", "etl.yml"), []byte("name: Etl\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("workflows/etl.yml")
	require.NoError(t, err)

	hash, err := wt.Commit("Add etl pipeline\n\nLonger body.", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestDescribe(t *testing.T) {
	dir, commit := initRepo(t)

	info, err := Describe(filepath.Join(dir, "workflows"))
	require.NoError(t, err)

	assert.Equal(t, dir, info.Root)
	assert.Equal(t, commit, info.Commit)
	assert.Equal(t, commit[:7], info.ShortCommit())
	assert.Equal(t, "master", info.Branch)
	assert.Equal(t, "Add etl pipeline", info.Subject)
	assert.False(t, info.Dirty)
}

func TestDescribe_Dirty(t *testing.T) {
	dir, _ := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflows", "new.yml"), []byte("name: New\n"), 0644))

	info, err := Describe(dir)
	require.NoError(t, err)
	assert.True(t, info.Dirty)
}

func TestDescribe_NoCommits(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	info, err := Describe(dir)
	require.NoError(t, err)
	assert.Empty(t, info.Commit)
	assert.Empty(t, info.ShortCommit())
	assert.Empty(t, info.Branch)
}

func TestDescribe_NotRepository(t *testing.T) {
	_, err := Describe(t.TempDir())
	if err != nil {
		assert.ErrorIs(t, err, ErrNotRepository)
	}
}

func TestInfo_Annotations(t *testing.T) {
	info := &Info{Root: "/repo", Commit: "0123456789abcdef", Branch: "main", Dirty: true}

	got := info.Annotations("/repo/workflows/etl.yml")
	assert.Equal(t, map[string]string{
		AnnotationSource: "workflows/etl.yml",
		AnnotationCommit: "0123456789abcdef",
		AnnotationBranch: "main",
		AnnotationDirty:  "true",
	}, got)

	clean := &Info{Root: "/repo", Commit: "abc"}
	got = clean.Annotations("/elsewhere/etl.yml")
	assert.Equal(t, map[string]string{
		AnnotationSource: "etl.yml",
		AnnotationCommit: "abc",
	}, got)
}
