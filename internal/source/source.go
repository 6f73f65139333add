// Package source describes the git checkout a declaration file lives in, so
// rendered manifests can record where they came from.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Annotation keys written by Annotations.
const (
	AnnotationCommit = "argonaut.io/commit"
	AnnotationBranch = "argonaut.io/branch"
	AnnotationDirty  = "argonaut.io/dirty"
	AnnotationSource = "argonaut.io/source"
)

// ErrNotRepository is returned when no git repository contains the path.
var ErrNotRepository = errors.New("not inside a git repository")

// Info is the state of the checkout at render time.
type Info struct {
	// Root is the worktree root.
	Root string

	// Commit is the full HEAD hash; empty before the first commit.
	Commit string

	// Branch is the checked out branch; empty when HEAD is detached.
	Branch string

	// Subject is the first line of the HEAD commit message.
	Subject string

	// Dirty is set when the worktree has uncommitted or untracked changes.
	Dirty bool
}

// ShortCommit returns the first seven characters of Commit.
func (i *Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// Describe inspects the repository containing dir.
func Describe(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotRepository)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	info := &Info{Root: wt.Filesystem.Root()}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet.
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	info.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	info.Subject, _, _ = strings.Cut(strings.TrimSpace(commit.Message), "\n")

	return info, nil
}

// Annotations returns the metadata annotations recording file's origin.
func (i *Info) Annotations(file string) map[string]string {
	annotations := map[string]string{
		AnnotationSource: i.relative(file),
	}
	if i.Commit != "" {
		annotations[AnnotationCommit] = i.Commit
	}
	if i.Branch != "" {
		annotations[AnnotationBranch] = i.Branch
	}
	if i.Dirty {
		annotations[AnnotationDirty] = "true"
	}
	return annotations
}

// relative returns file relative to the worktree root in slash form, or the
// base name when file lies outside it.
func (i *Info) relative(file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.Base(file)
	}
	rel, err := filepath.Rel(i.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}
