// The dirty check in this file is adapted from pulumictl (https://github.com/pulumi/pulumictl)
// which is licensed under the Apache License 2.0.

package gitver

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// TagRef is a tag reference peeled to the commit it points at.
type TagRef struct {
	// Name is the short tag name, without refs/tags/.
	Name string
	// Commit is the peeled target of the tag.
	Commit string
	// Annotated is true for tag objects, false for lightweight tags.
	Annotated bool
	// TaggerTime is only set for annotated tags.
	TaggerTime time.Time
}

// RefStore provides read-only access to the repository primitives needed
// for version resolution.
type RefStore interface {
	// RootDirectory returns the worktree root.
	RootDirectory() string

	// Head returns the HEAD commit; ok is false for an empty repository.
	Head() (commit string, ok bool, err error)

	// Branch returns the checked out branch; ok is false for a detached HEAD.
	Branch() (name string, ok bool, err error)

	// Tags returns all tag references.
	Tags() ([]TagRef, error)

	// WalkFirstParent calls fn for from and each of its first-parent
	// ancestors, newest first. Returning storer.ErrStop from fn ends the
	// walk without error.
	WalkFirstParent(from string, fn func(commit string) error) error

	// CommitTime returns the committer time of commit in UTC.
	CommitTime(commit string) (time.Time, error)

	// IsClean reports whether the worktree has no changes.
	IsClean() (bool, error)

	// IsShallow reports whether the repository history is truncated.
	IsShallow() (bool, error)
}

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// GitRefStore implements RefStore on top of go-git.
type GitRefStore struct {
	repo *git.Repository
}

// NewGitRefStore wraps an open repository.
func NewGitRefStore(repo *git.Repository) *GitRefStore {
	return &GitRefStore{repo: repo}
}

func (s *GitRefStore) RootDirectory() string {
	workTree, err := s.repo.Worktree()
	if err != nil {
		return ""
	}
	return workTree.Filesystem.Root()
}

func (s *GitRefStore) Head() (string, bool, error) {
	head, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), true, nil
}

func (s *GitRefStore) Branch() (string, bool, error) {
	head, err := s.repo.Storer.Reference(plumbing.HEAD)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short(), true, nil
	}
	return "", false, nil
}

func (s *GitRefStore) Tags() ([]TagRef, error) {
	iter, err := s.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		tag := TagRef{
			Name:   ref.Name().Short(),
			Commit: ref.Hash().String(),
		}

		obj, err := s.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			// Annotated tag
			target, err := s.peel(obj)
			if err != nil {
				return fmt.Errorf("peeling tag %s: %w", tag.Name, err)
			}
			tag.Annotated = true
			tag.TaggerTime = obj.Tagger.When
			tag.Commit = target.String()
		case errors.Is(err, plumbing.ErrObjectNotFound):
			// Lightweight tag
		default:
			return err
		}

		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	return tags, nil
}

// peel follows tag objects pointing at other tag objects down to the
// first non-tag target.
func (s *GitRefStore) peel(tag *object.Tag) (plumbing.Hash, error) {
	for tag.TargetType == plumbing.TagObject {
		next, err := s.repo.TagObject(tag.Target)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		tag = next
	}
	return tag.Target, nil
}

func (s *GitRefStore) WalkFirstParent(from string, fn func(commit string) error) error {
	commit, err := s.repo.CommitObject(plumbing.NewHash(from))
	if err != nil {
		return fmt.Errorf("getting commit object: %w", err)
	}

	for {
		if err := fn(commit.Hash.String()); err != nil {
			if errors.Is(err, storer.ErrStop) {
				return nil
			}
			return err
		}
		if commit.NumParents() == 0 {
			return nil
		}

		parent, err := s.repo.CommitObject(commit.ParentHashes[0])
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			// History ends at a shallow boundary
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting parent of %s: %w", commit.Hash, err)
		}
		commit = parent
	}
}

func (s *GitRefStore) CommitTime(commit string) (time.Time, error) {
	obj, err := s.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return time.Time{}, fmt.Errorf("getting commit object: %w", err)
	}
	return obj.Committer.When.UTC(), nil
}

func (s *GitRefStore) IsClean() (bool, error) {
	dirty, err := workTreeIsDirty(s.repo)
	if err != nil {
		return false, err
	}
	return !dirty, nil
}

func (s *GitRefStore) IsShallow() (bool, error) {
	shallow, err := s.repo.Storer.Shallow()
	if err != nil {
		return false, fmt.Errorf("reading shallow marker: %w", err)
	}
	return len(shallow) > 0, nil
}

func workTreeIsDirty(repo *git.Repository) (bool, error) {
	workTree, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage
	if _, ok := repo.Storer.(*filesystem.Storage); ok {
		if _, err := exec.LookPath("git"); err == nil {
			return checkDirtyWithGitCommand(workTree.Filesystem.Root())
		}
	}

	// Fallback to go-git status check
	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	return !status.IsClean(), nil
}

func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain", "--untracked-files=normal")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return true, nil
		}
		return false, err
	}

	return len(output) > 0, nil
}
