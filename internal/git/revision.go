package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Revision identifies the checked-out commit of a repository.
type Revision struct {
	Hash   string
	Branch string
	// Dirty is true when the worktree has uncommitted changes.
	Dirty bool
}

// String renders the short hash, with a "-dirty" suffix for modified worktrees.
func (r Revision) String() string {
	if r.Hash == "" {
		return ""
	}
	s := r.Hash
	if len(s) > 12 {
		s = s[:12]
	}
	if r.Dirty {
		s += "-dirty"
	}
	return s
}

// ReadRevision inspects the repository containing path, searching parent
// directories for .git. It returns a zero Revision and no error when path is
// not inside a repository or the repository has no commits yet.
func ReadRevision(path string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, nil
		}
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Revision{}, nil
		}
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	rev := Revision{Hash: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to be dirty.
		if errors.Is(err, git.ErrIsBareRepository) {
			return rev, nil
		}
		return rev, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return rev, fmt.Errorf("worktree status: %w", err)
	}
	rev.Dirty = !status.IsClean()
	return rev, nil
}
