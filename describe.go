package gitver

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Describe finds the nearest first-parent ancestor of head carrying a tag
// that fully matches pattern. tags maps commits to their ordered tag names.
// An empty head describes the empty repository.
func Describe(store RefStore, head string, pattern *Pattern, tags map[string][]string) (GitDescription, error) {
	if head == "" {
		return GitDescription{Commit: NoCommit, Tag: "root", Distance: 0}, nil
	}

	var matchingTag string
	distance := 0
	err := store.WalkFirstParent(head, func(commit string) error {
		for _, tag := range tags[commit] {
			if pattern.Matches(tag) {
				matchingTag = tag
				return storer.ErrStop
			}
		}
		distance++
		return nil
	})
	if err != nil {
		return GitDescription{}, fmt.Errorf("walking commit history: %w", err)
	}

	if matchingTag != "" {
		return GitDescription{Commit: head, Tag: matchingTag, Distance: distance}, nil
	}

	shallow, err := store.IsShallow()
	if err != nil {
		return GitDescription{}, err
	}
	if shallow {
		return GitDescription{}, fmt.Errorf("%w: %s", ErrShallowRepository,
			"unshallow the repository or relax the describe tag pattern")
	}
	return GitDescription{Commit: head, Tag: "root", Distance: distance}, nil
}
