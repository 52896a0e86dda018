package gitver

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDescribeTagPattern matches every tag.
const DefaultDescribeTagPattern = ".*"

// GitSituation is a snapshot of the repository state for one resolution
// run. Tags, cleanliness and the describe result are computed on first use
// and cached; changing the describe pattern discards the cached description.
type GitSituation struct {
	store RefStore
	log   logrus.FieldLogger

	rootDirectory string
	head          string
	hasHead       bool

	branch    string
	hasBranch bool

	timestamp   *lazy[time.Time]
	tagMap      *lazy[map[string][]string]
	tags        *lazy[[]string]
	clean       *lazy[bool]
	description *lazy[GitDescription]

	describeTagPattern *Pattern
}

// NewGitSituation reads HEAD and the current branch from store.
func NewGitSituation(store RefStore, log logrus.FieldLogger) (*GitSituation, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	head, hasHead, err := store.Head()
	if err != nil {
		return nil, err
	}
	if !hasHead {
		head = NoCommit
	}

	branch, hasBranch, err := store.Branch()
	if err != nil {
		return nil, err
	}

	s := &GitSituation{
		store:              store,
		log:                log,
		rootDirectory:      store.RootDirectory(),
		head:               head,
		hasHead:            hasHead,
		branch:             branch,
		hasBranch:          hasBranch,
		describeTagPattern: MustCompilePattern(DefaultDescribeTagPattern),
	}

	s.timestamp = newLazy(func() (time.Time, error) {
		if !s.hasHead {
			return time.Unix(0, 0).UTC(), nil
		}
		return store.CommitTime(s.head)
	})
	s.tagMap = newLazy(func() (map[string][]string, error) {
		tags, err := store.Tags()
		if err != nil {
			return nil, err
		}
		return tagsByCommit(tags), nil
	})
	s.tags = newLazy(func() ([]string, error) {
		if !s.hasHead {
			return nil, nil
		}
		tagMap, err := s.tagMap.get()
		if err != nil {
			return nil, err
		}
		return tagMap[s.head], nil
	})
	s.clean = newLazy(store.IsClean)
	s.description = newLazy(s.describe)

	return s, nil
}

func (s *GitSituation) describe() (GitDescription, error) {
	if !s.hasHead {
		return Describe(s.store, "", s.describeTagPattern, nil)
	}
	tagMap, err := s.tagMap.get()
	if err != nil {
		return GitDescription{}, err
	}
	return Describe(s.store, s.head, s.describeTagPattern, tagMap)
}

// RootDirectory returns the worktree root.
func (s *GitSituation) RootDirectory() string { return s.rootDirectory }

// Commit returns the HEAD commit id, or NoCommit.
func (s *GitSituation) Commit() string { return s.head }

// HasCommit reports whether the repository has a HEAD commit.
func (s *GitSituation) HasCommit() bool { return s.hasHead }

// Timestamp returns the HEAD commit time in UTC, or the Unix epoch.
func (s *GitSituation) Timestamp() (time.Time, error) { return s.timestamp.get() }

// Branch returns the effective branch; ok is false when detached.
func (s *GitSituation) Branch() (string, bool) { return s.branch, s.hasBranch }

// IsDetached reports whether there is no effective branch.
func (s *GitSituation) IsDetached() bool { return !s.hasBranch }

// Tags returns the effective tags of HEAD.
func (s *GitSituation) Tags() ([]string, error) { return s.tags.get() }

// IsClean reports whether the worktree has no changes.
func (s *GitSituation) IsClean() (bool, error) { return s.clean.get() }

// DescribeTagPattern returns the pattern used by Description.
func (s *GitSituation) DescribeTagPattern() *Pattern { return s.describeTagPattern }

// SetDescribeTagPattern replaces the describe pattern and discards the
// cached description.
func (s *GitSituation) SetDescribeTagPattern(p *Pattern) {
	s.describeTagPattern = p
	s.description.reset()
}

// Description returns the nearest matching tag description of HEAD.
func (s *GitSituation) Description() (GitDescription, error) { return s.description.get() }

// SetBranch overrides the effective branch. An empty name detaches.
// refs/heads/ and refs/ prefixes are stripped; refs/tags/ is rejected.
func (s *GitSituation) SetBranch(branch string) error {
	s.log.Debugf("override git branch with %s", branch)
	if branch == "" {
		s.branch, s.hasBranch = "", false
		return nil
	}

	name, err := normalizeBranch(branch)
	if err != nil {
		return err
	}
	s.branch, s.hasBranch = name, true
	return nil
}

// SetTags overrides the effective tags of HEAD.
func (s *GitSituation) SetTags(tags []string) error {
	s.log.Debugf("override git tags with %v", tags)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		name, err := normalizeTag(tag)
		if err != nil {
			return err
		}
		names = append(names, name)
	}
	s.tags = fixed(names)
	return nil
}

// AddTag appends a tag to the effective tags of HEAD.
func (s *GitSituation) AddTag(tag string) error {
	s.log.Debugf("add git tag %s", tag)

	name, err := normalizeTag(tag)
	if err != nil {
		return err
	}
	current := s.tags
	s.tags = newLazy(func() ([]string, error) {
		tags, err := current.get()
		if err != nil {
			return nil, err
		}
		return append(append([]string(nil), tags...), name), nil
	})
	return nil
}

func normalizeBranch(branch string) (string, error) {
	if strings.HasPrefix(branch, "refs/tags/") {
		return "", fmt.Errorf("%w: invalid branch ref %s", ErrInvalidRefFormat, branch)
	}
	// support default branches (heads)
	if name, ok := strings.CutPrefix(branch, "refs/heads/"); ok {
		return name, nil
	}
	// support other refs e.g. GitHub pull requests refs/pull/1000/head
	return strings.TrimPrefix(branch, "refs/"), nil
}

func normalizeTag(tag string) (string, error) {
	if strings.HasPrefix(tag, "refs/") && !strings.HasPrefix(tag, "refs/tags/") {
		return "", fmt.Errorf("%w: invalid tag ref %s", ErrInvalidRefFormat, tag)
	}
	return strings.TrimPrefix(tag, "refs/tags/"), nil
}

// logFields returns the situation as log fields; lazy values that fail to
// load are left out.
func (s *GitSituation) logFields() logrus.Fields {
	fields := logrus.Fields{
		"root_directory": s.rootDirectory,
		"head_commit":    s.head,
		"head_branch":    s.branch,
	}
	if ts, err := s.Timestamp(); err == nil {
		fields["head_commit_timestamp"] = ts.Format(time.RFC3339)
	}
	if d, err := s.Description(); err == nil {
		fields["head_description"] = d.String()
	}
	return fields
}
