// Package gitver derives reproducible version strings and build properties
// from the state of a Git repository and renders them through placeholder
// format strings.
package gitver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NoCommit is the commit id reported for a repository without any commit.
const NoCommit = "0000000000000000000000000000000000000000"

var (
	// ErrInvalidRefFormat indicates a provided ref or a branch/tag override
	// with a forbidden refs/ prefix.
	ErrInvalidRefFormat = errors.New("invalid ref format")

	// ErrShallowRepository indicates the describe walk exhausted the
	// truncated history of a shallow clone without finding a matching tag.
	ErrShallowRepository = errors.New("couldn't find matching tag in shallow git repository")

	// ErrRepositoryRequired indicates neither a repository nor a ref store was given.
	ErrRepositoryRequired = errors.New("repository is required")

	// ErrInvalidConfig indicates a configuration that cannot be compiled into rules.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RefType is the kind of ref a rule applies to.
type RefType int

const (
	RefTypeBranch RefType = iota
	RefTypeTag
	RefTypeCommit
)

func (t RefType) String() string {
	switch t {
	case RefTypeBranch:
		return "BRANCH"
	case RefTypeTag:
		return "TAG"
	case RefTypeCommit:
		return "COMMIT"
	default:
		return fmt.Sprintf("RefType(%d)", int(t))
	}
}

// ParseRefType converts "branch", "tag" or "commit" (case-insensitive).
func ParseRefType(s string) (RefType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "branch":
		return RefTypeBranch, nil
	case "tag":
		return RefTypeTag, nil
	case "commit", "rev":
		return RefTypeCommit, nil
	default:
		return 0, fmt.Errorf("%w: unknown ref type %q", ErrInvalidConfig, s)
	}
}

// Pattern is a compiled regular expression that also keeps an anchored
// variant for full-match checks.
type Pattern struct {
	re   *regexp.Regexp
	full *regexp.Regexp
}

// CompilePattern compiles expr for both search and full-match use.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	full, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re, full: full}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string) *Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(fmt.Sprintf("gitver: compiling pattern %q: %v", expr, err))
	}
	return p
}

// Matches reports whether the whole of s matches the pattern.
func (p *Pattern) Matches(s string) bool {
	return p.full.MatchString(s)
}

func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.re.String()
}

// GitDescription is the outcome of a describe walk.
type GitDescription struct {
	Commit   string
	Tag      string
	Distance int
}

func (d GitDescription) String() string {
	return fmt.Sprintf("%s-%d-g%s", d.Tag, d.Distance, shortCommit(d.Commit))
}

func shortCommit(commit string) string {
	if len(commit) < 7 {
		return commit
	}
	return commit[:7]
}

// RuleDescription describes how to version a matching ref.
type RuleDescription struct {
	Type RefType

	// Pattern must fully match the ref name; nil matches any ref of Type.
	Pattern *Pattern

	// DescribeTagPattern replaces the situation's describe pattern when set.
	DescribeTagPattern *Pattern

	// VersionFormat renders the project version; empty leaves it untouched.
	VersionFormat string

	// PropertyFormats renders named properties.
	PropertyFormats map[string]string

	// UpdateFlag asks the caller to persist rendered values.
	UpdateFlag *bool
}

// RuleSet is the ordered rule configuration supplied by the caller.
type RuleSet struct {
	Refs []RuleDescription

	// Rev is the catch-all rule used when no ref rule matches.
	Rev *RuleDescription

	ConsiderTagsOnBranches bool

	// ProjectVersionPattern exposes version.<group> placeholders.
	ProjectVersionPattern *Pattern

	Disable bool
}

// ResolvedVersionContext is the matched ref and the rule that matched it.
type ResolvedVersionContext struct {
	Commit  string
	RefType RefType
	RefName string
	Rule    RuleDescription
}

// PlaceholderMap maps placeholder keys to values.
type PlaceholderMap map[string]string

// Merge returns a new map with the entries of layers applied in order;
// later layers win.
func (m PlaceholderMap) Merge(layers ...PlaceholderMap) PlaceholderMap {
	size := len(m)
	for _, l := range layers {
		size += len(l)
	}
	merged := make(PlaceholderMap, size)
	for k, v := range m {
		merged[k] = v
	}
	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}
	return merged
}
