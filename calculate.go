package gitver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// Options configures a resolution run.
type Options struct {
	// Repository is the Git repository to analyze
	Repository *git.Repository

	// Store replaces Repository as the source of repository state
	Store RefStore

	// Rules are the ref rules in priority order
	Rules RuleSet

	// Overrides force the effective branch, tag or ref
	Overrides RefOverrides

	// Env is the environment used for CI detection and env.* placeholders
	// (default: the process environment)
	Env map[string]string

	// Disable overrides Rules.Disable when set
	Disable *bool

	// UpdateProperties overrides the update flag of the matched rule when set
	UpdateProperties *bool

	// ProjectVersion is the version before substitution
	ProjectVersion string

	// Properties are the property values before substitution
	Properties map[string]string

	Logger logrus.FieldLogger
}

// Result is the outcome of Calculate.
type Result struct {
	// Skipped is true when versioning is disabled or no rule matched
	Skipped    bool
	SkipReason string

	Context *ResolvedVersionContext

	// Version is the rendered version; VersionSet is false when the
	// matched rule has no version format
	Version    string
	VersionSet bool

	// Properties holds the rendered property formats of the matched rule
	Properties map[string]string

	// GitProperties holds the git.* build metadata
	GitProperties map[string]string

	// UpdateProperties asks the caller to persist the rendered values
	UpdateProperties bool
}

// Calculate resolves the git situation, matches a rule and renders its
// version and property formats.
func Calculate(opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	disabled := opts.Rules.Disable
	if opts.Disable != nil {
		disabled = *opts.Disable
	}
	if disabled {
		log.Warn("skip - versioning is disabled")
		return &Result{Skipped: true, SkipReason: "versioning is disabled"}, nil
	}

	store := opts.Store
	if store == nil {
		if opts.Repository == nil {
			return nil, ErrRepositoryRequired
		}
		store = NewGitRefStore(opts.Repository)
	}

	env := opts.Env
	if env == nil {
		env = Environ()
	}

	situation, err := NewGitSituation(store, log)
	if err != nil {
		return nil, fmt.Errorf("reading git situation: %w", err)
	}
	if err := ApplyOverrides(situation, opts.Overrides, env, log); err != nil {
		return nil, err
	}
	if debugEnabled(log) {
		log.WithFields(situation.logFields()).Debug("git situation")
	}

	ctx, ok, err := MatchRule(situation, opts.Rules)
	if err != nil {
		return nil, err
	}
	if !ok {
		branch, _ := situation.Branch()
		log.WithField("branch", branch).Warn("skip - no matching ref configuration and no rev configuration defined")
		for _, rule := range opts.Rules.Refs {
			log.Warnf("  %-6s - pattern: %v", rule.Type, rule.Pattern)
		}
		return &Result{Skipped: true, SkipReason: "no matching ref configuration"}, nil
	}

	rule := ctx.Rule
	log.Infof("matching ref: %s - %s", ctx.RefType, ctx.RefName)
	log.Infof("ref configuration: %s - pattern: %v", ctx.RefType, rule.Pattern)
	if rule.DescribeTagPattern != nil {
		log.Infof("  describeTagPattern: %s", rule.DescribeTagPattern)
		situation.SetDescribeTagPattern(rule.DescribeTagPattern)
	}

	result := &Result{
		Context:          ctx,
		UpdateProperties: updatePropertiesOption(opts.UpdateProperties, rule.UpdateFlag),
	}

	if result.GitProperties, err = GitProperties(situation, ctx); err != nil {
		return nil, err
	}

	if rule.VersionFormat == "" && len(rule.PropertyFormats) == 0 {
		return result, nil
	}

	global, err := GlobalPlaceholders(situation, ctx, env)
	if err != nil {
		return nil, err
	}
	format := FormatPlaceholders(global, opts.ProjectVersion, opts.Rules.ProjectVersionPattern)

	if rule.VersionFormat != "" {
		log.Infof("  version: %s", rule.VersionFormat)
		result.Version = Slugify(Substitute(rule.VersionFormat, format))
		result.VersionSet = true
		log.Infof("set version to %s", result.Version)
	}

	if len(rule.PropertyFormats) > 0 {
		result.Properties = make(map[string]string, len(rule.PropertyFormats))
		for _, name := range sortedKeys(rule.PropertyFormats) {
			original := opts.Properties[name]
			value := Substitute(rule.PropertyFormats[name], PropertyPlaceholders(format, original))
			result.Properties[name] = value
			if value != original {
				log.Infof("  %s: %s", name, value)
			}
		}
	}

	return result, nil
}

func updatePropertiesOption(option, rule *bool) bool {
	if option != nil {
		return *option
	}
	if rule != nil {
		return *rule
	}
	return false
}

// ParseBoolOption reads an option value that is true only when it equals
// "true" ignoring case.
func ParseBoolOption(value string) bool {
	return strings.EqualFold(value, "true")
}

func debugEnabled(log logrus.FieldLogger) bool {
	switch l := log.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
