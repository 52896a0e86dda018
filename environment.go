package gitver

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment variables read for command options.
const (
	EnvGitBranch        = "VERSIONING_GIT_BRANCH"
	EnvGitTag           = "VERSIONING_GIT_TAG"
	EnvGitRef           = "VERSIONING_GIT_REF"
	EnvDisable          = "VERSIONING_DISABLE"
	EnvUpdateProperties = "VERSIONING_UPDATE_PROPERTIES"
)

// RefOverrides are explicit branch/tag/ref inputs, usually from command
// line options or the VERSIONING_GIT_* environment variables.
type RefOverrides struct {
	Branch string
	Tag    string
	// Ref is a full ref name such as refs/heads/main or refs/tags/v1.0.0.
	Ref string
}

// RefOverridesFromEnv reads the VERSIONING_GIT_* variables from env.
func RefOverridesFromEnv(env map[string]string) RefOverrides {
	return RefOverrides{
		Branch: env[EnvGitBranch],
		Tag:    env[EnvGitTag],
		Ref:    env[EnvGitRef],
	}
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		env[key] = value
	}
	return env
}

// ApplyOverrides sets the effective branch and tags of s. Explicit
// branch/tag overrides win over a provided ref, which wins over CI
// environment detection; without any of them the repository state stays.
func ApplyOverrides(s *GitSituation, overrides RefOverrides, env map[string]string, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	branch := strings.TrimSpace(overrides.Branch)
	tag := strings.TrimSpace(overrides.Tag)
	if branch != "" || tag != "" {
		if err := s.SetBranch(branch); err != nil {
			return err
		}
		var tags []string
		if tag != "" {
			tags = []string{tag}
		}
		return s.SetTags(tags)
	}

	if ref := overrides.Ref; ref != "" {
		if !strings.HasPrefix(ref, "refs/") {
			return fmt.Errorf("%w: invalid provided ref %s - needs to start with refs/", ErrInvalidRefFormat, ref)
		}
		if strings.HasPrefix(ref, "refs/tags/") {
			if err := s.SetBranch(""); err != nil {
				return err
			}
			return s.SetTags([]string{ref})
		}
		if err := s.SetBranch(ref); err != nil {
			return err
		}
		return s.SetTags(nil)
	}

	// CI environments check out a detached HEAD
	if !s.IsDetached() {
		return nil
	}

	for _, vendor := range ciVendors {
		if !vendor.detect(env) {
			continue
		}
		if env[vendor.commitVar] != s.Commit() {
			log.WithField("vendor", vendor.name).Debugf("skip %s environment: %s does not match HEAD", vendor.name, vendor.commitVar)
			return nil
		}
		log.Infof("gather git situation from %s environment variables: %s", vendor.name, strings.Join(vendor.vars, ", "))
		for _, name := range vendor.vars {
			log.Debugf("  %s: %s", name, env[name])
		}
		return vendor.apply(s, env)
	}
	return nil
}

// ciVendor detects one CI system and applies the branch or tag it reports.
type ciVendor struct {
	name      string
	detect    func(env map[string]string) bool
	commitVar string
	vars      []string
	apply     func(s *GitSituation, env map[string]string) error
}

// ciVendors are evaluated in order; the first detected vendor decides.
var ciVendors = []ciVendor{
	{
		name:      "GitHub Actions",
		detect:    envIsTrue("GITHUB_ACTIONS"),
		commitVar: "GITHUB_SHA",
		vars:      []string{"GITHUB_REF"},
		apply:     applyGitHubActions,
	},
	{
		name:      "GitLab CI",
		detect:    envIsTrue("GITLAB_CI"),
		commitVar: "CI_COMMIT_SHA",
		vars:      []string{"CI_COMMIT_BRANCH", "CI_MERGE_REQUEST_SOURCE_BRANCH_NAME", "CI_COMMIT_TAG"},
		apply:     applyGitLabCI,
	},
	{
		name:      "Circle CI",
		detect:    envIsTrue("CIRCLECI"),
		commitVar: "CIRCLE_SHA1",
		vars:      []string{"CIRCLE_BRANCH", "CIRCLE_TAG"},
		apply:     applyCircleCI,
	},
	{
		name: "Jenkins",
		detect: func(env map[string]string) bool {
			return strings.TrimSpace(env["JENKINS_HOME"]) != ""
		},
		commitVar: "GIT_COMMIT",
		vars:      []string{"BRANCH_NAME", "TAG_NAME"},
		apply:     applyJenkins,
	},
}

func envIsTrue(name string) func(env map[string]string) bool {
	return func(env map[string]string) bool {
		return strings.EqualFold(env[name], "true")
	}
}

func applyGitHubActions(s *GitSituation, env map[string]string) error {
	ref := env["GITHUB_REF"]
	if strings.HasPrefix(ref, "refs/tags/") {
		return s.AddTag(ref)
	}
	return s.SetBranch(ref)
}

// lookupNonEmpty treats an empty variable as unset.
func lookupNonEmpty(env map[string]string, name string) (string, bool) {
	value := env[name]
	return value, value != ""
}

func applyGitLabCI(s *GitSituation, env map[string]string) error {
	if branch, ok := lookupNonEmpty(env, "CI_COMMIT_BRANCH"); ok {
		return s.SetBranch(branch)
	}
	if branch, ok := lookupNonEmpty(env, "CI_MERGE_REQUEST_SOURCE_BRANCH_NAME"); ok {
		return s.SetBranch(branch)
	}
	if tag, ok := lookupNonEmpty(env, "CI_COMMIT_TAG"); ok {
		return s.AddTag(tag)
	}
	return nil
}

func applyCircleCI(s *GitSituation, env map[string]string) error {
	if branch, ok := lookupNonEmpty(env, "CIRCLE_BRANCH"); ok {
		return s.SetBranch(branch)
	}
	if tag, ok := lookupNonEmpty(env, "CIRCLE_TAG"); ok {
		return s.AddTag(tag)
	}
	return nil
}

func applyJenkins(s *GitSituation, env map[string]string) error {
	branch, hasBranch := lookupNonEmpty(env, "BRANCH_NAME")
	tag, hasTag := lookupNonEmpty(env, "TAG_NAME")
	switch {
	case hasBranch && hasTag && branch == tag:
		// Jenkins reports tag builds with BRANCH_NAME set to the tag
		return s.AddTag(branch)
	case hasBranch:
		return s.SetBranch(branch)
	case hasTag:
		return s.AddTag(tag)
	}
	return nil
}

// EnvironmentPlaceholders exposes every variable of env as env.<NAME>.
func EnvironmentPlaceholders(env map[string]string) PlaceholderMap {
	placeholders := make(PlaceholderMap, len(env))
	for key, value := range env {
		placeholders["env."+key] = value
	}
	return placeholders
}
