package gitver

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is the config file name looked up in the worktree root.
const DefaultConfigFile = ".git-versioning.toml"

// Config is the file form of a RuleSet.
type Config struct {
	Disable                bool         `toml:"disable"`
	DescribeTagPattern     string       `toml:"describeTagPattern"`
	ProjectVersionPattern  string       `toml:"projectVersionPattern"`
	UpdateProperties       *bool        `toml:"updateProperties"`
	ConsiderTagsOnBranches bool         `toml:"considerTagsOnBranches"`
	Refs                   []RefConfig  `toml:"ref"`
	Rev                    *PatchConfig `toml:"rev"`
}

// RefConfig is a branch or tag rule.
type RefConfig struct {
	Type               string            `toml:"type"`
	Pattern            string            `toml:"pattern"`
	DescribeTagPattern string            `toml:"describeTagPattern"`
	Version            string            `toml:"version"`
	Properties         map[string]string `toml:"properties"`
	UpdateProperties   *bool             `toml:"updateProperties"`
}

// PatchConfig is the formats applied by the rev rule.
type PatchConfig struct {
	DescribeTagPattern string            `toml:"describeTagPattern"`
	Version            string            `toml:"version"`
	Properties         map[string]string `toml:"properties"`
	UpdateProperties   *bool             `toml:"updateProperties"`
}

// LoadConfig reads a TOML config file. A missing file yields an empty Config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML config data.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", ErrInvalidConfig, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown config key %q", ErrInvalidConfig, undecoded[0].String())
	}
	return cfg, nil
}

// Compile validates the config and turns it into a RuleSet. Rules without
// their own describe pattern or update flag inherit the global ones.
func (c *Config) Compile() (RuleSet, error) {
	rules := RuleSet{
		ConsiderTagsOnBranches: c.ConsiderTagsOnBranches,
		Disable:                c.Disable,
	}

	var err error
	if rules.ProjectVersionPattern, err = optionalPattern("projectVersionPattern", c.ProjectVersionPattern); err != nil {
		return RuleSet{}, err
	}
	globalDescribe, err := optionalPattern("describeTagPattern", c.DescribeTagPattern)
	if err != nil {
		return RuleSet{}, err
	}

	for i, ref := range c.Refs {
		refType, err := ParseRefType(ref.Type)
		if err != nil {
			return RuleSet{}, fmt.Errorf("ref %d: %w", i, err)
		}
		if refType == RefTypeCommit {
			return RuleSet{}, fmt.Errorf("%w: ref %d: type must be branch or tag, use [rev] for commits", ErrInvalidConfig, i)
		}
		pattern, err := optionalPattern(fmt.Sprintf("ref %d pattern", i), ref.Pattern)
		if err != nil {
			return RuleSet{}, err
		}
		describe, err := optionalPattern(fmt.Sprintf("ref %d describeTagPattern", i), ref.DescribeTagPattern)
		if err != nil {
			return RuleSet{}, err
		}
		rules.Refs = append(rules.Refs, RuleDescription{
			Type:               refType,
			Pattern:            pattern,
			DescribeTagPattern: firstPattern(describe, globalDescribe),
			VersionFormat:      ref.Version,
			PropertyFormats:    ref.Properties,
			UpdateFlag:         firstBool(ref.UpdateProperties, c.UpdateProperties),
		})
	}

	if c.Rev != nil {
		describe, err := optionalPattern("rev describeTagPattern", c.Rev.DescribeTagPattern)
		if err != nil {
			return RuleSet{}, err
		}
		rules.Rev = &RuleDescription{
			Type:               RefTypeCommit,
			DescribeTagPattern: firstPattern(describe, globalDescribe),
			VersionFormat:      c.Rev.Version,
			PropertyFormats:    c.Rev.Properties,
			UpdateFlag:         firstBool(c.Rev.UpdateProperties, c.UpdateProperties),
		}
	}

	return rules, nil
}

func optionalPattern(name, expr string) (*Pattern, error) {
	if expr == "" {
		return nil, nil
	}
	p, err := CompilePattern(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}
	return p, nil
}

func firstPattern(patterns ...*Pattern) *Pattern {
	for _, p := range patterns {
		if p != nil {
			return p
		}
	}
	return nil
}

func firstBool(values ...*bool) *bool {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
