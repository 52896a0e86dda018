package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/gitver"
	"github.com/sirupsen/logrus"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Repo   string `short:"r" help:"Repository path (default: current directory)"`
	Config string `short:"c" help:"Config file (default: .git-versioning.toml in the worktree root)"`

	GitBranch string `env:"VERSIONING_GIT_BRANCH" help:"Override the current branch"`
	GitTag    string `env:"VERSIONING_GIT_TAG" help:"Override the tags of HEAD"`
	GitRef    string `env:"VERSIONING_GIT_REF" help:"Provide a full ref, e.g. refs/heads/main or refs/tags/v1.0.0"`

	Disable          string `env:"VERSIONING_DISABLE" help:"Disable versioning (true|false)"`
	UpdateProperties string `env:"VERSIONING_UPDATE_PROPERTIES" help:"Override the update flag of the matched rule (true|false)"`

	VersionValue string            `name:"version-value" help:"Project version before substitution"`
	Property     map[string]string `short:"p" help:"Property value before substitution (key=value, repeatable)"`

	SemVer    bool   `name:"semver" help:"Fail unless the rendered version is a semantic version"`
	JSON      bool   `short:"j" help:"Output as JSON"`
	LogLevel  string `default:"warn" enum:"panic,fatal,error,warn,info,debug,trace" env:"VERSIONING_LOG_LEVEL" help:"Log level"`
	LogFormat string `default:"text" enum:"text,json" help:"Log format"`

	ShowVersion bool `help:"Show version information" name:"version"`
}

// output is the rendered result of a run.
type output struct {
	Version          string            `json:"version"`
	Skipped          bool              `json:"skipped,omitempty"`
	SkipReason       string            `json:"skipReason,omitempty"`
	RefType          string            `json:"refType,omitempty"`
	RefName          string            `json:"refName,omitempty"`
	Properties       map[string]string `json:"properties,omitempty"`
	Git              map[string]string `json:"git,omitempty"`
	UpdateProperties bool              `json:"updateProperties,omitempty"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("gitver"),
		kong.Description("Render project versions and properties from Git repository state"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	// Handle version flag
	if c.ShowVersion {
		return c.showVersion()
	}

	log, err := c.logger()
	if err != nil {
		return err
	}
	return c.calculateVersion(log)
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "gitver",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("gitver version %s\n", Version)
	return nil
}

func (c *CLI) logger() (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level := c.LogLevel
	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(lvl)

	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return log, nil
}

func (c *CLI) calculateVersion(log *logrus.Logger) error {
	repoPath := c.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := gitver.OpenRepository(repoPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	configPath := c.Config
	if configPath == "" {
		root := gitver.NewGitRefStore(repo).RootDirectory()
		if root == "" {
			root = repoPath
		}
		configPath = filepath.Join(root, gitver.DefaultConfigFile)
	}
	cfg, err := gitver.LoadConfig(configPath)
	if err != nil {
		return err
	}
	rules, err := cfg.Compile()
	if err != nil {
		return fmt.Errorf("%s: %w", configPath, err)
	}

	result, err := gitver.Calculate(gitver.Options{
		Repository: repo,
		Rules:      rules,
		Overrides: gitver.RefOverrides{
			Branch: c.GitBranch,
			Tag:    c.GitTag,
			Ref:    c.GitRef,
		},
		Disable:          optionalBool(c.Disable),
		UpdateProperties: optionalBool(c.UpdateProperties),
		ProjectVersion:   c.VersionValue,
		Properties:       c.Property,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	out := c.render(result)
	if c.SemVer && !result.Skipped {
		if err := gitver.ValidateSemVer(out.Version); err != nil {
			return err
		}
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(out)
	}
	printText(out)
	return nil
}

// render merges the result over the values the run started with.
func (c *CLI) render(result *gitver.Result) output {
	out := output{
		Version:          c.VersionValue,
		Skipped:          result.Skipped,
		SkipReason:       result.SkipReason,
		Git:              result.GitProperties,
		UpdateProperties: result.UpdateProperties,
	}
	if result.Context != nil {
		out.RefType = result.Context.RefType.String()
		out.RefName = result.Context.RefName
	}
	if result.VersionSet {
		out.Version = result.Version
	}

	if len(c.Property) > 0 || len(result.Properties) > 0 {
		out.Properties = make(map[string]string, len(c.Property)+len(result.Properties))
		for k, v := range c.Property {
			out.Properties[k] = v
		}
		for k, v := range result.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

func printText(out output) {
	fmt.Println(out.Version)
	for _, m := range []map[string]string{out.Properties, out.Git} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s=%s\n", k, m[k])
		}
	}
}

// optionalBool treats an empty option as unset.
func optionalBool(value string) *bool {
	if value == "" {
		return nil
	}
	b := gitver.ParseBoolOption(value)
	return &b
}
