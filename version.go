package gitver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// versionPattern captures the first version-shaped run of text: a numeric
// core of up to three components and an optional -label holding the rest.
// Text without digits matches the empty alternative.
var versionPattern = regexp.MustCompile(
	`.*?(?P<version>(?P<core>(?P<major>\d+)(?:\.(?P<minor>\d+)(?:\.(?P<patch>\d+))?)?)(?:-(?P<label>.*))?)|`)

// releasePattern strips a trailing -label from a version.
var releasePattern = regexp.MustCompile(`-.*$`)

// VersionComponents are the parts of a version found by MatchVersion.
// Components absent from the input are empty.
type VersionComponents struct {
	Version string
	Core    string
	Major   string
	Minor   string
	Patch   string
	Label   string
}

// MatchVersion extracts version components from s. It never fails.
func MatchVersion(s string) VersionComponents {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return VersionComponents{}
	}
	group := func(name string) string {
		return m[versionPattern.SubexpIndex(name)]
	}
	return VersionComponents{
		Version: group("version"),
		Core:    group("core"),
		Major:   group("major"),
		Minor:   group("minor"),
		Patch:   group("patch"),
		Label:   group("label"),
	}
}

// Increase adds delta to the decimal number, keeping at least the width
// of number with zero padding. An empty number counts as "0" and
// non-numeric content as 0.
func Increase(number string, delta int64) string {
	width := len(number)
	if width == 0 {
		width = 1
	}
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		n = 0
	}
	return fmt.Sprintf("%0*d", width, n+delta)
}

// Slugify replaces path separators with hyphens.
func Slugify(value string) string {
	return strings.ReplaceAll(value, "/", "-")
}

// ValidateSemVer reports whether version is a valid semantic version.
func ValidateSemVer(version string) error {
	if _, err := semver.Parse(version); err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", version, err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
