package gitver

import (
	"fmt"
	"strconv"
	"time"
)

// GlobalPlaceholders builds the placeholders shared by every format of a
// run: commit, ref, dirty state and describe values plus env.
func GlobalPlaceholders(s *GitSituation, ctx *ResolvedVersionContext, env map[string]string) (PlaceholderMap, error) {
	placeholders := PlaceholderMap{}

	commit := s.Commit()
	placeholders["commit"] = commit
	placeholders["commit.short"] = shortCommit(commit)

	timestamp, err := s.Timestamp()
	if err != nil {
		return nil, fmt.Errorf("reading commit timestamp: %w", err)
	}
	for k, v := range timestampPlaceholders(timestamp) {
		placeholders[k] = v
	}

	refName := ctx.RefName
	placeholders["ref"] = refName
	placeholders["ref.slug"] = Slugify(refName)
	if ctx.Rule.Pattern != nil {
		for group, value := range PatternGroupValues(ctx.Rule.Pattern, refName) {
			placeholders["ref."+group] = value
			placeholders["ref."+group+".slug"] = Slugify(value)
		}
	}

	clean, err := s.IsClean()
	if err != nil {
		return nil, fmt.Errorf("checking worktree status: %w", err)
	}
	placeholders["dirty"] = ""
	placeholders["dirty.snapshot"] = ""
	if !clean {
		placeholders["dirty"] = "-DIRTY"
		placeholders["dirty.snapshot"] = "-SNAPSHOT"
	}

	description, err := s.Description()
	if err != nil {
		return nil, fmt.Errorf("describing HEAD: %w", err)
	}
	for k, v := range describePlaceholders(description, s.DescribeTagPattern()) {
		placeholders[k] = v
	}

	return placeholders.Merge(EnvironmentPlaceholders(env)), nil
}

func timestampPlaceholders(ts time.Time) PlaceholderMap {
	ts = ts.UTC()
	datetime := "00000000.000000"
	if ts.Unix() > 0 {
		datetime = ts.Format("20060102.150405")
	}
	return PlaceholderMap{
		"commit.timestamp":             strconv.FormatInt(ts.Unix(), 10),
		"commit.timestamp.year":        strconv.Itoa(ts.Year()),
		"commit.timestamp.year.2digit": strconv.Itoa(ts.Year() % 100),
		"commit.timestamp.month":       fmt.Sprintf("%02d", int(ts.Month())),
		"commit.timestamp.day":         fmt.Sprintf("%02d", ts.Day()),
		"commit.timestamp.hour":        fmt.Sprintf("%02d", ts.Hour()),
		"commit.timestamp.minute":      fmt.Sprintf("%02d", ts.Minute()),
		"commit.timestamp.second":      fmt.Sprintf("%02d", ts.Second()),
		"commit.timestamp.datetime":    datetime,
	}
}

func describePlaceholders(d GitDescription, tagPattern *Pattern) PlaceholderMap {
	placeholders := PlaceholderMap{
		"describe":          d.String(),
		"describe.tag":      d.Tag,
		"describe.distance": strconv.Itoa(d.Distance),
	}

	groupValues := PatternGroupValues(tagPattern, d.Tag)
	for _, group := range PatternGroups(tagPattern) {
		value, ok := groupValues[group]
		if !ok {
			continue
		}
		placeholders["describe.tag."+group] = value
		placeholders["describe.tag."+group+".slug"] = Slugify(value)
	}

	v := MatchVersion(d.Tag)
	major := orDefault(v.Major, "0")
	minor := orDefault(v.Minor, "0")
	patch := orDefault(v.Patch, "0")
	patchNext := Increase(patch, 1)
	distance := int64(d.Distance)

	placeholders["describe.tag.version"] = orDefault(v.Version, "0.0.0")
	placeholders["describe.tag.version.core"] = orDefault(v.Core, "0")
	placeholders["describe.tag.version.major"] = major
	placeholders["describe.tag.version.major.next"] = Increase(major, 1)
	placeholders["describe.tag.version.minor"] = minor
	placeholders["describe.tag.version.minor.next"] = Increase(minor, 1)
	placeholders["describe.tag.version.patch"] = patch
	placeholders["describe.tag.version.patch.next"] = patchNext
	placeholders["describe.tag.version.label"] = v.Label
	placeholders["describe.tag.version.patch.plus.describe.distance"] = Increase(patch, distance)
	placeholders["describe.tag.version.patch.next.plus.describe.distance"] = Increase(patchNext, distance)
	placeholders["describe.tag.version.label.plus.describe.distance"] = Increase(v.Label, distance)

	return placeholders
}

// FormatPlaceholders layers the version placeholders of projectVersion
// over global. versionPattern may be nil.
func FormatPlaceholders(global PlaceholderMap, projectVersion string, versionPattern *Pattern) PlaceholderMap {
	v := MatchVersion(projectVersion)
	major := orDefault(v.Major, "0")
	minor := orDefault(v.Minor, "0")
	patch := orDefault(v.Patch, "0")

	labelPrefixed := ""
	if v.Label != "" {
		labelPrefixed = "-" + v.Label
	}

	layer := PlaceholderMap{
		"version":                projectVersion,
		"version.core":           orDefault(v.Core, "0.0.0"),
		"version.major":          major,
		"version.major.next":     Increase(major, 1),
		"version.minor":          minor,
		"version.minor.next":     Increase(minor, 1),
		"version.patch":          patch,
		"version.patch.next":     Increase(patch, 1),
		"version.label":          v.Label,
		"version.label.prefixed": labelPrefixed,
		// deprecated
		"version.release": releasePattern.ReplaceAllLiteralString(projectVersion, ""),
	}

	if versionPattern != nil {
		for group, value := range PatternGroupValues(versionPattern, projectVersion) {
			layer["version."+group] = value
		}
	}
	return global.Merge(layer)
}

// PropertyPlaceholders adds the original property value to a format map.
func PropertyPlaceholders(format PlaceholderMap, originalValue string) PlaceholderMap {
	return format.Merge(PlaceholderMap{"value": originalValue})
}

// GitProperties returns the informational git.* properties of a run.
func GitProperties(s *GitSituation, ctx *ResolvedVersionContext) (map[string]string, error) {
	timestamp, err := s.Timestamp()
	if err != nil {
		return nil, fmt.Errorf("reading commit timestamp: %w", err)
	}
	datetime := "0000-00-00T00:00:00Z"
	if timestamp.Unix() > 0 {
		datetime = timestamp.UTC().Format(time.RFC3339)
	}
	return map[string]string{
		"git.commit":                    ctx.Commit,
		"git.commit.short":              shortCommit(ctx.Commit),
		"git.commit.timestamp":          strconv.FormatInt(timestamp.Unix(), 10),
		"git.commit.timestamp.datetime": datetime,
		"git.ref":                       ctx.RefName,
		"git.ref.slug":                  Slugify(ctx.RefName),
	}, nil
}
