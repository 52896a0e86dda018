package gitver

import (
	"sort"
	"strings"
)

// CompareTags orders tags pointing at the same commit. Annotated tags come
// before lightweight tags, newer annotated tags before older ones, and
// lightweight tags by descending version. Remaining ties fall back to the
// tag name so the order is total.
func CompareTags(a, b TagRef) int {
	switch {
	case a.Annotated && b.Annotated:
		if c := b.TaggerTime.Compare(a.TaggerTime); c != 0 {
			return c
		}
	case a.Annotated:
		return -1
	case b.Annotated:
		return 1
	}

	// sort the highest version first
	if c := CompareVersions(b.Name, a.Name); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// SortTags sorts tags in place by CompareTags.
func SortTags(tags []TagRef) {
	sort.SliceStable(tags, func(i, j int) bool {
		return CompareTags(tags[i], tags[j]) < 0
	})
}

// tagsByCommit groups tag names by the commit they point at, each group
// ordered by CompareTags.
func tagsByCommit(tags []TagRef) map[string][]string {
	grouped := make(map[string][]TagRef)
	for _, tag := range tags {
		grouped[tag.Commit] = append(grouped[tag.Commit], tag)
	}

	names := make(map[string][]string, len(grouped))
	for commit, refs := range grouped {
		SortTags(refs)
		for _, ref := range refs {
			names[commit] = append(names[commit], ref.Name)
		}
	}
	return names
}

// sortVersionsAscending returns a copy of names ordered lowest version first.
func sortVersionsAscending(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareVersions(sorted[i], sorted[j]) < 0
	})
	return sorted
}
