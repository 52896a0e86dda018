package gitver

import (
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\$\{(?P<key>[^}:]+)(?::(?P<modifier>[-+])(?P<value>[^}]*))?\}`)

// Substitute replaces ${key}, ${key:-fallback} and ${key:+override}
// placeholders in text. A fallback is used when key is missing, an
// override when key is present. Placeholders that resolve to nothing are
// removed. Replacement values are inserted literally.
func Substitute(text string, placeholders map[string]string) string {
	var sb strings.Builder
	last := 0
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(text[last:m[0]])
		last = m[1]

		key := text[m[2]:m[3]]
		replacement, ok := placeholders[key]
		if m[4] >= 0 {
			modifier := text[m[4]:m[5]]
			value := text[m[6]:m[7]]
			switch {
			case modifier == "-" && !ok:
				replacement = value
			case modifier == "+" && ok:
				replacement = value
			}
		}
		sb.WriteString(replacement)
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// PatternGroupValues matches p against text (search, not full match) and
// returns the value of every participating group keyed by its index and,
// for named groups, by its name.
func PatternGroupValues(p *Pattern, text string) map[string]string {
	values := make(map[string]string)
	m := p.re.FindStringSubmatchIndex(text)
	if m == nil {
		return values
	}
	names := p.re.SubexpNames()
	for i := 1; i < len(names); i++ {
		start, end := m[2*i], m[2*i+1]
		if start < 0 {
			continue
		}
		value := text[start:end]
		values[strconv.Itoa(i)] = value
		if names[i] != "" {
			values[names[i]] = value
		}
	}
	return values
}

// PatternGroups returns the group indexes and names of p.
func PatternGroups(p *Pattern) []string {
	names := p.re.SubexpNames()
	groups := make([]string, 0, 2*len(names))
	for i := 1; i < len(names); i++ {
		groups = append(groups, strconv.Itoa(i))
		if names[i] != "" {
			groups = append(groups, names[i])
		}
	}
	return groups
}
