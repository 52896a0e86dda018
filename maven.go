package gitver

import (
	"strconv"
	"strings"
)

// CompareVersions compares two version strings the way Maven's
// ComparableVersion does: numeric components compare numerically,
// qualifiers rank alpha < beta < milestone < rc < snapshot < release < sp,
// and unknown qualifiers rank above sp in lexical order.
// It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	return parseVersionItems(a).compare(parseVersionItems(b))
}

var versionQualifiers = []string{"alpha", "beta", "milestone", "rc", "snapshot", "", "sp"}

var releaseQualifierIndex = strconv.Itoa(indexOf(versionQualifiers, ""))

var qualifierAliases = map[string]string{
	"ga":      "",
	"final":   "",
	"release": "",
	"cr":      "rc",
}

type versionItem interface {
	// compare compares against other; other may be nil.
	compare(other versionItem) int
	isNull() bool
}

type intItem string // decimal digits without leading zeros

func newIntItem(digits string) intItem {
	digits = strings.TrimLeft(digits, "0")
	return intItem(digits)
}

func (i intItem) isNull() bool { return i == "" }

func (i intItem) compare(other versionItem) int {
	switch o := other.(type) {
	case nil:
		if i.isNull() {
			return 0
		}
		return 1
	case intItem:
		if len(i) != len(o) {
			return sign(len(i) - len(o))
		}
		return strings.Compare(string(i), string(o))
	case stringItem:
		return 1
	case *listItem:
		return 1
	}
	return 0
}

type stringItem string

func newStringItem(value string, followedByDigit bool) stringItem {
	if followedByDigit && len(value) == 1 {
		switch value {
		case "a":
			value = "alpha"
		case "b":
			value = "beta"
		case "m":
			value = "milestone"
		}
	}
	if alias, ok := qualifierAliases[value]; ok {
		value = alias
	}
	return stringItem(value)
}

func comparableQualifier(q string) string {
	i := indexOf(versionQualifiers, q)
	if i == -1 {
		return strconv.Itoa(len(versionQualifiers)) + "-" + q
	}
	return strconv.Itoa(i)
}

func (s stringItem) isNull() bool {
	return comparableQualifier(string(s)) == releaseQualifierIndex
}

func (s stringItem) compare(other versionItem) int {
	switch o := other.(type) {
	case nil:
		return strings.Compare(comparableQualifier(string(s)), releaseQualifierIndex)
	case intItem:
		return -1
	case stringItem:
		return strings.Compare(comparableQualifier(string(s)), comparableQualifier(string(o)))
	case *listItem:
		return -1
	}
	return 0
}

type listItem struct {
	items []versionItem
}

func (l *listItem) add(item versionItem) {
	l.items = append(l.items, item)
}

func (l *listItem) isNull() bool { return len(l.items) == 0 }

// normalize drops trailing null items up to the last nested list.
func (l *listItem) normalize() {
	for i := len(l.items) - 1; i >= 0; i-- {
		item := l.items[i]
		if item.isNull() {
			l.items = append(l.items[:i], l.items[i+1:]...)
		} else if _, ok := item.(*listItem); !ok {
			break
		}
	}
}

func (l *listItem) compare(other versionItem) int {
	switch o := other.(type) {
	case nil:
		if len(l.items) == 0 {
			return 0
		}
		return l.items[0].compare(nil)
	case intItem:
		return -1
	case stringItem:
		return 1
	case *listItem:
		for i := 0; i < len(l.items) || i < len(o.items); i++ {
			var left, right versionItem
			if i < len(l.items) {
				left = l.items[i]
			}
			if i < len(o.items) {
				right = o.items[i]
			}

			var result int
			if left == nil {
				if right != nil {
					result = -right.compare(nil)
				}
			} else {
				result = left.compare(right)
			}
			if result != 0 {
				return result
			}
		}
		return 0
	}
	return 0
}

func parseVersionItems(version string) *listItem {
	version = strings.ToLower(version)

	root := &listItem{}
	list := root
	stack := []*listItem{root}

	isDigit := false
	start := 0

	parseItem := func(digit bool, s string) versionItem {
		if digit {
			return newIntItem(s)
		}
		return newStringItem(s, false)
	}
	pushList := func() {
		next := &listItem{}
		list.add(next)
		list = next
		stack = append(stack, next)
	}

	for i := 0; i < len(version); i++ {
		c := version[i]
		switch {
		case c == '.':
			if i == start {
				list.add(intItem(""))
			} else {
				list.add(parseItem(isDigit, version[start:i]))
			}
			start = i + 1
		case c == '-':
			if i == start {
				list.add(intItem(""))
			} else {
				list.add(parseItem(isDigit, version[start:i]))
			}
			start = i + 1
			pushList()
		case c >= '0' && c <= '9':
			if !isDigit && i > start {
				list.add(newStringItem(version[start:i], true))
				start = i
				pushList()
			}
			isDigit = true
		default:
			if isDigit && i > start {
				list.add(parseItem(true, version[start:i]))
				start = i
				pushList()
			}
			isDigit = false
		}
	}
	if len(version) > start {
		list.add(parseItem(isDigit, version[start:]))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].normalize()
	}
	return root
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
