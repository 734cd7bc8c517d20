package patch

import "strings"

// ContentMatches reports whether actual holds the lines of expected.
//
// Both sides must have the same number of lines in either mode. In exact mode
// every line, terminator included, must be byte-identical. Otherwise each pair
// is compared after trimming leading and trailing whitespace, so indentation and
// trailing spaces may differ but line structure and inner content may not.
func ContentMatches(expected string, actual []string, exact bool) bool {
	want := SplitLines(expected)
	if len(want) != len(actual) {
		return false
	}
	for i := range want {
		if !lineMatches(want[i], actual[i], exact) {
			return false
		}
	}
	return true
}

func lineMatches(want, got string, exact bool) bool {
	if exact {
		return want == got
	}
	return normalizeLine(want) == normalizeLine(got)
}

func normalizeLine(line string) string {
	return strings.TrimSpace(line)
}

func matchModeHint(exact bool) string {
	if exact {
		return "exact whitespace match required"
	}
	return "leading and trailing whitespace ignored"
}
