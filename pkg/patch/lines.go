package patch

import "strings"

// SplitLines splits s after every line terminator (\n, \r\n, or a lone \r),
// keeping the terminators. Form feeds, vertical tabs and Unicode line
// separators stay inside their line, so numbering agrees with editors and
// grep. The final element has no terminator when s does not end with one. An
// empty string yields no lines.
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := make([]string, 0, strings.Count(s, "\n")+1)
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i+1])
			start = i + 1
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				continue
			}
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}

// terminator returns the line ending carried by line, or "" for none.
func terminator(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	case strings.HasSuffix(line, "\r"):
		return "\r"
	}
	return ""
}

func hasTerminator(line string) bool {
	return terminator(line) != ""
}

// defaultTerminator picks the line ending used by the first terminated line.
func defaultTerminator(lines []string) string {
	for _, line := range lines {
		if t := terminator(line); t != "" {
			return t
		}
	}
	return "\n"
}
