package patcher

import "strings"

// SplitKeepEnds splits content into lines, each keeping its terminator.
// Unlike strings.Split this produces no phantom empty element for a
// trailing newline, and a final unterminated line is kept as-is.
func SplitKeepEnds(content string) []string {
	if content == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i+1])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

// normalizeLine collapses all whitespace runs to single spaces so two
// renditions of the same line compare equal despite indentation drift.
func normalizeLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}
