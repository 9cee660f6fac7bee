package patcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sokinpui/mend/internal/extract"
)

// DefaultMarker is the literal line the model emits between sections to
// stand in for an unmodified stretch of the file.
const DefaultMarker = "[UNCHANGED]"

// Section reconstructs a file from a sectioned patch: ordered fragments of
// the intended final content separated by marker lines, each fragment
// aligned approximately against the original so the model does not have to
// reproduce context byte-for-byte.
type Section struct {
	Marker string
}

// NewSection returns a Section patcher using DefaultMarker.
func NewSection() *Section {
	return &Section{Marker: DefaultMarker}
}

// Apply reconciles patch against original and returns the complete new
// file content. It never fails: malformed or degenerate input degrades to
// a best-effort alignment, and every original line is either reproduced,
// replaced, or intentionally dropped by the alignment.
func (s *Section) Apply(original, patch string) string {
	marker := s.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	origLines := SplitKeepEnds(original)
	sections := splitSections(extract.Block(patch), marker)

	var out []string
	cursor := 0
	for _, section := range sections {
		section = strings.TrimLeft(section, "\n")
		if strings.TrimSpace(section) == "" {
			continue // adjacent markers contribute no content
		}
		secLines := SplitKeepEnds(section)

		matcher := difflib.NewMatcher(origLines[cursor:], secLines)
		ops := matcher.GetOpCodes()
		next := cursor
		for i, op := range ops {
			if i == 0 && op.Tag == 'd' {
				// Unmatched leading context: the model did not reproduce
				// this prefix, but it did not delete it either.
				out = append(out, origLines[cursor+op.I1:cursor+op.I2]...)
				continue
			}
			switch op.Tag {
			case 'e', 'i', 'r':
				out = append(out, secLines[op.J1:op.J2]...)
				ahi := op.I2
				if op.Tag == 'r' && i == len(ops)-1 {
					// A trailing replace pairs section lines one-to-one
					// with original lines. Surplus original lines are
					// unmatched tail, not an intentional deletion; leave
					// them for the next section or the unchanged suffix.
					if span := op.J2 - op.J1; op.I1+span < op.I2 {
						ahi = op.I1 + span
					}
				}
				next = cursor + ahi
			}
		}
		cursor = next
	}

	if n := len(sections); n > 0 && strings.TrimSpace(sections[n-1]) == "" {
		// Patch ends with a marker: everything past the cursor is unchanged.
		out = append(out, origLines[cursor:]...)
	}

	result := strings.Join(out, "")
	// Fence stripping eats the final terminator; restore it unless the
	// original itself ends without one.
	if result != "" && !strings.HasSuffix(result, "\n") {
		if original == "" || strings.HasSuffix(original, "\n") {
			result += "\n"
		}
	}
	return result
}

// splitSections splits patch text on marker lines. The marker only counts
// when it is the entire line after trimming.
func splitSections(patch, marker string) []string {
	var sections []string
	var cur strings.Builder
	for _, line := range SplitKeepEnds(patch) {
		if strings.TrimSpace(line) == marker {
			sections = append(sections, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(line)
	}
	sections = append(sections, cur.String())
	return sections
}
