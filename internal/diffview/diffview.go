package diffview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/sokinpui/mend/internal/patcher"
)

// Styles holds the three exclusive line classes of a rendered diff.
type Styles struct {
	Add    lipgloss.Style
	Remove lipgloss.Style
	Hunk   lipgloss.Style
}

// DefaultStyles mirrors classic terminal diff coloring.
func DefaultStyles() Styles {
	return Styles{
		Add:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Remove: lipgloss.NewStyle().Foreground(lipgloss.Color("197")),
		Hunk:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

// Unified returns the plain unified-diff text between before and after,
// labelled a/<label> and b/<label>. Equal inputs yield the empty string.
func Unified(before, after, label string) string {
	diff := difflib.UnifiedDiff{
		A:        splitEOL(before),
		B:        splitEOL(after),
		FromFile: "a/" + label,
		ToFile:   "b/" + label,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// Render returns the same text as Unified with styling applied per line
// class. Stripping the escape sequences recovers Unified's output exactly.
func Render(before, after, label string, styles Styles) string {
	var b strings.Builder
	for _, line := range patcher.SplitKeepEnds(Unified(before, after, label)) {
		content := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(content, "@@"):
			b.WriteString(styles.Hunk.Render(content))
		case strings.HasPrefix(content, "+"):
			b.WriteString(styles.Add.Render(content))
		case strings.HasPrefix(content, "-"):
			b.WriteString(styles.Remove.Render(content))
		default:
			b.WriteString(content)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// splitEOL splits for diffing, terminating the final line so the diff
// machinery always sees well-formed lines.
func splitEOL(content string) []string {
	lines := patcher.SplitKeepEnds(content)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n"
	}
	return lines
}
