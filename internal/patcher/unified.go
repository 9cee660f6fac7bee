package patcher

import (
	"fmt"
	"strings"

	"github.com/sokinpui/mend/internal/extract"
)

// Unified reconstructs a file from a patch written in unified-diff
// notation. Models routinely emit hunk headers with wrong offsets, so the
// numbers are never trusted: each hunk's context and removed lines form a
// search block matched approximately against the original, and the hunk is
// replayed at the matched position.
type Unified struct{}

// NewUnified returns a Unified patcher.
func NewUnified() *Unified {
	return &Unified{}
}

// Apply replays patchText against original. On any parse or alignment
// failure it returns original unchanged along with the error, so a
// malformed patch can never destroy existing content.
func (u *Unified) Apply(original, patchText string) (string, error) {
	hunks := parseHunks(extract.Block(patchText))
	if len(hunks) == 0 {
		return original, fmt.Errorf("no hunks found in patch")
	}

	origLines := SplitKeepEnds(original)
	var out []string
	cursor := 0

	for n, hunk := range hunks {
		target := targetBlock(hunk)
		if len(target) == 0 {
			// Pure insertion hunk: nothing to anchor on, emit at cursor.
			for _, line := range hunk {
				if strings.HasPrefix(line, "+") {
					out = append(out, line[1:]+"\n")
				}
			}
			continue
		}

		start, end := matchBlock(origLines[cursor:], target)
		if start < 0 {
			return original, fmt.Errorf("hunk %d: no matching region in original", n+1)
		}
		start += cursor
		end += cursor

		out = append(out, origLines[cursor:start]...)
		replayed, err := replayHunk(origLines, start, end, hunk)
		if err != nil {
			return original, fmt.Errorf("hunk %d: %w", n+1, err)
		}
		out = append(out, replayed...)
		cursor = end + 1
	}

	out = append(out, origLines[cursor:]...)
	return strings.Join(out, ""), nil
}

// parseHunks groups a patch's body lines by hunk. Header lines carry no
// content and '@@' markers only delimit; their numbers are ignored.
func parseHunks(patchText string) [][]string {
	var hunks [][]string
	var cur []string
	for _, line := range strings.Split(patchText, "\n") {
		switch {
		case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "@@"):
			if len(cur) > 0 {
				hunks = append(hunks, cur)
			}
			cur = nil
		case strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, " "):
			cur = append(cur, line)
		}
	}
	if len(cur) > 0 {
		hunks = append(hunks, cur)
	}
	return hunks
}

// targetBlock builds the search pattern for a hunk from the lines that are
// guaranteed to exist in the original (context and removed lines). Blank
// lines are dropped to keep matching robust against whitespace-only drift.
func targetBlock(hunk []string) []string {
	var block []string
	for _, line := range hunk {
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, " ") {
			if content := line[1:]; strings.TrimSpace(content) != "" {
				block = append(block, content)
			}
		}
	}
	return block
}

// matchBlock locates block within lines. Blank original lines are filtered
// out and every line is whitespace-normalized before comparison, with a
// mapping kept back to real positions. Returns the first and last matched
// line indices, or (-1, -1).
func matchBlock(lines, block []string) (int, int) {
	normBlock := make([]string, len(block))
	for i, l := range block {
		normBlock[i] = normalizeLine(l)
	}

	var filtered []string
	var lineIdx []int
	for i, l := range lines {
		if n := normalizeLine(l); n != "" {
			filtered = append(filtered, n)
			lineIdx = append(lineIdx, i)
		}
	}

	for i := 0; i+len(normBlock) <= len(filtered); i++ {
		ok := true
		for j := range normBlock {
			if filtered[i+j] != normBlock[j] {
				ok = false
				break
			}
		}
		if ok {
			return lineIdx[i], lineIdx[i+len(normBlock)-1]
		}
	}
	return -1, -1
}

// replayHunk walks the matched original region [start, end] in lockstep
// with the hunk body: context lines re-emit the original's bytes, removed
// lines are skipped, added lines are inserted. Blank lines the patch did
// not reproduce are carried from the original unchanged.
func replayHunk(origLines []string, start, end int, hunk []string) ([]string, error) {
	var out []string
	r := start
	for _, line := range hunk {
		prefix, content := line[0], line[1:]
		blank := strings.TrimSpace(content) == ""

		switch prefix {
		case '+':
			out = append(out, content+"\n")
		case ' ', '-':
			if blank {
				if prefix == '-' && r <= end && strings.TrimSpace(origLines[r]) == "" {
					r++ // the patch removes this blank line
				}
				continue
			}
			// Carry original blank lines the patch skipped over.
			for r <= end && strings.TrimSpace(origLines[r]) == "" {
				out = append(out, origLines[r])
				r++
			}
			if r > end || normalizeLine(origLines[r]) != normalizeLine(content) {
				return nil, fmt.Errorf("context desynchronized at %q", strings.TrimSpace(content))
			}
			if prefix == ' ' {
				out = append(out, origLines[r])
			}
			r++
		}
	}
	for ; r <= end; r++ {
		out = append(out, origLines[r])
	}
	return out, nil
}
