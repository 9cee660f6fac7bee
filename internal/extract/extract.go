package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sokinpui/mend/internal/model"
)

// codeBlock is one fenced code block together with its surrounding cues.
type codeBlock struct {
	// hint is the paragraph immediately preceding the block, used to carry
	// the target file path in backticks.
	hint    string
	lang    string
	content string
}

var (
	// pathInHintRegex pulls a backtick-quoted path out of a hint line.
	pathInHintRegex = regexp.MustCompile("`([^`\n]+)`")
	// diffPathRegex extracts the target path from a '+++ b/...' line.
	diffPathRegex = regexp.MustCompile(`(?m)^\+\+\+ b/(?P<path>.*?)(\s|$)`)
)

// Block returns the interior of the first fenced code block in text, or
// the trimmed whole input when no fence is present. It never fails, so
// processing continues even on malformed model output.
func Block(text string) string {
	blocks := parse([]byte(text))
	if len(blocks) == 0 {
		return strings.TrimSpace(text)
	}
	return blocks[0].content
}

// Files discovers proposed file edits in a model response. Blocks tagged
// with the diff language are unified patches keyed by their '+++ b/' path;
// any other fenced block preceded by a backtick-quoted path hint is a
// patch in the configured dialect.
func Files(response string, kind model.PatchKind) []model.FileEdit {
	var edits []model.FileEdit
	for _, b := range parse([]byte(response)) {
		if b.lang == "diff" {
			raw := strings.TrimSpace(b.content)
			path := PathFromDiff(raw)
			if path == "" {
				continue
			}
			edits = append(edits, model.FileEdit{Path: path, Kind: model.KindUnified, Patch: raw})
			continue
		}

		path := pathFromHint(b.hint)
		if path == "" {
			continue
		}
		edits = append(edits, model.FileEdit{Path: path, Kind: kind, Patch: b.content})
	}
	return edits
}

// PathFromDiff finds the target file path in raw unified-diff text.
func PathFromDiff(content string) string {
	match := diffPathRegex.FindStringSubmatch(content)
	if len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// parse walks the markdown AST and collects every fenced code block with
// its language tag and preceding-paragraph hint.
func parse(source []byte) []codeBlock {
	var blocks []codeBlock
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block codeBlock
		if fenced.Info != nil {
			block.lang = string(fenced.Info.Text(source))
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		block.content = content.String()

		if prev := fenced.PreviousSibling(); prev != nil {
			if p, ok := prev.(*ast.Paragraph); ok {
				// Raw source lines, not the rendered text: the backticks
				// around the path must survive for the hint regex.
				var hint bytes.Buffer
				pl := p.Lines()
				for i := 0; i < pl.Len(); i++ {
					seg := pl.At(i)
					hint.Write(seg.Value(source))
				}
				block.hint = strings.TrimSpace(hint.String())
			}
		}

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil
	}
	return blocks
}

func pathFromHint(hint string) string {
	if match := pathInHintRegex.FindStringSubmatch(hint); len(match) > 1 {
		path := strings.TrimSpace(match[1])
		// Disallow spaces so commands like `go run main.go` are not taken
		// for paths.
		if !strings.Contains(path, " ") {
			return path
		}
	}
	return ""
}
