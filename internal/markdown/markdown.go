// Package markdown extracts fenced code blocks from model replies and
// re-serializes mixed prose/code transcripts back to markdown.
//
// Nested fences are not supported: a fence opened inside a code block is
// treated as the closing delimiter.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SegmentKind discriminates prose from fenced code.
type SegmentKind int

const (
	SegmentProse SegmentKind = iota
	SegmentCode
)

// Segment is one prose or code span of a reply.
type Segment struct {
	Kind SegmentKind
	Text string // prose text or code body, trimmed
	Lang string // language tag, code segments only
}

const fence = "```"

// Split divides text into alternating prose and code segments on the
// triple-backtick delimiter. Odd-indexed raw spans are code, even prose.
// Blank prose spans are dropped.
func Split(s string) []Segment {
	parts := strings.Split(s, fence)
	segs := make([]Segment, 0, len(parts))
	for i, part := range parts {
		if i%2 == 0 {
			if strings.TrimSpace(part) == "" {
				continue
			}
			segs = append(segs, Segment{Kind: SegmentProse, Text: strings.TrimSpace(part)})
			continue
		}
		block := fence + part + fence
		segs = append(segs, Segment{
			Kind: SegmentCode,
			Text: CodeBlock(block),
			Lang: Language(block),
		})
	}
	return segs
}

// Language returns the language tag of the first fenced code block, or ""
// when the markdown has no fenced block or the fence carries no tag.
func Language(md string) string {
	lang, _ := firstFence(md)
	return lang
}

// CodeBlock returns the trimmed body of the first fenced code block, or ""
// when the markdown has no fenced block.
func CodeBlock(md string) string {
	_, code := firstFence(md)
	return code
}

// Extract returns both the code body and language tag of the first fenced
// block in one parse.
func Extract(md string) (code, lang string) {
	lang, code = firstFence(md)
	return code, lang
}

// Reassemble joins segments back into flat markdown, re-inserting fence
// markers around code. Balanced input round-trips modulo whitespace
// trimming.
func Reassemble(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg.Kind {
		case SegmentCode:
			parts = append(parts, fence+seg.Lang+"\n"+seg.Text+"\n"+fence)
		default:
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

var md = goldmark.New()

// firstFence walks the goldmark AST and returns the language tag and
// trimmed body of the first fenced code block.
func firstFence(input string) (lang, code string) {
	source := []byte(input)
	doc := md.Parser().Parse(text.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if l := fc.Language(source); l != nil {
			lang = string(l)
		}
		var b strings.Builder
		lines := fc.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		code = strings.TrimSpace(b.String())
		return ast.WalkStop, nil
	})
	return lang, code
}
