package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguage(t *testing.T) {
	assert.Equal(t, "python", Language("```python\ncode\n```"))
	assert.Equal(t, "", Language("```\ncode\n```"))
	assert.Equal(t, "", Language("no fences here"))
}

func TestCodeBlock(t *testing.T) {
	assert.Equal(t, "code", CodeBlock("```python\ncode\n```"))
	assert.Equal(t, "", CodeBlock("plain prose without any fence"))
}

func TestCodeBlockMultiline(t *testing.T) {
	md := "intro\n\n```python\ndef f(x):\n    return x\n```\n\noutro"
	assert.Equal(t, "def f(x):\n    return x", CodeBlock(md))
	assert.Equal(t, "python", Language(md))
}

func TestSplitAlternatesProseAndCode(t *testing.T) {
	md := "Here is the analysis:\n\n```python\ndef eda_function(sales):\n    return str(len(sales))\n```\n\nCall it to count rows."
	segs := Split(md)
	require.Len(t, segs, 3)
	assert.Equal(t, SegmentProse, segs[0].Kind)
	assert.Equal(t, "Here is the analysis:", segs[0].Text)
	assert.Equal(t, SegmentCode, segs[1].Kind)
	assert.Equal(t, "python", segs[1].Lang)
	assert.Equal(t, "def eda_function(sales):\n    return str(len(sales))", segs[1].Text)
	assert.Equal(t, SegmentProse, segs[2].Kind)
}

func TestSplitNoFences(t *testing.T) {
	segs := Split("just a sentence")
	require.Len(t, segs, 1)
	assert.Equal(t, SegmentProse, segs[0].Kind)
}

func TestSplitDropsBlankProse(t *testing.T) {
	segs := Split("```python\nx = 1\n```")
	require.Len(t, segs, 1)
	assert.Equal(t, SegmentCode, segs[0].Kind)
}

func TestRoundTrip(t *testing.T) {
	original := "Prose before.\n\n```python\nreturn 1\n```\n\nProse after."
	rejoined := Reassemble(Split(original))
	assert.Equal(t, original, rejoined)
}

func TestReassembleUntaggedCode(t *testing.T) {
	segs := []Segment{{Kind: SegmentCode, Text: "x = 1"}}
	assert.Equal(t, "```\nx = 1\n```", Reassemble(segs))
}
