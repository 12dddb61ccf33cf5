package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edalab/edachat/internal/chat"
	"github.com/edalab/edachat/internal/runtime"
)

func plainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, false), &buf
}

func TestOutputTextPlain(t *testing.T) {
	r, buf := plainRenderer()
	r.Output(runtime.Output{Kind: runtime.KindText, Text: "12 rows"})
	assert.Equal(t, "12 rows\n", buf.String())
}

func TestOutputValuePrettyJSON(t *testing.T) {
	r, buf := plainRenderer()
	r.Output(runtime.Output{Kind: runtime.KindValue, Value: map[string]any{"mean": 3.5}})
	assert.Contains(t, buf.String(), `"mean": 3.5`)
}

func TestOutputFigurePlaceholder(t *testing.T) {
	r, buf := plainRenderer()
	r.Output(runtime.Output{Kind: runtime.KindFigure, FigureType: "Figure", FigurePath: "/tmp/f.png"})
	assert.Contains(t, buf.String(), "figure: Figure")
	assert.Contains(t, buf.String(), "saved to /tmp/f.png")
}

func TestOutputFigureWithoutExport(t *testing.T) {
	r, buf := plainRenderer()
	r.Output(runtime.Output{Kind: runtime.KindFigure, FigureType: "Axes"})
	assert.Contains(t, buf.String(), "not exportable")
}

func TestOutputNoteAppended(t *testing.T) {
	r, buf := plainRenderer()
	r.Output(runtime.Output{Kind: runtime.KindText, Text: "hi", Note: "baseline"})
	assert.Contains(t, buf.String(), "note: baseline")
}

func TestRunDisabledLabel(t *testing.T) {
	r, buf := plainRenderer()
	r.RunDisabled()
	assert.Contains(t, buf.String(), "no interpreter attached")
}

func TestTurnRendersElementsInOrder(t *testing.T) {
	turn := chat.NewTurn("1", chat.RoleAssistant, "Here you go.\n\n```python\ndef eda_function():\n    return 1\n```")
	turn.CodeBlocks()[0].Outputs = []runtime.Output{{Kind: runtime.KindText, Text: "RESULT_42"}}

	r, buf := plainRenderer()
	r.Turn(turn)
	s := buf.String()

	proseIdx := strings.Index(s, "Here you go.")
	codeIdx := strings.Index(s, "def eda_function")
	outIdx := strings.Index(s, "RESULT_42")
	assert.True(t, proseIdx >= 0 && codeIdx > proseIdx && outIdx > codeIdx, "order wrong: %s", s)
}

func TestTurnRendersErrorBanner(t *testing.T) {
	turn := chat.NewTurn("1", chat.RoleAssistant, "```python\n1/0\n```")
	turn.CodeBlocks()[0].RunErr = "execution failed: ZeroDivisionError: division by zero"

	r, buf := plainRenderer()
	r.Turn(turn)
	assert.Contains(t, buf.String(), "ZeroDivisionError")
}
