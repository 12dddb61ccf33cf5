// Package render draws transcript turns and run outputs to the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/edalab/edachat/internal/chat"
	"github.com/edalab/edachat/internal/runtime"
)

var (
	codeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	codeHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)
	valueStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("36")).
			Padding(0, 1)
	figureStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("135")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("160")).
			Foreground(lipgloss.Color("160")).
			Padding(0, 1)
	noteStyle     = lipgloss.NewStyle().Faint(true).Italic(true)
	disabledStyle = lipgloss.NewStyle().Faint(true)
)

// Renderer writes formatted transcript pieces to an output stream. With
// color disabled (non-TTY), everything degrades to plain text.
type Renderer struct {
	out      io.Writer
	color    bool
	markdown *glamour.TermRenderer
}

// New builds a Renderer for the given writer. Markdown styling and borders
// are enabled only when color is true.
func New(out io.Writer, color bool) *Renderer {
	r := &Renderer{out: out, color: color}
	if color {
		tr, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			r.markdown = tr
		}
	}
	return r
}

// NewStdout builds a Renderer for os.Stdout, enabling styling when stdout
// looks like a terminal.
func NewStdout() *Renderer {
	fi, err := os.Stdout.Stat()
	color := err == nil && (fi.Mode()&os.ModeCharDevice) != 0
	return New(os.Stdout, color)
}

// Prose renders assistant or user text, through glamour when available.
func (r *Renderer) Prose(text string) {
	if r.markdown != nil {
		if out, err := r.markdown.Render(text); err == nil {
			fmt.Fprint(r.out, out)
			return
		}
	}
	fmt.Fprintln(r.out, text)
}

// Code renders a code block with its language header.
func (r *Renderer) Code(lang, code string) {
	if lang == "" {
		lang = "code"
	}
	if !r.color {
		fmt.Fprintf(r.out, "--- %s ---\n%s\n---\n", lang, code)
		return
	}
	fmt.Fprintln(r.out, codeHeaderStyle.Render(lang))
	fmt.Fprintln(r.out, codeStyle.Render(code))
}

// Output renders one run artifact according to its variant.
func (r *Renderer) Output(out runtime.Output) {
	switch out.Kind {
	case runtime.KindText:
		fmt.Fprintln(r.out, out.Text)
	case runtime.KindValue:
		r.value(out)
	case runtime.KindFigure:
		r.figure(out)
	}
	if out.Note != "" {
		fmt.Fprintln(r.out, r.style(noteStyle, "note: "+out.Note))
	}
}

func (r *Renderer) value(out runtime.Output) {
	b, err := json.MarshalIndent(out.Value, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, "%v\n", out.Value)
		return
	}
	fmt.Fprintln(r.out, r.style(valueStyle, string(b)))
}

func (r *Renderer) figure(out runtime.Output) {
	label := "figure: " + out.FigureType
	if out.FigurePath != "" {
		label += "\nsaved to " + out.FigurePath
	} else {
		label += "\n(not exportable in a terminal)"
	}
	fmt.Fprintln(r.out, r.style(figureStyle, label))
}

// ErrorBanner renders an inline execution or validation failure. The
// conversation continues; nothing here is fatal.
func (r *Renderer) ErrorBanner(msg string) {
	fmt.Fprintln(r.out, r.style(errorStyle, msg))
}

// RunDisabled renders the label shown in place of outputs when no
// interpreter is attached to the session.
func (r *Renderer) RunDisabled() {
	fmt.Fprintln(r.out, r.style(disabledStyle, "run disabled: no interpreter attached"))
}

// Turn renders a full transcript turn: prose, code blocks, and their
// latest outputs or error banners.
func (r *Renderer) Turn(t *chat.Turn) {
	for _, el := range t.Elements {
		switch v := el.(type) {
		case *chat.Prose:
			r.Prose(v.Text)
		case *chat.CodeBlock:
			r.Code(v.Lang, v.Code)
			for _, out := range v.Outputs {
				r.Output(out)
			}
			if v.RunErr != "" {
				r.ErrorBanner(v.RunErr)
			}
		}
	}
}

// Delta writes a streaming token fragment as-is.
func (r *Renderer) Delta(d string) {
	fmt.Fprint(r.out, d)
}

// Rule writes a horizontal separator.
func (r *Renderer) Rule() {
	fmt.Fprintln(r.out, strings.Repeat("-", 60))
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}
