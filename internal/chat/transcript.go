// Package chat holds the conversation transcript, the turn controller, and
// session persistence.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edalab/edachat/internal/markdown"
	"github.com/edalab/edachat/internal/runtime"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Element is one rendered piece of a turn. Memory returns the element's flat
// text representation for inclusion in model context.
type Element interface {
	Memory() string
}

// Prose is a plain text span of a turn.
type Prose struct {
	Text string `json:"text"`
}

func (p *Prose) Memory() string { return p.Text }

// CodeBlock is a runnable code span with its latest outputs. Outputs are
// replaced wholesale on each run; user notes survive re-runs by position.
type CodeBlock struct {
	Lang    string           `json:"lang"`
	Code    string           `json:"code"`
	Outputs []runtime.Output `json:"outputs,omitempty"`
	// RunErr holds the last execution failure, "" when the last run
	// succeeded or the block has not been run.
	RunErr string `json:"run_err,omitempty"`
}

// Memory re-serializes the block to fenced markdown followed by its outputs,
// so past runs stay visible to the model.
func (c *CodeBlock) Memory() string {
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(c.Lang)
	b.WriteString("\n")
	b.WriteString(c.Code)
	b.WriteString("\n```")
	for _, out := range c.Outputs {
		b.WriteString("\n")
		b.WriteString(outputMemory(out))
	}
	if c.RunErr != "" {
		b.WriteString("\n[error] ")
		b.WriteString(c.RunErr)
	}
	return b.String()
}

func outputMemory(out runtime.Output) string {
	var s string
	switch out.Kind {
	case runtime.KindText:
		s = out.Text
	case runtime.KindValue:
		if b, err := json.Marshal(out.Value); err == nil {
			s = string(b)
		} else {
			s = fmt.Sprintf("%v", out.Value)
		}
	case runtime.KindFigure:
		s = "[figure: " + out.FigureType + "]"
		if out.FigurePath != "" {
			s += " saved to " + out.FigurePath
		}
	}
	if out.Note != "" {
		s += " (note: " + out.Note + ")"
	}
	return s
}

// Run executes the block against the interpreter. Previous outputs are
// cleared first; user notes are cached by position and reattached to the new
// outputs. On failure the partial namespace mutation is kept by the
// interpreter and the error is recorded on the block.
func (c *CodeBlock) Run(ctx context.Context, interp runtime.Interpreter) error {
	notes := make([]string, len(c.Outputs))
	for i, out := range c.Outputs {
		notes[i] = out.Note
	}
	c.Outputs = nil
	c.RunErr = ""
	outs, err := interp.Run(ctx, c.Code)
	if err != nil {
		c.RunErr = err.Error()
		return err
	}
	for i := range outs {
		if i < len(notes) {
			outs[i].Note = notes[i]
		}
	}
	c.Outputs = outs
	return nil
}

// SetNote attaches a free-text annotation to the i-th output.
func (c *CodeBlock) SetNote(i int, note string) error {
	if i < 0 || i >= len(c.Outputs) {
		return fmt.Errorf("no output at position %d", i)
	}
	c.Outputs[i].Note = note
	return nil
}

// Turn is one conversation message, parsed into prose and code elements.
type Turn struct {
	ID       string    `json:"id"`
	Role     string    `json:"role"`
	Raw      string    `json:"raw"`
	Elements []Element `json:"-"`
}

// NewTurn parses raw markdown into elements.
func NewTurn(id, role, raw string) *Turn {
	t := &Turn{ID: id, Role: role, Raw: raw}
	for _, seg := range markdown.Split(raw) {
		if seg.Kind == markdown.SegmentCode {
			t.Elements = append(t.Elements, &CodeBlock{Lang: seg.Lang, Code: seg.Text})
		} else {
			t.Elements = append(t.Elements, &Prose{Text: seg.Text})
		}
	}
	return t
}

// Memory re-serializes the turn's elements to flat text.
func (t *Turn) Memory() string {
	parts := make([]string, 0, len(t.Elements))
	for _, el := range t.Elements {
		parts = append(parts, el.Memory())
	}
	return strings.Join(parts, "\n\n")
}

// CodeBlocks returns the turn's code elements in order.
func (t *Turn) CodeBlocks() []*CodeBlock {
	var out []*CodeBlock
	for _, el := range t.Elements {
		if cb, ok := el.(*CodeBlock); ok {
			out = append(out, cb)
		}
	}
	return out
}

type elementEnvelope struct {
	Kind  string     `json:"kind"`
	Prose *Prose     `json:"prose,omitempty"`
	Code  *CodeBlock `json:"code,omitempty"`
}

// turnJSON mirrors Turn with a concrete element encoding.
type turnJSON struct {
	ID       string            `json:"id"`
	Role     string            `json:"role"`
	Raw      string            `json:"raw"`
	Elements []elementEnvelope `json:"elements"`
}

func (t *Turn) MarshalJSON() ([]byte, error) {
	tj := turnJSON{ID: t.ID, Role: t.Role, Raw: t.Raw}
	for _, el := range t.Elements {
		switch v := el.(type) {
		case *Prose:
			tj.Elements = append(tj.Elements, elementEnvelope{Kind: "prose", Prose: v})
		case *CodeBlock:
			tj.Elements = append(tj.Elements, elementEnvelope{Kind: "code", Code: v})
		default:
			return nil, fmt.Errorf("unknown element type %T", el)
		}
	}
	return json.Marshal(tj)
}

func (t *Turn) UnmarshalJSON(b []byte) error {
	var tj turnJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}
	t.ID, t.Role, t.Raw = tj.ID, tj.Role, tj.Raw
	t.Elements = nil
	for _, env := range tj.Elements {
		switch env.Kind {
		case "prose":
			if env.Prose != nil {
				t.Elements = append(t.Elements, env.Prose)
			}
		case "code":
			if env.Code != nil {
				t.Elements = append(t.Elements, env.Code)
			}
		default:
			return fmt.Errorf("unknown element kind %q", env.Kind)
		}
	}
	return nil
}

// Transcript is the ordered list of turns in a session. It grows for the
// session's lifetime; history budgeting happens at prompt build time, not
// here.
type Transcript struct {
	Turns []*Turn `json:"turns"`
}

func (tr *Transcript) Append(t *Turn) { tr.Turns = append(tr.Turns, t) }

// Last returns the most recent turn, or nil.
func (tr *Transcript) Last() *Turn {
	if len(tr.Turns) == 0 {
		return nil
	}
	return tr.Turns[len(tr.Turns)-1]
}

// Memory re-serializes every turn as "role: text" lines for model context.
func (tr *Transcript) Memory() string {
	return memoryOf(tr.Turns)
}

// MemoryLastN re-serializes only the most recent n turns.
func (tr *Transcript) MemoryLastN(n int) string {
	if n <= 0 || n >= len(tr.Turns) {
		return tr.Memory()
	}
	return memoryOf(tr.Turns[len(tr.Turns)-n:])
}

func memoryOf(turns []*Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		parts = append(parts, t.Role+": "+t.Memory())
	}
	return strings.Join(parts, "\n")
}
