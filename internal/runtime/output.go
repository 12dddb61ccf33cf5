package runtime

// OutputKind tags the variant of a run output.
type OutputKind string

const (
	// KindText is plain text, including captured interpreter stdout.
	KindText OutputKind = "text"
	// KindValue is a structured JSON-like value (number, mapping, sequence).
	KindValue OutputKind = "value"
	// KindFigure is an opaque renderable object, identified by its type
	// name and, when the driver could export it, a file path.
	KindFigure OutputKind = "figure"
)

// Output is one artifact returned by an executed code block. Exactly the
// fields for its Kind are set; renderers dispatch on Kind rather than on
// the dynamic type of Value.
type Output struct {
	Kind       OutputKind `json:"kind"`
	Text       string     `json:"text,omitempty"`
	Value      any        `json:"value,omitempty"`
	FigureType string     `json:"figure_type,omitempty"`
	FigurePath string     `json:"figure_path,omitempty"`
	// Note is a user-supplied annotation attached after the run; it rides
	// along into conversational memory.
	Note string `json:"note,omitempty"`
}
