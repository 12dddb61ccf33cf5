// Package runtime executes model-generated code against a persistent
// interpreter process owned by the chat session.
package runtime

import (
	"context"
	"fmt"
	"time"
)

// Interpreter is the pluggable execution backend. Implementations hold a
// persistent namespace: definitions made by one Run are visible to the next.
type Interpreter interface {
	// Start launches the backend and seeds its namespace with the
	// configured imports, variables and tables.
	Start(ctx context.Context) error
	// Run validates (if a validator is attached), executes code in the
	// shared namespace, invokes the configured function with the seeded
	// values, and returns its normalized outputs.
	Run(ctx context.Context, code string) ([]Output, error)
	// Close shuts the backend down.
	Close() error
}

// CodeValidator is the pre-execution lint hook.
type CodeValidator interface {
	Validate(code string) error
}

// Options carries the common knobs interpreters are built from.
type Options struct {
	Bin          string            // interpreter executable, e.g. "python3"
	FunctionName string            // function the generated code must define
	Imports      []string          // import statements seeded once
	Variables    map[string]any    // named values passed to the function
	Tables       map[string]string // table name -> data file path
	WorkDir      string            // scratch dir for the driver and figures
	Timeout      time.Duration     // per-run wall clock limit, 0 = none
	Validator    CodeValidator
}

// Factory builds an Interpreter from Options.
type Factory func(Options) Interpreter

var registry = map[string]Factory{}

// Register adds an interpreter backend under a name.
func Register(name string, f Factory) { registry[name] = f }

// New creates the named interpreter backend if registered.
func New(name string, opts Options) (Interpreter, bool) {
	if f, ok := registry[name]; ok {
		return f(opts), true
	}
	return nil, false
}

// ExecError reports a failed run: compilation, invocation, a missing
// function, or a broken interpreter process.
type ExecError struct {
	Phase   string // "exec", "lookup", "protocol", "timeout"
	Type    string // interpreter-side exception type, when known
	Message string
}

func (e *ExecError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("execution failed: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("execution failed (%s): %s", e.Phase, e.Message)
}

func init() {
	Register("python", func(o Options) Interpreter { return NewPython(o) })
}
