// Package validator lints model-generated Python before execution.
//
// The checks are advisory pattern scans, not a trust boundary: substring
// rules match anywhere in the text, including identifiers and comments,
// exactly as the rules are written. Callers wanting real isolation need a
// sandboxed interpreter, not this package.
package validator

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule names identify which check rejected a piece of code.
const (
	RuleImports   = "imports"
	RuleLinks     = "links"
	RuleSaveFuncs = "save_funcs"
	RuleExecEval  = "exec_eval"
)

// RuleError reports which rule rejected the code and why.
type RuleError struct {
	Rule   string
	Detail string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("code rejected by %s check: %s", e.Rule, e.Detail)
}

// Config toggles each check independently.
type Config struct {
	Imports   bool
	Links     bool
	SaveFuncs bool
	ExecEval  bool
}

// DefaultConfig enables every check.
func DefaultConfig() Config {
	return Config{Imports: true, Links: true, SaveFuncs: true, ExecEval: true}
}

// Validator runs a fixed battery of checks over generated code.
type Validator struct {
	cfg       Config
	saveFuncs []string
}

var (
	// Imports can start a line or follow a compound/sequenced statement
	// head, e.g. "if True: import os" or "x = 1; import os".
	importRe = regexp.MustCompile(`(?m)(^|[;:])\s*(import\s+\w|from\s+[\w.]+\s+import\b)`)
	linkRe   = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// New returns a Validator with the given check configuration.
func New(cfg Config) *Validator {
	return &Validator{
		cfg: cfg,
		// Names that suggest the code writes data somewhere.
		saveFuncs: []string{"open", "write", "save", "dump"},
	}
}

// Validate runs the enabled checks in a fixed order and returns the first
// failing rule's error, or nil when every enabled check passes.
func (v *Validator) Validate(code string) error {
	if v.cfg.Imports {
		if loc := importRe.FindString(code); loc != "" {
			return &RuleError{Rule: RuleImports, Detail: "import statements are not allowed"}
		}
	}
	if v.cfg.Links {
		if loc := linkRe.FindString(code); loc != "" {
			return &RuleError{Rule: RuleLinks, Detail: fmt.Sprintf("links are not allowed (found %q)", loc)}
		}
	}
	if v.cfg.SaveFuncs {
		for _, fn := range v.saveFuncs {
			if strings.Contains(code, fn) {
				return &RuleError{Rule: RuleSaveFuncs, Detail: fmt.Sprintf("functions that may save data are not allowed (found %q)", fn)}
			}
		}
	}
	if v.cfg.ExecEval {
		for _, kw := range []string{"exec", "eval"} {
			if strings.Contains(code, kw) {
				return &RuleError{Rule: RuleExecEval, Detail: fmt.Sprintf("use of %s is not allowed", kw)}
			}
		}
	}
	return nil
}
