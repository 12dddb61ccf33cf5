package runtime

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/edalab/edachat/internal/logger"
)

//go:embed driver.py
var driverScript []byte

// PythonInterpreter runs generated code inside a long-lived python process.
// The process-side namespace is seeded once from Options and shared across
// every Run; a run that mutates the namespace before failing leaves the
// mutation in place.
type PythonInterpreter struct {
	opts Options

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	stderr  *bytes.Buffer
	started bool
}

// NewPython builds a python interpreter from the given options. Call Start
// before Run.
func NewPython(opts Options) *PythonInterpreter {
	if opts.Bin == "" {
		opts.Bin = "python3"
	}
	if opts.FunctionName == "" {
		opts.FunctionName = "eda_function"
	}
	return &PythonInterpreter{opts: opts}
}

type request struct {
	Op        string            `json:"op"`
	Code      string            `json:"code,omitempty"`
	Imports   string            `json:"imports,omitempty"`
	Variables map[string]any    `json:"variables,omitempty"`
	Tables    map[string]string `json:"tables,omitempty"`
	Function  string            `json:"function,omitempty"`
	WorkDir   string            `json:"workdir,omitempty"`
}

type response struct {
	OK      bool     `json:"ok"`
	Outputs []Output `json:"outputs"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Start launches the python process and seeds its namespace.
func (p *PythonInterpreter) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(ctx)
}

func (p *PythonInterpreter) startLocked(ctx context.Context) error {
	if p.started {
		return nil
	}
	workDir := p.opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	driverPath := filepath.Join(workDir, "edachat_driver.py")
	if err := os.WriteFile(driverPath, driverScript, 0o644); err != nil {
		return fmt.Errorf("write driver: %w", err)
	}

	cmd := exec.Command(p.opts.Bin, driverPath)
	cmd.Dir = workDir
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.opts.Bin, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)

	p.cmd = cmd
	p.stdin = stdin
	p.scanner = scanner
	p.stderr = stderr
	p.started = true

	init := request{
		Op:        "init",
		Imports:   strings.Join(p.opts.Imports, "\n"),
		Variables: p.opts.Variables,
		Tables:    p.opts.Tables,
		Function:  p.opts.FunctionName,
		WorkDir:   workDir,
	}
	resp, err := p.roundTrip(ctx, init)
	if err != nil {
		p.stopLocked()
		return err
	}
	if !resp.OK {
		typ, msg := "", "interpreter init failed"
		if resp.Error != nil {
			typ, msg = resp.Error.Type, resp.Error.Message
		}
		p.stopLocked()
		return &ExecError{Phase: "exec", Type: typ, Message: msg}
	}
	logger.Debug("python interpreter started", "bin", p.opts.Bin, "function", p.opts.FunctionName)
	return nil
}

// Run validates, executes and normalizes one code block. Definitions made
// by earlier runs remain visible.
func (p *PythonInterpreter) Run(ctx context.Context, code string) ([]Output, error) {
	if p.opts.Validator != nil {
		if err := p.opts.Validator.Validate(code); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		if err := p.startLocked(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := p.roundTrip(ctx, request{Op: "run", Code: code})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		typ, msg := "", "unknown interpreter failure"
		if resp.Error != nil {
			typ, msg = resp.Error.Type, resp.Error.Message
		}
		phase := "exec"
		if typ == "LookupError" {
			phase = "lookup"
		}
		return nil, &ExecError{Phase: phase, Type: typ, Message: msg}
	}
	return resp.Outputs, nil
}

// roundTrip writes one request line and reads one response line, honoring
// the configured timeout and context. On timeout the process is killed and
// marked stopped; the seeded namespace is lost until the next Start.
func (p *PythonInterpreter) roundTrip(ctx context.Context, req request) (*response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := p.stdin.Write(append(payload, '\n')); err != nil {
		p.stopLocked()
		return nil, &ExecError{Phase: "protocol", Message: fmt.Sprintf("write to interpreter: %v", err)}
	}

	type scanResult struct {
		line string
		err  error
	}
	ch := make(chan scanResult, 1)
	go func() {
		if p.scanner.Scan() {
			ch <- scanResult{line: p.scanner.Text()}
			return
		}
		err := p.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		ch <- scanResult{err: err}
	}()

	var timeout <-chan struct{}
	if p.opts.Timeout > 0 {
		tctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
		timeout = tctx.Done()
	} else {
		timeout = ctx.Done()
	}

	select {
	case res := <-ch:
		if res.err != nil {
			detail := strings.TrimSpace(p.stderr.String())
			p.stopLocked()
			if detail != "" {
				return nil, &ExecError{Phase: "protocol", Message: fmt.Sprintf("interpreter exited: %s", detail)}
			}
			return nil, &ExecError{Phase: "protocol", Message: fmt.Sprintf("read from interpreter: %v", res.err)}
		}
		var resp response
		if err := json.Unmarshal([]byte(res.line), &resp); err != nil {
			p.stopLocked()
			return nil, &ExecError{Phase: "protocol", Message: fmt.Sprintf("malformed interpreter reply: %v", err)}
		}
		return &resp, nil
	case <-timeout:
		p.stopLocked()
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		return nil, &ExecError{Phase: "timeout", Message: fmt.Sprintf("run exceeded %s; interpreter restarted, namespace reset", p.opts.Timeout)}
	}
}

// Close shuts the interpreter process down.
func (p *PythonInterpreter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	_, _ = p.stdin.Write([]byte(`{"op":"exit"}` + "\n"))
	p.stopLocked()
	return nil
}

func (p *PythonInterpreter) stopLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.stdin.Close()
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	}
	p.started = false
	p.cmd = nil
}
