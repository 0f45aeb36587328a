// Package local provides an execution environment that runs code through a
// local interpreter subprocess.
//
// The local worker is explicitly opt-in and intended for trusted code only:
// isolation comes from a scratch working directory and the interpreter's
// isolated mode, not from a hardened sandbox. Executions are serialized
// within one process. The worker emits the same lifecycle events as the
// remote worker, so callers cannot distinguish modes except through the
// mode label.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/srtux/sre-agent-sub004/audit"
	"github.com/srtux/sre-agent-sub004/sandbox"
)

// DefaultInterpreter is the interpreter used when none is configured.
const DefaultInterpreter = "python3"

// Logger is the interface for logging.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// CommandRunner runs code in a working directory and returns the captured
// stdout and stderr.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Run must honor cancellation and deadlines.
type CommandRunner interface {
	Run(ctx context.Context, dir, code string) (stdout, stderr []byte, err error)
}

// Config configures a local worker.
type Config struct {
	// Interpreter is the interpreter binary to invoke.
	// Default: python3
	Interpreter string

	// Runner overrides subprocess execution, mainly for tests.
	// Default: runs the interpreter in isolated mode.
	Runner CommandRunner

	// Events receives started/failed lifecycle events.
	Events audit.Observer

	// Logger is an optional logger for worker events.
	Logger Logger
}

// Worker executes code via a local interpreter subprocess.
type Worker struct {
	runner CommandRunner
	events audit.Observer
	logger Logger

	// Serializes executions within the process.
	mu sync.Mutex
}

// New creates a local worker.
func New(cfg Config) *Worker {
	runner := cfg.Runner
	if runner == nil {
		interpreter := cfg.Interpreter
		if interpreter == "" {
			interpreter = DefaultInterpreter
		}
		runner = &interpreterRunner{path: interpreter}
	}
	return &Worker{
		runner: runner,
		events: cfg.Events,
		logger: cfg.Logger,
	}
}

// Mode returns the backend mode label.
func (w *Worker) Mode() sandbox.Mode {
	return sandbox.ModeLocal
}

// Execute writes the input files into a fresh scratch directory, runs the
// code there, and reads back any file named output* or *.json. The scratch
// directory is removed afterward; the process working directory is never
// touched. Ordinary failures are reported via Output.Error.
func (w *Worker) Execute(ctx context.Context, req sandbox.Request) (sandbox.Output, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.notify(audit.Event{Type: audit.EventStarted, Mode: string(sandbox.ModeLocal)})

	dir, err := os.MkdirTemp("", "orme-local-")
	if err != nil {
		return w.failed(fmt.Sprintf("create scratch directory: %v", err)), nil
	}
	defer os.RemoveAll(dir)

	inputs := make(map[string]bool, len(req.InputFiles))
	for _, f := range req.InputFiles {
		name := filepath.Base(f.Name)
		inputs[name] = true
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o600); err != nil {
			return w.failed(fmt.Sprintf("write input file %s: %v", name, err)), nil
		}
	}

	stdout, stderr, err := w.runner.Run(ctx, dir, req.Code)
	out := sandbox.Output{Stdout: string(stdout), Stderr: string(stderr)}
	if err != nil {
		out.Error = executionError(err, out.Stderr)
		w.notify(audit.Event{Type: audit.EventFailed, Mode: string(sandbox.ModeLocal), Error: out.Error})
		return out, nil
	}

	out.OutputFiles = readOutputs(dir, inputs)
	return out, nil
}

// Cleanup is a no-op: the scratch directory is removed per call. It exists
// for API symmetry with the remote worker.
func (w *Worker) Cleanup(context.Context) error {
	return nil
}

var _ sandbox.Environment = (*Worker)(nil)

func (w *Worker) failed(msg string) sandbox.Output {
	w.notify(audit.Event{Type: audit.EventFailed, Mode: string(sandbox.ModeLocal), Error: msg})
	return sandbox.Output{Error: msg}
}

func (w *Worker) notify(e audit.Event) {
	if w.events == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	defer func() { _ = recover() }()
	w.events(e)
}

// readOutputs collects result files, skipping the files that were written
// as inputs.
func readOutputs(dir string, inputs map[string]bool) []sandbox.File {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []sandbox.File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if inputs[name] || name == scriptFileName {
			continue
		}
		if !strings.HasPrefix(name, "output") && !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		files = append(files, sandbox.File{Name: name, Data: data})
	}
	return files
}

func executionError(err error, stderr string) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Sprintf("execution aborted: %v", err)
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Sprintf("execution failed: %v", err)
	}
	if len(msg) > 500 {
		msg = msg[len(msg)-500:]
	}
	return fmt.Sprintf("execution failed: %v: %s", err, msg)
}

const scriptFileName = "__main__.py"

// interpreterRunner executes code with the configured interpreter in
// isolated mode, using the scratch directory as the working directory.
type interpreterRunner struct {
	path string
}

// Run implements CommandRunner.
func (r *interpreterRunner) Run(ctx context.Context, dir, code string) ([]byte, []byte, error) {
	script := filepath.Join(dir, scriptFileName)
	if err := os.WriteFile(script, []byte(code), 0o600); err != nil {
		return nil, nil, fmt.Errorf("write script: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.path, "-I", scriptFileName)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
