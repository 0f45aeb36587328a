// Package remote provides an execution environment backed by a networked
// sandbox service with ephemeral, TTL-bounded execution contexts.
//
// A Worker resolves its execution context lazily: a caller-supplied context
// id is reused and never deleted; otherwise the worker provisions a fresh
// context on first use and deletes it exactly once during Cleanup. All
// provisioning and execution failures are converted to Output.Error so they
// never crash the invoking pipeline; only missing configuration surfaces as
// a Go error, at construction time.
package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/srtux/sre-agent-sub004/audit"
	"github.com/srtux/sre-agent-sub004/sandbox"
)

// Errors for remote worker construction.
var (
	// ErrClientNotConfigured is returned when neither a client nor an
	// endpoint is configured.
	ErrClientNotConfigured = errors.New("remote sandbox client not configured")
)

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

// SandboxClient talks to the sandbox service.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: all methods must honor cancellation and deadlines.
type SandboxClient interface {
	CreateSandbox(ctx context.Context, spec SandboxSpec) (SandboxInfo, error)
	Execute(ctx context.Context, sandboxID string, req ExecutePayload) (ResultPayload, error)
	DeleteSandbox(ctx context.Context, sandboxID string) error
}

// SandboxSpec describes the execution context to provision.
type SandboxSpec struct {
	// TTL bounds how long the context stays valid.
	TTL time.Duration

	// MachineShape selects the compute size.
	MachineShape string
}

// SandboxInfo identifies a live execution context.
type SandboxInfo struct {
	ID        string
	ExpiresAt time.Time
}

// Config configures a remote worker.
type Config struct {
	// Client talks to the sandbox service.
	// Required unless Endpoint is set, in which case a default HTTP client
	// is constructed.
	Client SandboxClient

	// Endpoint is the base URL of the sandbox service.
	Endpoint string

	// Token is an optional bearer token for the service.
	Token string

	// SandboxID reuses an existing execution context. A caller-supplied
	// context is never deleted by the worker.
	SandboxID string

	// TTL for contexts the worker provisions itself.
	// Default: 1h
	TTL time.Duration

	// MachineShape for provisioned contexts.
	// Default: small
	MachineShape string

	// ExecTimeout bounds a single execution call, independent of the TTL.
	// Default: 60s
	ExecTimeout time.Duration

	// Events receives started/failed lifecycle events.
	Events audit.Observer

	// Logger is an optional logger for worker events.
	Logger Logger
}

// Worker executes code on the remote sandbox service.
type Worker struct {
	client       SandboxClient
	ttl          time.Duration
	machineShape string
	execTimeout  time.Duration
	events       audit.Observer
	logger       Logger

	mu        sync.Mutex
	sandboxID string
	owned     bool
	released  bool
}

// New creates a remote worker. It returns ErrClientNotConfigured when the
// service cannot be reached by construction (no client and no endpoint).
func New(cfg Config) (*Worker, error) {
	client := cfg.Client
	if client == nil {
		if cfg.Endpoint == "" {
			return nil, ErrClientNotConfigured
		}
		client = NewHTTPClient(HTTPClientConfig{Endpoint: cfg.Endpoint, Token: cfg.Token})
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	machineShape := cfg.MachineShape
	if machineShape == "" {
		machineShape = "small"
	}
	execTimeout := cfg.ExecTimeout
	if execTimeout == 0 {
		execTimeout = 60 * time.Second
	}

	return &Worker{
		client:       client,
		ttl:          ttl,
		machineShape: machineShape,
		execTimeout:  execTimeout,
		events:       cfg.Events,
		logger:       cfg.Logger,
		sandboxID:    cfg.SandboxID,
	}, nil
}

// Mode returns the backend mode label.
func (w *Worker) Mode() sandbox.Mode {
	return sandbox.ModeRemote
}

// Execute submits code and input files to the sandbox service. Ordinary
// failures, including provisioning failures, are reported via Output.Error.
func (w *Worker) Execute(ctx context.Context, req sandbox.Request) (sandbox.Output, error) {
	w.notify(audit.Event{Type: audit.EventStarted, Mode: string(sandbox.ModeRemote)})

	id, err := w.ensureSandbox(ctx)
	if err != nil {
		w.notify(audit.Event{Type: audit.EventFailed, Mode: string(sandbox.ModeRemote), Error: err.Error()})
		return sandbox.Output{Error: fmt.Sprintf("sandbox provisioning failed: %v", err)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.execTimeout)
	defer cancel()

	result, err := w.client.Execute(ctx, id, buildPayload(req, w.execTimeout))
	if err != nil {
		w.notify(audit.Event{Type: audit.EventFailed, Mode: string(sandbox.ModeRemote), Error: err.Error()})
		if w.logger != nil {
			w.logger.Warn("remote execution failed", "sandbox_id", id, "error", err)
		}
		return sandbox.Output{Error: fmt.Sprintf("remote execution failed: %v", err)}, nil
	}

	out := mapResult(result)
	if out.Failed() {
		w.notify(audit.Event{Type: audit.EventFailed, Mode: string(sandbox.ModeRemote), Error: out.Error})
	}
	return out, nil
}

// Cleanup deletes the execution context if and only if this worker created
// it. It is safe to call more than once.
func (w *Worker) Cleanup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.owned || w.released || w.sandboxID == "" {
		return nil
	}
	w.released = true
	if err := w.client.DeleteSandbox(ctx, w.sandboxID); err != nil {
		if w.logger != nil {
			w.logger.Warn("sandbox deletion failed", "sandbox_id", w.sandboxID, "error", err)
		}
		return err
	}
	return nil
}

var _ sandbox.Environment = (*Worker)(nil)

func (w *Worker) ensureSandbox(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sandboxID != "" {
		return w.sandboxID, nil
	}
	info, err := w.client.CreateSandbox(ctx, SandboxSpec{TTL: w.ttl, MachineShape: w.machineShape})
	if err != nil {
		return "", err
	}
	if w.logger != nil {
		w.logger.Info("sandbox provisioned", "sandbox_id", info.ID, "expires_at", info.ExpiresAt)
	}
	w.sandboxID = info.ID
	w.owned = true
	return info.ID, nil
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

// ExecutePayload is the wire request for one execution.
type ExecutePayload struct {
	Code          string        `json:"code"`
	InputFiles    []FilePayload `json:"input_files,omitempty"`
	TimeoutMillis int64         `json:"timeout_ms,omitempty"`
}

// FilePayload carries a base64-encoded file over the wire.
type FilePayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ResultPayload is the wire response for one execution. Stdout and stderr
// are base64-encoded byte streams.
type ResultPayload struct {
	Stdout      string        `json:"stdout,omitempty"`
	Stderr      string        `json:"stderr,omitempty"`
	OutputFiles []FilePayload `json:"output_files,omitempty"`
	Error       *RemoteError  `json:"error,omitempty"`
}

// RemoteError describes a failure reported by the sandbox service.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func buildPayload(req sandbox.Request, timeout time.Duration) ExecutePayload {
	payload := ExecutePayload{
		Code:          req.Code,
		TimeoutMillis: timeout.Milliseconds(),
	}
	for _, f := range req.InputFiles {
		payload.InputFiles = append(payload.InputFiles, FilePayload{
			Name:    f.Name,
			Content: base64.StdEncoding.EncodeToString(f.Data),
		})
	}
	return payload
}

func mapResult(payload ResultPayload) sandbox.Output {
	out := sandbox.Output{
		Stdout: decodeStream(payload.Stdout),
		Stderr: decodeStream(payload.Stderr),
	}
	for _, f := range payload.OutputFiles {
		data, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			data = []byte(f.Content)
		}
		out.OutputFiles = append(out.OutputFiles, sandbox.File{Name: f.Name, Data: data})
	}
	if payload.Error != nil {
		out.Error = payload.Error.Message
		if out.Error == "" {
			out.Error = payload.Error.Code
		}
	}
	return out
}

// decodeStream decodes a base64 byte stream, falling back to the raw text
// for services that send plain strings.
func decodeStream(s string) string {
	if s == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(b)
}
