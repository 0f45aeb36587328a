package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/srtux/sre-agent-sub004/audit"
	"github.com/srtux/sre-agent-sub004/config"
	"github.com/srtux/sre-agent-sub004/gate"
	"github.com/srtux/sre-agent-sub004/sandbox"
	"github.com/srtux/sre-agent-sub004/template"
)

// Logger is an optional interface for observability.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// EnvironmentFactory builds an execution environment from the current
// settings. It returns sandbox.ErrDisabled when no backend is configured.
type EnvironmentFactory func(ctx context.Context, s config.Settings) (sandbox.Environment, error)

// Config holds the configuration for an engine.
type Config struct {
	// Audit records invocation outcomes and publishes live events.
	// Required.
	Audit *audit.Log

	// Settings provides live configuration.
	// Default: config.Env{} (re-reads the environment each call).
	Settings config.Source

	// NewEnvironment builds environments when the caller does not supply
	// one. Default: DefaultEnvironment.
	NewEnvironment EnvironmentFactory

	// Logger is an optional logger.
	Logger Logger
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Audit == nil {
		return fmt.Errorf("%w: missing required field Audit", ErrConfiguration)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Settings == nil {
		c.Settings = config.Env{}
	}
	if c.NewEnvironment == nil {
		c.NewEnvironment = DefaultEnvironment
	}
}

// Engine runs summarization code in an execution environment.
type Engine struct {
	cfg Config
}

// New creates an engine. Returns ErrConfiguration if a required field is
// missing.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Engine{cfg: cfg}, nil
}

// Result is the outcome of a successful run.
type Result struct {
	// Summary is the parsed structured result.
	Summary map[string]any

	// TemplateID is the template that produced the summary; empty for
	// ad-hoc code.
	TemplateID string

	// Mode is the backend that executed the run.
	Mode sandbox.Mode

	// InputItems is the measured item count of the input data.
	InputItems int

	// OutputItems is the key count of the summary.
	OutputItems int

	// Duration is the total wall-clock time of the run.
	Duration time.Duration
}

// Process runs a registered template against data. An unknown template id
// fails fast with ErrUnknownTemplate. When env is nil an environment is
// resolved from the current settings and released before returning.
func (e *Engine) Process(ctx context.Context, data any, templateID string, env sandbox.Environment) (Result, error) {
	tpl, ok := template.Lookup(templateID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	return e.run(ctx, data, tpl.ID, tpl.Body, env)
}

// RunCode runs ad-hoc analysis code against data. The code is rejected
// before execution when empty or when it matches the unsafe deny-list.
func (e *Engine) RunCode(ctx context.Context, data any, code string, env sandbox.Environment) (Result, error) {
	if strings.TrimSpace(code) == "" {
		return Result{}, ErrEmptyCode
	}
	if match := unsafeMatch(code); match != "" {
		return Result{}, fmt.Errorf("%w: contains %q", ErrUnsafeCode, match)
	}
	return e.run(ctx, data, "", code, env)
}

func (e *Engine) run(ctx context.Context, data any, templateID, code string, env sandbox.Environment) (Result, error) {
	requestID := audit.NewRequestID()
	size := gate.Measure(data)

	if env == nil {
		built, err := e.cfg.NewEnvironment(ctx, e.cfg.Settings.Current())
		if err != nil {
			return Result{}, err
		}
		env = built
		// Release on every exit path, including cancellation.
		defer func() {
			if cerr := env.Cleanup(context.WithoutCancel(ctx)); cerr != nil && e.cfg.Logger != nil {
				e.cfg.Logger.Warn("environment cleanup failed", "request_id", requestID, "error", cerr)
			}
		}()
	}

	mode := string(env.Mode())
	start := time.Now()
	events := make([]audit.Event, 0, 3)

	e.emit(&events, audit.Event{
		Type: audit.EventStarted,
		Mode: mode,
	})
	e.emit(&events, audit.Event{
		Type:    audit.EventDataLoaded,
		Mode:    mode,
		Summary: fmt.Sprintf("items=%d template=%s", size.Items, templateID),
	})

	out, err := sandbox.ExecuteData(ctx, env, data, code, sandbox.DefaultVariable)
	if err != nil {
		e.fail(requestID, templateID, mode, size.Items, start, &events, err.Error())
		return Result{}, err
	}
	if out.Failed() {
		e.fail(requestID, templateID, mode, size.Items, start, &events, out.Error)
		return Result{}, fmt.Errorf("%w: %s", ErrExecution, out.Error)
	}

	summary, err := decodeSummary(out)
	if err != nil {
		e.fail(requestID, templateID, mode, size.Items, start, &events, err.Error())
		return Result{}, err
	}

	duration := time.Since(start)
	e.emit(&events, audit.Event{
		Type:       audit.EventOutputGenerated,
		Mode:       mode,
		DurationMs: duration.Milliseconds(),
		Summary:    fmt.Sprintf("keys=%d", len(summary)),
	})
	e.cfg.Audit.Record(audit.Entry{
		RequestID:       requestID,
		TemplateID:      templateID,
		Mode:            mode,
		Events:          events,
		DurationMs:      duration.Milliseconds(),
		Success:         true,
		InputItemCount:  size.Items,
		OutputItemCount: len(summary),
	})
	if e.cfg.Logger != nil {
		e.cfg.Logger.Info("summarization complete",
			"request_id", requestID, "template", templateID, "mode", mode,
			"items", size.Items, "duration_ms", duration.Milliseconds())
	}

	return Result{
		Summary:     summary,
		TemplateID:  templateID,
		Mode:        sandbox.Mode(mode),
		InputItems:  size.Items,
		OutputItems: len(summary),
		Duration:    duration,
	}, nil
}

// emit appends the event to the entry's event list and notifies the
// observer.
func (e *Engine) emit(events *[]audit.Event, ev audit.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	*events = append(*events, ev)
	e.cfg.Audit.Notify(ev)
}

func (e *Engine) fail(requestID, templateID, mode string, items int, start time.Time, events *[]audit.Event, msg string) {
	duration := time.Since(start)
	e.emit(events, audit.Event{
		Type:       audit.EventFailed,
		Mode:       mode,
		DurationMs: duration.Milliseconds(),
		Error:      msg,
	})
	e.cfg.Audit.Record(audit.Entry{
		RequestID:      requestID,
		TemplateID:     templateID,
		Mode:           mode,
		Events:         *events,
		DurationMs:     duration.Milliseconds(),
		Success:        false,
		InputItemCount: items,
	})
	if e.cfg.Logger != nil {
		e.cfg.Logger.Warn("summarization failed",
			"request_id", requestID, "template", templateID, "mode", mode, "error", msg)
	}
}

const excerptLimit = 500

// decodeSummary parses stdout as a JSON object, falling back to the
// output.json file. Failure of both is a parse error carrying a truncated
// stdout excerpt for diagnosis.
func decodeSummary(out sandbox.Output) (map[string]any, error) {
	var summary map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out.Stdout)), &summary); err == nil {
		return summary, nil
	}
	if data, ok := out.OutputFile("output.json"); ok {
		if err := json.Unmarshal(data, &summary); err == nil {
			return summary, nil
		}
	}
	excerpt := strings.TrimSpace(out.Stdout)
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}
	return nil, fmt.Errorf("%w: stdout excerpt: %q", ErrParse, excerpt)
}
