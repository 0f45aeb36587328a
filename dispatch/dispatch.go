package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/srtux/sre-agent-sub004/config"
	"github.com/srtux/sre-agent-sub004/engine"
	"github.com/srtux/sre-agent-sub004/gate"
	"github.com/srtux/sre-agent-sub004/sandbox"
	"github.com/srtux/sre-agent-sub004/template"
)

// Envelope keys and mode labels for handled results.
const (
	KeyHandled = "handled"
	KeyMode    = "mode"

	ModeTemplate             = "template"
	ModeGeneric              = "generic"
	ModeCodeGenerationPrompt = "code_generation_prompt"
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

// Invocation is one data-source invocation record.
type Invocation struct {
	// SourceID identifies the originating data source.
	SourceID string

	// Result is the raw result; nil means the source returned nothing.
	Result any

	// Meta carries existing record metadata; the handler merges its own
	// provenance into a copy and never mutates the original.
	Meta map[string]any
}

// Config holds the configuration for a handler.
type Config struct {
	// Engine runs sandboxed summarizations.
	// Required.
	Engine *engine.Engine

	// Settings provides live configuration.
	// Default: config.Env{}.
	Settings config.Source

	// Logger is an optional logger.
	Logger Logger
}

// Handler decides and executes the mitigation strategy for oversized
// results.
type Handler struct {
	engine   *engine.Engine
	settings config.Source
	logger   Logger
}

// NewHandler creates a handler. Returns engine.ErrConfiguration when the
// engine is missing.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("%w: missing required field Engine", engine.ErrConfiguration)
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.Env{}
	}
	return &Handler{engine: cfg.Engine, settings: settings, logger: cfg.Logger}, nil
}

// Handle returns the record with its result replaced by a bounded summary,
// or the record unchanged when no handling applies. It never returns an
// error and never lets an internal fault escape.
func (h *Handler) Handle(ctx context.Context, inv Invocation) (out Invocation) {
	out = inv
	defer func() {
		if r := recover(); r != nil {
			out = inv
			if h.logger != nil {
				h.logger.Error("oversized-result handling panicked", "source", inv.SourceID, "panic", r)
			}
		}
	}()

	s := h.settings.Current()
	if !s.HandlingEnabled || inv.Result == nil || alreadyHandled(inv.Result) {
		return inv
	}

	thresholds := gate.Thresholds{Items: s.ItemThreshold, Chars: s.CharThreshold}
	if !gate.IsLarge(inv.Result, thresholds) {
		return inv
	}
	size := gate.Measure(inv.Result)

	start := time.Now()
	if sandbox.SelectMode(s) != sandbox.ModeDisabled {
		if tpl, ok := template.ForSource(inv.SourceID); ok {
			res, err := h.engine.Process(ctx, inv.Result, tpl.ID, nil)
			if err == nil {
				return h.wrap(inv, res, ModeTemplate, size, time.Since(start))
			}
			if h.logger != nil {
				h.logger.Warn("template summarization failed", "source", inv.SourceID, "template", tpl.ID, "error", err)
			}
		}
		if ctx.Err() == nil {
			res, err := h.engine.Process(ctx, inv.Result, template.Generic, nil)
			if err == nil {
				return h.wrap(inv, res, ModeGeneric, size, time.Since(start))
			}
			if h.logger != nil {
				h.logger.Warn("generic summarization failed", "source", inv.SourceID, "error", err)
			}
		}
	}
	if ctx.Err() != nil {
		return inv
	}

	prompt := BuildPrompt(inv.Result, size)
	result := map[string]any{
		KeyHandled:            true,
		KeyMode:               ModeCodeGenerationPrompt,
		"total_count":         prompt.TotalCount,
		"data_sample":         prompt.DataSample,
		"schema":              prompt.Schema,
		"instructions":        prompt.Instructions,
		"original_item_count": size.Items,
		"original_char_count": size.Chars,
	}
	return Invocation{
		SourceID: inv.SourceID,
		Result:   result,
		Meta:     mergedMeta(inv.Meta, ModeCodeGenerationPrompt, size, time.Since(start)),
	}
}

func (h *Handler) wrap(inv Invocation, res engine.Result, mode string, size gate.Size, elapsed time.Duration) Invocation {
	result := map[string]any{
		KeyHandled:            true,
		KeyMode:               mode,
		"summary":             res.Summary,
		"original_item_count": size.Items,
		"original_char_count": size.Chars,
		"processing_ms":       elapsed.Milliseconds(),
	}
	if res.TemplateID != "" {
		result["template_id"] = res.TemplateID
	}
	return Invocation{
		SourceID: inv.SourceID,
		Result:   result,
		Meta:     mergedMeta(inv.Meta, mode, size, elapsed),
	}
}

func mergedMeta(meta map[string]any, mode string, size gate.Size, elapsed time.Duration) map[string]any {
	merged := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		merged[k] = v
	}
	merged["oversized_result"] = map[string]any{
		"mode":                mode,
		"original_item_count": size.Items,
		"original_char_count": size.Chars,
		"processing_ms":       elapsed.Milliseconds(),
	}
	return merged
}

func alreadyHandled(result any) bool {
	m, ok := result.(map[string]any)
	if !ok {
		return false
	}
	handled, ok := m[KeyHandled].(bool)
	return ok && handled
}
