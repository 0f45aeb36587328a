package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestHandleToolResult_ReplacesOversizedStructuredContent(t *testing.T) {
	h := newTestHandler(t, disabledSettings(), nil)
	res := &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: "huge serialized payload"}},
		StructuredContent: any(largeRecords(150)),
	}

	out := h.HandleToolResult(context.Background(), "list_log_entries", res)

	summary, ok := out.StructuredContent.(map[string]any)
	if !ok || summary[KeyHandled] != true {
		t.Fatalf("expected handled summary, got %v", out.StructuredContent)
	}
	if len(out.Content) != 1 {
		t.Fatalf("expected a single rewritten text block, got %d", len(out.Content))
	}
	text, ok := out.Content[0].(*mcp.TextContent)
	if !ok || !strings.Contains(text.Text, ModeCodeGenerationPrompt) {
		t.Errorf("text content should carry the serialized summary, got %v", out.Content[0])
	}
}

func TestHandleToolResult_PassThrough(t *testing.T) {
	h := newTestHandler(t, disabledSettings(), nil)

	if out := h.HandleToolResult(context.Background(), "x", nil); out != nil {
		t.Error("nil result must pass through")
	}

	errRes := &mcp.CallToolResult{IsError: true, StructuredContent: any(largeRecords(150))}
	if out := h.HandleToolResult(context.Background(), "x", errRes); out.StructuredContent == nil {
		t.Error("error results must pass through untouched")
	} else if _, handled := out.StructuredContent.(map[string]any); handled {
		t.Error("error results must not be summarized")
	}

	small := &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: "small"}},
		StructuredContent: any([]any{map[string]any{"a": float64(1)}}),
	}
	out := h.HandleToolResult(context.Background(), "list_log_entries", small)
	if text := out.Content[0].(*mcp.TextContent); text.Text != "small" {
		t.Error("small results must keep their original content")
	}
}
