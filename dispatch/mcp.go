package dispatch

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleToolResult applies the mitigation policy to an MCP tool call
// result. The tool name is the source identifier. When the structured
// content was replaced by a bounded summary, the text content is rewritten
// to the serialized summary as well, so both representations stay bounded.
// Error results and results without structured content pass through
// untouched.
func (h *Handler) HandleToolResult(ctx context.Context, toolName string, res *mcp.CallToolResult) *mcp.CallToolResult {
	if res == nil || res.IsError || res.StructuredContent == nil {
		return res
	}

	out := h.Handle(ctx, Invocation{SourceID: toolName, Result: res.StructuredContent})
	if !alreadyHandled(out.Result) {
		return res
	}

	res.StructuredContent = out.Result
	if encoded, err := json.Marshal(out.Result); err == nil {
		res.Content = []mcp.Content{&mcp.TextContent{Text: string(encoded)}}
	}
	return res
}
