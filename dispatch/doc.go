// Package dispatch applies the oversized-result mitigation policy to
// data-source invocation records.
//
// For each record the [Handler] classifies the result by size, then walks a
// linear fallback chain:
//
//   - no-op for small, absent, or already-handled results, and whenever the
//     handling feature is disabled
//   - a curated summarization template when one is registered for the
//     source identifier
//   - the generic summarization template otherwise, or when the curated
//     template failed
//   - a code-generation prompt ([BuildPrompt]) when no execution backend is
//     available or every sandboxed attempt failed
//
// The last stage needs no external resources and always terminates. Each
// handled result is replaced by a bounded envelope tagged with the handling
// mode and the original size, and provenance metadata is merged into a copy
// of the record's metadata. Internal faults, including panics, are converted
// to a no-op so a malfunctioning strategy never breaks the calling pipeline.
//
// [Handler.HandleToolResult] applies the same policy to MCP tool call
// results, treating the tool name as the source identifier and the
// structured content as the result.
package dispatch
