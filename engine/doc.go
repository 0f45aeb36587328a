// Package engine orchestrates sandboxed summarization runs over oversized
// data-source results.
//
// The engine serializes the input data into the chosen execution
// environment, runs a curated template or ad-hoc analysis code there,
// parses the structured summary from stdout with a fallback to the
// output.json file, and records every invocation in the audit log.
//
// # Architecture
//
// The package defines two main entry points:
//
//   - [Engine.Process]: runs a registered template from the catalog against
//     the data. Unknown template ids fail fast with [ErrUnknownTemplate].
//
//   - [Engine.RunCode]: runs caller-supplied analysis code. The code is
//     rejected before execution when empty ([ErrEmptyCode]) or when it
//     matches the unsafe deny-list ([ErrUnsafeCode]). The deny-list is
//     defense in depth, not the primary isolation boundary.
//
// Execution environments are pluggable through [sandbox.Environment]. When
// the caller supplies none, [EnvironmentFactory] resolves one from the
// current settings and the engine releases it before returning, on every
// exit path including cancellation.
//
// # Result Convention
//
// Summarization code prints a single JSON object to stdout and writes the
// same object to output.json. The engine parses stdout first and falls back
// to the file; if both fail the run ends with [ErrParse] carrying a
// truncated stdout excerpt for diagnosis.
//
// # Error Taxonomy
//
//   - Usage errors ([ErrUnknownTemplate], [ErrEmptyCode], [ErrUnsafeCode])
//     are returned before any environment is touched.
//   - Environment acquisition failures propagate from the factory, such as
//     [sandbox.ErrDisabled].
//   - Execution failures reported by the environment via Output.Error are
//     wrapped in [ErrExecution] and recorded as failed audit entries.
package engine
