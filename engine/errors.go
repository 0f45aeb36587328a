package engine

import "errors"

// Sentinel errors for error classification.
var (
	// ErrConfiguration indicates an invalid or incomplete engine configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownTemplate indicates a template id that is not registered.
	// This is a usage error and is never retried.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrEmptyCode indicates an ad-hoc request with no code.
	ErrEmptyCode = errors.New("empty code")

	// ErrUnsafeCode indicates ad-hoc code rejected by the deny-list.
	ErrUnsafeCode = errors.New("unsafe code rejected")

	// ErrExecution indicates the executed code itself failed. The message
	// carries the underlying failure; callers treat this as "strategy
	// failed, fall through".
	ErrExecution = errors.New("sandbox execution failed")

	// ErrParse indicates output that could not be interpreted as JSON from
	// either stdout or the output file.
	ErrParse = errors.New("unparseable sandbox output")
)
