// Package sandbox defines the execution environment abstraction used to run
// summarization code in isolation.
//
// Two interchangeable implementations exist: a networked ephemeral worker
// (sandbox/remote) and an opt-in local interpreter worker (sandbox/local).
// Callers cannot distinguish the two except through the mode label.
package sandbox

import (
	"context"
	"errors"

	"github.com/srtux/sre-agent-sub004/config"
)

// Errors for environment acquisition.
var (
	// ErrDisabled is returned when no execution backend is configured.
	ErrDisabled = errors.New("sandboxed execution disabled")

	// ErrUnavailable is returned when a configured backend cannot be
	// reached or constructed.
	ErrUnavailable = errors.New("execution environment unavailable")
)

// Mode identifies the execution backend kind.
type Mode string

const (
	// ModeRemote executes on a networked sandbox service.
	ModeRemote Mode = "remote"

	// ModeLocal executes via a local interpreter subprocess.
	ModeLocal Mode = "local"

	// ModeDisabled means no backend is available.
	ModeDisabled Mode = "disabled"
)

// Environment runs code in isolation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Execute must honor cancellation and deadlines.
// - Errors: ordinary execution failures are reported via Output.Error; an
//   error return is reserved for environment-unavailable conditions.
// - Cleanup: must be called on every exit path once the environment has
//   been used; it releases only resources the environment itself created
//   and is safe to call more than once.
type Environment interface {
	Execute(ctx context.Context, req Request) (Output, error)
	Mode() Mode
	Cleanup(ctx context.Context) error
}

// SelectMode resolves the execution mode from settings. It is a pure
// function: explicit disable wins, then a configured remote service implies
// remote, then the local opt-in implies local, otherwise disabled.
func SelectMode(s config.Settings) Mode {
	if s.Sandbox == config.SandboxOff {
		return ModeDisabled
	}
	if s.RemoteResourceID != "" || s.RemoteEndpoint != "" {
		return ModeRemote
	}
	if s.LocalExecutionEnabled {
		return ModeLocal
	}
	return ModeDisabled
}
