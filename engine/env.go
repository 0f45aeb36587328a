package engine

import (
	"context"
	"fmt"

	"github.com/srtux/sre-agent-sub004/config"
	"github.com/srtux/sre-agent-sub004/sandbox"
	"github.com/srtux/sre-agent-sub004/sandbox/local"
	"github.com/srtux/sre-agent-sub004/sandbox/remote"
)

// DefaultEnvironment builds an execution environment from settings using
// the mode-selection precedence: explicit disable, then remote when a
// service is configured, then the local opt-in.
func DefaultEnvironment(_ context.Context, s config.Settings) (sandbox.Environment, error) {
	switch sandbox.SelectMode(s) {
	case sandbox.ModeRemote:
		w, err := remote.New(remote.Config{
			Endpoint:    s.RemoteEndpoint,
			Token:       s.RemoteToken,
			SandboxID:   s.RemoteResourceID,
			TTL:         s.RemoteTTL,
			ExecTimeout: s.RemoteExecTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sandbox.ErrUnavailable, err)
		}
		return w, nil
	case sandbox.ModeLocal:
		return local.New(local.Config{}), nil
	}
	return nil, sandbox.ErrDisabled
}
