// Package config loads oversized-result engine settings from the environment.
//
// Settings are re-read on every call through a Source, so thresholds and
// sandbox flags can change between invocations without a restart. Invalid
// values fall back to the compiled-in defaults rather than failing the
// calling pipeline.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names recognized by the engine.
const (
	EnvHandlingEnabled   = "ORME_HANDLING_ENABLED"
	EnvItemThreshold     = "ORME_ITEM_THRESHOLD"
	EnvCharThreshold     = "ORME_CHAR_THRESHOLD"
	EnvSandboxEnabled    = "ORME_SANDBOX_ENABLED"
	EnvLocalExecution    = "ORME_LOCAL_EXECUTION_ENABLED"
	EnvRemoteResourceID  = "ORME_REMOTE_RESOURCE_ID"
	EnvRemoteEndpoint    = "ORME_REMOTE_ENDPOINT"
	EnvRemoteToken       = "ORME_REMOTE_TOKEN"
	EnvRemoteTTLSeconds  = "ORME_REMOTE_TTL_SECONDS"
	EnvRemoteExecTimeout = "ORME_REMOTE_EXEC_TIMEOUT_SECONDS"
	EnvAuditCapacity     = "ORME_AUDIT_CAPACITY"
)

// Compiled-in defaults.
const (
	DefaultItemThreshold     = 50
	DefaultCharThreshold     = 100_000
	DefaultRemoteTTL         = time.Hour
	DefaultRemoteExecTimeout = 60 * time.Second
	DefaultAuditCapacity     = 100
)

// SandboxSetting is the tri-state sandbox enablement flag.
type SandboxSetting string

const (
	// SandboxAuto derives the execution mode from the rest of the settings.
	SandboxAuto SandboxSetting = "auto"

	// SandboxOn explicitly allows sandboxed execution.
	SandboxOn SandboxSetting = "on"

	// SandboxOff explicitly disables sandboxed execution.
	SandboxOff SandboxSetting = "off"
)

// Settings holds the recognized engine configuration.
type Settings struct {
	// HandlingEnabled turns the oversized-result handling feature on or off.
	HandlingEnabled bool

	// ItemThreshold is the item/key count above which a result is large.
	ItemThreshold int

	// CharThreshold is the serialized size above which a result is large.
	CharThreshold int

	// Sandbox is the explicit sandbox enablement flag.
	Sandbox SandboxSetting

	// LocalExecutionEnabled opts in to the local interpreter backend.
	// The local backend runs trusted code only.
	LocalExecutionEnabled bool

	// RemoteResourceID identifies an existing remote execution context to
	// reuse. A caller-supplied context is never deleted by the engine.
	RemoteResourceID string

	// RemoteEndpoint is the base URL of the remote sandbox service.
	RemoteEndpoint string

	// RemoteToken is an optional bearer token for the sandbox service.
	RemoteToken string

	// RemoteTTL bounds how long a provisioned execution context stays valid.
	RemoteTTL time.Duration

	// RemoteExecTimeout bounds a single remote execution call, independent
	// of the context TTL.
	RemoteExecTimeout time.Duration

	// AuditCapacity is the maximum number of retained audit entries.
	AuditCapacity int
}

// Defaults returns the compiled-in settings.
func Defaults() Settings {
	return Settings{
		HandlingEnabled:   true,
		ItemThreshold:     DefaultItemThreshold,
		CharThreshold:     DefaultCharThreshold,
		Sandbox:           SandboxAuto,
		RemoteTTL:         DefaultRemoteTTL,
		RemoteExecTimeout: DefaultRemoteExecTimeout,
		AuditCapacity:     DefaultAuditCapacity,
	}
}

// FromEnv reads settings from the process environment, applying defaults
// for unset or unparseable values.
func FromEnv() Settings {
	s := Defaults()
	s.HandlingEnabled = boolEnv(EnvHandlingEnabled, s.HandlingEnabled)
	s.ItemThreshold = intEnv(EnvItemThreshold, s.ItemThreshold)
	s.CharThreshold = intEnv(EnvCharThreshold, s.CharThreshold)
	s.Sandbox = sandboxEnv(EnvSandboxEnabled)
	s.LocalExecutionEnabled = boolEnv(EnvLocalExecution, false)
	s.RemoteResourceID = os.Getenv(EnvRemoteResourceID)
	s.RemoteEndpoint = os.Getenv(EnvRemoteEndpoint)
	s.RemoteToken = os.Getenv(EnvRemoteToken)
	s.RemoteTTL = secondsEnv(EnvRemoteTTLSeconds, s.RemoteTTL)
	s.RemoteExecTimeout = secondsEnv(EnvRemoteExecTimeout, s.RemoteExecTimeout)
	s.AuditCapacity = intEnv(EnvAuditCapacity, s.AuditCapacity)
	return s
}

// Source provides the current settings to the engine. Implementations must
// be safe for concurrent use.
type Source interface {
	Current() Settings
}

// Env is a Source that re-reads the process environment on every call.
type Env struct{}

// Current implements Source.
func (Env) Current() Settings { return FromEnv() }

// Static is a Source that always returns the same settings.
type Static Settings

// Current implements Source.
func (s Static) Current() Settings { return Settings(s) }

func boolEnv(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func intEnv(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func secondsEnv(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i <= 0 {
		return def
	}
	return time.Duration(i) * time.Second
}

func sandboxEnv(key string) SandboxSetting {
	v, ok := os.LookupEnv(key)
	if !ok {
		return SandboxAuto
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "auto", "":
		return SandboxAuto
	case "true", "1", "on", "yes":
		return SandboxOn
	case "false", "0", "off", "no":
		return SandboxOff
	}
	return SandboxAuto
}
