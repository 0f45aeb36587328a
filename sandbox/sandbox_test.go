package sandbox

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/srtux/sre-agent-sub004/config"
)

type captureEnv struct {
	req Request
	out Output
}

func (c *captureEnv) Execute(_ context.Context, req Request) (Output, error) {
	c.req = req
	return c.out, nil
}

func (c *captureEnv) Mode() Mode                    { return ModeLocal }
func (c *captureEnv) Cleanup(context.Context) error { return nil }

func TestSelectMode_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		settings config.Settings
		want     Mode
	}{
		{
			name:     "explicit off wins over remote config",
			settings: config.Settings{Sandbox: config.SandboxOff, RemoteResourceID: "sb-1", LocalExecutionEnabled: true},
			want:     ModeDisabled,
		},
		{
			name:     "remote id implies remote",
			settings: config.Settings{Sandbox: config.SandboxAuto, RemoteResourceID: "sb-1"},
			want:     ModeRemote,
		},
		{
			name:     "endpoint implies remote",
			settings: config.Settings{Sandbox: config.SandboxAuto, RemoteEndpoint: "https://sandbox.example"},
			want:     ModeRemote,
		},
		{
			name:     "remote beats local",
			settings: config.Settings{RemoteResourceID: "sb-1", LocalExecutionEnabled: true},
			want:     ModeRemote,
		},
		{
			name:     "local opt-in",
			settings: config.Settings{Sandbox: config.SandboxAuto, LocalExecutionEnabled: true},
			want:     ModeLocal,
		},
		{
			name:     "nothing configured",
			settings: config.Settings{Sandbox: config.SandboxAuto},
			want:     ModeDisabled,
		},
		{
			name:     "explicit on without any backend is still disabled",
			settings: config.Settings{Sandbox: config.SandboxOn},
			want:     ModeDisabled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectMode(tt.settings); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExecuteData_WritesInputFileAndLoader(t *testing.T) {
	env := &captureEnv{}
	data := []any{map[string]any{"a": float64(1)}}

	_, err := ExecuteData(context.Background(), env, data, "print(len(data))", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(env.req.InputFiles) != 1 || env.req.InputFiles[0].Name != InputFileName {
		t.Fatalf("expected one %s input file, got %+v", InputFileName, env.req.InputFiles)
	}
	var decoded []any
	if err := json.Unmarshal(env.req.InputFiles[0].Data, &decoded); err != nil {
		t.Fatalf("input file is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("expected serialized data round-trip, got %+v", decoded)
	}

	if !strings.Contains(env.req.Code, `data = json.load(_in)`) {
		t.Errorf("loader must bind the default variable, code:\n%s", env.req.Code)
	}
	if !strings.HasSuffix(env.req.Code, "print(len(data))") {
		t.Error("caller code must follow the loader")
	}
}

func TestExecuteData_CustomVariable(t *testing.T) {
	env := &captureEnv{}
	_, err := ExecuteData(context.Background(), env, 1, "pass", "records")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.req.Code, "records = json.load(_in)") {
		t.Errorf("loader must bind the custom variable, code:\n%s", env.req.Code)
	}
}

func TestExecuteData_UnserializableData(t *testing.T) {
	env := &captureEnv{}
	_, err := ExecuteData(context.Background(), env, make(chan int), "pass", "")
	if err == nil {
		t.Fatal("expected encode error")
	}
}

func TestOutput_Helpers(t *testing.T) {
	out := Output{OutputFiles: []File{{Name: "output.json", Data: []byte(`{}`)}}}
	if out.Failed() {
		t.Error("output without error must not be failed")
	}
	if _, ok := out.OutputFile("output.json"); !ok {
		t.Error("expected to find output.json")
	}
	if _, ok := out.OutputFile("missing"); ok {
		t.Error("missing file must not be found")
	}
	if !(Output{Error: "boom"}).Failed() {
		t.Error("output with error must be failed")
	}
}
