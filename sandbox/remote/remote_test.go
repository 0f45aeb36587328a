package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/srtux/sre-agent-sub004/audit"
	"github.com/srtux/sre-agent-sub004/sandbox"
)

type fakeClient struct {
	createCount int
	createErr   error
	execErr     error
	result      ResultPayload
	deleted     []string
	deleteErr   error
	lastPayload ExecutePayload
}

func (f *fakeClient) CreateSandbox(_ context.Context, _ SandboxSpec) (SandboxInfo, error) {
	f.createCount++
	if f.createErr != nil {
		return SandboxInfo{}, f.createErr
	}
	return SandboxInfo{ID: "sb-created", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeClient) Execute(_ context.Context, _ string, req ExecutePayload) (ResultPayload, error) {
	f.lastPayload = req
	if f.execErr != nil {
		return ResultPayload{}, f.execErr
	}
	return f.result, nil
}

func (f *fakeClient) DeleteSandbox(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func encoded(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestNew_RequiresClientOrEndpoint(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrClientNotConfigured) {
		t.Fatalf("expected ErrClientNotConfigured, got %v", err)
	}
	if _, err := New(Config{Endpoint: "https://sandbox.example"}); err != nil {
		t.Fatalf("endpoint alone must suffice: %v", err)
	}
}

func TestExecute_ProvisionsLazilyAndDecodes(t *testing.T) {
	client := &fakeClient{result: ResultPayload{
		Stdout:      encoded(`{"ok": true}`),
		Stderr:      encoded("warning"),
		OutputFiles: []FilePayload{{Name: "output.json", Content: encoded(`{"ok": true}`)}},
	}}
	w, err := New(Config{Client: client})
	if err != nil {
		t.Fatal(err)
	}

	out, err := w.Execute(context.Background(), sandbox.Request{Code: "print()"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Failed() {
		t.Fatalf("unexpected failure: %s", out.Error)
	}
	if out.Stdout != `{"ok": true}` {
		t.Errorf("stdout not decoded: %q", out.Stdout)
	}
	if out.Stderr != "warning" {
		t.Errorf("stderr not decoded: %q", out.Stderr)
	}
	if data, ok := out.OutputFile("output.json"); !ok || string(data) != `{"ok": true}` {
		t.Errorf("output file not decoded: %q", data)
	}
	if client.createCount != 1 {
		t.Errorf("expected one provisioning call, got %d", client.createCount)
	}

	// Second call reuses the provisioned sandbox.
	if _, err := w.Execute(context.Background(), sandbox.Request{Code: "print()"}); err != nil {
		t.Fatal(err)
	}
	if client.createCount != 1 {
		t.Errorf("expected sandbox reuse, got %d creates", client.createCount)
	}
}

func TestExecute_SendsInputFilesBase64(t *testing.T) {
	client := &fakeClient{result: ResultPayload{Stdout: encoded("{}")}}
	w, _ := New(Config{Client: client})

	_, err := w.Execute(context.Background(), sandbox.Request{
		Code:       "print()",
		InputFiles: []sandbox.File{{Name: "input.json", Data: []byte(`[1,2]`)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(client.lastPayload.InputFiles) != 1 {
		t.Fatalf("expected one input file, got %d", len(client.lastPayload.InputFiles))
	}
	if client.lastPayload.InputFiles[0].Content != encoded(`[1,2]`) {
		t.Error("input file must be base64-encoded on the wire")
	}
}

func TestExecute_ProvisioningFailureBecomesOutputError(t *testing.T) {
	client := &fakeClient{createErr: errors.New("quota exhausted")}
	w, _ := New(Config{Client: client})

	out, err := w.Execute(context.Background(), sandbox.Request{Code: "print()"})
	if err != nil {
		t.Fatalf("provisioning failure must not surface as a Go error: %v", err)
	}
	if !out.Failed() || !strings.Contains(out.Error, "quota exhausted") {
		t.Errorf("expected provisioning failure in Output.Error, got %q", out.Error)
	}
}

func TestExecute_ExecutionFailureBecomesOutputError(t *testing.T) {
	client := &fakeClient{execErr: errors.New("connection reset")}
	w, _ := New(Config{Client: client})

	out, err := w.Execute(context.Background(), sandbox.Request{Code: "print()"})
	if err != nil {
		t.Fatalf("execution failure must not surface as a Go error: %v", err)
	}
	if !out.Failed() {
		t.Error("expected Output.Error set")
	}
}

func TestExecute_RemoteErrorPayload(t *testing.T) {
	client := &fakeClient{result: ResultPayload{Error: &RemoteError{Code: "EXEC_FAILED", Message: "NameError: flub"}}}
	w, _ := New(Config{Client: client})

	out, _ := w.Execute(context.Background(), sandbox.Request{Code: "flub"})
	if out.Error != "NameError: flub" {
		t.Errorf("expected remote error message, got %q", out.Error)
	}
}

func TestCleanup_DeletesOwnedSandboxExactlyOnce(t *testing.T) {
	client := &fakeClient{result: ResultPayload{Stdout: encoded("{}")}}
	w, _ := New(Config{Client: client})

	if _, err := w.Execute(context.Background(), sandbox.Request{Code: "print()"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != "sb-created" {
		t.Errorf("expected exactly one delete of sb-created, got %v", client.deleted)
	}
}

func TestCleanup_NeverDeletesCallerSuppliedSandbox(t *testing.T) {
	client := &fakeClient{result: ResultPayload{Stdout: encoded("{}")}}
	w, _ := New(Config{Client: client, SandboxID: "sb-caller"})

	if _, err := w.Execute(context.Background(), sandbox.Request{Code: "print()"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(client.deleted) != 0 {
		t.Errorf("caller-supplied sandbox must never be deleted, got %v", client.deleted)
	}
	if client.createCount != 0 {
		t.Errorf("caller-supplied sandbox must be reused, got %d creates", client.createCount)
	}
}

func TestCleanup_BeforeUseIsNoop(t *testing.T) {
	client := &fakeClient{}
	w, _ := New(Config{Client: client})
	if err := w.Cleanup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(client.deleted) != 0 {
		t.Errorf("nothing provisioned, nothing to delete: %v", client.deleted)
	}
}

func TestExecute_EmitsLifecycleEvents(t *testing.T) {
	client := &fakeClient{execErr: errors.New("boom")}
	var events []audit.Event
	w, _ := New(Config{Client: client, Events: func(e audit.Event) { events = append(events, e) }})

	_, _ = w.Execute(context.Background(), sandbox.Request{Code: "print()"})
	if len(events) != 2 {
		t.Fatalf("expected started+failed events, got %+v", events)
	}
	if events[0].Type != audit.EventStarted || events[1].Type != audit.EventFailed {
		t.Errorf("unexpected event sequence: %+v", events)
	}
	if events[0].Mode != string(sandbox.ModeRemote) {
		t.Errorf("expected remote mode label, got %q", events[0].Mode)
	}
}

func TestWorker_ImplementsEnvironment(t *testing.T) {
	var _ sandbox.Environment = (*Worker)(nil)
}
