package shell

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestCallCapturesStdoutAndExitCode(t *testing.T) {
	tool := New(Config{WorkDir: t.TempDir()})
	ret, err := tool.Call(context.Background(), argsOf(t, map[string]any{"command": "echo hi"}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	var decoded struct {
		ExitCode int    `json:"exit_code"`
		Stdout   string `json:"stdout"`
		TimedOut bool   `json:"timed_out"`
	}
	if err := json.Unmarshal(ret.JSON, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ExitCode != 0 || decoded.Stdout != "hi\n" || decoded.TimedOut {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestCallReportsNonZeroExitCode(t *testing.T) {
	tool := New(Config{WorkDir: t.TempDir()})
	ret, err := tool.Call(context.Background(), argsOf(t, map[string]any{"command": "exit 3"}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	var decoded struct {
		ExitCode int `json:"exit_code"`
	}
	if err := json.Unmarshal(ret.JSON, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ExitCode != 3 {
		t.Fatalf("exit_code = %d, want 3", decoded.ExitCode)
	}
}

func TestCallHonorsTimeoutOverride(t *testing.T) {
	tool := New(Config{WorkDir: t.TempDir(), DefaultTimeout: time.Minute})
	ret, err := tool.Call(context.Background(), argsOf(t, map[string]any{
		"command":         "sleep 5",
		"timeout_seconds": 1,
	}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	var decoded struct {
		TimedOut bool `json:"timed_out"`
	}
	if err := json.Unmarshal(ret.JSON, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.TimedOut {
		t.Fatal("expected timed_out = true")
	}
}

func TestCallRejectsEmptyCommand(t *testing.T) {
	tool := New(Config{WorkDir: t.TempDir()})
	ret, err := tool.Call(context.Background(), argsOf(t, map[string]any{"command": "  "}))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !ret.IsError() {
		t.Fatal("expected an error return for a blank command")
	}
}

func argsOf(t *testing.T, v map[string]any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return data
}
