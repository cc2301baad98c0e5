// Package shell implements the built-in shell_command tool: a thin,
// timeout-bounded wrapper around os/exec, grounded in the teacher's
// internal/tools/exec.ExecTool but stripped to the foreground-only
// subset this core's tool contract actually needs (spec.md §5: "shell
// command tools implement their own timeout").
package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nexuscore/agent/internal/agent"
)

// Config controls shell tool defaults.
type Config struct {
	WorkDir        string
	DefaultTimeout time.Duration
	MaxOutputBytes int
}

// Tool runs a shell command to completion and returns its stdout, stderr,
// and exit code.
type Tool struct {
	workDir string
	timeout time.Duration
	maxOut  int
}

// New creates a shell_command tool.
func New(cfg Config) *Tool {
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxOut := cfg.MaxOutputBytes
	if maxOut <= 0 {
		maxOut = 100_000
	}
	return &Tool{workDir: cfg.WorkDir, timeout: timeout, maxOut: maxOut}
}

func (t *Tool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "shell_command",
		Description: "Run a shell command in the workspace and return its stdout, stderr, and exit code.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"command":{"type":"string","description":"command to run via /bin/sh -c"},"timeout_seconds":{"type":"integer","minimum":0,"description":"overrides the tool's default timeout"}},"required":["command"]}`),
	}
}

func (t *Tool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Command        string `json:"command"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Command) == "" {
		return agent.ErrorReturn("command is required"), nil
	}

	timeout := t.timeout
	if in.TimeoutSeconds > 0 {
		timeout = time.Duration(in.TimeoutSeconds) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", in.Command)
	cmd.Dir = t.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	timedOut := runCtx.Err() == context.DeadlineExceeded
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil && !timedOut {
		return agent.ToolReturn{}, agent.ExecutionFailed("shell_command", runErr.Error(), true)
	}

	return agent.JSONReturn(map[string]any{
		"command":   in.Command,
		"exit_code": exitCode,
		"timed_out": timedOut,
		"stdout":    truncate(stdout.String(), t.maxOut),
		"stderr":    truncate(stderr.String(), t.maxOut),
	}), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + fmt.Sprintf("\n... truncated (%d bytes total)", len(s))
}
