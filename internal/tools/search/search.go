// Package search implements the built-in grep and glob tools. spec.md §1
// excludes "diff/grep algorithmic internals beyond their tool contracts"
// from this core's scope, so both tools are thin contract wrappers: grep
// shells out to the system grep binary and glob delegates to
// path/filepath.Glob, rather than reimplementing a matcher.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nexuscore/agent/internal/agent"
)

// Config controls search tool defaults.
type Config struct {
	Workspace  string
	MaxMatches int
}

// GrepTool runs the system grep binary over the workspace.
type GrepTool struct {
	workspace  string
	maxMatches int
}

// NewGrepTool creates a grep tool scoped to cfg.Workspace.
func NewGrepTool(cfg Config) *GrepTool {
	max := cfg.MaxMatches
	if max <= 0 {
		max = 200
	}
	return &GrepTool{workspace: cfg.Workspace, maxMatches: max}
}

func (t *GrepTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "grep",
		Description: "Search workspace files for a regular expression pattern.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string"},"path":{"type":"string","description":"directory to search, relative to the workspace"},"case_insensitive":{"type":"boolean"}},"required":["pattern"]}`),
	}
}

func (t *GrepTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Pattern         string `json:"pattern"`
		Path            string `json:"path"`
		CaseInsensitive bool   `json:"case_insensitive"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Pattern) == "" {
		return agent.ErrorReturn("pattern is required"), nil
	}
	searchDir := t.workspace
	if in.Path != "" {
		searchDir = filepath.Join(t.workspace, in.Path)
	}
	if searchDir == "" {
		searchDir = "."
	}

	grepArgs := []string{"-r", "-n", "-I", "--max-count=" + strconv.Itoa(t.maxMatches)}
	if in.CaseInsensitive {
		grepArgs = append(grepArgs, "-i")
	}
	grepArgs = append(grepArgs, "-e", in.Pattern, searchDir)

	cmd := exec.CommandContext(ctx, "grep", grepArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	// grep exits 1 when there are no matches; that is success for this tool.
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return agent.JSONReturn(map[string]any{"pattern": in.Pattern, "matches": []string{}}), nil
	}
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("grep failed: %v: %s", err, stderr.String())), nil
	}

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	return agent.JSONReturn(map[string]any{"pattern": in.Pattern, "matches": lines}), nil
}

// GlobTool matches workspace files against a glob pattern.
type GlobTool struct {
	workspace string
}

// NewGlobTool creates a glob tool scoped to cfg.Workspace.
func NewGlobTool(cfg Config) *GlobTool {
	return &GlobTool{workspace: cfg.Workspace}
}

func (t *GlobTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "glob",
		Description: "List workspace files matching a path/filepath.Glob pattern.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string","description":"glob pattern, relative to the workspace"}},"required":["pattern"]}`),
	}
}

func (t *GlobTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Pattern) == "" {
		return agent.ErrorReturn("pattern is required"), nil
	}
	full := filepath.Join(t.workspace, in.Pattern)
	matches, err := filepath.Glob(full)
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid glob pattern: %v", err)), nil
	}
	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		r, err := filepath.Rel(t.workspace, m)
		if err != nil {
			r = m
		}
		rel = append(rel, r)
	}
	return agent.JSONReturn(map[string]any{"pattern": in.Pattern, "matches": rel}), nil
}
