package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nexuscore/agent/internal/agent"
)

// Config controls filesystem tool defaults.
type Config struct {
	Workspace    string
	MaxReadBytes int
}

// ReadTool implements a safe, workspace-scoped file reader.
type ReadTool struct {
	resolver Resolver
	maxRead  int
}

// NewReadTool creates a read_file tool scoped to cfg.Workspace.
func NewReadTool(cfg Config) *ReadTool {
	limit := cfg.MaxReadBytes
	if limit <= 0 {
		limit = 200_000
	}
	return &ReadTool{resolver: Resolver{Root: cfg.Workspace}, maxRead: limit}
}

func (t *ReadTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "read_file",
		Description: "Read a file from the workspace with an optional byte offset and limit.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"path relative to the workspace"},"offset":{"type":"integer","minimum":0},"max_bytes":{"type":"integer","minimum":0}},"required":["path"]}`),
	}
}

func (t *ReadTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Path     string `json:"path"`
		Offset   int64  `json:"offset"`
		MaxBytes int    `json:"max_bytes"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Path) == "" {
		return agent.ErrorReturn("path is required"), nil
	}
	if in.Offset < 0 {
		return agent.ErrorReturn("offset must be >= 0"), nil
	}

	resolved, err := t.resolver.Resolve(in.Path)
	if err != nil {
		return agent.ErrorReturn(err.Error()), nil
	}

	f, err := os.Open(resolved)
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("open file: %v", err)), nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("stat file: %v", err)), nil
	}
	if info.IsDir() {
		return agent.ErrorReturn(fmt.Sprintf("%q is a directory", in.Path)), nil
	}
	if in.Offset > 0 {
		if _, err := f.Seek(in.Offset, io.SeekStart); err != nil {
			return agent.ErrorReturn(fmt.Sprintf("seek file: %v", err)), nil
		}
	}

	limit := t.maxRead
	if in.MaxBytes > 0 && in.MaxBytes < limit {
		limit = in.MaxBytes
	}
	remaining := info.Size() - in.Offset
	if remaining < 0 {
		remaining = 0
	}
	if remaining > int64(limit) {
		remaining = int64(limit)
	}

	buf, err := io.ReadAll(io.LimitReader(f, remaining))
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("read file: %v", err)), nil
	}

	return agent.JSONReturn(map[string]any{
		"path":      in.Path,
		"content":   string(buf),
		"offset":    in.Offset,
		"bytes":     len(buf),
		"truncated": in.Offset+int64(len(buf)) < info.Size(),
	}), nil
}

// ListDirectoryTool lists the entries of a workspace directory.
type ListDirectoryTool struct {
	resolver Resolver
}

// NewListDirectoryTool creates a list_directory tool scoped to cfg.Workspace.
func NewListDirectoryTool(cfg Config) *ListDirectoryTool {
	return &ListDirectoryTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *ListDirectoryTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "list_directory",
		Description: "List the files and subdirectories of a workspace directory.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"directory, relative to the workspace"}},"required":["path"]}`),
	}
}

type dirEntrySummary struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

func (t *ListDirectoryTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Path) == "" {
		in.Path = "."
	}
	resolved, err := t.resolver.Resolve(in.Path)
	if err != nil {
		return agent.ErrorReturn(err.Error()), nil
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("read dir: %v", err)), nil
	}
	out := make([]dirEntrySummary, 0, len(entries))
	for _, e := range entries {
		summary := dirEntrySummary{Name: e.Name(), IsDir: e.IsDir()}
		if info, err := e.Info(); err == nil && !e.IsDir() {
			summary.Size = info.Size()
		}
		out = append(out, summary)
	}
	return agent.JSONReturn(map[string]any{"path": in.Path, "entries": out}), nil
}
