package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexuscore/agent/internal/agent"
)

// WriteTool implements a safe, workspace-scoped file writer. It always
// creates parent directories and overwrites any existing file.
type WriteTool struct {
	resolver Resolver
}

// NewWriteTool creates a write_file tool scoped to cfg.Workspace.
func NewWriteTool(cfg Config) *WriteTool {
	return &WriteTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *WriteTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "write_file",
		Description: "Write content to a file in the workspace, creating parent directories as needed.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`),
	}
}

func (t *WriteTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Path) == "" {
		return agent.ErrorReturn("path is required"), nil
	}
	resolved, err := t.resolver.Resolve(in.Path)
	if err != nil {
		return agent.ErrorReturn(err.Error()), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("create parent directories: %v", err)), nil
	}
	if err := os.WriteFile(resolved, []byte(in.Content), 0o644); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("write file: %v", err)), nil
	}
	return agent.JSONReturn(map[string]any{"path": in.Path, "bytes": len(in.Content)}), nil
}

// EditTool implements a literal find-and-replace edit on a workspace file.
// It replaces one unique exact match, or every match when replace_all is
// set; it does not apply multi-hunk diffs (spec.md §1 excludes "diff/grep
// algorithmic internals beyond their tool contracts").
type EditTool struct {
	resolver Resolver
}

// NewEditTool creates an edit_file tool scoped to cfg.Workspace.
func NewEditTool(cfg Config) *EditTool {
	return &EditTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *EditTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "edit_file",
		Description: "Replace one exact occurrence of old_text with new_text in a workspace file.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"old_text":{"type":"string"},"new_text":{"type":"string"},"replace_all":{"type":"boolean"}},"required":["path","old_text","new_text"]}`),
	}
}

func (t *EditTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Path       string `json:"path"`
		OldText    string `json:"old_text"`
		NewText    string `json:"new_text"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if in.OldText == "" {
		return agent.ErrorReturn("old_text must be non-empty"), nil
	}
	resolved, err := t.resolver.Resolve(in.Path)
	if err != nil {
		return agent.ErrorReturn(err.Error()), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("read file: %v", err)), nil
	}
	content := string(data)
	count := strings.Count(content, in.OldText)
	switch {
	case count == 0:
		return agent.ErrorReturn("old_text not found in file"), nil
	case count > 1 && !in.ReplaceAll:
		return agent.ErrorReturn(fmt.Sprintf("old_text is not unique: %d occurrences (set replace_all to replace them all)", count)), nil
	}
	var updated string
	if in.ReplaceAll {
		updated = strings.ReplaceAll(content, in.OldText, in.NewText)
	} else {
		updated = strings.Replace(content, in.OldText, in.NewText, 1)
	}
	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("write file: %v", err)), nil
	}
	return agent.JSONReturn(map[string]any{"path": in.Path, "replacements": count}), nil
}

// DeleteTool removes a single file from the workspace. It refuses to touch
// directories, leaving directory removal out of this tool's contract the
// same way the tool it is grounded on does.
type DeleteTool struct {
	resolver Resolver
}

// NewDeleteTool creates a delete_file tool scoped to cfg.Workspace.
func NewDeleteTool(cfg Config) *DeleteTool {
	return &DeleteTool{resolver: Resolver{Root: cfg.Workspace}}
}

func (t *DeleteTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "delete_file",
		Description: "Safely delete a file. Will fail if the path is a directory.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
	}
}

func (t *DeleteTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(in.Path) == "" {
		return agent.ErrorReturn("path is required"), nil
	}
	resolved, err := t.resolver.Resolve(in.Path)
	if err != nil {
		return agent.ErrorReturn(err.Error()), nil
	}
	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return agent.ErrorReturn(fmt.Sprintf("file not found: %s", in.Path)), nil
	}
	if err != nil {
		return agent.ErrorReturn(fmt.Sprintf("stat file: %v", err)), nil
	}
	if info.IsDir() {
		return agent.ErrorReturn(fmt.Sprintf("cannot delete directory with this tool: %s", in.Path)), nil
	}
	if err := os.Remove(resolved); err != nil {
		return agent.ErrorReturn(fmt.Sprintf("failed to delete file: %v", err)), nil
	}
	return agent.JSONReturn(map[string]any{"path": in.Path, "deleted": true}), nil
}
