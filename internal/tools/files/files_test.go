package files

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteEditRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Workspace: dir}
	write := NewWriteTool(cfg)
	read := NewReadTool(cfg)
	edit := NewEditTool(cfg)
	list := NewListDirectoryTool(cfg)
	ctx := context.Background()

	if _, err := write.Call(ctx, argsOf(t, map[string]any{"path": "a/b.txt", "content": "hello world"})); err != nil {
		t.Fatalf("write: %v", err)
	}

	ret, err := read.Call(ctx, argsOf(t, map[string]any{"path": "a/b.txt"}))
	if err != nil || ret.IsError() {
		t.Fatalf("read: %v %v", ret, err)
	}
	var decoded struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(ret.JSON, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Content != "hello world" {
		t.Fatalf("content = %q", decoded.Content)
	}

	if _, err := edit.Call(ctx, argsOf(t, map[string]any{"path": "a/b.txt", "old_text": "world", "new_text": "nexus"})); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a/b.txt"))
	if err != nil || string(got) != "hello nexus" {
		t.Fatalf("after edit = %q, err=%v", got, err)
	}

	listRet, err := list.Call(ctx, argsOf(t, map[string]any{"path": "a"}))
	if err != nil || listRet.IsError() {
		t.Fatalf("list: %v %v", listRet, err)
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	r := Resolver{Root: t.TempDir()}
	if _, err := r.Resolve("../../etc/passwd"); err == nil {
		t.Fatal("expected escape error")
	}
}

func TestEditRequiresUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Workspace: dir}
	write := NewWriteTool(cfg)
	edit := NewEditTool(cfg)
	ctx := context.Background()
	if _, err := write.Call(ctx, argsOf(t, map[string]any{"path": "f.txt", "content": "aa"})); err != nil {
		t.Fatalf("write: %v", err)
	}
	ret, err := edit.Call(ctx, argsOf(t, map[string]any{"path": "f.txt", "old_text": "a", "new_text": "b"}))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !ret.IsError() {
		t.Fatal("expected ambiguous-match error")
	}
}

func TestDeleteToolRemovesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Workspace: dir}
	write := NewWriteTool(cfg)
	del := NewDeleteTool(cfg)
	ctx := context.Background()

	if _, err := write.Call(ctx, argsOf(t, map[string]any{"path": "to_delete.txt", "content": "bye"})); err != nil {
		t.Fatalf("write: %v", err)
	}
	ret, err := del.Call(ctx, argsOf(t, map[string]any{"path": "to_delete.txt"}))
	if err != nil || ret.IsError() {
		t.Fatalf("delete: %v %v", ret, err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "to_delete.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("expected file to be gone, stat err=%v", statErr)
	}
}

func TestDeleteToolFileNotFound(t *testing.T) {
	del := NewDeleteTool(Config{Workspace: t.TempDir()})
	ret, err := del.Call(context.Background(), argsOf(t, map[string]any{"path": "missing.txt"}))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ret.IsError() {
		t.Fatal("expected a not-found error")
	}
}

func TestDeleteToolRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	del := NewDeleteTool(Config{Workspace: dir})
	ret, err := del.Call(context.Background(), argsOf(t, map[string]any{"path": "subdir"}))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ret.IsError() {
		t.Fatal("expected a cannot-delete-directory error")
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
