package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBootstrapMissingFileIsNoOp(t *testing.T) {
	s := New()
	if err := s.Bootstrap(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if s.GetBool("show_reasoning") {
		t.Fatal("expected show_reasoning to default false on a missing profile")
	}
}

func TestBootstrapSeedsStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	content := `
show_reasoning: true
agent_models:
  researcher: gpt-5-research
agent_mcps:
  researcher:
    - docs-server
models:
  gpt-5-research:
    temperature: 0.2
    max_tokens: 8192
    supports_thinking: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	s := New()
	if err := s.Bootstrap(path); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if !s.GetBool("show_reasoning") {
		t.Fatal("expected show_reasoning true")
	}
	model, ok := s.GetAgentPinnedModel("researcher")
	if !ok || model != "gpt-5-research" {
		t.Fatalf("pinned model = %q, ok=%v", model, ok)
	}
	mcps := s.GetAgentMCPs("researcher")
	if len(mcps) != 1 || mcps[0] != "docs-server" {
		t.Fatalf("agent mcps = %v", mcps)
	}
	settings := s.ModelSettings("gpt-5-research")
	if settings.Temperature != 0.2 || settings.MaxTokens != 8192 || !settings.SupportsThinking {
		t.Fatalf("model settings = %+v", settings)
	}
}
