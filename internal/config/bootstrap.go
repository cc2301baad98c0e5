package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nexuscore/agent/internal/agent"
)

// bootstrapFile is the on-disk shape of a settings-store bootstrap profile:
// a hand-authored YAML file seeding the same values a real settings store
// would otherwise only acquire through runtime Set calls (show_reasoning,
// per-agent pinned models, per-agent MCP attachments, per-model generation
// settings). Process start-up is explicit per spec.md §9 ("Initialization
// is explicit at program start"); this is that explicit step for a
// file-backed profile instead of a database-backed one.
type bootstrapFile struct {
	ShowReasoning bool                         `yaml:"show_reasoning"`
	AgentModels   map[string]string            `yaml:"agent_models"`
	AgentMCPs     map[string][]string          `yaml:"agent_mcps"`
	Models        map[string]modelSettingsYAML `yaml:"models"`
}

// modelSettingsYAML is the on-disk shape of one model's generation settings.
type modelSettingsYAML struct {
	Temperature      *float64 `yaml:"temperature"`
	TopP             *float64 `yaml:"top_p"`
	MaxTokens        int      `yaml:"max_tokens"`
	ExtendedThinking bool     `yaml:"extended_thinking"`
	SupportsThinking bool     `yaml:"supports_thinking"`
	ThinkingDisabled bool     `yaml:"thinking_disabled"`
}

func (m modelSettingsYAML) toAgentSettings() agent.ModelSettings {
	s := agent.ModelSettings{
		MaxTokens:        m.MaxTokens,
		ExtendedThinking: m.ExtendedThinking,
		SupportsThinking: m.SupportsThinking,
		ThinkingDisabled: m.ThinkingDisabled,
	}
	if m.Temperature != nil {
		s.Temperature = *m.Temperature
	}
	if m.TopP != nil {
		s.TopP = *m.TopP
	}
	return s
}

// Bootstrap seeds s from a YAML profile at path. A missing file is not an
// error: Bootstrap is a no-op and s is left exactly as New() produced it,
// matching the same "missing file -> empty config" tolerance LoadMCPConfig
// gives the MCP server list.
func (s *Store) Bootstrap(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var bf bootstrapFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return err
	}

	s.Set("show_reasoning", boolString(bf.ShowReasoning))
	for agentName, modelName := range bf.AgentModels {
		s.SetAgentPinnedModel(agentName, modelName)
	}
	for agentName, servers := range bf.AgentMCPs {
		s.SetAgentMCPs(agentName, servers)
	}
	for modelName, settings := range bf.Models {
		s.SetModelSettings(modelName, settings.toAgentSettings())
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
