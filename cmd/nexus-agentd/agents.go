package main

import "github.com/nexuscore/agent/pkg/models"

// staticAgentManager is a fixed in-memory AgentManager for the CLI demo.
// A real deployment's agent manager is a persisted, authorable component
// outside this core's scope (spec.md §1: "session persistence" and the
// agent descriptor's authoring are external collaborators).
type staticAgentManager struct {
	byName map[string]models.AgentDescriptor
	order  []string
}

func newStaticAgentManager(descs ...models.AgentDescriptor) *staticAgentManager {
	m := &staticAgentManager{byName: make(map[string]models.AgentDescriptor, len(descs))}
	for _, d := range descs {
		m.byName[d.Name] = d
		m.order = append(m.order, d.Name)
	}
	return m
}

func (m *staticAgentManager) Resolve(name string) (models.AgentDescriptor, bool) {
	d, ok := m.byName[name]
	return d, ok
}

func (m *staticAgentManager) List() []models.AgentDescriptor {
	out := make([]models.AgentDescriptor, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.byName[name])
	}
	return out
}

func defaultAgents() []models.AgentDescriptor {
	return []models.AgentDescriptor{
		{
			Name:        "main",
			DisplayName: "Main",
			Description: "General-purpose assistant with file, shell, and search tools.",
			SystemPrompt: "You are a careful, concise coding assistant. Use tools when they " +
				"help you answer accurately.",
			AvailableTools: []string{
				"read_file", "write_file", "edit_file", "list_directory",
				"grep", "glob", "shell_command", "share_your_reasoning",
				"invoke_agent", "list_agents",
			},
		},
		{
			Name:        "researcher",
			DisplayName: "Researcher",
			Description: "Read-only agent for investigating a workspace without modifying it.",
			SystemPrompt: "You investigate the workspace and answer questions. You never " +
				"modify files.",
			AvailableTools: []string{"read_file", "list_directory", "grep", "glob"},
		},
	}
}
