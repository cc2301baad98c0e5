package mcp

import (
	"encoding/json"

	"github.com/nexuscore/agent/internal/agent"
)

// ToolSummary is a lightweight, display-oriented description of one bridged
// MCP tool: enough to list available tools without constructing the full
// agent.Tool adapter.
type ToolSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema,omitempty"`
	Source      string          `json:"source"`
	Namespace   string          `json:"namespace"`
	Canonical   string          `json:"canonical"`
}

// ToolSummaries returns metadata for every MCP tool and server-level
// resource/prompt bridge, using the same safe-naming pass as ToolSource.
func ToolSummaries(mgr *Manager) []ToolSummary {
	if mgr == nil {
		return nil
	}

	tools := listToolsSorted(mgr)
	used := make(map[string]struct{})
	summaries := make([]ToolSummary, 0, len(tools))

	for _, entry := range tools {
		name := safeToolName(entry.serverID, entry.tool.Name, used)
		summaries = append(summaries, ToolSummary{
			Name:        name,
			Description: entry.tool.Description,
			Schema:      entry.tool.InputSchema,
			Source:      "mcp",
			Namespace:   entry.serverID,
			Canonical:   canonicalToolName(entry.serverID, entry.tool.Name),
		})
	}

	for _, serverID := range listServerIDs(mgr) {
		resListName := safeToolName(serverID, "resources_list", used)
		resReadName := safeToolName(serverID, "resource_read", used)
		promptListName := safeToolName(serverID, "prompts_list", used)
		promptGetName := safeToolName(serverID, "prompt_get", used)

		resList := NewResourceListBridge(mgr, serverID, resListName)
		resRead := NewResourceReadBridge(mgr, serverID, resReadName)
		promptList := NewPromptListBridge(mgr, serverID, promptListName)
		promptGet := NewPromptGetBridge(mgr, serverID, promptGetName)

		summaries = append(summaries,
			toolSummaryFromDef(resList.Definition(), "mcp", serverID, canonicalResourceList(serverID)),
			toolSummaryFromDef(resRead.Definition(), "mcp", serverID, canonicalResourceRead(serverID)),
			toolSummaryFromDef(promptList.Definition(), "mcp", serverID, canonicalPromptList(serverID)),
			toolSummaryFromDef(promptGet.Definition(), "mcp", serverID, canonicalPromptGet(serverID)),
		)
	}

	return summaries
}

func toolSummaryFromDef(def agent.ToolDefinition, source, namespace, canonical string) ToolSummary {
	return ToolSummary{
		Name:        def.Name,
		Description: def.Description,
		Schema:      def.InputSchema,
		Source:      source,
		Namespace:   namespace,
		Canonical:   canonical,
	}
}
