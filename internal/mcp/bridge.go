package mcp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/nexuscore/agent/internal/agent"
)

const maxToolNameLen = 64

// ToolCaller defines the MCP tool execution contract used by the bridge.
type ToolCaller interface {
	CallTool(ctx context.Context, serverID, toolName string, arguments map[string]any) (*ToolCallResult, error)
}

// ResourceReader defines the MCP resource read contract used by the bridge.
type ResourceReader interface {
	ReadResource(ctx context.Context, serverID, uri string) ([]*ResourceContent, error)
}

// PromptGetter defines the MCP prompt get contract used by the bridge.
type PromptGetter interface {
	GetPrompt(ctx context.Context, serverID, name string, arguments map[string]string) (*GetPromptResult, error)
}

// ToolBridge wraps one MCP tool as an agent.Tool.
type ToolBridge struct {
	caller   ToolCaller
	serverID string
	tool     *MCPTool
	name     string
}

// NewToolBridge creates a bridge tool with a precomputed safe name.
func NewToolBridge(caller ToolCaller, serverID string, tool *MCPTool, safeName string) *ToolBridge {
	return &ToolBridge{caller: caller, serverID: serverID, tool: tool, name: safeName}
}

// Definition implements agent.Tool.
func (b *ToolBridge) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        b.name,
		Description: b.description(),
		InputSchema: b.schema(),
	}
}

func (b *ToolBridge) description() string {
	desc := strings.TrimSpace(b.tool.Description)
	if desc == "" {
		return fmt.Sprintf("MCP tool %s.%s", b.serverID, b.tool.Name)
	}
	return fmt.Sprintf("MCP tool %s.%s: %s", b.serverID, b.tool.Name, desc)
}

func (b *ToolBridge) schema() json.RawMessage {
	if len(b.tool.InputSchema) == 0 {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b.tool.InputSchema
}

// Call implements agent.Tool by invoking the MCP tool through the manager.
func (b *ToolBridge) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return agent.ToolReturn{}, agent.ExecutionFailed(b.name, "invalid arguments: "+err.Error(), false)
		}
	}

	result, err := b.caller.CallTool(ctx, b.serverID, b.tool.Name, arguments)
	if err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed(b.name, err.Error(), true)
	}

	content, isError := formatToolCallResult(result)
	if isError {
		return agent.ErrorReturn(content), nil
	}
	return agent.Text(content), nil
}

// ResourceListBridge exposes MCP resources/list as an agent.Tool.
type ResourceListBridge struct {
	lister   *Manager
	serverID string
	name     string
}

// NewResourceListBridge creates a resource list tool.
func NewResourceListBridge(mgr *Manager, serverID, safeName string) *ResourceListBridge {
	return &ResourceListBridge{lister: mgr, serverID: serverID, name: safeName}
}

func (b *ResourceListBridge) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        b.name,
		Description: fmt.Sprintf("List MCP resources for %s", b.serverID),
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}
}

func (b *ResourceListBridge) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	resources := b.lister.AllResources()[b.serverID]
	return agent.JSONReturn(resources), nil
}

// ResourceReadBridge exposes MCP resources/read as an agent.Tool.
type ResourceReadBridge struct {
	reader   ResourceReader
	serverID string
	name     string
}

// NewResourceReadBridge creates a resource read tool.
func NewResourceReadBridge(reader ResourceReader, serverID, safeName string) *ResourceReadBridge {
	return &ResourceReadBridge{reader: reader, serverID: serverID, name: safeName}
}

func (b *ResourceReadBridge) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        b.name,
		Description: fmt.Sprintf("Read an MCP resource from %s (provide uri)", b.serverID),
		InputSchema: json.RawMessage(`{"type":"object","properties":{"uri":{"type":"string"}},"required":["uri"]}`),
	}
}

func (b *ResourceReadBridge) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var input struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed(b.name, "invalid arguments: "+err.Error(), false)
	}
	if strings.TrimSpace(input.URI) == "" {
		return agent.ErrorReturn("uri is required"), nil
	}
	contents, err := b.reader.ReadResource(ctx, b.serverID, input.URI)
	if err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed(b.name, err.Error(), true)
	}
	content, isError := formatResourceContents(contents)
	if isError {
		return agent.ErrorReturn(content), nil
	}
	return agent.Text(content), nil
}

// PromptListBridge exposes MCP prompts/list as an agent.Tool.
type PromptListBridge struct {
	lister   *Manager
	serverID string
	name     string
}

// NewPromptListBridge creates a prompt list tool.
func NewPromptListBridge(mgr *Manager, serverID, safeName string) *PromptListBridge {
	return &PromptListBridge{lister: mgr, serverID: serverID, name: safeName}
}

func (b *PromptListBridge) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        b.name,
		Description: fmt.Sprintf("List MCP prompts for %s", b.serverID),
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}
}

func (b *PromptListBridge) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	prompts := b.lister.AllPrompts()[b.serverID]
	return agent.JSONReturn(prompts), nil
}

// PromptGetBridge exposes MCP prompts/get as an agent.Tool.
type PromptGetBridge struct {
	getter   PromptGetter
	serverID string
	name     string
}

// NewPromptGetBridge creates a prompt get tool.
func NewPromptGetBridge(getter PromptGetter, serverID, safeName string) *PromptGetBridge {
	return &PromptGetBridge{getter: getter, serverID: serverID, name: safeName}
}

func (b *PromptGetBridge) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        b.name,
		Description: fmt.Sprintf("Fetch an MCP prompt from %s (provide name, arguments)", b.serverID),
		InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"},"arguments":{"type":"object"}},"required":["name"]}`),
	}
}

func (b *PromptGetBridge) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var input struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments,omitempty"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed(b.name, "invalid arguments: "+err.Error(), false)
	}
	if strings.TrimSpace(input.Name) == "" {
		return agent.ErrorReturn("name is required"), nil
	}
	result, err := b.getter.GetPrompt(ctx, b.serverID, input.Name, input.Arguments)
	if err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed(b.name, err.Error(), true)
	}
	content, isError := formatPromptResult(result)
	if isError {
		return agent.ErrorReturn(content), nil
	}
	return agent.Text(content), nil
}

// ToolSource adapts a Manager into the executor's MCPToolSource interface,
// building the uniform agent.Tool set (real tools plus the four per-server
// resource/prompt bridges) with collision-safe names recomputed over the
// full manager state on every call.
type ToolSource struct {
	mgr *Manager
}

// NewToolSource wraps mgr.
func NewToolSource(mgr *Manager) *ToolSource { return &ToolSource{mgr: mgr} }

// ToolsForServers returns every bridged tool belonging to one of serverIDs.
// An empty serverIDs means "no attachment configured": per spec.md §4.F.3
// that resolves to every currently running server, not zero tools.
func (s *ToolSource) ToolsForServers(serverIDs []string) []agent.Tool {
	if s.mgr == nil {
		return nil
	}
	if len(serverIDs) == 0 {
		return s.allTools()
	}
	wanted := make(map[string]struct{}, len(serverIDs))
	for _, id := range serverIDs {
		wanted[id] = struct{}{}
	}

	all := s.allTools()
	out := make([]agent.Tool, 0)
	for _, t := range all {
		serverID := toolServerID(t)
		if _, ok := wanted[serverID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// serverTagged is implemented by every bridge type so ToolsForServers can
// filter the flat tool list back down by server id.
type serverTagged interface{ mcpServerID() string }

func (b *ToolBridge) mcpServerID() string         { return b.serverID }
func (b *ResourceListBridge) mcpServerID() string { return b.serverID }
func (b *ResourceReadBridge) mcpServerID() string { return b.serverID }
func (b *PromptListBridge) mcpServerID() string   { return b.serverID }
func (b *PromptGetBridge) mcpServerID() string    { return b.serverID }

func toolServerID(t agent.Tool) string {
	if st, ok := t.(serverTagged); ok {
		return st.mcpServerID()
	}
	return ""
}

// allTools builds the full, name-deduplicated tool set across every server
// the manager currently knows about.
func (s *ToolSource) allTools() []agent.Tool {
	mgr := s.mgr
	entries := listToolsSorted(mgr)
	used := make(map[string]struct{})
	out := make([]agent.Tool, 0, len(entries))

	for _, entry := range entries {
		name := safeToolName(entry.serverID, entry.tool.Name, used)
		out = append(out, NewToolBridge(mgr, entry.serverID, entry.tool, name))
	}

	for _, serverID := range listServerIDs(mgr) {
		resListName := safeToolName(serverID, "resources_list", used)
		resReadName := safeToolName(serverID, "resource_read", used)
		promptListName := safeToolName(serverID, "prompts_list", used)
		promptGetName := safeToolName(serverID, "prompt_get", used)

		out = append(out,
			NewResourceListBridge(mgr, serverID, resListName),
			NewResourceReadBridge(mgr, serverID, resReadName),
			NewPromptListBridge(mgr, serverID, promptListName),
			NewPromptGetBridge(mgr, serverID, promptGetName),
		)
	}
	return out
}

type toolEntry struct {
	serverID string
	tool     *MCPTool
}

func listToolsSorted(mgr *Manager) []toolEntry {
	all := mgr.AllTools()
	if len(all) == 0 {
		return nil
	}

	serverIDs := make([]string, 0, len(all))
	for id := range all {
		serverIDs = append(serverIDs, id)
	}
	sort.Strings(serverIDs)

	var entries []toolEntry
	for _, serverID := range serverIDs {
		tools := all[serverID]
		sort.Slice(tools, func(i, j int) bool {
			return tools[i].Name < tools[j].Name
		})
		for _, tool := range tools {
			entries = append(entries, toolEntry{serverID: serverID, tool: tool})
		}
	}
	return entries
}

func listServerIDs(mgr *Manager) []string {
	seen := make(map[string]struct{})
	for id := range mgr.AllTools() {
		seen[id] = struct{}{}
	}
	for id := range mgr.AllResources() {
		seen[id] = struct{}{}
	}
	for id := range mgr.AllPrompts() {
		seen[id] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func safeToolName(serverID, toolName string, used map[string]struct{}) string {
	base := "mcp_" + sanitizeToolPart(serverID) + "_" + sanitizeToolPart(toolName)
	name := base
	if len(name) > maxToolNameLen {
		name = truncateWithHash(base, serverID, toolName)
	}

	if _, exists := used[name]; exists {
		name = dedupeWithHash(name, serverID, toolName)
	}

	used[name] = struct{}{}
	return name
}

func sanitizeToolPart(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	underscore := false
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	clean := strings.Trim(b.String(), "_")
	if clean == "" {
		return "tool"
	}
	return clean
}

func toolNameHash(serverID, toolName string) string {
	sum := sha1.Sum([]byte(serverID + ":" + toolName))
	return hex.EncodeToString(sum[:])[:8]
}

func truncateWithHash(base, serverID, toolName string) string {
	suffix := "_" + toolNameHash(serverID, toolName)
	if maxToolNameLen <= len(suffix) {
		return suffix[len(suffix)-maxToolNameLen:]
	}
	trimLen := maxToolNameLen - len(suffix)
	if trimLen > len(base) {
		trimLen = len(base)
	}
	return base[:trimLen] + suffix
}

func dedupeWithHash(base, serverID, toolName string) string {
	suffix := "_" + toolNameHash(serverID, toolName)
	name := base + suffix
	if len(name) <= maxToolNameLen {
		return name
	}
	return truncateWithHash(base, serverID, toolName)
}

func formatToolCallResult(result *ToolCallResult) (string, bool) {
	if result == nil {
		return "", false
	}
	if len(result.Content) == 0 {
		return "", result.IsError
	}

	allText := true
	var combined strings.Builder
	for _, item := range result.Content {
		if item.Type != "text" {
			allText = false
			break
		}
		if item.Text == "" {
			continue
		}
		if combined.Len() > 0 {
			combined.WriteString("\n")
		}
		combined.WriteString(item.Text)
	}

	if allText && combined.Len() > 0 {
		return combined.String(), result.IsError
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", result.IsError
	}
	return string(payload), result.IsError
}

func formatResourceContents(contents []*ResourceContent) (string, bool) {
	if len(contents) == 0 {
		return "", false
	}
	if len(contents) == 1 && contents[0].Text != "" {
		return contents[0].Text, false
	}
	payload, err := json.Marshal(contents)
	if err != nil {
		return "", false
	}
	return string(payload), false
}

func formatPromptResult(result *GetPromptResult) (string, bool) {
	if result == nil || len(result.Messages) == 0 {
		return "", false
	}
	if len(result.Messages) == 1 && result.Messages[0].Content.Type == "text" {
		return result.Messages[0].Content.Text, false
	}
	payload, err := json.Marshal(result.Messages)
	if err != nil {
		return "", false
	}
	return string(payload), false
}

func canonicalToolName(serverID, toolName string) string {
	return fmt.Sprintf("mcp:%s.%s", serverID, toolName)
}

func canonicalResourceList(serverID string) string {
	return fmt.Sprintf("mcp:%s.resources.list", serverID)
}

func canonicalResourceRead(serverID string) string {
	return fmt.Sprintf("mcp:%s.resources.read", serverID)
}

func canonicalPromptList(serverID string) string {
	return fmt.Sprintf("mcp:%s.prompts.list", serverID)
}

func canonicalPromptGet(serverID string) string {
	return fmt.Sprintf("mcp:%s.prompts.get", serverID)
}
