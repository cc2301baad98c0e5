// Package subagent implements the invoke_agent and list_agents meta tools
// (spec §4.G): the mechanism by which one agent run recursively instantiates
// the executor to delegate a task to another configured agent.
//
// invoke_agent never holds a compile-time reference back into the parent
// executor. Instead it carries a database path (thread-safe to pass around)
// and asks an ExecutorFactory for a brand new Executor bound to its own,
// freshly-opened session handle, exactly because that handle is pinned to
// whichever goroutine opened it and cannot be shared across the boundary.
package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/executor"
	"github.com/nexuscore/agent/pkg/models"
)

// SessionHandle loads prior conversation history for one sub-agent session.
// A handle is not safe for concurrent use and is scoped to a single
// invoke_agent call.
type SessionHandle interface {
	LoadHistory(sessionID string) (models.History, error)
	Close() error
}

// SessionStore opens a fresh SessionHandle against dbPath. Implementations
// must be safe to call concurrently even though the handles they hand out
// are not.
type SessionStore interface {
	Open(dbPath string) (SessionHandle, error)
}

// ExecutorFactory builds a fresh *executor.Executor bound to its own
// database handle. Every invoke_agent call gets a new one: the database
// connection backing agent/model state is not safely shareable across
// threads, so each sub-agent invocation opens a new one rather than reusing
// the parent's.
type ExecutorFactory interface {
	NewExecutor(dbPath string) (*executor.Executor, error)
}

// Manager wires the fixed, host-session-level parameters every invoke_agent
// call needs but that are not part of an individual executor.Request: where
// session history lives, and which model the host session is currently
// running (the sub-agent's default, absent a more specific signal).
type Manager struct {
	DBPath       string
	CurrentModel string
	ExecFactory  ExecutorFactory
	Sessions     SessionStore
	Logger       *slog.Logger
}

// InvokeAgentTool implements executor.MetaToolBuilder.
func (m *Manager) InvokeAgentTool(e *executor.Executor) agent.Tool {
	return &invokeAgentTool{mgr: m}
}

// ListAgentsTool implements executor.MetaToolBuilder.
func (m *Manager) ListAgentsTool(e *executor.Executor) agent.Tool {
	return &listAgentsTool{agents: e.AgentManager()}
}

func (m *Manager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

type invokeAgentArgs struct {
	AgentName string `json:"agent_name"`
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

type invokeAgentTool struct {
	mgr *Manager
}

func (t *invokeAgentTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "invoke_agent",
		Description: "Delegate a task to another configured agent and return its final response.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"agent_name":{"type":"string","description":"the agent to invoke"},"prompt":{"type":"string","description":"the task to hand off"},"session_id":{"type":"string","description":"continue an existing sub-agent session instead of starting fresh"}},"required":["agent_name","prompt"]}`),
	}
}

// Call resolves the target agent, loads or starts a session, and runs a
// fresh executor against it. Any internal failure is repacked as
// ExecutionFailed so the parent model sees an ordinary tool error.
func (t *invokeAgentTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in invokeAgentArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", "invalid arguments: "+err.Error(), false)
	}
	if in.AgentName == "" || in.Prompt == "" {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", "agent_name and prompt are required", false)
	}

	sessionID := in.SessionID
	fresh := sessionID == ""
	if fresh {
		sessionID = uuid.NewString()
	}

	handle, err := t.mgr.Sessions.Open(t.mgr.DBPath)
	if err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", "opening session store: "+err.Error(), true)
	}
	defer handle.Close()

	var history models.History
	if !fresh {
		history, err = handle.LoadHistory(sessionID)
		if err != nil {
			t.mgr.logger().Warn("invoke_agent: loading session history failed, starting fresh",
				"session_id", sessionID, "error", err)
			history = nil
		}
	}

	exec, err := t.mgr.ExecFactory.NewExecutor(t.mgr.DBPath)
	if err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", "constructing sub-agent executor: "+err.Error(), true)
	}

	am := exec.AgentManager()
	if am == nil {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", "no agent manager configured", false)
	}
	desc, ok := am.Resolve(in.AgentName)
	if !ok {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", fmt.Sprintf("unknown agent %q", in.AgentName), false)
	}

	// Effective model (spec §4.G): the per-agent pinned model from settings
	// takes precedence; otherwise fall back to the parent's current model.
	modelName := t.mgr.CurrentModel
	if name, ok := executor.ModelNameFromContext(ctx); ok && name != "" {
		modelName = name
	}
	if settings := exec.Settings(); settings != nil {
		if pinned, ok := settings.GetAgentPinnedModel(in.AgentName); ok && pinned != "" {
			modelName = pinned
		}
	}

	req := executor.Request{
		Agent:     desc,
		ModelName: modelName,
		History:   history,
		Prompt:    in.Prompt,
		RunOpts:   agent.DefaultRunOptions(),
	}

	var result executor.RunResult
	if sender, ok := executor.SenderFromContext(ctx); ok {
		result, err = exec.ExecuteWithBus(ctx, req, sender)
	} else {
		result, err = exec.Execute(ctx, req)
	}
	if err != nil {
		return agent.ToolReturn{}, agent.ExecutionFailed("invoke_agent", err.Error(), true)
	}

	t.mgr.logger().Debug("invoke_agent completed", "agent", in.AgentName, "session_id", sessionID)

	return agent.JSONReturn(map[string]any{
		"agent":      in.AgentName,
		"response":   result.Output,
		"session_id": sessionID,
		"success":    true,
	}), nil
}

type agentSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

type listAgentsTool struct {
	agents executor.AgentManager
}

func (t *listAgentsTool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "list_agents",
		Description: "List the agents available for delegation via invoke_agent.",
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}
}

func (t *listAgentsTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	if t.agents == nil {
		return agent.JSONReturn(map[string]any{"agents": []agentSummary{}, "count": 0}), nil
	}
	descs := t.agents.List()
	out := make([]agentSummary, 0, len(descs))
	for _, d := range descs {
		out = append(out, agentSummary{Name: d.Name, DisplayName: d.DisplayName, Description: d.Description})
	}
	return agent.JSONReturn(map[string]any{"agents": out, "count": len(out)}), nil
}
