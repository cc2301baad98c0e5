// Package reasoning implements the share_your_reasoning tool: a tool that
// exists purely so a model can externalize its chain of thought as an
// ordinary tool call, for agents that have show_reasoning enabled (spec.md
// §4.F.2's tool-filtering rule keys directly off this tool's name).
package reasoning

import (
	"context"
	"encoding/json"

	"github.com/nexuscore/agent/internal/agent"
)

// Tool accepts the reasoning text and returns a fixed acknowledgement; it
// stores nothing and has no side effects. The reasoning reaches the bus only
// as the arguments of the tool call.
type Tool struct{}

// New creates a share_your_reasoning tool.
func New() *Tool { return &Tool{} }

func (t *Tool) Definition() agent.ToolDefinition {
	return agent.ToolDefinition{
		Name:        "share_your_reasoning",
		Description: "Share your step-by-step reasoning before taking an action, for transparency.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"reasoning":{"type":"string","description":"the reasoning to surface"}},"required":["reasoning"]}`),
	}
}

func (t *Tool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	var in struct {
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return agent.ErrorReturn("invalid arguments: " + err.Error()), nil
	}
	return agent.Text("reasoning recorded"), nil
}
