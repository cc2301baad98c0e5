// Package ndjson implements the bridge renderer (spec.md §4.I): one example
// bus subscriber that maps Message values to newline-delimited JSON records
// on stdout, and parses a complementary newline-delimited JSON command
// protocol on stdin. Framing follows the teacher's
// internal/mcp.StdioTransport: one JSON object per line, read via a
// bufio.Scanner with an enlarged buffer.
package ndjson

import (
	"encoding/json"

	"github.com/nexuscore/agent/pkg/bus"
)

// OutboundType discriminates the outbound NDJSON record shapes.
type OutboundType string

const (
	OutReady            OutboundType = "ready"
	OutTextDelta        OutboundType = "text_delta"
	OutThinkingDelta    OutboundType = "thinking_delta"
	OutToolCallStart    OutboundType = "tool_call_start"
	OutToolCallDelta    OutboundType = "tool_call_delta"
	OutToolCallComplete OutboundType = "tool_call_complete"
	OutToolExecuted     OutboundType = "tool_executed"
	OutRequestStart     OutboundType = "request_start"
	OutComplete         OutboundType = "complete"
	OutError            OutboundType = "error"
	OutAgentChanged     OutboundType = "agent_changed"
	OutModelChanged     OutboundType = "model_changed"
	OutMCPStatus        OutboundType = "mcp_status"
)

// Record is one outbound NDJSON line. Exactly one of the type-specific
// field groups is populated for any given Type; omitted fields are left out
// of the encoded JSON rather than emitted as null (scenario 5: a
// ToolCallStart with no call id must not contain the "tool_call_id" key at
// all).
type Record struct {
	Type OutboundType `json:"type"`

	Text       string          `json:"text,omitempty"`
	AgentName  string          `json:"agent_name,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     string          `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Success    bool            `json:"success,omitempty"`
	RunID      string          `json:"run_id,omitempty"`
	Content    string          `json:"content,omitempty"`
	ModelName  string          `json:"model_name,omitempty"`
	Servers    []string        `json:"servers,omitempty"`
}

// MapMessage maps one bus.Message to zero or one outbound Records. Some
// messages reduce to silence: Agent.Started produces no record (downstream
// infers agent activity from the first content message), and
// ToolStatus::ArgsStreaming never reaches the bus in the first place so it
// never needs a mapping here.
func MapMessage(msg bus.Message) (Record, bool) {
	switch msg.Type {
	case bus.KindTextDelta:
		return Record{Type: OutTextDelta, Text: msg.Text, AgentName: msg.AgentName}, true
	case bus.KindThinking:
		return Record{Type: OutThinkingDelta, Text: msg.Text, AgentName: msg.AgentName}, true
	case bus.KindTool:
		return mapTool(msg)
	case bus.KindAgent:
		return mapAgent(msg)
	case bus.KindResponse:
		return Record{Type: OutComplete, Content: msg.Content}, true
	case bus.KindText:
		if msg.Level == bus.LevelError {
			return Record{Type: OutError, Error: msg.Text}, true
		}
		return Record{}, false
	default:
		// Divider/Clear carry no external-UI meaning in this protocol.
		return Record{}, false
	}
}

func mapTool(msg bus.Message) (Record, bool) {
	switch msg.Status {
	case bus.ToolStarted:
		return Record{Type: OutToolCallStart, ToolName: msg.ToolName, ToolCallID: msg.ToolCallID, AgentName: msg.AgentName}, true
	case bus.ToolExecuting:
		return Record{Type: OutToolCallComplete, ToolName: msg.ToolName, ToolCallID: msg.ToolCallID, Args: msg.Args, AgentName: msg.AgentName}, true
	case bus.ToolCompleted:
		return Record{Type: OutToolExecuted, ToolName: msg.ToolName, ToolCallID: msg.ToolCallID, Success: true, AgentName: msg.AgentName}, true
	case bus.ToolFailed:
		return Record{Type: OutToolExecuted, ToolName: msg.ToolName, ToolCallID: msg.ToolCallID, Success: false, Error: msg.Error, AgentName: msg.AgentName}, true
	default:
		return Record{}, false
	}
}

func mapAgent(msg bus.Message) (Record, bool) {
	switch msg.Event {
	case bus.AgentStarted:
		// External UIs infer agent activity from the first content message.
		return Record{}, false
	case bus.AgentCompleted:
		return Record{Type: OutAgentChanged, AgentName: msg.AgentName, RunID: msg.RunID}, true
	case bus.AgentErrored:
		return Record{Type: OutError, AgentName: msg.AgentName, Error: msg.Error}, true
	default:
		return Record{}, false
	}
}
