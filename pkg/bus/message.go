// Package bus implements the broadcast message bus that carries live run
// events from the agent executor to any number of independent subscribers
// (terminal renderers, the NDJSON bridge, test harnesses).
package bus

import "encoding/json"

// Kind discriminates the Message tagged union. JSON encodes it under the
// "type" key in snake_case.
type Kind string

const (
	KindTextDelta Kind = "text_delta"
	KindThinking  Kind = "thinking"
	KindTool      Kind = "tool"
	KindAgent     Kind = "agent"
	KindText      Kind = "text"
	KindResponse  Kind = "response"
	KindDivider   Kind = "divider"
	KindClear     Kind = "clear"
)

// ToolStatus is the per-call lifecycle state carried by Tool messages.
// ArgsStreaming is internal to the bridge and is never observed on the bus.
type ToolStatus string

const (
	ToolStarted   ToolStatus = "started"
	ToolExecuting ToolStatus = "executing"
	ToolCompleted ToolStatus = "completed"
	ToolFailed    ToolStatus = "failed"
)

// AgentEventKind distinguishes the three Agent lifecycle events.
type AgentEventKind string

const (
	AgentStarted   AgentEventKind = "started"
	AgentCompleted AgentEventKind = "completed"
	AgentErrored   AgentEventKind = "error"
)

// TextLevel is the severity of a Text message.
type TextLevel string

const (
	LevelInfo    TextLevel = "info"
	LevelSuccess TextLevel = "success"
	LevelWarning TextLevel = "warning"
	LevelError   TextLevel = "error"
	LevelDebug   TextLevel = "debug"
)

// Message is the single type carried by the bus. Exactly one of the
// Kind-specific field groups is populated for any given Type. It marshals to
// a single JSON object tagged by its "type" field; fields that are empty/zero are omitted
// rather than emitted as null or empty string, matching the wire contract
// external subscribers (e.g. the NDJSON bridge) depend on.
type Message struct {
	Type Kind `json:"type"`

	// TextDelta / Thinking
	Text      string `json:"text,omitempty"`
	AgentName string `json:"agent_name,omitempty"`

	// Tool
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Status     ToolStatus      `json:"status,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     string          `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`

	// Agent
	DisplayName string         `json:"display_name,omitempty"`
	Event       AgentEventKind `json:"event,omitempty"`
	RunID       string         `json:"run_id,omitempty"`

	// Text (log-style)
	Level TextLevel `json:"level,omitempty"`

	// Response
	Content      string `json:"content,omitempty"`
	IsStreaming  bool   `json:"is_streaming,omitempty"`
}

// NewTextDelta builds a TextDelta message. agentName may be empty for the
// top-level run.
func NewTextDelta(text, agentName string) Message {
	return Message{Type: KindTextDelta, Text: text, AgentName: agentName}
}

// NewThinking builds a Thinking message.
func NewThinking(text, agentName string) Message {
	return Message{Type: KindThinking, Text: text, AgentName: agentName}
}

// NewToolStartedMsg builds a Tool message in the Started state.
func NewToolStartedMsg(toolName, callID, agentName string) Message {
	return Message{Type: KindTool, ToolName: toolName, ToolCallID: callID, Status: ToolStarted, AgentName: agentName}
}

// NewToolExecuting builds a Tool message in the Executing state. args may be
// nil when argument parsing failed.
func NewToolExecuting(toolName, callID string, args json.RawMessage, agentName string) Message {
	return Message{Type: KindTool, ToolName: toolName, ToolCallID: callID, Status: ToolExecuting, Args: args, AgentName: agentName}
}

// NewToolCompleted builds a Tool message in the Completed state.
func NewToolCompleted(toolName, callID, agentName string) Message {
	return Message{Type: KindTool, ToolName: toolName, ToolCallID: callID, Status: ToolCompleted, AgentName: agentName}
}

// NewToolFailed builds a Tool message in the Failed state.
func NewToolFailed(toolName, callID, errMsg, agentName string) Message {
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	return Message{Type: KindTool, ToolName: toolName, ToolCallID: callID, Status: ToolFailed, Error: errMsg, AgentName: agentName}
}

// NewAgentStarted builds an Agent.Started message.
func NewAgentStarted(name, displayName string) Message {
	return Message{Type: KindAgent, AgentName: name, DisplayName: displayName, Event: AgentStarted}
}

// NewAgentCompleted builds an Agent.Completed message.
func NewAgentCompleted(name, displayName, runID string) Message {
	return Message{Type: KindAgent, AgentName: name, DisplayName: displayName, Event: AgentCompleted, RunID: runID}
}

// NewAgentError builds an Agent.Error message.
func NewAgentError(name, displayName, msg string) Message {
	return Message{Type: KindAgent, AgentName: name, DisplayName: displayName, Event: AgentErrored, Error: msg}
}

// NewTextInfo, NewTextSuccess, NewTextWarning, NewTextError, NewTextDebug build
// log-style Text messages at the named severity.
func NewTextInfo(text string) Message    { return Message{Type: KindText, Level: LevelInfo, Text: text} }
func NewTextSuccess(text string) Message { return Message{Type: KindText, Level: LevelSuccess, Text: text} }
func NewTextWarning(text string) Message { return Message{Type: KindText, Level: LevelWarning, Text: text} }
func NewTextError(text string) Message   { return Message{Type: KindText, Level: LevelError, Text: text} }
func NewTextDebug(text string) Message   { return Message{Type: KindText, Level: LevelDebug, Text: text} }

// NewResponse builds a final Response message.
func NewResponse(content string, isStreaming bool) Message {
	return Message{Type: KindResponse, Content: content, IsStreaming: isStreaming}
}

// NewDivider and NewClear build the two control messages.
func NewDivider() Message { return Message{Type: KindDivider} }
func NewClear() Message   { return Message{Type: KindClear} }
