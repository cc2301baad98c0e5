package models

// StreamEventKind enumerates the raw, low-level events the model runtime
// emits during one streaming run. These are internal to the event bridge and
// stream processor (spec §4.D/§4.E); they never reach the bus directly.
type StreamEventKind string

const (
	StreamRunStart         StreamEventKind = "run_start"
	StreamRequestStart     StreamEventKind = "request_start"
	StreamTextDelta        StreamEventKind = "text_delta"
	StreamThinkingDelta    StreamEventKind = "thinking_delta"
	StreamToolCallStart    StreamEventKind = "tool_call_start"
	StreamToolCallDelta    StreamEventKind = "tool_call_delta"
	StreamToolCallComplete StreamEventKind = "tool_call_complete"
	StreamToolExecuted     StreamEventKind = "tool_executed"
	StreamResponseComplete StreamEventKind = "response_complete"
	StreamOutputReady      StreamEventKind = "output_ready"
	StreamRunComplete      StreamEventKind = "run_complete"
	StreamError            StreamEventKind = "error"
)

// StreamEvent is the single type the model runtime emits on its raw event
// stream. Exactly one of the Kind-specific field groups is populated.
type StreamEvent struct {
	Kind StreamEventKind

	// RunStart / RunComplete
	RunID string

	// RequestStart
	Step int

	// TextDelta / ThinkingDelta
	Text string

	// ToolCallStart / ToolCallDelta / ToolCallComplete / ToolExecuted
	ToolName   string
	ToolCallID string // empty means "not supplied by the provider"
	Delta      string // ToolCallDelta only: a fragment of the JSON args document

	// ToolExecuted
	Success bool
	Error   string

	// Error
	Message string
}
