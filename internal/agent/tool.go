package agent

import (
	"context"
	"encoding/json"
)

// ToolDefinition is the public, model-facing description of a tool: name
// (snake_case), a human description (at least ten characters), and a
// JSON-schema of its arguments with "type":"object" at the root.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolReturnKind distinguishes the three shapes a tool's successful return
// can take.
type ToolReturnKind string

const (
	ReturnText  ToolReturnKind = "text"
	ReturnJSON  ToolReturnKind = "json"
	ReturnError ToolReturnKind = "error"
)

// ToolReturn is what a tool call yields when it executes, regardless of
// whether the call is a semantic success or failure. A tool that could not
// execute at all returns a *ToolError instead.
type ToolReturn struct {
	Kind ToolReturnKind
	Text string
	JSON json.RawMessage
}

// Text builds a successful text return.
func Text(s string) ToolReturn { return ToolReturn{Kind: ReturnText, Text: s} }

// JSONReturn builds a successful JSON return from any marshalable value.
func JSONReturn(v any) ToolReturn {
	data, err := json.Marshal(v)
	if err != nil {
		return ToolReturn{Kind: ReturnError, Text: err.Error()}
	}
	return ToolReturn{Kind: ReturnJSON, JSON: data}
}

// ErrorReturn builds a semantic failure: the tool executed, but the call
// itself failed (e.g. "file not found"). The model sees this as ordinary
// tool output and may react to it.
func ErrorReturn(msg string) ToolReturn { return ToolReturn{Kind: ReturnError, Text: msg} }

// Content renders the return as the string handed back to the model.
func (r ToolReturn) Content() string {
	if r.Kind == ReturnJSON {
		return string(r.JSON)
	}
	return r.Text
}

// IsError reports whether this return represents a semantic tool failure.
func (r ToolReturn) IsError() bool { return r.Kind == ReturnError }

// Tool is the uniform contract every tool (built-in, MCP-backed, or a meta
// tool like invoke_agent) satisfies.
type Tool interface {
	Definition() ToolDefinition
	Call(ctx context.Context, args json.RawMessage) (ToolReturn, error)
}

// ExecutionFailed reports that a tool could not execute at all (bad
// arguments, a transport failure) as opposed to executing and reporting a
// semantic failure via ToolReturn. Registry.Execute also reports a missing
// tool as a *ToolError of type ToolErrorNotFound, and Executor reports
// timeouts and panics as *ToolError values of their own types; callers may
// still see other error types bubble up from ctx cancellation.
func ExecutionFailed(toolName, message string, retryable bool) *ToolError {
	return &ToolError{
		Type:      ToolErrorExecution,
		ToolName:  toolName,
		Message:   message,
		Retryable: retryable,
	}
}
