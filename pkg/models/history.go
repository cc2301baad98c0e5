package models

import "encoding/json"

// Role discriminates the three shapes a canonical history Request can take.
type Role string

const (
	RoleUser       Role = "user"
	RoleModel      Role = "model"
	RoleToolReturn Role = "tool_return"
)

// ContentPartKind discriminates a UserPart's payload.
type ContentPartKind string

const (
	PartText  ContentPartKind = "text"
	PartImage ContentPartKind = "image"
)

// UserPart is one piece of user-turn content: either text or an image
// carrying its media type (e.g. "image/png") alongside base64-or-opaque data.
type UserPart struct {
	Kind      ContentPartKind `json:"kind"`
	Text      string          `json:"text,omitempty"`
	MediaType string          `json:"media_type,omitempty"`
	Data      string          `json:"data,omitempty"`
}

// TextPart builds a text UserPart.
func TextPart(text string) UserPart { return UserPart{Kind: PartText, Text: text} }

// ImagePart builds an image UserPart.
func ImagePart(mediaType, data string) UserPart {
	return UserPart{Kind: PartImage, MediaType: mediaType, Data: data}
}

// ToolCallPart is one tool invocation requested by a model response. Args is
// the incrementally-built JSON argument document; it is only guaranteed
// complete once the response's ResponseComplete has flushed.
type ToolCallPart struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolReturnPart ties a tool-call part to its eventual result by call id. For
// calls without a supplied id, ToolCallID is empty.
type ToolReturnPart struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IsError reports whether this return represents a tool failure.
func (p ToolReturnPart) IsError() bool { return p.Error != "" }

// Request is one element of the canonical message history: a user turn, a
// model response, or a tool-return turn. Exactly one of the part slices is
// populated, matching Role.
//
// Invariant: every ToolCallPart emitted in a ModelResponse Request must be
// followed, before the next ModelResponse, by exactly one ToolReturnPart
// with the same call id in the next Request.
type Request struct {
	Role Role `json:"role"`

	// User turn.
	UserParts []UserPart `json:"user_parts,omitempty"`

	// Model response.
	Text      string         `json:"text,omitempty"`
	ToolCalls []ToolCallPart `json:"tool_calls,omitempty"`

	// Tool-return turn.
	ToolReturns []ToolReturnPart `json:"tool_returns,omitempty"`
}

// NewUserRequest builds a user-turn Request from one or more parts.
func NewUserRequest(parts ...UserPart) Request {
	return Request{Role: RoleUser, UserParts: parts}
}

// NewUserTextRequest is shorthand for a single-text user turn.
func NewUserTextRequest(text string) Request {
	return NewUserRequest(TextPart(text))
}

// NewModelResponse builds a model-response Request. text may be empty when
// the response is tool-calls only.
func NewModelResponse(text string, calls []ToolCallPart) Request {
	return Request{Role: RoleModel, Text: text, ToolCalls: calls}
}

// NewToolReturnRequest builds a tool-return turn from one or more returns.
func NewToolReturnRequest(returns ...ToolReturnPart) Request {
	return Request{Role: RoleToolReturn, ToolReturns: returns}
}

// History is the ordered sequence of Requests the executor reconstructs from
// a streamed run and hands back to the caller.
type History []Request

// AgentDescriptor is the immutable-during-a-run description of an agent: its
// persona, system prompt, and the ordered tool names it is allowed to use.
// Persistence and authoring of descriptors is external to the core.
type AgentDescriptor struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"display_name"`
	Description     string   `json:"description"`
	SystemPrompt    string   `json:"system_prompt"`
	AvailableTools  []string `json:"available_tools"`
	AttachedServers []string `json:"attached_servers,omitempty"`
}
