package ndjson

import (
	"encoding/json"
	"fmt"
)

// InboundType discriminates the inbound NDJSON command shapes.
type InboundType string

const (
	InPrompt       InboundType = "prompt"
	InCancel       InboundType = "cancel"
	InSwitchAgent  InboundType = "switch_agent"
	InSwitchModel  InboundType = "switch_model"
	InMCPStart     InboundType = "mcp_start"
	InMCPStop      InboundType = "mcp_stop"
	InMCPList      InboundType = "mcp_list"
	InToolResponse InboundType = "tool_response"
	InShutdown     InboundType = "shutdown"
)

// Command is one parsed inbound NDJSON line. Unknown fields in the source
// JSON are ignored (forward compatibility); an unknown Type is rejected by
// ParseCommand rather than producing a zero-value Command.
type Command struct {
	Type InboundType `json:"type"`

	Text      string `json:"text,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Model     string `json:"model,omitempty"`
	Server    string `json:"server,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Response  string `json:"response,omitempty"`
}

var validInboundTypes = map[InboundType]bool{
	InPrompt: true, InCancel: true, InSwitchAgent: true, InSwitchModel: true,
	InMCPStart: true, InMCPStop: true, InMCPList: true, InToolResponse: true,
	InShutdown: true,
}

// ParseCommand decodes one NDJSON line into a Command, rejecting malformed
// JSON and unrecognized types with a descriptive error so the caller can
// emit an error Record in response.
func ParseCommand(line []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return Command{}, fmt.Errorf("malformed json: %w", err)
	}
	if !validInboundTypes[cmd.Type] {
		return Command{}, fmt.Errorf("unknown command type %q", cmd.Type)
	}
	return cmd, nil
}
