// Package bridge translates the raw, low-level stream events emitted by the
// model runtime into the semantic Message values carried on the bus,
// tracking per-tool-call state across the fragments of one streaming run.
package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nexuscore/agent/pkg/bus"
	"github.com/nexuscore/agent/pkg/models"
)

// toolState is the bridge-local record for one in-flight tool call, keyed by
// the call id or, when the provider omits one, a synthetic
// "<tool_name>_<index>" key.
type toolState struct {
	toolName   string
	callID     string // empty when the provider never supplied one
	argsBuffer []byte
}

// Bridge owns one agent run's tool-call tracking and publishes onto a bus.
// A Bridge is not safe for concurrent use by multiple goroutines; a run's
// events are expected to arrive on a single consumer.
type Bridge struct {
	sender      bus.Sender
	agentName   string
	displayName string
	logger      *slog.Logger

	firstTextSent bool

	states      map[string]*toolState
	insertOrder []string // keys in insertion order, for the no-id delta fallback
	nextIndex   int      // monotonic counter for synthetic keys
}

// New creates a bridge that publishes onto sender as agentName/displayName.
// logger may be nil.
func New(sender bus.Sender, agentName, displayName string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		sender:      sender,
		agentName:   agentName,
		displayName: displayName,
		logger:      logger.With("component", "bridge", "agent", agentName),
		states:      make(map[string]*toolState),
	}
}

// Reset clears first_text_sent and the tool-state map so the bridge can be
// reused for a second run. A bridge that has processed a complete run
// produces identical output on replay after Reset.
func (b *Bridge) Reset() {
	b.firstTextSent = false
	b.states = make(map[string]*toolState)
	b.insertOrder = nil
	b.nextIndex = 0
}

// AgentStarted publishes Agent.Started for this bridge's identity.
func (b *Bridge) AgentStarted() {
	b.sender.Send(bus.NewAgentStarted(b.agentName, b.displayName))
}

// AgentCompleted publishes Agent.Completed for this bridge's identity.
func (b *Bridge) AgentCompleted(runID string) {
	b.sender.Send(bus.NewAgentCompleted(b.agentName, b.displayName, runID))
}

// AgentError publishes Agent.Error for this bridge's identity.
func (b *Bridge) AgentError(msg string) {
	b.sender.Send(bus.NewAgentError(b.agentName, b.displayName, msg))
}

// Handle consumes one raw stream event, updating tool-call state and
// publishing zero or one bus Message as a side effect. Unknown or malformed
// input is logged and otherwise ignored, never returned as an error: the
// bridge's job is to keep producing a best-effort live view of the run.
func (b *Bridge) Handle(ev models.StreamEvent) {
	switch ev.Kind {
	case models.StreamRunStart, models.StreamRequestStart,
		models.StreamResponseComplete, models.StreamOutputReady, models.StreamRunComplete:
		// Internal bookkeeping only; nothing is published.

	case models.StreamTextDelta:
		b.firstTextSent = true
		b.sender.Send(bus.NewTextDelta(ev.Text, b.agentName))

	case models.StreamThinkingDelta:
		b.sender.Send(bus.NewThinking(ev.Text, b.agentName))

	case models.StreamToolCallStart:
		key := b.insert(ev.ToolName, ev.ToolCallID)
		b.sender.Send(bus.NewToolStartedMsg(ev.ToolName, ev.ToolCallID, b.agentName))
		_ = key

	case models.StreamToolCallDelta:
		b.appendDelta(ev.ToolCallID, ev.Delta)

	case models.StreamToolCallComplete:
		key, st := b.resolve(ev.ToolCallID, ev.ToolName)
		var args json.RawMessage
		if st != nil {
			if parsed, ok := parseArgs(st.argsBuffer); ok {
				args = parsed
			}
		}
		_ = key
		b.sender.Send(bus.NewToolExecuting(ev.ToolName, ev.ToolCallID, args, b.agentName))

	case models.StreamToolExecuted:
		key, _ := b.resolve(ev.ToolCallID, ev.ToolName)
		if key != "" {
			b.drop(key)
		}
		if ev.Success {
			b.sender.Send(bus.NewToolCompleted(ev.ToolName, ev.ToolCallID, b.agentName))
		} else {
			errMsg := ev.Error
			if errMsg == "" {
				errMsg = "Unknown error"
			}
			b.sender.Send(bus.NewToolFailed(ev.ToolName, ev.ToolCallID, errMsg, b.agentName))
		}

	case models.StreamError:
		b.AgentError(ev.Message)

	default:
		b.logger.Warn("unhandled stream event", "kind", ev.Kind)
	}
}

// insert records a new in-flight tool call and returns its key.
func (b *Bridge) insert(toolName, callID string) string {
	key := callID
	if key == "" {
		key = fmt.Sprintf("%s_%d", toolName, b.nextIndex)
		b.nextIndex++
	}
	b.states[key] = &toolState{toolName: toolName, callID: callID}
	b.insertOrder = append(b.insertOrder, key)
	return key
}

// appendDelta appends a JSON argument fragment to the state addressed by
// callID, falling back to the most recently inserted entry when callID is
// empty (the provider did not supply one for this delta). A delta addressed
// to an unknown id is silently dropped: it may have arrived after the state
// was already cleaned up by ToolExecuted.
func (b *Bridge) appendDelta(callID, delta string) {
	if callID != "" {
		if st, ok := b.states[callID]; ok {
			st.argsBuffer = append(st.argsBuffer, delta...)
			return
		}
		return
	}
	if len(b.insertOrder) == 0 {
		return
	}
	lastKey := b.insertOrder[len(b.insertOrder)-1]
	if st, ok := b.states[lastKey]; ok {
		st.argsBuffer = append(st.argsBuffer, delta...)
	}
}

// resolve finds the key/state for an id-or-name addressed event: by call id
// when supplied, otherwise by searching for the most recently inserted entry
// with a matching tool name.
func (b *Bridge) resolve(callID, toolName string) (string, *toolState) {
	if callID != "" {
		if st, ok := b.states[callID]; ok {
			return callID, st
		}
		return callID, nil
	}
	for i := len(b.insertOrder) - 1; i >= 0; i-- {
		key := b.insertOrder[i]
		if st, ok := b.states[key]; ok && st.toolName == toolName {
			return key, st
		}
	}
	return "", nil
}

func (b *Bridge) drop(key string) {
	delete(b.states, key)
	for i, k := range b.insertOrder {
		if k == key {
			b.insertOrder = append(b.insertOrder[:i], b.insertOrder[i+1:]...)
			break
		}
	}
}

// parseArgs attempts to parse buf as a complete JSON document. Malformed
// JSON yields (nil, false) rather than an error: the bridge must emit
// Tool.Executing{args: nil} instead of failing the run.
func parseArgs(buf []byte) (json.RawMessage, bool) {
	if len(buf) == 0 {
		return nil, false
	}
	if !json.Valid(buf) {
		return nil, false
	}
	out := make(json.RawMessage, len(buf))
	copy(out, buf)
	return out, true
}
