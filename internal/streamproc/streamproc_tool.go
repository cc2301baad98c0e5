package streamproc

import (
	"context"
	"encoding/json"

	"github.com/nexuscore/agent/internal/agent"
)

// RecordingTool wraps a tool so that every call's return is appended to a
// Recorder as a side effect, giving the Processor a channel to pull return
// bodies from even though the raw stream never carries them. Correlation
// with the stream's tool-call ids is purely positional: the Processor
// consumes records by monotonic index in the order the calls completed
// (the order Call returned), never by id or name.
type RecordingTool struct {
	Inner    agent.Tool
	Recorder *Recorder
}

// NewRecordingTool wraps inner so its executions are captured by recorder.
func NewRecordingTool(inner agent.Tool, recorder *Recorder) *RecordingTool {
	return &RecordingTool{Inner: inner, Recorder: recorder}
}

// Definition delegates to the wrapped tool.
func (t *RecordingTool) Definition() agent.ToolDefinition { return t.Inner.Definition() }

// Call executes the wrapped tool and records its outcome, including the
// ExecutionFailed path, before returning the original result unchanged.
func (t *RecordingTool) Call(ctx context.Context, args json.RawMessage) (agent.ToolReturn, error) {
	ret, err := t.Inner.Call(ctx, args)
	if err != nil {
		t.Recorder.Record(ReturnRecord{Content: err.Error(), IsError: true})
		return ret, err
	}
	t.Recorder.Record(ReturnRecord{Content: ret.Content(), IsError: ret.IsError()})
	return ret, nil
}

// WrapAll returns a new slice with each tool wrapped in a RecordingTool
// against the same recorder.
func WrapAll(tools []agent.Tool, recorder *Recorder) []agent.Tool {
	out := make([]agent.Tool, len(tools))
	for i, t := range tools {
		out[i] = NewRecordingTool(t, recorder)
	}
	return out
}
