package bridge

import (
	"encoding/json"
	"testing"

	"github.com/nexuscore/agent/pkg/bus"
	"github.com/nexuscore/agent/pkg/models"
)

func drain(t *testing.T, rx *bus.Receiver, n int) []bus.Message {
	t.Helper()
	out := make([]bus.Message, 0, n)
	for i := 0; i < n; i++ {
		msg, err := rx.Recv()
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		out = append(out, msg)
	}
	return out
}

// Scenario 1 from spec §8: a single tool call followed by final text.
func TestBridge_SimpleSingleToolCall(t *testing.T) {
	b := bus.New(nil)
	rx := b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)

	br.AgentStarted()
	br.Handle(models.StreamEvent{Kind: models.StreamRunStart, RunID: "r1"})
	br.Handle(models.StreamEvent{Kind: models.StreamRequestStart, Step: 1})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "read_file", ToolCallID: "a"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "a", Delta: `{"path":"/t"}`})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "read_file", ToolCallID: "a"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "read_file", ToolCallID: "a", Success: true})
	br.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	br.Handle(models.StreamEvent{Kind: models.StreamRequestStart, Step: 2})
	br.Handle(models.StreamEvent{Kind: models.StreamTextDelta, Text: "done"})
	br.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	br.Handle(models.StreamEvent{Kind: models.StreamRunComplete, RunID: "r1"})
	br.AgentCompleted("r1")

	msgs := drain(t, rx, 6)

	if msgs[0].Type != bus.KindAgent || msgs[0].Event != bus.AgentStarted {
		t.Fatalf("msg0 = %+v, want Agent.Started", msgs[0])
	}
	if msgs[1].Type != bus.KindTool || msgs[1].Status != bus.ToolStarted || msgs[1].ToolCallID != "a" {
		t.Fatalf("msg1 = %+v, want Tool.Started", msgs[1])
	}
	if msgs[2].Type != bus.KindTool || msgs[2].Status != bus.ToolExecuting || string(msgs[2].Args) != `{"path":"/t"}` {
		t.Fatalf("msg2 = %+v, want Tool.Executing with parsed args", msgs[2])
	}
	if msgs[3].Type != bus.KindTool || msgs[3].Status != bus.ToolCompleted {
		t.Fatalf("msg3 = %+v, want Tool.Completed", msgs[3])
	}
	if msgs[4].Type != bus.KindTextDelta || msgs[4].Text != "done" {
		t.Fatalf("msg4 = %+v, want TextDelta(done)", msgs[4])
	}
	if msgs[5].Type != bus.KindAgent || msgs[5].Event != bus.AgentCompleted || msgs[5].RunID != "r1" {
		t.Fatalf("msg5 = %+v, want Agent.Completed(r1)", msgs[5])
	}
}

// Scenario 2 from spec §8: two interleaved tool calls in one response.
func TestBridge_InterleavedToolCalls(t *testing.T) {
	b := bus.New(nil)
	rx := b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)

	br.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "A", ToolCallID: "x"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "B", ToolCallID: "y"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "x", Delta: "{"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "y", Delta: `{"p":1}`})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "x", Delta: `"q":2}`})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "B", ToolCallID: "y"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "A", ToolCallID: "x"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "B", ToolCallID: "y", Success: true})
	br.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "A", ToolCallID: "x", Success: false, Error: "oops"})

	msgs := drain(t, rx, 6)

	// Indexes 2,3 are the two Executing messages (B then A, in Complete order).
	if msgs[2].ToolCallID != "y" || string(msgs[2].Args) != `{"p":1}` {
		t.Fatalf("executing(B) = %+v", msgs[2])
	}
	if msgs[3].ToolCallID != "x" || string(msgs[3].Args) != `{"q":2}` {
		t.Fatalf("executing(A) = %+v", msgs[3])
	}
	if msgs[4].ToolCallID != "y" || msgs[4].Status != bus.ToolCompleted {
		t.Fatalf("completed(B) = %+v", msgs[4])
	}
	if msgs[5].ToolCallID != "x" || msgs[5].Status != bus.ToolFailed || msgs[5].Error != "oops" {
		t.Fatalf("failed(A) = %+v", msgs[5])
	}
}

func TestBridge_EmptyTextDeltaSetsFirstTextSent(t *testing.T) {
	b := bus.New(nil)
	_ = b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)
	br.Handle(models.StreamEvent{Kind: models.StreamTextDelta, Text: ""})
	if !br.firstTextSent {
		t.Fatal("empty TextDelta should still set first_text_sent")
	}
}

func TestBridge_DeltaToUnknownIDIsDropped(t *testing.T) {
	b := bus.New(nil)
	rx := b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "t", ToolCallID: "known"})
	_, _ = drain(t, rx, 1), error(nil)
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "unknown", Delta: "junk"})
	if st := br.states["known"]; string(st.argsBuffer) != "" {
		t.Fatalf("known state mutated by delta addressed elsewhere: %q", st.argsBuffer)
	}
}

func TestBridge_MalformedArgsYieldsNilArgsNotError(t *testing.T) {
	b := bus.New(nil)
	rx := b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "t", ToolCallID: "a"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "a", Delta: "{not json"})
	br.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "t", ToolCallID: "a"})

	msgs := drain(t, rx, 2)
	executing := msgs[1]
	if executing.Args != nil {
		t.Fatalf("expected nil args for malformed JSON, got %q", executing.Args)
	}
}

func TestBridge_ToolExecutedWithoutStartStillEmits(t *testing.T) {
	b := bus.New(nil)
	rx := b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)
	br.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "t", Success: true})
	msgs := drain(t, rx, 1)
	if msgs[0].Status != bus.ToolCompleted || msgs[0].ToolCallID != "" {
		t.Fatalf("got %+v, want Tool.Completed with no call id", msgs[0])
	}
}

func TestBridge_ResetIsIdempotentAndReusable(t *testing.T) {
	b := bus.New(nil)
	rx := b.Subscribe()
	br := New(b.Sender(), "main", "Main", nil)

	run := func() []bus.Message {
		br.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "read_file", ToolCallID: "a"})
		br.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "read_file", ToolCallID: "a"})
		br.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "read_file", ToolCallID: "a", Success: true})
		return drain(t, rx, 3)
	}

	first := run()
	br.Reset()
	br.Reset() // idempotent
	second := run()

	data1, _ := json.Marshal(first)
	data2, _ := json.Marshal(second)
	if string(data1) != string(data2) {
		t.Fatalf("replay after reset diverged:\n%s\nvs\n%s", data1, data2)
	}
	if len(br.states) != 0 {
		t.Fatalf("expected empty state map after drop, got %d entries", len(br.states))
	}
}
