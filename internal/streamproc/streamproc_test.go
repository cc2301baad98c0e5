package streamproc

import (
	"testing"

	"github.com/nexuscore/agent/pkg/models"
)

func TestProcessor_SimpleSingleToolCall(t *testing.T) {
	rec := NewRecorder()
	rec.Record(ReturnRecord{ToolCallID: "a", Content: "file contents"})

	p := New(rec)
	p.Seed(models.NewUserTextRequest("read /t"))

	p.Handle(models.StreamEvent{Kind: models.StreamRunStart, RunID: "r1"})
	p.Handle(models.StreamEvent{Kind: models.StreamRequestStart, Step: 1})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "read_file", ToolCallID: "a"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "a", Delta: `{"path":"/t"}`})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "read_file", ToolCallID: "a"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "read_file", ToolCallID: "a", Success: true})
	p.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	p.Handle(models.StreamEvent{Kind: models.StreamRequestStart, Step: 2})
	p.Handle(models.StreamEvent{Kind: models.StreamTextDelta, Text: "done"})
	p.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	p.Handle(models.StreamEvent{Kind: models.StreamRunComplete, RunID: "r1"})

	if err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	hist := p.History()
	if len(hist) != 4 {
		t.Fatalf("want 4 requests (user, model, tool_return, model), got %d: %+v", len(hist), hist)
	}
	if hist[0].Role != models.RoleUser {
		t.Fatalf("hist[0] role = %s", hist[0].Role)
	}
	if hist[1].Role != models.RoleModel || len(hist[1].ToolCalls) != 1 || hist[1].ToolCalls[0].ID != "a" {
		t.Fatalf("hist[1] = %+v", hist[1])
	}
	if hist[2].Role != models.RoleToolReturn || len(hist[2].ToolReturns) != 1 || hist[2].ToolReturns[0].Content != "file contents" {
		t.Fatalf("hist[2] = %+v", hist[2])
	}
	if hist[3].Role != models.RoleModel || hist[3].Text != "done" {
		t.Fatalf("hist[3] = %+v", hist[3])
	}
	if p.Output() != "done" {
		t.Fatalf("Output() = %q, want %q", p.Output(), "done")
	}
	if p.RunID() != "r1" {
		t.Fatalf("RunID() = %q", p.RunID())
	}
}

func TestProcessor_InterleavedToolCallsOrderedByComplete(t *testing.T) {
	rec := NewRecorder()
	// Completion order is B(y) then A(x); recorder entries arrive in that
	// same order since ToolExecuted triggers recording synchronously.
	rec.Record(ReturnRecord{ToolCallID: "y", Content: "b-result"})
	rec.Record(ReturnRecord{ToolCallID: "x", Content: "a-err", IsError: true})

	p := New(rec)
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "A", ToolCallID: "x"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "B", ToolCallID: "y"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "x", Delta: "{"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "y", Delta: `{"p":1}`})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallDelta, ToolCallID: "x", Delta: `"q":2}`})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "B", ToolCallID: "y"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "A", ToolCallID: "x"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "B", ToolCallID: "y", Success: true})
	p.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "A", ToolCallID: "x", Success: false, Error: "oops"})
	p.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	p.Handle(models.StreamEvent{Kind: models.StreamRunComplete, RunID: "r2"})

	if err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	hist := p.History()
	if len(hist) != 2 {
		t.Fatalf("want 2 requests, got %d: %+v", len(hist), hist)
	}
	resp := hist[0]
	if len(resp.ToolCalls) != 2 || resp.ToolCalls[0].ID != "y" || resp.ToolCalls[1].ID != "x" {
		t.Fatalf("tool call order = %+v, want [y, x]", resp.ToolCalls)
	}
	if string(resp.ToolCalls[1].Args) != `{"q":2}` {
		t.Fatalf("call x args = %q", resp.ToolCalls[1].Args)
	}
	returns := hist[1].ToolReturns
	if len(returns) != 2 || returns[0].ToolCallID != "y" || returns[1].ToolCallID != "x" || !returns[1].IsError() {
		t.Fatalf("returns = %+v", returns)
	}
}

func TestProcessor_NoRunCompleteIsFatal(t *testing.T) {
	p := New(NewRecorder())
	p.Handle(models.StreamEvent{Kind: models.StreamTextDelta, Text: "hi"})
	p.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	if err := p.Finish(); err != ErrNoRunComplete {
		t.Fatalf("Finish() = %v, want ErrNoRunComplete", err)
	}
}

func TestProcessor_MissingRecordingSynthesizesError(t *testing.T) {
	p := New(NewRecorder()) // no recordings at all
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallStart, ToolName: "t", ToolCallID: "a"})
	p.Handle(models.StreamEvent{Kind: models.StreamToolCallComplete, ToolName: "t", ToolCallID: "a"})
	p.Handle(models.StreamEvent{Kind: models.StreamResponseComplete})
	p.Handle(models.StreamEvent{Kind: models.StreamToolExecuted, ToolName: "t", ToolCallID: "a", Success: true})
	p.Handle(models.StreamEvent{Kind: models.StreamRunComplete})
	_ = p.Finish()

	hist := p.History()
	last := hist[len(hist)-1]
	if last.Role != models.RoleToolReturn || !last.ToolReturns[0].IsError() {
		t.Fatalf("expected synthesized error return, got %+v", last)
	}
}
