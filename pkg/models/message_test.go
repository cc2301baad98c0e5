package models

import (
	"encoding/json"
	"testing"
)

func TestToolCallJSONRoundTrip(t *testing.T) {
	tc := ToolCall{ID: "a", Name: "read_file", Input: json.RawMessage(`{"path":"/t"}`)}
	data, err := json.Marshal(tc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out ToolCall
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != tc.ID || out.Name != tc.Name || string(out.Input) != string(tc.Input) {
		t.Fatalf("round trip mismatch: got %+v", out)
	}
}

func TestToolResultOmitsErrorFlagWhenFalse(t *testing.T) {
	data, err := json.Marshal(ToolResult{ToolCallID: "a", Content: "ok"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"tool_call_id":"a","content":"ok"}` {
		t.Fatalf("unexpected JSON: %s", got)
	}
}
