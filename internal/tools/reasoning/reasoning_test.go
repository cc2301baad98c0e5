package reasoning

import (
	"context"
	"encoding/json"
	"testing"
)

func TestCallAcknowledgesReasoning(t *testing.T) {
	tool := New()
	args, err := json.Marshal(map[string]string{"reasoning": "checking the docs first"})
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	ret, err := tool.Call(context.Background(), args)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if ret.IsError() {
		t.Fatalf("unexpected error return: %v", ret.Content())
	}
	if ret.Text != "reasoning recorded" {
		t.Fatalf("text = %q", ret.Text)
	}
}

func TestCallRejectsMalformedArguments(t *testing.T) {
	tool := New()
	ret, err := tool.Call(context.Background(), json.RawMessage(`not json`))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !ret.IsError() {
		t.Fatal("expected an error return for malformed arguments")
	}
}

func TestDefinitionNamesTheTool(t *testing.T) {
	def := New().Definition()
	if def.Name != "share_your_reasoning" {
		t.Fatalf("name = %q", def.Name)
	}
}
