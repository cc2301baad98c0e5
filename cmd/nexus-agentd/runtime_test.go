package main

import (
	"context"
	"testing"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/executor"
	"github.com/nexuscore/agent/internal/tools/reasoning"
	"github.com/nexuscore/agent/pkg/models"
)

func TestParseInvokePromptParsesMultipleCalls(t *testing.T) {
	calls, ok := parseInvokePrompt(`!invoke share_your_reasoning:{"reasoning":"because"};list_agents:{}`)
	if !ok {
		t.Fatal("expected the prompt to be recognized as an invoke batch")
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "share_your_reasoning" || calls[1].Name != "list_agents" {
		t.Fatalf("unexpected call names: %+v", calls)
	}
}

func TestParseInvokePromptIgnoresOrdinaryPrompts(t *testing.T) {
	if _, ok := parseInvokePrompt("what is the weather?"); ok {
		t.Fatal("expected an ordinary prompt not to be recognized as an invoke batch")
	}
}

func TestEchoRuntimeRunWithOptionsExecutesInvokedTools(t *testing.T) {
	rt := newEchoRuntime("demo-model")
	req := executor.RuntimeRequest{
		History: models.History{models.NewUserTextRequest(`!invoke share_your_reasoning:{"reasoning":"because I said so"}`)},
		Tools:   []agent.Tool{reasoning.New()},
	}

	out, err := rt.RunWithOptions(context.Background(), req)
	if err != nil {
		t.Fatalf("RunWithOptions: %v", err)
	}
	if out.Output == "" {
		t.Fatal("expected non-empty output describing the executed tool call")
	}
}

func TestEchoRuntimeRunWithOptionsWithoutInvokeIsUnaffected(t *testing.T) {
	rt := newEchoRuntime("demo-model")
	req := executor.RuntimeRequest{
		History: models.History{models.NewUserTextRequest("hello there")},
	}

	out, err := rt.RunWithOptions(context.Background(), req)
	if err != nil {
		t.Fatalf("RunWithOptions: %v", err)
	}
	if out.Output == "" {
		t.Fatal("expected non-empty output")
	}
}
