package ndjson

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nexuscore/agent/pkg/bus"
)

func TestMapMessageAgentStartedIsSilent(t *testing.T) {
	_, ok := MapMessage(bus.NewAgentStarted("main", "Main"))
	if ok {
		t.Fatal("expected Agent.Started to produce no record")
	}
}

func TestMapMessageToolCallStartOmitsMissingID(t *testing.T) {
	rec, ok := MapMessage(bus.NewToolStartedMsg("t", "", "a"))
	if !ok {
		t.Fatal("expected a record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "tool_call_id") {
		t.Fatalf("expected tool_call_id omitted, got %s", data)
	}
}

func TestParseCommandPromptPreservesNewlines(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"prompt","text":"Hello\nWorld","agent":"a"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Text != "Hello\nWorld" {
		t.Fatalf("text = %q", cmd.Text)
	}
}

func TestParseCommandUnknownTypeErrors(t *testing.T) {
	if _, err := ParseCommand([]byte(`{"type":"bogus"}`)); err == nil {
		t.Fatal("expected error for unknown command type")
	}
}

func TestParseCommandMalformedJSONErrors(t *testing.T) {
	if _, err := ParseCommand([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestRendererRunDrainsBusUntilClosed(t *testing.T) {
	b := bus.New(nil)
	recv := b.Subscribe()
	sender := b.Sender()

	var out bytes.Buffer
	r := NewRenderer(recv, &out, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	if err := sender.Send(bus.NewTextDelta("hi", "")); err != nil {
		t.Fatalf("send: %v", err)
	}
	b.Close()

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"text_delta"`) {
		t.Fatalf("expected a text_delta record, got %s", out.String())
	}
}

func TestCommandReaderReadsOnePerLine(t *testing.T) {
	in := strings.NewReader("{\"type\":\"prompt\",\"text\":\"a\"}\n{\"type\":\"cancel\"}\n")
	r := NewCommandReader(in)
	first, err := r.Next()
	if err != nil || first.Type != InPrompt {
		t.Fatalf("first = %+v, err=%v", first, err)
	}
	second, err := r.Next()
	if err != nil || second.Type != InCancel {
		t.Fatalf("second = %+v, err=%v", second, err)
	}
}
