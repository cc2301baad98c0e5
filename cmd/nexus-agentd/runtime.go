package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/executor"
	"github.com/nexuscore/agent/pkg/models"
)

// echoRuntime is a demonstration-only ModelRuntime: it never talks to a real
// model vendor (spec.md §1 treats model endpoint clients as an external
// collaborator outside this core's scope) and only calls tools when the
// prompt uses the "!invoke" form (see parseInvokePrompt). It exists
// so the CLI can exercise the executor, bridge, and stream processor end to
// end without a live API key configured.
type echoRuntime struct {
	modelName string
}

func newEchoRuntime(modelName string) *echoRuntime { return &echoRuntime{modelName: modelName} }

func (r *echoRuntime) RunWithOptions(ctx context.Context, req executor.RuntimeRequest) (executor.RunResult, error) {
	out := r.reply(req)
	return executor.RunResult{Output: out, Messages: req.History, RunID: uuid.NewString()}, nil
}

func (r *echoRuntime) OpenStream(ctx context.Context, req executor.RuntimeRequest) (<-chan models.StreamEvent, error) {
	out := make(chan models.StreamEvent, 8)
	runID := uuid.NewString()
	go func() {
		defer close(out)
		emit := func(ev models.StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !emit(models.StreamEvent{Kind: models.StreamRunStart, RunID: runID}) {
			return
		}
		if !emit(models.StreamEvent{Kind: models.StreamRequestStart, Step: 1}) {
			return
		}
		for _, chunk := range splitChunks(r.reply(req), 24) {
			if !emit(models.StreamEvent{Kind: models.StreamTextDelta, Text: chunk}) {
				return
			}
		}
		if !emit(models.StreamEvent{Kind: models.StreamResponseComplete}) {
			return
		}
		if !emit(models.StreamEvent{Kind: models.StreamOutputReady}) {
			return
		}
		emit(models.StreamEvent{Kind: models.StreamRunComplete, RunID: runID})
	}()
	return out, nil
}

func (r *echoRuntime) reply(req executor.RuntimeRequest) string {
	var prompt string
	if len(req.History) > 0 {
		last := req.History[len(req.History)-1]
		for _, p := range last.UserParts {
			if p.Kind == models.PartText {
				prompt = p.Text
				break
			}
		}
	}

	if calls, ok := parseInvokePrompt(prompt); ok {
		return r.replyWithToolResults(req, calls)
	}

	names := make([]string, 0, len(req.Tools))
	for _, t := range req.Tools {
		names = append(names, t.Definition().Name)
	}
	if len(names) == 0 {
		return fmt.Sprintf("[%s] received: %s", r.modelName, prompt)
	}
	return fmt.Sprintf("[%s] received: %s (tools available: %s)", r.modelName, prompt, strings.Join(names, ", "))
}

// invokePrefix triggers the demo's simulated multi-tool-call turn: a prompt
// of the form "!invoke name1:{...};name2:{...}" stands in for a model
// response that requested several tool calls at once, since this runtime
// never talks to a real vendor tool-use loop.
const invokePrefix = "!invoke "

// parseInvokePrompt recognizes the demo's "!invoke name:{args};..." prompt
// form and turns it into the tool-call batch a real model response would
// have produced.
func parseInvokePrompt(prompt string) ([]models.ToolCall, bool) {
	if !strings.HasPrefix(prompt, invokePrefix) {
		return nil, false
	}
	var calls []models.ToolCall
	for i, part := range strings.Split(strings.TrimPrefix(prompt, invokePrefix), ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, argsStr, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		argsStr = strings.TrimSpace(argsStr)
		if argsStr == "" {
			argsStr = "{}"
		}
		calls = append(calls, models.ToolCall{
			ID:    fmt.Sprintf("demo-%d", i),
			Name:  strings.TrimSpace(name),
			Input: json.RawMessage(argsStr),
		})
	}
	return calls, len(calls) > 0
}

// replyWithToolResults executes calls concurrently against req.Tools using
// the parallel tool executor (retry, backoff, panic recovery, bounded
// concurrency) and reports each result, demonstrating the demo's "tool
// calls within one response may interleave arbitrarily" turn end to end.
func (r *echoRuntime) replyWithToolResults(req executor.RuntimeRequest, calls []models.ToolCall) string {
	registry := agent.NewRegistry()
	for _, t := range req.Tools {
		registry.Register(t)
	}
	exec := agent.NewExecutor(registry, nil)
	results := exec.ExecuteAll(context.Background(), calls)

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, fmt.Sprintf("[%s] executed %d tool call(s):", r.modelName, len(results)))
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Error != nil {
			lines = append(lines, fmt.Sprintf("- %s (%s): error: %v", res.ToolName, res.ToolCallID, res.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", res.ToolName, res.ToolCallID, res.Return.Content()))
	}
	return strings.Join(lines, "\n")
}

func splitChunks(s string, size int) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// demoFactory builds echoRuntime instances for both RuntimeFactory paths.
type demoFactory struct{}

func (demoFactory) NewOpenAICompatible(endpoint, apiKey, modelName string) (executor.ModelRuntime, error) {
	return newEchoRuntime(modelName), nil
}

func (demoFactory) NewDefault(modelName string) (executor.ModelRuntime, error) {
	return newEchoRuntime(modelName), nil
}

// demoOAuth resolves both OAuth-backed model kinds to the same demo runtime,
// standing in for the external OAuth resolvers spec.md §4.F.1 delegates to.
type demoOAuth struct{}

func (demoOAuth) ResolveClaudeCode(ctx context.Context) (executor.ModelRuntime, error) {
	return newEchoRuntime("claude-code"), nil
}

func (demoOAuth) ResolveChatGPTOAuth(ctx context.Context) (executor.ModelRuntime, error) {
	return newEchoRuntime("chatgpt-oauth"), nil
}

// staticModelRegistry is a fixed in-memory ModelRegistry.
type staticModelRegistry struct {
	entries map[string]executor.ModelRegistryEntry
}

func newStaticModelRegistry(entries ...executor.ModelRegistryEntry) *staticModelRegistry {
	m := make(map[string]executor.ModelRegistryEntry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return &staticModelRegistry{entries: m}
}

func (r *staticModelRegistry) Lookup(name string) (executor.ModelRegistryEntry, bool) {
	e, ok := r.entries[name]
	return e, ok
}
