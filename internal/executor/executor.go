// Package executor implements the agent executor (spec §4.F): the component
// that resolves a model, assembles an agent's tool set, and drives one run
// either to a single blocking result or live onto the bus.
//
// The executor never talks to a vendor SDK directly. It depends on the
// model-loop itself (ModelRuntime), on OAuth and registry-based model
// resolution (ModelRegistry/OAuthResolver/RuntimeFactory), and on the
// sub-agent tool wiring (MetaToolBuilder) purely through interfaces, so this
// package stays free of both vendor imports and an import cycle with the
// package that implements invoke_agent/list_agents.
package executor

import (
	"context"
	"log/slog"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/bridge"
	"github.com/nexuscore/agent/internal/streamproc"
	"github.com/nexuscore/agent/pkg/bus"
	"github.com/nexuscore/agent/pkg/models"
)

// AgentManager resolves agent names to their descriptors and enumerates the
// agents available for invoke_agent/list_agents.
type AgentManager interface {
	Resolve(name string) (models.AgentDescriptor, bool)
	List() []models.AgentDescriptor
}

// MCPToolSource resolves a set of attached MCP server ids to the Tool
// adapters currently available on them.
type MCPToolSource interface {
	ToolsForServers(serverIDs []string) []agent.Tool
}

// MetaToolBuilder builds the two meta tools (invoke_agent, list_agents) for
// an executor instance. Implemented by internal/subagent, which
// imports this package; injecting it here instead of importing that package
// directly avoids a cycle.
type MetaToolBuilder interface {
	InvokeAgentTool(e *Executor) agent.Tool
	ListAgentsTool(e *Executor) agent.Tool
}

// Config wires an Executor's collaborators. BaseTools, Agents, Models, and
// Factory are required; the rest are optional.
type Config struct {
	BaseTools *agent.Registry
	Agents    AgentManager
	Models    ModelRegistry
	Factory   RuntimeFactory
	OAuth     OAuthResolver
	Settings  SettingsStore
	MCP       MCPToolSource
	Meta      MetaToolBuilder
	Logger    *slog.Logger
}

// Executor runs agents against a resolved model and an assembled tool set.
// It is safe for concurrent use: every method is a pure function of its
// arguments plus the immutable collaborators fixed at construction.
type Executor struct {
	baseTools *agent.Registry
	agents    AgentManager
	models    ModelRegistry
	factory   RuntimeFactory
	oauth     OAuthResolver
	settings  SettingsStore
	mcp       MCPToolSource
	meta      MetaToolBuilder
	logger    *slog.Logger
}

// New builds an Executor from cfg, applying safe defaults for optional
// collaborators that were left nil.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		baseTools: cfg.BaseTools,
		agents:    cfg.Agents,
		models:    cfg.Models,
		factory:   cfg.Factory,
		oauth:     cfg.OAuth,
		settings:  cfg.Settings,
		mcp:       cfg.MCP,
		meta:      cfg.Meta,
		logger:    logger.With("component", "executor"),
	}
}

// AgentManager exposes the executor's configured agent manager, used by
// invoke_agent/list_agents implementations.
func (e *Executor) AgentManager() AgentManager { return e.agents }

// Settings exposes the executor's settings store.
func (e *Executor) Settings() SettingsStore { return e.settings }

// Request describes one call into the executor: which agent, on what model,
// continuing from what prior history, with what new user input.
type Request struct {
	Agent     models.AgentDescriptor
	ModelName string
	History   models.History
	Prompt    string
	Images    []models.UserPart
	RunOpts   agent.RunOptions
}

func (r Request) seedRequest() models.Request {
	if len(r.Images) > 0 {
		parts := append([]models.UserPart{}, r.Images...)
		if r.Prompt != "" {
			parts = append(parts, models.TextPart(r.Prompt))
		}
		return models.NewUserRequest(parts...)
	}
	return models.NewUserTextRequest(r.Prompt)
}

// assembleTools resolves req.Agent.AvailableTools against the base
// registry, then appends MCP tools for the agent's attached servers and the
// two meta tools when the agent's (pre-filter) tool list asked for them.
func (e *Executor) assembleTools(req Request) []agent.Tool {
	filtered := agent.FilterTools(req.Agent.AvailableTools, req.RunOpts.ShowReasoning)

	var tools []agent.Tool
	if e.baseTools != nil {
		tools = append(tools, e.baseTools.ToolsByName(filtered)...)
	}
	if e.mcp != nil {
		// An empty AttachedServers means no attachment was configured, which
		// resolves to every running server (spec §4.F.3), not zero tools.
		tools = append(tools, e.mcp.ToolsForServers(req.Agent.AttachedServers)...)
	}
	if e.meta != nil {
		if agent.WantsMetaTool(req.Agent.AvailableTools, "invoke_agent") {
			tools = append(tools, e.meta.InvokeAgentTool(e))
		}
		if agent.WantsMetaTool(req.Agent.AvailableTools, "list_agents") {
			tools = append(tools, e.meta.ListAgentsTool(e))
		}
	}
	return tools
}

func (e *Executor) modelSettings(modelName string) agent.ModelSettings {
	if e.settings == nil {
		return agent.ModelSettings{}.Normalize()
	}
	return e.settings.ModelSettings(modelName).Normalize()
}

func (e *Executor) buildRuntimeRequest(req Request, recorder *streamproc.Recorder) RuntimeRequest {
	tools := e.assembleTools(req)
	if recorder != nil {
		tools = streamproc.WrapAll(tools, recorder)
	}
	history := append(models.History{}, req.History...)
	history = append(history, req.seedRequest())
	return RuntimeRequest{
		History:  history,
		Tools:    tools,
		System:   req.Agent.SystemPrompt,
		Settings: e.modelSettings(req.ModelName),
		RunOpts:  req.RunOpts,
	}
}

// Execute runs one blocking, non-streaming agent turn and returns its final
// result. No bus events are published; the model's own tool-use loop (via
// ModelRuntime.RunWithOptions) owns the exchange end to end.
func (e *Executor) Execute(ctx context.Context, req Request) (RunResult, error) {
	if req.Agent.Name == "" {
		return RunResult{}, ConfigError("request is missing an agent descriptor")
	}
	rt, err := e.resolveModel(ctx, req.ModelName)
	if err != nil {
		return RunResult{}, err
	}
	ctx = WithModelName(ctx, req.ModelName)
	runReq := e.buildRuntimeRequest(req, nil)
	result, err := rt.RunWithOptions(ctx, runReq)
	if err != nil {
		return RunResult{}, ExecutionError("model run failed", err)
	}
	return result, nil
}

// ExecuteWithImages runs a blocking turn whose user turn carries one or more
// images alongside the prompt text.
func (e *Executor) ExecuteWithImages(ctx context.Context, req Request, images []models.UserPart) (RunResult, error) {
	req.Images = images
	return e.Execute(ctx, req)
}

// ExecuteWithBus runs one agent turn live: raw stream events are fanned out
// to an event bridge (publishing semantic Message values onto sender) and to
// a stream processor (reconstructing the canonical history) in lockstep, so
// the bus view and the returned history are always built from exactly the
// same event sequence.
func (e *Executor) ExecuteWithBus(ctx context.Context, req Request, sender bus.Sender) (RunResult, error) {
	if req.Agent.Name == "" {
		return RunResult{}, ConfigError("request is missing an agent descriptor")
	}
	if sender.IsZero() {
		return RunResult{}, ConfigError("a bus sender is required for a live run")
	}
	rt, err := e.resolveModel(ctx, req.ModelName)
	if err != nil {
		return RunResult{}, err
	}

	ctx = WithSender(ctx, sender)
	ctx = WithModelName(ctx, req.ModelName)

	recorder := streamproc.NewRecorder()
	runReq := e.buildRuntimeRequest(req, recorder)

	raw, err := rt.OpenStream(ctx, runReq)
	if err != nil {
		return RunResult{}, ExecutionError("opening model stream", err)
	}

	br := bridge.New(sender, req.Agent.Name, req.Agent.DisplayName, e.logger)
	sp := streamproc.New(recorder)
	sp.Seed(req.seedRequest())

	br.AgentStarted()
	for ev := range raw {
		br.Handle(ev)
		sp.Handle(ev)
	}

	if err := sp.Finish(); err != nil {
		br.AgentError(err.Error())
		return RunResult{}, ExecutionError("stream ended without completion", err)
	}

	result := RunResult{Output: sp.Output(), Messages: sp.History(), RunID: sp.RunID()}
	br.AgentCompleted(result.RunID)
	return result, nil
}

// ExecuteStream opens the raw model stream directly, without bridge or
// stream-processor involvement, re-multiplexed through an executor-owned
// channel of the spec's fixed capacity so a slow consumer cannot stall the
// runtime's own producer goroutine. The channel is closed when the run ends
// or ctx is cancelled.
func (e *Executor) ExecuteStream(ctx context.Context, req Request) (<-chan models.StreamEvent, error) {
	rt, err := e.resolveModel(ctx, req.ModelName)
	if err != nil {
		return nil, err
	}
	runReq := e.buildRuntimeRequest(req, nil)
	raw, err := rt.OpenStream(ctx, runReq)
	if err != nil {
		return nil, ExecutionError("opening model stream", err)
	}

	const streamCapacity = 32
	out := make(chan models.StreamEvent, streamCapacity)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-raw:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
