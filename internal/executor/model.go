package executor

import (
	"context"
	"os"
	"strings"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/pkg/models"
)

// ModelKind distinguishes the registry entry shapes that drive resolution
// precedence (spec §4.F.1).
type ModelKind string

const (
	ModelKindDefault      ModelKind = "default"
	ModelKindClaudeCode   ModelKind = "claude_code"
	ModelKindChatGPTOAuth ModelKind = "chatgpt_oauth"
)

// ModelRegistryEntry is one pre-registered model configuration.
type ModelRegistryEntry struct {
	Name     string
	Kind     ModelKind
	Endpoint string // non-empty selects the OpenAI-protocol-compatible client path
	APIKey   string // literal key, or a "$VAR"/"${VAR}" reference
}

// ModelRegistry resolves a model name to a pre-registered configuration.
type ModelRegistry interface {
	Lookup(name string) (ModelRegistryEntry, bool)
}

// RuntimeRequest bundles everything a ModelRuntime needs to run one agent
// turn: the canonical history so far, the assembled tool set, the system
// prompt, and generation settings.
type RuntimeRequest struct {
	History  models.History
	Tools    []agent.Tool
	System   string
	Settings agent.ModelSettings
	RunOpts  agent.RunOptions
}

// RunResult is what a blocking run produces: the final text output, the
// canonical message history (including the seeded user turn), and the
// run's id.
type RunResult struct {
	Output   string
	Messages models.History
	RunID    string
}

// ModelRuntime is the external model-loop collaborator the executor
// delegates to. Its concrete implementation (vendor SDK client, the actual
// tool-use loop) is out of this core's scope; the executor only consumes
// this interface.
type ModelRuntime interface {
	RunWithOptions(ctx context.Context, req RuntimeRequest) (RunResult, error)
	OpenStream(ctx context.Context, req RuntimeRequest) (<-chan models.StreamEvent, error)
}

// RuntimeFactory constructs ModelRuntime handles for the two non-OAuth
// resolution paths.
type RuntimeFactory interface {
	// NewOpenAICompatible builds a client against a custom endpoint using an
	// already-resolved API key.
	NewOpenAICompatible(endpoint, apiKey, modelName string) (ModelRuntime, error)
	// NewDefault builds a runtime using default inference based on the bare
	// model name (no registry entry, no "chatgpt-"/"claude-code-" prefix).
	NewDefault(modelName string) (ModelRuntime, error)
}

// OAuthResolver resolves the two OAuth-backed model kinds to a configured
// runtime.
type OAuthResolver interface {
	ResolveClaudeCode(ctx context.Context) (ModelRuntime, error)
	ResolveChatGPTOAuth(ctx context.Context) (ModelRuntime, error)
}

// SettingsStore is the external "Configuration store" interface (spec §6):
// a keyed string getter/setter plus the typed helpers the executor needs.
type SettingsStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	GetBool(key string) bool
	GetAgentPinnedModel(agentName string) (string, bool)
	GetAgentMCPs(agentName string) []string
	ModelSettings(modelName string) agent.ModelSettings
}

// resolveModel implements the precedence rules of spec §4.F.1.
func (e *Executor) resolveModel(ctx context.Context, name string) (ModelRuntime, error) {
	if entry, ok := e.models.Lookup(name); ok {
		if entry.Endpoint != "" {
			apiKey, err := e.resolveAPIKey(entry.APIKey)
			if err != nil {
				return nil, ConfigError(err.Error())
			}
			rt, err := e.factory.NewOpenAICompatible(entry.Endpoint, apiKey, name)
			if err != nil {
				return nil, ModelError("constructing OpenAI-compatible client", err)
			}
			return rt, nil
		}
		switch entry.Kind {
		case ModelKindClaudeCode:
			rt, err := e.oauth.ResolveClaudeCode(ctx)
			if err != nil {
				return nil, AuthError("resolving Claude Code OAuth", err)
			}
			return rt, nil
		case ModelKindChatGPTOAuth:
			rt, err := e.oauth.ResolveChatGPTOAuth(ctx)
			if err != nil {
				return nil, AuthError("resolving ChatGPT OAuth", err)
			}
			return rt, nil
		}
	}

	// Legacy name-prefix routing, independent of a registry hit.
	switch {
	case strings.HasPrefix(name, "chatgpt-"), strings.HasPrefix(name, "chatgpt_"):
		rt, err := e.oauth.ResolveChatGPTOAuth(ctx)
		if err != nil {
			return nil, AuthError("resolving ChatGPT OAuth (legacy prefix)", err)
		}
		return rt, nil
	case strings.HasPrefix(name, "claude-code-"), strings.HasPrefix(name, "claude_code_"):
		rt, err := e.oauth.ResolveClaudeCode(ctx)
		if err != nil {
			return nil, AuthError("resolving Claude Code OAuth (legacy prefix)", err)
		}
		return rt, nil
	}

	if _, ok := e.models.Lookup(name); !ok && strings.Contains(name, ":") {
		return nil, ConfigError("model \"" + name + "\" contains ':' but is not in the registry; add this model to the registry")
	}

	rt, err := e.factory.NewDefault(name)
	if err != nil {
		return nil, ModelError("default model resolution for "+name, err)
	}
	return rt, nil
}

// resolveAPIKey implements (a) literal strings and (b) "$VAR"/"${VAR}"
// references, looked up first in the settings store then the process
// environment.
func (e *Executor) resolveAPIKey(ref string) (string, error) {
	varName, isRef := apiKeyVarName(ref)
	if !isRef {
		return ref, nil
	}
	if e.settings != nil {
		if v, ok := e.settings.Get(varName); ok && v != "" {
			return v, nil
		}
	}
	if v, ok := os.LookupEnv(varName); ok && v != "" {
		return v, nil
	}
	return "", errAPIKeyUnresolved(varName)
}

func apiKeyVarName(ref string) (string, bool) {
	if strings.HasPrefix(ref, "${") && strings.HasSuffix(ref, "}") && len(ref) > 3 {
		return ref[2 : len(ref)-1], true
	}
	if strings.HasPrefix(ref, "$") && len(ref) > 1 {
		return ref[1:], true
	}
	return "", false
}

type apiKeyErr struct{ varName string }

func (e *apiKeyErr) Error() string {
	return "api key reference \"$" + e.varName + "\" not found in settings or environment"
}

func errAPIKeyUnresolved(varName string) error { return &apiKeyErr{varName: varName} }
