package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry owns one instance of each registered tool and exposes
// order-preserving, name-based lookup. It is safe for concurrent use; once
// construction is complete, callers typically only read from it, matching
// the core's "tool registry is immutable after construction and freely
// shareable" policy.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	schemas map[string]*jsonschema.Schema
}

// NewRegistry creates an empty registry ready for tool registration.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), schemas: make(map[string]*jsonschema.Schema)}
}

// Register adds a tool to the registry by its definition name. Re-registering
// the same name replaces the previous tool but keeps its original position
// in iteration order.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Definition().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
	delete(r.schemas, name)
}

// Unregister removes a tool from the registry by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		return
	}
	delete(r.tools, name)
	delete(r.schemas, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a tool by exact, case-sensitive name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// AllTools returns every registered tool in registration order.
func (r *Registry) AllTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the public ToolDefinition for every registered tool,
// in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	tools := r.AllTools()
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.Definition()
	}
	return defs
}

// ToolsByName resolves a list of tool names against the registry. Input
// order (including duplicates) is preserved; unknown names are silently
// skipped rather than causing an error, since agent tool lists are authored
// externally and may reference tools this registry build does not carry.
func (r *Registry) ToolsByName(names []string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ReadOnlyToolNames and FileToolNames are curated subsets of the built-in
// tool surface; callers register built-ins under these names if they want
// the Registry's ReadOnlyTools/FileTools helpers to resolve sensibly.
// ReadOnlyToolNames additionally carries share_your_reasoning (safe for a
// reviewer/planning agent that cannot touch the workspace) and FileToolNames
// includes delete_file alongside the other file-manipulation tools, matching
// read_only_tools()/file_tools() on the registry this one is grounded on.
var (
	ReadOnlyToolNames = []string{"read_file", "list_directory", "grep", "glob", "share_your_reasoning"}
	FileToolNames     = []string{"read_file", "write_file", "edit_file", "delete_file", "list_directory", "grep", "glob"}
)

// ReadOnlyTools returns the subset of registered tools considered safe for
// read-only agent contexts.
func (r *Registry) ReadOnlyTools() []Tool { return r.ToolsByName(ReadOnlyToolNames) }

// FileTools returns the subset of registered tools for file manipulation.
func (r *Registry) FileTools() []Tool { return r.ToolsByName(FileToolNames) }

// Execute looks up a tool by name and invokes it. A missing tool yields a
// *ToolError of type ToolErrorNotFound wrapping ErrToolNotFound, and a
// schema-invalid argument payload yields an ExecutionFailed error, rather
// than a panic, a generic error type, or a confusing error from inside the
// tool itself.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (ToolReturn, error) {
	t, ok := r.Get(name)
	if !ok {
		return ToolReturn{}, NewToolError(name, ErrToolNotFound).WithType(ToolErrorNotFound)
	}
	if err := r.validateArgs(t.Definition(), args); err != nil {
		return ToolReturn{}, ExecutionFailed(name, err.Error(), false)
	}
	return t.Call(ctx, args)
}

// validateArgs checks args against the tool's declared input schema, compiling
// and caching the schema on first use. A tool with no schema is not validated.
func (r *Registry) validateArgs(def ToolDefinition, args json.RawMessage) error {
	if len(def.InputSchema) == 0 {
		return nil
	}
	schema, err := r.compiledSchema(def)
	if err != nil {
		return fmt.Errorf("invalid input schema for %s: %w", def.Name, err)
	}

	payload := args
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("arguments for %s are not valid json: %w", def.Name, err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("arguments for %s failed validation: %w", def.Name, err)
	}
	return nil
}

func (r *Registry) compiledSchema(def ToolDefinition) (*jsonschema.Schema, error) {
	r.mu.RLock()
	schema, ok := r.schemas[def.Name]
	r.mu.RUnlock()
	if ok {
		return schema, nil
	}

	resource := def.Name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(def.InputSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.schemas[def.Name] = schema
	r.mu.Unlock()
	return schema, nil
}

// FilterTools is a pure function of (toolNames, showReasoning): it removes
// share_your_reasoning unless showReasoning is set, and always removes the
// two meta tools that require custom wiring by the executor. Input order and
// duplicates are preserved.
func FilterTools(names []string, showReasoning bool) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case "share_your_reasoning":
			if !showReasoning {
				continue
			}
		case "invoke_agent", "list_agents":
			continue
		}
		out = append(out, n)
	}
	return out
}

// WantsMetaTool reports whether the given meta tool name ("invoke_agent" or
// "list_agents") appeared in the agent's pre-filter tool list, so the
// executor knows whether to perform the custom wiring for it.
func WantsMetaTool(names []string, metaName string) bool {
	for _, n := range names {
		if n == metaName {
			return true
		}
	}
	return false
}
