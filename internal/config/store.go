// Package config implements the external "Configuration store" and MCP
// server configuration interfaces described in spec.md §6. The core itself
// only depends on the executor.SettingsStore interface; Store is the
// default, minimal implementation — persistence beyond the process lifetime
// is out of scope, so any real store just needs to satisfy the same
// interface.
package config

import (
	"strconv"
	"sync"

	"github.com/nexuscore/agent/internal/agent"
)

// Store is a keyed string getter/setter plus the typed helpers the executor
// needs, backed by an in-memory map guarded by a RWMutex — matching the
// teacher's sync.RWMutex-guarded registries (internal/agent/tool_registry.go)
// rather than introducing a new concurrency idiom for this one collaborator.
type Store struct {
	mu            sync.RWMutex
	values        map[string]string
	agentModels   map[string]string
	agentMCPs     map[string][]string
	modelSettings map[string]agent.ModelSettings
}

// New creates an empty, in-memory settings store.
func New() *Store {
	return &Store{
		values:        make(map[string]string),
		agentModels:   make(map[string]string),
		agentMCPs:     make(map[string][]string),
		modelSettings: make(map[string]agent.ModelSettings),
	}
}

// Get returns the raw string value for key, if set.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a raw string value for key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// GetBool parses key as a bool, defaulting to false for an absent or
// unparseable value.
func (s *Store) GetBool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

// SetAgentPinnedModel pins agentName to modelName for future resolution.
func (s *Store) SetAgentPinnedModel(agentName, modelName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentModels[agentName] = modelName
}

// GetAgentPinnedModel returns the model pinned to agentName, if any.
func (s *Store) GetAgentPinnedModel(agentName string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.agentModels[agentName]
	return m, ok
}

// SetAgentMCPs records which MCP server ids agentName is attached to. An
// empty list means "all servers", per spec.md §6.
func (s *Store) SetAgentMCPs(agentName string, serverIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentMCPs[agentName] = append([]string{}, serverIDs...)
}

// GetAgentMCPs returns the MCP server ids agentName is attached to.
func (s *Store) GetAgentMCPs(agentName string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.agentMCPs[agentName]...)
}

// SetModelSettings records generation settings for modelName.
func (s *Store) SetModelSettings(modelName string, settings agent.ModelSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelSettings[modelName] = settings
}

// ModelSettings returns the generation settings for modelName, or the zero
// value (normalized by the caller) if none were registered.
func (s *Store) ModelSettings(modelName string) agent.ModelSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelSettings[modelName]
}
