package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/config"
	"github.com/nexuscore/agent/internal/executor"
	"github.com/nexuscore/agent/internal/mcp"
	"github.com/nexuscore/agent/internal/subagent"
	"github.com/nexuscore/agent/internal/tools/files"
	"github.com/nexuscore/agent/internal/tools/reasoning"
	"github.com/nexuscore/agent/internal/tools/search"
	"github.com/nexuscore/agent/internal/tools/shell"
	"github.com/nexuscore/agent/pkg/models"
)

// sessionStore keeps per-"database path" in-memory session histories. A
// real deployment persists these in the SQL database spec.md §1 places out
// of this core's scope; this demo substitutes an in-process map, keyed the
// same way (by dbPath, then session id) so the sub-agent wiring exercises
// the exact same contract a real store would.
type sessionStore struct {
	mu       sync.Mutex
	byDBPath map[string]map[string]models.History
}

func newSessionStore() *sessionStore {
	return &sessionStore{byDBPath: make(map[string]map[string]models.History)}
}

func (s *sessionStore) Open(dbPath string) (subagent.SessionHandle, error) {
	return &sessionHandle{store: s, dbPath: dbPath}, nil
}

func (s *sessionStore) save(dbPath, sessionID string, h models.History) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, ok := s.byDBPath[dbPath]
	if !ok {
		sessions = make(map[string]models.History)
		s.byDBPath[dbPath] = sessions
	}
	sessions[sessionID] = h
}

type sessionHandle struct {
	store  *sessionStore
	dbPath string
}

func (h *sessionHandle) LoadHistory(sessionID string) (models.History, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	sessions, ok := h.store.byDBPath[h.dbPath]
	if !ok {
		return nil, fmt.Errorf("no sessions recorded for %q", h.dbPath)
	}
	hist, ok := sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}
	return hist, nil
}

func (h *sessionHandle) Close() error { return nil }

// buildTools assembles the demo's built-in tool registry.
func buildTools(workspace string, logger *slog.Logger) *agent.Registry {
	reg := agent.NewRegistry()
	cfg := files.Config{Workspace: workspace}
	reg.Register(files.NewReadTool(cfg))
	reg.Register(files.NewWriteTool(cfg))
	reg.Register(files.NewEditTool(cfg))
	reg.Register(files.NewDeleteTool(cfg))
	reg.Register(files.NewListDirectoryTool(cfg))
	reg.Register(search.NewGrepTool(search.Config{Workspace: workspace}))
	reg.Register(search.NewGlobTool(search.Config{Workspace: workspace}))
	reg.Register(shell.New(shell.Config{WorkDir: workspace}))
	reg.Register(reasoning.New())
	return reg
}

// buildExecutor wires one executor.Executor instance from the demo's
// collaborators. dbPath is the sub-agent session store key (spec.md §4.G
// threads this as a plain string across the sub-agent worker boundary since
// the underlying handle it names is not itself thread-safe).
func buildExecutor(dbPath, workspace string, agents *staticAgentManager, sessions *sessionStore, settings *config.Store, mcpMgr *mcp.Manager, logger *slog.Logger) *executor.Executor {
	models := newStaticModelRegistry(
		executor.ModelRegistryEntry{Name: "demo", Kind: executor.ModelKindDefault},
	)

	var meta subagent.Manager
	meta = subagent.Manager{
		DBPath:       dbPath,
		CurrentModel: "demo",
		Sessions:     sessions,
		Logger:       logger,
	}

	var mcpSource executor.MCPToolSource
	if mcpMgr != nil {
		mcpSource = mcp.NewToolSource(mcpMgr)
	}

	e := executor.New(executor.Config{
		BaseTools: buildTools(workspace, logger),
		Agents:    agents,
		Models:    models,
		Factory:   demoFactory{},
		OAuth:     demoOAuth{},
		Settings:  settings,
		MCP:       mcpSource,
		Meta:      &meta,
		Logger:    logger,
	})
	meta.ExecFactory = &factoryAdapter{workspace: workspace, agents: agents, sessions: sessions, settings: settings, mcpMgr: mcpMgr, logger: logger}
	return e
}

// factoryAdapter implements subagent.ExecutorFactory by constructing a
// fresh executor exactly the way buildExecutor does for the top-level run,
// satisfying spec.md §4.G/§9's requirement that every invoke_agent call get
// its own executor bound to its own database handle.
type factoryAdapter struct {
	workspace string
	agents    *staticAgentManager
	sessions  *sessionStore
	settings  *config.Store
	mcpMgr    *mcp.Manager
	logger    *slog.Logger
}

func (f *factoryAdapter) NewExecutor(dbPath string) (*executor.Executor, error) {
	return buildExecutor(dbPath, f.workspace, f.agents, f.sessions, f.settings, f.mcpMgr, f.logger), nil
}
