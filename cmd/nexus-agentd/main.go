// Package main provides the CLI entry point for nexus-agentd, a minimal
// demonstration host for the agent executor core: a single-process runtime
// that wires together the tool registry, MCP adapter, sub-agent manager, and
// NDJSON bridge renderer described by this module's spec.
//
// nexus-agentd never talks to a real model vendor; RunWithOptions/OpenStream
// are served by an in-process echo runtime (spec.md §1 places model vendor
// clients outside this core's scope). Its purpose is to exercise the core
// end to end, the way a real host process would wire it.
//
// # Basic usage
//
//	nexus-agentd prompt --agent main "list the files in this workspace"
//	nexus-agentd bridge --agent main
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexuscore/agent/internal/config"
	"github.com/nexuscore/agent/internal/mcp"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd(logger)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached. It is
// separated from main() to make the command tree constructible from tests.
func buildRootCmd(logger *slog.Logger) *cobra.Command {
	var (
		workspace     string
		mcpConfigPath string
		settingsPath  string
	)

	root := &cobra.Command{
		Use:          "nexus-agentd",
		Short:        "Agent executor core demo host",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&workspace, "workspace", ".", "Workspace root the file/shell/search tools operate in")
	root.PersistentFlags().StringVar(&mcpConfigPath, "mcp-config", "mcp_servers.json", "Path to the MCP server config file (.json or .yaml/.yml)")
	root.PersistentFlags().StringVar(&settingsPath, "settings", "nexus-agentd.settings.yaml", "Path to a YAML settings-store bootstrap profile")

	root.AddCommand(buildPromptCmd(logger, &workspace, &mcpConfigPath, &settingsPath))
	root.AddCommand(buildBridgeCmd(logger, &workspace, &mcpConfigPath, &settingsPath))
	return root
}

// loadRuntime builds the shared demo collaborators (settings store, MCP
// manager, agent roster) common to both subcommands.
func loadRuntime(mcpConfigPath, settingsPath string, logger *slog.Logger) (*config.Store, *mcp.Manager, *staticAgentManager, error) {
	settings := config.New()
	if err := settings.Bootstrap(settingsPath); err != nil {
		return nil, nil, nil, fmt.Errorf("loading settings profile: %w", err)
	}

	fileCfg, err := config.LoadMCPConfigAuto(mcpConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading mcp config: %w", err)
	}
	mcpMgr := mcp.NewManager(&mcp.Config{
		Enabled: len(fileCfg.Servers) > 0,
		Servers: fileCfg.ToServerConfigs(),
	}, logger)

	agents := newStaticAgentManager(defaultAgents()...)
	return settings, mcpMgr, agents, nil
}
