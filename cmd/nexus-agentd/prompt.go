package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/executor"
	"github.com/nexuscore/agent/pkg/models"
)

// buildPromptCmd runs one blocking agent turn and prints its output.
func buildPromptCmd(logger *slog.Logger, workspace, mcpConfigPath, settingsPath *string) *cobra.Command {
	var (
		agentName string
		modelName string
	)

	cmd := &cobra.Command{
		Use:   "prompt [text]",
		Short: "Run one blocking agent turn and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			settings, mcpMgr, agents, err := loadRuntime(*mcpConfigPath, *settingsPath, logger)
			if err != nil {
				return err
			}
			if err := mcpMgr.Start(ctx); err != nil {
				return fmt.Errorf("starting mcp manager: %w", err)
			}
			defer mcpMgr.Stop()

			desc, ok := agents.Resolve(agentName)
			if !ok {
				return fmt.Errorf("unknown agent %q", agentName)
			}

			sessions := newSessionStore()
			exec := buildExecutor("nexus-agentd-prompt", *workspace, agents, sessions, settings, mcpMgr, logger)

			req := executor.Request{
				Agent:     desc,
				ModelName: modelName,
				History:   models.History{},
				Prompt:    args[0],
				RunOpts:   agent.DefaultRunOptions(),
			}
			result, err := exec.Execute(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Output)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentName, "agent", "main", "Agent to run the prompt against")
	cmd.Flags().StringVar(&modelName, "model", "demo", "Model name to resolve")
	return cmd
}
