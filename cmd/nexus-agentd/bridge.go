package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nexuscore/agent/internal/agent"
	"github.com/nexuscore/agent/internal/executor"
	"github.com/nexuscore/agent/internal/ndjson"
	"github.com/nexuscore/agent/pkg/bus"
	"github.com/nexuscore/agent/pkg/models"
)

// buildBridgeCmd runs the NDJSON bridge protocol (spec component I) over
// stdin/stdout: one "ready" record, then one JSON record per bus.Message for
// every inbound "prompt" command read from stdin, until "shutdown" or EOF.
func buildBridgeCmd(logger *slog.Logger, workspace, mcpConfigPath, settingsPath *string) *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Run the NDJSON bridge protocol over stdin/stdout",
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

			sessions := newSessionStore()
			exec := buildExecutor("nexus-agentd-bridge", *workspace, agents, sessions, settings, mcpMgr, logger)

			b := bus.New(logger)

			renderer := ndjson.NewRenderer(b.Subscribe(), cmd.OutOrStdout(), logger)
			renderDone := make(chan error, 1)
			go func() { renderDone <- renderer.Run() }()

			if err := renderer.Ready(); err != nil {
				return fmt.Errorf("writing ready record: %w", err)
			}

			reader := ndjson.NewCommandReader(cmd.InOrStdin())
			currentAgent := agentName

			for {
				in, err := reader.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					logger.Warn("discarding malformed bridge command", "error", err)
					continue
				}

				switch in.Type {
				case ndjson.InShutdown:
					goto drain

				case ndjson.InSwitchAgent:
					currentAgent = in.Agent

				case ndjson.InPrompt:
					desc, ok := agents.Resolve(currentAgent)
					if !ok {
						logger.Warn("unknown agent requested by bridge command", "agent", currentAgent)
						continue
					}
					req := executor.Request{
						Agent:     desc,
						ModelName: in.Model,
						History:   models.History{},
						Prompt:    in.Text,
						RunOpts:   agent.DefaultRunOptions(),
					}
					go func() {
						if _, err := exec.ExecuteWithBus(ctx, req, b.Sender()); err != nil {
							logger.Error("bridge run failed", "error", err)
						}
					}()

				default:
					logger.Debug("bridge command not handled by this demo host", "type", in.Type)
				}
			}

		drain:
			b.Close()
			<-renderDone
			return nil
		},
	}
	cmd.Flags().StringVar(&agentName, "agent", "main", "Default agent for prompt commands")
	return cmd
}
