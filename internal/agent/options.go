package agent

import (
	"log/slog"
	"time"
)

// ModelSettings configures per-model generation behavior, loaded by the
// executor as part of model resolution (spec run-options step).
type ModelSettings struct {
	Temperature      float64
	TopP             float64
	ExtendedThinking bool
	MaxTokens        int
	SupportsThinking bool
	ThinkingDisabled bool
}

// Normalize applies the vendor requirement that a thinking-capable model
// not explicitly opted out of extended thinking must run at temperature 1.0.
func (s ModelSettings) Normalize() ModelSettings {
	if s.SupportsThinking && !s.ThinkingDisabled {
		s.Temperature = 1.0
	}
	return s
}

// RunOptions configures one executor run: tool concurrency, retry policy,
// and diagnostics. The executor reads ShowReasoning for tool filtering and
// hands the whole value to the ModelRuntime unchanged; the parallel tool
// Executor in this package does not read the Tool* fields (it is configured
// through ExecutorConfig instead).
type RunOptions struct {
	// MaxIterations limits tool-use iterations per request.
	MaxIterations int

	// ToolParallelism caps concurrent tool execution.
	ToolParallelism int

	// ToolTimeout applies a default timeout to each tool call.
	ToolTimeout time.Duration

	// ToolMaxAttempts controls retry attempts for tool execution.
	ToolMaxAttempts int

	// ToolRetryBackoff waits between retry attempts.
	ToolRetryBackoff time.Duration

	// ShowReasoning controls whether share_your_reasoning survives tool
	// filtering.
	ShowReasoning bool

	// Logger receives executor diagnostics.
	Logger *slog.Logger
}

// DefaultRunOptions returns the baseline run options.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		MaxIterations:    5,
		ToolParallelism:  4,
		ToolTimeout:      30 * time.Second,
		ToolMaxAttempts:  1,
		ToolRetryBackoff: 0,
		Logger:           slog.Default(),
	}
}

// MergeRunOptions overlays any non-zero field of override onto base.
func MergeRunOptions(base, override RunOptions) RunOptions {
	merged := base
	if override.MaxIterations > 0 {
		merged.MaxIterations = override.MaxIterations
	}
	if override.ToolParallelism > 0 {
		merged.ToolParallelism = override.ToolParallelism
	}
	if override.ToolTimeout > 0 {
		merged.ToolTimeout = override.ToolTimeout
	}
	if override.ToolMaxAttempts > 0 {
		merged.ToolMaxAttempts = override.ToolMaxAttempts
	}
	if override.ToolRetryBackoff > 0 {
		merged.ToolRetryBackoff = override.ToolRetryBackoff
	}
	if override.ShowReasoning {
		merged.ShowReasoning = true
	}
	if override.Logger != nil {
		merged.Logger = override.Logger
	}
	return merged
}
