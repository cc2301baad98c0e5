package executor

import (
	"context"

	"github.com/nexuscore/agent/pkg/bus"
)

type contextKey int

const (
	senderKey contextKey = iota
	modelNameKey
)

// WithSender attaches the bus.Sender a run is publishing onto to ctx, so a
// tool invoked mid-run (invoke_agent) can detect that a bus was inherited
// and keep its own output on the same stream instead of running blind.
func WithSender(ctx context.Context, sender bus.Sender) context.Context {
	return context.WithValue(ctx, senderKey, sender)
}

// SenderFromContext retrieves a sender attached by WithSender.
func SenderFromContext(ctx context.Context) (bus.Sender, bool) {
	s, ok := ctx.Value(senderKey).(bus.Sender)
	return s, ok
}

// WithModelName attaches the model name the current run is executing under,
// so invoke_agent can default a sub-agent to its parent's model.
func WithModelName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, modelNameKey, name)
}

// ModelNameFromContext retrieves a model name attached by WithModelName.
func ModelNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(modelNameKey).(string)
	return name, ok
}
