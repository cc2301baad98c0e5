package mcp

import (
	"context"
	"encoding/json"
)

// Transport is the wire-level collaborator a Client drives: a request/
// response RPC call, a fire-and-forget notification, and the two inbound
// channels (server notifications, server-initiated requests) a long-lived
// connection needs regardless of which concrete framing carries it.
type Transport interface {
	// Connect establishes the transport connection.
	Connect(ctx context.Context) error

	// Close closes the transport connection.
	Close() error

	// Call sends a request and waits for a response.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)

	// Notify sends a notification (no response expected).
	Notify(ctx context.Context, method string, params any) error

	// Events returns a channel for receiving notifications from the server.
	Events() <-chan *JSONRPCNotification

	// Requests returns a channel for receiving server-initiated requests.
	Requests() <-chan *JSONRPCRequest

	// Respond sends a response to a server-initiated request.
	Respond(ctx context.Context, id any, result any, rpcErr *JSONRPCError) error

	// Connected returns whether the transport is connected.
	Connected() bool
}

// NewTransport selects a transport implementation from cfg.Transport. An
// empty or unrecognized value defaults to stdio, the shape every MCP server
// in this ecosystem supports even when it also offers HTTP.
func NewTransport(cfg *ServerConfig) Transport {
	switch cfg.Transport {
	case TransportHTTP:
		return NewHTTPTransport(cfg)
	case TransportStdio, "":
		return NewStdioTransport(cfg)
	default:
		return NewStdioTransport(cfg)
	}
}
