// Package logctx enriches slog records with request-scoped attributes
// carried on the context. The dispatch layer stores the current RPC message,
// tool call, or resource read on the context; every log line emitted below
// that point picks the attributes up without explicit plumbing.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps an inner slog.Handler and appends context-derived attrs.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if msg, ok := ctx.Value(rpcMsgKey{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
		))
	}

	if td, ok := ctx.Value(toolCallKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
		))
	}

	if uri, ok := ctx.Value(resourceKey{}).(string); ok {
		r.AddAttrs(slog.String("resource_uri", uri))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type rpcMsgKey struct{}

// RPCMessage identifies the JSON-RPC message being served.
type RPCMessage struct {
	Method string
	ID     string
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsgKey{}, msg)
}

type toolCallKey struct{}

// ToolCallData identifies the tool invocation being dispatched.
type ToolCallData struct {
	ToolName string
}

func WithToolCallData(ctx context.Context, data *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallKey{}, data)
}

type resourceKey struct{}

func WithResourceURI(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, resourceKey{}, uri)
}
