package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flagbridge/flagbridge/internal/logctx"
	"github.com/flagbridge/flagbridge/mcp"
)

// Handler executes one tool invocation. args is the value produced by the
// tool's InputSchema. Errors returned (or panics raised) are caught at the
// dispatch boundary and normalized; handlers must not log their own failure
// line, the dispatcher emits exactly one.
type Handler func(ctx context.Context, ec *ExecutionContext, args any, progress ProgressReporter) (*mcp.CallToolResult, error)

// ToolDefinition pairs a tool descriptor with its input schema and handler.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      InputSchema
	Handler     Handler
}

// NewTool builds a ToolDefinition from a typed argument struct A. The input
// schema is reflected from A; at dispatch time the parsed value is handed to
// fn already typed.
func NewTool[A any](name, description string, fn func(ctx context.Context, ec *ExecutionContext, args A, progress ProgressReporter) (*mcp.CallToolResult, error)) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: description,
		Schema:      SchemaFor[A](),
		Handler: func(ctx context.Context, ec *ExecutionContext, args any, progress ProgressReporter) (*mcp.CallToolResult, error) {
			a, ok := args.(A)
			if !ok {
				return nil, fmt.Errorf("internal: argument type mismatch for tool %s", name)
			}
			return fn(ctx, ec, a, progress)
		},
	}
}

// Registry owns the name→handler mapping. Registration happens once at
// startup; after serving begins the registry is read-only and safe to share
// across concurrent invocations without locks.
type Registry struct {
	order []mcp.Tool
	defs  map[string]ToolDefinition
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]ToolDefinition)}
}

// Register adds a tool. A duplicate name is a conflict and is reported as an
// error so callers can treat it as startup-fatal before any invocation is
// possible.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool registration: empty name")
	}
	if def.Schema == nil || def.Handler == nil {
		return fmt.Errorf("tool registration: %s needs a schema and a handler", def.Name)
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool registration: duplicate name %q", def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: def.Schema.Descriptor(),
	})
	return nil
}

// Tools returns the registered tool descriptors in registration order.
func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, len(r.order))
	copy(out, r.order)
	return out
}

// Invoke dispatches one tool call. It never returns an unhandled fault:
// every failure — unknown name, schema violation, handler error, handler
// panic — comes back as a structured failure result carrying the normalized
// error kind. No timeout is enforced here; that belongs to the transport.
func (r *Registry) Invoke(ctx context.Context, ec *ExecutionContext, req *mcp.CallToolRequestReceived) *mcp.CallToolResult {
	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: req.Name})

	def, ok := r.defs[req.Name]
	if !ok {
		return r.fail(ctx, ec, &NormalizedError{
			Kind:    KindToolNotFound,
			Message: fmt.Sprintf("tool not found: %s", req.Name),
			Hint:    "call tools/list for the registered tool names",
		})
	}

	args, err := def.Schema.Parse(req.Arguments)
	if err != nil {
		return r.fail(ctx, ec, Normalize(err))
	}

	var token mcp.ProgressToken
	if req.Meta != nil {
		token = req.Meta.ProgressToken
	}
	reporter := ec.Progress().For(token)

	res, err := func() (res *mcp.CallToolResult, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("handler panic: %v", p)
			}
		}()
		return def.Handler(ctx, ec, args, reporter)
	}()
	if err != nil {
		return r.fail(ctx, ec, Normalize(err))
	}
	if res == nil {
		res = &mcp.CallToolResult{}
	}
	return res
}

// fail emits the single per-error log line and shapes the failure result.
func (r *Registry) fail(ctx context.Context, ec *ExecutionContext, ne *NormalizedError) *mcp.CallToolResult {
	ec.Log().ErrorContext(ctx, "tool invocation failed",
		slog.String("kind", string(ne.Kind)),
		slog.String("error", ne.Message))
	return FailureResult(ne)
}

// FailureResult shapes a normalized error into a tool result: a
// human-readable message (with the actionable hint when present) plus the
// machine-readable kind under _meta so agents can branch on it.
func FailureResult(ne *NormalizedError) *mcp.CallToolResult {
	text := ne.Message
	meta := map[string]any{"errorKind": string(ne.Kind)}
	if ne.Hint != "" {
		text += "\nHint: " + ne.Hint
		meta["hint"] = ne.Hint
	}
	return &mcp.CallToolResult{
		IsError:      true,
		Content:      []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: text}},
		BaseMetadata: mcp.BaseMetadata{Meta: meta},
	}
}

// TextResult builds a success result with a single text block.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: s}}}
}

// JSONResult builds a success result whose text block is v marshaled as
// indented JSON.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return TextResult(string(b)), nil
}
