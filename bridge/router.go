package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/flagbridge/flagbridge/internal/jsonrpc"
	"github.com/flagbridge/flagbridge/internal/logctx"
	"github.com/flagbridge/flagbridge/mcp"
)

// ErrorCodeResourceNotFound is the MCP-defined code returned when a
// resources/read URI matches no registered template.
const ErrorCodeResourceNotFound jsonrpc.ErrorCode = -32002

// Router dispatches decoded JSON-RPC requests to the tool registry and
// resource set. It is transport-agnostic; the stdio and HTTP front ends
// both hand it one request at a time.
type Router struct {
	ec        *ExecutionContext
	registry  *Registry
	resources *ResourceSet
	info      mcp.ImplementationInfo
}

// NewRouter wires the dispatch surface together.
func NewRouter(ec *ExecutionContext, registry *Registry, resources *ResourceSet, info mcp.ImplementationInfo) *Router {
	return &Router{ec: ec, registry: registry, resources: resources, info: info}
}

// WithoutProgress derives a router whose invocations never emit progress
// notifications. Notifications go to the peer behind the emitter the router
// was built with; a transport with no notification channel of its own must
// use this derivation so a progressToken arriving there is dropped rather
// than delivered to another peer's stream.
func (rt *Router) WithoutProgress() *Router {
	ec := *rt.ec
	ec.progress = NewProgressEmitter(nil, ec.log)
	clone := *rt
	clone.ec = &ec
	return &clone
}

// Handle serves one request. A nil return means no response should be sent
// (the request was a notification). Handle never panics and never returns
// a malformed response; any internal failure becomes a JSON-RPC error.
func (rt *Router) Handle(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: req.Method,
		ID:     req.ID.String(),
	})

	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		return rt.handleInitialize(ctx, req)
	case mcp.InitializedNotificationMethod:
		return nil
	case mcp.PingMethod:
		return rt.result(ctx, req, &mcp.EmptyResult{})
	case mcp.ToolsListMethod:
		return rt.result(ctx, req, &mcp.ListToolsResult{Tools: rt.registry.Tools()})
	case mcp.ToolsCallMethod:
		return rt.handleToolsCall(ctx, req)
	case mcp.ResourcesListMethod:
		return rt.result(ctx, req, &mcp.ListResourcesResult{Resources: rt.resources.Concrete()})
	case mcp.ResourcesTemplatesListMethod:
		return rt.result(ctx, req, &mcp.ListResourceTemplatesResult{ResourceTemplates: rt.resources.Templates()})
	case mcp.ResourcesReadMethod:
		return rt.handleResourcesRead(ctx, req)
	default:
		if req.IsNotification() {
			rt.ec.Log().DebugContext(ctx, "ignoring unknown notification")
			return nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found: "+req.Method, nil)
	}
}

func (rt *Router) handleInitialize(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid initialize params: "+err.Error(), nil)
		}
	}

	rt.ec.Log().InfoContext(ctx, "client connected",
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
		slog.String("client_protocol", params.ProtocolVersion),
	)

	return rt.result(ctx, req, &mcp.InitializeResult{
		ProtocolVersion: mcp.LatestProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools:     &mcp.ToolsCapability{},
			Resources: &mcp.ResourcesCapability{},
			Logging:   &mcp.LoggingCapability{},
		},
		ServerInfo: rt.info,
	})
}

func (rt *Router) handleToolsCall(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.CallToolRequestReceived
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid tools/call params: "+err.Error(), nil)
	}
	if params.Name == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "tools/call requires a tool name", nil)
	}

	result := rt.registry.Invoke(ctx, rt.ec, &params)
	return rt.result(ctx, req, result)
}

func (rt *Router) handleResourcesRead(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.ReadResourceRequest
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid resources/read params: "+err.Error(), nil)
	}
	if params.URI == "" {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "resources/read requires a uri", nil)
	}
	ctx = logctx.WithResourceURI(ctx, params.URI)

	contents, err := rt.resources.Read(ctx, rt.ec, params.URI)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return jsonrpc.NewErrorResponse(req.ID, ErrorCodeResourceNotFound, err.Error(), map[string]any{"uri": params.URI})
		}
		ne := Normalize(err)
		rt.ec.Log().ErrorContext(ctx, "resource read failed",
			slog.String("kind", string(ne.Kind)),
			slog.String("error", ne.Message),
		)
		if ne.Kind == KindInvalidInput {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, ne.Message, map[string]any{"errorKind": string(ne.Kind)})
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, ne.Message, map[string]any{"errorKind": string(ne.Kind)})
	}

	return rt.result(ctx, req, &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{*contents}})
}

func (rt *Router) result(ctx context.Context, req *jsonrpc.Request, v any) *jsonrpc.Response {
	if req.IsNotification() {
		return nil
	}
	resp, err := jsonrpc.NewResultResponse(req.ID, v)
	if err != nil {
		rt.ec.Log().ErrorContext(ctx, "failed to encode response", slog.String("error", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "failed to encode response", nil)
	}
	return resp
}
