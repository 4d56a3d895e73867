// Package stdio implements the primary transport: newline-delimited
// JSON-RPC over the process's standard streams. stdout carries exactly one
// JSON object per line and nothing else; all diagnostics go to the logger.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/internal/jsonrpc"
	"github.com/flagbridge/flagbridge/mcp"
)

const (
	initialBufSize = 1024 * 1024
	maxLineSize    = 10 * 1024 * 1024
)

// Conn owns the output stream. Responses and server-initiated notifications
// share one writer, serialized by a mutex so concurrent sends never
// interleave bytes within a line.
type Conn struct {
	in  io.Reader
	log *slog.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewConn wraps the given streams.
func NewConn(in io.Reader, out io.Writer, log *slog.Logger) *Conn {
	return &Conn{in: in, out: out, log: log}
}

// Notify sends a server-initiated notification. It satisfies
// bridge.NotificationSender.
func (c *Conn) Notify(ctx context.Context, method mcp.Method, params any) error {
	return c.writeMessage(jsonrpc.NewNotification(string(method), params))
}

// WriteResponse sends one response line.
func (c *Conn) WriteResponse(resp *jsonrpc.Response) error {
	return c.writeMessage(resp)
}

func (c *Conn) writeMessage(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Handler reads requests line by line and routes them.
type Handler struct {
	conn   *Conn
	router *bridge.Router
	log    *slog.Logger
}

// NewHandler constructs a stdio serve loop over an established connection.
func NewHandler(conn *Conn, router *bridge.Router, log *slog.Logger) *Handler {
	return &Handler{conn: conn, router: router, log: log}
}

// Serve processes messages until the input stream closes or ctx is done.
// Malformed lines produce a parse-error response; inbound non-request
// messages are ignored.
func (h *Handler) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(h.conn.in)
	scanner.Buffer(make([]byte, initialBufSize), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg jsonrpc.AnyMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			h.log.WarnContext(ctx, "discarding unparseable message", slog.String("error", err.Error()))
			resp := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error: "+err.Error(), nil)
			if err := h.conn.WriteResponse(resp); err != nil {
				return err
			}
			continue
		}

		req := msg.AsRequest()
		if req == nil {
			h.log.DebugContext(ctx, "ignoring non-request message")
			continue
		}

		resp := h.router.Handle(ctx, req)
		if resp == nil {
			continue
		}
		if err := h.conn.WriteResponse(resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
