package httpbridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/config"
	"github.com/flagbridge/flagbridge/flagapi/flagapitest"
	"github.com/flagbridge/flagbridge/internal/jsonrpc"
	"github.com/flagbridge/flagbridge/mcp"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		BaseURL:     "https://flags.test",
		AccessToken: "tok",
		Project:     "proj",
		Environment: "production",
		LogLevel:    "info",
	}
	ec, err := bridge.NewExecutionContext(cfg, &flagapitest.Stub{}, log, bridge.NewProgressEmitter(nil, log))
	if err != nil {
		t.Fatal(err)
	}
	router := bridge.NewRouter(ec, bridge.NewRegistry(), bridge.NewResourceSet(), mcp.ImplementationInfo{Name: "flagbridge", Version: "test"})
	return New(router, log)
}

func post(t *testing.T, h *Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRejectsNonPost(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRejectsNonJSONContentType(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := post(t, h, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{
		"Content-Type": "text/plain",
	})
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestRejectsUnacceptableAccept(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := post(t, h, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{
		"Accept": "text/event-stream",
	})
	if rec.Code != http.StatusNotAcceptable {
		t.Errorf("status = %d, want 406", rec.Code)
	}
}

func TestPingExchange(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := post(t, h, `{"jsonrpc":"2.0","id":"h1","method":"ping"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	var resp jsonrpc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != nil || resp.ID.String() != "h1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestMalformedBodyIsAParseError(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := post(t, h, "not json", nil)
	var resp jsonrpc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != jsonrpc.ErrorCodeParseError {
		t.Errorf("response = %+v, want parse error", resp)
	}
}

func TestNotificationIsAccepted(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := post(t, h, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("notification response body = %q, want empty", rec.Body)
	}
}

// scanArgs is named because the jsonschema reflector cannot expand an
// anonymous struct type.
type scanArgs struct{}

func TestProgressTokensNeverReachTheOtherPeer(t *testing.T) {
	t.Parallel()

	// The router's emitter stands in for the stdio peer's stream. A token
	// supplied over HTTP must be dropped, not written there.
	var sent atomic.Int64
	sender := func(ctx context.Context, method mcp.Method, params any) error {
		sent.Add(1)
		return nil
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		BaseURL:     "https://flags.test",
		AccessToken: "tok",
		Project:     "proj",
		Environment: "production",
		LogLevel:    "info",
	}
	ec, err := bridge.NewExecutionContext(cfg, &flagapitest.Stub{}, log, bridge.NewProgressEmitter(sender, log))
	if err != nil {
		t.Fatal(err)
	}
	reg := bridge.NewRegistry()
	err = reg.Register(bridge.NewTool("scan", "reports progress while running",
		func(ctx context.Context, ec *bridge.ExecutionContext, args scanArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			progress.Report(ctx, 0, 1)
			progress.Report(ctx, 1, 1)
			return bridge.TextResult("done"), nil
		}))
	if err != nil {
		t.Fatal(err)
	}
	router := bridge.NewRouter(ec, reg, bridge.NewResourceSet(), mcp.ImplementationInfo{Name: "flagbridge", Version: "test"})
	h := New(router, log)

	rec := post(t, h, `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"scan","arguments":{},"_meta":{"progressToken":"http-tok"}}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp jsonrpc.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != nil {
		t.Fatalf("response = %+v", resp)
	}
	if n := sent.Load(); n != 0 {
		t.Errorf("%d notifications delivered to the other peer, want none", n)
	}
}

func TestResponseBodyIsRejected(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)
	rec := post(t, h, `{"jsonrpc":"2.0","id":1,"result":{}}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
