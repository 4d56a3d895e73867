package stdio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/config"
	"github.com/flagbridge/flagbridge/flagapi/flagapitest"
	"github.com/flagbridge/flagbridge/internal/jsonrpc"
	"github.com/flagbridge/flagbridge/mcp"
)

type reportingArgs struct {
	FlagKey string `json:"flag_key"`
}

// serveLines runs the handler over the given input lines and returns the
// decoded output messages in write order.
func serveLines(t *testing.T, input string) []jsonrpc.AnyMessage {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var out bytes.Buffer
	conn := NewConn(strings.NewReader(input), &out, log)
	emitter := bridge.NewProgressEmitter(conn.Notify, log)

	cfg := &config.Config{
		BaseURL:     "https://flags.test",
		AccessToken: "tok",
		Project:     "proj",
		Environment: "production",
		LogLevel:    "info",
	}
	ec, err := bridge.NewExecutionContext(cfg, &flagapitest.Stub{}, log, emitter)
	if err != nil {
		t.Fatal(err)
	}

	reg := bridge.NewRegistry()
	def := bridge.NewTool("report_twice", "reports start and completion",
		func(ctx context.Context, ec *bridge.ExecutionContext, args reportingArgs, progress bridge.ProgressReporter) (*mcp.CallToolResult, error) {
			progress.Report(ctx, 0, 100)
			progress.Report(ctx, 100, 100)
			return bridge.TextResult(args.FlagKey), nil
		})
	if err := reg.Register(def); err != nil {
		t.Fatal(err)
	}

	router := bridge.NewRouter(ec, reg, bridge.NewResourceSet(), mcp.ImplementationInfo{Name: "flagbridge", Version: "test"})
	if err := NewHandler(conn, router, log).Serve(context.Background()); err != nil {
		t.Fatalf("serve: %v", err)
	}

	var msgs []jsonrpc.AnyMessage
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var msg jsonrpc.AnyMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			t.Fatalf("output line %q is not a JSON-RPC message: %v", line, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestServeRoundTrip(t *testing.T) {
	t.Parallel()

	input := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","clientInfo":{"name":"c","version":"1"}}}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	msgs := serveLines(t, input)
	if len(msgs) != 2 {
		t.Fatalf("got %d output messages, want 2 (notification produces none)", len(msgs))
	}

	var init mcp.InitializeResult
	if err := json.Unmarshal(msgs[0].Result, &init); err != nil {
		t.Fatalf("decode initialize result: %v", err)
	}
	if init.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Errorf("protocolVersion = %q", init.ProtocolVersion)
	}

	var list mcp.ListToolsResult
	if err := json.Unmarshal(msgs[1].Result, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "report_twice" {
		t.Errorf("tools = %+v", list.Tools)
	}
}

func TestServeInterleavesProgressBeforeResponse(t *testing.T) {
	t.Parallel()

	input := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"report_twice","arguments":{"flag_key":"f"},"_meta":{"progressToken":"tok-9"}}}` + "\n"

	msgs := serveLines(t, input)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 2 progress notifications then the response", len(msgs))
	}

	for i, wantProgress := range []float64{0, 100} {
		if msgs[i].Method != string(mcp.ProgressNotificationMethod) {
			t.Fatalf("message %d method = %q", i, msgs[i].Method)
		}
		var params mcp.ProgressNotificationParams
		if err := json.Unmarshal(msgs[i].Params, &params); err != nil {
			t.Fatal(err)
		}
		if params.ProgressToken != "tok-9" || params.Progress != wantProgress || params.Total != 100 {
			t.Errorf("notification %d = %+v", i, params)
		}
	}

	if msgs[2].ID == nil || msgs[2].ID.String() != "5" {
		t.Errorf("response id = %v, want 5", msgs[2].ID)
	}
	var res mcp.CallToolResult
	if err := json.Unmarshal(msgs[2].Result, &res); err != nil {
		t.Fatal(err)
	}
	if res.IsError || res.Content[0].Text != "f" {
		t.Errorf("result = %+v", res)
	}
}

func TestServeWithoutTokenSendsNoNotifications(t *testing.T) {
	t.Parallel()

	input := `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"report_twice","arguments":{"flag_key":"f"}}}` + "\n"

	msgs := serveLines(t, input)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want only the response", len(msgs))
	}
	if msgs[0].Method != "" {
		t.Errorf("unexpected notification %q", msgs[0].Method)
	}
}

func TestServeRespondsToUnparseableLines(t *testing.T) {
	t.Parallel()

	input := "this is not json\n" +
		`{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n"

	msgs := serveLines(t, input)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want parse error plus pong", len(msgs))
	}
	if msgs[0].Error == nil || msgs[0].Error.Code != jsonrpc.ErrorCodeParseError {
		t.Errorf("first message = %+v, want parse error", msgs[0])
	}
	if msgs[1].ID.String() != "7" || msgs[1].Error != nil {
		t.Errorf("second message = %+v, want pong for id 7", msgs[1])
	}
}

func TestServeIgnoresInboundResponses(t *testing.T) {
	t.Parallel()

	input := `{"jsonrpc":"2.0","id":1,"result":{}}` + "\n" +
		`{"jsonrpc":"2.0","id":8,"method":"ping"}` + "\n"

	msgs := serveLines(t, input)
	if len(msgs) != 1 || msgs[0].ID.String() != "8" {
		t.Fatalf("messages = %+v, want only the pong", msgs)
	}
}
