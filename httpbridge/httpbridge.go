// Package httpbridge exposes the router over single-exchange HTTP POST.
// Each request body carries one JSON-RPC message; the response body carries
// the reply. There is no notification channel, so progress notifications
// for calls arriving here are dropped (the delivery contract is
// best-effort).
package httpbridge

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/internal/jsonrpc"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// Handler serves one JSON-RPC exchange per POST.
type Handler struct {
	router *bridge.Router
	log    *slog.Logger
}

// New constructs the HTTP handler. The router is derived without progress
// delivery: this transport has no notification channel, and a progressToken
// arriving here must not surface on another peer's stream.
func New(router *bridge.Router, log *slog.Logger) *Handler {
	return &Handler{router: router.WithoutProgress(), log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mt, err := contenttype.GetMediaType(r)
	if err != nil || !mt.Matches(jsonMediaType) {
		http.Error(w, "unsupported media type, expected application/json", http.StatusUnsupportedMediaType)
		return
	}

	if r.Header.Get("Accept") != "" {
		if _, _, err := contenttype.GetAcceptableMediaType(r, []contenttype.MediaType{jsonMediaType}); err != nil {
			http.Error(w, "not acceptable, this endpoint produces application/json", http.StatusNotAcceptable)
			return
		}
	}

	var msg jsonrpc.AnyMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.writeResponse(w, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error: "+err.Error(), nil))
		return
	}

	req := msg.AsRequest()
	if req == nil {
		http.Error(w, "request body must be a JSON-RPC request", http.StatusBadRequest)
		return
	}

	resp := h.router.Handle(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeResponse(w, resp)
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("failed to write http response", slog.String("error", err.Error()))
	}
}
