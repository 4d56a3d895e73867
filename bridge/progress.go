package bridge

import (
	"context"
	"log/slog"

	"github.com/flagbridge/flagbridge/mcp"
)

// NotificationSender delivers one server-initiated notification to the
// peer. Transports that cannot deliver notifications pass nil, which makes
// the emitter a no-op.
type NotificationSender func(ctx context.Context, method mcp.Method, params any) error

// ProgressEmitter produces token-correlated, best-effort progress
// notifications. Delivery is unguaranteed: any send failure is discarded
// locally (logged at debug) and must never alter the outcome of the
// triggering invocation.
type ProgressEmitter struct {
	send NotificationSender
	log  *slog.Logger
}

// NewProgressEmitter builds an emitter over the transport's notification
// channel. send may be nil.
func NewProgressEmitter(send NotificationSender, log *slog.Logger) *ProgressEmitter {
	return &ProgressEmitter{send: send, log: log}
}

// ProgressReporter reports progress of one invocation. Callers should
// report at least at start (progress=0) and completion (progress=total);
// intermediate reports are optional. Progress values must be monotonic
// within one invocation; that is the caller's responsibility, the reporter
// does not enforce it. Ordering across concurrent invocations sharing one
// token is undefined.
type ProgressReporter interface {
	// Report emits a numeric (progress, total) notification.
	Report(ctx context.Context, progress, total float64)
	// Message emits a human-readable status line. It follows the numeric
	// notification it annotates; the pair is ordered, not atomic.
	Message(ctx context.Context, text string)
}

// For returns the reporter for one invocation. A nil token means the caller
// wants no progress: the returned reporter performs zero sends at zero cost.
func (e *ProgressEmitter) For(token mcp.ProgressToken) ProgressReporter {
	if e == nil || e.send == nil || token == nil {
		return nopReporter{}
	}
	return &tokenReporter{emitter: e, token: token}
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, float64, float64) {}
func (nopReporter) Message(context.Context, string)          {}

type tokenReporter struct {
	emitter *ProgressEmitter
	token   mcp.ProgressToken
}

func (r *tokenReporter) Report(ctx context.Context, progress, total float64) {
	err := r.emitter.send(ctx, mcp.ProgressNotificationMethod, mcp.ProgressNotificationParams{
		ProgressToken: r.token,
		Progress:      progress,
		Total:         total,
	})
	if err != nil && r.emitter.log != nil {
		r.emitter.log.DebugContext(ctx, "progress notification dropped", slog.String("err", err.Error()))
	}
}

func (r *tokenReporter) Message(ctx context.Context, text string) {
	if text == "" {
		return
	}
	err := r.emitter.send(ctx, mcp.LoggingMessageNotificationMethod, mcp.LoggingMessageParams{
		Level:  mcp.LoggingLevelInfo,
		Data:   text,
		Logger: "flagbridge",
	})
	if err != nil && r.emitter.log != nil {
		r.emitter.log.DebugContext(ctx, "status notification dropped", slog.String("err", err.Error()))
	}
}
