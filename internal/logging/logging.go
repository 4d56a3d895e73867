// Package logging constructs the process logger. The primary protocol
// stream (stdout) is never a valid sink: diagnostics go to an append-only
// file when configured, otherwise to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flagbridge/flagbridge/internal/logctx"
)

// ParseLevel maps a config level string onto a slog.Level. Unknown values
// are an error rather than a silent default.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}
}

// New builds a JSON slog.Logger writing to the chosen sink at the given
// threshold. When filePath is non-empty the sink is that file, opened
// append-only; the returned closer owns it. Otherwise the sink is stderr and
// the closer is a no-op.
func New(level, filePath string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var sink io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = f
		closer = f
	}

	h := logctx.Handler{Handler: slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: lvl})}
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
