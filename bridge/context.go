package bridge

import (
	"fmt"
	"log/slog"

	"github.com/flagbridge/flagbridge/config"
	"github.com/flagbridge/flagbridge/flagapi"
)

// ExecutionContext is the single composition point for everything a handler
// may reach: validated config, the remote client, the logger and the
// progress emitter. It is constructed exactly once, after config validation
// succeeds and before any protocol connection opens, and its fields are
// never reassigned afterwards. Handlers must not construct their own or
// reach collaborators any other way; that is what lets tests substitute
// doubles for the remote client and logger without touching handler code.
type ExecutionContext struct {
	cfg      *config.Config
	client   flagapi.Client
	log      *slog.Logger
	progress *ProgressEmitter
}

// NewExecutionContext composes the context. A nil collaborator is a
// construction error, which callers treat as fatal.
func NewExecutionContext(cfg *config.Config, client flagapi.Client, log *slog.Logger, progress *ProgressEmitter) (*ExecutionContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("execution context: config is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("execution context: remote client is nil")
	}
	if log == nil {
		return nil, fmt.Errorf("execution context: logger is nil")
	}
	if progress == nil {
		return nil, fmt.Errorf("execution context: progress emitter is nil")
	}
	return &ExecutionContext{cfg: cfg, client: client, log: log, progress: progress}, nil
}

// Config returns the immutable process configuration.
func (ec *ExecutionContext) Config() *config.Config { return ec.cfg }

// Client returns the remote feature-flag API collaborator.
func (ec *ExecutionContext) Client() flagapi.Client { return ec.client }

// Log returns the process logger.
func (ec *ExecutionContext) Log() *slog.Logger { return ec.log }

// Progress returns the progress emitter.
func (ec *ExecutionContext) Progress() *ProgressEmitter { return ec.progress }

// ProjectKey resolves a project key: the explicit value wins, then the
// configured default; neither present is a missing-configuration failure.
func (ec *ExecutionContext) ProjectKey(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if ec.cfg.Project != "" {
		return ec.cfg.Project, nil
	}
	return "", MissingConfig("project key", "FLAGBRIDGE_PROJECT")
}

// EnvironmentKey resolves an environment key the same way ProjectKey does.
func (ec *ExecutionContext) EnvironmentKey(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if ec.cfg.Environment != "" {
		return ec.cfg.Environment, nil
	}
	return "", MissingConfig("environment key", "FLAGBRIDGE_ENVIRONMENT")
}
