// Command flagbridge bridges remote feature-flag management to an AI agent
// over MCP. The primary transport is newline-delimited JSON-RPC on stdio;
// an HTTP POST bridge can be enabled alongside it.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flagbridge/flagbridge/bridge"
	"github.com/flagbridge/flagbridge/config"
	"github.com/flagbridge/flagbridge/flagapi"
	"github.com/flagbridge/flagbridge/flagfile"
	"github.com/flagbridge/flagbridge/flagtools"
	"github.com/flagbridge/flagbridge/httpbridge"
	"github.com/flagbridge/flagbridge/internal/logging"
	"github.com/flagbridge/flagbridge/mcp"
	"github.com/flagbridge/flagbridge/stdio"
)

const version = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flagbridge:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := flagapi.NewREST(cfg.BaseURL, cfg.AccessToken, log)

	var overrides *flagfile.Store
	if cfg.OverridesFile != "" {
		overrides, err = flagfile.Open(cfg.OverridesFile, log)
		if err != nil {
			return err
		}
		go func() {
			if err := overrides.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("overrides watch stopped", slog.String("error", err.Error()))
			}
		}()
		log.Info("flag overrides loaded",
			slog.String("path", cfg.OverridesFile),
			slog.Int("count", overrides.Len()),
		)
	}

	conn := stdio.NewConn(os.Stdin, os.Stdout, log)
	emitter := bridge.NewProgressEmitter(conn.Notify, log)

	ec, err := bridge.NewExecutionContext(cfg, client, log, emitter)
	if err != nil {
		return err
	}

	registry := bridge.NewRegistry()
	resources := bridge.NewResourceSet()
	if err := flagtools.RegisterAll(registry, resources, overrides); err != nil {
		return err
	}

	router := bridge.NewRouter(ec, registry, resources, mcp.ImplementationInfo{
		Name:    "flagbridge",
		Version: version,
	})

	if cfg.HTTPListen != "" {
		srv := &http.Server{Addr: cfg.HTTPListen, Handler: httpbridge.New(router, log)}
		go func() {
			log.Info("http bridge listening", slog.String("addr", cfg.HTTPListen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http bridge failed", slog.String("error", err.Error()))
			}
		}()
		defer srv.Close()
	}

	log.Info("flagbridge ready",
		slog.String("base_url", cfg.BaseURL),
		slog.Bool("dry_run", cfg.DryRun),
	)

	err = stdio.NewHandler(conn, router, log).Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
