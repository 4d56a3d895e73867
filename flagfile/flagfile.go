// Package flagfile loads local flag value overrides from a YAML file and
// keeps them fresh while the process runs. Overrides take precedence over
// remote evaluation, which makes local testing possible without touching
// the hosted flag state.
package flagfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// debounceWindow coalesces bursts of filesystem events (editors often
// write a file several times in quick succession).
const debounceWindow = 250 * time.Millisecond

type document struct {
	Flags map[string]any `yaml:"flags"`
}

// Store holds the current override set. Lookups are safe for concurrent
// use with reloads.
type Store struct {
	path string
	log  *slog.Logger

	mu    sync.RWMutex
	flags map[string]any
}

// Open reads the overrides file at path. The file must exist and parse;
// later reloads are best-effort and keep the previous data on failure.
func Open(path string, log *slog.Logger) (*Store, error) {
	s := &Store{path: path, log: log}
	flags, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("overrides file: %w", err)
	}
	s.flags = flags
	return s, nil
}

func load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Flags == nil {
		doc.Flags = map[string]any{}
	}
	return doc.Flags, nil
}

// Lookup returns the override value for a flag key, if one is set.
func (s *Store) Lookup(flagKey string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.flags[flagKey]
	return v, ok
}

// Len returns the number of overrides currently loaded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags)
}

// Watch reloads the store when the file changes, until ctx is done. The
// watch is placed on the containing directory so rename-and-replace saves
// are observed. Reload failures are logged and the previous data kept.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch overrides: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			s.reload(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.WarnContext(ctx, "overrides watcher error", slog.String("error", err.Error()))
		}
	}
}

func (s *Store) reload(ctx context.Context) {
	flags, err := load(s.path)
	if err != nil {
		s.log.WarnContext(ctx, "overrides reload failed, keeping previous data",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return
	}
	s.mu.Lock()
	s.flags = flags
	s.mu.Unlock()
	s.log.InfoContext(ctx, "overrides reloaded",
		slog.String("path", s.path),
		slog.Int("count", len(flags)),
	)
}
