package flagfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestOpenAndLookup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	writeFile(t, path, "flags:\n  beta-banner: true\n  rollout-pct: 25\n  greeting: hello\n")

	store, err := Open(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 3 {
		t.Errorf("len = %d, want 3", store.Len())
	}

	v, ok := store.Lookup("beta-banner")
	if !ok || v != true {
		t.Errorf("beta-banner = %v, %v", v, ok)
	}
	v, ok = store.Lookup("rollout-pct")
	if !ok || v != 25 {
		t.Errorf("rollout-pct = %v, %v", v, ok)
	}
	if _, ok := store.Lookup("absent"); ok {
		t.Error("absent key must not resolve")
	}
}

func TestOpenRequiresValidFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.yaml"), discardLogger()); err == nil {
		t.Error("missing file must fail Open")
	}

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "flags: [not: a: map\n")
	if _, err := Open(bad, discardLogger()); err == nil {
		t.Error("unparseable file must fail Open")
	}
}

func TestOpenToleratesEmptyDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	writeFile(t, path, "")

	store, err := Open(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Errorf("len = %d, want 0", store.Len())
	}
}

func TestReloadSwapsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	writeFile(t, path, "flags:\n  a: 1\n")

	store, err := Open(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "flags:\n  b: 2\n")
	store.reload(context.Background())

	if _, ok := store.Lookup("a"); ok {
		t.Error("old key should be gone after reload")
	}
	if v, ok := store.Lookup("b"); !ok || v != 2 {
		t.Errorf("b = %v, %v", v, ok)
	}
}

func TestReloadKeepsPreviousDataOnFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	writeFile(t, path, "flags:\n  a: 1\n")

	store, err := Open(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "flags: [broken\n")
	store.reload(context.Background())

	if v, ok := store.Lookup("a"); !ok || v != 1 {
		t.Errorf("previous data must survive a bad reload, got %v, %v", v, ok)
	}
}

func TestWatchPicksUpRewrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	writeFile(t, path, "flags:\n  a: 1\n")

	store, err := Open(path, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Give the watcher a moment to install before the rewrite.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "flags:\n  a: 2\n")

	deadline := time.After(5 * time.Second)
	for {
		if v, ok := store.Lookup("a"); ok && v == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher never observed the rewrite")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("watch returned %v, want context.Canceled", err)
	}
}
