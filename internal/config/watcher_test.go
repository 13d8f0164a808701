package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tendril-dev/tendril/internal/notify"
)

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	if err := os.WriteFile(path, []byte("eager: [owner/first.nvim]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *File, 1)
	w, err := NewWatcher(path, func(f *File) { changed <- f }, notify.Discard{})
	if err != nil {
		t.Fatalf("NewWatcher returned error: %v", err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(ctx); err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	}()

	// Let the watcher settle before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("eager: [owner/second.nvim]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-changed:
		if len(f.Eager) != 1 || f.Eager[0].Repo != "owner/second.nvim" {
			t.Errorf("reloaded file = %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestWatcherSkipsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	if err := os.WriteFile(path, []byte("eager: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *File, 1)
	rec := notify.NewRecorder()
	w, err := NewWatcher(path, func(f *File) { changed <- f }, rec)
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("eager: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("onChange fired for an unparseable file")
	case <-time.After(300 * time.Millisecond):
	}
	if len(rec.Warnings()) == 0 {
		t.Error("expected a warning for the skipped reload")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugins.yaml")
	if err := os.WriteFile(path, []byte("eager: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *File, 1)
	w, err := NewWatcher(path, func(f *File) { changed <- f }, notify.Discard{})
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
		t.Fatal("onChange fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
