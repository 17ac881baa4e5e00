package physics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "physics.yaml")
	if err := os.WriteFile(path, []byte("pixels_per_unit: 100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	watcher, err := NewConfigWatcher(path)
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	defer watcher.Close()

	// give the watcher goroutine a moment to start before touching the file
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("pixels_per_unit: 50\ngravity:\n  x: 0\n  y: -500\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-watcher.Configs:
		if cfg.PixelsPerUnit != 50 {
			t.Fatalf("reloaded pixels_per_unit = %v, want 50", cfg.PixelsPerUnit)
		}
		if cfg.Gravity.Y != -500 {
			t.Fatalf("reloaded gravity.y = %v, want -500", cfg.Gravity.Y)
		}
	case err := <-watcher.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestConfigWatcherInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "physics.yaml")
	if err := os.WriteFile(path, []byte("pixels_per_unit: 100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	watcher, err := NewConfigWatcher(path)
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	defer watcher.Close()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("pixels_per_unit: -1\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-watcher.Configs:
		t.Fatalf("invalid config was delivered: %+v", cfg)
	case <-watcher.Errors:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}

func TestConfigWatcherCloseTwice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "physics.yaml")
	if err := os.WriteFile(path, []byte("pixels_per_unit: 100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	watcher, err := NewConfigWatcher(path)
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// the watcher goroutine closes the output channels on exit
	select {
	case _, ok := <-watcher.Configs:
		if ok {
			t.Fatal("unexpected config after Close")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Configs channel not closed after Close")
	}
	select {
	case _, ok := <-watcher.Errors:
		if ok {
			t.Fatal("unexpected error after Close")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Errors channel not closed after Close")
	}
}
