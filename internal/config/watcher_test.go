package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "server:\n  log_level: info\n")

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.LogLevel; got != LogInfo {
		t.Errorf("log_level = %q, want info", got)
	}
}

func TestWatcher_InitialLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "server:\n  log_level: nonsense\n")

	if _, err := NewWatcher(path, nil); err == nil {
		t.Fatal("expected an error for an invalid initial config")
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "server:\n  log_level: info\n")

	changed := make(chan *Config, 1)
	w, err := NewWatcher(path, func(_, new *Config) {
		changed <- new
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	// Rewrite with a different mtime and content.
	time.Sleep(20 * time.Millisecond)
	writeConfig(t, path, "server:\n  log_level: debug\n")
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.LogLevel != LogDebug {
			t.Errorf("reloaded log_level = %q, want debug", cfg.Server.LogLevel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	if got := w.Current().Server.LogLevel; got != LogDebug {
		t.Errorf("Current() log_level = %q, want debug", got)
	}
}

func TestWatcher_KeepsPreviousOnInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "server:\n  log_level: info\n")

	w, err := NewWatcher(path, func(_, _ *Config) {
		t.Error("onChange must not fire for an invalid reload")
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	time.Sleep(20 * time.Millisecond)
	writeConfig(t, path, "server:\n  log_level: nonsense\n")
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if got := w.Current().Server.LogLevel; got != LogInfo {
		t.Errorf("Current() log_level = %q, want the previous value", got)
	}
}
