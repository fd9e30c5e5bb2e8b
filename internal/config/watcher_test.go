package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const watcherInitialConfig = `{
  // test fixture
  "server": {"host": "127.0.0.1", "port": 8000},
}`

const watcherUpdatedConfig = `{
  "server": {"host": "127.0.0.1", "port": 9100},
}`

const watcherBrokenConfig = `{"server": {`

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestWatcher_InitialLoad verifies the watcher loads the config once at
// construction.
func TestWatcher_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfigFile(t, path, watcherInitialConfig)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.Port; got != 8000 {
		t.Errorf("Current().Server.Port = %d, want 8000", got)
	}
}

// TestWatcher_DetectsChange verifies a rewrite of the config file invokes
// the callback with the old and new configs and updates Current.
func TestWatcher_DetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfigFile(t, path, watcherInitialConfig)

	type change struct{ old, next *Config }
	changed := make(chan change, 1)

	w, err := NewWatcher(path, func(old, next *Config) {
		select {
		case changed <- change{old, next}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfigFile(t, path, watcherUpdatedConfig)

	select {
	case ch := <-changed:
		if ch.old == nil || ch.next == nil {
			t.Fatal("callback received nil configs")
		}
		if ch.old.Server.Port != 8000 {
			t.Errorf("old port = %d, want 8000", ch.old.Server.Port)
		}
		if ch.next.Server.Port != 9100 {
			t.Errorf("new port = %d, want 9100", ch.next.Server.Port)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback was not invoked within timeout")
	}

	if got := w.Current().Server.Port; got != 9100 {
		t.Errorf("Current().Server.Port = %d, want 9100 after reload", got)
	}
}

// TestWatcher_InvalidFileKeepsOldConfig verifies a rewrite that fails to
// parse leaves the previous config in place and fires no callback.
func TestWatcher_InvalidFileKeepsOldConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfigFile(t, path, watcherInitialConfig)

	var mu sync.Mutex
	calls := 0

	w, err := NewWatcher(path, func(old, next *Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfigFile(t, path, watcherBrokenConfig)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 0 {
		t.Errorf("callback fired %d times for invalid config, want 0", got)
	}
	if port := w.Current().Server.Port; port != 8000 {
		t.Errorf("Current().Server.Port = %d, want previous value 8000", port)
	}
}

// TestWatcher_IgnoresSiblingFiles verifies writes to other files in the
// watched directory do not trigger a reload.
func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfigFile(t, path, watcherInitialConfig)

	var mu sync.Mutex
	calls := 0

	w, err := NewWatcher(path, func(old, next *Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	writeConfigFile(t, filepath.Join(dir, "notes.txt"), "not a config")
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 0 {
		t.Errorf("callback fired %d times for a sibling file, want 0", got)
	}
}

// TestWatcher_InitialLoadFails verifies an unparseable initial config is
// an error rather than a silently empty watcher.
func TestWatcher_InitialLoadFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfigFile(t, path, watcherBrokenConfig)

	if _, err := NewWatcher(path, nil); err == nil {
		t.Fatal("NewWatcher: expected error for unparseable config")
	}
}

// TestWatcher_StopIsIdempotent verifies repeated Stop calls do not panic.
func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeConfigFile(t, path, watcherInitialConfig)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	w.Stop()
	w.Stop()
}
