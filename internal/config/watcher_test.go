package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"nssmexec/internal/logger"
)

func init() {
	_ = logger.Init(logger.Config{Level: "disabled"})
}

func TestFileWatcher_CallbackOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "nssm_exec.toml")
	if err := os.WriteFile(path, []byte("nssm_path = \"nssm.exe\"\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	changed := make(chan struct{}, 4)
	fw, err := NewFileWatcher(path, func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}

	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer fw.Stop()

	if err := os.WriteFile(path, []byte("nssm_path = \"other.exe\"\n"), 0644); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	select {
	case <-changed:
		// debounced callback fired
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked after file write")
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestFileWatcher_DebounceCoalescesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "nssm_exec.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	changed := make(chan struct{}, 16)
	fw, err := NewFileWatcher(path, func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer fw.Stop()

	// Burst of writes inside one debounce window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a = 2\n"), 0644); err != nil {
			t.Fatalf("failed to modify file: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Wait past the debounce window plus slack.
	time.Sleep(debounceDelay + 500*time.Millisecond)

	got := len(changed)
	if got == 0 {
		t.Fatal("expected at least one callback for the burst")
	}
	if got > 2 {
		t.Errorf("expected burst coalesced to 1-2 callbacks, got %d", got)
	}
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "nssm_exec.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	changed := make(chan struct{}, 4)
	fw, err := NewFileWatcher(path, func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer fw.Stop()

	// A sibling file in the same directory must not trigger the callback.
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write sibling file: %v", err)
	}

	select {
	case <-changed:
		t.Fatal("callback fired for unrelated file")
	case <-time.After(debounceDelay + 300*time.Millisecond):
		// no callback, as expected
	}
}

func TestFileWatcher_StopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "nssm_exec.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	fw, err := NewFileWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !fw.IsRunning() {
		t.Error("expected IsRunning=true after Start")
	}

	if err := fw.Stop(); err != nil {
		t.Errorf("first Stop failed: %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
	if fw.IsRunning() {
		t.Error("expected IsRunning=false after Stop")
	}
}

func TestConfigWatcher_ReloadSkipsBrokenConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "nssm_exec.toml")
	valid := "nssm_path = \"nssm.exe\"\n\n[[services]]\nname = \"svc-a\"\npath = \"a.exe\"\n"
	if err := os.WriteFile(path, []byte(valid), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	loaded := make(chan *Config, 4)
	fw, err := NewConfigWatcher(path, func(cfg *Config) {
		loaded <- cfg
	})
	if err != nil {
		t.Fatalf("NewConfigWatcher failed: %v", err)
	}
	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer fw.Stop()

	// Broken content: callback must not fire.
	if err := os.WriteFile(path, []byte("not toml = = ="), 0644); err != nil {
		t.Fatalf("failed to write broken config: %v", err)
	}

	select {
	case cfg := <-loaded:
		t.Fatalf("callback fired for broken config: %+v", cfg)
	case <-time.After(debounceDelay + 300*time.Millisecond):
	}

	// Valid content again: callback fires with the parsed config.
	if err := os.WriteFile(path, []byte(valid), 0644); err != nil {
		t.Fatalf("failed to restore config: %v", err)
	}

	select {
	case cfg := <-loaded:
		if len(cfg.Services) != 1 || cfg.Services[0].Name != "svc-a" {
			t.Errorf("unexpected reloaded config: %+v", cfg.Services)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback not invoked for valid config")
	}
}
