package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_ReadsAndParses(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nssm_exec.toml", `
nssm_path = "nssm.exe"

[[services]]
name = "svc-a"
path = "a.exe"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Services) != 1 || cfg.Services[0].Name != "svc-a" {
		t.Errorf("unexpected services: %+v", cfg.Services)
	}
}

func TestLoadSplit_MissingLoggingFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "nssm_exec.toml", `
nssm_path = "nssm.exe"

[[services]]
name = "svc-a"
path = "a.exe"
`)

	cfg, lc, err := LoadSplit(configPath, filepath.Join(dir, "no-such-logging.yml"))
	if err != nil {
		t.Fatalf("LoadSplit failed: %v", err)
	}
	if cfg == nil || len(cfg.Services) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if lc.Level != "info" || !lc.Console {
		t.Errorf("expected logger defaults, got %+v", lc)
	}
}

func TestLoadSplit_BrokenLoggingFileFails(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "nssm_exec.toml", `
nssm_path = "nssm.exe"
`)
	loggingPath := writeFile(t, dir, "logging.yml", "level: [broken")

	_, _, err := LoadSplit(configPath, loggingPath)
	if err == nil {
		t.Fatal("expected error for malformed logging config")
	}
}

func TestLoadSplit_BrokenConfigFails(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "nssm_exec.toml", "not toml = = =")
	loggingPath := writeFile(t, dir, "logging.yml", "level: info")

	_, _, err := LoadSplit(configPath, loggingPath)
	if err == nil {
		t.Fatal("expected error for malformed service config")
	}
}
