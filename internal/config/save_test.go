package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := &Config{
		DefaultWorkspace: "yr",
		Workspaces:       map[string]string{"yr": "/mods/yr"},
		UI:               UIConfig{Accent: "39"},
		Log:              LogConfig{Level: "debug"},
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo returned error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}
	if loaded.DefaultWorkspace != "yr" || loaded.Workspaces["yr"] != "/mods/yr" {
		t.Errorf("workspaces not persisted: %+v", loaded)
	}
	if loaded.UI.Accent != "39" || loaded.Log.Level != "debug" {
		t.Errorf("ui/log not persisted: %+v", loaded)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "code_theme") || strings.Contains(string(data), "format") {
		t.Errorf("empty settings should be omitted:\n%s", data)
	}
}

func TestSaveToRequiresPath(t *testing.T) {
	if err := SaveTo("  ", &Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAddWorkspace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := AddWorkspace(path, "yr", "/mods/yr"); err != nil {
		t.Fatal(err)
	}
	if err := AddWorkspace(path, "ts", "/mods/ts"); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultWorkspace != "yr" {
		t.Errorf("first workspace should become the default, got %q", cfg.DefaultWorkspace)
	}
	if len(cfg.Workspaces) != 2 {
		t.Errorf("expected 2 workspaces, got %v", cfg.Workspaces)
	}
}
