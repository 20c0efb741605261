package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/iniref/internal/atomicfile"
)

type persistedConfig struct {
	DefaultWorkspace *string              `toml:"default_workspace,omitempty"`
	Workspaces       map[string]string    `toml:"workspaces,omitempty"`
	UI               *persistedUISettings `toml:"ui,omitempty"`
	Log              *persistedLog        `toml:"log,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

type persistedLog struct {
	Level  *string `toml:"level,omitempty"`
	Format *string `toml:"format,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the global config to path atomically, leaving out empty
// settings.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultWorkspace: nonEmptyPtr(cfg.DefaultWorkspace),
	}
	if len(cfg.Workspaces) > 0 {
		out.Workspaces = cfg.Workspaces
	}
	if accent, theme := nonEmptyPtr(cfg.UI.Accent), nonEmptyPtr(cfg.UI.CodeTheme); accent != nil || theme != nil {
		out.UI = &persistedUISettings{Accent: accent, CodeTheme: theme}
	}
	if level, format := nonEmptyPtr(cfg.Log.Level), nonEmptyPtr(cfg.Log.Format); level != nil || format != nil {
		out.Log = &persistedLog{Level: level, Format: format}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// AddWorkspace registers a workspace in the config at path, creating the
// file if needed. The first workspace added becomes the default.
func AddWorkspace(path, name, root string) error {
	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadFrom(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]string)
	}
	cfg.Workspaces[name] = root
	if cfg.DefaultWorkspace == "" {
		cfg.DefaultWorkspace = name
	}
	return SaveTo(path, cfg)
}
