// Package config handles global iniref configuration and per-workspace
// manifests.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/iniref/internal/atomicfile"
)

// Config represents the global iniref configuration.
type Config struct {
	// DefaultWorkspace is the name of the default workspace (from Workspaces).
	DefaultWorkspace string `toml:"default_workspace"`

	// Workspaces maps workspace names to their root directories.
	Workspaces map[string]string `toml:"workspaces"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`

	// Log sets the default log level and format. Command-line flags win.
	Log LogConfig `toml:"log"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme for code blocks in `iniref explain`.
	CodeTheme string `toml:"code_theme"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// WorkspacePath returns the root of a named workspace, or of the default
// workspace when name is empty.
func (c *Config) WorkspacePath(name string) (string, error) {
	if name == "" {
		name = c.DefaultWorkspace
	}
	if name == "" {
		return "", fmt.Errorf("no default workspace configured")
	}
	if path, ok := c.Workspaces[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("workspace '%s' not found in config", name)
}

// WorkspaceNames returns the configured workspace names in sorted order.
func (c *Config) WorkspaceNames() []string {
	names := make([]string, 0, len(c.Workspaces))
	for name := range c.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load loads the configuration from the default location.
// Returns an empty config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the config file path. ~/.config/iniref/config.toml is
// preferred when it exists, then the OS config directory.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "iniref", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "iniref", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# iniref configuration

# Default workspace name (must exist in [workspaces] below)
# default_workspace = "yr"

# Named workspaces
# [workspaces]
# yr = "/path/to/mod"

# [ui]
# accent = "39"
# code_theme = "monokai"

# [log]
# level = "warn"   # debug, info, warn, error
# format = "text"  # text or json
`

// CreateDefault writes a commented config file at path unless one exists.
// It reports whether a file was created.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
