// Package config persists pescan's user-level defaults to
// ~/.pescan/config.toml: which module architectures to enumerate by
// default, whether a deep header scan runs by default, whether hook
// scanning is suppressed by default, and the default output format. The
// values are stored and read back through Load/Get/Set only; the scan and
// browse commands do not read them, and their flags keep their own
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the ~/.pescan/config.toml file.
type Config struct {
	DefaultModulesFilter string       `toml:"default_modules_filter,omitempty" json:"default_modules_filter"`
	DefaultDeepScan      bool         `toml:"default_deep_scan,omitempty" json:"default_deep_scan"`
	DefaultNoHooks       bool         `toml:"default_no_hooks,omitempty" json:"default_no_hooks"`
	Output               OutputConfig `toml:"output,omitempty" json:"output"`
}

// OutputConfig holds report-rendering preferences.
type OutputConfig struct {
	Format string `toml:"format,omitempty" json:"format"` // "text" or "json"
}

// configDirOverride is set by the --config-dir flag or PESCAN_HOME env var.
var configDirOverride string

// SetConfigDir allows the CLI to pass in the --config-dir / PESCAN_HOME value.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// Home returns the config directory path.
// Precedence: --config-dir flag / SetConfigDir > PESCAN_HOME env > ~/.pescan
func Home() string {
	if configDirOverride != "" {
		return configDirOverride
	}
	if v := os.Getenv("PESCAN_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".pescan")
	}
	return filepath.Join(home, ".pescan")
}

// ConfigPath returns the full path to config.toml.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// EnsureDir creates the pescan home directory if it does not exist.
func EnsureDir() error {
	return os.MkdirAll(Home(), 0o755)
}

// Load reads config.toml and returns a Config struct.
// If the file does not exist, it returns a zero-value Config (defaults).
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}
	return cfg, nil
}

// Save writes the Config struct back to config.toml.
func Save(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o644)
}

// validKeys lists the dot-separated keys that can be used with Get/Set.
var validKeys = map[string]bool{
	"default_modules_filter": true,
	"default_deep_scan":      true,
	"default_no_hooks":       true,
	"output.format":          true,
}

// Get retrieves a single config value by dot-separated key.
func Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return getField(cfg, key)
}

// Set sets a single config value by dot-separated key.
func Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key: %s", key)
	}
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := setField(cfg, key, value); err != nil {
		return err
	}
	return Save(cfg)
}

func getField(cfg *Config, key string) (string, error) {
	switch key {
	case "default_modules_filter":
		return cfg.DefaultModulesFilter, nil
	case "default_deep_scan":
		return fmt.Sprintf("%v", cfg.DefaultDeepScan), nil
	case "default_no_hooks":
		return fmt.Sprintf("%v", cfg.DefaultNoHooks), nil
	case "output.format":
		return cfg.Output.Format, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setField(cfg *Config, key, value string) error {
	switch key {
	case "default_modules_filter":
		cfg.DefaultModulesFilter = value
	case "default_deep_scan":
		cfg.DefaultDeepScan = value == "true"
	case "default_no_hooks":
		cfg.DefaultNoHooks = value == "true"
	case "output.format":
		cfg.Output.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
