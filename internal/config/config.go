package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Lane describes one independent execution context: a credential and an
// optional proxy the lane's remote calls are routed through.
type Lane struct {
	Name     string `toml:"name"`
	APIKey   string `toml:"api_key"`
	ProxyURL string `toml:"proxy_url"`
}

// Paths contains directory configuration.
type Paths struct {
	// OutputDir receives downloaded video artifacts.
	OutputDir string `toml:"output_dir"`
	// StateDir holds the outcome journal and catalog cache database.
	StateDir string `toml:"state_dir"`
}

// Remote contains endpoint overrides and request timeouts for the
// avatar-video service.
type Remote struct {
	BaseURL               string `toml:"base_url"`
	UploadBaseURL         string `toml:"upload_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	UploadTimeoutSeconds  int    `toml:"upload_timeout_seconds"`
}

// Poller contains the named tuning knobs of the job state machine. All
// durations are seconds; zero values fall back to defaults.
type Poller struct {
	IntervalSeconds       int `toml:"interval_seconds"`
	BackoffFloorSeconds   int `toml:"backoff_floor_seconds"`
	BackoffCeilingSeconds int `toml:"backoff_ceiling_seconds"`
	TransientBudget       int `toml:"transient_budget"`
	ServerErrorBudget     int `toml:"server_error_budget"`
	MaxJobLifetimeSeconds int `toml:"max_job_lifetime_seconds"`
}

// Catalog contains avatar catalog refresh configuration.
type Catalog struct {
	// AutoRefreshCron is an optional cron expression for background
	// refreshes (e.g. "@every 1h"). Empty disables scheduled refresh.
	AutoRefreshCron string `toml:"auto_refresh_cron"`
}

// Config encapsulates all configuration values for renderlane.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Lanes   []Lane  `toml:"lanes"`
	Remote  Remote  `toml:"remote"`
	Poller  Poller  `toml:"poller"`
	Catalog Catalog `toml:"catalog"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/renderlane/config.toml")
}

// Load parses and validates a configuration file. When path is empty the
// default location is used; a missing file yields defaults. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Save writes the configuration as TOML to path, creating parent directories.
func (c *Config) Save(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	encoded, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(expanded, encoded, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return expanded, true, nil
}

// EnsureDirectories creates the output and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LaneByName returns the lane with the given name, if configured.
func (c *Config) LaneByName(name string) (Lane, bool) {
	for _, lane := range c.Lanes {
		if lane.Name == name {
			return lane, true
		}
	}
	return Lane{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
