package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for an mcpforge server process.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
	Sandbox   SandboxConfig   `toml:"sandbox"`
	Assets    AssetsConfig    `toml:"assets"`
}

// ServerConfig holds MCP server identity metadata advertised at initialize.
type ServerConfig struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

// TransportConfig holds transport-related settings.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `toml:"mode"`
	// Port is the HTTP listen port (default: 8629). Only used when Mode is "http".
	Port string `toml:"port"`
	// Host is the HTTP listen address (default: "0.0.0.0"). Only used when Mode is "http".
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins (default: "*").
	CORSOrigins string `toml:"cors_origins"`
	// SessionIdleMinutes bounds how long an idle HTTP session survives
	// before SessionManager evicts it.
	SessionIdleMinutes int `toml:"session_idle_minutes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// SandboxConfig controls the code execution sandbox's auto-registered
// tool_runner meta-tool.
type SandboxConfig struct {
	Enabled       bool `toml:"enabled"`
	TimeoutMillis int  `toml:"timeout_millis"`
	MemoryLimitMB int  `toml:"memory_limit_mb"`
	// Container selects container-mode execution over the default
	// isolated-runtime mode; requires a configured image.
	Container bool   `toml:"container"`
	Image     string `toml:"image"`
}

// AssetsConfig controls UI folder-mode asset handling.
type AssetsConfig struct {
	// InlineThresholdBytes is the folder-asset inline threshold (default
	// 10 KiB). It is loaded and validated here only; ui.NewCompiler takes
	// its threshold as an argument and does not read this field.
	InlineThresholdBytes int64 `toml:"inline_threshold_bytes"`
	// MaxContentBytes is a content size cap (default 50 MiB). It is loaded
	// and validated here only; the content normalizer enforces the fixed
	// content.HardCapBytes and does not read this field.
	MaxContentBytes int64 `toml:"max_content_bytes"`
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. MCPFORGE_CONFIG environment variable
//  3. ./mcpforge.toml (current directory)
//  4. ~/.config/mcpforge/mcpforge.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Name:    "mcpforge-server",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:               "stdio",
			Port:               "8629",
			Host:               "0.0.0.0",
			CORSOrigins:        "*",
			SessionIdleMinutes: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Sandbox: SandboxConfig{
			Enabled:       true,
			TimeoutMillis: 5000,
			MemoryLimitMB: 64,
		},
		Assets: AssetsConfig{
			InlineThresholdBytes: 10 * 1024,
			MaxContentBytes:      50 * 1024 * 1024,
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty string
// if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit // caller wants this file; let DecodeFile report if missing
	}

	if p := os.Getenv("MCPFORGE_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("mcpforge.toml"); err == nil {
		return "mcpforge.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/mcpforge/mcpforge.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	envOverride("MCPFORGE_SERVER_NAME", &c.Server.Name)
	envOverride("MCPFORGE_SERVER_VERSION", &c.Server.Version)
	envOverride("MCPFORGE_SERVER_DESCRIPTION", &c.Server.Description)

	envOverride("MCPFORGE_TRANSPORT", &c.Transport.Mode)
	envOverride("MCPFORGE_PORT", &c.Transport.Port)
	envOverride("MCPFORGE_HOST", &c.Transport.Host)
	envOverride("MCPFORGE_CORS_ORIGINS", &c.Transport.CORSOrigins)
	envOverrideInt("MCPFORGE_SESSION_IDLE_MINUTES", &c.Transport.SessionIdleMinutes)

	envOverride("MCPFORGE_LOG_LEVEL", &c.Log.Level)
	envOverride("MCPFORGE_LOG_FORMAT", &c.Log.Format)

	envOverrideBool("MCPFORGE_SANDBOX_ENABLED", &c.Sandbox.Enabled)
	envOverrideInt("MCPFORGE_SANDBOX_TIMEOUT_MILLIS", &c.Sandbox.TimeoutMillis)
	envOverrideInt("MCPFORGE_SANDBOX_MEMORY_LIMIT_MB", &c.Sandbox.MemoryLimitMB)
	envOverrideBool("MCPFORGE_SANDBOX_CONTAINER", &c.Sandbox.Container)
	envOverride("MCPFORGE_SANDBOX_IMAGE", &c.Sandbox.Image)

	envOverrideInt64("MCPFORGE_ASSETS_INLINE_THRESHOLD_BYTES", &c.Assets.InlineThresholdBytes)
	envOverrideInt64("MCPFORGE_ASSETS_MAX_CONTENT_BYTES", &c.Assets.MaxContentBytes)
}

// Validate checks that configuration values are internally consistent.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}

	if c.Sandbox.Container && c.Sandbox.Image == "" {
		return fmt.Errorf("sandbox.image is required when sandbox.container is enabled")
	}

	if c.Assets.MaxContentBytes <= 0 {
		return fmt.Errorf("assets.max_content_bytes must be positive")
	}
	if c.Assets.InlineThresholdBytes < 0 {
		return fmt.Errorf("assets.inline_threshold_bytes cannot be negative")
	}

	return nil
}

// envOverride sets *dst to the value of the named env var, if it is non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func envOverrideInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			*dst = n
		}
	}
}

func envOverrideInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			*dst = n
		}
	}
}
