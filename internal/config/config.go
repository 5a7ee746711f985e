// Package config loads Pyrite's configuration: a TOML file decoded with
// github.com/pelletier/go-toml/v2, then layered with environment variable
// and default overrides via github.com/spf13/viper so cmd/pyrite,
// cmd/pyrite-server, and cmd/pyrite-mcp all see the same merged settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// KBConfig describes one knowledge base entry in the config file's [[kb]]
// array. All KBs share the single backend named in StorageConfig.Driver;
// Path is the directory Sync/FullReindex walk for that KB's markdown
// files, independent of where the backend itself persists data.
type KBConfig struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	ReadOnly bool   `toml:"read_only"`
}

// StorageConfig selects and configures the one Search Backend
// implementation the process opens; every KB in KBs lives in it,
// distinguished by kb_name.
type StorageConfig struct {
	Driver string `toml:"driver"` // "sqlite", "postgres", or "columnar"
	Path   string `toml:"path"`   // sqlite file path / columnar directory
	DSN    string `toml:"dsn"`    // postgres connection string
}

// ServerConfig configures cmd/pyrite-server's HTTP listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MCPConfig holds the MCP transport settings. cmd/pyrite-mcp always
// serves over stdio and does not read them.
type MCPConfig struct {
	Transport string `toml:"transport"` // "stdio" or "sse"
	Port      int    `toml:"port"`
}

// EmbeddingConfig holds the embedding provider settings. Bootstrap builds
// the service with no embedding provider and does not read them.
type EmbeddingConfig struct {
	Provider string `toml:"provider"` // "none", "openai", "local"
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
}

// LoggingConfig mirrors arbor's level/console/file knobs.
type LoggingConfig struct {
	Level  string `toml:"level"` // "debug", "info", "warn", "error"
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config is the top-level shape of pyrite.toml.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	MCP       MCPConfig       `toml:"mcp"`
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Logging   LoggingConfig   `toml:"logging"`
	KBs       []KBConfig      `toml:"kb"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8420},
		MCP:       MCPConfig{Transport: "stdio", Port: 8421},
		Storage:   StorageConfig{Driver: "sqlite", Path: "pyrite.db"},
		Embedding: EmbeddingConfig{Provider: "none"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty) as TOML into Default(); a path that
// cannot be read or parsed is an error. It then applies PYRITE_-prefixed environment variable overrides through
// viper. Environment variables always win over the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides binds the small set of settings operators commonly
// override at deploy time without editing the TOML file. PYRITE_SERVER_HOST
// and friends take precedence over whatever Load already decoded.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("PYRITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("server.host"); err == nil {
		if val := v.GetString("server.host"); val != "" {
			cfg.Server.Host = val
		}
	}
	if err := v.BindEnv("server.port"); err == nil {
		if val := v.GetInt("server.port"); val != 0 {
			cfg.Server.Port = val
		}
	}
	if err := v.BindEnv("storage.driver"); err == nil {
		if val := v.GetString("storage.driver"); val != "" {
			cfg.Storage.Driver = val
		}
	}
	if err := v.BindEnv("storage.path"); err == nil {
		if val := v.GetString("storage.path"); val != "" {
			cfg.Storage.Path = val
		}
	}
	if err := v.BindEnv("mcp.transport"); err == nil {
		if val := v.GetString("mcp.transport"); val != "" {
			cfg.MCP.Transport = val
		}
	}
	if err := v.BindEnv("embedding.provider"); err == nil {
		if val := v.GetString("embedding.provider"); val != "" {
			cfg.Embedding.Provider = val
		}
	}
	if err := v.BindEnv("embedding.api_key"); err == nil {
		if val := v.GetString("embedding.api_key"); val != "" {
			cfg.Embedding.APIKey = val
		}
	}
	if err := v.BindEnv("logging.level"); err == nil {
		if val := v.GetString("logging.level"); val != "" {
			cfg.Logging.Level = val
		}
	}
}
