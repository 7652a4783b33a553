// Package config loads the warp client configuration from YAML, TOML or
// JSON files and applies WARP_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvEngineURL = "WARP_ENGINE_URL"
	EnvLogLevel  = "WARP_LOG_LEVEL"
	EnvRedisURL  = "WARP_REDIS_URL"
)

// Transport names.
const (
	TransportWebsocket = "websocket"
	TransportJSONL     = "jsonl"
)

// Draft backends.
const (
	DraftsMemory = "memory"
	DraftsFile   = "file"
	DraftsRedis  = "redis"
)

// ErrUnsupportedFormat is returned for config files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the client configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine" toml:"engine" json:"engine"`
	Log    LogConfig    `yaml:"log" toml:"log" json:"log"`
	Drafts DraftsConfig `yaml:"drafts" toml:"drafts" json:"drafts"`
	UI     UIConfig     `yaml:"ui" toml:"ui" json:"ui"`
}

// EngineConfig selects and tunes the engine connection.
type EngineConfig struct {
	URL       string `yaml:"url" toml:"url" json:"url"`
	Transport string `yaml:"transport" toml:"transport" json:"transport"`
	// Legacy disables request ids for engines that do not echo them.
	Legacy         bool   `yaml:"legacy" toml:"legacy" json:"legacy"`
	RequestTimeout string `yaml:"request_timeout" toml:"request_timeout" json:"request_timeout"`
	Reconnect      bool   `yaml:"reconnect" toml:"reconnect" json:"reconnect"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// DraftsConfig selects where unsaved layouts are kept.
type DraftsConfig struct {
	Backend  string `yaml:"backend" toml:"backend" json:"backend"`
	Dir      string `yaml:"dir" toml:"dir" json:"dir"`
	RedisURL string `yaml:"redis_url" toml:"redis_url" json:"redis_url"`
	TTL      string `yaml:"ttl" toml:"ttl" json:"ttl"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Color bool `yaml:"color" toml:"color" json:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			URL:            "ws://localhost:5000/ws",
			Transport:      TransportWebsocket,
			RequestTimeout: "30s",
			Reconnect:      true,
		},
		Log:    LogConfig{Level: "info"},
		Drafts: DraftsConfig{Backend: DraftsFile, Dir: filepath.Join(".warp", "drafts")},
		UI:     UIConfig{Color: true},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// The format follows the file extension.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, strings.ToLower(filepath.Ext(path)), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Decode parses data in the format named by ext into cfg.
func Decode(data []byte, ext string, cfg *Config) error {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvEngineURL); v != "" {
		c.Engine.URL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Drafts.RedisURL = v
	}
}

// Timeout parses Engine.RequestTimeout. Empty means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("engine.request_timeout", c.Engine.RequestTimeout)
}

// DraftTTL parses Drafts.TTL. Empty means drafts never expire.
func (c *Config) DraftTTL() (time.Duration, error) {
	return parseDuration("drafts.ttl", c.Drafts.TTL)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// Validate checks enumerated fields and durations.
func (c *Config) Validate() error {
	var errs []error
	switch c.Engine.Transport {
	case TransportWebsocket, TransportJSONL:
	default:
		errs = append(errs, fmt.Errorf("engine.transport: unknown transport %q", c.Engine.Transport))
	}
	if c.Engine.URL == "" {
		errs = append(errs, errors.New("engine.url: required"))
	}
	switch c.Drafts.Backend {
	case DraftsMemory, DraftsFile:
	case DraftsRedis:
		if c.Drafts.RedisURL == "" {
			errs = append(errs, errors.New("drafts.redis_url: required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("drafts.backend: unknown backend %q", c.Drafts.Backend))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DraftTTL(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
