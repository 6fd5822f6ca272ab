package shared

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"siderequest/internal/pixcodec"
)

var ErrInvalidConfig = errors.New("config: invalid")

type StoreConfig struct {
	Backend     string `yaml:"backend"` // file | memory | sqlite | redis
	Path        string `yaml:"path"`
	SQLitePath  string `yaml:"sqlite_path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type ServerConfig struct {
	Addr           string      `yaml:"addr"`
	DefaultSize    int         `yaml:"default_size"`
	MaxSize        int         `yaml:"max_size"` // 0 = up to pixcodec.MaxSide
	PNGCompression string      `yaml:"png_compression"`
	LogLevel       string      `yaml:"log_level"`
	LogFormat      string      `yaml:"log_format"`
	Store          StoreConfig `yaml:"store"`
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           ":5000",
		DefaultSize:    DefaultSize,
		MaxSize:        2048,
		PNGCompression: "default",
		LogLevel:       "info",
		LogFormat:      "text",
		Store: StoreConfig{
			Backend:     "file",
			Path:        "money_data.json",
			SQLitePath:  "./data/siderequest.db",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "siderequest:",
		},
	}
}

// LoadServerConfig returns defaults overlaid with the YAML file at path.
// An empty path means defaults only.
func LoadServerConfig(path string) (*ServerConfig, error) {
	c := DefaultServerConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// SaveServerConfig writes c as YAML that LoadServerConfig reads back.
func SaveServerConfig(path string, c *ServerConfig) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// ApplyEnv overrides fields from SR_* variables. getenv is os.Getenv
// outside of tests.
func (c *ServerConfig) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"SR_ADDR":         &c.Addr,
		"SR_STORE":        &c.Store.Backend,
		"SR_DATA_FILE":    &c.Store.Path,
		"SR_DB_PATH":      &c.Store.SQLitePath,
		"SR_REDIS_ADDR":   &c.Store.RedisAddr,
		"SR_REDIS_PREFIX": &c.Store.RedisPrefix,
		"SR_LOG_LEVEL":    &c.LogLevel,
		"SR_LOG_FORMAT":   &c.LogFormat,
		"SR_PNG_LEVEL":    &c.PNGCompression,
	}
	for k, dst := range strs {
		if v := getenv(k); v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"SR_DEFAULT_SIZE": &c.DefaultSize,
		"SR_MAX_SIZE":     &c.MaxSize,
	}
	for k, dst := range ints {
		v := getenv(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, k, v)
		}
		*dst = n
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the file backend", ErrInvalidConfig)
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: store.sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("%w: store.redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	switch c.PNGCompression {
	case "", "default", "none", "speed", "best":
	default:
		return fmt.Errorf("%w: unknown png_compression %q", ErrInvalidConfig, c.PNGCompression)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	if c.DefaultSize <= 0 {
		return fmt.Errorf("%w: default_size must be positive", ErrInvalidConfig)
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("%w: max_size must not be negative", ErrInvalidConfig)
	}
	if c.MaxSize > pixcodec.MaxSide {
		return fmt.Errorf("%w: max_size %d exceeds %d", ErrInvalidConfig, c.MaxSize, pixcodec.MaxSide)
	}
	if c.DefaultSize > pixcodec.MaxSide {
		return fmt.Errorf("%w: default_size %d exceeds %d", ErrInvalidConfig, c.DefaultSize, pixcodec.MaxSide)
	}
	if c.MaxSize > 0 && c.DefaultSize > c.MaxSize {
		return fmt.Errorf("%w: default_size %d exceeds max_size %d", ErrInvalidConfig, c.DefaultSize, c.MaxSize)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidConfig)
	}
	return nil
}
