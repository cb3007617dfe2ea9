package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"

	"lembretes/internal/storage"
)

const envPrefix = "LEMBRETES_"

type Config struct {
	Addr      string `koanf:"addr"`
	StaticDir string `koanf:"static_dir"`
	TLSCert   string `koanf:"tls_cert"`
	TLSKey    string `koanf:"tls_key"`
	LogLevel  string `koanf:"log_level"`

	// Storage selects the one backend used for the whole process.
	Storage string        `koanf:"storage"`
	Local   LocalConfig   `koanf:"local"`
	JSONBin JSONBinConfig `koanf:"jsonbin"`
	Blob    BlobConfig    `koanf:"blob"`
	SQLite  SQLiteConfig  `koanf:"sqlite"`
	Mongo   MongoConfig   `koanf:"mongo"`

	Auth AuthConfig `koanf:"auth"`
}

type LocalConfig struct {
	Path string `koanf:"path"`
}

type JSONBinConfig struct {
	BaseURL   string `koanf:"base_url"`
	MasterKey string `koanf:"master_key"`
	BinID     string `koanf:"bin_id"`
	Timeout   int    `koanf:"timeout"` // seconds
}

func (c JSONBinConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type BlobConfig struct {
	Bucket    string `koanf:"bucket"`
	Key       string `koanf:"key"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

// AuthConfig holds the perimeter basic-auth credentials.
type AuthConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// legacyEnv maps the environment names the application has always used onto
// config keys. They take precedence over LEMBRETES_* values.
var legacyEnv = map[string]string{
	"JSONBIN_MASTER_KEY": "jsonbin.master_key",
	"JSONBIN_BIN_ID":     "jsonbin.bin_id",
	"BASIC_USERNAME":     "auth.username",
	"BASIC_PASSWORD":     "auth.password",
}

// Load layers defaults, an optional YAML file, LEMBRETES_* environment
// variables and finally the legacy variable names. Nested keys use a double
// underscore: LEMBRETES_JSONBIN__BIN_ID sets jsonbin.bin_id.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	for name, key := range legacyEnv {
		if v := os.Getenv(name); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("failed to apply %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	if err := storage.ValidType(c.Storage); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.Local.Path == "" {
		return fmt.Errorf("local.path is required: the local store is the fallback backend")
	}
	if c.JSONBin.Timeout < 0 {
		return fmt.Errorf("jsonbin.timeout must not be negative")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	return nil
}

// ValidateServe adds the checks that only matter when the HTTP server runs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Auth.Username == "" || c.Auth.Password == "" {
		return fmt.Errorf("BASIC_USERNAME and BASIC_PASSWORD are required to serve")
	}
	return nil
}

func (c *Config) ParseLogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
