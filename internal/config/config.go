// Package config loads the crudgen command configuration from YAML or JSON.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/crudgen/internal/logging"
	"github.com/aretw0/crudgen/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers understood by the store factory.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverLoam     = "loam"
)

var drivers = []string{DriverMemory, DriverFile, DriverRedis, DriverSQLite, DriverPostgres, DriverLoam}

// ErrNoSchema is returned by ResolveSchema when neither an inline schema nor
// a schema file is configured.
var ErrNoSchema = errors.New("no schema configured: set 'schema' or 'schema_file'")

// Config is the root configuration document.
type Config struct {
	Schema     map[string]string `mapstructure:"schema"`
	SchemaFile string            `mapstructure:"schema_file"`
	Strict     bool              `mapstructure:"strict"`
	LogLevel   string            `mapstructure:"log_level"`
	LogFormat  string            `mapstructure:"log_format"`
	Store      StoreConfig       `mapstructure:"store"`
	HTTP       HTTPConfig        `mapstructure:"http"`
	Metrics    bool              `mapstructure:"metrics"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Driver   string        `mapstructure:"driver"`
	Path     string        `mapstructure:"path"`
	DSN      string        `mapstructure:"dsn"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	Table    string        `mapstructure:"table"`
	TTL      time.Duration `mapstructure:"ttl"`

	// EncryptionKey is a base64 AES-256 key. When set, records are stored encrypted.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys still decrypt records written before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// Mask lists field name patterns whose values are replaced before storage.
	Mask []string `mapstructure:"mask"`
}

// Keys decodes the encryption keys. It returns nil keys when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("store 'fallback_keys' requires 'encryption_key'")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr    string   `mapstructure:"addr"`
	Origins []string `mapstructure:"origins"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path (YAML or JSON) over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a YAML (or JSON, which YAML accepts) document over the defaults.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration values that cannot work together.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	driver := c.Store.Driver
	known := false
	for _, d := range drivers {
		if d == driver {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown store driver %q (supported: %s)", driver, strings.Join(drivers, ", "))
	}
	if driver == DriverPostgres && c.Store.DSN == "" {
		return errors.New("store driver postgres requires 'dsn'")
	}
	if driver == DriverRedis && c.Store.Addr == "" {
		return errors.New("store driver redis requires 'addr'")
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store ttl must not be negative, got %s", c.Store.TTL)
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}

	if len(c.Schema) > 0 && c.SchemaFile != "" {
		return errors.New("'schema' and 'schema_file' are mutually exclusive")
	}
	return nil
}

// ResolveSchema returns the inline schema or loads the schema file. Every
// definition is parsed, so a malformed schema fails here.
func (c *Config) ResolveSchema() (schema.Schema, error) {
	if len(c.Schema) > 0 {
		s := schema.Schema(c.Schema)
		if _, err := schema.Compile(s); err != nil {
			return nil, err
		}
		return s.Clone(), nil
	}
	if c.SchemaFile == "" {
		return nil, ErrNoSchema
	}
	return schema.LoadFile(c.Resolve(c.SchemaFile))
}

// Resolve makes a relative path relative to the loaded config file.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
