package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hengadev/exprjson"
	"github.com/hengadev/exprjson/internal/config"
)

const defaultConfigPath = "exprjson.yaml"

// Store kinds
const (
	StoreNone   = ""
	StoreSQLite = "sqlite"
	StoreS3     = "s3"
)

// Config is the CLI configuration file. Codec settings sit at the top level.
type Config struct {
	exprjson.Config `yaml:",inline"`
	Store           StoreConfig `yaml:"store"`
}

// StoreConfig selects where put, get, list and delete keep documents.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	// Path is the SQLite database file.
	Path string `yaml:"path,omitempty"`

	Bucket         string `yaml:"bucket,omitempty"`
	Prefix         string `yaml:"prefix,omitempty"`
	Region         string `yaml:"region,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `yaml:"force_path_style,omitempty"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Config: exprjson.Config{
			Indent:               "2",
			TypeNameConvention:   exprjson.DefaultTypeNameConvention,
			IdentifierConvention: exprjson.DefaultIdentifierConvention,
			ObjectFormat:         exprjson.DefaultObjectFormat,
		},
		Store: StoreConfig{
			Kind: StoreSQLite,
			Path: "exprjson.db",
		},
	}
}

// ResolveConfig builds the effective configuration: the file at path (or
// exprjson.yaml when present), then a .env file found from the working
// directory, then EXPRJSON_* variables.
func ResolveConfig(path string) (*Config, error) {
	cfg := &Config{}
	switch {
	case path != "":
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		if _, err := os.Stat(defaultConfigPath); err == nil {
			loaded, err := LoadConfig(defaultConfigPath)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := exprjson.ApplyEnvironment(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Store.applyEnvironment(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads the nearest .env without overriding variables that are
// already set. A missing file is not an error.
func loadDotEnv() error {
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	path, err := config.FindEnvFile(wd)
	if err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (s *StoreConfig) applyEnvironment() error {
	s.Kind = exprjson.GetEnvOrDefault(exprjson.EnvStore, s.Kind)
	s.Path = exprjson.GetEnvOrDefault(exprjson.EnvStorePath, s.Path)
	s.Bucket = exprjson.GetEnvOrDefault(exprjson.EnvStoreBucket, s.Bucket)
	s.Prefix = exprjson.GetEnvOrDefault(exprjson.EnvStorePrefix, s.Prefix)
	s.Region = exprjson.GetEnvOrDefault(exprjson.EnvStoreRegion, s.Region)
	s.Endpoint = exprjson.GetEnvOrDefault(exprjson.EnvStoreEndpoint, s.Endpoint)
	if v := os.Getenv(exprjson.EnvStoreForcePathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", exprjson.ErrInvalidConfiguration, exprjson.EnvStoreForcePathStyle, err)
		}
		s.ForcePathStyle = b
	}
	return nil
}

// Validate checks the codec settings and the store section.
func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	switch c.Store.Kind {
	case StoreNone:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for sqlite", exprjson.ErrInvalidConfiguration)
		}
	case StoreS3:
		if c.Store.Bucket == "" {
			return fmt.Errorf("%w: store.bucket is required for s3", exprjson.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: store.kind must be one of: sqlite, s3", exprjson.ErrInvalidConfiguration)
	}
	return nil
}
