package exprjson

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvIndent              = "EXPRJSON_INDENT"
	EnvComments            = "EXPRJSON_COMMENTS"
	EnvTypeNames           = "EXPRJSON_TYPE_NAMES"
	EnvIdentifiers         = "EXPRJSON_IDENTIFIERS"
	EnvTrailingCommas      = "EXPRJSON_TRAILING_COMMAS"
	EnvObjectFormat        = "EXPRJSON_OBJECT_FORMAT"
	EnvMaxDocumentSize     = "EXPRJSON_MAX_DOCUMENT_SIZE"
	EnvLogLevel            = "EXPRJSON_LOG_LEVEL"
	EnvLogFormat           = "EXPRJSON_LOG_FORMAT"
	EnvStore               = "EXPRJSON_STORE"
	EnvStorePath           = "EXPRJSON_STORE_PATH"
	EnvStoreBucket         = "EXPRJSON_STORE_BUCKET"
	EnvStorePrefix         = "EXPRJSON_STORE_PREFIX"
	EnvStoreRegion         = "EXPRJSON_STORE_REGION"
	EnvStoreEndpoint       = "EXPRJSON_STORE_ENDPOINT"
	EnvStoreForcePathStyle = "EXPRJSON_STORE_FORCE_PATH_STYLE"
)

// Default values
const (
	DefaultTypeNameConvention   = "short"
	DefaultIdentifierConvention = "asIs"
	DefaultObjectFormat         = "json"
)

// LoadConfigFromEnvironment reads EXPRJSON_* variables over an empty
// configuration and validates the result.
//
// Example usage:
//
//	// export EXPRJSON_INDENT=2
//	// export EXPRJSON_IDENTIFIERS=camelCase
//	cfg, err := exprjson.LoadConfigFromEnvironment()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnvironment() (Config, error) {
	var cfg Config
	if err := ApplyEnvironment(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file and validates it.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfiguration, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnvironment overrides the fields of cfg whose variables are set.
func ApplyEnvironment(cfg *Config) error {
	setString(&cfg.Indent, EnvIndent)
	setString(&cfg.TypeNameConvention, EnvTypeNames)
	setString(&cfg.IdentifierConvention, EnvIdentifiers)
	setString(&cfg.ObjectFormat, EnvObjectFormat)

	if err := setBool(&cfg.AddComments, EnvComments); err != nil {
		return err
	}
	if err := setBool(&cfg.AllowTrailingCommas, EnvTrailingCommas); err != nil {
		return err
	}
	if v := os.Getenv(EnvMaxDocumentSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, EnvMaxDocumentSize, err)
		}
		cfg.MaxDocumentSize = n
	}
	return nil
}

// GetEnvOrDefault returns the value of key, or defaultValue when it is unset
// or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, key, err)
	}
	*dst = b
	return nil
}
