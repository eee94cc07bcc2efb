package config

import (
	"fmt"

	"github.com/hengadev/exprjson/internal/codec"
	"github.com/hengadev/exprjson/internal/monitoring"
	"github.com/hengadev/exprjson/internal/serialization"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

// Option represents a configuration option for creating a codec instance.
type Option func(*Config) error

// WithIndent sets the indent unit; empty selects compact output.
func WithIndent(indent string) Option {
	return func(c *Config) error {
		if err := NewValidator().validateIndent(indent); err != nil {
			return err
		}
		c.Indent = indent
		return nil
	}
}

// WithComments writes element, key and value type hints into collections.
func WithComments(enabled bool) Option {
	return func(c *Config) error {
		c.AddComments = enabled
		return nil
	}
}

// WithTypeNameConvention accepts "short" or "full".
func WithTypeNameConvention(name string) Option {
	return func(c *Config) error {
		convention, ok := typeinfo.ParseConvention(name)
		if !ok {
			return fmt.Errorf("unknown type name convention '%s': must be one of [short, full]", name)
		}
		c.TypeNameConvention = convention
		return nil
	}
}

// WithIdentifierConvention accepts "asIs" or "camelCase".
func WithIdentifierConvention(name string) Option {
	return func(c *Config) error {
		convention, ok := codec.ParseIdentifierConvention(name)
		if !ok {
			return fmt.Errorf("unknown identifier convention '%s': must be one of [asIs, camelCase]", name)
		}
		c.IdentifierConvention = convention
		return nil
	}
}

func WithTrailingCommas(allowed bool) Option {
	return func(c *Config) error {
		c.AllowTrailingCommas = allowed
		return nil
	}
}

// WithObjectFormat selects the payload format of opaque objects.
func WithObjectFormat(format string) Option {
	return func(c *Config) error {
		f, err := serialization.ParseSerializerType(format)
		if err != nil {
			return err
		}
		c.ObjectFormat = f
		return nil
	}
}

func WithMaxDocumentSize(size int64) Option {
	return func(c *Config) error {
		if err := NewValidator().validateDocumentSize(size); err != nil {
			return err
		}
		c.MaxDocumentSize = size
		return nil
	}
}

// WithSchemaValidator runs v over every document before it is decoded.
func WithSchemaValidator(v SchemaValidator) Option {
	return func(c *Config) error {
		if v == nil {
			return fmt.Errorf("schema validator cannot be nil")
		}
		c.SchemaValidator = v
		return nil
	}
}

func WithMetricsCollector(collector MetricsCollector) Option {
	return func(c *Config) error {
		if collector == nil {
			return fmt.Errorf("metrics collector cannot be nil")
		}
		c.MetricsCollector = collector
		return nil
	}
}

func WithObservabilityHook(hook ObservabilityHook) Option {
	return func(c *Config) error {
		if hook == nil {
			return fmt.Errorf("observability hook cannot be nil")
		}
		c.ObservabilityHook = hook
		return nil
	}
}

// DefaultConfig returns compact output, short type names, field names as
// written, JSON object payloads and no-op monitoring.
func DefaultConfig() *Config {
	return &Config{
		TypeNameConvention:   typeinfo.ShortNames,
		IdentifierConvention: codec.AsIs,
		ObjectFormat:         serialization.JSON,
		MetricsCollector:     &monitoring.NoOpMetricsCollector{},
		ObservabilityHook:    &monitoring.NoOpObservabilityHook{},
	}
}

// ApplyOptions applies opts in order and stops at the first failure.
func ApplyOptions(config *Config, opts []Option) error {
	for i, opt := range opts {
		if err := opt(config); err != nil {
			return fmt.Errorf("option %d failed: %w", i, err)
		}
	}
	return nil
}
