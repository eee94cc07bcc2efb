package config

import (
	"fmt"
	"strings"

	"github.com/hengadev/errsx"

	"github.com/hengadev/exprjson/internal/codec"
	"github.com/hengadev/exprjson/internal/monitoring"
	"github.com/hengadev/exprjson/internal/serialization"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

const (
	// MaxIndentWidth bounds the indent unit written per nesting level.
	MaxIndentWidth = 8
	// MaxDocumentSizeLimit bounds MaxDocumentSize.
	MaxDocumentSizeLimit = 1 << 30
)

// Config holds the complete configuration of a codec instance.
type Config struct {
	// Indent is written once per nesting level; empty means compact output.
	Indent               string
	AddComments          bool
	TypeNameConvention   typeinfo.Convention
	IdentifierConvention codec.IdentifierConvention
	AllowTrailingCommas  bool
	ObjectFormat         serialization.SerializerType
	// MaxDocumentSize caps the bytes Decode reads from a stream; zero means
	// no limit.
	MaxDocumentSize   int64
	SchemaValidator   SchemaValidator
	MetricsCollector  MetricsCollector
	ObservabilityHook ObservabilityHook
}

// SchemaValidator checks raw document text before it is parsed. An empty
// result means the document passed.
type SchemaValidator interface {
	Validate(data []byte) []error
}

// Type aliases for interfaces from monitoring package
type (
	MetricsCollector  = monitoring.MetricsCollector
	ObservabilityHook = monitoring.ObservabilityHook
)

// Validator handles configuration validation
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig checks every field of config and reports all problems at
// once as an errsx.Map keyed by field name.
func (v *Validator) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs errsx.Map
	if err := v.validateIndent(config.Indent); err != nil {
		errs.Set("indent", err)
	}
	if config.TypeNameConvention > typeinfo.FullNames {
		errs.Set("typeNameConvention", fmt.Errorf("unknown type name convention %d", config.TypeNameConvention))
	}
	if config.IdentifierConvention > codec.CamelCase {
		errs.Set("identifierConvention", fmt.Errorf("unknown identifier convention %d", config.IdentifierConvention))
	}
	if !config.ObjectFormat.IsValid() {
		errs.Set("objectFormat", fmt.Errorf("unsupported object format '%s'", config.ObjectFormat))
	}
	if err := v.validateDocumentSize(config.MaxDocumentSize); err != nil {
		errs.Set("maxDocumentSize", err)
	}
	return errs.AsError()
}

// validateIndent accepts only spaces and tabs.
func (v *Validator) validateIndent(indent string) error {
	if len(indent) > MaxIndentWidth {
		return fmt.Errorf("indent too wide: maximum %d characters, got %d", MaxIndentWidth, len(indent))
	}
	if strings.Trim(indent, " \t") != "" {
		return fmt.Errorf("indent must contain only spaces and tabs, got %q", indent)
	}
	return nil
}

func (v *Validator) validateDocumentSize(size int64) error {
	if size < 0 {
		return fmt.Errorf("max document size cannot be negative, got %d", size)
	}
	if size > MaxDocumentSizeLimit {
		return fmt.Errorf("max document size too large: maximum %d bytes, got %d", MaxDocumentSizeLimit, size)
	}
	return nil
}
