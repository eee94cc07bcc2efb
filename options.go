package exprjson

import (
	"github.com/hengadev/exprjson/internal/config"
)

// Option configures a Codec.
type Option = config.Option

// SchemaValidator checks raw document text before it is parsed. An empty
// result means the document passed.
type SchemaValidator = config.SchemaValidator

var (
	// WithIndent sets the indent unit written per nesting level; empty selects
	// compact output.
	WithIndent = config.WithIndent
	// WithComments writes element, key and value type hints into collection
	// nodes. Readers ignore them.
	WithComments = config.WithComments
	// WithTypeNameConvention selects "short" or "full" type names.
	WithTypeNameConvention = config.WithTypeNameConvention
	// WithIdentifierConvention selects "asIs" or "camelCase" record labels.
	WithIdentifierConvention = config.WithIdentifierConvention
	WithTrailingCommas       = config.WithTrailingCommas
	// WithObjectFormat selects "json" or "gob" payloads for opaque objects.
	WithObjectFormat      = config.WithObjectFormat
	WithMaxDocumentSize   = config.WithMaxDocumentSize
	WithSchemaValidator   = config.WithSchemaValidator
	WithMetricsCollector  = config.WithMetricsCollector
	WithObservabilityHook = config.WithObservabilityHook
)
