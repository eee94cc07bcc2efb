package exprjson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hengadev/exprjson/internal/config"
)

// Config is the serializable form of a codec configuration. It can be loaded
// from a YAML file or the environment and turned into Options.
//
// Example usage:
//
//	cfg := exprjson.Config{Indent: "2", IdentifierConvention: "camelCase"}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	c, err := exprjson.NewFromConfig(cfg)
type Config struct {
	// Indent is a number of spaces, "tab", or a literal run of spaces and
	// tabs. Empty means compact output.
	Indent string `yaml:"indent"`

	// AddComments writes element, key and value type hints into collections.
	AddComments bool `yaml:"add_comments"`

	// TypeNameConvention is "short" (default) or "full".
	TypeNameConvention string `yaml:"type_names"`

	// IdentifierConvention is "asIs" (default) or "camelCase".
	IdentifierConvention string `yaml:"identifiers"`

	AllowTrailingCommas bool `yaml:"allow_trailing_commas"`

	// ObjectFormat is "json" (default) or "gob".
	ObjectFormat string `yaml:"object_format"`

	// MaxDocumentSize caps the bytes Decode reads. Zero means no limit.
	MaxDocumentSize int64 `yaml:"max_document_size"`
}

// Validate applies defaults to empty fields and checks every value.
// Problems are reported together, wrapped in ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if c.TypeNameConvention == "" {
		c.TypeNameConvention = DefaultTypeNameConvention
	}
	if c.IdentifierConvention == "" {
		c.IdentifierConvention = DefaultIdentifierConvention
	}
	if c.ObjectFormat == "" {
		c.ObjectFormat = DefaultObjectFormat
	}

	opts, err := c.Options()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	internal := config.DefaultConfig()
	if err := config.ApplyOptions(internal, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := config.NewValidator().ValidateConfig(internal); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

// Options turns the configuration into codec options.
func (c Config) Options() ([]Option, error) {
	indent, err := ParseIndent(c.Indent)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithIndent(indent),
		WithComments(c.AddComments),
		WithTrailingCommas(c.AllowTrailingCommas),
		WithMaxDocumentSize(c.MaxDocumentSize),
	}
	if c.TypeNameConvention != "" {
		opts = append(opts, WithTypeNameConvention(c.TypeNameConvention))
	}
	if c.IdentifierConvention != "" {
		opts = append(opts, WithIdentifierConvention(c.IdentifierConvention))
	}
	if c.ObjectFormat != "" {
		opts = append(opts, WithObjectFormat(c.ObjectFormat))
	}
	return opts, nil
}

// ParseIndent turns "2" into two spaces and "tab" into a tab. Anything else
// is returned unchanged.
func ParseIndent(s string) (string, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "tab", `\t`:
		return "\t", nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > config.MaxIndentWidth {
			return "", fmt.Errorf("indent width must be between 0 and %d, got %d", config.MaxIndentWidth, n)
		}
		return strings.Repeat(" ", n), nil
	}
	return s, nil
}
