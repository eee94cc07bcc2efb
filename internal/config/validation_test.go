package config

import (
	"testing"

	"github.com/hengadev/errsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson/internal/serialization"
)

func TestValidator_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		errKeys []string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad indent",
			mutate:  func(c *Config) { c.Indent = "--" },
			errKeys: []string{"indent"},
		},
		{
			name: "every field wrong",
			mutate: func(c *Config) {
				c.Indent = "x"
				c.TypeNameConvention = 9
				c.IdentifierConvention = 9
				c.ObjectFormat = serialization.SerializerType("csv")
				c.MaxDocumentSize = MaxDocumentSizeLimit + 1
			},
			errKeys: []string{"indent", "typeNameConvention", "identifierConvention", "objectFormat", "maxDocumentSize"},
		},
		{
			name:    "empty object format",
			mutate:  func(c *Config) { c.ObjectFormat = "" },
			errKeys: []string{"objectFormat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := NewValidator().ValidateConfig(cfg)
			if len(tt.errKeys) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			errs, ok := err.(errsx.Map)
			require.True(t, ok, "expected errsx.Map, got %T", err)
			assert.Len(t, errs, len(tt.errKeys))
			for _, key := range tt.errKeys {
				assert.Contains(t, errs, key)
			}
		})
	}
}

func TestValidator_NilConfig(t *testing.T) {
	err := NewValidator().ValidateConfig(nil)
	assert.EqualError(t, err, "config cannot be nil")
}
