package exprerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFamilies(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		structural bool
	}{
		{"missing field", NewMissingFieldError("$.a", "b", Decode), true},
		{"shape mismatch", NewShapeMismatchError("$.a", "list", "map", Decode), true},
		{"unknown label", NewUnknownLabelError("$.a", "loop", Decode), true},
		{"length mismatch", NewLengthMismatchError("$.a", 3, 2), true},
		{"dangling reference", NewDanglingReferenceError("$.a", "P9"), true},
		{"unknown type", NewUnknownTypeError("$.a", "pkg.Missing", Decode), false},
		{"ambiguous member", NewAmbiguousMemberError("$.a", "pkg.T", "Do", 2), false},
		{"numeric parse", NewNumericParseError("$.a", "1x", "int32"), false},
		{"unsupported kind", NewUnsupportedKindError("$.a", "loop", Encode), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.structural, errors.Is(tt.err, ErrStructural))
			assert.Equal(t, !tt.structural, errors.Is(tt.err, ErrSemantic))

			var pe *PathError
			require.True(t, errors.As(tt.err, &pe))
			assert.Equal(t, "$.a", pe.Path)
		})
	}
}

func TestAt_KeepsInnermostPath(t *testing.T) {
	inner := NewUnknownLabelError("$.expression.loop", "loop", Decode)
	outer := At("$.expression", Decode, fmt.Errorf("decoding body: %w", inner))

	var pe *PathError
	require.True(t, errors.As(outer, &pe))
	assert.Equal(t, "$.expression.loop", pe.Path)
	assert.Equal(t, "decode $.expression.loop: structural error: unrecognized node label: 'loop'", inner.Error())
	assert.Nil(t, At("$", Decode, nil))
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "encode", Encode.String())
	assert.Equal(t, "resolve", Resolve.String())
	assert.Equal(t, "unknown", Action(42).String())
}
