package exprjson

import (
	"errors"

	"github.com/hengadev/exprjson/internal/exprerr"
)

// Error families
var (
	ErrStructural = exprerr.ErrStructural
	ErrSemantic   = exprerr.ErrSemantic
)

// Structural errors
var (
	ErrMissingField      = exprerr.ErrMissingField
	ErrShapeMismatch     = exprerr.ErrShapeMismatch
	ErrUnknownLabel      = exprerr.ErrUnknownLabel
	ErrDuplicateLabel    = exprerr.ErrDuplicateLabel
	ErrLengthMismatch    = exprerr.ErrLengthMismatch
	ErrDanglingReference = exprerr.ErrDanglingReference
	ErrDuplicateBinder   = exprerr.ErrDuplicateBinder
	ErrMalformedDocument = exprerr.ErrMalformedDocument
	ErrUnsupportedSchema = exprerr.ErrUnsupportedSchema
	ErrDuplicateEntry    = exprerr.ErrDuplicateEntry
)

// Semantic errors
var (
	ErrUnknownType     = exprerr.ErrUnknownType
	ErrMemberNotFound  = exprerr.ErrMemberNotFound
	ErrAmbiguousMember = exprerr.ErrAmbiguousMember
	ErrNumericParse    = exprerr.ErrNumericParse
	ErrUnsupportedKind = exprerr.ErrUnsupportedKind
	ErrUnsupportedType = exprerr.ErrUnsupportedType
	ErrTypeMismatch    = exprerr.ErrTypeMismatch
	ErrInvalidValue    = exprerr.ErrInvalidValue
)

// Service errors
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrSchemaValidation     = errors.New("schema validation failed")
	ErrDocumentTooLarge     = errors.New("document too large")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentCorrupted    = errors.New("document digest mismatch")
)

// PathError ties an error to the document node it was raised for.
type PathError = exprerr.PathError

// Action names the codec direction an error was raised in.
type Action = exprerr.Action

const (
	Encode  = exprerr.Encode
	Decode  = exprerr.Decode
	Resolve = exprerr.Resolve
)

// ErrorPath returns the document path err was raised for, or "" when it
// carries none.
func ErrorPath(err error) string {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Path
	}
	return ""
}

// IsStructuralError reports whether the document shape is wrong: missing or
// unknown fields, bad nesting, dangling references, malformed JSON.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsSemanticError reports whether a well-formed document names types,
// members or values this codec cannot resolve.
func IsSemanticError(err error) bool {
	return errors.Is(err, ErrSemantic)
}

// IsConfigurationError returns true if the error represents a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrSchemaValidation) || errors.Is(err, ErrDocumentTooLarge)
}
