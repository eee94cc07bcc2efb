package exprerr

import (
	"errors"
	"fmt"
)

var (
	// Error families
	ErrStructural = errors.New("structural error")
	ErrSemantic   = errors.New("semantic error")

	// Structural errors: the document shape does not match what the reader expects
	ErrMissingField      = fmt.Errorf("%w: missing required field", ErrStructural)
	ErrShapeMismatch     = fmt.Errorf("%w: unexpected node shape", ErrStructural)
	ErrUnknownLabel      = fmt.Errorf("%w: unrecognized node label", ErrStructural)
	ErrDuplicateLabel    = fmt.Errorf("%w: duplicate node label", ErrStructural)
	ErrLengthMismatch    = fmt.Errorf("%w: length mismatch", ErrStructural)
	ErrDanglingReference = fmt.Errorf("%w: dangling reference", ErrStructural)
	ErrDuplicateBinder   = fmt.Errorf("%w: duplicate binder id", ErrStructural)
	ErrMalformedDocument = fmt.Errorf("%w: malformed document", ErrStructural)
	ErrUnsupportedSchema = fmt.Errorf("%w: unsupported schema", ErrStructural)
	ErrDuplicateEntry    = fmt.Errorf("%w: duplicate entry", ErrStructural)

	// Semantic errors: the shape is fine but the content cannot be converted
	ErrUnknownType     = fmt.Errorf("%w: unknown type name", ErrSemantic)
	ErrMemberNotFound  = fmt.Errorf("%w: member not found", ErrSemantic)
	ErrAmbiguousMember = fmt.Errorf("%w: ambiguous member", ErrSemantic)
	ErrNumericParse    = fmt.Errorf("%w: numeric parse failed", ErrSemantic)
	ErrUnsupportedKind = fmt.Errorf("%w: unsupported node kind", ErrSemantic)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported type", ErrSemantic)
	ErrTypeMismatch    = fmt.Errorf("%w: type mismatch", ErrSemantic)
	ErrInvalidValue    = fmt.Errorf("%w: invalid value", ErrSemantic)
)

// PathError ties an error to the document node it was raised for.
type PathError struct {
	Path string
	Op   Action
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// At attaches a path to err unless it already carries one.
func At(path string, op Action, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Path: path, Op: op, Err: err}
}

func NewMissingFieldError(path, field string, op Action) error {
	return At(path, op, fmt.Errorf("%w: '%s'", ErrMissingField, field))
}

func NewShapeMismatchError(path, expected, actual string, op Action) error {
	return At(path, op, fmt.Errorf("%w: expected %s, got %s", ErrShapeMismatch, expected, actual))
}

func NewUnknownLabelError(path, label string, op Action) error {
	return At(path, op, fmt.Errorf("%w: '%s'", ErrUnknownLabel, label))
}

func NewDuplicateLabelError(path, label string) error {
	return At(path, Decode, fmt.Errorf("%w: '%s'", ErrDuplicateLabel, label))
}

func NewLengthMismatchError(path string, declared, actual int) error {
	return At(path, Decode, fmt.Errorf("%w: declared %d, decoded %d", ErrLengthMismatch, declared, actual))
}

func NewDanglingReferenceError(path, id string) error {
	return At(path, Decode, fmt.Errorf("%w: binder '%s' was never introduced", ErrDanglingReference, id))
}

func NewDuplicateBinderError(path, id string) error {
	return At(path, Decode, fmt.Errorf("%w: '%s'", ErrDuplicateBinder, id))
}

func NewMalformedDocumentError(path, details string) error {
	return At(path, Decode, fmt.Errorf("%w: %s", ErrMalformedDocument, details))
}

func NewUnsupportedSchemaError(path, schema string) error {
	return At(path, Decode, fmt.Errorf("%w: '%s'", ErrUnsupportedSchema, schema))
}

func NewDuplicateEntryError(path, key string) error {
	return At(path, Decode, fmt.Errorf("%w: key %s", ErrDuplicateEntry, key))
}

func NewUnknownTypeError(path, typeName string, op Action) error {
	return At(path, op, fmt.Errorf("%w: '%s'", ErrUnknownType, typeName))
}

func NewMemberNotFoundError(path, declaringType, member string) error {
	return At(path, Resolve, fmt.Errorf("%w: '%s' on %s", ErrMemberNotFound, member, declaringType))
}

func NewAmbiguousMemberError(path, declaringType, member string, candidates int) error {
	return At(path, Resolve, fmt.Errorf("%w: '%s' on %s matches %d candidates", ErrAmbiguousMember, member, declaringType, candidates))
}

func NewNumericParseError(path, literal, typeName string) error {
	return At(path, Decode, fmt.Errorf("%w: '%s' as %s", ErrNumericParse, literal, typeName))
}

func NewUnsupportedKindError(path, kind string, op Action) error {
	return At(path, op, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind))
}

func NewUnsupportedTypeError(path, typeName, details string, op Action) error {
	if details != "" {
		return At(path, op, fmt.Errorf("%w: %s: %s", ErrUnsupportedType, typeName, details))
	}
	return At(path, op, fmt.Errorf("%w: %s", ErrUnsupportedType, typeName))
}

func NewTypeMismatchError(path, expected, actual string, op Action) error {
	return At(path, op, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, expected, actual))
}

func NewInvalidValueError(path, typeName, details string, op Action) error {
	return At(path, op, fmt.Errorf("%w: %s: %s", ErrInvalidValue, typeName, details))
}
