package exprjson

import (
	"errors"
	"fmt"
	"sync"
)

// validatorHolder guards the optional schema validator. Validations share
// the read lock; SetValidator takes it exclusively.
type validatorHolder struct {
	mu sync.RWMutex
	v  SchemaValidator
}

func newValidatorHolder(v SchemaValidator) *validatorHolder {
	return &validatorHolder{v: v}
}

func (h *validatorHolder) validate(data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.v == nil {
		return nil
	}
	if errs := h.v.Validate(data); len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSchemaValidation, errors.Join(errs...))
	}
	return nil
}

// SetValidator replaces the schema validator run before every decode. A nil
// v disables validation.
func (c *Codec) SetValidator(v SchemaValidator) {
	c.validator.mu.Lock()
	defer c.validator.mu.Unlock()
	c.validator.v = v
}

// Validator returns the current schema validator, or nil.
func (c *Codec) Validator() SchemaValidator {
	c.validator.mu.RLock()
	defer c.validator.mu.RUnlock()
	return c.validator.v
}
