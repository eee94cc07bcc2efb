package exprjson

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson/ast"
)

type mockSchemaValidator struct {
	mock.Mock
}

func (m *mockSchemaValidator) Validate(data []byte) []error {
	args := m.Called(data)
	if errs := args.Get(0); errs != nil {
		return errs.([]error)
	}
	return nil
}

func TestCodec_SchemaValidator(t *testing.T) {
	data, err := newTestCodec(t).Marshal(ast.NewConstant(1))
	require.NoError(t, err)

	t.Run("accepts", func(t *testing.T) {
		v := &mockSchemaValidator{}
		v.On("Validate", data).Return(nil).Once()

		c := newTestCodec(t, WithSchemaValidator(v))
		_, err := c.Unmarshal(data)
		require.NoError(t, err)
		v.AssertExpectations(t)
	})

	t.Run("rejects before parsing", func(t *testing.T) {
		v := &mockSchemaValidator{}
		v.On("Validate", mock.Anything).Return([]error{
			errors.New("expression: required"),
			errors.New("$schema: wrong type"),
		}).Once()

		c := newTestCodec(t, WithSchemaValidator(v))
		_, err := c.Unmarshal([]byte("not even json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaValidation)
		assert.True(t, IsValidationError(err))
		assert.False(t, IsStructuralError(err))
		assert.Contains(t, err.Error(), "expression: required")
		assert.Contains(t, err.Error(), "$schema: wrong type")
		v.AssertExpectations(t)
	})

	t.Run("not used when encoding", func(t *testing.T) {
		v := &mockSchemaValidator{}
		c := newTestCodec(t, WithSchemaValidator(v))
		_, err := c.Marshal(ast.NewConstant(2))
		require.NoError(t, err)
		v.AssertNotCalled(t, "Validate", mock.Anything)
	})
}

func TestCodec_SetValidator(t *testing.T) {
	c := newTestCodec(t)
	assert.Nil(t, c.Validator())

	v := &mockSchemaValidator{}
	v.On("Validate", mock.Anything).Return(nil)
	c.SetValidator(v)
	assert.Same(t, v, c.Validator())

	data, err := c.Marshal(ast.NewConstant("x"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.Unmarshal(data)
		}()
		go func() {
			defer wg.Done()
			c.SetValidator(v)
		}()
	}
	wg.Wait()

	c.SetValidator(nil)
	assert.Nil(t, c.Validator())
	_, err = c.Unmarshal(data)
	assert.NoError(t, err)
}
