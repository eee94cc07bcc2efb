package typeinfo

import (
	"errors"
	"math/big"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/types"
)

type Color uint8

type Access int32

type account struct {
	ID      uuid.UUID
	Balance *big.Float
	Opened  time.Time
}

func (a account) Deposit(amount *big.Float) account { return a }

func (a *account) Close(reason string, code int) error { return nil }

func newAccount(id uuid.UUID) account { return account{ID: id} }

func newAccountAt(id uuid.UUID, opened time.Time) account { return account{ID: id, Opened: opened} }

func TestRegistry_CanonicalNames(t *testing.T) {
	r := NewRegistry(ShortNames)

	tests := []struct {
		typ  reflect.Type
		name string
	}{
		{nil, "void"},
		{reflect.TypeOf(int32(0)), "int32"},
		{reflect.TypeOf(uint8(0)), "uint8"},
		{reflect.TypeOf(time.Time{}), "time"},
		{reflect.TypeOf(time.Second), "duration"},
		{reflect.TypeOf((*big.Float)(nil)), "decimal"},
		{reflect.TypeOf(uuid.UUID{}), "uuid"},
		{reflect.TypeOf((*url.URL)(nil)), "uri"},
		{reflect.TypeOf(types.Char('x')), "char"},
		{reflect.TypeOf(types.Null{}), "null"},
		{AnyType, "any"},
		{ErrorType, "error"},
		{ObjectType, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, r.NameFor(tt.typ))
			got, err := r.TypeFor(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, got)
		})
	}
}

func TestRegistry_CompositeNames(t *testing.T) {
	short := NewRegistry(ShortNames)
	full := NewRegistry(FullNames)
	short.Register(reflect.TypeOf(Color(0)))

	tests := []struct {
		name  string
		typ   reflect.Type
		short string
	}{
		{"pointer", reflect.TypeOf((*int)(nil)), "*int"},
		{"slice of named", reflect.TypeOf([]Color{}), "[]github.com/hengadev/exprjson/internal/typeinfo.Color"},
		{"array", reflect.TypeOf([4]byte{}), "[4]uint8"},
		{"map", reflect.TypeOf(map[string][]time.Duration{}), "map[string][]duration"},
		{"anonymous struct", reflect.TypeOf(struct {
			Name string `json:"name"`
			At   time.Time
		}{}), `struct{Name string "json:\"name\""; At time}`},
		{"func", reflect.TypeOf(func(int, ...string) (bool, error) { return false, nil }), "func(int, ...string) (bool, error)"},
		{"func single result", reflect.TypeOf(func(func() int) *url.URL { return nil }), "func(func() int) uri"},
		{"generic tuple", reflect.TypeOf(types.Pair[int, string]{}), "github.com/hengadev/exprjson/types.Pair[int,string]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := short.NameFor(tt.typ)
			assert.Equal(t, tt.short, name)

			got, err := short.TypeFor(name)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, got)

			fullName := full.NameFor(tt.typ)
			got, err = full.TypeFor(fullName)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, got)

			// a short-name reader accepts full names once the types are known
			got, err = short.TypeFor(fullName)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, got)
		})
	}
}

func TestRegistry_FullConvention(t *testing.T) {
	r := NewRegistry(FullNames)
	assert.Equal(t, "time.Time", r.NameFor(reflect.TypeOf(time.Time{})))
	assert.Equal(t, "*math/big.Float", r.NameFor(reflect.TypeOf((*big.Float)(nil))))
	assert.Equal(t, "int", r.NameFor(reflect.TypeOf(0)))
	assert.Equal(t, "any", r.NameFor(AnyType))
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry(ShortNames)
	for _, name := range []string{"example.com/pkg.Missing", "map[[]int]string", "[x]int", "struct{a int}", "func(int"} {
		t.Run(name, func(t *testing.T) {
			_, err := r.TypeFor(name)
			require.Error(t, err)
			assert.ErrorIs(t, err, exprerr.ErrUnknownType)
		})
	}
}

func TestEnum(t *testing.T) {
	r := NewRegistry(ShortNames)
	colorType := reflect.TypeOf(Color(0))
	accessType := reflect.TypeOf(Access(0))

	require.NoError(t, r.RegisterEnum(colorType, false,
		EnumMember{"Red", 0}, EnumMember{"Green", 1}, EnumMember{"Blue", 2}))
	require.NoError(t, r.RegisterEnum(accessType, true,
		EnumMember{"None", 0}, EnumMember{"Read", 1}, EnumMember{"Write", 2}, EnumMember{"Exec", 4}, EnumMember{"ReadWrite", 3}))

	color, ok := r.Enum(colorType)
	require.True(t, ok)
	access, ok := r.Enum(accessType)
	require.True(t, ok)

	t.Run("single value", func(t *testing.T) {
		assert.Equal(t, "Blue", color.Format(2))
		assert.Equal(t, "7", color.Format(7))
		v, err := color.Parse("Green")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		_, err = color.Parse("Red, Green")
		assert.ErrorIs(t, err, exprerr.ErrInvalidValue)
	})

	t.Run("flags", func(t *testing.T) {
		assert.Equal(t, "None", access.Format(0))
		assert.Equal(t, "ReadWrite, Exec", access.Format(7))
		assert.Equal(t, "Write, 8", access.Format(10))

		for _, s := range []string{"ReadWrite, Exec", "Read Write Exec", "Exec,Read,2"} {
			v, err := access.Parse(s)
			require.NoError(t, err)
			assert.Equal(t, int64(7), v, s)
		}

		_, err := access.Parse("Read, Delete")
		assert.ErrorIs(t, err, exprerr.ErrInvalidValue)
	})

	t.Run("reflect values", func(t *testing.T) {
		v := color.Value(2)
		assert.Equal(t, Color(2), v.Interface())
		assert.Equal(t, int64(2), color.Int(v))
	})

	t.Run("rejects non-integer types", func(t *testing.T) {
		err := r.RegisterEnum(reflect.TypeOf(""), false, EnumMember{"A", 0})
		assert.ErrorIs(t, err, exprerr.ErrUnsupportedType)
	})
}

func TestResolveMember(t *testing.T) {
	r := NewRegistry(ShortNames)
	accountType := reflect.TypeOf(account{})
	r.Register(accountType, reflect.PointerTo(accountType))
	require.NoError(t, r.RegisterConstructor(newAccount))
	require.NoError(t, r.RegisterConstructor(newAccountAt))
	require.NoError(t, r.RegisterFunction("strings", "Repeat", strings.Repeat))

	t.Run("field", func(t *testing.T) {
		want, err := ast.FieldOf(accountType, "Balance")
		require.NoError(t, err)
		d := r.Describe(want)
		assert.Nil(t, d.Parameters)
		assert.False(t, d.Static)

		got, err := r.ResolveMember(d)
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	})

	t.Run("method with by-ref parameter", func(t *testing.T) {
		want, err := ast.MethodOf(accountType, "Deposit")
		require.NoError(t, err)
		d := r.Describe(want)
		assert.Equal(t, []ParamSpec{{Type: "math/big.Float", ByRef: true}}, d.Parameters)

		got, err := r.ResolveMember(d)
		require.NoError(t, err)
		assert.Equal(t, "Deposit", got.Name)
	})

	t.Run("pointer receiver method", func(t *testing.T) {
		want, err := ast.MethodOf(reflect.PointerTo(accountType), "Close")
		require.NoError(t, err)
		got, err := r.ResolveMember(r.Describe(want))
		require.NoError(t, err)
		assert.Equal(t, []reflect.Type{reflect.TypeOf(""), reflect.TypeOf(0)}, got.Parameters())
	})

	t.Run("overloaded constructor", func(t *testing.T) {
		want, err := ast.ConstructorOf(newAccountAt)
		require.NoError(t, err)
		d := r.Describe(want)

		got, err := r.ResolveMember(d)
		require.NoError(t, err)
		assert.True(t, want.Equal(got))

		d.Parameters = nil
		_, err = r.ResolveMember(d)
		assert.ErrorIs(t, err, exprerr.ErrAmbiguousMember)
	})

	t.Run("function", func(t *testing.T) {
		got, err := r.ResolveMember(MemberDescriptor{
			DeclaringType: "strings",
			Name:          "Repeat",
			Kind:          ast.FunctionMember,
			Static:        true,
			Parameters:    []ParamSpec{{Type: "string"}, {Type: "int"}},
		})
		require.NoError(t, err)
		assert.Equal(t, reflect.TypeOf(""), got.ResultType())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := r.ResolveMember(MemberDescriptor{
			DeclaringType: r.NameFor(accountType),
			Name:          "Missing",
			Kind:          ast.FieldMember,
		})
		assert.ErrorIs(t, err, exprerr.ErrMemberNotFound)

		_, err = r.ResolveMember(MemberDescriptor{
			DeclaringType: "strings",
			Name:          "Repeat",
			Kind:          ast.FunctionMember,
			Static:        true,
			Parameters:    []ParamSpec{{Type: "string"}},
		})
		assert.True(t, errors.Is(err, exprerr.ErrSemantic))
	})
}
