package ast

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
	tag  string
}

func (p point) Scale(k int) point { return point{X: p.X * k, Y: p.Y * k} }

func newPoint(x, y int) point { return point{X: x, Y: y} }

var (
	intType   = reflect.TypeOf(0)
	pointType = reflect.TypeOf(point{})
)

func TestNewLambda_DerivesFuncType(t *testing.T) {
	x := NewParameter(intType, "x")
	l, err := NewLambda(x, x)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(func(int) int { return 0 }), l.Type())

	_, err = LambdaOf(reflect.TypeOf(func(string) int { return 0 }), x, x)
	assert.Error(t, err)
}

func TestMembers(t *testing.T) {
	t.Run("field visibility", func(t *testing.T) {
		x, err := FieldOf(pointType, "X")
		require.NoError(t, err)
		assert.Equal(t, Public, x.Visibility)
		assert.Equal(t, intType, x.ResultType())

		tag, err := FieldOf(pointType, "tag")
		require.NoError(t, err)
		assert.Equal(t, Assembly, tag.Visibility)

		_, err = FieldOf(pointType, "Z")
		assert.Error(t, err)
	})

	t.Run("method signature drops receiver", func(t *testing.T) {
		m, err := MethodOf(pointType, "Scale")
		require.NoError(t, err)
		assert.Equal(t, []reflect.Type{intType}, m.Parameters())
		assert.Equal(t, pointType, m.ResultType())
		assert.False(t, m.Static())
	})

	t.Run("constructor", func(t *testing.T) {
		c, err := ConstructorOf(newPoint)
		require.NoError(t, err)
		assert.Equal(t, pointType, c.DeclaringType)
		assert.True(t, c.Static())

		_, err = ConstructorOf(func() {})
		assert.Error(t, err)
	})

	t.Run("visibility names", func(t *testing.T) {
		for _, v := range []Visibility{Public, Private, Assembly, Family, FamilyOrAssembly} {
			parsed, err := ParseVisibility(v.String())
			require.NoError(t, err)
			assert.Equal(t, v, parsed)
		}
	})
}

func TestNewCall_ChecksArguments(t *testing.T) {
	scale, err := MethodOf(pointType, "Scale")
	require.NoError(t, err)
	p := NewParameter(pointType, "p")

	_, err = NewCall(p, scale, NewConstant(2))
	require.NoError(t, err)

	_, err = NewCall(p, scale, NewConstant("2"))
	assert.Error(t, err)

	_, err = NewCall(p, scale)
	assert.Error(t, err)

	_, err = NewCall(nil, scale, NewConstant(2))
	assert.Error(t, err)

	join, err := FunctionOf("strings", "Join", strings.Join)
	require.NoError(t, err)
	_, err = NewCall(NewConstant(1), join)
	assert.Error(t, err)
}

func TestNewGoto_ChecksValue(t *testing.T) {
	ret := NewLabelTarget(intType, "ret")

	_, err := NewGoto(GotoReturn, ret, NewConstant(1), nil)
	require.NoError(t, err)

	_, err = NewGoto(GotoReturn, ret, NewConstant("1"), nil)
	assert.Error(t, err)

	_, err = NewGoto(GotoReturn, ret, nil, nil)
	assert.Error(t, err)

	_, err = NewGoto(GotoBreak, NewLabelTarget(nil, "done"), NewConstant(1), nil)
	assert.Error(t, err)
}

func TestWalk(t *testing.T) {
	x := NewParameter(intType, "x")
	ret := NewLabelTarget(intType, "ret")
	jump, err := NewGoto(GotoReturn, ret, x, nil)
	require.NoError(t, err)
	label, err := NewLabel(ret, DefaultOf(intType))
	require.NoError(t, err)
	block, err := NewBlock(nil, jump, label)
	require.NoError(t, err)
	lambda, err := NewLambda(block, x)
	require.NoError(t, err)

	counts := Count(lambda)
	assert.Equal(t, 1, counts[KindLambda])
	assert.Equal(t, 2, counts[KindParameter])
	assert.Equal(t, 1, counts[KindDefault])
	assert.Equal(t, 1, counts[KindGoto])
}
