package visitor

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/codec"
	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

type Account struct {
	Owner   string
	Balance int
}

func (a Account) Deposit(amount int) Account {
	a.Balance += amount
	return a
}

func NewAccount(owner string) Account { return Account{Owner: owner} }

func NewFundedAccount(owner string, balance int) Account {
	return Account{Owner: owner, Balance: balance}
}

func NewEmptyAccount() Account { return Account{} }

func add(a, b int) int { return a + b }

var (
	intType     = reflect.TypeOf(0)
	accountType = reflect.TypeOf(Account{})
)

// loop is an expression kind the codec has no entry for.
type loop struct{}

func (loop) Kind() ast.Kind     { return ast.Kind(99) }
func (loop) Type() reflect.Type { return nil }

// fakeConstant claims the constant kind without being an *ast.Constant.
type fakeConstant struct{}

func (fakeConstant) Kind() ast.Kind     { return ast.KindConstant }
func (fakeConstant) Type() reflect.Type { return intType }

func newTestVisitor(t *testing.T) *Visitor {
	t.Helper()
	reg := typeinfo.NewRegistry(typeinfo.ShortNames)
	reg.Register(accountType)
	require.NoError(t, reg.RegisterConstructor(NewAccount))
	require.NoError(t, reg.RegisterConstructor(NewFundedAccount))
	require.NoError(t, reg.RegisterConstructor(NewEmptyAccount))
	require.NoError(t, reg.RegisterFunction("calc", "Add", add))
	return New(codec.New(reg, codec.Options{}))
}

// countLabels counts the nodes labelled label anywhere under n.
func countLabels(n *document.Node, label string) int {
	count := 0
	if n.Name == label {
		count++
	}
	for _, child := range n.Children() {
		count += countLabels(child, label)
	}
	return count
}

func roundTrip(t *testing.T, v *Visitor, expr ast.Expr) (ast.Expr, *document.Node) {
	t.Helper()
	root, err := v.EncodeDocument(expr)
	require.NoError(t, err)
	data, err := root.MarshalJSON()
	require.NoError(t, err)

	parsed, err := document.Parse(data, document.ParseOptions{})
	require.NoError(t, err)
	decoded, err := v.DecodeDocument(parsed)
	require.NoError(t, err, string(data))

	again, err := v.EncodeDocument(decoded)
	require.NoError(t, err)
	rewritten, err := again.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(rewritten))
	return decoded, root
}

func TestVisitor_BinderReuse(t *testing.T) {
	v := newTestVisitor(t)
	x := ast.NewParameter(intType, "x")
	fn, err := ast.FunctionOf("calc", "Add", add)
	require.NoError(t, err)
	call, err := ast.NewCall(nil, fn, x, x)
	require.NoError(t, err)
	lambda, err := ast.NewLambda(call, x)
	require.NoError(t, err)

	decoded, root := roundTrip(t, v, lambda)

	assert.Equal(t, 1, countLabels(root, LabelParameter))
	assert.Equal(t, 2, countLabels(root, LabelParameterRef))

	l := decoded.(*ast.Lambda)
	require.Len(t, l.Parameters, 1)
	c := l.Body.(*ast.Call)
	require.Len(t, c.Arguments, 2)
	assert.Same(t, l.Parameters[0], c.Arguments[0])
	assert.Same(t, l.Parameters[0], c.Arguments[1])
	assert.Equal(t, "x", l.Parameters[0].Name)
}

func TestVisitor_BinderIdsArePerCall(t *testing.T) {
	v := newTestVisitor(t)
	x := ast.NewParameter(intType, "x")

	for i := 0; i < 2; i++ {
		node, err := v.EncodeExpr(x)
		require.NoError(t, err)
		assert.Equal(t, LabelParameter, node.Name)
		id, err := document.GetField[string](node, "id")
		require.NoError(t, err)
		assert.Equal(t, "P1", id)
	}
}

func TestVisitor_RoundTripTree(t *testing.T) {
	v := newTestVisitor(t)

	acct := ast.NewParameter(accountType, "acct")
	amount := ast.NewParameter(intType, "amount")
	result := ast.NewParameter(accountType, "result")
	ret := ast.NewLabelTarget(accountType, "ret")

	balance, err := ast.FieldOf(accountType, "Balance")
	require.NoError(t, err)
	readBalance, err := ast.NewMemberAccess(acct, balance)
	require.NoError(t, err)

	deposit, err := ast.MethodOf(accountType, "Deposit")
	require.NoError(t, err)
	call, err := ast.NewCall(acct, deposit, amount)
	require.NoError(t, err)
	jump, err := ast.NewGoto(ast.GotoReturn, ret, call, nil)
	require.NoError(t, err)

	ctor, err := ast.ConstructorOf(NewFundedAccount)
	require.NoError(t, err)
	created, err := ast.NewNew(ctor, ast.NewConstant("ada"), ast.DefaultOf(intType))
	require.NoError(t, err)
	label, err := ast.NewLabel(ret, created)
	require.NoError(t, err)

	block, err := ast.NewBlock([]*ast.Parameter{result}, readBalance, jump, ast.NewZero(accountType), label)
	require.NoError(t, err)
	lambda, err := ast.NewLambda(block, acct, amount)
	require.NoError(t, err)
	lambda.Name = "depositOrOpen"

	decoded, root := roundTrip(t, v, lambda)

	assert.Equal(t, 3, countLabels(root, LabelParameter))
	assert.Equal(t, 3, countLabels(root, LabelParameterRef))
	assert.Equal(t, 1, countLabels(root, LabelLabelTarget))
	assert.Equal(t, 1, countLabels(root, LabelLabelTargetRef))

	l := decoded.(*ast.Lambda)
	assert.Equal(t, "depositOrOpen", l.Name)
	assert.Equal(t, lambda.Type(), l.Type())

	b := l.Body.(*ast.Block)
	require.Len(t, b.Expressions, 4)
	assert.Same(t, l.Parameters[0], b.Expressions[0].(*ast.MemberAccess).Object)

	g := b.Expressions[1].(*ast.Goto)
	assert.Equal(t, ast.GotoReturn, g.Jump)
	assert.Same(t, l.Parameters[0], g.Value.(*ast.Call).Object)
	assert.Same(t, l.Parameters[1], g.Value.(*ast.Call).Arguments[0])

	zero := b.Expressions[2].(*ast.New)
	assert.Nil(t, zero.Constructor)
	assert.Equal(t, accountType, zero.Type())

	lbl := b.Expressions[3].(*ast.Label)
	assert.Same(t, g.Target, lbl.Target)
	n := lbl.Default.(*ast.New)
	require.NotNil(t, n.Constructor)
	assert.True(t, n.Constructor.Equal(ctor))
	assert.Equal(t, "ada", n.Arguments[0].(*ast.Constant).Value)
}

func TestVisitor_Constants(t *testing.T) {
	v := newTestVisitor(t)
	var nilAccount *Account

	tests := []struct {
		name  string
		value any
		typ   reflect.Type
	}{
		{"int", 42, intType},
		{"string", "hello", reflect.TypeOf("")},
		{"struct as object", Account{Owner: "ada", Balance: 3}, accountType},
		{"nil pointer", nil, reflect.TypeOf(nilAccount)},
		{"interface", 7, reflect.TypeOf((*any)(nil)).Elem()},
		{"map", map[string]int{"a": 1}, reflect.TypeOf(map[string]int{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ast.ConstantOf(tt.value, tt.typ)
			require.NoError(t, err)
			decoded, _ := roundTrip(t, v, c)
			got := decoded.(*ast.Constant)
			assert.Equal(t, tt.typ, got.Type())
			assert.Equal(t, tt.value, got.Value)
		})
	}
}

func TestVisitor_MemberDescriptorParameters(t *testing.T) {
	v := newTestVisitor(t)
	ctor, err := ast.ConstructorOf(NewEmptyAccount)
	require.NoError(t, err)
	n, err := ast.NewNew(ctor)
	require.NoError(t, err)

	node, err := v.EncodeExpr(n)
	require.NoError(t, err)
	descriptorNode, err := node.Child("constructor")
	require.NoError(t, err)
	params, err := descriptorNode.Array("parameters")
	require.NoError(t, err)
	assert.Empty(t, params)

	d, err := descriptor(descriptorNode)
	require.NoError(t, err)
	assert.NotNil(t, d.Parameters)
	assert.Empty(t, d.Parameters)

	decoded, err := v.DecodeExpr(node)
	require.NoError(t, err)
	assert.True(t, decoded.(*ast.New).Constructor.Equal(ctor))
}

func TestVisitor_DecodeErrors(t *testing.T) {
	v := newTestVisitor(t)
	schema := `"$schema": "` + SchemaURI + `"`

	tests := []struct {
		name    string
		doc     string
		want    error
		message string
	}{
		{
			name:    "unknown label",
			doc:     `{` + schema + `, "expression": {"loop": {}}}`,
			want:    exprerr.ErrUnknownLabel,
			message: "decode $.expression.loop: structural error: unrecognized node label: 'loop'",
		},
		{
			name: "dangling reference",
			doc:  `{` + schema + `, "expression": {"parameterRef": {"id": "P9", "type": "int", "name": "x"}}}`,
			want: exprerr.ErrDanglingReference,
		},
		{
			name: "duplicate binder",
			doc: `{` + schema + `, "expression": {"block": {"type": "int", "variables": [
				{"parameter": {"id": "P1", "type": "int", "name": "a"}},
				{"parameter": {"id": "P1", "type": "int", "name": "b"}}
			], "expressions": [{"default": {"type": "int"}}]}}}`,
			want: exprerr.ErrDuplicateBinder,
		},
		{
			name: "reference type mismatch",
			doc: `{` + schema + `, "expression": {"block": {"type": "string", "variables": [
				{"parameter": {"id": "P1", "type": "int", "name": "a"}}
			], "expressions": [{"parameterRef": {"id": "P1", "type": "string", "name": "a"}}]}}}`,
			want: exprerr.ErrTypeMismatch,
		},
		{
			name: "reference name mismatch",
			doc: `{` + schema + `, "expression": {"block": {"type": "int", "variables": [
				{"parameter": {"id": "P1", "type": "int", "name": "a"}}
			], "expressions": [{"parameterRef": {"id": "P1", "type": "int", "name": "b"}}]}}}`,
			want: exprerr.ErrTypeMismatch,
		},
		{
			name: "label reference name mismatch",
			doc: `{` + schema + `, "expression": {"block": {"type": "void", "variables": [], "expressions": [
				{"label": {"target": {"labelTarget": {"id": "L1", "type": "void", "name": "done"}}}},
				{"goto": {"jump": "goto", "target": {"labelTargetRef": {"id": "L1", "type": "void", "name": "exit"}}, "type": "void"}}
			]}}}`,
			want: exprerr.ErrTypeMismatch,
		},
		{
			name: "unsupported schema",
			doc:  `{"$schema": "https://example.com/v0", "expression": {"default": {"type": "int"}}}`,
			want: exprerr.ErrUnsupportedSchema,
		},
		{
			name: "missing schema",
			doc:  `{"expression": {"default": {"type": "int"}}}`,
			want: exprerr.ErrMissingField,
		},
		{
			name: "missing expression",
			doc:  `{` + schema + `}`,
			want: exprerr.ErrMissingField,
		},
		{
			name: "unknown function",
			doc: `{` + schema + `, "expression": {"call": {"method": {"declaringType": "calc", "name": "Sub",
				"kind": "function", "static": true, "visibility": "public"}, "arguments": []}}}`,
			want: exprerr.ErrMemberNotFound,
		},
		{
			name: "ambiguous constructor",
			doc: `{` + schema + `, "expression": {"new": {"type": "github.com/hengadev/exprjson/internal/visitor.Account",
				"constructor": {"declaringType": "github.com/hengadev/exprjson/internal/visitor.Account",
				"kind": "constructor", "static": true, "visibility": "public"}, "arguments": []}}}`,
			want: exprerr.ErrAmbiguousMember,
		},
		{
			name: "call argument count",
			doc: `{` + schema + `, "expression": {"call": {"method": {"declaringType": "calc", "name": "Add",
				"kind": "function", "static": true, "visibility": "public"},
				"arguments": [{"default": {"type": "int"}}]}}}`,
			want: exprerr.ErrTypeMismatch,
		},
		{
			name: "goto value against untyped target",
			doc: `{` + schema + `, "expression": {"goto": {"jump": "break",
				"target": {"labelTarget": {"id": "L1", "type": "void", "name": "end"}},
				"value": {"default": {"type": "int"}}, "type": "void"}}}`,
			want: exprerr.ErrTypeMismatch,
		},
		{
			name: "label target in expression position",
			doc:  `{` + schema + `, "expression": {"labelTarget": {"id": "L1", "type": "void", "name": "end"}}}`,
			want: exprerr.ErrUnknownLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := document.Parse([]byte(tt.doc), document.ParseOptions{})
			require.NoError(t, err)

			_, err = v.DecodeDocument(root)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pathErr *exprerr.PathError
			require.ErrorAs(t, err, &pathErr)
			assert.NotEmpty(t, pathErr.Path)
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestVisitor_EncodeErrors(t *testing.T) {
	v := newTestVisitor(t)

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := v.EncodeDocument(loop{})
		assert.ErrorIs(t, err, exprerr.ErrUnsupportedKind)
	})

	t.Run("foreign expression with known kind", func(t *testing.T) {
		_, err := v.EncodeDocument(fakeConstant{})
		assert.ErrorIs(t, err, exprerr.ErrUnsupportedKind)
	})

	t.Run("unsupported kind nested", func(t *testing.T) {
		block, err := ast.BlockOf(nil, nil, loop{})
		require.NoError(t, err)
		_, err = v.EncodeDocument(block)
		require.ErrorIs(t, err, exprerr.ErrUnsupportedKind)

		var pathErr *exprerr.PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "$.expression.block.expressions[0]", pathErr.Path)
	})

	t.Run("unregistered function", func(t *testing.T) {
		fn, err := ast.FunctionOf("calc", "Mul", func(a, b int) int { return a * b })
		require.NoError(t, err)
		call, err := ast.NewCall(nil, fn, ast.NewConstant(1), ast.NewConstant(2))
		require.NoError(t, err)
		_, err = v.EncodeDocument(call)
		assert.ErrorIs(t, err, exprerr.ErrMemberNotFound)
	})

	t.Run("nil expression", func(t *testing.T) {
		_, err := v.EncodeDocument(nil)
		assert.ErrorIs(t, err, exprerr.ErrInvalidValue)
	})
}
