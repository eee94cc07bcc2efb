// Package ast defines the typed expression tree that exprjson reads and writes.
//
// Parameters and label targets are binders: the same pointer may appear at the
// site that introduces it and at any number of use sites. The codec keeps that
// identity across a round trip.
package ast

import (
	"fmt"
	"reflect"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// Kind identifies the node type of an Expr.
type Kind uint8

const (
	KindConstant Kind = iota + 1
	KindParameter
	KindLambda
	KindBlock
	KindLabel
	KindGoto
	KindDefault
	KindMember
	KindCall
	KindNew
)

var kindNames = map[Kind]string{
	KindConstant:  "constant",
	KindParameter: "parameter",
	KindLambda:    "lambda",
	KindBlock:     "block",
	KindLabel:     "label",
	KindGoto:      "goto",
	KindDefault:   "default",
	KindMember:    "member",
	KindCall:      "call",
	KindNew:       "new",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Expr is a node of the expression tree. Type returns nil for expressions
// that produce no value.
type Expr interface {
	Kind() Kind
	Type() reflect.Type
}

// Constant is a literal value. Its declared type may be an interface that the
// value's dynamic type implements.
type Constant struct {
	Value any
	typ   reflect.Type
}

// NewConstant builds a constant typed as the dynamic type of v. A nil v is
// typed as any.
func NewConstant(v any) *Constant {
	if v == nil {
		return &Constant{typ: anyType}
	}
	return &Constant{Value: v, typ: reflect.TypeOf(v)}
}

// ConstantOf builds a constant with an explicit declared type.
func ConstantOf(v any, t reflect.Type) (*Constant, error) {
	if t == nil {
		return nil, fmt.Errorf("constant requires a declared type")
	}
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return &Constant{typ: t}, nil
		}
		return nil, fmt.Errorf("nil is not a value of type %s", t)
	}
	if !reflect.TypeOf(v).AssignableTo(t) {
		return nil, fmt.Errorf("value of type %T is not assignable to %s", v, t)
	}
	return &Constant{Value: v, typ: t}, nil
}

func (c *Constant) Kind() Kind         { return KindConstant }
func (c *Constant) Type() reflect.Type { return c.typ }

// Parameter is a named binder introduced by a lambda or a block.
type Parameter struct {
	Name  string
	ByRef bool
	typ   reflect.Type
}

func NewParameter(t reflect.Type, name string) *Parameter {
	return &Parameter{Name: name, typ: t}
}

func (p *Parameter) Kind() Kind         { return KindParameter }
func (p *Parameter) Type() reflect.Type { return p.typ }

// LabelTarget is the destination of a Goto. It is not an expression itself;
// Label places it in the tree.
type LabelTarget struct {
	Name string
	typ  reflect.Type
}

// NewLabelTarget creates a jump target. A nil type means jumps carry no value.
func NewLabelTarget(t reflect.Type, name string) *LabelTarget {
	return &LabelTarget{Name: name, typ: t}
}

func (l *LabelTarget) Type() reflect.Type { return l.typ }

// Lambda is a function literal.
type Lambda struct {
	Name       string
	Parameters []*Parameter
	Body       Expr
	typ        reflect.Type
}

// NewLambda builds a lambda whose func type is derived from its parameters and
// the body type.
func NewLambda(body Expr, params ...*Parameter) (*Lambda, error) {
	in := make([]reflect.Type, len(params))
	for i, p := range params {
		in[i] = p.Type()
	}
	var out []reflect.Type
	if body.Type() != nil {
		out = []reflect.Type{body.Type()}
	}
	return LambdaOf(reflect.FuncOf(in, out, false), body, params...)
}

// LambdaOf builds a lambda with an explicit func type.
func LambdaOf(t reflect.Type, body Expr, params ...*Parameter) (*Lambda, error) {
	if t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("lambda type %v is not a func type", t)
	}
	if t.NumIn() != len(params) {
		return nil, fmt.Errorf("lambda type %s takes %d parameters, got %d", t, t.NumIn(), len(params))
	}
	for i, p := range params {
		if p.Type() != t.In(i) {
			return nil, fmt.Errorf("lambda parameter %d is %v, type %s expects %s", i, p.Type(), t, t.In(i))
		}
	}
	if body == nil {
		return nil, fmt.Errorf("lambda requires a body")
	}
	if t.NumOut() > 0 && !assignable(body.Type(), t.Out(0)) {
		return nil, fmt.Errorf("lambda body of type %v cannot be returned as %s", body.Type(), t.Out(0))
	}
	return &Lambda{Parameters: params, Body: body, typ: t}, nil
}

func (l *Lambda) Kind() Kind         { return KindLambda }
func (l *Lambda) Type() reflect.Type { return l.typ }

// Block evaluates its expressions in order. Its value is the last expression's.
type Block struct {
	Variables   []*Parameter
	Expressions []Expr
	typ         reflect.Type
}

func NewBlock(variables []*Parameter, exprs ...Expr) (*Block, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("block requires at least one expression")
	}
	return &Block{Variables: variables, Expressions: exprs, typ: exprs[len(exprs)-1].Type()}, nil
}

// BlockOf builds a block with an explicit result type. A nil type discards the
// value of the last expression.
func BlockOf(t reflect.Type, variables []*Parameter, exprs ...Expr) (*Block, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("block requires at least one expression")
	}
	if t != nil && !assignable(exprs[len(exprs)-1].Type(), t) {
		return nil, fmt.Errorf("block result %v is not assignable to %s", exprs[len(exprs)-1].Type(), t)
	}
	return &Block{Variables: variables, Expressions: exprs, typ: t}, nil
}

func (b *Block) Kind() Kind         { return KindBlock }
func (b *Block) Type() reflect.Type { return b.typ }

// Label marks the position of a jump target. Default is the value of the label
// when control reaches it without a jump.
type Label struct {
	Target  *LabelTarget
	Default Expr
}

func NewLabel(target *LabelTarget, def Expr) (*Label, error) {
	if target == nil {
		return nil, fmt.Errorf("label requires a target")
	}
	if def != nil && !assignable(def.Type(), target.Type()) {
		return nil, fmt.Errorf("label default of type %v does not match target type %v", def.Type(), target.Type())
	}
	if def == nil && target.Type() != nil {
		return nil, fmt.Errorf("label of type %s requires a default value", target.Type())
	}
	return &Label{Target: target, Default: def}, nil
}

func (l *Label) Kind() Kind         { return KindLabel }
func (l *Label) Type() reflect.Type { return l.Target.Type() }

// GotoKind distinguishes the flavours of jump.
type GotoKind uint8

const (
	GotoJump GotoKind = iota
	GotoReturn
	GotoBreak
	GotoContinue
)

var gotoKindNames = map[GotoKind]string{
	GotoJump:     "goto",
	GotoReturn:   "return",
	GotoBreak:    "break",
	GotoContinue: "continue",
}

func (k GotoKind) String() string {
	if s, ok := gotoKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("GotoKind(%d)", k)
}

// ParseGotoKind is the inverse of GotoKind.String.
func ParseGotoKind(s string) (GotoKind, error) {
	for k, name := range gotoKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown goto kind '%s'", s)
}

// Goto transfers control to a label target, optionally carrying a value.
type Goto struct {
	Jump   GotoKind
	Target *LabelTarget
	Value  Expr
	typ    reflect.Type
}

// NewGoto builds a jump. The value must match the target type; a target with no
// type takes no value. The goto expression itself produces no value unless t
// is given.
func NewGoto(jump GotoKind, target *LabelTarget, value Expr, t reflect.Type) (*Goto, error) {
	if target == nil {
		return nil, fmt.Errorf("goto requires a target")
	}
	switch {
	case target.Type() == nil && value != nil:
		return nil, fmt.Errorf("target '%s' carries no value, got %v", target.Name, value.Type())
	case target.Type() != nil && value == nil:
		return nil, fmt.Errorf("target '%s' requires a value of type %s", target.Name, target.Type())
	case value != nil && !assignable(value.Type(), target.Type()):
		return nil, fmt.Errorf("goto value of type %v does not match target type %s", value.Type(), target.Type())
	}
	return &Goto{Jump: jump, Target: target, Value: value, typ: t}, nil
}

func (g *Goto) Kind() Kind         { return KindGoto }
func (g *Goto) Type() reflect.Type { return g.typ }

// Default is the zero value of a type.
type Default struct {
	typ reflect.Type
}

func DefaultOf(t reflect.Type) *Default {
	return &Default{typ: t}
}

func (d *Default) Kind() Kind         { return KindDefault }
func (d *Default) Type() reflect.Type { return d.typ }

// MemberAccess reads a field of Object.
type MemberAccess struct {
	Object Expr
	Member Member
}

func NewMemberAccess(object Expr, member Member) (*MemberAccess, error) {
	if member.Kind != FieldMember {
		return nil, fmt.Errorf("member access requires a field, got %s", member.Kind)
	}
	if object == nil {
		return nil, fmt.Errorf("field %s requires an object", member)
	}
	if !assignable(object.Type(), member.DeclaringType) {
		return nil, fmt.Errorf("object of type %v has no field %s", object.Type(), member)
	}
	return &MemberAccess{Object: object, Member: member}, nil
}

func (m *MemberAccess) Kind() Kind         { return KindMember }
func (m *MemberAccess) Type() reflect.Type { return m.Member.ResultType() }

// Call invokes a method on Object, or a package function when Object is nil.
type Call struct {
	Object    Expr
	Method    Member
	Arguments []Expr
}

func NewCall(object Expr, method Member, args ...Expr) (*Call, error) {
	switch method.Kind {
	case MethodMember:
		if object == nil {
			return nil, fmt.Errorf("method %s requires an object", method)
		}
		if !assignable(object.Type(), method.DeclaringType) {
			return nil, fmt.Errorf("object of type %v has no method %s", object.Type(), method)
		}
	case FunctionMember:
		if object != nil {
			return nil, fmt.Errorf("function %s takes no object", method)
		}
	default:
		return nil, fmt.Errorf("call requires a method or function, got %s", method.Kind)
	}
	if err := checkArguments(method, args); err != nil {
		return nil, err
	}
	return &Call{Object: object, Method: method, Arguments: args}, nil
}

func (c *Call) Kind() Kind         { return KindCall }
func (c *Call) Type() reflect.Type { return c.Method.ResultType() }

// New constructs a value. Without a constructor it produces the zero value of
// its type.
type New struct {
	Constructor *Member
	Arguments   []Expr
	typ         reflect.Type
}

func NewNew(ctor Member, args ...Expr) (*New, error) {
	if ctor.Kind != ConstructorMember {
		return nil, fmt.Errorf("new requires a constructor, got %s", ctor.Kind)
	}
	if err := checkArguments(ctor, args); err != nil {
		return nil, err
	}
	return &New{Constructor: &ctor, Arguments: args, typ: ctor.DeclaringType}, nil
}

// NewZero builds a constructor-less New of type t.
func NewZero(t reflect.Type) *New {
	return &New{typ: t}
}

func (n *New) Kind() Kind         { return KindNew }
func (n *New) Type() reflect.Type { return n.typ }

func checkArguments(m Member, args []Expr) error {
	sig := m.Signature()
	n := sig.NumIn()
	if sig.IsVariadic() {
		if len(args) < n-1 {
			return fmt.Errorf("%s takes at least %d arguments, got %d", m, n-1, len(args))
		}
	} else if len(args) != n {
		return fmt.Errorf("%s takes %d arguments, got %d", m, n, len(args))
	}
	for i, arg := range args {
		var want reflect.Type
		if sig.IsVariadic() && i >= n-1 {
			want = sig.In(n - 1).Elem()
		} else {
			want = sig.In(i)
		}
		if arg == nil || !assignable(arg.Type(), want) {
			return fmt.Errorf("argument %d of %s must be %s", i, m, want)
		}
	}
	return nil
}

// assignable treats a nil type as void: only void fits void.
func assignable(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return from == to
	}
	return from.AssignableTo(to)
}
