package visitor

import (
	"reflect"
	"strconv"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
)

func encodeConstant(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	c, ok := e.(*ast.Constant)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".constant"
	typeNode, err := s.typeNode("type", c.Type(), at+".type")
	if err != nil {
		return nil, err
	}
	value, err := s.codec.EncodeAs(c.Value, c.Type(), at+".value")
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindConstant.String(),
		typeNode,
		document.Map("value", value),
	), nil
}

func decodeConstant(s *decodeState, n *document.Node) (ast.Expr, error) {
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, exprerr.NewTypeMismatchError(n.Path()+".type", "value type", "void", exprerr.Decode)
	}
	v, err := s.codec.DecodeField(n, "value")
	if err != nil {
		return nil, err
	}
	if !v.Type().AssignableTo(t) {
		return nil, exprerr.NewTypeMismatchError(n.Path()+".value", t.String(), v.Type().String(), exprerr.Decode)
	}
	var value any
	if !isNilValue(v) {
		value = v.Interface()
	}
	c, err := ast.ConstantOf(value, t)
	if err != nil {
		return nil, rejected(n, err)
	}
	return c, nil
}

func encodeParameterExpr(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	p, ok := e.(*ast.Parameter)
	if !ok {
		return nil, unsupported(e, path)
	}
	return s.parameter(p, path)
}

// parameter writes the full binder on first sight and a reference after.
func (s *encodeState) parameter(p *ast.Parameter, path string) (*document.Node, error) {
	if id, seen := s.params[p]; seen {
		typeNode, err := s.typeNode("type", p.Type(), path+"."+LabelParameterRef+".type")
		if err != nil {
			return nil, err
		}
		return document.Map(LabelParameterRef,
			document.String("id", id),
			typeNode,
			document.String("name", p.Name),
		), nil
	}

	typeNode, err := s.typeNode("type", p.Type(), path+"."+LabelParameter+".type")
	if err != nil {
		return nil, err
	}
	s.nextParam++
	id := "P" + strconv.Itoa(s.nextParam)
	s.params[p] = id

	var byRef *document.Node
	if p.ByRef {
		byRef = document.Bool("byRef", true)
	}
	return document.Map(LabelParameter,
		document.String("id", id),
		typeNode,
		document.String("name", p.Name),
		byRef,
	), nil
}

func decodeParameterExpr(s *decodeState, n *document.Node) (ast.Expr, error) {
	return s.parameter(n)
}

func (s *decodeState) parameter(n *document.Node) (*ast.Parameter, error) {
	id, err := document.GetField[string](n, "id")
	if err != nil {
		return nil, err
	}
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}

	switch n.Name {
	case LabelParameter:
		if _, dup := s.params[id]; dup {
			return nil, exprerr.NewDuplicateBinderError(n.Path()+".id", id)
		}
		name, err := document.GetField[string](n, "name")
		if err != nil {
			return nil, err
		}
		byRef, err := document.GetOptional[bool](n, "byRef")
		if err != nil {
			return nil, err
		}
		p := ast.NewParameter(t, name)
		p.ByRef = byRef.OrElse(false)
		s.params[id] = p
		return p, nil
	case LabelParameterRef:
		p, ok := s.params[id]
		if !ok {
			return nil, exprerr.NewDanglingReferenceError(n.Path()+".id", id)
		}
		if p.Type() != t {
			return nil, exprerr.NewTypeMismatchError(n.Path()+".type", typeString(p.Type()), typeString(t), exprerr.Decode)
		}
		if err := checkRefName(n, p.Name); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, exprerr.NewUnknownLabelError(n.Path(), n.Name, exprerr.Decode)
	}
}

// parameters writes a binder list such as lambda parameters or block variables.
func (s *encodeState) parameters(name string, params []*ast.Parameter, path string) (*document.Node, error) {
	out := document.List(name)
	for i, p := range params {
		if p == nil {
			return nil, exprerr.NewInvalidValueError(path+"."+name+"["+strconv.Itoa(i)+"]", "parameter", "missing parameter", exprerr.Encode)
		}
		node, err := s.parameter(p, path+"."+name+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		_ = out.Add(node)
	}
	return out, nil
}

func (s *decodeState) parameters(n *document.Node, name string) ([]*ast.Parameter, error) {
	items, err := n.Array(name)
	if err != nil {
		return nil, err
	}
	params := make([]*ast.Parameter, 0, len(items))
	for _, item := range items {
		p, err := s.parameter(item)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func (s *encodeState) labelTarget(field string, l *ast.LabelTarget, path string) (*document.Node, error) {
	if l == nil {
		return nil, exprerr.NewInvalidValueError(path, "label target", "missing label target", exprerr.Encode)
	}
	label := LabelLabelTarget
	id, seen := s.labels[l]
	if seen {
		label = LabelLabelTargetRef
	}
	typeNode, err := s.typeNode("type", l.Type(), path+"."+field+"."+label+".type")
	if err != nil {
		return nil, err
	}
	if !seen {
		s.nextLabel++
		id = "L" + strconv.Itoa(s.nextLabel)
		s.labels[l] = id
	}
	return document.Map(field, document.Map(label,
		document.String("id", id),
		typeNode,
		document.String("name", l.Name),
	)), nil
}

func (s *decodeState) labelTarget(n *document.Node, field string) (*ast.LabelTarget, error) {
	inner, err := n.SingleField(field)
	if err != nil {
		return nil, err
	}
	id, err := document.GetField[string](inner, "id")
	if err != nil {
		return nil, err
	}
	t, err := s.codec.TypeField(inner, "type")
	if err != nil {
		return nil, err
	}

	switch inner.Name {
	case LabelLabelTarget:
		if _, dup := s.labels[id]; dup {
			return nil, exprerr.NewDuplicateBinderError(inner.Path()+".id", id)
		}
		name, err := document.GetField[string](inner, "name")
		if err != nil {
			return nil, err
		}
		l := ast.NewLabelTarget(t, name)
		s.labels[id] = l
		return l, nil
	case LabelLabelTargetRef:
		l, ok := s.labels[id]
		if !ok {
			return nil, exprerr.NewDanglingReferenceError(inner.Path()+".id", id)
		}
		if l.Type() != t {
			return nil, exprerr.NewTypeMismatchError(inner.Path()+".type", typeString(l.Type()), typeString(t), exprerr.Decode)
		}
		if err := checkRefName(inner, l.Name); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, exprerr.NewUnknownLabelError(inner.Path(), inner.Name, exprerr.Decode)
	}
}

// checkRefName compares the optional name repeated by a reference with the
// name its binder was declared with.
func checkRefName(n *document.Node, declared string) error {
	name, err := document.GetOptional[string](n, "name")
	if err != nil {
		return err
	}
	if got, ok := name.Get(); ok && got != declared {
		return exprerr.NewTypeMismatchError(n.Path()+".name", strconv.Quote(declared), strconv.Quote(got), exprerr.Decode)
	}
	return nil
}

func encodeLambda(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	l, ok := e.(*ast.Lambda)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".lambda"
	typeNode, err := s.typeNode("type", l.Type(), at+".type")
	if err != nil {
		return nil, err
	}
	var name *document.Node
	if l.Name != "" {
		name = document.String("name", l.Name)
	}
	params, err := s.parameters("parameters", l.Parameters, at)
	if err != nil {
		return nil, err
	}
	body, err := s.expr(l.Body, at+".body")
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindLambda.String(),
		typeNode,
		name,
		params,
		document.Map("body", body),
	), nil
}

func decodeLambda(s *decodeState, n *document.Node) (ast.Expr, error) {
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}
	name, err := document.GetOptional[string](n, "name")
	if err != nil {
		return nil, err
	}
	params, err := s.parameters(n, "parameters")
	if err != nil {
		return nil, err
	}
	body, err := s.field(n, "body")
	if err != nil {
		return nil, err
	}
	l, err := ast.LambdaOf(t, body, params...)
	if err != nil {
		return nil, rejected(n, err)
	}
	l.Name = name.OrElse("")
	return l, nil
}

func encodeBlock(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	b, ok := e.(*ast.Block)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".block"
	typeNode, err := s.typeNode("type", b.Type(), at+".type")
	if err != nil {
		return nil, err
	}
	vars, err := s.parameters("variables", b.Variables, at)
	if err != nil {
		return nil, err
	}
	exprs, err := s.list("expressions", b.Expressions, at)
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindBlock.String(), typeNode, vars, exprs), nil
}

func decodeBlock(s *decodeState, n *document.Node) (ast.Expr, error) {
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}
	vars, err := s.parameters(n, "variables")
	if err != nil {
		return nil, err
	}
	exprs, err := s.list(n, "expressions")
	if err != nil {
		return nil, err
	}
	b, err := ast.BlockOf(t, vars, exprs...)
	if err != nil {
		return nil, rejected(n, err)
	}
	return b, nil
}

func encodeLabel(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	l, ok := e.(*ast.Label)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".label"
	target, err := s.labelTarget("target", l.Target, at)
	if err != nil {
		return nil, err
	}
	var def *document.Node
	if !isNil(l.Default) {
		body, err := s.expr(l.Default, at+".default")
		if err != nil {
			return nil, err
		}
		def = document.Map("default", body)
	}
	return document.Map(ast.KindLabel.String(), target, def), nil
}

func decodeLabel(s *decodeState, n *document.Node) (ast.Expr, error) {
	target, err := s.labelTarget(n, "target")
	if err != nil {
		return nil, err
	}
	def, err := s.optionalField(n, "default")
	if err != nil {
		return nil, err
	}
	l, err := ast.NewLabel(target, def)
	if err != nil {
		return nil, rejected(n, err)
	}
	return l, nil
}

func encodeGoto(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	g, ok := e.(*ast.Goto)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".goto"
	target, err := s.labelTarget("target", g.Target, at)
	if err != nil {
		return nil, err
	}
	typeNode, err := s.typeNode("type", g.Type(), at+".type")
	if err != nil {
		return nil, err
	}
	var value *document.Node
	if !isNil(g.Value) {
		body, err := s.expr(g.Value, at+".value")
		if err != nil {
			return nil, err
		}
		value = document.Map("value", body)
	}
	return document.Map(ast.KindGoto.String(),
		document.String("jump", g.Jump.String()),
		target,
		value,
		typeNode,
	), nil
}

func decodeGoto(s *decodeState, n *document.Node) (ast.Expr, error) {
	jumpName, err := document.GetField[string](n, "jump")
	if err != nil {
		return nil, err
	}
	jump, err := ast.ParseGotoKind(jumpName)
	if err != nil {
		return nil, exprerr.NewInvalidValueError(n.Path()+".jump", "goto kind", err.Error(), exprerr.Decode)
	}
	target, err := s.labelTarget(n, "target")
	if err != nil {
		return nil, err
	}
	value, err := s.optionalField(n, "value")
	if err != nil {
		return nil, err
	}
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}
	g, err := ast.NewGoto(jump, target, value, t)
	if err != nil {
		return nil, rejected(n, err)
	}
	return g, nil
}

func encodeDefault(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	d, ok := e.(*ast.Default)
	if !ok {
		return nil, unsupported(e, path)
	}
	typeNode, err := s.typeNode("type", d.Type(), path+".default.type")
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindDefault.String(), typeNode), nil
}

func decodeDefault(s *decodeState, n *document.Node) (ast.Expr, error) {
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}
	return ast.DefaultOf(t), nil
}

func encodeMemberAccess(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	m, ok := e.(*ast.MemberAccess)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".member"
	object, err := s.expr(m.Object, at+".object")
	if err != nil {
		return nil, err
	}
	member, err := s.member("field", m.Member, at)
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindMember.String(),
		document.Map("object", object),
		member,
	), nil
}

func decodeMemberAccess(s *decodeState, n *document.Node) (ast.Expr, error) {
	object, err := s.field(n, "object")
	if err != nil {
		return nil, err
	}
	member, err := s.member(n, "field")
	if err != nil {
		return nil, err
	}
	m, err := ast.NewMemberAccess(object, member)
	if err != nil {
		return nil, rejected(n, err)
	}
	return m, nil
}

func encodeCall(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	c, ok := e.(*ast.Call)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".call"
	var object *document.Node
	if !isNil(c.Object) {
		body, err := s.expr(c.Object, at+".object")
		if err != nil {
			return nil, err
		}
		object = document.Map("object", body)
	}
	method, err := s.member("method", c.Method, at)
	if err != nil {
		return nil, err
	}
	args, err := s.list("arguments", c.Arguments, at)
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindCall.String(), object, method, args), nil
}

func decodeCall(s *decodeState, n *document.Node) (ast.Expr, error) {
	object, err := s.optionalField(n, "object")
	if err != nil {
		return nil, err
	}
	method, err := s.member(n, "method")
	if err != nil {
		return nil, err
	}
	args, err := s.list(n, "arguments")
	if err != nil {
		return nil, err
	}
	c, err := ast.NewCall(object, method, args...)
	if err != nil {
		return nil, rejected(n, err)
	}
	return c, nil
}

func encodeNew(s *encodeState, e ast.Expr, path string) (*document.Node, error) {
	nw, ok := e.(*ast.New)
	if !ok {
		return nil, unsupported(e, path)
	}
	at := path + ".new"
	typeNode, err := s.typeNode("type", nw.Type(), at+".type")
	if err != nil {
		return nil, err
	}
	var ctor *document.Node
	if nw.Constructor != nil {
		if ctor, err = s.member("constructor", *nw.Constructor, at); err != nil {
			return nil, err
		}
	}
	args, err := s.list("arguments", nw.Arguments, at)
	if err != nil {
		return nil, err
	}
	return document.Map(ast.KindNew.String(), typeNode, ctor, args), nil
}

func decodeNew(s *decodeState, n *document.Node) (ast.Expr, error) {
	t, err := s.codec.TypeField(n, "type")
	if err != nil {
		return nil, err
	}
	args, err := s.list(n, "arguments")
	if err != nil {
		return nil, err
	}
	if n.Optional("constructor").IsAbsent() {
		if len(args) > 0 {
			return nil, exprerr.NewMissingFieldError(n.Path(), "constructor", exprerr.Decode)
		}
		if t == nil {
			return nil, exprerr.NewTypeMismatchError(n.Path()+".type", "value type", "void", exprerr.Decode)
		}
		return ast.NewZero(t), nil
	}
	ctor, err := s.member(n, "constructor")
	if err != nil {
		return nil, err
	}
	if ctor.DeclaringType != t {
		return nil, exprerr.NewTypeMismatchError(n.Path()+".type", typeString(ctor.DeclaringType), typeString(t), exprerr.Decode)
	}
	nw, err := ast.NewNew(ctor, args...)
	if err != nil {
		return nil, rejected(n, err)
	}
	return nw, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
