// Package visitor walks expression trees into document nodes and back.
//
// Parameters and label targets are binders. The first time one is met it is
// written in full with a fresh id (P1, P2... for parameters, L1, L2... for
// label targets); every later occurrence is written as a reference carrying
// the same id. Ids are assigned per call, so a Visitor can be shared.
package visitor

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/codec"
	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

// SchemaURI identifies the document layout written by this package.
const SchemaURI = "https://github.com/hengadev/exprjson/schema/expression/v1"

// Envelope field names.
const (
	FieldSchema     = "$schema"
	FieldExpression = "expression"
)

// Binder node labels.
const (
	LabelParameter      = "parameter"
	LabelParameterRef   = "parameterRef"
	LabelLabelTarget    = "labelTarget"
	LabelLabelTargetRef = "labelTargetRef"
)

type encodeFunc func(s *encodeState, e ast.Expr, path string) (*document.Node, error)

type decodeFunc func(s *decodeState, n *document.Node) (ast.Expr, error)

var (
	encoders map[ast.Kind]encodeFunc
	decoders map[string]decodeFunc
)

func init() {
	encoders = map[ast.Kind]encodeFunc{
		ast.KindConstant:  encodeConstant,
		ast.KindParameter: encodeParameterExpr,
		ast.KindLambda:    encodeLambda,
		ast.KindBlock:     encodeBlock,
		ast.KindLabel:     encodeLabel,
		ast.KindGoto:      encodeGoto,
		ast.KindDefault:   encodeDefault,
		ast.KindMember:    encodeMemberAccess,
		ast.KindCall:      encodeCall,
		ast.KindNew:       encodeNew,
	}
	decoders = map[string]decodeFunc{
		ast.KindConstant.String(): decodeConstant,
		LabelParameter:            decodeParameterExpr,
		LabelParameterRef:         decodeParameterExpr,
		ast.KindLambda.String():   decodeLambda,
		ast.KindBlock.String():    decodeBlock,
		ast.KindLabel.String():    decodeLabel,
		ast.KindGoto.String():     decodeGoto,
		ast.KindDefault.String():  decodeDefault,
		ast.KindMember.String():   decodeMemberAccess,
		ast.KindCall.String():     decodeCall,
		ast.KindNew.String():      decodeNew,
	}
}

// Visitor converts between expression trees and document nodes.
type Visitor struct {
	codec *codec.Codec
	types *typeinfo.Registry
}

func New(c *codec.Codec) *Visitor {
	return &Visitor{codec: c, types: c.Types()}
}

func (v *Visitor) Codec() *codec.Codec {
	return v.codec
}

// encodeState holds the binder ids of one encode call.
type encodeState struct {
	*Visitor
	params    map[*ast.Parameter]string
	labels    map[*ast.LabelTarget]string
	nextParam int
	nextLabel int
}

func (v *Visitor) newEncodeState() *encodeState {
	return &encodeState{
		Visitor: v,
		params:  make(map[*ast.Parameter]string),
		labels:  make(map[*ast.LabelTarget]string),
	}
}

// decodeState holds the binders materialized during one decode call.
type decodeState struct {
	*Visitor
	params map[string]*ast.Parameter
	labels map[string]*ast.LabelTarget
}

func (v *Visitor) newDecodeState() *decodeState {
	return &decodeState{
		Visitor: v,
		params:  make(map[string]*ast.Parameter),
		labels:  make(map[string]*ast.LabelTarget),
	}
}

// EncodeDocument wraps the encoded expression in the versioned envelope.
func (v *Visitor) EncodeDocument(expr ast.Expr) (*document.Node, error) {
	body, err := v.newEncodeState().expr(expr, "$."+FieldExpression)
	if err != nil {
		return nil, err
	}
	return document.Map("",
		document.String(FieldSchema, SchemaURI),
		document.Map(FieldExpression, body),
	), nil
}

// DecodeDocument checks the envelope and decodes the expression it holds.
func (v *Visitor) DecodeDocument(root *document.Node) (ast.Expr, error) {
	schema, err := document.GetField[string](root, FieldSchema)
	if err != nil {
		return nil, err
	}
	if schema != SchemaURI {
		return nil, exprerr.NewUnsupportedSchemaError(root.Path()+"."+FieldSchema, schema)
	}
	body, err := root.SingleField(FieldExpression)
	if err != nil {
		return nil, err
	}
	return v.newDecodeState().expr(body)
}

// EncodeExpr encodes a bare expression node without the envelope.
func (v *Visitor) EncodeExpr(expr ast.Expr) (*document.Node, error) {
	return v.newEncodeState().expr(expr, "$")
}

// DecodeExpr decodes a bare expression node.
func (v *Visitor) DecodeExpr(n *document.Node) (ast.Expr, error) {
	return v.newDecodeState().expr(n)
}

func (s *encodeState) expr(e ast.Expr, path string) (*document.Node, error) {
	if isNil(e) {
		return nil, exprerr.NewInvalidValueError(path, "expression", "missing expression", exprerr.Encode)
	}
	enc, ok := encoders[e.Kind()]
	if !ok {
		return nil, exprerr.NewUnsupportedKindError(path, e.Kind().String(), exprerr.Encode)
	}
	return enc(s, e, path)
}

func (s *decodeState) expr(n *document.Node) (ast.Expr, error) {
	dec, ok := decoders[n.Name]
	if !ok {
		return nil, exprerr.NewUnknownLabelError(n.Path(), n.Name, exprerr.Decode)
	}
	return dec(s, n)
}

// field decodes the expression held by the map child name of n.
func (s *decodeState) field(n *document.Node, name string) (ast.Expr, error) {
	inner, err := n.SingleField(name)
	if err != nil {
		return nil, err
	}
	return s.expr(inner)
}

// optionalField is field for children that may be left out. A null child
// counts as absent.
func (s *decodeState) optionalField(n *document.Node, name string) (ast.Expr, error) {
	if n.Optional(name).IsAbsent() {
		return nil, nil
	}
	return s.field(n, name)
}

// list decodes every expression in the list child name of n.
func (s *decodeState) list(n *document.Node, name string) ([]ast.Expr, error) {
	items, err := n.Array(name)
	if err != nil {
		return nil, err
	}
	exprs := make([]ast.Expr, 0, len(items))
	for _, item := range items {
		e, err := s.expr(item)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (s *encodeState) list(name string, exprs []ast.Expr, path string) (*document.Node, error) {
	out := document.List(name)
	for i, e := range exprs {
		node, err := s.expr(e, path+"."+name+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		_ = out.Add(node)
	}
	return out, nil
}

// typeNode writes a type name field, "void" for a nil type.
func (s *encodeState) typeNode(field string, t reflect.Type, path string) (*document.Node, error) {
	name, err := s.codec.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	return document.String(field, name), nil
}

// unsupported reports an expression whose concrete type does not match its
// kind, as happens with foreign Expr implementations.
func unsupported(e ast.Expr, path string) error {
	return exprerr.NewUnsupportedKindError(path, fmt.Sprintf("%s (%T)", e.Kind(), e), exprerr.Encode)
}

// rejected turns a failed tree construction into a decode error at n.
func rejected(n *document.Node, err error) error {
	return exprerr.At(n.Path(), exprerr.Decode, fmt.Errorf("%w: %v", exprerr.ErrTypeMismatch, err))
}

func isNil(e ast.Expr) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
