// Package codec converts typed Go values to document nodes and back.
//
// Encoding dispatches on the declared type through a fixed, ordered list of
// categories. Decoding dispatches on the node label through a table that
// mirrors it. Both tables are built once and never modified.
package codec

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/serialization"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

// Category labels. Primitive values are labelled with their canonical type
// name instead.
const (
	LabelEnum       = "enum"
	LabelNullable   = "nullable"
	LabelRecord     = "record"
	LabelBytes      = "bytes"
	LabelDictionary = "dictionary"
	LabelSequence   = "sequence"
	LabelTuple      = "tuple"
	LabelObject     = "object"
)

// IdentifierConvention controls how record field names are written.
type IdentifierConvention uint8

const (
	AsIs IdentifierConvention = iota
	CamelCase
)

func (c IdentifierConvention) String() string {
	if c == CamelCase {
		return "camelCase"
	}
	return "asIs"
}

// ParseIdentifierConvention accepts "asIs" and "camelCase" in any case.
func ParseIdentifierConvention(s string) (IdentifierConvention, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asis", "as-is", "":
		return AsIs, true
	case "camelcase", "camel":
		return CamelCase, true
	default:
		return AsIs, false
	}
}

// Apply spells a Go field name under the convention.
func (c IdentifierConvention) Apply(name string) string {
	if c != CamelCase || name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

type Options struct {
	// AddComments writes element, key and value type hints that decoding ignores.
	AddComments bool
	Identifiers IdentifierConvention
	// Format is the payload format of opaque objects.
	Format serialization.SerializerType
}

// Codec encodes and decodes values against a type registry. It holds no
// per-call state and is safe for concurrent use.
type Codec struct {
	types      *typeinfo.Registry
	opts       Options
	serializer serialization.Serializer
}

func New(types *typeinfo.Registry, opts Options) *Codec {
	if !opts.Format.IsValid() {
		opts.Format = serialization.JSON
	}
	return &Codec{
		types:      types,
		opts:       opts,
		serializer: opts.Format.CreateSerializer(),
	}
}

func (c *Codec) Types() *typeinfo.Registry {
	return c.types
}

type encodeFunc func(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error)

type decodeFunc func(c *Codec, n *document.Node) (reflect.Value, error)

// category is one entry of the encoder's ordered predicate list.
type category struct {
	name   string
	match  func(c *Codec, t reflect.Type) bool
	encode encodeFunc
}

var (
	categories []category
	decoders   map[string]decodeFunc
)

func init() {
	registerPrimitives()

	categories = []category{
		{"primitive", isPrimitive, encodePrimitive},
		{LabelEnum, isEnum, encodeEnum},
		{LabelNullable, isNullable, encodeNullable},
		{LabelRecord, isRecord, encodeRecord},
		{LabelBytes, isBytes, encodeBytes},
		{LabelDictionary, isDictionary, encodeDictionary},
		{LabelSequence, isSequence, encodeSequence},
		{LabelTuple, isTuple, encodeTuple},
		{LabelObject, func(*Codec, reflect.Type) bool { return true }, encodeObject},
	}

	decoders = map[string]decodeFunc{
		LabelEnum:       decodeEnum,
		LabelNullable:   decodeNullable,
		LabelRecord:     decodeRecord,
		LabelBytes:      decodeBytes,
		LabelDictionary: decodeDictionary,
		LabelSequence:   decodeSequence,
		LabelTuple:      decodeTuple,
		LabelObject:     decodeObject,
	}
	for label := range primitiveByLabel {
		decoders[label] = decodePrimitive
	}
}

// Encode turns v into a value node. The declared type is v.Type(), so an
// interface-typed v keeps its interface as the declared type.
func (c *Codec) Encode(v reflect.Value, path string) (*document.Node, error) {
	if !v.IsValid() {
		return nil, exprerr.NewInvalidValueError(path, typeinfo.VoidName, "no value to encode", exprerr.Encode)
	}
	t := v.Type()
	for _, cat := range categories {
		if cat.match(c, t) {
			return cat.encode(c, v, t, path)
		}
	}
	return nil, exprerr.NewUnsupportedTypeError(path, t.String(), "", exprerr.Encode)
}

// EncodeAs encodes x as a value of declared type t.
func (c *Codec) EncodeAs(x any, t reflect.Type, path string) (*document.Node, error) {
	if t == nil {
		return nil, exprerr.NewInvalidValueError(path, typeinfo.VoidName, "no value to encode", exprerr.Encode)
	}
	v, err := valueOf(x, t)
	if err != nil {
		return nil, exprerr.At(path, exprerr.Encode, err)
	}
	return c.Encode(v, path)
}

// Decode turns a value node back into a value whose type is the declared type
// recorded in the node.
func (c *Codec) Decode(n *document.Node) (reflect.Value, error) {
	dec, ok := decoders[n.Name]
	if !ok {
		return reflect.Value{}, exprerr.NewUnknownLabelError(n.Path(), n.Name, exprerr.Decode)
	}
	return dec(c, n)
}

// DecodeField decodes the single value node held by the map child name of n.
func (c *Codec) DecodeField(n *document.Node, name string) (reflect.Value, error) {
	child, err := n.SingleField(name)
	if err != nil {
		return reflect.Value{}, err
	}
	return c.Decode(child)
}

// TypeName spells t for the wire and checks the name resolves again, so a
// document that could not be read back is never produced.
func (c *Codec) TypeName(t reflect.Type, path string) (string, error) {
	name := c.types.NameFor(t)
	if _, err := c.types.TypeFor(name); err != nil {
		return "", exprerr.At(path, exprerr.Encode, err)
	}
	return name, nil
}

// TypeField resolves the type name stored in the string child field of n.
func (c *Codec) TypeField(n *document.Node, field string) (reflect.Type, error) {
	child, err := n.Child(field)
	if err != nil {
		return nil, err
	}
	name, err := document.Get[string](child)
	if err != nil {
		return nil, err
	}
	t, err := c.types.TypeFor(name)
	if err != nil {
		return nil, exprerr.At(child.Path(), exprerr.Decode, err)
	}
	return t, nil
}

// valueOf wraps x in a value of type t.
func valueOf(x any, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	if x == nil {
		return v, nil
	}
	xv := reflect.ValueOf(x)
	if !xv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: expected %s, got %s", exprerr.ErrTypeMismatch, t, xv.Type())
	}
	v.Set(xv)
	return v, nil
}

// assign converts decoded into a value of type t, failing when the types are
// not assignment compatible.
func assign(decoded reflect.Value, t reflect.Type, path string) (reflect.Value, error) {
	if decoded.Type() == t {
		return decoded, nil
	}
	if !decoded.Type().AssignableTo(t) {
		return reflect.Value{}, exprerr.NewTypeMismatchError(path, t.String(), decoded.Type().String(), exprerr.Decode)
	}
	out := reflect.New(t).Elem()
	out.Set(decoded)
	return out, nil
}
