package codec

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/types"
)

var (
	syncMapType = reflect.TypeOf((*sync.Map)(nil))
	tupleType   = reflect.TypeOf((*types.Tuple)(nil)).Elem()
)

func isEnum(c *Codec, t reflect.Type) bool {
	_, ok := c.types.Enum(t)
	return ok
}

func encodeEnum(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	e, _ := c.types.Enum(t)
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	return document.Map(LabelEnum,
		document.String("type", typeName),
		document.String("value", e.Format(e.Int(v))),
	), nil
}

func decodeEnum(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	e, ok := c.types.Enum(t)
	if !ok {
		return reflect.Value{}, exprerr.NewUnknownTypeError(n.Path(), t.String()+" is not a registered enum", exprerr.Decode)
	}
	s, err := document.GetField[string](n, "value")
	if err != nil {
		return reflect.Value{}, err
	}
	i, err := e.Parse(s)
	if err != nil {
		return reflect.Value{}, exprerr.At(n.Path()+".value", exprerr.Decode, err)
	}
	out := e.Value(i)
	if e.Int(out) != i {
		return reflect.Value{}, exprerr.NewNumericParseError(n.Path()+".value", s, t.String())
	}
	return out, nil
}

// isNullable matches pointers. *sync.Map is a dictionary, and pointers with a
// primitive form were taken earlier.
func isNullable(_ *Codec, t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t != syncMapType
}

func encodeNullable(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	if v.IsNil() {
		return document.Map(LabelNullable,
			document.String("type", typeName),
			document.Null("value"),
		), nil
	}
	inner, err := c.Encode(v.Elem(), path+"."+LabelNullable+".value")
	if err != nil {
		return nil, err
	}
	return document.Map(LabelNullable,
		document.String("type", typeName),
		document.Map("value", inner),
	), nil
}

func decodeNullable(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if t == nil || t.Kind() != reflect.Pointer {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "pointer type", typeString(t), exprerr.Decode)
	}
	value, err := n.Child("value")
	if err != nil {
		return reflect.Value{}, err
	}
	if value.IsNull() {
		return reflect.Zero(t), nil
	}
	inner, err := value.Single()
	if err != nil {
		return reflect.Value{}, err
	}
	decoded, err := c.Decode(inner)
	if err != nil {
		return reflect.Value{}, err
	}
	elem, err := assign(decoded, t.Elem(), inner.Path())
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(t.Elem())
	ptr.Elem().Set(elem)
	return ptr, nil
}

// isRecord matches unnamed struct types with at least one field.
func isRecord(_ *Codec, t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Name() == "" && t.NumField() > 0
}

func encodeRecord(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); !f.IsExported() {
			return nil, exprerr.NewUnsupportedTypeError(path, t.String(), "field '"+f.Name+"' is unexported", exprerr.Encode)
		}
	}
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	fields := document.Map("fields")
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label := c.opts.Identifiers.Apply(f.Name)
		value, err := c.Encode(v.Field(i), path+"."+LabelRecord+".fields."+label)
		if err != nil {
			return nil, err
		}
		if err := fields.Add(document.Map(label, value)); err != nil {
			return nil, exprerr.NewDuplicateLabelError(path, label)
		}
	}
	return document.Map(LabelRecord,
		document.String("type", typeName),
		fields,
	), nil
}

func decodeRecord(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if t == nil || t.Kind() != reflect.Struct {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "struct type", typeString(t), exprerr.Decode)
	}
	fields, err := n.Child("fields")
	if err != nil {
		return reflect.Value{}, err
	}
	if fields.Kind() != document.KindMap {
		return reflect.Value{}, exprerr.NewShapeMismatchError(fields.Path(), "map", fields.Kind().String(), exprerr.Decode)
	}

	out := reflect.New(t).Elem()
	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label := c.opts.Identifiers.Apply(f.Name)
		known[label] = true
		holder, ok := fields.Lookup(label)
		if !ok {
			// documents written with the other convention still read
			if holder, ok = fields.Lookup(f.Name); !ok {
				return reflect.Value{}, exprerr.NewMissingFieldError(fields.Path(), label, exprerr.Decode)
			}
			known[f.Name] = true
		}
		inner, err := holder.Single()
		if err != nil {
			return reflect.Value{}, err
		}
		decoded, err := c.Decode(inner)
		if err != nil {
			return reflect.Value{}, err
		}
		fv, err := assign(decoded, f.Type, inner.Path())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(i).Set(fv)
	}
	for _, child := range fields.Children() {
		if !known[child.Name] {
			return reflect.Value{}, exprerr.NewUnknownLabelError(child.Path(), child.Name, exprerr.Decode)
		}
	}
	return out, nil
}

// isTuple matches the product types of the types package.
func isTuple(_ *Codec, t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(tupleType)
}

func encodeTuple(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	items := document.List("items")
	for i := 0; i < t.NumField(); i++ {
		item, err := c.Encode(v.Field(i), path+"."+LabelTuple+".items["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		_ = items.Add(item)
	}
	return document.Map(LabelTuple,
		document.String("type", typeName),
		items,
	), nil
}

func decodeTuple(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if t == nil || !isTuple(c, t) {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "tuple type", typeString(t), exprerr.Decode)
	}
	items, err := n.Array("items")
	if err != nil {
		return reflect.Value{}, err
	}
	if len(items) != t.NumField() {
		return reflect.Value{}, exprerr.NewLengthMismatchError(n.Path()+".items", t.NumField(), len(items))
	}
	out := reflect.New(t).Elem()
	for i, item := range items {
		decoded, err := c.Decode(item)
		if err != nil {
			return reflect.Value{}, err
		}
		fv, err := assign(decoded, t.Field(i).Type, item.Path())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(i).Set(fv)
	}
	return out, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}
