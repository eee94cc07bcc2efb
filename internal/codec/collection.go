package codec

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"

	"github.com/samber/lo"

	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

var (
	byteType      = reflect.TypeOf(uint8(0))
	emptyStruct   = reflect.TypeOf(struct{}{})
	interfaceType = typeinfo.AnyType
)

func isBytes(_ *Codec, t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem() == byteType
}

func isSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == emptyStruct
}

func isDictionary(_ *Codec, t reflect.Type) bool {
	return (t.Kind() == reflect.Map && !isSet(t)) || t == syncMapType
}

func isSequence(_ *Codec, t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array || isSet(t)
}

func encodeBytes(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Slice && v.IsNil() {
		return document.Map(LabelBytes,
			document.String("type", typeName),
			document.Null("value"),
		), nil
	}
	raw := make([]byte, v.Len())
	reflect.Copy(reflect.ValueOf(raw), v)
	return document.Map(LabelBytes,
		document.String("type", typeName),
		document.Int("length", int64(len(raw))),
		document.String("value", base64.StdEncoding.EncodeToString(raw)),
	), nil
}

func decodeBytes(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if t == nil || !isBytes(c, t) {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "byte slice or array", typeString(t), exprerr.Decode)
	}
	value, err := n.Child("value")
	if err != nil {
		return reflect.Value{}, err
	}
	if value.IsNull() {
		if t.Kind() == reflect.Array {
			return reflect.Value{}, exprerr.NewShapeMismatchError(value.Path(), "string", "null", exprerr.Decode)
		}
		return reflect.Zero(t), nil
	}
	text, err := document.Get[string](value)
	if err != nil {
		return reflect.Value{}, err
	}
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return reflect.Value{}, exprerr.NewInvalidValueError(value.Path(), "bytes", err.Error(), exprerr.Decode)
	}
	if err := checkLength(n, "length", len(raw)); err != nil {
		return reflect.Value{}, err
	}

	if t.Kind() == reflect.Array {
		if len(raw) != t.Len() {
			return reflect.Value{}, exprerr.NewLengthMismatchError(value.Path(), t.Len(), len(raw))
		}
		out := reflect.New(t).Elem()
		reflect.Copy(out, reflect.ValueOf(raw))
		return out, nil
	}
	return reflect.ValueOf(raw).Convert(t), nil
}

// checkLength compares an optional length hint with the actual size.
func checkLength(n *document.Node, field string, actual int) error {
	hint := n.Optional(field)
	if hint.IsAbsent() {
		return nil
	}
	declared, err := document.Get[int64](hint.MustGet())
	if err != nil {
		return err
	}
	if declared != int64(actual) {
		return exprerr.NewLengthMismatchError(n.Path()+"."+field, int(declared), actual)
	}
	return nil
}

func encodeSequence(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	elem := t.Elem()
	if isSet(t) {
		elem = t.Key()
	}
	var hint *document.Node
	if c.opts.AddComments {
		hint = document.String("elementType", c.types.NameFor(elem))
	}
	if t.Kind() != reflect.Array && v.IsNil() {
		return document.Map(LabelSequence,
			document.String("type", typeName),
			hint,
			document.Null("items"),
		), nil
	}

	var values []reflect.Value
	if isSet(t) {
		values = sortedKeys(v.MapKeys())
	} else {
		values = make([]reflect.Value, v.Len())
		for i := range values {
			values[i] = v.Index(i)
		}
	}
	items := document.List("items")
	for i, item := range values {
		node, err := c.Encode(item, path+"."+LabelSequence+".items["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		_ = items.Add(node)
	}
	return document.Map(LabelSequence,
		document.String("type", typeName),
		document.Int("length", int64(len(values))),
		hint,
		items,
	), nil
}

// sequenceBuilder rebuilds a container of the declared kind item by item.
type sequenceBuilder interface {
	add(item reflect.Value, path string) error
	seal() reflect.Value
}

type sliceBuilder struct {
	v reflect.Value
}

func (b *sliceBuilder) add(item reflect.Value, _ string) error {
	b.v = reflect.Append(b.v, item)
	return nil
}

func (b *sliceBuilder) seal() reflect.Value { return b.v }

// arrayBuilder collects into a slice and copies into the fixed array on seal.
type arrayBuilder struct {
	t     reflect.Type
	items reflect.Value
}

func (b *arrayBuilder) add(item reflect.Value, _ string) error {
	b.items = reflect.Append(b.items, item)
	return nil
}

func (b *arrayBuilder) seal() reflect.Value {
	out := reflect.New(b.t).Elem()
	reflect.Copy(out, b.items)
	return out
}

type setBuilder struct {
	m reflect.Value
}

func (b *setBuilder) add(item reflect.Value, path string) error {
	if !hashable(item) {
		return exprerr.NewInvalidValueError(path, item.Type().String(), "set element is not comparable", exprerr.Decode)
	}
	if b.m.MapIndex(item).IsValid() {
		return exprerr.NewDuplicateEntryError(path, fmt.Sprint(item.Interface()))
	}
	b.m.SetMapIndex(item, reflect.Zero(emptyStruct))
	return nil
}

func (b *setBuilder) seal() reflect.Value { return b.m }

func newSequenceBuilder(t reflect.Type, size int) (sequenceBuilder, reflect.Type) {
	switch {
	case isSet(t):
		return &setBuilder{m: reflect.MakeMapWithSize(t, size)}, t.Key()
	case t.Kind() == reflect.Array:
		return &arrayBuilder{t: t, items: reflect.MakeSlice(reflect.SliceOf(t.Elem()), 0, size)}, t.Elem()
	default:
		return &sliceBuilder{v: reflect.MakeSlice(t, 0, size)}, t.Elem()
	}
}

func decodeSequence(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if t == nil || !isSequence(c, t) {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "slice, array or set", typeString(t), exprerr.Decode)
	}
	holder, err := n.Child("items")
	if err != nil {
		return reflect.Value{}, err
	}
	if holder.IsNull() {
		if t.Kind() == reflect.Array {
			return reflect.Value{}, exprerr.NewShapeMismatchError(holder.Path(), "list", "null", exprerr.Decode)
		}
		return reflect.Zero(t), nil
	}
	items, err := holder.Items()
	if err != nil {
		return reflect.Value{}, err
	}
	if err := checkLength(n, "length", len(items)); err != nil {
		return reflect.Value{}, err
	}
	if t.Kind() == reflect.Array && len(items) != t.Len() {
		return reflect.Value{}, exprerr.NewLengthMismatchError(holder.Path(), t.Len(), len(items))
	}

	builder, elem := newSequenceBuilder(t, len(items))
	for _, item := range items {
		decoded, err := c.Decode(item)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := assign(decoded, elem, item.Path())
		if err != nil {
			return reflect.Value{}, err
		}
		if err := builder.add(v, item.Path()); err != nil {
			return reflect.Value{}, err
		}
	}
	return builder.seal(), nil
}

type entry struct {
	key, value reflect.Value
}

func encodeDictionary(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}
	keyType, valueType := interfaceType, interfaceType
	if t.Kind() == reflect.Map {
		keyType, valueType = t.Key(), t.Elem()
	}
	var keyHint, valueHint *document.Node
	if c.opts.AddComments {
		keyHint = document.String("keyType", c.types.NameFor(keyType))
		valueHint = document.String("valueType", c.types.NameFor(valueType))
	}
	if v.IsNil() {
		return document.Map(LabelDictionary,
			document.String("type", typeName),
			keyHint,
			valueHint,
			document.Null("entries"),
		), nil
	}

	entries := collectEntries(v, t)
	list := document.List("entries")
	for i, e := range entries {
		at := path + "." + LabelDictionary + ".entries[" + strconv.Itoa(i) + "].entry"
		key, err := c.Encode(e.key, at+".key")
		if err != nil {
			return nil, err
		}
		value, err := c.Encode(e.value, at+".value")
		if err != nil {
			return nil, err
		}
		_ = list.Add(document.Map("entry",
			document.Map("key", key),
			document.Map("value", value),
		))
	}
	return document.Map(LabelDictionary,
		document.String("type", typeName),
		document.Int("count", int64(len(entries))),
		keyHint,
		valueHint,
		list,
	), nil
}

// collectEntries returns the entries of a map or *sync.Map in key order.
// sync.Map keys and values are returned as interface values.
func collectEntries(v reflect.Value, t reflect.Type) []entry {
	if t == syncMapType {
		var out []entry
		v.Interface().(*sync.Map).Range(func(k, val any) bool {
			out = append(out, entry{key: boxed(k), value: boxed(val)})
			return true
		})
		sort.SliceStable(out, func(i, j int) bool {
			return keyLess(out[i].key.Interface(), out[j].key.Interface())
		})
		return out
	}
	return lo.Map(sortedKeys(v.MapKeys()), func(k reflect.Value, _ int) entry {
		return entry{key: k, value: v.MapIndex(k)}
	})
}

func decodeDictionary(c *Codec, n *document.Node) (reflect.Value, error) {
	t, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if t == nil || !isDictionary(c, t) {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "map or *sync.Map", typeString(t), exprerr.Decode)
	}
	holder, err := n.Child("entries")
	if err != nil {
		return reflect.Value{}, err
	}
	if holder.IsNull() {
		return reflect.Zero(t), nil
	}
	items, err := holder.Items()
	if err != nil {
		return reflect.Value{}, err
	}
	if err := checkLength(n, "count", len(items)); err != nil {
		return reflect.Value{}, err
	}

	keyType, valueType := interfaceType, interfaceType
	if t.Kind() == reflect.Map {
		keyType, valueType = t.Key(), t.Elem()
	}
	var (
		out    reflect.Value
		stored *sync.Map
	)
	if t == syncMapType {
		stored = new(sync.Map)
		out = reflect.ValueOf(stored)
	} else {
		out = reflect.MakeMapWithSize(t, len(items))
	}

	for _, item := range items {
		if item.Name != "entry" {
			return reflect.Value{}, exprerr.NewUnknownLabelError(item.Path(), item.Name, exprerr.Decode)
		}
		key, err := decodeAs(c, item, "key", keyType)
		if err != nil {
			return reflect.Value{}, err
		}
		value, err := decodeAs(c, item, "value", valueType)
		if err != nil {
			return reflect.Value{}, err
		}
		if !hashable(key) {
			return reflect.Value{}, exprerr.NewInvalidValueError(item.Path()+".key", key.Type().String(), "dictionary key is not comparable", exprerr.Decode)
		}
		if stored != nil {
			if _, loaded := stored.LoadOrStore(key.Interface(), value.Interface()); loaded {
				return reflect.Value{}, exprerr.NewDuplicateEntryError(item.Path()+".key", fmt.Sprint(key.Interface()))
			}
			continue
		}
		if out.MapIndex(key).IsValid() {
			return reflect.Value{}, exprerr.NewDuplicateEntryError(item.Path()+".key", fmt.Sprint(key.Interface()))
		}
		out.SetMapIndex(key, value)
	}
	return out, nil
}

// decodeAs decodes the value held by the field of n and checks it against t.
func decodeAs(c *Codec, n *document.Node, field string, t reflect.Type) (reflect.Value, error) {
	inner, err := n.SingleField(field)
	if err != nil {
		return reflect.Value{}, err
	}
	decoded, err := c.Decode(inner)
	if err != nil {
		return reflect.Value{}, err
	}
	return assign(decoded, t, inner.Path())
}

// sortedKeys orders map keys so output is deterministic.
func sortedKeys(keys []reflect.Value) []reflect.Value {
	sort.SliceStable(keys, func(i, j int) bool {
		return keyLess(keys[i].Interface(), keys[j].Interface())
	})
	return keys
}

// keyLess orders keys by printed form, then dynamic type, then Go syntax, so
// keys such as 1 and "1" held in an interface still sort the same way.
func keyLess(a, b any) bool {
	if sa, sb := fmt.Sprint(a), fmt.Sprint(b); sa != sb {
		return sa < sb
	}
	if ta, tb := fmt.Sprintf("%T", a), fmt.Sprintf("%T", b); ta != tb {
		return ta < tb
	}
	return fmt.Sprintf("%#v", a) < fmt.Sprintf("%#v", b)
}

// boxed returns x as a value of the empty interface type.
func boxed(x any) reflect.Value {
	v := reflect.New(interfaceType).Elem()
	if x != nil {
		v.Set(reflect.ValueOf(x))
	}
	return v
}

func hashable(v reflect.Value) bool {
	return v.Comparable()
}
