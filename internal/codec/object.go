package codec

import (
	"reflect"

	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/serialization"
)

// encodeObject writes values no other category claims. The payload is the
// value serialized in the configured format; the declared type and, when it
// differs, the concrete type are recorded next to it.
func encodeObject(c *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	switch t.Kind() {
	case reflect.Func:
		if !v.IsNil() {
			return nil, exprerr.NewUnsupportedTypeError(path, t.String(), "function values cannot be serialized", exprerr.Encode)
		}
	case reflect.Chan, reflect.UnsafePointer:
		return nil, exprerr.NewUnsupportedTypeError(path, t.String(), "", exprerr.Encode)
	}
	typeName, err := c.TypeName(t, path)
	if err != nil {
		return nil, err
	}

	concrete, payloadValue := t, v
	if t.Kind() == reflect.Interface || t.Kind() == reflect.Func {
		if v.IsNil() {
			return document.Map(LabelObject, document.String("type", typeName)), nil
		}
		payloadValue = v.Elem()
		concrete = payloadValue.Type()
	}

	var concreteNode *document.Node
	if concrete != t {
		concreteName, err := c.TypeName(concrete, path)
		if err != nil {
			return nil, err
		}
		concreteNode = document.String("concreteType", concreteName)
	}
	if concrete.Kind() == reflect.Struct && concrete.NumField() == 0 {
		return document.Map(LabelObject,
			document.String("type", typeName),
			concreteNode,
		), nil
	}

	payload, err := c.serializer.Serialize(payloadValue.Interface())
	if err != nil {
		return nil, exprerr.NewUnsupportedTypeError(path, typeName, err.Error(), exprerr.Encode)
	}
	return document.Map(LabelObject,
		document.String("type", typeName),
		concreteNode,
		document.String("format", c.opts.Format.String()),
		document.String("payload", c.opts.Format.EncodeText(payload)),
	), nil
}

func decodeObject(c *Codec, n *document.Node) (reflect.Value, error) {
	declared, err := c.TypeField(n, "type")
	if err != nil {
		return reflect.Value{}, err
	}
	if declared == nil {
		return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".type", "value type", "void", exprerr.Decode)
	}

	concrete := declared
	if _, ok := n.Lookup("concreteType"); ok {
		if concrete, err = c.TypeField(n, "concreteType"); err != nil {
			return reflect.Value{}, err
		}
		if concrete == nil || !concrete.AssignableTo(declared) {
			return reflect.Value{}, exprerr.NewTypeMismatchError(n.Path()+".concreteType", declared.String(), typeString(concrete), exprerr.Decode)
		}
	}

	holder := n.Optional("payload")
	if holder.IsAbsent() {
		if concrete.Kind() == reflect.Struct && concrete.NumField() == 0 {
			return assign(reflect.New(concrete).Elem(), declared, n.Path())
		}
		if concrete == declared && (declared.Kind() == reflect.Interface || declared.Kind() == reflect.Func) {
			return reflect.Zero(declared), nil
		}
		return reflect.Value{}, exprerr.NewMissingFieldError(n.Path(), "payload", exprerr.Decode)
	}

	format := serialization.JSON
	if f, err := document.GetOptional[string](n, "format"); err != nil {
		return reflect.Value{}, err
	} else if f.IsPresent() {
		if format, err = serialization.ParseSerializerType(f.MustGet()); err != nil {
			return reflect.Value{}, exprerr.NewInvalidValueError(n.Path()+".format", "format", err.Error(), exprerr.Decode)
		}
	}
	text, err := document.Get[string](holder.MustGet())
	if err != nil {
		return reflect.Value{}, err
	}
	raw, err := format.DecodeText(text)
	if err != nil {
		return reflect.Value{}, exprerr.NewInvalidValueError(n.Path()+".payload", concrete.String(), err.Error(), exprerr.Decode)
	}

	if concrete.Kind() == reflect.Interface {
		return reflect.Value{}, exprerr.NewUnsupportedTypeError(n.Path(), concrete.String(), "payload needs a concrete type", exprerr.Decode)
	}
	target := reflect.New(concrete)
	if err := format.CreateSerializer().Deserialize(raw, target.Interface()); err != nil {
		return reflect.Value{}, exprerr.NewInvalidValueError(n.Path()+".payload", concrete.String(), err.Error(), exprerr.Decode)
	}
	return assign(target.Elem(), declared, n.Path())
}
