// Package typeinfo maps Go types to the names written on the wire and back,
// and resolves member descriptors against registered types.
package typeinfo

import (
	"math/big"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hengadev/exprjson/types"
)

// Convention selects how NameFor spells types that have a package path.
type Convention uint8

const (
	// ShortNames prefers the canonical short name when one exists.
	ShortNames Convention = iota
	// FullNames spells every package type as importpath.Name.
	FullNames
)

func (c Convention) String() string {
	if c == FullNames {
		return "full"
	}
	return "short"
}

// ParseConvention accepts "short" and "full".
func ParseConvention(s string) (Convention, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "":
		return ShortNames, true
	case "full":
		return FullNames, true
	default:
		return ShortNames, false
	}
}

var (
	AnyType    = reflect.TypeOf((*any)(nil)).Elem()
	ErrorType  = reflect.TypeOf((*error)(nil)).Elem()
	ObjectType = reflect.TypeOf(struct{}{})
)

// VoidName is written for expressions that produce no value.
const VoidName = "void"

var canonical = []struct {
	name string
	typ  reflect.Type
}{
	{"bool", reflect.TypeOf(false)},
	{"int8", reflect.TypeOf(int8(0))},
	{"int16", reflect.TypeOf(int16(0))},
	{"int32", reflect.TypeOf(int32(0))},
	{"int64", reflect.TypeOf(int64(0))},
	{"uint8", reflect.TypeOf(uint8(0))},
	{"uint16", reflect.TypeOf(uint16(0))},
	{"uint32", reflect.TypeOf(uint32(0))},
	{"uint64", reflect.TypeOf(uint64(0))},
	{"int", reflect.TypeOf(0)},
	{"uint", reflect.TypeOf(uint(0))},
	{"uintptr", reflect.TypeOf(uintptr(0))},
	{"float32", reflect.TypeOf(float32(0))},
	{"float64", reflect.TypeOf(float64(0))},
	{"string", reflect.TypeOf("")},
	{"any", AnyType},
	{"error", ErrorType},
	{"time", reflect.TypeOf(time.Time{})},
	{"duration", reflect.TypeOf(time.Duration(0))},
	{"decimal", reflect.TypeOf((*big.Float)(nil))},
	{"uuid", reflect.TypeOf(uuid.UUID{})},
	{"uri", reflect.TypeOf((*url.URL)(nil))},
	{"char", reflect.TypeOf(types.Char(0))},
	{"null", reflect.TypeOf(types.Null{})},
	{"object", ObjectType},
}

var (
	canonicalByName map[string]reflect.Type
	canonicalByType map[reflect.Type]string
	// wellKnown holds the package types every registry starts with.
	wellKnown []reflect.Type
)

func init() {
	canonicalByName = make(map[string]reflect.Type, len(canonical)+4)
	canonicalByType = make(map[reflect.Type]string, len(canonical))
	for _, c := range canonical {
		canonicalByName[c.name] = c.typ
		canonicalByType[c.typ] = c.name
	}
	// accepted on decode only
	canonicalByName["byte"] = reflect.TypeOf(byte(0))
	canonicalByName["rune"] = reflect.TypeOf(rune(0))
	canonicalByName["interface {}"] = AnyType
	canonicalByName["struct {}"] = ObjectType

	wellKnown = []reflect.Type{
		reflect.TypeOf(time.Time{}),
		reflect.TypeOf(time.Duration(0)),
		reflect.TypeOf(big.Float{}),
		reflect.TypeOf(url.URL{}),
		reflect.TypeOf(uuid.UUID{}),
		reflect.TypeOf(types.Char(0)),
		reflect.TypeOf(types.Null{}),
		reflect.TypeOf(sync.Map{}),
	}
}

// CanonicalName returns the short wire name of t, if it has one.
func CanonicalName(t reflect.Type) (string, bool) {
	if t == nil {
		return VoidName, true
	}
	name, ok := canonicalByType[t]
	return name, ok
}

// FullName spells a named type with its import path. Predeclared types keep
// their plain name.
func FullName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// composite spells an unnamed type, using named for its element types.
func composite(t reflect.Type, named func(reflect.Type) string) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + named(t.Elem())
	case reflect.Slice:
		return "[]" + named(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + named(t.Elem())
	case reflect.Map:
		return "map[" + named(t.Key()) + "]" + named(t.Elem())
	case reflect.Struct:
		if t.NumField() == 0 {
			return "object"
		}
		var b strings.Builder
		b.WriteString("struct{")
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.Name)
			b.WriteByte(' ')
			b.WriteString(named(f.Type))
			if f.Tag != "" {
				b.WriteByte(' ')
				b.WriteString(strconv.Quote(string(f.Tag)))
			}
		}
		b.WriteByte('}')
		return b.String()
	case reflect.Func:
		var b strings.Builder
		b.WriteString("func(")
		for i := 0; i < t.NumIn(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if t.IsVariadic() && i == t.NumIn()-1 {
				b.WriteString("..." + named(t.In(i).Elem()))
				continue
			}
			b.WriteString(named(t.In(i)))
		}
		b.WriteByte(')')
		switch t.NumOut() {
		case 0:
		case 1:
			b.WriteString(" " + named(t.Out(0)))
		default:
			b.WriteString(" (")
			for i := 0; i < t.NumOut(); i++ {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(named(t.Out(i)))
			}
			b.WriteByte(')')
		}
		return b.String()
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any"
		}
	}
	return t.String()
}
