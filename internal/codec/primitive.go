package codec

import (
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/typeinfo"
	"github.com/hengadev/exprjson/types"
)

// primitive is a bespoke literal form for one exact type. The node label is
// the canonical type name.
type primitive struct {
	label  string
	typ    reflect.Type
	encode func(label string, v reflect.Value) (*document.Node, error)
	// decode returns a value of typ
	decode func(n *document.Node) (reflect.Value, error)
}

var (
	primitiveByType  = map[reflect.Type]primitive{}
	primitiveByLabel = map[string]primitive{}
)

// decimalPrec is the mantissa precision of decimals written without one.
const decimalPrec = 64

// Years outside this range have no RFC 3339 form.
const (
	minYear = 0
	maxYear = 9999
)

// registerPrimitives fills the primitive tables. It runs before the dispatch
// tables are built.
func registerPrimitives() {
	add := func(sample any, encode func(string, reflect.Value) (*document.Node, error), decode func(*document.Node) (reflect.Value, error)) {
		t := reflect.TypeOf(sample)
		label, ok := typeinfo.CanonicalName(t)
		if !ok {
			panic(fmt.Sprintf("codec: %s has no canonical name", t))
		}
		p := primitive{label: label, typ: t, encode: encode, decode: decode}
		primitiveByType[t] = p
		primitiveByLabel[label] = p
	}

	add(false,
		func(l string, v reflect.Value) (*document.Node, error) { return document.Bool(l, v.Bool()), nil },
		func(n *document.Node) (reflect.Value, error) {
			b, err := document.Get[bool](n)
			return reflect.ValueOf(b), err
		})

	for _, sample := range []any{int8(0), int16(0), int32(0), int64(0), int(0)} {
		t := reflect.TypeOf(sample)
		add(sample,
			func(l string, v reflect.Value) (*document.Node, error) { return intNode(l, v.Int()), nil },
			func(n *document.Node) (reflect.Value, error) {
				i, err := document.Get[int64](n)
				if err != nil {
					return reflect.Value{}, err
				}
				out := reflect.New(t).Elem()
				if out.OverflowInt(i) {
					return reflect.Value{}, exprerr.NewNumericParseError(n.Path(), n.Literal(), t.String())
				}
				out.SetInt(i)
				return out, nil
			})
	}

	for _, sample := range []any{uint8(0), uint16(0), uint32(0), uint64(0), uint(0), uintptr(0)} {
		t := reflect.TypeOf(sample)
		add(sample,
			func(l string, v reflect.Value) (*document.Node, error) { return uintNode(l, v.Uint()), nil },
			func(n *document.Node) (reflect.Value, error) {
				u, err := document.Get[uint64](n)
				if err != nil {
					return reflect.Value{}, err
				}
				out := reflect.New(t).Elem()
				if out.OverflowUint(u) {
					return reflect.Value{}, exprerr.NewNumericParseError(n.Path(), n.Literal(), t.String())
				}
				out.SetUint(u)
				return out, nil
			})
	}

	for _, sample := range []any{float32(0), float64(0)} {
		t := reflect.TypeOf(sample)
		bitSize := t.Bits()
		add(sample,
			func(l string, v reflect.Value) (*document.Node, error) { return floatNode(l, v.Float(), bitSize), nil },
			func(n *document.Node) (reflect.Value, error) {
				f, err := parseFloatLiteral(n, bitSize)
				if err != nil {
					return reflect.Value{}, exprerr.NewNumericParseError(n.Path(), n.Literal(), t.String())
				}
				out := reflect.New(t).Elem()
				out.SetFloat(f)
				return out, nil
			})
	}

	add("",
		func(l string, v reflect.Value) (*document.Node, error) {
			if !utf8.ValidString(v.String()) {
				return nil, fmt.Errorf("%q is not valid UTF-8", v.String())
			}
			return document.String(l, v.String()), nil
		},
		func(n *document.Node) (reflect.Value, error) {
			s, err := document.Get[string](n)
			return reflect.ValueOf(s), err
		})

	add(time.Time{},
		func(l string, v reflect.Value) (*document.Node, error) {
			ts := v.Interface().(time.Time)
			if y := ts.Year(); y < minYear || y > maxYear {
				return nil, fmt.Errorf("year %d is outside [%d, %d]", y, minYear, maxYear)
			}
			return document.String(l, ts.Format(time.RFC3339Nano)), nil
		},
		func(n *document.Node) (reflect.Value, error) {
			s, err := document.Get[string](n)
			if err != nil {
				return reflect.Value{}, err
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return reflect.Value{}, exprerr.NewInvalidValueError(n.Path(), "time", err.Error(), exprerr.Decode)
			}
			return reflect.ValueOf(ts), nil
		})

	add(time.Duration(0),
		func(l string, v reflect.Value) (*document.Node, error) {
			return document.String(l, formatDuration(time.Duration(v.Int()))), nil
		},
		func(n *document.Node) (reflect.Value, error) {
			s, err := document.Get[string](n)
			if err != nil {
				return reflect.Value{}, err
			}
			d, err := parseDuration(s)
			if err != nil {
				return reflect.Value{}, exprerr.NewNumericParseError(n.Path(), s, "duration")
			}
			return reflect.ValueOf(d), nil
		})

	add((*big.Float)(nil),
		func(l string, v reflect.Value) (*document.Node, error) {
			if v.IsNil() {
				return document.Null(l), nil
			}
			f := v.Interface().(*big.Float)
			text := f.Text('g', -1)
			if f.IsInf() {
				text = TokenPosInf
				if f.Sign() < 0 {
					text = TokenNegInf
				}
			}
			prec := f.Prec()
			if prec == 0 {
				prec = decimalPrec
			}
			return document.Map(l,
				document.String("value", text),
				document.Uint("precision", uint64(prec)),
			), nil
		},
		decodeDecimal)

	add(uuid.UUID{},
		func(l string, v reflect.Value) (*document.Node, error) {
			return document.String(l, v.Interface().(uuid.UUID).String()), nil
		},
		func(n *document.Node) (reflect.Value, error) {
			s, err := document.Get[string](n)
			if err != nil {
				return reflect.Value{}, err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return reflect.Value{}, exprerr.NewInvalidValueError(n.Path(), "uuid", err.Error(), exprerr.Decode)
			}
			return reflect.ValueOf(id), nil
		})

	add((*url.URL)(nil),
		func(l string, v reflect.Value) (*document.Node, error) {
			if v.IsNil() {
				return document.Null(l), nil
			}
			return document.String(l, v.Interface().(*url.URL).String()), nil
		},
		func(n *document.Node) (reflect.Value, error) {
			if n.IsNull() {
				return reflect.ValueOf((*url.URL)(nil)), nil
			}
			s, err := document.Get[string](n)
			if err != nil {
				return reflect.Value{}, err
			}
			u, err := url.Parse(s)
			if err != nil {
				return reflect.Value{}, exprerr.NewInvalidValueError(n.Path(), "uri", err.Error(), exprerr.Decode)
			}
			return reflect.ValueOf(u), nil
		})

	add(types.Char(0),
		func(l string, v reflect.Value) (*document.Node, error) {
			r := rune(v.Int())
			if !utf8.ValidRune(r) {
				return nil, fmt.Errorf("invalid char %d", r)
			}
			return document.String(l, string(r)), nil
		},
		func(n *document.Node) (reflect.Value, error) {
			s, err := document.Get[string](n)
			if err != nil {
				return reflect.Value{}, err
			}
			r, size := utf8.DecodeRuneInString(s)
			if (r == utf8.RuneError && size == 1) || size != len(s) {
				return reflect.Value{}, exprerr.NewInvalidValueError(n.Path(), "char", strconv.Quote(s)+" is not a single character", exprerr.Decode)
			}
			return reflect.ValueOf(types.Char(r)), nil
		})

	add(types.Null{},
		func(l string, _ reflect.Value) (*document.Node, error) { return document.Null(l), nil },
		func(n *document.Node) (reflect.Value, error) {
			if !n.IsNull() {
				return reflect.Value{}, exprerr.NewShapeMismatchError(n.Path(), "null", n.Kind().String(), exprerr.Decode)
			}
			return reflect.ValueOf(types.Null{}), nil
		})
}

// decodeDecimal reads {"value": text, "precision": bits}. A bare string is
// read at decimalPrec. The shortest text written for a value parses back to
// the same value only at the precision it was written with.
func decodeDecimal(n *document.Node) (reflect.Value, error) {
	if n.IsNull() {
		return reflect.ValueOf((*big.Float)(nil)), nil
	}
	text, prec := "", uint64(decimalPrec)
	if n.Kind() == document.KindString {
		text = n.Literal()
	} else {
		var err error
		if text, err = document.GetField[string](n, "value"); err != nil {
			return reflect.Value{}, err
		}
		p, err := document.GetOptional[uint64](n, "precision")
		if err != nil {
			return reflect.Value{}, err
		}
		prec = p.OrElse(decimalPrec)
		if prec == 0 || prec > big.MaxPrec {
			return reflect.Value{}, exprerr.NewInvalidValueError(n.Path()+".precision", "decimal", "precision "+strconv.FormatUint(prec, 10)+" is out of range", exprerr.Decode)
		}
	}

	switch text {
	case TokenPosInf:
		return reflect.ValueOf(new(big.Float).SetPrec(uint(prec)).SetInf(false)), nil
	case TokenNegInf:
		return reflect.ValueOf(new(big.Float).SetPrec(uint(prec)).SetInf(true)), nil
	}
	f, _, err := big.ParseFloat(text, 10, uint(prec), big.ToNearestEven)
	if err != nil {
		return reflect.Value{}, exprerr.NewNumericParseError(n.Path(), text, "decimal")
	}
	return reflect.ValueOf(f), nil
}

func isPrimitive(_ *Codec, t reflect.Type) bool {
	_, ok := primitiveByType[t]
	return ok
}

func encodePrimitive(_ *Codec, v reflect.Value, t reflect.Type, path string) (*document.Node, error) {
	p := primitiveByType[t]
	n, err := p.encode(p.label, v)
	if err != nil {
		return nil, exprerr.NewInvalidValueError(path, p.label, err.Error(), exprerr.Encode)
	}
	return n, nil
}

func decodePrimitive(_ *Codec, n *document.Node) (reflect.Value, error) {
	return primitiveByLabel[n.Name].decode(n)
}
