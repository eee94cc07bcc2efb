package typeinfo

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// typeParser reads the composite type grammar produced by composite:
//
//	*T  []T  [N]T  map[K]V  struct{Name T "tag"; ...}  func(T, ...U) (R, S)
//
// Named types are resolved through lookup.
type typeParser struct {
	src    string
	pos    int
	lookup func(name string) (reflect.Type, bool)
}

func (p *typeParser) parse() (t reflect.Type, err error) {
	defer func() {
		// reflect's constructors panic on invalid input such as unexported
		// struct fields or incomparable map keys.
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("invalid type '%s': %v", p.src, r)
		}
	}()
	t, err = p.parseType()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected '%s'", p.src[p.pos:])
	}
	return t, nil
}

func (p *typeParser) parseType() (reflect.Type, error) {
	switch {
	case p.consume("*"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case p.consume("[]"):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case p.consume("map["):
		key, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if !p.consume("]") {
			return nil, p.errorf("expected ']' after map key")
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, p.errorf("map key %s is not comparable", key)
		}
		return reflect.MapOf(key, elem), nil
	case p.consume("["):
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil || !p.consume("]") {
			return nil, p.errorf("invalid array length")
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil
	case p.consume("interface {}"):
		return AnyType, nil
	case p.consume("struct {}"):
		return ObjectType, nil
	case p.consume("struct{"):
		return p.parseStruct()
	case p.consume("func("):
		return p.parseFunc()
	default:
		return p.resolve(p.readName())
	}
}

func (p *typeParser) parseStruct() (reflect.Type, error) {
	var fields []reflect.StructField
	for !p.consume("}") {
		if len(fields) > 0 && !p.consume("; ") {
			return nil, p.errorf("expected ';' between struct fields")
		}
		name := p.readIdent()
		if name == "" || !p.consume(" ") {
			return nil, p.errorf("expected field name")
		}
		ft, err := p.parseType()
		if err != nil {
			return nil, err
		}
		field := reflect.StructField{Name: name, Type: ft}
		if p.consume(" ") {
			quoted, err := strconv.QuotedPrefix(p.src[p.pos:])
			if err != nil {
				return nil, p.errorf("invalid struct tag")
			}
			p.pos += len(quoted)
			tag, _ := strconv.Unquote(quoted)
			field.Tag = reflect.StructTag(tag)
		}
		fields = append(fields, field)
	}
	return reflect.StructOf(fields), nil
}

func (p *typeParser) parseFunc() (reflect.Type, error) {
	var in []reflect.Type
	variadic := false
	for !p.consume(")") {
		if len(in) > 0 && !p.consume(", ") {
			return nil, p.errorf("expected ',' between parameters")
		}
		if variadic {
			return nil, p.errorf("variadic parameter must be last")
		}
		if p.consume("...") {
			variadic = true
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			in = append(in, reflect.SliceOf(elem))
			continue
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		in = append(in, t)
	}

	var out []reflect.Type
	switch {
	case p.consume(" ("):
		for !p.consume(")") {
			if len(out) > 0 && !p.consume(", ") {
				return nil, p.errorf("expected ',' between results")
			}
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	case strings.HasPrefix(p.src[p.pos:], " ") && !strings.HasPrefix(p.src[p.pos:], ` "`):
		p.pos++
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return reflect.FuncOf(in, out, variadic), nil
}

func (p *typeParser) resolve(name string) (reflect.Type, error) {
	if name == "" {
		return nil, p.errorf("expected a type name")
	}
	t, ok := p.lookup(name)
	if !ok {
		return nil, fmt.Errorf("'%s'", name)
	}
	return t, nil
}

// readName reads a possibly qualified, possibly instantiated type name such as
// github.com/x/y.Pair[int,string].
func (p *typeParser) readName() string {
	start, depth := p.pos, 0
	for ; p.pos < len(p.src); p.pos++ {
		c := p.src[p.pos]
		if c == '[' {
			depth++
			continue
		}
		if depth > 0 {
			if c == ']' {
				depth--
			}
			continue
		}
		if strings.IndexByte(",;]}() \"", c) >= 0 {
			break
		}
	}
	return p.src[start:p.pos]
}

func (p *typeParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func (p *typeParser) consume(prefix string) bool {
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type '%s' at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}
