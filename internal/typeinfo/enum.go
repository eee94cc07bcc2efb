package typeinfo

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/hengadev/exprjson/internal/exprerr"
)

type EnumMember struct {
	Name  string
	Value int64
}

// Enum describes a named integer type whose values have member names. Flag
// enums combine members with bitwise OR.
type Enum struct {
	Type    reflect.Type
	Flags   bool
	Members []EnumMember

	byName map[string]int64
}

// RegisterEnum declares t, which must have an integer kind, as an enum.
func (r *Registry) RegisterEnum(t reflect.Type, flags bool, members ...EnumMember) error {
	if t == nil || t.Name() == "" || !isInteger(t.Kind()) {
		return fmt.Errorf("%w: enum %v must be a named integer type", exprerr.ErrUnsupportedType, t)
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: enum %s has no members", exprerr.ErrInvalidValue, t)
	}
	e := &Enum{
		Type:    t,
		Flags:   flags,
		Members: append([]EnumMember(nil), members...),
		byName:  make(map[string]int64, len(members)),
	}
	for _, m := range members {
		if _, dup := e.byName[m.Name]; dup {
			return fmt.Errorf("%w: enum %s declares '%s' twice", exprerr.ErrInvalidValue, t, m.Name)
		}
		e.byName[m.Name] = m.Value
	}
	// Members are kept in descending order so Format can match greedily.
	sort.SliceStable(e.Members, func(i, j int) bool { return e.Members[i].Value > e.Members[j].Value })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.enums[t] = e
	r.registerLocked(t, map[reflect.Type]bool{})
	return nil
}

// Enum returns the enum registered for t.
func (r *Registry) Enum(t reflect.Type) (*Enum, bool) {
	if t == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enums[t]
	return e, ok
}

// Format spells v as a member name, or as a ", " separated name list for flag
// enums. Values without a matching member are written as integers.
func (e *Enum) Format(v int64) string {
	if !e.Flags || v == 0 {
		if m, ok := lo.Find(e.Members, func(m EnumMember) bool { return m.Value == v }); ok {
			return m.Name
		}
		return strconv.FormatInt(v, 10)
	}

	var names []string
	rest := v
	for _, m := range e.Members {
		if m.Value != 0 && rest&m.Value == m.Value {
			names = append(names, m.Name)
			rest &^= m.Value
		}
	}
	names = lo.Reverse(names)
	if rest != 0 {
		names = append(names, strconv.FormatInt(rest, 10))
	}
	return strings.Join(names, ", ")
}

// Parse is the inverse of Format. Integer tokens are accepted in place of
// member names.
func (e *Enum) Parse(s string) (int64, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: empty %s value", exprerr.ErrInvalidValue, e.Type)
	}
	if !e.Flags && len(tokens) > 1 {
		return 0, fmt.Errorf("%w: %s is not a flag enum, got '%s'", exprerr.ErrInvalidValue, e.Type, s)
	}
	var v int64
	for _, tok := range tokens {
		if m, ok := e.byName[tok]; ok {
			v |= m
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s' is not a member of %s", exprerr.ErrInvalidValue, tok, e.Type)
		}
		v |= n
	}
	return v, nil
}

// Int reads the integer value of an enum-typed reflect.Value.
func (e *Enum) Int(v reflect.Value) int64 {
	if isUnsigned(v.Kind()) {
		return int64(v.Uint())
	}
	return v.Int()
}

// Value builds a value of the enum type from n.
func (e *Enum) Value(n int64) reflect.Value {
	v := reflect.New(e.Type).Elem()
	if isUnsigned(e.Type.Kind()) {
		v.SetUint(uint64(n))
	} else {
		v.SetInt(n)
	}
	return v
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return isUnsigned(k)
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
