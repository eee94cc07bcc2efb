package ast

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// MemberKind tells which sort of member a Member refers to.
type MemberKind uint8

const (
	FieldMember MemberKind = iota + 1
	MethodMember
	FunctionMember
	ConstructorMember
)

func (k MemberKind) String() string {
	switch k {
	case FieldMember:
		return "field"
	case MethodMember:
		return "method"
	case FunctionMember:
		return "function"
	case ConstructorMember:
		return "constructor"
	default:
		return fmt.Sprintf("MemberKind(%d)", k)
	}
}

// ParseMemberKind is the inverse of MemberKind.String.
func ParseMemberKind(s string) (MemberKind, error) {
	for k := FieldMember; k <= ConstructorMember; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown member kind '%s'", s)
}

// Visibility is the access tier of a member. Go only produces Public for
// exported identifiers and Assembly for package-private ones; the other tiers
// are accepted on the wire.
type Visibility uint8

const (
	Public Visibility = iota
	Private
	Assembly
	Family
	FamilyOrAssembly
)

var visibilityNames = map[Visibility]string{
	Public:           "public",
	Private:          "private",
	Assembly:         "assembly",
	Family:           "family",
	FamilyOrAssembly: "familyOrAssembly",
}

func (v Visibility) String() string {
	if s, ok := visibilityNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Visibility(%d)", v)
}

// ParseVisibility is the inverse of Visibility.String.
func ParseVisibility(s string) (Visibility, error) {
	for v, name := range visibilityNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown visibility '%s'", s)
}

// Member identifies a field, method, package function or constructor that an
// expression accesses or invokes.
type Member struct {
	Kind MemberKind
	// DeclaringType is set for fields, methods and constructors.
	DeclaringType reflect.Type
	// Namespace groups package functions, usually the import path.
	Namespace  string
	Name       string
	Visibility Visibility

	Field  reflect.StructField
	Method reflect.Method
	Func   reflect.Value
}

// FieldOf looks up a field of struct type t, or of the struct t points to.
// Promoted fields of embedded structs are found too.
func FieldOf(t reflect.Type, name string) (Member, error) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return Member{}, fmt.Errorf("type %s has no fields", t)
	}
	f, ok := st.FieldByName(name)
	if !ok {
		return Member{}, fmt.Errorf("type %s has no field '%s'", t, name)
	}
	return Member{
		Kind:          FieldMember,
		DeclaringType: t,
		Name:          name,
		Visibility:    visibilityOf(name),
		Field:         f,
	}, nil
}

// MethodOf looks up an exported method in the method set of t.
func MethodOf(t reflect.Type, name string) (Member, error) {
	m, ok := t.MethodByName(name)
	if !ok {
		return Member{}, fmt.Errorf("type %s has no method '%s'", t, name)
	}
	return Member{
		Kind:          MethodMember,
		DeclaringType: t,
		Name:          name,
		Visibility:    Public,
		Method:        m,
	}, nil
}

// FunctionOf wraps a package-level function under namespace and name.
func FunctionOf(namespace, name string, fn any) (Member, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Member{}, fmt.Errorf("function '%s' is %T, not a func", name, fn)
	}
	return Member{
		Kind:       FunctionMember,
		Namespace:  namespace,
		Name:       name,
		Visibility: visibilityOf(name),
		Func:       v,
	}, nil
}

// ConstructorOf wraps a func whose first result is the constructed type.
func ConstructorOf(fn any) (Member, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Member{}, fmt.Errorf("constructor is %T, not a func", fn)
	}
	if v.Type().NumOut() == 0 {
		return Member{}, fmt.Errorf("constructor %s returns nothing", v.Type())
	}
	return Member{
		Kind:          ConstructorMember,
		DeclaringType: v.Type().Out(0),
		Visibility:    Public,
		Func:          v,
	}, nil
}

// Static reports whether the member is used without a receiver.
func (m Member) Static() bool {
	return m.Kind == FunctionMember || m.Kind == ConstructorMember
}

// Signature returns the func type of a callable member. Method signatures
// leave the receiver out.
func (m Member) Signature() reflect.Type {
	switch m.Kind {
	case MethodMember:
		if m.DeclaringType.Kind() == reflect.Interface {
			return m.Method.Type
		}
		ft := m.Method.Type
		in := make([]reflect.Type, 0, ft.NumIn()-1)
		for i := 1; i < ft.NumIn(); i++ {
			in = append(in, ft.In(i))
		}
		out := make([]reflect.Type, 0, ft.NumOut())
		for i := 0; i < ft.NumOut(); i++ {
			out = append(out, ft.Out(i))
		}
		return reflect.FuncOf(in, out, ft.IsVariadic())
	case FunctionMember, ConstructorMember:
		return m.Func.Type()
	default:
		return nil
	}
}

// Parameters returns the parameter types of a callable member.
func (m Member) Parameters() []reflect.Type {
	sig := m.Signature()
	if sig == nil {
		return nil
	}
	params := make([]reflect.Type, sig.NumIn())
	for i := range params {
		params[i] = sig.In(i)
	}
	return params
}

// ResultType is the field type for fields and the first result for callables.
// A callable with no results yields nil.
func (m Member) ResultType() reflect.Type {
	if m.Kind == FieldMember {
		return m.Field.Type
	}
	sig := m.Signature()
	if sig == nil || sig.NumOut() == 0 {
		return nil
	}
	return sig.Out(0)
}

// Equal compares members by identity rather than by func pointer.
func (m Member) Equal(o Member) bool {
	if m.Kind != o.Kind || m.DeclaringType != o.DeclaringType || m.Namespace != o.Namespace || m.Name != o.Name {
		return false
	}
	if m.Static() {
		return m.Func.Pointer() == o.Func.Pointer()
	}
	return true
}

func (m Member) String() string {
	switch m.Kind {
	case FunctionMember:
		return m.Namespace + "." + m.Name
	case ConstructorMember:
		return "new " + m.DeclaringType.String()
	default:
		if m.DeclaringType == nil {
			return m.Name
		}
		return m.DeclaringType.String() + "." + m.Name
	}
}

func visibilityOf(name string) Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return Public
	}
	return Assembly
}
