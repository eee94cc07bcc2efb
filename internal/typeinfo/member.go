package typeinfo

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/exprerr"
)

// ParamSpec names one parameter of a callable. Pointer parameters are spelled
// by their element type with ByRef set.
type ParamSpec struct {
	Type  string
	ByRef bool
}

// MemberDescriptor is the wire description of a member. Parameters is nil for
// fields; for callables it pins down the exact overload.
type MemberDescriptor struct {
	DeclaringType string
	Name          string
	Kind          ast.MemberKind
	Static        bool
	Visibility    ast.Visibility
	Parameters    []ParamSpec
}

func (d MemberDescriptor) String() string {
	specs := lo.Map(d.Parameters, func(p ParamSpec, _ int) string {
		if p.ByRef {
			return "&" + p.Type
		}
		return p.Type
	})
	return fmt.Sprintf("%s %s.%s(%s)", d.Kind, d.DeclaringType, d.Name, strings.Join(specs, ", "))
}

// MemberResolver turns descriptors back into members.
type MemberResolver interface {
	ResolveMember(d MemberDescriptor) (ast.Member, error)
}

var _ MemberResolver = (*Registry)(nil)

// RegisterFunction makes fn resolvable as namespace.name.
func (r *Registry) RegisterFunction(namespace, name string, fn any) error {
	m, err := ast.FunctionOf(namespace, name, fn)
	if err != nil {
		return fmt.Errorf("%w: %v", exprerr.ErrUnsupportedType, err)
	}
	r.Register(m.Func.Type())
	key := namespace + "." + name

	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[key] = append(r.functions[key], m)
	return nil
}

// RegisterConstructor makes fn resolvable as a constructor of its first
// result type.
func (r *Registry) RegisterConstructor(fn any) error {
	m, err := ast.ConstructorOf(fn)
	if err != nil {
		return fmt.Errorf("%w: %v", exprerr.ErrUnsupportedType, err)
	}
	r.Register(m.Func.Type())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[m.DeclaringType] = append(r.constructors[m.DeclaringType], m)
	return nil
}

// Describe builds the wire descriptor of m.
func (r *Registry) Describe(m ast.Member) MemberDescriptor {
	d := MemberDescriptor{
		Name:       m.Name,
		Kind:       m.Kind,
		Static:     m.Static(),
		Visibility: m.Visibility,
	}
	if m.Kind == ast.FunctionMember {
		d.DeclaringType = m.Namespace
	} else {
		d.DeclaringType = r.NameFor(m.DeclaringType)
	}
	if m.Kind != ast.FieldMember {
		d.Parameters = r.paramSpecs(m.Parameters())
	}
	return d
}

func (r *Registry) paramSpecs(params []reflect.Type) []ParamSpec {
	specs := make([]ParamSpec, len(params))
	for i, p := range params {
		if p.Kind() == reflect.Pointer {
			specs[i] = ParamSpec{Type: r.NameFor(p.Elem()), ByRef: true}
		} else {
			specs[i] = ParamSpec{Type: r.NameFor(p)}
		}
	}
	return specs
}

// ResolveMember finds the single member matching d. Nil Parameters match any
// signature.
func (r *Registry) ResolveMember(d MemberDescriptor) (ast.Member, error) {
	var candidates []ast.Member
	switch d.Kind {
	case ast.FieldMember, ast.MethodMember:
		t, err := r.TypeFor(d.DeclaringType)
		if err != nil {
			return ast.Member{}, err
		}
		if t == nil {
			return ast.Member{}, fmt.Errorf("%w: '%s' on void", exprerr.ErrMemberNotFound, d.Name)
		}
		var m ast.Member
		if d.Kind == ast.FieldMember {
			m, err = ast.FieldOf(t, d.Name)
		} else {
			m, err = ast.MethodOf(t, d.Name)
		}
		if err == nil {
			candidates = append(candidates, m)
		}
	case ast.FunctionMember:
		r.mu.RLock()
		candidates = append(candidates, r.functions[d.DeclaringType+"."+d.Name]...)
		r.mu.RUnlock()
	case ast.ConstructorMember:
		t, err := r.TypeFor(d.DeclaringType)
		if err != nil {
			return ast.Member{}, err
		}
		r.mu.RLock()
		candidates = append(candidates, r.constructors[t]...)
		r.mu.RUnlock()
	default:
		return ast.Member{}, fmt.Errorf("%w: member kind %d", exprerr.ErrUnsupportedKind, d.Kind)
	}

	matches := lo.Filter(candidates, func(m ast.Member, _ int) bool {
		return m.Static() == d.Static && (d.Parameters == nil || r.sameParams(m, d.Parameters))
	})
	switch len(matches) {
	case 0:
		return ast.Member{}, fmt.Errorf("%w: %s", exprerr.ErrMemberNotFound, d)
	case 1:
		return matches[0], nil
	default:
		return ast.Member{}, fmt.Errorf("%w: %s matches %d candidates", exprerr.ErrAmbiguousMember, d, len(matches))
	}
}

// sameParams compares resolved types so either naming convention matches.
func (r *Registry) sameParams(m ast.Member, specs []ParamSpec) bool {
	params := m.Parameters()
	if len(params) != len(specs) {
		return false
	}
	for i, p := range params {
		want, err := r.TypeFor(specs[i].Type)
		if err != nil {
			return false
		}
		if specs[i].ByRef {
			if want == nil {
				return false
			}
			want = reflect.PointerTo(want)
		}
		if p != want {
			return false
		}
	}
	return true
}
