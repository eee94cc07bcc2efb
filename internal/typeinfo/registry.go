package typeinfo

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/exprerr"
)

// Registry maps types to wire names and back. Named types become resolvable
// once registered or once NameFor has spelled them. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	mu           sync.RWMutex
	convention   Convention
	named        map[string]reflect.Type
	enums        map[reflect.Type]*Enum
	functions    map[string][]ast.Member
	constructors map[reflect.Type][]ast.Member
}

func NewRegistry(convention Convention) *Registry {
	r := &Registry{
		convention:   convention,
		named:        make(map[string]reflect.Type),
		enums:        make(map[reflect.Type]*Enum),
		functions:    make(map[string][]ast.Member),
		constructors: make(map[reflect.Type][]ast.Member),
	}
	r.Register(wellKnown...)
	return r
}

func (r *Registry) Convention() Convention {
	return r.convention
}

// Register makes named types, and the named types nested in composite ones,
// resolvable by their full name.
func (r *Registry) Register(ts ...reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[reflect.Type]bool)
	for _, t := range ts {
		r.registerLocked(t, seen)
	}
}

func (r *Registry) registerLocked(t reflect.Type, seen map[reflect.Type]bool) {
	if t == nil || seen[t] {
		return
	}
	seen[t] = true
	if t.Name() != "" && t.PkgPath() != "" {
		r.named[FullName(t)] = t
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		r.registerLocked(t.Elem(), seen)
	case reflect.Map:
		r.registerLocked(t.Key(), seen)
		r.registerLocked(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			r.registerLocked(t.Field(i).Type, seen)
		}
	case reflect.Func:
		for i := 0; i < t.NumIn(); i++ {
			r.registerLocked(t.In(i), seen)
		}
		for i := 0; i < t.NumOut(); i++ {
			r.registerLocked(t.Out(i), seen)
		}
	}
}

// NameFor spells t for the wire following the registry's convention.
func (r *Registry) NameFor(t reflect.Type) string {
	if t == nil {
		return VoidName
	}
	if name, ok := canonicalByType[t]; ok {
		if r.convention == ShortNames || isPredeclared(t) {
			return name
		}
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		full := FullName(t)
		r.learn(full, t)
		return full
	}
	return composite(t, r.NameFor)
}

func (r *Registry) learn(name string, t reflect.Type) {
	r.mu.RLock()
	_, known := r.named[name]
	r.mu.RUnlock()
	if known {
		return
	}
	r.mu.Lock()
	r.named[name] = t
	r.mu.Unlock()
}

// TypeFor resolves a wire name. Canonical short names win, then registered
// full names, then the composite grammar.
func (r *Registry) TypeFor(name string) (reflect.Type, error) {
	if name == VoidName {
		return nil, nil
	}
	if t, ok := r.lookup(name); ok {
		return t, nil
	}
	p := &typeParser{src: name, lookup: r.lookup}
	t, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exprerr.ErrUnknownType, err)
	}
	return t, nil
}

func (r *Registry) lookup(name string) (reflect.Type, bool) {
	if t, ok := canonicalByName[name]; ok {
		return t, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.named[name]
	return t, ok
}

// isPredeclared reports whether t is spelled the same under every convention.
func isPredeclared(t reflect.Type) bool {
	return (t.Name() != "" && t.PkgPath() == "") || t == AnyType || t == ObjectType
}
