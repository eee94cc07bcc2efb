package visitor

import (
	"github.com/samber/lo"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/exprerr"
	"github.com/hengadev/exprjson/internal/typeinfo"
)

const labelParameterSpec = "parameterSpec"

// member writes the descriptor of m under field. The descriptor is resolved
// back before it is written so every document names a member that exists.
func (s *encodeState) member(field string, m ast.Member, path string) (*document.Node, error) {
	at := path + "." + field
	d := s.types.Describe(m)
	resolved, err := s.types.ResolveMember(d)
	if err != nil {
		return nil, exprerr.At(at, exprerr.Resolve, err)
	}
	if !resolved.Equal(m) {
		return nil, exprerr.NewMemberNotFoundError(at, d.DeclaringType, m.String())
	}

	var name, params *document.Node
	if d.Name != "" {
		name = document.String("name", d.Name)
	}
	if d.Parameters != nil {
		params = document.List("parameters", lo.Map(d.Parameters, func(p typeinfo.ParamSpec, _ int) *document.Node {
			return document.Map(labelParameterSpec,
				document.String("type", p.Type),
				document.Bool("byRef", p.ByRef),
			)
		})...)
	}
	return document.Map(field,
		document.String("declaringType", d.DeclaringType),
		name,
		document.String("kind", d.Kind.String()),
		document.Bool("static", d.Static),
		document.String("visibility", d.Visibility.String()),
		params,
	), nil
}

func (s *decodeState) member(n *document.Node, field string) (ast.Member, error) {
	child, err := n.Child(field)
	if err != nil {
		return ast.Member{}, err
	}
	d, err := descriptor(child)
	if err != nil {
		return ast.Member{}, err
	}
	m, err := s.types.ResolveMember(d)
	if err != nil {
		return ast.Member{}, exprerr.At(child.Path(), exprerr.Resolve, err)
	}
	return m, nil
}

// descriptor reads a member descriptor node. An absent parameter list matches
// any overload; an empty one matches only members without parameters.
func descriptor(n *document.Node) (typeinfo.MemberDescriptor, error) {
	var d typeinfo.MemberDescriptor
	var err error
	if d.DeclaringType, err = document.GetField[string](n, "declaringType"); err != nil {
		return d, err
	}
	name, err := document.GetOptional[string](n, "name")
	if err != nil {
		return d, err
	}
	d.Name = name.OrElse("")

	kind, err := document.GetField[string](n, "kind")
	if err != nil {
		return d, err
	}
	if d.Kind, err = ast.ParseMemberKind(kind); err != nil {
		return d, exprerr.NewInvalidValueError(n.Path()+".kind", "member kind", err.Error(), exprerr.Decode)
	}
	if d.Kind != ast.ConstructorMember && d.Name == "" {
		return d, exprerr.NewMissingFieldError(n.Path(), "name", exprerr.Decode)
	}
	if d.Static, err = document.GetField[bool](n, "static"); err != nil {
		return d, err
	}
	visibility, err := document.GetField[string](n, "visibility")
	if err != nil {
		return d, err
	}
	if d.Visibility, err = ast.ParseVisibility(visibility); err != nil {
		return d, exprerr.NewInvalidValueError(n.Path()+".visibility", "visibility", err.Error(), exprerr.Decode)
	}

	if n.Optional("parameters").IsAbsent() {
		return d, nil
	}
	items, err := n.Array("parameters")
	if err != nil {
		return d, err
	}
	d.Parameters = make([]typeinfo.ParamSpec, 0, len(items))
	for _, item := range items {
		if item.Name != labelParameterSpec {
			return d, exprerr.NewUnknownLabelError(item.Path(), item.Name, exprerr.Decode)
		}
		spec := typeinfo.ParamSpec{}
		if spec.Type, err = document.GetField[string](item, "type"); err != nil {
			return d, err
		}
		byRef, err := document.GetOptional[bool](item, "byRef")
		if err != nil {
			return d, err
		}
		spec.ByRef = byRef.OrElse(false)
		d.Parameters = append(d.Parameters, spec)
	}
	return d, nil
}
