package document

import (
	"strconv"

	"github.com/samber/mo"

	"github.com/hengadev/exprjson/internal/exprerr"
)

// Scalar lists the Go types a leaf node can be read as.
type Scalar interface {
	bool | string | int64 | uint64 | float64
}

// Get reads the scalar held by n as T. Integers are also accepted from string
// nodes holding decimal digits, the form used for values beyond 2^53-1.
func Get[T Scalar](n *Node) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *bool:
		if n.kind != KindBool {
			return out, exprerr.NewShapeMismatchError(n.Path(), "bool", n.kind.String(), exprerr.Decode)
		}
		*p = n.flag
	case *string:
		if n.kind != KindString {
			return out, exprerr.NewShapeMismatchError(n.Path(), "string", n.kind.String(), exprerr.Decode)
		}
		*p = n.text
	case *int64:
		if n.kind != KindNumber && n.kind != KindString {
			return out, exprerr.NewShapeMismatchError(n.Path(), "integer", n.kind.String(), exprerr.Decode)
		}
		v, err := strconv.ParseInt(n.text, 10, 64)
		if err != nil {
			return out, exprerr.NewNumericParseError(n.Path(), n.text, "int64")
		}
		*p = v
	case *uint64:
		if n.kind != KindNumber && n.kind != KindString {
			return out, exprerr.NewShapeMismatchError(n.Path(), "integer", n.kind.String(), exprerr.Decode)
		}
		v, err := strconv.ParseUint(n.text, 10, 64)
		if err != nil {
			return out, exprerr.NewNumericParseError(n.Path(), n.text, "uint64")
		}
		*p = v
	case *float64:
		if n.kind != KindNumber {
			return out, exprerr.NewShapeMismatchError(n.Path(), "number", n.kind.String(), exprerr.Decode)
		}
		v, err := strconv.ParseFloat(n.text, 64)
		if err != nil {
			return out, exprerr.NewNumericParseError(n.Path(), n.text, "float64")
		}
		*p = v
	}
	return out, nil
}

// GetField reads the scalar child labelled name.
func GetField[T Scalar](n *Node, name string) (T, error) {
	child, err := n.Child(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return Get[T](child)
}

// GetOptional reads the scalar child labelled name if it is present and not null.
func GetOptional[T Scalar](n *Node, name string) (mo.Option[T], error) {
	child := n.Optional(name)
	if child.IsAbsent() {
		return mo.None[T](), nil
	}
	v, err := Get[T](child.MustGet())
	if err != nil {
		return mo.None[T](), err
	}
	return mo.Some(v), nil
}

// Lookup returns the child labelled name without raising an error.
func (n *Node) Lookup(name string) (*Node, bool) {
	if n.kind != KindMap {
		return nil, false
	}
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// Child returns the child labelled name. A missing child or a non-map receiver
// is an error carrying the node path.
func (n *Node) Child(name string) (*Node, error) {
	if n.kind != KindMap {
		return nil, exprerr.NewShapeMismatchError(n.Path(), "map", n.kind.String(), exprerr.Decode)
	}
	child, ok := n.Lookup(name)
	if !ok {
		return nil, exprerr.NewMissingFieldError(n.Path(), name, exprerr.Decode)
	}
	return child, nil
}

// Optional returns the child labelled name for fields that may be left out,
// such as length hints. A null child counts as absent.
func (n *Node) Optional(name string) mo.Option[*Node] {
	child, ok := n.Lookup(name)
	if !ok || child.IsNull() {
		return mo.None[*Node]()
	}
	return mo.Some(child)
}

// Array returns the items of the list child labelled name.
func (n *Node) Array(name string) ([]*Node, error) {
	child, err := n.Child(name)
	if err != nil {
		return nil, err
	}
	return child.Items()
}

// Items returns the items of a list node.
func (n *Node) Items() ([]*Node, error) {
	if n.kind != KindList {
		return nil, exprerr.NewShapeMismatchError(n.Path(), "list", n.kind.String(), exprerr.Decode)
	}
	return n.children, nil
}

// Index returns the i-th item of a list node.
func (n *Node) Index(i int) (*Node, error) {
	items, err := n.Items()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(items) {
		return nil, exprerr.NewMissingFieldError(n.Path(), "["+strconv.Itoa(i)+"]", exprerr.Decode)
	}
	return items[i], nil
}

// Single returns the only child of a map node. Fields that hold one labelled
// value, such as an expression body, use this shape.
func (n *Node) Single() (*Node, error) {
	if n.kind != KindMap {
		return nil, exprerr.NewShapeMismatchError(n.Path(), "map", n.kind.String(), exprerr.Decode)
	}
	if len(n.children) != 1 {
		return nil, exprerr.NewShapeMismatchError(n.Path(), "single labelled child", strconv.Itoa(len(n.children))+" children", exprerr.Decode)
	}
	return n.children[0], nil
}

// SingleField returns the only child of the map child labelled name.
func (n *Node) SingleField(name string) (*Node, error) {
	child, err := n.Child(name)
	if err != nil {
		return nil, err
	}
	return child.Single()
}
