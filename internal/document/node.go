// Package document implements the labelled tree that sits between an expression
// tree and its JSON text.
//
// Every node has a label (its wire key) and one of six value shapes: null, bool,
// number, string, an ordered list of nodes or an ordered map of uniquely labelled
// nodes. Numbers keep their literal text so integers wider than a float64
// mantissa never lose precision on the way through.
package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the value shape held by a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Node is a single element of a document tree.
type Node struct {
	Name string

	kind     Kind
	flag     bool
	text     string
	children []*Node
	index    map[string]int

	parent *Node
	pos    int
}

func Null(name string) *Node {
	return &Node{Name: name, kind: KindNull}
}

func Bool(name string, v bool) *Node {
	return &Node{Name: name, kind: KindBool, flag: v}
}

func Int(name string, v int64) *Node {
	return &Node{Name: name, kind: KindNumber, text: strconv.FormatInt(v, 10)}
}

func Uint(name string, v uint64) *Node {
	return &Node{Name: name, kind: KindNumber, text: strconv.FormatUint(v, 10)}
}

// Float builds a number node from a finite float. Callers handle NaN and the
// infinities themselves since JSON has no literal for them.
func Float(name string, v float64, bitSize int) *Node {
	return &Node{Name: name, kind: KindNumber, text: strconv.FormatFloat(v, 'g', -1, bitSize)}
}

// Number builds a number node from an already formatted JSON number literal.
func Number(name, literal string) *Node {
	return &Node{Name: name, kind: KindNumber, text: literal}
}

func String(name, v string) *Node {
	return &Node{Name: name, kind: KindString, text: v}
}

// List builds an ordered list node. Nil items are skipped.
func List(name string, items ...*Node) *Node {
	n := &Node{Name: name, kind: KindList, children: make([]*Node, 0, len(items))}
	for _, item := range items {
		if item == nil {
			continue
		}
		item.parent = n
		item.pos = len(n.children)
		n.children = append(n.children, item)
	}
	return n
}

// Map builds a map node from uniquely labelled children. Nil children are
// skipped so optional fields can be passed inline. It panics on a duplicate
// label, which is a programming error on the encoding side; use Add when
// labels come from untrusted input.
func Map(name string, children ...*Node) *Node {
	n := &Node{Name: name, kind: KindMap, index: make(map[string]int, len(children))}
	for _, child := range children {
		if child == nil {
			continue
		}
		if err := n.Add(child); err != nil {
			panic(err)
		}
	}
	return n
}

// Add appends a child to a map node or an item to a list node.
func (n *Node) Add(child *Node) error {
	switch n.kind {
	case KindMap:
		if _, exists := n.index[child.Name]; exists {
			return fmt.Errorf("duplicate label '%s' in %s", child.Name, n.Path())
		}
		n.index[child.Name] = len(n.children)
	case KindList:
	default:
		return fmt.Errorf("cannot add children to a %s node at %s", n.kind, n.Path())
	}
	child.parent = n
	child.pos = len(n.children)
	n.children = append(n.children, child)
	return nil
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) IsNull() bool {
	return n.kind == KindNull
}

// Len returns the number of children of a list or map node.
func (n *Node) Len() int {
	return len(n.children)
}

// Children returns the children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Literal returns the raw text of a number or string node.
func (n *Node) Literal() string {
	return n.text
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Path renders the ancestry of n from the tree root, for example
// "$.expression.lambda.parameters[0]".
func (n *Node) Path() string {
	var segments []string
	for cur := n; cur != nil; cur = cur.parent {
		switch {
		case cur.parent == nil:
			if cur.Name == "" {
				segments = append(segments, "$")
			} else {
				segments = append(segments, "$."+cur.Name)
			}
		case cur.parent.kind == KindList:
			segments = append(segments, "["+strconv.Itoa(cur.pos)+"]")
		default:
			segments = append(segments, "."+cur.Name)
		}
	}
	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
	}
	return b.String()
}

func (n *Node) String() string {
	switch n.kind {
	case KindNull:
		return n.Name + ": null"
	case KindBool:
		return fmt.Sprintf("%s: %t", n.Name, n.flag)
	case KindNumber:
		return n.Name + ": " + n.text
	case KindString:
		return fmt.Sprintf("%s: %q", n.Name, n.text)
	default:
		return fmt.Sprintf("%s: %s(%d)", n.Name, n.kind, len(n.children))
	}
}
