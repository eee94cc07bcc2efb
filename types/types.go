// Package types holds small value types that have a dedicated wire form but no
// direct Go counterpart.
package types

import "fmt"

// Char is a single character. It is written as a one-character string rather
// than as the integer a rune would produce.
type Char rune

func (c Char) String() string {
	return string(rune(c))
}

// Null is the explicit null marker. Its only value is written as a JSON null.
type Null struct{}

// Tuple is implemented by the fixed-arity product types of this package.
// Components are laid out as the exported fields of the struct, in order.
type Tuple interface {
	Arity() int
	isTuple()
}

type Pair[A, B any] struct {
	First  A
	Second B
}

func NewPair[A, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

func (Pair[A, B]) Arity() int { return 2 }

func (Pair[A, B]) isTuple() {}

func (p Pair[A, B]) String() string {
	return fmt.Sprintf("(%v, %v)", p.First, p.Second)
}

type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func NewTriple[A, B, C any](first A, second B, third C) Triple[A, B, C] {
	return Triple[A, B, C]{First: first, Second: second, Third: third}
}

func (Triple[A, B, C]) Arity() int { return 3 }

func (Triple[A, B, C]) isTuple() {}

func (t Triple[A, B, C]) String() string {
	return fmt.Sprintf("(%v, %v, %v)", t.First, t.Second, t.Third)
}
