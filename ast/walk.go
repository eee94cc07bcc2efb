package ast

// Walk visits expr and its children depth-first in source order. If fn
// returns false the children of that node are skipped.
func Walk(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	switch n := expr.(type) {
	case *Lambda:
		for _, p := range n.Parameters {
			Walk(p, fn)
		}
		Walk(n.Body, fn)
	case *Block:
		for _, v := range n.Variables {
			Walk(v, fn)
		}
		for _, e := range n.Expressions {
			Walk(e, fn)
		}
	case *Label:
		Walk(n.Default, fn)
	case *Goto:
		Walk(n.Value, fn)
	case *MemberAccess:
		Walk(n.Object, fn)
	case *Call:
		Walk(n.Object, fn)
		for _, a := range n.Arguments {
			Walk(a, fn)
		}
	case *New:
		for _, a := range n.Arguments {
			Walk(a, fn)
		}
	}
}

// Count returns the number of nodes of each kind under expr.
func Count(expr Expr) map[Kind]int {
	counts := make(map[Kind]int)
	Walk(expr, func(e Expr) bool {
		counts[e.Kind()]++
		return true
	})
	return counts
}
