package eval

import (
	"github.com/smasher164/deduce/ast"
)

// auto applies the standing rewrite rules for the head of t, one rewrite
// at a time, reducing again after each until none applies.
func (r Reducer) auto(t ast.Term) ast.Term {
	if r.skipAuto {
		return t
	}
	head, _ := ast.Head(t)
	rw := Rewriter{Env: r.Env, Trace: r.Trace}
	for _, eq := range r.Env.AutoRules(head) {
		if nt, ok := rw.Rewrite(t, eq, 1); ok && !ast.Equal(nt, t) {
			return r.Reduce(nt)
		}
	}
	return t
}
