package proof

import (
	"github.com/samber/lo"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/eval"
)

// Implies reports whether q follows from p by the propositional rules:
// anything implies true, false implies anything, conjunctions and
// disjunctions split, implications compare premise contravariantly and
// conclusion covariantly, and quantifiers compare bodies after renaming.
// Otherwise p and q must be equal after reduction with nothing unfolded.
func (c *Checker) Implies(env *ast.Env, p, q ast.Term) bool {
	if ast.Equal(p, q) || ast.IsBool(q, true) || ast.IsBool(p, false) {
		return true
	}
	if and, ok := q.(*ast.And); ok {
		return lo.EveryBy(and.Args, func(x ast.Term) bool { return c.Implies(env, p, x) })
	}
	if or, ok := p.(*ast.Or); ok {
		return lo.EveryBy(or.Args, func(x ast.Term) bool { return c.Implies(env, x, q) })
	}
	if and, ok := p.(*ast.And); ok && lo.SomeBy(and.Args, func(x ast.Term) bool { return c.Implies(env, x, q) }) {
		return true
	}
	if or, ok := q.(*ast.Or); ok && lo.SomeBy(or.Args, func(x ast.Term) bool { return c.Implies(env, p, x) }) {
		return true
	}
	switch p := p.(type) {
	case *ast.IfThen:
		if q, ok := q.(*ast.IfThen); ok && c.Implies(env, q.Premise, p.Premise) && c.Implies(env, p.Conclusion, q.Conclusion) {
			return true
		}
	case *ast.All:
		if q, ok := q.(*ast.All); ok && sameBinder(p.Var, q.Var) {
			if c.Implies(bind(env, p.Var), p.Body, rename(q.Var, p.Var, q.Body)) {
				return true
			}
		}
	case *ast.Some:
		if q, ok := q.(*ast.Some); ok && sameBinder(p.Var, q.Var) {
			if c.Implies(bind(env, p.Var), p.Body, rename(q.Var, p.Var, q.Body)) {
				return true
			}
		}
	}
	rp, rq := c.reduce(env, eval.Nothing(), p), c.reduce(env, eval.Nothing(), q)
	if ast.Equal(rp, p) && ast.Equal(rq, q) {
		return false
	}
	return c.Implies(env, rp, rq)
}

func isTypeBinder(b ast.Binding) bool {
	_, ok := b.Type.(*ast.TypeType)
	return ok
}

func sameBinder(a, b ast.Binding) bool {
	if isTypeBinder(a) || isTypeBinder(b) {
		return isTypeBinder(a) && isTypeBinder(b)
	}
	return ast.TypeEqual(a.Type, b.Type)
}

func bind(env *ast.Env, b ast.Binding) *ast.Env {
	if isTypeBinder(b) {
		return env.DeclareTypeVar(b.Name)
	}
	return env.DeclareTerm(b.Name, b.Type)
}

// rename replaces the variable bound by from with the one bound by to in
// body.
func rename(from, to ast.Binding, body ast.Term) ast.Term {
	v := ast.NewVar(to.Span(), to.Name)
	if isTypeBinder(from) {
		return ast.SubstTypes(body, map[string]ast.Type{from.Name: v})
	}
	return ast.Subst1(body, from.Name, v)
}
