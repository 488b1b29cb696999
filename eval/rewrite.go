package eval

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/smasher164/deduce/ast"
)

// Equation splits a rewrite fact into its pattern variables and its two
// sides. A fact P that is not an equation is read as P = true.
func Equation(fact ast.Term) (vars []string, lhs, rhs ast.Term) {
	for {
		all, ok := fact.(*ast.All)
		if !ok {
			break
		}
		vars = append(vars, all.Var.Name)
		fact = all.Body
	}
	if lhs, rhs, ok := ast.IsEquation(fact); ok {
		return vars, lhs, rhs
	}
	return vars, fact, ast.True(fact.Span())
}

type Rewriter struct {
	Env   *ast.Env
	Trace *Tracer
}

// Rewrite replaces instances of the left side of eq in t by its right side.
// The traversal is top-down: each subterm is matched as a whole before its
// children, and the first match fixes the substitution, after which every
// occurrence of that instance is replaced. Replacements are not rewritten
// again. depth bounds how far the traversal descends: 1 tries t alone, 0
// tries nothing and -1 is unlimited. Associative applications in t and in
// the left side are flattened first.
func (rw Rewriter) Rewrite(t, eq ast.Term, depth int) (ast.Term, bool) {
	vars, lhs, rhs := Equation(eq)
	p := newPass(rw.Env, vars, Flatten(rw.Env, lhs), rhs)
	next := p.term(Flatten(rw.Env, t), depth)
	if p.inst == nil {
		return t, false
	}
	rw.Trace.Printf("rewrite %s ⇒ %s", p.inst, p.out)
	return Flatten(rw.Env, next), true
}

// RewriteFocused rewrites at unlimited depth. When t contains a marked subterm,
// only that subterm is rewritten and the mark is removed.
func (rw Rewriter) RewriteFocused(t, eq ast.Term) (ast.Term, bool, error) {
	switch n := countMarks(t); n {
	case 0:
		nt, ok := rw.Rewrite(t, eq, -1)
		return nt, ok, nil
	case 1:
		changed := false
		var focus func(ast.Term) ast.Term
		focus = func(s ast.Term) ast.Term {
			if m, ok := s.(*ast.Mark); ok {
				var inner ast.Term
				inner, changed = rw.Rewrite(m.Subject, eq, -1)
				return inner
			}
			return ast.MapTerm(s, focus)
		}
		return focus(t), changed, nil
	default:
		return t, false, fmt.Errorf("%s: expected at most one marked subterm, found %d", t.Span(), n)
	}
}

func countMarks(t ast.Term) int {
	n := 0
	var walk func(ast.Term) ast.Term
	walk = func(s ast.Term) ast.Term {
		if _, ok := s.(*ast.Mark); ok {
			n++
		}
		ast.MapTerm(s, walk)
		return s
	}
	walk(t)
	return n
}

type pass struct {
	env      *ast.Env
	vars     []string
	lhs, rhs ast.Term

	// set by the first match
	inst, out ast.Term

	op string // associative operator at the head of lhs
	k  int    // its arity in lhs
}

func newPass(env *ast.Env, vars []string, lhs, rhs ast.Term) *pass {
	p := &pass{env: env, vars: vars, lhs: lhs, rhs: rhs}
	if c, ok := ast.StripInst(lhs).(*ast.Call); ok {
		if op, ok := opName(c.Rator); ok && env.IsAssociative(op) {
			p.op, p.k = op, len(c.Args)
		}
	}
	return p
}

// hit reports the replacement for t, fixing the substitution on the first
// match.
func (p *pass) hit(t ast.Term) (ast.Term, bool) {
	if p.inst != nil {
		if ast.Equal(p.inst, t) {
			return p.out, true
		}
		return nil, false
	}
	sub, ok := Match(p.env, p.vars, p.lhs, t)
	if !ok {
		return nil, false
	}
	for _, v := range p.vars {
		if _, bound := sub[v]; !bound && ast.Occurs(v, p.rhs) {
			return nil, false
		}
	}
	p.inst, p.out = ast.Subst(p.lhs, sub), ast.Subst(p.rhs, sub)
	return p.out, true
}

func (p *pass) term(t ast.Term, depth int) ast.Term {
	if depth == 0 {
		return t
	}
	if out, ok := p.hit(t); ok {
		return out
	}
	if depth > 0 {
		depth--
	}
	if c, ok := t.(*ast.Call); ok && p.k > 0 {
		if out, ok := p.windows(c, depth); ok {
			return out
		}
	}
	return ast.MapTerm(t, func(s ast.Term) ast.Term { return p.term(s, depth) })
}

// windows tries every run of k adjacent arguments of an n-ary associative
// call, left to right, continuing after each replacement. The arguments
// left over are rewritten at depth.
func (p *pass) windows(c *ast.Call, depth int) (ast.Term, bool) {
	if op, ok := opName(c.Rator); !ok || op != p.op || len(c.Args) <= p.k {
		return nil, false
	}
	args := append([]ast.Term(nil), c.Args...)
	replaced := make([]bool, len(args))
	changed := false
	for i := 0; i+p.k <= len(args); {
		win := &ast.Call{Loc: c.Loc, Rator: c.Rator, Args: args[i : i+p.k]}
		out, ok := p.hit(win)
		if !ok {
			i++
			continue
		}
		repl := flatten(p.op, []ast.Term{out})
		args = append(append(append([]ast.Term(nil), args[:i]...), repl...), args[i+p.k:]...)
		marks := lo.Times(len(repl), func(int) bool { return true })
		replaced = append(append(append([]bool(nil), replaced[:i]...), marks...), replaced[i+p.k:]...)
		i += len(repl)
		changed = true
	}
	if !changed {
		return nil, false
	}
	for i, a := range args {
		if !replaced[i] {
			args[i] = p.term(a, depth)
		}
	}
	if len(args) == 1 {
		return args[0], true
	}
	return &ast.Call{Loc: c.Loc, Rator: c.Rator, Args: args}, true
}
