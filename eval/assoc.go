package eval

import (
	"github.com/smasher164/deduce/ast"
)

// opName is the resolved name of an operator term.
func opName(rator ast.Term) (string, bool) {
	switch f := ast.StripInst(rator).(type) {
	case *ast.Var:
		if f.Overloaded() {
			return "", false
		}
		return f.Id(), true
	case *ast.RecFun:
		return f.Name, true
	case *ast.GenRecFun:
		return f.Name, true
	}
	return "", false
}

// flatten splices nested applications of op into args.
func flatten(op string, args []ast.Term) []ast.Term {
	var out []ast.Term
	for _, a := range args {
		if c, ok := ast.StripInst(a).(*ast.Call); ok {
			if name, ok := opName(c.Rator); ok && name == op && len(c.Args) >= 2 {
				out = append(out, flatten(op, c.Args)...)
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// Flatten rewrites every application of a registered associative operator
// into a single n-ary application.
func Flatten(env *ast.Env, t ast.Term) ast.Term {
	t = ast.MapTerm(t, func(s ast.Term) ast.Term { return Flatten(env, s) })
	c, ok := t.(*ast.Call)
	if !ok {
		return t
	}
	op, ok := opName(c.Rator)
	if !ok || !env.IsAssociative(op) {
		return t
	}
	args := flatten(op, c.Args)
	if len(args) == len(c.Args) {
		return t
	}
	return &ast.Call{Loc: c.Loc, Rator: c.Rator, Args: args}
}

// foldWindows applies a binary operator to adjacent pairs of args, left to
// right. A step only counts when it shortens the argument list; after a
// step the window moves back one place so the new result can combine with
// its left neighbour.
func (r Reducer) foldWindows(op string, rator ast.Term, args []ast.Term) []ast.Term {
	args = append([]ast.Term(nil), args...)
	for i := 0; i+1 < len(args); {
		res, ok := r.invoke(rator, args[i:i+2])
		if ok {
			repl := flatten(op, []ast.Term{res})
			if len(repl) < 2 {
				next := make([]ast.Term, 0, len(args)-2+len(repl))
				next = append(next, args[:i]...)
				next = append(next, repl...)
				next = append(next, args[i+2:]...)
				args = next
				i = max(i-1, 0)
				continue
			}
		}
		i++
	}
	return args
}
