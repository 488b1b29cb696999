package types

import (
	"github.com/smasher164/deduce/ast"
)

// A recursive call together with the conditions under which it is made
// and the pattern variables those conditions bind.
type recursiveCall struct {
	binders []ast.Binding
	conds   []ast.Term
	args    []ast.Term
}

// obligation builds the formula a termination proof must establish: the
// measure of the arguments of every recursive call is less than the
// measure of the parameters, under the conditions leading to the call.
func (c *Checker) obligation(env *ast.Env, f *ast.GenRecFun) (ast.Term, error) {
	w := callWalker{c: c, name: f.Name}
	w.walk(env, f.Body, nil, nil)
	span := f.Span()
	if len(w.calls) == 0 {
		return ast.True(span), nil
	}
	lt, ok := c.lessThan(env, f.MeasureType)
	if !ok {
		return nil, errorf(span, "no < operator on %s for the measure of %s", f.MeasureType, f)
	}
	goals := make([]ast.Term, len(w.calls))
	for i, rc := range w.calls {
		sub := make(map[string]ast.Term, len(f.Params))
		for j, p := range f.Params {
			sub[p.Name] = rc.args[j]
		}
		var goal ast.Term = &ast.Call{Loc: ast.At(span), Rator: lt, Args: []ast.Term{ast.Subst(f.Measure, sub), f.Measure}}
		if len(rc.conds) > 0 {
			goal = &ast.IfThen{Loc: ast.At(span), Premise: ast.MkAnd(span, rc.conds...), Conclusion: goal}
		}
		for j := len(rc.binders) - 1; j >= 0; j-- {
			goal = &ast.All{Loc: ast.At(span), Var: rc.binders[j], Body: goal}
		}
		goals[i] = goal
	}
	formula := ast.MkAnd(span, goals...)
	for i := len(f.Params) - 1; i >= 0; i-- {
		formula = &ast.All{Loc: ast.At(span), Var: f.Params[i], Pos: ast.BlockPos{Index: i, Count: len(f.Params)}, Body: formula}
	}
	for i := len(f.TypeParams) - 1; i >= 0; i-- {
		formula = &ast.All{Loc: ast.At(span), Var: ast.Binding{Name: f.TypeParams[i], Type: &ast.TypeType{}}, Body: formula}
	}
	return formula, nil
}

func (c *Checker) lessThan(env *ast.Env, ty ast.Type) (*ast.Var, bool) {
	for _, name := range env.LookupBase("<") {
		bind, _ := env.LookupTerm(name)
		ft, ok := bind.Type.(*ast.FunctionType)
		if !ok || len(ft.TypeParams) > 0 || len(ft.Params) != 2 {
			continue
		}
		if _, ok := ft.Return.(*ast.BoolType); !ok {
			continue
		}
		if ast.TypeEqual(ft.Params[0], ty) && ast.TypeEqual(ft.Params[1], ty) {
			return ast.NewVar(ty.Span(), name), true
		}
	}
	return nil, false
}

type callWalker struct {
	c     *Checker
	name  string
	calls []recursiveCall
}

func (w *callWalker) walk(env *ast.Env, t ast.Term, binders []ast.Binding, conds []ast.Term) {
	switch t := t.(type) {
	case *ast.Conditional:
		w.walk(env, t.Cond, binders, conds)
		w.walk(env, t.Then, binders, with(conds, t.Cond))
		w.walk(env, t.Else, binders, with(conds, ast.Not(t.Cond.Span(), t.Cond)))
		return
	case *ast.Switch:
		w.walk(env, t.Subject, binders, conds)
		sty := w.c.TypeOf(t.Subject)
		for _, sc := range t.Cases {
			inner, bs := env, binders
			if pc, ok := sc.Pattern.(*ast.PatternCons); ok && sty != nil {
				if u, args, ok := UnionOf(env, sty); ok {
					if ctor := CtorOf(u, pc.Constructor); ctor != nil {
						for i, ty := range Fields(u, ctor, args) {
							bs = append(bs[:len(bs):len(bs)], ast.Binding{Loc: pc.Loc, Name: pc.Params[i], Type: ty})
							inner = inner.DeclareTerm(pc.Params[i], ty)
						}
					}
				}
			}
			eq := ast.MkEqual(sc.Span(), t.Subject, ast.PatternTerm(sc.Pattern))
			w.walk(inner, sc.Body, bs, with(conds, eq))
		}
		return
	case *ast.Call:
		if head, ok := ast.StripInst(t.Rator).(*ast.Var); ok && head.Id() == w.name {
			w.calls = append(w.calls, recursiveCall{binders: binders, conds: conds, args: t.Args})
		}
	}
	ast.MapTerm(t, func(s ast.Term) ast.Term {
		w.walk(env, s, binders, conds)
		return s
	})
}

func with(conds []ast.Term, t ast.Term) []ast.Term {
	return append(conds[:len(conds):len(conds)], t)
}
