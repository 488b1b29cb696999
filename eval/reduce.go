package eval

import (
	"github.com/smasher164/deduce/ast"
)

// Reducer normalizes terms under a policy. Reduction is deterministic and
// never fails; terms that cannot make progress are returned stuck.
type Reducer struct {
	Env    *ast.Env
	Policy Policy
	Trace  *Tracer

	skipAuto bool
}

func (r Reducer) with(p Policy) Reducer {
	r.Policy = p
	return r
}

func (r Reducer) reduceAll(ts []ast.Term) []ast.Term {
	out := make([]ast.Term, len(ts))
	for i, t := range ts {
		out[i] = r.Reduce(t)
	}
	return out
}

func (r Reducer) Reduce(t ast.Term) ast.Term {
	switch t := t.(type) {
	case *ast.Var:
		return r.reduceVar(t, false)
	case *ast.Mark:
		return r.Reduce(t.Subject)
	case *ast.TermInst:
		return r.Reduce(t.Subject)
	case *ast.Generic:
		return r.Reduce(t.Body)
	case *ast.And:
		var args []ast.Term
		for _, a := range t.Args {
			a = r.Reduce(a)
			switch {
			case ast.IsBool(a, false):
				return ast.False(t.Span())
			case ast.IsBool(a, true):
				continue
			}
			args = append(args, a)
		}
		return ast.MkAnd(t.Span(), args...)
	case *ast.Or:
		var args []ast.Term
		for _, a := range t.Args {
			a = r.Reduce(a)
			switch {
			case ast.IsBool(a, true):
				return ast.True(t.Span())
			case ast.IsBool(a, false):
				continue
			}
			args = append(args, a)
		}
		return ast.MkOr(t.Span(), args...)
	case *ast.IfThen:
		prem := r.Reduce(t.Premise)
		if ast.IsBool(prem, false) {
			return ast.True(t.Span())
		}
		concl := r.Reduce(t.Conclusion)
		switch {
		case ast.IsBool(prem, true):
			return concl
		case ast.IsBool(concl, true):
			return concl
		}
		return &ast.IfThen{Loc: t.Loc, Premise: prem, Conclusion: concl}
	case *ast.All:
		return &ast.All{Loc: t.Loc, Var: t.Var, Pos: t.Pos, Body: r.Reduce(t.Body)}
	case *ast.Some:
		return &ast.Some{Loc: t.Loc, Var: t.Var, Pos: t.Pos, Body: r.Reduce(t.Body)}
	case *ast.Lambda:
		return &ast.Lambda{Loc: t.Loc, Params: t.Params, Body: r.Reduce(t.Body)}
	case *ast.Conditional:
		cond := r.Reduce(t.Cond)
		switch {
		case ast.IsBool(cond, true):
			return r.Reduce(t.Then)
		case ast.IsBool(cond, false):
			return r.Reduce(t.Else)
		}
		return &ast.Conditional{Loc: t.Loc, Cond: cond, Then: t.Then, Else: t.Else}
	case *ast.Switch:
		return r.reduceSwitch(t)
	case *ast.Call:
		return r.reduceCall(t)
	case *ast.TLet:
		return r.Reduce(ast.Subst1(t.Body, t.Name, r.Reduce(t.Rhs)))
	case *ast.ArrayLit:
		return &ast.ArrayLit{Loc: t.Loc, Elems: r.reduceAll(t.Elems)}
	case *ast.MakeArray:
		list := r.Reduce(t.List)
		if elems, ok := r.listElems(list); ok {
			return &ast.ArrayLit{Loc: t.Loc, Elems: elems}
		}
		return &ast.MakeArray{Loc: t.Loc, List: list}
	case *ast.ArrayGet:
		arr, idx := r.Reduce(t.Array), r.Reduce(t.Index)
		if lit, ok := arr.(*ast.ArrayLit); ok {
			if i, ok := r.index(idx); ok && i >= 0 && i < len(lit.Elems) {
				return lit.Elems[i]
			}
		}
		return &ast.ArrayGet{Loc: t.Loc, Array: arr, Index: idx}
	}
	return t
}

// reduceVar unfolds a definition. Recursive functions only unfold in
// operator position, where they are applied.
func (r Reducer) reduceVar(v *ast.Var, operator bool) ast.Term {
	name := v.Id()
	if v.Overloaded() || !r.Policy.Permits(name) {
		return v
	}
	bind, ok := r.Env.LookupTerm(name)
	if !ok || bind.Value == nil {
		return v
	}
	if r.Policy.Opaque && bind.Opaque && bind.Module != r.Policy.Module {
		return v
	}
	switch val := bind.Value.(type) {
	case *ast.RecFun, *ast.GenRecFun:
		if !operator {
			return v
		}
		return val
	}
	if base := ast.BaseName(name); r.Trace.Enabled(base) {
		defer r.Trace.trace("unfold " + base)()
	}
	return r.Reduce(bind.Value)
}

func (r Reducer) reduceRator(t ast.Term) ast.Term {
	if v, ok := ast.StripInst(t).(*ast.Var); ok {
		return r.reduceVar(v, true)
	}
	return r.Reduce(t)
}

// ctorApp splits a constructor application into its constructor and
// arguments. A nullary constructor has no arguments.
func (r Reducer) ctorApp(t ast.Term) (*ast.Var, []ast.Term, bool) {
	switch t := ast.StripInst(t).(type) {
	case *ast.Var:
		if _, ok := r.Env.Constructor(t.Id()); ok {
			return t, nil, true
		}
	case *ast.Call:
		if v, ok := ast.StripInst(t.Rator).(*ast.Var); ok {
			if _, ok := r.Env.Constructor(v.Id()); ok {
				return v, t.Args, true
			}
		}
	}
	return nil, nil, false
}

// matchPattern binds the parameters of p against the value t.
func (r Reducer) matchPattern(p ast.Pattern, t ast.Term) (map[string]ast.Term, bool) {
	switch p := p.(type) {
	case *ast.PatternBool:
		return nil, ast.IsBool(t, p.Value)
	case *ast.PatternCons:
		ctor, args, ok := r.ctorApp(t)
		if !ok || ctor.Id() != p.Constructor.Id() || len(args) != len(p.Params) {
			return nil, false
		}
		sub := make(map[string]ast.Term, len(args))
		for i, name := range p.Params {
			sub[name] = args[i]
		}
		return sub, true
	}
	return nil, false
}

func (r Reducer) reduceSwitch(s *ast.Switch) ast.Term {
	subj := r.Reduce(s.Subject)
	for _, c := range s.Cases {
		if sub, ok := r.matchPattern(c.Pattern, subj); ok {
			return r.Reduce(ast.Subst(c.Body, sub))
		}
	}
	return &ast.Switch{Loc: s.Loc, Subject: subj, Cases: s.Cases}
}

func (r Reducer) reduceCall(c *ast.Call) ast.Term {
	if lhs, rhs, ok := ast.IsEquation(c); ok {
		return r.reduceEqual(c, lhs, rhs)
	}
	op, assoc := opName(c.Rator)
	assoc = assoc && r.Env.IsAssociative(op)
	args := c.Args
	if assoc {
		args = flatten(op, args)
	}
	rator := r.reduceRator(c.Rator)
	args = r.reduceAll(args)
	if assoc {
		args = flatten(op, args)
	}
	stuck := rator
	switch rator.(type) {
	case *ast.RecFun, *ast.GenRecFun:
		stuck = ast.StripInst(c.Rator)
	}
	result := r.apply(c, op, rator, stuck, args, assoc)
	return r.auto(result)
}

// apply calls rator with args, folding over-arity associative calls
// pairwise. stuck is the operator kept when no progress is made.
func (r Reducer) apply(c *ast.Call, op string, rator, stuck ast.Term, args []ast.Term, assoc bool) ast.Term {
	arity, ok := arityOf(rator)
	switch {
	case ok && len(args) == arity:
		if res, ok := r.invoke(rator, args); ok {
			return res
		}
	case ok && assoc && arity == 2 && len(args) > 2:
		args = r.foldWindows(op, rator, args)
		if len(args) == 1 {
			return args[0]
		}
	}
	return &ast.Call{Loc: c.Loc, Rator: stuck, Args: args}
}

func arityOf(rator ast.Term) (int, bool) {
	switch f := rator.(type) {
	case *ast.Lambda:
		return len(f.Params), true
	case *ast.RecFun:
		return len(f.Params), true
	case *ast.GenRecFun:
		return len(f.Params), true
	}
	return 0, false
}

// invoke applies a function value to exactly as many arguments as it
// takes, reporting whether it made progress.
func (r Reducer) invoke(rator ast.Term, args []ast.Term) (ast.Term, bool) {
	switch f := rator.(type) {
	case *ast.Lambda:
		sub := make(map[string]ast.Term, len(args))
		names := make([]string, len(args))
		for i, p := range f.Params {
			sub[p.Name] = args[i]
			names[i] = p.Name
		}
		return r.with(r.Policy.With(names...)).Reduce(ast.Subst(f.Body, sub)), true
	case *ast.RecFun:
		if f.Arithmetic {
			if n, ok := r.numeral(ast.BaseName(f.Name), args); ok {
				return n, true
			}
		}
		return r.invokeRecFun(f, args)
	case *ast.GenRecFun:
		if f.Arithmetic {
			if n, ok := r.numeral(ast.BaseName(f.Name), args); ok {
				return n, true
			}
		}
		return r.invokeGenRecFun(f, args)
	}
	return nil, false
}

func (r Reducer) invokeRecFun(f *ast.RecFun, args []ast.Term) (ast.Term, bool) {
	for _, c := range f.Cases {
		sub, ok := r.matchPattern(c.Pattern, args[0])
		if !ok || len(c.Params) != len(args)-1 {
			continue
		}
		if sub == nil {
			sub = make(map[string]ast.Term, len(c.Params))
		}
		names := make([]string, 0, len(sub)+len(c.Params))
		for name := range sub {
			names = append(names, name)
		}
		for i, name := range c.Params {
			sub[name] = args[i+1]
			names = append(names, name)
		}
		if base := ast.BaseName(f.Name); r.Trace.Enabled(base) {
			defer r.Trace.trace("unfold " + base + " case " + c.Pattern.String())()
		}
		return r.with(r.Policy.With(names...)).Reduce(ast.Subst(c.Body, sub)), true
	}
	return nil, false
}

// invokeGenRecFun unfolds the body, keeping the result only when it no
// longer mentions the function.
func (r Reducer) invokeGenRecFun(f *ast.GenRecFun, args []ast.Term) (ast.Term, bool) {
	sub := make(map[string]ast.Term, len(args))
	names := make([]string, len(args))
	for i, p := range f.Params {
		sub[p.Name] = args[i]
		names[i] = p.Name
	}
	if base := ast.BaseName(f.Name); r.Trace.Enabled(base) {
		defer r.Trace.trace("unfold " + base)()
	}
	res := r.with(r.Policy.With(names...)).Reduce(ast.Subst(f.Body, sub))
	if ast.Occurs(f.Name, res) {
		return nil, false
	}
	return res, true
}

// reduceEqual decides an equation when both sides are known to be equal
// or known to differ, and leaves it unreduced otherwise.
func (r Reducer) reduceEqual(c *ast.Call, lhs, rhs ast.Term) ast.Term {
	l, rr := r.Reduce(lhs), r.Reduce(rhs)
	if decided, eq := r.decideEqual(l, rr); decided {
		return &ast.BoolLit{Loc: c.Loc, Value: eq}
	}
	return &ast.Call{Loc: c.Loc, Rator: ast.StripInst(c.Rator), Args: []ast.Term{l, rr}}
}

func (r Reducer) decideEqual(a, b ast.Term) (decided, eq bool) {
	if ast.Equal(a, b) {
		return true, true
	}
	switch a := a.(type) {
	case *ast.BoolLit:
		if b, ok := b.(*ast.BoolLit); ok {
			return true, a.Value == b.Value
		}
	case *ast.IntLit:
		if b, ok := b.(*ast.IntLit); ok {
			return true, a.Value == b.Value
		}
	}
	ca, aargs, ok1 := r.ctorApp(a)
	cb, bargs, ok2 := r.ctorApp(b)
	if !ok1 || !ok2 {
		return false, false
	}
	if ca.Id() != cb.Id() {
		return true, false
	}
	if len(aargs) != len(bargs) {
		return false, false
	}
	all := true
	for i := range aargs {
		decided, eq := r.decideEqual(aargs[i], bargs[i])
		if decided && !eq {
			return true, false
		}
		all = all && decided
	}
	if all {
		return true, true
	}
	return false, false
}

// listElems reads a value of a list-shaped union as its elements.
func (r Reducer) listElems(t ast.Term) ([]ast.Term, bool) {
	var elems []ast.Term
	for {
		ctor, args, ok := r.ctorApp(t)
		if !ok {
			return nil, false
		}
		u, _ := r.Env.Constructor(ctor.Id())
		if !isListShaped(u) {
			return nil, false
		}
		if len(args) == 0 {
			return elems, true
		}
		if len(args) != 2 {
			return nil, false
		}
		elems = append(elems, args[0])
		t = args[1]
	}
}

func (r Reducer) index(t ast.Term) (int, bool) {
	if i, ok := t.(*ast.IntLit); ok {
		return i.Value, true
	}
	n, ok := r.readNumeral(t)
	return n.value, ok
}

// isListShaped reports whether u has one nullary constructor and one
// taking an element and the rest of the list.
func isListShaped(u *ast.Union) bool {
	if u == nil || len(u.Constructors) != 2 {
		return false
	}
	var empty, node int
	for _, c := range u.Constructors {
		switch {
		case len(c.Params) == 0:
			empty++
		case len(c.Params) == 2 && isSelf(u, c.Params[1]):
			node++
		}
	}
	return empty == 1 && node == 1
}

func isSelf(u *ast.Union, t ast.Type) bool {
	switch t := t.(type) {
	case *ast.Var:
		return t.Id() == u.Name
	case *ast.TypeInst:
		return t.Typ.Id() == u.Name
	}
	return false
}
