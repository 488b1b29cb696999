package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/eval"
	"github.com/smasher164/deduce/lexer"
)

// Checker assigns types to terms and elaborates them. Elaboration resolves
// overloaded names, turns integer literals at unary natural types into
// constructor chains and makes inferred type arguments explicit. Inputs are
// never modified; the elaborated term is returned instead.
type Checker struct {
	// Module is recorded on the definitions declared by CheckStatement.
	Module string
	typeOf map[ast.Term]typed // memoized Synth, keyed by node identity
}

type typed struct {
	env  *ast.Env
	term ast.Term
	typ  ast.Type
}

func NewChecker(module string) *Checker {
	return &Checker{
		Module: module,
		typeOf: make(map[ast.Term]typed),
	}
}

// TypeOf returns the type recorded for a checked term, or nil.
func (c *Checker) TypeOf(t ast.Term) ast.Type {
	return c.typeOf[t].typ
}

func (c *Checker) record(env *ast.Env, t, nt ast.Term, ty ast.Type) {
	c.typeOf[t] = typed{env: env, term: nt, typ: ty}
	c.typeOf[nt] = typed{env: env, term: nt, typ: ty}
}

func boolType(span lexer.Span) ast.Type {
	return &ast.BoolType{Loc: ast.At(span)}
}

// Formula checks that t is a proposition.
func (c *Checker) Formula(env *ast.Env, t ast.Term) (ast.Term, error) {
	return c.Check(env, t, boolType(t.Span()))
}

// Synth infers the type of t.
func (c *Checker) Synth(env *ast.Env, t ast.Term) (ast.Term, ast.Type, error) {
	if memo, ok := c.typeOf[t]; ok && memo.env == env {
		return memo.term, memo.typ, nil
	}
	nt, ty, err := c.synth(env, t)
	if err != nil {
		return t, nil, err
	}
	c.record(env, t, nt, ty)
	return nt, ty, nil
}

func (c *Checker) synth(env *ast.Env, t ast.Term) (ast.Term, ast.Type, error) {
	switch t := t.(type) {
	case *ast.Var:
		return c.synthVar(env, t)
	case *ast.IntLit:
		return t, &ast.IntType{Loc: t.Loc}, nil
	case *ast.BoolLit:
		return t, boolType(t.Span()), nil
	case *ast.And:
		args, err := c.formulas(env, t.Args)
		return &ast.And{Loc: t.Loc, Args: args}, boolType(t.Span()), err
	case *ast.Or:
		args, err := c.formulas(env, t.Args)
		return &ast.Or{Loc: t.Loc, Args: args}, boolType(t.Span()), err
	case *ast.IfThen:
		prem, err := c.Formula(env, t.Premise)
		if err != nil {
			return t, nil, err
		}
		concl, err := c.Formula(env, t.Conclusion)
		return &ast.IfThen{Loc: t.Loc, Premise: prem, Conclusion: concl}, boolType(t.Span()), err
	case *ast.All:
		inner, err := c.Bind(env, t.Var)
		if err != nil {
			return t, nil, err
		}
		body, err := c.Formula(inner, t.Body)
		return &ast.All{Loc: t.Loc, Var: t.Var, Pos: t.Pos, Body: body}, boolType(t.Span()), err
	case *ast.Some:
		inner, err := c.Bind(env, t.Var)
		if err != nil {
			return t, nil, err
		}
		body, err := c.Formula(inner, t.Body)
		return &ast.Some{Loc: t.Loc, Var: t.Var, Pos: t.Pos, Body: body}, boolType(t.Span()), err
	case *ast.Conditional:
		cond, err := c.Formula(env, t.Cond)
		if err != nil {
			return t, nil, err
		}
		then, ty, err := c.Synth(env, t.Then)
		if err != nil {
			return t, nil, err
		}
		els, err := c.Check(env, t.Else, ty)
		return &ast.Conditional{Loc: t.Loc, Cond: cond, Then: then, Else: els}, ty, err
	case *ast.Switch:
		return c.switchTerm(env, t, nil)
	case *ast.Call:
		return c.synthCall(env, t)
	case *ast.Lambda:
		params := make([]ast.Type, len(t.Params))
		inner := env
		for i, p := range t.Params {
			if p.Type == nil {
				return t, nil, errorf(t.Span(), "cannot infer the type of parameter %s", p)
			}
			if err := c.CheckType(env, p.Type); err != nil {
				return t, nil, err
			}
			params[i] = p.Type
			inner = inner.DeclareTerm(p.Name, p.Type)
		}
		body, ret, err := c.Synth(inner, t.Body)
		if err != nil {
			return t, nil, err
		}
		return &ast.Lambda{Loc: t.Loc, Params: t.Params, Body: body}, &ast.FunctionType{Loc: t.Loc, Params: params, Return: ret}, nil
	case *ast.Generic:
		inner := env
		for _, tp := range t.TypeParams {
			inner = inner.DeclareTypeVar(tp)
		}
		body, ty, err := c.Synth(inner, t.Body)
		if err != nil {
			return t, nil, err
		}
		ft, ok := ty.(*ast.FunctionType)
		if !ok {
			return t, nil, errorf(t.Span(), "the body of a generic must be a function, found %s", ty)
		}
		gen := &ast.FunctionType{Loc: ft.Loc, TypeParams: append(append([]string(nil), t.TypeParams...), ft.TypeParams...), Params: ft.Params, Return: ft.Return}
		return &ast.Generic{Loc: t.Loc, TypeParams: t.TypeParams, Body: body}, gen, nil
	case *ast.TermInst:
		return c.synthInst(env, t)
	case *ast.TLet:
		rhs, rty, err := c.Synth(env, t.Rhs)
		if err != nil {
			return t, nil, err
		}
		inner := env.DefineTerm(t.Name, ast.TermBind{Type: rty, Value: rhs, Module: c.Module})
		body, ty, err := c.Synth(inner, t.Body)
		return &ast.TLet{Loc: t.Loc, Name: t.Name, Rhs: rhs, Body: body}, ty, err
	case *ast.ArrayLit:
		if len(t.Elems) == 0 {
			return t, nil, errorf(t.Span(), "cannot infer the element type of []")
		}
		first, ety, err := c.Synth(env, t.Elems[0])
		if err != nil {
			return t, nil, err
		}
		elems := []ast.Term{first}
		for _, e := range t.Elems[1:] {
			ne, err := c.Check(env, e, ety)
			if err != nil {
				return t, nil, err
			}
			elems = append(elems, ne)
		}
		return &ast.ArrayLit{Loc: t.Loc, Elems: elems}, &ast.ArrayType{Loc: t.Loc, Elem: ety}, nil
	case *ast.MakeArray:
		list, lty, err := c.Synth(env, t.List)
		if err != nil {
			return t, nil, err
		}
		u, args, ok := UnionOf(env, lty)
		elem, isList := listElem(u, args)
		if !ok || !isList {
			return t, nil, errorf(t.Span(), "array expects a list, found %s", lty)
		}
		return &ast.MakeArray{Loc: t.Loc, List: list}, &ast.ArrayType{Loc: t.Loc, Elem: elem}, nil
	case *ast.ArrayGet:
		arr, aty, err := c.Synth(env, t.Array)
		if err != nil {
			return t, nil, err
		}
		at, ok := aty.(*ast.ArrayType)
		if !ok {
			return t, nil, errorf(t.Span(), "cannot index %s of type %s", t.Array, aty)
		}
		idx, ity, err := c.Synth(env, t.Index)
		if err != nil {
			return t, nil, err
		}
		if _, isInt := ity.(*ast.IntType); !isInt {
			if u, _, ok := UnionOf(env, ity); !ok || !isNatural(u) {
				return t, nil, errorf(t.Index.Span(), "array index must be a natural number, found %s", ity)
			}
		}
		return &ast.ArrayGet{Loc: t.Loc, Array: arr, Index: idx}, at.Elem, nil
	case *ast.Hole:
		return t, nil, errorf(t.Span(), "incomplete term ?")
	case *ast.Omitted:
		return t, boolType(t.Span()), nil
	case *ast.Mark:
		subj, ty, err := c.Synth(env, t.Subject)
		return &ast.Mark{Loc: t.Loc, Subject: subj}, ty, err
	case *ast.RecFun:
		return t, t.Type(), nil
	case *ast.GenRecFun:
		return t, t.Type(), nil
	}
	panic(fmt.Sprintf("unhandled term %T", t))
}

func (c *Checker) formulas(env *ast.Env, ts []ast.Term) ([]ast.Term, error) {
	out := make([]ast.Term, len(ts))
	for i, t := range ts {
		nt, err := c.Formula(env, t)
		if err != nil {
			return ts, err
		}
		out[i] = nt
	}
	return out, nil
}

// Bind declares a quantified variable. Variables of type type are type
// parameters.
func (c *Checker) Bind(env *ast.Env, b ast.Binding) (*ast.Env, error) {
	if b.Type == nil {
		return env, errorf(b.Span(), "missing type for %s", ast.BaseName(b.Name))
	}
	if _, ok := b.Type.(*ast.TypeType); ok {
		return env.DeclareTypeVar(b.Name), nil
	}
	if err := c.CheckType(env, b.Type); err != nil {
		return env, err
	}
	return env.DeclareTerm(b.Name, b.Type), nil
}

func (c *Checker) synthVar(env *ast.Env, v *ast.Var) (ast.Term, ast.Type, error) {
	if v.Id() == ast.Equality {
		return v, nil, errorf(v.Span(), "= must be applied to two arguments")
	}
	if v.Overloaded() {
		var alts []ast.OverloadAlt
		for _, name := range v.Resolved {
			if bind, ok := env.LookupTerm(name); ok {
				alts = append(alts, ast.OverloadAlt{Name: name, Type: bind.Type})
			}
		}
		switch len(alts) {
		case 0:
			return v, nil, errorf(v.Span(), "%s is not declared", v)
		case 1:
			return v.Resolve(alts[0].Name), alts[0].Type, nil
		}
		return v, &ast.OverloadType{Loc: v.Loc, Alts: alts}, nil
	}
	bind, ok := env.LookupTerm(v.Id())
	if !ok {
		if _, ok := env.LookupType(v.Id()); ok {
			return v, nil, errorf(v.Span(), "%s is a type, not a term", v)
		}
		if _, ok := env.LookupProof(v.Id()); ok {
			return v, nil, errorf(v.Span(), "%s is a proof, not a term", v)
		}
		return v, nil, errorf(v.Span(), "%s is not declared", v)
	}
	if bind.Ctor != nil && len(bind.Ctor.TypeParams) > 0 {
		if ft, ok := bind.Type.(*ast.FunctionType); ok && len(ft.Params) == 0 {
			return v, &ast.GenericUnknownInst{Loc: v.Loc, Typ: ast.NewVar(v.Span(), bind.Ctor.Name)}, nil
		}
	}
	return v, bind.Type, nil
}

func (c *Checker) synthInst(env *ast.Env, t *ast.TermInst) (ast.Term, ast.Type, error) {
	subj, sty, err := c.Synth(env, t.Subject)
	if err != nil {
		return t, nil, err
	}
	for _, a := range t.TypeArgs {
		if err := c.CheckType(env, a); err != nil {
			return t, nil, err
		}
	}
	inst := &ast.TermInst{Loc: t.Loc, Subject: subj, TypeArgs: t.TypeArgs, Inferred: t.Inferred}
	if gu, ok := sty.(*ast.GenericUnknownInst); ok {
		u, _ := env.LookupType(gu.Typ.Id())
		if len(u.Union.TypeParams) != len(t.TypeArgs) {
			return t, nil, errorf(t.Span(), "%s expects %d type arguments, found %d", gu.Typ, len(u.Union.TypeParams), len(t.TypeArgs))
		}
		return inst, &ast.TypeInst{Loc: t.Loc, Typ: gu.Typ, Args: t.TypeArgs}, nil
	}
	ft, ok := sty.(*ast.FunctionType)
	if !ok || len(ft.TypeParams) != len(t.TypeArgs) {
		n := 0
		if ok {
			n = len(ft.TypeParams)
		}
		return t, nil, errorf(t.Span(), "%s expects %d type arguments, found %d", t.Subject, n, len(t.TypeArgs))
	}
	sub := make(map[string]ast.Type, len(ft.TypeParams))
	for i, tp := range ft.TypeParams {
		sub[tp] = t.TypeArgs[i]
	}
	return inst, ast.SubstType(&ast.FunctionType{Loc: ft.Loc, Params: ft.Params, Return: ft.Return}, sub), nil
}

func (c *Checker) synthCall(env *ast.Env, call *ast.Call) (ast.Term, ast.Type, error) {
	if lhs, rhs, ok := ast.IsEquation(call); ok {
		return c.synthEqual(env, call, lhs, rhs)
	}
	if v, ok := call.Rator.(*ast.Var); ok && v.Overloaded() {
		return c.overloadedCall(env, call, v)
	}
	rator, rty, err := c.Synth(env, call.Rator)
	if err != nil {
		return call, nil, err
	}
	return c.apply(env, call, rator, rty)
}

// overloadedCall selects the first candidate, in declaration order, that
// accepts the arguments.
func (c *Checker) overloadedCall(env *ast.Env, call *ast.Call, v *ast.Var) (ast.Term, ast.Type, error) {
	var candidates []string
	var errs []error
	for _, name := range v.Resolved {
		bind, ok := env.LookupTerm(name)
		if !ok {
			continue
		}
		candidates = append(candidates, fmt.Sprintf("%s: %s", v, bind.Type))
		nt, ty, err := c.apply(env, call, v.Resolve(name), bind.Type)
		if err == nil {
			return nt, ty, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 1 {
		return call, nil, errs[0]
	}
	return call, nil, errorf(call.Span(), "no overload of %s accepts %s\n\tcandidates:\n\t\t%s", v, call, strings.Join(candidates, "\n\t\t"))
}

func (c *Checker) apply(env *ast.Env, call *ast.Call, rator ast.Term, rty ast.Type) (ast.Term, ast.Type, error) {
	ft, ok := rty.(*ast.FunctionType)
	if !ok {
		return call, nil, errorf(call.Span(), "%s is not a function, it has type %s", call.Rator, rty)
	}
	params := ft.Params
	if len(call.Args) > 2 && len(params) == 2 && c.associative(env, rator) {
		params = make([]ast.Type, len(call.Args))
		for i := range params {
			params[i] = ft.Params[min(i, 1)]
		}
	}
	if len(call.Args) != len(params) {
		return call, nil, errorf(call.Span(), "%s expects %d arguments, found %d", call.Rator, len(params), len(call.Args))
	}
	sub := make(map[string]ast.Type, len(ft.TypeParams))
	args := make([]ast.Term, len(call.Args))
	var pending []int
	for i, a := range call.Args {
		pt := ast.SubstType(params[i], sub)
		if !mentions(pt, ft.TypeParams) {
			na, err := c.Check(env, a, pt)
			if err != nil {
				return call, nil, err
			}
			args[i] = na
			continue
		}
		na, aty, err := c.Synth(env, a)
		if err != nil {
			return call, nil, err
		}
		if !Match(ft.TypeParams, pt, aty, sub) {
			return call, nil, mismatch(a, pt, aty)
		}
		if _, unknown := aty.(*ast.GenericUnknownInst); unknown {
			pending = append(pending, i)
		}
		args[i] = na
	}
	for _, i := range pending {
		na, err := c.Check(env, call.Args[i], ast.SubstType(params[i], sub))
		if err != nil {
			return call, nil, err
		}
		args[i] = na
	}
	if len(ft.TypeParams) > 0 {
		targs := make([]ast.Type, len(ft.TypeParams))
		for i, tp := range ft.TypeParams {
			ty, ok := sub[tp]
			if !ok {
				return call, nil, errorf(call.Span(), "cannot infer type argument %s of %s", ast.BaseName(tp), call.Rator)
			}
			targs[i] = ty
		}
		rator = &ast.TermInst{Loc: call.Loc, Subject: rator, TypeArgs: targs, Inferred: true}
	}
	return &ast.Call{Loc: call.Loc, Rator: rator, Args: args}, ast.SubstType(ft.Return, sub), nil
}

func (c *Checker) associative(env *ast.Env, rator ast.Term) bool {
	v, ok := ast.StripInst(rator).(*ast.Var)
	return ok && env.IsAssociative(v.Id())
}

// synthEqual types both sides alike. A side whose type cannot stand on its
// own, such as an integer literal or an overloaded name, is checked
// against the type of the other side.
func (c *Checker) synthEqual(env *ast.Env, call *ast.Call, lhs, rhs ast.Term) (ast.Term, ast.Type, error) {
	first, second := lhs, rhs
	swapped := dependent(lhs) && !dependent(rhs)
	if swapped {
		first, second = rhs, lhs
	}
	a, aty, err := c.Synth(env, first)
	if err != nil {
		return call, nil, err
	}
	var b ast.Term
	switch aty.(type) {
	case *ast.OverloadType, *ast.GenericUnknownInst:
		var bty ast.Type
		if b, bty, err = c.Synth(env, second); err != nil {
			return call, nil, err
		}
		if a, err = c.Check(env, first, bty); err != nil {
			return call, nil, err
		}
	default:
		if b, err = c.Check(env, second, aty); err != nil {
			return call, nil, err
		}
	}
	if swapped {
		a, b = b, a
	}
	return &ast.Call{Loc: call.Loc, Rator: call.Rator, Args: []ast.Term{a, b}}, boolType(call.Span()), nil
}

func dependent(t ast.Term) bool {
	switch t := t.(type) {
	case *ast.IntLit:
		return true
	case *ast.Var:
		return t.Overloaded()
	}
	return false
}

// Check checks t against the expected type.
func (c *Checker) Check(env *ast.Env, t ast.Term, expected ast.Type) (ast.Term, error) {
	switch t := t.(type) {
	case *ast.IntLit:
		if zero, suc, ok := natural(env, expected); ok {
			if t.Value < 0 {
				return t, errorf(t.Span(), "%s is not a natural number", t)
			}
			nt := eval.Numeral(t.Span(), t.Value, ast.NewVar(t.Span(), zero), ast.NewVar(t.Span(), suc))
			c.record(env, t, nt, expected)
			return nt, nil
		}
	case *ast.Var:
		if t.Overloaded() {
			return c.checkOverloaded(env, t, expected)
		}
	case *ast.Omitted:
		return t, nil
	case *ast.Hole:
		return t, &TypeError{Span: t.Span(), Msg: "incomplete term ?", Expected: expected}
	case *ast.Lambda:
		if ft, ok := expected.(*ast.FunctionType); ok && len(ft.TypeParams) == 0 {
			return c.checkLambda(env, t, ft)
		}
	case *ast.ArrayLit:
		if at, ok := expected.(*ast.ArrayType); ok {
			elems := make([]ast.Term, len(t.Elems))
			for i, e := range t.Elems {
				ne, err := c.Check(env, e, at.Elem)
				if err != nil {
					return t, err
				}
				elems[i] = ne
			}
			return &ast.ArrayLit{Loc: t.Loc, Elems: elems}, nil
		}
	case *ast.Conditional:
		cond, err := c.Formula(env, t.Cond)
		if err != nil {
			return t, err
		}
		then, err := c.Check(env, t.Then, expected)
		if err != nil {
			return t, err
		}
		els, err := c.Check(env, t.Else, expected)
		return &ast.Conditional{Loc: t.Loc, Cond: cond, Then: then, Else: els}, err
	case *ast.Switch:
		nt, _, err := c.switchTerm(env, t, expected)
		return nt, err
	case *ast.TLet:
		rhs, rty, err := c.Synth(env, t.Rhs)
		if err != nil {
			return t, err
		}
		inner := env.DefineTerm(t.Name, ast.TermBind{Type: rty, Value: rhs, Module: c.Module})
		body, err := c.Check(inner, t.Body, expected)
		return &ast.TLet{Loc: t.Loc, Name: t.Name, Rhs: rhs, Body: body}, err
	case *ast.Mark:
		subj, err := c.Check(env, t.Subject, expected)
		return &ast.Mark{Loc: t.Loc, Subject: subj}, err
	}
	nt, ty, err := c.Synth(env, t)
	if err != nil {
		return t, err
	}
	return c.fit(env, nt, ty, expected)
}

// fit accepts a synthesized type where expected is needed, instantiating
// generic values when that makes them agree.
func (c *Checker) fit(env *ast.Env, t ast.Term, ty, expected ast.Type) (ast.Term, error) {
	switch ty := ty.(type) {
	case *ast.FunctionType:
		if len(ty.TypeParams) > 0 {
			if ft, ok := expected.(*ast.FunctionType); ok && len(ft.TypeParams) == 0 {
				sub := make(map[string]ast.Type)
				mono := &ast.FunctionType{Loc: ty.Loc, Params: ty.Params, Return: ty.Return}
				if Match(ty.TypeParams, mono, ft, sub) && len(sub) == len(ty.TypeParams) {
					return c.instantiate(t, ty.TypeParams, sub), nil
				}
			}
		}
	case *ast.GenericUnknownInst:
		if ti, ok := expected.(*ast.TypeInst); ok && ti.Typ.Id() == ty.Typ.Id() {
			return &ast.TermInst{Loc: ast.At(t.Span()), Subject: t, TypeArgs: ti.Args, Inferred: true}, nil
		}
	}
	if !compatible(expected, ty) {
		return t, mismatch(t, expected, ty)
	}
	return t, nil
}

func (c *Checker) instantiate(t ast.Term, params []string, sub map[string]ast.Type) ast.Term {
	args := make([]ast.Type, len(params))
	for i, tp := range params {
		args[i] = sub[tp]
	}
	return &ast.TermInst{Loc: ast.At(t.Span()), Subject: t, TypeArgs: args, Inferred: true}
}

func (c *Checker) checkOverloaded(env *ast.Env, v *ast.Var, expected ast.Type) (ast.Term, error) {
	var alts []string
	for _, name := range v.Resolved {
		bind, ok := env.LookupTerm(name)
		if !ok {
			continue
		}
		alts = append(alts, bind.Type.String())
		if nt, err := c.Check(env, v.Resolve(name), expected); err == nil {
			return nt, nil
		}
	}
	return v, &TypeError{
		Span:     v.Span(),
		Msg:      fmt.Sprintf("no overload of %s has the expected type\n\tcandidates: %s", v, strings.Join(alts, ", ")),
		Expected: expected,
	}
}

func (c *Checker) checkLambda(env *ast.Env, l *ast.Lambda, ft *ast.FunctionType) (ast.Term, error) {
	if len(l.Params) != len(ft.Params) {
		return l, &TypeError{Span: l.Span(), Msg: fmt.Sprintf("function takes %d parameters", len(l.Params)), Expected: ft}
	}
	params := make([]ast.Binding, len(l.Params))
	inner := env
	for i, p := range l.Params {
		switch {
		case p.Type == nil:
			p.Type = ft.Params[i]
		case !ast.TypeEqual(p.Type, ft.Params[i]):
			return l, &TypeError{Span: p.Span(), Msg: "parameter type mismatch", Expected: ft.Params[i], Actual: p.Type}
		}
		params[i] = p
		inner = inner.DeclareTerm(p.Name, p.Type)
	}
	body, err := c.Check(inner, l.Body, ft.Return)
	return &ast.Lambda{Loc: l.Loc, Params: params, Body: body}, err
}

func (c *Checker) switchTerm(env *ast.Env, s *ast.Switch, expected ast.Type) (ast.Term, ast.Type, error) {
	subj, sty, err := c.Synth(env, s.Subject)
	if err != nil {
		return s, nil, err
	}
	pats := make([]ast.Pattern, len(s.Cases))
	for i, sc := range s.Cases {
		pats[i] = sc.Pattern
	}
	pats, err = c.Cases(env, s.Span(), sty, pats, false)
	if err != nil {
		return s, nil, err
	}
	ty := expected
	cases := make([]*ast.SwitchCase, len(s.Cases))
	for i, sc := range s.Cases {
		inner, err := c.BindPattern(env, pats[i], sty)
		if err != nil {
			return s, nil, err
		}
		var body ast.Term
		if ty == nil {
			body, ty, err = c.Synth(inner, sc.Body)
		} else {
			body, err = c.Check(inner, sc.Body, ty)
		}
		if err != nil {
			return s, nil, err
		}
		cases[i] = &ast.SwitchCase{Loc: sc.Loc, Pattern: pats[i], Body: body}
	}
	return &ast.Switch{Loc: s.Loc, Subject: subj, Cases: cases}, ty, nil
}

// CheckType reports whether ty is a well-formed type in env.
func (c *Checker) CheckType(env *ast.Env, ty ast.Type) error {
	switch ty := ty.(type) {
	case nil:
		return errors.New("missing type")
	case *ast.IntType, *ast.BoolType, *ast.TypeType:
		return nil
	case *ast.Var:
		tb, ok := env.LookupType(ty.Id())
		if !ok {
			return errorf(ty.Span(), "%s is not a type", ty)
		}
		if tb.Union != nil && len(tb.Union.TypeParams) > 0 {
			return errorf(ty.Span(), "%s expects %d type arguments", ty, len(tb.Union.TypeParams))
		}
		return nil
	case *ast.TypeInst:
		tb, ok := env.LookupType(ty.Typ.Id())
		if !ok || tb.Union == nil {
			return errorf(ty.Span(), "%s is not a union", ty.Typ)
		}
		if len(tb.Union.TypeParams) != len(ty.Args) {
			return errorf(ty.Span(), "%s expects %d type arguments, found %d", ty.Typ, len(tb.Union.TypeParams), len(ty.Args))
		}
		for _, a := range ty.Args {
			if err := c.CheckType(env, a); err != nil {
				return err
			}
		}
		return nil
	case *ast.ArrayType:
		return c.CheckType(env, ty.Elem)
	case *ast.FunctionType:
		inner := env
		for _, tp := range ty.TypeParams {
			inner = inner.DeclareTypeVar(tp)
		}
		for _, p := range ty.Params {
			if err := c.CheckType(inner, p); err != nil {
				return err
			}
		}
		return c.CheckType(inner, ty.Return)
	}
	return errorf(ty.Span(), "%s is not a well-formed type", ty)
}

// UnionOf returns the union a type refers to and its type arguments.
func UnionOf(env *ast.Env, ty ast.Type) (*ast.Union, []ast.Type, bool) {
	var name string
	var args []ast.Type
	switch ty := ty.(type) {
	case *ast.Var:
		name = ty.Id()
	case *ast.TypeInst:
		name, args = ty.Typ.Id(), ty.Args
	case *ast.GenericUnknownInst:
		name = ty.Typ.Id()
	default:
		return nil, nil, false
	}
	tb, ok := env.LookupType(name)
	if !ok || tb.Union == nil {
		return nil, nil, false
	}
	return tb.Union, args, true
}

// Fields returns the field types of a constructor of u instantiated at
// the type arguments args.
func Fields(u *ast.Union, ctor *ast.Constructor, args []ast.Type) []ast.Type {
	sub := make(map[string]ast.Type, len(args))
	for i, tp := range u.TypeParams {
		if i < len(args) {
			sub[tp] = args[i]
		}
	}
	fields := make([]ast.Type, len(ctor.Params))
	for i, p := range ctor.Params {
		fields[i] = ast.SubstType(p, sub)
	}
	return fields
}

// IsRecursive reports whether a field of a constructor of u is u itself.
func IsRecursive(u *ast.Union, field ast.Type) bool {
	switch f := field.(type) {
	case *ast.Var:
		return f.Id() == u.Name
	case *ast.TypeInst:
		return f.Typ.Id() == u.Name
	}
	return false
}

func isNatural(u *ast.Union) bool {
	_, _, ok := eval.NatShaped(u)
	return ok
}

func natural(env *ast.Env, ty ast.Type) (zero, suc string, ok bool) {
	u, _, ok := UnionOf(env, ty)
	if !ok {
		return "", "", false
	}
	return eval.NatShaped(u)
}

func listElem(u *ast.Union, args []ast.Type) (ast.Type, bool) {
	if u == nil || len(u.Constructors) != 2 {
		return nil, false
	}
	var elem ast.Type
	empty := false
	for _, ctor := range u.Constructors {
		switch {
		case len(ctor.Params) == 0:
			empty = true
		case len(ctor.Params) == 2 && IsRecursive(u, ctor.Params[1]):
			elem = Fields(u, ctor, args)[0]
		}
	}
	return elem, empty && elem != nil
}
