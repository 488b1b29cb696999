package types

import (
	"errors"
	"fmt"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/eval"
)

// CheckStatement checks a top-level statement. It returns the elaborated
// statement and env extended with what the statement declares. Imports
// are the caller's business and leave env unchanged.
func (c *Checker) CheckStatement(env *ast.Env, s ast.Statement) (ast.Statement, *ast.Env, error) {
	switch s := s.(type) {
	case *ast.Union:
		return c.union(env, s)
	case *ast.RecFun:
		return c.recFun(env, s)
	case *ast.GenRecFun:
		return c.genRecFun(env, s)
	case *ast.Define:
		var body ast.Term
		var ty ast.Type
		var err error
		if s.Type != nil {
			if err := c.CheckType(env, s.Type); err != nil {
				return s, env, err
			}
			ty = s.Type
			body, err = c.Check(env, s.Body, ty)
		} else {
			body, ty, err = c.Synth(env, s.Body)
		}
		if err != nil {
			return s, env, err
		}
		nd := *s
		nd.Body, nd.Type = body, ty
		return &nd, env.DefineTerm(s.Name, ast.TermBind{Type: ty, Value: body, Private: s.Private, Opaque: s.Opaque, Module: c.Module}), nil
	case *ast.Theorem:
		f, err := c.Formula(env, s.Formula)
		if err != nil {
			return s, env, err
		}
		nt := *s
		nt.Formula = f
		return &nt, env.DeclareProof(s.Name, f, false), nil
	case *ast.Postulate:
		f, err := c.Formula(env, s.Formula)
		if err != nil {
			return s, env, err
		}
		np := *s
		np.Formula = f
		return &np, env.DeclareProof(s.Name, f, false), nil
	case *ast.Associative:
		return c.associativeDecl(env, s)
	case *ast.Auto:
		pb, ok := env.LookupProof(s.Name.Id())
		if !ok {
			return s, env, errorf(s.Span(), "%s is not a theorem", s.Name)
		}
		if _, lhs, _ := stripAll(pb.Formula); lhs == nil {
			return s, env, errorf(s.Span(), "auto %s: expected an equation, found %s", s.Name, pb.Formula)
		}
		return s, env.DeclareAuto(pb.Formula), nil
	case *ast.Module:
		c.Module = s.Name
		return s, env, nil
	case *ast.Import, *ast.Export:
		return s, env, nil
	case *ast.Assert:
		f, err := c.Formula(env, s.Formula)
		if err != nil {
			return s, env, err
		}
		return &ast.Assert{Loc: s.Loc, Formula: f}, env, nil
	case *ast.Print:
		t, _, err := c.Synth(env, s.Subject)
		if err != nil {
			return s, env, err
		}
		return &ast.Print{Loc: s.Loc, Subject: t}, env, nil
	}
	panic(fmt.Sprintf("unhandled statement %T", s))
}

func stripAll(f ast.Term) (vars []string, lhs, rhs ast.Term) {
	for {
		all, ok := f.(*ast.All)
		if !ok {
			break
		}
		vars = append(vars, all.Var.Name)
		f = all.Body
	}
	lhs, rhs, ok := ast.IsEquation(f)
	if !ok {
		return vars, nil, nil
	}
	return vars, lhs, rhs
}

func (c *Checker) union(env *ast.Env, u *ast.Union) (ast.Statement, *ast.Env, error) {
	if len(u.Constructors) == 0 {
		return u, env, errorf(u.Span(), "union %s has no constructors", ast.BaseName(u.Name))
	}
	env = env.DeclareType(u.Name, u)
	inner := env
	for _, tp := range u.TypeParams {
		inner = inner.DeclareTypeVar(tp)
	}
	var err error
	for _, ctor := range u.Constructors {
		for _, p := range ctor.Params {
			err = errors.Join(err, c.CheckType(inner, p))
		}
	}
	if err != nil {
		return u, env, err
	}
	for _, ctor := range u.Constructors {
		env = env.DefineTerm(ctor.Name, ast.TermBind{Type: ctorType(u, ctor), Ctor: u, Private: u.Private, Module: c.Module})
	}
	return u, env, nil
}

func ctorType(u *ast.Union, ctor *ast.Constructor) ast.Type {
	var self ast.Type = ast.NewVar(u.Span(), u.Name)
	if len(u.TypeParams) > 0 {
		args := make([]ast.Type, len(u.TypeParams))
		for i, tp := range u.TypeParams {
			args[i] = ast.NewVar(u.Span(), tp)
		}
		self = &ast.TypeInst{Loc: u.Loc, Typ: ast.NewVar(u.Span(), u.Name), Args: args}
	} else if len(ctor.Params) == 0 {
		return self
	}
	return &ast.FunctionType{Loc: ctor.Loc, TypeParams: u.TypeParams, Params: ctor.Params, Return: self}
}

func (c *Checker) signature(env *ast.Env, tparams []string, params []ast.Type, ret ast.Type) (*ast.Env, error) {
	for _, tp := range tparams {
		env = env.DeclareTypeVar(tp)
	}
	var err error
	for _, p := range params {
		err = errors.Join(err, c.CheckType(env, p))
	}
	return env, errors.Join(err, c.CheckType(env, ret))
}

// recFun checks that the cases of f cover the constructors of its first
// parameter exactly once, and checks each body against the return type.
func (c *Checker) recFun(env *ast.Env, f *ast.RecFun) (ast.Statement, *ast.Env, error) {
	if len(f.Params) == 0 {
		return f, env, errorf(f.Span(), "recursive function %s needs at least one parameter", f)
	}
	self := env.DefineTerm(f.Name, ast.TermBind{Type: f.Type(), Value: f, Private: f.Private, Opaque: f.Opaque, Module: c.Module})
	inner, err := c.signature(self, f.TypeParams, f.Params, f.Return)
	if err != nil {
		return f, env, err
	}
	if _, _, ok := UnionOf(inner, f.Params[0]); !ok {
		return f, env, errorf(f.Span(), "the first parameter of %s must be a union, found %s", f, f.Params[0])
	}
	pats := make([]ast.Pattern, len(f.Cases))
	for i, fc := range f.Cases {
		pats[i] = fc.Pattern
	}
	pats, err = c.Cases(inner, f.Span(), f.Params[0], pats, false)
	if err != nil {
		return f, env, fmt.Errorf("%w in %s", err, f)
	}
	cases := make([]*ast.FunCase, len(f.Cases))
	for i, fc := range f.Cases {
		if len(fc.Params) != len(f.Params)-1 {
			err = errors.Join(err, errorf(fc.Span(), "case %s of %s expects %d parameters, found %d", fc.Pattern, f, len(f.Params)-1, len(fc.Params)))
			continue
		}
		cenv, perr := c.BindPattern(inner, pats[i], f.Params[0])
		if perr != nil {
			err = errors.Join(err, perr)
			continue
		}
		for j, name := range fc.Params {
			cenv = cenv.DeclareTerm(name, f.Params[j+1])
		}
		body, berr := c.Check(cenv, fc.Body, f.Return)
		err = errors.Join(err, berr)
		cases[i] = &ast.FunCase{Loc: fc.Loc, Pattern: pats[i], Params: fc.Params, Body: body}
	}
	if err != nil {
		return f, env, err
	}
	nf := *f
	nf.Cases = cases
	bind := ast.TermBind{Type: nf.Type(), Value: &nf, Private: f.Private, Opaque: f.Opaque, Module: c.Module}
	if arithmetic(env.DefineTerm(f.Name, bind), &nf, nf.Params, nf.Return) {
		af := nf
		af.Arithmetic = true
		bind.Value = &af
		return &af, env.DefineTerm(f.Name, bind), nil
	}
	return &nf, env.DefineTerm(f.Name, bind), nil
}

// arithmetic reports whether f may be evaluated by the numeral fast path.
// env binds f itself.
func arithmetic(env *ast.Env, f ast.Term, params []ast.Type, ret ast.Type) bool {
	if len(params) != 2 {
		return false
	}
	zero, suc, ok := natural(env, ret)
	if !ok {
		return false
	}
	for _, p := range params {
		if z, _, ok := natural(env, p); !ok || z != zero {
			return false
		}
	}
	return eval.Arithmetic(env, f, zero, suc)
}

func (c *Checker) genRecFun(env *ast.Env, f *ast.GenRecFun) (ast.Statement, *ast.Env, error) {
	ft := f.Type()
	self := env.DefineTerm(f.Name, ast.TermBind{Type: ft, Value: f, Private: f.Private, Opaque: f.Opaque, Module: c.Module})
	inner, err := c.signature(self, f.TypeParams, ft.Params, f.Return)
	if err != nil {
		return f, env, err
	}
	for _, p := range f.Params {
		inner = inner.DeclareTerm(p.Name, p.Type)
	}
	body, err := c.Check(inner, f.Body, f.Return)
	if err != nil {
		return f, env, err
	}
	var measure ast.Term
	mty := f.MeasureType
	if mty != nil {
		if err := c.CheckType(inner, mty); err != nil {
			return f, env, err
		}
		measure, err = c.Check(inner, f.Measure, mty)
	} else {
		measure, mty, err = c.Synth(inner, f.Measure)
	}
	if err != nil {
		return f, env, err
	}
	nf := *f
	nf.Body, nf.Measure, nf.MeasureType = body, measure, mty
	nf.Obligation, err = c.obligation(inner, &nf)
	if err != nil {
		return f, env, err
	}
	bind := ast.TermBind{Type: ft, Value: &nf, Private: f.Private, Opaque: f.Opaque, Module: c.Module}
	if arithmetic(env.DefineTerm(f.Name, bind), &nf, ft.Params, f.Return) {
		af := nf
		af.Arithmetic = true
		bind.Value = &af
		return &af, env.DefineTerm(f.Name, bind), nil
	}
	return &nf, env.DefineTerm(f.Name, bind), nil
}

func (c *Checker) associativeDecl(env *ast.Env, s *ast.Associative) (ast.Statement, *ast.Env, error) {
	inner := env
	for _, tp := range s.TypeParams {
		inner = inner.DeclareTypeVar(tp)
	}
	if err := c.CheckType(inner, s.Typ); err != nil {
		return s, env, err
	}
	want := &ast.FunctionType{Loc: s.Loc, Params: []ast.Type{s.Typ, s.Typ}, Return: s.Typ}
	names := s.Operator.Resolved
	if len(names) == 0 {
		names = []string{s.Operator.Name}
	}
	for _, name := range names {
		bind, ok := env.LookupTerm(name)
		if !ok {
			continue
		}
		ft, ok := bind.Type.(*ast.FunctionType)
		if !ok {
			continue
		}
		mono := &ast.FunctionType{Loc: ft.Loc, Params: ft.Params, Return: ft.Return}
		if Match(ft.TypeParams, mono, want, make(map[string]ast.Type)) {
			if prev, ok := env.AssociativeAt(name); ok {
				if ast.TypeEqual(prev, s.Typ) {
					return s, env, nil
				}
				return s, env, errorf(s.Span(), "%s is already associative in %s", s.Operator, prev)
			}
			ns := *s
			ns.Operator = s.Operator.Resolve(name)
			return &ns, env.DeclareAssociative(name, s.Typ), nil
		}
	}
	return s, env, errorf(s.Span(), "%s is not a binary operator on %s", s.Operator, s.Typ)
}
