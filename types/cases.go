package types

import (
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
)

// Cases checks that pats cover every value of subj exactly once and
// returns them with their constructors resolved. When ordered is set, the
// cases of a union must follow the order of its constructors.
func (c *Checker) Cases(env *ast.Env, span lexer.Span, subj ast.Type, pats []ast.Pattern, ordered bool) ([]ast.Pattern, error) {
	if _, ok := subj.(*ast.BoolType); ok {
		return boolCases(span, pats)
	}
	u, _, ok := UnionOf(env, subj)
	if !ok {
		return nil, errorf(span, "cannot do case analysis on a value of type %s", subj)
	}
	out := make([]ast.Pattern, len(pats))
	used := make(map[string]bool, len(u.Constructors))
	for i, p := range pats {
		pc, ok := p.(*ast.PatternCons)
		if !ok {
			return nil, errorf(p.Span(), "expected a constructor of %s, found %s", ast.BaseName(u.Name), p)
		}
		ctor := CtorOf(u, pc.Constructor)
		if ctor == nil {
			return nil, errorf(p.Span(), "%s is not a constructor of %s", pc.Constructor, ast.BaseName(u.Name))
		}
		if used[ctor.Name] {
			return nil, errorf(p.Span(), "duplicate case for %s", ast.BaseName(ctor.Name))
		}
		if ordered && i < len(u.Constructors) && u.Constructors[i] != ctor && !used[u.Constructors[i].Name] {
			want := u.Constructors[i]
			return nil, errorf(p.Span(), "expected case for %s, found case for %s", ast.BaseName(want.Name), ast.BaseName(ctor.Name))
		}
		if len(pc.Params) != len(ctor.Params) {
			return nil, errorf(p.Span(), "case %s expects %d parameters, found %d", ast.BaseName(ctor.Name), len(ctor.Params), len(pc.Params))
		}
		used[ctor.Name] = true
		out[i] = &ast.PatternCons{Loc: pc.Loc, Constructor: pc.Constructor.Resolve(ctor.Name), Params: pc.Params}
	}
	for _, ctor := range u.Constructors {
		if !used[ctor.Name] {
			return nil, errorf(span, "missing case for %s", ast.BaseName(ctor.Name))
		}
	}
	return out, nil
}

func boolCases(span lexer.Span, pats []ast.Pattern) ([]ast.Pattern, error) {
	seen := make(map[bool]bool, 2)
	for _, p := range pats {
		pb, ok := p.(*ast.PatternBool)
		if !ok {
			return nil, errorf(p.Span(), "expected true or false, found %s", p)
		}
		if seen[pb.Value] {
			return nil, errorf(p.Span(), "duplicate case for %s", pb)
		}
		seen[pb.Value] = true
	}
	for _, v := range []bool{true, false} {
		if !seen[v] {
			return nil, errorf(span, "missing case for %t", v)
		}
	}
	return pats, nil
}

// CtorOf finds the constructor of u a possibly overloaded reference names.
func CtorOf(u *ast.Union, ref *ast.Var) *ast.Constructor {
	names := ref.Resolved
	if len(names) == 0 {
		names = []string{ref.Name}
	}
	for _, name := range names {
		for _, ctor := range u.Constructors {
			if ctor.Name == name {
				return ctor
			}
		}
	}
	return nil
}

// BindPattern declares the parameters of a resolved pattern with the field
// types of its constructor.
func (c *Checker) BindPattern(env *ast.Env, p ast.Pattern, subj ast.Type) (*ast.Env, error) {
	pc, ok := p.(*ast.PatternCons)
	if !ok {
		return env, nil
	}
	u, args, ok := UnionOf(env, subj)
	if !ok {
		return env, errorf(p.Span(), "cannot match %s against a value of type %s", p, subj)
	}
	ctor := CtorOf(u, pc.Constructor)
	if ctor == nil {
		return env, errorf(p.Span(), "%s is not a constructor of %s", pc.Constructor, ast.BaseName(u.Name))
	}
	for i, ty := range Fields(u, ctor, args) {
		env = env.DeclareTerm(pc.Params[i], ty)
	}
	return env, nil
}
