package types

import (
	"github.com/smasher164/deduce/ast"
	"golang.org/x/exp/slices"
)

// Match binds the type parameters params so that pattern equals actual,
// extending subst. It fails when a parameter would be bound to two
// different types or when the structure of the types disagrees.
func Match(params []string, pattern, actual ast.Type, subst map[string]ast.Type) bool {
	switch p := pattern.(type) {
	case *ast.Var:
		if slices.Contains(params, p.Id()) {
			if prev, ok := subst[p.Id()]; ok {
				return compatible(prev, actual)
			}
			if _, unknown := actual.(*ast.GenericUnknownInst); unknown {
				return true
			}
			subst[p.Id()] = actual
			return true
		}
		a, ok := actual.(*ast.Var)
		return ok && a.Id() == p.Id()
	case *ast.TypeInst:
		switch a := actual.(type) {
		case *ast.TypeInst:
			if a.Typ.Id() != p.Typ.Id() || len(a.Args) != len(p.Args) {
				return false
			}
			for i := range p.Args {
				if !Match(params, p.Args[i], a.Args[i], subst) {
					return false
				}
			}
			return true
		case *ast.GenericUnknownInst:
			return a.Typ.Id() == p.Typ.Id()
		}
		return false
	case *ast.ArrayType:
		a, ok := actual.(*ast.ArrayType)
		return ok && Match(params, p.Elem, a.Elem, subst)
	case *ast.FunctionType:
		a, ok := actual.(*ast.FunctionType)
		if !ok || len(a.Params) != len(p.Params) || len(a.TypeParams) != len(p.TypeParams) {
			return false
		}
		for i := range p.Params {
			if !Match(params, p.Params[i], a.Params[i], subst) {
				return false
			}
		}
		return Match(params, p.Return, a.Return, subst)
	}
	return compatible(pattern, actual)
}

// compatible is type equality, except that a generic constructor of
// unknown instantiation fits any instance of its union.
func compatible(expected, actual ast.Type) bool {
	if ast.TypeEqual(expected, actual) {
		return true
	}
	switch a := actual.(type) {
	case *ast.GenericUnknownInst:
		switch e := expected.(type) {
		case *ast.TypeInst:
			return e.Typ.Id() == a.Typ.Id()
		case *ast.GenericUnknownInst:
			return e.Typ.Id() == a.Typ.Id()
		}
	case *ast.TypeInst:
		if e, ok := expected.(*ast.GenericUnknownInst); ok {
			return e.Typ.Id() == a.Typ.Id()
		}
	}
	return false
}

// mentions reports whether ty refers to any of the type parameters.
func mentions(ty ast.Type, params []string) bool {
	if len(params) == 0 || ty == nil {
		return false
	}
	fv := ast.FreeTypeVars(ty)
	return slices.ContainsFunc(params, fv.Contains)
}
