package names

import (
	"errors"
	"fmt"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
)

// Resolver gives every binder a unique name and resolves every reference
// to its candidate definitions. It rewrites the statements in place.
type Resolver struct {
	// Import loads a module and returns the names it exports.
	Import   func(name string) (Exports, error)
	Warnings []ShadowWarning

	scope   *Scope
	exports Exports
	err     error
}

func NewResolver(importer func(string) (Exports, error)) *Resolver {
	return &Resolver{
		Import:  importer,
		scope:   NewScope(nil),
		exports: make(Exports),
	}
}

// Exports is the scope recorded for importers of the resolved module:
// its non-private declarations, public imports and exported names.
func (r *Resolver) Exports() Exports {
	return r.exports
}

func (r *Resolver) appErr(err error) {
	r.err = errors.Join(r.err, err)
}

// Uniquify renames stmts, which are the top-level statements of one module.
func (r *Resolver) Uniquify(stmts []ast.Statement) error {
	for _, s := range stmts {
		r.statement(s)
	}
	return r.err
}

func (r *Resolver) declare(span lexer.Span, name string, kind Kind, private bool) string {
	fresh := ast.Fresh(name)
	c := Candidate{Name: fresh, Kind: kind}
	switch kind {
	case Function:
		if live, ok := r.scope.LookupStack(name); ok {
			for _, l := range live {
				if l.Kind == Union || l.Kind == Theorem {
					r.appErr(&OverloadError{Span: span, Name: name, Kind: l.Kind})
					return fresh
				}
			}
		}
		r.scope.extend(name, c)
		if !private {
			r.exports.add(name, c)
		}
	default:
		if r.scope.overwrite(name, c) {
			r.Warnings = append(r.Warnings, ShadowWarning{Span: span, Name: name})
		}
		if !private {
			r.exports[name] = []Candidate{c}
		}
	}
	return fresh
}

func (r *Resolver) statement(s ast.Statement) {
	switch s := s.(type) {
	case *ast.Union:
		name := s.Name
		s.Name = r.declare(s.Span(), name, Union, s.Private)
		inner := r.scope.AddScope()
		s.TypeParams = r.bindTypeParams(inner, s.TypeParams)
		for _, c := range s.Constructors {
			for i, p := range c.Params {
				c.Params[i] = r.typ(inner, p)
			}
			c.Name = r.declare(c.Span(), c.Name, Function, s.Private)
		}
	case *ast.RecFun:
		s.Name = r.declare(s.Span(), s.Name, Function, s.Private)
		inner := r.scope.AddScope()
		s.TypeParams = r.bindTypeParams(inner, s.TypeParams)
		for i, p := range s.Params {
			s.Params[i] = r.typ(inner, p)
		}
		s.Return = r.typ(inner, s.Return)
		for _, c := range s.Cases {
			caseScope := inner.AddScope()
			r.pattern(caseScope, c.Pattern)
			c.Params = r.bindAll(caseScope, c.Params, Term)
			c.Body = r.term(caseScope, c.Body)
		}
	case *ast.GenRecFun:
		s.Name = r.declare(s.Span(), s.Name, Function, s.Private)
		inner := r.scope.AddScope()
		s.TypeParams = r.bindTypeParams(inner, s.TypeParams)
		for i := range s.Params {
			s.Params[i].Type = r.typ(inner, s.Params[i].Type)
		}
		s.Return = r.typ(inner, s.Return)
		s.MeasureType = r.typ(inner, s.MeasureType)
		for i := range s.Params {
			s.Params[i].Name = r.bindOne(inner, s.Params[i].Name, Term)
		}
		s.Body = r.term(inner, s.Body)
		s.Measure = r.term(inner, s.Measure)
		if s.Terminates != nil {
			s.Terminates = r.proof(r.scope, s.Terminates)
		}
	case *ast.Define:
		if s.Type != nil {
			s.Type = r.typ(r.scope, s.Type)
		}
		s.Body = r.term(r.scope, s.Body)
		s.Name = r.declare(s.Span(), s.Name, Function, s.Private)
	case *ast.Theorem:
		s.Formula = r.term(r.scope, s.Formula)
		if s.Proof != nil {
			s.Proof = r.proof(r.scope, s.Proof)
		}
		s.Name = r.declare(s.Span(), s.Name, Theorem, s.Private)
	case *ast.Postulate:
		s.Formula = r.term(r.scope, s.Formula)
		s.Name = r.declare(s.Span(), s.Name, Theorem, s.Private)
	case *ast.Import:
		r.importModule(s)
	case *ast.Associative:
		inner := r.scope.AddScope()
		s.TypeParams = r.bindTypeParams(inner, s.TypeParams)
		r.ref(inner, s.Operator)
		s.Typ = r.typ(inner, s.Typ)
	case *ast.Auto:
		r.ref(r.scope, s.Name)
	case *ast.Module:
	case *ast.Export:
		if r.ref(r.scope, s.Name) {
			cs, _ := r.scope.LookupStack(s.Name.Name)
			r.exports.add(s.Name.Name, cs...)
		}
	case *ast.Assert:
		s.Formula = r.term(r.scope, s.Formula)
	case *ast.Print:
		s.Subject = r.term(r.scope, s.Subject)
	default:
		panic(fmt.Sprintf("unhandled statement %T", s))
	}
}

func (r *Resolver) importModule(s *ast.Import) {
	if r.Import == nil {
		r.appErr(fmt.Errorf("%s: cannot import %s: no importer", s.Span(), s.Name))
		return
	}
	exports, err := r.Import(s.Name)
	if err != nil {
		r.appErr(fmt.Errorf("%s: import %s: %w", s.Span(), s.Name, err))
		return
	}
	for name, cs := range exports {
		for _, c := range cs {
			if c.Kind == Function {
				r.scope.extend(name, c)
			} else {
				r.scope.overwrite(name, c)
			}
		}
		if s.Public {
			r.exports.add(name, cs...)
		}
	}
}

func (r *Resolver) bindOne(scope *Scope, name string, kind Kind) string {
	if name == "" || name == "_" {
		return name
	}
	fresh := ast.Fresh(name)
	scope.bind(name, Candidate{Name: fresh, Kind: kind})
	return fresh
}

func (r *Resolver) bindAll(scope *Scope, names []string, kind Kind) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.bindOne(scope, n, kind)
	}
	return out
}

func (r *Resolver) bindTypeParams(scope *Scope, names []string) []string {
	return r.bindAll(scope, names, TypeVar)
}

// ref resolves a reference in place, reporting whether it was found.
func (r *Resolver) ref(scope *Scope, v *ast.Var) bool {
	if v.Name == ast.Equality {
		v.Resolved = []string{ast.Equality}
		return true
	}
	cs, ok := scope.LookupStack(v.Name)
	if !ok || len(cs) == 0 {
		r.appErr(&UndefinedError{Span: v.Span(), Name: v.Name, Suggestions: suggest(v.Name, scope.Names())})
		return false
	}
	v.Resolved = make([]string, len(cs))
	for i, c := range cs {
		v.Resolved[i] = c.Name
	}
	return true
}

func (r *Resolver) typ(scope *Scope, t ast.Type) ast.Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *ast.Var:
		r.ref(scope, t)
	case *ast.TypeInst:
		r.ref(scope, t.Typ)
		for i, a := range t.Args {
			t.Args[i] = r.typ(scope, a)
		}
	case *ast.FunctionType:
		inner := scope
		if len(t.TypeParams) > 0 {
			inner = scope.AddScope()
			t.TypeParams = r.bindTypeParams(inner, t.TypeParams)
		}
		for i, p := range t.Params {
			t.Params[i] = r.typ(inner, p)
		}
		t.Return = r.typ(inner, t.Return)
	case *ast.ArrayType:
		t.Elem = r.typ(scope, t.Elem)
	}
	return t
}

func (r *Resolver) binding(scope *Scope, b *ast.Binding, kind Kind) *Scope {
	b.Type = r.typ(scope, b.Type)
	inner := scope.AddScope()
	if _, ok := b.Type.(*ast.TypeType); ok {
		kind = TypeVar
	}
	b.Name = r.bindOne(inner, b.Name, kind)
	return inner
}

func (r *Resolver) pattern(scope *Scope, p ast.Pattern) {
	if p, ok := p.(*ast.PatternCons); ok {
		r.ref(scope, p.Constructor)
		p.Params = r.bindAll(scope, p.Params, Term)
	}
}

func (r *Resolver) terms(scope *Scope, ts []ast.Term) {
	for i, t := range ts {
		ts[i] = r.term(scope, t)
	}
}

func (r *Resolver) term(scope *Scope, t ast.Term) ast.Term {
	switch t := t.(type) {
	case nil:
		return nil
	case *ast.Var:
		r.ref(scope, t)
	case *ast.IntLit, *ast.BoolLit, *ast.Hole, *ast.Omitted:
	case *ast.And:
		r.terms(scope, t.Args)
	case *ast.Or:
		r.terms(scope, t.Args)
	case *ast.IfThen:
		t.Premise = r.term(scope, t.Premise)
		t.Conclusion = r.term(scope, t.Conclusion)
	case *ast.All:
		t.Body = r.term(r.binding(scope, &t.Var, Term), t.Body)
	case *ast.Some:
		t.Body = r.term(r.binding(scope, &t.Var, Term), t.Body)
	case *ast.Conditional:
		t.Cond = r.term(scope, t.Cond)
		t.Then = r.term(scope, t.Then)
		t.Else = r.term(scope, t.Else)
	case *ast.Switch:
		t.Subject = r.term(scope, t.Subject)
		for _, c := range t.Cases {
			inner := scope.AddScope()
			r.pattern(inner, c.Pattern)
			c.Body = r.term(inner, c.Body)
		}
	case *ast.Call:
		t.Rator = r.term(scope, t.Rator)
		r.terms(scope, t.Args)
	case *ast.Lambda:
		inner := scope
		for i := range t.Params {
			inner = r.binding(inner, &t.Params[i], Term)
		}
		t.Body = r.term(inner, t.Body)
	case *ast.Generic:
		inner := scope.AddScope()
		t.TypeParams = r.bindTypeParams(inner, t.TypeParams)
		t.Body = r.term(inner, t.Body)
	case *ast.TermInst:
		t.Subject = r.term(scope, t.Subject)
		for i, a := range t.TypeArgs {
			t.TypeArgs[i] = r.typ(scope, a)
		}
	case *ast.TLet:
		t.Rhs = r.term(scope, t.Rhs)
		inner := scope.AddScope()
		t.Name = r.bindOne(inner, t.Name, Term)
		t.Body = r.term(inner, t.Body)
	case *ast.ArrayLit:
		r.terms(scope, t.Elems)
	case *ast.MakeArray:
		t.List = r.term(scope, t.List)
	case *ast.ArrayGet:
		t.Array = r.term(scope, t.Array)
		t.Index = r.term(scope, t.Index)
	case *ast.Mark:
		t.Subject = r.term(scope, t.Subject)
	default:
		panic(fmt.Sprintf("unhandled term %T", t))
	}
	return t
}

func (r *Resolver) proofs(scope *Scope, ps []ast.Proof) {
	for i, p := range ps {
		ps[i] = r.proof(scope, p)
	}
}

func (r *Resolver) proof(scope *Scope, p ast.Proof) ast.Proof {
	switch p := p.(type) {
	case nil:
		return nil
	case *ast.PVar:
		r.ref(scope, p.Ref)
	case *ast.PTrue, *ast.PHole, *ast.PSorry, *ast.PReflexive:
	case *ast.PLet:
		p.Formula = r.term(scope, p.Formula)
		p.Because = r.proof(scope, p.Because)
		inner := scope.AddScope()
		p.Label = r.bindOne(inner, p.Label, Label)
		p.Body = r.proof(inner, p.Body)
	case *ast.PAnnot:
		p.Claim = r.term(scope, p.Claim)
		p.Reason = r.proof(scope, p.Reason)
	case *ast.Suffices:
		p.Claim = r.term(scope, p.Claim)
		p.Reason = r.proof(scope, p.Reason)
		p.Body = r.proof(scope, p.Body)
	case *ast.PTuple:
		r.proofs(scope, p.Args)
	case *ast.PAndElim:
		p.Subject = r.proof(scope, p.Subject)
	case *ast.ImpIntro:
		p.Premise = r.term(scope, p.Premise)
		inner := scope.AddScope()
		p.Label = r.bindOne(inner, p.Label, Label)
		p.Body = r.proof(inner, p.Body)
	case *ast.ModusPonens:
		p.Implication = r.proof(scope, p.Implication)
		p.Arg = r.proof(scope, p.Arg)
	case *ast.AllIntro:
		p.Body = r.proof(r.binding(scope, &p.Var, Term), p.Body)
	case *ast.AllElim:
		p.Univ = r.proof(scope, p.Univ)
		r.terms(scope, p.Args)
	case *ast.AllElimTypes:
		p.Univ = r.proof(scope, p.Univ)
		for i, t := range p.Types {
			p.Types[i] = r.typ(scope, t)
		}
	case *ast.SomeIntro:
		r.terms(scope, p.Witnesses)
		p.Body = r.proof(scope, p.Body)
	case *ast.SomeElim:
		p.Some = r.proof(scope, p.Some)
		inner := scope.AddScope()
		p.Witnesses = r.bindAll(inner, p.Witnesses, Term)
		p.Prop = r.term(inner, p.Prop)
		p.Label = r.bindOne(inner, p.Label, Label)
		p.Body = r.proof(inner, p.Body)
	case *ast.Cases:
		p.Subject = r.proof(scope, p.Subject)
		for _, c := range p.Cases {
			c.Prop = r.term(scope, c.Prop)
			inner := scope.AddScope()
			c.Label = r.bindOne(inner, c.Label, Label)
			c.Body = r.proof(inner, c.Body)
		}
	case *ast.Induction:
		p.Typ = r.typ(scope, p.Typ)
		for _, c := range p.Cases {
			inner := scope.AddScope()
			r.pattern(inner, c.Pattern)
			for i := range c.Hyps {
				c.Hyps[i].Prop = r.term(inner, c.Hyps[i].Prop)
			}
			for i := range c.Hyps {
				c.Hyps[i].Label = r.bindOne(inner, c.Hyps[i].Label, Label)
			}
			c.Body = r.proof(inner, c.Body)
		}
	case *ast.SwitchProof:
		p.Subject = r.term(scope, p.Subject)
		for _, c := range p.Cases {
			inner := scope.AddScope()
			r.pattern(inner, c.Pattern)
			c.Prop = r.term(inner, c.Prop)
			c.Label = r.bindOne(inner, c.Label, Label)
			c.Body = r.proof(inner, c.Body)
		}
	case *ast.RewriteGoal:
		r.proofs(scope, p.Equations)
		p.Body = r.proof(scope, p.Body)
	case *ast.RewriteFact:
		r.proofs(scope, p.Equations)
		p.Subject = r.proof(scope, p.Subject)
	case *ast.ApplyDefsGoal:
		for _, d := range p.Defs {
			r.ref(scope, d)
		}
		p.Body = r.proof(scope, p.Body)
	case *ast.ApplyDefsFact:
		for _, d := range p.Defs {
			r.ref(scope, d)
		}
		p.Subject = r.proof(scope, p.Subject)
	case *ast.EvaluateGoal:
		p.Body = r.proof(scope, p.Body)
	case *ast.EvaluateFact:
		p.Subject = r.proof(scope, p.Subject)
	case *ast.PSymmetric:
		p.Body = r.proof(scope, p.Body)
	case *ast.PTransitive:
		p.First = r.proof(scope, p.First)
		p.Second = r.proof(scope, p.Second)
	case *ast.PInjective:
		r.ref(scope, p.Constructor)
		p.Body = r.proof(scope, p.Body)
	case *ast.PExtensionality:
		p.Body = r.proof(scope, p.Body)
	case *ast.PRecall:
		r.terms(scope, p.Facts)
	case *ast.PTLet:
		p.Rhs = r.term(scope, p.Rhs)
		inner := scope.AddScope()
		p.Name = r.bindOne(inner, p.Name, Term)
		p.Body = r.proof(inner, p.Body)
	default:
		panic(fmt.Sprintf("unhandled proof %T", p))
	}
	return p
}
