package ast

import (
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FreeVars returns the resolved names of the term variables occurring free
// in t.
func FreeVars(t Term) *set.Set[string] {
	fv := set.New[string](8)
	freeVars(t, set.New[string](0), fv)
	return fv
}

// Occurs reports whether name occurs free in t.
func Occurs(name string, t Term) bool {
	return FreeVars(t).Contains(name)
}

func bindAll(bound *set.Set[string], names ...string) *set.Set[string] {
	inner := bound.Copy()
	inner.InsertSlice(names)
	return inner
}

func freeVars(t Term, bound, fv *set.Set[string]) {
	switch t := t.(type) {
	case *Var:
		if !bound.Contains(t.Id()) {
			fv.Insert(t.Id())
		}
	case *RecFun:
		if !bound.Contains(t.Name) {
			fv.Insert(t.Name)
		}
	case *GenRecFun:
		if !bound.Contains(t.Name) {
			fv.Insert(t.Name)
		}
	case *All:
		freeVars(t.Body, bindAll(bound, t.Var.Name), fv)
	case *Some:
		freeVars(t.Body, bindAll(bound, t.Var.Name), fv)
	case *Lambda:
		names := make([]string, len(t.Params))
		for i, p := range t.Params {
			names[i] = p.Name
		}
		freeVars(t.Body, bindAll(bound, names...), fv)
	case *TLet:
		freeVars(t.Rhs, bound, fv)
		freeVars(t.Body, bindAll(bound, t.Name), fv)
	case *Switch:
		freeVars(t.Subject, bound, fv)
		for _, c := range t.Cases {
			inner := bound
			if p, ok := c.Pattern.(*PatternCons); ok {
				fv.Insert(p.Constructor.Id())
				inner = bindAll(bound, p.Params...)
			}
			freeVars(c.Body, inner, fv)
		}
	default:
		MapTerm(t, func(c Term) Term {
			freeVars(c, bound, fv)
			return c
		})
	}
}

// FreeTypeVars returns the type variables of ty not bound by a function
// type's parameters.
func FreeTypeVars(ty Type) *set.Set[string] {
	fv := set.New[string](4)
	freeTypeVars(ty, set.New[string](0), fv)
	return fv
}

func freeTypeVars(ty Type, bound, fv *set.Set[string]) {
	switch ty := ty.(type) {
	case *Var:
		if !bound.Contains(ty.Id()) {
			fv.Insert(ty.Id())
		}
	case *ArrayType:
		freeTypeVars(ty.Elem, bound, fv)
	case *TypeInst:
		freeTypeVars(ty.Typ, bound, fv)
		for _, a := range ty.Args {
			freeTypeVars(a, bound, fv)
		}
	case *FunctionType:
		inner := bindAll(bound, ty.TypeParams...)
		for _, p := range ty.Params {
			freeTypeVars(p, inner, fv)
		}
		freeTypeVars(ty.Return, inner, fv)
	case *GenericUnknownInst:
		freeTypeVars(ty.Typ, bound, fv)
	}
}

// MapTerm rebuilds t with f applied to each immediate subterm. Binders are
// kept as they are. The original node is returned when nothing changed.
func MapTerm(t Term, f func(Term) Term) Term {
	mapAll := func(ts []Term) ([]Term, bool) {
		var out []Term
		for i, c := range ts {
			nc := f(c)
			if nc != c && out == nil {
				out = slices.Clone(ts)
			}
			if out != nil {
				out[i] = nc
			}
		}
		if out == nil {
			return ts, false
		}
		return out, true
	}
	switch t := t.(type) {
	case *And:
		if args, ok := mapAll(t.Args); ok {
			return &And{Loc: t.Loc, Args: args}
		}
	case *Or:
		if args, ok := mapAll(t.Args); ok {
			return &Or{Loc: t.Loc, Args: args}
		}
	case *IfThen:
		p, c := f(t.Premise), f(t.Conclusion)
		if p != t.Premise || c != t.Conclusion {
			return &IfThen{Loc: t.Loc, Premise: p, Conclusion: c}
		}
	case *All:
		if b := f(t.Body); b != t.Body {
			return &All{Loc: t.Loc, Var: t.Var, Pos: t.Pos, Body: b}
		}
	case *Some:
		if b := f(t.Body); b != t.Body {
			return &Some{Loc: t.Loc, Var: t.Var, Pos: t.Pos, Body: b}
		}
	case *Conditional:
		c, th, el := f(t.Cond), f(t.Then), f(t.Else)
		if c != t.Cond || th != t.Then || el != t.Else {
			return &Conditional{Loc: t.Loc, Cond: c, Then: th, Else: el}
		}
	case *Switch:
		subj := f(t.Subject)
		changed := subj != t.Subject
		cases := make([]*SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			b := f(c.Body)
			if b != c.Body {
				changed = true
				cases[i] = &SwitchCase{Loc: c.Loc, Pattern: c.Pattern, Body: b}
			} else {
				cases[i] = c
			}
		}
		if changed {
			return &Switch{Loc: t.Loc, Subject: subj, Cases: cases}
		}
	case *Call:
		rator := f(t.Rator)
		args, ok := mapAll(t.Args)
		if ok || rator != t.Rator {
			return &Call{Loc: t.Loc, Rator: rator, Args: args}
		}
	case *Lambda:
		if b := f(t.Body); b != t.Body {
			return &Lambda{Loc: t.Loc, Params: t.Params, Body: b}
		}
	case *Generic:
		if b := f(t.Body); b != t.Body {
			return &Generic{Loc: t.Loc, TypeParams: t.TypeParams, Body: b}
		}
	case *TermInst:
		if s := f(t.Subject); s != t.Subject {
			return &TermInst{Loc: t.Loc, Subject: s, TypeArgs: t.TypeArgs, Inferred: t.Inferred}
		}
	case *TLet:
		r, b := f(t.Rhs), f(t.Body)
		if r != t.Rhs || b != t.Body {
			return &TLet{Loc: t.Loc, Name: t.Name, Rhs: r, Body: b}
		}
	case *ArrayLit:
		if elems, ok := mapAll(t.Elems); ok {
			return &ArrayLit{Loc: t.Loc, Elems: elems}
		}
	case *MakeArray:
		if l := f(t.List); l != t.List {
			return &MakeArray{Loc: t.Loc, List: l}
		}
	case *ArrayGet:
		a, i := f(t.Array), f(t.Index)
		if a != t.Array || i != t.Index {
			return &ArrayGet{Loc: t.Loc, Array: a, Index: i}
		}
	case *Mark:
		if s := f(t.Subject); s != t.Subject {
			return &Mark{Loc: t.Loc, Subject: s}
		}
	}
	return t
}

// Subst replaces the free occurrences of the variables in sub. Binders that
// would capture a free variable of a replacement are renamed.
func Subst(t Term, sub map[string]Term) Term {
	if len(sub) == 0 {
		return t
	}
	return newSubstituter(sub, nil).term(t)
}

// Subst1 replaces a single variable.
func Subst1(t Term, name string, with Term) Term {
	return Subst(t, map[string]Term{name: with})
}

// SubstTypes replaces type variables in the annotations of t.
func SubstTypes(t Term, sub map[string]Type) Term {
	if len(sub) == 0 {
		return t
	}
	return newSubstituter(nil, sub).term(t)
}

type substituter struct {
	terms map[string]Term
	types map[string]Type
	fv    *set.Set[string]
}

func newSubstituter(terms map[string]Term, types map[string]Type) *substituter {
	fv := set.New[string](len(terms))
	for _, r := range terms {
		fv.InsertSet(FreeVars(r))
	}
	return &substituter{terms: terms, types: types, fv: fv}
}

// bind enters the scope of binders, returning the substituter for their
// body and their possibly renamed names.
func (s *substituter) bind(names []string) (*substituter, []string) {
	child, out := s, names
	copied := false
	cp := func() {
		if !copied {
			child = &substituter{terms: maps.Clone(s.terms), types: s.types, fv: s.fv}
			if child.terms == nil {
				child.terms = make(map[string]Term)
			}
			out = slices.Clone(names)
			copied = true
		}
	}
	for i, n := range names {
		if _, ok := s.terms[n]; ok {
			cp()
			delete(child.terms, n)
		}
		if s.fv.Contains(n) {
			cp()
			fresh := Fresh(n)
			out[i] = fresh
			child.terms[n] = &Var{Name: fresh, Resolved: []string{fresh}}
		}
	}
	return child, out
}

func (s *substituter) bindTypes(names []string) *substituter {
	for _, n := range names {
		if _, ok := s.types[n]; ok {
			return &substituter{terms: s.terms, types: without(s.types, names), fv: s.fv}
		}
	}
	return s
}

func (s *substituter) typ(t Type) Type {
	return SubstType(t, s.types)
}

func (s *substituter) binding(b Binding, name string) Binding {
	return Binding{Loc: b.Loc, Name: name, Type: s.typ(b.Type)}
}

func (s *substituter) term(t Term) Term {
	switch t := t.(type) {
	case *Var:
		if r, ok := s.terms[t.Id()]; ok {
			return r
		}
		return t
	case *RecFun, *GenRecFun:
		return t
	case *All:
		inner, names := s.bind([]string{t.Var.Name})
		return &All{Loc: t.Loc, Var: s.binding(t.Var, names[0]), Pos: t.Pos, Body: inner.term(t.Body)}
	case *Some:
		inner, names := s.bind([]string{t.Var.Name})
		return &Some{Loc: t.Loc, Var: s.binding(t.Var, names[0]), Pos: t.Pos, Body: inner.term(t.Body)}
	case *Lambda:
		names := make([]string, len(t.Params))
		for i, p := range t.Params {
			names[i] = p.Name
		}
		inner, names := s.bind(names)
		params := make([]Binding, len(t.Params))
		for i, p := range t.Params {
			params[i] = s.binding(p, names[i])
		}
		return &Lambda{Loc: t.Loc, Params: params, Body: inner.term(t.Body)}
	case *Generic:
		inner := s.bindTypes(t.TypeParams)
		return &Generic{Loc: t.Loc, TypeParams: t.TypeParams, Body: inner.term(t.Body)}
	case *TermInst:
		args := make([]Type, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = s.typ(a)
		}
		return &TermInst{Loc: t.Loc, Subject: s.term(t.Subject), TypeArgs: args, Inferred: t.Inferred}
	case *TLet:
		inner, names := s.bind([]string{t.Name})
		return &TLet{Loc: t.Loc, Name: names[0], Rhs: s.term(t.Rhs), Body: inner.term(t.Body)}
	case *Switch:
		cases := make([]*SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			switch p := c.Pattern.(type) {
			case *PatternCons:
				inner, names := s.bind(p.Params)
				cases[i] = &SwitchCase{Loc: c.Loc, Pattern: &PatternCons{Loc: p.Loc, Constructor: p.Constructor, Params: names}, Body: inner.term(c.Body)}
			default:
				cases[i] = &SwitchCase{Loc: c.Loc, Pattern: c.Pattern, Body: s.term(c.Body)}
			}
		}
		return &Switch{Loc: t.Loc, Subject: s.term(t.Subject), Cases: cases}
	}
	return MapTerm(t, s.term)
}
