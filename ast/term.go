package ast

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/smasher164/deduce/lexer"
)

type Term interface {
	Node
	isTerm()
}

var (
	_ Term = (*Var)(nil)
	_ Term = (*IntLit)(nil)
	_ Term = (*BoolLit)(nil)
	_ Term = (*And)(nil)
	_ Term = (*Or)(nil)
	_ Term = (*IfThen)(nil)
	_ Term = (*All)(nil)
	_ Term = (*Some)(nil)
	_ Term = (*Conditional)(nil)
	_ Term = (*Switch)(nil)
	_ Term = (*Call)(nil)
	_ Term = (*Lambda)(nil)
	_ Term = (*Generic)(nil)
	_ Term = (*TermInst)(nil)
	_ Term = (*TLet)(nil)
	_ Term = (*ArrayLit)(nil)
	_ Term = (*MakeArray)(nil)
	_ Term = (*ArrayGet)(nil)
	_ Term = (*Hole)(nil)
	_ Term = (*Omitted)(nil)
	_ Term = (*Mark)(nil)
	_ Term = (*RecFun)(nil)
	_ Term = (*GenRecFun)(nil)
)

var counter atomic.Int64

// Fresh returns a process-wide unique name derived from base.
func Fresh(base string) string {
	return BaseName(base) + "." + strconv.FormatInt(counter.Add(1), 10)
}

// BaseName strips the uniquifying suffix added by Fresh.
func BaseName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}

// Equality is the resolved name of the builtin = operator.
const Equality = "="

// Var is a reference to a term or type. Name is the name as written;
// Resolved lists the unique names of its candidate definitions in
// declaration order once the renamer has run.
type Var struct {
	Loc
	Name     string
	Resolved []string
}

func (*Var) isTerm() {}
func (*Var) isType() {}

func (v *Var) String() string { return BaseName(v.Name) }

// Id is the unique name the reference resolved to, or the written name
// before renaming.
func (v *Var) Id() string {
	if len(v.Resolved) > 0 {
		return v.Resolved[0]
	}
	return v.Name
}

// Overloaded reports whether the reference still has several candidates.
func (v *Var) Overloaded() bool {
	return len(v.Resolved) > 1
}

// Resolve returns a copy of v bound to the single candidate name.
func (v *Var) Resolve(name string) *Var {
	return &Var{Loc: v.Loc, Name: v.Name, Resolved: []string{name}}
}

// NewVar makes a reference to an already unique name.
func NewVar(span lexer.Span, name string) *Var {
	return &Var{Loc: At(span), Name: name, Resolved: []string{name}}
}

type IntLit struct {
	Loc
	Value int
}

func (*IntLit) isTerm() {}

func (i *IntLit) String() string { return strconv.Itoa(i.Value) }

type BoolLit struct {
	Loc
	Value bool
}

func (*BoolLit) isTerm() {}

func (b *BoolLit) String() string { return strconv.FormatBool(b.Value) }

func True(span lexer.Span) *BoolLit  { return &BoolLit{Loc: At(span), Value: true} }
func False(span lexer.Span) *BoolLit { return &BoolLit{Loc: At(span), Value: false} }

// IsBool reports whether t is the boolean literal v.
func IsBool(t Term, v bool) bool {
	b, ok := t.(*BoolLit)
	return ok && b.Value == v
}

type And struct {
	Loc
	Args []Term
}

func (*And) isTerm() {}

// MkAnd builds a conjunction, flattening nested conjunctions.
func MkAnd(span lexer.Span, args ...Term) Term {
	var flat []Term
	for _, a := range args {
		if a, ok := a.(*And); ok {
			flat = append(flat, a.Args...)
			continue
		}
		flat = append(flat, a)
	}
	switch len(flat) {
	case 0:
		return True(span)
	case 1:
		return flat[0]
	}
	return &And{Loc: At(span), Args: flat}
}

type Or struct {
	Loc
	Args []Term
}

func (*Or) isTerm() {}

// MkOr builds a disjunction, flattening nested disjunctions.
func MkOr(span lexer.Span, args ...Term) Term {
	var flat []Term
	for _, a := range args {
		if a, ok := a.(*Or); ok {
			flat = append(flat, a.Args...)
			continue
		}
		flat = append(flat, a)
	}
	switch len(flat) {
	case 0:
		return False(span)
	case 1:
		return flat[0]
	}
	return &Or{Loc: At(span), Args: flat}
}

// IfThen is implication. not P is represented as IfThen{P, false}.
type IfThen struct {
	Loc
	Premise    Term
	Conclusion Term
}

func (*IfThen) isTerm() {}

func Not(span lexer.Span, t Term) Term {
	return &IfThen{Loc: At(span), Premise: t, Conclusion: False(span)}
}

type Binding struct {
	Loc
	Name string
	Type Type
}

func (b Binding) String() string {
	if b.Type == nil {
		return BaseName(b.Name)
	}
	return BaseName(b.Name) + ":" + b.Type.String()
}

// BlockPos records where a binder sat in a block like all x:T, y:U. It is
// only used for display.
type BlockPos struct {
	Index int
	Count int
}

type All struct {
	Loc
	Var  Binding
	Pos  BlockPos
	Body Term
}

func (*All) isTerm() {}

type Some struct {
	Loc
	Var  Binding
	Pos  BlockPos
	Body Term
}

func (*Some) isTerm() {}

type Conditional struct {
	Loc
	Cond Term
	Then Term
	Else Term
}

func (*Conditional) isTerm() {}

type SwitchCase struct {
	Loc
	Pattern Pattern
	Body    Term
}

type Switch struct {
	Loc
	Subject Term
	Cases   []*SwitchCase
}

func (*Switch) isTerm() {}

type Call struct {
	Loc
	Rator Term
	Args  []Term
}

func (*Call) isTerm() {}

func MkEqual(span lexer.Span, lhs, rhs Term) *Call {
	return &Call{Loc: At(span), Rator: NewVar(span, Equality), Args: []Term{lhs, rhs}}
}

// IsEquation splits an equality into its two sides.
func IsEquation(t Term) (lhs, rhs Term, ok bool) {
	c, ok := t.(*Call)
	if !ok || len(c.Args) != 2 {
		return nil, nil, false
	}
	if v, ok := StripInst(c.Rator).(*Var); ok && v.Id() == Equality {
		return c.Args[0], c.Args[1], true
	}
	return nil, nil, false
}

type Lambda struct {
	Loc
	Params []Binding
	Body   Term
}

func (*Lambda) isTerm() {}

type Generic struct {
	Loc
	TypeParams []string
	Body       Term
}

func (*Generic) isTerm() {}

// TermInst instantiates a generic term. Inferred marks instantiations
// introduced by the type checker rather than written as @f<T>.
type TermInst struct {
	Loc
	Subject  Term
	TypeArgs []Type
	Inferred bool
}

func (*TermInst) isTerm() {}

// StripInst removes type instantiations and marks around t.
func StripInst(t Term) Term {
	for {
		switch s := t.(type) {
		case *TermInst:
			t = s.Subject
		case *Mark:
			t = s.Subject
		default:
			return t
		}
	}
}

type TLet struct {
	Loc
	Name string
	Rhs  Term
	Body Term
}

func (*TLet) isTerm() {}

type ArrayLit struct {
	Loc
	Elems []Term
}

func (*ArrayLit) isTerm() {}

type MakeArray struct {
	Loc
	List Term
}

func (*MakeArray) isTerm() {}

type ArrayGet struct {
	Loc
	Array Term
	Index Term
}

func (*ArrayGet) isTerm() {}

// Hole is an incomplete term. It fails checking if it survives.
type Hole struct {
	Loc
}

func (*Hole) isTerm() {}

// Omitted stands for a term the user chose not to write. It never fails.
type Omitted struct {
	Loc
}

func (*Omitted) isTerm() {}

// Mark singles out the subterm a following rewrite should target.
type Mark struct {
	Loc
	Subject Term
}

func (*Mark) isTerm() {}

// Head is the resolved name at the head of an application, or of the term
// itself when it is a variable.
func Head(t Term) (string, bool) {
	switch t := StripInst(t).(type) {
	case *Var:
		return t.Id(), true
	case *Call:
		return Head(t.Rator)
	case *RecFun:
		return t.Name, true
	case *GenRecFun:
		return t.Name, true
	}
	return "", false
}

type Pattern interface {
	Node
	isPattern()
}

var (
	_ Pattern = (*PatternBool)(nil)
	_ Pattern = (*PatternCons)(nil)
)

type PatternBool struct {
	Loc
	Value bool
}

func (*PatternBool) isPattern() {}

func (p *PatternBool) String() string { return strconv.FormatBool(p.Value) }

type PatternCons struct {
	Loc
	Constructor *Var
	Params      []string
}

func (*PatternCons) isPattern() {}

func (p *PatternCons) String() string {
	if len(p.Params) == 0 {
		return p.Constructor.String()
	}
	return p.Constructor.String() + "(" + strings.Join(baseNames(p.Params), ", ") + ")"
}

// PatternTerm is the term a pattern matches, with its parameters as
// variables.
func PatternTerm(p Pattern) Term {
	switch p := p.(type) {
	case *PatternBool:
		return &BoolLit{Loc: p.Loc, Value: p.Value}
	case *PatternCons:
		if len(p.Params) == 0 {
			return p.Constructor
		}
		args := make([]Term, len(p.Params))
		for i, name := range p.Params {
			args[i] = NewVar(p.Span(), name)
		}
		return &Call{Loc: p.Loc, Rator: p.Constructor, Args: args}
	}
	panic("unreachable")
}
