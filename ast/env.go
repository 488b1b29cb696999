package ast

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
)

// Env is a persistent environment. Every Declare returns a new layer over
// the receiver, which stays valid and unchanged.
type Env struct {
	Parent  *Env
	Symbols map[string]Bind
	assoc   *assocRule
	auto    *autoRule
}

type assocRule struct {
	op  string
	typ Type
}

type autoRule struct {
	head string // empty for rules with no indexable head
	eq   Term
}

func NewEnv(parent *Env) *Env {
	return &Env{
		Parent:  parent,
		Symbols: make(map[string]Bind),
	}
}

type Bind interface {
	isBind()
}

// TypeBind binds a union, or a type variable when Union is nil.
type TypeBind struct {
	Union *Union
}

func (TypeBind) isBind() {}

type TermBind struct {
	Type    Type
	Value   Term
	Private bool
	Opaque  bool
	Module  string
	Ctor    *Union // the union a constructor belongs to
}

func (TermBind) isBind() {}

type ProofBind struct {
	Formula Term
	Local   bool
}

func (ProofBind) isBind() {}

func (e *Env) Declare(name string, bind Bind) *Env {
	n := NewEnv(e)
	if name != "_" {
		n.Symbols[name] = bind
	}
	return n
}

func (e *Env) DeclareType(name string, u *Union) *Env {
	return e.Declare(name, TypeBind{Union: u})
}

func (e *Env) DeclareTypeVar(name string) *Env {
	return e.Declare(name, TypeBind{})
}

func (e *Env) DeclareTerm(name string, ty Type) *Env {
	return e.Declare(name, TermBind{Type: ty})
}

func (e *Env) DefineTerm(name string, bind TermBind) *Env {
	return e.Declare(name, bind)
}

func (e *Env) DeclareProof(name string, formula Term, local bool) *Env {
	return e.Declare(name, ProofBind{Formula: formula, Local: local})
}

// DeclareAssociative registers the operator with resolved name op as
// associative at typ.
func (e *Env) DeclareAssociative(op string, typ Type) *Env {
	n := NewEnv(e)
	n.assoc = &assocRule{op: op, typ: typ}
	return n
}

// DeclareAuto registers eq as a standing rewrite rule, indexed by the head
// of its left-hand side.
func (e *Env) DeclareAuto(eq Term) *Env {
	n := NewEnv(e)
	n.auto = &autoRule{head: autoHead(eq), eq: eq}
	return n
}

func autoHead(eq Term) string {
	var bound []string
	for {
		all, ok := eq.(*All)
		if !ok {
			break
		}
		bound = append(bound, all.Var.Name)
		eq = all.Body
	}
	lhs, _, ok := IsEquation(eq)
	if !ok {
		lhs = eq
	}
	head, ok := Head(lhs)
	if !ok || lo.Contains(bound, head) {
		return ""
	}
	return head
}

func (e *Env) LookupLocal(name string) (Bind, bool) {
	b, ok := e.Symbols[name]
	return b, ok
}

func (e *Env) LookupStack(name string) (b Bind, p *Env, ok bool) {
	p = e
	for p != nil {
		if b, ok = p.LookupLocal(name); ok {
			return b, p, ok
		}
		p = p.Parent
	}
	return nil, nil, false
}

func (e *Env) Lookup(name string) (Bind, bool) {
	b, _, ok := e.LookupStack(name)
	return b, ok
}

func (e *Env) LookupType(name string) (TypeBind, bool) {
	b, ok := e.Lookup(name)
	if !ok {
		return TypeBind{}, false
	}
	tb, ok := b.(TypeBind)
	return tb, ok
}

func (e *Env) LookupTerm(name string) (TermBind, bool) {
	b, ok := e.Lookup(name)
	if !ok {
		return TermBind{}, false
	}
	tb, ok := b.(TermBind)
	return tb, ok
}

func (e *Env) LookupProof(name string) (ProofBind, bool) {
	b, ok := e.Lookup(name)
	if !ok {
		return ProofBind{}, false
	}
	pb, ok := b.(ProofBind)
	return pb, ok
}

// Constructor returns the union that the constructor name belongs to.
func (e *Env) Constructor(name string) (*Union, bool) {
	tb, ok := e.LookupTerm(name)
	if !ok || tb.Ctor == nil {
		return nil, false
	}
	return tb.Ctor, true
}

func (e *Env) IsAssociative(op string) bool {
	_, ok := e.AssociativeAt(op)
	return ok
}

// AssociativeAt returns the type op was registered associative at.
func (e *Env) AssociativeAt(op string) (Type, bool) {
	for p := e; p != nil; p = p.Parent {
		if p.assoc != nil && p.assoc.op == op {
			return p.assoc.typ, true
		}
	}
	return nil, false
}

// AutoRules returns the rules indexed by head followed by the unindexed
// ones, each in declaration order.
func (e *Env) AutoRules(head string) []Term {
	var indexed, fallback []Term
	for p := e; p != nil; p = p.Parent {
		if p.auto == nil {
			continue
		}
		switch p.auto.head {
		case head:
			indexed = append(indexed, p.auto.eq)
		case "":
			fallback = append(fallback, p.auto.eq)
		}
	}
	if head == "" {
		return lo.Reverse(fallback)
	}
	return append(lo.Reverse(indexed), lo.Reverse(fallback)...)
}

type Fact struct {
	Name    string
	Formula Term
}

// LocalFacts lists the visible local proof bindings in declaration order.
func (e *Env) LocalFacts() []Fact {
	seen := make(map[string]bool)
	var facts []Fact
	for p := e; p != nil; p = p.Parent {
		for name, b := range p.Symbols {
			if seen[name] {
				continue
			}
			seen[name] = true
			if pb, ok := b.(ProofBind); ok && pb.Local {
				facts = append(facts, Fact{Name: name, Formula: pb.Formula})
			}
		}
	}
	return lo.Reverse(facts)
}

func envString(buf io.Writer, e *Env) {
	var layers []*Env
	for p := e; p != nil; p = p.Parent {
		layers = append(layers, p)
	}
	for _, l := range lo.Reverse(layers) {
		for name, bind := range l.Symbols {
			switch b := bind.(type) {
			case TypeBind:
				if b.Union == nil {
					fmt.Fprintf(buf, "%s:\ttype variable\n", name)
				} else {
					fmt.Fprintf(buf, "%s:\t%s\n", name, b.Union)
				}
			case TermBind:
				fmt.Fprintf(buf, "%s:\t%v\n", name, b.Type)
			case ProofBind:
				fmt.Fprintf(buf, "%s:\t%s\n", name, b.Formula)
			}
		}
		if l.assoc != nil {
			fmt.Fprintf(buf, "associative\t%s in %s\n", BaseName(l.assoc.op), l.assoc.typ)
		}
		if l.auto != nil {
			fmt.Fprintf(buf, "auto\t%s\n", l.auto.eq)
		}
	}
}

func (e *Env) String() string {
	sb := new(strings.Builder)
	buf := tabwriter.NewWriter(sb, 0, 0, 1, ' ', 0)
	envString(buf, e)
	buf.Flush()
	return sb.String()
}

// Since returns the layers added on top of base, oldest first. base must
// be an ancestor of e.
func (e *Env) Since(base *Env) []*Env {
	var layers []*Env
	for p := e; p != nil && p != base; p = p.Parent {
		layers = append(layers, p)
	}
	return lo.Reverse(layers)
}

// Replay stacks copies of layers on top of e.
func (e *Env) Replay(layers []*Env) *Env {
	for _, l := range layers {
		n := NewEnv(e)
		for name, b := range l.Symbols {
			n.Symbols[name] = b
		}
		n.assoc, n.auto = l.assoc, l.auto
		e = n
	}
	return e
}

// LookupBase lists the visible term bindings whose base name is base,
// innermost first.
func (e *Env) LookupBase(base string) []string {
	seen := make(map[string]bool)
	var names []string
	for p := e; p != nil; p = p.Parent {
		for name, b := range p.Symbols {
			if _, ok := b.(TermBind); !ok || seen[name] || BaseName(name) != base {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
