package ast

import (
	"fmt"
	"strings"
)

const (
	precQuant = iota
	precOr
	precAnd
	precNot
	precRel
	precAdd
	precMul
	precPow
	precApp
)

var infixPrec = map[string]int{
	"=":  precRel,
	"<":  precRel,
	"≤":  precRel,
	">":  precRel,
	"≥":  precRel,
	"+":  precAdd,
	"-":  precAdd,
	"++": precAdd,
	"*":  precMul,
	"/":  precMul,
	"%":  precMul,
	"^":  precPow,
}

// IsOperatorName reports whether name is spelled as an infix operator.
func IsOperatorName(name string) bool {
	_, ok := infixPrec[BaseName(name)]
	return ok
}

func infix(c *Call) (string, int, bool) {
	v, ok := StripInst(c.Rator).(*Var)
	if !ok || len(c.Args) < 2 {
		return "", 0, false
	}
	op := BaseName(v.Name)
	p, ok := infixPrec[op]
	return op, p, ok
}

func precOf(t Term) int {
	switch t := t.(type) {
	case *All, *Some, *Lambda, *Generic, *TLet, *Conditional:
		return precQuant
	case *IfThen:
		if IsBool(t.Conclusion, false) {
			if _, _, ok := IsEquation(t.Premise); ok {
				return precRel
			}
			return precNot
		}
		return precQuant
	case *Or:
		return precOr
	case *And:
		return precAnd
	case *Call:
		if _, p, ok := infix(t); ok {
			return p
		}
	}
	return precApp
}

func wrap(t Term, min int) string {
	if precOf(t) < min {
		return "(" + t.String() + ")"
	}
	return t.String()
}

func (a *And) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = wrap(arg, precAnd+1)
	}
	return strings.Join(parts, " and ")
}

func (o *Or) String() string {
	parts := make([]string, len(o.Args))
	for i, arg := range o.Args {
		parts[i] = wrap(arg, precOr+1)
	}
	return strings.Join(parts, " or ")
}

func (it *IfThen) String() string {
	if IsBool(it.Conclusion, false) {
		if lhs, rhs, ok := IsEquation(it.Premise); ok {
			return wrap(lhs, precRel+1) + " ≠ " + wrap(rhs, precRel+1)
		}
		return "not " + wrap(it.Premise, precNot)
	}
	return "if " + it.Premise.String() + " then " + it.Conclusion.String()
}

func (a *All) String() string {
	return "all " + a.Var.String() + ". " + a.Body.String()
}

func (s *Some) String() string {
	return "some " + s.Var.String() + ". " + s.Body.String()
}

func (c *Conditional) String() string {
	return fmt.Sprintf("if %s then %s else %s", c.Cond, c.Then, c.Else)
}

func (c *SwitchCase) String() string {
	return fmt.Sprintf("case %s { %s }", c.Pattern, c.Body)
}

func (s *Switch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switch %s {", s.Subject)
	for _, c := range s.Cases {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

func (c *Call) String() string {
	if op, p, ok := infix(c); ok {
		left, right := p, p+1
		switch {
		case op == "^":
			left, right = p+1, p
		case p == precRel:
			left = p + 1
		}
		parts := make([]string, len(c.Args))
		for i, arg := range c.Args {
			if i == 0 {
				parts[i] = wrap(arg, left)
			} else {
				parts[i] = wrap(arg, right)
			}
		}
		return strings.Join(parts, " "+op+" ")
	}
	return wrap(c.Rator, precApp) + "(" + joinNodes(c.Args, ", ") + ")"
}

func (l *Lambda) String() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("fun %s { %s }", strings.Join(params, ", "), l.Body)
}

func (g *Generic) String() string {
	return fmt.Sprintf("generic %s { %s }", strings.Join(baseNames(g.TypeParams), ", "), g.Body)
}

func (ti *TermInst) String() string {
	if ti.Inferred {
		return ti.Subject.String()
	}
	return "@" + wrap(ti.Subject, precApp) + "<" + joinNodes(ti.TypeArgs, ", ") + ">"
}

func (l *TLet) String() string {
	return fmt.Sprintf("define %s = %s; %s", BaseName(l.Name), l.Rhs, l.Body)
}

func (a *ArrayLit) String() string { return "[" + joinNodes(a.Elems, ", ") + "]" }

func (m *MakeArray) String() string { return "array(" + m.List.String() + ")" }

func (a *ArrayGet) String() string { return wrap(a.Array, precApp) + "[" + a.Index.String() + "]" }

func (*Hole) String() string { return "?" }

func (*Omitted) String() string { return "..." }

func (m *Mark) String() string { return "#" + m.Subject.String() + "#" }

func (f *RecFun) String() string { return BaseName(f.Name) }

func (f *GenRecFun) String() string { return BaseName(f.Name) }

func proofBody(p Proof) string {
	if p == nil {
		return ""
	}
	return "\n" + p.String()
}

func joinProofs(ps []Proof, sep string) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}

func label(name string) string {
	if name == "" {
		return ""
	}
	return BaseName(name)
}

func (p *PVar) String() string { return p.Ref.String() }

func (*PTrue) String() string { return "." }

func (*PHole) String() string { return "?" }

func (*PSorry) String() string { return "sorry" }

func (p *PLet) String() string {
	return fmt.Sprintf("have %s: %s by %s%s", label(p.Label), p.Formula, p.Because, proofBody(p.Body))
}

func (p *PAnnot) String() string {
	return fmt.Sprintf("conclude %s by %s", p.Claim, p.Reason)
}

func (p *Suffices) String() string {
	return fmt.Sprintf("suffices %s by %s%s", p.Claim, p.Reason, proofBody(p.Body))
}

func (p *PTuple) String() string { return joinProofs(p.Args, ", ") }

func (p *PAndElim) String() string {
	return fmt.Sprintf("conjunct %d of %s", p.Index, p.Subject)
}

func (p *ImpIntro) String() string {
	if p.Premise == nil {
		return "assume " + label(p.Label) + proofBody(p.Body)
	}
	return fmt.Sprintf("assume %s: %s%s", label(p.Label), p.Premise, proofBody(p.Body))
}

func (p *ModusPonens) String() string {
	return fmt.Sprintf("apply %s to %s", p.Implication, p.Arg)
}

func (p *AllIntro) String() string { return "arbitrary " + p.Var.String() + proofBody(p.Body) }

func (p *AllElim) String() string {
	return fmt.Sprintf("%s[%s]", p.Univ, joinNodes(p.Args, ", "))
}

func (p *AllElimTypes) String() string {
	return fmt.Sprintf("%s<%s>", p.Univ, joinNodes(p.Types, ", "))
}

func (p *SomeIntro) String() string {
	return "choose " + joinNodes(p.Witnesses, ", ") + proofBody(p.Body)
}

func (p *SomeElim) String() string {
	return fmt.Sprintf("obtain %s where %s from %s%s", strings.Join(baseNames(p.Witnesses), ", "), label(p.Label), p.Some, proofBody(p.Body))
}

func (p *Cases) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cases %s", p.Subject)
	for _, c := range p.Cases {
		fmt.Fprintf(&sb, "\n%s {%s }", c, proofBody(c.Body))
	}
	return sb.String()
}

func (p *Induction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "induction %s", p.Typ)
	for _, c := range p.Cases {
		fmt.Fprintf(&sb, "\n%s {%s }", c, proofBody(c.Body))
	}
	return sb.String()
}

func (p *SwitchProof) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switch %s {", p.Subject)
	for _, c := range p.Cases {
		fmt.Fprintf(&sb, "\n%s {%s }", c, proofBody(c.Body))
	}
	sb.WriteString("\n}")
	return sb.String()
}

func (p *RewriteGoal) String() string {
	return "rewrite " + joinProofs(p.Equations, " | ") + proofBody(p.Body)
}

func (p *RewriteFact) String() string {
	return fmt.Sprintf("rewrite %s in %s", joinProofs(p.Equations, " | "), p.Subject)
}

func (p *ApplyDefsGoal) String() string {
	return "expand " + joinNodes(p.Defs, " | ") + proofBody(p.Body)
}

func (p *ApplyDefsFact) String() string {
	return fmt.Sprintf("expand %s in %s", joinNodes(p.Defs, " | "), p.Subject)
}

func (p *EvaluateGoal) String() string { return "evaluate" + proofBody(p.Body) }

func (p *EvaluateFact) String() string { return "evaluate in " + p.Subject.String() }

func (*PReflexive) String() string { return "reflexive" }

func (p *PSymmetric) String() string { return "symmetric " + p.Body.String() }

func (p *PTransitive) String() string {
	return fmt.Sprintf("transitive %s %s", p.First, p.Second)
}

func (p *PInjective) String() string {
	return fmt.Sprintf("injective %s %s", p.Constructor, p.Body)
}

func (p *PExtensionality) String() string { return "extensionality " + p.Body.String() }

func (p *PRecall) String() string { return "recall " + joinNodes(p.Facts, ", ") }

func (p *PTLet) String() string {
	return fmt.Sprintf("define %s = %s%s", BaseName(p.Name), p.Rhs, proofBody(p.Body))
}

func typeParams(tps []string) string {
	if len(tps) == 0 {
		return ""
	}
	return "<" + strings.Join(baseNames(tps), ", ") + ">"
}

func (c *Constructor) String() string {
	if len(c.Params) == 0 {
		return BaseName(c.Name)
	}
	return BaseName(c.Name) + "(" + joinNodes(c.Params, ", ") + ")"
}

func (u *Union) String() string {
	return fmt.Sprintf("union %s%s { %s }", BaseName(u.Name), typeParams(u.TypeParams), joinNodes(u.Constructors, " "))
}

func (d *Define) String() string {
	if d.Type != nil {
		return fmt.Sprintf("define %s : %s = %s", BaseName(d.Name), d.Type, d.Body)
	}
	return fmt.Sprintf("define %s = %s", BaseName(d.Name), d.Body)
}

func (t *Theorem) String() string {
	kw := "theorem"
	if t.IsLemma {
		kw = "lemma"
	}
	return fmt.Sprintf("%s %s: %s", kw, BaseName(t.Name), t.Formula)
}

func (p *Postulate) String() string {
	return fmt.Sprintf("postulate %s: %s", BaseName(p.Name), p.Formula)
}

func (i *Import) String() string {
	if i.Public {
		return "public import " + i.Name
	}
	return "import " + i.Name
}

func (a *Associative) String() string {
	return fmt.Sprintf("associative %s%s in %s", a.Operator, typeParams(a.TypeParams), a.Typ)
}

func (a *Auto) String() string { return "auto " + a.Name.String() }

func (m *Module) String() string { return "module " + m.Name }

func (e *Export) String() string { return "export " + e.Name.String() }

func (a *Assert) String() string { return "assert " + a.Formula.String() }

func (p *Print) String() string { return "print " + p.Subject.String() }
