package proof

import (
	"fmt"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/eval"
	"github.com/smasher164/deduce/types"
)

// cases splits on a disjunction, proving the goal once per disjunct.
func (c *Checker) cases(env *ast.Env, pf *ast.Cases, goal ast.Term) error {
	f, err := c.Synth(env, pf.Subject)
	if err != nil {
		return err
	}
	or, ok := f.(*ast.Or)
	if !ok {
		if or, ok = c.simplify(env, f).(*ast.Or); !ok {
			return errorf(pf, Shape, "cases expects a disjunction, found %s", f)
		}
	}
	if len(pf.Cases) != len(or.Args) {
		return &ProofError{Span: pf.Span(), Kind: Coverage, Msg: fmt.Sprintf("expected %d cases, found %d", len(or.Args), len(pf.Cases)), Goal: goal}
	}
	for i, pc := range pf.Cases {
		disj := or.Args[i]
		if pc.Prop != nil {
			prop, err := c.formula(env, pc.Prop)
			if err != nil {
				return err
			}
			if !ast.Equal(prop, disj) {
				return &ProofError{Span: pc.Span(), Kind: Annotation, Msg: fmt.Sprintf("%s does not match the disjunct %s", prop, disj), Left: prop, Right: disj}
			}
		}
		inner := env.DeclareProof(pc.Label, disj, true)
		if pc.Body == nil {
			return unfinished(inner, pf, goal)
		}
		if err := c.Check(inner, pc.Body, goal); err != nil {
			return err
		}
	}
	return nil
}

// induction proves all x:T. P(x) with one case per constructor of T, in
// declaration order. Each case gets an induction hypothesis per recursive
// field.
func (c *Checker) induction(env *ast.Env, pf *ast.Induction, goal ast.Term) error {
	all, ok := goal.(*ast.All)
	if !ok || isTypeBinder(all.Var) {
		return &ProofError{Span: pf.Span(), Kind: Shape, Msg: "induction expects a universal goal", Goal: goal}
	}
	if err := c.Types.CheckType(env, pf.Typ); err != nil {
		return err
	}
	if !ast.TypeEqual(pf.Typ, all.Var.Type) {
		return &types.TypeError{Span: pf.Span(), Msg: "induction on the wrong type", Expected: all.Var.Type, Actual: pf.Typ}
	}
	u, args, ok := types.UnionOf(env, all.Var.Type)
	if !ok {
		return errorf(pf, Shape, "induction expects a union type, found %s", all.Var.Type)
	}
	pats := make([]ast.Pattern, len(pf.Cases))
	for i, ic := range pf.Cases {
		pats[i] = ic.Pattern
	}
	resolved, err := c.Types.Cases(env, pf.Span(), all.Var.Type, pats, true)
	if err != nil {
		return err
	}
	for i, ic := range pf.Cases {
		pat := resolved[i].(*ast.PatternCons)
		ctor := types.CtorOf(u, pat.Constructor)
		inner, err := c.Types.BindPattern(env, pat, all.Var.Type)
		if err != nil {
			return err
		}
		var ihs []ast.Term
		for j, field := range types.Fields(u, ctor, args) {
			if types.IsRecursive(u, field) {
				ihs = append(ihs, ast.Subst1(all.Body, all.Var.Name, ast.NewVar(pat.Span(), pat.Params[j])))
			}
		}
		if len(ic.Hyps) > len(ihs) {
			return errorf(pf, Shape, "case %s has %d induction hypotheses, found %d", ast.BaseName(ctor.Name), len(ihs), len(ic.Hyps))
		}
		for j, ih := range ihs {
			label := ast.Fresh("IH")
			if j < len(ic.Hyps) {
				hyp := ic.Hyps[j]
				if hyp.Prop != nil {
					prop, err := c.formula(inner, hyp.Prop)
					if err != nil {
						return err
					}
					if !ast.Equal(c.simplify(inner, prop), c.simplify(inner, ih)) {
						return &ProofError{Span: ic.Span(), Kind: Annotation, Msg: fmt.Sprintf("induction hypothesis %s does not match %s", prop, ih), Left: prop, Right: ih}
					}
				}
				if hyp.Label != "" {
					label = hyp.Label
				}
			}
			inner = inner.DeclareProof(label, ih, true)
		}
		next := ast.Subst1(all.Body, all.Var.Name, ast.PatternTerm(pat))
		if ic.Body == nil {
			return unfinished(inner, pf, next)
		}
		if err := c.Check(inner, ic.Body, next); err != nil {
			return err
		}
	}
	return nil
}

// switchProof splits on the value of a term. Each case may name the
// equation between the subject and its pattern, and the goal is rewritten
// with that equation.
func (c *Checker) switchProof(env *ast.Env, pf *ast.SwitchProof, goal ast.Term) error {
	subj, ty, err := c.Types.Synth(env, pf.Subject)
	if err != nil {
		return err
	}
	pats := make([]ast.Pattern, len(pf.Cases))
	for i, sc := range pf.Cases {
		pats[i] = sc.Pattern
	}
	resolved, err := c.Types.Cases(env, pf.Span(), ty, pats, true)
	if err != nil {
		return err
	}
	for i, sc := range pf.Cases {
		pat := resolved[i]
		inner, err := c.Types.BindPattern(env, pat, ty)
		if err != nil {
			return err
		}
		eq := ast.MkEqual(sc.Span(), subj, ast.PatternTerm(pat))
		if sc.Prop != nil {
			prop, err := c.formula(inner, sc.Prop)
			if err != nil {
				return err
			}
			if !ast.Equal(prop, eq) {
				return &ProofError{Span: sc.Span(), Kind: Annotation, Msg: fmt.Sprintf("%s does not match %s", prop, eq), Left: prop, Right: eq}
			}
		}
		if sc.Label != "" {
			inner = inner.DeclareProof(sc.Label, eq, true)
		}
		next, _ := eval.Rewriter{Env: inner, Trace: c.Trace}.Rewrite(goal, eq, -1)
		next = c.simplify(inner, next)
		if sc.Body == nil {
			return unfinished(inner, pf, next)
		}
		if err := c.Check(inner, sc.Body, next); err != nil {
			return err
		}
	}
	return nil
}

// reflexive proves an equation whose sides evaluate to the same term. On
// failure it reports the smallest pair of subterms that differ.
func (c *Checker) reflexive(env *ast.Env, pf *ast.PReflexive, goal ast.Term) error {
	lhs, rhs, ok := ast.IsEquation(goal)
	if !ok {
		if ast.IsBool(c.reduce(env, eval.Everything(), goal), true) {
			return nil
		}
		return &ProofError{Span: pf.Span(), Kind: Shape, Msg: "reflexive expects an equation", Goal: goal}
	}
	l := c.reduce(env, eval.Everything(), lhs)
	r := c.reduce(env, eval.Everything(), rhs)
	if ast.Equal(l, r) {
		return nil
	}
	dl, dr := difference(l, r)
	return &ProofError{
		Span:  pf.Span(),
		Kind:  Mismatch,
		Msg:   fmt.Sprintf("%s ≠ %s", l, r),
		Goal:  goal,
		Left:  dl,
		Right: dr,
	}
}

// difference descends into calls with the same operator while exactly one
// argument differs.
func difference(l, r ast.Term) (ast.Term, ast.Term) {
	for {
		lc, lok := l.(*ast.Call)
		rc, rok := r.(*ast.Call)
		if !lok || !rok || len(lc.Args) != len(rc.Args) || !ast.Equal(lc.Rator, rc.Rator) {
			return l, r
		}
		at := -1
		for i := range lc.Args {
			if !ast.Equal(lc.Args[i], rc.Args[i]) {
				if at >= 0 {
					return l, r
				}
				at = i
			}
		}
		if at < 0 {
			return l, r
		}
		l, r = lc.Args[at], rc.Args[at]
	}
}
