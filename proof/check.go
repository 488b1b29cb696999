package proof

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/eval"
	"github.com/smasher164/deduce/types"
)

// Checker checks proofs against formulas. Synth computes what a proof
// proves; Check verifies a proof against a goal, falling back to Synth and
// Implies for rules that do not look at the goal.
type Checker struct {
	Types *types.Checker
	Trace *eval.Tracer
	// AllowSorry accepts sorry as a proof of anything, recording a warning.
	AllowSorry bool
	Warnings   []string
}

func NewChecker(tc *types.Checker, trace *eval.Tracer) *Checker {
	return &Checker{Types: tc, Trace: trace}
}

func (c *Checker) reduce(env *ast.Env, p eval.Policy, t ast.Term) ast.Term {
	// Opaque definitions of the module being checked stay visible.
	p.Opaque, p.Module = true, c.Types.Module
	return eval.Reducer{Env: env, Policy: p, Trace: c.Trace}.Reduce(t)
}

// simplify reduces t without unfolding any definition.
func (c *Checker) simplify(env *ast.Env, t ast.Term) ast.Term {
	return c.reduce(env, eval.Nothing(), t)
}

func (c *Checker) formula(env *ast.Env, t ast.Term) (ast.Term, error) {
	return c.Types.Formula(env, t)
}

func unfinished(env *ast.Env, pf ast.Proof, goal ast.Term) *ProofError {
	facts := env.LocalFacts()
	if facts == nil {
		facts = []ast.Fact{}
	}
	return &ProofError{Span: pf.Span(), Kind: Unfinished, Msg: "unfinished proof", Goal: goal, Facts: facts}
}

func needsGoal(pf ast.Proof) *ProofError {
	return errorf(pf, Shape, "cannot tell what %s proves without a goal", pf)
}

// Synth returns the formula pf proves.
func (c *Checker) Synth(env *ast.Env, pf ast.Proof) (ast.Term, error) {
	switch pf := pf.(type) {
	case *ast.PVar:
		pb, ok := env.LookupProof(pf.Ref.Id())
		if !ok {
			if _, isTerm := env.LookupTerm(pf.Ref.Id()); isTerm {
				return nil, errorf(pf, Shape, "%s is a term, not a proof", pf.Ref)
			}
			return nil, errorf(pf, Shape, "%s is not a proof", pf.Ref)
		}
		return pb.Formula, nil
	case *ast.PTrue:
		return ast.True(pf.Span()), nil
	case *ast.PHole, *ast.PSorry:
		return nil, errorf(pf, Unfinished, "unfinished proof")
	case *ast.PLet:
		f, inner, err := c.have(env, pf)
		if err != nil {
			return nil, err
		}
		if pf.Body == nil {
			return f, nil
		}
		return c.Synth(inner, pf.Body)
	case *ast.PAnnot:
		claim, err := c.formula(env, pf.Claim)
		if err != nil {
			return nil, err
		}
		if err := c.Check(env, pf.Reason, claim); err != nil {
			return nil, err
		}
		return claim, nil
	case *ast.PTuple:
		args := make([]ast.Term, len(pf.Args))
		for i, a := range pf.Args {
			f, err := c.Synth(env, a)
			if err != nil {
				return nil, err
			}
			args[i] = f
		}
		return ast.MkAnd(pf.Span(), args...), nil
	case *ast.PAndElim:
		f, err := c.Synth(env, pf.Subject)
		if err != nil {
			return nil, err
		}
		and, ok := f.(*ast.And)
		if !ok {
			return nil, errorf(pf, Shape, "conjunct expects a conjunction, found %s", f)
		}
		if pf.Index < 0 || pf.Index >= len(and.Args) {
			return nil, errorf(pf, Shape, "conjunct %d of a conjunction with %d parts", pf.Index, len(and.Args))
		}
		return and.Args[pf.Index], nil
	case *ast.ImpIntro:
		if pf.Premise == nil {
			return nil, needsGoal(pf)
		}
		prem, err := c.formula(env, pf.Premise)
		if err != nil {
			return nil, err
		}
		if pf.Body == nil {
			return nil, unfinished(env, pf, nil)
		}
		concl, err := c.Synth(env.DeclareProof(pf.Label, prem, true), pf.Body)
		if err != nil {
			return nil, err
		}
		return &ast.IfThen{Loc: pf.Loc, Premise: prem, Conclusion: concl}, nil
	case *ast.ModusPonens:
		return c.modusPonens(env, pf, nil)
	case *ast.AllElim:
		return c.allElim(env, pf)
	case *ast.AllElimTypes:
		f, err := c.Synth(env, pf.Univ)
		if err != nil {
			return nil, err
		}
		for _, ty := range pf.Types {
			all, ok := f.(*ast.All)
			if !ok || !isTypeBinder(all.Var) {
				return nil, errorf(pf, Shape, "%s has no type parameter to instantiate", f)
			}
			if err := c.Types.CheckType(env, ty); err != nil {
				return nil, err
			}
			f = ast.SubstTypes(all.Body, map[string]ast.Type{all.Var.Name: ty})
		}
		return f, nil
	case *ast.SomeElim:
		inner, body, err := c.obtain(env, pf)
		if err != nil {
			return nil, err
		}
		f, err := c.Synth(inner, body)
		if err != nil {
			return nil, err
		}
		for _, w := range pf.Witnesses {
			if ast.Occurs(w, f) {
				return nil, errorf(pf, Shape, "the proved formula %s mentions the witness %s", f, ast.BaseName(w))
			}
		}
		return f, nil
	case *ast.RewriteFact:
		f, err := c.Synth(env, pf.Subject)
		if err != nil {
			return nil, err
		}
		return c.rewrite(env, pf, f, pf.Equations)
	case *ast.ApplyDefsFact:
		f, err := c.Synth(env, pf.Subject)
		if err != nil {
			return nil, err
		}
		return c.expand(env, pf, f, pf.Defs)
	case *ast.EvaluateFact:
		f, err := c.Synth(env, pf.Subject)
		if err != nil {
			return nil, err
		}
		return c.reduce(env, eval.Everything(), f), nil
	case *ast.PSymmetric:
		f, err := c.Synth(env, pf.Body)
		if err != nil {
			return nil, err
		}
		lhs, rhs, ok := ast.IsEquation(f)
		if !ok {
			return nil, errorf(pf, Shape, "symmetric expects an equation, found %s", f)
		}
		return ast.MkEqual(pf.Span(), rhs, lhs), nil
	case *ast.PTransitive:
		return c.transitive(env, pf)
	case *ast.PInjective:
		return c.injective(env, pf)
	case *ast.PRecall:
		return c.recall(env, pf)
	case *ast.PTLet:
		inner, rhs, err := c.define(env, pf)
		if err != nil {
			return nil, err
		}
		if pf.Body == nil {
			return nil, unfinished(inner, pf, nil)
		}
		f, err := c.Synth(inner, pf.Body)
		if err != nil {
			return nil, err
		}
		return ast.Subst1(f, pf.Name, rhs), nil
	case *ast.Suffices, *ast.AllIntro, *ast.SomeIntro, *ast.Cases, *ast.Induction, *ast.SwitchProof,
		*ast.RewriteGoal, *ast.ApplyDefsGoal, *ast.EvaluateGoal, *ast.PReflexive, *ast.PExtensionality:
		return nil, needsGoal(pf)
	}
	panic(fmt.Sprintf("unhandled proof %T", pf))
}

// Check verifies that pf proves goal.
func (c *Checker) Check(env *ast.Env, pf ast.Proof, goal ast.Term) error {
	switch pf := pf.(type) {
	case nil:
		return &ProofError{Kind: Unfinished, Msg: "unfinished proof", Goal: goal, Facts: env.LocalFacts()}
	case *ast.PHole:
		return unfinished(env, pf, c.simplify(env, goal))
	case *ast.PSorry:
		if !c.AllowSorry {
			return unfinished(env, pf, c.simplify(env, goal))
		}
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s: sorry admits %s", pf.Span(), goal))
		return nil
	case *ast.PLet:
		f, inner, err := c.have(env, pf)
		if err != nil {
			return err
		}
		if pf.Body == nil {
			return c.entails(inner, pf, f, goal)
		}
		return c.Check(inner, pf.Body, goal)
	case *ast.Suffices:
		return c.suffices(env, pf, goal)
	case *ast.PTuple:
		if and, ok := goal.(*ast.And); ok && len(and.Args) == len(pf.Args) {
			for i, a := range pf.Args {
				if err := c.Check(env, a, and.Args[i]); err != nil {
					return err
				}
			}
			return nil
		}
	case *ast.ImpIntro:
		return c.assume(env, pf, goal)
	case *ast.ModusPonens:
		f, err := c.modusPonens(env, pf, goal)
		if err != nil {
			return err
		}
		return c.entails(env, pf, f, goal)
	case *ast.AllIntro:
		return c.arbitrary(env, pf, goal)
	case *ast.SomeIntro:
		return c.choose(env, pf, goal)
	case *ast.SomeElim:
		inner, body, err := c.obtain(env, pf)
		if err != nil {
			return err
		}
		return c.Check(inner, body, goal)
	case *ast.Cases:
		return c.cases(env, pf, goal)
	case *ast.Induction:
		return c.induction(env, pf, goal)
	case *ast.SwitchProof:
		return c.switchProof(env, pf, goal)
	case *ast.RewriteGoal, *ast.ApplyDefsGoal, *ast.EvaluateGoal:
		next, body, err := c.transform(env, pf, goal)
		if err != nil {
			return err
		}
		if body == nil {
			if ast.IsBool(next, true) {
				return nil
			}
			return unfinished(env, pf, next)
		}
		return c.Check(env, body, next)
	case *ast.PReflexive:
		return c.reflexive(env, pf, goal)
	case *ast.PSymmetric:
		lhs, rhs, ok := ast.IsEquation(goal)
		if !ok {
			break
		}
		return c.Check(env, pf.Body, ast.MkEqual(goal.Span(), rhs, lhs))
	case *ast.PInjective:
		lhs, rhs, ok := ast.IsEquation(goal)
		if !ok {
			break
		}
		eq, err := c.Types.Formula(env, ast.MkEqual(goal.Span(),
			&ast.Call{Loc: pf.Loc, Rator: pf.Constructor, Args: []ast.Term{lhs}},
			&ast.Call{Loc: pf.Loc, Rator: pf.Constructor, Args: []ast.Term{rhs}}))
		if err != nil {
			return err
		}
		return c.Check(env, pf.Body, eq)
	case *ast.PExtensionality:
		return c.extensionality(env, pf, goal)
	case *ast.PTLet:
		inner, _, err := c.define(env, pf)
		if err != nil {
			return err
		}
		if pf.Body == nil {
			return unfinished(inner, pf, goal)
		}
		return c.Check(inner, pf.Body, goal)
	}
	f, err := c.Synth(env, pf)
	if err != nil {
		return err
	}
	return c.entails(env, pf, f, goal)
}

func (c *Checker) entails(env *ast.Env, pf ast.Proof, f, goal ast.Term) error {
	if c.Implies(env, f, goal) {
		return nil
	}
	return &ProofError{
		Span:  pf.Span(),
		Kind:  Entailment,
		Msg:   fmt.Sprintf("could not prove %s\n\tfrom %s", goal, f),
		Goal:  c.simplify(env, goal),
		Facts: env.LocalFacts(),
	}
}

// have checks have Label: Formula by Because and declares the label.
func (c *Checker) have(env *ast.Env, pf *ast.PLet) (ast.Term, *ast.Env, error) {
	f, err := c.formula(env, pf.Formula)
	if err != nil {
		return nil, env, err
	}
	if err := c.Check(env, pf.Because, f); err != nil {
		return nil, env, err
	}
	return f, env.DeclareProof(pf.Label, f, true), nil
}

func (c *Checker) define(env *ast.Env, pf *ast.PTLet) (*ast.Env, ast.Term, error) {
	rhs, ty, err := c.Types.Synth(env, pf.Rhs)
	if err != nil {
		return env, nil, err
	}
	return env.DefineTerm(pf.Name, ast.TermBind{Type: ty, Value: rhs, Module: c.Types.Module}), rhs, nil
}

// suffices replaces the goal by the claim. A goal transformer as the
// reason is applied to the goal, which the claim must then imply; any
// other reason must prove that the claim implies the goal.
func (c *Checker) suffices(env *ast.Env, pf *ast.Suffices, goal ast.Term) error {
	claim, err := c.formula(env, pf.Claim)
	if err != nil {
		return err
	}
	switch r := pf.Reason.(type) {
	case nil:
		if err := c.entails(env, pf, claim, goal); err != nil {
			return err
		}
	case *ast.RewriteGoal, *ast.ApplyDefsGoal, *ast.EvaluateGoal:
		next, _, err := c.transform(env, r, goal)
		if err != nil {
			return err
		}
		if err := c.entails(env, r, claim, next); err != nil {
			return err
		}
	default:
		if err := c.Check(env, r, &ast.IfThen{Loc: pf.Loc, Premise: claim, Conclusion: goal}); err != nil {
			return err
		}
	}
	if pf.Body == nil {
		return unfinished(env, pf, claim)
	}
	return c.Check(env, pf.Body, claim)
}

func (c *Checker) assume(env *ast.Env, pf *ast.ImpIntro, goal ast.Term) error {
	it, ok := goal.(*ast.IfThen)
	if !ok {
		if it, ok = c.simplify(env, goal).(*ast.IfThen); !ok {
			return &ProofError{Span: pf.Span(), Kind: Shape, Msg: "assume expects an implication", Goal: goal}
		}
	}
	if pf.Premise != nil {
		prem, err := c.formula(env, pf.Premise)
		if err != nil {
			return err
		}
		if !ast.Equal(c.simplify(env, prem), c.simplify(env, it.Premise)) {
			return &ProofError{
				Span: pf.Span(), Kind: Annotation,
				Msg:  fmt.Sprintf("assumption %s does not match the premise", prem),
				Goal: goal, Left: prem, Right: it.Premise,
			}
		}
	}
	inner := env.DeclareProof(pf.Label, it.Premise, true)
	if pf.Body == nil {
		return unfinished(inner, pf, it.Conclusion)
	}
	return c.Check(inner, pf.Body, it.Conclusion)
}

// modusPonens applies an implication, possibly universally quantified, to
// a proof of its premise. The quantified variables are found by matching
// the conclusion against goal when there is one, and the premise against
// what the argument proves.
func (c *Checker) modusPonens(env *ast.Env, pf *ast.ModusPonens, goal ast.Term) (ast.Term, error) {
	f, err := c.Synth(env, pf.Implication)
	if err != nil {
		return nil, err
	}
	var vars []string
	for {
		all, ok := f.(*ast.All)
		if !ok {
			break
		}
		if isTypeBinder(all.Var) {
			return nil, errorf(pf, Shape, "instantiate the type parameters of %s before applying it", f)
		}
		vars = append(vars, all.Var.Name)
		f = all.Body
	}
	it, ok := f.(*ast.IfThen)
	if !ok {
		return nil, errorf(pf, Shape, "apply expects an implication, found %s", f)
	}
	if len(vars) == 0 {
		if err := c.Check(env, pf.Arg, it.Premise); err != nil {
			return nil, err
		}
		return it.Conclusion, nil
	}
	sub := make(map[string]ast.Term, len(vars))
	if goal != nil {
		if s, ok := eval.Match(env, vars, it.Conclusion, goal); ok {
			sub = s
		}
	}
	if len(sub) < len(vars) {
		arg, err := c.Synth(env, pf.Arg)
		if err != nil {
			return nil, err
		}
		s, ok := eval.Match(env, vars, ast.Subst(it.Premise, sub), arg)
		if !ok {
			return nil, &ProofError{Span: pf.Span(), Kind: Entailment, Msg: fmt.Sprintf("%s does not match the premise %s", arg, it.Premise), Goal: goal}
		}
		for k, v := range s {
			sub[k] = v
		}
		for _, v := range vars {
			if _, ok := sub[v]; !ok {
				return nil, errorf(pf, Shape, "cannot infer %s from %s", ast.BaseName(v), arg)
			}
		}
		return ast.Subst(it.Conclusion, sub), nil
	}
	if err := c.Check(env, pf.Arg, ast.Subst(it.Premise, sub)); err != nil {
		return nil, err
	}
	return ast.Subst(it.Conclusion, sub), nil
}

// allElim instantiates a universal. Type parameters in front of a term
// argument are inferred from the argument's type.
func (c *Checker) allElim(env *ast.Env, pf *ast.AllElim) (ast.Term, error) {
	f, err := c.Synth(env, pf.Univ)
	if err != nil {
		return nil, err
	}
	for _, arg := range pf.Args {
		var tparams []string
		for {
			all, ok := f.(*ast.All)
			if !ok || !isTypeBinder(all.Var) {
				break
			}
			tparams = append(tparams, all.Var.Name)
			f = all.Body
		}
		all, ok := f.(*ast.All)
		if !ok {
			return nil, errorf(pf, Shape, "too many arguments: %s is not universal", f)
		}
		if len(tparams) > 0 {
			_, aty, err := c.Types.Synth(env, arg)
			if err != nil {
				return nil, err
			}
			sub := make(map[string]ast.Type, len(tparams))
			if !types.Match(tparams, all.Var.Type, aty, sub) {
				return nil, &types.TypeError{Span: arg.Span(), Msg: fmt.Sprintf("type mismatch in %s", arg), Expected: all.Var.Type, Actual: aty}
			}
			for _, tp := range tparams {
				if _, ok := sub[tp]; !ok {
					return nil, errorf(pf, Shape, "cannot infer type argument %s", ast.BaseName(tp))
				}
			}
			all = ast.SubstTypes(all, sub).(*ast.All)
		}
		na, err := c.Types.Check(env, arg, all.Var.Type)
		if err != nil {
			return nil, err
		}
		f = ast.Subst1(all.Body, all.Var.Name, na)
	}
	return f, nil
}

func (c *Checker) arbitrary(env *ast.Env, pf *ast.AllIntro, goal ast.Term) error {
	all, ok := goal.(*ast.All)
	if !ok {
		return &ProofError{Span: pf.Span(), Kind: Shape, Msg: "arbitrary expects a universal goal", Goal: goal}
	}
	if pf.Var.Type == nil {
		pf = &ast.AllIntro{Loc: pf.Loc, Var: ast.Binding{Loc: pf.Var.Loc, Name: pf.Var.Name, Type: all.Var.Type}, Body: pf.Body}
	}
	if !sameBinder(pf.Var, all.Var) {
		return &ProofError{
			Span: pf.Span(), Kind: Annotation,
			Msg:  fmt.Sprintf("arbitrary %s does not match the goal's %s", pf.Var, all.Var),
			Goal: goal,
		}
	}
	var inner *ast.Env
	if isTypeBinder(pf.Var) {
		inner = env.DeclareTypeVar(pf.Var.Name)
	} else {
		var err error
		if inner, err = c.Types.Bind(env, pf.Var); err != nil {
			return err
		}
	}
	next := rename(all.Var, pf.Var, all.Body)
	if pf.Body == nil {
		return unfinished(inner, pf, next)
	}
	return c.Check(inner, pf.Body, next)
}

func (c *Checker) choose(env *ast.Env, pf *ast.SomeIntro, goal ast.Term) error {
	f := goal
	for _, w := range pf.Witnesses {
		some, ok := f.(*ast.Some)
		if !ok {
			return &ProofError{Span: pf.Span(), Kind: Shape, Msg: fmt.Sprintf("choose given %d witnesses", len(pf.Witnesses)), Goal: goal}
		}
		nw, err := c.Types.Check(env, w, some.Var.Type)
		if err != nil {
			return err
		}
		f = ast.Subst1(some.Body, some.Var.Name, nw)
	}
	if pf.Body == nil {
		return unfinished(env, pf, f)
	}
	return c.Check(env, pf.Body, f)
}

// obtain opens an existential and returns the environment with the
// witnesses and the labelled body declared, and the proof to continue with.
func (c *Checker) obtain(env *ast.Env, pf *ast.SomeElim) (*ast.Env, ast.Proof, error) {
	f, err := c.Synth(env, pf.Some)
	if err != nil {
		return env, nil, err
	}
	inner := env
	for _, w := range pf.Witnesses {
		some, ok := f.(*ast.Some)
		if !ok {
			return env, nil, errorf(pf, Shape, "obtain expects an existential with %d variables, found %s", len(pf.Witnesses), f)
		}
		inner = inner.DeclareTerm(w, some.Var.Type)
		f = ast.Subst1(some.Body, some.Var.Name, ast.NewVar(pf.Span(), w))
	}
	if pf.Prop != nil {
		prop, err := c.formula(inner, pf.Prop)
		if err != nil {
			return env, nil, err
		}
		if !ast.Equal(c.simplify(inner, prop), c.simplify(inner, f)) {
			return env, nil, &ProofError{Span: pf.Span(), Kind: Annotation, Msg: fmt.Sprintf("%s does not match %s", prop, f), Left: prop, Right: f}
		}
	}
	inner = inner.DeclareProof(pf.Label, f, true)
	if pf.Body == nil {
		return inner, &ast.PHole{Loc: pf.Loc}, nil
	}
	return inner, pf.Body, nil
}

// transform applies rewrite, expand or evaluate to the goal, returning the
// new goal and the rest of the proof.
func (c *Checker) transform(env *ast.Env, pf ast.Proof, goal ast.Term) (ast.Term, ast.Proof, error) {
	switch pf := pf.(type) {
	case *ast.RewriteGoal:
		next, err := c.rewrite(env, pf, goal, pf.Equations)
		return next, pf.Body, err
	case *ast.ApplyDefsGoal:
		next, err := c.expand(env, pf, goal, pf.Defs)
		return next, pf.Body, err
	case *ast.EvaluateGoal:
		return c.reduce(env, eval.Everything(), goal), pf.Body, nil
	}
	panic(fmt.Sprintf("unhandled transform %T", pf))
}

func (c *Checker) rewrite(env *ast.Env, pf ast.Proof, f ast.Term, eqs []ast.Proof) (ast.Term, error) {
	rw := eval.Rewriter{Env: env, Trace: c.Trace}
	for _, eqpf := range eqs {
		eq, err := c.Synth(env, eqpf)
		if err != nil {
			return nil, err
		}
		next, changed, err := rw.RewriteFocused(f, eq)
		if err != nil {
			return nil, errorf(pf, Shape, "%v", err)
		}
		if !changed {
			return nil, &ProofError{Span: eqpf.Span(), Kind: Shape, Msg: fmt.Sprintf("could not rewrite with %s", eq), Goal: f}
		}
		f = c.simplify(env, next)
	}
	return f, nil
}

// expand unfolds the named definitions. Every candidate of an overloaded
// name is unfolded.
func (c *Checker) expand(env *ast.Env, pf ast.Proof, f ast.Term, defs []*ast.Var) (ast.Term, error) {
	var names []string
	for _, d := range defs {
		if len(d.Resolved) == 0 {
			names = append(names, d.Name)
		}
		names = append(names, d.Resolved...)
	}
	next := eval.Reducer{Env: env, Policy: eval.Only(names...), Trace: c.Trace}.Reduce(f)
	if ast.Equal(next, f) {
		return nil, &ProofError{Span: pf.Span(), Kind: Shape, Msg: fmt.Sprintf("could not expand %s", pf), Goal: f}
	}
	return next, nil
}

func (c *Checker) transitive(env *ast.Env, pf *ast.PTransitive) (ast.Term, error) {
	first, err := c.Synth(env, pf.First)
	if err != nil {
		return nil, err
	}
	second, err := c.Synth(env, pf.Second)
	if err != nil {
		return nil, err
	}
	a, b, ok1 := ast.IsEquation(first)
	b2, d, ok2 := ast.IsEquation(second)
	if !ok1 || !ok2 {
		return nil, errorf(pf, Shape, "transitive expects two equations, found %s and %s", first, second)
	}
	if !ast.Equal(c.simplify(env, b), c.simplify(env, b2)) {
		return nil, &ProofError{Span: pf.Span(), Kind: Mismatch, Msg: "transitive: the equations do not meet", Left: b, Right: b2}
	}
	return ast.MkEqual(pf.Span(), a, d), nil
}

// injective turns C(a) = C(b) into a = b, one equation per argument.
func (c *Checker) injective(env *ast.Env, pf *ast.PInjective) (ast.Term, error) {
	f, err := c.Synth(env, pf.Body)
	if err != nil {
		return nil, err
	}
	lhs, rhs, ok := ast.IsEquation(f)
	if !ok {
		return nil, errorf(pf, Shape, "injective expects an equation, found %s", f)
	}
	l, lok := lhs.(*ast.Call)
	r, rok := rhs.(*ast.Call)
	if !lok || !rok || len(l.Args) != len(r.Args) || !c.isCtor(env, l.Rator, pf.Constructor) || !c.isCtor(env, r.Rator, pf.Constructor) {
		return nil, errorf(pf, Shape, "injective %s expects both sides to be applications of %s, found %s", pf.Constructor, pf.Constructor, f)
	}
	eqs := make([]ast.Term, len(l.Args))
	for i := range l.Args {
		eqs[i] = ast.MkEqual(pf.Span(), l.Args[i], r.Args[i])
	}
	return ast.MkAnd(pf.Span(), eqs...), nil
}

func (c *Checker) isCtor(env *ast.Env, rator ast.Term, ref *ast.Var) bool {
	v, ok := ast.StripInst(rator).(*ast.Var)
	if !ok {
		return false
	}
	if _, ok := env.Constructor(v.Id()); !ok {
		return false
	}
	if len(ref.Resolved) == 0 {
		return ref.Name == v.Id()
	}
	return lo.Contains(ref.Resolved, v.Id())
}

func (c *Checker) extensionality(env *ast.Env, pf *ast.PExtensionality, goal ast.Term) error {
	lhs, rhs, ok := ast.IsEquation(goal)
	if !ok {
		return &ProofError{Span: pf.Span(), Kind: Shape, Msg: "extensionality expects an equation", Goal: goal}
	}
	_, ty, err := c.Types.Synth(env, lhs)
	if err != nil {
		return err
	}
	ft, ok := ty.(*ast.FunctionType)
	if !ok || len(ft.Params) != 1 || len(ft.TypeParams) > 0 {
		return &ProofError{Span: pf.Span(), Kind: Shape, Msg: fmt.Sprintf("extensionality expects functions of one argument, found %s", ty), Goal: goal}
	}
	x := ast.Binding{Loc: pf.Loc, Name: ast.Fresh("x"), Type: ft.Params[0]}
	arg := ast.NewVar(pf.Span(), x.Name)
	pointwise := &ast.All{Loc: pf.Loc, Var: x, Body: ast.MkEqual(pf.Span(),
		&ast.Call{Loc: pf.Loc, Rator: lhs, Args: []ast.Term{arg}},
		&ast.Call{Loc: pf.Loc, Rator: rhs, Args: []ast.Term{arg}})}
	return c.Check(env, pf.Body, pointwise)
}

func (c *Checker) recall(env *ast.Env, pf *ast.PRecall) (ast.Term, error) {
	facts := env.LocalFacts()
	out := make([]ast.Term, len(pf.Facts))
	for i, t := range pf.Facts {
		f, err := c.formula(env, t)
		if err != nil {
			return nil, err
		}
		found := false
		for _, fact := range facts {
			if ast.Equal(c.simplify(env, fact.Formula), c.simplify(env, f)) {
				found = true
				break
			}
		}
		if !found {
			return nil, &ProofError{Span: t.Span(), Kind: Entailment, Msg: fmt.Sprintf("could not find %s among the facts", f), Facts: facts}
		}
		out[i] = f
	}
	return ast.MkAnd(pf.Span(), out...), nil
}
