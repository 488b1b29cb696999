package eval_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/deduce/ast"
	. "github.com/smasher164/deduce/eval"
	"github.com/smasher164/deduce/names"
	"github.com/smasher164/deduce/parser"
	"github.com/smasher164/deduce/types"
)

const natSrc = `
union Nat { zero  suc(Nat) }
recursive operator +(Nat, Nat) -> Nat {
	operator +(zero, m) = m
	operator +(suc(n), m) = suc(n + m)
}
`

type loaded struct {
	env   *ast.Env
	stmts []ast.Statement
}

func load(t *testing.T, src string) loaded {
	t.Helper()
	stmts, err := parser.ParseString("test.pf", src)
	if err != nil {
		t.Fatal(err)
	}
	if err := names.NewResolver(nil).Uniquify(stmts); err != nil {
		t.Fatal(err)
	}
	c := types.NewChecker("test")
	env := ast.NewEnv(nil)
	out := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		if out[i], env, err = c.CheckStatement(env, s); err != nil {
			t.Fatal(err)
		}
	}
	return loaded{env: env, stmts: out}
}

// formula returns the formula of the i'th statement, counting from the
// end when i is negative.
func (l loaded) formula(i int) ast.Term {
	if i < 0 {
		i += len(l.stmts)
	}
	switch s := l.stmts[i].(type) {
	case *ast.Assert:
		return s.Formula
	case *ast.Postulate:
		return s.Formula
	case *ast.Theorem:
		return s.Formula
	}
	panic("no formula")
}

func (l loaded) name(i int) string {
	name, _ := ast.DeclName(l.stmts[i])
	return name
}

func (l loaded) reduce(p Policy, t ast.Term) ast.Term {
	return Reducer{Env: l.env, Policy: p}.Reduce(t)
}

func body(t ast.Term) ast.Term {
	for {
		all, ok := t.(*ast.All)
		if !ok {
			return t
		}
		t = all.Body
	}
}

func TestNumerals(t *testing.T) {
	l := load(t, natSrc+`
assert 2 + 3 = 5
assert 2 + 2 = 5
`)
	if got := l.reduce(Everything(), l.formula(-2)); !ast.IsBool(got, true) {
		t.Errorf("2 + 3 = 5 reduced to %s", got)
	}
	if got := l.reduce(Everything(), l.formula(-1)); !ast.IsBool(got, false) {
		t.Errorf("2 + 2 = 5 reduced to %s", got)
	}
}

func TestPolicy(t *testing.T) {
	l := load(t, natSrc+"assert 2 + 3 = 5")
	f := l.formula(-1)
	if got := l.reduce(Nothing(), f); ast.IsBool(got, true) {
		t.Errorf("+ unfolded without permission")
	}
	if got := l.reduce(Only(l.name(1)), f); !ast.IsBool(got, true) {
		t.Errorf("2 + 3 = 5 reduced to %s with + permitted", got)
	}
	p := Only()
	if q := p.With(l.name(1)); q.Permits(l.name(1)) == p.Permits(l.name(1)) {
		t.Errorf("With did not widen the policy")
	}
}

func TestStuckOnVariable(t *testing.T) {
	l := load(t, natSrc+`
assert all x:Nat. x + zero = x
assert all x:Nat. zero + x = x
`)
	stuck := body(l.reduce(Everything(), l.formula(-2)))
	lhs, _, ok := ast.IsEquation(stuck)
	if !ok {
		t.Fatalf("x + zero = x reduced to %s", stuck)
	}
	if _, ok := lhs.(*ast.Call); !ok {
		t.Errorf("x + zero reduced to %s", lhs)
	}
	if got := body(l.reduce(Everything(), l.formula(-1))); !ast.IsBool(got, true) {
		t.Errorf("zero + x = x reduced to %s", got)
	}
}

func TestFlatten(t *testing.T) {
	l := load(t, natSrc+`
associative + in Nat
assert all x:Nat, y:Nat, z:Nat. (x + y) + z = x + (y + z)
`)
	f := l.formula(-1)
	flat := Flatten(l.env, f)
	if again := Flatten(l.env, flat); !ast.Equal(again, flat) {
		t.Errorf("flatten is not idempotent:\n%s\n%s", flat, again)
	}
	lhs, rhs, _ := ast.IsEquation(body(flat))
	if !ast.Equal(lhs, rhs) {
		t.Errorf("%s and %s differ after flattening", lhs, rhs)
	}
	if n := len(lhs.(*ast.Call).Args); n != 3 {
		t.Errorf("flattened to %d arguments: %# v", n, pretty.Formatter(lhs))
	}
	if got := body(l.reduce(Everything(), f)); !ast.IsBool(got, true) {
		t.Errorf("associativity reduced to %s", got)
	}
}

func TestAssociativeWindows(t *testing.T) {
	l := load(t, natSrc+`
associative + in Nat
assert all x:Nat. x + 1 + 2 = x + 3
`)
	if got := body(l.reduce(Everything(), l.formula(-1))); !ast.IsBool(got, true) {
		t.Errorf("x + 1 + 2 = x + 3 reduced to %s", got)
	}
}

func TestMatch(t *testing.T) {
	l := load(t, natSrc+`
postulate rid: all x:Nat. x + zero = x
assert 1 + zero = 1
`)
	vars, pattern, _ := Equation(l.formula(-2))
	target, _, _ := ast.IsEquation(l.formula(-1))
	sub, ok := Match(l.env, vars, pattern, target)
	if !ok {
		t.Fatalf("%s does not match %s", pattern, target)
	}
	want := target.(*ast.Call).Args[0]
	if got := sub[vars[0]]; !ast.Equal(got, want) {
		t.Errorf("x bound to %v, want %s", got, want)
	}
	if _, ok := Match(l.env, vars, pattern, want); ok {
		t.Errorf("%s matched %s", pattern, want)
	}
}

func TestRewriteMarked(t *testing.T) {
	l := load(t, natSrc+`
postulate rid: all x:Nat. x + zero = x
assert #1 + zero# = 1 + zero
assert #1 + zero# = #1 + zero#
`)
	rw := Rewriter{Env: l.env}
	eq := l.formula(-3)
	got, changed, err := rw.RewriteFocused(l.formula(-2), eq)
	if err != nil || !changed {
		t.Fatalf("RewriteFocused = %s, %v, %v", got, changed, err)
	}
	lhs, rhs, _ := ast.IsEquation(got)
	if s := lhs.String(); s != "suc(zero)" {
		t.Errorf("marked side rewrote to %s", s)
	}
	if s := rhs.String(); s != "suc(zero) + zero" {
		t.Errorf("unmarked side rewrote to %s", s)
	}
	if _, _, err := rw.RewriteFocused(l.formula(-1), eq); err == nil {
		t.Error("two marks accepted")
	}
}

func TestRewriteCommutativity(t *testing.T) {
	l := load(t, natSrc+`
postulate comm: all x:Nat, y:Nat. x + y = y + x
assert all a:Nat, b:Nat. a + b = zero
`)
	target := body(l.formula(-1))
	got, changed := Rewriter{Env: l.env}.Rewrite(target, l.formula(-2), -1)
	if !changed {
		t.Fatalf("nothing rewritten in %s", target)
	}
	if ast.Equal(got, target) {
		t.Errorf("commutativity rewrote %s back to itself", target)
	}
}

func TestTrace(t *testing.T) {
	l := load(t, natSrc+"assert all x:Nat. zero + x = x")
	var buf bytes.Buffer
	r := Reducer{Env: l.env, Policy: Everything(), Trace: NewTracer(&buf, false, "+")}
	r.Reduce(l.formula(-1))
	if !strings.Contains(buf.String(), "unfold + case zero") {
		t.Errorf("trace = %q", buf.String())
	}
	buf.Reset()
	r.Trace = NewTracer(&buf, false, "pred")
	r.Reduce(l.formula(-1))
	if buf.Len() != 0 {
		t.Errorf("untraced definition printed %q", buf.String())
	}
}

func TestNumeral(t *testing.T) {
	l := load(t, natSrc)
	u := l.stmts[0].(*ast.Union)
	zero, suc, ok := NatShaped(u)
	if !ok {
		t.Fatalf("%s is not nat-shaped", u)
	}
	three := Numeral(u.Span(), 3, ast.NewVar(u.Span(), zero), ast.NewVar(u.Span(), suc))
	if got := three.String(); got != "suc(suc(suc(zero)))" {
		t.Errorf("Numeral(3) = %s", got)
	}
}

func TestRewriteDepth(t *testing.T) {
	l := load(t, natSrc+`
postulate zz: zero + zero = zero
assert suc(zero + zero) = suc(zero)
`)
	target, want, _ := ast.IsEquation(l.formula(-1))
	rw := Rewriter{Env: l.env}
	tests := []struct {
		depth   int
		changed bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{-1, true},
	}
	for _, tt := range tests {
		got, changed := rw.Rewrite(target, l.formula(-2), tt.depth)
		if changed != tt.changed {
			t.Errorf("depth %d: changed = %v", tt.depth, changed)
		}
		if tt.changed && !ast.Equal(got, want) {
			t.Errorf("depth %d: rewrote to %s", tt.depth, got)
		}
		if !tt.changed && !ast.Equal(got, target) {
			t.Errorf("depth %d: %s changed to %s", tt.depth, target, got)
		}
	}
}

func TestRewriteDoesNotRevisit(t *testing.T) {
	l := load(t, natSrc+`
postulate grow: all x:Nat. x = x + zero
assert suc(zero) = suc(zero)
`)
	target, _, _ := ast.IsEquation(l.formula(-1))
	got, changed := Rewriter{Env: l.env}.Rewrite(target, l.formula(-2), -1)
	if !changed || got.String() != "suc(zero) + zero" {
		t.Errorf("Rewrite = %s, %v", got, changed)
	}
}

func TestRewriteFlattens(t *testing.T) {
	l := load(t, natSrc+`
associative + in Nat
postulate absorb: all x:Nat. 1 + x = 1
assert all a:Nat, b:Nat. (a + 1) + b = a + 1
`)
	lhs, want, _ := ast.IsEquation(body(l.formula(-1)))
	got, changed := Rewriter{Env: l.env}.Rewrite(lhs, l.formula(-2), -1)
	if !changed {
		t.Fatalf("%s not rewritten", lhs)
	}
	if !ast.Equal(got, Flatten(l.env, want)) {
		t.Errorf("rewrote to %# v", pretty.Formatter(got))
	}
}

func TestRewriteWindows(t *testing.T) {
	l := load(t, natSrc+`
associative + in Nat
postulate pair: all x:Nat. x + zero = x
postulate triple: all x:Nat, y:Nat. x + zero + y = x + y
assert all a:Nat, b:Nat, c:Nat. a + b + zero + c = a + b + c
`)
	lhs, want, _ := ast.IsEquation(body(l.formula(-1)))
	want = Flatten(l.env, want)
	rw := Rewriter{Env: l.env}
	for _, eq := range []int{-3, -2} {
		got, changed := rw.Rewrite(lhs, l.formula(eq), -1)
		if !changed || !ast.Equal(got, want) {
			t.Errorf("%s: rewrote %s to %s", l.name(len(l.stmts)+eq), lhs, got)
		}
	}
}

func TestAutoRules(t *testing.T) {
	l := load(t, natSrc+`
recursive pick(Nat, bool) -> bool {
  pick(zero, b) = b or not b
  pick(suc(n), b) = b
}
postulate rid: all x:Nat. x + zero = x
postulate em: all b:bool. (b or not b) = true
auto rid
auto em
assert all y:Nat. suc(y) + zero = suc(y)
assert all c:bool. pick(zero, c)
`)
	for _, i := range []int{-2, -1} {
		if got := body(l.reduce(Everything(), l.formula(i))); !ast.IsBool(got, true) {
			t.Errorf("%s reduced to %s", l.formula(i), got)
		}
	}
}

func TestArithmeticOnlyWhenItAgrees(t *testing.T) {
	l := load(t, natSrc+`
recursive operator -(Nat, Nat) -> Nat {
  operator -(zero, m) = m
  operator -(suc(n), m) = suc(n - m)
}
assert 3 - 1 = 4
`)
	if f := l.stmts[1].(*ast.RecFun); !f.Arithmetic {
		t.Errorf("%s not evaluated arithmetically", ast.BaseName(f.Name))
	}
	if f := l.stmts[2].(*ast.RecFun); f.Arithmetic {
		t.Errorf("%s evaluated as subtraction", ast.BaseName(f.Name))
	}
	if got := l.reduce(Everything(), l.formula(-1)); !ast.IsBool(got, true) {
		t.Errorf("3 - 1 = 4 reduced to %s", got)
	}
}

func TestReduceCommutesWithSubst(t *testing.T) {
	l := load(t, natSrc+`
assert all x:Nat. zero + x = x
assert all x:Nat. x + zero = x
assert all x:Nat. suc(x) + 1 = x
assert all x:Nat. (x + 1) + x = x
`)
	u := l.stmts[0].(*ast.Union)
	zero, suc, _ := NatShaped(u)
	for i := 2; i < len(l.stmts); i++ {
		all := l.formula(i).(*ast.All)
		lhs, _, _ := ast.IsEquation(all.Body)
		for _, n := range []int{0, 2} {
			v := Numeral(u.Span(), n, ast.NewVar(u.Span(), zero), ast.NewVar(u.Span(), suc))
			direct := l.reduce(Everything(), ast.Subst1(lhs, all.Var.Name, v))
			late := l.reduce(Everything(), ast.Subst1(l.reduce(Everything(), lhs), all.Var.Name, v))
			if !ast.Equal(direct, late) {
				t.Errorf("%s at %d: %s, then %s", lhs, n, direct, late)
			}
		}
	}
}

func TestUndecidedEquality(t *testing.T) {
	l := load(t, natSrc+`
assert all x:Nat, y:Nat. x = suc(y)
assert all y:Nat. zero = suc(y)
`)
	got := body(l.reduce(Everything(), l.formula(-2)))
	if _, _, ok := ast.IsEquation(got); !ok {
		t.Errorf("x = suc(y) reduced to %s", got)
	}
	if got := body(l.reduce(Everything(), l.formula(-1))); !ast.IsBool(got, false) {
		t.Errorf("zero = suc(y) reduced to %s", got)
	}
}
