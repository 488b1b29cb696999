package types_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
	"github.com/smasher164/deduce/names"
	"github.com/smasher164/deduce/parser"
	. "github.com/smasher164/deduce/types"
)

var nowhere lexer.Span

const natSrc = `
union Nat { zero  suc(Nat) }
recursive operator +(Nat, Nat) -> Nat {
	operator +(zero, m) = m
	operator +(suc(n), m) = suc(n + m)
}
`

// checkSource parses, renames and checks src, stopping at the first
// statement that fails.
func checkSource(t *testing.T, src string) ([]ast.Statement, *ast.Env, error) {
	t.Helper()
	stmts, err := parser.ParseString("test.pf", src)
	if err != nil {
		t.Fatal(err)
	}
	if err := names.NewResolver(nil).Uniquify(stmts); err != nil {
		t.Fatal(err)
	}
	c := NewChecker("test")
	env := ast.NewEnv(nil)
	var out []ast.Statement
	for _, s := range stmts {
		ns, next, err := c.CheckStatement(env, s)
		if err != nil {
			return out, env, err
		}
		out = append(out, ns)
		env = next
	}
	return out, env, nil
}

func mustCheck(t *testing.T, src string) ([]ast.Statement, *ast.Env) {
	t.Helper()
	stmts, env, err := checkSource(t, src)
	if err != nil {
		t.Fatal(err)
	}
	return stmts, env
}

// sucs counts the applications in a constructor chain.
func sucs(t ast.Term) int {
	n := 0
	for {
		c, ok := t.(*ast.Call)
		if !ok {
			return n
		}
		n++
		t = c.Args[0]
	}
}

func TestNumeralElaboration(t *testing.T) {
	stmts, _ := mustCheck(t, natSrc+"assert 2 + 3 = 5")
	as := stmts[len(stmts)-1].(*ast.Assert)
	lhs, rhs, ok := ast.IsEquation(as.Formula)
	if !ok {
		t.Fatalf("assert formula = %# v", pretty.Formatter(as.Formula))
	}
	if n := sucs(rhs); n != 5 {
		t.Errorf("5 elaborated to a chain of %d", n)
	}
	sum := lhs.(*ast.Call)
	if a, b := sucs(sum.Args[0]), sucs(sum.Args[1]); a != 2 || b != 3 {
		t.Errorf("arguments elaborated to %d and %d", a, b)
	}
}

func TestCheckLeavesInputUnchanged(t *testing.T) {
	stmts, err := parser.ParseString("test.pf", natSrc+"assert 1 = 1")
	if err != nil {
		t.Fatal(err)
	}
	if err := names.NewResolver(nil).Uniquify(stmts); err != nil {
		t.Fatal(err)
	}
	c := NewChecker("test")
	env := ast.NewEnv(nil)
	for _, s := range stmts {
		if _, env, err = c.CheckStatement(env, s); err != nil {
			t.Fatal(err)
		}
	}
	lhs, _, _ := ast.IsEquation(stmts[len(stmts)-1].(*ast.Assert).Formula)
	if _, ok := lhs.(*ast.IntLit); !ok {
		t.Errorf("input formula was rewritten to %s", lhs)
	}
}

func TestMissingCase(t *testing.T) {
	_, _, err := checkSource(t, natSrc+`
recursive pred(Nat) -> Nat {
	pred(zero) = zero
}`)
	if err == nil || !strings.Contains(err.Error(), "missing case for suc") {
		t.Fatalf("err = %v, want missing case for suc", err)
	}
}

func TestDuplicateCase(t *testing.T) {
	_, _, err := checkSource(t, natSrc+`
recursive pred(Nat) -> Nat {
	pred(zero) = zero
	pred(zero) = zero
	pred(suc(n)) = n
}`)
	if err == nil || !strings.Contains(err.Error(), "duplicate case for zero") {
		t.Fatalf("err = %v, want duplicate case", err)
	}
}

func TestMismatch(t *testing.T) {
	_, _, err := checkSource(t, natSrc+"define x : bool = zero")
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want a *TypeError", err)
	}
	if _, ok := te.Expected.(*ast.BoolType); !ok {
		t.Errorf("expected = %v, want bool", te.Expected)
	}
	if te.Actual == nil || te.Actual.String() != "Nat" {
		t.Errorf("actual = %v, want Nat", te.Actual)
	}
}

func TestOverloadSelection(t *testing.T) {
	stmts, _ := mustCheck(t, natSrc+`
union Two { tt  ff }
recursive size(Nat) -> Nat {
	size(zero) = zero
	size(suc(n)) = suc(zero)
}
recursive size(Two) -> Nat {
	size(tt) = zero
	size(ff) = zero
}
define a = size(ff)
`)
	second := stmts[len(stmts)-2].(*ast.RecFun)
	def := stmts[len(stmts)-1].(*ast.Define)
	call := def.Body.(*ast.Call)
	if got := call.Rator.(*ast.Var); got.Overloaded() || got.Id() != second.Name {
		t.Errorf("size resolved to %v, want %s", got.Resolved, second.Name)
	}
}

func TestGenericInference(t *testing.T) {
	stmts, _ := mustCheck(t, natSrc+`
union List<T> { empty  node(T, List<T>) }
define xs = node(zero, empty)
`)
	def := stmts[len(stmts)-1].(*ast.Define)
	if got := def.Type.String(); got != "List<Nat>" {
		t.Errorf("type = %s, want List<Nat>", got)
	}
	call := def.Body.(*ast.Call)
	inst, ok := call.Rator.(*ast.TermInst)
	if !ok || !inst.Inferred {
		t.Fatalf("rator = %# v, want an inferred instantiation", pretty.Formatter(call.Rator))
	}
	if _, ok := call.Args[1].(*ast.TermInst); !ok {
		t.Errorf("empty was not instantiated: %s", call.Args[1])
	}
}

func TestNonNaturalNumeral(t *testing.T) {
	_, _, err := checkSource(t, natSrc+`
union List<T> { empty  node(T, List<T>) }
define xs : List<Nat> = 3
`)
	if err == nil {
		t.Fatal("a literal checked against a list")
	}
}

func TestAssociative(t *testing.T) {
	stmts, env := mustCheck(t, natSrc+"associative + in Nat")
	as := stmts[len(stmts)-1].(*ast.Associative)
	if !env.IsAssociative(as.Operator.Id()) {
		t.Errorf("%s not registered as associative", as.Operator.Id())
	}
	_, _, err := checkSource(t, natSrc+"associative + in bool")
	if err == nil || !strings.Contains(err.Error(), "is not a binary operator") {
		t.Errorf("err = %v", err)
	}
}

func TestAssociativeKeepsType(t *testing.T) {
	const appendSrc = natSrc + `
union List<T> { empty  node(T, List<T>) }
recursive operator ++<T>(List<T>, List<T>) -> List<T> {
  operator ++(empty, ys) = ys
  operator ++(node(x, xs), ys) = node(x, xs ++ ys)
}
associative ++ in List<Nat>
`
	stmts, env := mustCheck(t, appendSrc+"associative ++ in List<Nat>")
	as := stmts[len(stmts)-2].(*ast.Associative)
	typ, ok := env.AssociativeAt(as.Operator.Id())
	if !ok || typ.String() != "List<Nat>" {
		t.Errorf("++ associative in %v", typ)
	}
	_, _, err := checkSource(t, appendSrc+"associative ++ in List<bool>")
	if err == nil || !strings.Contains(err.Error(), "already associative in List<Nat>") {
		t.Errorf("err = %v", err)
	}
}

func TestTerminationObligation(t *testing.T) {
	stmts, _ := mustCheck(t, natSrc+`
recursive operator <(Nat, Nat) -> bool {
	operator <(zero, m) = switch m { case zero { false } case suc(k) { true } }
	operator <(suc(n), m) = switch m { case zero { false } case suc(k) { n < k } }
}
recursive half(n: Nat) -> Nat measure n of Nat {
	switch n {
	  case zero { zero }
	  case suc(m) { switch m { case zero { zero } case suc(k) { suc(half(k)) } } }
	}
}
recursive id(n: Nat) -> Nat measure n of Nat { n }
`)
	half := stmts[len(stmts)-2].(*ast.GenRecFun)
	ob, ok := half.Obligation.(*ast.All)
	if !ok {
		t.Fatalf("obligation = %v", half.Obligation)
	}
	if s := ob.String(); !strings.Contains(s, "<") {
		t.Errorf("obligation %s does not compare measures", s)
	}
	id := stmts[len(stmts)-1].(*ast.GenRecFun)
	if !ast.IsBool(id.Obligation, true) {
		t.Errorf("obligation of a non-recursive function = %s, want true", id.Obligation)
	}
}

func TestMissingLessThan(t *testing.T) {
	_, _, err := checkSource(t, natSrc+`
recursive loop(n: Nat) -> Nat measure n of Nat { loop(n) }
`)
	if err == nil || !strings.Contains(err.Error(), "no < operator") {
		t.Errorf("err = %v", err)
	}
}

func TestMatch(t *testing.T) {
	list := ast.NewVar(nowhere, "List")
	tv := ast.NewVar(nowhere, "T")
	nat := ast.NewVar(nowhere, "Nat")
	pattern := &ast.TypeInst{Typ: list, Args: []ast.Type{tv}}
	actual := &ast.TypeInst{Typ: list, Args: []ast.Type{nat}}
	sub := make(map[string]ast.Type)
	if !Match([]string{"T"}, pattern, actual, sub) {
		t.Fatal("List<T> does not match List<Nat>")
	}
	if got := sub["T"]; got == nil || !ast.TypeEqual(got, nat) {
		t.Errorf("T bound to %v", got)
	}
	if Match([]string{"T"}, pattern, &ast.BoolType{}, make(map[string]ast.Type)) {
		t.Error("List<T> matches bool")
	}
}
