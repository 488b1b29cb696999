package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/kr/pretty"
	"github.com/smasher164/deduce/ast"
	. "github.com/smasher164/deduce/parser"
)

func parseOne(t *testing.T, src string) ast.Statement {
	t.Helper()
	stmts, err := ParseString("test.pf", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements: %s", len(stmts), pretty.Sprint(stmts))
	}
	return stmts[0]
}

func TestParseStatements(t *testing.T) {
	src := `
import Nat
public import List
module M
union Nat { zero  suc(Nat) }
union List<T> { empty  node(T, List<T>) }
recursive operator +(Nat, Nat) -> Nat {
  operator +(zero, m) = m
  operator +(suc(n), m) = suc(n + m)
}
recursive len<T>(List<T>) -> Nat {
  len(empty) = zero
  len(node(x, xs)) = suc(len(xs))
}
private opaque define two : Nat = suc(suc(zero))
associative + in Nat
auto add_zero
export len
assert 2 + 3 = 5
print len(empty)
postulate ax: all x:Nat. x = x
lemma l: true proof . end
`
	stmts, err := ParseString("test.pf", src)
	if err != nil {
		t.Fatal(err)
	}
	var kinds []string
	for _, s := range stmts {
		kinds = append(kinds, strings.TrimPrefix(fmt.Sprintf("%T", s), "*ast."))
	}
	want := []string{"Import", "Import", "Module", "Union", "Union", "RecFun", "RecFun", "Define",
		"Associative", "Auto", "Export", "Assert", "Print", "Postulate", "Theorem"}
	if diff := pretty.Diff(kinds, want); len(diff) > 0 {
		t.Errorf("statement kinds: %v", diff)
	}
	if imp := stmts[1].(*ast.Import); !imp.Public || imp.Name != "List" {
		t.Errorf("got %s", imp)
	}
	plus := stmts[5].(*ast.RecFun)
	if plus.Name != "+" || len(plus.Cases) != 2 || len(plus.Cases[1].Params) != 1 {
		t.Errorf("got %s", pretty.Sprint(plus))
	}
	if pat := plus.Cases[1].Pattern.(*ast.PatternCons); pat.Constructor.Name != "suc" || pat.Params[0] != "n" {
		t.Errorf("pattern = %s", pat)
	}
	length := stmts[6].(*ast.RecFun)
	if len(length.TypeParams) != 1 {
		t.Errorf("type params = %v", length.TypeParams)
	}
	if _, ok := length.Params[0].(*ast.TypeInst); !ok {
		t.Errorf("param = %s", length.Params[0])
	}
	def := stmts[7].(*ast.Define)
	if !def.Private || !def.Opaque || def.Type == nil {
		t.Errorf("got %s", pretty.Sprint(def))
	}
	if lemma := stmts[14].(*ast.Theorem); !lemma.IsLemma {
		t.Errorf("lemma not marked")
	}
}

func TestParseTerms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3 = 7", "1 + 2 * 3 = 7"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"a ≠ b", "a ≠ b"},
		{"a /= b", "a ≠ b"},
		{"not p or q and r", "not p or q and r"},
		{"(p or q) and r", "(p or q) and r"},
		{"p implies q", "if p then q"},
		{"if p then q", "if p then q"},
		{"all x:Nat, y:Nat. x + y = y + x", "all x:Nat. all y:Nat. x + y = y + x"},
		{"f(x, g(y))", "f(x, g(y))"},
		{"2 ^ 3 ^ 2", "2 ^ 3 ^ 2"},
	}
	for _, tt := range tests {
		a := parseOne(t, "assert "+tt.src).(*ast.Assert)
		if got := a.Formula.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParseTermForms(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"fun x:Nat { x }", &ast.Lambda{}},
		{"generic T { fun x:T { x } }", &ast.Generic{}},
		{"@len<Nat>", &ast.TermInst{}},
		{"switch b { case true { 1 } case false { 0 } }", &ast.Switch{}},
		{"define x = 1; x", &ast.TLet{}},
		{"[1, 2]", &ast.ArrayLit{}},
		{"array(l)", &ast.MakeArray{}},
		{"a[0]", &ast.ArrayGet{}},
		{"?", &ast.Hole{}},
		{"...", &ast.Omitted{}},
		{"#x#", &ast.Mark{}},
		{"if b then 1 else 2", &ast.Conditional{}},
		{"some x:Nat. x = x", &ast.Some{}},
	}
	for _, tt := range tests {
		got := parseOne(t, "print "+tt.src).(*ast.Print).Subject
		if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", tt.want) {
			t.Errorf("%s: got %T, want %T", tt.src, got, tt.want)
		}
	}
}

func TestParseProofs(t *testing.T) {
	src := `
theorem t: all n:Nat. n + zero = n
proof
  induction Nat
  case zero {
    expand operator +
    .
  }
  case suc(m) assume IH: m + zero = m {
    have h: suc(m) + zero = suc(m + zero) by expand operator+ in refl<Nat>[m]
    suffices suc(m + zero) = suc(m) by rewrite h
    rewrite IH | h
    reflexive
  }
end
`
	thm := parseOne(t, src).(*ast.Theorem)
	ind, ok := thm.Proof.(*ast.Induction)
	if !ok {
		t.Fatalf("got %T", thm.Proof)
	}
	if len(ind.Cases) != 2 || len(ind.Cases[1].Hyps) != 1 || ind.Cases[1].Hyps[0].Label != "IH" {
		t.Fatalf("got %s", pretty.Sprint(ind))
	}
	if _, ok := ind.Cases[0].Body.(*ast.ApplyDefsGoal).Body.(*ast.PTrue); !ok {
		t.Errorf("zero case = %s", ind.Cases[0].Body)
	}
	have := ind.Cases[1].Body.(*ast.PLet)
	fact, ok := have.Because.(*ast.ApplyDefsFact)
	if !ok {
		t.Fatalf("because = %T", have.Because)
	}
	if _, ok := fact.Subject.(*ast.AllElim).Univ.(*ast.AllElimTypes); !ok {
		t.Errorf("subject = %s", pretty.Sprint(fact.Subject))
	}
	suff := have.Body.(*ast.Suffices)
	if rw := suff.Reason.(*ast.RewriteGoal); rw.Body != nil {
		t.Errorf("reason should have no continuation")
	}
	rw := suff.Body.(*ast.RewriteGoal)
	if len(rw.Equations) != 2 {
		t.Errorf("equations = %v", rw.Equations)
	}
	if _, ok := rw.Body.(*ast.PReflexive); !ok {
		t.Errorf("rest = %T", rw.Body)
	}
}

func TestParseProofForms(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"assume h: p  h", &ast.ImpIntro{}},
		{"arbitrary x:Nat  ?", &ast.AllIntro{}},
		{"choose zero  reflexive", &ast.SomeIntro{}},
		{"obtain x where h: x = x from e  h", &ast.SomeElim{}},
		{"cases h case a: p { a } case b: q { b }", &ast.Cases{}},
		{"switch b { case true assume t { . } case false { sorry } }", &ast.SwitchProof{}},
		{"apply f to x", &ast.ModusPonens{}},
		{"symmetric e", &ast.PSymmetric{}},
		{"transitive e1 e2", &ast.PTransitive{}},
		{"injective suc e", &ast.PInjective{}},
		{"extensionality e", &ast.PExtensionality{}},
		{"conjunct 1 of h", &ast.PAndElim{}},
		{"recall p, q", &ast.PRecall{}},
		{"h1, h2", &ast.PTuple{}},
		{"define y = zero  .", &ast.PTLet{}},
		{"evaluate", &ast.EvaluateGoal{}},
		{"evaluate in h", &ast.EvaluateFact{}},
		{"conclude p by h", &ast.PAnnot{}},
		{"{ sorry }", &ast.PSorry{}},
	}
	for _, tt := range tests {
		thm := parseOne(t, "theorem t: p proof "+tt.src+" end").(*ast.Theorem)
		if fmt.Sprintf("%T", thm.Proof) != fmt.Sprintf("%T", tt.want) {
			t.Errorf("%s: got %T, want %T", tt.src, thm.Proof, tt.want)
		}
	}
}

func TestGenRecFun(t *testing.T) {
	fn := parseOne(t, `
recursive half(n:Nat) -> Nat measure n of Nat {
  if n = zero then zero else suc(half(pred(pred(n))))
}
terminates { sorry }
`).(*ast.GenRecFun)
	if len(fn.Params) != 1 || fn.Measure == nil || fn.MeasureType == nil || fn.Terminates == nil {
		t.Errorf("got %s", pretty.Sprint(fn))
	}
	if _, ok := fn.Body.(*ast.Conditional); !ok {
		t.Errorf("body = %T", fn.Body)
	}
}

func TestSyntaxError(t *testing.T) {
	tests := []struct {
		src, msg string
	}{
		{"theorem t: p proof", "expected proof"},
		{"union { }", "expected identifier"},
		{"assert 1 +", "expected term"},
		{"assert 1_", "'_' must separate successive digits"},
		{"public define x = 1", "public only applies to import"},
	}
	for _, tt := range tests {
		_, err := ParseString("bad.pf", tt.src)
		var serr *SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("%s: got %v, want syntax error", tt.src, err)
			continue
		}
		if !strings.Contains(serr.Error(), tt.msg) || !strings.HasPrefix(serr.Error(), "bad.pf:") {
			t.Errorf("%s: got %q, want %q", tt.src, serr.Error(), tt.msg)
		}
	}
}

func TestParseFile(t *testing.T) {
	fsys := fstest.MapFS{"Nat.pf": {Data: []byte("union Nat { zero suc(Nat) }")}}
	stmts, err := ParseFile(fsys, "Nat.pf")
	if err != nil {
		t.Fatal(err)
	}
	if u := stmts[0].(*ast.Union); u.Span().File != "Nat.pf" {
		t.Errorf("span = %s", u.Span())
	}
	if _, err := ParseFile(fsys, "Nat.txt"); err == nil {
		t.Errorf("expected extension error")
	}
}
