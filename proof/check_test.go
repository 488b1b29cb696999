package proof_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
	"github.com/smasher164/deduce/names"
	"github.com/smasher164/deduce/parser"
	. "github.com/smasher164/deduce/proof"
	"github.com/smasher164/deduce/types"
)

var nowhere lexer.Span

const natSrc = `
union Nat { zero  suc(Nat) }
recursive operator +(Nat, Nat) -> Nat {
	operator +(zero, m) = m
	operator +(suc(n), m) = suc(n + m)
}
`

// checkProofs checks every theorem in src, stopping at the first failure.
func checkProofs(t *testing.T, src string, allowSorry bool) (*Checker, error) {
	t.Helper()
	stmts, err := parser.ParseString("test.pf", src)
	if err != nil {
		t.Fatal(err)
	}
	if err := names.NewResolver(nil).Uniquify(stmts); err != nil {
		t.Fatal(err)
	}
	tc := types.NewChecker("test")
	pc := NewChecker(tc, nil)
	pc.AllowSorry = allowSorry
	env := ast.NewEnv(nil)
	for _, s := range stmts {
		ns, next, err := tc.CheckStatement(env, s)
		if err != nil {
			return pc, err
		}
		if thm, ok := ns.(*ast.Theorem); ok {
			if err := pc.Check(env, thm.Proof, thm.Formula); err != nil {
				return pc, err
			}
		}
		env = next
	}
	return pc, nil
}

func proofError(t *testing.T, err error) *ProofError {
	t.Helper()
	var pe *ProofError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want a *ProofError", err)
	}
	return pe
}

func TestInduction(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
theorem refl: all n:Nat. n = n
proof
  induction Nat
  case zero { reflexive }
  case suc(n) assume IH { reflexive }
end

theorem rid: all n:Nat. n + zero = n
proof
  induction Nat
  case zero { evaluate }
  case suc(m) assume IH: m + zero = m {
    expand operator +
    rewrite IH
  }
end
`, false)
	if err != nil {
		t.Fatal(err)
	}
}

func TestInductionMissingCase(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
theorem refl: all n:Nat. n = n
proof
  induction Nat
  case zero { reflexive }
end
`, false)
	if err == nil || !strings.Contains(err.Error(), "missing case for suc") {
		t.Fatalf("err = %v, want missing case for suc", err)
	}
}

func TestInductionHypothesisMismatch(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
theorem rid: all n:Nat. n + zero = n
proof
  induction Nat
  case zero { evaluate }
  case suc(m) assume IH: zero + m = m { ? }
end
`, false)
	if pe := proofError(t, err); pe.Kind != Annotation {
		t.Errorf("kind = %v, want annotation: %v", pe.Kind, err)
	}
}

func TestCaseAnalysisErrors(t *testing.T) {
	tests := []struct {
		name, proof, want string
	}{
		{"missing", `
  induction Nat
  case zero { . }`, "missing case for suc"},
		{"duplicate", `
  induction Nat
  case zero { . }
  case zero { . }
  case suc(n) { . }`, "duplicate case for zero"},
		{"parameters", `
  induction Nat
  case zero { . }
  case suc(n, m) { . }`, "case suc expects 1 parameters, found 2"},
		{"order", `
  induction Nat
  case suc(n) { . }
  case zero { . }`, "expected case for zero, found case for suc"},
		{"switch missing", `
  arbitrary n:Nat
  switch n {
    case zero { . }
  }`, "missing case for suc"},
		{"switch duplicate", `
  arbitrary n:Nat
  switch n {
    case zero { . }
    case suc(k) { . }
    case suc(j) { . }
  }`, "duplicate case for suc"},
	}
	for _, tt := range tests {
		_, err := checkProofs(t, natSrc+"theorem t: all n:Nat. true\nproof"+tt.proof+"\nend\n", false)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.want)
		}
	}
}

func TestRewriteAssociative(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
associative + in Nat
postulate absorb: all x:Nat. 1 + x = 1
theorem t: all a:Nat, b:Nat. (a + 1) + b = a + 1
proof
  arbitrary a:Nat, b:Nat
  rewrite absorb
end
`, false)
	if err != nil {
		t.Fatal(err)
	}
}

func TestHole(t *testing.T) {
	_, err := checkProofs(t, "theorem f: false proof ? end", false)
	pe := proofError(t, err)
	if pe.Kind != Unfinished || !strings.Contains(pe.Error(), "unfinished proof") {
		t.Errorf("err = %v", err)
	}
	if pe.Facts == nil || len(pe.Facts) != 0 {
		t.Errorf("facts = %# v, want none", pretty.Formatter(pe.Facts))
	}
	if !ast.IsBool(pe.Goal, false) {
		t.Errorf("goal = %v", pe.Goal)
	}
}

func TestHoleListsGivens(t *testing.T) {
	_, err := checkProofs(t, `
theorem t: all P:bool. if P then P
proof
  arbitrary P:bool
  assume p
  ?
end
`, false)
	pe := proofError(t, err)
	if len(pe.Facts) != 1 || ast.BaseName(pe.Facts[0].Name) != "p" {
		t.Fatalf("facts = %v", pe.Facts)
	}
	if !strings.Contains(pe.Error(), "givens:") {
		t.Errorf("error = %q", pe.Error())
	}
}

func TestSorry(t *testing.T) {
	if _, err := checkProofs(t, "theorem f: false proof sorry end", false); err == nil {
		t.Error("sorry accepted without AllowSorry")
	}
	pc, err := checkProofs(t, "theorem f: false proof sorry end", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(pc.Warnings) != 1 {
		t.Errorf("warnings = %v", pc.Warnings)
	}
}

func TestConnectives(t *testing.T) {
	_, err := checkProofs(t, `
theorem swap: all P:bool, Q:bool. if P and Q then Q and P
proof
  arbitrary P:bool, Q:bool
  assume pq
  have q: Q by conjunct 1 of pq
  have p: P by conjunct 0 of pq
  q, p
end

theorem comm: all P:bool, Q:bool. if P or Q then Q or P
proof
  arbitrary P:bool, Q:bool
  assume h
  cases h
  case a: P { a }
  case b: Q { b }
end

theorem weaken: all P:bool, Q:bool. if P and Q then P or Q
proof
  arbitrary P:bool, Q:bool
  assume h
  h
end
`, false)
	if err != nil {
		t.Fatal(err)
	}
}

func TestCasesCoverage(t *testing.T) {
	_, err := checkProofs(t, `
theorem comm: all P:bool, Q:bool. if P or Q then Q or P
proof
  arbitrary P:bool, Q:bool
  assume h
  cases h
  case a { a }
end
`, false)
	pe := proofError(t, err)
	if pe.Kind != Coverage || !strings.Contains(pe.Msg, "expected 2 cases, found 1") {
		t.Errorf("err = %v", err)
	}
}

func TestEntailment(t *testing.T) {
	_, err := checkProofs(t, `
theorem t: all P:bool, Q:bool. if P then Q
proof
  arbitrary P:bool, Q:bool
  assume p
  p
end
`, false)
	if pe := proofError(t, err); pe.Kind != Entailment {
		t.Errorf("kind = %v: %v", pe.Kind, err)
	}
}

func TestReflexiveMismatch(t *testing.T) {
	_, err := checkProofs(t, natSrc+"theorem t: 1 + 1 = 3 proof reflexive end", false)
	pe := proofError(t, err)
	if pe.Kind != Mismatch {
		t.Fatalf("kind = %v: %v", pe.Kind, err)
	}
	if pe.Left.String() != "zero" || pe.Right.String() != "suc(zero)" {
		t.Errorf("differing subterms = %s, %s", pe.Left, pe.Right)
	}
}

func TestRewriteAndApply(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
postulate rid: all x:Nat. x + zero = x
postulate step: all x:Nat, y:Nat. if x = y then suc(x) = suc(y)

theorem twice: all y:Nat. (y + zero) + zero = y
proof
  arbitrary y:Nat
  rewrite rid | rid
end

theorem lifted: all y:Nat. suc(y + zero) = suc(y)
proof
  arbitrary y:Nat
  apply step to rid[y]
end

theorem back: all y:Nat. y = y + zero
proof
  arbitrary y:Nat
  symmetric rid[y]
end
`, false)
	if err != nil {
		t.Fatal(err)
	}
}

func TestRewriteFailure(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
postulate rid: all x:Nat. x + zero = x
theorem t: zero = zero
proof
  rewrite rid
end
`, false)
	if err == nil || !strings.Contains(err.Error(), "could not rewrite") {
		t.Errorf("err = %v", err)
	}
}

func TestExistential(t *testing.T) {
	_, err := checkProofs(t, natSrc+`
theorem ex: some x:Nat. x + zero = suc(zero)
proof
  choose suc(zero)
  evaluate
end

theorem use: if (some x:Nat. x = zero) then true
proof
  assume h
  obtain w where hw: w = zero from h
  .
end
`, false)
	if err != nil {
		t.Fatal(err)
	}
}

func TestSwitch(t *testing.T) {
	_, err := checkProofs(t, `
theorem lem: all b:bool. b or not b
proof
  arbitrary b:bool
  switch b {
    case true { . }
    case false { . }
  }
end
`, false)
	if err != nil {
		t.Fatal(err)
	}
}

func TestImplies(t *testing.T) {
	env := ast.NewEnv(nil)
	for _, name := range []string{"P", "Q"} {
		env = env.DeclareTerm(name, &ast.BoolType{})
	}
	p, q := ast.NewVar(nowhere, "P"), ast.NewVar(nowhere, "Q")
	pq := &ast.And{Args: []ast.Term{p, q}}
	imp := &ast.IfThen{Premise: q, Conclusion: p}
	c := NewChecker(types.NewChecker("test"), nil)

	tests := []struct {
		name string
		p, q ast.Term
		want bool
	}{
		{"conjunct", pq, p, true},
		{"conjunction", p, pq, false},
		{"disjunct", p, ast.MkOr(nowhere, q, p), true},
		{"false", ast.False(nowhere), q, true},
		{"true", q, ast.True(nowhere), true},
		{"premise", imp, &ast.IfThen{Premise: pq, Conclusion: p}, true},
		{"conclusion", imp, &ast.IfThen{Premise: q, Conclusion: pq}, false},
		{"unrelated", p, q, false},
	}
	for _, tt := range tests {
		if got := c.Implies(env, tt.p, tt.q); got != tt.want {
			t.Errorf("%s: Implies(%s, %s) = %v", tt.name, tt.p, tt.q, got)
		}
	}
}
