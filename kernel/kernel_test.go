package kernel_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/smasher164/deduce/ast"
	. "github.com/smasher164/deduce/kernel"
)

const natSrc = `
union Nat { zero  suc(Nat) }
recursive operator +(Nat, Nat) -> Nat {
	operator +(zero, m) = m
	operator +(suc(n), m) = suc(n + m)
}
recursive operator <(Nat, Nat) -> bool {
	operator <(zero, m) = switch m { case zero { false } case suc(k) { true } }
	operator <(suc(n), m) = switch m { case zero { false } case suc(k) { n < k } }
}
`

func mapFS(files ...string) fstest.MapFS {
	fsys := make(fstest.MapFS)
	for i := 0; i+1 < len(files); i += 2 {
		fsys[files[i]] = &fstest.MapFile{Data: []byte(files[i+1])}
	}
	return fsys
}

func TestCheckFile(t *testing.T) {
	fsys := mapFS(
		"Nat.pf", natSrc,
		"main.pf", `
import Nat
theorem lid: all n:Nat. zero + n = n
proof
  arbitrary n:Nat
  evaluate
end
`)
	k := New(Config{})
	m, err := k.CheckFile(fsys, "main.pf")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "main" || len(m.Checked) != 2 {
		t.Errorf("module %s checked %d statements", m.Name, len(m.Checked))
	}
	if _, ok := k.Module("Nat"); !ok {
		t.Error("Nat was not loaded")
	}
}

func TestImportCycle(t *testing.T) {
	fsys := mapFS(
		"A.pf", "import B",
		"B.pf", "import A",
	)
	_, err := New(Config{}).CheckFile(fsys, "A.pf")
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want a *LoadError", err)
	}
	if !strings.Contains(err.Error(), "import cycle detected: A -> B -> A") {
		t.Errorf("err = %v", err)
	}
}

func TestSyntaxErrorIsLoadError(t *testing.T) {
	_, err := New(Config{}).CheckFile(mapFS("bad.pf", "assert 1 +"), "bad.pf")
	var le *LoadError
	if !errors.As(err, &le) {
		t.Errorf("err = %v, want a *LoadError", err)
	}
}

func TestAssert(t *testing.T) {
	fsys := mapFS("a.pf", natSrc+`
assert 2 + 3 = 5
assert 2 + 2 = 5
`)
	_, err := New(Config{}).CheckFile(fsys, "a.pf")
	if err == nil || !strings.Contains(err.Error(), "assertion failed") {
		t.Fatalf("err = %v", err)
	}
	if n := strings.Count(err.Error(), "assertion failed"); n != 1 {
		t.Errorf("%d assertions failed, want 1", n)
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	_, err := New(Config{Output: &out}).CheckFile(mapFS("p.pf", natSrc+"print 1 + 1"), "p.pf")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "suc(suc(zero))" {
		t.Errorf("printed %q", got)
	}
}

func TestTermination(t *testing.T) {
	half := natSrc + `
recursive half(n: Nat) -> Nat measure n of Nat {
  switch n {
    case zero { zero }
    case suc(m) { switch m { case zero { zero } case suc(k) { suc(half(k)) } } }
  }
}
`
	_, err := New(Config{}).CheckFile(mapFS("h.pf", half), "h.pf")
	if err == nil || !strings.Contains(err.Error(), "needs a termination proof") {
		t.Errorf("err = %v", err)
	}

	k := New(Config{AllowSorry: true})
	if _, err := k.CheckFile(mapFS("h.pf", half+"terminates { sorry }"), "h.pf"); err != nil {
		t.Fatal(err)
	}
	if len(k.Warnings) == 0 {
		t.Error("sorry left no warning")
	}

	id := natSrc + "recursive id(n: Nat) -> Nat measure n of Nat { n }"
	if _, err := New(Config{}).CheckFile(mapFS("id.pf", id), "id.pf"); err != nil {
		t.Errorf("non-recursive function: %v", err)
	}
}

func TestFailedStatementsKeepChecking(t *testing.T) {
	fsys := mapFS("f.pf", natSrc+`
theorem a: false proof ? end
theorem b: zero = zero proof reflexive end
theorem c: zero = suc(zero) proof reflexive end
`)
	m, err := New(Config{}).CheckFile(fsys, "f.pf")
	if err == nil {
		t.Fatal("invalid proofs accepted")
	}
	for _, want := range []string{"theorem a", "theorem c"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("%s not reported: %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "theorem b") {
		t.Errorf("theorem b reported: %v", err)
	}
	var thms int
	for _, s := range m.Checked {
		if _, ok := s.(*ast.Theorem); ok {
			thms++
		}
	}
	if thms != 3 {
		t.Errorf("%d theorems declared", thms)
	}
}

func TestVerboseTrace(t *testing.T) {
	var trace bytes.Buffer
	fsys := mapFS("v.pf", natSrc+`
theorem lid: all x:Nat. zero + x = x
proof
  arbitrary x:Nat
  evaluate
end
`)
	if _, err := New(Config{Verbose: true, TraceWriter: &trace}).CheckFile(fsys, "v.pf"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(trace.String(), "unfold") {
		t.Errorf("trace = %q", trace.String())
	}
}
