package ast_test

import (
	"strings"
	"testing"

	"github.com/kr/pretty"
	. "github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
)

var nowhere lexer.Span

func v(name string) *Var { return NewVar(nowhere, name) }

func call(rator string, args ...Term) *Call {
	return &Call{Rator: v(rator), Args: args}
}

func all(name string, ty Type, body Term) *All {
	return &All{Var: Binding{Name: name, Type: ty}, Body: body}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"x":     "x",
		"x.12":  "x",
		"+.3":   "+",
		"a.b":   "a.b",
		"x.":    "x.",
		".5":    ".5",
		"suc.1": "suc",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
	a, b := Fresh("n"), Fresh("n.4")
	if a == b || BaseName(a) != "n" || BaseName(b) != "n" {
		t.Errorf("Fresh gave %q and %q", a, b)
	}
}

func TestEqualAlpha(t *testing.T) {
	nat := v("Nat")
	lhs := all("x.1", nat, MkEqual(nowhere, v("x.1"), v("x.1")))
	rhs := all("y.2", nat, MkEqual(nowhere, v("y.2"), v("y.2")))
	if !Equal(lhs, rhs) {
		t.Errorf("%s and %s should be alpha-equivalent", lhs, rhs)
	}
	free := all("y.2", nat, MkEqual(nowhere, v("y.2"), v("x.1")))
	if Equal(lhs, free) {
		t.Errorf("%s and %s should differ", lhs, free)
	}
	// a bound name on the right must not match a free one on the left
	captured := all("x.1", nat, v("z.3"))
	other := all("z.3", nat, v("z.3"))
	if Equal(captured, other) {
		t.Errorf("%s and %s should differ", captured, other)
	}
	marked := MkEqual(nowhere, &Mark{Subject: v("a")}, &TermInst{Subject: v("b"), Inferred: true})
	if !Equal(marked, MkEqual(nowhere, v("a"), v("b"))) {
		t.Errorf("marks and instantiations should be ignored")
	}
}

func TestTypeEqual(t *testing.T) {
	f1 := &FunctionType{TypeParams: []string{"T.1"}, Params: []Type{v("T.1")}, Return: v("T.1")}
	f2 := &FunctionType{TypeParams: []string{"U.2"}, Params: []Type{v("U.2")}, Return: v("U.2")}
	f3 := &FunctionType{TypeParams: []string{"U.2"}, Params: []Type{v("U.2")}, Return: &BoolType{}}
	if !TypeEqual(f1, f2) {
		t.Errorf("%s and %s should be equal", f1, f2)
	}
	if TypeEqual(f1, f3) {
		t.Errorf("%s and %s should differ", f1, f3)
	}
	list := &TypeInst{Typ: v("List"), Args: []Type{v("Nat")}}
	if !TypeEqual(list, &TypeInst{Typ: v("List"), Args: []Type{v("Nat")}}) {
		t.Errorf("instantiations should be equal")
	}
	fv := FreeTypeVars(&FunctionType{TypeParams: []string{"T"}, Params: []Type{v("T"), v("U")}, Return: v("T")})
	if fv.Size() != 1 || !fv.Contains("U") {
		t.Errorf("free type vars = %v", fv.Slice())
	}
}

func TestSubstAvoidsCapture(t *testing.T) {
	// (all y. x = y)[x := y]
	body := all("y.1", v("Nat"), MkEqual(nowhere, v("x.0"), v("y.1")))
	got := Subst1(body, "x.0", v("y.1"))
	a, ok := got.(*All)
	if !ok {
		t.Fatalf("got %s", got)
	}
	if a.Var.Name == "y.1" {
		t.Fatalf("binder was not renamed: %s", pretty.Sprint(got))
	}
	lhs, rhs, _ := IsEquation(a.Body)
	if lhs.(*Var).Id() != "y.1" || rhs.(*Var).Id() != a.Var.Name {
		t.Errorf("got %s", got)
	}
	if FreeVars(got).Contains(a.Var.Name) {
		t.Errorf("renamed binder escaped")
	}
}

func TestSubstShadowing(t *testing.T) {
	body := &Lambda{Params: []Binding{{Name: "x.0"}}, Body: v("x.0")}
	got := Subst1(body, "x.0", &IntLit{Value: 3})
	if !Equal(got, body) {
		t.Errorf("bound occurrence was replaced: %s", got)
	}
}

func TestSubstTypes(t *testing.T) {
	term := &Lambda{Params: []Binding{{Name: "x.0", Type: v("T.1")}}, Body: v("x.0")}
	got := SubstTypes(term, map[string]Type{"T.1": v("Nat")}).(*Lambda)
	if got.Params[0].Type.String() != "Nat" {
		t.Errorf("got %s", got)
	}
}

func TestPrint(t *testing.T) {
	plus := func(a, b Term) Term { return call("+.1", a, b) }
	tests := []struct {
		term Term
		want string
	}{
		{MkEqual(nowhere, plus(v("a"), plus(v("b"), v("c"))), v("d")), "a + (b + c) = d"},
		{plus(plus(v("a"), v("b")), v("c")), "a + b + c"},
		{MkAnd(nowhere, v("p"), MkOr(nowhere, v("q"), v("r"))), "p and (q or r)"},
		{Not(nowhere, MkEqual(nowhere, v("a"), v("b"))), "a ≠ b"},
		{Not(nowhere, v("p")), "not p"},
		{all("n.4", v("Nat"), MkEqual(nowhere, v("n.4"), v("n.4"))), "all n:Nat. n = n"},
		{&IfThen{Premise: v("p"), Conclusion: v("q")}, "if p then q"},
		{call("suc", call("suc", v("zero"))), "suc(suc(zero))"},
		{&Call{Rator: v("+"), Args: []Term{v("a"), v("b"), v("c")}}, "a + b + c"},
	}
	for _, tt := range tests {
		if got := tt.term.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestMkAndFlattens(t *testing.T) {
	a := MkAnd(nowhere, MkAnd(nowhere, v("p"), v("q")), v("r"))
	if and, ok := a.(*And); !ok || len(and.Args) != 3 {
		t.Errorf("got %s", pretty.Sprint(a))
	}
	if !IsBool(MkAnd(nowhere), true) || !IsBool(MkOr(nowhere), false) {
		t.Errorf("empty connectives should be units")
	}
}

func TestEnvPersistent(t *testing.T) {
	base := NewEnv(nil).DeclareTerm("x", &IntType{})
	left := base.DeclareProof("h", v("p"), true)
	right := base.DeclareProof("k", v("q"), true)
	if _, ok := left.LookupProof("k"); ok {
		t.Errorf("sibling extension leaked into left")
	}
	if _, ok := base.LookupProof("h"); ok {
		t.Errorf("extension leaked into base")
	}
	facts := right.DeclareProof("j", v("r"), true).DeclareProof("imported", v("s"), false).LocalFacts()
	var names []string
	for _, f := range facts {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "k,j" {
		t.Errorf("local facts = %v", names)
	}
}

func TestEnvAutoRules(t *testing.T) {
	eq := all("x.1", v("Nat"), MkEqual(nowhere, call("+.2", v("x.1"), v("zero")), v("x.1")))
	generic := all("p.3", &BoolType{}, MkEqual(nowhere, v("p.3"), v("p.3")))
	env := NewEnv(nil).DeclareAuto(eq).DeclareAuto(generic).DeclareAssociative("+.2", v("Nat"))
	if rules := env.AutoRules("+.2"); len(rules) != 2 || rules[0] != eq || rules[1] != generic {
		t.Errorf("rules for + = %v", rules)
	}
	if rules := env.AutoRules("*.9"); len(rules) != 1 || rules[0] != generic {
		t.Errorf("rules for * = %v", rules)
	}
	if !env.IsAssociative("+.2") || env.IsAssociative("*.9") {
		t.Errorf("associativity registry is wrong")
	}
	if typ, _ := env.AssociativeAt("+.2"); !TypeEqual(typ, v("Nat")) {
		t.Errorf("+ associative in %v", typ)
	}
}
