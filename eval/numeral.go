package eval

import (
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
)

// Results larger than this are left to ordinary unfolding.
const maxNumeral = 1 << 16

// numeral is a constructor chain suc(...suc(zero)) of a unary natural
// union, remembered with the constructor references it was built from.
type numeral struct {
	value     int
	zero, suc *ast.Var
}

// NatShaped reports whether u has exactly one nullary constructor and one
// unary constructor whose field is u itself.
func NatShaped(u *ast.Union) (zero, suc string, ok bool) {
	if u == nil || len(u.Constructors) != 2 || len(u.TypeParams) != 0 {
		return "", "", false
	}
	for _, c := range u.Constructors {
		switch {
		case len(c.Params) == 0:
			zero = c.Name
		case len(c.Params) == 1 && isSelf(u, c.Params[0]):
			suc = c.Name
		}
	}
	return zero, suc, zero != "" && suc != ""
}

func (r Reducer) readNumeral(t ast.Term) (numeral, bool) {
	var n numeral
	for {
		ctor, args, ok := r.ctorApp(t)
		if !ok {
			return numeral{}, false
		}
		u, _ := r.Env.Constructor(ctor.Id())
		zero, suc, ok := NatShaped(u)
		if !ok {
			return numeral{}, false
		}
		switch {
		case ctor.Id() == zero && len(args) == 0:
			n.zero = ctor
			return n, true
		case ctor.Id() == suc && len(args) == 1:
			if n.suc == nil {
				n.suc = ctor
			}
			n.value++
			t = args[0]
		default:
			return numeral{}, false
		}
	}
}

// Numeral builds the constructor chain for value.
func Numeral(span lexer.Span, value int, zero, suc *ast.Var) ast.Term {
	var t ast.Term = zero
	for i := 0; i < value; i++ {
		t = &ast.Call{Loc: ast.At(span), Rator: suc, Args: []ast.Term{t}}
	}
	return t
}

// arith computes op on naturals, truncating subtraction. It fails on
// division by zero and on results above maxNumeral.
func arith(op string, a, b int) (int, bool) {
	var v int
	switch op {
	case "+":
		v = a + b
	case "-":
		v = max(a-b, 0)
	case "*":
		v = a * b
	case "/":
		if b == 0 {
			return 0, false
		}
		v = a / b
	case "^":
		v = 1
		for i := 0; i < b; i++ {
			v *= a
			if v > maxNumeral {
				return 0, false
			}
		}
	default:
		return 0, false
	}
	return v, v <= maxNumeral
}

// Arithmetic reports whether f, a binary function over the unary natural
// built from zero and suc, computes the operator it is named after on
// every pair of numerals below 4. env must bind f's own name.
func Arithmetic(env *ast.Env, f ast.Term, zero, suc string) bool {
	name, ok := opName(f)
	if !ok {
		return false
	}
	op := ast.BaseName(name)
	if _, ok := arith(op, 0, 1); !ok {
		return false
	}
	span := f.Span()
	z, s := ast.NewVar(span, zero), ast.NewVar(span, suc)
	r := Reducer{Env: env, Policy: Everything(), skipAuto: true}
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			want, ok := arith(op, a, b)
			if !ok {
				continue
			}
			call := &ast.Call{Loc: ast.At(span), Rator: f, Args: []ast.Term{Numeral(span, a, z, s), Numeral(span, b, z, s)}}
			got, ok := r.readNumeral(r.Reduce(call))
			if !ok || got.value != want {
				return false
			}
		}
	}
	return true
}

// numeral evaluates arithmetic on two numerals directly.
func (r Reducer) numeral(op string, args []ast.Term) (ast.Term, bool) {
	if len(args) != 2 {
		return nil, false
	}
	a, ok := r.readNumeral(args[0])
	if !ok {
		return nil, false
	}
	b, ok := r.readNumeral(args[1])
	if !ok || a.zero.Id() != b.zero.Id() {
		return nil, false
	}
	v, ok := arith(op, a.value, b.value)
	if !ok {
		return nil, false
	}
	suc := a.suc
	if suc == nil {
		suc = b.suc
	}
	if suc == nil {
		if v == 0 {
			return a.zero, true
		}
		u, _ := r.Env.Constructor(a.zero.Id())
		_, name, _ := NatShaped(u)
		suc = ast.NewVar(a.zero.Span(), name)
	}
	return Numeral(args[0].Span().Add(args[1].Span()), v, a.zero, suc), true
}
