package ast

// pair records that binder l on the left corresponds to binder r on the
// right.
type pair struct{ l, r string }

type renaming []pair

func (ren renaming) with(l, r string) renaming {
	out := make(renaming, len(ren), len(ren)+1)
	copy(out, ren)
	return append(out, pair{l, r})
}

func (ren renaming) match(a, b string) bool {
	for i := len(ren) - 1; i >= 0; i-- {
		p := ren[i]
		if p.l == a || p.r == b {
			return p.l == a && p.r == b
		}
	}
	return a == b
}

func (ren renaming) types() map[string]string {
	if len(ren) == 0 {
		return nil
	}
	m := make(map[string]string, len(ren))
	for _, p := range ren {
		m[p.l] = p.r
	}
	return m
}

// refName is the resolved name of a variable or function value.
func refName(t Term) (string, bool) {
	switch t := t.(type) {
	case *Var:
		return t.Id(), true
	case *RecFun:
		return t.Name, true
	case *GenRecFun:
		return t.Name, true
	}
	return "", false
}

// Equal reports whether a and b are the same term up to renaming of bound
// variables. Marks and type instantiations are ignored.
func Equal(a, b Term) bool {
	return equal(a, b, nil)
}

func equalTypes(a, b Type, ren renaming) bool {
	if a == nil || b == nil {
		return true
	}
	return typeEqual(a, b, ren.types())
}

func equalAll(as, bs []Term, ren renaming) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !equal(as[i], bs[i], ren) {
			return false
		}
	}
	return true
}

func equal(a, b Term, ren renaming) bool {
	a, b = StripInst(a), StripInst(b)
	if na, ok := refName(a); ok {
		nb, ok := refName(b)
		return ok && ren.match(na, nb)
	}
	switch a := a.(type) {
	case *IntLit:
		b, ok := b.(*IntLit)
		return ok && a.Value == b.Value
	case *BoolLit:
		b, ok := b.(*BoolLit)
		return ok && a.Value == b.Value
	case *And:
		b, ok := b.(*And)
		return ok && equalAll(a.Args, b.Args, ren)
	case *Or:
		b, ok := b.(*Or)
		return ok && equalAll(a.Args, b.Args, ren)
	case *IfThen:
		b, ok := b.(*IfThen)
		return ok && equal(a.Premise, b.Premise, ren) && equal(a.Conclusion, b.Conclusion, ren)
	case *All:
		b, ok := b.(*All)
		return ok && equalTypes(a.Var.Type, b.Var.Type, ren) && equal(a.Body, b.Body, ren.with(a.Var.Name, b.Var.Name))
	case *Some:
		b, ok := b.(*Some)
		return ok && equalTypes(a.Var.Type, b.Var.Type, ren) && equal(a.Body, b.Body, ren.with(a.Var.Name, b.Var.Name))
	case *Conditional:
		b, ok := b.(*Conditional)
		return ok && equal(a.Cond, b.Cond, ren) && equal(a.Then, b.Then, ren) && equal(a.Else, b.Else, ren)
	case *Switch:
		b, ok := b.(*Switch)
		if !ok || len(a.Cases) != len(b.Cases) || !equal(a.Subject, b.Subject, ren) {
			return false
		}
		for i := range a.Cases {
			inner, ok := equalPattern(a.Cases[i].Pattern, b.Cases[i].Pattern, ren)
			if !ok || !equal(a.Cases[i].Body, b.Cases[i].Body, inner) {
				return false
			}
		}
		return true
	case *Call:
		b, ok := b.(*Call)
		return ok && equal(a.Rator, b.Rator, ren) && equalAll(a.Args, b.Args, ren)
	case *Lambda:
		b, ok := b.(*Lambda)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !equalTypes(a.Params[i].Type, b.Params[i].Type, ren) {
				return false
			}
			ren = ren.with(a.Params[i].Name, b.Params[i].Name)
		}
		return equal(a.Body, b.Body, ren)
	case *Generic:
		b, ok := b.(*Generic)
		if !ok || len(a.TypeParams) != len(b.TypeParams) {
			return false
		}
		for i := range a.TypeParams {
			ren = ren.with(a.TypeParams[i], b.TypeParams[i])
		}
		return equal(a.Body, b.Body, ren)
	case *TLet:
		b, ok := b.(*TLet)
		return ok && equal(a.Rhs, b.Rhs, ren) && equal(a.Body, b.Body, ren.with(a.Name, b.Name))
	case *ArrayLit:
		b, ok := b.(*ArrayLit)
		return ok && equalAll(a.Elems, b.Elems, ren)
	case *MakeArray:
		b, ok := b.(*MakeArray)
		return ok && equal(a.List, b.List, ren)
	case *ArrayGet:
		b, ok := b.(*ArrayGet)
		return ok && equal(a.Array, b.Array, ren) && equal(a.Index, b.Index, ren)
	case *Hole:
		_, ok := b.(*Hole)
		return ok
	case *Omitted:
		_, ok := b.(*Omitted)
		return ok
	}
	return false
}

func equalPattern(a, b Pattern, ren renaming) (renaming, bool) {
	switch a := a.(type) {
	case *PatternBool:
		b, ok := b.(*PatternBool)
		return ren, ok && a.Value == b.Value
	case *PatternCons:
		b, ok := b.(*PatternCons)
		if !ok || a.Constructor.Id() != b.Constructor.Id() || len(a.Params) != len(b.Params) {
			return ren, false
		}
		for i := range a.Params {
			ren = ren.with(a.Params[i], b.Params[i])
		}
		return ren, true
	}
	return ren, false
}
