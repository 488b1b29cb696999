package eval

import (
	"github.com/hashicorp/go-set/v3"
	"github.com/smasher164/deduce/ast"
	"golang.org/x/exp/slices"
)

type matcher struct {
	env   *ast.Env
	vars  *set.Set[string]
	sub   map[string]ast.Term
	bound []string // binders of the matched term entered so far
}

// Match finds a substitution for the pattern variables vars that makes
// pattern equal to t. Subterms of the pattern without pattern variables
// are compared after normalization.
func Match(env *ast.Env, vars []string, pattern, t ast.Term) (map[string]ast.Term, bool) {
	m := &matcher{env: env, vars: set.From(vars), sub: make(map[string]ast.Term)}
	if !m.match(pattern, t) {
		return nil, false
	}
	return m.sub, true
}

func (m *matcher) match(p, t ast.Term) bool {
	p, t = ast.StripInst(p), ast.StripInst(t)
	if v, ok := p.(*ast.Var); ok && m.vars.Contains(v.Id()) {
		if prev, ok := m.sub[v.Id()]; ok {
			return ast.Equal(prev, t)
		}
		if len(m.bound) > 0 {
			fv := ast.FreeVars(t)
			if slices.ContainsFunc(m.bound, fv.Contains) {
				return false
			}
		}
		m.sub[v.Id()] = t
		return true
	}
	return m.structural(p, t) || m.normalEqual(p, t)
}

func (m *matcher) matchAll(ps, ts []ast.Term) bool {
	if len(ps) != len(ts) {
		return false
	}
	for i := range ps {
		if !m.match(ps[i], ts[i]) {
			return false
		}
	}
	return true
}

// under matches pattern and term bodies with the pattern binders renamed
// to the term binders.
func (m *matcher) under(pnames, tnames []string, pbody, tbody ast.Term) bool {
	sub := make(map[string]ast.Term, len(pnames))
	for i, n := range pnames {
		sub[n] = ast.NewVar(tbody.Span(), tnames[i])
	}
	m.bound = append(m.bound, tnames...)
	ok := m.match(ast.Subst(pbody, sub), tbody)
	m.bound = m.bound[:len(m.bound)-len(tnames)]
	return ok
}

func (m *matcher) structural(p, t ast.Term) bool {
	switch p := p.(type) {
	case *ast.Var:
		if tv, ok := t.(*ast.Var); ok {
			return tv.Id() == p.Id()
		}
	case *ast.IntLit, *ast.BoolLit:
		return ast.Equal(p, t)
	case *ast.Call:
		if tc, ok := t.(*ast.Call); ok && len(tc.Args) == len(p.Args) {
			return m.match(p.Rator, tc.Rator) && m.matchAll(p.Args, tc.Args)
		}
	case *ast.And:
		if ta, ok := t.(*ast.And); ok {
			return m.matchAll(p.Args, ta.Args)
		}
	case *ast.Or:
		if to, ok := t.(*ast.Or); ok {
			return m.matchAll(p.Args, to.Args)
		}
	case *ast.IfThen:
		if ti, ok := t.(*ast.IfThen); ok {
			return m.match(p.Premise, ti.Premise) && m.match(p.Conclusion, ti.Conclusion)
		}
	case *ast.Conditional:
		if tc, ok := t.(*ast.Conditional); ok {
			return m.match(p.Cond, tc.Cond) && m.match(p.Then, tc.Then) && m.match(p.Else, tc.Else)
		}
	case *ast.All:
		if ta, ok := t.(*ast.All); ok {
			return m.under([]string{p.Var.Name}, []string{ta.Var.Name}, p.Body, ta.Body)
		}
	case *ast.Some:
		if ts, ok := t.(*ast.Some); ok {
			return m.under([]string{p.Var.Name}, []string{ts.Var.Name}, p.Body, ts.Body)
		}
	case *ast.Lambda:
		if tl, ok := t.(*ast.Lambda); ok && len(tl.Params) == len(p.Params) {
			pnames, tnames := make([]string, len(p.Params)), make([]string, len(p.Params))
			for i := range p.Params {
				pnames[i], tnames[i] = p.Params[i].Name, tl.Params[i].Name
			}
			return m.under(pnames, tnames, p.Body, tl.Body)
		}
	case *ast.ArrayLit:
		if ta, ok := t.(*ast.ArrayLit); ok {
			return m.matchAll(p.Elems, ta.Elems)
		}
	case *ast.ArrayGet:
		if ta, ok := t.(*ast.ArrayGet); ok {
			return m.match(p.Array, ta.Array) && m.match(p.Index, ta.Index)
		}
	case *ast.MakeArray:
		if ta, ok := t.(*ast.MakeArray); ok {
			return m.match(p.List, ta.List)
		}
	}
	return false
}

func (m *matcher) normalEqual(p, t ast.Term) bool {
	if m.mentionsVars(p) {
		return false
	}
	r := Reducer{Env: m.env, Policy: Nothing(), skipAuto: true}
	return ast.Equal(r.Reduce(p), r.Reduce(t))
}

func (m *matcher) mentionsVars(p ast.Term) bool {
	fv := ast.FreeVars(p)
	for _, v := range m.vars.Slice() {
		if fv.Contains(v) {
			return true
		}
	}
	return false
}
