package names

import (
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

type Kind int

const (
	Term     Kind = iota // local variables and parameters
	Function             // functions, definitions and constructors; overloadable
	Union
	Theorem
	TypeVar
	Label // local proof labels
)

func (k Kind) String() string {
	switch k {
	case Term:
		return "variable"
	case Function:
		return "function"
	case Union:
		return "union"
	case Theorem:
		return "theorem"
	case TypeVar:
		return "type variable"
	case Label:
		return "label"
	}
	return "unknown"
}

// Candidate is one definition a name may refer to.
type Candidate struct {
	Name string
	Kind Kind
}

// Scope maps written names to their live candidates. Binding forms push a
// child scope; declarations extend the scope they appear in.
type Scope struct {
	parent  *Scope
	symbols map[string][]Candidate
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string][]Candidate)}
}

func (s *Scope) AddScope() *Scope {
	return NewScope(s)
}

func (s *Scope) LookupLocal(name string) ([]Candidate, bool) {
	c, ok := s.symbols[name]
	return c, ok
}

func (s *Scope) LookupStack(name string) ([]Candidate, bool) {
	for p := s; p != nil; p = p.parent {
		if c, ok := p.LookupLocal(name); ok {
			return c, true
		}
	}
	return nil, false
}

// bind makes a fresh binding visible in s only.
func (s *Scope) bind(name string, c Candidate) {
	if name == "_" {
		return
	}
	s.symbols[name] = []Candidate{c}
}

// extend adds c as a further overload candidate for name.
func (s *Scope) extend(name string, c Candidate) {
	live, _ := s.LookupStack(name)
	if lo.ContainsBy(live, func(l Candidate) bool { return l.Name == c.Name }) {
		return
	}
	s.symbols[name] = append(slices.Clone(live), c)
}

// overwrite replaces the live candidates of name, reporting whether an
// earlier declaration was shadowed.
func (s *Scope) overwrite(name string, c Candidate) (shadowed bool) {
	live, ok := s.LookupStack(name)
	s.symbols[name] = []Candidate{c}
	return ok && !(len(live) == 1 && live[0].Name == c.Name)
}

// Names lists every name visible from s.
func (s *Scope) Names() []string {
	var names []string
	for p := s; p != nil; p = p.parent {
		for name := range p.symbols {
			names = append(names, name)
		}
	}
	return lo.Uniq(names)
}

// Exports is the set of names a module makes visible to its importers.
type Exports map[string][]Candidate

func (e Exports) add(name string, cs ...Candidate) {
	for _, c := range cs {
		if !lo.ContainsBy(e[name], func(l Candidate) bool { return l.Name == c.Name }) {
			e[name] = append(e[name], c)
		}
	}
}
