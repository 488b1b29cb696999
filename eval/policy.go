package eval

import (
	"github.com/hashicorp/go-set/v3"
)

// Policy decides which definitions the reducer may unfold. It is a value:
// narrowing or widening returns a copy and leaves the receiver unchanged.
type Policy struct {
	All     bool
	Allowed *set.Set[string]
	// Opaque hides opaque definitions declared outside Module.
	Opaque bool
	Module string
}

// Everything permits every definition.
func Everything() Policy {
	return Policy{All: true}
}

// Nothing permits no definition. Reduction still decides equalities and
// simplifies the logical connectives.
func Nothing() Policy {
	return Policy{Allowed: set.New[string](0)}
}

// Only permits exactly the named definitions.
func Only(names ...string) Policy {
	return Policy{Allowed: set.From(names)}
}

func (p Policy) Permits(name string) bool {
	return p.All || (p.Allowed != nil && p.Allowed.Contains(name))
}

// Only narrows p to the named definitions, keeping its opacity settings.
func (p Policy) Only(names ...string) Policy {
	return Policy{Allowed: set.From(names), Opaque: p.Opaque, Module: p.Module}
}

// With permits names in addition to what p permits.
func (p Policy) With(names ...string) Policy {
	if p.All || len(names) == 0 {
		return p
	}
	allowed := set.New[string](len(names))
	if p.Allowed != nil {
		allowed = p.Allowed.Copy()
	}
	allowed.InsertSlice(names)
	p.Allowed = allowed
	return p
}
