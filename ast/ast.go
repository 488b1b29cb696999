package ast

import (
	"fmt"
	"strings"

	"github.com/smasher164/deduce/lexer"
)

type Node interface {
	Span() lexer.Span
	String() string
}

// Loc is embedded in every node and records where it came from.
type Loc struct {
	At lexer.Span
}

func (l Loc) Span() lexer.Span {
	return l.At
}

func At(span lexer.Span) Loc {
	return Loc{At: span}
}

func spanOf[N Node](ns []N) lexer.Span {
	var s lexer.Span
	for _, n := range ns {
		s = s.Add(n.Span())
	}
	return s
}

type Type interface {
	Node
	isType()
}

var (
	_ Type = (*IntType)(nil)
	_ Type = (*BoolType)(nil)
	_ Type = (*TypeType)(nil)
	_ Type = (*FunctionType)(nil)
	_ Type = (*ArrayType)(nil)
	_ Type = (*Var)(nil)
	_ Type = (*TypeInst)(nil)
	_ Type = (*OverloadType)(nil)
	_ Type = (*GenericUnknownInst)(nil)
)

type IntType struct {
	Loc
}

func (*IntType) isType() {}

func (*IntType) String() string { return "int" }

type BoolType struct {
	Loc
}

func (*BoolType) isType() {}

func (*BoolType) String() string { return "bool" }

// TypeType is the type of types, used for type parameters bound by all.
type TypeType struct {
	Loc
}

func (*TypeType) isType() {}

func (*TypeType) String() string { return "type" }

type FunctionType struct {
	Loc
	TypeParams []string
	Params     []Type
	Return     Type
}

func (*FunctionType) isType() {}

func (f *FunctionType) String() string {
	var sb strings.Builder
	if len(f.TypeParams) > 0 {
		fmt.Fprintf(&sb, "<%s> ", strings.Join(baseNames(f.TypeParams), ", "))
	}
	sb.WriteString("fn ")
	sb.WriteString(joinNodes(f.Params, ", "))
	sb.WriteString(" -> ")
	sb.WriteString(f.Return.String())
	return sb.String()
}

type ArrayType struct {
	Loc
	Elem Type
}

func (*ArrayType) isType() {}

func (a *ArrayType) String() string { return "[" + a.Elem.String() + "]" }

// TypeInst applies a generic union to type arguments, as in List<Nat>.
type TypeInst struct {
	Loc
	Typ  *Var
	Args []Type
}

func (*TypeInst) isType() {}

func (t *TypeInst) String() string {
	return fmt.Sprintf("%s<%s>", t.Typ, joinNodes(t.Args, ", "))
}

type OverloadAlt struct {
	Name string
	Type Type
}

// OverloadType is synthesized for a name with several live candidates.
type OverloadType struct {
	Loc
	Alts []OverloadAlt
}

func (*OverloadType) isType() {}

func (o *OverloadType) String() string {
	parts := make([]string, len(o.Alts))
	for i, alt := range o.Alts {
		parts[i] = alt.Type.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// GenericUnknownInst is the type of a nullary generic constructor whose
// type arguments are not yet known, such as empty used without annotation.
type GenericUnknownInst struct {
	Loc
	Typ *Var
}

func (*GenericUnknownInst) isType() {}

func (g *GenericUnknownInst) String() string { return g.Typ.String() + "<?>" }

func joinNodes[N Node](ns []N, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

func baseNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = BaseName(n)
	}
	return out
}

// TypeEqual compares types structurally. Function types are compared up to
// renaming of their type parameters.
func TypeEqual(a, b Type) bool {
	return typeEqual(a, b, nil)
}

func typeEqual(a, b Type, ren map[string]string) bool {
	switch a := a.(type) {
	case *IntType:
		_, ok := b.(*IntType)
		return ok
	case *BoolType:
		_, ok := b.(*BoolType)
		return ok
	case *TypeType:
		_, ok := b.(*TypeType)
		return ok
	case *Var:
		b, ok := b.(*Var)
		if !ok {
			return false
		}
		if r, ok := ren[a.Id()]; ok {
			return r == b.Id()
		}
		return a.Id() == b.Id()
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && typeEqual(a.Elem, b.Elem, ren)
	case *TypeInst:
		b, ok := b.(*TypeInst)
		if !ok || len(a.Args) != len(b.Args) || !typeEqual(a.Typ, b.Typ, ren) {
			return false
		}
		for i := range a.Args {
			if !typeEqual(a.Args[i], b.Args[i], ren) {
				return false
			}
		}
		return true
	case *FunctionType:
		b, ok := b.(*FunctionType)
		if !ok || len(a.TypeParams) != len(b.TypeParams) || len(a.Params) != len(b.Params) {
			return false
		}
		if len(a.TypeParams) > 0 {
			inner := make(map[string]string, len(ren)+len(a.TypeParams))
			for k, v := range ren {
				inner[k] = v
			}
			for i, tp := range a.TypeParams {
				inner[tp] = b.TypeParams[i]
			}
			ren = inner
		}
		for i := range a.Params {
			if !typeEqual(a.Params[i], b.Params[i], ren) {
				return false
			}
		}
		return typeEqual(a.Return, b.Return, ren)
	case *GenericUnknownInst:
		b, ok := b.(*GenericUnknownInst)
		return ok && typeEqual(a.Typ, b.Typ, ren)
	case *OverloadType:
		b, ok := b.(*OverloadType)
		if !ok || len(a.Alts) != len(b.Alts) {
			return false
		}
		for i := range a.Alts {
			if a.Alts[i].Name != b.Alts[i].Name || !typeEqual(a.Alts[i].Type, b.Alts[i].Type, ren) {
				return false
			}
		}
		return true
	}
	return false
}

// SubstType replaces type variables by name.
func SubstType(t Type, sub map[string]Type) Type {
	if len(sub) == 0 || t == nil {
		return t
	}
	switch t := t.(type) {
	case *Var:
		if r, ok := sub[t.Id()]; ok {
			return r
		}
		return t
	case *ArrayType:
		return &ArrayType{Loc: t.Loc, Elem: SubstType(t.Elem, sub)}
	case *TypeInst:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = SubstType(a, sub)
		}
		return &TypeInst{Loc: t.Loc, Typ: t.Typ, Args: args}
	case *FunctionType:
		inner := sub
		for _, tp := range t.TypeParams {
			if _, ok := sub[tp]; ok {
				inner = without(sub, t.TypeParams)
				break
			}
		}
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = SubstType(p, inner)
		}
		return &FunctionType{Loc: t.Loc, TypeParams: t.TypeParams, Params: params, Return: SubstType(t.Return, inner)}
	case *OverloadType:
		alts := make([]OverloadAlt, len(t.Alts))
		for i, alt := range t.Alts {
			alts[i] = OverloadAlt{Name: alt.Name, Type: SubstType(alt.Type, sub)}
		}
		return &OverloadType{Loc: t.Loc, Alts: alts}
	}
	return t
}

func without[V any](m map[string]V, names []string) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}
