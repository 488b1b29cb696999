package ast

type Statement interface {
	Node
	isStatement()
}

var (
	_ Statement = (*Union)(nil)
	_ Statement = (*RecFun)(nil)
	_ Statement = (*GenRecFun)(nil)
	_ Statement = (*Define)(nil)
	_ Statement = (*Theorem)(nil)
	_ Statement = (*Postulate)(nil)
	_ Statement = (*Import)(nil)
	_ Statement = (*Associative)(nil)
	_ Statement = (*Auto)(nil)
	_ Statement = (*Module)(nil)
	_ Statement = (*Export)(nil)
	_ Statement = (*Assert)(nil)
	_ Statement = (*Print)(nil)
)

type Constructor struct {
	Loc
	Name   string
	Params []Type
}

type Union struct {
	Loc
	Name         string
	TypeParams   []string
	Constructors []*Constructor
	Private      bool
}

func (*Union) isStatement() {}

// FunCase is one equation of a recursive function. Pattern dispatches on
// the first argument; Params bind the remaining ones.
type FunCase struct {
	Loc
	Pattern Pattern
	Params  []string
	Body    Term
}

type RecFun struct {
	Loc
	Name       string
	TypeParams []string
	Params     []Type
	Return     Type
	Cases      []*FunCase
	Private    bool
	Opaque     bool
	// Arithmetic is set by the type checker when the function agrees with
	// the numeral operator it is named after.
	Arithmetic bool
}

func (*RecFun) isStatement() {}
func (*RecFun) isTerm()      {}

// Type is the declared function type.
func (f *RecFun) Type() *FunctionType {
	return &FunctionType{Loc: f.Loc, TypeParams: f.TypeParams, Params: f.Params, Return: f.Return}
}

// GenRecFun is a recursive function with a single body whose termination
// is justified by a decreasing Measure and the Terminates proof.
type GenRecFun struct {
	Loc
	Name        string
	TypeParams  []string
	Params      []Binding
	Return      Type
	Body        Term
	Measure     Term
	MeasureType Type
	Terminates  Proof
	// Obligation is the formula Terminates must prove. The type checker
	// fills it in.
	Obligation  Term
	Private     bool
	Opaque      bool
	Arithmetic  bool
}

func (*GenRecFun) isStatement() {}
func (*GenRecFun) isTerm()      {}

func (f *GenRecFun) Type() *FunctionType {
	params := make([]Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return &FunctionType{Loc: f.Loc, TypeParams: f.TypeParams, Params: params, Return: f.Return}
}

type Define struct {
	Loc
	Name    string
	Type    Type
	Body    Term
	Private bool
	Opaque  bool
}

func (*Define) isStatement() {}

type Theorem struct {
	Loc
	Name    string
	Formula Term
	Proof   Proof
	IsLemma bool
	Private bool
}

func (*Theorem) isStatement() {}

type Postulate struct {
	Loc
	Name    string
	Formula Term
	Private bool
}

func (*Postulate) isStatement() {}

type Import struct {
	Loc
	Name   string
	Public bool
}

func (*Import) isStatement() {}

// Associative registers Operator as associative at Typ.
type Associative struct {
	Loc
	Operator   *Var
	TypeParams []string
	Typ        Type
}

func (*Associative) isStatement() {}

// Auto registers the equation proved by Name as a standing rewrite rule.
type Auto struct {
	Loc
	Name *Var
}

func (*Auto) isStatement() {}

type Module struct {
	Loc
	Name string
}

func (*Module) isStatement() {}

type Export struct {
	Loc
	Name *Var
}

func (*Export) isStatement() {}

type Assert struct {
	Loc
	Formula Term
}

func (*Assert) isStatement() {}

type Print struct {
	Loc
	Subject Term
}

func (*Print) isStatement() {}

// DeclName is the name a statement declares, if any.
func DeclName(s Statement) (string, bool) {
	switch s := s.(type) {
	case *Union:
		return s.Name, true
	case *RecFun:
		return s.Name, true
	case *GenRecFun:
		return s.Name, true
	case *Define:
		return s.Name, true
	case *Theorem:
		return s.Name, true
	case *Postulate:
		return s.Name, true
	}
	return "", false
}

// IsPrivate reports whether a declaration is hidden from importers.
func IsPrivate(s Statement) bool {
	switch s := s.(type) {
	case *Union:
		return s.Private
	case *RecFun:
		return s.Private
	case *GenRecFun:
		return s.Private
	case *Define:
		return s.Private
	case *Theorem:
		return s.Private
	case *Postulate:
		return s.Private
	}
	return false
}
