package ast

type Proof interface {
	Node
	isProof()
}

var (
	_ Proof = (*PVar)(nil)
	_ Proof = (*PTrue)(nil)
	_ Proof = (*PHole)(nil)
	_ Proof = (*PSorry)(nil)
	_ Proof = (*PLet)(nil)
	_ Proof = (*PAnnot)(nil)
	_ Proof = (*Suffices)(nil)
	_ Proof = (*PTuple)(nil)
	_ Proof = (*PAndElim)(nil)
	_ Proof = (*ImpIntro)(nil)
	_ Proof = (*ModusPonens)(nil)
	_ Proof = (*AllIntro)(nil)
	_ Proof = (*AllElim)(nil)
	_ Proof = (*AllElimTypes)(nil)
	_ Proof = (*SomeIntro)(nil)
	_ Proof = (*SomeElim)(nil)
	_ Proof = (*Cases)(nil)
	_ Proof = (*Induction)(nil)
	_ Proof = (*SwitchProof)(nil)
	_ Proof = (*RewriteGoal)(nil)
	_ Proof = (*RewriteFact)(nil)
	_ Proof = (*ApplyDefsGoal)(nil)
	_ Proof = (*ApplyDefsFact)(nil)
	_ Proof = (*EvaluateGoal)(nil)
	_ Proof = (*EvaluateFact)(nil)
	_ Proof = (*PReflexive)(nil)
	_ Proof = (*PSymmetric)(nil)
	_ Proof = (*PTransitive)(nil)
	_ Proof = (*PInjective)(nil)
	_ Proof = (*PExtensionality)(nil)
	_ Proof = (*PRecall)(nil)
	_ Proof = (*PTLet)(nil)
)

// PVar cites a local label, theorem or postulate.
type PVar struct {
	Loc
	Ref *Var
}

func (*PVar) isProof() {}

// PTrue proves true.
type PTrue struct {
	Loc
}

func (*PTrue) isProof() {}

type PHole struct {
	Loc
}

func (*PHole) isProof() {}

type PSorry struct {
	Loc
}

func (*PSorry) isProof() {}

// PLet is have Label: Formula by Because, followed by Body.
type PLet struct {
	Loc
	Label   string
	Formula Term
	Because Proof
	Body    Proof
}

func (*PLet) isProof() {}

// PAnnot is conclude Claim by Reason.
type PAnnot struct {
	Loc
	Claim  Term
	Reason Proof
}

func (*PAnnot) isProof() {}

// Suffices replaces the goal by Claim. Reason shows that Claim implies the
// old goal; Body proves Claim.
type Suffices struct {
	Loc
	Claim  Term
	Reason Proof
	Body   Proof
}

func (*Suffices) isProof() {}

type PTuple struct {
	Loc
	Args []Proof
}

func (*PTuple) isProof() {}

type PAndElim struct {
	Loc
	Index   int
	Subject Proof
}

func (*PAndElim) isProof() {}

// ImpIntro is assume Label: Premise, with Body proving the conclusion.
type ImpIntro struct {
	Loc
	Label   string
	Premise Term
	Body    Proof
}

func (*ImpIntro) isProof() {}

type ModusPonens struct {
	Loc
	Implication Proof
	Arg         Proof
}

func (*ModusPonens) isProof() {}

// AllIntro is arbitrary Var, with Body proving the instantiated goal.
type AllIntro struct {
	Loc
	Var  Binding
	Body Proof
}

func (*AllIntro) isProof() {}

type AllElim struct {
	Loc
	Univ Proof
	Args []Term
}

func (*AllElim) isProof() {}

type AllElimTypes struct {
	Loc
	Univ  Proof
	Types []Type
}

func (*AllElimTypes) isProof() {}

// SomeIntro is choose Witnesses, with Body proving the instantiated body.
type SomeIntro struct {
	Loc
	Witnesses []Term
	Body      Proof
}

func (*SomeIntro) isProof() {}

// SomeElim is obtain Witnesses where Label: Prop from Some, then Body.
type SomeElim struct {
	Loc
	Witnesses []string
	Label     string
	Prop      Term
	Some      Proof
	Body      Proof
}

func (*SomeElim) isProof() {}

type PCase struct {
	Loc
	Label string
	Prop  Term
	Body  Proof
}

func (c *PCase) String() string { return "case " + BaseName(c.Label) }

type Cases struct {
	Loc
	Subject Proof
	Cases   []*PCase
}

func (*Cases) isProof() {}

type IndHyp struct {
	Label string
	Prop  Term
}

type IndCase struct {
	Loc
	Pattern *PatternCons
	Hyps    []IndHyp
	Body    Proof
}

func (c *IndCase) String() string { return "case " + c.Pattern.String() }

type Induction struct {
	Loc
	Typ   Type
	Cases []*IndCase
}

func (*Induction) isProof() {}

type SwitchProofCase struct {
	Loc
	Pattern Pattern
	Label   string
	Prop    Term
	Body    Proof
}

func (c *SwitchProofCase) String() string { return "case " + c.Pattern.String() }

type SwitchProof struct {
	Loc
	Subject Term
	Cases   []*SwitchProofCase
}

func (*SwitchProof) isProof() {}

type RewriteGoal struct {
	Loc
	Equations []Proof
	Body      Proof
}

func (*RewriteGoal) isProof() {}

type RewriteFact struct {
	Loc
	Subject   Proof
	Equations []Proof
}

func (*RewriteFact) isProof() {}

type ApplyDefsGoal struct {
	Loc
	Defs []*Var
	Body Proof
}

func (*ApplyDefsGoal) isProof() {}

type ApplyDefsFact struct {
	Loc
	Defs    []*Var
	Subject Proof
}

func (*ApplyDefsFact) isProof() {}

type EvaluateGoal struct {
	Loc
	Body Proof
}

func (*EvaluateGoal) isProof() {}

type EvaluateFact struct {
	Loc
	Subject Proof
}

func (*EvaluateFact) isProof() {}

type PReflexive struct {
	Loc
}

func (*PReflexive) isProof() {}

type PSymmetric struct {
	Loc
	Body Proof
}

func (*PSymmetric) isProof() {}

type PTransitive struct {
	Loc
	First  Proof
	Second Proof
}

func (*PTransitive) isProof() {}

type PInjective struct {
	Loc
	Constructor *Var
	Body        Proof
}

func (*PInjective) isProof() {}

type PExtensionality struct {
	Loc
	Body Proof
}

func (*PExtensionality) isProof() {}

// PRecall proves facts that are already visible, by name-free lookup.
type PRecall struct {
	Loc
	Facts []Term
}

func (*PRecall) isProof() {}

// PTLet is define Name = Rhs inside a proof, then Body.
type PTLet struct {
	Loc
	Name string
	Rhs  Term
	Body Proof
}

func (*PTLet) isProof() {}
