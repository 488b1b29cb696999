package proof

import (
	"fmt"
	"strings"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
)

// Kind classifies a failed proof step.
type Kind int

const (
	// Unfinished is a hole, or a proof that stops before the goal is met.
	Unfinished Kind = iota
	// Mismatch is an equation whose sides reduce to different terms.
	Mismatch
	// Coverage is a case analysis with missing, extra or misordered cases.
	Coverage
	// Annotation is a written formula that differs from the derived one.
	Annotation
	// Entailment is a proved formula that does not imply the goal.
	Entailment
	// Shape is a proof rule applied to a goal or fact of the wrong form.
	Shape
)

func (k Kind) String() string {
	switch k {
	case Unfinished:
		return "unfinished"
	case Mismatch:
		return "mismatch"
	case Coverage:
		return "coverage"
	case Annotation:
		return "annotation"
	case Entailment:
		return "entailment"
	case Shape:
		return "shape"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ProofError reports a proof that does not establish its goal. Goal is
// the formula left to prove, Left and Right the smallest subterms that
// differ, and Facts the local facts visible at the failure.
type ProofError struct {
	Span  lexer.Span
	Kind  Kind
	Msg   string
	Goal  ast.Term
	Left  ast.Term
	Right ast.Term
	Facts []ast.Fact
}

func (e *ProofError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Span, e.Msg)
	if e.Goal != nil {
		fmt.Fprintf(&sb, "\n\tgoal: %s", e.Goal)
	}
	if e.Left != nil && e.Right != nil {
		fmt.Fprintf(&sb, "\n\t%s ≠ %s", e.Left, e.Right)
	}
	if e.Facts != nil {
		sb.WriteString("\n\tgivens:")
		for _, f := range e.Facts {
			fmt.Fprintf(&sb, "\n\t\t%s: %s", ast.BaseName(f.Name), f.Formula)
		}
	}
	return sb.String()
}

func errorf(pf ast.Proof, kind Kind, format string, args ...any) *ProofError {
	return &ProofError{Span: pf.Span(), Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
