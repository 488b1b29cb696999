package types

import (
	"fmt"
	"strings"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
)

// TypeError reports a term whose type is not the one its context needs.
// Expected and Actual are nil when the error is not a mismatch.
type TypeError struct {
	Span     lexer.Span
	Msg      string
	Expected ast.Type
	Actual   ast.Type
}

func (e *TypeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Span, e.Msg)
	if e.Expected != nil {
		fmt.Fprintf(&sb, "\n\texpected: %s", e.Expected)
	}
	if e.Actual != nil {
		fmt.Fprintf(&sb, "\n\tfound:    %s", e.Actual)
	}
	return sb.String()
}

func errorf(span lexer.Span, format string, args ...any) *TypeError {
	return &TypeError{Span: span, Msg: fmt.Sprintf(format, args...)}
}

func mismatch(t ast.Term, expected, actual ast.Type) *TypeError {
	return &TypeError{Span: t.Span(), Msg: fmt.Sprintf("type mismatch in %s", t), Expected: expected, Actual: actual}
}
