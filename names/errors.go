package names

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/samber/lo"
	"github.com/smasher164/deduce/lexer"
	"golang.org/x/exp/slices"
)

type UndefinedError struct {
	Span        lexer.Span
	Name        string
	Suggestions []string
}

func (e *UndefinedError) Error() string {
	msg := fmt.Sprintf("%s: undefined name %s", e.Span, e.Name)
	if len(e.Suggestions) > 0 {
		msg += "\n\tdid you mean " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

// OverloadError reports an attempt to overload a union or theorem name.
type OverloadError struct {
	Span lexer.Span
	Name string
	Kind Kind
}

func (e *OverloadError) Error() string {
	return fmt.Sprintf("%s: cannot overload %s, it is already declared as a %s", e.Span, e.Name, e.Kind)
}

// ShadowWarning is reported when a declaration replaces an earlier one.
type ShadowWarning struct {
	Span lexer.Span
	Name string
}

func (w ShadowWarning) String() string {
	return fmt.Sprintf("%s: warning: %s shadows an earlier declaration", w.Span, w.Name)
}

// suggest returns the names within edit distance ceil(len/5) of name.
func suggest(name string, candidates []string) []string {
	limit := (utf8.RuneCountInString(name) + 4) / 5
	out := lo.Filter(candidates, func(c string, _ int) bool {
		return c != name && levenshtein.ComputeDistance(name, c) <= limit
	})
	slices.Sort(out)
	return out
}
