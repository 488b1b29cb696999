package ast

import (
	"regexp"

	"github.com/sanity-io/litter"
)

var dumpOptions = litter.Options{
	StripPackageNames: true,
	HidePrivateFields: true,
	FieldExclusions:   regexp.MustCompile(`^(At|Loc)$`),
}

// Dump renders nodes as Go-like literals for debugging, without positions.
func Dump(nodes ...any) string {
	return dumpOptions.Sdump(nodes...)
}
