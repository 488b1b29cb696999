package eval

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-set/v3"
)

// Tracer prints unfolding steps. A nil *Tracer traces nothing.
type Tracer struct {
	w      io.Writer
	all    bool
	names  *set.Set[string]
	indent int
}

// NewTracer traces every definition when all is set, and otherwise only
// the definitions whose base name is listed.
func NewTracer(w io.Writer, all bool, names ...string) *Tracer {
	return &Tracer{w: w, all: all, names: set.From(names)}
}

// Enabled reports whether unfolding the base name should be traced.
func (t *Tracer) Enabled(base string) bool {
	return t != nil && (t.all || t.names.Contains(base))
}

func (t *Tracer) Printf(format string, args ...any) {
	if t == nil {
		return
	}
	fmt.Fprintf(t.w, "%*s", t.indent*2, "")
	fmt.Fprintf(t.w, format, args...)
	fmt.Fprintln(t.w)
}

func (t *Tracer) trace(msg string) func() {
	if t == nil {
		return func() {}
	}
	t.Printf("%s", msg)
	t.indent++
	return func() {
		t.indent--
	}
}
