// Package kernel loads, renames, type checks and proof checks modules.
package kernel

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/eval"
	"github.com/smasher164/deduce/names"
	"github.com/smasher164/deduce/parser"
	"github.com/smasher164/deduce/proof"
	"github.com/smasher164/deduce/types"
	"golang.org/x/exp/slices"
)

type Config struct {
	// Roots are searched in order for imported modules, after the
	// directory of the checked file.
	Roots   []fs.FS
	Verbose bool
	// Trace lists definitions whose unfolding is traced.
	Trace      []string
	AllowSorry bool
	// TraceWriter receives traces, Output the values of print statements.
	TraceWriter io.Writer
	Output      io.Writer
}

// LoadError is a module that could not be read or parsed.
type LoadError struct {
	Module string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Module, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Module is a checked module.
type Module struct {
	Name string
	// Stmts are the renamed statements and Checked their elaborated forms,
	// without the statements that failed to type check.
	Stmts   []ast.Statement
	Checked []ast.Statement
	Exports names.Exports
	// Own are the environment layers the module declared.
	Own []*ast.Env
	// Deps are the imported modules, Public those imported publicly.
	Deps   []string
	Public []*Module

	err error
}

type Kernel struct {
	conf     Config
	importer *parser.Importer
	modules  map[string]*Module
	loading  []string
	tracer   *eval.Tracer
	Warnings []string
}

func New(conf Config) *Kernel {
	if conf.Output == nil {
		conf.Output = io.Discard
	}
	if conf.TraceWriter == nil {
		conf.TraceWriter = io.Discard
	}
	k := &Kernel{
		conf:     conf,
		importer: parser.NewImporter(conf.Roots...),
		modules:  make(map[string]*Module),
	}
	if conf.Verbose || len(conf.Trace) > 0 {
		k.tracer = eval.NewTracer(conf.TraceWriter, conf.Verbose, conf.Trace...)
	}
	return k
}

// CheckFile checks the file and everything it imports. Imports are found
// in fsys first, then in the configured roots.
func (k *Kernel) CheckFile(fsys fs.FS, filename string) (*Module, error) {
	k.importer = parser.NewImporter(append([]fs.FS{fsys}, k.conf.Roots...)...)
	stmts, err := parser.ParseFile(fsys, filename)
	if err != nil {
		return nil, &LoadError{Module: filename, Err: err}
	}
	return k.check(parser.ModuleName(filename), stmts)
}

// Load checks the named module once; later calls return the same result.
func (k *Kernel) Load(name string) (*Module, error) {
	if m, ok := k.modules[name]; ok {
		return m, m.err
	}
	if i := slices.Index(k.loading, name); i >= 0 {
		cycle := append(slices.Clone(k.loading[i:]), name)
		return nil, &LoadError{Module: name, Err: fmt.Errorf("import cycle detected: %s", strings.Join(cycle, " -> "))}
	}
	stmts, err := k.importer.ImportSingle(name)
	if err != nil {
		return nil, &LoadError{Module: name, Err: err}
	}
	return k.check(name, stmts)
}

func (k *Kernel) Module(name string) (*Module, bool) {
	m, ok := k.modules[name]
	return m, ok
}

func (k *Kernel) exportsOf(name string) (names.Exports, error) {
	m, err := k.Load(name)
	if err != nil {
		return nil, err
	}
	return m.Exports, nil
}

// importEnv replays every module stmts import, directly or not, with
// dependencies before the modules that need them.
func (k *Kernel) importEnv(deps []string) *ast.Env {
	env := ast.NewEnv(nil)
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		m, ok := k.modules[name]
		if seen[name] || !ok {
			return
		}
		seen[name] = true
		for _, dep := range m.Deps {
			visit(dep)
		}
		env = env.Replay(m.Own)
	}
	for _, dep := range deps {
		visit(dep)
	}
	return env
}

type checked struct {
	stmt   ast.Statement
	before *ast.Env
	after  *ast.Env
}

func (k *Kernel) check(name string, stmts []ast.Statement) (*Module, error) {
	k.loading = append(k.loading, name)
	defer func() { k.loading = k.loading[:len(k.loading)-1] }()

	m := &Module{Name: name, Stmts: stmts, Deps: parser.Imports(stmts)}
	r := names.NewResolver(k.exportsOf)
	err := r.Uniquify(stmts)
	for _, w := range r.Warnings {
		k.Warnings = append(k.Warnings, w.String())
	}
	if err != nil {
		m.err = err
		k.modules[name] = m
		return m, err
	}
	m.Exports = r.Exports()
	for _, s := range stmts {
		if imp, ok := s.(*ast.Import); ok && imp.Public {
			m.Public = append(m.Public, k.modules[imp.Name])
		}
	}

	var errs []error
	base := k.importEnv(m.Deps)
	env := base
	tc := types.NewChecker(name)
	var pass []checked
	for _, s := range stmts {
		ns, next, err := tc.CheckStatement(env, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pass = append(pass, checked{stmt: ns, before: env, after: next})
		m.Checked = append(m.Checked, ns)
		env = next
	}
	m.Own = env.Since(base)

	pc := proof.NewChecker(tc, k.tracer)
	pc.AllowSorry = k.conf.AllowSorry
	for _, c := range pass {
		if err := k.statement(pc, c); err != nil {
			errs = append(errs, err)
		}
	}
	k.Warnings = append(k.Warnings, pc.Warnings...)
	m.err = errors.Join(errs...)
	k.modules[name] = m
	return m, m.err
}

func (k *Kernel) statement(pc *proof.Checker, c checked) error {
	switch s := c.stmt.(type) {
	case *ast.Theorem:
		k.tracer.Printf("checking %s", ast.BaseName(s.Name))
		if err := pc.Check(c.before, s.Proof, s.Formula); err != nil {
			return fmt.Errorf("%s: theorem %s: %w", s.Span(), ast.BaseName(s.Name), err)
		}
	case *ast.GenRecFun:
		if s.Terminates == nil {
			if ast.IsBool(s.Obligation, true) {
				return nil
			}
			return fmt.Errorf("%s: %s needs a termination proof of %s", s.Span(), ast.BaseName(s.Name), s.Obligation)
		}
		if err := pc.Check(c.after, s.Terminates, s.Obligation); err != nil {
			return fmt.Errorf("%s: termination of %s: %w", s.Span(), ast.BaseName(s.Name), err)
		}
	case *ast.Assert:
		got := k.evaluate(pc, c.before, s.Formula)
		if !ast.IsBool(got, true) {
			return fmt.Errorf("%s: assertion failed: %s evaluated to %s", s.Span(), s.Formula, got)
		}
	case *ast.Print:
		fmt.Fprintln(k.conf.Output, k.evaluate(pc, c.before, s.Subject))
	}
	return nil
}

func (k *Kernel) evaluate(pc *proof.Checker, env *ast.Env, t ast.Term) ast.Term {
	p := eval.Everything()
	p.Opaque, p.Module = true, pc.Types.Module
	return eval.Reducer{Env: env, Policy: p, Trace: k.tracer}.Reduce(t)
}
