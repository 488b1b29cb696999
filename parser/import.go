package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
	"golang.org/x/exp/slices"
	"golang.org/x/mod/module"
)

// Importer locates and parses modules. A module named M is the file M.pf
// in the first root that has it.
type Importer struct {
	roots  []fs.FS
	Cache  map[string][]ast.Statement
	Sorted []string
}

func NewImporter(roots ...fs.FS) *Importer {
	return &Importer{
		roots: roots,
		Cache: make(map[string][]ast.Statement),
	}
}

// Filename is the file a module name refers to.
func Filename(name string) string {
	return name + lexer.Ext
}

// ModuleName is the module a file defines.
func ModuleName(filename string) string {
	return strings.TrimSuffix(path.Base(filename), lexer.Ext)
}

// Find returns the root holding the module's file.
func (i *Importer) Find(name string) (fs.FS, error) {
	filename := Filename(name)
	if err := module.CheckFilePath(filename); err != nil {
		return nil, fmt.Errorf("invalid module name %q: %w", name, err)
	}
	for _, root := range i.roots {
		if _, err := fs.Stat(root, filename); err == nil {
			return root, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("module %s not found: no %s in any search directory", name, filename)
}

// ImportSingle parses a module once and caches its statements.
func (i *Importer) ImportSingle(name string) ([]ast.Statement, error) {
	if stmts, ok := i.Cache[name]; ok {
		return stmts, nil
	}
	root, err := i.Find(name)
	if err != nil {
		return nil, err
	}
	stmts, err := ParseFile(root, Filename(name))
	if err != nil {
		return nil, err
	}
	i.Cache[name] = stmts
	return stmts, nil
}

// Imports lists the modules stmts import, in order.
func Imports(stmts []ast.Statement) []string {
	return lo.Uniq(lo.FilterMap(stmts, func(s ast.Statement, _ int) (string, bool) {
		imp, ok := s.(*ast.Import)
		if !ok {
			return "", false
		}
		return imp.Name, true
	}))
}

// ImportCrawl parses the given modules and everything they import,
// appending each module to Sorted after its dependencies. It reports
// missing modules and import cycles.
func (i *Importer) ImportCrawl(names ...string) error {
	visiting := make(map[string]bool)
	done := make(map[string]bool)
	var stack []string
	var crawl func(name string) error
	crawl = func(name string) error {
		if done[name] {
			return nil
		}
		if visiting[name] {
			cycle := append(stack[slices.Index(stack, name):], name)
			return fmt.Errorf("import cycle detected: %s", strings.Join(cycle, " -> "))
		}
		visiting[name] = true
		stack = append(stack, name)
		stmts, err := i.ImportSingle(name)
		if err != nil {
			return err
		}
		for _, dep := range Imports(stmts) {
			if err := crawl(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(visiting, name)
		done[name] = true
		if !slices.Contains(i.Sorted, name) {
			i.Sorted = append(i.Sorted, name)
		}
		return nil
	}
	for _, name := range names {
		if err := crawl(name); err != nil {
			return err
		}
	}
	return nil
}
