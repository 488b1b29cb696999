// Package summary writes the public theorems of a checked module.
package summary

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/fsx"
	"github.com/smasher164/deduce/kernel"
	"github.com/smasher164/deduce/lexer"
	"golang.org/x/exp/slices"
)

// Ext is the extension of summary files.
const Ext = ".thm"

// Filename is the summary file for a source file.
func Filename(src string) string {
	return strings.TrimSuffix(path.Base(src), lexer.Ext) + Ext
}

// Lines lists the public theorems and postulates of mod and of the modules
// it imports publicly, as name: formula, sorted. Lemmas are left out.
func Lines(mod *kernel.Module) []string {
	var lines []string
	seen := make(map[*kernel.Module]bool)
	var visit func(m *kernel.Module)
	visit = func(m *kernel.Module) {
		if m == nil || seen[m] {
			return
		}
		seen[m] = true
		lines = append(lines, lo.FilterMap(m.Checked, func(s ast.Statement, _ int) (string, bool) {
			switch s := s.(type) {
			case *ast.Theorem:
				if s.IsLemma || s.Private {
					return "", false
				}
				return fmt.Sprintf("%s: %s", ast.BaseName(s.Name), s.Formula), true
			case *ast.Postulate:
				if s.Private {
					return "", false
				}
				return fmt.Sprintf("%s: %s", ast.BaseName(s.Name), s.Formula), true
			}
			return "", false
		})...)
		for _, dep := range m.Public {
			visit(dep)
		}
	}
	visit(mod)
	slices.Sort(lines)
	return lo.Uniq(lines)
}

// Write creates the summary of the module checked from src in outfs.
func Write(outfs fs.FS, src string, mod *kernel.Module) error {
	f, err := fsx.Create(outfs, Filename(src))
	if err != nil {
		return err
	}
	for _, line := range Lines(mod) {
		if _, err := io.WriteString(f, line+"\n"); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
