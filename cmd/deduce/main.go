// Command deduce checks proof files.
//
//	deduce [flags] file.pf...
//
// It prints "<file> is valid" for every file whose proofs check and exits
// with status 1 if any proof fails, or 2 if a file cannot be read or parsed.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/fsx"
	"github.com/smasher164/deduce/kernel"
	"github.com/smasher164/deduce/lexer"
	"github.com/smasher164/deduce/summary"
	"golang.org/x/sync/errgroup"
)

type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(s string) error { *l = append(*l, s); return nil }

type options struct {
	verbose    bool
	trace      listFlag
	libs       listFlag
	summaryDir string
	allowSorry bool
	dump       bool
	watch      bool
}

// result is the outcome of checking one file, buffered so that files
// checked concurrently print in order.
type result struct {
	out    bytes.Buffer
	errOut bytes.Buffer
	status int
}

func main() {
	var opts options
	flag.BoolVar(&opts.verbose, "v", false, "trace every unfolding and proof step")
	flag.Var(&opts.trace, "trace", "trace unfolding of the named definition (repeatable)")
	flag.Var(&opts.libs, "lib", "search directory for imports (repeatable)")
	flag.StringVar(&opts.summaryDir, "summary", "", "write a .thm summary of each valid file to `dir`")
	flag.BoolVar(&opts.allowSorry, "allow-sorry", false, "accept sorry as a proof, with a warning")
	flag.BoolVar(&opts.dump, "dump", false, "dump the renamed statements of each file")
	flag.BoolVar(&opts.watch, "watch", false, "check again whenever a file changes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: deduce [flags] file%s...\n", lexer.Ext)
		flag.PrintDefaults()
	}
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if !opts.watch {
		os.Exit(checkAll(opts, files))
	}
	if err := watch(opts, files); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func checkAll(opts options, files []string) int {
	results := make([]result, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			check(opts, file, &results[i])
			return nil
		})
	}
	g.Wait()
	status := 0
	for i := range results {
		io.Copy(os.Stdout, &results[i].out)
		io.Copy(os.Stderr, &results[i].errOut)
		status = max(status, results[i].status)
	}
	return status
}

func check(opts options, file string, res *result) {
	var roots []fs.FS
	for _, lib := range opts.libs {
		roots = append(roots, fsx.DirFS(lib))
	}
	k := kernel.New(kernel.Config{
		Roots:       roots,
		Verbose:     opts.verbose,
		Trace:       opts.trace,
		AllowSorry:  opts.allowSorry,
		TraceWriter: &res.errOut,
		Output:      &res.out,
	})
	m, err := k.CheckFile(fsx.DirFS(filepath.Dir(file)), filepath.Base(file))
	for _, w := range k.Warnings {
		fmt.Fprintf(&res.errOut, "warning: %s\n", w)
	}
	if opts.dump && m != nil {
		fmt.Fprintln(&res.out, ast.Dump(m.Stmts))
	}
	if err != nil {
		fmt.Fprintln(&res.errOut, err)
		var le *kernel.LoadError
		if errors.As(err, &le) {
			res.status = 2
		} else {
			res.status = 1
		}
		return
	}
	fmt.Fprintf(&res.out, "%s is valid\n", file)
	if opts.summaryDir != "" {
		if err := summary.Write(fsx.DirFS(opts.summaryDir), file, m); err != nil {
			fmt.Fprintln(&res.errOut, err)
			res.status = 2
		}
	}
}

// watch checks the files, then checks them again whenever a proof file in
// one of their directories changes.
func watch(opts options, files []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	dirs := make(map[string]bool)
	paths := append(append([]string{}, files...), opts.libs...)
	for _, file := range paths {
		dir := file
		if filepath.Ext(file) == lexer.Ext {
			dir = filepath.Dir(file)
		}
		if !dirs[dir] {
			dirs[dir] = true
			if err := w.Add(dir); err != nil {
				return err
			}
		}
	}
	checkAll(opts, files)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != lexer.Ext || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s changed\n", ev.Name)
			checkAll(opts, files)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
