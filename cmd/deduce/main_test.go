package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func TestListFlag(t *testing.T) {
	var libs listFlag
	fs := flag.NewFlagSet("deduce", flag.ContinueOnError)
	fs.Var(&libs, "lib", "")
	if err := fs.Parse([]string{"-lib", "a", "-lib", "b", "main.pf"}); err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff([]string(libs), []string{"a", "b"}); len(diff) > 0 {
		t.Errorf("libs: %v", diff)
	}
	if libs.String() != "a,b" {
		t.Errorf("String() = %q", libs.String())
	}
}

func write(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckStatus(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	valid := write(t, dir, "valid.pf", `
union Nat { zero  suc(Nat) }
theorem refl: all n:Nat. n = n
proof
  arbitrary n:Nat
  reflexive
end
`)
	invalid := write(t, dir, "invalid.pf", "theorem f: false proof ? end")
	broken := write(t, dir, "broken.pf", "theorem f: proof")

	tests := []struct {
		file   string
		status int
	}{
		{valid, 0},
		{invalid, 1},
		{broken, 2},
	}
	for _, tt := range tests {
		var res result
		check(options{summaryDir: out}, tt.file, &res)
		if res.status != tt.status {
			t.Errorf("%s: status %d, want %d: %s", filepath.Base(tt.file), res.status, tt.status, res.errOut.String())
		}
		if valid := strings.Contains(res.out.String(), "is valid"); valid != (tt.status == 0) {
			t.Errorf("%s: output %q", filepath.Base(tt.file), res.out.String())
		}
	}
	if _, err := os.Stat(filepath.Join(out, "valid.thm")); err != nil {
		t.Error(err)
	}
}
