package summary_test

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/kr/pretty"
	"github.com/smasher164/deduce/fsx"
	"github.com/smasher164/deduce/kernel"
	. "github.com/smasher164/deduce/summary"
)

const natSrc = `
union Nat { zero  suc(Nat) }
recursive operator +(Nat, Nat) -> Nat {
	operator +(zero, m) = m
	operator +(suc(n), m) = suc(n + m)
}
theorem lid: all n:Nat. zero + n = n
proof
  arbitrary n:Nat
  evaluate
end
`

func TestWrite(t *testing.T) {
	src := fstest.MapFS{
		"Nat.pf": {Data: []byte(natSrc)},
		"Extra.pf": {Data: []byte(`
import Nat
postulate hidden: zero = zero
`)},
		"main.pf": {Data: []byte(`
public import Nat
import Extra
postulate rid: all n:Nat. n + zero = n
lemma helper: zero = zero proof reflexive end
private theorem secret: zero = zero proof reflexive end
theorem two: suc(zero) + suc(zero) = suc(suc(zero)) proof evaluate end
`)},
	}
	mod, err := kernel.New(kernel.Config{}).CheckFile(src, "main.pf")
	if err != nil {
		t.Fatal(err)
	}
	out := fsx.TestFS(nil)
	if err := Write(out, "main.pf", mod); err != nil {
		t.Fatal(err)
	}
	data, err := fs.ReadFile(out, "main.thm")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		name, _, _ := strings.Cut(line, ":")
		got = append(got, name)
	}
	if diff := pretty.Diff(got, []string{"lid", "rid", "two"}); len(diff) > 0 {
		t.Errorf("summary names: %v\n%s", diff, data)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("dir/nat.pf"); got != "nat.thm" {
		t.Errorf("Filename = %s", got)
	}
}
