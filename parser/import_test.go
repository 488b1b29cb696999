package parser_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/kr/pretty"
	. "github.com/smasher164/deduce/parser"
)

func TestImportCrawl(t *testing.T) {
	fsys := fstest.MapFS{
		"A.pf": {Data: []byte("import C\nimport B")},
		"B.pf": {Data: []byte("import C")},
		"C.pf": {Data: []byte("union Nat { zero }")},
	}
	importer := NewImporter(fsys)
	if err := importer.ImportCrawl("A"); err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(importer.Sorted, []string{"C", "B", "A"}); len(diff) > 0 {
		t.Errorf("sorted: %v", diff)
	}
	if len(importer.Cache) != 3 {
		t.Errorf("cache has %d modules", len(importer.Cache))
	}
}

func TestImportSearchOrder(t *testing.T) {
	local := fstest.MapFS{"Nat.pf": {Data: []byte("union Nat { zero }")}}
	lib := fstest.MapFS{
		"Nat.pf":  {Data: []byte("union Nat { zero suc(Nat) }")},
		"List.pf": {Data: []byte("union List { empty }")},
	}
	importer := NewImporter(local, lib)
	if root, err := importer.Find("Nat"); err != nil || root == nil {
		t.Fatal(err)
	}
	stmts, err := importer.ImportSingle("Nat")
	if err != nil {
		t.Fatal(err)
	}
	if stmts[0].String() != "union Nat { zero }" {
		t.Errorf("loaded %s, want the local module", stmts[0])
	}
	if _, err := importer.ImportSingle("List"); err != nil {
		t.Errorf("library module not found: %v", err)
	}
}

func TestImportErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"A.pf": {Data: []byte("import B")},
		"B.pf": {Data: []byte("import A")},
	}
	err := NewImporter(fsys).ImportCrawl("A")
	if err == nil || !strings.Contains(err.Error(), "import cycle detected: A -> B -> A") {
		t.Errorf("got %v", err)
	}
	if err := NewImporter(fsys).ImportCrawl("Missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("got %v", err)
	}
	if _, err := NewImporter(fsys).Find("../A"); err == nil {
		t.Errorf("expected invalid module name")
	}
}
