package fsx

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMemFS(t *testing.T) {
	mfs := TestFS([][2]string{
		{"lib/Nat.pf", "union Nat { zero suc(Nat) }"},
		{"lib/List.pf", "union List<T> { empty node(T, List<T>) }"},
		{"main.pf", "import Nat"},
	})
	if err := fstest.TestFS(mfs, "lib/Nat.pf", "lib/List.pf", "main.pf"); err != nil {
		t.Fatal(err)
	}
}

func TestCreate(t *testing.T) {
	mfs := TestFS(nil)
	dir, err := Mkdir(mfs, "out", 0)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Create(dir, "main.thm")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("lid: true\n")); err != nil {
		t.Fatal(err)
	}
	f.Close()
	// Creating again truncates.
	f, err = Create(dir, "main.thm")
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte("rid: true\n"))
	f.Close()
	data, err := fs.ReadFile(mfs, "out/main.thm")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rid: true\n" {
		t.Errorf("read %q", data)
	}
	if _, err := Mkdir(mfs, "out", 0); err == nil {
		t.Error("mkdir of an existing directory succeeded")
	}
}

func TestCreateUnsupported(t *testing.T) {
	if _, err := Create(fstest.MapFS{}, "x"); err == nil {
		t.Error("created a file in a read-only file system")
	}
}

func TestDirFS(t *testing.T) {
	root := t.TempDir()
	dir := DirFS(root)
	f, err := Create(dir, "a.thm")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "a.thm"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("read %q, %v", data, err)
	}
	if _, err := fs.Stat(dir, "a.thm"); err != nil {
		t.Error(err)
	}
	if _, err := dir.Open("../escape"); err == nil {
		t.Error("opened a path outside the root")
	}
}
