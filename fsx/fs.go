// Package fsx adds writing to io/fs: an in-memory tree for tests and a
// directory-backed file system for summaries.
package fsx

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

var (
	_ fs.ReadDirFile = (*memDir)(nil)
	_ fs.DirEntry    = (*memDir)(nil)
	_ CreateFS       = (*memDir)(nil)
	_ MkdirFS        = (*memDir)(nil)
	_ WriteableFile  = (*memFile)(nil)
	_ fs.FileInfo    = (*memFile)(nil)
	_ fs.DirEntry    = (*memFile)(nil)
	_ CreateFS       = DirFS("")
	_ MkdirFS        = DirFS("")
	_ fs.StatFS      = DirFS("")
)

type WriteableFile interface {
	fs.File
	io.Writer
}

type CreateFS interface {
	fs.FS
	Create(name string) (WriteableFile, error)
}

type MkdirFS interface {
	fs.FS
	Mkdir(name string, perm fs.FileMode) (fs.FS, error)
}

// Create creates or truncates a file in fsys.
func Create(fsys fs.FS, name string) (WriteableFile, error) {
	if cfs, ok := fsys.(CreateFS); ok {
		return cfs.Create(name)
	}
	return nil, &fs.PathError{Op: "create", Path: name, Err: errors.ErrUnsupported}
}

// Mkdir creates a directory in fsys and returns it.
func Mkdir(fsys fs.FS, name string, perm fs.FileMode) (fs.FS, error) {
	if mfs, ok := fsys.(MkdirFS); ok {
		return mfs.Mkdir(name, perm)
	}
	return nil, &fs.PathError{Op: "mkdir", Path: name, Err: errors.ErrUnsupported}
}

// TestFS builds an in-memory tree from slash-separated paths and contents.
func TestFS(files [][2]string) *memDir {
	root := newMemDir("", 0)
	for _, file := range files {
		dir := root
		parts := strings.Split(file[0], "/")
		for _, part := range parts[:len(parts)-1] {
			dir = dir.subdir(part)
		}
		dir.entries = append(dir.entries, newMemFile(parts[len(parts)-1], 0, []byte(file[1])))
	}
	return root
}

type memFile struct {
	name   string
	mode   fs.FileMode
	data   []byte
	offset int
}

func newMemFile(name string, mode fs.FileMode, data []byte) *memFile {
	return &memFile{name: name, mode: mode, data: data}
}

func (f *memFile) Write(p []byte) (int, error) {
	f.data = append(f.data, p...)
	return len(p), nil
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.offset >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.offset:])
	f.offset += n
	return n, nil
}

func (f *memFile) Close() error {
	f.offset = 0
	return nil
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Info() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Type() fs.FileMode { return f.mode.Type() }
func (f *memFile) IsDir() bool { return f.mode.IsDir() }
func (*memFile) ModTime() time.Time { return time.Time{} }
func (f *memFile) Mode() fs.FileMode { return f.mode }
func (f *memFile) Name() string { return f.name }
func (f *memFile) Size() int64 { return int64(len(f.data)) }
func (*memFile) Sys() any { return nil }

// memDir is a directory and, through Open, a file system rooted there.
type memDir struct {
	memFile
	entries []fs.File
}

func newMemDir(name string, perm fs.FileMode) *memDir {
	return &memDir{
		memFile: memFile{name: name, mode: perm | fs.ModeDir},
		entries: []fs.File{},
	}
}

func (*memDir) Read([]byte) (int, error) { return 0, errors.New("cannot read directory") }

func (d *memDir) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(d.entries) - d.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	for i := range list {
		list[i] = d.entries[d.offset+i].(fs.DirEntry)
	}
	d.offset += n
	return list, nil
}

func entryName(f fs.File) string {
	switch f := f.(type) {
	case *memDir:
		return f.name
	case *memFile:
		return f.name
	}
	panic("unreachable")
}

func (d *memDir) find(name string) int {
	return slices.IndexFunc(d.entries, func(f fs.File) bool { return entryName(f) == name })
}

func (d *memDir) subdir(name string) *memDir {
	if i := d.find(name); i >= 0 {
		return d.entries[i].(*memDir)
	}
	sub := newMemDir(name, 0)
	d.entries = append(d.entries, sub)
	return sub
}

func (d *memDir) Mkdir(name string, perm fs.FileMode) (fs.FS, error) {
	if d.find(name) >= 0 {
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}
	sub := newMemDir(name, perm)
	d.entries = append(d.entries, sub)
	return sub, nil
}

// Create truncates an existing file.
func (d *memDir) Create(name string) (WriteableFile, error) {
	if i := d.find(name); i >= 0 {
		f, ok := d.entries[i].(*memFile)
		if !ok {
			return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
		}
		f.data, f.offset = nil, 0
		return f, nil
	}
	f := newMemFile(name, 0, nil)
	d.entries = append(d.entries, f)
	return f, nil
}

func (d *memDir) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	cur := d
	for _, elem := range strings.Split(name, "/") {
		if elem == "." {
			continue
		}
		i := cur.find(elem)
		if i < 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		sub, ok := cur.entries[i].(*memDir)
		if !ok {
			return cur.entries[i], nil
		}
		cur = sub
	}
	// A fresh copy so each open directory reads from the start.
	dir := *cur
	dir.offset = 0
	return &dir, nil
}

// DirFS is a directory on disk, like os.DirFS, that can also be written.
type DirFS string

func (dir DirFS) join(name string) (string, error) {
	if dir == "" {
		return "", errors.New("fsx: DirFS with empty root")
	}
	if !fs.ValidPath(name) {
		return "", os.ErrInvalid
	}
	local, err := filepath.Localize(name)
	if err != nil {
		return "", os.ErrInvalid
	}
	return filepath.Join(string(dir), local), nil
}

func (dir DirFS) Open(name string) (fs.File, error) {
	full, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (dir DirFS) Stat(name string) (fs.FileInfo, error) {
	full, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return os.Stat(full)
}

func (dir DirFS) Create(name string) (WriteableFile, error) {
	full, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (dir DirFS) Mkdir(name string, perm fs.FileMode) (fs.FS, error) {
	full, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "mkdir", Path: name, Err: err}
	}
	if err := os.Mkdir(full, perm); err != nil {
		return nil, err
	}
	return DirFS(full), nil
}
