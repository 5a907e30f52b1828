package pixelblit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLibrarySequences(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.fseq", "A.FSEQ", "c.Fseq", ".hidden.fseq", "._a.fseq", "notes.txt", "fseq", "x.fseq.bak")
	if err := os.Mkdir(filepath.Join(dir, "dir.fseq"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := Library{Dir: dir}.Sequences()
	if err != nil {
		t.Fatal(err)
	}
	assertEq(t, []string{"A.FSEQ", "b.fseq", "c.Fseq"}, names)
}

func TestLibraryLimit(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxSequences+4; i++ {
		touch(t, dir, fmt.Sprintf("seq%02d.fseq", i))
	}

	names, err := Library{Dir: dir}.Sequences()
	if err != nil {
		t.Fatal(err)
	}
	assertEq(t, MaxSequences, len(names))
	assertEq(t, "seq00.fseq", names[0])
	assertEq(t, "seq15.fseq", names[MaxSequences-1])
}

func TestLibraryPath(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "show.fseq", "notes.txt")
	lib := Library{Dir: dir}

	path, err := lib.Path("show.fseq")
	if err != nil {
		t.Fatal(err)
	}
	assertEq(t, filepath.Join(dir, "show.fseq"), path)

	for _, name := range []string{"", "missing.fseq", "notes.txt", "../show.fseq", "sub/show.fseq", ".hidden.fseq"} {
		if _, err := lib.Path(name); !errors.Is(err, ErrNoSequence) {
			t.Errorf("Path(%q) error = %v, want ErrNoSequence", name, err)
		}
	}
}

func TestLibraryMissingDir(t *testing.T) {
	_, err := Library{Dir: filepath.Join(t.TempDir(), "missing")}.Sequences()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Sequences() error = %v, want os.ErrNotExist", err)
	}
}
