package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMkdirIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "c")

	created, err := Mkdir(target)
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !created {
		t.Error("first mkdir should report created")
	}

	created, err = Mkdir(target)
	if err != nil {
		t.Fatalf("second mkdir: %v", err)
	}
	if created {
		t.Error("second mkdir should report already existing")
	}
}

func TestMkdirOverFileFails(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Mkdir(target); !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("err = %v, want ErrNotDirectory", err)
	}
}

func TestTouch(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub", "empty.txt")

	created, err := Touch(target)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if !created {
		t.Error("touch should create the file")
	}
	info, err := os.Stat(target)
	if err != nil || info.Size() != 0 {
		t.Fatalf("stat = %v, size = %d", err, info.Size())
	}

	// Touching again is a no-op and must not truncate.
	if err := os.WriteFile(target, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if created, err = Touch(target); err != nil || created {
		t.Fatalf("re-touch created=%v err=%v", created, err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "keep" {
		t.Errorf("re-touch truncated the file: %q", data)
	}

	if _, err := Touch(dir); !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("touch dir err = %v, want ErrIsDirectory", err)
	}
}

func TestWriteFileAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "deep", "x.txt")

	if err := WriteFileAtomic(target, "hello"); err != nil {
		t.Fatalf("write: %v", err)
	}
	content, err := ReadFile(target)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "hello" {
		t.Fatalf("content = %q", content)
	}

	// Overwrite must fully replace and leave no temp files behind.
	if err := WriteFileAtomic(target, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	content, _ = ReadFile(target)
	if content != "second" {
		t.Fatalf("content = %q", content)
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".fw-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadFileOnDirectory(t *testing.T) {
	if _, err := ReadFile(t.TempDir()); !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("err = %v, want ErrIsDirectory", err)
	}
}

func TestListSortedWithDirMarkers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.txt", "alpha.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "mid"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := FormatEntries(entries)
	want := "alpha.txt\nmid/\nzeta.txt"
	if got != want {
		t.Fatalf("listing = %q, want %q", got, want)
	}

	if _, err := List(filepath.Join(dir, "alpha.txt")); !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("list file err = %v, want ErrNotDirectory", err)
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	wasDir, err := Delete(file)
	if err != nil || wasDir {
		t.Fatalf("delete file wasDir=%v err=%v", wasDir, err)
	}

	tree := filepath.Join(dir, "tree", "nested")
	if err := os.MkdirAll(tree, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tree, "inner.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	wasDir, err = Delete(filepath.Join(dir, "tree"))
	if err != nil || !wasDir {
		t.Fatalf("delete tree wasDir=%v err=%v", wasDir, err)
	}

	if _, err := Delete(filepath.Join(dir, "absent")); !os.IsNotExist(err) {
		t.Fatalf("delete absent err = %v, want not-exist", err)
	}
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old.txt")
	dst := filepath.Join(dir, "moved", "new.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Move(src, dst); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("dest = %q err=%v", data, err)
	}

	if err := Move(filepath.Join(dir, "absent"), dst); !os.IsNotExist(err) {
		t.Fatalf("move absent err = %v, want not-exist", err)
	}
}

func TestNumberLines(t *testing.T) {
	got := NumberLines("alpha\nbeta\n")
	want := "1 | alpha\n2 | beta"
	if got != want {
		t.Fatalf("numbered = %q, want %q", got, want)
	}
	if NumberLines("") != "" {
		t.Error("empty content should render empty")
	}
}
