package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Talk.mp3")

	if got := UniquePath(target); got != target {
		t.Fatalf("free path changed: got %q want %q", got, target)
	}

	touch(t, target)
	touch(t, filepath.Join(dir, "Talk (1).mp3"))

	want := filepath.Join(dir, "Talk (2).mp3")
	if got := UniquePath(target); got != want {
		t.Fatalf("UniquePath = %q, want %q", got, want)
	}
}

func TestUniquePathFuncUsesFinalExtension(t *testing.T) {
	taken := map[string]bool{"/x/Talk.vi.vtt": true}
	got := UniquePathFunc("/x/Talk.vi.vtt", func(p string) bool { return taken[p] })
	if got != "/x/Talk.vi (1).vtt" {
		t.Fatalf("UniquePathFunc = %q", got)
	}
}

func TestRenameNoReplace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	touch(t, src)

	if err := RenameNoReplace(src, dst); err != nil {
		t.Fatalf("RenameNoReplace: %v", err)
	}
	if Exists(src) || !Exists(dst) {
		t.Fatal("expected src moved to dst")
	}

	touch(t, src)
	err := RenameNoReplace(src, dst)
	if !errors.Is(err, ErrTargetExists) || !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected ErrTargetExists, got %v", err)
	}
	if !Exists(src) {
		t.Fatal("src must stay in place when dst exists")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "log.json")

	if err := WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Fatalf("content = %q, want %q", got, "two")
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}
