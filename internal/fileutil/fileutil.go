// Package fileutil holds the small filesystem primitives shared by the rename
// engines: collision-free path selection, no-replace renames, atomic writes,
// and plain copies used for backups.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTargetExists is returned by RenameNoReplace when dst already exists.
var ErrTargetExists = fmt.Errorf("target already exists: %w", os.ErrExist)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Exists reports whether path names an existing file or directory. Broken
// symlinks count as existing.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// UniquePath returns path unchanged when nothing exists there, otherwise the
// first "stem (n)ext" sibling (n from 1) that is free. The extension is the
// final dot segment.
func UniquePath(path string) string {
	return UniquePathFunc(path, Exists)
}

// UniquePathFunc is UniquePath with a custom occupancy check, so callers can
// treat planned-but-not-yet-created targets as taken.
func UniquePathFunc(path string, taken func(string) bool) string {
	if !taken(path) {
		return path
	}
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !taken(candidate) {
			return candidate
		}
	}
}

// RenameNoReplace moves src to dst, failing with ErrTargetExists instead of
// clobbering an existing dst.
func RenameNoReplace(src, dst string) error {
	if err := renameNoReplace(src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("rename %s: %w", filepath.Base(dst), ErrTargetExists)
		}
		return err
	}
	return nil
}

// fallbackRenameNoReplace is the check-then-rename path for platforms or
// filesystems without an atomic no-replace rename.
func fallbackRenameNoReplace(src, dst string) error {
	if Exists(dst) {
		return ErrTargetExists
	}
	return os.Rename(src, dst)
}
