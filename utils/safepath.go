package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrOutsideRoot = errors.New("path escapes root directory")
	ErrNotFile     = errors.New("not a regular file")
)

// ResolveWithin resolves rel against root and returns the absolute path of a
// regular file that lives under root. Symlinks are followed and the target is
// checked again, so a link pointing out of root is rejected as well.
//
// Errors: ErrOutsideRoot on traversal, ErrNotFile for directories and other
// non-regular files, or the underlying fs error (os.ErrNotExist).
func ResolveWithin(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	rel = strings.TrimPrefix(filepath.FromSlash(rel), string(filepath.Separator))
	target := filepath.Join(absRoot, rel)
	if !within(absRoot, target) {
		return "", ErrOutsideRoot
	}

	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return "", err
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}
	if !within(realRoot, resolved) {
		return "", ErrOutsideRoot
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFile
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
