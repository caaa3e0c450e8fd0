// Package pathutil has the path helpers used when naming graph nodes.
// Graph paths always use forward slashes regardless of the host.
package pathutil

import (
	"path"
	"path/filepath"
	"strings"
)

// Join joins graph path elements with '/', keeping a leading "$var" element intact
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		if e != "" {
			parts = append(parts, filepath.ToSlash(e))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return path.Join(parts...)
}

// SplitExt splits p into the path without the extension of its last element and that extension.
// Leading dots of the base name do not start an extension (".clang-format" has none).
func SplitExt(p string) (string, string) {
	p = filepath.ToSlash(p)
	base := path.Base(p)
	trimmed := strings.TrimLeft(base, ".")
	ext := path.Ext(trimmed)
	return p[:len(p)-len(ext)], ext
}

// BaseName is the last element of p, ignoring trailing slashes
func BaseName(p string) string {
	p = strings.TrimRight(filepath.ToSlash(p), "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// RelativePath returns the path leading from start to target, both resolved to absolute paths first
func RelativePath(target, start string) (string, error) {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	absStart, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(absTarget); err == nil {
		absTarget = resolved
	}
	if resolved, err := filepath.EvalSymlinks(absStart); err == nil {
		absStart = resolved
	}
	rel, err := filepath.Rel(absStart, absTarget)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsRooted reports whether p should not be prefixed with the project root:
// absolute host paths and paths that start with a graph variable.
func IsRooted(p string) bool {
	return strings.HasPrefix(p, "$") || strings.HasPrefix(p, "/") || filepath.IsAbs(p)
}

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

// Escape escapes a literal path for use in a build statement
func Escape(p string) string { return ninjaPathEscaper.Replace(p) }
