package data

import (
	"strings"
)

// NormalizePath converts a logical path to its canonical form: forward
// slashes, no leading slash, no empty or "." segments. Case is preserved.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")

	segments := strings.Split(path, "/")
	cleaned := segments[:0]
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		cleaned = append(cleaned, segment)
	}

	return strings.Join(cleaned, "/")
}

// SplitPath normalizes and case-folds path, returning its directory segments
// and file name. A path without a separator has no directory segments.
func SplitPath(path string) ([]string, string) {
	path = strings.ToLower(NormalizePath(path))

	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return nil, path
	}

	return strings.Split(path[:idx], "/"), path[idx+1:]
}

// JoinPath joins segments with forward slashes, skipping empty ones.
func JoinPath(segments ...string) string {
	return NormalizePath(strings.Join(segments, "/"))
}

// ToRelativePath removes the prefix from path.
// Returns the relative path after the prefix.
// It additionally removes any leading slashes.
func ToRelativePath(path, prefix string) string {
	if prefix == "" {
		return path
	}

	if path == prefix {
		return ""
	}

	relPath := path[len(prefix):]
	return strings.TrimPrefix(relPath, "/")
}

// HasPrefix reports whether path lies below prefix. Both are expected to be
// normalized; comparison is case-insensitive and segment aware, so
// "extensions/mod" is not a prefix of "extensions/modded/file.xml".
func HasPrefix(path, prefix string) bool {
	// Root matches everything
	if prefix == "" {
		return true
	}

	if len(path) < len(prefix) || !strings.EqualFold(path[:len(prefix)], prefix) {
		return false
	}

	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
