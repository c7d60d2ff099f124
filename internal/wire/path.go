package wire

import "strings"

// pathSeparator joins property-path segments, as specified in §3.
const pathSeparator = "/"

// JoinPath builds the canonical `/`-joined path string for a segment list.
// The empty segment list canonically represents the root.
func JoinPath(segments []string) string {
	return strings.Join(segments, pathSeparator)
}

// SplitPath splits a canonical path string back into segments. The empty
// string (root) splits to a nil slice, never a single empty-string segment.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, pathSeparator)
}

// AnyForbidden reports whether any segment of path is on the forbidden set.
func AnyForbidden(path string) bool {
	for _, seg := range SplitPath(path) {
		if IsForbidden(seg) {
			return true
		}
	}
	return false
}
