// Package model holds the tree row data model, the wire types for the
// listing service, and the path conventions shared by every other package.
package model

import "strings"

// Normalize canonicalizes an API path: surrounding whitespace and slashes are
// stripped. The empty string is the served root.
func Normalize(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// JoinPath constructs a child path from a parent path and an entry name.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Prefixes returns every path prefix of the normalized path, shortest first.
// "a/b/c" yields ["a", "a/b", "a/b/c"]; the empty path yields nil.
func Prefixes(path string) []string {
	path = Normalize(path)
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	prefixes := make([]string, 0, len(parts))
	partial := ""
	for _, part := range parts {
		partial = JoinPath(partial, part)
		prefixes = append(prefixes, partial)
	}
	return prefixes
}

// IsPathPrefix reports whether prefix is path itself or a proper ancestor of
// path, on segment boundaries. "a" is a prefix of "a/b" but not of "ab".
func IsPathPrefix(prefix, path string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// ExpandedPathSet computes the set of directory paths whose children must be
// included in one flattened listing: the root, every already-open path, and
// every prefix of the path being revealed. Inputs are normalized; the root is
// always a member (the empty string when serving from the top).
func ExpandedPathSet(rootPath string, openPaths []string, updatePath string) map[string]struct{} {
	expanded := make(map[string]struct{}, len(openPaths)+4)
	expanded[Normalize(rootPath)] = struct{}{}
	for _, p := range openPaths {
		expanded[Normalize(p)] = struct{}{}
	}
	for _, p := range Prefixes(updatePath) {
		expanded[p] = struct{}{}
	}
	return expanded
}
