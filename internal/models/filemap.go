package models

import (
	"bytes"
	"path"
	"sort"
	"strings"
)

// FileMap maps normalized datapack paths to file contents
type FileMap map[string][]byte

// NormalizePath converts a path to the slash-separated relative form used as
// FileMap key
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Clone returns a copy of the map. Contents are shared: they are never
// mutated in place.
func (m FileMap) Clone() FileMap {
	out := make(FileMap, len(m))
	for p, data := range m {
		out[p] = data
	}
	return out
}

// Paths returns all paths in sorted order
func (m FileMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Equal reports whether both maps hold the same paths with identical bytes
func (m FileMap) Equal(other FileMap) bool {
	if len(m) != len(other) {
		return false
	}
	for p, data := range m {
		o, ok := other[p]
		if !ok || !bytes.Equal(data, o) {
			return false
		}
	}
	return true
}

// Size returns the total number of bytes
func (m FileMap) Size() int {
	total := 0
	for _, data := range m {
		total += len(data)
	}
	return total
}
