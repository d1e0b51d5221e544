// Package patch renders unified diffs for changed datapack files
package patch

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// DevNull names the missing side of an added or removed file
const DevNull = "/dev/null"

// Options controls patch generation
type Options struct {
	// Context is the number of context lines around each hunk, 3 when zero
	Context int
	// MaxBytes omits the body when old+new exceed it; 0 means no limit
	MaxBytes int
}

// Unified returns a unified diff from old to new for path. A nil old means
// the file was added; a nil new means it was removed.
func Unified(path string, old, new []byte, opts Options) string {
	from, to := "a/"+path, "b/"+path
	if old == nil {
		from = DevNull
	}
	if new == nil {
		to = DevNull
	}

	if isBinary(old) || isBinary(new) {
		return fmt.Sprintf("Binary files %s and %s differ\n", from, to)
	}
	if opts.MaxBytes > 0 && len(old)+len(new) > opts.MaxBytes {
		return fmt.Sprintf("--- %s\n+++ %s\n@@\n# diff omitted (%d bytes)\n", from, to, len(old)+len(new))
	}

	context := opts.Context
	if context <= 0 {
		context = 3
	}

	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(old),
		B:        splitLines(new),
		FromFile: from,
		ToFile:   to,
		Context:  context,
	})
	if err != nil {
		return fmt.Sprintf("--- %s\n+++ %s\n# %v\n", from, to, err)
	}
	return s
}

// splitLines keeps line terminators. A missing final newline is added so
// hunks never run two lines together.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}
