package store

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/voxelio/voxel-studio/internal/models"
)

// Diff is a file-level comparison of the original and compiled datapack
type Diff struct {
	Entries  map[string]models.DiffStatus
	Original models.FileMap
	Compiled models.FileMap
	Version  uint64
}

// Compare computes the status of every path present in either map.
// Unchanged paths are omitted.
func Compare(original, compiled models.FileMap) map[string]models.DiffStatus {
	entries := make(map[string]models.DiffStatus)
	for p, data := range compiled {
		prev, ok := original[p]
		switch {
		case !ok:
			entries[p] = models.StatusAdded
		case !bytes.Equal(prev, data):
			entries[p] = models.StatusModified
		}
	}
	for p := range original {
		if _, ok := compiled[p]; !ok {
			entries[p] = models.StatusRemoved
		}
	}
	return entries
}

// Status returns the status of a path, unchanged when not listed
func (d *Diff) Status(path string) models.DiffStatus {
	if d == nil {
		return models.StatusUnchanged
	}
	if s, ok := d.Entries[models.NormalizePath(path)]; ok {
		return s
	}
	return models.StatusUnchanged
}

// Sorted returns the changed entries ordered by path
func (d *Diff) Sorted() []models.DiffEntry {
	if d == nil {
		return nil
	}
	out := make([]models.DiffEntry, 0, len(d.Entries))
	for p, s := range d.Entries {
		out = append(out, models.DiffEntry{Path: p, Status: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Count returns the number of entries with the given status
func (d *Diff) Count(status models.DiffStatus) int {
	if d == nil {
		return 0
	}
	n := 0
	for _, s := range d.Entries {
		if s == status {
			n++
		}
	}
	return n
}

// Empty reports whether nothing changed
func (d *Diff) Empty() bool {
	return d == nil || len(d.Entries) == 0
}

// Changes derives the diff from the configurator, memoized by version
type Changes struct {
	Observable

	mu   sync.Mutex
	cfg  *Configurator
	diff *Diff
}

// NewChanges creates a changes store reading from cfg
func NewChanges(cfg *Configurator) *Changes {
	return &Changes{cfg: cfg}
}

// Compile returns the diff for the current configurator version. Repeated
// calls without an intervening mutation return the same pointer.
func (c *Changes) Compile() (*Diff, error) {
	c.mu.Lock()

	if c.diff != nil && c.diff.Version == c.cfg.Version() {
		d := c.diff
		c.mu.Unlock()
		return d, nil
	}

	original, compiled, version, err := c.cfg.compileVersioned()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if original == nil {
		original = models.FileMap{}
	}

	d := &Diff{
		Entries:  Compare(original, compiled),
		Original: original,
		Compiled: compiled,
		Version:  version,
	}
	c.diff = d
	c.mu.Unlock()

	c.notify()
	return d, nil
}

// Diff returns the last computed diff, nil before the first Compile
func (c *Changes) Diff() *Diff {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diff
}

// Reset drops the memoized diff
func (c *Changes) Reset() {
	c.mu.Lock()
	c.diff = nil
	c.mu.Unlock()

	c.notify()
}

// Rebase makes the compiled side of d the new original, so later diffs only
// show what changed after d. It fails with ErrStaleBaseline when the
// configurator moved past d.
func (c *Changes) Rebase(ctx context.Context, d *Diff) error {
	return c.cfg.Rebase(ctx, d.Compiled, d.Version)
}
