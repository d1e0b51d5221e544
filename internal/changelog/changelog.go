// Package changelog keeps the append-only record of edits made to a loaded
// datapack. Records are persisted as individual JSON file entries so a
// session can rebuild the edited state by replaying them.
package changelog

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/models"
)

// Dir is the directory prefix of persisted record entries
const Dir = "changes"

// Record is one applied edit
type Record struct {
	ID         string            `json:"id"`
	Sequence   int               `json:"sequence"`
	Identifier models.Identifier `json:"identifier"`
	Action     datapack.Action   `json:"action"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Logger is an append-only, ordered change log
type Logger struct {
	mu      sync.RWMutex
	records []Record
	version uint64
	now     func() time.Time
}

// New creates an empty change log
func New() *Logger {
	return &Logger{now: time.Now}
}

// Append records an action against an element and advances the version
func (l *Logger) Append(id models.Identifier, action datapack.Action) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := Record{
		ID:         uuid.NewString(),
		Sequence:   len(l.records) + 1,
		Identifier: id,
		Action:     action,
		Timestamp:  l.now().UTC(),
	}
	l.records = append(l.records, rec)
	l.version++
	return rec
}

// Records returns a copy of all records in order
func (l *Logger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records
func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Version returns the monotonic version; it advances on every append
func (l *Logger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Touched returns the distinct identifiers edited, in first-edit order
func (l *Logger) Touched() []models.Identifier {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[models.Identifier]bool)
	var out []models.Identifier
	for _, rec := range l.records {
		if !seen[rec.Identifier] {
			seen[rec.Identifier] = true
			out = append(out, rec.Identifier)
		}
	}
	return out
}

// Files renders every record as a named JSON file entry
// Format: changes/<sequence>-<id>.json
func (l *Logger) Files() (models.FileMap, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	files := make(models.FileMap, len(l.records))
	for _, rec := range l.records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode change %s: %w", rec.ID, err)
		}
		files[fileName(rec)] = data
	}
	return files, nil
}

// FromFiles rebuilds a change log from entries produced by Files
func FromFiles(files models.FileMap) (*Logger, error) {
	l := New()

	for p, data := range files {
		if !strings.HasPrefix(p, Dir+"/") || path.Ext(p) != ".json" {
			return nil, fmt.Errorf("unexpected change log entry: %s", p)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode change log entry %s: %w", p, err)
		}
		if err := rec.Action.Validate(); err != nil {
			return nil, fmt.Errorf("invalid change log entry %s: %w", p, err)
		}
		l.records = append(l.records, rec)
	}

	sort.Slice(l.records, func(i, j int) bool {
		return l.records[i].Sequence < l.records[j].Sequence
	})
	for i, rec := range l.records {
		if rec.Sequence != i+1 {
			return nil, fmt.Errorf("change log has a gap at sequence %d", i+1)
		}
	}
	l.version = uint64(len(l.records))

	return l, nil
}

func fileName(rec Record) string {
	return fmt.Sprintf("%s/%06d-%s.json", Dir, rec.Sequence, rec.ID)
}
