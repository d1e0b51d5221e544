package models

// DiffStatus describes how a path changed between two file maps
type DiffStatus string

const (
	StatusAdded     DiffStatus = "added"
	StatusRemoved   DiffStatus = "removed"
	StatusModified  DiffStatus = "modified"
	StatusUnchanged DiffStatus = "unchanged"
)

// DiffEntry pairs a path with its status
type DiffEntry struct {
	Path   string     `json:"path" yaml:"path"`
	Status DiffStatus `json:"status" yaml:"status"`
}
