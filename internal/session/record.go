// Package session persists the working copy between runs. The record keeps
// the original datapack files plus the change log; the edited state is
// rebuilt by replaying the log.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voxelio/voxel-studio/internal/models"
)

// Record is the persisted wire form. Byte buffers are base64 strings.
type Record struct {
	Files           map[string]string `json:"files"`
	LoggerFiles     map[string]string `json:"loggerFiles"`
	Name            string            `json:"name"`
	Version         *int              `json:"version"`
	IsModded        bool              `json:"isModded"`
	IsGitRepository bool              `json:"isGitRepository"`
	Owner           string            `json:"owner"`
	RepositoryName  string            `json:"repositoryName"`
	Branch          string            `json:"branch"`
	IsInitializing  *int              `json:"isInitializing"`
	Timestamp       string            `json:"timestamp"`
}

// State is the decoded session
type State struct {
	Files       models.FileMap
	LoggerFiles models.FileMap
	Name        string
	Version     *int
	IsModded    bool
	Export      models.ExportState
	Timestamp   time.Time
}

// Encode serializes a session state
func Encode(s State) ([]byte, error) {
	data, err := json.Marshal(toRecord(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

// Decode parses a serialized session
func Decode(data []byte) (State, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return State{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return fromRecord(rec)
}

func toRecord(s State) Record {
	return Record{
		Files:           encodeFiles(s.Files),
		LoggerFiles:     encodeFiles(s.LoggerFiles),
		Name:            s.Name,
		Version:         s.Version,
		IsModded:        s.IsModded,
		IsGitRepository: s.Export.IsGitRepository,
		Owner:           s.Export.Owner,
		RepositoryName:  s.Export.RepositoryName,
		Branch:          s.Export.Branch,
		IsInitializing:  s.Export.IsInitializing,
		Timestamp:       s.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func fromRecord(rec Record) (State, error) {
	files, err := decodeFiles(rec.Files)
	if err != nil {
		return State{}, err
	}
	loggerFiles, err := decodeFiles(rec.LoggerFiles)
	if err != nil {
		return State{}, err
	}

	var ts time.Time
	if rec.Timestamp != "" {
		ts, err = time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			return State{}, fmt.Errorf("failed to parse session timestamp: %w", err)
		}
	}

	return State{
		Files:       files,
		LoggerFiles: loggerFiles,
		Name:        rec.Name,
		Version:     rec.Version,
		IsModded:    rec.IsModded,
		Export: models.ExportState{
			IsGitRepository: rec.IsGitRepository,
			Owner:           rec.Owner,
			RepositoryName:  rec.RepositoryName,
			Branch:          rec.Branch,
			IsInitializing:  rec.IsInitializing,
		},
		Timestamp: ts,
	}, nil
}

func encodeFiles(files models.FileMap) map[string]string {
	out := make(map[string]string, len(files))
	for p, data := range files {
		out[p] = base64.StdEncoding.EncodeToString(data)
	}
	return out
}

func decodeFiles(files map[string]string) (models.FileMap, error) {
	out := make(models.FileMap, len(files))
	for p, s := range files {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("failed to decode session file %s: %w", p, err)
		}
		out[p] = data
	}
	return out, nil
}
