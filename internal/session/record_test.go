package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelio/voxel-studio/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	version := 48
	stage := 2
	state := State{
		Files: models.FileMap{
			"pack.mcmeta":                      []byte(`{"pack":{"pack_format":48}}`),
			"data/voxel/empty.json":            {},
			"assets/voxel/textures/icon.png":   {0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe, 0x00},
			"data/voxel/lang/日本語/ünïcødé.json": []byte(`{"name":"剣"}`),
		},
		LoggerFiles: models.FileMap{
			"changes/000001-0b6c3a1e-4e2a-4c4f-9d8f-1a2b3c4d5e6f.json": []byte(`{}`),
		},
		Name:     "voxel.zip",
		Version:  &version,
		IsModded: true,
		Export: models.ExportState{
			IsGitRepository: true,
			Owner:           "alice",
			RepositoryName:  "repo",
			Branch:          "main",
			IsInitializing:  &stage,
		},
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC),
	}

	data, err := Encode(state)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.True(t, state.Files.Equal(got.Files))
	assert.True(t, state.LoggerFiles.Equal(got.LoggerFiles))
	assert.Empty(t, got.Files["data/voxel/empty.json"])
	assert.Equal(t, state.Export, got.Export)
	assert.Equal(t, state.Name, got.Name)
	assert.Equal(t, state.Version, got.Version)
	assert.Equal(t, state.IsModded, got.IsModded)
	assert.True(t, state.Timestamp.Equal(got.Timestamp))
}

func TestEncodeUsesWireFieldNames(t *testing.T) {
	data, err := Encode(State{Files: models.FileMap{"a": []byte("hi")}})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"files", "loggerFiles", "name", "version", "isModded", "isGitRepository", "owner", "repositoryName", "branch", "isInitializing", "timestamp"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["version"])
	assert.Equal(t, "aGk=", raw["files"].(map[string]any)["a"])
}

func TestDecodeRejectsCorruptData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "bad base64", data: `{"files":{"a":"***"}}`},
		{name: "bad timestamp", data: `{"timestamp":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
