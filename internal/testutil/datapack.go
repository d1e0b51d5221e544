package testutil

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/spf13/afero"

	"github.com/voxelio/voxel-studio/internal/models"
)

const (
	// PackMeta is a minimal pack.mcmeta for pack format 48
	PackMeta = `{"pack":{"pack_format":48,"description":"Voxel test pack"}}` + "\n"

	// SharpnessPath and SharpnessJSON describe an enchantment element
	SharpnessPath = "data/voxel/enchantment/sharpness.json"
	SharpnessJSON = `{
  "description": "Sharpness",
  "max_level": 5,
  "weight": 10,
  "supported_items": "#minecraft:enchantable/sharp_weapon"
}
`

	// LootPath and LootJSON describe a loot table element
	LootPath = "data/voxel/loot_table/chests/armory.json"
	LootJSON = `{
  "type": "minecraft:chest",
  "pools": []
}
`
)

// TwoElementPack returns a datapack with pack.mcmeta and two elements
func TwoElementPack() models.FileMap {
	return models.FileMap{
		"pack.mcmeta": []byte(PackMeta),
		SharpnessPath: []byte(SharpnessJSON),
		LootPath:      []byte(LootJSON),
	}
}

// ZipFiles builds an in-memory zip archive
func ZipFiles(t *testing.T, files models.FileMap) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range files.Paths() {
		w, err := zw.Create(p)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", p, err)
		}
		if _, err := w.Write(files[p]); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes files as a zip archive at path on fs
func WriteZip(t *testing.T, fs afero.Fs, path string, files models.FileMap) {
	t.Helper()
	if err := afero.WriteFile(fs, path, ZipFiles(t, files), 0o644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
}
