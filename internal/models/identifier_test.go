package models

import "testing"

func TestIdentifierKeyRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   Identifier
	}{
		{
			name: "simple registry",
			id:   Identifier{Namespace: "minecraft", Registry: "enchantment", Resource: "sharpness"},
		},
		{
			name: "nested registry",
			id:   Identifier{Namespace: "voxel", Registry: "tags/item", Resource: "swords"},
		},
		{
			name: "nested resource",
			id:   Identifier{Namespace: "voxel", Registry: "loot_table", Resource: "chests/village/armorer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseKey(tt.id.Key())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed != tt.id {
				t.Errorf("expected %+v, got %+v", tt.id, parsed)
			}
		})
	}
}

func TestParseKeyInvalid(t *testing.T) {
	for _, key := range []string{"", "sharpness", "minecraft:sharpness", "/minecraft:x", "enchantment/:x", "enchantment/minecraft:"} {
		if _, err := ParseKey(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   Identifier
		wantOK bool
	}{
		{
			path:   "data/minecraft/enchantment/sharpness.json",
			want:   Identifier{Namespace: "minecraft", Registry: "enchantment", Resource: "sharpness"},
			wantOK: true,
		},
		{
			path:   "data/voxel/tags/enchantment/exclusive_set/sword.json",
			want:   Identifier{Namespace: "voxel", Registry: "tags/enchantment", Resource: "exclusive_set/sword"},
			wantOK: true,
		},
		{
			path:   "data/voxel/worldgen/biome/plains.json",
			want:   Identifier{Namespace: "voxel", Registry: "worldgen/biome", Resource: "plains"},
			wantOK: true,
		},
		{
			path:   "data\\voxel\\recipe\\stick.json",
			want:   Identifier{Namespace: "voxel", Registry: "recipe", Resource: "stick"},
			wantOK: true,
		},
		{path: "pack.mcmeta", wantOK: false},
		{path: "data/voxel/structure/house.nbt", wantOK: false},
		{path: "data/voxel/tags/item.json", wantOK: false},
		{path: "assets/voxel/models/item/x.json", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FromPath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if ok && NormalizePath(tt.path) != got.FilePath() {
				t.Errorf("expected file path %s, got %s", NormalizePath(tt.path), got.FilePath())
			}
		})
	}
}

func TestFileMapEqual(t *testing.T) {
	a := FileMap{"a.json": []byte("{}"), "b.bin": {0xff}}
	b := a.Clone()
	if !a.Equal(b) {
		t.Error("expected clone to be equal")
	}
	b["a.json"] = []byte("{ }")
	if a.Equal(b) {
		t.Error("expected maps with different bytes to differ")
	}
	if got := a.Paths(); len(got) != 2 || got[0] != "a.json" {
		t.Errorf("unexpected sorted paths: %v", got)
	}
}
