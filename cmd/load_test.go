package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/voxelio/voxel-studio/internal/testutil"
)

func TestLoadCommand(t *testing.T) {
	buf, dir := setupCLI(t)

	path := filepath.Join(dir, "my-pack.zip")
	testutil.WriteZip(t, afero.NewOsFs(), path, testutil.TwoElementPack())

	if err := runLoad(nil, []string{path}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"✓ Loaded my-pack", "Files:    3", "Elements: 2", "Format:   48"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestLoadCommandDirectory(t *testing.T) {
	buf, dir := setupCLI(t)

	packDir := filepath.Join(dir, "unpacked")
	fs := afero.NewOsFs()
	for p, data := range testutil.TwoElementPack() {
		target := filepath.Join(packDir, filepath.FromSlash(p))
		if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, target, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := runLoad(nil, []string{packDir}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Loaded unpacked") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestLoadCommandRejectsUnknownExtension(t *testing.T) {
	_, dir := setupCLI(t)

	path := filepath.Join(dir, "pack.txt")
	if err := afero.WriteFile(afero.NewOsFs(), path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runLoad(nil, []string{path})
	if err == nil || !strings.Contains(err.Error(), "unsupported extension") {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
}

func TestCommandsRequireLoadedDatapack(t *testing.T) {
	setupCLI(t)

	err := runStatus(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "no datapack loaded") {
		t.Fatalf("expected no datapack error, got %v", err)
	}
}

func TestStatusCommand(t *testing.T) {
	buf, dir := setupCLI(t)
	loadTestPack(t, buf, dir)

	if err := runStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Datapack: pack") {
		t.Errorf("expected datapack name, got:\n%s", output)
	}
	if !strings.Contains(output, "Editing:  (overview)") {
		t.Errorf("expected overview, got:\n%s", output)
	}
	if !strings.Contains(output, "No changes") {
		t.Errorf("expected no changes, got:\n%s", output)
	}
}

func TestListCommandJSON(t *testing.T) {
	buf, dir := setupCLI(t)
	loadTestPack(t, buf, dir)

	listFormat.JSON = true
	if err := runList(nil, nil); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var registries []registrySummary
	if err := json.Unmarshal(buf.Bytes(), &registries); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if len(registries) != 2 {
		t.Fatalf("expected 2 registries, got %+v", registries)
	}

	buf.Reset()
	if err := runList(nil, []string{"enchantment"}); err != nil {
		t.Fatalf("list registry failed: %v", err)
	}
	var elements []elementSummary
	if err := json.Unmarshal(buf.Bytes(), &elements); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if len(elements) != 1 || elements[0].Key != "enchantment/voxel:sharpness" {
		t.Fatalf("unexpected elements: %+v", elements)
	}
	if elements[0].Status != "unchanged" {
		t.Errorf("expected unchanged status, got %s", elements[0].Status)
	}
}
