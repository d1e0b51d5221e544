package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/voxelio/voxel-studio/internal/config"
)

func TestInitCommand(t *testing.T) {
	buf, dir := setupCLI(t)

	cfgFile = filepath.Join(dir, "voxel", "config.toml")
	viper.Set(config.KeyAPIToken, "secret")
	viper.Set(config.KeyDefaultBranch, "dev")

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Created config: "+cfgFile) {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	fs := afero.NewOsFs()
	data, err := afero.ReadFile(fs, cfgFile)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	var settings config.Settings
	if _, err := toml.Decode(string(data), &settings); err != nil {
		t.Fatalf("config file is not valid TOML: %v", err)
	}
	if settings.Export.DefaultBranch != "dev" {
		t.Errorf("expected default branch dev, got %q", settings.Export.DefaultBranch)
	}
	if settings.API.Token != "" {
		t.Error("the API token must not be written to disk")
	}

	if exists, _ := afero.DirExists(fs, config.GetSessionDir()); !exists {
		t.Error("session directory was not created")
	}
}

func TestInitCommandKeepsExistingConfig(t *testing.T) {
	buf, dir := setupCLI(t)

	cfgFile = filepath.Join(dir, "config.toml")
	fs := afero.NewOsFs()
	if err := afero.WriteFile(fs, cfgFile, []byte("# mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Config already exists") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	data, _ := afero.ReadFile(fs, cfgFile)
	if string(data) != "# mine\n" {
		t.Error("existing config was overwritten")
	}

	buf.Reset()
	initForce = true
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	data, _ = afero.ReadFile(fs, cfgFile)
	if !strings.Contains(string(data), "default_branch") {
		t.Errorf("expected config to be rewritten, got:\n%s", data)
	}
}
