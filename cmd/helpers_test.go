package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/voxelio/voxel-studio/internal/config"
	"github.com/voxelio/voxel-studio/internal/testutil"
)

// setupCLI points the session at a temp dir and captures command output
func setupCLI(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()
	viper.Reset()
	config.SetDefaults(viper.GetViper(), "http://127.0.0.1:1")
	viper.Set(config.KeySessionDir, filepath.Join(dir, "session"))
	resetFlags()

	buf := &bytes.Buffer{}
	oldOut := out
	out = buf

	t.Cleanup(func() {
		out = oldOut
		viper.Reset()
		resetFlags()
	})
	return buf, dir
}

// loadTestPack writes the two element test pack as pack.zip and loads it
func loadTestPack(t *testing.T, buf *bytes.Buffer, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "pack.zip")
	testutil.WriteZip(t, afero.NewOsFs(), path, testutil.TwoElementPack())
	if err := runLoad(nil, []string{path}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	buf.Reset()
	return path
}

func resetFlags() {
	cfgFile = ""
	initForce = false
	loadLink, loadRemote = false, "origin"
	editSet, editUnset, editAppend, editToggle = nil, nil, nil, nil
	createOpen = false
	compileOutput = ""
	diffPatch, diffContext, diffMaxBytes = false, 3, 1<<20

	statusFormat = outputFormat{}
	listFormat = outputFormat{}
	tabsFormat = outputFormat{}
	diffFormat = outputFormat{}
	sessionFormat = outputFormat{}
	githubFormat = outputFormat{}

	githubBranch, githubFromGit, githubRemote = "", "", "origin"
	githubMessage, githubHead, githubBase, githubTitle, githubBody = "", "", "", "", ""
	githubPrivate, githubDesc, githubCode, githubState = false, "", "", ""
}
