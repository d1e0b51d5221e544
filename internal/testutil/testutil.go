package testutil

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// TempGitRepo is a temporary git checkout used by tests that probe local
// repositories
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo initializes a repository on branch main with one commit
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	repo := &TempGitRepo{Path: t.TempDir(), T: t}

	repo.Run("init", "-q")
	repo.Run("checkout", "-q", "-b", "main")
	repo.Run("config", "user.name", "Test User")
	repo.Run("config", "user.email", "test@example.com")

	repo.CreateFile("pack.mcmeta", `{"pack":{"pack_format":48,"description":"test"}}`)
	repo.Commit("Initial commit")

	return repo
}

// Run executes a git command inside the repository and returns its output
func (r *TempGitRepo) Run(args ...string) string {
	r.T.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.T.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}

// CreateFile writes a file relative to the repository root
func (r *TempGitRepo) CreateFile(name, content string) {
	r.T.Helper()

	fs := afero.NewOsFs()
	path := filepath.Join(r.Path, filepath.FromSlash(name))
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
}

// Commit stages and commits all changes
func (r *TempGitRepo) Commit(message string) {
	r.T.Helper()
	r.Run("add", ".")
	r.Run("commit", "-q", "-m", message)
}

// AddRemote registers a remote URL
func (r *TempGitRepo) AddRemote(name, url string) {
	r.T.Helper()
	r.Run("remote", "add", name, url)
}
