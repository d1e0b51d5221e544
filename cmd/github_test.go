package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"

	"github.com/voxelio/voxel-studio/internal/config"
	"github.com/voxelio/voxel-studio/internal/models"
	"github.com/voxelio/voxel-studio/internal/remote"
	"github.com/voxelio/voxel-studio/internal/testutil"
)

// fakeBackend records requests and serves canned responses per path
type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	requests map[string][]byte
	auth     []string
	handlers map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{t: t, requests: make(map[string][]byte), handlers: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)

	viper.Set(config.KeyAPIURL, srv.URL)
	viper.Set(config.KeyAPIToken, "test-token")
	return b
}

func (b *fakeBackend) handle(path string, h http.HandlerFunc) {
	b.handlers[path] = h
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		b.t.Errorf("failed to read request body: %v", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	b.mu.Lock()
	b.requests[r.URL.Path] = body
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	h, ok := b.handlers[r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
		return
	}
	h(w, r)
}

func (b *fakeBackend) request(path string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.requests[path]
	return body, ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestGithubLinkAndPush(t *testing.T) {
	buf, dir := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/push", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, remote.PushResult{SHA: "abcdef1234567", URL: "https://github.com/alice/pack/commit/abcdef1"})
	})
	loadTestPack(t, buf, dir)

	if err := runGithubLink(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Linked to alice/pack (main)") {
		t.Errorf("unexpected link output:\n%s", buf.String())
	}

	editSet = []string{"max_level=3"}
	if err := runEdit(nil, []string{"voxel:sharpness"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	buf.Reset()
	githubMessage = "Lower sharpness"
	if err := runGithubPush(nil, nil); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Pushed to alice/pack (abcdef1)") {
		t.Errorf("unexpected push output:\n%s", buf.String())
	}

	body, ok := backend.request("/api/push")
	if !ok {
		t.Fatal("push request not sent")
	}
	var req remote.PushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("invalid push body: %v", err)
	}
	if req.Owner != "alice" || req.Repo != "pack" || req.Branch != "main" || req.Message != "Lower sharpness" {
		t.Errorf("unexpected push target: %+v", req)
	}
	if len(req.Files) != 1 || len(req.Deleted) != 0 {
		t.Fatalf("expected one changed file, got %+v", req)
	}
	content, err := base64.StdEncoding.DecodeString(req.Files[testutil.SharpnessPath])
	if err != nil {
		t.Fatalf("file content is not base64: %v", err)
	}
	if !strings.Contains(string(content), `"max_level": 3`) {
		t.Errorf("unexpected pushed content:\n%s", content)
	}
	for _, auth := range backend.auth {
		if auth != "Bearer test-token" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
	}
}

func TestGithubPushNothingToPush(t *testing.T) {
	buf, dir := setupCLI(t)
	backend := newFakeBackend(t)
	loadTestPack(t, buf, dir)

	if err := runGithubLink(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	buf.Reset()
	if err := runGithubPush(nil, nil); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing to push") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if _, ok := backend.request("/api/push"); ok {
		t.Error("an empty diff must not reach the backend")
	}
}

func TestGithubPushNotLinked(t *testing.T) {
	buf, dir := setupCLI(t)
	newFakeBackend(t)
	loadTestPack(t, buf, dir)

	editSet = []string{"max_level=3"}
	if err := runEdit(nil, []string{"voxel:sharpness"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	err := runGithubPush(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "no repository linked") {
		t.Fatalf("expected not linked error, got %v", err)
	}
}

func TestGithubPushUnauthorized(t *testing.T) {
	buf, dir := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/push", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad credentials"}`))
	})
	loadTestPack(t, buf, dir)

	if err := runGithubLink(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	editSet = []string{"max_level=3"}
	if err := runEdit(nil, []string{"voxel:sharpness"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	err := runGithubPush(nil, nil)
	if err == nil {
		t.Fatal("expected push to fail")
	}
	if !strings.Contains(err.Error(), "bad credentials") || !strings.Contains(err.Error(), "voxel github login") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGithubPullRequest(t *testing.T) {
	buf, dir := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/push/pr", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, remote.PullRequest{Number: 7, URL: "https://github.com/alice/pack/pull/7"})
	})
	loadTestPack(t, buf, dir)

	githubBranch = "dev"
	if err := runGithubLink(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	editSet = []string{"weight=1"}
	if err := runEdit(nil, []string{"voxel:sharpness"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	buf.Reset()
	githubHead = "feature/weight"
	if err := runGithubPR(nil, nil); err != nil {
		t.Fatalf("pr failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Opened pull request #7 from feature/weight") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	body, _ := backend.request("/api/push/pr")
	var req remote.PullRequestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("invalid pr body: %v", err)
	}
	if req.Branch != "feature/weight" || req.Base != "dev" {
		t.Errorf("expected feature/weight into dev, got %s into %s", req.Branch, req.Base)
	}
	if req.Title != config.DefaultCommitMessage {
		t.Errorf("expected default title, got %q", req.Title)
	}
}

func TestGithubInit(t *testing.T) {
	buf, dir := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/init", func(w http.ResponseWriter, r *http.Request) {
		var req remote.InitRequest
		json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, remote.Repository{Owner: "alice", Name: req.Name, FullName: "alice/" + req.Name, Private: req.Private, DefaultBranch: "main"})
	})
	backend.handle("/api/push", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, remote.PushResult{SHA: "1234567890"})
	})
	loadTestPack(t, buf, dir)

	githubPrivate = true
	if err := runGithubInit(nil, []string{"new-pack"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "✓ Created alice/new-pack and linked it (main)") {
		t.Errorf("unexpected output:\n%s", output)
	}
	if !strings.Contains(output, "Visibility: private") {
		t.Errorf("expected private visibility, got:\n%s", output)
	}

	body, _ := backend.request("/api/push")
	var push remote.PushRequest
	if err := json.Unmarshal(body, &push); err != nil {
		t.Fatalf("invalid push body: %v", err)
	}
	if len(push.Files) != 3 {
		t.Errorf("expected the whole datapack to be uploaded, got %d files", len(push.Files))
	}

	buf.Reset()
	githubFormat.JSON = true
	viper.Set(config.KeyAPIToken, "")
	if err := runGithubStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var status githubStatus
	if err := json.Unmarshal([]byte(buf.String()), &status); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if status.Repository != "alice/new-pack" || status.Branch != "main" {
		t.Errorf("unexpected link: %+v", status)
	}
	if status.Initializing != nil {
		t.Errorf("initialization should be finished, got stage %d", *status.Initializing)
	}
}

func TestGithubImport(t *testing.T) {
	buf, _ := setupCLI(t)
	backend := newFakeBackend(t)

	wrapped := make(models.FileMap)
	for p, data := range testutil.TwoElementPack() {
		wrapped["pack-main/"+p] = data
	}
	archive := testutil.ZipFiles(t, wrapped)
	backend.handle("/api/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("owner") != "alice" || r.URL.Query().Get("repo") != "pack" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	})

	if err := runGithubImport(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Imported alice/pack (2 elements) and linked it (main)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	statusFormat.JSON = true
	if err := runStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Name != "pack" || report.Repository != "alice/pack" {
		t.Errorf("unexpected status: %+v", report)
	}
	if len(report.Changes) != 0 {
		t.Errorf("a fresh import should have no changes, got %+v", report.Changes)
	}
}

func TestGithubImportUsesRepositoryDefaultBranch(t *testing.T) {
	buf, _ := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/repos/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []remote.Repository{
			{Owner: "alice", Name: "other", FullName: "alice/other", DefaultBranch: "dev"},
			{Owner: "alice", Name: "pack", FullName: "alice/pack", DefaultBranch: "master"},
		})
	})
	archive := testutil.ZipFiles(t, testutil.TwoElementPack())
	backend.handle("/api/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("branch") != "master" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	})

	if err := runGithubImport(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Imported alice/pack (2 elements) and linked it (master)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	statusFormat.JSON = true
	if err := runStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Branch != "master" {
		t.Errorf("expected the link to follow the repository default branch, got %q", report.Branch)
	}
}

func TestGithubRepos(t *testing.T) {
	buf, _ := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/repos/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []remote.Repository{
			{Owner: "alice", Name: "pack", FullName: "alice/pack", DefaultBranch: "main"},
			{Owner: "alice", Name: "secret", FullName: "alice/secret", Private: true, DefaultBranch: "dev"},
		})
	})

	if err := runGithubRepos(nil, nil); err != nil {
		t.Fatalf("repos failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"alice/pack", "alice/secret", "private", "public"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestGithubLinkFromGit(t *testing.T) {
	buf, dir := setupCLI(t)
	loadTestPack(t, buf, dir)

	repo := testutil.NewTempGitRepo(t)
	repo.AddRemote("origin", "git@github.com:alice/pack.git")

	githubFromGit = repo.Path
	if err := runGithubLink(nil, nil); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Linked to alice/pack (main)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestGithubUnlink(t *testing.T) {
	buf, dir := setupCLI(t)
	loadTestPack(t, buf, dir)

	if err := runGithubLink(nil, []string{"alice/pack"}); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if err := runGithubUnlink(nil, nil); err != nil {
		t.Fatalf("unlink failed: %v", err)
	}

	buf.Reset()
	if err := runStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if strings.Contains(buf.String(), "Linked:") {
		t.Errorf("expected no linked repository, got:\n%s", buf.String())
	}
}

func TestSplitRepository(t *testing.T) {
	tests := []struct {
		in      string
		owner   string
		repo    string
		wantErr bool
	}{
		{in: "alice/pack", owner: "alice", repo: "pack"},
		{in: "alice", wantErr: true},
		{in: "/pack", wantErr: true},
		{in: "alice/", wantErr: true},
		{in: "alice/pack/extra", wantErr: true},
	}

	for _, tt := range tests {
		owner, repo, err := splitRepository(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitRepository(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || owner != tt.owner || repo != tt.repo {
			t.Errorf("splitRepository(%q) = %q, %q, %v", tt.in, owner, repo, err)
		}
	}
}

func TestGithubStatus(t *testing.T) {
	buf, _ := setupCLI(t)
	backend := newFakeBackend(t)
	backend.handle("/api/session", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, remote.SessionInfo{Authenticated: true, User: &remote.User{Login: "alice", ID: 1}})
	})

	if err := runGithubStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Signed in as alice") {
		t.Errorf("expected signed in user, got:\n%s", output)
	}
	if !strings.Contains(output, "No repository linked") {
		t.Errorf("expected no link, got:\n%s", output)
	}
}

func TestGithubStatusUnreachable(t *testing.T) {
	buf, _ := setupCLI(t)

	if err := runGithubStatus(nil, nil); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(buf.String(), "is unreachable") {
		t.Errorf("expected unreachable backend, got:\n%s", buf.String())
	}
}
