// Package export moves the working copy out of the studio: as a zip
// archive, or to GitHub through the backend.
package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/models"
	"github.com/voxelio/voxel-studio/internal/remote"
	"github.com/voxelio/voxel-studio/internal/store"
)

var (
	// ErrNotLinked is returned when pushing without a linked repository
	ErrNotLinked = errors.New("no repository linked")
	// ErrNothingToPush is returned when the diff is empty
	ErrNothingToPush = errors.New("nothing to push")
)

// Repository initialization stages reported through Export.SetInitializing
const (
	StageCreate = 1
	StageUpload = 2
	StageLink   = 3
)

// API is the subset of the backend client used by the export flows
type API interface {
	InitRepository(ctx context.Context, req remote.InitRequest) (*remote.Repository, error)
	Push(ctx context.Context, req remote.PushRequest) (*remote.PushResult, error)
	CreatePullRequest(ctx context.Context, req remote.PullRequestRequest) (*remote.PullRequest, error)
	Download(ctx context.Context, owner, repo, branch string) ([]byte, error)
}

// Archive compiles the working copy and writes it as a zip archive
func Archive(cfg *store.Configurator, w io.Writer) error {
	files, err := cfg.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile datapack: %w", err)
	}
	return datapack.WriteArchive(w, files)
}

// BuildPush turns a diff into a push request body. Owner, repository and
// branch are left for the caller.
func BuildPush(diff *store.Diff, message string) remote.PushRequest {
	req := remote.PushRequest{
		Message: message,
		Files:   make(map[string]string),
		Deleted: []string{},
	}
	for _, entry := range diff.Sorted() {
		switch entry.Status {
		case models.StatusAdded, models.StatusModified:
			req.Files[entry.Path] = base64.StdEncoding.EncodeToString(diff.Compiled[entry.Path])
		case models.StatusRemoved:
			req.Deleted = append(req.Deleted, entry.Path)
		}
	}
	return req
}

// Push commits the current diff to the linked repository
func Push(ctx context.Context, api API, exp *store.Export, changes *store.Changes, message string) (*remote.PushResult, error) {
	req, diff, err := linkedPush(exp, changes, message)
	if err != nil {
		return nil, err
	}

	res, err := api.Push(ctx, req)
	if err != nil {
		return nil, err
	}
	rebase(ctx, changes, diff)

	zerolog.Ctx(ctx).Info().Str("repository", req.Owner+"/"+req.Repo).Str("sha", res.SHA).Int("files", len(req.Files)).Int("deleted", len(req.Deleted)).Msg("pushed changes")
	return res, nil
}

// OpenPullRequest pushes the current diff to head and opens a pull request
// against base. An empty base targets the linked branch.
func OpenPullRequest(ctx context.Context, api API, exp *store.Export, changes *store.Changes, head, base, title, body string) (*remote.PullRequest, error) {
	req, _, err := linkedPush(exp, changes, title)
	if err != nil {
		return nil, err
	}
	if base == "" {
		base = req.Branch
	}
	req.Branch = head

	pr, err := api.CreatePullRequest(ctx, remote.PullRequestRequest{
		PushRequest: req,
		Base:        base,
		Title:       title,
		Body:        body,
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Int("number", pr.Number).Str("url", pr.URL).Msg("opened pull request")
	return pr, nil
}

func linkedPush(exp *store.Export, changes *store.Changes, message string) (remote.PushRequest, *store.Diff, error) {
	state := exp.State()
	if !state.IsGitRepository {
		return remote.PushRequest{}, nil, ErrNotLinked
	}

	diff, err := changes.Compile()
	if err != nil {
		return remote.PushRequest{}, nil, fmt.Errorf("failed to compile datapack: %w", err)
	}
	if diff.Empty() {
		return remote.PushRequest{}, nil, ErrNothingToPush
	}

	req := BuildPush(diff, message)
	req.Owner = state.Owner
	req.Repo = state.RepositoryName
	req.Branch = state.Branch
	return req, diff, nil
}

// rebase moves the baseline to what the linked branch now holds. The push
// already succeeded, so a failure only costs a redundant upload next time.
func rebase(ctx context.Context, changes *store.Changes, diff *store.Diff) {
	if err := changes.Rebase(ctx, diff); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("pushed, but the local baseline was not updated")
	}
}

// InitOptions describes a repository to create
type InitOptions struct {
	Owner       string
	Name        string
	Description string
	Private     bool
	Branch      string
	Message     string
}

// Initialize creates a repository, uploads the compiled datapack and links
// it. Progress is reported through the export store and cleared when done.
func Initialize(ctx context.Context, api API, exp *store.Export, cfg *store.Configurator, opts InitOptions) (*remote.Repository, error) {
	logger := zerolog.Ctx(ctx)
	defer exp.SetInitializing(ctx, nil)

	version := cfg.Version()
	files, err := cfg.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile datapack: %w", err)
	}

	setStage(ctx, exp, StageCreate)
	repo, err := api.InitRepository(ctx, remote.InitRequest{
		Owner:       opts.Owner,
		Name:        opts.Name,
		Description: opts.Description,
		Private:     opts.Private,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("repository", repo.FullName).Msg("repository created")

	owner := repo.Owner
	if owner == "" {
		owner = opts.Owner
	}
	branch := opts.Branch
	if branch == "" {
		branch = repo.DefaultBranch
	}
	if branch == "" {
		branch = "main"
	}

	setStage(ctx, exp, StageUpload)
	req := remote.PushRequest{
		Owner:   owner,
		Repo:    repo.Name,
		Branch:  branch,
		Message: opts.Message,
		Files:   make(map[string]string, len(files)),
		Deleted: []string{},
	}
	for _, p := range files.Paths() {
		req.Files[p] = base64.StdEncoding.EncodeToString(files[p])
	}
	if _, err := api.Push(ctx, req); err != nil {
		return nil, err
	}
	// the new repository holds exactly files
	if err := cfg.Rebase(ctx, files, version); err != nil {
		logger.Warn().Err(err).Msg("uploaded, but the local baseline was not updated")
	}

	setStage(ctx, exp, StageLink)
	exp.SetGitRepository(ctx, owner, repo.Name, branch, exp.Token())

	logger.Info().Str("repository", owner+"/"+repo.Name).Int("files", len(files)).Msg("repository initialized")
	return repo, nil
}

func setStage(ctx context.Context, exp *store.Export, stage int) {
	exp.SetInitializing(ctx, &stage)
}

// Import downloads a repository branch and parses it
func Import(ctx context.Context, api API, analyser datapack.Analyser, owner, repo, branch string) (*datapack.ParseResult, error) {
	data, err := api.Download(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}

	files, err := datapack.ReadArchive(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	files = stripRoot(files)

	result, err := analyser.Parse(ctx, repo, files)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s/%s: %w", owner, repo, err)
	}
	return result, nil
}

// stripRoot removes the single top-level directory GitHub archives wrap
// their content in
func stripRoot(files models.FileMap) models.FileMap {
	if _, ok := files["pack.mcmeta"]; ok {
		return files
	}

	prefix := ""
	for p := range files {
		dir, _, found := strings.Cut(p, "/")
		if !found || (prefix != "" && dir != prefix) {
			return files
		}
		prefix = dir
	}
	if prefix == "" {
		return files
	}

	out := make(models.FileMap, len(files))
	for p, data := range files {
		out[strings.TrimPrefix(p, prefix+"/")] = data
	}
	return out
}
