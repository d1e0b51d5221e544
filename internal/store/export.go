package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voxelio/voxel-studio/internal/models"
)

// ExportPersister saves the export slice of the session
type ExportPersister interface {
	UpdateExport(ctx context.Context, state models.ExportState) error
}

// Export holds the link between the working copy and a GitHub repository.
// The token lives in memory only.
type Export struct {
	Observable

	mu        sync.RWMutex
	state     models.ExportState
	token     string
	persister ExportPersister
	logger    zerolog.Logger
}

// NewExport creates an unlinked export store. persister may be nil.
func NewExport(persister ExportPersister, logger zerolog.Logger) *Export {
	return &Export{persister: persister, logger: logger}
}

// SetGitRepository links the working copy to owner/repo on branch
func (e *Export) SetGitRepository(ctx context.Context, owner, repo, branch, token string) {
	e.mu.Lock()
	e.state.IsGitRepository = true
	e.state.Owner = owner
	e.state.RepositoryName = repo
	e.state.Branch = branch
	e.token = token
	state := e.snapshot()
	e.mu.Unlock()

	e.persist(ctx, state)
	e.notify()
}

// ClearGitRepository unlinks the repository and forgets the token
func (e *Export) ClearGitRepository(ctx context.Context) {
	e.mu.Lock()
	e.state = models.ExportState{}
	e.token = ""
	e.mu.Unlock()

	e.persist(ctx, models.ExportState{})
	e.notify()
}

// SetInitializing records the repository initialization stage, nil when idle
func (e *Export) SetInitializing(ctx context.Context, stage *int) {
	e.mu.Lock()
	e.state.IsInitializing = copyInt(stage)
	state := e.snapshot()
	e.mu.Unlock()

	e.persist(ctx, state)
	e.notify()
}

// Load restores persisted state without writing it back
func (e *Export) Load(state models.ExportState) {
	e.mu.Lock()
	e.state = state
	e.state.IsInitializing = copyInt(state.IsInitializing)
	e.mu.Unlock()

	e.notify()
}

// State returns a copy of the export state
func (e *Export) State() models.ExportState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot()
}

// Token returns the in-memory access token
func (e *Export) Token() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.token
}

// SetToken replaces the access token without touching the link
func (e *Export) SetToken(token string) {
	e.mu.Lock()
	e.token = token
	e.mu.Unlock()
}

func (e *Export) snapshot() models.ExportState {
	s := e.state
	s.IsInitializing = copyInt(s.IsInitializing)
	return s
}

func (e *Export) persist(ctx context.Context, state models.ExportState) {
	if e.persister == nil {
		return
	}
	if err := e.persister.UpdateExport(ctx, state); err != nil {
		e.logger.Warn().Err(err).Msg("failed to persist export state")
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
