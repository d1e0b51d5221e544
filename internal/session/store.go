package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxelio/voxel-studio/internal/models"
)

const (
	// Key holds the authoritative session record
	Key = "voxel-studio-session"
	// UIKey holds tabs and navigation; losing it never loses work
	UIKey = "voxel-studio-ui"
)

// UIState is the persisted tab bar and navigation history
type UIState struct {
	Tabs      []models.Tab `json:"tabs"`
	ActiveTab int          `json:"activeTab"`
	History   []string     `json:"history"`
	Index     int          `json:"index"`
	Current   string       `json:"current"`
}

// Store reads and writes sessions through a Storage
type Store struct {
	storage Storage
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a session store
func New(storage Storage, logger zerolog.Logger) *Store {
	return &Store{storage: storage, logger: logger, now: time.Now}
}

// Storage returns the underlying storage
func (s *Store) Storage() Storage {
	return s.storage
}

// Save writes the full session, stamping it with the current time
func (s *Store) Save(ctx context.Context, state State) error {
	state.Timestamp = s.now()
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := s.storage.Set(Key, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("name", state.Name).Int("changes", len(state.LoggerFiles)).Msg("session saved")
	return nil
}

// Load returns the persisted session. Missing or corrupt data is reported
// as no session.
func (s *Store) Load(ctx context.Context) (State, bool) {
	data, err := s.storage.Get(Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Msg("failed to read session")
		}
		return State{}, false
	}
	state, err := Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable session")
		return State{}, false
	}
	return state, true
}

// HasSession reports whether a session record exists. It does not validate
// the record.
func (s *Store) HasSession() bool {
	return s.storage.Has(Key)
}

// Update merges a partial change into the persisted record. A missing or
// corrupt record starts from empty.
func (s *Store) Update(ctx context.Context, fn func(*Record)) error {
	rec := Record{}
	if data, err := s.storage.Get(Key); err == nil {
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn().Err(err).Msg("replacing unreadable session")
			rec = Record{}
		}
	}

	fn(&rec)
	rec.Timestamp = s.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.storage.Set(Key, data); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// UpdateExport persists the export slice of the session. Clearing the link
// when no session exists is a no-op.
func (s *Store) UpdateExport(ctx context.Context, state models.ExportState) error {
	if state == (models.ExportState{}) && !s.storage.Has(Key) {
		return nil
	}
	return s.Update(ctx, func(r *Record) {
		r.IsGitRepository = state.IsGitRepository
		r.Owner = state.Owner
		r.RepositoryName = state.RepositoryName
		r.Branch = state.Branch
		r.IsInitializing = state.IsInitializing
	})
}

// Clear removes the session and the UI state
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Remove(Key); err != nil {
		return err
	}
	return s.storage.Remove(UIKey)
}

// SaveUI writes the tab bar and navigation state
func (s *Store) SaveUI(ctx context.Context, ui UIState) error {
	data, err := json.Marshal(ui)
	if err != nil {
		return fmt.Errorf("failed to encode ui state: %w", err)
	}
	if err := s.storage.Set(UIKey, data); err != nil {
		return fmt.Errorf("failed to save ui state: %w", err)
	}
	return nil
}

// LoadUI reads the tab bar and navigation state
func (s *Store) LoadUI(ctx context.Context) (UIState, bool) {
	data, err := s.storage.Get(UIKey)
	if err != nil {
		return UIState{}, false
	}
	var ui UIState
	if err := json.Unmarshal(data, &ui); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable ui state")
		return UIState{}, false
	}
	return ui, true
}
