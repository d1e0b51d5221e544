// Package studio owns the stores of one editing session and keeps them
// persisted.
package studio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voxelio/voxel-studio/internal/changelog"
	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/models"
	"github.com/voxelio/voxel-studio/internal/session"
	"github.com/voxelio/voxel-studio/internal/store"
)

// Options configures a Studio
type Options struct {
	// Analyser defaults to the JSON analyser
	Analyser datapack.Analyser
	// Session may be nil to disable persistence
	Session *session.Store
	Logger  zerolog.Logger
}

// Gate is the result of a precondition check
type Gate struct {
	OK     bool
	Reason string
}

// Studio is the application root holding every store
type Studio struct {
	Configurator *store.Configurator
	Changes      *store.Changes
	Navigation   *store.Navigation
	Tabs         *store.Tabs
	Export       *store.Export

	session *session.Store
	logger  zerolog.Logger
	ctx     context.Context

	// restoring suppresses writes while the persisted session is applied
	mu        sync.Mutex
	restoring bool
	cancels   []func()
	disposed  bool
}

// New creates a studio and starts auto-persistence
func New(opts Options) *Studio {
	analyser := opts.Analyser
	if analyser == nil {
		analyser = datapack.NewJSONAnalyser()
	}

	var persister store.ExportPersister
	if opts.Session != nil {
		persister = opts.Session
	}

	cfg := store.NewConfigurator(analyser, opts.Logger)
	s := &Studio{
		Configurator: cfg,
		Changes:      store.NewChanges(cfg),
		Navigation:   store.NewNavigation(),
		Tabs:         store.NewTabs(),
		Export:       store.NewExport(persister, opts.Logger),
		session:      opts.Session,
		logger:       opts.Logger,
		ctx:          opts.Logger.WithContext(context.Background()),
	}

	if s.session != nil {
		s.cancels = append(s.cancels,
			store.Watch(cfg, cfg.Version, func(uint64) { s.persist() }),
			store.Watch(cfg, cfg.CurrentElementID, func(string) { s.persistUI() }),
			s.Tabs.Subscribe(s.persistUI),
			s.Navigation.Subscribe(s.persistUI),
		)
	}
	return s
}

// Dispose stops auto-persistence. It is safe to call more than once.
func (s *Studio) Dispose() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.disposed = true
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Studio) persist() {
	if s.isRestoring() || !s.Configurator.Loaded() {
		return
	}
	state, err := s.snapshot()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to snapshot session")
		return
	}
	if err := s.session.Save(s.ctx, state); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session")
	}
}

func (s *Studio) snapshot() (session.State, error) {
	loggerFiles, err := s.Configurator.ChangeLog().Files()
	if err != nil {
		return session.State{}, err
	}
	return session.State{
		Files:       s.Configurator.Files(),
		LoggerFiles: loggerFiles,
		Name:        s.Configurator.Name(),
		Version:     s.Configurator.PackVersion(),
		IsModded:    s.Configurator.IsModded(),
		Export:      s.Export.State(),
	}, nil
}

func (s *Studio) persistUI() {
	s.mu.Lock()
	skip := s.restoring || s.disposed
	s.mu.Unlock()
	if skip || !s.Configurator.Loaded() {
		return
	}

	ui := session.UIState{
		Tabs:      s.Tabs.Tabs(),
		ActiveTab: s.Tabs.ActiveIndex(),
		History:   s.Navigation.History(),
		Index:     s.Navigation.Index(),
		Current:   s.Configurator.CurrentElementID(),
	}
	if err := s.session.SaveUI(s.ctx, ui); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist ui state")
	}
}

// Load replaces the working copy with a freshly parsed datapack
func (s *Studio) Load(ctx context.Context, result *datapack.ParseResult) {
	s.Navigation.Reset()
	s.Tabs.Reset()
	s.Changes.Reset()
	s.Export.ClearGitRepository(ctx)
	s.Configurator.Setup(result)

	zerolog.Ctx(ctx).Info().Str("name", result.Name).Msg("datapack loaded")
}

// Restore rebuilds the working copy from the persisted session. It reports
// false when there is nothing usable to restore.
func (s *Studio) Restore(ctx context.Context) bool {
	if s.session == nil {
		return false
	}
	state, ok := s.session.Load(ctx)
	if !ok || len(state.Files) == 0 {
		return false
	}

	result, err := s.Configurator.Analyser().Parse(ctx, state.Name, state.Files)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to parse persisted datapack")
		return false
	}
	result.Name = state.Name

	log, err := changelog.FromFiles(state.LoggerFiles)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted change log")
		return false
	}

	s.setRestoring(true)
	defer s.setRestoring(false)

	s.Export.Load(state.Export)
	if err := s.Configurator.Restore(result, log); err != nil {
		s.logger.Warn().Err(err).Msg("failed to replay persisted changes")
		return false
	}
	s.Changes.Reset()
	s.restoreUI(ctx)

	zerolog.Ctx(ctx).Debug().Str("name", state.Name).Int("changes", log.Len()).Msg("session restored")
	return true
}

func (s *Studio) restoreUI(ctx context.Context) {
	ui, ok := s.session.LoadUI(ctx)
	if !ok {
		s.Navigation.Reset()
		s.Tabs.Reset()
		return
	}

	// drop entries for elements that no longer exist
	var tabs []models.Tab
	active := -1
	for i, tab := range ui.Tabs {
		if _, ok := s.Configurator.Element(tab.ElementID); !ok {
			continue
		}
		if i == ui.ActiveTab {
			active = len(tabs)
		}
		tabs = append(tabs, tab)
	}
	s.Tabs.Load(tabs, active)
	s.Navigation.Load(ui.History, ui.Index)

	if ui.Current != "" {
		if err := s.Configurator.SetCurrentElementID(ui.Current); err != nil {
			s.logger.Debug().Err(err).Msg("persisted selection is gone")
		}
	}
}

func (s *Studio) setRestoring(v bool) {
	s.mu.Lock()
	s.restoring = v
	s.mu.Unlock()
}

func (s *Studio) isRestoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoring
}

// ClearSession resets every store and removes the persisted session
func (s *Studio) ClearSession(ctx context.Context) error {
	s.Navigation.Reset()
	s.Tabs.Reset()
	s.Changes.Reset()
	s.Export.ClearGitRepository(ctx)
	s.Configurator.Reset()

	if s.session == nil {
		return nil
	}
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Open selects an element, shows it in a tab and records the visit
func (s *Studio) Open(key string) error {
	if err := s.Configurator.SetCurrentElementID(key); err != nil {
		return err
	}
	el, _ := s.Configurator.Element(key)
	s.Tabs.OpenTab(key, Route(el.Identifier), el.Identifier.Resource)
	s.Navigation.Goto(key)
	return nil
}

// Back selects the previous element in the history
func (s *Studio) Back() (string, bool) {
	id, ok := s.Navigation.Back()
	if !ok {
		return "", false
	}
	s.reselect(id)
	return id, true
}

// Forward selects the next element in the history
func (s *Studio) Forward() (string, bool) {
	id, ok := s.Navigation.Forward()
	if !ok {
		return "", false
	}
	s.reselect(id)
	return id, true
}

// CloseTab closes a tab and selects whichever tab becomes active
func (s *Studio) CloseTab(index int) bool {
	if !s.Tabs.CloseTab(index) {
		return false
	}
	if tab, ok := s.Tabs.Active(); ok {
		s.reselect(tab.ElementID)
	} else {
		s.reselect("")
	}
	return true
}

// DeleteElement removes an element and closes its tab
func (s *Studio) DeleteElement(id models.Identifier) error {
	if err := s.Configurator.DeleteElement(id); err != nil {
		return err
	}
	s.Tabs.CloseElement(id.Key())
	return nil
}

func (s *Studio) reselect(key string) {
	if err := s.Configurator.SetCurrentElementID(key); err != nil {
		// the element was deleted since it was visited
		_ = s.Configurator.SetCurrentElementID("")
	}
}

// RequireElement checks that an element is selected before editing
func (s *Studio) RequireElement() Gate {
	if !s.Configurator.Loaded() {
		return Gate{Reason: "no datapack loaded"}
	}
	if s.Configurator.CurrentElementID() == "" {
		return Gate{Reason: "no element selected"}
	}
	return Gate{OK: true}
}

// Route returns the editor route for an element
func Route(id models.Identifier) string {
	return "/studio/editor/" + id.Registry + "/" + id.Namespace + "/" + id.Resource
}
