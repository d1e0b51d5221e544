package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voxelio/voxel-studio/internal/changelog"
	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/models"
)

var (
	// ErrNoSelection is returned by HandleChange in overview mode
	ErrNoSelection = errors.New("no element selected")
	// ErrElementExists is returned when creating an element that already exists
	ErrElementExists = errors.New("element already exists")
	// ErrNotLoaded is returned when no datapack is loaded
	ErrNotLoaded = errors.New("no datapack loaded")
	// ErrStaleBaseline is returned by Rebase when the store changed after
	// the files were compiled
	ErrStaleBaseline = errors.New("datapack changed since it was compiled")
)

// Configurator is the source of truth for the loaded datapack
type Configurator struct {
	Observable

	mu       sync.RWMutex
	analyser datapack.Analyser
	logger   zerolog.Logger

	name        string
	files       models.FileMap
	elements    datapack.ElementMap
	packVersion *int
	modded      bool
	current     string
	log         *changelog.Logger

	// version advances on every mutation of files, elements or the log
	version uint64
}

// NewConfigurator creates an empty configurator store
func NewConfigurator(analyser datapack.Analyser, logger zerolog.Logger) *Configurator {
	return &Configurator{
		analyser: analyser,
		logger:   logger,
		elements: make(datapack.ElementMap),
		log:      changelog.New(),
	}
}

// Analyser returns the analyser the store delegates to
func (c *Configurator) Analyser() datapack.Analyser {
	return c.analyser
}

// Setup replaces the whole state with a freshly parsed datapack
func (c *Configurator) Setup(result *datapack.ParseResult) {
	c.mu.Lock()
	c.setup(result, changelog.New(), result.Elements.Clone())
	c.mu.Unlock()

	c.logger.Debug().Str("name", result.Name).Int("elements", len(result.Elements)).Msg("datapack loaded")
	c.notify()
}

// Restore sets up a parsed datapack and replays a persisted change log over it
func (c *Configurator) Restore(result *datapack.ParseResult, log *changelog.Logger) error {
	elements := result.Elements.Clone()
	for _, rec := range log.Records() {
		if err := c.replay(elements, rec); err != nil {
			return fmt.Errorf("failed to replay change %d: %w", rec.Sequence, err)
		}
	}

	c.mu.Lock()
	c.setup(result, log, elements)
	c.mu.Unlock()

	c.logger.Debug().Str("name", result.Name).Int("changes", log.Len()).Msg("datapack restored")
	c.notify()
	return nil
}

// Rebase makes files the new original datapack, typically after they were
// pushed. The change log is dropped and the elements are re-read from files,
// so a diff taken right after is empty. version must be the store version
// files were compiled at; later edits would be lost, so they fail with
// ErrStaleBaseline.
func (c *Configurator) Rebase(ctx context.Context, files models.FileMap, version uint64) error {
	c.mu.RLock()
	name := c.name
	c.mu.RUnlock()

	result, err := c.analyser.Parse(ctx, name, files)
	if err != nil {
		return fmt.Errorf("failed to parse new baseline: %w", err)
	}
	result.Name = name

	c.mu.Lock()
	if c.version != version {
		c.mu.Unlock()
		return ErrStaleBaseline
	}
	current := c.current
	c.setup(result, changelog.New(), result.Elements.Clone())
	if _, ok := c.elements[current]; ok {
		c.current = current
	}
	c.mu.Unlock()

	c.logger.Debug().Str("name", name).Int("files", len(files)).Msg("baseline moved")
	c.notify()
	return nil
}

func (c *Configurator) setup(result *datapack.ParseResult, log *changelog.Logger, elements datapack.ElementMap) {
	c.name = result.Name
	c.files = result.Files.Clone()
	c.elements = elements
	c.packVersion = result.Version
	c.modded = result.IsModded
	c.current = ""
	c.log = log
	c.version++
}

// Reset empties the store
func (c *Configurator) Reset() {
	c.mu.Lock()
	c.name = ""
	c.files = nil
	c.elements = make(datapack.ElementMap)
	c.packVersion = nil
	c.modded = false
	c.current = ""
	c.log = changelog.New()
	c.version++
	c.mu.Unlock()

	c.notify()
}

// HandleChange applies an edit action to the selected element
func (c *Configurator) HandleChange(action datapack.Action) error {
	if action.Type == datapack.ActionCreateElement || action.Type == datapack.ActionDeleteElement {
		return fmt.Errorf("%s must go through CreateElement or DeleteElement", action.Type)
	}

	c.mu.Lock()
	if c.current == "" {
		c.mu.Unlock()
		return ErrNoSelection
	}
	el, ok := c.elements[c.current]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", datapack.ErrElementNotFound, c.current)
	}

	next, err := c.analyser.Apply(el, action)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to apply %s to %s: %w", action.Type, el.Identifier, err)
	}

	elements := c.elements.Clone()
	elements[c.current] = next
	c.elements = elements
	rec := c.log.Append(el.Identifier, action)
	c.version++
	c.mu.Unlock()

	c.logger.Debug().Str("element", el.Identifier.Key()).Str("action", string(action.Type)).Int("sequence", rec.Sequence).Msg("change applied")
	c.notify()
	return nil
}

// CreateElement adds a new element built from JSON-compatible data
func (c *Configurator) CreateElement(id models.Identifier, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode element: %w", err)
	}
	el, err := datapack.NewElementFromJSON(id, raw)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if _, exists := c.elements[id.Key()]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrElementExists, id.Key())
	}
	elements := c.elements.Clone()
	elements[id.Key()] = el
	c.elements = elements
	c.log.Append(id, datapack.Action{Type: datapack.ActionCreateElement, Value: raw})
	c.version++
	c.mu.Unlock()

	c.notify()
	return nil
}

// DeleteElement removes an element; the selection falls back to overview
// when it pointed at the deleted element
func (c *Configurator) DeleteElement(id models.Identifier) error {
	c.mu.Lock()
	if _, exists := c.elements[id.Key()]; !exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", datapack.ErrElementNotFound, id.Key())
	}
	elements := c.elements.Clone()
	delete(elements, id.Key())
	c.elements = elements
	if c.current == id.Key() {
		c.current = ""
	}
	c.log.Append(id, datapack.Action{Type: datapack.ActionDeleteElement})
	c.version++
	c.mu.Unlock()

	c.notify()
	return nil
}

// replay applies a persisted record to elements in place
func (c *Configurator) replay(elements datapack.ElementMap, rec changelog.Record) error {
	key := rec.Identifier.Key()

	switch rec.Action.Type {
	case datapack.ActionCreateElement:
		el, err := datapack.NewElementFromJSON(rec.Identifier, rec.Action.Value)
		if err != nil {
			return err
		}
		elements[key] = el
	case datapack.ActionDeleteElement:
		delete(elements, key)
	default:
		el, ok := elements[key]
		if !ok {
			return fmt.Errorf("%w: %s", datapack.ErrElementNotFound, key)
		}
		next, err := c.analyser.Apply(el, rec.Action)
		if err != nil {
			return err
		}
		elements[key] = next
	}
	return nil
}

// Compile regenerates the output file map from the current state. It does
// not mutate the store.
func (c *Configurator) Compile() (models.FileMap, error) {
	_, compiled, _, err := c.compileVersioned()
	return compiled, err
}

// compileVersioned compiles a consistent snapshot and returns it along with
// the original files and the version it was taken at
func (c *Configurator) compileVersioned() (original, compiled models.FileMap, version uint64, err error) {
	c.mu.RLock()
	files := c.files
	elements := c.elements
	version = c.version
	c.mu.RUnlock()

	compiled, err = c.analyser.Compile(files, elements)
	if err != nil {
		return nil, nil, version, err
	}
	return files, compiled, version, nil
}

// SetCurrentElementID selects an element; an empty id selects overview mode
func (c *Configurator) SetCurrentElementID(id string) error {
	c.mu.Lock()
	if id != "" {
		if _, ok := c.elements[id]; !ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s", datapack.ErrElementNotFound, id)
		}
	}
	changed := c.current != id
	c.current = id
	c.mu.Unlock()

	if changed {
		c.notify()
	}
	return nil
}

// CurrentElementID returns the selected element key, empty in overview mode
func (c *Configurator) CurrentElementID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// CurrentElement returns the selected element
func (c *Configurator) CurrentElement() (datapack.Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.elements[c.current]
	return el, ok && c.current != ""
}

// Element returns an element by key
func (c *Configurator) Element(key string) (datapack.Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.elements[key]
	return el, ok
}

// Registry returns the elements of one registry, sorted by resource then
// namespace
func (c *Configurator) Registry(registry string) []datapack.Element {
	c.mu.RLock()
	var out []datapack.Element
	for _, el := range c.elements {
		if el.Identifier.Registry == registry {
			out = append(out, el)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Identifier, out[j].Identifier
		if a.Resource != b.Resource {
			return a.Resource < b.Resource
		}
		return a.Namespace < b.Namespace
	})
	return out
}

// SortedIdentifiers returns the identifiers of one registry in stable order
func (c *Configurator) SortedIdentifiers(registry string) []models.Identifier {
	elements := c.Registry(registry)
	ids := make([]models.Identifier, len(elements))
	for i, el := range elements {
		ids[i] = el.Identifier
	}
	return ids
}

// Registries returns the distinct registries present, sorted
func (c *Configurator) Registries() []string {
	c.mu.RLock()
	seen := make(map[string]bool)
	for _, el := range c.elements {
		seen[el.Identifier.Registry] = true
	}
	c.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Loaded reports whether a datapack is loaded
func (c *Configurator) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files != nil
}

// Files returns the original files of the loaded datapack
func (c *Configurator) Files() models.FileMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files.Clone()
}

// Name returns the datapack name
func (c *Configurator) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// PackVersion returns the pack format, nil when unknown
func (c *Configurator) PackVersion() *int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.packVersion
}

// IsModded reports whether the datapack ships inside a mod
func (c *Configurator) IsModded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modded
}

// ChangeLog returns the current change log
func (c *Configurator) ChangeLog() *changelog.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}

// Version returns the mutation counter used to invalidate derived state
func (c *Configurator) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
