package store

import (
	"sync"

	"github.com/voxelio/voxel-studio/internal/models"
)

// MaxTabs bounds the number of open tabs
const MaxTabs = 10

// Tabs tracks open editor tabs and the active one
type Tabs struct {
	Observable

	mu     sync.RWMutex
	tabs   []models.Tab
	active int
}

// NewTabs creates an empty tab bar
func NewTabs() *Tabs {
	return &Tabs{active: -1}
}

// OpenTab activates the tab for elementID, opening it if needed. When the
// bar is full the oldest tab is evicted.
func (t *Tabs) OpenTab(elementID, route, label string) {
	t.mu.Lock()
	for i, tab := range t.tabs {
		if tab.ElementID == elementID {
			t.active = i
			t.mu.Unlock()
			t.notify()
			return
		}
	}

	tabs := append([]models.Tab{}, t.tabs...)
	tabs = append(tabs, models.Tab{ElementID: elementID, Route: route, Label: label})
	if len(tabs) > MaxTabs {
		tabs = tabs[len(tabs)-MaxTabs:]
	}
	t.tabs = tabs
	t.active = len(tabs) - 1
	t.mu.Unlock()

	t.notify()
}

// CloseTab removes the tab at index. It returns false for an invalid index.
func (t *Tabs) CloseTab(index int) bool {
	t.mu.Lock()
	if index < 0 || index >= len(t.tabs) {
		t.mu.Unlock()
		return false
	}
	t.closeLocked(index)
	t.mu.Unlock()

	t.notify()
	return true
}

func (t *Tabs) closeLocked(index int) {
	tabs := append([]models.Tab{}, t.tabs[:index]...)
	t.tabs = append(tabs, t.tabs[index+1:]...)

	switch {
	case len(t.tabs) == 0:
		t.active = -1
	case index == t.active:
		t.active = min(index, len(t.tabs)-1)
	case index < t.active:
		t.active--
	}
}

// CloseElement closes the tab showing elementID, if any
func (t *Tabs) CloseElement(elementID string) bool {
	t.mu.Lock()
	for i, tab := range t.tabs {
		if tab.ElementID == elementID {
			t.closeLocked(i)
			t.mu.Unlock()
			t.notify()
			return true
		}
	}
	t.mu.Unlock()
	return false
}

// Activate makes the tab at index active
func (t *Tabs) Activate(index int) bool {
	t.mu.Lock()
	if index < 0 || index >= len(t.tabs) {
		t.mu.Unlock()
		return false
	}
	t.active = index
	t.mu.Unlock()

	t.notify()
	return true
}

// Tabs returns a copy of the open tabs
func (t *Tabs) Tabs() []models.Tab {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Tab(nil), t.tabs...)
}

// Active returns the active tab
func (t *Tabs) Active() (models.Tab, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active < 0 {
		return models.Tab{}, false
	}
	return t.tabs[t.active], true
}

// ActiveIndex returns the active index, -1 when no tab is open
func (t *Tabs) ActiveIndex() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Reset closes every tab
func (t *Tabs) Reset() {
	t.mu.Lock()
	t.tabs = nil
	t.active = -1
	t.mu.Unlock()

	t.notify()
}

// Load replaces the tabs with persisted state
func (t *Tabs) Load(tabs []models.Tab, active int) {
	if len(tabs) > MaxTabs {
		drop := len(tabs) - MaxTabs
		tabs = tabs[drop:]
		active -= drop
	}

	t.mu.Lock()
	t.tabs = append([]models.Tab(nil), tabs...)
	switch {
	case len(t.tabs) == 0:
		t.active = -1
	case active < 0 || active >= len(t.tabs):
		t.active = len(t.tabs) - 1
	default:
		t.active = active
	}
	t.mu.Unlock()

	t.notify()
}
