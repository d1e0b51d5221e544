package store

import "sync"

// MaxHistory bounds the navigation history
const MaxHistory = 20

// Navigation keeps a browser-style back/forward history of element ids
type Navigation struct {
	Observable

	mu      sync.RWMutex
	history []string
	index   int
}

// NewNavigation creates an empty history
func NewNavigation() *Navigation {
	return &Navigation{index: -1}
}

// Goto records a visit. Forward history past the current position is
// discarded and the oldest entry is dropped once the cap is reached.
func (n *Navigation) Goto(id string) {
	n.mu.Lock()
	if n.index >= 0 && n.history[n.index] == id {
		n.mu.Unlock()
		return
	}

	history := append([]string{}, n.history[:n.index+1]...)
	history = append(history, id)
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	n.history = history
	n.index = len(history) - 1
	n.mu.Unlock()

	n.notify()
}

// Back moves one step back and returns the id now current
func (n *Navigation) Back() (string, bool) {
	return n.step(-1)
}

// Forward moves one step forward and returns the id now current
func (n *Navigation) Forward() (string, bool) {
	return n.step(1)
}

func (n *Navigation) step(delta int) (string, bool) {
	n.mu.Lock()
	next := n.index + delta
	if n.index < 0 || next < 0 || next >= len(n.history) {
		n.mu.Unlock()
		return "", false
	}
	n.index = next
	id := n.history[next]
	n.mu.Unlock()

	n.notify()
	return id, true
}

// CanGoBack reports whether Back would move
func (n *Navigation) CanGoBack() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index > 0
}

// CanGoForward reports whether Forward would move
func (n *Navigation) CanGoForward() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index >= 0 && n.index < len(n.history)-1
}

// Current returns the id at the current position
func (n *Navigation) Current() (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.index < 0 {
		return "", false
	}
	return n.history[n.index], true
}

// History returns a copy of the recorded ids
func (n *Navigation) History() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.history...)
}

// Index returns the current position, -1 when empty
func (n *Navigation) Index() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index
}

// Reset clears the history
func (n *Navigation) Reset() {
	n.mu.Lock()
	n.history = nil
	n.index = -1
	n.mu.Unlock()

	n.notify()
}

// Load replaces the history with persisted state. Out of range indexes are
// clamped.
func (n *Navigation) Load(history []string, index int) {
	if len(history) > MaxHistory {
		drop := len(history) - MaxHistory
		history = history[drop:]
		index -= drop
	}

	n.mu.Lock()
	n.history = append([]string(nil), history...)
	switch {
	case len(n.history) == 0:
		n.index = -1
	case index < 0:
		n.index = 0
	case index >= len(n.history):
		n.index = len(n.history) - 1
	default:
		n.index = index
	}
	n.mu.Unlock()

	n.notify()
}
