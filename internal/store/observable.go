// Package store holds the in-memory working copy of a datapack and the UI
// state around it. Every store embeds an Observable; callers register
// selectors with Watch instead of polling.
package store

import "sync"

// Subscribable is implemented by every store
type Subscribable interface {
	Subscribe(fn func()) (cancel func())
}

type subscription struct {
	id int
	fn func()
}

// Observable fans out change notifications. The zero value is ready to use.
type Observable struct {
	subMu  sync.Mutex
	nextID int
	subs   []subscription
}

// Subscribe registers fn to run after every mutation. The returned function
// removes the subscription and is safe to call more than once.
func (o *Observable) Subscribe(fn func()) func() {
	o.subMu.Lock()
	id := o.nextID
	o.nextID++
	o.subs = append(o.subs, subscription{id: id, fn: fn})
	o.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.subMu.Lock()
			defer o.subMu.Unlock()
			for i, s := range o.subs {
				if s.id == id {
					o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// notify must be called without holding the store's own lock
func (o *Observable) notify() {
	o.subMu.Lock()
	subs := make([]subscription, len(o.subs))
	copy(subs, o.subs)
	o.subMu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Watch calls onChange whenever the selector result differs from the
// previous one. The selector is evaluated once on registration to seed the
// comparison; onChange is not called for that initial value.
func Watch[T comparable](src Subscribable, selector func() T, onChange func(T)) (cancel func()) {
	return WatchFunc(src, selector, func(a, b T) bool { return a == b }, onChange)
}

// WatchFunc is Watch with an explicit equality for non-comparable results
func WatchFunc[T any](src Subscribable, selector func() T, equal func(a, b T) bool, onChange func(T)) (cancel func()) {
	var mu sync.Mutex
	last := selector()

	return src.Subscribe(func() {
		next := selector()

		mu.Lock()
		changed := !equal(last, next)
		if changed {
			last = next
		}
		mu.Unlock()

		if changed {
			onChange(next)
		}
	})
}
