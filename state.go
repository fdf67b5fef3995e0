package settings

import (
	"sort"
	"sync"
)

// Observer is called after the current snapshot of a State changes. It runs
// after the state lock is released, so it may read the State but must not
// assume it is still looking at the latest snapshot.
type Observer func(prev, next *Snapshot)

// State holds the current snapshot of one window. Every mutation replaces the
// snapshot; snapshots already handed out never change.
type State struct {
	mu        sync.Mutex
	current   *Snapshot
	observers map[int]Observer
	nextID    int
}

// NewState starts from initial, or from the defaults when initial is nil.
func NewState(initial *Snapshot) *State {
	if initial == nil {
		initial = DefaultSnapshot()
	}
	return &State{current: initial, observers: map[int]Observer{}}
}

// Current returns the current snapshot.
func (s *State) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update replaces the current snapshot with fn(current) and reports whether
// it changed. Returning the input (or nil) leaves the state untouched and
// notifies nobody.
func (s *State) Update(fn func(*Snapshot) *Snapshot) bool {
	changed, notify := s.stage(fn)
	notify()
	return changed
}

// stage commits fn(current) and returns the observer dispatch for the caller
// to run once it has released its own locks.
func (s *State) stage(fn func(*Snapshot) *Snapshot) (bool, func()) {
	s.mu.Lock()
	prev := s.current
	next := fn(prev)
	if next == nil || next == prev {
		s.mu.Unlock()
		return false, func() {}
	}
	s.current = next
	observers := s.snapshotObservers()
	s.mu.Unlock()

	return true, func() {
		for _, observe := range observers {
			observe(prev, next)
		}
	}
}

// Apply merges p into the flat settings.
func (s *State) Apply(p Patch) bool {
	return s.Update(func(cur *Snapshot) *Snapshot { return cur.Apply(p) })
}

// ApplyIconCategoryVisibility sets one category flag. Unknown categories are
// ignored.
func (s *State) ApplyIconCategoryVisibility(category string, visible bool) bool {
	return s.Update(func(cur *Snapshot) *Snapshot {
		return cur.ApplyIconCategoryVisibility(category, visible)
	})
}

// ApplyIconTypeVisibility sets one type flag. Unknown categories or types are
// ignored.
func (s *State) ApplyIconTypeVisibility(category, typeName string, visible bool) bool {
	return s.Update(func(cur *Snapshot) *Snapshot {
		return cur.ApplyIconTypeVisibility(category, typeName, visible)
	})
}

// SetIcons installs a new icon tree.
func (s *State) SetIcons(icons *IconSettings) bool {
	return s.Update(func(cur *Snapshot) *Snapshot { return cur.WithIcons(icons) })
}

// Observe registers fn and returns a function that removes it.
func (s *State) Observe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *State) snapshotObservers() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = s.observers[id]
	}
	return out
}
