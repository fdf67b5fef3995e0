package kv

import (
	"sort"
	"sync"
)

// Hub is an in-memory Store shared by any number of window views. It is the
// substitute for the real cross-window store in tests and examples.
type Hub struct {
	mu      sync.RWMutex
	records map[string]string
	fanout  *Fanout
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{records: map[string]string{}, fanout: NewFanout()}
}

// Seed writes values without notifying anyone, the equivalent of data already
// persisted before any window opened.
func (h *Hub) Seed(values map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, v := range values {
		h.records[k] = v
	}
}

// Window returns a new view. Writes through the view notify the subscribers
// of every other view.
func (h *Hub) Window() *View {
	return &View{hub: h, origin: h.fanout.NewOrigin()}
}

func (h *Hub) get(key string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.records[key]
	return v, ok
}

func (h *Hub) keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.records))
	for k := range h.records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// View is one window's handle on a Hub.
type View struct {
	hub    *Hub
	origin Origin
}

var _ Shared = (*View)(nil)

func (v *View) Get(key string) (string, bool, error) {
	value, ok := v.hub.get(key)
	return value, ok, nil
}

func (v *View) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return v.hub.fanout.Publish(v.origin, func() (Change, bool, error) {
		v.hub.mu.Lock()
		defer v.hub.mu.Unlock()
		if prev, ok := v.hub.records[key]; ok && prev == value {
			return Change{}, false, nil
		}
		v.hub.records[key] = value
		return Updated(key, value), true, nil
	})
}

func (v *View) Delete(key string) error {
	return v.hub.fanout.Publish(v.origin, func() (Change, bool, error) {
		v.hub.mu.Lock()
		defer v.hub.mu.Unlock()
		if _, ok := v.hub.records[key]; !ok {
			return Change{}, false, nil
		}
		delete(v.hub.records, key)
		return Deleted(key), true, nil
	})
}

func (v *View) Keys() ([]string, error) {
	return v.hub.keys(), nil
}

func (v *View) Subscribe(fn func(Change)) func() {
	return v.hub.fanout.Subscribe(v.origin, fn)
}
