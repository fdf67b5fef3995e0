package settings

import (
	"sort"
	"sync"
)

// GameStatus is the external game detection service.
type GameStatus interface {
	Running() bool
	// Subscribe calls fn on every change until the returned function runs.
	Subscribe(fn func(running bool)) (unsubscribe func())
}

// GameSignal is an in-process GameStatus driven by Set.
type GameSignal struct {
	mu      sync.Mutex
	running bool
	nextID  int
	subs    map[int]func(bool)
}

// NewGameSignal returns a signal with the given initial state.
func NewGameSignal(running bool) *GameSignal {
	return &GameSignal{running: running, subs: map[int]func(bool){}}
}

// Running implements GameStatus.
func (g *GameSignal) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Set changes the state and notifies subscribers when it differs.
func (g *GameSignal) Set(running bool) {
	g.mu.Lock()
	if g.running == running {
		g.mu.Unlock()
		return
	}
	g.running = running
	ids := make([]int, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(bool), len(ids))
	for i, id := range ids {
		fns[i] = g.subs[id]
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(running)
	}
}

// Subscribe implements GameStatus.
func (g *GameSignal) Subscribe(fn func(bool)) func() {
	if fn == nil {
		return func() {}
	}
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
		})
	}
}
