package kv

import (
	"sort"
	"sync"
)

// Origin identifies the view that produced a change. External is used for
// changes observed from outside the process (file watchers); they reach every
// subscriber.
type Origin uint64

const External Origin = 0

type subscriber struct {
	origin Origin
	fn     func(Change)
}

type pending struct {
	origin Origin
	change Change
}

// Fanout serialises commits and delivers the resulting changes to every
// subscriber whose origin differs from the writer's.
type Fanout struct {
	mu          sync.Mutex
	nextOrigin  Origin
	nextSub     uint64
	subs        map[uint64]subscriber
	queue       []pending
	dispatching bool
}

// NewFanout constructs an empty fan-out.
func NewFanout() *Fanout {
	return &Fanout{subs: map[uint64]subscriber{}}
}

// NewOrigin allocates an identifier for a new view.
func (f *Fanout) NewOrigin() Origin {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOrigin++
	return f.nextOrigin
}

// Subscribe registers fn for changes not produced by origin.
func (f *Fanout) Subscribe(origin Origin, fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = subscriber{origin: origin, fn: fn}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish runs commit under the fan-out lock and queues the change it
// returns. When publish is false nothing is delivered (e.g. the value did not
// change). Delivery happens after the lock is released; a publish issued from
// inside a subscriber callback is queued behind the change being delivered.
func (f *Fanout) Publish(origin Origin, commit func() (change Change, publish bool, err error)) error {
	f.mu.Lock()
	change, publish, err := commit()
	if err != nil || !publish {
		f.mu.Unlock()
		return err
	}
	f.queue = append(f.queue, pending{origin: origin, change: change})
	if f.dispatching {
		f.mu.Unlock()
		return nil
	}
	f.dispatching = true
	for len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		targets := f.targetsLocked(next.origin)
		f.mu.Unlock()
		for _, fn := range targets {
			fn(next.change)
		}
		f.mu.Lock()
	}
	f.dispatching = false
	f.mu.Unlock()
	return nil
}

func (f *Fanout) targetsLocked(origin Origin) []func(Change) {
	ids := make([]uint64, 0, len(f.subs))
	for id, sub := range f.subs {
		if origin != External && sub.origin == origin {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, f.subs[id].fn)
	}
	return out
}
