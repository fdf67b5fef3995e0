package settings

import (
	"log/slog"
	"sync"

	"github.com/goliatone/go-syncsettings/pkg/kv"
)

// Outcome reports what a Listener did with one notification.
type Outcome string

const (
	OutcomeApplied             Outcome = "applied"
	OutcomeIgnoredDeletion     Outcome = "ignored-deletion"
	OutcomeIgnoredUnrecognized Outcome = "ignored-unrecognized"
	OutcomeIgnoredUnsynced     Outcome = "ignored-unsynced"
	OutcomeIgnoredStale        Outcome = "ignored-stale"
	OutcomeStopped             Outcome = "stopped"
)

// Ignored reports whether the notification left the state untouched because
// it was filtered out.
func (o Outcome) Ignored() bool {
	return o != OutcomeApplied
}

// Listener applies notifications from other windows to a State.
type Listener struct {
	state  *State
	codec  *Codec
	source kv.Notifier
	logger *slog.Logger

	synced          map[Setting]bool
	categoryDefault func(string) bool
	onOutcome       []func(kv.Change, Outcome)
	onApplied       []func(key string, value any)

	mu          sync.RWMutex
	active      bool
	unsubscribe func()
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the listener logger.
func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLocalOnly excludes settings from cross-window propagation. Their
// notifications are ignored; the window keeps whatever it read at startup or
// wrote itself.
func WithLocalOnly(settings ...Setting) ListenerOption {
	return func(l *Listener) {
		for _, s := range settings {
			delete(l.synced, s)
		}
	}
}

// WithCategoryDefault overrides the fallback used when a category flag in a
// notification does not parse.
func WithCategoryDefault(fn func(category string) bool) ListenerOption {
	return func(l *Listener) {
		if fn != nil {
			l.categoryDefault = fn
		}
	}
}

// WithOutcomeHook registers fn to observe every handled notification.
func WithOutcomeHook(fn func(kv.Change, Outcome)) ListenerOption {
	return func(l *Listener) {
		if fn != nil {
			l.onOutcome = append(l.onOutcome, fn)
		}
	}
}

// WithAppliedHook registers fn to receive the storage key and decoded value
// of every applied notification.
func WithAppliedHook(fn func(key string, value any)) ListenerOption {
	return func(l *Listener) {
		if fn != nil {
			l.onApplied = append(l.onApplied, fn)
		}
	}
}

// NewListener builds a listener for state fed by source. It does nothing
// until Start is called.
func NewListener(state *State, codec *Codec, source kv.Notifier, opts ...ListenerOption) *Listener {
	l := &Listener{
		state:           state,
		codec:           codec,
		source:          source,
		logger:          discardLogger(),
		synced:          make(map[Setting]bool, len(definitions)),
		categoryDefault: DefaultCategoryVisible,
	}
	for _, def := range definitions {
		l.synced[def.Setting] = true
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Synced reports whether notifications for s are applied.
func (l *Listener) Synced(s Setting) bool {
	return l.synced[s]
}

// Start subscribes to the notification source. Calling Start on an active
// listener is a no-op.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return
	}
	l.active = true
	if l.source != nil {
		l.unsubscribe = l.source.Subscribe(func(change kv.Change) {
			l.Handle(change)
		})
	}
	l.logger.Info("settings: listener started")
}

// Stop unsubscribes and waits for a notification that is being committed to
// the state. No notification is applied after Stop returns. Observers run
// outside the listener lock, so a state observer may call Stop (or close the
// window) while a notification is being handled.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.active = false
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
	l.logger.Info("settings: listener stopped")
}

// Active reports whether the listener is between Start and Stop.
func (l *Listener) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Handle decodes one notification and applies it. It never fails: anything
// that cannot be applied is reported through the returned Outcome.
func (l *Listener) Handle(change kv.Change) Outcome {
	result := l.commit(change)
	if result.outcome == OutcomeApplied {
		result.notify()
		l.applied(change.Key, result.value)
	}

	notificationsTotal.WithLabelValues(string(result.outcome)).Inc()
	if result.outcome.Ignored() {
		l.logger.Debug("settings: notification ignored",
			slog.String("key", change.Key), slog.String("outcome", string(result.outcome)))
	}
	for _, fn := range l.onOutcome {
		fn(change, result.outcome)
	}
	return result.outcome
}

// handled is a notification committed to the state whose observers have not
// run yet.
type handled struct {
	outcome Outcome
	value   any
	notify  func()
}

func ignored(outcome Outcome) handled {
	return handled{outcome: outcome}
}

// commit holds the read lock only while the snapshot is swapped, so Stop
// blocks on the commit and never on the observers.
func (l *Listener) commit(change kv.Change) handled {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.active {
		return ignored(OutcomeStopped)
	}
	return l.handle(change)
}

func (l *Listener) handle(change kv.Change) handled {
	// An emptied key is treated like a removed one, as on reads.
	if change.Deletion() || change.Value() == "" {
		return ignored(OutcomeIgnoredDeletion)
	}
	raw := change.Value()
	decoded := DecodeKey(change.Key)

	switch decoded.Scope {
	case ScopeFlat:
		s, _ := decoded.Setting()
		if !l.synced[s] {
			return ignored(OutcomeIgnoredUnsynced)
		}
		value := l.codec.ParseFlat(s, raw)
		_, notify := l.state.stage(func(cur *Snapshot) *Snapshot { return cur.Apply(Patch{s: value}) })
		return handled{outcome: OutcomeApplied, value: value, notify: notify}

	case ScopeIconCategory:
		if _, ok := l.state.Current().Icons().Category(decoded.Name); !ok {
			return ignored(OutcomeIgnoredStale)
		}
		visible := l.codec.ParseBool(change.Key, raw, l.categoryDefault(decoded.Name))
		_, notify := l.state.stage(func(cur *Snapshot) *Snapshot {
			return cur.ApplyIconCategoryVisibility(decoded.Name, visible)
		})
		return handled{outcome: OutcomeApplied, value: visible, notify: notify}

	case ScopeIconType:
		category, ok := l.state.Current().Icons().CategoryOfType(decoded.Name)
		if !ok {
			return ignored(OutcomeIgnoredStale)
		}
		visible := l.codec.ParseBool(change.Key, raw, true)
		_, notify := l.state.stage(func(cur *Snapshot) *Snapshot {
			return cur.ApplyIconTypeVisibility(category, decoded.Name, visible)
		})
		return handled{outcome: OutcomeApplied, value: visible, notify: notify}

	default:
		return ignored(OutcomeIgnoredUnrecognized)
	}
}

func (l *Listener) applied(key string, value any) {
	for _, fn := range l.onApplied {
		fn(key, value)
	}
}
