package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-syncsettings/pkg/activity"
	"github.com/goliatone/go-syncsettings/pkg/kv"
	"github.com/google/uuid"
)

// WindowKind distinguishes the desktop frame from the in-game overlay.
type WindowKind string

const (
	WindowDesktop WindowKind = "desktop"
	WindowInGame  WindowKind = "inGame"
)

type windowConfig struct {
	id           string
	kind         WindowKind
	transparent  bool
	logger       *slog.Logger
	game         GameStatus
	hooks        []activity.Hook
	channel      string
	engine       Engine
	evaluator    Evaluator
	cache        ProgramCache
	helpers      *Helpers
	listenerOpts []ListenerOption
}

// WindowOption configures a Window.
type WindowOption func(*windowConfig)

// WithWindowID overrides the generated window ID.
func WithWindowID(id string) WindowOption {
	return func(cfg *windowConfig) {
		if id != "" {
			cfg.id = id
		}
	}
}

// WithKind sets the window kind. The default is WindowDesktop.
func WithKind(kind WindowKind) WindowOption {
	return func(cfg *windowConfig) {
		if kind != "" {
			cfg.kind = kind
		}
	}
}

// WithTransparentSurface marks the window as drawn over the game, which makes
// the opacity setting apply to it.
func WithTransparentSurface(transparent bool) WindowOption {
	return func(cfg *windowConfig) {
		cfg.transparent = transparent
	}
}

// WithLogger sets the logger used by the window and its listener and codec.
func WithLogger(logger *slog.Logger) WindowOption {
	return func(cfg *windowConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithGameStatus injects the game detection service.
func WithGameStatus(game GameStatus) WindowOption {
	return func(cfg *windowConfig) {
		cfg.game = game
	}
}

// WithActivityHooks emits a settings.updated event for every applied change.
func WithActivityHooks(hooks ...activity.Hook) WindowOption {
	return func(cfg *windowConfig) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// WithActivityChannel overrides the default "settings" activity channel.
func WithActivityChannel(channel string) WindowOption {
	return func(cfg *windowConfig) {
		cfg.channel = channel
	}
}

// WithRuleEngine selects the display rule engine. The default is expr.
func WithRuleEngine(engine Engine) WindowOption {
	return func(cfg *windowConfig) {
		cfg.engine = engine
	}
}

// WithEvaluator installs a custom evaluator and takes precedence over
// WithRuleEngine.
func WithEvaluator(evaluator Evaluator) WindowOption {
	return func(cfg *windowConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache shares compiled rules between windows.
func WithProgramCache(cache ProgramCache) WindowOption {
	return func(cfg *windowConfig) {
		cfg.cache = cache
	}
}

// WithRuleHelpers replaces the helpers bound into display rules. Start from
// NewHelpers to keep the built-ins.
func WithRuleHelpers(helpers *Helpers) WindowOption {
	return func(cfg *windowConfig) {
		cfg.helpers = helpers
	}
}

// WithListenerOptions forwards options to the change listener.
func WithListenerOptions(opts ...ListenerOption) WindowOption {
	return func(cfg *windowConfig) {
		cfg.listenerOpts = append(cfg.listenerOpts, opts...)
	}
}

// Window is one window's view of the shared settings: its snapshot, the
// listener that keeps it in sync with other windows, and the local edit
// entry points.
type Window struct {
	id          string
	kind        WindowKind
	transparent bool
	logger      *slog.Logger

	codec     *Codec
	state     *State
	listener  *Listener
	game      GameStatus
	publisher *activity.Publisher
	evaluator Evaluator

	mu          sync.Mutex
	catalog     Catalog
	mounted     bool
	gameRunning bool
	frameMenu   bool
	unsubGame   func()
}

// NewWindow reads every flat setting from store and returns an unmounted
// window. Icon settings stay unset until LoadCatalog.
func NewWindow(store kv.Shared, opts ...WindowOption) (*Window, error) {
	if store == nil {
		return nil, errors.New("settings: window requires a store")
	}
	cfg := windowConfig{
		kind:   WindowDesktop,
		logger: discardLogger(),
		engine: EngineExpr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		var err error
		evaluator, err = NewEvaluator(cfg.engine, EvalCache(cfg.cache), EvalHelpers(cfg.helpers))
		if err != nil {
			return nil, err
		}
	}

	logger := cfg.logger.With(slog.String("window", cfg.id), slog.String("kind", string(cfg.kind)))
	w := &Window{
		id:          cfg.id,
		kind:        cfg.kind,
		transparent: cfg.transparent,
		logger:      logger,
		codec:       NewCodec(store, WithCodecLogger(logger)),
		game:        cfg.game,
		publisher:   activity.NewPublisher(cfg.channel, cfg.hooks...),
		evaluator:   evaluator,
	}
	w.state = NewState(NewSnapshot(w.codec.LoadFlat(), nil))

	listenerOpts := []ListenerOption{
		WithListenerLogger(logger),
		WithCategoryDefault(w.categoryDefault),
		WithAppliedHook(func(key string, value any) {
			w.publish(activity.OriginRemote, key, nil, value)
		}),
	}
	w.listener = NewListener(w.state, w.codec, store, append(listenerOpts, cfg.listenerOpts...)...)
	return w, nil
}

func (w *Window) ID() string               { return w.id }
func (w *Window) Kind() WindowKind         { return w.kind }
func (w *Window) TransparentSurface() bool { return w.transparent }

// State returns the window's state store.
func (w *Window) State() *State { return w.state }

// Snapshot returns the current snapshot.
func (w *Window) Snapshot() *Snapshot { return w.state.Current() }

// Listener returns the change listener, mainly so tests can drive it.
func (w *Window) Listener() *Listener { return w.listener }

// Codec returns the codec bound to the window's store.
func (w *Window) Codec() *Codec { return w.codec }

// Observe registers fn for snapshot changes.
func (w *Window) Observe(fn Observer) func() { return w.state.Observe(fn) }

// Mount starts the change listener and mirrors the game status. Mounting a
// mounted window is a no-op.
func (w *Window) Mount() {
	w.mu.Lock()
	if w.mounted {
		w.mu.Unlock()
		return
	}
	w.mounted = true
	w.mu.Unlock()

	w.listener.Start()
	if w.game == nil {
		return
	}
	unsubscribe := w.game.Subscribe(w.setGameRunning)
	w.mu.Lock()
	w.unsubGame = unsubscribe
	w.mu.Unlock()
	w.setGameRunning(w.game.Running())
}

// Close stops the listener and the game subscription. No notification is
// applied to the window after Close returns.
func (w *Window) Close() {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return
	}
	w.mounted = false
	unsubscribe := w.unsubGame
	w.unsubGame = nil
	w.mu.Unlock()

	w.listener.Stop()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether the window is between Mount and Close.
func (w *Window) Mounted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mounted
}

// Update applies a local edit of flat settings: the snapshot changes first,
// then every listed setting is written to the store so other windows see it.
// An invalid patch is rejected as a whole before anything changes.
func (w *Window) Update(p Patch) error {
	valid, err := p.Validate()
	if err != nil {
		localWritesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	prev := w.state.Current()
	w.state.Apply(valid)

	var errs []error
	for _, def := range definitions {
		value, ok := valid[def.Setting]
		if !ok {
			continue
		}
		old, _ := prev.Value(def.Setting)
		err := w.persist(FlatKey(def.Setting), old, value, old != value, func() error {
			return w.codec.WriteFlat(def.Setting, value)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetCategoryVisible applies a category flag locally, then stores it. The
// write lands even when the category is not in this window's tree.
func (w *Window) SetCategoryVisible(category string, visible bool) error {
	changed := w.state.ApplyIconCategoryVisibility(category, visible)
	return w.persist(CategoryKey(category), nil, visible, changed, func() error {
		return w.codec.WriteCategoryVisible(category, visible)
	})
}

// SetTypeVisible applies a type flag to category locally, then stores it.
// Type keys are global, so other windows resolve the category themselves.
func (w *Window) SetTypeVisible(category, typeName string, visible bool) error {
	changed := w.state.ApplyIconTypeVisibility(category, typeName, visible)
	return w.persist(TypeKey(typeName), nil, visible, changed, func() error {
		return w.codec.WriteTypeVisible(typeName, visible)
	})
}

// persist is the second half of every local edit. The snapshot has already
// changed; a failed write is logged and returned but not rolled back, and the
// edit is only reported to activity hooks once other windows can see it.
func (w *Window) persist(key string, old, value any, changed bool, write func() error) error {
	err := write()
	recordLocalWrite(err)
	if err != nil {
		w.logger.Warn("settings: persist failed", slog.String("key", key), slog.String("error", err.Error()))
		return err
	}
	if changed {
		w.publish(activity.OriginLocal, key, old, value)
	}
	return nil
}

// LoadCatalog builds the icon tree from catalog and the stored flags, and
// installs it. Later notifications for its categories and types apply.
func (w *Window) LoadCatalog(catalog Catalog) *IconSettings {
	w.mu.Lock()
	w.catalog = catalog
	w.mu.Unlock()

	icons := BuildIcons(w.codec, catalog)
	w.state.SetIcons(icons)

	types := 0
	for _, c := range icons.Categories() {
		types += c.Len()
	}
	w.logger.Info("settings: icon catalog loaded",
		slog.Int("categories", icons.Len()), slog.Int("types", types))
	if err := w.publisher.Publish(context.Background(), activity.CatalogLoaded(w.id, icons.Len(), types)); err != nil {
		w.logger.Warn("settings: activity hook failed", slog.String("error", err.Error()))
	}
	return icons
}

func (w *Window) categoryDefault(category string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.catalog.CategoryDefault(category)
}

// GameRunning mirrors the injected game status while mounted.
func (w *Window) GameRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gameRunning
}

func (w *Window) setGameRunning(running bool) {
	w.mu.Lock()
	w.gameRunning = running
	w.mu.Unlock()
}

// ToggleFrameMenu flips the settings menu visibility and returns the new value.
func (w *Window) ToggleFrameMenu() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frameMenu = !w.frameMenu
	return w.frameMenu
}

func (w *Window) FrameMenuVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frameMenu
}

// SurfaceOpacity is the opacity the window should draw with: the overlay
// opacity setting on transparent surfaces, fully opaque otherwise.
func (w *Window) SurfaceOpacity() float64 {
	if !w.transparent {
		return 1
	}
	return w.Snapshot().Flat().Opacity
}

// RuleScope returns what display rules see in this window right now.
func (w *Window) RuleScope() RuleScope {
	return RuleScope{
		Snapshot: w.Snapshot(),
		Window: WindowFacts{
			ID:               w.id,
			Kind:             w.kind,
			Transparent:      w.transparent,
			FrameMenuVisible: w.FrameMenuVisible(),
		},
		GameRunning: w.GameRunning(),
	}
}

// Evaluate runs a display rule against the window's current scope.
func (w *Window) Evaluate(rule string) (any, error) {
	if w.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	scope := w.RuleScope()
	engine := evaluatorEngine(w.evaluator)
	start := time.Now()
	value, err := w.evaluator.Evaluate(scope, rule)
	ruleEvalDuration.WithLabelValues(string(engine)).Observe(time.Since(start).Seconds())
	if err != nil {
		err = ruleError(engine, rule, scope, err)
		w.logger.Debug("settings: rule failed", slog.String("rule", rule), slog.String("error", err.Error()))
		return nil, err
	}
	return value, nil
}

// Check runs a display rule that must yield a boolean.
func (w *Window) Check(rule string) (bool, error) {
	value, err := w.Evaluate(rule)
	if err != nil {
		return false, err
	}
	result, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q yielded %T", ErrNotBoolean, rule, value)
	}
	return result, nil
}

// publish reports an applied value to the activity hooks. Shapes are sent as
// their CSS text.
func (w *Window) publish(origin activity.Origin, key string, old, value any) {
	if !w.publisher.Enabled() {
		return
	}
	if shape, ok := value.(OverlayShape); ok {
		value = string(shape)
	}
	if shape, ok := old.(OverlayShape); ok {
		old = string(shape)
	}
	event := activity.SettingUpdated(w.id, key, origin, old, value)
	if err := w.publisher.Publish(context.Background(), event); err != nil {
		w.logger.Warn("settings: activity hook failed", slog.String("error", err.Error()))
	}
}
