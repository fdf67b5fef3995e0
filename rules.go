package settings

import (
	"fmt"
	"strings"
	"time"
)

// Engine names a display rule engine.
type Engine string

const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
	EngineJS   Engine = "js"
)

// ParseEngine maps a config value to an Engine. The empty string selects expr.
func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(name))) {
	case "", EngineExpr:
		return EngineExpr, nil
	case EngineCEL:
		return EngineCEL, nil
	case EngineJS:
		return EngineJS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// WindowFacts are the window properties a display rule can read as
// window.id, window.kind, window.transparent and window.frameMenuVisible.
type WindowFacts struct {
	ID               string
	Kind             WindowKind
	Transparent      bool
	FrameMenuVisible bool
}

func (f WindowFacts) vars() map[string]any {
	return map[string]any{
		"id":               f.ID,
		"kind":             string(f.Kind),
		"transparent":      f.Transparent,
		"frameMenuVisible": f.FrameMenuVisible,
	}
}

// RuleScope is what one evaluation of a display rule runs against. A nil
// Snapshot reads as the defaults with no icon tree; a zero Now is the time of
// evaluation.
type RuleScope struct {
	Snapshot    *Snapshot
	Window      WindowFacts
	GameRunning bool
	Now         time.Time
}

func (s RuleScope) snapshot() *Snapshot {
	if s.Snapshot == nil {
		return DefaultSnapshot()
	}
	return s.Snapshot
}

func (s RuleScope) resolved() RuleScope {
	s.Snapshot = s.snapshot()
	if s.Now.IsZero() {
		s.Now = time.Now()
	}
	return s
}

// Vars returns the variables bound for a rule: every flat setting by its
// storage key, the icon tree as icons, iconsLoaded, gameRunning, window and
// now.
func (s RuleScope) Vars() map[string]any {
	s = s.resolved()
	vars := s.Snapshot.Env()
	vars["gameRunning"] = s.GameRunning
	vars["window"] = s.Window.vars()
	vars["now"] = s.Now
	return vars
}

// ruleVarNames lists the names Vars always binds.
func ruleVarNames() []string {
	names := make([]string, 0, len(definitions)+5)
	for _, def := range definitions {
		names = append(names, string(def.Setting))
	}
	return append(names, "icons", "iconsLoaded", "gameRunning", "window", "now")
}

// Evaluator runs display rules against a window's scope.
type Evaluator interface {
	Evaluate(scope RuleScope, rule string) (any, error)
	Compile(rule string) (CompiledRule, error)
}

// CompiledRule is a rule compiled once and evaluated against many scopes.
type CompiledRule interface {
	Evaluate(scope RuleScope) (any, error)
}

type evaluatorConfig struct {
	cache   ProgramCache
	helpers *Helpers
}

// EvaluatorOption configures any of the rule engines.
type EvaluatorOption func(*evaluatorConfig)

// EvalCache stores compiled rules in cache, which may be shared between
// evaluators and windows.
func EvalCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// EvalHelpers replaces the built-in helper set. The helpers are copied, so
// later registrations on h do not reach the evaluator.
func EvalHelpers(h *Helpers) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if h != nil {
			cfg.helpers = h.Clone()
		}
	}
}

func newEvaluatorConfig(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.helpers == nil {
		cfg.helpers = NewHelpers()
	}
	if cfg.cache == nil {
		cfg.cache = NewMemoryProgramCache()
	}
	return cfg
}

// NewEvaluator builds the evaluator for engine.
func NewEvaluator(engine Engine, opts ...EvaluatorOption) (Evaluator, error) {
	switch engine {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, engine)
		}
		return NewJSEvaluator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

func evaluatorEngine(e Evaluator) Engine {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	default:
		if isJSEvaluator(e) {
			return EngineJS
		}
		return "custom"
	}
}
