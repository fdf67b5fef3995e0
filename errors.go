package settings

import "errors"

var (
	// ErrUnknownSetting is returned when a flat setting identifier is not in
	// the definition table.
	ErrUnknownSetting = errors.New("settings: unknown setting")
	// ErrInvalidValue is returned when a local edit carries a value of the
	// wrong type or outside the allowed set.
	ErrInvalidValue = errors.New("settings: invalid value")
	// ErrNoEvaluator is returned by rule evaluation when no engine is set.
	ErrNoEvaluator = errors.New("settings: evaluator not configured")
	// ErrNotBoolean is returned by Check when a rule yields a non-boolean.
	ErrNotBoolean = errors.New("settings: rule did not evaluate to a boolean")
	// ErrEmptyRule is returned for a blank display rule.
	ErrEmptyRule = errors.New("settings: rule must not be empty")
	// ErrUnknownEngine is returned for an engine name NewEvaluator does not know.
	ErrUnknownEngine = errors.New("settings: unknown rule engine")
	// ErrEngineUnavailable is returned for an engine not compiled into the
	// binary (js without the js_eval build tag).
	ErrEngineUnavailable = errors.New("settings: rule engine unavailable")
	ErrUnknownHelper     = errors.New("settings: unknown rule helper")
	ErrHelperExists      = errors.New("settings: rule helper already defined")
	ErrHelperArity       = errors.New("settings: wrong number of helper arguments")
)
