package settings

import (
	"errors"
	"fmt"
)

// RuleError reports a display rule that failed to compile or evaluate, and
// where.
type RuleError struct {
	Engine Engine
	Rule   string
	Window string
	Err    error
}

func (e *RuleError) Error() string {
	window := e.Window
	if window == "" {
		window = "-"
	}
	return fmt.Sprintf("settings: %s rule %q in window %s: %v", e.Engine, e.Rule, window, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// ruleError tags err with the engine, rule and window it came from. An error
// that already is a RuleError only has its blank fields filled, so a helper
// failure surfacing through an engine keeps the innermost description.
func ruleError(engine Engine, rule string, scope RuleScope, err error) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Rule == "" {
			ruleErr.Rule = rule
		}
		if ruleErr.Window == "" {
			ruleErr.Window = scope.Window.ID
		}
		return ruleErr
	}
	return &RuleError{Engine: engine, Rule: rule, Window: scope.Window.ID, Err: err}
}
