package settings

import (
	"errors"
	"strings"
	"testing"
)

func TestRuleErrorTagsWindowAndRule(t *testing.T) {
	base := errors.New("boom")
	err := ruleError(EngineExpr, "showText && missing", RuleScope{Window: WindowFacts{ID: "overlay"}}, base)

	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected RuleError, got %T", err)
	}
	if ruleErr.Engine != EngineExpr || ruleErr.Rule != "showText && missing" || ruleErr.Window != "overlay" {
		t.Fatalf("unexpected fields %+v", ruleErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected the cause to unwrap")
	}
	if msg := err.Error(); !strings.Contains(msg, `expr rule "showText && missing" in window overlay`) {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRuleErrorFillsOnlyBlanks(t *testing.T) {
	inner := &RuleError{Engine: EngineCEL, Err: ErrEmptyRule}
	err := ruleError(EngineExpr, "icons.x", RuleScope{Window: WindowFacts{ID: "desktop"}}, inner)

	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || ruleErr != inner {
		t.Fatalf("expected the existing RuleError back, got %v", err)
	}
	if ruleErr.Engine != EngineCEL || ruleErr.Rule != "icons.x" || ruleErr.Window != "desktop" {
		t.Fatalf("unexpected fields %+v", ruleErr)
	}
	if ruleError(EngineExpr, "x", RuleScope{}, nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	if msg := (&RuleError{Engine: EngineJS, Rule: "1", Err: ErrNotBoolean}).Error(); !strings.Contains(msg, "in window -") {
		t.Fatalf("expected a placeholder window, got %q", msg)
	}
}

func TestRuleScopeVars(t *testing.T) {
	vars := RuleScope{Window: WindowFacts{ID: "w", Kind: WindowInGame}, GameRunning: true}.Vars()
	for _, name := range ruleVarNames() {
		if _, ok := vars[name]; !ok {
			t.Fatalf("missing rule variable %q", name)
		}
	}
	if vars["iconsLoaded"] != false || vars["gameRunning"] != true {
		t.Fatalf("unexpected vars %+v", vars)
	}
	window := vars["window"].(map[string]any)
	if window["kind"] != "inGame" || window["id"] != "w" {
		t.Fatalf("unexpected window vars %+v", window)
	}
}
