//go:build js_eval

package settings

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// jsEvaluator runs rules as JavaScript expressions with goja. Each
// evaluation gets a fresh runtime holding the scope's variables and helpers.
type jsEvaluator struct {
	cache   ProgramCache
	helpers *Helpers
}

// NewJSEvaluator returns an evaluator for JavaScript rules.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := newEvaluatorConfig(opts)
	return &jsEvaluator{cache: cfg.cache, helpers: cfg.helpers}
}

func (e *jsEvaluator) Evaluate(scope RuleScope, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, ruleError(EngineJS, rule, scope, err)
	}
	return compiled.Evaluate(scope)
}

func (e *jsEvaluator) Compile(rule string) (CompiledRule, error) {
	if strings.TrimSpace(rule) == "" {
		return nil, ruleError(EngineJS, rule, RuleScope{}, ErrEmptyRule)
	}
	key := "js:" + rule
	if cached, ok := e.cache.Get(key); ok {
		if program, ok := cached.(*goja.Program); ok {
			return &jsRule{helpers: e.helpers, program: program, rule: rule}, nil
		}
	}
	program, err := goja.Compile("rule", fmt.Sprintf("(function(){ return (%s); })()", rule), true)
	if err != nil {
		return nil, ruleError(EngineJS, rule, RuleScope{}, err)
	}
	e.cache.Set(key, program)
	return &jsRule{helpers: e.helpers, program: program, rule: rule}, nil
}

type jsRule struct {
	helpers *Helpers
	program *goja.Program
	rule    string
}

func (r *jsRule) Evaluate(scope RuleScope) (any, error) {
	scope = scope.resolved()
	vm := goja.New()
	for name, value := range scope.Vars() {
		if err := vm.Set(name, value); err != nil {
			return nil, ruleError(EngineJS, r.rule, scope, err)
		}
	}
	for name, fn := range r.helpers.bind(scope) {
		if err := vm.Set(name, fn); err != nil {
			return nil, ruleError(EngineJS, r.rule, scope, err)
		}
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, ruleError(EngineJS, r.rule, scope, err)
	}
	return value.Export(), nil
}

func jsEvaluatorAvailable() bool { return true }

func isJSEvaluator(e Evaluator) bool {
	_, ok := e.(*jsEvaluator)
	return ok
}
