package settings

import (
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs rules with github.com/expr-lang/expr. Rules are checked
// against the rule variables and helper signatures, so a misspelled setting
// fails at compile time.
type exprEvaluator struct {
	cache   ProgramCache
	helpers *Helpers
}

// NewExprEvaluator returns the default rule engine.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := newEvaluatorConfig(opts)
	return &exprEvaluator{cache: cfg.cache, helpers: cfg.helpers}
}

func (e *exprEvaluator) Evaluate(scope RuleScope, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, ruleError(EngineExpr, rule, scope, err)
	}
	return compiled.Evaluate(scope)
}

func (e *exprEvaluator) Compile(rule string) (CompiledRule, error) {
	if strings.TrimSpace(rule) == "" {
		return nil, ruleError(EngineExpr, rule, RuleScope{}, ErrEmptyRule)
	}
	key := "expr:" + e.helpers.signature() + ":" + rule
	if cached, ok := e.cache.Get(key); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return &exprRule{helpers: e.helpers, program: program, rule: rule}, nil
		}
	}
	program, err := exprlang.Compile(rule, exprlang.Env(exprEnv(e.helpers, RuleScope{})))
	if err != nil {
		return nil, ruleError(EngineExpr, rule, RuleScope{}, err)
	}
	e.cache.Set(key, program)
	return &exprRule{helpers: e.helpers, program: program, rule: rule}, nil
}

// exprEnv binds the scope's variables and the helpers closed over it.
func exprEnv(helpers *Helpers, scope RuleScope) map[string]any {
	scope = scope.resolved()
	env := scope.Vars()
	for name, fn := range helpers.bind(scope) {
		env[name] = fn
	}
	return env
}

type exprRule struct {
	helpers *Helpers
	program *exprvm.Program
	rule    string
}

func (r *exprRule) Evaluate(scope RuleScope) (any, error) {
	result, err := exprlang.Run(r.program, exprEnv(r.helpers, scope))
	if err != nil {
		return nil, ruleError(EngineExpr, r.rule, scope, err)
	}
	return result, nil
}
