package settings

import (
	"strings"
	"sync"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celEvaluator runs rules with cel-go. Rules are checked once against an
// environment that declares the rule variables and the helper signatures;
// each evaluation extends it with the helpers bound to that scope.
type celEvaluator struct {
	cache   ProgramCache
	helpers *Helpers

	once    sync.Once
	base    *celgo.Env
	baseErr error
}

// NewCELEvaluator returns an evaluator for CEL rules. Every variable is
// declared dyn.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := newEvaluatorConfig(opts)
	return &celEvaluator{cache: cfg.cache, helpers: cfg.helpers}
}

func (e *celEvaluator) Evaluate(scope RuleScope, rule string) (any, error) {
	compiled, err := e.Compile(rule)
	if err != nil {
		return nil, ruleError(EngineCEL, rule, scope, err)
	}
	return compiled.Evaluate(scope)
}

func (e *celEvaluator) Compile(rule string) (CompiledRule, error) {
	if strings.TrimSpace(rule) == "" {
		return nil, ruleError(EngineCEL, rule, RuleScope{}, ErrEmptyRule)
	}
	env, err := e.env()
	if err != nil {
		return nil, ruleError(EngineCEL, rule, RuleScope{}, err)
	}
	key := "cel:" + e.helpers.signature() + ":" + rule
	if cached, ok := e.cache.Get(key); ok {
		if ast, ok := cached.(*celgo.Ast); ok {
			return &celRule{evaluator: e, ast: ast, rule: rule}, nil
		}
	}
	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, ruleError(EngineCEL, rule, RuleScope{}, issues.Err())
	}
	e.cache.Set(key, ast)
	return &celRule{evaluator: e, ast: ast, rule: rule}, nil
}

func (e *celEvaluator) env() (*celgo.Env, error) {
	e.once.Do(func() {
		opts := make([]celgo.EnvOption, 0, len(ruleVarNames()))
		for _, name := range ruleVarNames() {
			opts = append(opts, celgo.Variable(name, celgo.DynType))
		}
		for _, entry := range e.helpers.entries() {
			opts = append(opts, celHelper(entry, nil))
		}
		e.base, e.baseErr = celgo.NewEnv(opts...)
	})
	return e.base, e.baseErr
}

// celHelper declares entry with one dyn parameter per argument. With a nil
// bound function the declaration carries no implementation, which is enough
// for type checking.
func celHelper(entry helper, bound func(...any) (any, error)) celgo.EnvOption {
	params := make([]*celgo.Type, entry.arity)
	for i := range params {
		params[i] = celgo.DynType
	}
	var overload []celgo.OverloadOpt
	if bound != nil {
		overload = append(overload, celgo.FunctionBinding(func(args ...ref.Val) ref.Val {
			native := make([]any, len(args))
			for i, arg := range args {
				native[i] = arg.Value()
			}
			result, err := bound(native...)
			if err != nil {
				return types.WrapErr(err)
			}
			if result == nil {
				return types.NullValue
			}
			return types.DefaultTypeAdapter.NativeToValue(result)
		}))
	}
	return celgo.Function(entry.name,
		celgo.Overload("settings_"+entry.name, params, celgo.DynType, overload...))
}

type celRule struct {
	evaluator *celEvaluator
	ast       *celgo.Ast
	rule      string
}

func (r *celRule) Evaluate(scope RuleScope) (any, error) {
	scope = scope.resolved()
	base, err := r.evaluator.env()
	if err != nil {
		return nil, ruleError(EngineCEL, r.rule, scope, err)
	}
	bound := r.evaluator.helpers.bind(scope)
	opts := make([]celgo.EnvOption, 0, len(bound))
	for _, entry := range r.evaluator.helpers.entries() {
		opts = append(opts, celHelper(entry, bound[entry.name]))
	}
	env, err := base.Extend(opts...)
	if err != nil {
		return nil, ruleError(EngineCEL, r.rule, scope, err)
	}
	program, err := env.Program(r.ast)
	if err != nil {
		return nil, ruleError(EngineCEL, r.rule, scope, err)
	}
	out, _, err := program.Eval(scope.Vars())
	if err != nil {
		return nil, ruleError(EngineCEL, r.rule, scope, err)
	}
	return out.Value(), nil
}
