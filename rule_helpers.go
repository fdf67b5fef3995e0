package settings

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Helper is a function display rules can call by name. It reads the scope of
// the evaluation that called it, so categoryVisible("npc") answers for the
// window the rule runs in.
type Helper func(scope RuleScope, args ...any) (any, error)

type helper struct {
	name  string
	arity int
	fn    Helper
}

// Helpers is the set of functions bound into display rules. NewHelpers
// returns the built-ins:
//
//	categoryVisible(category)  the category flag, false when not in the tree
//	typeVisible(type)          the type flag, found through its category
//	iconShown(type)            typeVisible and the flag of its category
//	setting(key)               a flat setting by storage key
type Helpers struct {
	mu     sync.RWMutex
	byName map[string]helper
}

var helperName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewHelpers returns the built-in helpers.
func NewHelpers() *Helpers {
	h := &Helpers{byName: map[string]helper{}}
	h.byName["categoryVisible"] = helper{name: "categoryVisible", arity: 1, fn: categoryVisibleHelper}
	h.byName["typeVisible"] = helper{name: "typeVisible", arity: 1, fn: typeVisibleHelper}
	h.byName["iconShown"] = helper{name: "iconShown", arity: 1, fn: iconShownHelper}
	h.byName["setting"] = helper{name: "setting", arity: 1, fn: settingHelper}
	return h
}

// Register adds fn under name, taking exactly arity arguments. Names must be
// identifiers and may not shadow a rule variable or another helper.
func (h *Helpers) Register(name string, arity int, fn Helper) error {
	if fn == nil {
		return fmt.Errorf("settings: helper %q is nil", name)
	}
	if !helperName.MatchString(name) {
		return fmt.Errorf("settings: helper name %q is not an identifier", name)
	}
	if arity < 0 {
		return fmt.Errorf("settings: helper %q has negative arity", name)
	}
	for _, v := range ruleVarNames() {
		if v == name {
			return fmt.Errorf("%w: %q is a rule variable", ErrHelperExists, name)
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrHelperExists, name)
	}
	h.byName[name] = helper{name: name, arity: arity, fn: fn}
	return nil
}

// Clone returns an independent copy.
func (h *Helpers) Clone() *Helpers {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clone := &Helpers{byName: make(map[string]helper, len(h.byName))}
	for name, entry := range h.byName {
		clone.byName[name] = entry
	}
	return clone
}

// Call runs the helper registered under name against scope.
func (h *Helpers) Call(scope RuleScope, name string, args ...any) (any, error) {
	h.mu.RLock()
	entry, ok := h.byName[name]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHelper, name)
	}
	return entry.call(scope.resolved(), args)
}

// Names returns the helper names sorted alphabetically.
func (h *Helpers) Names() []string {
	entries := h.entries()
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.name
	}
	return names
}

// signature identifies the helper set in compiled rule cache keys, since a
// rule is checked against the helpers' names and arities.
func (h *Helpers) signature() string {
	var b strings.Builder
	for i, entry := range h.entries() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s/%d", entry.name, entry.arity)
	}
	return b.String()
}

func (h *Helpers) entries() []helper {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]helper, 0, len(h.byName))
	for _, entry := range h.byName {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// bind closes every helper over scope for engines that take plain Go
// functions.
func (h *Helpers) bind(scope RuleScope) map[string]func(...any) (any, error) {
	entries := h.entries()
	bound := make(map[string]func(...any) (any, error), len(entries))
	for _, entry := range entries {
		bound[entry.name] = func(args ...any) (any, error) {
			return entry.call(scope, args)
		}
	}
	return bound
}

func (e helper) call(scope RuleScope, args []any) (any, error) {
	if len(args) != e.arity {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrHelperArity, e.name, e.arity, len(args))
	}
	return e.fn(scope, args...)
}

func stringArg(fn string, arg any) (string, error) {
	s, ok := arg.(string)
	if !ok {
		return "", fmt.Errorf("settings: %s expects a string, got %T", fn, arg)
	}
	return s, nil
}

func categoryVisibleHelper(scope RuleScope, args ...any) (any, error) {
	name, err := stringArg("categoryVisible", args[0])
	if err != nil {
		return nil, err
	}
	category, ok := scope.snapshot().Icons().Category(name)
	return ok && category.Visible(), nil
}

func typeVisibleHelper(scope RuleScope, args ...any) (any, error) {
	name, err := stringArg("typeVisible", args[0])
	if err != nil {
		return nil, err
	}
	_, visible := iconFlags(scope.snapshot().Icons(), name)
	return visible, nil
}

func iconShownHelper(scope RuleScope, args ...any) (any, error) {
	name, err := stringArg("iconShown", args[0])
	if err != nil {
		return nil, err
	}
	categoryVisible, typeVisible := iconFlags(scope.snapshot().Icons(), name)
	return categoryVisible && typeVisible, nil
}

// iconFlags resolves a type to its category and reports both flags. A type
// missing from the tree reads as hidden.
func iconFlags(icons *IconSettings, typeName string) (categoryVisible, typeVisible bool) {
	categoryName, ok := icons.CategoryOfType(typeName)
	if !ok {
		return false, false
	}
	category, _ := icons.Category(categoryName)
	t, _ := category.Type(typeName)
	return category.Visible(), t.Visible()
}

func settingHelper(scope RuleScope, args ...any) (any, error) {
	key, err := stringArg("setting", args[0])
	if err != nil {
		return nil, err
	}
	value, ok := scope.snapshot().Value(Setting(key))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if shape, ok := value.(OverlayShape); ok {
		return string(shape), nil
	}
	return value, nil
}
