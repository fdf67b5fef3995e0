package settings

import "sort"

// IconType is the visibility leaf of the icon tree. Values are immutable;
// updates produce new values.
type IconType struct {
	name        string
	displayName string
	visible     bool
}

// NewIconType builds a type leaf.
func NewIconType(name, displayName string, visible bool) *IconType {
	return &IconType{name: name, displayName: displayName, visible: visible}
}

func (t *IconType) Name() string        { return t.name }
func (t *IconType) DisplayName() string { return t.displayName }
func (t *IconType) Visible() bool       { return t.visible }

// IconCategory groups icon types under one visibility flag.
type IconCategory struct {
	name        string
	displayName string
	visible     bool
	order       []string
	types       map[string]*IconType
}

// NewIconCategory builds a category. Types are ordered by name; nil entries
// and repeated names (after the first) are dropped.
func NewIconCategory(name, displayName string, visible bool, types ...*IconType) *IconCategory {
	c := &IconCategory{
		name:        name,
		displayName: displayName,
		visible:     visible,
		types:       make(map[string]*IconType, len(types)),
	}
	for _, t := range types {
		if t == nil {
			continue
		}
		if _, dup := c.types[t.name]; dup {
			continue
		}
		c.types[t.name] = t
		c.order = append(c.order, t.name)
	}
	sort.Strings(c.order)
	return c
}

func (c *IconCategory) Name() string        { return c.name }
func (c *IconCategory) DisplayName() string { return c.displayName }
func (c *IconCategory) Visible() bool       { return c.visible }
func (c *IconCategory) Len() int            { return len(c.order) }

// Type returns the named type.
func (c *IconCategory) Type(name string) (*IconType, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.types[name]
	return t, ok
}

// Types returns the types in name order.
func (c *IconCategory) Types() []*IconType {
	out := make([]*IconType, len(c.order))
	for i, name := range c.order {
		out[i] = c.types[name]
	}
	return out
}

func (c *IconCategory) withVisible(visible bool) *IconCategory {
	next := *c
	next.visible = visible
	return &next
}

func (c *IconCategory) withTypeVisible(typeName string, visible bool) *IconCategory {
	current := c.types[typeName]
	types := make(map[string]*IconType, len(c.types))
	for name, t := range c.types {
		types[name] = t
	}
	leaf := *current
	leaf.visible = visible
	types[typeName] = &leaf

	next := *c
	next.types = types
	return &next
}

// IconSettings is the runtime-populated category tree. The zero of a
// window's tree is nil: the catalog has not been loaded yet.
type IconSettings struct {
	order      []string
	categories map[string]*IconCategory
}

// NewIconSettings builds a tree. Categories are ordered by name; nil entries
// and repeated names (after the first) are dropped.
func NewIconSettings(categories ...*IconCategory) *IconSettings {
	s := &IconSettings{categories: make(map[string]*IconCategory, len(categories))}
	for _, c := range categories {
		if c == nil {
			continue
		}
		if _, dup := s.categories[c.name]; dup {
			continue
		}
		s.categories[c.name] = c
		s.order = append(s.order, c.name)
	}
	sort.Strings(s.order)
	return s
}

// Len returns the number of categories.
func (s *IconSettings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Category returns the named category.
func (s *IconSettings) Category(name string) (*IconCategory, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.categories[name]
	return c, ok
}

// Categories returns the categories in name order.
func (s *IconSettings) Categories() []*IconCategory {
	if s == nil {
		return nil
	}
	out := make([]*IconCategory, len(s.order))
	for i, name := range s.order {
		out[i] = s.categories[name]
	}
	return out
}

// CategoryOfType returns the first category, in name order, that contains
// typeName. Type keys are not qualified by category, so when two categories
// define the same type name the first one wins.
func (s *IconSettings) CategoryOfType(typeName string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, name := range s.order {
		if _, ok := s.categories[name].types[typeName]; ok {
			return name, true
		}
	}
	return "", false
}

// WithCategoryVisible returns a tree with one category flag replaced. Every
// other category is shared with s. It returns s itself when the category is
// absent or already has that value.
func (s *IconSettings) WithCategoryVisible(category string, visible bool) *IconSettings {
	current, ok := s.Category(category)
	if !ok || current.visible == visible {
		return s
	}
	return s.replace(current.withVisible(visible))
}

// WithTypeVisible returns a tree with one type flag replaced, sharing every
// other category and every sibling type. It returns s itself when the
// category or type is absent or already has that value.
func (s *IconSettings) WithTypeVisible(category, typeName string, visible bool) *IconSettings {
	current, ok := s.Category(category)
	if !ok {
		return s
	}
	leaf, ok := current.types[typeName]
	if !ok || leaf.visible == visible {
		return s
	}
	return s.replace(current.withTypeVisible(typeName, visible))
}

func (s *IconSettings) replace(category *IconCategory) *IconSettings {
	categories := make(map[string]*IconCategory, len(s.categories))
	for name, c := range s.categories {
		categories[name] = c
	}
	categories[category.name] = category
	return &IconSettings{order: s.order, categories: categories}
}

// Map renders the tree as nested maps for rule evaluation:
// {category: {"visible": bool, "types": {type: bool}}}.
func (s *IconSettings) Map() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		c := s.categories[name]
		types := make(map[string]any, len(c.order))
		for _, t := range c.order {
			types[t] = c.types[t].visible
		}
		out[name] = map[string]any{"visible": c.visible, "types": types}
	}
	return out
}
