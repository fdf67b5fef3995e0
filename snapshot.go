package settings

// Snapshot is one version of a window's settings: every flat setting plus the
// icon tree, which stays nil until a catalog is loaded. Snapshots are never
// modified; every update returns a new snapshot that shares what did not
// change.
type Snapshot struct {
	flat  Flat
	icons *IconSettings
}

// NewSnapshot builds a snapshot.
func NewSnapshot(flat Flat, icons *IconSettings) *Snapshot {
	return &Snapshot{flat: flat, icons: icons}
}

// DefaultSnapshot returns the defaults with no icon tree.
func DefaultSnapshot() *Snapshot {
	return NewSnapshot(DefaultFlat(), nil)
}

// Flat returns a copy of the flat settings.
func (s *Snapshot) Flat() Flat { return s.flat }

// Icons returns the icon tree, or nil when the catalog is not loaded.
func (s *Snapshot) Icons() *IconSettings { return s.icons }

// Value returns the current value of a flat setting.
func (s *Snapshot) Value(setting Setting) (any, bool) {
	return s.flat.Get(setting)
}

// Apply replaces the settings listed in p. The icon tree is carried over by
// reference. s is returned unchanged when p changes nothing.
func (s *Snapshot) Apply(p Patch) *Snapshot {
	flat, changed := s.flat.Merge(p)
	if !changed {
		return s
	}
	return &Snapshot{flat: flat, icons: s.icons}
}

// WithIcons replaces the whole icon tree.
func (s *Snapshot) WithIcons(icons *IconSettings) *Snapshot {
	if icons == s.icons {
		return s
	}
	return &Snapshot{flat: s.flat, icons: icons}
}

// ApplyIconCategoryVisibility replaces one category flag. It is a no-op when
// the category is not in the tree (or the tree is not loaded).
func (s *Snapshot) ApplyIconCategoryVisibility(category string, visible bool) *Snapshot {
	return s.WithIcons(s.icons.WithCategoryVisible(category, visible))
}

// ApplyIconTypeVisibility replaces one type flag. It is a no-op when the
// category or type is not in the tree.
func (s *Snapshot) ApplyIconTypeVisibility(category, typeName string, visible bool) *Snapshot {
	return s.WithIcons(s.icons.WithTypeVisible(category, typeName, visible))
}

// Env flattens the snapshot into the variables visible to display rules.
func (s *Snapshot) Env() map[string]any {
	env := s.flat.Map()
	env["icons"] = s.icons.Map()
	env["iconsLoaded"] = s.icons != nil
	return env
}
