package settings

import "fmt"

// Flat is the typed record of every flat setting.
type Flat struct {
	ShowHeader         bool         `json:"showHeader"`
	ShowToolbar        bool         `json:"showToolbar"`
	TransparentHeader  bool         `json:"transparentHeader"`
	TransparentToolbar bool         `json:"transparentToolbar"`
	ShowText           bool         `json:"showText"`
	IconScale          float64      `json:"iconScale"`
	ZoomLevel          float64      `json:"zoomLevel"`
	Opacity            float64      `json:"opacity"`
	Shape              OverlayShape `json:"shape"`
}

// DefaultFlat returns the record built from the definition table.
func DefaultFlat() Flat {
	var f Flat
	for _, def := range definitions {
		f, _ = f.with(def.Setting, def.Default)
	}
	return f
}

// Get returns the value of s in its canonical Go type.
func (f Flat) Get(s Setting) (any, bool) {
	switch s {
	case ShowHeader:
		return f.ShowHeader, true
	case ShowToolbar:
		return f.ShowToolbar, true
	case TransparentHeader:
		return f.TransparentHeader, true
	case TransparentToolbar:
		return f.TransparentToolbar, true
	case ShowText:
		return f.ShowText, true
	case IconScale:
		return f.IconScale, true
	case ZoomLevel:
		return f.ZoomLevel, true
	case Opacity:
		return f.Opacity, true
	case Shape:
		return f.Shape, true
	default:
		return nil, false
	}
}

// with returns a copy of f with s replaced. value must already be coerced.
func (f Flat) with(s Setting, value any) (Flat, bool) {
	switch s {
	case ShowHeader:
		f.ShowHeader, _ = value.(bool)
	case ShowToolbar:
		f.ShowToolbar, _ = value.(bool)
	case TransparentHeader:
		f.TransparentHeader, _ = value.(bool)
	case TransparentToolbar:
		f.TransparentToolbar, _ = value.(bool)
	case ShowText:
		f.ShowText, _ = value.(bool)
	case IconScale:
		f.IconScale, _ = value.(float64)
	case ZoomLevel:
		f.ZoomLevel, _ = value.(float64)
	case Opacity:
		f.Opacity, _ = value.(float64)
	case Shape:
		f.Shape, _ = value.(OverlayShape)
	default:
		return f, false
	}
	return f, true
}

// Map returns the record keyed by storage key.
func (f Flat) Map() map[string]any {
	out := make(map[string]any, len(definitions))
	for _, def := range definitions {
		value, _ := f.Get(def.Setting)
		if shape, ok := value.(OverlayShape); ok {
			value = string(shape)
		}
		out[string(def.Setting)] = value
	}
	return out
}

// Patch is a partial update of flat settings: only the listed settings are
// replaced.
type Patch map[Setting]any

// Validate checks every entry and returns a patch with canonical values.
func (p Patch) Validate() (Patch, error) {
	out := make(Patch, len(p))
	for s, value := range p {
		def, ok := definitionIndex[s]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, s)
		}
		coerced, err := def.Coerce(value)
		if err != nil {
			return nil, err
		}
		out[s] = coerced
	}
	return out, nil
}

// Merge returns f with every valid entry of p applied and whether anything
// changed. Invalid entries are skipped.
func (f Flat) Merge(p Patch) (Flat, bool) {
	changed := false
	for s, value := range p {
		def, ok := definitionIndex[s]
		if !ok {
			continue
		}
		coerced, err := def.Coerce(value)
		if err != nil {
			continue
		}
		if current, _ := f.Get(s); current == coerced {
			continue
		}
		f, _ = f.with(s, coerced)
		changed = true
	}
	return f, changed
}
