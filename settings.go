package settings

import (
	"fmt"
	"math"
)

// Setting identifies one flat, scalar setting. The identifier doubles as its
// storage key.
type Setting string

const (
	ShowHeader         Setting = "showHeader"
	ShowToolbar        Setting = "showToolbar"
	TransparentHeader  Setting = "transparentHeader"
	TransparentToolbar Setting = "transparentToolbar"
	ShowText           Setting = "showText"
	IconScale          Setting = "iconScale"
	ZoomLevel          Setting = "zoomLevel"
	Opacity            Setting = "opacity"
	Shape              Setting = "shape"
)

// OverlayShape is the clip shape applied to the in-game overlay window.
type OverlayShape string

const (
	ShapeNone    OverlayShape = "none"
	ShapeEllipse OverlayShape = "ellipse(50% 50%)"
	ShapeDiamond OverlayShape = "polygon(50% 0, 100% 50%, 50% 100%, 0 50%)"
)

// Kind is the value type of a flat setting.
type Kind int

const (
	KindBool Kind = iota + 1
	KindNumber
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Definition describes one flat setting: its value type, its default and, for
// enums, the allowed values. The table below is the only place defaults live.
type Definition struct {
	Setting Setting
	Kind    Kind
	Default any
	Allowed []string
	Label   string
}

var definitions = []Definition{
	{Setting: ShowHeader, Kind: KindBool, Default: true, Label: "Show header"},
	{Setting: ShowToolbar, Kind: KindBool, Default: false, Label: "Show toolbar"},
	{Setting: TransparentHeader, Kind: KindBool, Default: true, Label: "Transparent header"},
	{Setting: TransparentToolbar, Kind: KindBool, Default: true, Label: "Transparent toolbar"},
	{Setting: ShowText, Kind: KindBool, Default: false, Label: "Show text"},
	{Setting: IconScale, Kind: KindNumber, Default: 1.5, Label: "Icon scale"},
	{Setting: ZoomLevel, Kind: KindNumber, Default: 2.0, Label: "Zoom level"},
	{Setting: Opacity, Kind: KindNumber, Default: 1.0, Label: "Overlay opacity"},
	{
		Setting: Shape,
		Kind:    KindEnum,
		Default: ShapeNone,
		Allowed: []string{string(ShapeNone), string(ShapeEllipse), string(ShapeDiamond)},
		Label:   "Overlay shape",
	},
}

var definitionIndex = func() map[Setting]Definition {
	out := make(map[Setting]Definition, len(definitions))
	for _, def := range definitions {
		out[def.Setting] = def
	}
	return out
}()

// All returns every flat setting in declaration order.
func All() []Setting {
	out := make([]Setting, len(definitions))
	for i, def := range definitions {
		out[i] = def.Setting
	}
	return out
}

// Definitions returns a copy of the definition table.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	for i, def := range definitions {
		def.Allowed = append([]string(nil), def.Allowed...)
		out[i] = def
	}
	return out
}

// Lookup returns the definition for name when it is a recognized setting.
func Lookup(name string) (Definition, bool) {
	def, ok := definitionIndex[Setting(name)]
	return def, ok
}

// Valid reports whether s is a recognized setting.
func (s Setting) Valid() bool {
	_, ok := definitionIndex[s]
	return ok
}

// Default returns the declared default for s, or nil for unknown settings.
func (s Setting) Default() any {
	return definitionIndex[s].Default
}

// Coerce converts value to the canonical Go type of the setting: bool,
// float64 or OverlayShape. It fails for unknown settings, mismatched types,
// non-finite numbers and enum values outside the allowed set.
func (d Definition) Coerce(value any) (any, error) {
	switch d.Kind {
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindNumber:
		if f, ok := toFloat(value); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: %s must be finite", ErrInvalidValue, d.Setting)
			}
			return f, nil
		}
	case KindEnum:
		var s string
		switch v := value.(type) {
		case OverlayShape:
			s = string(v)
		case string:
			s = v
		default:
			return nil, fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, d.Setting, d.Kind, value)
		}
		for _, allowed := range d.Allowed {
			if allowed == s {
				return OverlayShape(s), nil
			}
		}
		return nil, fmt.Errorf("%w: %s does not allow %q", ErrInvalidValue, d.Setting, s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, d.Setting)
	}
	return nil, fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, d.Setting, d.Kind, value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
