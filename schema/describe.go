// Package schema describes the settings key space for tooling: which keys
// exist, their value types and defaults, and the icon key patterns.
package schema

import (
	"sort"

	settings "github.com/goliatone/go-syncsettings"
)

// Version identifies the document layout.
const Version = "1"

// Document is a JSON-serialisable description of the key space.
type Document struct {
	Version  string       `json:"version"`
	Settings []Setting    `json:"settings"`
	IconKeys []KeyPattern `json:"iconKeys"`
}

// Setting describes one flat setting.
type Setting struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Default any      `json:"default"`
	Allowed []string `json:"allowed,omitempty"`
	Synced  bool     `json:"synced"`
}

// KeyPattern describes a family of icon visibility keys.
type KeyPattern struct {
	Scope       string `json:"scope"`
	Pattern     string `json:"pattern"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

type config struct {
	localOnly map[settings.Setting]bool
}

// Option configures Describe.
type Option func(*config)

// WithLocalOnly marks settings as excluded from cross-window sync.
func WithLocalOnly(list ...settings.Setting) Option {
	return func(cfg *config) {
		for _, s := range list {
			cfg.localOnly[s] = true
		}
	}
}

// Describe returns the key space document.
func Describe(opts ...Option) Document {
	cfg := config{localOnly: map[settings.Setting]bool{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	defs := settings.Definitions()
	doc := Document{Version: Version, Settings: make([]Setting, 0, len(defs))}
	for _, def := range defs {
		value := def.Default
		if shape, ok := value.(settings.OverlayShape); ok {
			value = string(shape)
		}
		doc.Settings = append(doc.Settings, Setting{
			Key:     settings.FlatKey(def.Setting),
			Label:   def.Label,
			Kind:    def.Kind.String(),
			Default: value,
			Allowed: def.Allowed,
			Synced:  !cfg.localOnly[def.Setting],
		})
	}
	doc.IconKeys = []KeyPattern{
		{
			Scope:       settings.ScopeIconCategory.String(),
			Pattern:     settings.CategoryKey("<category>"),
			Default:     "false for npc and pois, true otherwise",
			Description: "Visibility of every icon in a category",
		},
		{
			Scope:       settings.ScopeIconType.String(),
			Pattern:     settings.TypeKey("<type>"),
			Default:     "true",
			Description: "Visibility of one icon type; type names are not qualified by category",
		},
	}
	return doc
}

// JSONSchema renders the flat settings record as a JSON Schema object.
func JSONSchema() map[string]any {
	properties := map[string]any{}
	keys := make([]string, 0)
	for _, def := range settings.Definitions() {
		key := settings.FlatKey(def.Setting)
		keys = append(keys, key)
		properties[key] = propertySchema(def)
	}
	sort.Strings(keys)
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "Overlay settings",
		"type":                 "object",
		"properties":           properties,
		"required":             keys,
		"additionalProperties": false,
	}
}

func propertySchema(def settings.Definition) map[string]any {
	prop := map[string]any{"title": def.Label}
	switch def.Kind {
	case settings.KindBool:
		prop["type"] = "boolean"
		prop["default"] = def.Default
	case settings.KindNumber:
		prop["type"] = "number"
		prop["default"] = def.Default
	case settings.KindEnum:
		prop["type"] = "string"
		prop["enum"] = append([]string(nil), def.Allowed...)
		if shape, ok := def.Default.(settings.OverlayShape); ok {
			prop["default"] = string(shape)
		}
	default:
		prop["type"] = "string"
	}
	return prop
}
