// Package activity reports what happened to a window's settings: values it
// applied (its own edits and ones received from other windows) and icon
// catalogs it installed.
package activity

import (
	"strings"
	"time"
)

const (
	VerbSettingUpdated = "settings.updated"
	VerbCatalogLoaded  = "settings.catalog.loaded"

	ObjectSetting = "setting"
	ObjectCatalog = "icon_catalog"
)

// Origin says where an applied value came from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Event is one applied settings change or catalog load, seen from the window
// it happened in.
type Event struct {
	Verb   string
	Window string
	UserID string
	// Key is the storage key of the setting, e.g. "zoomLevel" or
	// "icon.type.deer.visible". Empty for catalog loads.
	Key      string
	Origin   Origin
	OldValue any
	NewValue any
	// Categories and Types count the installed tree on catalog loads.
	Categories int
	Types      int
	Channel    string
	OccurredAt time.Time
}

// SettingUpdated is the event for a value a window applied. old is nil when
// the previous value is not known, as for notifications from other windows.
func SettingUpdated(window, key string, origin Origin, old, value any) Event {
	return Event{
		Verb:     VerbSettingUpdated,
		Window:   window,
		Key:      key,
		Origin:   origin,
		OldValue: old,
		NewValue: value,
	}
}

// CatalogLoaded is the event for a window installing an icon tree.
func CatalogLoaded(window string, categories, types int) Event {
	return Event{
		Verb:       VerbCatalogLoaded,
		Window:     window,
		Origin:     OriginLocal,
		Categories: categories,
		Types:      types,
	}
}

// Normalize trims identifiers and fills the origin and timestamp.
func (e Event) Normalize() Event {
	e.Verb = strings.TrimSpace(e.Verb)
	e.Window = strings.TrimSpace(e.Window)
	e.UserID = strings.TrimSpace(e.UserID)
	e.Key = strings.TrimSpace(e.Key)
	e.Channel = strings.TrimSpace(e.Channel)
	if e.Origin == "" {
		e.Origin = OriginLocal
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	return e
}

// Valid reports whether the event names its window and, for setting
// updates, the key. Hooks never see invalid events.
func (e Event) Valid() bool {
	switch e.Verb {
	case VerbSettingUpdated:
		return e.Window != "" && e.Key != ""
	case VerbCatalogLoaded:
		return e.Window != ""
	default:
		return false
	}
}

// Object returns the object type and ID the event is about: the setting key,
// or the window for catalog loads.
func (e Event) Object() (objectType, objectID string) {
	if e.Verb == VerbCatalogLoaded {
		return ObjectCatalog, e.Window
	}
	return ObjectSetting, e.Key
}

// Data flattens the event payload for sinks that store a generic map.
func (e Event) Data() map[string]any {
	data := map[string]any{"window": e.Window, "origin": string(e.Origin)}
	switch e.Verb {
	case VerbCatalogLoaded:
		data["categories"] = e.Categories
		data["types"] = e.Types
	default:
		data["key"] = e.Key
		if e.OldValue != nil {
			data["old_value"] = e.OldValue
		}
		if e.NewValue != nil {
			data["new_value"] = e.NewValue
		}
	}
	return data
}
