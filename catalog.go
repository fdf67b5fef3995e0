package settings

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-syncsettings/internal/hydrate"
)

// ErrInvalidCatalog is returned when a catalog payload cannot be used.
var ErrInvalidCatalog = errors.New("settings: invalid catalog")

// Catalog lists the icon categories and types a window knows about. It is
// supplied by the host application; this package only tracks visibility.
type Catalog struct {
	Categories map[string]CatalogCategory `json:"categories"`
}

// CatalogCategory describes one category.
type CatalogCategory struct {
	DisplayName string `json:"displayName,omitempty"`
	// DefaultVisible replaces the built-in fallback when set.
	DefaultVisible *bool                  `json:"defaultVisible,omitempty"`
	Types          map[string]CatalogType `json:"types"`
}

// CatalogType describes one icon type.
type CatalogType struct {
	DisplayName string `json:"displayName,omitempty"`
}

// CategoryDefault returns the visibility of a category that has no stored
// flag.
func (c Catalog) CategoryDefault(category string) bool {
	if entry, ok := c.Categories[category]; ok && entry.DefaultVisible != nil {
		return *entry.DefaultVisible
	}
	return DefaultCategoryVisible(category)
}

// BuildIcons reads the stored visibility of every catalog entry and returns
// the resulting tree.
func BuildIcons(codec *Codec, catalog Catalog) *IconSettings {
	categories := make([]*IconCategory, 0, len(catalog.Categories))
	for name, entry := range catalog.Categories {
		types := make([]*IconType, 0, len(entry.Types))
		for typeName, t := range entry.Types {
			types = append(types, NewIconType(typeName, t.DisplayName, codec.ReadTypeVisible(typeName)))
		}
		visible := Read(codec, CategoryKey(name), catalog.CategoryDefault(name))
		categories = append(categories, NewIconCategory(name, entry.DisplayName, visible, types...))
	}
	return NewIconSettings(categories...)
}

// ParseCatalog decodes a generic payload. A category's "types" may be given
// as a list of names instead of an object.
func ParseCatalog(source string, payload map[string]any) (Catalog, error) {
	catalog, err := catalogDecoder().Decode(hydrate.Context{Source: source}, payload)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return catalog, nil
}

// ParseCatalogJSON decodes a JSON document; see ParseCatalog.
func ParseCatalogJSON(source string, raw []byte) (Catalog, error) {
	catalog, err := catalogDecoder().DecodeJSON(hydrate.Context{Source: source}, raw)
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return catalog, nil
}

func catalogDecoder() *hydrate.Decoder[Catalog] {
	return hydrate.NewDecoder(
		hydrate.WithPreHook[Catalog](expandTypeLists),
		hydrate.WithPostHook[Catalog](completeCatalog),
	)
}

func expandTypeLists(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	categories, ok := payload["categories"].(map[string]any)
	if !ok {
		return payload, nil
	}
	for name, raw := range categories {
		category, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		list, ok := category["types"].([]any)
		if !ok {
			continue
		}
		types := make(map[string]any, len(list))
		for _, item := range list {
			typeName, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("category %q: type names must be strings", name)
			}
			types[typeName] = map[string]any{}
		}
		category["types"] = types
	}
	return payload, nil
}

func completeCatalog(_ hydrate.Context, catalog *Catalog) error {
	for name, entry := range catalog.Categories {
		if name == "" {
			return errors.New("empty category name")
		}
		if entry.DisplayName == "" {
			entry.DisplayName = name
		}
		for typeName, t := range entry.Types {
			if typeName == "" {
				return fmt.Errorf("category %q: empty type name", name)
			}
			if t.DisplayName == "" {
				t.DisplayName = typeName
				entry.Types[typeName] = t
			}
		}
		catalog.Categories[name] = entry
	}
	return nil
}
