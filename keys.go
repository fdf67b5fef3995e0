package settings

import "strings"

const (
	categoryKeyPrefix = "icon.category."
	typeKeyPrefix     = "icon.type."
	visibleKeySuffix  = ".visible"
)

// KeyScope classifies a raw storage key.
type KeyScope int

const (
	ScopeUnrecognized KeyScope = iota
	ScopeFlat
	ScopeIconCategory
	ScopeIconType
)

func (s KeyScope) String() string {
	switch s {
	case ScopeFlat:
		return "flat"
	case ScopeIconCategory:
		return "icon-category"
	case ScopeIconType:
		return "icon-type"
	default:
		return "unrecognized"
	}
}

// DecodedKey is the structured identity behind a storage key. Name is empty
// for unrecognized keys. Icon-type keys do not carry their category; callers
// resolve it against the in-memory tree.
type DecodedKey struct {
	Scope KeyScope
	Name  string
}

// Setting returns the flat setting for ScopeFlat keys.
func (k DecodedKey) Setting() (Setting, bool) {
	if k.Scope != ScopeFlat {
		return "", false
	}
	return Setting(k.Name), true
}

// FlatKey returns the storage key of a flat setting, which is its identifier.
func FlatKey(s Setting) string {
	return string(s)
}

// CategoryKey returns the storage key of an icon category's visibility flag.
func CategoryKey(category string) string {
	return categoryKeyPrefix + category + visibleKeySuffix
}

// TypeKey returns the storage key of an icon type's visibility flag. Type
// names share one global key space regardless of their category.
func TypeKey(typeName string) string {
	return typeKeyPrefix + typeName + visibleKeySuffix
}

// DecodeKey classifies any string. It never fails: keys written by unrelated
// code decode to ScopeUnrecognized.
func DecodeKey(key string) DecodedKey {
	if name, ok := between(key, categoryKeyPrefix, visibleKeySuffix); ok {
		return DecodedKey{Scope: ScopeIconCategory, Name: name}
	}
	if name, ok := between(key, typeKeyPrefix, visibleKeySuffix); ok {
		return DecodedKey{Scope: ScopeIconType, Name: name}
	}
	if Setting(key).Valid() {
		return DecodedKey{Scope: ScopeFlat, Name: key}
	}
	return DecodedKey{Scope: ScopeUnrecognized}
}

func between(key, prefix, suffix string) (string, bool) {
	if len(key) <= len(prefix)+len(suffix) {
		return "", false
	}
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
		return "", false
	}
	return key[len(prefix) : len(key)-len(suffix)], true
}
