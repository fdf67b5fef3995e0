package settings_test

import (
	"testing"

	settings "github.com/goliatone/go-syncsettings"
)

func TestDecodeKey(t *testing.T) {
	cases := []struct {
		key   string
		scope settings.KeyScope
		name  string
	}{
		{"showHeader", settings.ScopeFlat, "showHeader"},
		{"shape", settings.ScopeFlat, "shape"},
		{"icon.category.wildlife.visible", settings.ScopeIconCategory, "wildlife"},
		{"icon.category.npc.visible", settings.ScopeIconCategory, "npc"},
		{"icon.type.deer.visible", settings.ScopeIconType, "deer"},
		{"icon.type.a.b.visible", settings.ScopeIconType, "a.b"},
		{"icon.category..visible", settings.ScopeUnrecognized, ""},
		{"icon.type.visible", settings.ScopeUnrecognized, ""},
		{"icon.category.wildlife", settings.ScopeUnrecognized, ""},
		{"windowPosition", settings.ScopeUnrecognized, ""},
		{"", settings.ScopeUnrecognized, ""},
		{"ShowHeader", settings.ScopeUnrecognized, ""},
	}
	for _, tc := range cases {
		got := settings.DecodeKey(tc.key)
		if got.Scope != tc.scope || got.Name != tc.name {
			t.Fatalf("DecodeKey(%q) = {%s %q}, want {%s %q}", tc.key, got.Scope, got.Name, tc.scope, tc.name)
		}
	}
}

func TestKeyEncodingRoundTrips(t *testing.T) {
	for _, s := range settings.All() {
		decoded := settings.DecodeKey(settings.FlatKey(s))
		got, ok := decoded.Setting()
		if !ok || got != s {
			t.Fatalf("flat key %q decoded to %+v", s, decoded)
		}
	}
	if got := settings.DecodeKey(settings.CategoryKey("pois")); got.Scope != settings.ScopeIconCategory || got.Name != "pois" {
		t.Fatalf("category key decoded to %+v", got)
	}
	if got := settings.DecodeKey(settings.TypeKey("wolf")); got.Scope != settings.ScopeIconType || got.Name != "wolf" {
		t.Fatalf("type key decoded to %+v", got)
	}
	if _, ok := settings.DecodeKey(settings.TypeKey("wolf")).Setting(); ok {
		t.Fatalf("icon keys must not resolve to a flat setting")
	}
}

func TestKeyScopeString(t *testing.T) {
	want := map[settings.KeyScope]string{
		settings.ScopeFlat:         "flat",
		settings.ScopeIconCategory: "icon-category",
		settings.ScopeIconType:     "icon-type",
		settings.ScopeUnrecognized: "unrecognized",
	}
	for scope, name := range want {
		if scope.String() != name {
			t.Fatalf("expected %q, got %q", name, scope.String())
		}
	}
}
