package settings_test

import (
	"errors"
	"testing"

	settings "github.com/goliatone/go-syncsettings"
	"github.com/goliatone/go-syncsettings/pkg/kv"
)

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, errStoreDown }
func (failingStore) Set(string, string) error         { return errStoreDown }
func (failingStore) Delete(string) error              { return errStoreDown }
func (failingStore) Keys() ([]string, error)          { return nil, errStoreDown }

func TestFlatRoundTrip(t *testing.T) {
	codec := settings.NewCodec(kv.NewHub().Window())
	values := map[settings.Setting]any{
		settings.ShowHeader:         false,
		settings.ShowToolbar:        true,
		settings.TransparentHeader:  false,
		settings.TransparentToolbar: false,
		settings.ShowText:           true,
		settings.IconScale:          2.25,
		settings.ZoomLevel:          0.5,
		settings.Opacity:            0.35,
		settings.Shape:              settings.ShapeDiamond,
	}
	for s, value := range values {
		if err := codec.WriteFlat(s, value); err != nil {
			t.Fatalf("write %s: %v", s, err)
		}
		if got := codec.ReadFlat(s); got != value {
			t.Fatalf("read %s: expected %v, got %v", s, value, got)
		}
	}
}

func TestReadFlatDefaults(t *testing.T) {
	hub := kv.NewHub()
	hub.Seed(map[string]string{
		"showHeader":  "not json",
		"iconScale":   `"big"`,
		"shape":       `"circle(10%)"`,
		"zoomLevel":   "",
		"showToolbar": "true",
	})
	codec := settings.NewCodec(hub.Window())

	cases := map[settings.Setting]any{
		settings.ShowHeader:  true,
		settings.IconScale:   1.5,
		settings.Shape:       settings.ShapeNone,
		settings.ZoomLevel:   2.0,
		settings.ShowToolbar: true,
		settings.Opacity:     1.0,
	}
	for s, want := range cases {
		if got := codec.ReadFlat(s); got != want {
			t.Fatalf("%s: expected %v, got %v", s, want, got)
		}
	}
	if got := codec.ReadFlat(settings.Setting("windowPosition")); got != nil {
		t.Fatalf("unknown setting should read as nil, got %v", got)
	}
}

func TestLoadFlat(t *testing.T) {
	hub := kv.NewHub()
	hub.Seed(map[string]string{"opacity": "0.5", "shape": `"ellipse(50% 50%)"`})
	flat := settings.NewCodec(hub.Window()).LoadFlat()

	want := settings.DefaultFlat()
	want.Opacity = 0.5
	want.Shape = settings.ShapeEllipse
	if flat != want {
		t.Fatalf("expected %+v, got %+v", want, flat)
	}
}

func TestWriteFlatRejectsInvalidValues(t *testing.T) {
	view := kv.NewHub().Window()
	codec := settings.NewCodec(view)

	if err := codec.WriteFlat(settings.Opacity, "opaque"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if err := codec.WriteFlat(settings.Shape, "circle(10%)"); !errors.Is(err, settings.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue for shape, got %v", err)
	}
	if err := codec.WriteFlat(settings.Setting("nope"), true); !errors.Is(err, settings.ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	if keys, _ := view.Keys(); len(keys) != 0 {
		t.Fatalf("rejected writes must not reach the store, got %v", keys)
	}
}

func TestIconVisibilityDefaults(t *testing.T) {
	codec := settings.NewCodec(kv.NewHub().Window())
	for name, want := range map[string]bool{"npc": false, "pois": false, "wildlife": true, "resources": true} {
		if got := codec.ReadCategoryVisible(name); got != want {
			t.Fatalf("category %s: expected %t, got %t", name, want, got)
		}
	}
	if !codec.ReadTypeVisible("deer") {
		t.Fatalf("types default to visible")
	}

	if err := codec.WriteCategoryVisible("npc", true); err != nil {
		t.Fatalf("write category: %v", err)
	}
	if err := codec.WriteTypeVisible("deer", false); err != nil {
		t.Fatalf("write type: %v", err)
	}
	if !codec.ReadCategoryVisible("npc") || codec.ReadTypeVisible("deer") {
		t.Fatalf("stored icon flags not read back")
	}
}

func TestCodecStoreFailures(t *testing.T) {
	codec := settings.NewCodec(failingStore{})
	if got := codec.ReadFlat(settings.ZoomLevel); got != 2.0 {
		t.Fatalf("read failure should yield the default, got %v", got)
	}
	if err := codec.WriteFlat(settings.ZoomLevel, 3.0); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestGenericRead(t *testing.T) {
	hub := kv.NewHub()
	hub.Seed(map[string]string{"custom.list": `["a","b"]`, "custom.bad": "{"})
	codec := settings.NewCodec(hub.Window())

	got := settings.Read(codec, "custom.list", []string{})
	if len(got) != 2 || got[0] != "a" {
		t.Fatalf("unexpected list %v", got)
	}
	if got := settings.Read(codec, "custom.bad", 7); got != 7 {
		t.Fatalf("expected default for corrupt value, got %v", got)
	}
	if got := settings.Read(codec, "custom.missing", "x"); got != "x" {
		t.Fatalf("expected default for missing value, got %v", got)
	}
}
