package settings_test

import (
	"testing"

	settings "github.com/goliatone/go-syncsettings"
)

func TestStateNotifiesObserversOnChange(t *testing.T) {
	state := settings.NewState(nil)
	var calls [][2]*settings.Snapshot
	stop := state.Observe(func(prev, next *settings.Snapshot) {
		calls = append(calls, [2]*settings.Snapshot{prev, next})
	})

	first := state.Current()
	if !state.Apply(settings.Patch{settings.ShowText: true}) {
		t.Fatalf("expected the patch to change state")
	}
	if state.Apply(settings.Patch{settings.ShowText: true}) {
		t.Fatalf("repeating a patch must not change state")
	}
	if len(calls) != 1 || calls[0][0] != first || calls[0][1] != state.Current() {
		t.Fatalf("unexpected observer calls: %v", calls)
	}

	stop()
	state.Apply(settings.Patch{settings.ShowText: false})
	if len(calls) != 1 {
		t.Fatalf("observer called after removal")
	}
}

func TestStateIconOperations(t *testing.T) {
	state := settings.NewState(nil)
	if state.ApplyIconTypeVisibility("wildlife", "wolf", true) {
		t.Fatalf("type update before the tree is loaded must be a no-op")
	}
	if !state.SetIcons(wildlifeTree()) {
		t.Fatalf("expected icons to be installed")
	}
	if !state.ApplyIconTypeVisibility("wildlife", "wolf", true) {
		t.Fatalf("expected wolf update to apply")
	}
	if !state.ApplyIconCategoryVisibility("pois", true) {
		t.Fatalf("expected pois update to apply")
	}
	pois, _ := state.Current().Icons().Category("pois")
	if !pois.Visible() {
		t.Fatalf("expected pois to be visible")
	}
}
