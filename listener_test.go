package settings_test

import (
	"testing"
	"time"

	settings "github.com/goliatone/go-syncsettings"
	"github.com/goliatone/go-syncsettings/pkg/kv"
)

func newListener(t *testing.T, opts ...settings.ListenerOption) (*settings.State, *settings.Listener) {
	t.Helper()
	state := settings.NewState(settings.NewSnapshot(settings.DefaultFlat(), wildlifeTree()))
	view := kv.NewHub().Window()
	listener := settings.NewListener(state, settings.NewCodec(view), view, opts...)
	listener.Start()
	t.Cleanup(listener.Stop)
	return state, listener
}

func TestListenerAppliesFlatNotification(t *testing.T) {
	state, listener := newListener(t)
	before := state.Current()

	outcome := listener.Handle(kv.Updated("zoomLevel", "3.5"))
	if outcome != settings.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}
	after := state.Current()
	want := before.Flat()
	want.ZoomLevel = 3.5
	if after.Flat() != want {
		t.Fatalf("expected only zoomLevel to change, got %+v", after.Flat())
	}
	if after.Icons() != before.Icons() {
		t.Fatalf("icon tree must be untouched")
	}
}

func TestListenerCorruptFlatValueAppliesDefault(t *testing.T) {
	state, listener := newListener(t)
	state.Apply(settings.Patch{settings.Opacity: 0.2})

	if outcome := listener.Handle(kv.Updated("opacity", "{oops")); outcome != settings.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}
	if got := state.Current().Flat().Opacity; got != 1 {
		t.Fatalf("expected default opacity, got %v", got)
	}
}

func TestListenerIgnoresDeletion(t *testing.T) {
	state, listener := newListener(t)
	before := state.Current()
	if outcome := listener.Handle(kv.Deleted("zoomLevel")); outcome != settings.OutcomeIgnoredDeletion {
		t.Fatalf("expected ignored-deletion, got %s", outcome)
	}
	if outcome := listener.Handle(kv.Deleted("icon.type.wolf.visible")); outcome != settings.OutcomeIgnoredDeletion {
		t.Fatalf("expected ignored-deletion, got %s", outcome)
	}
	if state.Current() != before {
		t.Fatalf("deletion must not mutate state")
	}
}

func TestListenerIgnoresUnrecognizedKeys(t *testing.T) {
	state, listener := newListener(t)
	before := state.Current()
	for _, key := range []string{"windowPosition", "icon.category.wildlife", "", "icon.type..visible"} {
		if outcome := listener.Handle(kv.Updated(key, "true")); outcome != settings.OutcomeIgnoredUnrecognized {
			t.Fatalf("%q: expected ignored-unrecognized, got %s", key, outcome)
		}
	}
	if state.Current() != before {
		t.Fatalf("unrecognized keys must not mutate state")
	}
}

func TestListenerLocalOnlySettings(t *testing.T) {
	state, listener := newListener(t, settings.WithLocalOnly(settings.ZoomLevel))
	if listener.Synced(settings.ZoomLevel) || !listener.Synced(settings.Opacity) {
		t.Fatalf("unexpected synced set")
	}
	if outcome := listener.Handle(kv.Updated("zoomLevel", "4")); outcome != settings.OutcomeIgnoredUnsynced {
		t.Fatalf("expected ignored-unsynced, got %s", outcome)
	}
	if state.Current().Flat().ZoomLevel != 2 {
		t.Fatalf("local-only setting must not change")
	}
}

func TestListenerIconNotifications(t *testing.T) {
	state, listener := newListener(t)
	before := state.Current()
	oldNPC, _ := before.Icons().Category("npc")

	if outcome := listener.Handle(kv.Updated("icon.type.wolf.visible", "true")); outcome != settings.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}
	wildlife, _ := state.Current().Icons().Category("wildlife")
	if wolf, _ := wildlife.Type("wolf"); !wolf.Visible() {
		t.Fatalf("expected wolf visible")
	}
	if npc, _ := state.Current().Icons().Category("npc"); npc != oldNPC {
		t.Fatalf("expected npc to be shared")
	}

	if outcome := listener.Handle(kv.Updated("icon.category.npc.visible", "true")); outcome != settings.OutcomeApplied {
		t.Fatalf("expected applied, got %s", outcome)
	}
	if npc, _ := state.Current().Icons().Category("npc"); !npc.Visible() {
		t.Fatalf("expected npc visible")
	}
}

func TestListenerIgnoresStaleIconKeys(t *testing.T) {
	state, listener := newListener(t)
	before := state.Current()
	if outcome := listener.Handle(kv.Updated("icon.type.bear.visible", "false")); outcome != settings.OutcomeIgnoredStale {
		t.Fatalf("expected ignored-stale, got %s", outcome)
	}
	if outcome := listener.Handle(kv.Updated("icon.category.vehicles.visible", "false")); outcome != settings.OutcomeIgnoredStale {
		t.Fatalf("expected ignored-stale, got %s", outcome)
	}
	if state.Current() != before {
		t.Fatalf("stale keys must leave the same snapshot")
	}

	empty := settings.NewState(nil)
	view := kv.NewHub().Window()
	l := settings.NewListener(empty, settings.NewCodec(view), view)
	l.Start()
	defer l.Stop()
	snap := empty.Current()
	if outcome := l.Handle(kv.Updated("icon.type.wolf.visible", "false")); outcome != settings.OutcomeIgnoredStale {
		t.Fatalf("expected ignored-stale before the catalog loads, got %s", outcome)
	}
	if empty.Current() != snap {
		t.Fatalf("state must not change before the catalog loads")
	}
}

func TestListenerStoppedProcessesNothing(t *testing.T) {
	state := settings.NewState(nil)
	hub := kv.NewHub()
	mine, other := hub.Window(), hub.Window()
	listener := settings.NewListener(state, settings.NewCodec(mine), mine)

	if outcome := listener.Handle(kv.Updated("showText", "true")); outcome != settings.OutcomeStopped {
		t.Fatalf("expected stopped before Start, got %s", outcome)
	}

	listener.Start()
	if err := other.Set("showText", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !state.Current().Flat().ShowText {
		t.Fatalf("expected notification to apply while active")
	}

	listener.Stop()
	if listener.Active() {
		t.Fatalf("expected listener to be inactive")
	}
	before := state.Current()
	if err := other.Set("showText", "false"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if outcome := listener.Handle(kv.Updated("showText", "false")); outcome != settings.OutcomeStopped {
		t.Fatalf("expected stopped, got %s", outcome)
	}
	if state.Current() != before {
		t.Fatalf("no notification may apply after Stop")
	}
}

func TestListenerHooks(t *testing.T) {
	var outcomes []settings.Outcome
	var applied []string
	_, listener := newListener(t,
		settings.WithOutcomeHook(func(_ kv.Change, outcome settings.Outcome) {
			outcomes = append(outcomes, outcome)
		}),
		settings.WithAppliedHook(func(key string, _ any) {
			applied = append(applied, key)
		}),
	)
	listener.Handle(kv.Updated("shape", `"ellipse(50% 50%)"`))
	listener.Handle(kv.Deleted("shape"))

	if len(outcomes) != 2 || outcomes[0] != settings.OutcomeApplied || outcomes[1] != settings.OutcomeIgnoredDeletion {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
	if len(applied) != 1 || applied[0] != "shape" {
		t.Fatalf("unexpected applied keys %v", applied)
	}
}

func TestListenerIgnoresEmptiedValue(t *testing.T) {
	state, listener := newListener(t)
	state.Apply(settings.Patch{settings.ZoomLevel: 5.0})
	before := state.Current()

	if outcome := listener.Handle(kv.Updated("zoomLevel", "")); outcome != settings.OutcomeIgnoredDeletion {
		t.Fatalf("expected ignored-deletion, got %s", outcome)
	}
	if outcome := listener.Handle(kv.Updated("icon.category.wildlife.visible", "")); outcome != settings.OutcomeIgnoredDeletion {
		t.Fatalf("expected ignored-deletion, got %s", outcome)
	}
	if state.Current() != before || state.Current().Flat().ZoomLevel != 5 {
		t.Fatalf("an emptied key must not reset the setting, got zoom %v", state.Current().Flat().ZoomLevel)
	}
}

func TestListenerStopWaitsForInFlightNotification(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	state, listener := newListener(t, settings.WithCategoryDefault(func(string) bool {
		close(entered)
		<-release
		return false
	}))

	handled := make(chan settings.Outcome, 1)
	go func() {
		handled <- listener.Handle(kv.Updated("icon.category.npc.visible", "true"))
	}()
	<-entered

	stopped := make(chan struct{})
	go func() {
		listener.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatalf("Stop returned while a notification was being applied")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not return after the notification finished")
	}
	if outcome := <-handled; outcome != settings.OutcomeApplied {
		t.Fatalf("expected the in-flight notification to apply, got %s", outcome)
	}
	npc, _ := state.Current().Icons().Category("npc")
	if !npc.Visible() {
		t.Fatalf("expected npc to be visible")
	}
	if outcome := listener.Handle(kv.Updated("icon.category.npc.visible", "false")); outcome != settings.OutcomeStopped {
		t.Fatalf("expected stopped, got %s", outcome)
	}
}

func TestListenerStopFromObserver(t *testing.T) {
	state, listener := newListener(t)
	state.Observe(func(_, next *settings.Snapshot) {
		if next.Flat().ShowText {
			listener.Stop()
		}
	})

	done := make(chan settings.Outcome, 1)
	go func() {
		done <- listener.Handle(kv.Updated("showText", "true"))
	}()
	select {
	case outcome := <-done:
		if outcome != settings.OutcomeApplied {
			t.Fatalf("expected applied, got %s", outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop from an observer deadlocked")
	}
	if listener.Active() {
		t.Fatalf("expected listener to be stopped")
	}
}
