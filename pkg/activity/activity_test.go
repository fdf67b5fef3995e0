package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func TestNormalizeFillsDefaults(t *testing.T) {
	event := SettingUpdated(" window-a ", " zoomLevel ", "", nil, 2.5)
	event.Channel = " overlay "

	got := event.Normalize()
	if got.Window != "window-a" || got.Key != "zoomLevel" || got.Channel != "overlay" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.Origin != OriginLocal {
		t.Fatalf("expected local origin by default, got %q", got.Origin)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
}

func TestEventValidity(t *testing.T) {
	cases := []struct {
		event Event
		valid bool
	}{
		{SettingUpdated("a", "opacity", OriginRemote, nil, 0.5), true},
		{SettingUpdated("a", "", OriginRemote, nil, 0.5), false},
		{SettingUpdated("", "opacity", OriginLocal, nil, 0.5), false},
		{CatalogLoaded("a", 2, 3), true},
		{CatalogLoaded("", 2, 3), false},
		{Event{Verb: "settings.deleted", Window: "a", Key: "opacity"}, false},
	}
	for _, tc := range cases {
		if got := tc.event.Valid(); got != tc.valid {
			t.Fatalf("%+v: expected valid=%v", tc.event, tc.valid)
		}
	}
}

func TestEventObjectAndData(t *testing.T) {
	update := SettingUpdated("a", "icon.type.deer.visible", OriginRemote, true, false)
	kind, id := update.Object()
	if kind != ObjectSetting || id != "icon.type.deer.visible" {
		t.Fatalf("unexpected object %s/%s", kind, id)
	}
	data := update.Data()
	if data["origin"] != "remote" || data["window"] != "a" || data["old_value"] != true || data["new_value"] != false {
		t.Fatalf("unexpected data %+v", data)
	}

	loaded := CatalogLoaded("a", 2, 5)
	kind, id = loaded.Object()
	if kind != ObjectCatalog || id != "a" {
		t.Fatalf("unexpected object %s/%s", kind, id)
	}
	if data := loaded.Data(); data["categories"] != 2 || data["types"] != 5 {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestPublisherWithoutHooks(t *testing.T) {
	p := NewPublisher("")
	if p.Enabled() {
		t.Fatalf("expected a publisher without hooks to be disabled")
	}
	if err := p.Publish(context.Background(), CatalogLoaded("a", 1, 1)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	var nilPublisher *Publisher
	if nilPublisher.Enabled() {
		t.Fatalf("nil publisher must be disabled")
	}
}

func TestPublisherStampsChannel(t *testing.T) {
	rec := &recorder{}
	p := NewPublisher("", rec, nil)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	event := SettingUpdated("a", "shape", OriginLocal, "none", "ellipse(50% 50%)")
	event.OccurredAt = at
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	explicit := SettingUpdated("a", "opacity", OriginLocal, nil, 0.4)
	explicit.Channel = "overlay"
	if err := p.Publish(context.Background(), explicit); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(context.Background(), SettingUpdated("a", "", OriginLocal, nil, 1)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected the invalid event to be dropped, got %d events", len(rec.events))
	}
	if rec.events[0].Channel != DefaultChannel || !rec.events[0].OccurredAt.Equal(at) {
		t.Fatalf("unexpected first event %+v", rec.events[0])
	}
	if rec.events[1].Channel != "overlay" {
		t.Fatalf("expected explicit channel preserved, got %q", rec.events[1].Channel)
	}
}

func TestPublisherJoinsHookErrors(t *testing.T) {
	rec := &recorder{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	p := NewPublisher("overlay",
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		rec,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		HookFunc(func(context.Context, Event) error { return boom2 }),
	)

	//nolint:staticcheck // nil context falls back to Background
	err := p.Publish(nil, CatalogLoaded("a", 1, 2))
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(rec.events) != 1 || rec.events[0].Channel != "overlay" {
		t.Fatalf("expected one event on the overlay channel, got %+v", rec.events)
	}
}
