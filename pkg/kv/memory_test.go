package kv_test

import (
	"reflect"
	"testing"

	"github.com/goliatone/go-syncsettings/pkg/kv"
)

type recorder struct {
	changes []kv.Change
}

func (r *recorder) handle(change kv.Change) {
	r.changes = append(r.changes, change)
}

func (r *recorder) keys() []string {
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Key)
	}
	return out
}

func TestHubWriterDoesNotSeeOwnChange(t *testing.T) {
	hub := kv.NewHub()
	a, b, c := hub.Window(), hub.Window(), hub.Window()

	var ra, rb, rc recorder
	a.Subscribe(ra.handle)
	b.Subscribe(rb.handle)
	c.Subscribe(rc.handle)

	if err := a.Set("zoomLevel", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if len(ra.changes) != 0 {
		t.Fatalf("writer received %d changes", len(ra.changes))
	}
	for name, r := range map[string]*recorder{"b": &rb, "c": &rc} {
		if len(r.changes) != 1 {
			t.Fatalf("%s expected 1 change, got %d", name, len(r.changes))
		}
		if r.changes[0].Key != "zoomLevel" || r.changes[0].Value() != "3" {
			t.Fatalf("%s unexpected change %+v", name, r.changes[0])
		}
	}

	value, ok, err := c.Get("zoomLevel")
	if err != nil || !ok || value != "3" {
		t.Fatalf("expected shared value 3, got %q ok=%t err=%v", value, ok, err)
	}
}

func TestHubDeleteNotifiesWithNilValue(t *testing.T) {
	hub := kv.NewHub()
	hub.Seed(map[string]string{"shape": `"none"`})
	a, b := hub.Window(), hub.Window()

	var rb recorder
	b.Subscribe(rb.handle)

	if err := a.Delete("shape"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(rb.changes) != 1 || !rb.changes[0].Deletion() {
		t.Fatalf("expected one deletion, got %+v", rb.changes)
	}

	// Deleting a missing key is silent.
	if err := a.Delete("shape"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if len(rb.changes) != 1 {
		t.Fatalf("expected no extra change, got %d", len(rb.changes))
	}
}

func TestHubUnchangedValueIsNotPublished(t *testing.T) {
	hub := kv.NewHub()
	a, b := hub.Window(), hub.Window()

	var rb recorder
	b.Subscribe(rb.handle)

	for i := 0; i < 3; i++ {
		if err := a.Set("showText", "true"); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if len(rb.changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(rb.changes))
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := kv.NewHub()
	a, b := hub.Window(), hub.Window()

	var rb recorder
	unsubscribe := b.Subscribe(rb.handle)
	unsubscribe()
	unsubscribe()

	if err := a.Set("opacity", "0.5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(rb.changes) != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(rb.changes))
	}
}

func TestHubDeliversInWriteOrderWhenCallbackWrites(t *testing.T) {
	hub := kv.NewHub()
	a, b, c := hub.Window(), hub.Window(), hub.Window()

	// b echoes the first change it sees back into the store.
	echoed := false
	b.Subscribe(func(change kv.Change) {
		if echoed {
			return
		}
		echoed = true
		if err := b.Set("echo", change.Value()); err != nil {
			t.Errorf("echo: %v", err)
		}
	})

	var rc recorder
	c.Subscribe(rc.handle)

	if err := a.Set("first", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := a.Set("second", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	want := []string{"first", "echo", "second"}
	if got := rc.keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestHubKeysSortedAndEmptyKeyRejected(t *testing.T) {
	hub := kv.NewHub()
	view := hub.Window()
	for _, key := range []string{"b", "a", "c"} {
		if err := view.Set(key, "1"); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	keys, err := view.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
	if err := view.Set("", "x"); err != kv.ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
