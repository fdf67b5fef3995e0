package kv

import "errors"

var (
	// ErrClosed is returned by backends once Close has been called.
	ErrClosed = errors.New("kv: store closed")
	// ErrEmptyKey rejects writes with an empty key.
	ErrEmptyKey = errors.New("kv: key must not be empty")
)

// Change is one cross-window notification. NewValue is nil when the key was
// deleted.
type Change struct {
	Key      string
	NewValue *string
}

// Updated builds a Change carrying a new raw value.
func Updated(key, value string) Change {
	return Change{Key: key, NewValue: &value}
}

// Deleted builds a Change describing a removal.
func Deleted(key string) Change {
	return Change{Key: key}
}

// Deletion reports whether the change removed the key.
func (c Change) Deletion() bool {
	return c.NewValue == nil
}

// Value returns the new raw value, or "" for deletions.
func (c Change) Value() string {
	if c.NewValue == nil {
		return ""
	}
	return *c.NewValue
}

// Store is a synchronous string-keyed persistence medium.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Keys() ([]string, error)
}

// Notifier is the cross-window change channel. The returned function removes
// the subscription; it is safe to call more than once.
type Notifier interface {
	Subscribe(fn func(Change)) (unsubscribe func())
}

// Shared is what one window needs from a backend: its own view of the store
// and the notifications produced by other views.
type Shared interface {
	Store
	Notifier
}
