package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-syncsettings/pkg/kv"
)

// Codec reads and writes typed values against a kv.Store. Values are stored
// as JSON. Reads never fail: a missing, empty or corrupt value resolves to the
// caller's default.
type Codec struct {
	store  kv.Store
	logger *slog.Logger
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCodecLogger routes parse and read failures to logger.
func WithCodecLogger(logger *slog.Logger) CodecOption {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCodec wraps store.
func NewCodec(store kv.Store, opts ...CodecOption) *Codec {
	c := &Codec{store: store, logger: discardLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Store returns the underlying store.
func (c *Codec) Store() kv.Store {
	return c.store
}

// Write serialises value and stores it under key. Other windows are notified
// by the store; this window is not.
func (c *Codec) Write(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("settings: encode %q: %w", key, err)
	}
	if err := c.store.Set(key, string(raw)); err != nil {
		return fmt.Errorf("settings: write %q: %w", key, err)
	}
	return nil
}

// Read returns the stored value for key decoded as T, or def.
func Read[T any](c *Codec, key string, def T) T {
	raw, ok := c.raw(key)
	if !ok {
		return def
	}
	value, ok := decodeRaw(raw, def)
	if !ok {
		c.logger.Warn("settings: corrupt value, using default",
			slog.String("key", key), slog.String("raw", raw))
	}
	return value
}

func (c *Codec) raw(key string) (string, bool) {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("settings: read failed, using default",
			slog.String("key", key), slog.String("error", err.Error()))
		return "", false
	}
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

func decodeRaw[T any](raw string, def T) (T, bool) {
	out := def
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return def, false
	}
	return out, true
}

// ReadFlat returns the stored value of s in its canonical type, falling back
// to the declared default. Unknown settings yield nil.
func (c *Codec) ReadFlat(s Setting) any {
	if !s.Valid() {
		return nil
	}
	raw, ok := c.raw(FlatKey(s))
	if !ok {
		return s.Default()
	}
	return c.ParseFlat(s, raw)
}

// ParseFlat decodes a raw stored value for s, degrading to the default when the
// value does not parse or does not satisfy the definition.
func (c *Codec) ParseFlat(s Setting, raw string) any {
	def, ok := definitionIndex[s]
	if !ok {
		return nil
	}
	var (
		value  any
		parsed bool
	)
	switch def.Kind {
	case KindBool:
		value, parsed = decodeRaw(raw, def.Default.(bool))
	case KindNumber:
		value, parsed = decodeRaw(raw, def.Default.(float64))
	case KindEnum:
		var shape string
		shape, parsed = decodeRaw(raw, string(def.Default.(OverlayShape)))
		value = shape
	}
	if parsed {
		if coerced, err := def.Coerce(value); err == nil {
			return coerced
		}
	}
	c.logger.Warn("settings: corrupt value, using default",
		slog.String("key", FlatKey(s)), slog.String("raw", raw))
	return def.Default
}

// WriteFlat validates value against the definition of s and stores it.
func (c *Codec) WriteFlat(s Setting, value any) error {
	def, ok := definitionIndex[s]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, s)
	}
	coerced, err := def.Coerce(value)
	if err != nil {
		return err
	}
	return c.Write(FlatKey(s), coerced)
}

// LoadFlat reads every flat setting.
func (c *Codec) LoadFlat() Flat {
	f := DefaultFlat()
	for _, def := range definitions {
		f, _ = f.with(def.Setting, c.ReadFlat(def.Setting))
	}
	return f
}

// ParseBool decodes a raw visibility flag.
func (c *Codec) ParseBool(key, raw string, def bool) bool {
	value, ok := decodeRaw(raw, def)
	if !ok {
		c.logger.Warn("settings: corrupt value, using default",
			slog.String("key", key), slog.String("raw", raw))
	}
	return value
}

// DefaultCategoryVisible is the fallback for a category with no stored flag:
// every category is shown except npc and pois.
func DefaultCategoryVisible(category string) bool {
	return category != "npc" && category != "pois"
}

// ReadCategoryVisible returns the stored visibility of category.
func (c *Codec) ReadCategoryVisible(category string) bool {
	return Read(c, CategoryKey(category), DefaultCategoryVisible(category))
}

// WriteCategoryVisible stores the visibility of category.
func (c *Codec) WriteCategoryVisible(category string, visible bool) error {
	return c.Write(CategoryKey(category), visible)
}

// ReadTypeVisible returns the stored visibility of an icon type, default true.
func (c *Codec) ReadTypeVisible(typeName string) bool {
	return Read(c, TypeKey(typeName), true)
}

// WriteTypeVisible stores the visibility of an icon type.
func (c *Codec) WriteTypeVisible(typeName string, visible bool) error {
	return c.Write(TypeKey(typeName), visible)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
