// Package badgerkv backs the settings key space with BadgerDB for windows that
// live in the same process. Badger holds an exclusive lock on its directory, so
// every window view is handed out by one DB and notifications travel through
// an in-process fan-out.
package badgerkv

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/goliatone/go-syncsettings/pkg/kv"
)

// DefaultPrefix namespaces settings keys inside a shared database.
const DefaultPrefix = "settings/"

// Config holds configuration for a settings database.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every write before Set returns.
	SyncWrites bool

	// Prefix is prepended to every key. Empty means DefaultPrefix.
	Prefix string

	// Logger receives BadgerDB's internal log lines. Nil silences them.
	Logger *slog.Logger
}

// DefaultConfig returns durable defaults for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true, Prefix: DefaultPrefix}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true, Prefix: DefaultPrefix}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB owns the badger handle and the fan-out shared by its views.
type DB struct {
	db     *badger.DB
	prefix []byte
	fanout *kv.Fanout
	closed atomic.Bool
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badgerkv: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("badgerkv: create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &DB{db: db, prefix: []byte(prefix), fanout: kv.NewFanout()}, nil
}

// Window returns a new view on the database.
func (d *DB) Window() *View {
	return &View{db: d, origin: d.fanout.NewOrigin()}
}

// Close releases the database. Views fail with kv.ErrClosed afterwards.
func (d *DB) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	return d.db.Close()
}

func (d *DB) key(key string) []byte {
	out := make([]byte, 0, len(d.prefix)+len(key))
	out = append(out, d.prefix...)
	return append(out, key...)
}

func (d *DB) get(key string) (string, bool, error) {
	if d.closed.Load() {
		return "", false, kv.ErrClosed
	}
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(d.key(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badgerkv: get %q: %w", key, err)
	}
	return string(value), true, nil
}

func (d *DB) set(origin kv.Origin, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if d.closed.Load() {
		return kv.ErrClosed
	}
	return d.fanout.Publish(origin, func() (kv.Change, bool, error) {
		changed := false
		err := d.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(d.key(key))
			switch {
			case err == nil:
				prev, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if bytes.Equal(prev, []byte(value)) {
					return nil
				}
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			changed = true
			return txn.Set(d.key(key), []byte(value))
		})
		if err != nil {
			return kv.Change{}, false, fmt.Errorf("badgerkv: set %q: %w", key, err)
		}
		return kv.Updated(key, value), changed, nil
	})
}

func (d *DB) delete(origin kv.Origin, key string) error {
	if d.closed.Load() {
		return kv.ErrClosed
	}
	return d.fanout.Publish(origin, func() (kv.Change, bool, error) {
		existed := false
		err := d.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(d.key(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			existed = true
			return txn.Delete(d.key(key))
		})
		if err != nil {
			return kv.Change{}, false, fmt.Errorf("badgerkv: delete %q: %w", key, err)
		}
		return kv.Deleted(key), existed, nil
	})
}

func (d *DB) keys() ([]string, error) {
	if d.closed.Load() {
		return nil, kv.ErrClosed
	}
	var out []string
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = d.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			out = append(out, string(key[len(d.prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerkv: keys: %w", err)
	}
	return out, nil
}

// View is one window's handle on the database.
type View struct {
	db     *DB
	origin kv.Origin
}

var _ kv.Shared = (*View)(nil)

func (v *View) Get(key string) (string, bool, error) { return v.db.get(key) }

func (v *View) Set(key, value string) error { return v.db.set(v.origin, key, value) }

func (v *View) Delete(key string) error { return v.db.delete(v.origin, key) }

func (v *View) Keys() ([]string, error) { return v.db.keys() }

func (v *View) Subscribe(fn func(kv.Change)) func() {
	return v.db.fanout.Subscribe(v.origin, fn)
}
