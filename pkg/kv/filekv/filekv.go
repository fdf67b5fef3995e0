// Package filekv stores each settings key in its own file under a directory
// and watches that directory with fsnotify, so windows living in separate
// processes observe each other's writes.
package filekv

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-syncsettings/pkg/kv"
)

const fileExt = ".val"

// Config configures a directory-backed store.
type Config struct {
	// Dir holds one file per key. Created when missing.
	Dir string

	// Logger receives watcher errors. Nil discards them.
	Logger *slog.Logger
}

// Store is one process's handle on the directory. Views handed out by the
// same Store notify each other in-process; writes from other processes arrive
// through the watcher.
type Store struct {
	dir     string
	fanout  *kv.Fanout
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu    sync.Mutex
	known map[string]string

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// Open prepares the directory, loads the current values and starts watching.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("filekv: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("filekv: create dir %s: %w", cfg.Dir, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		dir:    cfg.Dir,
		fanout: kv.NewFanout(),
		logger: logger,
		known:  map[string]string{},
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filekv: create watcher: %w", err)
	}
	if err := watcher.Add(cfg.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("filekv: watch %s: %w", cfg.Dir, err)
	}
	s.watcher = watcher
	go s.watch()
	return s, nil
}

// Window returns a new view on the store.
func (s *Store) Window() *View {
	return &View{store: s, origin: s.fanout.NewOrigin()}
}

// Close stops the watcher. Views fail with kv.ErrClosed afterwards.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.watcher.Close()
		<-s.done
	})
	return err
}

func (s *Store) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("filekv: read dir %s: %w", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := keyFromFile(entry.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("filekv: read %s: %w", entry.Name(), err)
		}
		s.known[key] = string(data)
	}
	return nil
}

func (s *Store) watch() {
	defer close(s.done)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("filekv watcher error", slog.String("error", err.Error()))
		}
	}
}

func (s *Store) handleEvent(event fsnotify.Event) {
	key, ok := keyFromFile(filepath.Base(event.Name))
	if !ok {
		return
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		s.observe(key, nil)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	data, err := os.ReadFile(event.Name)
	if errors.Is(err, fs.ErrNotExist) {
		s.observe(key, nil)
		return
	}
	if err != nil {
		s.logger.Warn("filekv read failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	value := string(data)
	s.observe(key, &value)
}

// observe publishes a value seen on disk unless it matches what this process
// already knows, which is how our own writes are kept from echoing back.
func (s *Store) observe(key string, value *string) {
	err := s.fanout.Publish(kv.External, func() (kv.Change, bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		prev, had := s.known[key]
		if value == nil {
			if !had {
				return kv.Change{}, false, nil
			}
			delete(s.known, key)
			return kv.Deleted(key), true, nil
		}
		if had && prev == *value {
			return kv.Change{}, false, nil
		}
		s.known[key] = *value
		return kv.Updated(key, *value), true, nil
	})
	if err != nil {
		s.logger.Warn("filekv publish failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (s *Store) get(key string) (string, bool, error) {
	if s.isClosed() {
		return "", false, kv.ErrClosed
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("filekv: get %q: %w", key, err)
	}
	return string(data), true, nil
}

func (s *Store) set(origin kv.Origin, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if s.isClosed() {
		return kv.ErrClosed
	}
	return s.fanout.Publish(origin, func() (kv.Change, bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if prev, ok := s.known[key]; ok && prev == value {
			return kv.Change{}, false, nil
		}
		if err := s.writeFile(key, value); err != nil {
			return kv.Change{}, false, err
		}
		s.known[key] = value
		return kv.Updated(key, value), true, nil
	})
}

func (s *Store) delete(origin kv.Origin, key string) error {
	if s.isClosed() {
		return kv.ErrClosed
	}
	return s.fanout.Publish(origin, func() (kv.Change, bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := os.Remove(s.path(key))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return kv.Change{}, false, fmt.Errorf("filekv: delete %q: %w", key, err)
		}
		_, had := s.known[key]
		delete(s.known, key)
		return kv.Deleted(key), had || err == nil, nil
	})
}

func (s *Store) keys() ([]string, error) {
	if s.isClosed() {
		return nil, kv.ErrClosed
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("filekv: keys: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if key, ok := keyFromFile(entry.Name()); ok && !entry.IsDir() {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) writeFile(key, value string) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("filekv: set %q: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("filekv: set %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("filekv: set %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("filekv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

func fileName(key string) string {
	escaped := url.PathEscape(key)
	if strings.HasPrefix(escaped, ".") {
		escaped = "%2E" + escaped[1:]
	}
	return escaped + fileExt
}

func keyFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// View is one window's handle on the store.
type View struct {
	store  *Store
	origin kv.Origin
}

var _ kv.Shared = (*View)(nil)

func (v *View) Get(key string) (string, bool, error) { return v.store.get(key) }

func (v *View) Set(key, value string) error { return v.store.set(v.origin, key, value) }

func (v *View) Delete(key string) error { return v.store.delete(v.origin, key) }

func (v *View) Keys() ([]string, error) { return v.store.keys() }

func (v *View) Subscribe(fn func(kv.Change)) func() {
	return v.store.fanout.Subscribe(v.origin, fn)
}
