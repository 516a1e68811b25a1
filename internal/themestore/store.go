// Package themestore owns the active display mode for one application
// instance: it resolves the initial mode, persists explicit user choices and
// fans out changes to subscribers.
package themestore

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"folio-terminal/internal/theme"
)

// DefaultKey is the persistence key used when Options.Key is empty.
const DefaultKey = "folio.theme"

// VisitorKey scopes the persistence key to one remote visitor.
func VisitorKey(visitor string) string {
	if visitor == "" {
		return DefaultKey
	}
	return DefaultKey + "/" + visitor
}

// State is the read-only snapshot handed to consumers.
type State struct {
	// Theme is empty until the store is mounted.
	Theme   theme.Value
	IsDark  bool
	IsLight bool
	Mounted bool
}

// Listener receives the new state after every change. Listeners run
// synchronously on the goroutine that caused the change and must not call
// Toggle or Set themselves.
type Listener func(State)

// Persistence stores the serialized mode under a key.
type Persistence interface {
	// Load returns ErrNotFound when nothing was stored under key.
	Load(key string) (string, error)
	Save(key, value string) error
}

// Preference reports the environment's preferred color scheme.
type Preference interface {
	PrefersDark(ctx context.Context) (dark bool, ok bool)
}

// PreferenceWatcher is implemented by preferences that can report changes.
// Watch blocks until ctx is done.
type PreferenceWatcher interface {
	Watch(ctx context.Context, onChange func(prefersDark bool))
}

// Options configures a Store. Every field is optional.
type Options struct {
	Key         string
	Persistence Persistence
	Preference  Preference
	Logger      *log.Logger
}

// Store is the single source of truth for the display mode.
//
// All mutations and their fan-out are serialized, so subscribers observe
// transitions in the order they happened.
type Store struct {
	key     string
	persist Persistence
	pref    Preference
	logger  *log.Logger

	// initMu serializes Initialize calls. Resolution runs outside opMu so
	// Set and Toggle never wait on a slow preference source.
	initMu sync.Mutex
	// opMu serializes transitions together with their notifications.
	opMu sync.Mutex

	mu        sync.Mutex
	current   theme.Value
	ready     bool
	explicit  bool
	closed    bool
	listeners map[uint64]Listener
	nextID    uint64
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// New builds an unmounted store. Call Initialize before relying on State.
func New(opts Options) *Store {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		key:       key,
		persist:   opts.Persistence,
		pref:      opts.Preference,
		logger:    logger.With("theme_key", key),
		listeners: make(map[uint64]Listener),
	}
}

// Initialize resolves the starting mode and mounts the store. Resolution order
// is a valid persisted value, then the environment preference, then light.
// Calls after the first successful one are no-ops. Initialize never fails;
// broken persistence or preference sources degrade to the default.
func (s *Store) Initialize(ctx context.Context) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	if s.ready || s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	value, explicit, source := s.resolveInitial(ctx)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	// A Set or Toggle before mount is an explicit choice and wins.
	if s.explicit {
		value = theme.Normalize(string(s.current))
		explicit = true
		source = "pre-mount"
	}
	s.current = value
	s.explicit = explicit
	s.ready = true
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.Info("theme ready", "event", "theme_ready", "theme", value, "source", source)
	s.notify(state)
	s.startWatch()
}

func (s *Store) resolveInitial(ctx context.Context) (value theme.Value, explicit bool, source string) {
	if raw, ok := s.load(); ok {
		if v, err := theme.Parse(raw); err == nil {
			return v, true, "persisted"
		}
		s.logger.Warn("ignoring invalid persisted theme", "event", "theme_persisted_invalid", "value", raw)
	}

	if dark, ok := s.prefersDark(ctx); ok {
		if dark {
			return theme.Dark, false, "environment"
		}
		return theme.Light, false, "environment"
	}

	return theme.Default, false, "default"
}

// State returns the current snapshot. Before Initialize completes it reports
// Mounted=false and an empty Theme.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	if !s.ready {
		return State{}
	}
	return State{
		Theme:   s.current,
		IsDark:  s.current == theme.Dark,
		IsLight: s.current == theme.Light,
		Mounted: true,
	}
}

// Toggle flips the mode, writes it through to persistence and notifies every
// subscriber before returning.
func (s *Store) Toggle() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	next := theme.Normalize(string(s.current)).Opposite()
	s.mu.Unlock()

	s.apply(next)
}

// Set switches to v with the same contract as Toggle. Setting the current
// mode again does nothing: no write and no notification. Invalid values are
// normalized to light.
func (s *Store) Set(v theme.Value) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	next := theme.Normalize(string(v))
	s.mu.Lock()
	same := s.current == next
	s.mu.Unlock()
	if same {
		return
	}

	s.apply(next)
}

// apply must be called with opMu held.
func (s *Store) apply(next theme.Value) {
	s.mu.Lock()
	s.current = next
	s.explicit = true
	state := s.stateLocked()
	s.mu.Unlock()

	s.save(next)
	s.logger.Debug("theme changed", "event", "theme_change", "theme", next, "reason", "user")
	s.notify(state)
}

// Subscribe registers fn for every subsequent change. The returned function
// removes it; calling it more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers reports how many listeners are registered.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Close stops following the environment and drops all listeners. The last
// state stays readable and the store stays mounted.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop, done := s.stopWatch, s.watchDone
	s.listeners = make(map[uint64]Listener)
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
}

// notify delivers state to every listener that is still subscribed at the
// moment it is called. Must be called with opMu held.
func (s *Store) notify(state State) {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.listeners[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		s.callListener(fn, state)
	}
}

func (s *Store) callListener(fn Listener, state State) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("theme listener panicked", "event", "theme_listener_panic", "panic", rec)
		}
	}()
	fn(state)
}

func (s *Store) startWatch() {
	watcher, ok := s.pref.(PreferenceWatcher)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return
	}
	s.stopWatch, s.watchDone = cancel, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Warn("preference watcher stopped", "event", "theme_watch_panic", "panic", rec)
			}
		}()
		watcher.Watch(ctx, s.followEnvironment)
	}()
}

// followEnvironment applies an environment change unless the user has made
// an explicit choice. Environment-driven changes are not persisted.
func (s *Store) followEnvironment(prefersDark bool) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	next := theme.Light
	if prefersDark {
		next = theme.Dark
	}

	s.mu.Lock()
	if s.explicit || s.closed || !s.ready || s.current == next {
		s.mu.Unlock()
		return
	}
	s.current = next
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.Debug("theme changed", "event", "theme_change", "theme", next, "reason", "environment")
	s.notify(state)
}

func (s *Store) load() (raw string, ok bool) {
	if s.persist == nil {
		return "", false
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Warn("theme persistence panicked on load", "event", "theme_load_failed", "panic", rec)
			raw, ok = "", false
		}
	}()

	raw, err := s.persist.Load(s.key)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("theme persistence unavailable", "event", "theme_load_failed", "err", err)
		}
		return "", false
	}
	return raw, true
}

func (s *Store) save(v theme.Value) {
	if s.persist == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Warn("theme persistence panicked on save", "event", "theme_save_failed", "panic", rec)
		}
	}()

	if err := s.persist.Save(s.key, string(v)); err != nil {
		s.logger.Warn("theme not persisted", "event", "theme_save_failed", "theme", v, "err", err)
	}
}

func (s *Store) prefersDark(ctx context.Context) (dark, ok bool) {
	if s.pref == nil {
		return false, false
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Warn("color scheme preference panicked", "event", "theme_preference_failed", "panic", rec)
			dark, ok = false, false
		}
	}()
	return s.pref.PrefersDark(ctx)
}
