// Package colorscheme detects the environment's preferred color scheme.
//
// Detectors are consulted in priority order; the first one that can answer
// wins. A Resolver can also watch for changes by re-evaluating its detectors
// on an interval.
package colorscheme

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Detector reports whether the environment prefers a dark color scheme.
type Detector interface {
	// Name identifies the detector in logs.
	Name() string

	// Priority orders detectors; higher values are consulted first.
	//   - 100+: explicit overrides (environment variables)
	//   -  50+: the terminal itself
	//   -  10+: operating-system settings
	Priority() int

	// Detect returns (prefersDark, true) on success and (_, false) when the
	// signal is unavailable.
	Detect(ctx context.Context) (prefersDark bool, ok bool)
}

// Preference is the resolved environment preference.
type Preference struct {
	PrefersDark bool
	// Source names the detector that answered. Empty means nothing answered.
	Source string
}

// Known reports whether any detector produced the preference.
func (p Preference) Known() bool { return p.Source != "" }

// DefaultPollInterval is used by Watch when the resolver has no interval set.
const DefaultPollInterval = 5 * time.Second

// Resolver combines detectors and watches them for changes.
type Resolver struct {
	mu        sync.Mutex
	detectors []Detector
	interval  time.Duration
	logger    *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithInterval sets the polling interval used by Watch. Non-positive values
// disable watching.
func WithInterval(d time.Duration) Option {
	return func(r *Resolver) { r.interval = d }
}

// WithLogger sets the logger used for detector diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver builds a resolver over the given detectors. Nil detectors are skipped.
func NewResolver(detectors []Detector, opts ...Option) *Resolver {
	r := &Resolver{interval: DefaultPollInterval, logger: log.Default()}
	for _, opt := range opts {
		opt(r)
	}
	for _, d := range detectors {
		r.Register(d)
	}
	return r
}

// Register adds a detector. Safe to call while watching; the next poll sees it.
func (r *Resolver) Register(d Detector) {
	if d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors = append(r.detectors, d)
	sort.SliceStable(r.detectors, func(i, j int) bool {
		return r.detectors[i].Priority() > r.detectors[j].Priority()
	})
}

// Resolve queries detectors by priority and returns the first answer.
func (r *Resolver) Resolve(ctx context.Context) Preference {
	r.mu.Lock()
	detectors := make([]Detector, len(r.detectors))
	copy(detectors, r.detectors)
	r.mu.Unlock()

	for _, d := range detectors {
		if ctx.Err() != nil {
			return Preference{}
		}
		dark, ok := detectSafely(ctx, d, r.logger)
		if ok {
			return Preference{PrefersDark: dark, Source: d.Name()}
		}
	}
	return Preference{}
}

// PrefersDark adapts Resolve to the two-value form consumed by the theme store.
func (r *Resolver) PrefersDark(ctx context.Context) (bool, bool) {
	p := r.Resolve(ctx)
	return p.PrefersDark, p.Known()
}

// Watch polls the detectors until ctx is cancelled and calls onChange whenever
// the known preference differs from the previous poll. The first poll only
// records a baseline. Watch blocks; run it in its own goroutine.
func (r *Resolver) Watch(ctx context.Context, onChange func(prefersDark bool)) {
	if r.interval <= 0 || onChange == nil {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := r.Resolve(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		next := r.Resolve(ctx)
		if !next.Known() {
			continue
		}
		if last.Known() && next.PrefersDark == last.PrefersDark {
			continue
		}
		last = next
		r.logger.Debug("color scheme changed", "event", "colorscheme_change", "source", next.Source, "prefers_dark", next.PrefersDark)
		onChange(next.PrefersDark)
	}
}

func detectSafely(ctx context.Context, d Detector, logger *log.Logger) (dark, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("detector panicked", "event", "colorscheme_detector_panic", "detector", d.Name(), "panic", rec)
			dark, ok = false, false
		}
	}()
	return d.Detect(ctx)
}
