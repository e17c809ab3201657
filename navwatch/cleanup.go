package navwatch

import (
	"log/slog"
	"sync"
)

// Registry is an ordered, bounded set of idempotent teardown callbacks:
// remove injected UI, detach listeners, cancel timers. Running it must
// always be safe — callbacks are expected to no-op when their target is
// already gone, and a panicking callback never stops the rest.
type Registry struct {
	mu     sync.Mutex
	max    int
	fns    []func()
	logger *slog.Logger
}

// DefaultRegistrySize bounds the registry so leaked registrations cannot
// grow memory without bound; the oldest entry is evicted first.
const DefaultRegistrySize = 64

// NewRegistry creates a Registry holding at most max callbacks (or
// DefaultRegistrySize when max <= 0).
func NewRegistry(max int, logger *slog.Logger) *Registry {
	if max <= 0 {
		max = DefaultRegistrySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{max: max, logger: logger}
}

// Add registers a teardown callback, evicting the oldest when full.
func (r *Registry) Add(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fns) >= r.max {
		r.fns = r.fns[1:]
	}
	r.fns = append(r.fns, fn)
}

// Run executes all callbacks in registration order and clears the
// registry. Panics are logged and swallowed.
func (r *Registry) Run() {
	r.mu.Lock()
	fns := r.fns
	r.fns = nil
	r.mu.Unlock()

	for _, fn := range fns {
		runSafely(fn, r.logger)
	}
}

// Len returns the number of pending callbacks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fns)
}

func runSafely(fn func(), logger *slog.Logger) {
	defer func() {
		if p := recover(); p != nil {
			logger.Warn("navwatch: cleanup callback panicked", "panic", p)
		}
	}()
	fn()
}
