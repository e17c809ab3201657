// Package navwatch detects single-page-app route changes — the host moving
// to a different video without a document reload — and drives teardown and
// reinitialization of the collection state.
//
// Detection signals arrive from several independent sources (history
// push/replace hooks, back/forward events, subtree mutations near the
// comments region); the monitor does not care which. A burst of signals is
// throttled into a single URL comparison, and only an actual URL change
// triggers the teardown/reinit cycle.
package navwatch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config tunes the monitor. Zero values take documented defaults.
type Config struct {
	// Throttle is the quiet window collapsing a signal burst into one
	// check. Default: 100ms.
	Throttle time.Duration
	// ReinitDelay is the pause between teardown and the first container
	// poll. Default: 1s.
	ReinitDelay time.Duration
	// PollInterval is the container polling frequency during reinit.
	// Default: 500ms.
	PollInterval time.Duration
	// PollTimeout bounds one reinit's container wait. Default: 10s.
	PollTimeout time.Duration
	// MaxReinitFailures caps consecutive failed reinit cycles; the
	// counter resets on success. Default: 5.
	MaxReinitFailures int
	Logger            *slog.Logger
}

func (c *Config) defaults() {
	if c.Throttle <= 0 {
		c.Throttle = 100 * time.Millisecond
	}
	if c.ReinitDelay <= 0 {
		c.ReinitDelay = time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 10 * time.Second
	}
	if c.MaxReinitFailures <= 0 {
		c.MaxReinitFailures = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Hooks connect the monitor to its owner. CurrentURL is required; the
// rest may be nil.
type Hooks struct {
	// CurrentURL reads the page's present location.
	CurrentURL func() string
	// ContainerPresent reports whether the comments region exists again
	// after a navigation. Nil means "always present".
	ContainerPresent func() bool
	// OnTeardown runs after the cleanup registry, for owner state the
	// registry does not cover (clearing transient UI, resetting caches).
	OnTeardown func()
	// OnReady re-injects the collection entry points once the container
	// reappeared. An error counts as a failed reinit attempt.
	OnReady func(ctx context.Context) error
}

// Monitor is the navigation state machine: Idle → signal burst →
// throttled check → (URL changed) teardown → scheduled reinit → Idle.
type Monitor struct {
	cfg      Config
	hooks    Hooks
	registry *Registry

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	lastURL     string
	pending     *time.Timer // throttle handle; replacing it is the cancellation
	reinitFails int
	initialized bool
}

// New creates a Monitor. The registry collects teardown callbacks from the
// rest of the system; the monitor runs it on every route change.
func New(cfg Config, hooks Hooks, registry *Registry) *Monitor {
	cfg.defaults()
	if registry == nil {
		registry = NewRegistry(0, cfg.Logger)
	}
	return &Monitor{cfg: cfg, hooks: hooks, registry: registry}
}

// Registry returns the cleanup registry owned by this monitor.
func (m *Monitor) Registry() *Registry { return m.registry }

// Start records the baseline URL and arms the monitor. Signals before
// Start are ignored.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.lastURL = m.hooks.CurrentURL()
	m.initialized = true
	m.cfg.Logger.Info("navwatch: armed", "url", m.lastURL)
}

// Stop disarms the monitor and runs a final teardown.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.initialized = false
	m.mu.Unlock()

	m.registry.Run()
}

// Signal reports one navigation detection event from any source. Bursts
// within the throttle window collapse into a single check.
func (m *Monitor) Signal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	if m.pending != nil {
		m.pending.Reset(m.cfg.Throttle)
		return
	}
	m.pending = time.AfterFunc(m.cfg.Throttle, m.check)
}

// check fires when the throttle window closes: compare URLs, and only a
// change costs us a teardown/reinit cycle.
func (m *Monitor) check() {
	m.mu.Lock()
	m.pending = nil
	if !m.initialized || m.ctx == nil || m.ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	current := m.hooks.CurrentURL()
	if current == m.lastURL {
		m.mu.Unlock()
		return
	}
	previous := m.lastURL
	m.lastURL = current
	ctx := m.ctx
	// Disarm until reinit completes: a signal landing between teardown and
	// a finished reinit would start a second cycle interleaved with the
	// one in flight.
	m.initialized = false
	m.mu.Unlock()

	m.cfg.Logger.Info("navwatch: route change", "from", previous, "to", current)
	m.teardown()

	time.AfterFunc(m.cfg.ReinitDelay, func() { m.reinit(ctx) })
}

func (m *Monitor) teardown() {
	m.registry.Run()
	if m.hooks.OnTeardown != nil {
		m.hooks.OnTeardown()
	}
}

// reinit waits for the comments container to reappear, then re-injects
// the entry points. Consecutive failures are capped so a permanently
// broken page state cannot retry forever.
func (m *Monitor) reinit(ctx context.Context) {
	defer m.rearm(ctx)

	m.mu.Lock()
	if m.reinitFails >= m.cfg.MaxReinitFailures {
		m.mu.Unlock()
		m.cfg.Logger.Warn("navwatch: reinit abandoned",
			"consecutive_failures", m.reinitFails)
		return
	}
	m.mu.Unlock()

	ok := m.waitForContainer(ctx)
	if ok && m.hooks.OnReady != nil {
		if err := m.hooks.OnReady(ctx); err != nil {
			m.cfg.Logger.Warn("navwatch: reinit failed", "error", err)
			ok = false
		}
	}

	m.mu.Lock()
	if ok {
		m.reinitFails = 0
	} else {
		m.reinitFails++
	}
	fails := m.reinitFails
	m.mu.Unlock()

	if ok {
		m.cfg.Logger.Info("navwatch: reinitialized")
	} else {
		m.cfg.Logger.Warn("navwatch: container did not reappear", "failures", fails)
	}
}

// rearm accepts signals again after a reinit cycle finished, unless the
// monitor was stopped or restarted while the cycle ran.
func (m *Monitor) rearm(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == ctx && ctx.Err() == nil {
		m.initialized = true
	}
}

func (m *Monitor) waitForContainer(ctx context.Context) bool {
	if m.hooks.ContainerPresent == nil {
		return true
	}
	deadline := time.Now().Add(m.cfg.PollTimeout)
	for {
		if m.hooks.ContainerPresent() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		timer := time.NewTimer(m.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
