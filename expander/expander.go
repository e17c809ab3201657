// Package expander reveals hidden reply threads by activating their
// disclosure controls, paced so the host page is never flooded with
// synthetic clicks.
package expander

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hazyhaar/comsum/dompage"
)

// Config tunes the expander. Zero values take documented defaults.
type Config struct {
	// ControlSelector finds candidate disclosure controls.
	// Default: "button, [role=button]".
	ControlSelector string
	// Keywords filter candidates by accessible name, lowercase substring
	// match. Defaults cover the host page's common locales.
	Keywords []string
	// BatchSize groups clicks. Default: 3.
	BatchSize int
	// ClickDelay paces clicks inside a batch. Default: 100ms.
	ClickDelay time.Duration
	// BatchDelay separates batches. Default: 200ms.
	BatchDelay time.Duration
	// SettleDelay is the final wait for asynchronously rendered replies.
	// Default: 1s.
	SettleDelay time.Duration
	// MaxControls bounds one pass. Default: 30.
	MaxControls int
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.ControlSelector == "" {
		c.ControlSelector = "button, [role=button]"
	}
	if len(c.Keywords) == 0 {
		c.Keywords = DefaultKeywords()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 3
	}
	if c.ClickDelay <= 0 {
		c.ClickDelay = 100 * time.Millisecond
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 200 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = time.Second
	}
	if c.MaxControls <= 0 {
		c.MaxControls = 30
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// DefaultKeywords returns the localized accessible-name fragments that mark
// a control as reply-related.
func DefaultKeywords() []string {
	return []string{"repl", "répon", "antwort", "respuesta", "risposta", "返信", "답글", "ответ"}
}

// Expander triggers progressive disclosure of replies. It enforces the
// timing contract: clicks within a batch are strictly sequential, batches
// are strictly sequential, and overlapping invocations collapse into one —
// a call arriving while a pass is in flight restarts the in-flight settle
// wait instead of producing overlapping batches.
type Expander struct {
	cfg     Config
	limiter *rate.Limiter

	mu      sync.Mutex
	running bool
	restart chan struct{}
}

// New creates an Expander.
func New(cfg Config) *Expander {
	cfg.defaults()
	return &Expander{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.ClickDelay), 1),
		restart: make(chan struct{}, 1),
	}
}

// Expand runs one disclosure pass and waits for the settle delay. It never
// returns an error: internal failures are logged and swallowed. When a pass
// is already in flight the call returns immediately after extending that
// pass's settle wait.
func (e *Expander) Expand(ctx context.Context, page dompage.Page) {
	e.mu.Lock()
	if e.running {
		select {
		case e.restart <- struct{}{}:
		default:
		}
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Error("expander: pass panicked", "panic", r)
		}
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	// Drop a stale extension left over from a previous pass.
	select {
	case <-e.restart:
	default:
	}

	clicked := e.clickControls(ctx, page)
	if clicked > 0 {
		e.cfg.Logger.Debug("expander: controls activated", "count", clicked)
	}
	e.settle(ctx)
}

func (e *Expander) clickControls(ctx context.Context, page dompage.Page) int {
	controls := e.controls(page)
	clicked := 0
	for i, n := range controls {
		if err := e.limiter.Wait(ctx); err != nil {
			return clicked
		}
		// Re-check right before acting: the DOM may have changed during
		// the pacing wait.
		if !n.Visible() || !n.Enabled() {
			continue
		}
		if err := n.Click(); err != nil {
			e.cfg.Logger.Debug("expander: click failed", "error", err)
			continue
		}
		clicked++
		if clicked%e.cfg.BatchSize == 0 && i < len(controls)-1 {
			if !sleep(ctx, e.cfg.BatchDelay) {
				return clicked
			}
		}
	}
	return clicked
}

// controls returns the visible, enabled disclosure controls whose
// accessible name matches a reply keyword, bounded to MaxControls.
func (e *Expander) controls(page dompage.Page) []dompage.Node {
	candidates := page.Query(e.cfg.ControlSelector)
	out := make([]dompage.Node, 0, min(len(candidates), e.cfg.MaxControls))
	for _, n := range candidates {
		if !n.Visible() || !n.Enabled() {
			continue
		}
		if !e.matchesKeyword(accessibleName(n)) {
			continue
		}
		out = append(out, n)
		if len(out) >= e.cfg.MaxControls {
			break
		}
	}
	return out
}

func (e *Expander) matchesKeyword(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range e.cfg.Keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// accessibleName approximates the ARIA accessible name: aria-label first,
// text content otherwise.
func accessibleName(n dompage.Node) string {
	if label, ok := n.Attr("aria-label"); ok && label != "" {
		return label
	}
	return n.Text()
}

// settle waits for asynchronously rendered replies to materialize. Each
// coalesced Expand call restarts the timer.
func (e *Expander) settle(ctx context.Context) {
	timer := time.NewTimer(e.cfg.SettleDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.restart:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(e.cfg.SettleDelay)
		case <-timer.C:
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
