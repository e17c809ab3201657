// Package loader drives deep collection: it provokes the host page into
// revealing more comments by scrolling past the comment region's bottom
// edge and activating pagination controls, until the comment count stops
// growing or a bound is hit.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/comsum/dompage"
	"github.com/hazyhaar/comsum/expander"
	"github.com/hazyhaar/comsum/locator"
)

// ErrNoContainer is returned when the page has no comments region at all.
var ErrNoContainer = errors.New("loader: comments container not found")

// Config tunes the loader. Zero values take documented defaults.
type Config struct {
	// MaxAttempts bounds the scroll/paginate iterations. Default: 4.
	MaxAttempts int
	// ScrollStep is how far past the region's bottom edge each scroll
	// targets, in page pixels. Default: 600.
	ScrollStep float64
	// SettleDelay is the wait after each scroll or pagination click.
	// Default: 800ms.
	SettleDelay time.Duration
	// Cap stops iteration early once this many comments are collected.
	// Default: 150.
	Cap int
	// PaginationSelector finds candidate "load more" controls.
	// Default: "button, [role=button]".
	PaginationSelector string
	// PaginationKeywords filter candidates by accessible name.
	// Default: "more", "load", "continue".
	PaginationKeywords []string
	Logger             *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.ScrollStep <= 0 {
		c.ScrollStep = 600
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 800 * time.Millisecond
	}
	if c.Cap <= 0 {
		c.Cap = 150
	}
	if c.PaginationSelector == "" {
		c.PaginationSelector = "button, [role=button]"
	}
	if len(c.PaginationKeywords) == 0 {
		c.PaginationKeywords = []string{"more", "load", "continue"}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Loader runs the deep-collection state machine over a page.
type Loader struct {
	cfg Config
	loc *locator.Locator
	exp *expander.Expander
}

// New creates a Loader on top of an existing locator and expander.
func New(cfg Config, loc *locator.Locator, exp *expander.Expander) *Loader {
	cfg.defaults()
	return &Loader{cfg: cfg, loc: loc, exp: exp}
}

// Load progressively reveals comments and returns the accumulated texts,
// truncated to Cap. The viewport's scroll position is recorded on entry
// and restored on every exit path, including errors and panics.
func (l *Loader) Load(ctx context.Context, page dompage.Page) ([]string, error) {
	originX, originY := page.ScrollOffset()
	defer func() {
		if err := page.ScrollTo(originX, originY); err != nil {
			l.cfg.Logger.Warn("loader: restore scroll failed", "error", err)
		}
	}()

	if _, ok := l.loc.Container(page); !ok {
		return nil, ErrNoContainer
	}

	// Virtualized hosts recycle nodes out of the render window, so each
	// Locate call only sees the current slice. The result is the union of
	// every iteration's snapshot, in first-seen order.
	seen := make(map[string]struct{})
	var collected []string
	absorb := func() int {
		added := 0
		for _, text := range l.loc.Locate(page) {
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			collected = append(collected, text)
			added++
		}
		return added
	}

	absorb()
	if len(collected) > 0 {
		l.exp.Expand(ctx, page)
		absorb()
	}

	for attempt := 1; attempt <= l.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(collected) >= l.cfg.Cap {
			break
		}

		container, ok := l.loc.Container(page)
		if !ok {
			// Region vanished mid-run (re-render). Keep what we have.
			break
		}

		if err := page.ScrollTo(0, container.Bottom()+l.cfg.ScrollStep); err != nil {
			return nil, fmt.Errorf("loader: scroll: %w", err)
		}
		if !sleep(ctx, l.cfg.SettleDelay) {
			return nil, ctx.Err()
		}

		if len(collected) > 0 {
			l.exp.Expand(ctx, page)
		}

		if more := l.pagination(page); more != nil {
			if err := more.Click(); err != nil {
				l.cfg.Logger.Debug("loader: pagination click failed", "error", err)
			} else {
				if !sleep(ctx, l.cfg.SettleDelay) {
					return nil, ctx.Err()
				}
				l.exp.Expand(ctx, page)
			}
		}

		added := absorb()
		l.cfg.Logger.Debug("loader: iteration complete",
			"attempt", attempt, "added", added, "total", len(collected))

		if added == 0 {
			// Converged — no new content arrived this iteration.
			break
		}
	}

	if len(collected) > l.cfg.Cap {
		collected = collected[:l.cfg.Cap]
	}
	return collected, nil
}

// pagination returns the first visible, enabled control whose accessible
// name looks like a "load more" affordance.
func (l *Loader) pagination(page dompage.Page) dompage.Node {
	for _, n := range page.Query(l.cfg.PaginationSelector) {
		if !n.Visible() || !n.Enabled() {
			continue
		}
		name := strings.ToLower(accessibleName(n))
		for _, kw := range l.cfg.PaginationKeywords {
			if strings.Contains(name, kw) {
				return n
			}
		}
	}
	return nil
}

func accessibleName(n dompage.Node) string {
	if label, ok := n.Attr("aria-label"); ok && label != "" {
		return label
	}
	return n.Text()
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
