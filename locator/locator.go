// Package locator discovers comment text in the current DOM without
// triggering any loading or expansion.
//
// Lookup strategies are tried in priority order and the first one that
// yields results wins outright — results from different strategies are
// never merged, trading recall for precision so page chrome is not
// mistaken for comments.
package locator

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/hazyhaar/comsum/dompage"
	"github.com/hazyhaar/comsum/sanitize"
)

// Config tunes the locator. Zero values take documented defaults.
type Config struct {
	// ContainerSelectors locate the comments root, tried in order.
	ContainerSelectors []string
	// Strategies locate comment nodes inside the container, tried in order.
	Strategies []Strategy
	// MaxComments bounds one Locate call. Default: 200.
	MaxComments int
	// MinLength rejects shorter texts (runes). Default: 5.
	MinLength int
	// MaxLength is the sanitizer cap (runes). Default: sanitize.DefaultMaxLen.
	MaxLength int
	// CacheTTL bounds the container cache. Default: 5s.
	CacheTTL time.Duration
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if len(c.ContainerSelectors) == 0 {
		c.ContainerSelectors = DefaultContainerSelectors()
	}
	if len(c.Strategies) == 0 {
		c.Strategies = DefaultStrategies()
	}
	if c.MaxComments <= 0 {
		c.MaxComments = 200
	}
	if c.MinLength <= 0 {
		c.MinLength = 5
	}
	if c.MaxLength <= 0 {
		c.MaxLength = sanitize.DefaultMaxLen
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Locator finds comment texts. It owns a time-boxed cache of the comments
// container; the container node itself belongs to the host page.
type Locator struct {
	cfg Config

	cached   dompage.Node
	cachedAt time.Time
}

// New creates a Locator.
func New(cfg Config) *Locator {
	cfg.defaults()
	return &Locator{cfg: cfg}
}

// Locate returns the deduplicated comment texts currently present in the
// DOM, bounded to MaxComments. A page with no comments container yields an
// empty result, not an error — callers decide whether that is fatal.
func (l *Locator) Locate(page dompage.Page) []string {
	container, ok := l.Container(page)
	if !ok {
		return nil
	}

	var nodes []dompage.Node
	for _, st := range l.cfg.Strategies {
		nodes = safeFind(st, container)
		if len(nodes) > 0 {
			l.cfg.Logger.Debug("locator: strategy hit",
				"strategy", st.Name, "candidates", len(nodes))
			break
		}
	}
	if len(nodes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(nodes))
	out := make([]string, 0, min(len(nodes), l.cfg.MaxComments))
	for _, n := range nodes {
		text := sanitize.HTMLText(n.HTML(), l.cfg.MaxLength)
		if utf8.RuneCountInString(text) < l.cfg.MinLength {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
		if len(out) >= l.cfg.MaxComments {
			break
		}
	}
	return out
}

// Container resolves the comments root, serving a cached node while it is
// fresh. The cache is a lookup shortcut only — Reset drops it on teardown.
func (l *Locator) Container(page dompage.Page) (dompage.Node, bool) {
	if l.cached != nil && time.Since(l.cachedAt) < l.cfg.CacheTTL {
		return l.cached, true
	}
	l.cached = nil

	for _, sel := range l.cfg.ContainerSelectors {
		if nodes := page.Query(sel); len(nodes) > 0 {
			l.cached = nodes[0]
			l.cachedAt = time.Now()
			return l.cached, true
		}
	}
	return nil, false
}

// Reset drops the container cache. Called on navigation teardown.
func (l *Locator) Reset() {
	l.cached = nil
	l.cachedAt = time.Time{}
}

// MaxComments reports the configured per-call bound.
func (l *Locator) MaxComments() int { return l.cfg.MaxComments }

// safeFind runs a strategy, converting a panic into zero results. One bad
// selector must not abort the chain.
func safeFind(st Strategy, root dompage.Node) (nodes []dompage.Node) {
	defer func() {
		if recover() != nil {
			nodes = nil
		}
	}()
	return st.Find(root)
}
