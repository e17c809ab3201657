// Package collector coordinates a full collect-and-summarize run: gather
// comment text from the page, hand it to the summarizer under a mode
// deadline, and stream progress to a View. At most one run is in flight
// at a time.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/comsum/dompage"
	"github.com/hazyhaar/comsum/loader"
	"github.com/hazyhaar/comsum/locator"
	"github.com/hazyhaar/comsum/summarize"
)

// Mode selects how much of the page a run collects.
type Mode string

const (
	// ModeQuick summarizes only the comments already rendered.
	ModeQuick Mode = "quick"
	// ModeDeep scrolls and paginates to gather more before summarizing.
	ModeDeep Mode = "deep"
)

// Result is the outcome of a successful run.
type Result struct {
	Mode         Mode   `json:"mode"`
	CommentCount int    `json:"comment_count"`
	Summary      string `json:"summary"`
}

// Config tunes a Coordinator. Zero values take the defaults below.
type Config struct {
	// QuickMax caps comments in a quick run. Default: 100.
	QuickMax int
	// DeepMax caps comments in a deep run. Default: 150.
	DeepMax int
	// MinLength drops shorter comments (runes). Default: 5.
	MinLength int
	// MaxLength truncates longer comments (runes). Default: 1000.
	MaxLength int
	// QuickTimeout bounds the quick summarize call. Default: 60s.
	QuickTimeout time.Duration
	// DeepTimeout bounds the deep summarize call. Default: 90s.
	DeepTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.QuickMax <= 0 {
		c.QuickMax = 100
	}
	if c.DeepMax <= 0 {
		c.DeepMax = 150
	}
	if c.MinLength <= 0 {
		c.MinLength = 5
	}
	if c.MaxLength <= 0 {
		c.MaxLength = 1000
	}
	if c.QuickTimeout <= 0 {
		c.QuickTimeout = 60 * time.Second
	}
	if c.DeepTimeout <= 0 {
		c.DeepTimeout = 90 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Coordinator runs quick and deep collection against one page.
type Coordinator struct {
	cfg  Config
	page dompage.Page
	loc  *locator.Locator
	ldr  *loader.Loader
	sum  summarize.Summarizer
	view View

	busy atomic.Bool
}

// New builds a Coordinator. view may be nil, in which case progress goes
// to the configured logger.
func New(page dompage.Page, loc *locator.Locator, ldr *loader.Loader, sum summarize.Summarizer, view View, cfg Config) *Coordinator {
	cfg.defaults()
	if view == nil {
		view = &LogView{Logger: cfg.Logger}
	}
	return &Coordinator{
		cfg:  cfg,
		page: page,
		loc:  loc,
		ldr:  ldr,
		sum:  sum,
		view: view,
	}
}

// Busy reports whether a run is currently in flight.
func (c *Coordinator) Busy() bool { return c.busy.Load() }

// Quick collects the comments already rendered and summarizes them.
func (c *Coordinator) Quick(ctx context.Context) (*Result, error) {
	return c.run(ctx, ModeQuick)
}

// Deep scrolls, expands and paginates to gather comments, then summarizes.
func (c *Coordinator) Deep(ctx context.Context) (*Result, error) {
	return c.run(ctx, ModeDeep)
}

func (c *Coordinator) run(ctx context.Context, mode Mode) (res *Result, err error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	started := time.Now()
	c.view.SetBusy(true)

	// The view must always return to idle, including after a panic in
	// page or summarizer code.
	defer func() {
		if r := recover(); r != nil {
			c.cfg.Logger.Error("run panicked", "mode", mode, "panic", r)
			c.view.Error("internal error")
			res, err = nil, fmt.Errorf("collector: %s run panicked: %v", mode, r)
		}
		c.view.SetBusy(false)
		c.busy.Store(false)
	}()

	comments, err := c.collect(ctx, mode)
	if err != nil {
		c.view.Error(err.Error())
		return nil, err
	}
	comments = c.clip(comments, mode)
	if len(comments) == 0 {
		c.view.Error("no comments found")
		return nil, ErrNoComments
	}
	c.view.Loading(len(comments))

	timeout := c.cfg.QuickTimeout
	if mode == ModeDeep {
		timeout = c.cfg.DeepTimeout
	}
	text, err := summarize.WithTimeout(c.sum, timeout).Summarize(ctx, comments)
	if err != nil {
		switch {
		case errors.Is(err, summarize.ErrTimeout):
			c.view.Error("summary timed out")
		default:
			c.view.Error(err.Error())
		}
		return nil, fmt.Errorf("collector: %s summarize: %w", mode, err)
	}

	c.view.Summary(text)
	c.cfg.Logger.Info("run finished",
		"mode", mode,
		"comments", len(comments),
		"elapsed", time.Since(started))
	return &Result{Mode: mode, CommentCount: len(comments), Summary: text}, nil
}

func (c *Coordinator) collect(ctx context.Context, mode Mode) ([]string, error) {
	if mode != ModeDeep {
		return c.loc.Locate(c.page), nil
	}
	comments, err := c.ldr.Load(ctx, c.page)
	if err != nil {
		// A missing container means zero comments, reported uniformly
		// by the empty check in run.
		if errors.Is(err, loader.ErrNoContainer) {
			return nil, nil
		}
		return nil, fmt.Errorf("collector: deep load: %w", err)
	}
	return comments, nil
}

// clip enforces per-comment length bounds and the mode's comment cap.
// The locator applies the same bounds at collection time; runs fed from
// other sources still get them here.
func (c *Coordinator) clip(comments []string, mode Mode) []string {
	max := c.cfg.QuickMax
	if mode == ModeDeep {
		max = c.cfg.DeepMax
	}

	out := make([]string, 0, len(comments))
	for _, text := range comments {
		runes := []rune(text)
		if len(runes) < c.cfg.MinLength {
			continue
		}
		if len(runes) > c.cfg.MaxLength {
			text = string(runes[:c.cfg.MaxLength])
		}
		out = append(out, text)
		if len(out) >= max {
			break
		}
	}
	return out
}
