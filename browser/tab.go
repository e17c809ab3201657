package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/comsum/dompage"
)

// Tab wraps a Rod page and implements dompage.Page so the locator,
// expander and loader can drive a live browser tab.
type Tab struct {
	page   *rod.Page
	logger *slog.Logger
}

var _ dompage.Page = (*Tab)(nil)

// OpenTab creates a stealth tab, navigates to the URL and waits for the
// initial load.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string, navTimeout time.Duration) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{page: page, logger: mgr.cfg.Logger}, nil
}

// Page exposes the underlying Rod page for injection and view rendering.
func (t *Tab) Page() *rod.Page { return t.page }

// Close closes the tab.
func (t *Tab) Close() error {
	if t.page != nil {
		return t.page.Close()
	}
	return nil
}

// URL returns the tab's current location.
func (t *Tab) URL() string {
	info, err := t.page.Info()
	if err != nil {
		t.logger.Debug("browser: page info failed", "error", err)
		return ""
	}
	return info.URL
}

// Query returns all elements matching the selector. Selector errors and
// detached-frame races return no nodes rather than failing the caller.
func (t *Tab) Query(selector string) []dompage.Node {
	els, err := t.page.Elements(selector)
	if err != nil {
		t.logger.Debug("browser: query failed", "selector", selector, "error", err)
		return nil
	}
	nodes := make([]dompage.Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &element{el: el, logger: t.logger})
	}
	return nodes
}

// ScrollOffset returns the window scroll position.
func (t *Tab) ScrollOffset() (x, y float64) {
	res, err := t.page.Eval(`() => [window.scrollX, window.scrollY]`)
	if err != nil {
		t.logger.Debug("browser: scroll offset failed", "error", err)
		return 0, 0
	}
	arr := res.Value.Arr()
	if len(arr) != 2 {
		return 0, 0
	}
	return arr[0].Num(), arr[1].Num()
}

// ScrollTo scrolls the window to the given position.
func (t *Tab) ScrollTo(x, y float64) error {
	_, err := t.page.Eval(`(x, y) => window.scrollTo(x, y)`, x, y)
	if err != nil {
		return fmt.Errorf("browser: scroll to %.0f,%.0f: %w", x, y, err)
	}
	return nil
}

// element adapts a Rod element to dompage.Node. Accessor errors degrade
// to zero values; a node that vanished mid-read is treated as empty and
// invisible, not fatal.
type element struct {
	el     *rod.Element
	logger *slog.Logger
}

var _ dompage.Node = (*element)(nil)

func (e *element) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return text
}

func (e *element) HTML() string {
	html, err := e.el.HTML()
	if err != nil {
		return ""
	}
	return html
}

func (e *element) Attr(name string) (string, bool) {
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return "", false
	}
	return *val, true
}

func (e *element) Visible() bool {
	visible, err := e.el.Visible()
	if err != nil {
		return false
	}
	return visible
}

func (e *element) Enabled() bool {
	if _, ok := e.Attr("disabled"); ok {
		return false
	}
	if v, ok := e.Attr("aria-disabled"); ok && v == "true" {
		return false
	}
	return true
}

func (e *element) Click() error {
	if err := e.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}

// Bottom returns the page-space Y coordinate of the element's lower edge.
func (e *element) Bottom() float64 {
	shape, err := e.el.Shape()
	if err != nil {
		return 0
	}
	box := shape.Box()
	if box == nil {
		return 0
	}
	return box.Y + box.Height
}

func (e *element) Query(selector string) []dompage.Node {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil
	}
	nodes := make([]dompage.Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &element{el: el, logger: e.logger})
	}
	return nodes
}
