package dompage

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Fixture is an in-memory Page backed by a parsed HTML document. Tests
// script it: click handlers mutate the document the way the host page
// would, and a scroll handler can simulate lazy loading.
//
// Geometry is synthetic — each element contributes a fixed line height, so
// appending children moves a container's bottom edge down, which is all the
// loader's convergence logic needs.
type Fixture struct {
	mu  sync.Mutex
	doc *goquery.Document
	url string

	scrollX, scrollY float64

	// clicks maps a CSS selector to the handler run when a matching node
	// is clicked. Handlers run with the fixture lock held and may mutate
	// the document through the unexported helpers.
	clicks []clickHandler

	// onScroll, when set, runs after every ScrollTo.
	onScroll func(f *Fixture, x, y float64)

	// Clicked records the outer HTML of every clicked node, in order.
	Clicked []string
}

type clickHandler struct {
	selector string
	fn       func(f *Fixture)
}

const fixtureLineHeight = 24

// NewFixture parses an HTML document into a scriptable page.
func NewFixture(pageURL, htmlSrc string) (*Fixture, error) {
	root, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("dompage: parse fixture: %w", err)
	}
	return &Fixture{doc: goquery.NewDocumentFromNode(root), url: pageURL}, nil
}

// MustFixture is NewFixture for tests with known-good HTML.
func MustFixture(pageURL, htmlSrc string) *Fixture {
	f, err := NewFixture(pageURL, htmlSrc)
	if err != nil {
		panic(err)
	}
	return f
}

// URL returns the fixture's current location.
func (f *Fixture) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// SetURL simulates a SPA route change — the document keeps mutating, only
// the location changes.
func (f *Fixture) SetURL(u string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = u
}

// Query returns elements matching the selector. Invalid selectors yield nil.
func (f *Fixture) Query(selector string) []Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryLocked(f.doc.Selection, selector)
}

func (f *Fixture) queryLocked(root *goquery.Selection, selector string) (nodes []Node) {
	// goquery panics on selectors cascadia cannot compile; a bad strategy
	// must read as "zero results", not a crash.
	defer func() {
		if recover() != nil {
			nodes = nil
		}
	}()

	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &fixtureNode{f: f, sel: s})
	})
	return nodes
}

// ScrollOffset returns the current synthetic scroll position.
func (f *Fixture) ScrollOffset() (x, y float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrollX, f.scrollY
}

// ScrollTo moves the synthetic viewport and fires the scroll handler.
func (f *Fixture) ScrollTo(x, y float64) error {
	f.mu.Lock()
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	f.scrollX, f.scrollY = x, y
	handler := f.onScroll
	f.mu.Unlock()

	if handler != nil {
		handler(f, x, y)
	}
	return nil
}

// OnClick registers a handler for clicks on nodes matching the selector.
func (f *Fixture) OnClick(selector string, fn func(f *Fixture)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, clickHandler{selector: selector, fn: fn})
}

// OnScroll registers a handler fired after every ScrollTo.
func (f *Fixture) OnScroll(fn func(f *Fixture, x, y float64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onScroll = fn
}

// Append parses htmlSrc and appends it under the first node matching
// parentSel. No-op when the parent does not exist.
func (f *Fixture) Append(parentSel, htmlSrc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Find(parentSel).First().AppendHtml(htmlSrc)
}

// Remove deletes all nodes matching the selector.
func (f *Fixture) Remove(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Find(selector).Remove()
}

// Count returns how many nodes match the selector.
func (f *Fixture) Count(selector string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Find(selector).Length()
}

// fixtureNode wraps a goquery selection as a Node.
type fixtureNode struct {
	f   *Fixture
	sel *goquery.Selection
}

func (n *fixtureNode) Text() string {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return n.sel.Text()
}

func (n *fixtureNode) HTML() string {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	out, err := goquery.OuterHtml(n.sel)
	if err != nil {
		return ""
	}
	return out
}

func (n *fixtureNode) Attr(name string) (string, bool) {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return n.sel.Attr(name)
}

func (n *fixtureNode) Visible() bool {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	if _, hidden := n.sel.Attr("hidden"); hidden {
		return false
	}
	if v, ok := n.sel.Attr("aria-hidden"); ok && v == "true" {
		return false
	}
	if style, ok := n.sel.Attr("style"); ok && strings.Contains(style, "display:none") {
		return false
	}
	return true
}

func (n *fixtureNode) Enabled() bool {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	_, disabled := n.sel.Attr("disabled")
	return !disabled
}

func (n *fixtureNode) Click() error {
	n.f.mu.Lock()
	if out, err := goquery.OuterHtml(n.sel); err == nil {
		n.f.Clicked = append(n.f.Clicked, out)
	}
	var fns []func(f *Fixture)
	for _, h := range n.f.clicks {
		if n.sel.Is(h.selector) {
			fns = append(fns, h.fn)
		}
	}
	f := n.f
	n.f.mu.Unlock()

	for _, fn := range fns {
		fn(f)
	}
	return nil
}

// Bottom derives a page-coordinate bottom edge from the subtree size: one
// line per element. Appending content under a node pushes its bottom down.
func (n *fixtureNode) Bottom() float64 {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return float64(fixtureLineHeight * (1 + n.sel.Find("*").Length()))
}

func (n *fixtureNode) Query(selector string) []Node {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return n.f.queryLocked(n.sel, selector)
}
