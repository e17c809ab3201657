// Package dompage abstracts the host page's DOM behind narrow interfaces.
//
// The collection engine (locator, expander, loader) never talks to a browser
// directly: it queries a Page and acts on Nodes. Two implementations exist —
// the rod-backed live tab in the browser package, and the in-memory Fixture
// in this package that every test uses.
package dompage

// Node is one element of a page's DOM. Implementations must tolerate the
// underlying element disappearing between calls: accessors return zero
// values, Click returns an error.
type Node interface {
	// Text returns the rendered text content of the node and its subtree.
	Text() string
	// HTML returns the outer HTML of the node.
	HTML() string
	// Attr returns the value of an attribute and whether it is present.
	Attr(name string) (string, bool)
	// Visible reports whether the node is currently rendered.
	Visible() bool
	// Enabled reports whether the node accepts interaction.
	Enabled() bool
	// Click activates the node.
	Click() error
	// Bottom returns the node's bottom edge in page coordinates.
	Bottom() float64
	// Query returns descendants matching a CSS selector. A selector that
	// fails to compile yields no results, never an error.
	Query(selector string) []Node
}

// Page is the surface the engine needs from a host page.
type Page interface {
	// URL returns the page's current location.
	URL() string
	// Query returns elements matching a CSS selector, document order.
	Query(selector string) []Node
	// ScrollOffset returns the current viewport scroll position.
	ScrollOffset() (x, y float64)
	// ScrollTo moves the viewport. Negative coordinates are clamped to zero.
	ScrollTo(x, y float64) error
}
