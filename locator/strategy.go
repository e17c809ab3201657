package locator

import "github.com/hazyhaar/comsum/dompage"

// Strategy is one way of finding comment nodes under the comments root: a
// name for logging plus a pure lookup function. Strategies are data, not
// law — host pages change selectors between revisions, so deployments
// override them through configuration.
type Strategy struct {
	Name string
	Find func(root dompage.Node) []dompage.Node
}

// CSS builds a Strategy from a CSS selector.
func CSS(name, selector string) Strategy {
	return Strategy{
		Name: name,
		Find: func(root dompage.Node) []dompage.Node {
			return root.Query(selector)
		},
	}
}

// Selectors builds a strategy chain from raw CSS selectors, preserving
// order. Used when the chain comes from a config file.
func Selectors(selectors ...string) []Strategy {
	out := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, CSS(sel, sel))
	}
	return out
}

// DefaultContainerSelectors returns the comments-root lookup chain for the
// current host page layout, most specific first.
func DefaultContainerSelectors() []string {
	return []string{
		"ytd-comments#comments",
		"#comments",
		"ytd-item-section-renderer#sections",
	}
}

// DefaultStrategies returns the comment-node lookup chain, most specific
// first. The first strategy that yields anything is used exclusively.
func DefaultStrategies() []Strategy {
	return []Strategy{
		CSS("thread-content", "ytd-comment-thread-renderer #content-text"),
		CSS("comment-content", "ytd-comment-renderer #content-text"),
		CSS("content-text", "#content-text"),
		CSS("attributed-text", "yt-attributed-string span"),
	}
}
