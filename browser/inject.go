package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
)

// navBinding is the Runtime binding the injected hooks call on every
// client-side route change.
const navBinding = "__comsum_nav"

// navHookJS wraps the History API and listens for the SPA's own
// navigation events. Re-injection is a no-op.
const navHookJS = `() => {
	if (window.__comsum_nav_hooked) return;
	window.__comsum_nav_hooked = true;

	const signal = () => {
		try { window.__comsum_nav(location.href); } catch (e) {}
	};

	const push = history.pushState;
	history.pushState = function(...args) {
		const r = push.apply(this, args);
		signal();
		return r;
	};
	const replace = history.replaceState;
	history.replaceState = function(...args) {
		const r = replace.apply(this, args);
		signal();
		return r;
	};

	window.addEventListener('popstate', signal);
	window.addEventListener('yt-navigate-finish', signal);

	// Some route changes skip the History API entirely. Watch for the
	// comments region appearing or disappearing, and for title swaps.
	const commentsSel = 'ytd-comments#comments, #comments';
	let hadComments = !!document.querySelector(commentsSel);
	new MutationObserver(() => {
		const has = !!document.querySelector(commentsSel);
		if (has !== hadComments) {
			hadComments = has;
			signal();
		}
	}).observe(document.documentElement, { childList: true, subtree: true });

	const title = document.querySelector('title');
	if (title) {
		new MutationObserver(signal).observe(title, { childList: true });
	}
}`

// HookNavigation injects SPA navigation detection into the tab and calls
// onNavigate for every signal. Signals are raw and may repeat for one
// route change; the navigation monitor throttles and compares URLs.
func (t *Tab) HookNavigation(ctx context.Context, onNavigate func()) error {
	err := proto.RuntimeAddBinding{Name: navBinding}.Call(t.page)
	if err != nil {
		t.logger.Warn("browser: add nav binding failed (may already exist)", "error", err)
	}

	go t.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != navBinding {
			return
		}
		onNavigate()
	})()

	if _, err := t.page.Eval(navHookJS); err != nil {
		return fmt.Errorf("browser: inject nav hooks: %w", err)
	}

	t.logger.Debug("browser: navigation hooks injected", "url", t.URL())
	return nil
}

// ReapplyNavHooks re-evaluates the page-side hooks after a full document
// replacement. The Go-side binding listener survives navigation; the
// injected JS does not.
func (t *Tab) ReapplyNavHooks() error {
	if _, err := t.page.Eval(navHookJS); err != nil {
		return fmt.Errorf("browser: reinject nav hooks: %w", err)
	}
	return nil
}
