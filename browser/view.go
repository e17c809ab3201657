package browser

import (
	"log/slog"
	"strconv"

	"github.com/hazyhaar/comsum/collector"
)

// panelJS creates or updates the floating result panel. state is one of
// busy, loading, summary, error, idle.
const panelJS = `(state, text) => {
	let panel = document.getElementById('comsum-panel');
	if (!panel) {
		panel = document.createElement('div');
		panel.id = 'comsum-panel';
		panel.style.cssText =
			'position:fixed;top:16px;right:16px;z-index:2147483647;' +
			'max-width:360px;max-height:60vh;overflow-y:auto;' +
			'background:#fff;color:#111;border:1px solid #ccc;border-radius:8px;' +
			'padding:12px;font:13px/1.5 sans-serif;box-shadow:0 2px 12px rgba(0,0,0,.25);' +
			'white-space:pre-wrap;';
		document.body.appendChild(panel);
	}
	switch (state) {
	case 'busy':
		panel.dataset.busy = text;
		break;
	case 'loading':
		panel.textContent = 'Summarizing ' + text + ' comments…';
		break;
	case 'summary':
		panel.textContent = text;
		break;
	case 'error':
		panel.textContent = 'Error: ' + text;
		break;
	}
}`

// PageView renders run progress into the watched page.
type PageView struct {
	tab    *Tab
	logger *slog.Logger
}

var _ collector.View = (*PageView)(nil)

// NewPageView builds a view that draws into the tab.
func NewPageView(tab *Tab, logger *slog.Logger) *PageView {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageView{tab: tab, logger: logger}
}

func (v *PageView) render(state, text string) {
	if _, err := v.tab.page.Eval(panelJS, state, text); err != nil {
		v.logger.Debug("browser: panel render failed", "state", state, "error", err)
	}
}

func (v *PageView) SetBusy(busy bool) {
	if busy {
		v.render("busy", "true")
	} else {
		v.render("busy", "false")
	}
}

func (v *PageView) Loading(count int) {
	v.render("loading", strconv.Itoa(count))
}

func (v *PageView) Summary(text string) {
	v.render("summary", text)
}

func (v *PageView) Error(msg string) {
	v.render("error", msg)
}

// clearJS removes the injected panel entirely.
const clearJS = `() => {
	const panel = document.getElementById('comsum-panel');
	if (panel) panel.remove();
}`

// Clear removes the panel from the page.
func (v *PageView) Clear() {
	if _, err := v.tab.page.Eval(clearJS); err != nil {
		v.logger.Debug("browser: panel clear failed", "error", err)
	}
}
