package collector

import "log/slog"

// View receives run progress for display. The browser implementation
// renders into the page; LogView is the headless fallback. Implementations
// must tolerate calls from the coordinator's goroutine.
type View interface {
	// SetBusy toggles the busy state shown to the user. While busy,
	// triggering controls should be disabled.
	SetBusy(busy bool)
	// Loading reports that count comments were collected and the
	// summary request is in flight.
	Loading(count int)
	// Summary delivers the finished summary text.
	Summary(text string)
	// Error delivers a user-facing failure message.
	Error(msg string)
	// Clear removes any transient UI (loading or result boxes). Runs on
	// navigation teardown so a new route never shows stale output.
	Clear()
}

// LogView writes progress to a structured logger.
type LogView struct {
	Logger *slog.Logger
}

func (v *LogView) log() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}

func (v *LogView) SetBusy(busy bool) { v.log().Debug("view busy", "busy", busy) }
func (v *LogView) Loading(count int) { v.log().Info("summarizing", "comments", count) }
func (v *LogView) Summary(text string) {
	v.log().Info("summary ready", "chars", len(text))
}
func (v *LogView) Error(msg string) { v.log().Warn("run failed", "reason", msg) }
func (v *LogView) Clear()           { v.log().Debug("view cleared") }

// MultiView fans every call out to each member in order.
type MultiView []View

func (m MultiView) SetBusy(busy bool) {
	for _, v := range m {
		v.SetBusy(busy)
	}
}

func (m MultiView) Loading(count int) {
	for _, v := range m {
		v.Loading(count)
	}
}

func (m MultiView) Summary(text string) {
	for _, v := range m {
		v.Summary(text)
	}
}

func (m MultiView) Error(msg string) {
	for _, v := range m {
		v.Error(msg)
	}
}

func (m MultiView) Clear() {
	for _, v := range m {
		v.Clear()
	}
}
