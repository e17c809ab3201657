package collector

import "errors"

var (
	// ErrBusy means a collection run is already in flight. Callers retry
	// after the current run finishes; runs never overlap.
	ErrBusy = errors.New("collector: run already in progress")

	// ErrNoComments means the page yielded zero usable comments after
	// sanitization and length filtering.
	ErrNoComments = errors.New("collector: no comments found")
)
