// Package summarize turns a batch of comment texts into a short summary
// through an LLM provider. The rest of the system treats this capability
// as opaque: it either returns a summary, fails, or times out.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimeout is returned when the provider did not answer within the
// caller's bound. It is distinct from provider failures so the user can be
// told to retry rather than reconfigure.
var ErrTimeout = errors.New("summarize: request timed out")

// ErrEmpty is returned when the provider answered with no usable text.
var ErrEmpty = errors.New("summarize: provider returned empty response")

// Summarizer produces a summary for a batch of comments.
type Summarizer interface {
	Summarize(ctx context.Context, comments []string) (string, error)
}

// Func adapts a plain function to the Summarizer interface.
type Func func(ctx context.Context, comments []string) (string, error)

// Summarize implements Summarizer.
func (f Func) Summarize(ctx context.Context, comments []string) (string, error) {
	return f(ctx, comments)
}

// WithTimeout wraps a Summarizer so each call races the request against a
// timer. When the timer wins the call returns ErrTimeout and the late
// result is simply discarded.
func WithTimeout(s Summarizer, d time.Duration) Summarizer {
	return &timeboxed{inner: s, limit: d}
}

type timeboxed struct {
	inner Summarizer
	limit time.Duration
}

func (t *timeboxed) Summarize(ctx context.Context, comments []string) (string, error) {
	// The cause marks this wrapper's own deadline; a caller deadline or
	// cancellation that fires first passes through untranslated.
	ctx, cancel := context.WithTimeoutCause(ctx, t.limit, ErrTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		text, err := t.inner.Summarize(ctx, comments)
		ch <- outcome{text, err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(context.Cause(ctx), ErrTimeout) {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	case out := <-ch:
		return out.text, out.err
	}
}

// DefaultPrompt is the instruction prefix for the summary request. The
// exact wording is configuration, not contract.
const DefaultPrompt = "Summarize the overall sentiment and the main recurring " +
	"points of the following viewer comments in a few short paragraphs. " +
	"Mention notable disagreements if any."

// buildPrompt assembles the provider request, bounding total input size.
func buildPrompt(prompt string, comments []string, maxChars int) string {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nComments:\n")
	for i, c := range comments {
		line := fmt.Sprintf("%d. %s\n", i+1, c)
		if maxChars > 0 && b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}
