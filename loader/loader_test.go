package loader

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"context"

	"github.com/hazyhaar/comsum/dompage"
	"github.com/hazyhaar/comsum/expander"
	"github.com/hazyhaar/comsum/locator"
)

const watchURL = "https://example.com/watch?v=abc"

func newTestLoader(cfg Config) *Loader {
	loc := locator.New(locator.Config{
		ContainerSelectors: []string{"#comments"},
		Strategies:         locator.Selectors(".comment"),
		CacheTTL:           time.Millisecond,
	})
	exp := expander.New(expander.Config{
		ClickDelay:  time.Millisecond,
		BatchDelay:  time.Millisecond,
		SettleDelay: 2 * time.Millisecond,
	})
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 2 * time.Millisecond
	}
	return New(cfg, loc, exp)
}

func growingPage(initial int) (*dompage.Fixture, *int) {
	f := dompage.MustFixture(watchURL, `<html><body><div id="comments"></div></body></html>`)
	n := 0
	for range initial {
		n++
		f.Append("#comments", fmt.Sprintf(`<div class="comment">seed comment %d</div>`, n))
	}
	counter := n
	return f, &counter
}

func TestLoadTerminatesOnAttemptBoundWhenContentNeverConverges(t *testing.T) {
	page, counter := growingPage(3)
	// Every scroll reveals exactly one more comment — content never stops
	// growing, so only the attempt bound can end the loop.
	page.OnScroll(func(f *dompage.Fixture, x, y float64) {
		*counter++
		f.Append("#comments", fmt.Sprintf(`<div class="comment">late comment %d</div>`, *counter))
	})

	l := newTestLoader(Config{MaxAttempts: 3, Cap: 1000})

	done := make(chan struct{})
	var got []string
	var err error
	go func() {
		got, err = l.Load(context.Background(), page)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Load did not terminate")
	}
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// 3 seeds plus one comment per attempt.
	if len(got) != 6 {
		t.Errorf("Load: got %d comments, want 6", len(got))
	}
}

func TestLoadKeepsCommentsRecycledOutOfRenderWindow(t *testing.T) {
	page := dompage.MustFixture(watchURL, `<html><body><div id="comments">
		<div class="comment" data-seq="1">seed comment 1</div>
		<div class="comment" data-seq="2">seed comment 2</div>
		<div class="comment" data-seq="3">seed comment 3</div>
	</div></body></html>`)
	// Virtualized list: every scroll drops the oldest rendered comment and
	// appends two new ones, so no single snapshot contains everything.
	oldest, counter := 1, 3
	page.OnScroll(func(f *dompage.Fixture, x, y float64) {
		f.Remove(fmt.Sprintf(`[data-seq="%d"]`, oldest))
		oldest++
		for range 2 {
			counter++
			f.Append("#comments",
				fmt.Sprintf(`<div class="comment" data-seq="%d">late comment %d</div>`, counter, counter))
		}
	})

	l := newTestLoader(Config{MaxAttempts: 2, Cap: 100})
	got, err := l.Load(context.Background(), page)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := map[string]bool{}
	for _, text := range got {
		want[text] = true
	}
	// 3 seeds plus 2 per attempt, none forgotten.
	if len(got) != 7 {
		t.Errorf("Load: got %d comments, want 7: %v", len(got), got)
	}
	for _, text := range []string{"seed comment 1", "seed comment 2", "seed comment 3"} {
		if !want[text] {
			t.Errorf("Load: %q was collected early then recycled away, missing from result", text)
		}
	}
}

func TestLoadStopsAtCap(t *testing.T) {
	page, counter := growingPage(5)
	page.OnScroll(func(f *dompage.Fixture, x, y float64) {
		for range 30 {
			*counter++
			f.Append("#comments", fmt.Sprintf(`<div class="comment">bulk comment %d</div>`, *counter))
		}
	})

	l := newTestLoader(Config{MaxAttempts: 10, Cap: 20})
	got, err := l.Load(context.Background(), page)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("Load: got %d comments, want cap of 20", len(got))
	}
}

func TestLoadConvergesWhenNothingNewArrives(t *testing.T) {
	page, _ := growingPage(4)
	l := newTestLoader(Config{MaxAttempts: 5, Cap: 100})

	got, err := l.Load(context.Background(), page)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Load: got %d comments, want 4", len(got))
	}
}

func TestLoadMissingContainerIsError(t *testing.T) {
	page := dompage.MustFixture(watchURL, `<html><body><p>bare page</p></body></html>`)
	l := newTestLoader(Config{MaxAttempts: 2})

	if _, err := l.Load(context.Background(), page); !errors.Is(err, ErrNoContainer) {
		t.Errorf("Load: got err %v, want ErrNoContainer", err)
	}
}

func TestLoadClicksPagination(t *testing.T) {
	page, counter := growingPage(3)
	page.Append("body", `<button aria-label="Show more comments">Show more</button>`)
	page.OnClick("button", func(f *dompage.Fixture) {
		*counter++
		f.Append("#comments", fmt.Sprintf(`<div class="comment">paged comment %d</div>`, *counter))
	})

	l := newTestLoader(Config{MaxAttempts: 2, Cap: 100})
	got, err := l.Load(context.Background(), page)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(page.Clicked) == 0 {
		t.Error("pagination control was never clicked")
	}
	if len(got) <= 3 {
		t.Errorf("Load: got %d comments, want more than the 3 seeds", len(got))
	}
}

func TestLoadRestoresScrollOnSuccess(t *testing.T) {
	page, _ := growingPage(3)
	if err := page.ScrollTo(0, 120); err != nil {
		t.Fatal(err)
	}

	l := newTestLoader(Config{MaxAttempts: 2, Cap: 100})
	if _, err := l.Load(context.Background(), page); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, y := page.ScrollOffset(); y != 120 {
		t.Errorf("scroll origin: got y=%v, want 120", y)
	}
}

// failingScrollPage errors on any scroll away from the origin, simulating a
// mid-iteration failure, while still allowing the restoring scroll back.
type failingScrollPage struct {
	*dompage.Fixture
	originY float64
}

func (p *failingScrollPage) ScrollTo(x, y float64) error {
	if y != p.originY {
		return errors.New("viewport detached")
	}
	return p.Fixture.ScrollTo(x, y)
}

func TestLoadRestoresScrollWhenIterationFails(t *testing.T) {
	fixture, _ := growingPage(3)
	if err := fixture.ScrollTo(0, 50); err != nil {
		t.Fatal(err)
	}
	page := &failingScrollPage{Fixture: fixture, originY: 50}

	l := newTestLoader(Config{MaxAttempts: 3, Cap: 100})
	_, err := l.Load(context.Background(), page)
	if err == nil {
		t.Fatal("Load: want scroll error, got nil")
	}

	if _, y := fixture.ScrollOffset(); y != 50 {
		t.Errorf("scroll after failure: got y=%v, want restored 50", y)
	}
}
