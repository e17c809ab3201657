package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

var samples = []string{
	"",
	"   ",
	"plain comment",
	"  padded  ",
	"embedded\x00nul and \x1b escape",
	"\x01\x02\x03\x04\x05\x06\x07\x08",
	"keeps\ttabs and\nnewlines\r",
	"unicode: héllo wörld 日本語 👍",
	"\x7fdel prefix",
	strings.Repeat("a", DefaultMaxLen+1),
	strings.Repeat("界", 50),
	"trailing space before cut " + strings.Repeat("x", DefaultMaxLen),
}

func TestTextIdempotent(t *testing.T) {
	for _, s := range samples {
		once := Text(s, 40)
		twice := Text(once, 40)
		if once != twice {
			t.Errorf("Text not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestTextNeverExceedsMaxLen(t *testing.T) {
	for _, s := range samples {
		got := Text(s, 40)
		if n := utf8.RuneCountInString(got); n > 40 {
			t.Errorf("Text(%q, 40): %d runes, want <= 40", s, n)
		}
	}
}

func TestTextStripsControlCharacters(t *testing.T) {
	for _, s := range samples {
		got := Text(s, 0)
		for _, r := range got {
			if (r < 0x20 && r != '\t' && r != '\n' && r != '\r') || r == 0x7F {
				t.Errorf("Text(%q): control character %#x survived", s, r)
			}
		}
	}
}

func TestTextTrimsWhitespace(t *testing.T) {
	if got := Text("  hello  ", 0); got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestTextExactBoundary(t *testing.T) {
	in := strings.Repeat("b", DefaultMaxLen+1)
	got := Text(in, 0)
	if len(got) != DefaultMaxLen {
		t.Errorf("got %d chars, want %d", len(got), DefaultMaxLen)
	}

	// At exactly maxLen, nothing is cut.
	exact := strings.Repeat("b", DefaultMaxLen)
	if Text(exact, 0) != exact {
		t.Error("string of exactly maxLen was altered")
	}
}

func TestTextKeepsInnerWhitespace(t *testing.T) {
	if got := Text("a\tb\nc", 0); got != "a\tb\nc" {
		t.Errorf("got %q, want tab and newline preserved", got)
	}
}

func TestTextZeroMaxLenUsesDefault(t *testing.T) {
	in := strings.Repeat("c", DefaultMaxLen*2)
	if got := Text(in, 0); len(got) != DefaultMaxLen {
		t.Errorf("got %d chars, want default cap %d", len(got), DefaultMaxLen)
	}
}

func TestHTMLText(t *testing.T) {
	in := `<span>great <b>video</b> &amp; sound</span><script>evil()</script>`
	got := HTMLText(in, 0)
	if got != "great video & sound" {
		t.Errorf("HTMLText: got %q", got)
	}
}
