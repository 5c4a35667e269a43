package highlight

import (
	"reflect"
	"strings"
	"testing"
)

func TestHighlight_CaseInsensitivePreservesCasing(t *testing.T) {
	got := Highlight("Reading is Fun", []string{"reading"})
	want := "<mark>Reading</mark> is Fun"
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
	if n := strings.Count(got, "<mark>"); n != 1 {
		t.Fatalf("expected exactly one mark, got %d", n)
	}
}

func TestHighlight_WholeWordOnly(t *testing.T) {
	got := Highlight("cat category bobcat cat.", []string{"cat"})
	want := "<mark>cat</mark> category bobcat <mark>cat</mark>."
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
}

func TestHighlight_UnicodeWordBoundaries(t *testing.T) {
	// ASCII \b would treat "ö" as a boundary and match inside "görmek".
	got := Highlight("görmek ve rmek", []string{"rmek"})
	want := "görmek ve <mark>rmek</mark>"
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
}

func TestHighlight_AllOccurrencesAndLongestFirst(t *testing.T) {
	got := Highlight("Tools, tools and toolset; TOOLS!", []string{"tools", "toolset"})
	want := "<mark>Tools</mark>, <mark>tools</mark> and <mark>toolset</mark>; <mark>TOOLS</mark>!"
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
}

func TestHighlight_ShorterKeywordWhenLongerFailsBoundary(t *testing.T) {
	got := Highlight("well-knownx well", []string{"well-known", "well"})
	want := "<mark>well</mark>-knownx <mark>well</mark>"
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
}

func TestHighlight_EscapesMetacharactersInKeywords(t *testing.T) {
	got := Highlight("a.b+ axb a.b+", []string{"a.b+"})
	want := "<mark>a.b+</mark> axb <mark>a.b+</mark>"
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
}

func TestHighlight_EscapesSourceMarkup(t *testing.T) {
	got := Highlight(`<script>alert("reading")</script>`, []string{"reading"})
	if strings.Contains(got, "<script>") {
		t.Fatalf("source markup not escaped: %q", got)
	}
	if !strings.Contains(got, "<mark>reading</mark>") {
		t.Fatalf("keyword not marked: %q", got)
	}
}

func TestHighlight_EmptyInputs(t *testing.T) {
	if got := Highlight("", nil); got != "" {
		t.Fatalf("Highlight(\"\", nil)=%q", got)
	}
	if got := Highlight("", []string{"word"}); got != "" {
		t.Fatalf("Highlight(\"\", [word])=%q", got)
	}
	if got := Highlight("plain text here", nil); got != "plain text here" {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if got := Highlight("plain text", []string{"", ""}); got != "plain text" {
		t.Fatalf("empty keywords should not match: %q", got)
	}
}

func TestHighlight_CustomMarkerWithoutEscape(t *testing.T) {
	h := Highlighter{Marker: &Marker{Open: "**", Close: "**"}}
	in := "<b>bold</b> reading"
	if got := h.Highlight(in, nil); got != in {
		t.Fatalf("no keywords should return text unchanged, got %q", got)
	}
	got := h.Highlight(in, []string{"reading"})
	if got != "<b>bold</b> **reading**" {
		t.Fatalf("Highlight=%q", got)
	}
}

func TestHighlight_PlainRoundTripDoesNotDoubleWrap(t *testing.T) {
	text := `Reading & writing <tools> help readers read. Reading!`
	kws := []string{"reading", "readers"}
	once := Highlight(text, kws)
	if Plain(once) != text {
		t.Fatalf("Plain(%q)=%q, want %q", once, Plain(once), text)
	}
	twice := Highlight(Plain(once), kws)
	if twice != once {
		t.Fatalf("second pass changed output:\n%q\n%q", once, twice)
	}
	if strings.Contains(twice, "<mark><mark>") {
		t.Fatalf("double wrapped: %q", twice)
	}
}

func TestSegments_Shape(t *testing.T) {
	got := Segments("Reading is fun reading", []string{"reading"})
	want := []Segment{
		{Text: "Reading", Marked: true},
		{Text: " is fun "},
		{Text: "reading", Marked: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Segments=%+v, want %+v", got, want)
	}
	if got := Segments("", []string{"x"}); len(got) != 0 {
		t.Fatalf("expected no segments, got %+v", got)
	}
}

func TestHighlight_KeepsDecomposedTextAsGiven(t *testing.T) {
	in := "cafe\u0301 reading"
	if got := Highlight(in, nil); got != in {
		t.Fatalf("no keywords: got %q, want %q", got, in)
	}
	out := Highlight(in, []string{"reading"})
	if want := "cafe\u0301 <mark>reading</mark>"; out != want {
		t.Fatalf("Highlight=%q, want %q", out, want)
	}
	if Plain(out) != in {
		t.Fatalf("Plain(%q)=%q, want %q", out, Plain(out), in)
	}
}

func TestHighlight_MatchesAcrossNormalizationForms(t *testing.T) {
	composed := "r\u00e9sum\u00e9"
	decomposed := "re\u0301sume\u0301"
	got := Highlight("my "+decomposed+" and "+composed, []string{composed})
	want := "my <mark>" + decomposed + "</mark> and <mark>" + composed + "</mark>"
	if got != want {
		t.Fatalf("Highlight=%q, want %q", got, want)
	}
	// A bare "cafe" must not match when a combining accent follows it.
	if got := Highlight("cafe\u0301", []string{"cafe"}); strings.Contains(got, "<mark>") {
		t.Fatalf("matched inside a combining sequence: %q", got)
	}
}
