// Package highlight wraps keyword occurrences in text with an emphasis marker.
//
// Matching is case-insensitive and whole-word: a keyword only matches when it
// is not directly preceded or followed by a letter, digit or mark. Input is
// plain text; anything the marker did not generate is escaped for the output
// medium. Annotated output is not meant to be fed back in; use Plain to
// recover the source text first.
package highlight

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/gosimplify/internal/keywords"
)

// Marker describes how a matched keyword is wrapped and how surrounding text
// is escaped. A nil Escape leaves text untouched.
type Marker struct {
	Open     string
	Close    string
	Escape   func(string) string
	Unescape func(string) string
}

// HTMLMarker wraps matches in <mark> and HTML-escapes everything else.
var HTMLMarker = Marker{
	Open:     "<mark>",
	Close:    "</mark>",
	Escape:   html.EscapeString,
	Unescape: html.UnescapeString,
}

// Segment is a run of text that is either a keyword match or plain text.
type Segment struct {
	Text   string
	Marked bool
}

// Highlighter renders annotated text with its Marker. The zero value uses
// HTMLMarker.
type Highlighter struct {
	Marker *Marker
}

func (h Highlighter) marker() Marker {
	if h.Marker == nil {
		return HTMLMarker
	}
	return *h.Marker
}

// Highlight returns text with every whole-word keyword match wrapped.
func (h Highlighter) Highlight(text string, kws []string) string {
	m := h.marker()
	esc := m.Escape
	if esc == nil {
		esc = func(s string) string { return s }
	}
	if len(kws) == 0 {
		return esc(text)
	}
	var sb strings.Builder
	for _, seg := range Segments(text, kws) {
		if seg.Marked {
			sb.WriteString(m.Open)
			sb.WriteString(esc(seg.Text))
			sb.WriteString(m.Close)
			continue
		}
		sb.WriteString(esc(seg.Text))
	}
	return sb.String()
}

// Plain strips markers from annotated text and undoes escaping.
func (h Highlighter) Plain(annotated string) string {
	m := h.marker()
	s := annotated
	if m.Open != "" {
		s = strings.ReplaceAll(s, m.Open, "")
	}
	if m.Close != "" {
		s = strings.ReplaceAll(s, m.Close, "")
	}
	if m.Unescape != nil {
		s = m.Unescape(s)
	}
	return s
}

// Highlight annotates text with HTMLMarker.
func Highlight(text string, kws []string) string {
	return Highlighter{}.Highlight(text, kws)
}

// Plain reverses Highlight for HTMLMarker output.
func Plain(annotated string) string {
	return Highlighter{}.Plain(annotated)
}

// Segments splits text into marked keyword matches and the plain runs
// between them. Segments are slices of text, so joining them yields text
// byte for byte. Matches are found left to right and never overlap; the
// longest keyword wins at a given position.
func Segments(text string, kws []string) []Segment {
	re := compile(kws)
	if re == nil {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	var out []Segment
	last, pos := 0, 0
	for pos < len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		if start > 0 {
			if r, _ := utf8.DecodeLastRuneInString(text[:start]); keywords.IsWordRune(r) {
				_, size := utf8.DecodeRuneInString(text[start:])
				pos = start + size
				continue
			}
		}
		if start > last {
			out = append(out, Segment{Text: text[last:start]})
		}
		out = append(out, Segment{Text: text[start:end], Marked: true})
		last, pos = end, end
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// compile builds one case-insensitive matcher over all keywords. The first
// group is the keyword; the trailing class enforces the right-hand word
// boundary. Keywords are literals, so metacharacters are quoted. Each keyword
// is included in composed and decomposed form so text is matched as given.
func compile(kws []string) *regexp.Regexp {
	alts := make([]string, 0, 2*len(kws))
	for _, k := range kws {
		for _, form := range []string{norm.NFC.String(k), norm.NFD.String(k)} {
			if form == "" || slices.Contains(alts, form) {
				continue
			}
			alts = append(alts, form)
		}
	}
	if len(alts) == 0 {
		return nil
	}
	slices.SortStableFunc(alts, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	for i, k := range alts {
		alts[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(alts, "|") + `)(?:[^\p{L}\p{Nd}\p{M}]|$)`)
}
