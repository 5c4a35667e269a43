// Package simplify runs one simplification request end to end: it asks the
// gateway for simplified text, extracts keywords from it and highlights them
// in whichever text the caller picked.
package simplify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/hyperifyio/gosimplify/internal/gateway"
	"github.com/hyperifyio/gosimplify/internal/highlight"
	"github.com/hyperifyio/gosimplify/internal/keywords"
)

// Target selects which text the highlighter annotates.
type Target string

const (
	TargetSimplified Target = "simplified"
	TargetOriginal   Target = "original"
	TargetNone       Target = "none"
)

var (
	// ErrInvalidArgument marks caller mistakes: blank text, a malformed
	// language tag, an unknown target.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrGateway wraps any failure of the upstream summarization call.
	ErrGateway = errors.New("summarization gateway failed")
)

// ParseTarget maps a request value to a Target. Empty means def.
func ParseTarget(s string, def Target) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return def, nil
	case TargetSimplified, TargetOriginal, TargetNone:
		return t, nil
	default:
		return "", fmt.Errorf("%w: highlight target %q (want simplified, original or none)", ErrInvalidArgument, s)
	}
}

// ParseLanguage validates an optional BCP 47 tag and returns its canonical
// form. Empty stays empty.
func ParseLanguage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: language %q: %v", ErrInvalidArgument, s, err)
	}
	return tag.String(), nil
}

// Request is one call to Service.Simplify.
type Request struct {
	Text   string
	Lang   string
	Target Target
}

// Result is what the presentation layer renders.
type Result struct {
	SimplifiedText  string   `json:"simplifiedText"`
	Keywords        []string `json:"keywords"`
	HighlightedText string   `json:"highlightedText"`
	HighlightTarget Target   `json:"highlightTarget"`
	Backend         string   `json:"backend"`
	Model           string   `json:"model"`
	Cached          bool     `json:"cached"`
}

// Service wires the gateway to the keyword and highlight steps.
type Service struct {
	Gateway     gateway.Gateway
	Extractor   keywords.Extractor
	Highlighter highlight.Highlighter
	// DefaultTarget applies when a request leaves Target empty.
	DefaultTarget Target
}

// Simplify validates req, calls the gateway and annotates the result.
func (s *Service) Simplify(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, fmt.Errorf("%w: text is required", ErrInvalidArgument)
	}
	def := s.DefaultTarget
	if def == "" {
		def = TargetSimplified
	}
	target, err := ParseTarget(string(req.Target), def)
	if err != nil {
		return Result{}, err
	}
	lang, err := ParseLanguage(req.Lang)
	if err != nil {
		return Result{}, err
	}
	if s.Gateway == nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGateway, gateway.ErrNotConfigured)
	}
	sum, err := s.Gateway.Summarize(ctx, gateway.Request{Text: req.Text, Lang: lang})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	res := s.Annotate(sum.Text, req.Text, target)
	res.Backend = sum.Backend
	res.Model = sum.Model
	res.Cached = sum.Cached
	return res, nil
}

// Annotate extracts keywords from simplified and highlights them in the text
// named by target. It does no I/O.
func (s *Service) Annotate(simplified, original string, target Target) Result {
	kws := s.Extractor.Extract(simplified)
	res := Result{SimplifiedText: simplified, Keywords: kws, HighlightTarget: target}
	switch target {
	case TargetOriginal:
		res.HighlightedText = s.Highlighter.Highlight(original, kws)
	case TargetSimplified:
		res.HighlightedText = s.Highlighter.Highlight(simplified, kws)
	}
	return res
}

// Highlight annotates text with the given keywords, or with keywords
// extracted from text itself when none are given. Given keywords are held to
// the same rules as extracted ones, so at most MaxCount of them are used.
func (s *Service) Highlight(text string, kws []string) ([]string, string) {
	if len(kws) == 0 {
		kws = s.Extractor.Extract(text)
	} else {
		kws = s.Extractor.Restrict(kws)
	}
	return kws, s.Highlighter.Highlight(text, kws)
}
