// Package server exposes the simplification service over HTTP.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosimplify/internal/export"
	"github.com/hyperifyio/gosimplify/internal/simplify"
)

const (
	// DefaultMaxBodyBytes caps request bodies.
	DefaultMaxBodyBytes = 1 << 20
	// DefaultRequestTimeout bounds one request including the upstream call.
	DefaultRequestTimeout = 90 * time.Second
)

// Options tune the HTTP layer.
type Options struct {
	// AllowedOrigins lists CORS origins; "*" or empty allows any.
	AllowedOrigins []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	// Version is served by GET /version.
	Version map[string]string
	Logger  *zerolog.Logger
}

// Server routes requests to a simplify.Service.
type Server struct {
	svc  *simplify.Service
	opts Options
	mux  *http.ServeMux
}

// New builds a Server with defaults filled in.
func New(svc *simplify.Service, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	s := &Server{svc: svc, opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/simplify", s.handleSimplify)
	s.mux.HandleFunc("POST /api/simplify.pdf", s.handleSimplifyPDF)
	s.mux.HandleFunc("POST /api/highlight", s.handleHighlight)
	s.mux.HandleFunc("POST /simplify-text/", s.handleLegacySimplify)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	return s
}

// Handler returns the routed handler wrapped in CORS and access logging.
func (s *Server) Handler() http.Handler {
	logger := log.Logger
	if s.opts.Logger != nil {
		logger = *s.opts.Logger
	}
	var h http.Handler = s.mux
	h = s.cors(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		ev := hlog.FromRequest(r).Info()
		if status >= 500 {
			ev = hlog.FromRequest(r).Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RemoteAddrHandler("remote")(h)
	h = hlog.NewHandler(logger)(h)
	return h
}

type simplifyRequest struct {
	Text      string `json:"text"`
	Lang      string `json:"lang"`
	Highlight string `json:"highlight"`
}

func (s *Server) simplify(w http.ResponseWriter, r *http.Request) (simplify.Result, bool) {
	var req simplifyRequest
	if !s.decode(w, r, &req) {
		return simplify.Result{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()
	res, err := s.svc.Simplify(ctx, simplify.Request{
		Text:   req.Text,
		Lang:   req.Lang,
		Target: simplify.Target(req.Highlight),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return simplify.Result{}, false
	}
	hlog.FromRequest(r).Debug().
		Int("text_chars", len(req.Text)).
		Int("keywords", len(res.Keywords)).
		Bool("cached", res.Cached).
		Msg("simplified")
	return res, true
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	res, ok := s.simplify(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSimplifyPDF(w http.ResponseWriter, r *http.Request) {
	res, ok := s.simplify(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="simplified.pdf"`)
	if err := export.WritePDF(w, export.Sheet{Text: res.SimplifiedText, Keywords: res.Keywords}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("pdf export failed")
	}
}

type legacyResponse struct {
	SimplifiedText          string `json:"simplified_text"`
	HighlightedOriginalText string `json:"highlighted_original_text"`
}

// handleLegacySimplify keeps the older response shape, which always
// highlights the original text.
func (s *Server) handleLegacySimplify(w http.ResponseWriter, r *http.Request) {
	var req simplifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()
	res, err := s.svc.Simplify(ctx, simplify.Request{Text: req.Text, Lang: req.Lang, Target: simplify.TargetOriginal})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, legacyResponse{
		SimplifiedText:          res.SimplifiedText,
		HighlightedOriginalText: res.HighlightedText,
	})
}

type highlightRequest struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
}

type highlightResponse struct {
	Keywords        []string `json:"keywords"`
	HighlightedText string   `json:"highlightedText"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "invalid argument: text is required")
		return
	}
	kws, out := s.svc.Highlight(req.Text, req.Keywords)
	writeJSON(w, http.StatusOK, highlightResponse{Keywords: kws, HighlightedText: out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	v := s.opts.Version
	if v == nil {
		v = map[string]string{}
	}
	writeJSON(w, http.StatusOK, v)
}

// cors answers preflight requests and sets the allow-origin header.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowOrigin(origin); allowed != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "600")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	if len(s.opts.AllowedOrigins) == 0 {
		return "*"
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
