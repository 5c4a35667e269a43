package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/gosimplify/internal/gateway"
	"github.com/hyperifyio/gosimplify/internal/simplify"
)

type stubGateway struct {
	text  string
	err   error
	delay time.Duration
}

func (g *stubGateway) Backend() string { return "stub" }
func (g *stubGateway) Model() string   { return "stub-model" }

func (g *stubGateway) Summarize(ctx context.Context, req gateway.Request) (gateway.Summary, error) {
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return gateway.Summary{}, ctx.Err()
		case <-time.After(g.delay):
		}
	}
	if g.err != nil {
		return gateway.Summary{}, g.err
	}
	return gateway.Summary{Text: g.text, Backend: "stub", Model: "stub-model"}, nil
}

func newTestServer(gw gateway.Gateway, opts Options) *httptest.Server {
	svc := &simplify.Service{Gateway: gw}
	return httptest.NewServer(New(svc, opts).Handler())
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestSimplify_ReturnsKeywordsAndHighlight(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "The dyslexia community needs accessible reading tools"}, Options{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/simplify", `{"text":"original <b>text</b>","lang":"en"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var got simplify.Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Keywords) != 5 || got.Keywords[0] != "accessible" {
		t.Fatalf("keywords=%v", got.Keywords)
	}
	if !strings.Contains(got.HighlightedText, "<mark>dyslexia</mark>") {
		t.Fatalf("highlighted=%q", got.HighlightedText)
	}
	if got.SimplifiedText == "" || got.Model != "stub-model" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSimplify_HighlightOriginalEscapesMarkup(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "Readers enjoy stories."}, Options{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/simplify", `{"text":"<i>readers</i> enjoy","highlight":"original"}`)
	defer resp.Body.Close()
	var got simplify.Result
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "&lt;i&gt;<mark>readers</mark>&lt;/i&gt; <mark>enjoy</mark>"
	if got.HighlightedText != want {
		t.Fatalf("highlighted=%q, want %q", got.HighlightedText, want)
	}
}

func TestSimplify_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		gw     *stubGateway
		body   string
		status int
	}{
		{"missing text", &stubGateway{text: "ok"}, `{}`, http.StatusBadRequest},
		{"non-string text", &stubGateway{text: "ok"}, `{"text": 42}`, http.StatusBadRequest},
		{"malformed json", &stubGateway{text: "ok"}, `{"text":`, http.StatusBadRequest},
		{"empty body", &stubGateway{text: "ok"}, ``, http.StatusBadRequest},
		{"bad target", &stubGateway{text: "ok"}, `{"text":"x","highlight":"up"}`, http.StatusBadRequest},
		{"bad lang", &stubGateway{text: "ok"}, `{"text":"x","lang":"%%%"}`, http.StatusBadRequest},
		{"gateway failure", &stubGateway{err: gateway.ErrEmptySummary}, `{"text":"x"}`, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(tc.gw, Options{})
			defer srv.Close()
			resp := postJSON(t, srv.URL+"/api/simplify", tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status=%d, want %d", resp.StatusCode, tc.status)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
				t.Fatalf("expected JSON error body, err=%v body=%+v", err, e)
			}
		})
	}
}

func TestSimplify_BodyTooLarge(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "ok"}, Options{MaxBodyBytes: 32})
	defer srv.Close()
	resp := postJSON(t, srv.URL+"/api/simplify", `{"text":"`+strings.Repeat("a", 100)+`"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d, want 413", resp.StatusCode)
	}
}

func TestSimplify_TimeoutIsGatewayTimeout(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "ok", delay: time.Second}, Options{RequestTimeout: 20 * time.Millisecond})
	defer srv.Close()
	resp := postJSON(t, srv.URL+"/api/simplify", `{"text":"x"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status=%d, want 504", resp.StatusCode)
	}
}

func TestLegacySimplifyText(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "Readers enjoy stories."}, Options{})
	defer srv.Close()
	resp := postJSON(t, srv.URL+"/simplify-text/", `{"text":"Many readers enjoy stories."}`)
	defer resp.Body.Close()
	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["simplified_text"] != "Readers enjoy stories." {
		t.Fatalf("simplified_text=%q", got["simplified_text"])
	}
	if got["highlighted_original_text"] != "Many <mark>readers</mark> <mark>enjoy</mark> <mark>stories</mark>." {
		t.Fatalf("highlighted_original_text=%q", got["highlighted_original_text"])
	}
}

func TestHighlightEndpoint(t *testing.T) {
	srv := newTestServer(nil, Options{})
	defer srv.Close()
	resp := postJSON(t, srv.URL+"/api/highlight", `{"text":"tiger tigers","keywords":["tiger"]}`)
	defer resp.Body.Close()
	var got highlightResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.HighlightedText != "<mark>tiger</mark> tigers" {
		t.Fatalf("highlightedText=%q", got.HighlightedText)
	}

	resp2 := postJSON(t, srv.URL+"/api/highlight", `{"text":"  "}`)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", resp2.StatusCode)
	}
}

func TestHighlightEndpoint_NormalizesGivenKeywords(t *testing.T) {
	srv := newTestServer(nil, Options{})
	defer srv.Close()
	body := `{"text":"reading tools a","keywords":["reading","reading","a","Reading","tools","extra","seven","eighteen"]}`
	resp := postJSON(t, srv.URL+"/api/highlight", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var got highlightResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Keywords) != 5 {
		t.Fatalf("keywords=%v, want 5 entries", got.Keywords)
	}
	seen := map[string]bool{}
	for i, k := range got.Keywords {
		if seen[k] {
			t.Fatalf("duplicate keyword %q in %v", k, got.Keywords)
		}
		seen[k] = true
		if len([]rune(k)) <= 4 {
			t.Fatalf("short keyword %q in %v", k, got.Keywords)
		}
		if i > 0 && len([]rune(got.Keywords[i-1])) < len([]rune(k)) {
			t.Fatalf("keywords not longest first: %v", got.Keywords)
		}
	}
	if strings.Contains(got.HighlightedText, "<mark>a</mark>") {
		t.Fatalf("one-letter keyword highlighted: %q", got.HighlightedText)
	}
}

func TestSimplifyPDF(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "Readers enjoy stories."}, Options{})
	defer srv.Close()
	resp := postJSON(t, srv.URL+"/api/simplify.pdf", `{"text":"x"}`)
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content-type=%q", ct)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("body is not a PDF")
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&stubGateway{text: "ok"}, Options{AllowedOrigins: []string{"http://localhost:5173"}})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/simplify", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status=%d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin=%q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin for foreign origin: %q", got)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(&stubGateway{}, Options{Version: map[string]string{"version": "1.2.3"}})
	defer srv.Close()
	for path, want := range map[string]string{"/healthz": `"status":"ok"`, "/version": `"version":"1.2.3"`} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("%s body=%s, want %s", path, buf.String(), want)
		}
	}
	resp, err := http.Get(srv.URL + "/api/simplify")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/simplify status=%d, want 405", resp.StatusCode)
	}
}
