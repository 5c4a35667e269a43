package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultHuggingFaceBaseURL is the hosted inference API.
	DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	// DefaultHuggingFaceModel is a summarization model that works without tuning.
	DefaultHuggingFaceModel = "sshleifer/distilbart-cnn-12-6"

	maxErrorBodyChars = 512
)

// HuggingFace calls the inference API's summarization task.
type HuggingFace struct {
	BaseURL    string
	ModelName  string
	APIKey     string
	HTTPClient *http.Client
	// MaxLength and MinLength bound the generated summary in model tokens.
	MaxLength int
	MinLength int
}

func (g *HuggingFace) Backend() string { return BackendHuggingFace }

func (g *HuggingFace) Model() string {
	if g.ModelName == "" {
		return DefaultHuggingFaceModel
	}
	return g.ModelName
}

type hfParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

// Summarize posts the text to /models/<model>. The language tag is not sent;
// summarization models answer in the input language.
func (g *HuggingFace) Summarize(ctx context.Context, req Request) (Summary, error) {
	base := strings.TrimRight(g.BaseURL, "/")
	if base == "" {
		base = DefaultHuggingFaceBaseURL
	}
	model := g.Model()
	p := hfParameters{MaxLength: g.MaxLength, MinLength: g.MinLength}
	if p.MaxLength <= 0 {
		p.MaxLength = 100
	}
	if p.MinLength <= 0 {
		p.MinLength = 40
	}
	payload, err := json.Marshal(hfRequest{Inputs: req.Text, Parameters: p})
	if err != nil {
		return Summary{}, err
	}
	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	started := time.Now()
	text, err := withRetry(ctx, func(ctx context.Context) (string, error) {
		hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/models/"+model, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotConfigured, err)
		}
		hreq.Header.Set("Content-Type", "application/json")
		if g.APIKey != "" {
			hreq.Header.Set("Authorization", "Bearer "+g.APIKey)
		}
		resp, err := hc.Do(hreq)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return parseHuggingFace(resp.StatusCode, raw)
	})
	if err != nil {
		return Summary{}, err
	}
	log.Debug().Str("backend", BackendHuggingFace).Str("model", model).Int("in_chars", len(req.Text)).Int("out_chars", len(text)).Dur("took", time.Since(started)).Msg("summary received")
	return Summary{Text: text, Backend: BackendHuggingFace, Model: model}, nil
}

// parseHuggingFace accepts [{"summary_text"}] or [{"generated_text"}], turns
// {"error"} into an error and passes any other JSON through as text.
func parseHuggingFace(status int, raw []byte) (string, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("huggingface response is not valid JSON (status %d): %s", status, clip(string(raw), maxErrorBodyChars))
	}
	switch v := data.(type) {
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				for _, field := range []string{"summary_text", "generated_text"} {
					if s, ok := first[field].(string); ok && strings.TrimSpace(s) != "" {
						return strings.TrimSpace(s), nil
					}
				}
			}
		}
	case map[string]any:
		if msg, ok := v["error"]; ok {
			return "", fmt.Errorf("huggingface error (status %d): %v", status, msg)
		}
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("huggingface status: %d", status)
	}
	return string(bytes.TrimSpace(raw)), nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
