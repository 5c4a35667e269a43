// Package gateway obtains simplified text from an upstream summarization
// service. All backends sit behind one Gateway interface; which backend and
// model are used is configuration, not code path.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hyperifyio/gosimplify/internal/llm"
)

// Backend names accepted by New.
const (
	BackendOpenAI      = "openai"
	BackendHuggingFace = "huggingface"
	BackendEcho        = "echo"
)

// Backends lists every accepted backend name.
var Backends = []string{BackendOpenAI, BackendHuggingFace, BackendEcho}

var (
	// ErrNotConfigured means the gateway lacks a client or model.
	ErrNotConfigured = errors.New("gateway not configured")
	// ErrEmptySummary means the upstream answered without usable text.
	ErrEmptySummary = errors.New("empty summary")
	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown gateway backend")
)

// Request is one simplification call. Lang is an optional BCP 47 tag.
type Request struct {
	Text string
	Lang string
}

// Summary is the upstream's answer.
type Summary struct {
	Text    string
	Backend string
	Model   string
	Cached  bool
}

// Gateway produces simplified text for a request.
type Gateway interface {
	Summarize(ctx context.Context, req Request) (Summary, error)
	Backend() string
	Model() string
}

// Options configure New.
type Options struct {
	Backend string
	Model   string
	BaseURL string
	APIKey  string
	// SystemPrompt overrides the default chat instruction (openai only).
	SystemPrompt string
	// EchoPrefix is prepended by the echo backend.
	EchoPrefix string
	HTTPClient *http.Client
	// LLM, when set, is used instead of building a go-openai client.
	LLM llm.Client
}

// New builds the gateway for opts.Backend. An empty backend means openai.
func New(opts Options) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendOpenAI:
		client := opts.LLM
		if client == nil {
			client = llm.NewOpenAIProvider(opts.BaseURL, opts.APIKey, opts.HTTPClient)
		}
		return &OpenAI{Client: client, ModelName: opts.Model, SystemPrompt: opts.SystemPrompt}, nil
	case BackendHuggingFace:
		return &HuggingFace{BaseURL: opts.BaseURL, ModelName: opts.Model, APIKey: opts.APIKey, HTTPClient: opts.HTTPClient}, nil
	case BackendEcho:
		return &Echo{Prefix: opts.EchoPrefix}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// sleepFunc lets tests replace the retry backoff. When nil, the backoff
// waits on a timer bounded by the context.
var sleepFunc func(ctx context.Context, d time.Duration)

const retryBackoff = 100 * time.Millisecond

// withRetry calls fn and, on a transient failure, once more after a short
// fixed backoff. Configuration errors and cancellation are not retried.
func withRetry(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	out, err := fn(ctx)
	if err == nil || errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
		return out, err
	}
	if sleepFunc != nil {
		sleepFunc(ctx, retryBackoff)
	} else {
		t := time.NewTimer(retryBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	out, err = fn(ctx)
	if err != nil {
		return "", fmt.Errorf("after retry: %w", err)
	}
	return out, nil
}
