package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gosimplify/internal/llm"
)

const defaultSystemPrompt = "You rewrite text for readers with dyslexia. Use short sentences, common words and plain structure. Keep every important fact. Do not add new information. Output only the rewritten text."

// OpenAI simplifies text through an OpenAI-compatible chat completion API.
type OpenAI struct {
	Client    llm.Client
	ModelName string
	// SystemPrompt, when non-empty, replaces the default instruction.
	SystemPrompt string
}

func (g *OpenAI) Backend() string { return BackendOpenAI }
func (g *OpenAI) Model() string   { return g.ModelName }

// Summarize sends the text as a single user turn and returns the first
// choice's content.
func (g *OpenAI) Summarize(ctx context.Context, req Request) (Summary, error) {
	if g.Client == nil || strings.TrimSpace(g.ModelName) == "" {
		return Summary{}, ErrNotConfigured
	}
	system := defaultSystemPrompt
	if strings.TrimSpace(g.SystemPrompt) != "" {
		system = g.SystemPrompt
	}
	chat := openai.ChatCompletionRequest{
		Model: g.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(req)},
		},
		Temperature: 0.1,
		N:           1,
	}
	started := time.Now()
	text, err := withRetry(ctx, func(ctx context.Context) (string, error) {
		resp, err := g.Client.CreateChatCompletion(ctx, chat)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptySummary
		}
		out := strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			return "", ErrEmptySummary
		}
		return out, nil
	})
	if err != nil {
		return Summary{}, err
	}
	log.Debug().Str("backend", BackendOpenAI).Str("model", g.ModelName).Int("in_chars", len(req.Text)).Int("out_chars", len(text)).Dur("took", time.Since(started)).Msg("summary received")
	return Summary{Text: text, Backend: BackendOpenAI, Model: g.ModelName}, nil
}

func buildUserMessage(req Request) string {
	var sb strings.Builder
	sb.WriteString("Simplify the following text.")
	if req.Lang != "" {
		sb.WriteString("\nWrite in language: ")
		sb.WriteString(req.Lang)
	}
	sb.WriteString("\n\nText:\n")
	sb.WriteString(req.Text)
	return sb.String()
}
