// Command openai-stub is a local stand-in for the upstream summarization
// services. It answers OpenAI-style chat completions and Hugging Face style
// inference calls with a deterministic "simplification": the first sentences
// of the input, capped in length.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const maxWords = 40

// simplify keeps whole sentences until maxWords is reached.
func simplify(text string) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	out := words[:maxWords]
	for i := len(out) - 1; i > 0; i-- {
		if strings.HasSuffix(out[i], ".") {
			out = out[:i+1]
			break
		}
	}
	return strings.Join(out, " ")
}

// userText extracts the text after the "Text:" marker the gateway sends.
func userText(content string) string {
	if _, after, ok := strings.Cut(content, "Text:\n"); ok {
		return after
	}
	return content
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		last := req.Messages[len(req.Messages)-1].Content
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": simplify(userText(last))}},
			},
		})
	})
	mux.HandleFunc("POST /models/", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req struct {
			Inputs string `json:"inputs"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Inputs) == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "inputs is required"})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{{"summary_text": simplify(req.Inputs)}})
	})

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
