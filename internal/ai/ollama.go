package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

type ollamaRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Ollama uses the non-streaming /api/generate endpoint of a local server.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
}

func (*Ollama) Name() string { return "ollama" }

func (o *Ollama) Advise(ctx context.Context, q Question) (Answer, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  o.model,
		System: systemPrompt,
		Prompt: userPrompt(q),
		Stream: false,
		Format: "json",
		Options: &ollamaOptions{
			NumPredict:  1024,
			Temperature: 0.2,
		},
	})
	if err != nil {
		return Answer{}, fmt.Errorf("marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("ollama API connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Answer{}, fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Answer{}, fmt.Errorf("decode ollama response: %w", err)
	}
	slog.DebugContext(ctx, "Ollama reply", "model", out.Model, "done", out.Done)
	if out.Response == "" {
		return Answer{}, fmt.Errorf("%w: ollama returned empty response", ErrBadReply)
	}

	var r reply
	if err := json.Unmarshal([]byte(stripFences(out.Response)), &r); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	return r.answer(q)
}
