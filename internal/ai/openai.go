package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (*OpenAI) Name() string { return "openai" }

func (o *OpenAI) Advise(ctx context.Context, q Question) (Answer, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(q)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, fmt.Errorf("%w: no choices", ErrBadReply)
	}

	content := resp.Choices[0].Message.Content
	slog.DebugContext(ctx, "OpenAI reply", "model", resp.Model, "tokens", resp.Usage.TotalTokens)

	var r reply
	if err := json.Unmarshal([]byte(stripFences(content)), &r); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	return r.answer(q)
}
