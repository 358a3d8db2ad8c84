// Package aisvc rewrites study summaries with an OpenAI compatible chat model.
package aisvc

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/content"
)

const (
	maxInputRunes = 12000

	summaryPrompt = "You summarize study material for students preparing for exams. " +
		"Answer with a concise summary of at most five sentences and no preamble."
	eli5Prompt = "You explain study material to a beginner as if they were five years old. " +
		"Answer with a short explanation that starts with \"Imagine this:\"."
)

type Enhancer struct {
	client *openai.Client
	model  string
}

var _ content.Enhancer = (*Enhancer)(nil)

// NewEnhancer returns nil when no API key is configured.
func NewEnhancer(conf core.OpenAIConfig) *Enhancer {
	if conf.APIKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		cfg.BaseURL = conf.BaseURL
	}
	return &Enhancer{client: openai.NewClientWithConfig(cfg), model: conf.Model}
}

func (e *Enhancer) Summarize(ctx context.Context, text string) (string, error) {
	return e.complete(ctx, summaryPrompt, text)
}

func (e *Enhancer) ExplainSimply(ctx context.Context, text string) (string, error) {
	return e.complete(ctx, eli5Prompt, text)
}

func (e *Enhancer) complete(ctx context.Context, system, text string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: core.Truncate(text, maxInputRunes)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", errors.Wrap(err, "creating chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
