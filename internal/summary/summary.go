// Package summary produces an optional short lede for the digest from the
// selected headlines, via an OpenAI-compatible chat API.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"aidigest/internal/config"
	"aidigest/internal/normalize"
)

const prompt = `You are writing the opening of a daily AI news email digest.
Summarize the overall picture from these headlines in two or three plain
sentences. No greetings, no bullet points, no markdown.

Headlines:
%s`

// Summarizer calls the configured model. Enabled only when both base URL and
// model are set.
type Summarizer struct {
	cfg     config.AIConfig
	timeout time.Duration
}

// New returns a Summarizer for the given AI settings.
func New(cfg config.AIConfig) *Summarizer {
	return &Summarizer{cfg: cfg, timeout: 60 * time.Second}
}

// Enabled reports whether a lede can be generated.
func (s *Summarizer) Enabled() bool {
	return strings.TrimSpace(s.cfg.BaseURL) != "" && strings.TrimSpace(s.cfg.Model) != ""
}

// Lede generates the introductory paragraph. Callers treat errors as
// non-fatal; the digest ships without a lede.
func (s *Summarizer) Lede(ctx context.Context, items []normalize.NewsItem) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("summarizer not configured")
	}
	if len(items) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (%s)\n", it.Title, it.Source)
	}

	client := openai.NewClient(option.WithBaseURL(s.cfg.BaseURL))
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := client.Chat.Completions.New(timeoutCtx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(prompt, b.String())),
		},
		Model: s.cfg.Model,
	})
	if err != nil {
		return "", fmt.Errorf("lede completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	lede := strings.TrimSpace(completion.Choices[0].Message.Content)
	if lede == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return lede, nil
}
