package openai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"doc-analyzer/internal/llm"
	"doc-analyzer/internal/shared/telemetry"
)

const defaultMaxOutputTokens = 1500

// Options configures the OpenAI client.
type Options struct {
	APIKey        string
	Model         string
	MaxInputRunes int
	// BaseURL overrides the API endpoint; empty uses the public API.
	BaseURL string
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api           *goopenai.Client
	model         string
	maxInputRunes int
	timeout       time.Duration
}

// NewClient constructs a new OpenAI client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	cfg := goopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &Client{
		api:           goopenai.NewClientWithConfig(cfg),
		model:         opts.Model,
		maxInputRunes: opts.MaxInputRunes,
		timeout:       timeout,
	}, nil
}

// Analyze sends the document with the section instructions and returns the reply text.
func (c *Client) Analyze(ctx context.Context, input llm.AnalyzeInput) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", llm.ErrEmptyDocument
	}
	text = llm.TruncateRunes(text, c.maxInputRunes)
	userPrompt := llm.BuildUserPrompt(text, input.Sections)

	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if isGPT5(c.model) {
		req.MaxCompletionTokens = defaultMaxOutputTokens
	} else {
		req.MaxTokens = defaultMaxOutputTokens
		req.Temperature = 0.3
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai error status=%d: %s (%v): %w", apiErr.HTTPStatusCode, apiErr.Message, apiErr.Type, err)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}

	telemetry.Info("llm.response", map[string]any{
		"model":             c.model,
		"prompt_hash":       hashPrompt(userPrompt),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"duration_ms":       time.Since(started).Milliseconds(),
	})
	return content, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}

var _ llm.Client = (*Client)(nil)
