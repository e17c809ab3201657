package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifies a hosted LLM backend.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Config selects and tunes a provider.
type Config struct {
	Provider Provider
	// Model overrides the provider's default model name.
	Model string
	// APIKey authenticates against the provider.
	APIKey string
	// MaxTokens bounds the response. Default: 1024.
	MaxTokens int
	// MaxInputChars bounds the assembled prompt. Default: 24000.
	MaxInputChars int
	// Prompt overrides DefaultPrompt.
	Prompt string
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 24000
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderClaude:
			c.Model = "claude-3-5-haiku-latest"
		case ProviderOpenAI:
			c.Model = "gpt-4o-mini"
		case ProviderGemini:
			c.Model = "gemini-1.5-flash"
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New builds a Summarizer for the configured provider.
func New(ctx context.Context, cfg Config) (Summarizer, error) {
	cfg.defaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("summarize: provider %q: API key is required", cfg.Provider)
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case ProviderClaude:
		model, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)
	case ProviderOpenAI:
		model, err = openai.New(
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		)
	case ProviderGemini:
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("summarize: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("summarize: init provider %q: %w", cfg.Provider, err)
	}

	return &llmSummarizer{cfg: cfg, model: model}, nil
}

type llmSummarizer struct {
	cfg   Config
	model llms.Model
}

func (s *llmSummarizer) Summarize(ctx context.Context, comments []string) (string, error) {
	prompt := buildPrompt(s.cfg.Prompt, comments, s.cfg.MaxInputChars)
	s.cfg.Logger.Debug("summarize: calling provider",
		"provider", s.cfg.Provider, "model", s.cfg.Model,
		"comments", len(comments), "prompt_chars", len(prompt))

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithMaxTokens(s.cfg.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("summarize: provider %q: %w", s.cfg.Provider, err)
	}

	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "", ErrEmpty
	}
	return resp, nil
}
