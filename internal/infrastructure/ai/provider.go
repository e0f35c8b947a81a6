// Package ai wraps the LLM providers used by the template editor.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	ProviderNone      = "none"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config selects a provider and model.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Completer answers one system + user prompt pair with text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewModel builds the langchaingo model for the configured provider.
func NewModel(cfg Config) (llms.Model, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, checkout.ErrAINotConfigured
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		return model, nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, checkout.ErrAINotConfigured
		}
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		return model, nil

	case ProviderOllama:
		opts := []ollama.Option{}
		if cfg.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
		return model, nil

	case "", ProviderNone:
		return nil, checkout.ErrAINotConfigured

	default:
		return nil, fmt.Errorf("unknown AI provider %q: %w", cfg.Provider, checkout.ErrAINotConfigured)
	}
}

// LLMCompleter sends prompts through a langchaingo model.
type LLMCompleter struct {
	model       llms.Model
	provider    string
	temperature float64
	timeout     time.Duration
	logger      *logging.ChanneledLogger
}

// NewLLMCompleter wraps a model. A zero timeout leaves the caller's deadline
// in charge.
func NewLLMCompleter(model llms.Model, provider string, timeout time.Duration, logger *logging.ChanneledLogger) *LLMCompleter {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &LLMCompleter{
		model:       model,
		provider:    provider,
		temperature: 0.2,
		timeout:     timeout,
		logger:      logger,
	}
}

func (c *LLMCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	start := time.Now()
	c.logger.AI().Debug("Sending completion request", "provider", c.provider, "promptBytes", len(prompt))

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		c.logger.AI().Error("Completion request failed", "provider", c.provider, "error", err.Error(), "duration", time.Since(start))
		return "", fmt.Errorf("%s completion failed: %w", c.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.provider)
	}

	content := resp.Choices[0].Content
	c.logger.AI().Info("Completion received", "provider", c.provider, "replyBytes", len(content), "duration", time.Since(start))
	return content, nil
}
