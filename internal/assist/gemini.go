package assist

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GeminiProvider implements Provider using the Google Generative AI API.
type GeminiProvider struct {
	llm     *googleai.GoogleAI
	model   string
	options GenerationOptions
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey  string
	Model   string // defaults to gemini-2.0-flash
	Options GenerationOptions
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini provider requires an api key")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini LLM: %w", err)
	}

	return &GeminiProvider{
		llm:     llm,
		model:   cfg.Model,
		options: cfg.Options.withDefaults(),
	}, nil
}

// GenerateText implements Provider
func (p *GeminiProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt,
		llms.WithMaxTokens(p.options.MaxTokens),
		llms.WithTemperature(p.options.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return response, nil
}

// Name implements Provider
func (p *GeminiProvider) Name() string {
	return "gemini"
}
