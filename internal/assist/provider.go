// Package assist brokers code analysis and suggestion requests to an external
// text-completion provider, degrading to local fallbacks when it is slow,
// failing or absent.
package assist

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the interface for LLM backends.
type Provider interface {
	// GenerateText generates text from a prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "gemini", "bedrock")
	Name() string
}

var (
	// ErrProviderUnavailable is returned when the provider failed, timed out or answered with nothing.
	ErrProviderUnavailable = errors.New("ai provider unavailable")

	// ErrMalformedResponse is returned when the provider answer has no decodable analysis.
	ErrMalformedResponse = errors.New("malformed ai response")

	// ErrDescriptionRequired is returned when a suggestion request has no description.
	ErrDescriptionRequired = errors.New("description is required")
)

// GenerationOptions tune every provider call.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

func (o GenerationOptions) withDefaults() GenerationOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.3
	}
	return o
}

// ProviderConfig selects a provider by name.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	Region   string
	Profile  string

	AccessKeyID     string
	SecretAccessKey string
	GenerationOptions
}

// NewProvider builds the configured provider. An empty provider name returns
// nil, which leaves the broker on fallbacks only.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gemini":
		p, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Options: cfg.GenerationOptions,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "bedrock":
		p, err := NewBedrockProvider(ctx, BedrockConfig{
			Region:          cfg.Region,
			ModelID:         cfg.Model,
			Profile:         cfg.Profile,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Options:         cfg.GenerationOptions,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
