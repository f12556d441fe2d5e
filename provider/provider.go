package provider

import (
	"context"

	"github.com/mohammad-safakhou/deepresearch/config"
	openai_provider "github.com/mohammad-safakhou/deepresearch/provider/openai"
)

// Message represents a single chat message sent to the model.
type Message = openai_provider.Message

// Provider is the interface all LLM implementations must satisfy.
type Provider interface {
	// Generate runs one completion over the given messages.
	Generate(ctx context.Context, messages []Message) (string, error)

	// GenerateWithTokens runs one completion and reports token usage.
	GenerateWithTokens(ctx context.Context, messages []Message) (string, int64, int64, error)

	// Model returns the model name requests are routed to.
	Model() string
}

// NewProvider creates an LLM client from configuration. OpenAI-compatible
// chat-completions is the only wire shape implemented; base_url allows
// pointing it at any compatible endpoint.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	return openai_provider.NewClient(
		cfg.APIKey,
		cfg.BaseURL,
		cfg.Model,
		cfg.Temperature,
		cfg.MaxTokens,
		cfg.Timeout,
	), nil
}
