package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiTranslator uses the Google Gemini API with the same retry policy as
// the chat backend
type GeminiTranslator struct {
	client *genai.Client
	config *Config
	guard  *guard
	log    *slog.Logger
}

// NewGeminiTranslator creates a Gemini backend
func NewGeminiTranslator(ctx context.Context, config *Config) (*GeminiTranslator, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTranslator{
		client: client,
		config: config,
		guard:  newGuard(ProviderGemini, config),
		log:    config.logger(),
	}, nil
}

// Translate translates a single text
func (t *GeminiTranslator) Translate(ctx context.Context, text string) (string, error) {
	t.log.Info("translating", "backend", t.Name(), "text", text)

	translation, err := withRetry(ctx, t.guard,
		func(ctx context.Context) (string, error) {
			return t.generate(ctx, chatPrompt(text, t.config.Language))
		},
		func(ctx context.Context) (string, error) {
			return t.generate(ctx, chatPrompt(text, t.config.RetryLanguage))
		})
	if err != nil {
		return "", err
	}

	t.log.Info("translated", "backend", t.Name(), "text", translation)
	return translation, nil
}

// Name returns the backend name
func (t *GeminiTranslator) Name() string {
	return ProviderGemini
}

func (t *GeminiTranslator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := t.client.Models.GenerateContent(ctx, t.config.modelOr(defaultGeminiModel), genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
