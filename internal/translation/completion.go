package translation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// CompletionTranslator uses the OpenAI completions endpoint. It never fails:
// when the service does not answer the source text is returned unchanged.
type CompletionTranslator struct {
	client *openai.Client
	config *Config
	log    *slog.Logger
}

// NewCompletionTranslator creates a completion backend
func NewCompletionTranslator(config *Config) (*CompletionTranslator, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &CompletionTranslator{
		client: newOpenAIClient(config),
		config: config,
		log:    config.logger(),
	}, nil
}

// Translate translates text, falling back to text itself on any service error
func (t *CompletionTranslator) Translate(ctx context.Context, text string) (string, error) {
	t.log.Info("translating", "backend", t.Name(), "text", text)

	req := openai.CompletionRequest{
		Model:       t.config.modelOr(openai.GPT3Dot5TurboInstruct),
		Prompt:      completionPrompt(text, t.config.Language),
		MaxTokens:   t.config.MaxTokens,
		Temperature: t.config.Temperature,
		TopP:        1,
	}

	resp, err := t.client.CreateCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.log.Warn("completion failed, keeping source text", "backend", t.Name(), "error", err)
		return text, nil
	}
	if len(resp.Choices) == 0 {
		t.log.Warn("completion returned no choices, keeping source text", "backend", t.Name())
		return text, nil
	}

	translation := strings.TrimSpace(resp.Choices[0].Text)
	if translation == "" {
		return text, nil
	}
	t.log.Info("translated", "backend", t.Name(), "text", translation)
	return translation, nil
}

// Name returns the backend name
func (t *CompletionTranslator) Name() string {
	return ProviderCompletion
}

func newOpenAIClient(config *Config) *openai.Client {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}
