package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ChatTranslator uses the OpenAI chat completions endpoint. A failed request
// is retried once after a cooldown, asking for the more specific language
// variant; if the retry fails too the error is returned.
type ChatTranslator struct {
	client *openai.Client
	config *Config
	guard  *guard
	log    *slog.Logger
}

// NewChatTranslator creates a chat backend
func NewChatTranslator(config *Config) (*ChatTranslator, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &ChatTranslator{
		client: newOpenAIClient(config),
		config: config,
		guard:  newGuard(ProviderChat, config),
		log:    config.logger(),
	}, nil
}

// Translate translates a single text
func (t *ChatTranslator) Translate(ctx context.Context, text string) (string, error) {
	t.log.Info("translating", "backend", t.Name(), "text", text)

	translation, err := withRetry(ctx, t.guard,
		func(ctx context.Context) (string, error) {
			return t.complete(ctx, chatPrompt(text, t.config.Language))
		},
		func(ctx context.Context) (string, error) {
			return t.complete(ctx, chatPrompt(text, t.config.RetryLanguage))
		})
	if err != nil {
		return "", err
	}

	t.log.Info("translated", "backend", t.Name(), "text", translation)
	return translation, nil
}

// TranslateBatch translates segments in one request when JSON batching is
// enabled and one request per segment otherwise
func (t *ChatTranslator) TranslateBatch(ctx context.Context, segments []Segment) ([]Segment, error) {
	if !t.config.JSONBatch {
		return translateEach(ctx, t, segments)
	}
	if len(segments) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	t.log.Info("translating batch", "backend", t.Name(), "segments", len(segments))

	return withRetry(ctx, t.guard,
		func(ctx context.Context) ([]Segment, error) {
			return t.completeBatch(ctx, batchPrompt(payload, t.config.Language))
		},
		func(ctx context.Context) ([]Segment, error) {
			return t.completeBatch(ctx, batchPrompt(payload, t.config.RetryLanguage))
		})
}

// Name returns the backend name
func (t *ChatTranslator) Name() string {
	return ProviderChat
}

func (t *ChatTranslator) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: t.config.modelOr(openai.GPT3Dot5Turbo),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (t *ChatTranslator) completeBatch(ctx context.Context, prompt string) ([]Segment, error) {
	content, err := t.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result []Segment
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return nil, fmt.Errorf("malformed batch response: %w", err)
	}
	for _, s := range result {
		t.log.Info("translated", "backend", t.Name(), "id", s.ID, "text", s.Text)
	}
	return result, nil
}

// stripCodeFence removes a markdown code fence that models like to add
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
