package translation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Translator defines the interface for translation backends
type Translator interface {
	// Translate returns text translated into the configured language
	Translate(ctx context.Context, text string) (string, error)

	// Name returns the backend name
	Name() string
}

// Backend names accepted by NewTranslator
const (
	ProviderChat       = "chatgpt"
	ProviderCompletion = "gpt3"
	ProviderGemini     = "gemini"
)

// Providers lists the accepted backend names
var Providers = []string{ProviderChat, ProviderCompletion, ProviderGemini}

// Config holds configuration shared by all backends
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string // Overrides the service endpoint, mainly for tests and proxies
	Model    string // Empty selects the backend default

	Language      string // Target language of the first attempt
	RetryLanguage string // More specific variant used by the retry after a cooldown

	NoLimit  bool          // Disables pacing between requests
	Delay    time.Duration // Minimum spacing between requests
	Cooldown time.Duration // Wait before the single retry

	MaxTokens   int
	Temperature float32
	JSONBatch   bool // Send whole batches as identifier-tagged JSON (chat only)

	Logger *slog.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:      ProviderChat,
		Language:      "Chinese",
		RetryLanguage: "Simplified Chinese",
		Delay:         3 * time.Second,
		Cooldown:      60 * time.Second,
		MaxTokens:     1024,
		Temperature:   1,
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) modelOr(def string) string {
	if c.Model != "" {
		return c.Model
	}
	return def
}

// NewTranslator creates the backend selected by config.Provider
func NewTranslator(ctx context.Context, config *Config) (Translator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", config.Provider, ErrMissingAPIKey)
	}

	switch config.Provider {
	case ProviderChat:
		return NewChatTranslator(config)
	case ProviderCompletion:
		return NewCompletionTranslator(config)
	case ProviderGemini:
		return NewGeminiTranslator(ctx, config)
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", config.Provider)
	}
}
