package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/viper"

	"codeberg.org/snonux/bilingual/internal/batch"
	"codeberg.org/snonux/bilingual/internal/epub"
	"codeberg.org/snonux/bilingual/internal/translation"
)

// ErrUnsupportedInput is returned when the book path is missing or not an EPUB
var ErrUnsupportedInput = errors.New("unsupported input")

// Validate checks the flags before any request is sent
func Validate(flags *Flags) error {
	if flags.BookName == "" {
		return fmt.Errorf("%w: --book-name is required", ErrUnsupportedInput)
	}
	if !epub.HasExtension(flags.BookName) {
		return fmt.Errorf("%w: %s: please use an %s file", ErrUnsupportedInput, flags.BookName, epub.Extension)
	}
	info, err := os.Stat(flags.BookName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnsupportedInput, flags.BookName)
	}

	if err := batch.ValidateSize(flags.BatchSize); err != nil {
		return err
	}

	if !slices.Contains(translation.Providers, flags.Model) {
		return fmt.Errorf("unknown model %q (choose from %v)", flags.Model, translation.Providers)
	}

	if flags.Model == translation.ProviderGemini {
		if GetGeminiKey(flags.GeminiKey) == "" {
			return fmt.Errorf("Gemini API key not found. Use --gemini-key, set GEMINI_API_KEY or configure gemini.key in .bilingual.yaml")
		}
	} else if GetOpenAIKey(flags.OpenAIKey) == "" {
		return fmt.Errorf("OpenAI API key not found. Use --openai-key, set OPENAI_API_KEY or configure openai.key in .bilingual.yaml")
	}
	return nil
}

// TranslationConfig builds the backend configuration from flags and config file
func TranslationConfig(flags *Flags, logger *slog.Logger) *translation.Config {
	cfg := translation.DefaultConfig()
	cfg.Provider = flags.Model
	cfg.Language = flags.Language
	cfg.RetryLanguage = retryLanguage(flags.Language)
	cfg.NoLimit = flags.NoLimit
	cfg.JSONBatch = flags.JSONBatch
	cfg.Logger = logger

	switch flags.Model {
	case translation.ProviderGemini:
		cfg.APIKey = GetGeminiKey(flags.GeminiKey)
		cfg.Model = viper.GetString("gemini.model")
		cfg.BaseURL = viper.GetString("gemini.base_url")
	default:
		cfg.APIKey = GetOpenAIKey(flags.OpenAIKey)
		cfg.Model = viper.GetString("openai.model")
		cfg.BaseURL = viper.GetString("openai.base_url")
	}

	// Use config file values if set
	if viper.IsSet("translate.retry_language") {
		cfg.RetryLanguage = viper.GetString("translate.retry_language")
	}
	if viper.IsSet("translate.delay") {
		cfg.Delay = viper.GetDuration("translate.delay")
	}
	if viper.IsSet("translate.cooldown") {
		cfg.Cooldown = viper.GetDuration("translate.cooldown")
	}

	return cfg
}

// retryLanguage is the more specific variant asked for after a failure
func retryLanguage(language string) string {
	if language == "Chinese" {
		return "Simplified Chinese"
	}
	return language
}

// NewLogger creates the text logger used for progress and diagnostics
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
