package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. baseURL overrides the API endpoint
// when not empty.
func NewLister(apiKey, baseURL string) *Lister {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
	}
}

// ListAvailableModels writes the models usable with -m chatgpt and -m gpt3 to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .bilingual.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	chatModels, completionModels := categorize(models.Models)

	fmt.Fprintln(w, "Available OpenAI Models:")
	printGroup(w, "Chat Models (-m chatgpt)", chatModels, openai.GPT3Dot5Turbo)
	printGroup(w, "Completion Models (-m gpt3)", completionModels, openai.GPT3Dot5TurboInstruct)
	return nil
}

// categorize splits model ids into chat and completion models, sorted
func categorize(models []openai.Model) (chat, completion []string) {
	for _, model := range models {
		id := model.ID
		switch {
		case strings.Contains(id, "instruct") || strings.Contains(id, "davinci") || strings.Contains(id, "babbage"):
			completion = append(completion, id)
		case strings.Contains(id, "tts") || strings.Contains(id, "audio") || strings.Contains(id, "realtime") || strings.Contains(id, "transcribe"):
			// Speech models cannot translate text
		case strings.HasPrefix(id, "gpt") || strings.Contains(id, "chat"):
			chat = append(chat, id)
		}
	}

	sort.Strings(chat)
	sort.Strings(completion)
	return chat, completion
}

func printGroup(w io.Writer, title string, models []string, def string) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(models) == 0 {
		fmt.Fprintln(w, "  No models found")
		return
	}
	for _, model := range models {
		if model == def {
			fmt.Fprintf(w, "  %s (default)\n", model)
			continue
		}
		fmt.Fprintf(w, "  %s\n", model)
	}
}
