package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewTranslator(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{ProviderChat, "chatgpt"},
		{ProviderCompletion, "gpt3"},
		{ProviderGemini, "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := testConfig(tt.provider, "http://127.0.0.1:1")
			translator, err := NewTranslator(context.Background(), cfg)
			if err != nil {
				t.Fatalf("NewTranslator failed: %v", err)
			}
			if translator.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", translator.Name(), tt.wantName)
			}
		})
	}
}

func TestNewTranslator_NoAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	_, err := NewTranslator(context.Background(), cfg)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewTranslator_UnknownProvider(t *testing.T) {
	cfg := testConfig("deepl", "http://127.0.0.1:1")
	_, err := NewTranslator(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown translation provider") {
		t.Errorf("Expected unknown provider error, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Delay != 3*time.Second {
		t.Errorf("Expected 3s delay, got %v", cfg.Delay)
	}
	if cfg.Cooldown != 60*time.Second {
		t.Errorf("Expected 60s cooldown, got %v", cfg.Cooldown)
	}
	if cfg.Language != "Chinese" || cfg.RetryLanguage != "Simplified Chinese" {
		t.Errorf("Unexpected languages: %s / %s", cfg.Language, cfg.RetryLanguage)
	}
}

func TestCompletionTranslator_Success(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{content: "\n\n你好"})
	translator, err := NewCompletionTranslator(testConfig(ProviderCompletion, srv.URL))
	if err != nil {
		t.Fatalf("NewCompletionTranslator failed: %v", err)
	}

	got, err := translator.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "你好" {
		t.Errorf("Expected '你好', got '%s'", got)
	}
	if !strings.Contains(fake.prompt(0), "`Hello` to Chinese") {
		t.Errorf("Unexpected prompt: %s", fake.prompt(0))
	}
}

func TestCompletionTranslator_FallbackOnFailure(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{status: http.StatusInternalServerError})
	translator, _ := NewCompletionTranslator(testConfig(ProviderCompletion, srv.URL))

	got, err := translator.Translate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "x" {
		t.Errorf("Expected source text 'x', got '%s'", got)
	}
	if fake.calls() != 1 {
		t.Errorf("Expected a single request, got %d", fake.calls())
	}
}

func TestCompletionTranslator_EmptyText(t *testing.T) {
	_, srv := newFakeOpenAI(t, fakeReply{content: "   "})
	translator, _ := NewCompletionTranslator(testConfig(ProviderCompletion, srv.URL))

	got, _ := translator.Translate(context.Background(), "x")
	if got != "x" {
		t.Errorf("Expected source text for empty completion, got '%s'", got)
	}
}

func TestChatTranslator_Success(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{content: " 世界 "})
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))
	slept := recordSleeps(translator.guard)

	got, err := translator.Translate(context.Background(), "World")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "世界" {
		t.Errorf("Expected '世界', got '%s'", got)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no cooldown, got %v", *slept)
	}
	if !strings.Contains(fake.prompt(0), "to Chinese, please return only translated content") {
		t.Errorf("Unexpected prompt: %s", fake.prompt(0))
	}
}

func TestChatTranslator_RetryAfterCooldown(t *testing.T) {
	fake, srv := newFakeOpenAI(t,
		fakeReply{status: http.StatusTooManyRequests},
		fakeReply{content: "second"},
	)
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))
	slept := recordSleeps(translator.guard)

	got, err := translator.Translate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "second" {
		t.Errorf("Expected result of the retry, got '%s'", got)
	}
	if len(*slept) != 1 || (*slept)[0] != 60*time.Second {
		t.Errorf("Expected one 60s cooldown, got %v", *slept)
	}
	if fake.calls() != 2 {
		t.Fatalf("Expected 2 requests, got %d", fake.calls())
	}
	if !strings.Contains(fake.prompt(1), "to Simplified Chinese") {
		t.Errorf("Retry should ask for Simplified Chinese: %s", fake.prompt(1))
	}
}

func TestChatTranslator_RetryFails(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{status: http.StatusInternalServerError})
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))
	recordSleeps(translator.guard)

	_, err := translator.Translate(context.Background(), "x")
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %v", err)
	}
	if backendErr.Provider != ProviderChat {
		t.Errorf("Expected provider chatgpt, got %s", backendErr.Provider)
	}
	if fake.calls() != 2 {
		t.Errorf("Expected exactly one retry, got %d requests", fake.calls())
	}
}

func TestChatTranslator_CircuitOpens(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{status: http.StatusInternalServerError})
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))
	slept := recordSleeps(translator.guard)

	for i := 0; i < 3; i++ {
		if _, err := translator.Translate(context.Background(), "x"); err == nil {
			t.Fatal("Expected failure")
		}
	}

	_, err := translator.Translate(context.Background(), "x")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if fake.calls() != 6 {
		t.Errorf("Open circuit must not reach the service: %d requests", fake.calls())
	}
	if len(*slept) != 3 {
		t.Errorf("Open circuit must not cool down: %d cooldowns", len(*slept))
	}
}

func TestChatTranslator_RecoveredFailuresKeepCircuitClosed(t *testing.T) {
	var replies []fakeReply
	for i := 1; i <= 6; i++ {
		replies = append(replies,
			fakeReply{status: http.StatusTooManyRequests},
			fakeReply{content: fmt.Sprintf("t%d", i)},
		)
	}
	fake, srv := newFakeOpenAI(t, replies...)
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))
	slept := recordSleeps(translator.guard)

	for i := 1; i <= 6; i++ {
		got, err := translator.Translate(context.Background(), fmt.Sprintf("p%d", i))
		if err != nil {
			t.Fatalf("Paragraph %d failed: %v", i, err)
		}
		if want := fmt.Sprintf("t%d", i); got != want {
			t.Errorf("Paragraph %d: expected '%s', got '%s'", i, want, got)
		}
	}
	if fake.calls() != 12 {
		t.Errorf("Expected 12 requests, got %d", fake.calls())
	}
	if len(*slept) != 6 {
		t.Errorf("Expected 6 cooldowns, got %d", len(*slept))
	}
}

func TestChatTranslator_ContextCanceled(t *testing.T) {
	_, srv := newFakeOpenAI(t, fakeReply{status: http.StatusInternalServerError})
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	translator.guard.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := translator.Translate(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestChatTranslator_Pacing(t *testing.T) {
	cfg := testConfig(ProviderChat, "http://127.0.0.1:1")

	translator, _ := NewChatTranslator(cfg)
	if translator.guard.limiter != nil {
		t.Error("Expected no limiter with NoLimit")
	}

	cfg.NoLimit = false
	translator, _ = NewChatTranslator(cfg)
	if translator.guard.limiter == nil {
		t.Fatal("Expected a limiter without NoLimit")
	}
	if got := translator.guard.limiter.Limit(); got != rate.Every(3*time.Second) {
		t.Errorf("Expected one request every 3s, got limit %v", got)
	}
}

func TestChatTranslator_JSONBatch(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{
		content: "```json\n[{\"id\":\"ch2#1\",\"text\":\"世界\"},{\"id\":\"ch1#1\",\"text\":\"你好\"}]\n```",
	})
	cfg := testConfig(ProviderChat, srv.URL)
	cfg.JSONBatch = true
	translator, _ := NewChatTranslator(cfg)

	segments := []Segment{{ID: "ch1#1", Text: "Hello"}, {ID: "ch2#1", Text: "World"}}
	got, err := translator.TranslateBatch(context.Background(), segments)
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if fake.calls() != 1 {
		t.Errorf("Expected one request for the batch, got %d", fake.calls())
	}

	texts, err := Reconcile(segments, got)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if texts[0] != "你好" || texts[1] != "世界" {
		t.Errorf("Unexpected translations: %v", texts)
	}
	if !strings.Contains(fake.prompt(0), `"id":"ch1#1"`) {
		t.Errorf("Prompt should carry identifiers: %s", fake.prompt(0))
	}
}

func TestChatTranslator_JSONBatchMalformedRetries(t *testing.T) {
	fake, srv := newFakeOpenAI(t,
		fakeReply{content: "Sorry, I cannot do that"},
		fakeReply{content: `[{"id":"a","text":"A"}]`},
	)
	cfg := testConfig(ProviderChat, srv.URL)
	cfg.JSONBatch = true
	translator, _ := NewChatTranslator(cfg)
	recordSleeps(translator.guard)

	got, err := translator.TranslateBatch(context.Background(), []Segment{{ID: "a", Text: "a"}})
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "A" {
		t.Errorf("Unexpected result: %v", got)
	}
	if fake.calls() != 2 {
		t.Errorf("Expected a retry, got %d requests", fake.calls())
	}
}

func TestChatTranslator_PerSegmentBatch(t *testing.T) {
	fake, srv := newFakeOpenAI(t, fakeReply{content: "A"}, fakeReply{content: "B"})
	translator, _ := NewChatTranslator(testConfig(ProviderChat, srv.URL))

	got, err := translator.TranslateBatch(context.Background(), []Segment{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}})
	if err != nil {
		t.Fatalf("TranslateBatch failed: %v", err)
	}
	if fake.calls() != 2 {
		t.Errorf("Expected one request per segment, got %d", fake.calls())
	}
	if got[0] != (Segment{ID: "1", Text: "A"}) || got[1] != (Segment{ID: "2", Text: "B"}) {
		t.Errorf("Unexpected result: %v", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`[1]`, `[1]`},
		{"```\n[1]\n```", `[1]`},
		{"```json\n[1]\n```  ", `[1]`},
	}

	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func newTestGemini(t *testing.T, replies ...fakeReply) (*fakeOpenAI, *GeminiTranslator, *[]time.Duration) {
	t.Helper()

	fake, srv := newFakeOpenAI(t, replies...)
	translator, err := NewGeminiTranslator(context.Background(), geminiConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewGeminiTranslator failed: %v", err)
	}
	return fake, translator, recordSleeps(translator.guard)
}

func TestGeminiTranslator(t *testing.T) {
	tests := []struct {
		name        string
		replies     []fakeReply
		want        string
		wantErr     error
		wantCalls   int
		wantRetried bool
	}{
		{
			name:      "success",
			replies:   []fakeReply{{content: " 你好 "}},
			want:      "你好",
			wantCalls: 1,
		},
		{
			name:        "failure then retry",
			replies:     []fakeReply{{status: http.StatusBadRequest}, {content: "再见"}},
			want:        "再见",
			wantCalls:   2,
			wantRetried: true,
		},
		{
			name:        "empty reply then retry",
			replies:     []fakeReply{{content: "  "}, {content: "世界"}},
			want:        "世界",
			wantCalls:   2,
			wantRetried: true,
		},
		{
			name:        "empty reply twice",
			replies:     []fakeReply{{content: ""}},
			wantErr:     ErrEmptyResponse,
			wantCalls:   2,
			wantRetried: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, translator, slept := newTestGemini(t, tt.replies...)

			got, err := translator.Translate(context.Background(), "Hello")
			if tt.wantErr != nil {
				var backendErr *BackendError
				if !errors.As(err, &backendErr) || !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected *BackendError wrapping %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("Translate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}

			if fake.calls() != tt.wantCalls {
				t.Fatalf("Expected %d requests, got %d", tt.wantCalls, fake.calls())
			}
			if !strings.Contains(fake.prompt(0), "`Hello` to Chinese,") {
				t.Errorf("Unexpected prompt: %s", fake.prompt(0))
			}
			if tt.wantRetried {
				if len(*slept) != 1 {
					t.Errorf("Expected one cooldown, got %v", *slept)
				}
				if !strings.Contains(fake.prompt(1), "to Simplified Chinese") {
					t.Errorf("Retry should ask for Simplified Chinese: %s", fake.prompt(1))
				}
			}
		})
	}
}

func TestGeminiTranslator_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	cfg.APIKey = apiKey
	translator, err := NewGeminiTranslator(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewGeminiTranslator failed: %v", err)
	}

	translation, err := translator.Translate(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translation == "" {
		t.Error("Got empty translation")
	}
	t.Logf("Translation of 'Good morning': %s", translation)
}

func TestChatTranslator_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	translator, _ := NewChatTranslator(cfg)

	translation, err := translator.Translate(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translation == "" {
		t.Error("Got empty translation")
	}
	t.Logf("Translation of 'Good morning': %s", translation)
}
