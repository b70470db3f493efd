package translation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeReply is one canned answer of the fake OpenAI server
type fakeReply struct {
	status  int
	content string
}

// fakeOpenAI serves the OpenAI chat and completion endpoints and the Gemini
// generateContent endpoint from a reply script. The last reply repeats once
// the script is exhausted.
type fakeOpenAI struct {
	mu      sync.Mutex
	replies []fakeReply
	prompts []string
}

func newFakeOpenAI(t *testing.T, replies ...fakeReply) (*fakeOpenAI, *httptest.Server) {
	t.Helper()

	f := &fakeOpenAI{replies: replies}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOpenAI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeOpenAI) prompt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[i]
}

func (f *fakeOpenAI) handle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt   string `json:"prompt"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	prompt := body.Prompt
	if len(body.Messages) > 0 {
		prompt = body.Messages[0].Content
	}
	if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
		prompt = body.Contents[0].Parts[0].Text
	}
	f.prompts = append(f.prompts, prompt)
	reply := f.replies[len(f.replies)-1]
	if n := len(f.prompts) - 1; n < len(f.replies) {
		reply = f.replies[n]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reply.status != 0 && reply.status != http.StatusOK {
		w.WriteHeader(reply.status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": reply.status, "message": "service failure", "type": "server_error", "status": "UNAVAILABLE"},
		})
		return
	}

	var resp map[string]any
	switch {
	case strings.HasSuffix(r.URL.Path, ":generateContent"):
		resp = map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": reply.content}},
				},
				"finishReason": "STOP",
			}},
		}
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		resp = map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-3.5-turbo",
			"choices": []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply.content},
				"finish_reason": "stop",
			}},
		}
	default:
		resp = map[string]any{
			"id":      "cmpl-1",
			"object":  "text_completion",
			"created": 1,
			"model":   "gpt-3.5-turbo-instruct",
			"choices": []any{map[string]any{
				"index":         0,
				"text":          reply.content,
				"finish_reason": "stop",
			}},
		}
	}
	json.NewEncoder(w).Encode(resp)
}

func testConfig(provider, baseURL string) *Config {
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.APIKey = "test-api-key"
	cfg.BaseURL = baseURL + "/v1"
	cfg.NoLimit = true
	cfg.Logger = slog.New(slog.DiscardHandler)
	return cfg
}

// geminiConfig points a Gemini backend at the fake server
func geminiConfig(baseURL string) *Config {
	cfg := testConfig(ProviderGemini, baseURL)
	cfg.BaseURL = baseURL
	return cfg
}

// recordSleeps replaces the cooldown wait of g and records requested durations
func recordSleeps(g *guard) *[]time.Duration {
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}
