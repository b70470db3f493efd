package testutil

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/snonux/bilingual/internal/translation"
)

// MockTranslator mocks a single-text translation backend
type MockTranslator struct {
	Translations map[string]string
	Errors       map[string]error

	mu    sync.Mutex
	Calls []string
}

// Translate mocks translating text
func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, text)
	m.mu.Unlock()

	if err, ok := m.Errors[text]; ok {
		return "", err
	}

	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}

	// Default mock translation
	return fmt.Sprintf("mock translation of %s", text), nil
}

// Name returns the mock backend name
func (m *MockTranslator) Name() string {
	return "mock"
}

// MockBatchTranslator mocks a batch backend. Respond, when set, replaces the
// default behaviour of translating every segment through Translator.
type MockBatchTranslator struct {
	Translator MockTranslator
	Respond    func(segments []translation.Segment) ([]translation.Segment, error)

	mu      sync.Mutex
	Batches [][]translation.Segment
}

// TranslateBatch records the batch and answers it
func (m *MockBatchTranslator) TranslateBatch(ctx context.Context, segments []translation.Segment) ([]translation.Segment, error) {
	m.mu.Lock()
	m.Batches = append(m.Batches, append([]translation.Segment(nil), segments...))
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(segments)
	}

	results := make([]translation.Segment, len(segments))
	for i, seg := range segments {
		text, err := m.Translator.Translate(ctx, seg.Text)
		if err != nil {
			return nil, err
		}
		results[i] = translation.Segment{ID: seg.ID, Text: text}
	}
	return results, nil
}

// Translate delegates to the embedded single-text mock
func (m *MockBatchTranslator) Translate(ctx context.Context, text string) (string, error) {
	return m.Translator.Translate(ctx, text)
}

// Name returns the mock backend name
func (m *MockBatchTranslator) Name() string {
	return "mock-batch"
}

// BatchCount returns the number of batches received so far
func (m *MockBatchTranslator) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Batches)
}
