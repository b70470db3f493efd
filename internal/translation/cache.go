package translation

import (
	"context"
	"log/slog"
	"sync"

	"codeberg.org/snonux/bilingual/internal"
)

// Memory stores finished translations keyed by CacheKey
type Memory interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, source, translation string) error
}

// TranslationCache stores translations in memory for a single run
type TranslationCache struct {
	mu           sync.Mutex
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(key, translation string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations[key] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(key string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	translation, ok := tc.translations[key]
	return translation, ok
}

// GetAll returns all cached translations
func (tc *TranslationCache) GetAll() map[string]string {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	// Return a copy to prevent external modification
	result := make(map[string]string, len(tc.translations))
	for k, v := range tc.translations {
		result[k] = v
	}
	return result
}

// Lookup implements Memory
func (tc *TranslationCache) Lookup(_ context.Context, key string) (string, bool, error) {
	translation, ok := tc.Get(key)
	return translation, ok, nil
}

// Remember implements Memory
func (tc *TranslationCache) Remember(_ context.Context, key, _, translation string) error {
	tc.Add(key, translation)
	return nil
}

// CacheKey identifies a translation of text by a backend configuration
func CacheKey(config *Config, text string) string {
	return internal.HashKey(config.Provider, config.Model, config.Language, text)
}

// CachedTranslator answers repeated texts from a Memory and sends only the
// rest to the wrapped backend
type CachedTranslator struct {
	inner  Translator
	batch  BatchTranslator
	memory Memory
	config *Config
	log    *slog.Logger
}

// NewCachedTranslator wraps t with memory
func NewCachedTranslator(t Translator, memory Memory, config *Config) *CachedTranslator {
	return &CachedTranslator{
		inner:  t,
		batch:  Batch(t),
		memory: memory,
		config: config,
		log:    config.logger(),
	}
}

// Translate implements Translator
func (c *CachedTranslator) Translate(ctx context.Context, text string) (string, error) {
	key := CacheKey(c.config, text)
	if translation, ok := c.lookup(ctx, key); ok {
		return translation, nil
	}

	translation, err := c.inner.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	c.remember(ctx, key, text, translation)
	return translation, nil
}

// TranslateBatch implements BatchTranslator
func (c *CachedTranslator) TranslateBatch(ctx context.Context, segments []Segment) ([]Segment, error) {
	results := make([]Segment, len(segments))
	var misses []Segment
	var missAt []int

	for i, s := range segments {
		if translation, ok := c.lookup(ctx, CacheKey(c.config, s.Text)); ok {
			results[i] = Segment{ID: s.ID, Text: translation}
			continue
		}
		misses = append(misses, s)
		missAt = append(missAt, i)
	}
	if len(misses) == 0 {
		return results, nil
	}
	c.log.Debug("translation memory", "hits", len(segments)-len(misses), "misses", len(misses))

	translated, err := c.batch.TranslateBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	texts, err := Reconcile(misses, translated)
	if err != nil {
		return nil, err
	}

	for j, s := range misses {
		results[missAt[j]] = Segment{ID: s.ID, Text: texts[j]}
		c.remember(ctx, CacheKey(c.config, s.Text), s.Text, texts[j])
	}
	return results, nil
}

// Name returns the wrapped backend name
func (c *CachedTranslator) Name() string {
	return c.inner.Name()
}

func (c *CachedTranslator) lookup(ctx context.Context, key string) (string, bool) {
	translation, ok, err := c.memory.Lookup(ctx, key)
	if err != nil {
		c.log.Warn("translation memory lookup failed", "error", err)
		return "", false
	}
	return translation, ok
}

func (c *CachedTranslator) remember(ctx context.Context, key, source, translation string) {
	// Untranslated fallbacks must not be served from memory later
	if translation == source {
		return
	}
	if err := c.memory.Remember(ctx, key, source, translation); err != nil {
		c.log.Warn("failed to save translation", "error", err)
	}
}
