// Package translation provides the translation backends used to build
// bilingual books: OpenAI completion and chat models and Google Gemini.
// It includes batch adapters, identifier based reconciliation of batch
// results and a translation memory for repeated paragraphs.
package translation
