// Package models lists the OpenAI models available for the configured API
// key, grouped by the translation backend that can use them.
package models
