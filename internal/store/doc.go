// Package store keeps a translation memory in a SQLite database so that
// paragraphs shared between books, or between runs on the same book, are
// sent to the translation service only once.
package store
