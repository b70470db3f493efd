// Package markup finds the translatable paragraphs of a chapter and inserts
// translated twins next to them. Chapters are parsed with golang.org/x/net/html
// and rendered back after modification.
package markup
