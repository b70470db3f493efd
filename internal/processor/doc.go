// Package processor contains the core business logic for building bilingual
// books. The Pipeline walks a book batch by batch, sends the eligible
// paragraphs to a translation backend and inserts each translation right
// after its source paragraph. The Processor drives a complete run from
// command-line flags to the written output file.
package processor
