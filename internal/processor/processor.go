package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"codeberg.org/snonux/bilingual/internal/archive"
	"codeberg.org/snonux/bilingual/internal/cli"
	"codeberg.org/snonux/bilingual/internal/epub"
	"codeberg.org/snonux/bilingual/internal/store"
	"codeberg.org/snonux/bilingual/internal/translation"
)

// Processor runs a complete translation from command-line flags
type Processor struct {
	flags *cli.Flags
	log   *slog.Logger
	out   io.Writer // Progress and summary

	// newTranslator creates the backend; replaced in tests
	newTranslator func(ctx context.Context, config *translation.Config) (translation.Translator, error)
}

// NewProcessor creates a new book processor
func NewProcessor(flags *cli.Flags, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		flags:         flags,
		log:           logger,
		out:           os.Stdout,
		newTranslator: translation.NewTranslator,
	}
}

// ProcessBook validates the flags, translates the book and writes the
// bilingual copy next to it. It returns the output path. Nothing is written
// when any step fails.
func (p *Processor) ProcessBook(ctx context.Context) (string, error) {
	if err := cli.Validate(p.flags); err != nil {
		return "", err
	}

	src, err := epub.Open(p.flags.BookName)
	if err != nil {
		return "", err
	}
	p.log.Debug("opened book", "path", p.flags.BookName, "title", src.Title(), "items", len(src.Items()))

	config := cli.TranslationConfig(p.flags, p.log)
	backend, err := p.newTranslator(ctx, config)
	if err != nil {
		return "", fmt.Errorf("failed to create translator: %w", err)
	}

	memory, closeMemory, err := p.openMemory()
	if err != nil {
		return "", err
	}
	defer closeMemory()

	translator := translation.NewCachedTranslator(backend, memory, config)
	pipeline := NewPipeline(Options{
		BatchSize: p.flags.BatchSize,
		TestMode:  p.flags.Test,
	}, translator, p.log)

	fmt.Fprintf(p.out, "Translating '%s' to %s with %s\n", displayTitle(src, p.flags.BookName), p.flags.Language, backend.Name())
	out, stats, err := pipeline.ProcessBook(ctx, src)
	if err != nil {
		return "", err
	}

	outputPath := epub.BilingualPath(p.flags.BookName)
	archived, err := archive.ArchiveExisting(outputPath)
	if err != nil {
		return "", err
	}
	if archived != "" {
		fmt.Fprintf(p.out, "Previous output archived to: %s\n", archived)
	}

	if err := out.Write(outputPath); err != nil {
		return "", err
	}

	p.printSummary(ctx, stats, memory, outputPath)
	return outputPath, nil
}

// openMemory returns the persistent translation memory when --cache is set,
// otherwise a cache that lives for this run only
func (p *Processor) openMemory() (translation.Memory, func(), error) {
	if p.flags.CachePath == "" {
		return translation.NewTranslationCache(), func() {}, nil
	}

	s, err := store.Open(p.flags.CachePath)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := s.Close(); err != nil {
			p.log.Warn("failed to close translation memory", "path", p.flags.CachePath, "error", err)
		}
	}
	return s, closeStore, nil
}

func (p *Processor) printSummary(ctx context.Context, stats Stats, memory translation.Memory, outputPath string) {
	fmt.Fprintf(p.out, "\n=== Translation Summary ===\n")
	fmt.Fprintf(p.out, "Batches: %d\n", stats.Batches)
	if stats.Rounds < stats.Batches {
		fmt.Fprintf(p.out, "Translated batches: %d (test mode)\n", stats.Rounds)
	}
	fmt.Fprintf(p.out, "Sections: %d\n", stats.Sections)
	fmt.Fprintf(p.out, "Paragraphs: %d\n", stats.Paragraphs)
	fmt.Fprintf(p.out, "Translated: %d\n", stats.Translated)
	if s, ok := memory.(*store.Store); ok {
		if n, err := s.Count(ctx); err != nil {
			p.log.Warn("failed to count translation memory", "error", err)
		} else {
			fmt.Fprintf(p.out, "Translation memory: %d entries\n", n)
		}
	}
	fmt.Fprintf(p.out, "Elapsed: %.2f seconds\n", stats.Elapsed.Seconds())
	fmt.Fprintf(p.out, "===========================\n")
	fmt.Fprintf(p.out, "\nDone! Bilingual book saved to: %s\n", outputPath)
}

func displayTitle(book *epub.Book, path string) string {
	if title := book.Title(); title != "" {
		return title
	}
	return path
}
