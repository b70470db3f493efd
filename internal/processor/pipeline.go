package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/snonux/bilingual/internal/batch"
	"codeberg.org/snonux/bilingual/internal/epub"
	"codeberg.org/snonux/bilingual/internal/markup"
	"codeberg.org/snonux/bilingual/internal/translation"
)

// DefaultMaxRounds is the number of batches translated in test mode
const DefaultMaxRounds = 20

// Options configures a Pipeline
type Options struct {
	BatchSize int  // Sections per translation round
	TestMode  bool // Stop translating after MaxRounds batches
	MaxRounds int
}

// Stats summarizes a finished run
type Stats struct {
	Batches    int // Batches in the book
	Rounds     int // Batches that were translated
	Sections   int // Document sections seen
	Paragraphs int // <p> elements in document sections
	Translated int // Twins inserted
	Elapsed    time.Duration
}

// Pipeline translates a book batch by batch. It is not safe for concurrent
// use on the same book.
type Pipeline struct {
	opts       Options
	translator translation.BatchTranslator
	log        *slog.Logger
}

// section is a document item of the current batch with its parsed tree
type section struct {
	item    *epub.Item
	tree    *markup.Tree
	targets []markup.Paragraph
}

// NewPipeline creates a pipeline translating through t
func NewPipeline(opts Options, t translation.BatchTranslator, logger *slog.Logger) *Pipeline {
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.DefaultSize
	}
	if opts.MaxRounds == 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, translator: t, log: logger}
}

// ProcessBook returns a bilingual copy of src. src itself is not modified.
// A translation error aborts the run and no book is returned.
func (p *Pipeline) ProcessBook(ctx context.Context, src *epub.Book) (*epub.Book, Stats, error) {
	var stats Stats
	start := time.Now()

	batches, err := batch.Partition(src.Items(), p.opts.BatchSize)
	if err != nil {
		return nil, stats, err
	}
	stats.Batches = len(batches)

	out := epub.Assemble(src)
	for i, items := range batches {
		batchStart := time.Now()
		fmt.Printf("Processing batch %d of %d\n", i+1, len(batches))

		if p.testDone(stats.Rounds) {
			for _, item := range items {
				out.AddItem(item.Clone())
			}
			continue
		}

		translated, err := p.processBatch(ctx, items, out, &stats)
		if err != nil {
			return nil, stats, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}
		stats.Rounds++

		elapsed := time.Since(batchStart)
		p.log.Debug("processed batch", "batch", i+1, "of", len(batches), "paragraphs", translated, "elapsed", elapsed)
		fmt.Printf("Processed batch %d in %.2f seconds\n", i+1, elapsed.Seconds())
	}

	stats.Elapsed = time.Since(start)
	return out, stats, nil
}

// processBatch translates the document sections of one batch and adds every
// item of the batch to out, in order
func (p *Pipeline) processBatch(ctx context.Context, items []*epub.Item, out *epub.Book, stats *Stats) (int, error) {
	sections, err := p.extract(items, stats)
	if err != nil {
		return 0, err
	}

	var segments []translation.Segment
	for _, s := range sections {
		for _, para := range s.targets {
			segments = append(segments, translation.Segment{ID: para.ID, Text: para.Text})
		}
	}

	if len(segments) > 0 {
		results, err := p.translator.TranslateBatch(ctx, segments)
		if err != nil {
			return 0, err
		}
		texts, err := translation.Reconcile(segments, results)
		if err != nil {
			return 0, err
		}

		next := 0
		for _, s := range sections {
			for _, para := range s.targets {
				if err := markup.InsertTwin(para, texts[next]); err != nil {
					return 0, err
				}
				next++
			}
		}
	}

	for _, item := range items {
		s, ok := findSection(sections, item)
		if !ok || len(s.targets) == 0 {
			out.AddItem(item.Clone())
			continue
		}
		content, err := s.tree.Render()
		if err != nil {
			return 0, fmt.Errorf("section %s: %w", item.Href, err)
		}
		out.AddItem(item.WithContent(content))
	}

	stats.Translated += len(segments)
	return len(segments), nil
}

// extract parses the document items of a batch and collects their eligible
// paragraphs, in section order then document order
func (p *Pipeline) extract(items []*epub.Item, stats *Stats) ([]*section, error) {
	var sections []*section
	for _, item := range items {
		if item.Kind() != epub.KindDocument {
			continue
		}
		tree, err := markup.Parse(item.Content)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", item.Href, err)
		}
		s := &section{
			item:    item,
			tree:    tree,
			targets: markup.Extract(tree, item.ID),
		}
		stats.Sections++
		stats.Paragraphs += markup.Count(tree)
		p.log.Debug("extracted paragraphs", "section", item.Href, "eligible", len(s.targets))
		sections = append(sections, s)
	}
	return sections, nil
}

func (p *Pipeline) testDone(rounds int) bool {
	return p.opts.TestMode && rounds >= p.opts.MaxRounds
}

func findSection(sections []*section, item *epub.Item) (*section, bool) {
	for _, s := range sections {
		if s.item == item {
			return s, true
		}
	}
	return nil, false
}
