package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Aggregator struct {
	sources   []Source
	fetcher   *Fetcher
	parser    *Parser
	extractor *ContentExtractor
	sink      Sink
	tab       string
	notifier  Notifier
	mu        sync.Mutex
}

func NewAggregator(sources []Source, fetcher *Fetcher, parser *Parser, extractor *ContentExtractor, sink Sink, tab string) *Aggregator {
	return &Aggregator{
		sources:   sources,
		fetcher:   fetcher,
		parser:    parser,
		extractor: extractor,
		sink:      sink,
		tab:       tab,
	}
}

// SetNotifier registers a notifier that receives the sorted items after
// each successful write.
func (a *Aggregator) SetNotifier(notifier Notifier) {
	a.notifier = notifier
}

func (a *Aggregator) Sources() []Source {
	return a.sources
}

// Run fetches every source in order, sorts the collected items and replaces
// the sink contents. A failing source contributes no items and never stops
// the run. When nothing was collected the sink is left untouched.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	if !a.mu.TryLock() {
		return Result{}, ErrRunInProgress
	}
	defer a.mu.Unlock()

	started := time.Now()
	result := Result{Sources: len(a.sources)}

	var items []Item
	for _, source := range a.sources {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("aggregation aborted before sink write: %w", err)
		}

		sourceItems, err := a.collect(ctx, source)
		if err != nil {
			slog.Warn("Failed to fetch or parse feed", "source", source.Name, "url", source.URL, "error", err)
			result.FailedSources++
			continue
		}
		items = append(items, sourceItems...)
	}

	result.Items = len(items)
	slog.Info("Total feed items fetched", "count", len(items))

	if len(items) == 0 {
		slog.Info("No feed items to populate")
		return result, nil
	}

	sorted := SortByDateDesc(items)

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		if item.Writable() {
			rows = append(rows, item.Row())
		}
	}

	if err := a.sink.Replace(ctx, a.tab, Header, rows); err != nil {
		return result, fmt.Errorf("failed to write sink: %w", err)
	}
	result.RowsWritten = len(rows)

	slog.Info("Aggregation completed",
		"tab", a.tab,
		"duration", time.Since(started),
		"sources", result.Sources,
		"failed_sources", result.FailedSources,
		"items", len(sorted),
		"rows", result.RowsWritten)

	if a.notifier != nil {
		if err := a.notifier.Notify(ctx, sorted); err != nil {
			slog.Error("Failed to send notification", "error", err)
		}
	}

	return result, nil
}

func (a *Aggregator) collect(ctx context.Context, source Source) ([]Item, error) {
	slog.Info("Fetching feed", "source", source.Name, "platform", source.Platform)

	data, err := a.fetcher.Run(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	items, err := a.parser.Run(data, source)
	if err != nil {
		return nil, err
	}

	slog.Info("Entries found", "source", source.Name, "count", len(items))

	if source.ExtractContent && a.extractor != nil {
		a.fillContent(ctx, source, items)
	}

	return items, nil
}

// fillContent replaces placeholder content with text extracted from the
// entry's page. Failures keep the placeholder.
func (a *Aggregator) fillContent(ctx context.Context, source Source, items []Item) {
	for i := range items {
		item := &items[i]
		if item.Content != NoContent || item.Link == "" || item.Link == NoLink {
			continue
		}

		page, err := a.fetcher.Run(ctx, item.Link)
		if err != nil {
			slog.Debug("Failed to fetch page for content extraction", "source", source.Name, "url", item.Link, "error", err)
			continue
		}

		text, err := a.extractor.Run(page, item.Link)
		if err != nil {
			slog.Debug("Failed to extract content", "source", source.Name, "url", item.Link, "error", err)
			continue
		}

		item.Content = text
	}
}
