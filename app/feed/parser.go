package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed/atom"
)

var tagPattern = regexp.MustCompile(`</?[^>]+(>|$)`)

// StripTags removes anything shaped like a markup tag and trims the result.
func StripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}

type Parser struct {
	atomParser *atom.Parser
	location   *time.Location
}

// NewParser returns a Parser that renders timestamps in loc. A nil loc
// means time.Local, which cfg.Load points at the configured timezone.
func NewParser(loc *time.Location) *Parser {
	return &Parser{
		atomParser: &atom.Parser{},
		location:   loc,
	}
}

func (p *Parser) Run(data []byte, source Source) ([]Item, error) {
	feed, err := p.atomParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	shapes, err := scanEntries(data)
	if err != nil || len(shapes) != len(feed.Entries) {
		slog.Debug("Entry markup scan unavailable, using parsed values only", "source", source.Name, "error", err)
		shapes = nil
	}

	items := make([]Item, 0, len(feed.Entries))
	for i, entry := range feed.Entries {
		if entry == nil {
			continue
		}
		var shape *entryShape
		if shapes != nil {
			shape = &shapes[i]
		}
		items = append(items, p.normalizeEntry(entry, shape, source))
	}

	return items, nil
}

func (p *Parser) normalizeEntry(entry *atom.Entry, shape *entryShape, source Source) Item {
	date, clock := p.splitTimestamp(cmp.Or(entry.Published, entry.Updated))

	content := ""
	if entry.Content != nil {
		content = entry.Content.Value
	}

	return Item{
		Title:      StripTags(entryTitle(entry, shape)),
		SourceName: source.Name,
		Platform:   source.Platform,
		Link:       entryLink(entry, shape),
		Date:       date,
		Time:       clock,
		Content:    StripTags(cmp.Or(content, entry.Summary, NoContent)),
		Author:     entryAuthor(entry),
	}
}

// splitTimestamp renders raw as separate date and time strings. Missing or
// unparsable timestamps map to the epoch defaults.
func (p *Parser) splitTimestamp(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EpochDate, EpochTime
	}

	loc := p.location
	if loc == nil {
		loc = time.Local
	}

	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return EpochDate, EpochTime
	}

	t = t.In(loc)
	return t.Format(DateLayout), t.Format(TimeLayout)
}

// entryTitle falls back to NoTitle only when the title element is missing
// or empty. A whitespace-only title stays and trims to "".
func entryTitle(entry *atom.Entry, shape *entryShape) string {
	if shape == nil {
		return cmp.Or(entry.Title, NoTitle)
	}
	if !shape.hasTitle || !shape.titleValue {
		return NoTitle
	}
	return entry.Title
}

// entryLink reads the href of the first link element. A missing link element
// or a link without an href attribute yields NoLink; an empty href yields "".
func entryLink(entry *atom.Entry, shape *entryShape) string {
	if len(entry.Links) == 0 || entry.Links[0] == nil {
		return NoLink
	}
	if shape != nil && !shape.hasHref {
		return NoLink
	}
	return strings.TrimSpace(entry.Links[0].Href)
}

func entryAuthor(entry *atom.Entry) string {
	for _, author := range entry.Authors {
		if author == nil {
			continue
		}
		if name := cmp.Or(strings.TrimSpace(author.Name), strings.TrimSpace(author.Email)); name != "" {
			return name
		}
	}
	return NoAuthor
}
