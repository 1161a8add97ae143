package feed

import (
	"context"
	"errors"
)

const (
	NoTitle   = "No Title"
	NoLink    = "No Link"
	NoContent = "No Content"
	NoAuthor  = "No Author"

	EpochDate = "1970-01-01"
	EpochTime = "00:00:00"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	DefaultPlatform = "Others"
)

// Header is the fixed first row written to the sink.
var Header = []string{
	"Title",
	"Source Name",
	"Source Platform",
	"Link",
	"Date",
	"Time",
	"Content",
	"Author",
}

var ErrRunInProgress = errors.New("aggregation run already in progress")

// Source is one configured feed.
type Source struct {
	URL            string `yaml:"url"`
	Name           string `yaml:"name"`
	Platform       string `yaml:"platform"`
	ExtractContent bool   `yaml:"extract_content"`
}

// Item is a normalized feed entry. Every field is populated; absent values
// carry the placeholder constants above.
type Item struct {
	Title      string `json:"title"`
	SourceName string `json:"source_name"`
	Platform   string `json:"platform"`
	Link       string `json:"link"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Content    string `json:"content"`
	Author     string `json:"author"`
}

// Row returns the item's cells in Header order.
func (i Item) Row() []string {
	return []string{i.Title, i.SourceName, i.Platform, i.Link, i.Date, i.Time, i.Content, i.Author}
}

// Writable reports whether the item passes the sink integrity check.
// Placeholder strings count as present; only empty strings fail.
func (i Item) Writable() bool {
	return i.Title != "" && i.Link != ""
}

// Result summarizes one aggregation run.
type Result struct {
	Sources       int `json:"sources"`
	FailedSources int `json:"failed_sources"`
	Items         int `json:"items"`
	RowsWritten   int `json:"rows_written"`
}

// Sink is the destination table. Replace must discard all prior contents.
type Sink interface {
	Replace(ctx context.Context, tab string, header []string, rows [][]string) error
}

// Notifier receives the sorted items after a successful write.
type Notifier interface {
	Notify(ctx context.Context, items []Item) error
}
