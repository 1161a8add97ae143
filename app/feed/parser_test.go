package feed

import (
	"testing"
	"time"
)

var testSource = Source{URL: "https://example.com/feed.xml", Name: "Example", Platform: "YouTube"}

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <updated>2024-01-03T12:00:00Z</updated>
  <entry>
    <title><b>Hello</b> World</title>
    <link rel="alternate" href="https://example.com/entry1"/>
    <link rel="enclosure" href="https://example.com/entry1.mp3"/>
    <published>2024-01-03T10:15:30Z</published>
    <updated>2024-01-04T08:00:00Z</updated>
    <content type="html">&lt;p&gt;Body &lt;b&gt;text&lt;/b&gt;&lt;/p&gt;</content>
    <summary>Ignored summary</summary>
    <author><name>Jane Doe</name><email>jane@example.com</email></author>
  </entry>
  <entry>
    <title>Updated only</title>
    <link href="https://example.com/entry2"/>
    <updated>2024-01-01T23:59:59Z</updated>
    <summary>Summary fallback</summary>
    <author><email>bot@example.com</email></author>
  </entry>
</feed>`

func TestParseAtomEntries(t *testing.T) {
	parser := NewParser(time.UTC)
	items, err := parser.Run([]byte(atomFeed), testSource)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	first := items[0]
	expected := Item{
		Title:      "Hello World",
		SourceName: "Example",
		Platform:   "YouTube",
		Link:       "https://example.com/entry1",
		Date:       "2024-01-03",
		Time:       "10:15:30",
		Content:    "Body text",
		Author:     "Jane Doe",
	}
	if first != expected {
		t.Errorf("Expected %+v, got %+v", expected, first)
	}

	second := items[1]
	if second.Date != "2024-01-01" || second.Time != "23:59:59" {
		t.Errorf("Expected updated timestamp fallback, got %s %s", second.Date, second.Time)
	}
	if second.Content != "Summary fallback" {
		t.Errorf("Expected summary fallback, got: %s", second.Content)
	}
	if second.Author != "bot@example.com" {
		t.Errorf("Expected email as author fallback, got: %s", second.Author)
	}
}

func TestParseDefaults(t *testing.T) {
	data := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>urn:uuid:bare</id>
  </entry>
</feed>`

	parser := NewParser(time.UTC)
	items, err := parser.Run([]byte(data), testSource)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	expected := Item{
		Title:      NoTitle,
		SourceName: "Example",
		Platform:   "YouTube",
		Link:       NoLink,
		Date:       EpochDate,
		Time:       EpochTime,
		Content:    NoContent,
		Author:     NoAuthor,
	}
	if items[0] != expected {
		t.Errorf("Expected %+v, got %+v", expected, items[0])
	}
}

func TestParseDefaultsAreDeterministic(t *testing.T) {
	data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom"><entry><title>No author here</title></entry></feed>`)

	parser := NewParser(time.UTC)
	first, err := parser.Run(data, testSource)
	if err != nil {
		t.Fatal(err)
	}
	second, err := parser.Run(data, testSource)
	if err != nil {
		t.Fatal(err)
	}

	if first[0].Author != NoAuthor || second[0].Author != NoAuthor {
		t.Errorf("Expected '%s' both times, got '%s' and '%s'", NoAuthor, first[0].Author, second[0].Author)
	}
	if first[0] != second[0] {
		t.Errorf("Expected identical items, got %+v and %+v", first[0], second[0])
	}
}

func TestParseUnparsableTimestamp(t *testing.T) {
	data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><title>Bad date</title><published>31/31/2024 10:00</published></entry>
</feed>`)

	items, err := NewParser(time.UTC).Run(data, testSource)
	if err != nil {
		t.Fatal(err)
	}

	if items[0].Date != EpochDate || items[0].Time != EpochTime {
		t.Errorf("Expected epoch defaults, got %s %s", items[0].Date, items[0].Time)
	}
}

func TestParseRendersInLocation(t *testing.T) {
	data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><title>Late</title><published>2024-01-03T01:30:00Z</published></entry>
</feed>`)

	loc := time.FixedZone("BRT", -3*60*60)
	items, err := NewParser(loc).Run(data, testSource)
	if err != nil {
		t.Fatal(err)
	}

	if items[0].Date != "2024-01-02" || items[0].Time != "22:30:00" {
		t.Errorf("Expected 2024-01-02 22:30:00, got %s %s", items[0].Date, items[0].Time)
	}
}

func TestParseEmptyHrefAndEmptyTitle(t *testing.T) {
	data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><title><b></b></title><link href=""/></entry>
</feed>`)

	items, err := NewParser(time.UTC).Run(data, testSource)
	if err != nil {
		t.Fatal(err)
	}

	if items[0].Link != "" {
		t.Errorf("Expected empty link for empty href, got: %q", items[0].Link)
	}
	if items[0].Title != "" {
		t.Errorf("Expected empty title after stripping, got: %q", items[0].Title)
	}
	if items[0].Writable() {
		t.Error("Expected item with empty title and link to be unwritable")
	}
}

func TestParseLinkWithoutHref(t *testing.T) {
	data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><title>A</title><link rel="alternate"/><link href="https://example.com/second"/></entry>
</feed>`)

	items, err := NewParser(time.UTC).Run(data, testSource)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(items))
	}

	if items[0].Link != NoLink {
		t.Errorf("Expected %q for link without href, got: %q", NoLink, items[0].Link)
	}
	if !items[0].Writable() {
		t.Error("Expected item with placeholder link to be writable")
	}
}

func TestParseTitleVariants(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"missing element", "", NoTitle},
		{"empty element", "<title></title>", NoTitle},
		{"self-closing element", "<title/>", NoTitle},
		{"whitespace only", "<title>   </title>", ""},
		{"html escaped tags only", `<title type="html">&lt;i&gt;&lt;/i&gt;</title>`, ""},
		{"plain text", "<title> Release notes </title>", "Release notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>` + tt.title + `<link href="https://example.com/a"/></entry>
</feed>`)

			items, err := NewParser(time.UTC).Run(data, testSource)
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != 1 {
				t.Fatalf("Expected 1 item, got: %d", len(items))
			}
			if items[0].Title != tt.expected {
				t.Errorf("Expected title %q, got: %q", tt.expected, items[0].Title)
			}
			if items[0].Writable() != (tt.expected != "") {
				t.Errorf("Unexpected writability for title %q", items[0].Title)
			}
		})
	}
}

func TestScanEntries(t *testing.T) {
	data := []byte(`<feed xmlns="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">
  <title>Feed title</title>
  <link href="https://example.com/"/>
  <entry>
    <media:title>Extension</media:title>
    <title>  </title>
    <link rel="alternate"/>
  </entry>
  <entry>
    <link href=""/>
  </entry>
</feed>`)

	shapes, err := scanEntries(data)
	if err != nil {
		t.Fatal(err)
	}

	expected := []entryShape{
		{hasLink: true, hasHref: false, hasTitle: true, titleValue: true},
		{hasLink: true, hasHref: true},
	}
	if len(shapes) != len(expected) {
		t.Fatalf("Expected %d shapes, got: %d", len(expected), len(shapes))
	}
	for i := range expected {
		if shapes[i] != expected[i] {
			t.Errorf("Shape %d: expected %+v, got %+v", i, expected[i], shapes[i])
		}
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser(time.UTC)

	inputs := map[string]string{
		"not xml":   "invalid xml",
		"truncated": `<feed xmlns="http://www.w3.org/2005/Atom"><entry><title>open`,
		"rss root":  `<rss version="2.0"><channel><item><title>x</title></item></channel></rss>`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := parser.Run([]byte(input), testSource); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<b>Hello</b> World", "Hello World"},
		{"  plain  ", "plain"},
		{"<p>para</p><br/>", "para"},
		{"dangling <img src='x'", "dangling"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripTags(tt.input); got != tt.expected {
			t.Errorf("StripTags(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
