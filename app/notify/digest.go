package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/lysyi3m/rss-sheet/app/feed"
)

var _ feed.Notifier = (*DigestNotifier)(nil)

// Digest renders up to limit items as a plain-text mail. A limit of zero
// lists every item.
func Digest(items []feed.Item, limit int) (string, string) {
	subject := fmt.Sprintf("RSS digest: %d new items", len(items))

	listed := items
	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}

	var b strings.Builder
	b.WriteString("Latest feed items (date time | source | title | link):\r\n")
	for _, item := range listed {
		fmt.Fprintf(&b, "%s %s | %s | %s | %s\r\n", item.Date, item.Time, item.SourceName, item.Title, item.Link)
	}
	if len(listed) < len(items) {
		fmt.Fprintf(&b, "... and %d more\r\n", len(items)-len(listed))
	}

	return subject, b.String()
}

type DigestNotifier struct {
	mailer Mailer
	to     string
	limit  int
}

func NewDigestNotifier(mailer Mailer, to string, limit int) *DigestNotifier {
	return &DigestNotifier{mailer: mailer, to: to, limit: limit}
}

func (n *DigestNotifier) Notify(ctx context.Context, items []feed.Item) error {
	if len(items) == 0 {
		return nil
	}
	subject, body := Digest(items, n.limit)
	return n.mailer.Send(ctx, n.to, subject, body)
}
