package feed

import (
	"bytes"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// entryShape keeps markup facts the atom model loses: whether the first
// link carries an href attribute at all, and whether the title element
// has any content before trimming.
type entryShape struct {
	hasLink    bool
	hasHref    bool
	hasTitle   bool
	titleValue bool
}

// scanEntries walks the document once and returns one shape per entry
// element directly under the feed root, in document order.
func scanEntries(data []byte) ([]entryShape, error) {
	p := xpp.NewXMLPullParser(bytes.NewReader(data), false, charset.NewReaderLabel)

	var shapes []entryShape
	var current *entryShape
	inTitle := false

	for {
		event, err := p.Next()
		if err != nil {
			return nil, err
		}

		switch event {
		case xpp.EndDocument:
			return shapes, nil

		case xpp.StartTag:
			if !isAtomElement(p) {
				if inTitle {
					current.titleValue = true
				}
				continue
			}
			name := strings.ToLower(p.Name)

			switch {
			case p.Depth == 2 && name == "entry":
				shapes = append(shapes, entryShape{})
				current = &shapes[len(shapes)-1]
			case current == nil || p.Depth < 3:
			case inTitle:
				current.titleValue = true
			case p.Depth == 3 && name == "title" && !current.hasTitle:
				current.hasTitle = true
				inTitle = true
			case p.Depth == 3 && name == "link" && !current.hasLink:
				current.hasLink = true
				current.hasHref = hasAttr(p, "href")
			}

		case xpp.Text:
			if inTitle && p.Text != "" {
				current.titleValue = true
			}

		case xpp.EndTag:
			switch p.Depth {
			case 2:
				inTitle = false
			case 1:
				current = nil
			}
		}
	}
}

func isAtomElement(p *xpp.XMLPullParser) bool {
	return p.Space == "" || p.Space == atomNamespace
}

func hasAttr(p *xpp.XMLPullParser, name string) bool {
	for _, attr := range p.Attrs {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return true
		}
	}
	return false
}
