package epub

import "strings"

// Kind classifies a manifest item
type Kind int

const (
	// KindOther covers stylesheets, images, fonts and anything else
	KindOther Kind = iota
	// KindDocument is a chapter in (X)HTML markup
	KindDocument
	// KindNavigation is the NCX table of contents or the EPUB 3 nav document
	KindNavigation
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindNavigation:
		return "navigation"
	default:
		return "other"
	}
}

const (
	mediaTypeXHTML = "application/xhtml+xml"
	mediaTypeHTML  = "text/html"
	mediaTypeNCX   = "application/x-dtbncx+xml"
)

// Item is a single manifest entry with its raw content
type Item struct {
	ID         string // Manifest id
	Href       string // Path inside the archive
	MediaType  string
	Properties string // Space separated EPUB 3 properties
	Content    []byte
}

// Kind reports how the item participates in translation
func (i *Item) Kind() Kind {
	if i.MediaType == mediaTypeNCX {
		return KindNavigation
	}
	for _, p := range strings.Fields(i.Properties) {
		if p == "nav" {
			return KindNavigation
		}
	}
	switch i.MediaType {
	case mediaTypeXHTML, mediaTypeHTML:
		return KindDocument
	}
	return KindOther
}

// Clone returns a copy that shares no memory with i
func (i *Item) Clone() *Item {
	c := *i
	c.Content = append([]byte(nil), i.Content...)
	return &c
}

// WithContent returns a copy of i carrying new content
func (i *Item) WithContent(content []byte) *Item {
	c := *i
	c.Content = content
	return &c
}
