package listings

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Listing is the scraped view of a venue page.
type Listing struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	ImageURLs []string `json:"urls"`
	Tags      []string `json:"tags"`
}

// Layout describes where the venue site keeps the pieces we scrape.
type Layout struct {
	// ImagePrefix filters img src values; only matching URLs are kept.
	ImagePrefix string
	// SizeFrom is replaced by SizeTo in every kept URL.
	SizeFrom string
	SizeTo   string
	// TitleSelector matches the heading that carries the venue name.
	TitleSelector string
	// TagContainerSelector plus TagContainerIndex pick the block holding tag buttons.
	TagContainerSelector string
	TagContainerIndex    int
}

const (
	DefaultImagePrefix          = "https://image.instabase.jp/"
	DefaultTitleSelector        = "h1.space-title"
	DefaultTagContainerSelector = "div.space-tags"
	DefaultTagContainerIndex    = 1
)

// DefaultLayout matches the venue site's current markup.
func DefaultLayout() Layout {
	return Layout{
		ImagePrefix:          DefaultImagePrefix,
		SizeFrom:             "medium",
		SizeTo:               "large",
		TitleSelector:        DefaultTitleSelector,
		TagContainerSelector: DefaultTagContainerSelector,
		TagContainerIndex:    DefaultTagContainerIndex,
	}
}

// ParseImageURLs returns the gallery image URLs in first-seen order without duplicates.
func ParseImageURLs(doc *goquery.Document, layout Layout) []string {
	seen := make(map[string]struct{})
	urls := make([]string, 0)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		src = strings.TrimSpace(src)
		if !strings.HasPrefix(src, layout.ImagePrefix) {
			return
		}
		if layout.SizeFrom != "" {
			src = strings.Replace(src, layout.SizeFrom, layout.SizeTo, 1)
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		urls = append(urls, src)
	})
	return urls
}

// ParseTitle returns the first heading matching the layout, or false when absent.
func ParseTitle(doc *goquery.Document, layout Layout) (string, bool) {
	sel := doc.Find(layout.TitleSelector).First()
	if sel.Length() == 0 {
		return "", false
	}
	title := cleanText(sel.Text())
	return title, title != ""
}

// ParseTags returns the button labels inside the tag container, or false when
// the container does not exist.
func ParseTags(doc *goquery.Document, layout Layout) ([]string, bool) {
	containers := doc.Find(layout.TagContainerSelector)
	if layout.TagContainerIndex < 0 || layout.TagContainerIndex >= containers.Length() {
		return nil, false
	}

	tags := make([]string, 0)
	containers.Eq(layout.TagContainerIndex).Find("button").Each(func(_ int, s *goquery.Selection) {
		if tag := cleanText(s.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})
	return tags, true
}

// cleanText folds full-width characters (NFKC) and collapses whitespace.
func cleanText(raw string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(raw)), " ")
}
