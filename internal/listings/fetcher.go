package listings

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"autocamper/internal/apperr"
)

const userAgent = "Mozilla/5.0 (compatible; autocamper/1.0)"

// Fetcher scrapes venue pages from the listing site.
type Fetcher struct {
	baseURL string
	layout  Layout
	client  *http.Client
}

// NewFetcher constructs a Fetcher. A nil client gets a 20s timeout.
func NewFetcher(baseURL string, layout Layout, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if layout.TitleSelector == "" {
		layout = DefaultLayout()
	}
	return &Fetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		layout:  layout,
		client:  client,
	}
}

// Fetch loads the image gallery and the venue page for id. Both requests run
// concurrently; either failing fails the fetch.
func (f *Fetcher) Fetch(ctx context.Context, id string) (Listing, error) {
	var (
		urls  []string
		title string
		tags  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := f.document(gctx, fmt.Sprintf("%s/space/%s/images", f.baseURL, id))
		if err != nil {
			return err
		}
		urls = ParseImageURLs(doc, f.layout)
		if len(urls) == 0 {
			return fmt.Errorf("%w: listing %s has no gallery images", apperr.ErrFetch, id)
		}
		return nil
	})
	g.Go(func() error {
		doc, err := f.document(gctx, fmt.Sprintf("%s/space/%s", f.baseURL, id))
		if err != nil {
			return err
		}
		var ok bool
		if title, ok = ParseTitle(doc, f.layout); !ok {
			return fmt.Errorf("%w: listing %s has no title heading", apperr.ErrFetch, id)
		}
		if tags, ok = ParseTags(doc, f.layout); !ok {
			return fmt.Errorf("%w: listing %s has no tag container", apperr.ErrFetch, id)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Listing{}, err
	}

	return Listing{ID: id, Title: title, ImageURLs: urls, Tags: tags}, nil
}

func (f *Fetcher) document(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", apperr.ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", apperr.ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: get %s: status %d", apperr.ErrFetch, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", apperr.ErrFetch, url, err)
	}
	return doc, nil
}
