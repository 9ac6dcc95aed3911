package crawler

import (
	"context"
	"fmt"
	"strings"

	"sjsage522/tokoworker/internal/pdp"
)

// SearchCrawler lists product URLs from category listing pages
type SearchCrawler struct {
	*BaseCrawler
}

// NewSearchCrawler creates a listing crawler sharing base's fetch path
func NewSearchCrawler(base *BaseCrawler) *SearchCrawler {
	return &SearchCrawler{BaseCrawler: base}
}

// FetchProductURLs returns the product URLs of pageURL in page order
func (c *SearchCrawler) FetchProductURLs(ctx context.Context, pageURL string) ([]string, error) {
	markup, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	snap, err := pdp.ExtractCache(markup)
	if err != nil {
		return nil, extractError(c.Name, pageURL, err)
	}
	return pdp.SearchProductURLs(snap), nil
}

// PageURL returns the URL of listing page n of base
func PageURL(base string, page int) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}
