package crawler

import (
	"context"
	stderrors "errors"

	"sjsage522/tokoworker/internal/pdp"
	"sjsage522/tokoworker/pkg/errors"
)

// ProductCrawler fetches product pages and assembles their records
type ProductCrawler struct {
	*BaseCrawler
}

// NewProductCrawler creates a product crawler sharing base's fetch path
func NewProductCrawler(base *BaseCrawler) *ProductCrawler {
	return &ProductCrawler{BaseCrawler: base}
}

// FetchProducts returns one record per variant of the product at url
func (c *ProductCrawler) FetchProducts(ctx context.Context, url string) ([]pdp.AssembledProduct, error) {
	markup, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	products, err := pdp.ExtractPage(markup)
	if err != nil {
		return nil, extractError(c.Name, url, err)
	}
	return products, nil
}

// extractError maps the extraction sentinels onto crawler error types
func extractError(provider, url string, err error) error {
	switch {
	case stderrors.Is(err, pdp.ErrMissingRootLayout):
		return errors.NewMissingRootLayout(provider, url, err)
	case stderrors.Is(err, pdp.ErrUnparsablePayload):
		return errors.NewUnparsablePayload(provider, url, err)
	default:
		return errors.NewParsing(provider, "no product data at "+url, err)
	}
}
