package crawler

import (
	"context"

	"sjsage522/tokoworker/internal/pdp"
)

// Provider is the marketplace name attached to crawler errors.
const Provider = "tokopedia"

// ProductFetcher fetches and assembles the records of one product page
type ProductFetcher interface {
	// FetchProducts returns one record per variant of the product at url
	FetchProducts(ctx context.Context, url string) ([]pdp.AssembledProduct, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string
}

// ListingFetcher lists the product URLs of a category or search page
type ListingFetcher interface {
	// FetchProductURLs returns the product URLs of pageURL in page order
	FetchProductURLs(ctx context.Context, pageURL string) ([]string, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string
}

// Category levels of the marketplace tree
const (
	LevelMain = 1
	LevelSub  = 2
	LevelLeaf = 3
)

// CategoryNode is one entry of the discovered category tree
type CategoryNode struct {
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	Level    int             `json:"level"`
	Children []*CategoryNode `json:"children,omitempty"`
}

// Count returns the number of nodes in the subtree rooted at n, n included
func (n *CategoryNode) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
