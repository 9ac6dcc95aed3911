package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"sjsage522/tokoworker/internal/pdp"
)

// ProductKey is the stream field under which assembled products are published.
const ProductKey = "tokopedia"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// PublishProduct publishes one assembled product as JSON under ProductKey.
func PublishProduct(ctx context.Context, p Publisher, product pdp.AssembledProduct) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product %s: %w", product.ProductURL, err)
	}
	return p.Publish(ctx, ProductKey, data)
}
