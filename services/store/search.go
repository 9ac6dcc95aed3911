package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sjsage522/tokoworker/pkg/errors"
)

// DefaultSearchLimit is used when a query sets no limit.
const DefaultSearchLimit = 10

// SearchQuery is a vector search over product chunks with optional filters.
type SearchQuery struct {
	Vector     []float32
	CategoryID string
	Location   string
	Color      string
	Storage    string
	RAM        string
	Condition  string
	PriceMin   int64
	PriceMax   int64
	Limit      int
}

// SearchResult is one matching chunk with its product.
type SearchResult struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"product_name"`
	Price     int64           `json:"product_price"`
	URL       string          `json:"product_url"`
	Stock     int64           `json:"stock"`
	Sold      int64           `json:"sold"`
	Reviews   json.RawMessage `json:"reviews,omitempty"`
	ChunkText string          `json:"chunk_text"`
	Distance  float64         `json:"distance"`
}

const searchSelect = `SELECT
		pc.product_id, COALESCE(p.name, ''), COALESCE(p.price, 0), p.url,
		COALESCE(p.stock, 0), COALESCE(p.sold, 0), COALESCE(p.reviews, 'null'::jsonb),
		pc.chunk_text, (pc.embedding <=> $1::vector) AS distance
	FROM products p
	JOIN product_chunks pc ON p.id = pc.product_id
	WHERE pc.embedding IS NOT NULL`

const variantValueLike = ` AND EXISTS (
		SELECT 1 FROM jsonb_each_text(p.variant_spec) AS kv WHERE kv.value ILIKE $%d
	)`

// buildSearch renders the SQL and arguments of q. Every filter value is a
// bind parameter.
func buildSearch(q SearchQuery) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(searchSelect)
	args := []interface{}{VectorLiteral(q.Vector)}

	add := func(clause string, v interface{}) {
		args = append(args, v)
		fmt.Fprintf(&sb, clause, len(args))
	}
	like := func(s string) string { return "%" + s + "%" }

	if q.CategoryID != "" {
		add(" AND p.category_id = $%d", q.CategoryID)
	}
	if q.Location != "" {
		add(" AND p.shop_location ILIKE $%d", like(q.Location))
	}
	for _, v := range []string{q.Color, q.Storage, q.RAM} {
		if v != "" {
			add(variantValueLike, like(v))
		}
	}
	if q.Condition != "" {
		add(" AND p.detail ->> 'kondisi' ILIKE $%d", like(q.Condition))
	}

	switch {
	case q.PriceMin > 0 && q.PriceMax > 0 && q.PriceMin == q.PriceMax:
		add(" AND p.price = $%d", q.PriceMin)
	case q.PriceMin > 0 && q.PriceMax > 0:
		add(" AND p.price >= $%d", q.PriceMin)
		add(" AND p.price <= $%d", q.PriceMax)
	case q.PriceMin > 0:
		add(" AND p.price >= $%d", q.PriceMin)
	case q.PriceMax > 0:
		add(" AND p.price <= $%d", q.PriceMax)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sb.WriteString(" ORDER BY pc.embedding <=> $1::vector")
	add(" LIMIT $%d", limit)
	return sb.String(), args
}

// SearchProducts returns the chunks closest to q.Vector by cosine distance.
func (s *Store) SearchProducts(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if len(q.Vector) == 0 {
		return nil, errors.NewValidation("search", "query vector is empty")
	}

	query, args := buildSearch(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStore("search", "vector search failed", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r       SearchResult
			reviews []byte
		)
		if err := rows.Scan(&r.ProductID, &r.Name, &r.Price, &r.URL, &r.Stock, &r.Sold, &reviews, &r.ChunkText, &r.Distance); err != nil {
			return nil, errors.NewStore("search", "failed to read result", err)
		}
		r.Reviews = json.RawMessage(reviews)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStore("search", "failed to read results", err)
	}
	return results, nil
}
