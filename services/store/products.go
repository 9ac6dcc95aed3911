package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"sjsage522/tokoworker/internal/pdp"
	"sjsage522/tokoworker/pkg/errors"
)

// Chunk types stored alongside products.
const (
	ChunkTitle       = "title"
	ChunkDescription = "description"
)

// Chunk is one embedded text of a product.
type Chunk struct {
	Type      string
	Text      string
	Embedding []float32
}

// ProductRecord is an assembled product together with its chunks.
type ProductRecord struct {
	Product pdp.AssembledProduct
	Chunks  []Chunk
}

const upsertProduct = `INSERT INTO products (
		ecommerce, category_id, shop_name, shop_location, name, url, price, stock, sold,
		variant_spec, detail, media, reviews, parent_id, is_parent, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
	ON CONFLICT (url) DO UPDATE SET
		category_id = EXCLUDED.category_id,
		shop_name = EXCLUDED.shop_name,
		shop_location = EXCLUDED.shop_location,
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		stock = EXCLUDED.stock,
		sold = EXCLUDED.sold,
		variant_spec = EXCLUDED.variant_spec,
		detail = EXCLUDED.detail,
		media = EXCLUDED.media,
		reviews = EXCLUDED.reviews,
		parent_id = EXCLUDED.parent_id,
		is_parent = EXCLUDED.is_parent,
		updated_at = NOW()
	RETURNING id`

const deleteChunks = `DELETE FROM product_chunks WHERE product_id = $1`

const insertChunk = `INSERT INTO product_chunks (product_id, chunk_type, chunk_text, embedding)
	VALUES ($1, $2, $3, $4::vector)`

// SaveProductGroup upserts the records of one product page in a single
// transaction and returns their ids in order. With more than one record the
// first becomes the parent of the rest. Each product's chunks are replaced;
// chunks without an embedding are skipped.
func (s *Store) SaveProductGroup(ctx context.Context, categoryID string, records []ProductRecord) (ids []string, err error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStore("products", "failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var parentID string
	for i, rec := range records {
		p := rec.Product
		var parent sql.NullString
		isParent := false
		if i == 0 {
			isParent = len(records) > 1
		} else {
			parent = nullString(parentID)
		}

		args, err := productArgs(categoryID, p)
		if err != nil {
			return nil, errors.NewStore("products", "failed to encode "+p.ProductURL, err)
		}
		args = append(args, parent, isParent)

		var id string
		if err := tx.QueryRowContext(ctx, upsertProduct, args...).Scan(&id); err != nil {
			return nil, errors.NewStore("products", "failed to upsert "+p.ProductURL, err)
		}
		if i == 0 {
			parentID = id
		}
		ids = append(ids, id)

		if _, err := tx.ExecContext(ctx, deleteChunks, id); err != nil {
			return nil, errors.NewStore("products", "failed to delete chunks of "+p.ProductURL, err)
		}
		for _, c := range rec.Chunks {
			if len(c.Embedding) == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, insertChunk, id, c.Type, c.Text, VectorLiteral(c.Embedding)); err != nil {
				return nil, errors.NewStore("products", "failed to insert chunk of "+p.ProductURL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStore("products", "failed to commit", err)
	}
	return ids, nil
}

func productArgs(categoryID string, p pdp.AssembledProduct) ([]interface{}, error) {
	var docs [4]string
	for i, v := range []interface{}{p.VariantSpec, p.ProductDetail, p.ProductMedia, p.ProductReviews} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		docs[i] = string(data)
	}

	var location sql.NullString
	if p.ShopLocation != nil {
		location = nullString(*p.ShopLocation)
	}

	return []interface{}{
		Ecommerce,
		nullString(categoryID),
		p.ShopName,
		location,
		p.ProductName,
		p.ProductURL,
		p.ProductPrice,
		p.ProductStock,
		p.ProductSold,
		docs[0], docs[1], docs[2], docs[3],
	}, nil
}
