// Package store persists categories, products and their embedded chunks in
// PostgreSQL with the pgvector extension.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"sjsage522/tokoworker/logger"
	"sjsage522/tokoworker/pkg/errors"
)

// Ecommerce tags every row written by this worker.
const Ecommerce = "tokopedia"

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = stderrors.New("not found")

// Store reads and writes the product catalogue.
type Store struct {
	db        *sql.DB
	dimension int
	newID     func() string
}

// New wraps an open database handle. dimension is the embedding size used
// by the VECTOR columns.
func New(db *sql.DB, dimension int) *Store {
	return &Store{db: db, dimension: dimension, newID: uuid.NewString}
}

// Connect opens a lib/pq handle and pings it, retrying every interval until
// attempts run out or ctx is done.
func Connect(ctx context.Context, dsn string, attempts int, interval time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewStore("postgres", "failed to open connection", err)
	}

	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			logger.ForStore().Info().Msg("PostgreSQL connected")
			return db, nil
		}
		if i >= attempts {
			break
		}
		logger.ForStore().Warn().Err(err).Int("attempt", i).Msg("cannot reach database, retrying")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	db.Close()
	return nil, errors.NewStore("postgres", "database is unreachable", err)
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS categories (
			id         UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			ecommerce  TEXT NOT NULL,
			name       TEXT NOT NULL,
			url        TEXT,
			level      INT NOT NULL,
			parent_id  UUID REFERENCES categories(id) ON DELETE SET NULL,
			embedding  VECTOR(%d),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			UNIQUE (ecommerce, name, level, parent_id)
		)`, s.dimension),
		`CREATE TABLE IF NOT EXISTS products (
			id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			ecommerce     TEXT NOT NULL,
			category_id   UUID REFERENCES categories(id) ON DELETE SET NULL,
			shop_name     TEXT,
			shop_location TEXT,
			name          TEXT,
			url           TEXT NOT NULL UNIQUE,
			price         BIGINT,
			stock         BIGINT,
			sold          BIGINT,
			variant_spec  JSONB,
			detail        JSONB,
			media         JSONB,
			reviews       JSONB,
			parent_id     UUID REFERENCES products(id) ON DELETE SET NULL,
			is_parent     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMP DEFAULT NOW(),
			updated_at    TIMESTAMP DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS product_chunks (
			id         UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			chunk_type TEXT NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding  VECTOR(%d),
			created_at TIMESTAMP DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS product_chunks_product_id_idx ON product_chunks (product_id)`,
	}
}

// EnsureSchema creates the extensions, tables and indexes that are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewStore("schema", "failed to apply schema", err)
		}
	}
	return nil
}

// VectorLiteral renders an embedding as a pgvector text literal, e.g. [0.1,0.2].
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
