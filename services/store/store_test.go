package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/tokoworker/internal/pdp"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, 1536), mock
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	for _, fragment := range []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS categories`,
		`CREATE TABLE IF NOT EXISTS products`,
		`CREATE TABLE IF NOT EXISTS product_chunks`,
		`CREATE INDEX IF NOT EXISTS product_chunks_product_id_idx`,
	} {
		mock.ExpectExec(regexp.QuoteMeta(fragment)).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaUsesDimension(t *testing.T) {
	stmts := New(nil, 768).schema()
	assert.Contains(t, stmts[2], "VECTOR(768)")
	assert.Contains(t, stmts[4], "VECTOR(768)")
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[0.5,-0.25,1]", VectorLiteral([]float32{0.5, -0.25, 1}))
	assert.Equal(t, "[0.1]", VectorLiteral([]float32{0.1}))
	assert.Equal(t, "[]", VectorLiteral(nil))
}

func TestNewIDIsUUID(t *testing.T) {
	_, err := uuid.Parse(New(nil, 1).newID())
	assert.NoError(t, err)
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Connect(ctx, "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1", 1, time.Millisecond)
	assert.Error(t, err)
}

func sampleProducts() []ProductRecord {
	location := "Jakarta Barat"
	spec := pdp.NewOrderedMap[string]()
	spec.Set("warna", "Hitam")
	return []ProductRecord{
		{
			Product: pdp.AssembledProduct{
				ShopName:     "Enter Electronic",
				ShopLocation: &location,
				ProductName:  "LG OLED evo 55 inch",
				ProductURL:   "https://www.tokopedia.com/enterelectronic/lg-oled55c4?variant=55",
				ProductPrice: 15000000,
				ProductStock: 7,
				ProductSold:  120,
				VariantSpec:  spec,
			},
			Chunks: []Chunk{
				{Type: ChunkTitle, Text: "TV OLED LG", Embedding: []float32{0.5, 0.25}},
				{Type: ChunkDescription, Text: "Garansi resmi"},
			},
		},
		{
			Product: pdp.AssembledProduct{
				ShopName:     "Enter Electronic",
				ShopLocation: &location,
				ProductName:  "LG OLED evo 65 inch",
				ProductURL:   "https://www.tokopedia.com/enterelectronic/lg-oled55c4?variant=65",
				ProductPrice: 25000000,
				ProductSold:  120,
			},
			Chunks: []Chunk{{Type: ChunkTitle, Text: "TV OLED LG", Embedding: []float32{0.5}}},
		},
	}
}

func TestSaveProductGroup(t *testing.T) {
	store, mock := newMockStore(t)
	records := sampleProducts()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs("tokopedia", "cat-3", "Enter Electronic", "Jakarta Barat", "LG OLED evo 55 inch", records[0].Product.ProductURL,
			int64(15000000), int64(7), int64(120), `{"warna":"Hitam"}`, "null", "null", "null", nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_chunks WHERE product_id = $1")).
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_chunks")).
		WithArgs("p-1", "title", "TV OLED LG", "[0.5,0.25]").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs("tokopedia", "cat-3", "Enter Electronic", "Jakarta Barat", "LG OLED evo 65 inch", records[1].Product.ProductURL,
			int64(25000000), int64(0), int64(120), "null", "null", "null", "null", "p-1", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-2"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_chunks")).
		WithArgs("p-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_chunks")).
		WithArgs("p-2", "title", "TV OLED LG", "[0.5]").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ids, err := store.SaveProductGroup(context.Background(), "cat-3", records)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1", "p-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSingleProductIsNotParent(t *testing.T) {
	store, mock := newMockStore(t)
	records := sampleProducts()[:1]
	records[0].Chunks = nil

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_chunks")).
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ids, err := store.SaveProductGroup(context.Background(), "cat-3", records)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveProductGroupRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	_, err := store.SaveProductGroup(context.Background(), "cat-3", sampleProducts())
	assert.ErrorIs(t, err, sqlmock.ErrCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEmptyGroup(t *testing.T) {
	store, mock := newMockStore(t)
	ids, err := store.SaveProductGroup(context.Background(), "cat-3", nil)
	assert.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
