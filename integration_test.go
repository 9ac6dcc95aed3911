package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/internal/pdp"
	"sjsage522/tokoworker/services/cache"
	"sjsage522/tokoworker/services/embedding"
	"sjsage522/tokoworker/services/publisher"
	"sjsage522/tokoworker/services/store"
	"sjsage522/tokoworker/services/worker"
)

// memoryStore implements worker.Store in memory
type memoryStore struct {
	mu      sync.Mutex
	lineage store.Lineage
	saved   map[string][]store.ProductRecord
}

func (m *memoryStore) SaveProductGroup(_ context.Context, categoryID string, records []store.ProductRecord) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if categoryID != m.lineage.L3.ID {
		return nil, fmt.Errorf("unexpected category %s", categoryID)
	}
	m.saved[records[0].Product.ProductURL] = records
	ids := make([]string, len(records))
	for i := range ids {
		ids[i] = fmt.Sprintf("product-%d", i)
	}
	return ids, nil
}

func (m *memoryStore) CategoryLineage(context.Context, string) (store.Lineage, error) {
	return m.lineage, nil
}

func (m *memoryStore) CategoryLeaves(context.Context, string) ([]store.Category, error) {
	return []store.Category{m.lineage.L3}, nil
}

func (m *memoryStore) GetOrCreateCategory(context.Context, string, string, int, string) (string, bool, error) {
	return "", false, fmt.Errorf("not supported")
}

func (m *memoryStore) SetCategoryEmbedding(context.Context, string, []float32) error {
	return nil
}

// recordingPublisher keeps every published message
type recordingPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	trimmed  bool
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, append([]byte(nil), message...))
	return nil
}

func (p *recordingPublisher) TrimStreams(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trimmed = true
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// testLogger collects worker log lines
type testLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *testLogger) LogError(scope string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, scope+": "+err.Error())
}

func (l *testLogger) LogInfo(string, ...interface{}) {}

// newMarketplace serves a listing page with one good and one broken product
func newMarketplace(t *testing.T) *httptest.Server {
	t.Helper()
	productCache, err := os.ReadFile("internal/pdp/testdata/product_cache.json")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/p/elektronik/tv/smart-tv", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		base := "http://" + r.Host
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><script>window.__cache = {
			"ROOT_QUERY": {"searchProductV5({\"params\":\"page=1\"})": {"type": "id", "id": "$ROOT_QUERY.search"}},
			"$ROOT_QUERY.search": {"products": [{"type": "id", "id": "A"}, {"type": "id", "id": "B"}]},
			"A": {"url": "%s/enterelectronic/lg-oled55c4"},
			"B": {"url": "%s/shop/captcha"}
		};</script></head></html>`, base, base)
	})
	mux.HandleFunc("/enterelectronic/lg-oled55c4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><head><script>window.__cache = %s;</script></head><body></body></html>", productCache)
	})
	mux.HandleFunc("/shop/captcha", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>Verifikasi</body></html>")
	})
	return httptest.NewServer(mux)
}

func runPipeline(t *testing.T, server *httptest.Server, pub publisher.Publisher) (*memoryStore, *testLogger, worker.Stats) {
	t.Helper()
	st := &memoryStore{
		lineage: store.Lineage{
			L1: store.Category{ID: "l1", Name: "Elektronik", Level: store.LevelMain},
			L2: store.Category{ID: "l2", Name: "TV", Level: store.LevelSub},
			L3: store.Category{ID: "l3", Name: "Smart TV", Level: store.LevelLeaf, URL: server.URL + "/p/elektronik/tv/smart-tv"},
		},
		saved: make(map[string][]store.ProductRecord),
	}
	log := &testLogger{}

	base := crawler.NewBaseCrawler(crawler.Provider, cache.NewMemoryService(), time.Minute, 0)
	w := worker.NewWorker(worker.Options{
		Products:    crawler.NewProductCrawler(base),
		Listings:    crawler.NewSearchCrawler(base),
		Store:       st,
		Embedder:    embedding.NewMockEmbedder(8),
		Publisher:   pub,
		Logger:      log,
		Concurrency: 2,
	})

	stats, err := w.Run(context.Background(), "l1", 2)
	require.NoError(t, err)
	return st, log, stats
}

// TestIntegration runs listing, product, store and publish end to end
func TestIntegration(t *testing.T) {
	server := newMarketplace(t)
	defer server.Close()

	pub := &recordingPublisher{}
	st, log, stats := runPipeline(t, server, pub)

	assert.Equal(t, worker.Stats{Pages: 1, Products: 1, Records: 2, Failed: 1}, stats)
	assert.Len(t, log.errors, 2, "page 2 and the captcha product are logged")

	require.Len(t, st.saved, 1)
	var records []store.ProductRecord
	for _, r := range st.saved {
		records = r
	}
	require.Len(t, records, 2)
	assert.Equal(t, "Enter Electronic", records[0].Product.ShopName)
	require.NotEmpty(t, records[0].Chunks)
	assert.Equal(t, store.ChunkTitle, records[0].Chunks[0].Type)
	assert.Len(t, records[0].Chunks[0].Embedding, 8)

	assert.True(t, pub.trimmed)
	require.Len(t, pub.messages, 2)
	var published pdp.AssembledProduct
	require.NoError(t, json.Unmarshal(pub.messages[0], &published))
	assert.Equal(t, "Enter Electronic", published.ShopName)
}

// TestIntegrationRedis publishes to a real Redis stream
func TestIntegrationRedis(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("Skipping integration test in CI environment")
	}

	ctx := context.Background()
	redisAddr := "localhost:6379"
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 0})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skip("Redis is not available, skipping integration test")
	}

	prefix := fmt.Sprintf("test_products_%d", time.Now().UnixNano())
	redisPublisher := publisher.NewRedisPublisher(redisAddr, 0, prefix, 1, 100)
	defer redisPublisher.Close()
	defer redisClient.Del(ctx, redisPublisher.StreamName(0))

	server := newMarketplace(t)
	defer server.Close()
	runPipeline(t, server, redisPublisher)

	entries, err := redisClient.XRange(ctx, redisPublisher.StreamName(0), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	encoded, ok := entries[0].Values[publisher.ProductKey].(string)
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var product pdp.AssembledProduct
	require.NoError(t, json.Unmarshal(decoded, &product))
	assert.Equal(t, "Enter Electronic", product.ShopName)
}
