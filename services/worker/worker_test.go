package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/tokoworker/helpers"
	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/internal/pdp"
	"sjsage522/tokoworker/services/embedding"
	"sjsage522/tokoworker/services/publisher"
	"sjsage522/tokoworker/services/store"
)

// MockProductFetcher implements crawler.ProductFetcher for testing
type MockProductFetcher struct {
	products map[string][]pdp.AssembledProduct
	errs     map[string]error
}

var _ crawler.ProductFetcher = (*MockProductFetcher)(nil)

func (m *MockProductFetcher) FetchProducts(_ context.Context, url string) ([]pdp.AssembledProduct, error) {
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	return m.products[url], nil
}

func (m *MockProductFetcher) GetName() string { return "MockProductFetcher" }

// MockListingFetcher implements crawler.ListingFetcher for testing
type MockListingFetcher struct {
	mu        sync.Mutex
	pages     map[string][]string
	requested []string
}

var _ crawler.ListingFetcher = (*MockListingFetcher)(nil)

func (m *MockListingFetcher) FetchProductURLs(_ context.Context, pageURL string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, pageURL)
	urls, ok := m.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("no listing for %s", pageURL)
	}
	return urls, nil
}

func (m *MockListingFetcher) GetName() string { return "MockListingFetcher" }

// MockStore implements Store for testing
type MockStore struct {
	mu         sync.Mutex
	groups     map[string][]store.ProductRecord
	groupCat   map[string]string
	saveErr    error
	leaves     []store.Category
	lineages   map[string]store.Lineage
	categories []store.Category
	embedded   map[string][]float32
	existing   map[string]string
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		groups:   make(map[string][]store.ProductRecord),
		groupCat: make(map[string]string),
		lineages: make(map[string]store.Lineage),
		embedded: make(map[string][]float32),
		existing: make(map[string]string),
	}
}

func (m *MockStore) SaveProductGroup(_ context.Context, categoryID string, records []store.ProductRecord) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	url := records[0].Product.ProductURL
	m.groups[url] = records
	m.groupCat[url] = categoryID
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = fmt.Sprintf("p-%d", i)
	}
	return ids, nil
}

func (m *MockStore) CategoryLineage(_ context.Context, leafID string) (store.Lineage, error) {
	l, ok := m.lineages[leafID]
	if !ok {
		return store.Lineage{}, store.ErrNotFound
	}
	return l, nil
}

func (m *MockStore) CategoryLeaves(context.Context, string) ([]store.Category, error) {
	return m.leaves, nil
}

func (m *MockStore) GetOrCreateCategory(_ context.Context, name, url string, level int, parentID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d/%s/%s", level, parentID, name)
	if id, ok := m.existing[key]; ok {
		return id, false, nil
	}
	id := fmt.Sprintf("cat-%d", len(m.categories)+1)
	m.existing[key] = id
	m.categories = append(m.categories, store.Category{ID: id, Name: name, URL: url, Level: level, ParentID: parentID})
	return id, true, nil
}

func (m *MockStore) SetCategoryEmbedding(_ context.Context, id string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedded[id] = embedding
	return nil
}

// MockCleaner implements llm.TitleCleaner for testing
type MockCleaner struct {
	cleaned map[string]string
}

func (m *MockCleaner) CleanTitle(_ context.Context, title, _, _, _ string) string {
	if c, ok := m.cleaned[title]; ok {
		return c
	}
	return title
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages []string
	trimmed  int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(_ context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, key+":"+string(message))
	return nil
}

func (m *MockPublisher) TrimStreams(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

var _ helpers.LoggerInterface = (*MockLogger)(nil)

func (m *MockLogger) LogError(scope string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, scope+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

// failingEmbedder fails for texts containing fail
type failingEmbedder struct {
	fail string
}

func (e failingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(text, e.fail) {
		return nil, errors.New("embedding unavailable")
	}
	return []float32{1, 2, 3}, nil
}

func (e failingEmbedder) Dimension() int { return 3 }

func phoneLineage() store.Lineage {
	return store.Lineage{
		L1: store.Category{ID: "l1", Name: "Handphone & Tablet", Level: store.LevelMain},
		L2: store.Category{ID: "l2", Name: "Handphone", Level: store.LevelSub},
		L3: store.Category{ID: "l3", Name: "Android OS", Level: store.LevelLeaf, URL: "https://www.tokopedia.com/p/hp/android-os"},
	}
}

func variantPage(url string, names ...string) []pdp.AssembledProduct {
	detail := pdp.NewOrderedMap[interface{}]()
	detail.Set("kondisi", "Baru")
	detail.Set("deskripsi", "Garansi resmi 1 tahun")

	products := make([]pdp.AssembledProduct, 0, len(names))
	for i, name := range names {
		products = append(products, pdp.AssembledProduct{
			ShopName:      "Toko HP",
			ProductName:   name,
			ProductURL:    fmt.Sprintf("%s?v=%d", url, i),
			ProductPrice:  int64(1000000 * (i + 1)),
			VariantSpec:   pdp.NewOrderedMap[string](),
			ProductDetail: detail,
		})
	}
	return products
}

func TestWorkerProcessProduct(t *testing.T) {
	url := "https://www.tokopedia.com/tokohp/redmi-note-13"
	mockStore := NewMockStore()
	mockPublisher := &MockPublisher{}
	mockLogger := &MockLogger{}

	w := NewWorker(Options{
		Products: &MockProductFetcher{products: map[string][]pdp.AssembledProduct{
			url: variantPage(url, "Xiaomi Redmi Note 13 8/256", "Xiaomi Redmi Note 13 8/512"),
		}},
		Store: mockStore,
		Cleaner: &MockCleaner{cleaned: map[string]string{
			"Xiaomi Redmi Note 13 8/256": "Xiaomi Redmi Note 13 8GB 256GB",
			"Xiaomi Redmi Note 13 8/512": "Xiaomi Redmi Note 13 8GB 512GB",
		}},
		Embedder:  embedding.NewMockEmbedder(4),
		Publisher: mockPublisher,
		Logger:    mockLogger,
	})

	n, err := w.ProcessProduct(context.Background(), phoneLineage(), url)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records := mockStore.groups[url+"?v=0"]
	require.Len(t, records, 2)
	assert.Equal(t, "l3", mockStore.groupCat[url+"?v=0"])

	require.Len(t, records[0].Chunks, 2)
	assert.Equal(t, store.ChunkTitle, records[0].Chunks[0].Type)
	assert.Equal(t, "Xiaomi Redmi Note 13 8GB 256GB", records[0].Chunks[0].Text)
	assert.Len(t, records[0].Chunks[0].Embedding, 4)
	assert.Equal(t, store.ChunkDescription, records[0].Chunks[1].Type)
	assert.Equal(t, "Garansi resmi 1 tahun", records[0].Chunks[1].Text)

	require.Len(t, records[1].Chunks, 1)
	assert.Equal(t, "Xiaomi Redmi Note 13 8GB 512GB", records[1].Chunks[0].Text)

	require.Len(t, mockPublisher.messages, 2)
	assert.True(t, strings.HasPrefix(mockPublisher.messages[0], publisher.ProductKey+":"))
	assert.Contains(t, mockPublisher.messages[0], "Xiaomi Redmi Note 13 8/256")
	assert.Empty(t, mockLogger.errors)
}

func TestTitleFallsBackToClassifier(t *testing.T) {
	w := NewWorker(Options{Cleaner: &MockCleaner{}, Logger: &MockLogger{}})

	lineage := phoneLineage()
	assert.Equal(t, "XIAOMI REDMI NOTE 13", w.titleText(context.Background(), lineage, "Xiaomi Redmi Note 13 8GB 256GB Garansi Resmi"))

	lineage.L3.Name = "Kipas Angin"
	assert.Equal(t, "Kipas Angin Maspion", w.titleText(context.Background(), lineage, "Kipas Angin Maspion"))
}

func TestBuildChunksSkipsFailedEmbeddings(t *testing.T) {
	mockLogger := &MockLogger{}
	w := NewWorker(Options{Embedder: failingEmbedder{fail: "Garansi"}, Logger: mockLogger})

	p := variantPage("https://www.tokopedia.com/a", "Kipas Angin Maspion")[0]
	lineage := phoneLineage()
	lineage.L3.Name = "Kipas Angin"

	chunks := w.buildChunks(context.Background(), lineage, p, true)
	require.Len(t, chunks, 1)
	assert.Equal(t, store.ChunkTitle, chunks[0].Type)
	assert.Equal(t, []float32{1, 2, 3}, chunks[0].Embedding)
	require.Len(t, mockLogger.errors, 1)
	assert.Contains(t, mockLogger.errors[0], "embedding unavailable")
}

func TestWorkerProcessProductErrors(t *testing.T) {
	url := "https://www.tokopedia.com/a"
	fetchErr := errors.New("layout root not found")

	w := NewWorker(Options{
		Products: &MockProductFetcher{errs: map[string]error{url: fetchErr}},
		Store:    NewMockStore(),
		Logger:   &MockLogger{},
	})
	_, err := w.ProcessProduct(context.Background(), phoneLineage(), url)
	assert.ErrorIs(t, err, fetchErr)

	mockStore := NewMockStore()
	mockStore.saveErr = errors.New("connection reset")
	mockPublisher := &MockPublisher{}
	w = NewWorker(Options{
		Products:  &MockProductFetcher{products: map[string][]pdp.AssembledProduct{url: variantPage(url, "Kipas")}},
		Store:     mockStore,
		Publisher: mockPublisher,
		Logger:    &MockLogger{},
	})
	_, err = w.ProcessProduct(context.Background(), phoneLineage(), url)
	assert.ErrorIs(t, err, mockStore.saveErr)
	assert.Empty(t, mockPublisher.messages)
}

func TestWorkerRunCategory(t *testing.T) {
	lineage := phoneLineage()
	good := "https://www.tokopedia.com/shop/good"
	bad := "https://www.tokopedia.com/shop/bad"
	other := "https://www.tokopedia.com/shop/other"

	listings := &MockListingFetcher{pages: map[string][]string{
		lineage.L3.URL + "?page=1": {good, bad},
		lineage.L3.URL + "?page=3": {other},
	}}
	mockStore := NewMockStore()
	mockLogger := &MockLogger{}

	w := NewWorker(Options{
		Products: &MockProductFetcher{
			products: map[string][]pdp.AssembledProduct{
				good:  variantPage(good, "Xiaomi Redmi Note 13 8/256", "Xiaomi Redmi Note 13 8/512"),
				other: variantPage(other, "Samsung Galaxy A55"),
			},
			errs: map[string]error{bad: errors.New("no variant or content component")},
		},
		Listings:    listings,
		Store:       mockStore,
		Logger:      mockLogger,
		Concurrency: 2,
	})

	stats := w.RunCategory(context.Background(), lineage, 3)
	assert.Equal(t, Stats{Pages: 2, Products: 2, Records: 3, Failed: 1}, stats)
	assert.Len(t, listings.requested, 3)
	assert.Len(t, mockStore.groups, 2)
	assert.Len(t, mockLogger.errors, 2)
}

func TestWorkerRun(t *testing.T) {
	lineage := phoneLineage()
	url := "https://www.tokopedia.com/shop/good"

	mockStore := NewMockStore()
	mockStore.leaves = []store.Category{lineage.L3, {ID: "missing", Name: "Missing", Level: store.LevelLeaf}}
	mockStore.lineages[lineage.L3.ID] = lineage
	mockPublisher := &MockPublisher{}
	mockLogger := &MockLogger{}

	w := NewWorker(Options{
		Products:  &MockProductFetcher{products: map[string][]pdp.AssembledProduct{url: variantPage(url, "Samsung Galaxy A55")}},
		Listings:  &MockListingFetcher{pages: map[string][]string{lineage.L3.URL + "?page=1": {url}}},
		Store:     mockStore,
		Publisher: mockPublisher,
		Logger:    mockLogger,
	})

	stats, err := w.Run(context.Background(), "l1", 1)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pages: 1, Products: 1, Records: 1}, stats)
	assert.Equal(t, 1, mockPublisher.trimmed)
	assert.Len(t, mockPublisher.messages, 1)
	require.Len(t, mockLogger.errors, 1)
	assert.Contains(t, mockLogger.errors[0], "Missing")
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	lineage := phoneLineage()
	mockStore := NewMockStore()
	mockStore.leaves = []store.Category{lineage.L3}
	mockStore.lineages[lineage.L3.ID] = lineage
	listings := &MockListingFetcher{}

	w := NewWorker(Options{Listings: listings, Store: mockStore, Logger: &MockLogger{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Run(ctx, "l1", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listings.requested)
}

func TestSyncCategories(t *testing.T) {
	tree := []*crawler.CategoryNode{
		{Name: "Handphone & Tablet", URL: "https://www.tokopedia.com/p/hp", Level: crawler.LevelMain, Children: []*crawler.CategoryNode{
			{Name: "Handphone", Level: crawler.LevelSub, Children: []*crawler.CategoryNode{
				{Name: "Android OS", Level: crawler.LevelLeaf},
				{Name: "IOS", Level: crawler.LevelLeaf},
			}},
		}},
	}
	mockStore := NewMockStore()
	w := NewWorker(Options{Store: mockStore, Embedder: embedding.NewMockEmbedder(3), Logger: &MockLogger{}})

	stats, err := w.SyncCategories(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Created: 4}, stats)
	require.Len(t, mockStore.categories, 4)
	assert.Equal(t, "", mockStore.categories[0].ParentID)
	assert.Equal(t, mockStore.categories[0].ID, mockStore.categories[1].ParentID)
	assert.Equal(t, mockStore.categories[1].ID, mockStore.categories[2].ParentID)
	assert.Len(t, mockStore.embedded, 4)

	stats, err = w.SyncCategories(context.Background(), tree)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Existing: 4}, stats)
	assert.Len(t, mockStore.embedded, 4)
}
