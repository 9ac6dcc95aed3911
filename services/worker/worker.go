package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/tokoworker/helpers"
	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/internal/naming"
	"sjsage522/tokoworker/internal/pdp"
	"sjsage522/tokoworker/services/embedding"
	"sjsage522/tokoworker/services/llm"
	"sjsage522/tokoworker/services/publisher"
	"sjsage522/tokoworker/services/store"
)

// Store is the persistence the worker writes through
type Store interface {
	SaveProductGroup(ctx context.Context, categoryID string, records []store.ProductRecord) ([]string, error)
	CategoryLineage(ctx context.Context, leafID string) (store.Lineage, error)
	CategoryLeaves(ctx context.Context, id string) ([]store.Category, error)
	GetOrCreateCategory(ctx context.Context, name, url string, level int, parentID string) (string, bool, error)
	SetCategoryEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Options wires the collaborators of a Worker. Cleaner, Embedder and
// Publisher may be nil.
type Options struct {
	Products    crawler.ProductFetcher
	Listings    crawler.ListingFetcher
	Store       Store
	Cleaner     llm.TitleCleaner
	Embedder    embedding.Embedder
	Publisher   publisher.Publisher
	Logger      helpers.LoggerInterface
	Concurrency int
}

// Stats counts the outcome of a crawl
type Stats struct {
	Pages    int
	Products int
	Records  int
	Failed   int
}

func (s *Stats) add(o Stats) {
	s.Pages += o.Pages
	s.Products += o.Products
	s.Records += o.Records
	s.Failed += o.Failed
}

// Worker handles the crawl, enrich, store and publish process
type Worker struct {
	products    crawler.ProductFetcher
	listings    crawler.ListingFetcher
	store       Store
	cleaner     llm.TitleCleaner
	embedder    embedding.Embedder
	publisher   publisher.Publisher
	logger      helpers.LoggerInterface
	concurrency int
}

// NewWorker creates a new worker
func NewWorker(opts Options) *Worker {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		products:    opts.Products,
		listings:    opts.Listings,
		store:       opts.Store,
		cleaner:     opts.Cleaner,
		embedder:    opts.Embedder,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		concurrency: concurrency,
	}
}

// Run crawls every level-3 leaf under categoryID and then trims the streams
func (w *Worker) Run(ctx context.Context, categoryID string, pages int) (Stats, error) {
	start := time.Now()
	var total Stats

	leaves, err := w.store.CategoryLeaves(ctx, categoryID)
	if err != nil {
		return total, err
	}

	for _, leaf := range leaves {
		if ctx.Err() != nil {
			break
		}
		lineage, err := w.store.CategoryLineage(ctx, leaf.ID)
		if err != nil {
			w.logger.LogError(leaf.Name, err)
			continue
		}
		total.add(w.RunCategory(ctx, lineage, pages))
	}

	// Trim all streams after crawling
	if w.publisher != nil {
		if err := w.publisher.TrimStreams(ctx); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}

	w.logger.LogInfo("crawled %d leaves in %s: %d products, %d records, %d failed",
		len(leaves), time.Since(start).Round(time.Millisecond), total.Products, total.Records, total.Failed)
	return total, ctx.Err()
}

// RunCategory crawls pages 1..pages of a leaf category. A failing page or
// product is logged and skipped.
func (w *Worker) RunCategory(ctx context.Context, lineage store.Lineage, pages int) Stats {
	var stats Stats
	scope := lineage.L3.Name

	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			break
		}
		pageURL := crawler.PageURL(lineage.L3.URL, page)
		w.logger.LogInfo("[%s] scraping page %d/%d: %s", scope, page, pages, pageURL)

		urls, err := w.listings.FetchProductURLs(ctx, pageURL)
		if err != nil {
			w.logger.LogError(scope, fmt.Errorf("page %s: %w", pageURL, err))
			continue
		}
		stats.Pages++
		stats.add(w.processProducts(ctx, lineage, urls))
	}
	return stats
}

// processProducts processes urls with at most w.concurrency in flight
func (w *Worker) processProducts(ctx context.Context, lineage store.Lineage, urls []string) Stats {
	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, w.concurrency)

	for _, url := range urls {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			defer func() { <-sem }()

			records, err := w.ProcessProduct(ctx, lineage, url)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				w.logger.LogError(lineage.L3.Name, fmt.Errorf("product %s: %w", url, err))
				return
			}
			stats.Products++
			stats.Records += records
		}(url)
	}
	wg.Wait()
	return stats
}

// ProcessProduct fetches one product page, stores its records with their
// embedded chunks and publishes them. It returns the number of records.
func (w *Worker) ProcessProduct(ctx context.Context, lineage store.Lineage, url string) (int, error) {
	products, err := w.products.FetchProducts(ctx, url)
	if err != nil {
		return 0, err
	}

	records := make([]store.ProductRecord, 0, len(products))
	for i, p := range products {
		records = append(records, store.ProductRecord{
			Product: p,
			Chunks:  w.buildChunks(ctx, lineage, p, i == 0),
		})
	}

	if _, err := w.store.SaveProductGroup(ctx, lineage.L3.ID, records); err != nil {
		return 0, err
	}

	if w.publisher != nil {
		for _, p := range products {
			if err := publisher.PublishProduct(ctx, w.publisher, p); err != nil {
				w.logger.LogError("publisher", err)
			}
		}
	}

	w.logger.LogInfo("[%s] saved %d records of %s", lineage.L3.Name, len(records), url)
	return len(records), nil
}

// buildChunks embeds the title of p and, on the first record of a page, its
// description. Chunks whose embedding fails are dropped.
func (w *Worker) buildChunks(ctx context.Context, lineage store.Lineage, p pdp.AssembledProduct, first bool) []store.Chunk {
	chunks := []store.Chunk{{Type: store.ChunkTitle, Text: w.titleText(ctx, lineage, p.ProductName)}}
	if first {
		if desc := p.Description(); desc != "" {
			chunks = append(chunks, store.Chunk{Type: store.ChunkDescription, Text: desc})
		}
	}

	if w.embedder == nil {
		return chunks
	}
	embedded := chunks[:0]
	for _, c := range chunks {
		vec, err := w.embedder.Embed(ctx, c.Text)
		if err != nil {
			w.logger.LogError("embedding", fmt.Errorf("%s chunk of %s: %w", c.Type, p.ProductURL, err))
			continue
		}
		c.Embedding = vec
		embedded = append(embedded, c)
	}
	return embedded
}

// titleText is the cleaned product title. When the cleaner leaves the title
// unchanged, brand-classifiable categories fall back to brand and model.
func (w *Worker) titleText(ctx context.Context, lineage store.Lineage, title string) string {
	cleaned := title
	if w.cleaner != nil {
		cleaned = w.cleaner.CleanTitle(ctx, title, lineage.L1.Name, lineage.L2.Name, lineage.L3.Name)
	}
	if cleaned != title {
		return cleaned
	}
	if c, ok := naming.Classify(title, lineage.L3.Name); ok && c.NormalizedName != "" {
		return c.NormalizedName
	}
	return cleaned
}

// SyncStats counts the outcome of a category sync
type SyncStats struct {
	Created  int
	Existing int
}

// SyncCategories persists a discovered category tree. New categories get a
// name embedding when an embedder is configured.
func (w *Worker) SyncCategories(ctx context.Context, tree []*crawler.CategoryNode) (SyncStats, error) {
	var stats SyncStats
	for _, node := range tree {
		if err := w.syncNode(ctx, node, "", &stats); err != nil {
			return stats, err
		}
	}
	w.logger.LogInfo("categories synced: %d created, %d existing", stats.Created, stats.Existing)
	return stats, nil
}

func (w *Worker) syncNode(ctx context.Context, node *crawler.CategoryNode, parentID string, stats *SyncStats) error {
	id, created, err := w.store.GetOrCreateCategory(ctx, node.Name, node.URL, node.Level, parentID)
	if err != nil {
		return err
	}

	if created {
		stats.Created++
		w.embedCategory(ctx, id, node.Name)
	} else {
		stats.Existing++
	}

	for _, child := range node.Children {
		if err := w.syncNode(ctx, child, id, stats); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) embedCategory(ctx context.Context, id, name string) {
	if w.embedder == nil {
		return
	}
	vec, err := w.embedder.Embed(ctx, name)
	if err != nil {
		w.logger.LogError("embedding", fmt.Errorf("category %s: %w", name, err))
		return
	}
	if err := w.store.SetCategoryEmbedding(ctx, id, vec); err != nil {
		w.logger.LogError("categories", err)
	}
}
