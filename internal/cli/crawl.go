package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sjsage522/tokoworker/helpers"
	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/services/worker"
)

var (
	crawlCategory string
	crawlPages    int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the products of a category",
	Long: `Crawl listing pages 1..N of every level-3 leaf under a category of any
level. Each product is assembled, its title and description chunks are
embedded, the records are stored and published to the Redis stream.
Failures are written to OUTPUT_DIR/log/<category>.txt and never stop the run.

Examples:
  tokoworker crawl --category 5f0c... --pages 5
  tokoworker crawl -c 5f0c...`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().StringVarP(&crawlCategory, "category", "c", "", "category id (required)")
	crawlCmd.Flags().IntVarP(&crawlPages, "pages", "n", 0, "listing pages per leaf (default CRAWL_PAGES)")
	crawlCmd.MarkFlagRequired("category")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	pages := cfg.CrawlPages
	if crawlPages > 0 {
		pages = crawlPages
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	services := &Services{Store: st, Cache: newCache(cfg)}
	defer services.Cleanup()

	category, err := st.GetCategory(ctx, crawlCategory)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	cleaner, err := newCleaner(cfg, services.Cache)
	if err != nil {
		return err
	}

	base := newBaseCrawler(cfg, services.Cache)
	opts := worker.Options{
		Products:    crawler.NewProductCrawler(base),
		Listings:    crawler.NewSearchCrawler(base),
		Store:       st,
		Cleaner:     cleaner,
		Embedder:    embedder,
		Logger:      helpers.NewCategoryLogger(filepath.Join(cfg.OutputDir, "log"), category.Name),
		Concurrency: cfg.ProductConcurrency,
	}
	if services.Publisher = newPublisher(ctx, cfg); services.Publisher != nil {
		opts.Publisher = services.Publisher
	}

	fmt.Printf("Crawling %s (level %d), %d pages per leaf\n", category.Name, category.Level, pages)
	stats, err := worker.NewWorker(opts).Run(ctx, category.ID, pages)
	fmt.Printf("Pages: %d, products: %d, records: %d, failed: %d\n", stats.Pages, stats.Products, stats.Records, stats.Failed)
	return err
}
