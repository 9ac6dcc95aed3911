package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/services/writer"
)

var scrapePrefix string

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape one product page to JSON and text files",
	Long: `Fetch one product page, reconstruct one record per variant and write
<prefix>_full.json and <prefix>_output.txt under OUTPUT_DIR. Nothing is
stored in the database.

Examples:
  tokoworker scrape https://www.tokopedia.com/enterelectronic/lg-oled55c4
  tokoworker scrape https://www.tokopedia.com/huawei/matepad-se --prefix matepad`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringVarP(&scrapePrefix, "prefix", "p", "tokopedia_data", "output file name prefix")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	products, err := crawler.NewProductCrawler(newBaseCrawler(cfg, newCache(cfg))).FetchProducts(ctx, args[0])
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	paths, err := writer.SaveResults(products, filepath.Join(cfg.OutputDir, scrapePrefix))
	if err != nil {
		return err
	}

	fmt.Printf("Scraped %d variant records\n", len(products))
	fmt.Printf("  JSON: %s\n", paths.JSON)
	fmt.Printf("  Text: %s\n", paths.Text)
	return nil
}
