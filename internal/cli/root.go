package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sjsage522/tokoworker/config"
	"sjsage522/tokoworker/helpers"
	"sjsage522/tokoworker/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tokoworker",
	Short: "Tokopedia product crawler, enricher and semantic search",
	Long: `tokoworker reconstructs Tokopedia product pages from their embedded page
cache, stores one record per variant with embedded title and description
chunks, publishes each record to a Redis stream and answers semantic
product searches.

Example usage:
  tokoworker scrape https://www.tokopedia.com/shop/product   # Dump one product
  tokoworker categories                                      # Discover the category tree
  tokoworker crawl --category <id> --pages 5                 # Crawl a category
  tokoworker search -q "iphone 13 bekas jakarta"             # Semantic search`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		helpers.SetTimeout(cfg.FetchTimeout)

		logger.ForComponent("cli").Debug().
			Str("environment", cfg.Environment).
			Str("command", cmd.Name()).
			Msg("Configuration loaded")
		return nil
	},
}

// Execute runs the root command until ctx is cancelled
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the configuration loaded for the running command
func GetConfig() *config.Config {
	return cfg
}
