package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sjsage522/tokoworker/helpers"
	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/services/embedding"
	"sjsage522/tokoworker/services/store"
	"sjsage522/tokoworker/services/worker"
)

var (
	categoriesEmbed bool
	categoriesList  bool
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Discover and store the category tree",
	Long: `Parse the marketplace category index into its three levels and store every
category. New categories get a name embedding unless --embed=false is given.
With --list the stored top-level categories are printed instead.

Examples:
  tokoworker categories
  tokoworker categories --embed=false
  tokoworker categories --list`,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.Flags().BoolVar(&categoriesEmbed, "embed", true, "embed new category names")
	categoriesCmd.Flags().BoolVar(&categoriesList, "list", false, "list stored categories instead of discovering")
}

func runCategories(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	services := &Services{Store: st}
	defer services.Cleanup()

	if categoriesList {
		return listCategories(cmd, st)
	}

	var embedder embedding.Embedder
	if categoriesEmbed {
		if embedder, err = newEmbedder(cfg); err != nil {
			return err
		}
	}

	services.Cache = newCache(cfg)
	tree, err := crawler.NewCategoryCrawler(newBaseCrawler(cfg, services.Cache), cfg.BaseURL).FetchTree(ctx)
	if err != nil {
		return fmt.Errorf("category discovery failed: %w", err)
	}

	w := worker.NewWorker(worker.Options{
		Store:    st,
		Embedder: embedder,
		Logger:   helpers.NewLogger(filepath.Join(cfg.OutputDir, "log", "categories.txt")),
	})
	stats, err := w.SyncCategories(ctx, tree)
	if err != nil {
		return err
	}

	fmt.Printf("Categories: %d created, %d already stored\n", stats.Created, stats.Existing)
	return nil
}

func listCategories(cmd *cobra.Command, st *store.Store) error {
	ctx := cmd.Context()
	mains, err := st.GetCategories(ctx, store.LevelMain, "")
	if err != nil {
		return err
	}
	for _, m := range mains {
		fmt.Printf("%s  %s\n", m.ID, m.Name)
		subs, err := st.GetCategories(ctx, store.LevelSub, m.ID)
		if err != nil {
			return err
		}
		for _, s := range subs {
			fmt.Printf("  %s  %s\n", s.ID, s.Name)
		}
	}
	return nil
}
