package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sjsage522/tokoworker/internal/pdp"
	"sjsage522/tokoworker/services/llm"
	"sjsage522/tokoworker/services/search"
	"sjsage522/tokoworker/services/store"
)

var (
	searchText string
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Semantic product search",
	Long: `Match the query to level-2 categories, let the model pick the best level-3
leaf, then rank the stored chunks of that leaf by cosine distance with the
filters read from the query.

Examples:
  tokoworker search -q "iphone 13 bekas jakarta"
  tokoworker search -q "tv oled 55 inch dibawah 15 juta" -k 5 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", store.DefaultSearchLimit, "number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	services := &Services{Store: st}
	defer services.Cleanup()

	understander := llm.NewQueryUnderstander(llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.QueryModel)
	result, err := search.NewSearcher(st, understander, embedder).Search(ctx, searchText, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if result.Category != nil {
		fmt.Printf("Category: %s\n", result.Category.Name)
	}
	if len(result.Products) == 0 {
		fmt.Println("Tidak ada hasil.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(result.Products), searchText)
	for i, r := range result.Products {
		fmt.Printf("%d. %s (%s)\n", i+1, r.Name, pdp.FormatPrice(r.Price))
		fmt.Printf("   stock: %d\n", r.Stock)
		fmt.Printf("   url: %s\n", r.URL)
		fmt.Printf("   score: %.4f\n\n", r.Distance)
	}
	return nil
}
