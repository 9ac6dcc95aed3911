package search

import (
	"context"

	"sjsage522/tokoworker/logger"
	"sjsage522/tokoworker/pkg/errors"
	"sjsage522/tokoworker/services/embedding"
	"sjsage522/tokoworker/services/llm"
	"sjsage522/tokoworker/services/store"
)

// Store is the part of the product store a search reads
type Store interface {
	GetCategories(ctx context.Context, level int, parentID string) ([]store.Category, error)
	SearchProducts(ctx context.Context, q store.SearchQuery) ([]store.SearchResult, error)
}

// Understander maps a free-text query onto the category tree
type Understander interface {
	Understand(ctx context.Context, query string, level2 []string) (llm.QueryIntent, error)
	SelectLevel3(ctx context.Context, query string, level3 []string) (string, error)
}

// Result is the outcome of one semantic search
type Result struct {
	Query    string               `json:"query"`
	Intent   llm.QueryIntent      `json:"intent"`
	Category *store.Category      `json:"category,omitempty"`
	Products []store.SearchResult `json:"products"`
}

// Searcher runs query understanding followed by a filtered vector search
type Searcher struct {
	store        Store
	understander Understander
	embedder     embedding.Embedder
}

// NewSearcher creates a searcher
func NewSearcher(st Store, u Understander, e embedding.Embedder) *Searcher {
	return &Searcher{store: st, understander: u, embedder: e}
}

// Search answers query with at most limit products. When no level-3
// category can be chosen the vector search runs over every category.
func (s *Searcher) Search(ctx context.Context, query string, limit int) (Result, error) {
	result := Result{Query: query, Products: []store.SearchResult{}}
	if query == "" {
		return result, errors.NewValidation("search", "query is empty")
	}
	log := logger.ForComponent("search")

	level2, err := s.store.GetCategories(ctx, store.LevelSub, "")
	if err != nil {
		return result, err
	}

	intent, err := s.understander.Understand(ctx, query, names(level2))
	if err != nil {
		return result, err
	}
	result.Intent = intent

	category, err := s.chooseLevel3(ctx, query, level2, intent.Level2Matches)
	if err != nil {
		return result, err
	}
	result.Category = category
	if category != nil {
		log.Info().Str("category", category.Name).Msg("searching within level 3 category")
	} else {
		log.Info().Strs("level2_matches", intent.Level2Matches).Msg("no level 3 category chosen, searching all categories")
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return result, err
	}

	q := QueryFor(intent, vector, limit)
	if category != nil {
		q.CategoryID = category.ID
	}
	products, err := s.store.SearchProducts(ctx, q)
	if err != nil {
		return result, err
	}
	if products != nil {
		result.Products = products
	}
	return result, nil
}

// chooseLevel3 asks the model for the best leaf under the matched level-2
// categories. It returns nil when nothing matches.
func (s *Searcher) chooseLevel3(ctx context.Context, query string, level2 []store.Category, matches []string) (*store.Category, error) {
	wanted := make(map[string]bool, len(matches))
	for _, m := range matches {
		wanted[m] = true
	}

	var level3 []store.Category
	for _, c := range level2 {
		if !wanted[c.Name] {
			continue
		}
		leaves, err := s.store.GetCategories(ctx, store.LevelLeaf, c.ID)
		if err != nil {
			return nil, err
		}
		level3 = append(level3, leaves...)
	}
	if len(level3) == 0 {
		return nil, nil
	}

	best, err := s.understander.SelectLevel3(ctx, query, names(level3))
	if err != nil {
		return nil, err
	}
	for i := range level3 {
		if level3[i].Name == best {
			return &level3[i], nil
		}
	}
	return nil, nil
}

// QueryFor turns the filters of intent into a store query
func QueryFor(intent llm.QueryIntent, vector []float32, limit int) store.SearchQuery {
	f := intent.Filters
	return store.SearchQuery{
		Vector:    vector,
		Location:  f.Location,
		Color:     f.Color,
		Storage:   f.Storage,
		RAM:       f.RAM,
		Condition: f.Condition,
		PriceMin:  int64(f.PriceMin),
		PriceMax:  int64(f.PriceMax),
		Limit:     limit,
	}
}

func names(cats []store.Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}
