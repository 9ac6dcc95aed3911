package cli

import (
	"context"
	"time"

	"sjsage522/tokoworker/config"
	"sjsage522/tokoworker/internal/crawler"
	"sjsage522/tokoworker/logger"
	"sjsage522/tokoworker/pkg/errors"
	"sjsage522/tokoworker/services/cache"
	"sjsage522/tokoworker/services/embedding"
	"sjsage522/tokoworker/services/llm"
	"sjsage522/tokoworker/services/publisher"
	"sjsage522/tokoworker/services/store"
)

const (
	cleanedTitleTTL  = 30 * 24 * time.Hour
	dbConnectTries   = 5
	dbConnectBackoff = 2 * time.Second
)

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher *publisher.RedisPublisher
	Store     *store.Store
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.DB().Close()
	}
}

// newCache connects to memcache and falls back to an in-process cache when
// it does not answer
func newCache(cfg *config.Config) cache.CacheService {
	mc := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("memcache unavailable, using in-process cache")
		return cache.NewMemoryService()
	}
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	return mc
}

// openStore connects to Postgres and ensures the schema exists
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Connect(ctx, cfg.DSN(), dbConnectTries, dbConnectBackoff)
	if err != nil {
		return nil, err
	}
	st := store.New(db, embedding.DimensionFor(cfg.EmbeddingModel, cfg.EmbeddingDimension))
	if err := st.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// newPublisher connects to Redis. A nil publisher means records are stored
// but not streamed.
func newPublisher(ctx context.Context, cfg *config.Config) *publisher.RedisPublisher {
	p := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
	if err := p.Ping(ctx); err != nil {
		logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, publishing disabled")
		p.Close()
		return nil
	}
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	return p
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	if err := cfg.RequireOpenAI(); err != nil {
		return nil, err
	}
	dim := embedding.DimensionFor(cfg.EmbeddingModel, cfg.EmbeddingDimension)
	return embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.OpenAIBaseURL, dim), nil
}

func newCleaner(cfg *config.Config, c cache.CacheService) (llm.TitleCleaner, error) {
	var cleaner llm.TitleCleaner
	switch cfg.CleanerProvider {
	case "ollama":
		cleaner = llm.NewOllamaCleaner(llm.NewOllamaClient(cfg.OllamaURL), cfg.CleanerModel)
	case "openai":
		if err := cfg.RequireOpenAI(); err != nil {
			return nil, err
		}
		cleaner = llm.NewOpenAICleaner(llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.CleanerModel)
	default:
		return nil, errors.NewConfiguration("unknown cleaner provider "+cfg.CleanerProvider, nil)
	}
	return llm.NewCachedCleaner(cleaner, c, cleanedTitleTTL), nil
}

func newBaseCrawler(cfg *config.Config, c cache.CacheService) *crawler.BaseCrawler {
	return crawler.NewBaseCrawler(crawler.Provider, c, cfg.RateLimitBlock, cfg.FetchInterval)
}
