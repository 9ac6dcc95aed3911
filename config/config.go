package config

import (
	"os"
	"strconv"
	"time"

	"sjsage522/tokoworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Postgres configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// OpenAI-compatible API configuration
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	EmbeddingModel     string
	EmbeddingDimension int

	// Title cleaner and query understanding
	CleanerProvider string
	CleanerModel    string
	QueryModel      string
	OllamaURL       string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int64

	// Memcache configuration
	MemcacheAddr string

	// Fetch configuration
	FetchTimeout   time.Duration
	FetchInterval  time.Duration
	RateLimitBlock time.Duration

	// Crawl configuration
	CrawlPages         int
	ProductConcurrency int
	OutputDir          string
	BaseURL            string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	embeddingDim, _ := strconv.Atoi(getEnv("EMBEDDING_DIMENSION", "1536"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.ParseInt(getEnv("REDIS_STREAM_MAX_LENGTH", "10000"), 10, 64)
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "50"))
	fetchInterval, _ := strconv.Atoi(getEnv("FETCH_INTERVAL_MS", "1000"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))
	crawlPages, _ := strconv.Atoi(getEnv("CRAWL_PAGES", "1"))
	concurrency, _ := strconv.Atoi(getEnv("PRODUCT_CONCURRENCY", "4"))

	return &Config{
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               dbPort,
		DBUser:               getEnv("DB_USER", "admin"),
		DBPassword:           getEnv("DB_PASSWORD", "admin"),
		DBName:               getEnv("DB_NAME", "db_ecommerce"),
		DBSSLMode:            getEnv("DB_SSLMODE", "disable"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:       getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension:   embeddingDim,
		CleanerProvider:      getEnv("CLEANER_PROVIDER", "openai"),
		CleanerModel:         getEnv("CLEANER_MODEL", "gpt-4.1-mini"),
		QueryModel:           getEnv("QUERY_MODEL", "gpt-4o-mini"),
		OllamaURL:            getEnv("OLLAMA_URL", "http://localhost:11434"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "products"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		FetchInterval:        time.Duration(fetchInterval) * time.Millisecond,
		RateLimitBlock:       time.Duration(blockSeconds) * time.Second,
		CrawlPages:           crawlPages,
		ProductConcurrency:   concurrency,
		OutputDir:            getEnv("OUTPUT_DIR", "output"),
		BaseURL:              getEnv("TOKOPEDIA_BASE_URL", "https://www.tokopedia.com"),
		Environment:          getEnv("TOKO_ENVIRONMENT", "development"),
	}
}

// DSN returns the lib/pq connection string
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" port=" + strconv.Itoa(c.DBPort) +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSSLMode +
		" connect_timeout=5"
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	switch c.CleanerProvider {
	case "openai", "ollama":
	default:
		return errors.NewConfiguration("CLEANER_PROVIDER must be openai or ollama, got "+c.CleanerProvider, nil)
	}
	if c.DBPort <= 0 {
		return errors.NewConfiguration("DB_PORT must be a positive number", nil)
	}
	if c.EmbeddingDimension <= 0 {
		return errors.NewConfiguration("EMBEDDING_DIMENSION must be a positive number", nil)
	}
	if c.RedisStreamCount <= 0 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be a positive number", nil)
	}
	if c.ProductConcurrency <= 0 {
		return errors.NewConfiguration("PRODUCT_CONCURRENCY must be a positive number", nil)
	}
	if c.CrawlPages <= 0 {
		return errors.NewConfiguration("CRAWL_PAGES must be a positive number", nil)
	}
	return nil
}

// RequireOpenAI fails when no API key is configured
func (c *Config) RequireOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return errors.NewConfiguration("OPENAI_API_KEY is not set", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
