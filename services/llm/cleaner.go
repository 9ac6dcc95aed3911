package llm

import (
	"context"
	"strings"
	"time"

	"sjsage522/tokoworker/logger"
	"sjsage522/tokoworker/services/cache"
)

// TitleCleaner reduces a noisy listing title to its core product name.
// Implementations never fail: any problem yields the original title.
type TitleCleaner interface {
	CleanTitle(ctx context.Context, title, l1, l2, l3 string) string
}

const cleanerSystemPrompt = "You are a deterministic extractor."

const cleanerPrompt = `You are a deterministic product title normalizer for semantic embedding.

TASK:
Extract a clean and compact product title suitable for semantic embedding.

RULES:
- Keep the product type. (e.g., Battery, Battery Charger)
- KEEP brand names. (Canon, Brica, Citycall, Energizer)
- KEEP essential series/model identifiers. (LP-E8, AE1, AE2, M26, E91)
- REMOVE promo, bundle, count, B2G1, variant, color, etc.

### STRICT RULES:
- Output ONLY the core product name.
- Do NOT add or invent words.
- Do NOT remove or rewrite core words.
- Do NOT include inch, cm, watt, GB, model numbers, year, variant, or color.
- Do NOT rephrase or translate.

### EXAMPLES:
"Round Air Grill 4 inch Circular Air Diffuser" -> "Air Grill"
"Rumah/cover Depan kipas angin maspion" -> "cover kipas angin"
"iPhone 14 Pro Max 128GB Purple" -> "iPhone 14"
"ASUS ROG Strix Z490 Gaming Motherboard" -> "ASUS ROG Strix Motherboard"

### CATEGORY LOCK:
L1: {l1}
L2: {l2}
L3: {l3}
You MUST NOT output anything not in the original title.

OUTPUT FORMAT:
"<Product Type> <Brand> <Series>"

Product Title:
"{title}"`

// BuildCleanerPrompt fills the cleaner prompt for one title.
func BuildCleanerPrompt(title, l1, l2, l3 string) string {
	return strings.NewReplacer(
		"{title}", title,
		"{l1}", l1,
		"{l2}", l2,
		"{l3}", l3,
	).Replace(cleanerPrompt)
}

// ChatCleaner cleans titles with any Chatter.
type ChatCleaner struct {
	chat  Chatter
	model string
	name  string
}

// NewOpenAICleaner cleans titles with an OpenAI chat model.
func NewOpenAICleaner(client *OpenAIClient, model string) *ChatCleaner {
	return &ChatCleaner{chat: client, model: model, name: "openai"}
}

// NewOllamaCleaner cleans titles with a local Ollama model.
func NewOllamaCleaner(client *OllamaClient, model string) *ChatCleaner {
	return &ChatCleaner{chat: client, model: model, name: "ollama"}
}

// NewChatCleaner cleans titles with chat.
func NewChatCleaner(chat Chatter, model string) *ChatCleaner {
	return &ChatCleaner{chat: chat, model: model, name: "chat"}
}

// CleanTitle implements TitleCleaner.
func (c *ChatCleaner) CleanTitle(ctx context.Context, title, l1, l2, l3 string) string {
	answer, err := c.chat.Chat(ctx, ChatRequest{
		Model:  c.model,
		System: cleanerSystemPrompt,
		User:   BuildCleanerPrompt(title, l1, l2, l3),
	})
	if err != nil {
		logger.ForLLM().Warn().Str("provider", c.name).Err(err).Str("title", title).Msg("title cleanup failed")
		return title
	}
	if cleaned := stripQuotes(answer); cleaned != "" {
		return cleaned
	}
	return title
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// CachedCleaner memoizes cleaned titles so a re-crawl does not pay for the
// same completion twice.
type CachedCleaner struct {
	next  TitleCleaner
	cache cache.CacheService
	ttl   time.Duration
}

// NewCachedCleaner wraps next with cache entries that live for ttl.
func NewCachedCleaner(next TitleCleaner, c cache.CacheService, ttl time.Duration) *CachedCleaner {
	return &CachedCleaner{next: next, cache: c, ttl: ttl}
}

// CleanTitle implements TitleCleaner.
func (c *CachedCleaner) CleanTitle(ctx context.Context, title, l1, l2, l3 string) string {
	key := cache.HashKey("title", title, l1, l2, l3)
	if v, err := c.cache.Get(key); err == nil && len(v) > 0 {
		return string(v)
	}

	cleaned := c.next.CleanTitle(ctx, title, l1, l2, l3)
	// An unchanged title may be a failed cleanup; leave it uncached.
	if cleaned != title {
		if err := c.cache.Set(key, []byte(cleaned), c.ttl); err != nil {
			logger.ForCache().Debug().Err(err).Msg("cannot cache cleaned title")
		}
	}
	return cleaned
}
