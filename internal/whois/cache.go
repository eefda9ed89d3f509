package whois

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BetterCallFirewall/techscope/internal/models"
)

// Fetcher всё, что ищет домен так же, как Client
type Fetcher interface {
	Fetch(ctx context.Context, domain string) ([]models.Finding, error)
}

// CachedFetcher кэширует успешные ответы WHOIS по домену
type CachedFetcher struct {
	next    Fetcher
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	findings  []models.Finding
	timestamp time.Time
	hits      int
}

// NewCachedFetcher оборачивает next. Неудачные запросы не кешируются.
func NewCachedFetcher(next Fetcher, ttl time.Duration, maxSize int) *CachedFetcher {
	if maxSize < 1 {
		maxSize = 1
	}
	return &CachedFetcher{
		next:    next,
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		cache:   make(map[string]*cacheEntry, maxSize),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, domain string) ([]models.Finding, error) {
	key := strings.ToLower(strings.TrimSpace(domain))
	if findings, ok := c.get(key); ok {
		return findings, nil
	}

	findings, err := c.next.Fetch(ctx, domain)
	if err != nil {
		return nil, err
	}
	c.set(key, findings)
	return cloneFindings(findings), nil
}

func (c *CachedFetcher) get(key string) ([]models.Finding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.cache, key)
		return nil, false
	}
	entry.hits++
	return cloneFindings(entry.findings), true
}

func (c *CachedFetcher) set(key string, findings []models.Finding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache[key]; !ok && len(c.cache) >= c.maxSize {
		c.evictOldest()
	}
	c.cache[key] = &cacheEntry{findings: cloneFindings(findings), timestamp: c.now()}
}

// evictOldest вызывается под mu.
func (c *CachedFetcher) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range c.cache {
		if oldestKey == "" || entry.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.cache, oldestKey)
	}
}

// CacheStats снимок состояния кеша
type CacheStats struct {
	Size      int `json:"size"`
	MaxSize   int `json:"max_size"`
	TotalHits int `json:"total_hits"`
}

func (c *CachedFetcher) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{Size: len(c.cache), MaxSize: c.maxSize}
	for _, entry := range c.cache {
		stats.TotalHits += entry.hits
	}
	return stats
}

func cloneFindings(in []models.Finding) []models.Finding {
	if in == nil {
		return nil
	}
	return append([]models.Finding{}, in...)
}
