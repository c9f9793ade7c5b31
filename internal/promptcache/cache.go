// Package promptcache holds a single, process-wide, TTL-bound cache of
// the rendered agent system prompt fetched from the Tool & Prompt
// Server, with a static fallback when the fetch fails.
package promptcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcpexec/backend/internal/observability"
)

// DefaultTTL is used when the caller configures zero.
const DefaultTTL = time.Hour

// FallbackPrompt is returned, uncached, when a fetch fails and no
// prior value is cached (or the cached value has expired).
const FallbackPrompt = "You are an AI agent with access to a sandboxed execution environment. " +
	"Tools are currently unavailable; proceed conservatively and inform the user if a task requires them."

// Fetcher retrieves a fresh prompt from the Tool & Prompt Server.
type Fetcher func(ctx context.Context) (string, error)

// Cache is a single-slot, thread-safe cache for the rendered prompt.
type Cache struct {
	fetch   Fetcher
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	value     string
	fetchedAt time.Time
	hasValue  bool
	inFlight  chan struct{}
}

// New returns a Cache that calls fetch on a miss and treats values as
// fresh for ttl (DefaultTTL if ttl <= 0).
func New(fetch Fetcher, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{fetch: fetch, ttl: ttl, metrics: metrics, logger: logger}
}

// Get returns the cached prompt if fresh, otherwise fetches a new one.
// On fetch failure it returns FallbackPrompt without caching it.
// Concurrent callers during a miss share a single in-flight fetch.
func (c *Cache) Get(ctx context.Context) string {
	c.mu.Lock()
	if c.hasValue && time.Since(c.fetchedAt) < c.ttl {
		v := c.value
		c.mu.Unlock()
		c.observe("hit")
		return v
	}

	if c.inFlight != nil {
		wait := c.inFlight
		c.mu.Unlock()
		<-wait
		return c.Get(ctx)
	}

	done := make(chan struct{})
	c.inFlight = done
	c.mu.Unlock()

	value, err := c.fetch(ctx)

	c.mu.Lock()
	c.inFlight = nil
	close(done)
	if err != nil {
		c.mu.Unlock()
		c.observe("fallback")
		if c.logger != nil {
			c.logger.Warn("prompt cache: fetch failed, serving fallback", "error", err)
		}
		return FallbackPrompt
	}
	c.value = value
	c.fetchedAt = time.Now()
	c.hasValue = true
	c.mu.Unlock()
	c.observe("refresh")
	return value
}

// Invalidate clears the cached value, forcing the next Get to fetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasValue = false
	c.value = ""
}

func (c *Cache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.PromptCacheResult.WithLabelValues(outcome).Inc()
	}
}
