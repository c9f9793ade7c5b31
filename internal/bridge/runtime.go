package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcpexec/backend/internal/agent"
	mcpclient "github.com/mcpexec/backend/internal/mcp"
	"github.com/mcpexec/backend/internal/promptcache"
)

// runtime is the per-user agent runtime: a model client (shared across
// users), a tool client scoped to exactly this user's container, and
// the system prompt captured when the runtime was built.
type runtime struct {
	userID       string
	model        agent.LLMProvider
	mcp          *mcpclient.Client
	tools        []agent.Tool
	systemPrompt string
}

func (r *runtime) Close() error {
	if r.mcp != nil {
		return r.mcp.Close()
	}
	return nil
}

// runtimeCache holds one runtime per live user id for process lifetime,
// with creation serialized per key so two concurrent requests for a new
// user id don't both dial the Tool & Prompt Server.
type runtimeCache struct {
	mcpServerURL string
	model        agent.LLMProvider
	promptCache  *promptcache.Cache
	logger       *slog.Logger

	mu       sync.Mutex
	runtimes map[string]*runtime
	userLock map[string]*sync.Mutex
}

func newRuntimeCache(mcpServerURL string, model agent.LLMProvider, promptCache *promptcache.Cache, logger *slog.Logger) *runtimeCache {
	return &runtimeCache{
		mcpServerURL: mcpServerURL,
		model:        model,
		promptCache:  promptCache,
		logger:       logger,
		runtimes:     make(map[string]*runtime),
		userLock:     make(map[string]*sync.Mutex),
	}
}

func (c *runtimeCache) lockFor(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.userLock[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.userLock[userID] = lock
	}
	return lock
}

// Get returns the cached runtime for userID, building one if this is
// the first request for that user id.
func (c *runtimeCache) Get(ctx context.Context, userID string) (*runtime, error) {
	lock := c.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	existing, ok := c.runtimes[userID]
	c.mu.Unlock()
	if ok {
		return existing, nil
	}

	client, err := mcpclient.New(ctx, c.mcpServerURL, userID, c.logger)
	if err != nil {
		return nil, fmt.Errorf("bridge: build mcp client for %s: %w", userID, err)
	}

	rt := &runtime{
		userID:       userID,
		model:        c.model,
		mcp:          client,
		tools:        mcpTools(client),
		systemPrompt: c.promptCache.Get(ctx),
	}

	c.mu.Lock()
	c.runtimes[userID] = rt
	c.mu.Unlock()
	return rt, nil
}

// Invalidate drops and closes the cached runtime for userID, if any,
// forcing the next Get to rebuild it (and re-capture the system
// prompt from the Prompt Cache).
func (c *runtimeCache) Invalidate(userID string) {
	c.mu.Lock()
	rt, ok := c.runtimes[userID]
	if ok {
		delete(c.runtimes, userID)
	}
	c.mu.Unlock()
	if ok {
		if err := rt.Close(); err != nil && c.logger != nil {
			c.logger.Warn("bridge: error closing evicted runtime", "user_id", userID, "error", err)
		}
	}
}

// CloseAll closes every cached runtime's MCP client; used at shutdown.
func (c *runtimeCache) CloseAll() {
	c.mu.Lock()
	runtimes := make([]*runtime, 0, len(c.runtimes))
	for _, rt := range c.runtimes {
		runtimes = append(runtimes, rt)
	}
	c.runtimes = make(map[string]*runtime)
	c.mu.Unlock()

	for _, rt := range runtimes {
		if err := rt.Close(); err != nil && c.logger != nil {
			c.logger.Warn("bridge: error closing runtime", "user_id", rt.userID, "error", err)
		}
	}
}
