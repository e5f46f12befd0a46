// README: Cached pricing configuration with lazy, race-free reload.
package pricing

import (
	"context"
	"log/slog"
	"sync"
)

// Source loads the full key→value configuration map. Implemented by the
// pgx store; nil means defaults only (tests, local runs without a DB).
type Source interface {
	LoadAll(ctx context.Context) (map[string]float64, error)
}

// Config is a process-wide cache over the pricing_configs table. Reads
// tolerate an empty cache by reloading synchronously; the mutex is held
// across the reload so concurrent readers wait for a single load instead
// of stampeding the store.
type Config struct {
	mu     sync.Mutex
	values map[string]float64
	source Source
}

func NewConfig(source Source) *Config {
	return &Config{source: source}
}

// Get returns the configured value for key, falling back to def when the
// key is absent or the source cannot be read.
func (c *Config) Get(ctx context.Context, key string, def float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.values) == 0 {
		c.reloadLocked(ctx)
	}
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// Invalidate drops the cache; the next Get reloads from the source.
func (c *Config) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = nil
}

func (c *Config) reloadLocked(ctx context.Context) {
	if c.source == nil {
		return
	}
	values, err := c.source.LoadAll(ctx)
	if err != nil {
		slog.Warn("pricing config load failed, using defaults", "error", err)
		return
	}
	c.values = values
}
