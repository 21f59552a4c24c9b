package pipeline

import (
	"sync"

	"ForexPilot/internal/models"
)

// PriceCache holds the latest tick per symbol. The pipeline's event loop is
// the only writer; readers get copies and never block a write for longer
// than the map access itself.
type PriceCache struct {
	mu    sync.RWMutex
	ticks map[string]models.PriceTick
}

func NewPriceCache() *PriceCache {
	return &PriceCache{
		ticks: make(map[string]models.PriceTick),
	}
}

// Set overwrites the cached tick for its symbol. Last write wins.
func (c *PriceCache) Set(tick models.PriceTick) {
	c.mu.Lock()
	c.ticks[tick.Symbol] = tick
	c.mu.Unlock()
}

// Latest returns a copy of the most recent tick for symbol.
func (c *PriceCache) Latest(symbol string) (models.PriceTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tick, ok := c.ticks[symbol]
	return tick, ok
}

// Snapshot returns a copy of every cached tick.
func (c *PriceCache) Snapshot() map[string]models.PriceTick {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.PriceTick, len(c.ticks))
	for symbol, tick := range c.ticks {
		out[symbol] = tick
	}
	return out
}
