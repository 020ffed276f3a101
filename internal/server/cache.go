package server

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/deskdriver/deskdriver/internal/model"
	"github.com/deskdriver/deskdriver/internal/platform"
)

// treeKey identifies one tree read scope. Two reads share an entry only
// when they target the same window with the same capture settings.
type treeKey struct {
	PID    int32
	Title  string
	Config string
}

// treeEntry holds a captured tree with its capture time.
type treeEntry struct {
	tree *model.UINode
	at   time.Time
}

// TreeCache is a TTL cache for captured trees. Capture is the expensive
// half of every read tool, and agents tend to issue bursts of reads
// against the same window between actions.
type TreeCache struct {
	mu      sync.Mutex
	entries map[treeKey]treeEntry
	ttl     time.Duration
}

// NewTreeCache creates a cache. A ttl of 0 disables caching.
func NewTreeCache(ttl time.Duration) *TreeCache {
	return &TreeCache{
		entries: make(map[treeKey]treeEntry),
		ttl:     ttl,
	}
}

// configKey folds the capture settings that change tree shape into the
// cache key. Timing knobs stay out; they affect how long a capture takes,
// not what it returns.
func configKey(cfg platform.TreeBuildConfig) string {
	depth := "all"
	if cfg.MaxDepth != nil {
		depth = strconv.Itoa(*cfg.MaxDepth)
	}
	return fmt.Sprintf("%s/%s/%t/%s", cfg.Mode, depth, cfg.IncludeAllBounds, cfg.FromSelector)
}

// Tree returns the cached tree for the window while fresh, capturing
// through capture otherwise. The caller must hold the engine mutex.
func (c *TreeCache) Tree(pid int32, title string, cfg platform.TreeBuildConfig, capture func() (*model.UINode, error)) (*model.UINode, error) {
	if c.ttl == 0 {
		return capture()
	}

	key := treeKey{PID: pid, Title: title, Config: configKey(cfg)}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.at) < c.ttl {
		tree := entry.tree
		c.mu.Unlock()
		return tree, nil
	}
	c.mu.Unlock()

	tree, err := capture()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = treeEntry{tree: tree, at: time.Now()}
	c.mu.Unlock()

	return tree, nil
}

// InvalidatePID removes all cache entries for the given process.
func (c *TreeCache) InvalidatePID(pid int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.PID == pid {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll clears the entire cache.
func (c *TreeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[treeKey]treeEntry)
}
