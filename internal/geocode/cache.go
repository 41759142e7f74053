package geocode

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/playperu/whereonearth/internal/whereonearth"
)

// Resolver is the subset of a geocoder the cache wraps.
type Resolver interface {
	Resolve(ctx context.Context, text string) (whereonearth.Place, error)
}

// Cache memoises successful lookups and collapses concurrent identical
// queries into one upstream call. Misses are not cached so a transient
// failure can be retried.
type Cache struct {
	next  Resolver
	group singleflight.Group
	size  int

	mu      sync.Mutex
	entries map[string]whereonearth.Place
	order   []string
}

func NewCache(next Resolver, size int) *Cache {
	if size <= 0 {
		size = 512
	}
	return &Cache{
		next:    next,
		size:    size,
		entries: make(map[string]whereonearth.Place, size),
	}
}

func normalise(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func (c *Cache) Resolve(ctx context.Context, text string) (whereonearth.Place, error) {
	key := normalise(text)
	if key == "" {
		return whereonearth.Place{}, whereonearth.ErrLocationNotFound
	}

	c.mu.Lock()
	p, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.next.Resolve(context.WithoutCancel(ctx), text)
	})
	select {
	case <-ctx.Done():
		return whereonearth.Place{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return whereonearth.Place{}, res.Err
		}
		place := res.Val.(whereonearth.Place)
		c.store(key, place)
		return place, nil
	}
}

func (c *Cache) store(key string, p whereonearth.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = p
	c.order = append(c.order, key)
}
