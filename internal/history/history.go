// Package history keeps a bounded, most-recent-first copy of a channel's
// message history. Remote fetches are routed through the shared remote call
// queue so they count against the same rate limit as every other call.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/sweeper/internal/queue"
)

// MaxFetch is the largest page the platform returns for one history request.
const MaxFetch = 100

// ErrInsufficientHistory is returned by LoadUntil when the channel ran out of
// messages before the requested count was reached.
var ErrInsufficientHistory = errors.New("history: not enough messages")

// Item is a local, non-authoritative copy of a remote message.
type Item struct {
	ID        string
	AuthorID  string
	Timestamp time.Time
}

// Fetcher reads a page of channel history. Items come back most recent first,
// all strictly older than before (or the newest messages when before is empty).
type Fetcher interface {
	Messages(ctx context.Context, channelID, before string, limit int) ([]Item, error)
}

// Runner executes a task and waits for it. *queue.Queue satisfies it.
type Runner interface {
	Do(ctx context.Context, task queue.Task) error
}

// Cache is a capacity-bounded view over one channel's history.
// len(Items()) never exceeds Capacity().
type Cache struct {
	channelID string
	fetcher   Fetcher
	runner    Runner

	mu        sync.Mutex
	capacity  int
	items     []Item
	exhausted bool
}

// New returns an empty cache with zero capacity.
func New(channelID string, fetcher Fetcher, runner Runner) *Cache {
	return &Cache{channelID: channelID, fetcher: fetcher, runner: runner}
}

// SetCapacity changes the bound. Shrinking drops the oldest items; zero
// releases everything.
func (c *Cache) SetCapacity(n int) {
	if n < 0 {
		n = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = n
	switch {
	case n == 0:
		c.items = nil
	case len(c.items) > n:
		c.items = append([]Item(nil), c.items[:n]...)
	}
}

// LoadMore fetches up to upTo additional items older than the oldest cached
// one, limited by MaxFetch and the remaining capacity. It reports whether any
// item was obtained. A short page marks the history as exhausted.
func (c *Cache) LoadMore(ctx context.Context, upTo int) (bool, error) {
	c.mu.Lock()
	limit := min(upTo, MaxFetch, c.capacity-len(c.items))
	if limit <= 0 || c.exhausted {
		c.mu.Unlock()
		return false, nil
	}
	before := ""
	if n := len(c.items); n > 0 {
		before = c.items[n-1].ID
	}
	c.mu.Unlock()

	var page []Item
	err := c.runner.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = c.fetcher.Messages(ctx, c.channelID, before, limit)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("fetch history of channel %s: %w", c.channelID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(page) < limit {
		c.exhausted = true
	}
	if room := c.capacity - len(c.items); len(page) > room {
		page = page[:max(room, 0)]
	}
	c.items = append(c.items, page...)
	return len(page) > 0, nil
}

// LoadUntil keeps loading until the cache holds n items. It fails with
// ErrInsufficientHistory when the history (or the capacity) runs out first,
// or with the fetch error when a remote call fails.
func (c *Cache) LoadUntil(ctx context.Context, n int) error {
	for {
		have := c.Len()
		if have >= n {
			return nil
		}
		loaded, err := c.LoadMore(ctx, n-have)
		if err != nil {
			return err
		}
		if !loaded {
			return fmt.Errorf("%w: have %d, want %d", ErrInsufficientHistory, c.Len(), n)
		}
	}
}

// Items returns a copy of the cached items, most recent first.
func (c *Cache) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the current bound.
func (c *Cache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Exhausted reports whether the platform ran out of older messages.
func (c *Cache) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}
