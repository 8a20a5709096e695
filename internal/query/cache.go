// Package query is a client-side cache of remote read results keyed by
// procedure path, with the cancel / get / set / invalidate operations used
// for optimistic updates.
//
// Writers are serialised by the cache lock. Every fetch carries the entry's
// generation at start; Cancel, Invalidate and newer fetches bump the
// generation, and a fetch only writes back if its generation is still
// current. Once Cancel returns, the cancelled fetch can no longer touch the
// entry.
package query

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned by a fetch that was superseded or cancelled.
var ErrCancelled = errors.New("query cancelled")

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type fetchFunc func(ctx context.Context) (any, error)

type entry struct {
	data    any
	hasData bool
	status  Status
	err     error
	stale   bool

	gen    uint64
	cancel context.CancelFunc
	fetch  fetchFunc

	nextSub int
	subs    map[int]func()
}

// Cache holds query entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// entryLocked returns the entry for key, creating it. c.mu must be held.
func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{status: StatusIdle, subs: make(map[int]func())}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) mount(key string, fn fetchFunc) {
	c.mu.Lock()
	c.entryLocked(key).fetch = fn
	c.mu.Unlock()
}

// run executes fn as the current fetch of key.
func (c *Cache) run(ctx context.Context, key string, fn fetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	fctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.status = StatusLoading
	subs := e.listeners()
	c.mu.Unlock()
	notify(subs)

	v, err := fn(fctx)

	c.mu.Lock()
	if e.gen != gen {
		c.mu.Unlock()
		cancel()
		return nil, ErrCancelled
	}
	cancel()
	e.cancel = nil
	if err != nil {
		e.status = StatusError
		e.err = err
	} else {
		e.data = v
		e.hasData = true
		e.status = StatusSuccess
		e.err = nil
		e.stale = false
	}
	subs = e.listeners()
	c.mu.Unlock()
	notify(subs)

	return v, err
}

// Cancel aborts the in-flight fetch of key, if any, and guarantees its
// result is discarded.
func (c *Cache) Cancel(key string) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.cancel == nil {
		c.mu.Unlock()
		return
	}
	e.cancel()
	e.cancel = nil
	e.gen++
	if e.hasData {
		e.status = StatusSuccess
	} else {
		e.status = StatusIdle
	}
	subs := e.listeners()
	c.mu.Unlock()
	notify(subs)
}

// GetData returns the cached value for key.
func (c *Cache) GetData(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// SetData overwrites the cached value for key. It does not cancel an
// in-flight fetch; call Cancel first when the write must not be overwritten.
func (c *Cache) SetData(key string, v any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.data = v
	e.hasData = true
	e.status = StatusSuccess
	e.err = nil
	subs := e.listeners()
	c.mu.Unlock()
	notify(subs)
}

// Invalidate marks key stale and, if a query is mounted for it, refetches.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.stale = true
	fn := e.fetch
	subs := e.listeners()
	c.mu.Unlock()
	notify(subs)

	if fn == nil {
		return nil
	}
	_, err := c.run(ctx, key, fn)
	return err
}

// Subscribe registers fn to be called after every change to key.
func (c *Cache) Subscribe(key string, fn func()) (unsubscribe func()) {
	c.mu.Lock()
	e := c.entryLocked(key)
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(e.subs, id)
		c.mu.Unlock()
	}
}

type snapshot struct {
	data    any
	hasData bool
	status  Status
	err     error
	stale   bool
}

func (c *Cache) snapshot(key string) snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	return snapshot{data: e.data, hasData: e.hasData, status: e.status, err: e.err, stale: e.stale}
}

func (e *entry) listeners() []func() {
	if len(e.subs) == 0 {
		return nil
	}
	out := make([]func(), 0, len(e.subs))
	for _, fn := range e.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
