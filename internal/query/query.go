package query

import "context"

// State is a typed view of a cache entry.
type State[T any] struct {
	Status  Status
	Data    T
	HasData bool
	Err     error
	Stale   bool
}

// Loading reports whether the entry has no data yet and a fetch is pending
// or not yet started.
func (s State[T]) Loading() bool {
	return !s.HasData && (s.Status == StatusLoading || s.Status == StatusIdle)
}

// Query is a typed handle on one cache entry with its fetcher.
type Query[T any] struct {
	cache *Cache
	key   string
	fetch func(ctx context.Context) (T, error)
}

// NewQuery mounts fetch as the fetcher for key in c.
func NewQuery[T any](c *Cache, key string, fetch func(ctx context.Context) (T, error)) *Query[T] {
	q := &Query[T]{cache: c, key: key, fetch: fetch}
	c.mount(key, q.untyped)
	return q
}

func (q *Query[T]) untyped(ctx context.Context) (any, error) {
	return q.fetch(ctx)
}

// Key is the cache key.
func (q *Query[T]) Key() string { return q.key }

// Fetch runs the fetcher and stores its result unless the fetch is
// cancelled or superseded first.
func (q *Query[T]) Fetch(ctx context.Context) (T, error) {
	v, err := q.cache.run(ctx, q.key, q.untyped)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Cancel aborts an in-flight fetch; its result will be discarded.
func (q *Query[T]) Cancel() { q.cache.Cancel(q.key) }

// GetData returns the cached data.
func (q *Query[T]) GetData() (T, bool) {
	v, ok := q.cache.GetData(q.key)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// SetData overwrites the cached data.
func (q *Query[T]) SetData(v T) { q.cache.SetData(q.key, v) }

// Invalidate marks the data stale and refetches.
func (q *Query[T]) Invalidate(ctx context.Context) error {
	return q.cache.Invalidate(ctx, q.key)
}

// Subscribe calls fn after every change to the entry.
func (q *Query[T]) Subscribe(fn func()) (unsubscribe func()) {
	return q.cache.Subscribe(q.key, fn)
}

// State returns a snapshot of the entry.
func (q *Query[T]) State() State[T] {
	snap := q.cache.snapshot(q.key)
	s := State[T]{Status: snap.status, HasData: snap.hasData, Err: snap.err, Stale: snap.stale}
	if snap.hasData {
		s.Data = snap.data.(T)
	}
	return s
}
