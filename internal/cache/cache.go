package cache

import "sync"

// Cache is a generic thread-safe build-once cache.
//
// Each key is built at most once. Concurrent callers asking for the same
// key block until the first build finishes and then share its result,
// including a failed one: errors are cached and never retried.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*cacheEntry[V]
}

// cacheEntry holds a single build. done is closed once value and err are
// final; only the goroutine that inserted the entry writes them.
type cacheEntry[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*cacheEntry[V]),
	}
}

// GetOrCreate returns the cached result for key, calling create on first use.
// create runs outside the cache lock, so building one key never blocks
// lookups of another.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok {
		c.mu.Unlock()
		<-entry.done
		return entry.value, entry.err
	}
	entry = &cacheEntry[V]{done: make(chan struct{})}
	c.entries[key] = entry
	c.mu.Unlock()

	entry.build(create)
	return entry.value, entry.err
}

// build runs create and publishes its result. If create panics, waiters
// see errBuildAborted and the panic propagates to the builder.
func (e *cacheEntry[V]) build(create func() (V, error)) {
	defer close(e.done)
	e.err = errBuildAborted
	e.value, e.err = create()
}

// Len returns the number of keys, including failed and in-flight builds.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Drain removes every entry and calls fn for each successfully built value.
// It is used to release resources the values own. Builds still in flight
// are waited for, so their values are released too.
func (c *Cache[K, V]) Drain(fn func(K, V)) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[K]*cacheEntry[V])
	c.mu.Unlock()

	for k, e := range entries {
		<-e.done
		if e.err == nil && fn != nil {
			fn(k, e.value)
		}
	}
}
