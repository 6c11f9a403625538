package cache

import "fmt"

// RevisionCache stores values computed from a specific ledger revision. A
// lookup only hits when the caller's current revision matches the one the
// value was stored under, so a mutation invalidates every entry at once.
type RevisionCache[T any] struct {
	lru *LRUCache[T]
}

func NewRevisionCache[T any](lru *LRUCache[T]) *RevisionCache[T] {
	return &RevisionCache[T]{lru: lru}
}

func revisionKey(key string, revision uint64) string {
	return fmt.Sprintf("%s@%d", key, revision)
}

func (c *RevisionCache[T]) Get(key string, revision uint64) (T, bool) {
	return c.lru.Get(revisionKey(key, revision))
}

func (c *RevisionCache[T]) Set(key string, revision uint64, v T) {
	c.lru.Set(revisionKey(key, revision), v)
}

// GetOrCompute returns the cached value for (key, revision) or stores the
// result of compute. Errors are not cached.
func (c *RevisionCache[T]) GetOrCompute(key string, revision uint64, compute func() (T, error)) (T, error) {
	if v, ok := c.Get(key, revision); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	c.Set(key, revision, v)
	return v, nil
}

func (c *RevisionCache[T]) CleanExpired() int {
	return c.lru.CleanExpired()
}
