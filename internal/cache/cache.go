// Package cache keeps per-user query results in a ristretto cache and drops
// them when the user's data changes.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
}

// Ristretto adapts ristretto to Cache with a fixed TTL and unit cost.
type Ristretto[T any] struct {
	c   *ristretto.Cache[string, T]
	ttl time.Duration
}

// NewRistretto builds a cache holding at most maxItems entries.
// A zero ttl keeps entries until evicted.
func NewRistretto[T any](maxItems int64, ttl time.Duration) (*Ristretto[T], error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: maxItems * 10, // number of keys to track frequency of
		MaxCost:     maxItems,
		BufferItems: 64, // number of keys per Get buffer
		// every entry costs 1, so MaxCost counts entries
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init ristretto: %w", err)
	}
	return &Ristretto[T]{c: c, ttl: ttl}, nil
}

func (r *Ristretto[T]) Get(key string) (T, bool) {
	return r.c.Get(key)
}

func (r *Ristretto[T]) Set(key string, data T) {
	if r.ttl > 0 {
		r.c.SetWithTTL(key, data, 1, r.ttl)
		return
	}
	r.c.Set(key, data, 1)
}

// Delete removes key and waits for writes queued before it, so an older
// buffered Set cannot resurface after the delete returns.
func (r *Ristretto[T]) Delete(key string) {
	r.c.Del(key)
	r.c.Wait()
}

// Wait blocks until buffered writes are applied.
func (r *Ristretto[T]) Wait() {
	r.c.Wait()
}

func (r *Ristretto[T]) Close() {
	r.c.Close()
}

// UserCache scopes entries to a user so every entry of that user can be
// invalidated at once.
type UserCache[T any] struct {
	store Cache[T]

	mu   sync.Mutex
	keys map[string]map[string]struct{}
	gen  map[string]uint64
}

func NewUserCache[T any](store Cache[T]) *UserCache[T] {
	return &UserCache[T]{
		store: store,
		keys:  make(map[string]map[string]struct{}),
		gen:   make(map[string]uint64),
	}
}

func (u *UserCache[T]) Get(userID, key string) (T, bool) {
	return u.store.Get(scoped(userID, key))
}

// Load returns the cached value for key or calls fill and caches its result.
// A value computed while the user was invalidated is returned but not stored.
func (u *UserCache[T]) Load(userID, key string, fill func() (T, error)) (T, bool, error) {
	if v, ok := u.Get(userID, key); ok {
		return v, true, nil
	}

	u.mu.Lock()
	gen := u.gen[userID]
	u.mu.Unlock()

	v, err := fill()
	if err != nil {
		return v, false, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gen[userID] == gen {
		u.track(userID, key)
		u.store.Set(scoped(userID, key), v)
	}
	return v, false, nil
}

// Invalidate drops every entry stored for userID.
func (u *UserCache[T]) Invalidate(userID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gen[userID]++
	for key := range u.keys[userID] {
		u.store.Delete(scoped(userID, key))
	}
	delete(u.keys, userID)
}

func (u *UserCache[T]) track(userID, key string) {
	keys, ok := u.keys[userID]
	if !ok {
		keys = make(map[string]struct{})
		u.keys[userID] = keys
	}
	keys[key] = struct{}{}
}

func scoped(userID, key string) string {
	return userID + "|" + key
}
