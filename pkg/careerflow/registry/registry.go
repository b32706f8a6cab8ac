// Package registry provides a concurrency-safe keyed registry.
//
// The orchestrator keeps one lock per active conversation in a Registry, and the
// LLM provider table maps provider names to constructors.
package registry

import "sync"

// Registry is a thread-safe map of values indexed by key.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: make(map[K]V)}
}

// Register adds or replaces the value for key.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Get returns the value for key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Delete removes key.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Len returns the number of entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns all keys in unspecified order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// Update replaces the value for key with the result of fn, which receives
// the current value and whether it exists. When fn returns keep=false the
// key is removed. fn runs under the write lock and must not call back
// into r.
func (r *Registry[K, V]) Update(key K, fn func(v V, ok bool) (V, bool)) V {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[key]
	v, keep := fn(v, ok)
	if keep {
		r.entries[key] = v
	} else {
		delete(r.entries, key)
	}
	return v
}

// GetOrCreate returns the value for key, creating it with factory when
// absent. factory runs at most once per key even under concurrent calls.
func (r *Registry[K, V]) GetOrCreate(key K, factory func() V) V {
	r.mu.RLock()
	v, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.entries[key]; ok {
		return v
	}
	v = factory()
	r.entries[key] = v
	return v
}
