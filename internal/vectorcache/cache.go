// Package vectorcache persists computed embeddings so repeated predictions
// of the same text skip the encoder entirely.
package vectorcache

import "time"

// Cache stores embedding vectors keyed by a content hash.
type Cache interface {
	// Initialize prepares the cache backing store at the given path.
	Initialize(path string) error

	// Get returns the cached embedding for key, and whether it was present.
	Get(key string) ([]float32, bool, error)

	// Put stores an embedding under key.
	Put(key string, embedding []float32, timestamp time.Time) error

	// Close releases the backing store.
	Close() error
}
