package graphin

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// RistrettoStore is a CacheStore bounded by entry count. Entries may be
// evicted before their TTL runs out when the store is full; admission is
// decided by ristretto's TinyLFU policy, so a Set is not guaranteed to stick.
type RistrettoStore struct {
	cache *ristretto.Cache[string, *CacheEntry]
}

// NewRistrettoStore creates a store that holds at most maxEntries responses.
func NewRistrettoStore(maxEntries int64) (*RistrettoStore, error) {
	if maxEntries <= 0 {
		return nil, &ClientError{
			Type:    ErrorTypeConfiguration,
			Message: "ristretto store needs a positive entry limit",
			Cause:   ErrInvalidCacheStore,
		}
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *CacheEntry]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true, // cost counts entries, not bytes
	})
	if err != nil {
		return nil, errors.Wrap(err, "graphin: creating ristretto cache")
	}
	return &RistrettoStore{cache: cache}, nil
}

func (s *RistrettoStore) Get(key string) (*CacheEntry, bool) {
	return s.cache.Get(key)
}

// Set stores entry with a cost of one and waits for the write buffer to
// drain, so a following Get observes it unless it was rejected.
func (s *RistrettoStore) Set(key string, entry *CacheEntry) {
	s.cache.Set(key, entry, 1)
	s.cache.Wait()
}

func (s *RistrettoStore) Delete(key string) {
	s.cache.Del(key)
}

func (s *RistrettoStore) Clear() {
	s.cache.Clear()
}

// Close stops ristretto's background goroutines.
func (s *RistrettoStore) Close() {
	s.cache.Close()
}
