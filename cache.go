package graphin

import (
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"
)

// CacheEntry is a cached response body and the time it was captured.
type CacheEntry struct {
	Data      json.RawMessage
	Timestamp time.Time
}

// NewCacheEntry returns an entry holding data stamped with the current time.
func NewCacheEntry(data json.RawMessage) *CacheEntry {
	e := &CacheEntry{}
	return e.Update(data)
}

// Update overwrites the data and resets the timestamp.
func (e *CacheEntry) Update(data json.RawMessage) *CacheEntry {
	e.Data = data
	e.Timestamp = time.Now()
	return e
}

// IsStale reports whether entry is older than ttl. A nil entry is stale.
func IsStale(entry *CacheEntry, ttl time.Duration) bool {
	if entry == nil {
		return true
	}
	return time.Since(entry.Timestamp) > ttl
}

// CacheStore maps literal request URLs to cache entries. Stores never decide
// staleness themselves; the client checks entries against the call's TTL.
type CacheStore interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry)
	Delete(key string)
	Clear()
}

// InMemoryStore is the default CacheStore: a sharded map living as long as
// the client that owns it.
type InMemoryStore struct {
	shards    []*storeShard
	numShards int
}

type storeShard struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
}

func NewInMemoryStore() *InMemoryStore {
	numShards := 16
	shards := make([]*storeShard, numShards)
	for i := range shards {
		shards[i] = &storeShard{
			store: make(map[string]*CacheEntry),
		}
	}
	return &InMemoryStore{
		shards:    shards,
		numShards: numShards,
	}
}

func (s *InMemoryStore) getShard(key string) *storeShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return s.shards[hash.Sum32()%uint32(s.numShards)]
}

func (s *InMemoryStore) Get(key string) (*CacheEntry, bool) {
	shard := s.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	entry, exists := shard.store[key]
	return entry, exists
}

func (s *InMemoryStore) Set(key string, entry *CacheEntry) {
	shard := s.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.store[key] = entry
}

func (s *InMemoryStore) Delete(key string) {
	shard := s.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, key)
}

func (s *InMemoryStore) Clear() {
	for _, shard := range s.shards {
		shard.mu.Lock()
		shard.store = make(map[string]*CacheEntry)
		shard.mu.Unlock()
	}
}

// Len returns the number of entries across all shards.
func (s *InMemoryStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}

// lookupCache returns a copy of the cached data for key when it is younger
// than ttl.
func (c *Client) lookupCache(key string, ttl time.Duration) (json.RawMessage, bool) {
	entry, found := c.cache.Get(key)
	if !found || IsStale(entry, ttl) {
		return nil, false
	}
	return cloneData(entry.Data), true
}

// storeCache replaces the entry for key wholesale with a private copy of
// data; published entries are never mutated.
func (c *Client) storeCache(key string, data json.RawMessage) {
	c.cache.Set(key, NewCacheEntry(cloneData(data)))

	if sized, ok := c.cache.(interface{ Len() int }); ok {
		c.metrics.RecordCacheSize(sized.Len())
	}
}
