package graphin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()

	if store == nil {
		t.Fatal("NewInMemoryStore() returned nil")
	}

	if len(store.shards) != store.numShards {
		t.Errorf("Expected %d shards, got %d", store.numShards, len(store.shards))
	}

	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d entries", store.Len())
	}
}

func TestInMemoryStoreGetSet(t *testing.T) {
	store := NewInMemoryStore()

	if _, found := store.Get("nonexistent"); found {
		t.Error("Expected false for non-existent key")
	}

	store.Set("key", NewCacheEntry(json.RawMessage(`{"a":1}`)))

	entry, found := store.Get("key")
	if !found {
		t.Fatal("Expected true for existing key")
	}
	if string(entry.Data) != `{"a":1}` {
		t.Errorf("Expected '{\"a\":1}', got '%s'", entry.Data)
	}
}

func TestInMemoryStoreOneEntryPerKey(t *testing.T) {
	store := NewInMemoryStore()

	store.Set("key", NewCacheEntry(json.RawMessage(`1`)))
	store.Set("key", NewCacheEntry(json.RawMessage(`2`)))

	if store.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", store.Len())
	}
	entry, _ := store.Get("key")
	if string(entry.Data) != "2" {
		t.Errorf("Expected last write to win, got %s", entry.Data)
	}
}

func TestInMemoryStoreDeleteAndClear(t *testing.T) {
	store := NewInMemoryStore()

	for i := 0; i < 40; i++ {
		store.Set(fmt.Sprintf("key-%d", i), NewCacheEntry(json.RawMessage(`null`)))
	}
	store.Delete("key-0")

	if _, found := store.Get("key-0"); found {
		t.Error("Expected deleted entry to be gone")
	}
	if store.Len() != 39 {
		t.Errorf("Expected 39 entries, got %d", store.Len())
	}

	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Expected empty store after Clear, got %d", store.Len())
	}
}

func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			store.Set(key, NewCacheEntry(json.RawMessage(fmt.Sprint(i))))
			store.Get(key)
		}(i)
	}
	wg.Wait()

	if store.Len() != 5 {
		t.Errorf("Expected 5 entries, got %d", store.Len())
	}
}

func TestCacheEntryUpdate(t *testing.T) {
	entry := NewCacheEntry(json.RawMessage(`"old"`))
	before := entry.Timestamp

	time.Sleep(5 * time.Millisecond)
	entry.Update(json.RawMessage(`"new"`))

	if string(entry.Data) != `"new"` {
		t.Errorf("Expected data to be overwritten, got %s", entry.Data)
	}
	if !entry.Timestamp.After(before) {
		t.Error("Expected timestamp to be reset")
	}
}

func TestIsStale(t *testing.T) {
	fresh := &CacheEntry{Timestamp: time.Now()}
	old := &CacheEntry{Timestamp: time.Now().Add(-time.Hour)}

	if IsStale(fresh, time.Minute) {
		t.Error("Expected fresh entry not to be stale")
	}
	if !IsStale(old, time.Minute) {
		t.Error("Expected hour-old entry to be stale with a one minute TTL")
	}
	if IsStale(old, 2*time.Hour) {
		t.Error("Expected hour-old entry to be fresh with a two hour TTL")
	}
	if !IsStale(nil, time.Hour) {
		t.Error("Expected nil entry to be stale")
	}
}

func TestRistrettoStore(t *testing.T) {
	store, err := NewRistrettoStore(100)
	if err != nil {
		t.Fatalf("NewRistrettoStore() returned error: %v", err)
	}
	defer store.Close()

	store.Set("key", NewCacheEntry(json.RawMessage(`{"a":1}`)))
	entry, found := store.Get("key")
	if !found {
		t.Fatal("Expected stored entry to be found")
	}
	if string(entry.Data) != `{"a":1}` {
		t.Errorf("Expected '{\"a\":1}', got '%s'", entry.Data)
	}

	store.Delete("key")
	if _, found := store.Get("key"); found {
		t.Error("Expected deleted entry to be gone")
	}
}

func TestRistrettoStoreInvalidSize(t *testing.T) {
	if _, err := NewRistrettoStore(0); !IsConfigurationError(err) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestClientWithRistrettoStore(t *testing.T) {
	store, err := NewRistrettoStore(100)
	if err != nil {
		t.Fatalf("NewRistrettoStore() returned error: %v", err)
	}
	defer store.Close()

	transport := newRecordingTransport(200, counterBody())
	client := newTestClient(t, transport, WithCache(time.Minute), WithCacheStore(store))

	first, err := client.Query(context.Background(), "test")
	if err != nil {
		t.Fatalf("Query() returned error: %v", err)
	}
	second, err := client.Query(context.Background(), "test")
	if err != nil {
		t.Fatalf("Query() returned error: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("Expected cached value %s, got %s", first, second)
	}
	if transport.Calls() != 1 {
		t.Errorf("Expected 1 transport call, got %d", transport.Calls())
	}
}

func TestCachedDataIsNotSharedWithCallers(t *testing.T) {
	transport := newRecordingTransport(200, func() interface{} {
		return map[string]interface{}{"data": map[string]int{"n": 1}}
	})
	client := newTestClient(t, transport, WithCache(time.Minute))

	first, err := client.Query(context.Background(), "{n}")
	if err != nil {
		t.Fatalf("Query() returned error: %v", err)
	}
	first[0] = 'X'

	second, err := client.Query(context.Background(), "{n}")
	if err != nil {
		t.Fatalf("Query() returned error: %v", err)
	}
	if string(second) != `{"n":1}` {
		t.Errorf("Expected cached data to be unaffected, got %s", second)
	}
	second[0] = 'Y'

	third, _ := client.Query(context.Background(), "{n}")
	if string(third) != `{"n":1}` {
		t.Errorf("Expected cached data to be unaffected by hits, got %s", third)
	}
	if transport.Calls() != 1 {
		t.Errorf("Expected 1 transport call, got %d", transport.Calls())
	}
}
