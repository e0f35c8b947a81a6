package stores

import (
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
)

// FragmentsStore implements rendered HTML fragment caching
type FragmentsStore struct {
	cache *types.HTMLChunkCache
	ttl   time.Duration
	once  sync.Once
}

// NewFragmentsStore creates a fragment store whose chunks expire after ttl.
func NewFragmentsStore(ttl time.Duration) *FragmentsStore {
	return &FragmentsStore{ttl: ttl}
}

func (fs *FragmentsStore) get() *types.HTMLChunkCache {
	fs.once.Do(func() {
		fs.cache = &types.HTMLChunkCache{
			Chunks: make(map[string]*types.HTMLChunk),
			Deps:   make(map[string][]string),
		}
	})
	return fs.cache
}

// BuildChunkKey creates the cache key for a page variant
func BuildChunkKey(pageID string, variant types.ChunkVariant) string {
	return pageID + ":" + string(variant)
}

// GetHTMLChunk retrieves an unexpired chunk
func (fs *FragmentsStore) GetHTMLChunk(pageID string, variant types.ChunkVariant) (string, bool) {
	cache := fs.get()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	chunk, ok := cache.Chunks[BuildChunkKey(pageID, variant)]
	if !ok {
		return "", false
	}
	if fs.ttl > 0 && time.Since(chunk.LastUpdated) > fs.ttl {
		return "", false
	}
	return chunk.HTML, true
}

// SetHTMLChunk stores a chunk and records its dependencies. The page itself is
// always a dependency.
func (fs *FragmentsStore) SetHTMLChunk(pageID string, variant types.ChunkVariant, html string, dependsOn []string) {
	cache := fs.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	key := BuildChunkKey(pageID, variant)
	deps := append([]string{pageID}, dependsOn...)
	cache.Chunks[key] = &types.HTMLChunk{
		HTML:        html,
		DependsOn:   deps,
		LastUpdated: time.Now().UTC(),
	}

	for _, dep := range deps {
		if !containsKey(cache.Deps[dep], key) {
			cache.Deps[dep] = append(cache.Deps[dep], key)
		}
	}
}

// InvalidateHTMLChunk removes one chunk
func (fs *FragmentsStore) InvalidateHTMLChunk(pageID string, variant types.ChunkVariant) {
	cache := fs.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	fs.removeChunkLocked(cache, BuildChunkKey(pageID, variant))
}

// InvalidateByDependency removes every chunk depending on an id.
func (fs *FragmentsStore) InvalidateByDependency(dependencyID string) int {
	cache := fs.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	keys := append([]string(nil), cache.Deps[dependencyID]...)
	for _, key := range keys {
		fs.removeChunkLocked(cache, key)
	}
	delete(cache.Deps, dependencyID)
	return len(keys)
}

// PurgeExpiredChunks drops chunks older than ttl.
func (fs *FragmentsStore) PurgeExpiredChunks(ttl time.Duration) int {
	cache := fs.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	removed := 0
	for key, chunk := range cache.Chunks {
		if time.Since(chunk.LastUpdated) > ttl {
			fs.removeChunkLocked(cache, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached chunks.
func (fs *FragmentsStore) Len() int {
	cache := fs.get()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	return len(cache.Chunks)
}

// Clear empties the store.
func (fs *FragmentsStore) Clear() {
	cache := fs.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.Chunks = make(map[string]*types.HTMLChunk)
	cache.Deps = make(map[string][]string)
}

func (fs *FragmentsStore) removeChunkLocked(cache *types.HTMLChunkCache, key string) {
	chunk, ok := cache.Chunks[key]
	if !ok {
		return
	}
	delete(cache.Chunks, key)
	for _, dep := range chunk.DependsOn {
		remaining := cache.Deps[dep][:0]
		for _, k := range cache.Deps[dep] {
			if k != key {
				remaining = append(remaining, k)
			}
		}
		if len(remaining) == 0 {
			delete(cache.Deps, dep)
		} else {
			cache.Deps[dep] = remaining
		}
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
