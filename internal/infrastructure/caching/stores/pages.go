// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
)

// PageStore caches page records
type PageStore struct {
	cache *types.PageCache
	ttl   time.Duration
	once  sync.Once
}

// NewPageStore creates a page store whose entries expire after ttl.
func NewPageStore(ttl time.Duration) *PageStore {
	return &PageStore{ttl: ttl}
}

func (ps *PageStore) get() *types.PageCache {
	ps.once.Do(func() {
		ps.cache = &types.PageCache{
			Pages:       make(map[string]*types.PageEntry),
			SlugToID:    make(map[string]string),
			LastUpdated: time.Now().UTC(),
		}
	})
	return ps.cache
}

// GetPage returns a copy of a cached page.
func (ps *PageStore) GetPage(id string) (*checkout.Page, bool) {
	cache := ps.get()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	entry, ok := cache.Pages[id]
	if !ok || ps.expired(entry.CachedAt) {
		return nil, false
	}
	page := *entry.Page
	return &page, true
}

// GetPageIDBySlug resolves a slug through the index.
func (ps *PageStore) GetPageIDBySlug(slug string) (string, bool) {
	cache := ps.get()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	id, ok := cache.SlugToID[slug]
	return id, ok
}

// SetPage stores a copy of the page and indexes its slug.
func (ps *PageStore) SetPage(page *checkout.Page) {
	if page == nil {
		return
	}
	cache := ps.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if old, ok := cache.Pages[page.ID]; ok && old.Page.Slug != page.Slug {
		delete(cache.SlugToID, old.Page.Slug)
	}

	stored := *page
	cache.Pages[page.ID] = &types.PageEntry{Page: &stored, CachedAt: time.Now().UTC()}
	cache.SlugToID[page.Slug] = page.ID
	cache.LastUpdated = time.Now().UTC()
}

// GetAllPageIDs returns the cached id list.
func (ps *PageStore) GetAllPageIDs() ([]string, bool) {
	cache := ps.get()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.AllPageIDs == nil || ps.expired(cache.AllLoadedAt) {
		return nil, false
	}
	ids := make([]string, len(cache.AllPageIDs))
	copy(ids, cache.AllPageIDs)
	return ids, true
}

// SetAllPageIDs stores the full id list.
func (ps *PageStore) SetAllPageIDs(ids []string) {
	cache := ps.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.AllPageIDs = append(make([]string, 0, len(ids)), ids...)
	cache.AllLoadedAt = time.Now().UTC()
}

// InvalidatePage drops a page and its slug index entry.
func (ps *PageStore) InvalidatePage(id string) {
	cache := ps.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if entry, ok := cache.Pages[id]; ok {
		delete(cache.SlugToID, entry.Page.Slug)
		delete(cache.Pages, id)
	}
	for slug, pid := range cache.SlugToID {
		if pid == id {
			delete(cache.SlugToID, slug)
		}
	}
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateAllPageIDs forces the next list to hit the database.
func (ps *PageStore) InvalidateAllPageIDs() {
	cache := ps.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.AllPageIDs = nil
}

// PurgeExpiredPages drops entries older than ttl and returns how many.
func (ps *PageStore) PurgeExpiredPages(ttl time.Duration) int {
	cache := ps.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	removed := 0
	for id, entry := range cache.Pages {
		if time.Since(entry.CachedAt) > ttl {
			delete(cache.SlugToID, entry.Page.Slug)
			delete(cache.Pages, id)
			removed++
		}
	}
	if cache.AllPageIDs != nil && time.Since(cache.AllLoadedAt) > ttl {
		cache.AllPageIDs = nil
		removed++
	}
	return removed
}

// Len returns the number of cached pages and slugs.
func (ps *PageStore) Len() (pages, slugs int) {
	cache := ps.get()
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	return len(cache.Pages), len(cache.SlugToID)
}

// Clear empties the store.
func (ps *PageStore) Clear() {
	cache := ps.get()
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.Pages = make(map[string]*types.PageEntry)
	cache.SlugToID = make(map[string]string)
	cache.AllPageIDs = nil
}

func (ps *PageStore) expired(at time.Time) bool {
	return ps.ttl > 0 && time.Since(at) > ps.ttl
}
