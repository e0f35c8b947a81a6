// Package types holds the cache entry structures shared by the stores.
package types

import (
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
)

// PageCache holds loaded page records keyed by id, with a slug index.
type PageCache struct {
	Pages       map[string]*PageEntry
	SlugToID    map[string]string
	AllPageIDs  []string
	AllLoadedAt time.Time
	LastUpdated time.Time
	Mu          sync.RWMutex
}

// PageEntry is one cached page.
type PageEntry struct {
	Page     *checkout.Page
	CachedAt time.Time
}

// HTMLChunk is a rendered fragment of a checkout page.
type HTMLChunk struct {
	HTML        string
	DependsOn   []string
	LastUpdated time.Time
}

// HTMLChunkCache holds rendered fragments keyed by page id and variant, with
// a reverse index from dependency id to chunk keys.
type HTMLChunkCache struct {
	Chunks map[string]*HTMLChunk
	Deps   map[string][]string
	Mu     sync.RWMutex
}

// ChunkVariant names the rendered form of a page.
type ChunkVariant string

const (
	VariantCheckoutForm ChunkVariant = "form"
	VariantPreview      ChunkVariant = "preview"
)

// CacheStats reports store sizes for the health endpoint.
type CacheStats struct {
	Pages      int `json:"pages"`
	Slugs      int `json:"slugs"`
	HTMLChunks int `json:"htmlChunks"`
}
