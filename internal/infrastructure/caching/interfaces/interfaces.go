// Package interfaces defines the cache contracts used by repositories and
// services.
package interfaces

import (
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
)

// PageCache defines operations for page record caching
type PageCache interface {
	GetPage(id string) (*checkout.Page, bool)
	GetPageIDBySlug(slug string) (string, bool)
	SetPage(page *checkout.Page)
	GetAllPageIDs() ([]string, bool)
	SetAllPageIDs(ids []string)
	InvalidatePage(id string)
	InvalidateAllPageIDs()
	PurgeExpiredPages(ttl time.Duration) int
}

// HTMLChunkCache defines operations for rendered fragment caching
type HTMLChunkCache interface {
	GetHTMLChunk(pageID string, variant types.ChunkVariant) (string, bool)
	SetHTMLChunk(pageID string, variant types.ChunkVariant, html string, dependsOn []string)
	InvalidateHTMLChunk(pageID string, variant types.ChunkVariant)
	InvalidateByDependency(dependencyID string) int
	PurgeExpiredChunks(ttl time.Duration) int
}

// Cache combines every store behind one handle
type Cache interface {
	PageCache
	HTMLChunkCache
	InvalidatePageAndFragments(pageID string)
	Stats() types.CacheStats
	Clear()
}
