// Package manager provides centralized cache operations by delegating to the
// page and fragment stores.
package manager

import (
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/interfaces"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/stores"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/monitoring"
)

var _ interfaces.Cache = (*Manager)(nil)

// Manager is the single cache handle shared by repositories and services.
type Manager struct {
	pageStore      *stores.PageStore
	fragmentsStore *stores.FragmentsStore
	monitor        *monitoring.CacheMonitor
	logger         *logging.ChanneledLogger
}

// NewManager creates the cache manager with the given entry lifetimes.
func NewManager(pageTTL, chunkTTL time.Duration, logger *logging.ChanneledLogger) *Manager {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	logger.Cache().Info("Initializing cache manager",
		"stores", []string{"pages", "fragments"},
		"pageTTL", pageTTL, "chunkTTL", chunkTTL)

	return &Manager{
		pageStore:      stores.NewPageStore(pageTTL),
		fragmentsStore: stores.NewFragmentsStore(chunkTTL),
		monitor:        monitoring.NewCacheMonitor(nil),
		logger:         logger,
	}
}

func (m *Manager) GetPage(id string) (*checkout.Page, bool) {
	start := time.Now()
	page, ok := m.pageStore.GetPage(id)
	elapsed := time.Since(start)
	m.monitor.RecordCacheOperation(monitoring.LayerPages, ok, elapsed)
	m.logger.LogCacheOperation("get_page", id, ok, elapsed)
	return page, ok
}

func (m *Manager) GetPageIDBySlug(slug string) (string, bool) {
	return m.pageStore.GetPageIDBySlug(slug)
}

func (m *Manager) SetPage(page *checkout.Page) {
	m.pageStore.SetPage(page)
}

func (m *Manager) GetAllPageIDs() ([]string, bool) {
	return m.pageStore.GetAllPageIDs()
}

func (m *Manager) SetAllPageIDs(ids []string) {
	m.pageStore.SetAllPageIDs(ids)
}

func (m *Manager) InvalidatePage(id string) {
	m.pageStore.InvalidatePage(id)
}

func (m *Manager) InvalidateAllPageIDs() {
	m.pageStore.InvalidateAllPageIDs()
}

func (m *Manager) PurgeExpiredPages(ttl time.Duration) int {
	n := m.pageStore.PurgeExpiredPages(ttl)
	m.monitor.RecordEviction(monitoring.LayerPages, monitoring.EvictionTTL, n)
	return n
}

func (m *Manager) GetHTMLChunk(pageID string, variant types.ChunkVariant) (string, bool) {
	start := time.Now()
	html, ok := m.fragmentsStore.GetHTMLChunk(pageID, variant)
	elapsed := time.Since(start)
	m.monitor.RecordCacheOperation(monitoring.LayerHTMLChunk, ok, elapsed)
	m.logger.LogCacheOperation("get_html_chunk", stores.BuildChunkKey(pageID, variant), ok, elapsed)
	return html, ok
}

func (m *Manager) SetHTMLChunk(pageID string, variant types.ChunkVariant, html string, dependsOn []string) {
	m.fragmentsStore.SetHTMLChunk(pageID, variant, html, dependsOn)
}

func (m *Manager) InvalidateHTMLChunk(pageID string, variant types.ChunkVariant) {
	m.fragmentsStore.InvalidateHTMLChunk(pageID, variant)
}

func (m *Manager) InvalidateByDependency(dependencyID string) int {
	n := m.fragmentsStore.InvalidateByDependency(dependencyID)
	m.monitor.RecordEviction(monitoring.LayerHTMLChunk, monitoring.EvictionManual, n)
	return n
}

func (m *Manager) PurgeExpiredChunks(ttl time.Duration) int {
	n := m.fragmentsStore.PurgeExpiredChunks(ttl)
	m.monitor.RecordEviction(monitoring.LayerHTMLChunk, monitoring.EvictionTTL, n)
	return n
}

// InvalidatePageAndFragments drops a page record, the id list and every
// fragment rendered from it.
func (m *Manager) InvalidatePageAndFragments(pageID string) {
	m.pageStore.InvalidatePage(pageID)
	m.pageStore.InvalidateAllPageIDs()
	removed := m.fragmentsStore.InvalidateByDependency(pageID)
	m.monitor.RecordEviction(monitoring.LayerHTMLChunk, monitoring.EvictionManual, removed)
	m.logger.Cache().Debug("Page cache invalidated", "pageId", pageID, "fragmentsRemoved", removed)
}

// Stats reports the store sizes.
func (m *Manager) Stats() types.CacheStats {
	pages, slugs := m.pageStore.Len()
	return types.CacheStats{
		Pages:      pages,
		Slugs:      slugs,
		HTMLChunks: m.fragmentsStore.Len(),
	}
}

// Monitor returns the hit ratio and eviction tracker of the stores.
func (m *Manager) Monitor() *monitoring.CacheMonitor {
	return m.monitor
}

// Clear empties every store.
func (m *Manager) Clear() {
	m.pageStore.Clear()
	m.fragmentsStore.Clear()
	m.logger.Cache().Info("All caches cleared")
}
