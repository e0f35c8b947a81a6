package manager

import (
	"testing"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/monitoring"
)

func TestPageInvalidationDropsDependentChunks(t *testing.T) {
	m := NewManager(time.Hour, time.Hour, nil)
	m.SetPage(&checkout.Page{ID: "p1", Slug: "curso"})
	m.SetHTMLChunk("p1", types.VariantCheckoutForm, "<form>", []string{"p1"})

	if id, ok := m.GetPageIDBySlug("curso"); !ok || id != "p1" {
		t.Fatalf("slug lookup = %q, %v", id, ok)
	}

	m.InvalidatePageAndFragments("p1")

	if _, ok := m.GetPage("p1"); ok {
		t.Error("page survived invalidation")
	}
	if _, ok := m.GetHTMLChunk("p1", types.VariantCheckoutForm); ok {
		t.Error("chunk survived page invalidation")
	}

	stats := m.Stats()
	if stats.Pages != 0 || stats.HTMLChunks != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLookupsAreMonitored(t *testing.T) {
	m := NewManager(time.Hour, time.Hour, nil)
	m.SetPage(&checkout.Page{ID: "p1", Slug: "curso"})

	m.GetPage("p1")
	m.GetPage("p1")
	m.GetPage("missing")

	pages, ok := m.Monitor().GetLayerMetrics(monitoring.LayerPages)
	if !ok {
		t.Fatal("pages layer not recorded")
	}
	if pages.CacheHits != 2 || pages.CacheMisses != 1 {
		t.Errorf("pages metrics = %+v", pages)
	}

	m.SetHTMLChunk("p1", types.VariantCheckoutForm, "<form>", nil)
	m.InvalidateByDependency("p1")
	chunks, _ := m.Monitor().GetLayerMetrics(monitoring.LayerHTMLChunk)
	if chunks.ManualEvictions != 1 {
		t.Errorf("chunk evictions = %d", chunks.ManualEvictions)
	}
}
