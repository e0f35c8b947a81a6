package checkout

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/manager"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
)

type fixture struct {
	pages    *PageRepository
	payments *PaymentRepository
	settings *SettingsRepository
	cache    *manager.Manager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewDiscardLogger()

	db, err := database.Open(ctx, database.Options{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewTableCreator().CreateSchema(ctx, db.DB); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	cache := manager.NewManager(time.Hour, time.Hour, logger)
	return fixture{
		pages:    NewPageRepository(db.DB, cache, logger),
		payments: NewPaymentRepository(db.DB, logger),
		settings: NewSettingsRepository(db.DB, logger),
		cache:    cache,
	}
}

func samplePage(id, slug string) *checkout.Page {
	now := time.Now().UTC()
	return &checkout.Page{
		ID:             id,
		Slug:           slug,
		Title:          "Curso de Go",
		ProductName:    "Curso de Go",
		AmountCents:    4990,
		PrimaryColor:   "#0ea5e9",
		ShowLogo:       true,
		CustomElements: `[{"id":"e1","type":"text","position":5,"content":"Oferta"}]`,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestPageRepositoryCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	page := samplePage("p1", "curso-go")
	if err := f.pages.Store(ctx, page); err != nil {
		t.Fatalf("Store: %v", err)
	}

	f.cache.Clear()
	got, err := f.pages.FindBySlug(ctx, "curso-go")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if got.ID != "p1" || got.AmountCents != 4990 || !got.ShowLogo || !got.Active {
		t.Errorf("loaded page = %+v", got)
	}
	if got.CustomElements != page.CustomElements {
		t.Errorf("custom elements = %q", got.CustomElements)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}

	got.Slug = "curso-go-2"
	got.CustomTitle = "Nova oferta"
	if err := f.pages.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.pages.FindBySlug(ctx, "curso-go"); !errors.Is(err, checkout.ErrPageNotFound) {
		t.Errorf("old slug still resolves: %v", err)
	}

	f.cache.Clear()
	reloaded, err := f.pages.FindByID(ctx, "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.CustomTitle != "Nova oferta" || reloaded.Slug != "curso-go-2" {
		t.Errorf("update not persisted: %+v", reloaded)
	}

	if err := f.pages.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.pages.FindByID(ctx, "p1"); !errors.Is(err, checkout.ErrPageNotFound) {
		t.Errorf("FindByID after delete = %v", err)
	}
	if err := f.pages.Delete(ctx, "p1"); !errors.Is(err, checkout.ErrPageNotFound) {
		t.Errorf("second Delete = %v", err)
	}
}

func TestPageRepositorySlugUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.pages.Store(ctx, samplePage("p1", "oferta")); err != nil {
		t.Fatal(err)
	}
	if err := f.pages.Store(ctx, samplePage("p2", "oferta")); !errors.Is(err, checkout.ErrSlugTaken) {
		t.Errorf("duplicate slug error = %v", err)
	}

	exists, err := f.pages.SlugExists(ctx, "oferta", "")
	if err != nil || !exists {
		t.Errorf("SlugExists = %v, %v", exists, err)
	}
	exists, err = f.pages.SlugExists(ctx, "oferta", "p1")
	if err != nil || exists {
		t.Errorf("SlugExists excluding owner = %v, %v", exists, err)
	}
}

func TestPageRepositoryFindAllUsesIDList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := samplePage("p1", "a")
	older.CreatedAt = time.Now().Add(-time.Hour)
	if err := f.pages.Store(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := f.pages.Store(ctx, samplePage("p2", "b")); err != nil {
		t.Fatal(err)
	}

	pages, err := f.pages.FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0].ID != "p2" {
		t.Fatalf("FindAll order = %v", pageIDs(pages))
	}
	if _, ok := f.cache.GetAllPageIDs(); !ok {
		t.Error("id list not cached")
	}

	if err := f.pages.Store(ctx, samplePage("p3", "c")); err != nil {
		t.Fatal(err)
	}
	pages, err = f.pages.FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Errorf("FindAll after store = %v", pageIDs(pages))
	}
}

func pageIDs(pages []*checkout.Page) []string {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.ID
	}
	return ids
}

func samplePayment(id, pageID string, expires time.Time) *checkout.Payment {
	now := time.Now().UTC()
	return &checkout.Payment{
		ID:          id,
		PageID:      pageID,
		GatewayID:   "gw-" + id,
		AmountCents: 4990,
		Status:      checkout.StatusPending,
		Customer: checkout.Customer{
			Name:  "Maria Silva",
			Email: "maria@example.com",
			TaxID: "52998224725",
		},
		PixCode:   "00020126...",
		ExpiresAt: expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPaymentRepositoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.pages.Store(ctx, samplePage("p1", "oferta")); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	if err := f.payments.Store(ctx, samplePayment("pay1", "p1", now.Add(-time.Minute))); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := f.payments.Store(ctx, samplePayment("pay2", "p1", now.Add(30*time.Minute))); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := f.payments.FindByID(ctx, "pay1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Customer.TaxID != "52998224725" || got.Status != checkout.StatusPending || got.PaidAt != nil {
		t.Errorf("loaded payment = %+v", got)
	}

	expired, err := f.payments.FindPendingExpiredBefore(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].ID != "pay1" {
		t.Errorf("expired = %d payments", len(expired))
	}

	paidAt := now
	changed, err := f.payments.UpdateStatus(ctx, "pay2", checkout.StatusPaid, &paidAt)
	if err != nil || !changed {
		t.Fatalf("paid transition: changed=%v err=%v", changed, err)
	}
	// terminal rows do not move
	changed, err = f.payments.UpdateStatus(ctx, "pay2", checkout.StatusExpired, nil)
	if err != nil || changed {
		t.Fatalf("terminal transition: changed=%v err=%v", changed, err)
	}
	got, err = f.payments.FindByID(ctx, "pay2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != checkout.StatusPaid || got.PaidAt == nil {
		t.Errorf("paid payment = %+v", got)
	}

	pending, err := f.payments.FindPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d", len(pending))
	}

	list, err := f.payments.FindByPageID(ctx, "p1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("limited list = %d", len(list))
	}

	if _, err := f.payments.UpdateStatus(ctx, "missing", checkout.StatusPaid, nil); !errors.Is(err, checkout.ErrPaymentNotFound) {
		t.Errorf("update of missing payment = %v", err)
	}
}

func TestPaymentsDeletedWithPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.pages.Store(ctx, samplePage("p1", "oferta")); err != nil {
		t.Fatal(err)
	}
	if err := f.payments.Store(ctx, samplePayment("pay1", "p1", time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := f.pages.Delete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.payments.FindByID(ctx, "pay1"); !errors.Is(err, checkout.ErrPaymentNotFound) {
		t.Errorf("payment survived page delete: %v", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing, err := f.settings.Get(ctx, checkout.SettingAIModel)
	if err != nil || missing != nil {
		t.Fatalf("Get missing = %v, %v", missing, err)
	}

	if err := f.settings.Set(ctx, &checkout.Setting{Key: checkout.SettingAIModel, Value: "gpt-4o-mini"}); err != nil {
		t.Fatal(err)
	}
	if err := f.settings.Set(ctx, &checkout.Setting{Key: checkout.SettingAIModel, Value: "claude-3-5-haiku"}); err != nil {
		t.Fatal(err)
	}
	if err := f.settings.Set(ctx, &checkout.Setting{Key: checkout.SettingAIAPIKey, Value: "cipher", Encrypted: true}); err != nil {
		t.Fatal(err)
	}

	got, err := f.settings.Get(ctx, checkout.SettingAIModel)
	if err != nil || got == nil || got.Value != "claude-3-5-haiku" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	all, err := f.settings.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Key != checkout.SettingAIAPIKey || !all[0].Encrypted {
		t.Errorf("All = %+v", all)
	}

	if err := f.settings.Delete(ctx, checkout.SettingAIAPIKey); err != nil {
		t.Fatal(err)
	}
	if got, _ := f.settings.Get(ctx, checkout.SettingAIAPIKey); got != nil {
		t.Error("setting survived delete")
	}
}
