package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/manager"
	"github.com/pixpage/pixpage/internal/infrastructure/email"
	"github.com/pixpage/pixpage/internal/infrastructure/gateway/for4payments"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	persistence "github.com/pixpage/pixpage/internal/infrastructure/persistence/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
	checkouttpl "github.com/pixpage/pixpage/internal/presentation/templates/checkout"
)

const validCPF = "529.982.247-25"

type env struct {
	logger    *logging.ChanneledLogger
	tracker   *performance.Tracker
	cache     *manager.Manager
	pageRepo  *persistence.PageRepository
	payRepo   *persistence.PaymentRepository
	settings  *persistence.SettingsRepository
	pages     *PageService
	elements  *ElementService
	renderer  *checkouttpl.Renderer
	gateway   *fakeGateway
	publisher *fakePublisher
	mailer    *fakeMailer
	tokens    *security.PaymentTokens
}

func newEnv(t *testing.T) *env {
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

	e := &env{
		logger:    logger,
		tracker:   performance.NewTracker(nil),
		cache:     manager.NewManager(time.Hour, time.Hour, logger),
		renderer:  checkouttpl.NewRenderer("", logger),
		gateway:   &fakeGateway{status: checkout.StatusPending},
		publisher: &fakePublisher{},
		mailer:    &fakeMailer{},
		tokens:    security.NewPaymentTokens("test-secret", time.Hour),
	}
	e.pageRepo = persistence.NewPageRepository(db.DB, e.cache, logger)
	e.payRepo = persistence.NewPaymentRepository(db.DB, logger)
	e.settings = persistence.NewSettingsRepository(db.DB, logger)
	e.pages = NewPageService(e.pageRepo, e.cache, logger, e.tracker)
	e.elements = NewElementService(e.pages, e.renderer, logger)
	return e
}

func (e *env) paymentService(t *testing.T, poll time.Duration) *PaymentService {
	t.Helper()
	svc := NewPaymentService(e.payRepo, e.pages, e.gateway, e.tokens, e.publisher, e.mailer,
		PaymentOptions{Expiration: 30 * time.Minute, PollInterval: poll, PublicBaseURL: "https://loja.test"},
		e.logger, e.tracker)
	t.Cleanup(svc.Shutdown)
	return svc
}

func (e *env) createPage(t *testing.T, title string) *checkout.Page {
	t.Helper()
	page, err := e.pages.Create(context.Background(), PageInput{
		Title:          title,
		ProductName:    "Curso de Go",
		AmountCents:    4990,
		PrimaryColor:   "#0ea5e9",
		SuccessMessage: "Obrigado!",
	})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	return page
}

func validCustomer() checkout.Customer {
	return checkout.Customer{Name: "Maria Silva", Email: "Maria@Example.com ", TaxID: validCPF}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type fakeGateway struct {
	mu      sync.Mutex
	creates int
	checks  int
	status  checkout.PaymentStatus
	qr      string
	release chan struct{}
	err     error
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req for4payments.ChargeRequest) (*for4payments.Charge, error) {
	g.mu.Lock()
	g.creates++
	release, err, qr := g.release, g.err, g.qr
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &for4payments.Charge{
		GatewayID:   "gw-" + req.ExternalID,
		PixCode:     "00020126580014BR.GOV.BCB.PIX",
		QRCodeImage: qr,
		Status:      checkout.StatusPending,
	}, nil
}

func (g *fakeGateway) ChargeStatus(ctx context.Context, gatewayID string) (checkout.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++
	return g.status, nil
}

func (g *fakeGateway) setStatus(s checkout.PaymentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = s
}

func (g *fakeGateway) createCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.creates
}

type fakePublisher struct {
	mu      sync.Mutex
	updates []checkout.StatusUpdate
}

func (p *fakePublisher) Publish(u checkout.StatusUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

func (p *fakePublisher) published() []checkout.StatusUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]checkout.StatusUpdate(nil), p.updates...)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.PaymentConfirmation
}

func (m *fakeMailer) SendPaymentConfirmation(msg email.PaymentConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
