package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
)

func TestCreatePaymentRejectsInvalidCustomer(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")

	_, err := svc.Create(context.Background(), page, checkout.Customer{Name: "Ana", Email: "x", TaxID: "111.111.111-11"})
	var fields checkout.FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("err = %v", err)
	}
	for _, f := range []string{"name", "email", "taxId"} {
		if fields[f] == "" {
			t.Errorf("missing error for %s", f)
		}
	}
	if e.gateway.createCalls() != 0 {
		t.Error("gateway called for invalid customer")
	}
}

func TestCreatePaymentInactivePage(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")
	page.Active = false

	if _, err := svc.Create(context.Background(), page, validCustomer()); !errors.Is(err, checkout.ErrPageInactive) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreatePayment(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")
	ctx := context.Background()

	created, err := svc.Create(ctx, page, validCustomer())
	if err != nil {
		t.Fatal(err)
	}
	p := created.Payment
	if p.Status != checkout.StatusPending || p.AmountCents != 4990 || p.Customer.TaxID != "52998224725" || p.Customer.Email != "maria@example.com" {
		t.Errorf("payment = %+v", p)
	}
	if !strings.HasPrefix(p.QRCodeImage, "data:image/png;base64,") {
		t.Error("QR code not generated when the gateway returned none")
	}
	if left := p.SecondsLeft(time.Now()); left < 29*60 || left > 30*60 {
		t.Errorf("seconds left = %d", left)
	}
	if svc.Watching() != 1 {
		t.Errorf("watching = %d", svc.Watching())
	}

	got, err := svc.Status(ctx, p.ID, created.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.GatewayID != "gw-"+p.ID {
		t.Errorf("gateway id = %s", got.GatewayID)
	}
	if _, err := svc.Status(ctx, p.ID, "forged"); !errors.Is(err, checkout.ErrInvalidToken) {
		t.Errorf("forged token: %v", err)
	}
	if _, err := svc.Status(ctx, p.ID, ""); !errors.Is(err, checkout.ErrInvalidToken) {
		t.Errorf("empty token: %v", err)
	}
}

func TestCreatePaymentKeepsGatewayQRCode(t *testing.T) {
	e := newEnv(t)
	e.gateway.qr = "data:image/png;base64,R0FURVdBWQ=="
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")

	created, err := svc.Create(context.Background(), page, validCustomer())
	if err != nil {
		t.Fatal(err)
	}
	if created.Payment.QRCodeImage != e.gateway.qr {
		t.Errorf("qr = %s", created.Payment.QRCodeImage)
	}
}

func TestCreatePaymentGatewayError(t *testing.T) {
	e := newEnv(t)
	e.gateway.err = checkout.ErrGatewayNotConfigured
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")

	if _, err := svc.Create(context.Background(), page, validCustomer()); !errors.Is(err, checkout.ErrGatewayNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	list, err := svc.ListByPage(context.Background(), page.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("payments stored after gateway failure: %d", len(list))
	}
}

func TestConcurrentSubmissionsShareCharge(t *testing.T) {
	e := newEnv(t)
	e.gateway.release = make(chan struct{})
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")

	var wg sync.WaitGroup
	results := make([]*CreatedPayment, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Create(context.Background(), page, validCustomer())
		}(i)
	}

	waitUntil(t, func() bool { return e.gateway.createCalls() >= 1 })
	time.Sleep(50 * time.Millisecond)
	close(e.gateway.release)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if e.gateway.createCalls() != 1 {
		t.Errorf("gateway charged %d times", e.gateway.createCalls())
	}
	if results[0].Payment.ID != results[1].Payment.ID {
		t.Error("duplicate submissions produced different payments")
	}
}

func TestSyncPaidSendsOneReceipt(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")
	ctx := context.Background()

	created, err := svc.Create(ctx, page, validCustomer())
	if err != nil {
		t.Fatal(err)
	}
	e.gateway.setStatus(checkout.StatusPaid)

	for i := 0; i < 2; i++ {
		status, err := svc.Sync(ctx, created.Payment.ID)
		if err != nil {
			t.Fatal(err)
		}
		if status != checkout.StatusPaid {
			t.Fatalf("status = %s", status)
		}
	}

	if e.mailer.count() != 1 {
		t.Fatalf("receipts sent = %d", e.mailer.count())
	}
	msg := e.mailer.sent[0]
	if msg.To != "maria@example.com" || msg.ProductName != "Curso de Go" || msg.PageURL != "https://loja.test/p/"+page.Slug || msg.AccentColor != "#0ea5e9" {
		t.Errorf("receipt = %+v", msg)
	}

	updates := e.publisher.published()
	if len(updates) != 1 || updates[0].Status != checkout.StatusPaid || updates[0].PaidAt == nil {
		t.Errorf("updates = %+v", updates)
	}

	stored, err := svc.Get(ctx, created.Payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != checkout.StatusPaid || stored.PaidAt == nil {
		t.Errorf("stored = %+v", stored)
	}
}

func TestExpireStale(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")
	ctx := context.Background()

	created, err := svc.Create(ctx, page, validCustomer())
	if err != nil {
		t.Fatal(err)
	}

	n, err := svc.ExpireStale(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expired = %d", n)
	}
	if svc.Watching() != 0 {
		t.Error("watcher kept running for an expired payment")
	}

	stored, _ := svc.Get(ctx, created.Payment.ID)
	if stored.Status != checkout.StatusExpired {
		t.Errorf("status = %s", stored.Status)
	}
	if e.mailer.count() != 0 {
		t.Error("receipt sent for expired payment")
	}

	// a late paid status cannot revive it
	e.gateway.setStatus(checkout.StatusPaid)
	if status, _ := svc.Sync(ctx, created.Payment.ID); status != checkout.StatusExpired {
		t.Errorf("status after late sync = %s", status)
	}
}

func TestStatusExpiresOverduePayment(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")
	ctx := context.Background()

	created, err := svc.Create(ctx, page, validCustomer())
	if err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	got, err := svc.Status(ctx, created.Payment.ID, created.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != checkout.StatusExpired {
		t.Errorf("status = %s", got.Status)
	}
}

func TestWatcherFollowsPaymentToPaid(t *testing.T) {
	e := newEnv(t)
	svc := e.paymentService(t, 10*time.Millisecond)
	page := e.createPage(t, "Curso")
	ctx := context.Background()

	created, err := svc.Create(ctx, page, validCustomer())
	if err != nil {
		t.Fatal(err)
	}
	e.gateway.setStatus(checkout.StatusPaid)

	waitUntil(t, func() bool { return svc.Watching() == 0 })
	stored, err := svc.Get(ctx, created.Payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != checkout.StatusPaid {
		t.Errorf("status = %s", stored.Status)
	}
	if e.mailer.count() != 1 {
		t.Errorf("receipts = %d", e.mailer.count())
	}
}

func TestResumePending(t *testing.T) {
	e := newEnv(t)
	first := e.paymentService(t, time.Hour)
	page := e.createPage(t, "Curso")
	ctx := context.Background()

	if _, err := first.Create(ctx, page, validCustomer()); err != nil {
		t.Fatal(err)
	}
	first.Shutdown()

	restarted := e.paymentService(t, time.Hour)
	n, err := restarted.ResumePending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || restarted.Watching() != 1 {
		t.Errorf("resumed = %d, watching = %d", n, restarted.Watching())
	}
}
