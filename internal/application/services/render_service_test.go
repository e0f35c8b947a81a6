package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
)

func TestCheckoutFormIsCachedUntilPageChanges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	render := NewRenderService(e.renderer, e.cache, 3*time.Second, e.logger, e.tracker)
	page := e.createPage(t, "Curso")

	html, err := render.CheckoutForm(ctx, page, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), `action="/p/`+page.Slug+`/checkout"`) {
		t.Error("form action missing")
	}
	cached, ok := e.cache.GetHTMLChunk(page.ID, types.VariantCheckoutForm)
	if !ok || cached != string(html) {
		t.Fatal("form not cached")
	}

	saved, err := e.pages.SaveElements(ctx, page, []layout.CustomElement{
		{Type: layout.TypeText, Position: layout.At(1), Content: "Nova oferta"},
	})
	if err != nil {
		t.Fatal(err)
	}
	html, err = render.CheckoutForm(ctx, saved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "Nova oferta") {
		t.Error("stale form served after element save")
	}
}

func TestCheckoutFormWithErrorsIsNotCached(t *testing.T) {
	e := newEnv(t)
	render := NewRenderService(e.renderer, e.cache, 0, e.logger, e.tracker)
	page := e.createPage(t, "Curso")

	html, err := render.CheckoutForm(context.Background(), page, &FormState{
		Values: checkout.Customer{Name: "Maria"},
		Errors: checkout.FieldErrors{"name": "informe nome e sobrenome"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "informe nome e sobrenome") {
		t.Error("field error missing")
	}
	if _, ok := e.cache.GetHTMLChunk(page.ID, types.VariantCheckoutForm); ok {
		t.Error("form with errors was cached")
	}
}

func TestCheckoutFormWithMalformedElements(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated object", "{not valid"},
		{"wrong shape", `{"id":"a"}`},
		{"bad double encoding", `"[{"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			render := NewRenderService(e.renderer, nil, 0, e.logger, e.tracker)
			page := e.createPage(t, "Curso")
			page.CustomElements = tt.raw

			html, err := render.CheckoutForm(context.Background(), page, nil)
			if err != nil {
				t.Fatalf("CheckoutForm: %v", err)
			}
			out := string(html)
			if !strings.Contains(out, `name="taxId"`) {
				t.Error("checkout form missing")
			}
			if !strings.Contains(out, "Pagamento Seguro") {
				t.Error("default footer missing")
			}
			if strings.Contains(out, "data-element-id=") {
				t.Error("elements rendered from malformed data")
			}
		})
	}
}

func TestPaymentView(t *testing.T) {
	e := newEnv(t)
	render := NewRenderService(e.renderer, nil, 4*time.Second, e.logger, e.tracker)
	page := e.createPage(t, "Curso")
	now := time.Now()

	pending := &checkout.Payment{
		ID:          "pay1",
		PageID:      page.ID,
		AmountCents: 4990,
		Status:      checkout.StatusPending,
		PixCode:     "00020126BR.GOV.BCB.PIX",
		QRCodeImage: "data:image/png;base64,AAAA",
		ExpiresAt:   now.Add(10 * time.Minute),
	}
	html, err := render.PaymentView(context.Background(), page, pending, "tok")
	if err != nil {
		t.Fatal(err)
	}
	out := string(html)
	for _, want := range []string{"00020126BR.GOV.BCB.PIX", "pay1", "4000"} {
		if !strings.Contains(out, want) {
			t.Errorf("pending view missing %q", want)
		}
	}

	paid := *pending
	paid.Status = checkout.StatusPaid
	paid.PaidAt = &now
	html, err = render.PaymentView(context.Background(), page, &paid, "tok")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "Pagamento confirmado") || !strings.Contains(string(html), "Obrigado!") {
		t.Error("paid view missing confirmation")
	}
}

func TestPublicURLs(t *testing.T) {
	page := &checkout.Page{Slug: "curso"}
	if got := PaymentViewURL(page, "01J", "a+b"); got != "/p/curso/payment/01J?token=a%2Bb" {
		t.Errorf("PaymentViewURL = %s", got)
	}
	if got := PaymentStreamURL("01J", "t"); got != "/api/v1/payments/01J/stream?token=t" {
		t.Errorf("PaymentStreamURL = %s", got)
	}
}
