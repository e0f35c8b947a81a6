package email

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/resendlabs/resend-go"
)

func TestSendPaymentConfirmation(t *testing.T) {
	var sent *resend.SendEmailRequest
	c := newResendClient(func(p *resend.SendEmailRequest) error {
		sent = p
		return nil
	}, "vendas@loja.com", "Loja", nil)

	err := c.SendPaymentConfirmation(PaymentConfirmation{
		To:             "maria@example.com",
		CustomerName:   "Maria Silva",
		ProductName:    "Curso de Go",
		AmountCents:    123456,
		PaymentID:      "01HZX",
		PaidAt:         time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC),
		SuccessMessage: "Acesse a <b>área de membros</b><script>alert(1)</script>",
		PageURL:        "https://loja.com/p/curso",
		AccentColor:    "#0ea5e9",
	})
	if err != nil {
		t.Fatal(err)
	}

	if sent.From != "Loja <vendas@loja.com>" || sent.To[0] != "maria@example.com" {
		t.Errorf("envelope = %s -> %v", sent.From, sent.To)
	}
	if sent.Subject != "Pagamento confirmado: Curso de Go" {
		t.Errorf("subject = %q", sent.Subject)
	}
	for _, want := range []string{"Olá, Maria!", "R$ 1.234,56", "<b>área de membros</b>", "https://loja.com/p/curso", "#0ea5e9"} {
		if !strings.Contains(sent.Html, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(sent.Html, "<script>") {
		t.Error("script survived sanitizing")
	}
}

func TestSendPaymentConfirmationError(t *testing.T) {
	c := newResendClient(func(*resend.SendEmailRequest) error {
		return errors.New("rate limited")
	}, "", "", nil)

	if err := c.SendPaymentConfirmation(PaymentConfirmation{To: "a@b.com"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewResendClientRequiresKey(t *testing.T) {
	if _, err := NewResendClient("", "", "", nil); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestConfigureSender(t *testing.T) {
	var from string
	c := newResendClient(func(p *resend.SendEmailRequest) error {
		from = p.From
		return nil
	}, "", "", nil)

	c.Configure("", "Minha Loja")
	if err := c.SendPaymentConfirmation(PaymentConfirmation{To: "a@b.com"}); err != nil {
		t.Fatal(err)
	}
	if from != "Minha Loja <noreply@pixpage.app>" {
		t.Errorf("from = %q", from)
	}
}
