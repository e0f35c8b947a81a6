// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/email/templates"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/resendlabs/resend-go"
)

// PaymentConfirmation is the data of one receipt email.
type PaymentConfirmation struct {
	To             string
	CustomerName   string
	ProductName    string
	MerchantName   string
	AmountCents    int64
	PaymentID      string
	PaidAt         time.Time
	SuccessMessage string
	PageURL        string
	AccentColor    string
}

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendPaymentConfirmation(msg PaymentConfirmation) error
}

// SendFunc delivers one prepared message.
type SendFunc func(params *resend.SendEmailRequest) error

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	mu        sync.RWMutex
	send      SendFunc
	fromEmail string
	fromName  string
	logger    *logging.ChanneledLogger
}

// NewResendClient creates the Resend-backed service.
func NewResendClient(apiKey, fromEmail, fromName string, logger *logging.ChanneledLogger) (*ResendClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}
	client := resend.NewClient(apiKey)
	send := func(params *resend.SendEmailRequest) error {
		_, err := client.Emails.Send(params)
		return err
	}
	return newResendClient(send, fromEmail, fromName, logger), nil
}

func newResendClient(send SendFunc, fromEmail, fromName string, logger *logging.ChanneledLogger) *ResendClient {
	if fromEmail == "" {
		fromEmail = "noreply@pixpage.app"
	}
	if fromName == "" {
		fromName = "PixPage"
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &ResendClient{
		send:      send,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// Configure replaces the sender address and name. Empty values keep the
// current ones.
func (c *ResendClient) Configure(fromEmail, fromName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fromEmail != "" {
		c.fromEmail = fromEmail
	}
	if fromName != "" {
		c.fromName = fromName
	}
}

func (c *ResendClient) sender() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
}

// SendPaymentConfirmation composes and sends the buyer's receipt.
func (c *ResendClient) SendPaymentConfirmation(msg PaymentConfirmation) error {
	start := time.Now()

	content := templates.GetPaymentConfirmationContent(templates.PaymentConfirmationProps{
		CustomerName:   msg.CustomerName,
		ProductName:    msg.ProductName,
		AmountCents:    msg.AmountCents,
		PaymentID:      msg.PaymentID,
		PaidAt:         msg.PaidAt,
		SuccessMessage: msg.SuccessMessage,
		PageURL:        msg.PageURL,
		AccentColor:    msg.AccentColor,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader:    fmt.Sprintf("Pagamento de %s confirmado", checkout.FormatBRL(msg.AmountCents)),
		Title:        "Pagamento confirmado",
		AccentColor:  msg.AccentColor,
		Content:      content,
		MerchantName: msg.MerchantName,
	})

	subject := "Pagamento confirmado"
	if msg.ProductName != "" {
		subject = fmt.Sprintf("Pagamento confirmado: %s", msg.ProductName)
	}

	params := &resend.SendEmailRequest{
		From:    c.sender(),
		To:      []string{msg.To},
		Subject: subject,
		Html:    htmlContent,
	}

	if err := c.send(params); err != nil {
		c.logger.Email().Error("Payment confirmation email failed",
			"paymentId", msg.PaymentID, "to", logging.MaskEmail(msg.To), "error", err.Error())
		return fmt.Errorf("failed to send payment confirmation via Resend: %w", err)
	}

	c.logger.Email().Info("Payment confirmation email sent",
		"paymentId", msg.PaymentID, "to", logging.MaskEmail(msg.To), "duration", time.Since(start))
	return nil
}
