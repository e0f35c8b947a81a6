package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/repositories"
	"github.com/pixpage/pixpage/internal/infrastructure/email"
	"github.com/pixpage/pixpage/internal/infrastructure/gateway/for4payments"
	"github.com/pixpage/pixpage/internal/infrastructure/messaging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPaymentListLimit = 50
	qrCodeSize              = 256
	gatewayCallTimeout      = 45 * time.Second
)

// PaymentGateway creates PIX charges and reports their status.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req for4payments.ChargeRequest) (*for4payments.Charge, error)
	ChargeStatus(ctx context.Context, gatewayID string) (checkout.PaymentStatus, error)
}

// PaymentOptions tunes payment creation and polling.
type PaymentOptions struct {
	Expiration    time.Duration
	PollInterval  time.Duration
	PublicBaseURL string
}

// CreatedPayment is a new payment with the token that grants access to its
// status.
type CreatedPayment struct {
	Payment *checkout.Payment
	Token   string
}

// PaymentService creates PIX payments and follows them until they settle.
type PaymentService struct {
	payments    repositories.PaymentRepository
	pages       *PageService
	gateway     PaymentGateway
	tokens      *security.PaymentTokens
	publisher   messaging.StatusPublisher
	mailer      email.Service
	watcher     *PaymentWatcher
	inflight    singleflight.Group
	opts        PaymentOptions
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	now         func() time.Time
}

// NewPaymentService creates the payment service. publisher and mailer may be
// nil.
func NewPaymentService(
	payments repositories.PaymentRepository,
	pages *PageService,
	gateway PaymentGateway,
	tokens *security.PaymentTokens,
	publisher messaging.StatusPublisher,
	mailer email.Service,
	opts PaymentOptions,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *PaymentService {
	if opts.Expiration <= 0 {
		opts.Expiration = 30 * time.Minute
	}
	s := &PaymentService{
		payments:    payments,
		pages:       pages,
		gateway:     gateway,
		tokens:      tokens,
		publisher:   publisher,
		mailer:      mailer,
		opts:        opts,
		logger:      logger,
		perfTracker: perfTracker,
		now:         time.Now,
	}
	s.watcher = NewPaymentWatcher(opts.PollInterval, s.Sync, logger)
	return s
}

// Create validates the customer, creates the gateway charge and stores the
// payment. Invalid customer data is returned as checkout.FieldErrors.
// Concurrent submissions for the same page and taxpayer share one charge.
func (s *PaymentService) Create(ctx context.Context, page *checkout.Page, customer checkout.Customer) (*CreatedPayment, error) {
	marker := s.perfTracker.StartOperation("payment:create", page.ID)
	defer marker.Complete()

	if !page.Active {
		marker.SetError(checkout.ErrPageInactive)
		return nil, checkout.ErrPageInactive
	}

	customer = customer.Normalize()
	if errs := customer.Validate(page.RequirePhone); errs != nil {
		marker.SetError(errs)
		return nil, errs
	}

	key := page.ID + ":" + customer.TaxID
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		return s.create(context.WithoutCancel(ctx), page, customer)
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	payment := v.(*checkout.Payment)
	if shared {
		marker.AddMetadata("shared", true)
		s.logger.Payment().Debug("Duplicate checkout submission joined in-flight charge", "paymentId", payment.ID, "pageId", page.ID)
	}

	token, err := s.tokens.Issue(payment.ID, payment.PageID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	return &CreatedPayment{Payment: payment, Token: token}, nil
}

func (s *PaymentService) create(ctx context.Context, page *checkout.Page, customer checkout.Customer) (*checkout.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayCallTimeout)
	defer cancel()

	start := time.Now()
	id := security.GenerateULID()

	charge, err := s.gateway.CreateCharge(ctx, for4payments.ChargeRequest{
		Customer:    customer,
		AmountCents: page.AmountCents,
		Description: page.ProductName,
		ExternalID:  id,
	})
	if err != nil {
		s.logger.LogError(logging.ChannelPayment, "payment:create", err, map[string]any{
			"pageId": page.ID,
			"taxId":  logging.MaskTaxID(customer.TaxID),
		})
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}

	qr := charge.QRCodeImage
	if qr == "" {
		qr, err = qrDataURI(charge.PixCode)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	expiresAt := charge.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.opts.Expiration)
	}
	status := charge.Status
	if status == "" {
		status = checkout.StatusPending
	}

	payment := &checkout.Payment{
		ID:          id,
		PageID:      page.ID,
		GatewayID:   charge.GatewayID,
		AmountCents: page.AmountCents,
		Status:      status,
		Customer:    customer,
		PixCode:     charge.PixCode,
		QRCodeImage: qr,
		ExpiresAt:   expiresAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == checkout.StatusPaid {
		payment.PaidAt = &now
	}

	if err := s.payments.Store(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	s.watcher.Watch(payment)

	s.logger.Payment().Info("Payment created",
		"paymentId", payment.ID,
		"pageId", page.ID,
		"gatewayId", payment.GatewayID,
		"amountCents", payment.AmountCents,
		"taxId", logging.MaskTaxID(customer.TaxID),
		"expiresAt", payment.ExpiresAt,
		"duration", time.Since(start))
	return payment, nil
}

// Authorize checks that token grants access to paymentID.
func (s *PaymentService) Authorize(token, paymentID string) error {
	if token == "" {
		return checkout.ErrInvalidToken
	}
	if _, err := s.tokens.Validate(token, paymentID); err != nil {
		return fmt.Errorf("%w: %v", checkout.ErrInvalidToken, err)
	}
	return nil
}

// Status returns a token-protected payment. A pending payment past its
// expiry is marked expired first.
func (s *PaymentService) Status(ctx context.Context, paymentID, token string) (*checkout.Payment, error) {
	if err := s.Authorize(token, paymentID); err != nil {
		return nil, err
	}
	payment, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsExpired(s.now()) {
		if _, err := s.transition(ctx, payment, checkout.StatusExpired); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

// Refresh asks the gateway for the status of a token-protected payment.
func (s *PaymentService) Refresh(ctx context.Context, paymentID, token string) (*checkout.Payment, error) {
	if err := s.Authorize(token, paymentID); err != nil {
		return nil, err
	}
	if _, err := s.Sync(ctx, paymentID); err != nil && !errors.Is(err, checkout.ErrGatewayNotConfigured) {
		return nil, err
	}
	return s.Get(ctx, paymentID)
}

// Get returns a payment by ID.
func (s *PaymentService) Get(ctx context.Context, paymentID string) (*checkout.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// ListByPage returns the newest payments of a page.
func (s *PaymentService) ListByPage(ctx context.Context, pageID string, limit int) ([]*checkout.Payment, error) {
	if limit <= 0 {
		limit = defaultPaymentListLimit
	}
	payments, err := s.payments.FindByPageID(ctx, pageID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for page %s: %w", pageID, err)
	}
	return payments, nil
}

// Sync brings a pending payment up to date: expired payments are closed
// locally, others are checked against the gateway.
func (s *PaymentService) Sync(ctx context.Context, paymentID string) (checkout.PaymentStatus, error) {
	payment, err := s.Get(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if payment.Status.IsTerminal() {
		return payment.Status, nil
	}
	if payment.IsExpired(s.now()) {
		if _, err := s.transition(ctx, payment, checkout.StatusExpired); err != nil {
			return "", err
		}
		return payment.Status, nil
	}

	status, err := s.gateway.ChargeStatus(ctx, payment.GatewayID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch status of payment %s: %w", paymentID, err)
	}
	if status == "" || status == checkout.StatusPending {
		return checkout.StatusPending, nil
	}
	if _, err := s.transition(ctx, payment, status); err != nil {
		return "", err
	}
	return payment.Status, nil
}

// ExpireStale marks every pending payment past its expiry as expired.
func (s *PaymentService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.payments.FindPendingExpiredBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale payments: %w", err)
	}

	expired := 0
	for _, payment := range stale {
		s.watcher.Stop(payment.ID)
		changed, err := s.transition(ctx, payment, checkout.StatusExpired)
		if err != nil {
			s.logger.Payment().Warn("Failed to expire payment", "paymentId", payment.ID, "error", err.Error())
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

// ResumePending restarts the watchers of pending payments after a restart.
func (s *PaymentService) ResumePending(ctx context.Context) (int, error) {
	pending, err := s.payments.FindPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending payments: %w", err)
	}

	resumed := 0
	now := s.now()
	for _, payment := range pending {
		if payment.IsExpired(now) {
			if _, err := s.transition(ctx, payment, checkout.StatusExpired); err != nil {
				s.logger.Payment().Warn("Failed to expire payment", "paymentId", payment.ID, "error", err.Error())
			}
			continue
		}
		if s.watcher.Watch(payment) {
			resumed++
		}
	}
	s.logger.Payment().Info("Pending payments resumed", "watching", resumed, "pending", len(pending))
	return resumed, nil
}

// Shutdown stops every payment watcher.
func (s *PaymentService) Shutdown() {
	s.watcher.StopAll()
}

// Watching returns the number of payments being polled.
func (s *PaymentService) Watching() int {
	return s.watcher.Active()
}

// transition moves payment to status, publishes the change and sends the
// receipt on payment. It reports whether this call changed the stored row.
func (s *PaymentService) transition(ctx context.Context, payment *checkout.Payment, status checkout.PaymentStatus) (bool, error) {
	var paidAt *time.Time
	if status == checkout.StatusPaid {
		now := s.now().UTC()
		paidAt = &now
	}

	changed, err := s.payments.UpdateStatus(ctx, payment.ID, status, paidAt)
	if err != nil {
		return false, fmt.Errorf("failed to update payment %s: %w", payment.ID, err)
	}
	if !changed {
		current, err := s.payments.FindByID(ctx, payment.ID)
		if err == nil {
			*payment = *current
		}
		return false, nil
	}

	payment.Status = status
	payment.UpdatedAt = s.now().UTC()
	if paidAt != nil {
		payment.PaidAt = paidAt
	}

	s.logger.Payment().Info("Payment status changed", "paymentId", payment.ID, "pageId", payment.PageID, "status", status)

	if s.publisher != nil {
		s.publisher.Publish(checkout.StatusUpdate{PaymentID: payment.ID, Status: status, PaidAt: payment.PaidAt})
	}
	if status == checkout.StatusPaid {
		s.sendConfirmation(ctx, payment)
	}
	return true, nil
}

func (s *PaymentService) sendConfirmation(ctx context.Context, payment *checkout.Payment) {
	if s.mailer == nil || payment.Customer.Email == "" {
		return
	}

	msg := email.PaymentConfirmation{
		To:           payment.Customer.Email,
		CustomerName: payment.Customer.Name,
		AmountCents:  payment.AmountCents,
		PaymentID:    payment.ID,
	}
	if payment.PaidAt != nil {
		msg.PaidAt = *payment.PaidAt
	}
	if page, err := s.pages.Get(ctx, payment.PageID); err == nil {
		msg.ProductName = page.ProductName
		msg.MerchantName = page.Title
		msg.SuccessMessage = page.SuccessMessage
		msg.AccentColor = page.LayoutContext().Primary()
		msg.PageURL = strings.TrimSuffix(s.opts.PublicBaseURL, "/") + "/p/" + page.Slug
	} else {
		s.logger.Payment().Warn("Receipt sent without page details", "paymentId", payment.ID, "error", err.Error())
	}

	if err := s.mailer.SendPaymentConfirmation(msg); err != nil {
		s.logger.Email().Warn("Payment confirmed but receipt failed",
			"paymentId", payment.ID, "to", logging.MaskEmail(payment.Customer.Email), "error", err.Error())
	}
}

func qrDataURI(pixCode string) (string, error) {
	png, err := qrcode.Encode(pixCode, qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
