package checkout

import "time"

// PaymentStatus is the normalized gateway status of a payment.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusExpired   PaymentStatus = "expired"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusExpired, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Payment is a PIX charge created for one checkout submission.
type Payment struct {
	ID          string        `json:"id"`
	PageID      string        `json:"pageId"`
	GatewayID   string        `json:"gatewayId"`
	AmountCents int64         `json:"amountCents"`
	Status      PaymentStatus `json:"status"`
	Customer    Customer      `json:"customer"`
	PixCode     string        `json:"pixCode"`
	QRCodeImage string        `json:"qrCodeImage"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IsExpired reports whether a pending payment passed its expiry time.
func (p *Payment) IsExpired(now time.Time) bool {
	return p.Status == StatusPending && !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// SecondsLeft returns the remaining seconds before expiry, never negative.
func (p *Payment) SecondsLeft(now time.Time) int {
	if p.ExpiresAt.IsZero() {
		return 0
	}
	left := int(p.ExpiresAt.Sub(now).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// StatusUpdate is a status change broadcast to subscribers of a payment.
type StatusUpdate struct {
	PaymentID string        `json:"paymentId"`
	Status    PaymentStatus `json:"status"`
	PaidAt    *time.Time    `json:"paidAt,omitempty"`
}
