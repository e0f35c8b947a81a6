package checkout

import "errors"

var (
	ErrPageNotFound         = errors.New("page not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrElementNotFound      = errors.New("element not found")
	ErrInvalidTaxID         = errors.New("invalid taxpayer id")
	ErrSlugTaken            = errors.New("slug already in use")
	ErrPaymentExpired       = errors.New("payment expired")
	ErrPageInactive         = errors.New("page is not active")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrAINotConfigured      = errors.New("ai provider not configured")
	ErrInvalidToken         = errors.New("invalid payment token")
	ErrInvalidInput         = errors.New("invalid input")
)
