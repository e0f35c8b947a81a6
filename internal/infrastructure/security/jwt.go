package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrTokenInvalid is returned for malformed, expired or mismatched tokens.
var ErrTokenInvalid = errors.New("invalid token")

// PaymentClaims grant read access to one payment's status and stream.
type PaymentClaims struct {
	PaymentID string `json:"paymentId"`
	PageID    string `json:"pageId"`
	jwt.RegisteredClaims
}

// PaymentTokens issues and validates payment access tokens.
type PaymentTokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewPaymentTokens creates a token issuer. Tokens outlive the payment expiry so
// the confirmation view stays reachable.
func NewPaymentTokens(secret string, ttl time.Duration) *PaymentTokens {
	return &PaymentTokens{secret: []byte(secret), ttl: ttl, issuer: "pixpage"}
}

// Issue signs a token for a payment.
func (t *PaymentTokens) Issue(paymentID, pageID string) (string, error) {
	now := time.Now().UTC()
	claims := PaymentClaims{
		PaymentID: paymentID,
		PageID:    pageID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   paymentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign payment token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and checks it grants access to paymentID.
func (t *PaymentTokens) Validate(tokenString, paymentID string) (*PaymentClaims, error) {
	claims := &PaymentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.PaymentID != paymentID || claims.Issuer != t.issuer {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
