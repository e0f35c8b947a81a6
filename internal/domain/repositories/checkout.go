// Package repositories defines the persistence interfaces for checkout pages,
// payments and settings. Implementations live under
// internal/infrastructure/persistence.
package repositories

import (
	"context"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
)

type PageRepository interface {
	FindByID(ctx context.Context, id string) (*checkout.Page, error)
	FindBySlug(ctx context.Context, slug string) (*checkout.Page, error)
	FindAll(ctx context.Context) ([]*checkout.Page, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Store(ctx context.Context, page *checkout.Page) error
	Update(ctx context.Context, page *checkout.Page) error
	Delete(ctx context.Context, id string) error
}

type PaymentRepository interface {
	FindByID(ctx context.Context, id string) (*checkout.Payment, error)
	FindByPageID(ctx context.Context, pageID string, limit int) ([]*checkout.Payment, error)
	FindPending(ctx context.Context) ([]*checkout.Payment, error)
	FindPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]*checkout.Payment, error)
	Store(ctx context.Context, payment *checkout.Payment) error
	UpdateStatus(ctx context.Context, id string, status checkout.PaymentStatus, paidAt *time.Time) (bool, error)
}

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*checkout.Setting, error)
	All(ctx context.Context) ([]*checkout.Setting, error)
	Set(ctx context.Context, setting *checkout.Setting) error
	Delete(ctx context.Context, key string) error
}
