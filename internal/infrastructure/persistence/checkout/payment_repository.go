package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/repositories"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
)

var _ repositories.PaymentRepository = (*PaymentRepository)(nil)

const paymentColumns = `id, page_id, gateway_id, amount_cents, status, customer_name,
	customer_email, customer_tax_id, customer_phone, pix_code, qr_code_image,
	expires_at, paid_at, created_at, updated_at`

// PaymentRepository is not cached: payment status changes under the watcher
// and every read must see the latest row.
type PaymentRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewPaymentRepository(db *sql.DB, logger *logging.ChanneledLogger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*checkout.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	start := time.Now()
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkout.ErrPaymentNotFound
	}
	if err != nil {
		r.logger.Database().Error("Payment query failed", "error", err.Error(), "paymentId", id)
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), "payments.find_by_id")
	return payment, nil
}

// FindByPageID lists the most recent payments of a page. A limit of zero or
// less returns all of them.
func (r *PaymentRepository) FindByPageID(ctx context.Context, pageID string, limit int) ([]*checkout.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE page_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{pageID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.list(ctx, query, "payments.find_by_page", args...)
}

func (r *PaymentRepository) FindPending(ctx context.Context) ([]*checkout.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = ? ORDER BY created_at`
	return r.list(ctx, query, "payments.find_pending", string(checkout.StatusPending))
}

func (r *PaymentRepository) FindPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]*checkout.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = ? AND expires_at < ? ORDER BY expires_at`
	return r.list(ctx, query, "payments.find_expired", string(checkout.StatusPending), formatTime(cutoff))
}

func (r *PaymentRepository) Store(ctx context.Context, payment *checkout.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing payment insert", "paymentId", payment.ID, "pageId", payment.PageID)

	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.PageID, payment.GatewayID, payment.AmountCents, string(payment.Status),
		payment.Customer.Name, payment.Customer.Email, payment.Customer.TaxID, payment.Customer.Phone,
		payment.PixCode, payment.QRCodeImage, formatTime(payment.ExpiresAt), nullableTime(payment.PaidAt),
		formatTime(payment.CreatedAt), formatTime(payment.UpdatedAt))
	if err != nil {
		r.logger.Database().Error("Payment insert failed", "error", err.Error(), "paymentId", payment.ID)
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Payment insert completed", "paymentId", payment.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "payments.store")
	return nil
}

// UpdateStatus moves a payment to a new status. Terminal rows are left
// untouched so a late gateway poll cannot undo a paid or expired payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status checkout.PaymentStatus, paidAt *time.Time) (bool, error) {
	query := `UPDATE payments SET status = ?, paid_at = COALESCE(?, paid_at), updated_at = ?
		WHERE id = ? AND status = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing payment status update", "paymentId", id, "status", status)

	res, err := r.db.ExecContext(ctx, query,
		string(status), nullableTime(paidAt), formatTime(time.Now()), id, string(checkout.StatusPending))
	if err != nil {
		r.logger.Database().Error("Payment status update failed", "error", err.Error(), "paymentId", id)
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return false, err
		}
		r.logger.Database().Debug("Payment already terminal, status unchanged", "paymentId", id)
		return false, nil
	}

	duration := time.Since(start)
	r.logger.Database().Info("Payment status updated", "paymentId", id, "status", status, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "payments.update_status")
	return true, nil
}

func (r *PaymentRepository) list(ctx context.Context, query, operation string, args ...any) ([]*checkout.Payment, error) {
	start := time.Now()
	r.logger.Database().Debug("Executing payment list query", "operation", operation)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Payment list query failed", "error", err.Error(), "operation", operation)
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []*checkout.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Payment list query completed", "operation", operation, "count", len(payments), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, operation)
	return payments, nil
}

func scanPayment(row rowScanner) (*checkout.Payment, error) {
	var p checkout.Payment
	var status, expiresAt, createdAt, updatedAt string
	var paidAt sql.NullString

	err := row.Scan(
		&p.ID, &p.PageID, &p.GatewayID, &p.AmountCents, &status,
		&p.Customer.Name, &p.Customer.Email, &p.Customer.TaxID, &p.Customer.Phone,
		&p.PixCode, &p.QRCodeImage, &expiresAt, &paidAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.Status = checkout.PaymentStatus(status)
	p.ExpiresAt = parseTime(expiresAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	if paidAt.Valid && paidAt.String != "" {
		t := parseTime(paidAt.String)
		p.PaidAt = &t
	}
	return &p, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
