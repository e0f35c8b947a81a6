// Package checkout provides the SQL repositories for pages, payments and
// settings.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/repositories"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/interfaces"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
)

var _ repositories.PageRepository = (*PageRepository)(nil)

const pageColumns = `id, slug, title, product_name, product_description, amount_cents,
	custom_title, custom_subtitle, primary_color, background_color, header_height,
	logo_url, logo_position, logo_size, show_logo, require_phone, success_message,
	custom_elements, active, created_at, updated_at`

type PageRepository struct {
	db     *sql.DB
	cache  interfaces.PageCache
	logger *logging.ChanneledLogger
}

func NewPageRepository(db *sql.DB, cache interfaces.PageCache, logger *logging.ChanneledLogger) *PageRepository {
	return &PageRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// FindByID retrieves a page, cache first.
func (r *PageRepository) FindByID(ctx context.Context, id string) (*checkout.Page, error) {
	if page, found := r.cache.GetPage(id); found {
		return page, nil
	}

	page, err := r.loadOne(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	r.cache.SetPage(page)
	return page, nil
}

// FindBySlug resolves the slug through the cache index before querying.
func (r *PageRepository) FindBySlug(ctx context.Context, slug string) (*checkout.Page, error) {
	if id, found := r.cache.GetPageIDBySlug(slug); found {
		if page, ok := r.cache.GetPage(id); ok {
			return page, nil
		}
	}

	page, err := r.loadOne(ctx, "slug", slug)
	if err != nil {
		return nil, err
	}
	r.cache.SetPage(page)
	return page, nil
}

// FindAll returns every page, newest first. The ID list is cached so later
// calls only load pages missing from the cache.
func (r *PageRepository) FindAll(ctx context.Context) ([]*checkout.Page, error) {
	if ids, found := r.cache.GetAllPageIDs(); found {
		return r.findByIDs(ctx, ids)
	}

	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY created_at DESC, id DESC`

	start := time.Now()
	r.logger.Database().Debug("Executing page list query")

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Page list query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := []*checkout.Page{}
	ids := []string{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		ids = append(ids, page.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pages: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Page list query completed", "count", len(pages), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "pages.find_all")

	for _, page := range pages {
		r.cache.SetPage(page)
	}
	r.cache.SetAllPageIDs(ids)
	return pages, nil
}

func (r *PageRepository) findByIDs(ctx context.Context, ids []string) ([]*checkout.Page, error) {
	result := make([]*checkout.Page, 0, len(ids))
	for _, id := range ids {
		page, err := r.FindByID(ctx, id)
		if errors.Is(err, checkout.ErrPageNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, page)
	}
	return result, nil
}

// SlugExists reports whether another page already uses the slug.
func (r *PageRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	query := `SELECT COUNT(1) FROM pages WHERE slug = ? AND id != ?`

	start := time.Now()
	var count int
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&count); err != nil {
		r.logger.Database().Error("Slug lookup failed", "error", err.Error(), "slug", slug)
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), "pages.slug_exists")
	return count > 0, nil
}

func (r *PageRepository) Store(ctx context.Context, page *checkout.Page) error {
	query := `INSERT INTO pages (` + pageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if page.CustomElements == "" {
		page.CustomElements = "[]"
	}

	start := time.Now()
	r.logger.Database().Debug("Executing page insert", "id", page.ID, "slug", page.Slug)

	_, err := r.db.ExecContext(ctx, query,
		page.ID, page.Slug, page.Title, page.ProductName, page.ProductDescription, page.AmountCents,
		page.CustomTitle, page.CustomSubtitle, page.PrimaryColor, page.BackgroundColor, page.HeaderHeight,
		page.LogoURL, page.LogoPosition, page.LogoSize, page.ShowLogo, page.RequirePhone, page.SuccessMessage,
		page.CustomElements, page.Active, formatTime(page.CreatedAt), formatTime(page.UpdatedAt))
	if err != nil {
		r.logger.Database().Error("Page insert failed", "error", err.Error(), "id", page.ID)
		if isUniqueViolation(err) {
			return checkout.ErrSlugTaken
		}
		return fmt.Errorf("failed to insert page: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Page insert completed", "id", page.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "pages.store")

	r.cache.SetPage(page)
	r.cache.InvalidateAllPageIDs()
	return nil
}

func (r *PageRepository) Update(ctx context.Context, page *checkout.Page) error {
	query := `UPDATE pages SET slug = ?, title = ?, product_name = ?, product_description = ?,
		amount_cents = ?, custom_title = ?, custom_subtitle = ?, primary_color = ?,
		background_color = ?, header_height = ?, logo_url = ?, logo_position = ?, logo_size = ?,
		show_logo = ?, require_phone = ?, success_message = ?, custom_elements = ?, active = ?,
		updated_at = ?
		WHERE id = ?`

	if page.CustomElements == "" {
		page.CustomElements = "[]"
	}

	start := time.Now()
	r.logger.Database().Debug("Executing page update", "id", page.ID)

	res, err := r.db.ExecContext(ctx, query,
		page.Slug, page.Title, page.ProductName, page.ProductDescription,
		page.AmountCents, page.CustomTitle, page.CustomSubtitle, page.PrimaryColor,
		page.BackgroundColor, page.HeaderHeight, page.LogoURL, page.LogoPosition, page.LogoSize,
		page.ShowLogo, page.RequirePhone, page.SuccessMessage, page.CustomElements, page.Active,
		formatTime(page.UpdatedAt), page.ID)
	if err != nil {
		r.logger.Database().Error("Page update failed", "error", err.Error(), "id", page.ID)
		if isUniqueViolation(err) {
			return checkout.ErrSlugTaken
		}
		return fmt.Errorf("failed to update page: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return checkout.ErrPageNotFound
	}

	duration := time.Since(start)
	r.logger.Database().Info("Page update completed", "id", page.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "pages.update")

	// the old slug may still point at this id
	r.cache.InvalidatePage(page.ID)
	r.cache.SetPage(page)
	return nil
}

func (r *PageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM pages WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing page delete", "id", id)

	// remote libsql connections do not enforce the payments foreign key
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE page_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete page payments: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to delete page: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return checkout.ErrPageNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, checkout.ErrPageNotFound) {
			r.logger.Database().Error("Page delete failed", "error", err.Error(), "id", id)
		}
		return err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Page delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "pages.delete")

	r.cache.InvalidatePage(id)
	r.cache.InvalidateAllPageIDs()
	return nil
}

func (r *PageRepository) loadOne(ctx context.Context, column, value string) (*checkout.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE ` + column + ` = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing page query", column, value)

	page, err := scanPage(r.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkout.ErrPageNotFound
	}
	if err != nil {
		r.logger.Database().Error("Page query failed", "error", err.Error(), column, value)
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Page query completed", column, value, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "pages.find_by_"+column)
	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*checkout.Page, error) {
	var page checkout.Page
	var createdAt, updatedAt string

	err := row.Scan(
		&page.ID, &page.Slug, &page.Title, &page.ProductName, &page.ProductDescription, &page.AmountCents,
		&page.CustomTitle, &page.CustomSubtitle, &page.PrimaryColor, &page.BackgroundColor, &page.HeaderHeight,
		&page.LogoURL, &page.LogoPosition, &page.LogoSize, &page.ShowLogo, &page.RequirePhone, &page.SuccessMessage,
		&page.CustomElements, &page.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}

	page.CreatedAt = parseTime(createdAt)
	page.UpdatedAt = parseTime(updatedAt)
	return &page, nil
}

// storageTimeLayout is fixed width so stored timestamps compare correctly as text.
const storageTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(storageTimeLayout)
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
