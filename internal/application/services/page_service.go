// Package services provides application-level services that orchestrate
// business logic and coordinate between repositories and domain entities.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/domain/repositories"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/interfaces"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 64

// PageInput carries the editable fields of a page. A nil CustomElements keeps
// the stored elements on update; a nil Active defaults to true on create and
// keeps the stored flag on update.
type PageInput struct {
	Title              string                  `json:"title"`
	Slug               string                  `json:"slug"`
	ProductName        string                  `json:"productName"`
	ProductDescription string                  `json:"productDescription"`
	AmountCents        int64                   `json:"amountCents"`
	CustomTitle        string                  `json:"customTitle"`
	CustomSubtitle     string                  `json:"customSubtitle"`
	PrimaryColor       string                  `json:"primaryColor"`
	BackgroundColor    string                  `json:"backgroundColor"`
	HeaderHeight       int                     `json:"headerHeight"`
	LogoURL            string                  `json:"logoUrl"`
	LogoPosition       string                  `json:"logoPosition"`
	LogoSize           int                     `json:"logoSize"`
	ShowLogo           bool                    `json:"showLogo"`
	RequirePhone       bool                    `json:"requirePhone"`
	SuccessMessage     string                  `json:"successMessage"`
	CustomElements     *[]layout.CustomElement `json:"customElements"`
	Active             *bool                   `json:"active"`
}

// PageService orchestrates page operations with cache-first repository pattern
type PageService struct {
	pages       repositories.PageRepository
	fragments   interfaces.HTMLChunkCache
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewPageService creates a new page application service
func NewPageService(pages repositories.PageRepository, fragments interfaces.HTMLChunkCache, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PageService {
	return &PageService{
		pages:       pages,
		fragments:   fragments,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// List returns every page, newest first.
func (s *PageService) List(ctx context.Context) ([]*checkout.Page, error) {
	pages, err := s.pages.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

// Get returns a page by ID (cache-first)
func (s *PageService) Get(ctx context.Context, id string) (*checkout.Page, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: page ID cannot be empty", checkout.ErrInvalidInput)
	}
	page, err := s.pages.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}
	return page, nil
}

// GetBySlug returns a page by slug (cache-first)
func (s *PageService) GetBySlug(ctx context.Context, slug string) (*checkout.Page, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: page slug cannot be empty", checkout.ErrInvalidInput)
	}
	page, err := s.pages.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get page by slug %s: %w", slug, err)
	}
	return page, nil
}

// GetActiveBySlug returns a page that can take payments.
func (s *PageService) GetActiveBySlug(ctx context.Context, slug string) (*checkout.Page, error) {
	page, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !page.Active {
		return nil, checkout.ErrPageInactive
	}
	return page, nil
}

// Create validates and stores a new page. The slug is derived from the title
// when absent and suffixed until unique.
func (s *PageService) Create(ctx context.Context, in PageInput) (*checkout.Page, error) {
	marker := s.perfTracker.StartOperation("page:create", "")
	defer marker.Complete()

	if err := validatePageInput(in); err != nil {
		marker.SetError(err)
		return nil, err
	}

	now := time.Now().UTC()
	page := &checkout.Page{
		ID:        security.GenerateULID(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(page, in); err != nil {
		marker.SetError(err)
		return nil, err
	}

	base := in.Slug
	if strings.TrimSpace(base) == "" {
		base = in.Title
	}
	slug, err := s.uniqueSlug(ctx, Slugify(base), page.ID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	page.Slug = slug

	if err := s.pages.Store(ctx, page); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	s.logger.Content().Info("Page created", "pageId", page.ID, "slug", page.Slug, "amountCents", page.AmountCents)
	marker.SetSuccess(true)
	return page, nil
}

// Update replaces the editable fields of a page. An explicit slug must be
// unique; an empty slug keeps the current one.
func (s *PageService) Update(ctx context.Context, id string, in PageInput) (*checkout.Page, error) {
	marker := s.perfTracker.StartOperation("page:update", id)
	defer marker.Complete()

	if err := validatePageInput(in); err != nil {
		marker.SetError(err)
		return nil, err
	}

	page, err := s.Get(ctx, id)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	updated := *page
	if err := s.apply(&updated, in); err != nil {
		marker.SetError(err)
		return nil, err
	}

	if slug := Slugify(in.Slug); in.Slug != "" && slug != page.Slug {
		if slug == "" {
			return nil, fmt.Errorf("%w: slug must contain letters or digits", checkout.ErrInvalidInput)
		}
		taken, err := s.pages.SlugExists(ctx, slug, id)
		if err != nil {
			marker.SetError(err)
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			marker.SetError(checkout.ErrSlugTaken)
			return nil, checkout.ErrSlugTaken
		}
		updated.Slug = slug
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, &updated); err != nil {
		marker.SetError(err)
		return nil, err
	}

	s.logger.Content().Info("Page updated", "pageId", id, "slug", updated.Slug)
	marker.SetSuccess(true)
	return &updated, nil
}

// Delete removes a page and its payments.
func (s *PageService) Delete(ctx context.Context, id string) error {
	if err := s.pages.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete page %s: %w", id, err)
	}
	s.invalidateFragments(id)
	s.logger.Content().Info("Page deleted", "pageId", id)
	return nil
}

// SaveElements stores a new element list on a copy of page and returns the
// copy. Cached pages are never mutated in place.
func (s *PageService) SaveElements(ctx context.Context, page *checkout.Page, elements []layout.CustomElement) (*checkout.Page, error) {
	updated := *page
	if err := updated.SetElements(sanitizeElements(elements)); err != nil {
		return nil, fmt.Errorf("failed to encode elements: %w", err)
	}
	updated.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SaveTemplate stores new presentation fields and elements on a copy of page.
func (s *PageService) SaveTemplate(ctx context.Context, page *checkout.Page, tmpl checkout.Template) (*checkout.Page, error) {
	if err := validateTemplate(tmpl); err != nil {
		return nil, err
	}
	tmpl.CustomElements = sanitizeElements(tmpl.CustomElements)

	updated := *page
	if err := updated.ApplyTemplate(tmpl); err != nil {
		return nil, fmt.Errorf("failed to encode elements: %w", err)
	}
	updated.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, &updated); err != nil {
		return nil, err
	}
	s.logger.Content().Info("Page template saved", "pageId", page.ID, "elements", len(tmpl.CustomElements))
	return &updated, nil
}

// SetLogo makes url the page logo and turns the logo on.
func (s *PageService) SetLogo(ctx context.Context, page *checkout.Page, url string) (*checkout.Page, error) {
	updated := *page
	updated.LogoURL = url
	updated.ShowLogo = true
	updated.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, &updated); err != nil {
		return nil, err
	}
	s.logger.Content().Info("Page logo replaced", "pageId", page.ID, "logoUrl", url)
	return &updated, nil
}

func (s *PageService) save(ctx context.Context, page *checkout.Page) error {
	if err := s.pages.Update(ctx, page); err != nil {
		return fmt.Errorf("failed to update page %s: %w", page.ID, err)
	}
	s.invalidateFragments(page.ID)
	return nil
}

func (s *PageService) invalidateFragments(pageID string) {
	if s.fragments == nil {
		return
	}
	removed := s.fragments.InvalidateByDependency(pageID)
	s.logger.Cache().Debug("Page fragments invalidated", "pageId", pageID, "chunks", removed)
}

func (s *PageService) apply(page *checkout.Page, in PageInput) error {
	page.Title = strings.TrimSpace(in.Title)
	page.ProductName = strings.TrimSpace(in.ProductName)
	page.ProductDescription = strings.TrimSpace(in.ProductDescription)
	page.AmountCents = in.AmountCents
	page.CustomTitle = strings.TrimSpace(in.CustomTitle)
	page.CustomSubtitle = strings.TrimSpace(in.CustomSubtitle)
	page.PrimaryColor = strings.TrimSpace(in.PrimaryColor)
	page.BackgroundColor = strings.TrimSpace(in.BackgroundColor)
	page.HeaderHeight = in.HeaderHeight
	page.LogoURL = strings.TrimSpace(in.LogoURL)
	page.LogoPosition = strings.TrimSpace(in.LogoPosition)
	page.LogoSize = in.LogoSize
	page.ShowLogo = in.ShowLogo
	page.RequirePhone = in.RequirePhone
	page.SuccessMessage = security.SanitizeRichText(in.SuccessMessage)
	if in.Active != nil {
		page.Active = *in.Active
	}
	if in.CustomElements != nil {
		if err := page.SetElements(sanitizeElements(*in.CustomElements)); err != nil {
			return fmt.Errorf("failed to encode elements: %w", err)
		}
	}
	return nil
}

func (s *PageService) uniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	if base == "" {
		base = "pagina"
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := s.pages.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		suffix := "-" + strconv.Itoa(i)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSlugLength {
			trimmed = strings.TrimRight(trimmed[:maxSlugLength-len(suffix)], "-")
		}
		slug = trimmed + suffix
	}
}

func validatePageInput(in PageInput) error {
	var problems []string
	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		problems = append(problems, "productName is required")
	}
	if in.AmountCents <= 0 {
		problems = append(problems, "amountCents must be positive")
	}
	if in.HeaderHeight < 0 || in.LogoSize < 0 {
		problems = append(problems, "sizes cannot be negative")
	}
	for _, color := range []string{in.PrimaryColor, in.BackgroundColor} {
		if color != "" && !layout.SafeCSSValue(color) {
			problems = append(problems, fmt.Sprintf("invalid color %q", color))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", checkout.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func validateTemplate(t checkout.Template) error {
	var problems []string
	if t.HeaderHeight < 0 || t.LogoSize < 0 {
		problems = append(problems, "sizes cannot be negative")
	}
	for _, color := range []string{t.PrimaryColor, t.BackgroundColor} {
		if color != "" && !layout.SafeCSSValue(color) {
			problems = append(problems, fmt.Sprintf("invalid color %q", color))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", checkout.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// sanitizeElements assigns missing ids and reduces text content to the
// rich-text allow-list.
func sanitizeElements(elements []layout.CustomElement) []layout.CustomElement {
	out := make([]layout.CustomElement, len(elements))
	for i, el := range elements {
		if strings.TrimSpace(el.ID) == "" {
			el.ID = security.GenerateULID()
		}
		if el.Type == "" {
			el.Type = layout.TypeText
		}
		if el.Kind() == layout.KindImage {
			el.Content = strings.TrimSpace(el.Content)
		} else {
			el.Content = security.SanitizeRichText(el.Content)
		}
		out[i] = el
	}
	return out
}

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, strips accents and joins words with hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(slugFolder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// IsNotFound reports whether err is a missing page or payment.
func IsNotFound(err error) bool {
	return errors.Is(err, checkout.ErrPageNotFound) ||
		errors.Is(err, checkout.ErrPaymentNotFound) ||
		errors.Is(err, checkout.ErrElementNotFound)
}
