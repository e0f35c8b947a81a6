package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/security"
	checkouttpl "github.com/pixpage/pixpage/internal/presentation/templates/checkout"
)

// ElementInput describes a new element or a partial element update. Nil
// fields are left unchanged on update.
type ElementInput struct {
	Type     *string          `json:"type"`
	Position *layout.Position `json:"position"`
	Content  *string          `json:"content"`
	Styles   *layout.Styles   `json:"styles"`
}

// ElementService implements the page editor operations on custom elements.
type ElementService struct {
	pages    *PageService
	renderer *checkouttpl.Renderer
	logger   *logging.ChanneledLogger
}

// NewElementService creates the editor service.
func NewElementService(pages *PageService, renderer *checkouttpl.Renderer, logger *logging.ChanneledLogger) *ElementService {
	return &ElementService{pages: pages, renderer: renderer, logger: logger}
}

// List returns a page's elements in render order.
func (s *ElementService) List(ctx context.Context, pageID string) ([]layout.CustomElement, error) {
	_, elements, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return inRenderOrder(elements), nil
}

// Add appends a new element. Text and image elements default to the middle
// bucket; images default to a 200px width.
func (s *ElementService) Add(ctx context.Context, pageID string, in ElementInput) (*layout.CustomElement, error) {
	page, elements, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}

	el := layout.CustomElement{
		ID:       security.GenerateULID(),
		Type:     layout.TypeText,
		Position: layout.Named(layout.SymbolMiddle),
	}
	if in.Type != nil && strings.TrimSpace(*in.Type) != "" {
		el.Type = strings.TrimSpace(*in.Type)
	}
	if in.Position != nil && in.Position.IsSet() {
		el.Position = *in.Position
	}
	if in.Content != nil {
		el.Content = *in.Content
	}
	if in.Styles != nil {
		styles := *in.Styles
		el.Styles = &styles
	}
	if el.Kind() == layout.KindImage {
		if el.Styles == nil {
			el.Styles = &layout.Styles{}
		}
		if !el.Styles.ImageSize.IsSet() {
			el.Styles.ImageSize = layout.Px(layout.DefaultImageWidth)
		}
	}

	saved, err := s.pages.SaveElements(ctx, page, append(elements, el))
	if err != nil {
		return nil, err
	}

	s.logger.Content().Info("Element added", "pageId", pageID, "elementId", el.ID, "type", el.Type, "position", el.Position.String(), "bucket", el.Bucket().String())
	return findElement(saved, el.ID)
}

// Update changes the given fields of one element.
func (s *ElementService) Update(ctx context.Context, pageID, elementID string, in ElementInput) (*layout.CustomElement, error) {
	page, elements, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}

	idx := indexOf(elements, elementID)
	if idx < 0 {
		return nil, checkout.ErrElementNotFound
	}
	el := elements[idx]
	if in.Type != nil && strings.TrimSpace(*in.Type) != "" {
		el.Type = strings.TrimSpace(*in.Type)
	}
	if in.Position != nil && in.Position.IsSet() {
		el.Position = *in.Position
	}
	if in.Content != nil {
		el.Content = *in.Content
	}
	if in.Styles != nil {
		styles := *in.Styles
		el.Styles = &styles
	}
	elements[idx] = el

	saved, err := s.pages.SaveElements(ctx, page, elements)
	if err != nil {
		return nil, err
	}

	s.logger.Content().Info("Element updated", "pageId", pageID, "elementId", elementID)
	return findElement(saved, elementID)
}

// Delete removes an element and compacts the remaining positions.
func (s *ElementService) Delete(ctx context.Context, pageID, elementID string) error {
	page, elements, err := s.load(ctx, pageID)
	if err != nil {
		return err
	}

	idx := indexOf(elements, elementID)
	if idx < 0 {
		return checkout.ErrElementNotFound
	}
	remaining := append(elements[:idx:idx], elements[idx+1:]...)

	if _, err := s.pages.SaveElements(ctx, page, layout.Compact(remaining)); err != nil {
		return err
	}

	s.logger.Content().Info("Element deleted", "pageId", pageID, "elementId", elementID, "remaining", len(remaining))
	return nil
}

// Move places an element at a new position, possibly in another bucket.
func (s *ElementService) Move(ctx context.Context, pageID, elementID string, position layout.Position) (*layout.CustomElement, error) {
	if !position.IsSet() {
		return nil, fmt.Errorf("%w: position is required", checkout.ErrInvalidInput)
	}
	return s.Update(ctx, pageID, elementID, ElementInput{Position: &position})
}

// Reorder sets the order of every element of one bucket. ids must list the
// bucket's members exactly once.
func (s *ElementService) Reorder(ctx context.Context, pageID string, bucket layout.Bucket, ids []string) ([]layout.CustomElement, error) {
	if bucket == layout.BucketHeader {
		return nil, fmt.Errorf("%w: header elements are reordered by moving them", checkout.ErrInvalidInput)
	}
	page, elements, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}

	members := layout.Partition(elements).In(bucket)
	if len(ids) != len(members) {
		return nil, fmt.Errorf("%w: expected %d ids for bucket %s, got %d", checkout.ErrInvalidInput, len(members), bucket, len(ids))
	}

	byID := make(map[string]layout.CustomElement, len(members))
	for _, el := range members {
		byID[el.ID] = el
	}
	ordered := make([]layout.CustomElement, 0, len(ids))
	for _, id := range ids {
		el, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: element %s is not in bucket %s", checkout.ErrInvalidInput, id, bucket)
		}
		delete(byID, id)
		ordered = append(ordered, el)
	}

	// Members go back into their own slots in the new order so equal
	// effective orders still render as requested.
	renumbered := layout.Renumber(bucket, ordered)
	inBucket := make(map[string]bool, len(members))
	for _, el := range members {
		inBucket[el.ID] = true
	}
	next := 0
	for i := range elements {
		if inBucket[elements[i].ID] {
			elements[i] = renumbered[next]
			next++
		}
	}

	saved, err := s.pages.SaveElements(ctx, page, elements)
	if err != nil {
		return nil, err
	}
	savedElements, err := saved.Elements()
	if err != nil {
		return nil, err
	}

	s.logger.Content().Info("Bucket reordered", "pageId", pageID, "bucket", bucket.String(), "elements", len(ids))
	return layout.Partition(savedElements).In(bucket), nil
}

// Compact renumbers every bucket of a page.
func (s *ElementService) Compact(ctx context.Context, pageID string) ([]layout.CustomElement, error) {
	page, elements, err := s.load(ctx, pageID)
	if err != nil {
		return nil, err
	}
	saved, err := s.pages.SaveElements(ctx, page, layout.Compact(elements))
	if err != nil {
		return nil, err
	}
	return saved.Elements()
}

// Preview renders a page as the editor shows it. A non-nil draft replaces the
// stored presentation fields without being saved.
func (s *ElementService) Preview(ctx context.Context, pageID string, draft *checkout.Template) (template.HTML, error) {
	page, err := s.pages.Get(ctx, pageID)
	if err != nil {
		return "", err
	}

	view := *page
	if draft != nil {
		if err := view.ApplyTemplate(*draft); err != nil {
			return "", fmt.Errorf("%w: %v", checkout.ErrInvalidInput, err)
		}
	}

	elements := parseElementsSoft(&view, s.logger)
	return s.renderer.Render(elements, checkouttpl.PreviewSlot{
		ProductName: view.ProductName,
		AmountCents: view.AmountCents,
	}, view.LayoutContext())
}

func (s *ElementService) load(ctx context.Context, pageID string) (*checkout.Page, []layout.CustomElement, error) {
	page, err := s.pages.Get(ctx, pageID)
	if err != nil {
		return nil, nil, err
	}
	elements, err := page.Elements()
	if err != nil {
		return nil, nil, fmt.Errorf("page %s has unreadable elements: %w", pageID, err)
	}
	return page, elements, nil
}

// parseElementsSoft treats malformed stored elements as an empty list.
func parseElementsSoft(page *checkout.Page, logger *logging.ChanneledLogger) []layout.CustomElement {
	elements, err := page.Elements()
	if err != nil {
		logger.Render().Warn("Malformed custom elements ignored", "pageId", page.ID, "error", err.Error())
		return nil
	}
	return elements
}

func inRenderOrder(elements []layout.CustomElement) []layout.CustomElement {
	parts := layout.Partition(elements)
	out := make([]layout.CustomElement, 0, len(elements))
	for _, b := range layout.Buckets {
		out = append(out, parts.In(b)...)
	}
	return out
}

func indexOf(elements []layout.CustomElement, id string) int {
	for i, el := range elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}

func findElement(page *checkout.Page, id string) (*layout.CustomElement, error) {
	elements, err := page.Elements()
	if err != nil {
		return nil, err
	}
	idx := indexOf(elements, id)
	if idx < 0 {
		return nil, checkout.ErrElementNotFound
	}
	return &elements[idx], nil
}
