package services

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/interfaces"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
	checkouttpl "github.com/pixpage/pixpage/internal/presentation/templates/checkout"
)

// FormState is what a rejected submission sends back to the form.
type FormState struct {
	Values  checkout.Customer
	Errors  checkout.FieldErrors
	Message string
}

// RenderService produces the public checkout documents. The empty form of a
// page is cached as an HTML chunk that depends on the page.
type RenderService struct {
	renderer     *checkouttpl.Renderer
	fragments    interfaces.HTMLChunkCache
	pollInterval time.Duration
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewRenderService creates the render service. fragments may be nil.
func NewRenderService(renderer *checkouttpl.Renderer, fragments interfaces.HTMLChunkCache, pollInterval time.Duration, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RenderService {
	return &RenderService{
		renderer:     renderer,
		fragments:    fragments,
		pollInterval: pollInterval,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// CheckoutForm renders the checkout page with the customer form. A nil state
// renders the empty form from cache when possible.
func (s *RenderService) CheckoutForm(ctx context.Context, page *checkout.Page, state *FormState) (template.HTML, error) {
	marker := s.perfTracker.StartOperation("render:checkout", page.ID)
	defer marker.Complete()

	cacheable := state == nil && s.fragments != nil
	if cacheable {
		if html, ok := s.fragments.GetHTMLChunk(page.ID, types.VariantCheckoutForm); ok {
			marker.AddCacheHit()
			marker.SetSuccess(true)
			return template.HTML(html), nil
		}
		marker.AddCacheMiss()
	}

	slot := checkouttpl.FormSlot{
		Action:       CheckoutActionURL(page),
		ProductName:  page.ProductName,
		AmountCents:  page.AmountCents,
		RequirePhone: page.RequirePhone,
	}
	if state != nil {
		slot.Values = state.Values
		slot.Errors = state.Errors
		slot.Message = state.Message
	}

	html, err := s.render(page, slot)
	if err != nil {
		marker.SetError(err)
		return "", err
	}

	if cacheable {
		s.fragments.SetHTMLChunk(page.ID, types.VariantCheckoutForm, string(html), []string{page.ID})
	}
	marker.SetSuccess(true)
	return html, nil
}

// PaymentView renders a payment: the QR code while pending, the final state
// otherwise.
func (s *RenderService) PaymentView(ctx context.Context, page *checkout.Page, payment *checkout.Payment, token string) (template.HTML, error) {
	marker := s.perfTracker.StartOperation("render:payment", payment.ID)
	defer marker.Complete()

	var slot checkouttpl.ContentProvider
	if payment.Status.IsTerminal() {
		slot = checkouttpl.StatusSlot{
			Status:         payment.Status,
			ProductName:    page.ProductName,
			AmountCents:    payment.AmountCents,
			PaidAt:         payment.PaidAt,
			SuccessMessage: page.SuccessMessage,
			RetryURL:       PageURL(page),
		}
	} else {
		slot = checkouttpl.PaymentSlot{
			PaymentID:    payment.ID,
			PixCode:      payment.PixCode,
			QRCodeImage:  payment.QRCodeImage,
			AmountCents:  payment.AmountCents,
			Status:       payment.Status,
			SecondsLeft:  payment.SecondsLeft(time.Now()),
			StatusURL:    PaymentStatusURL(payment.ID, token),
			StreamURL:    PaymentStreamURL(payment.ID, token),
			PollInterval: s.pollInterval,
		}
	}

	html, err := s.render(page, slot)
	if err != nil {
		marker.SetError(err)
		return "", err
	}
	marker.SetSuccess(true)
	return html, nil
}

func (s *RenderService) render(page *checkout.Page, slot checkouttpl.ContentProvider) (template.HTML, error) {
	start := time.Now()
	html, err := s.renderer.Render(parseElementsSoft(page, s.logger), slot, page.LayoutContext())
	if err != nil {
		s.logger.Render().Error("Checkout render failed", "pageId", page.ID, "error", err.Error())
		return "", fmt.Errorf("failed to render page %s: %w", page.ID, err)
	}
	s.logger.Render().Debug("Checkout rendered", "pageId", page.ID, "bytes", len(html), "duration", time.Since(start))
	return html, nil
}

// PageURL is the public path of a checkout page.
func PageURL(page *checkout.Page) string {
	return "/p/" + url.PathEscape(page.Slug)
}

// CheckoutActionURL is the form target of a checkout page.
func CheckoutActionURL(page *checkout.Page) string {
	return PageURL(page) + "/checkout"
}

// PaymentViewURL is the public path of a payment of a page.
func PaymentViewURL(page *checkout.Page, paymentID, token string) string {
	return PageURL(page) + "/payment/" + url.PathEscape(paymentID) + "?token=" + url.QueryEscape(token)
}

// PaymentStatusURL is the JSON status endpoint of a payment.
func PaymentStatusURL(paymentID, token string) string {
	return "/api/v1/payments/" + url.PathEscape(paymentID) + "/status?token=" + url.QueryEscape(token)
}

// PaymentStreamURL is the websocket endpoint of a payment.
func PaymentStreamURL(paymentID, token string) string {
	return "/api/v1/payments/" + url.PathEscape(paymentID) + "/stream?token=" + url.QueryEscape(token)
}
