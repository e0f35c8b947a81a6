package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// checkoutForm is the customer form posted by the checkout page.
type checkoutForm struct {
	Name  string `form:"name"`
	Email string `form:"email"`
	TaxID string `form:"taxId"`
	Phone string `form:"phone"`
}

func (f checkoutForm) customer() checkout.Customer {
	return checkout.Customer{Name: f.Name, Email: f.Email, TaxID: f.TaxID, Phone: f.Phone}
}

// CheckoutHandlers serves the public checkout pages.
type CheckoutHandlers struct {
	pages    *services.PageService
	payments *services.PaymentService
	render   *services.RenderService
	logger   *logging.ChanneledLogger
}

// NewCheckoutHandlers creates checkout handlers with injected dependencies
func NewCheckoutHandlers(pages *services.PageService, payments *services.PaymentService, render *services.RenderService, logger *logging.ChanneledLogger) *CheckoutHandlers {
	return &CheckoutHandlers{
		pages:    pages,
		payments: payments,
		render:   render,
		logger:   logger,
	}
}

// ShowCheckout handles GET /p/:slug
func (h *CheckoutHandlers) ShowCheckout(c *gin.Context) {
	start := time.Now()
	slug := c.Param("slug")

	page, err := h.pages.GetActiveBySlug(c.Request.Context(), slug)
	if err != nil {
		respondErrorPage(c, h.logger, "show_checkout", err)
		return
	}

	html, err := h.render.CheckoutForm(c.Request.Context(), page, nil)
	if err != nil {
		respondErrorPage(c, h.logger, "show_checkout", err)
		return
	}

	h.logger.Render().Debug("Checkout page served", "slug", slug, "duration", time.Since(start))
	writeHTML(c, http.StatusOK, string(html))
}

// SubmitCheckout handles POST /p/:slug/checkout. Validation failures re-render
// the form; a created payment redirects to its payment view.
func (h *CheckoutHandlers) SubmitCheckout(c *gin.Context) {
	start := time.Now()
	slug := c.Param("slug")
	ctx := c.Request.Context()

	page, err := h.pages.GetActiveBySlug(ctx, slug)
	if err != nil {
		respondErrorPage(c, h.logger, "submit_checkout", err)
		return
	}

	var form checkoutForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderForm(c, page, http.StatusBadRequest, &services.FormState{Message: "Não foi possível ler o formulário."})
		return
	}
	customer := form.customer()

	created, err := h.payments.Create(ctx, page, customer)
	if err != nil {
		var fields checkout.FieldErrors
		switch {
		case errors.As(err, &fields):
			h.renderForm(c, page, http.StatusUnprocessableEntity, &services.FormState{Values: customer, Errors: fields})
		case errors.Is(err, checkout.ErrGatewayNotConfigured):
			respondErrorPage(c, h.logger, "submit_checkout", err)
		default:
			h.logger.LogError(logging.ChannelPayment, "submit_checkout", err, map[string]any{"pageId": page.ID})
			h.renderForm(c, page, http.StatusBadGateway, &services.FormState{
				Values:  customer,
				Message: "Não foi possível gerar o PIX. Tente novamente.",
			})
		}
		return
	}

	h.logger.Payment().Info("Checkout submitted",
		"pageId", page.ID,
		"paymentId", created.Payment.ID,
		"customer", logging.MaskEmail(created.Payment.Customer.Email),
		"duration", time.Since(start))
	c.Redirect(http.StatusSeeOther, services.PaymentViewURL(page, created.Payment.ID, created.Token))
}

// ShowPayment handles GET /p/:slug/payment/:id?token=
func (h *CheckoutHandlers) ShowPayment(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	paymentID := c.Param("id")

	page, err := h.pages.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondErrorPage(c, h.logger, "show_payment", err)
		return
	}

	payment, err := h.payments.Status(ctx, paymentID, c.Query("token"))
	if err != nil {
		respondErrorPage(c, h.logger, "show_payment", err)
		return
	}
	if payment.PageID != page.ID {
		respondErrorPage(c, h.logger, "show_payment", checkout.ErrPaymentNotFound)
		return
	}

	html, err := h.render.PaymentView(ctx, page, payment, c.Query("token"))
	if err != nil {
		respondErrorPage(c, h.logger, "show_payment", err)
		return
	}

	h.logger.Render().Debug("Payment page served", "paymentId", paymentID, "status", payment.Status, "duration", time.Since(start))
	writeHTML(c, http.StatusOK, string(html))
}

func (h *CheckoutHandlers) renderForm(c *gin.Context, page *checkout.Page, status int, state *services.FormState) {
	html, err := h.render.CheckoutForm(c.Request.Context(), page, state)
	if err != nil {
		respondErrorPage(c, h.logger, "render_form", err)
		return
	}
	writeHTML(c, status, string(html))
}
