// Package handlers provides HTTP handlers for the checkout pages and the
// admin API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	checkouttpl "github.com/pixpage/pixpage/internal/presentation/templates/checkout"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fields checkout.FieldErrors
	switch {
	case errors.As(err, &fields):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrPageNotFound),
		errors.Is(err, checkout.ErrPaymentNotFound),
		errors.Is(err, checkout.ErrElementNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrPageInactive):
		return http.StatusGone
	case errors.Is(err, checkout.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, checkout.ErrInvalidInput), errors.Is(err, checkout.ErrInvalidTaxID):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrGatewayNotConfigured), errors.Is(err, checkout.ErrAINotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a JSON error. Server errors are logged on channel.
func respondError(c *gin.Context, logger *logging.ChanneledLogger, channel logging.Channel, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.LogError(channel, operation, err, map[string]any{"path": c.Request.URL.Path})
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var fields checkout.FieldErrors
	if errors.As(err, &fields) {
		body = gin.H{"error": "validation failed", "fields": fields}
	}
	c.JSON(status, body)
}

// respondErrorPage writes an HTML error document for the public routes.
func respondErrorPage(c *gin.Context, logger *logging.ChanneledLogger, operation string, err error) {
	status := statusFor(err)
	title, message := "Algo deu errado", "Tente novamente em alguns instantes."
	switch status {
	case http.StatusNotFound:
		title, message = "Página não encontrada", "O link que você acessou não existe."
	case http.StatusGone:
		title, message = "Página indisponível", "Esta página de pagamento não está mais ativa."
	case http.StatusForbidden:
		title, message = "Acesso negado", "O link deste pagamento é inválido."
	case http.StatusServiceUnavailable:
		title, message = "Pagamento indisponível", "Não foi possível gerar o PIX agora. Tente novamente mais tarde."
	default:
		logger.LogError(logging.ChannelRender, operation, err, map[string]any{"path": c.Request.URL.Path})
	}

	html, renderErr := checkouttpl.ErrorPage(title, message)
	if renderErr != nil {
		c.String(status, message)
		return
	}
	writeHTML(c, status, string(html))
}

func writeHTML(c *gin.Context, status int, html string) {
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", []byte(html))
}
