package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/messaging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// paymentStatusResponse is the public view of a payment. It carries no
// customer data.
type paymentStatusResponse struct {
	PaymentID   string                 `json:"paymentId"`
	Status      checkout.PaymentStatus `json:"status"`
	AmountCents int64                  `json:"amountCents"`
	ExpiresAt   time.Time              `json:"expiresAt"`
	SecondsLeft int                    `json:"secondsLeft"`
	PaidAt      *time.Time             `json:"paidAt,omitempty"`
}

func newPaymentStatusResponse(p *checkout.Payment) paymentStatusResponse {
	return paymentStatusResponse{
		PaymentID:   p.ID,
		Status:      p.Status,
		AmountCents: p.AmountCents,
		ExpiresAt:   p.ExpiresAt,
		SecondsLeft: p.SecondsLeft(time.Now()),
		PaidAt:      p.PaidAt,
	}
}

// PaymentHandlers serves payment status over HTTP and websocket.
type PaymentHandlers struct {
	payments    *services.PaymentService
	broadcaster *messaging.PaymentBroadcaster
	upgrader    websocket.Upgrader
	logger      *logging.ChanneledLogger
}

// NewPaymentHandlers creates payment handlers. Websocket upgrades are accepted
// from the serving host and from allowedOrigins.
func NewPaymentHandlers(payments *services.PaymentService, broadcaster *messaging.PaymentBroadcaster, allowedOrigins []string, logger *logging.ChanneledLogger) *PaymentHandlers {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &PaymentHandlers{
		payments:    payments,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || origins[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
		logger: logger,
	}
}

// GetPaymentStatus handles GET /api/v1/payments/:id/status?token=. With
// refresh=true the gateway is asked before answering.
func (h *PaymentHandlers) GetPaymentStatus(c *gin.Context) {
	paymentID := c.Param("id")
	token := c.Query("token")
	ctx := c.Request.Context()

	var (
		payment *checkout.Payment
		err     error
	)
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		payment, err = h.payments.Refresh(ctx, paymentID, token)
	} else {
		payment, err = h.payments.Status(ctx, paymentID, token)
	}
	if err != nil {
		respondError(c, h.logger, logging.ChannelPayment, "get_payment_status", err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, newPaymentStatusResponse(payment))
}

// StreamPaymentStatus handles GET /api/v1/payments/:id/stream?token=. The
// current status is written first, then every change until the connection
// closes.
func (h *PaymentHandlers) StreamPaymentStatus(c *gin.Context) {
	paymentID := c.Param("id")

	payment, err := h.payments.Status(c.Request.Context(), paymentID, c.Query("token"))
	if err != nil {
		respondError(c, h.logger, logging.ChannelRealtime, "stream_payment_status", err)
		return
	}

	initial, err := json.Marshal(checkout.StatusUpdate{
		PaymentID: payment.ID,
		Status:    payment.Status,
		PaidAt:    payment.PaidAt,
	})
	if err != nil {
		respondError(c, h.logger, logging.ChannelRealtime, "stream_payment_status", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Realtime().Warn("Websocket upgrade failed", "paymentId", paymentID, "error", err.Error())
		return
	}

	h.logger.Realtime().Debug("Payment stream opened", "paymentId", paymentID)
	if payment.Status.IsTerminal() {
		// nothing left to watch
		conn.WriteMessage(websocket.TextMessage, initial)
		conn.Close()
		return
	}
	messaging.NewClient(conn, paymentID).Serve(h.broadcaster, initial)
	h.logger.Realtime().Debug("Payment stream closed", "paymentId", paymentID)
}

// ListPagePayments handles GET /api/v1/admin/pages/:id/payments?limit=
func (h *PaymentHandlers) ListPagePayments(c *gin.Context) {
	pageID := c.Param("id")
	limit, _ := strconv.Atoi(c.Query("limit"))

	payments, err := h.payments.ListByPage(c.Request.Context(), pageID, limit)
	if err != nil {
		respondError(c, h.logger, logging.ChannelPayment, "list_page_payments", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"count":    len(payments),
	})
}
