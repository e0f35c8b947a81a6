// Package messaging pushes payment status changes to connected checkout pages
// over websockets.
package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// PaymentBroadcaster fans status updates out to every client watching a
// payment. Registration and delivery go through Run's loop.
type PaymentBroadcaster struct {
	clients    map[string]map[*Client]bool // paymentId -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan checkout.StatusUpdate
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logging.ChanneledLogger
}

var _ StatusPublisher = (*PaymentBroadcaster)(nil)

// NewPaymentBroadcaster creates a new broadcaster instance.
func NewPaymentBroadcaster(logger *logging.ChanneledLogger) *PaymentBroadcaster {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &PaymentBroadcaster{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan checkout.StatusUpdate, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop. It returns when ctx is done, after
// closing every client's send channel.
func (b *PaymentBroadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			if _, ok := b.clients[client.PaymentID]; !ok {
				b.clients[client.PaymentID] = make(map[*Client]bool)
			}
			b.clients[client.PaymentID][client] = true
			b.mu.Unlock()
			b.logger.Realtime().Debug("Status client registered", "paymentId", client.PaymentID)

		case client := <-b.unregister:
			b.remove(client)
			b.logger.Realtime().Debug("Status client unregistered", "paymentId", client.PaymentID)

		case update := <-b.broadcast:
			b.deliver(update)

		case <-ctx.Done():
			b.mu.Lock()
			for paymentID, clients := range b.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(b.clients, paymentID)
			}
			b.mu.Unlock()
			b.logger.Realtime().Info("Payment broadcaster stopped")
			return
		}
	}
}

// Register queues a client for registration. It reports false once the
// broadcaster has stopped.
func (b *PaymentBroadcaster) Register(client *Client) bool {
	select {
	case b.register <- client:
		return true
	case <-b.done:
		return false
	}
}

// Unregister queues a client for unregistration.
func (b *PaymentBroadcaster) Unregister(client *Client) {
	select {
	case b.unregister <- client:
	case <-b.done:
	}
}

// Publish queues a status update. It never blocks the caller: when the queue
// is full the update is dropped and clients recover through polling.
func (b *PaymentBroadcaster) Publish(update checkout.StatusUpdate) {
	select {
	case b.broadcast <- update:
	default:
		b.logger.Realtime().Warn("Broadcast queue full, update dropped", "paymentId", update.PaymentID, "status", update.Status)
	}
}

// Subscribers returns the number of clients watching a payment.
func (b *PaymentBroadcaster) Subscribers(paymentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[paymentID])
}

func (b *PaymentBroadcaster) deliver(update checkout.StatusUpdate) {
	message, err := json.Marshal(update)
	if err != nil {
		b.logger.Realtime().Error("Error marshaling status update", "paymentId", update.PaymentID, "error", err.Error())
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for client := range b.clients[update.PaymentID] {
		select {
		case client.Send <- message:
			delivered++
		default:
			b.logger.Realtime().Warn("Client send buffer full, message dropped", "paymentId", update.PaymentID)
		}
	}
	b.logger.Realtime().Debug("Status update broadcast", "paymentId", update.PaymentID, "status", update.Status, "clients", delivered)
}

func (b *PaymentBroadcaster) remove(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.clients[client.PaymentID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
	}
	if len(clients) == 0 {
		delete(b.clients, client.PaymentID)
	}
}
