package messaging

import "github.com/pixpage/pixpage/internal/domain/entities/checkout"

// StatusPublisher receives payment status changes for delivery to watchers.
type StatusPublisher interface {
	Publish(update checkout.StatusUpdate)
}
