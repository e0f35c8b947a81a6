package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// SyncFunc refreshes one payment and returns its current status.
type SyncFunc func(ctx context.Context, paymentID string) (checkout.PaymentStatus, error)

type watch struct {
	cancel context.CancelFunc
}

// PaymentWatcher runs one polling loop per pending payment. A loop ends when
// the payment reaches a terminal status, when it is stopped, or on shutdown.
type PaymentWatcher struct {
	mu       sync.Mutex
	watches  map[string]*watch
	closed   bool
	base     context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	interval time.Duration
	syncFn   SyncFunc
	logger   *logging.ChanneledLogger
}

// NewPaymentWatcher creates a watcher polling every interval.
func NewPaymentWatcher(interval time.Duration, syncFn SyncFunc, logger *logging.ChanneledLogger) *PaymentWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	base, stop := context.WithCancel(context.Background())
	return &PaymentWatcher{
		watches:  make(map[string]*watch),
		base:     base,
		stop:     stop,
		interval: interval,
		syncFn:   syncFn,
		logger:   logger,
	}
}

// Watch starts polling a payment. It is a no-op for terminal payments, for
// payments already watched and after StopAll.
func (w *PaymentWatcher) Watch(payment *checkout.Payment) bool {
	if payment == nil || payment.Status.IsTerminal() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	if _, ok := w.watches[payment.ID]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(w.base)
	entry := &watch{cancel: cancel}
	w.watches[payment.ID] = entry

	w.wg.Add(1)
	go w.run(ctx, payment.ID, entry)

	w.logger.Payment().Debug("Payment watch started", "paymentId", payment.ID, "interval", w.interval)
	return true
}

// Stop cancels the loop of one payment.
func (w *PaymentWatcher) Stop(paymentID string) {
	w.mu.Lock()
	entry, ok := w.watches[paymentID]
	if ok {
		delete(w.watches, paymentID)
	}
	w.mu.Unlock()

	if ok {
		entry.cancel()
	}
}

// StopAll cancels every loop and waits for them to return.
func (w *PaymentWatcher) StopAll() {
	w.mu.Lock()
	w.closed = true
	count := len(w.watches)
	w.watches = make(map[string]*watch)
	w.mu.Unlock()

	w.stop()
	w.wg.Wait()
	w.logger.Payment().Info("Payment watchers stopped", "stopped", count)
}

// Active returns the number of running loops.
func (w *PaymentWatcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watches)
}

func (w *PaymentWatcher) run(ctx context.Context, paymentID string, entry *watch) {
	defer w.wg.Done()
	defer w.forget(paymentID, entry)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := w.syncFn(ctx, paymentID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, checkout.ErrPaymentNotFound) {
				w.logger.Payment().Warn("Watched payment disappeared", "paymentId", paymentID)
				return
			}
			w.logger.Payment().Warn("Payment sync failed", "paymentId", paymentID, "error", err.Error())
			continue
		}
		if status.IsTerminal() {
			w.logger.Payment().Debug("Payment watch finished", "paymentId", paymentID, "status", status)
			return
		}
	}
}

// forget removes entry unless a newer watch replaced it.
func (w *PaymentWatcher) forget(paymentID string, entry *watch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if current, ok := w.watches[paymentID]; ok && current == entry {
		delete(w.watches, paymentID)
	}
	entry.cancel()
}
