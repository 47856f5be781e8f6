package workers

import (
	"context"
	"time"

	"agroguide_backend/internal/logger"
	"agroguide_backend/internal/services/subscription"
)

// SubscriptionWorker periodically reclassifies lapsed subscriptions in
// storage. Reads already evaluate expiry themselves; the sweep only
// keeps raw rows fresh for dashboards, so a missed tick costs nothing.
type SubscriptionWorker struct {
	subscriptions *subscription.Service
	interval      time.Duration
}

func NewSubscriptionWorker(subscriptions *subscription.Service) *SubscriptionWorker {
	return &SubscriptionWorker{
		subscriptions: subscriptions,
		interval:      6 * time.Hour,
	}
}

// Start launches the sweep loop; it stops when ctx is cancelled.
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.sweepExpired(ctx)
}

func (w *SubscriptionWorker) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			n, err := w.subscriptions.ProcessExpired(ctx)
			if err != nil {
				logger.Error("Error processing expired subscriptions", "error", err)
			} else if n > 0 {
				logger.Info("Marked subscriptions as expired", "count", n)
			}
		}
	}
}
