// Package history mirrors the venue's order history into the local
// ledger store so reconciliation can run over fills the live
// confirmation path never saw (manual trades, restarts, skipped
// bookkeeping).
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericyong81/nova-trader/internal/persistence"
	"github.com/ericyong81/nova-trader/internal/types"
	"github.com/ericyong81/nova-trader/internal/venue"
)

// Syncer pulls order history and persists filled orders.
type Syncer struct {
	feed   venue.OrderHistory
	repo   persistence.Repository
	logger *slog.Logger
}

// NewSyncer creates a history syncer.
func NewSyncer(feed venue.OrderHistory, repo persistence.Repository, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{feed: feed, repo: repo, logger: logger}
}

// Sync fetches order history and stores every filled order. Inserts
// are idempotent, so syncing over the same window repeatedly is safe.
// Returns the number of filled orders seen.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	orders, err := s.feed.OrderHistory(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch order history: %w", err)
	}

	filled := 0
	for _, o := range orders {
		if o.Status != types.OrderStatusFilled {
			continue
		}
		if err := s.repo.SaveOrder(ctx, o); err != nil {
			return filled, fmt.Errorf("save order %s: %w", o.OrderID, err)
		}
		filled++
	}

	s.logger.Debug("order history synced", "orders", len(orders), "filled", filled)
	return filled, nil
}
