package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/persistence"
)

// Engine replays the filled-order log into realized trades. Every run
// recomputes the full FIFO pairing; the unique (entry, exit) constraint
// in storage makes re-running a no-op for pairs already recorded, so
// the engine can be triggered after every exit and from the CLI
// without double counting.
type Engine struct {
	repo       persistence.Repository
	multiplier decimal.Decimal
	logger     *slog.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(repo persistence.Repository, multiplier decimal.Decimal, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, multiplier: multiplier, logger: logger}
}

// Run matches all filled orders and persists any trades not yet
// recorded. Returns the number of newly inserted trades.
func (e *Engine) Run(ctx context.Context) (int, error) {
	orders, err := e.repo.GetFilledOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("load filled orders: %w", err)
	}

	trades := Match(orders, e.multiplier)

	inserted := 0
	for _, trade := range trades {
		ok, err := e.repo.SaveRealizedTrade(ctx, trade)
		if err != nil {
			return inserted, fmt.Errorf("save realized trade %s/%s: %w", trade.EntryOrderID, trade.ExitOrderID, err)
		}
		if ok {
			inserted++
			e.logger.Info("realized trade recorded",
				"entry_order_id", trade.EntryOrderID,
				"exit_order_id", trade.ExitOrderID,
				"quantity", trade.Quantity,
				"amount", trade.ProfitLossAmount.String(),
				"result", trade.ProfitLossResult)
		}
	}

	e.logger.Debug("reconciliation pass complete",
		"orders", len(orders),
		"matched", len(trades),
		"inserted", inserted)

	return inserted, nil
}
