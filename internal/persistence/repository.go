// Package persistence provides the durable ledger store for orders and
// realized trades.
package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
)

// Repository defines the interface for the ledger store. All writes are
// insert-or-ignore so overlapping timers never race on read-modify-write.
type Repository interface {
	// Order operations
	SaveOrder(ctx context.Context, order types.Order) error
	GetFilledOrders(ctx context.Context) ([]types.Order, error)
	GetFilledOrdersBySymbol(ctx context.Context, symbol string) ([]types.Order, error)
	UpdateOrderProfitLoss(ctx context.Context, orderID string, amount decimal.Decimal, result string) error

	// Realized trade operations
	SaveRealizedTrade(ctx context.Context, trade types.RealizedTrade) (inserted bool, err error)
	GetRealizedTrades(ctx context.Context, from, to time.Time) ([]types.RealizedTrade, error)
	CountRealizedTrades(ctx context.Context) (int, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
