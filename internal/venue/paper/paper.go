// Package paper provides an in-memory venue for paper trading and
// local development. Orders fill immediately at a configurable mark
// price and flow into a synthetic order history.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
	"github.com/ericyong81/nova-trader/internal/venue"
)

// Config holds paper venue settings.
type Config struct {
	Symbol     string
	SeriesCode string
	MarkPrice  decimal.Decimal
}

// Venue is an in-memory venue.Client implementation.
type Venue struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	position *types.Position
	history  []types.Order
	seq      int
	now      func() time.Time
}

// New creates a paper venue.
func New(cfg Config, logger *slog.Logger) *Venue {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MarkPrice.IsZero() {
		cfg.MarkPrice = decimal.NewFromInt(4000)
	}
	return &Venue{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetMarkPrice moves the synthetic mark price.
func (v *Venue) SetMarkPrice(p decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg.MarkPrice = p
}

// OpenPositions implements venue.PositionFeed.
func (v *Venue) OpenPositions(ctx context.Context) ([]types.Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.position == nil {
		return []types.Position{}, nil
	}
	return []types.Position{*v.position}, nil
}

// OrderHistory implements venue.OrderHistory. Most recent first, like
// the real venue.
func (v *Venue) OrderHistory(ctx context.Context) ([]types.Order, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]types.Order, len(v.history))
	for i, o := range v.history {
		out[len(v.history)-1-i] = o
	}
	return out, nil
}

// PlaceMarketOrder implements venue.OrderPlacer. Fills immediately at
// the mark price and nets against any existing position.
func (v *Venue) PlaceMarketOrder(ctx context.Context, side types.Side, seriesCode string, quantity int) (*venue.OrderAck, error) {
	if quantity <= 0 {
		quantity = 1
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	orderID := fmt.Sprintf("PAPER-%04d", v.seq)
	price := v.cfg.MarkPrice

	v.history = append(v.history, types.Order{
		OrderID:     orderID,
		Symbol:      v.cfg.Symbol,
		SeriesCode:  seriesCode,
		Side:        side,
		Quantity:    quantity,
		Price:       price,
		Status:      types.OrderStatusFilled,
		CreatedTime: v.now(),
	})

	signed := decimal.NewFromInt(int64(quantity))
	if side == types.SideSell {
		signed = signed.Neg()
	}

	if v.position == nil {
		v.position = &types.Position{
			Symbol:       v.cfg.Symbol,
			SeriesCode:   seriesCode,
			OpenQuantity: signed,
			AveragePrice: price,
		}
	} else {
		net := v.position.OpenQuantity.Add(signed)
		if net.IsZero() {
			v.position = nil
		} else {
			v.position.OpenQuantity = net
		}
	}

	v.logger.Debug("paper order filled",
		"order_id", orderID,
		"side", side,
		"quantity", quantity,
		"price", price,
	)

	return &venue.OrderAck{Reference: orderID}, nil
}
