package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
)

// lot is an open fill, or what is left of one after partial matching.
type lot struct {
	order     types.Order
	remaining int
}

// Match pairs filled orders into realized trades, first-in first-out.
//
// Orders must be sorted by creation time ascending. Each symbol keeps
// independent queues of unmatched buys and sells; an incoming fill
// consumes the oldest opposite-side lot, splitting whichever side is
// larger. The leftover quantity stays queued and can seed a position
// in the other direction.
//
// Profit is always (sell price - buy price) * multiplier * quantity,
// regardless of which side opened the position.
func Match(orders []types.Order, multiplier decimal.Decimal) []types.RealizedTrade {
	type queues struct {
		buys  []lot
		sells []lot
	}
	bySymbol := make(map[string]*queues)

	var trades []types.RealizedTrade
	for _, o := range orders {
		if o.Status != types.OrderStatusFilled || o.Quantity <= 0 {
			continue
		}

		q := bySymbol[o.Symbol]
		if q == nil {
			q = &queues{}
			bySymbol[o.Symbol] = q
		}

		var opposite *[]lot
		switch o.Side {
		case types.SideBuy:
			opposite = &q.sells
		case types.SideSell:
			opposite = &q.buys
		default:
			continue
		}

		remaining := o.Quantity
		for remaining > 0 && len(*opposite) > 0 {
			head := &(*opposite)[0]
			matched := min(remaining, head.remaining)

			entry, exit := head.order, o
			trades = append(trades, realize(entry, exit, matched, multiplier, o.CreatedTime))

			remaining -= matched
			head.remaining -= matched
			if head.remaining == 0 {
				*opposite = (*opposite)[1:]
			}
		}

		if remaining > 0 {
			l := lot{order: o, remaining: remaining}
			if o.Side == types.SideBuy {
				q.buys = append(q.buys, l)
			} else {
				q.sells = append(q.sells, l)
			}
		}
	}

	return trades
}

func realize(entry, exit types.Order, quantity int, multiplier decimal.Decimal, at time.Time) types.RealizedTrade {
	buyPrice, sellPrice := entry.Price, exit.Price
	if entry.Side == types.SideSell {
		buyPrice, sellPrice = exit.Price, entry.Price
	}

	amount := sellPrice.Sub(buyPrice).Mul(multiplier).Mul(decimal.NewFromInt(int64(quantity)))

	return types.RealizedTrade{
		EntryOrderID:     entry.OrderID,
		ExitOrderID:      exit.OrderID,
		Quantity:         quantity,
		ProfitLossAmount: amount,
		ProfitLossResult: types.ResultLabel(amount),
		CreatedAt:        at,
	}
}

// PairProfitLoss computes the realized amount for a single entry/exit
// pair at full quantity. Used after an exit is confirmed against order
// history, before the batch matcher runs.
func PairProfitLoss(entry, exit types.Order, multiplier decimal.Decimal) decimal.Decimal {
	buyPrice, sellPrice := entry.Price, exit.Price
	if entry.Side == types.SideSell {
		buyPrice, sellPrice = exit.Price, entry.Price
	}
	qty := min(entry.Quantity, exit.Quantity)
	return sellPrice.Sub(buyPrice).Mul(multiplier).Mul(decimal.NewFromInt(int64(qty)))
}
