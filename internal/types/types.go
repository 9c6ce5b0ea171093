// Package types defines shared types used across the trading system.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order.
type Side int

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideUnknown
	}
}

// ParseSide parses an action string ("buy"/"sell") into a Side.
func ParseSide(s string) Side {
	switch s {
	case "buy", "BUY":
		return SideBuy
	case "sell", "SELL":
		return SideSell
	default:
		return SideUnknown
	}
}

// SideFromQuantity derives the entry side of a position from its signed
// open quantity: a negative quantity means the position was entered by
// selling, a positive one by buying.
func SideFromQuantity(qty decimal.Decimal) Side {
	if qty.IsNegative() {
		return SideSell
	}
	return SideBuy
}

// OrderStatus represents the venue's reported state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusQueued    OrderStatus = "Queued"
	OrderStatusFilled    OrderStatus = "Filled"
	OrderStatusRejected  OrderStatus = "Rejected"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// IsFinal returns true if the order is in a terminal state.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Position is the venue's current view of one open futures position.
// Always read fresh from the feed, never cached across actions.
type Position struct {
	Symbol       string          // display symbol, e.g. "FCPO"
	SeriesCode   string          // tradable series, e.g. "F.BMD.FCPO.H25"
	OpenQuantity decimal.Decimal // signed: negative = entered by selling
	AveragePrice decimal.Decimal
}

// EntrySide returns the side this position was entered on.
func (p Position) EntrySide() Side {
	return SideFromQuantity(p.OpenQuantity)
}

// ExitSide returns the side that would flatten this position.
func (p Position) ExitSide() Side {
	return p.EntrySide().Opposite()
}

// Order is a historical order as reported by the venue and persisted in
// the ledger store. Immutable once written, except for the profit/loss
// columns filled in after an exit is confirmed.
type Order struct {
	OrderID     string
	Symbol      string
	SeriesCode  string
	Side        Side
	Quantity    int
	Price       decimal.Decimal // average fill price
	Status      OrderStatus
	CreatedTime time.Time

	// Written back after exit confirmation; zero until then.
	ProfitLossAmount decimal.Decimal
	ProfitLossResult string
}

// RealizedTrade pairs one entry order with one exit order for a matched
// quantity. The (EntryOrderID, ExitOrderID) pair is unique in the store,
// so re-running reconciliation never duplicates a pairing.
type RealizedTrade struct {
	ID               int64
	EntryOrderID     string
	ExitOrderID      string
	Quantity         int
	ProfitLossAmount decimal.Decimal // signed
	ProfitLossResult string          // "Profit" or "Loss", from the sign
	CreatedAt        time.Time
}

// ResultLabel returns the ledger label for a signed profit/loss amount.
func ResultLabel(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "Loss"
	}
	return "Profit"
}

// IntentKind distinguishes the action requested by an inbound signal.
type IntentKind int

const (
	IntentEntry IntentKind = iota
	IntentExit
	IntentForceExit
)

func (k IntentKind) String() string {
	switch k {
	case IntentEntry:
		return "entry"
	case IntentExit:
		return "exit"
	case IntentForceExit:
		return "force_exit"
	default:
		return "unknown"
	}
}

// Intent is a request to open or close a position. It originates from an
// external webhook or the scheduler, is consumed exactly once by the
// coordinator, and is never persisted.
type Intent struct {
	ID          string // generated uuid, for logging only
	Kind        IntentKind
	Action      Side // requested side; unset for force-exit
	Symbol      string
	SeriesCode  string
	LotSize     int    // order quantity; defaults to 1
	StrategyID  string // per-strategy label from the signal source
	SignalPrice decimal.Decimal
	ReceivedAt  time.Time
}

// Key returns the lease key guarding this intent. Entry and exit for the
// same strategy are distinct keys; a force-exit shares the exit key so a
// scheduled close cannot race a signal-driven one.
func (i Intent) Key() TradeKey {
	kind := i.Kind
	if kind == IntentForceExit {
		kind = IntentExit
	}
	return TradeKey{StrategyID: i.StrategyID, Kind: kind}
}

// TradeKey identifies one logical in-flight action per strategy.
type TradeKey struct {
	StrategyID string
	Kind       IntentKind
}

func (k TradeKey) String() string {
	return k.StrategyID + "/" + k.Kind.String()
}
