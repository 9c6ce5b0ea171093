// Package venue defines the collaborator contracts for the external
// trading venue: the position feed, the order history feed, and order
// submission. Implementations live in subpackages.
package venue

import (
	"context"
	"errors"

	"github.com/ericyong81/nova-trader/internal/types"
)

// Common venue errors.
var (
	ErrUnavailable = errors.New("venue unavailable after retries")
	ErrBadResponse = errors.New("venue returned an unexpected response")
)

// Session is the opaque credential bundle produced by the external
// authentication collaborator. The core never refreshes it; an expired
// session surfaces as types.ErrSessionExpired.
type Session struct {
	Token     string `json:"token"`
	SessionIV string `json:"xSessionIv"`
}

// Valid reports whether the bundle carries both credential parts.
func (s Session) Valid() bool {
	return s.Token != "" && s.SessionIV != ""
}

// SessionSource supplies the current session for each venue call. The
// external authenticator maintains the bundle; callers read it fresh per
// request so a background refresh is picked up without restart.
type SessionSource interface {
	Session(ctx context.Context) (Session, error)
}

// PositionFeed queries the venue for currently open positions.
type PositionFeed interface {
	// OpenPositions returns the venue's open position list. The
	// implementation retries transient transport failures internally up
	// to its bound and returns ErrUnavailable when exhausted.
	OpenPositions(ctx context.Context) ([]types.Position, error)
}

// OrderHistory queries the venue for historical orders.
type OrderHistory interface {
	// OrderHistory returns historical orders, most recent first (the
	// venue's native ordering). Returns ErrUnavailable when retries are
	// exhausted.
	OrderHistory(ctx context.Context) ([]types.Order, error)
}

// OrderPlacer submits market orders. Placement is never retried by the
// client: blind resubmission risks duplicate orders.
type OrderPlacer interface {
	PlaceMarketOrder(ctx context.Context, side types.Side, seriesCode string, quantity int) (*OrderAck, error)
}

// Client bundles the three venue capabilities one implementation
// usually provides together.
type Client interface {
	PositionFeed
	OrderHistory
	OrderPlacer
}

// OrderAck is the venue's acknowledgement of an order submission. The
// fill itself is observed through the position feed, not this response.
type OrderAck struct {
	Reference string // venue-assigned reference, may be empty
	Message   string
}
