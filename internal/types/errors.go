package types

import "errors"

// Sentinel errors for the trading system.
var (
	// Feed errors
	ErrFeedUnreliable = errors.New("position feed returned an unreliable result")
	ErrFeedExhausted  = errors.New("could not obtain open positions")

	// Session errors
	ErrSessionExpired = errors.New("venue session expired")

	// Execution errors
	ErrActionInProgress    = errors.New("an action for this strategy is already in flight")
	ErrMarketClosingSoon   = errors.New("rejected: market closing soon")
	ErrOrderRejected       = errors.New("order rejected by venue")
	ErrFillTimeout         = errors.New("could not confirm fill")
	ErrConfirmationTimeout = errors.New("could not confirm exit in order history")

	// Terminal non-error outcomes
	ErrNoPosition = errors.New("no open position")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidIntent = errors.New("invalid intent")
)
