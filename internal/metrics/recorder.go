package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recorder provides methods for recording metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordAction records a finished trade action.
func (r *Recorder) RecordAction(kind, result string) {
	ActionsTotal.WithLabelValues(kind, result).Inc()
}

// RecordOrderPlaced records an order submission outcome.
func (r *Recorder) RecordOrderPlaced(side, outcome string) {
	OrdersPlacedTotal.WithLabelValues(side, outcome).Inc()
}

// RecordRetry records one retry attempt at a named stage.
func (r *Recorder) RecordRetry(stage string) {
	RetriesTotal.WithLabelValues(stage).Inc()
}

// RecordLeaseRejection records an action turned away by the lease.
func (r *Recorder) RecordLeaseRejection() {
	LeaseRejectionsTotal.Inc()
}

// RecordSessionExpired records a venue call failed on a dead session.
func (r *Recorder) RecordSessionExpired() {
	SessionExpiredTotal.Inc()
}

// RecordForceExit records a scheduled force-exit trigger.
func (r *Recorder) RecordForceExit() {
	ForceExitsTotal.Inc()
}

// RecordRealizedTrade records a realized trade.
func (r *Recorder) RecordRealizedTrade(result string, amount decimal.Decimal) {
	RealizedTradesTotal.WithLabelValues(result).Inc()
	RealizedPL.Add(amount.InexactFloat64())
}

// RecordPositionOpen sets whether a position is open for a symbol.
func (r *Recorder) RecordPositionOpen(symbol string, open bool) {
	if open {
		PositionOpen.WithLabelValues(symbol).Set(1)
	} else {
		PositionOpen.WithLabelValues(symbol).Set(0)
	}
}

// RecordFeedLatency records a position feed round trip.
func (r *Recorder) RecordFeedLatency(duration time.Duration) {
	FeedLatency.Observe(duration.Seconds())
}

// RecordOrderLatency records an order placement round trip.
func (r *Recorder) RecordOrderLatency(duration time.Duration) {
	OrderLatency.Observe(duration.Seconds())
}
