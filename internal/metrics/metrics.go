package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsTotal counts trade actions by kind and terminal result.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "actions_total",
		Help:      "Trade actions processed, by kind and result.",
	}, []string{"kind", "result"})

	// OrdersPlacedTotal counts orders submitted to the venue.
	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "orders_placed_total",
		Help:      "Orders submitted, by side and outcome.",
	}, []string{"side", "outcome"})

	// RetriesTotal counts retry attempts by stage.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "retries_total",
		Help:      "Retry attempts, by stage.",
	}, []string{"stage"})

	// LeaseRejectionsTotal counts actions rejected because an action
	// with the same key was already running.
	LeaseRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "lease_rejections_total",
		Help:      "Actions rejected by the exclusivity lease.",
	})

	// SessionExpiredTotal counts venue calls failed on a dead session.
	SessionExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "session_expired_total",
		Help:      "Venue requests rejected for an expired session.",
	})

	// ForceExitsTotal counts scheduled force-exit triggers.
	ForceExitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "force_exits_total",
		Help:      "Scheduled force-exit triggers fired.",
	})

	// RealizedTradesTotal counts realized trades recorded.
	RealizedTradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nova_trader",
		Name:      "realized_trades_total",
		Help:      "Realized trades recorded, by result.",
	}, []string{"result"})

	// RealizedPL tracks cumulative realized profit/loss.
	RealizedPL = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nova_trader",
		Name:      "realized_pl",
		Help:      "Cumulative realized profit/loss.",
	})

	// PositionOpen reports whether a position is currently open.
	PositionOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nova_trader",
		Name:      "position_open",
		Help:      "1 when a position is open for the symbol.",
	}, []string{"symbol"})

	// FeedLatency observes position feed round-trip time.
	FeedLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nova_trader",
		Name:      "feed_latency_seconds",
		Help:      "Position feed request latency.",
		Buckets:   prometheus.DefBuckets,
	})

	// OrderLatency observes order placement round-trip time.
	OrderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nova_trader",
		Name:      "order_latency_seconds",
		Help:      "Order placement latency.",
		Buckets:   prometheus.DefBuckets,
	})
)
