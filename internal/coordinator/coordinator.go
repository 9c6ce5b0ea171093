// Package coordinator drives trade actions end to end: it owns the
// exclusivity lease, the position feed checks, order submission and the
// confirmation polling that follows, against a venue whose feed lags
// its own fills.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/alerting"
	"github.com/ericyong81/nova-trader/internal/calendar"
	"github.com/ericyong81/nova-trader/internal/metrics"
	"github.com/ericyong81/nova-trader/internal/persistence"
	"github.com/ericyong81/nova-trader/internal/reconcile"
	"github.com/ericyong81/nova-trader/internal/types"
	"github.com/ericyong81/nova-trader/internal/venue"
)

// Status is the terminal state of a processed intent.
type Status string

const (
	// StatusExecuted means the order was placed and confirmed.
	StatusExecuted Status = "EXECUTED"
	// StatusNotRequired means the venue state already satisfied the
	// intent, so no order was placed.
	StatusNotRequired Status = "NOT_REQUIRED"
	// StatusRejected means the intent was turned away before any order
	// was placed.
	StatusRejected Status = "REJECTED"
	// StatusFailed means an order may have been placed but the action
	// could not be confirmed.
	StatusFailed Status = "FAILED"
)

// Outcome reports how an intent finished.
type Outcome struct {
	Status    Status
	Reference string // venue order reference, when one was placed
	Message   string

	// ProfitLoss is set when an exit was confirmed against order
	// history. ProfitLossSkipped is set when the exit succeeded but
	// history never showed the fill in time.
	ProfitLoss        decimal.Decimal
	ProfitLossKnown   bool
	ProfitLossSkipped bool
}

// Params holds the retry bounds and instrument constants the
// coordinator runs with.
type Params struct {
	FeedCheckRetries       int
	FeedCheckDelay         time.Duration
	FillConfirmAttempts    int
	FillConfirmDelay       time.Duration
	HistoryConfirmAttempts int
	HistoryConfirmDelay    time.Duration
	Multiplier             decimal.Decimal
}

// Coordinator serializes and executes trade intents.
type Coordinator struct {
	venue    venue.Client
	repo     persistence.Repository
	engine   *reconcile.Engine
	calendar *calendar.Calendar
	alerter  alerting.Alerter
	recorder *metrics.Recorder
	leases   *LeaseRegistry
	params   Params
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a coordinator.
func New(vc venue.Client, repo persistence.Repository, engine *reconcile.Engine, cal *calendar.Calendar, alerter alerting.Alerter, recorder *metrics.Recorder, params Params, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if alerter == nil {
		alerter = alerting.NewConsoleAlerter(logger)
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Coordinator{
		venue:    vc,
		repo:     repo,
		engine:   engine,
		calendar: cal,
		alerter:  alerter,
		recorder: recorder,
		leases:   NewLeaseRegistry(),
		params:   params,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle executes one intent to its terminal state. It blocks for the
// duration of the action, including confirmation polling; callers run
// it in its own goroutine when they must not wait.
func (c *Coordinator) Handle(ctx context.Context, intent types.Intent) (Outcome, error) {
	key := intent.Key()
	handle, ok := c.leases.TryAcquire(key)
	if !ok {
		c.recorder.RecordLeaseRejection()
		c.logger.Warn("action already in progress", "key", key.String(), "intent_id", intent.ID)
		return Outcome{Status: StatusRejected, Message: "action already in progress"}, types.ErrActionInProgress
	}
	defer c.leases.Release(key, handle)

	logger := c.logger.With("intent_id", intent.ID, "kind", intent.Kind.String(), "strategy", intent.StrategyID, "symbol", intent.Symbol)

	var outcome Outcome
	var err error
	switch intent.Kind {
	case types.IntentEntry:
		outcome, err = c.runEntry(ctx, intent, logger)
	case types.IntentExit, types.IntentForceExit:
		outcome, err = c.runExit(ctx, intent, logger)
	default:
		return Outcome{Status: StatusRejected, Message: "unknown intent kind"}, types.ErrInvalidIntent
	}

	c.recorder.RecordAction(intent.Kind.String(), string(outcome.Status))
	return outcome, err
}

func (c *Coordinator) runEntry(ctx context.Context, intent types.Intent, logger *slog.Logger) (Outcome, error) {
	// Calendar first: a near-close entry is refused before any venue
	// call, whatever the book looks like.
	if !c.calendar.CanTrade(c.now()) {
		logger.Warn("entry rejected, market closing soon")
		c.alert(ctx, alerting.SeverityWarning, "entry rejected: market closing soon", intent)
		return Outcome{Status: StatusRejected, Message: "market closing soon"}, types.ErrMarketClosingSoon
	}

	pos, err := c.checkFeed(ctx, intent.Symbol, logger)
	if err != nil {
		c.alert(ctx, alerting.SeverityCritical, "entry abandoned: position feed unreliable", intent)
		return Outcome{Status: StatusFailed, Message: "position feed unreliable"}, err
	}

	if pos != nil {
		logger.Info("entry not required, position already open",
			"open_quantity", pos.OpenQuantity.String())
		return Outcome{Status: StatusNotRequired, Message: "position already open"}, nil
	}

	ack, err := c.placeOrder(ctx, intent.Action, intent.SeriesCode, intent.LotSize)
	if err != nil {
		logger.Error("entry order failed", "err", err)
		c.alert(ctx, alerting.SeverityCritical, fmt.Sprintf("entry order failed: %v", err), intent)
		return Outcome{Status: StatusFailed, Message: "order submission failed"}, err
	}
	logger.Info("entry order placed", "side", intent.Action.String(), "reference", ack.Reference)

	if err := c.confirmEntered(ctx, intent, logger); err != nil {
		c.alert(ctx, alerting.SeverityCritical, "entry unconfirmed: position never appeared in feed", intent)
		return Outcome{Status: StatusFailed, Reference: ack.Reference, Message: "fill not confirmed"}, err
	}

	c.recorder.RecordPositionOpen(intent.Symbol, true)
	c.alert(ctx, alerting.SeverityInfo, fmt.Sprintf("entered %s %s x%d", intent.Action, intent.Symbol, intent.LotSize), intent)
	return Outcome{Status: StatusExecuted, Reference: ack.Reference}, nil
}

func (c *Coordinator) runExit(ctx context.Context, intent types.Intent, logger *slog.Logger) (Outcome, error) {
	pos, err := c.checkFeed(ctx, intent.Symbol, logger)
	if err != nil {
		c.alert(ctx, alerting.SeverityCritical, "exit abandoned: position feed unreliable", intent)
		return Outcome{Status: StatusFailed, Message: "position feed unreliable"}, err
	}

	if pos == nil {
		logger.Info("exit not required, no open position")
		return Outcome{Status: StatusNotRequired, Message: "no open position"}, nil
	}

	exitSide := pos.ExitSide()
	if intent.Kind == types.IntentExit && intent.Action != types.SideUnknown && intent.Action != exitSide {
		logger.Info("exit not required, requested side does not flatten the position",
			"requested", intent.Action.String(), "open_quantity", pos.OpenQuantity.String())
		return Outcome{Status: StatusNotRequired, Message: "requested side does not flatten position"}, nil
	}

	quantity := int(pos.OpenQuantity.Abs().IntPart())
	if quantity == 0 {
		quantity = intent.LotSize
	}

	ack, err := c.placeOrder(ctx, exitSide, pos.SeriesCode, quantity)
	if err != nil {
		logger.Error("exit order failed", "err", err)
		c.alert(ctx, alerting.SeverityCritical, fmt.Sprintf("exit order failed: %v", err), intent)
		return Outcome{Status: StatusFailed, Message: "order submission failed"}, err
	}
	logger.Info("exit order placed", "side", exitSide.String(), "quantity", quantity, "reference", ack.Reference)

	if err := c.confirmFlattened(ctx, intent.Symbol, logger); err != nil {
		c.alert(ctx, alerting.SeverityCritical, "exit unconfirmed: position still in feed", intent)
		return Outcome{Status: StatusFailed, Reference: ack.Reference, Message: "flatten not confirmed"}, err
	}
	c.recorder.RecordPositionOpen(intent.Symbol, false)

	outcome := Outcome{Status: StatusExecuted, Reference: ack.Reference}

	entry, exit, err := c.confirmHistory(ctx, exitSide, pos.SeriesCode, logger)
	if err != nil {
		// The position is flat; only the bookkeeping is missing.
		logger.Warn("profit/loss calculation skipped, fill never appeared in order history")
		c.alert(ctx, alerting.SeverityWarning, "exit done, profit/loss calculation skipped", intent)
		outcome.ProfitLossSkipped = true
		return outcome, nil
	}

	pl := reconcile.PairProfitLoss(entry, exit, c.params.Multiplier)
	result := types.ResultLabel(pl)
	outcome.ProfitLoss = pl
	outcome.ProfitLossKnown = true

	if err := c.repo.SaveOrder(ctx, entry); err != nil {
		logger.Error("failed to persist entry order", "err", err)
	}
	if err := c.repo.SaveOrder(ctx, exit); err != nil {
		logger.Error("failed to persist exit order", "err", err)
	}
	if err := c.repo.UpdateOrderProfitLoss(ctx, exit.OrderID, pl, result); err != nil {
		logger.Error("failed to record order profit/loss", "err", err)
	}
	c.recorder.RecordRealizedTrade(result, pl)

	if c.engine != nil {
		if _, err := c.engine.Run(ctx); err != nil {
			logger.Error("reconciliation pass failed", "err", err)
		}
	}

	logger.Info("exit complete", "amount", pl.String(), "result", result)
	c.alert(ctx, alerting.SeverityInfo, fmt.Sprintf("exited %s: %s %s", intent.Symbol, result, pl.String()), intent)
	return outcome, nil
}

// checkFeed reads the open position for symbol from the venue,
// retrying while the feed looks unreliable. Returns nil when the venue
// reports no position. More than one open position for the instrument
// means the feed cannot be trusted for a single-position book.
func (c *Coordinator) checkFeed(ctx context.Context, symbol string, logger *slog.Logger) (*types.Position, error) {
	for attempt := 1; attempt <= c.params.FeedCheckRetries; attempt++ {
		start := c.now()
		positions, err := c.venue.OpenPositions(ctx)
		c.recorder.RecordFeedLatency(time.Since(start))

		if err == nil {
			var matched []types.Position
			for _, p := range positions {
				if p.Symbol == symbol {
					matched = append(matched, p)
				}
			}
			switch len(matched) {
			case 0:
				return nil, nil
			case 1:
				p := matched[0]
				return &p, nil
			default:
				err = fmt.Errorf("%w: %d open positions for %s", types.ErrFeedUnreliable, len(matched), symbol)
			}
		}

		if errors.Is(err, types.ErrSessionExpired) {
			c.recorder.RecordSessionExpired()
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.Warn("position feed check failed", "attempt", attempt, "retries", c.params.FeedCheckRetries, "err", err)
		c.recorder.RecordRetry("feed_check")
		c.alertRaw(ctx, alerting.SeverityWarning, fmt.Sprintf("position feed check failed (attempt %d/%d): %v", attempt, c.params.FeedCheckRetries, err))

		if attempt < c.params.FeedCheckRetries {
			if err := sleepCtx(ctx, c.params.FeedCheckDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: could not obtain open positions", types.ErrFeedExhausted)
}

// confirmEntered polls the feed until the new position shows up on the
// requested side.
func (c *Coordinator) confirmEntered(ctx context.Context, intent types.Intent, logger *slog.Logger) error {
	for attempt := 1; attempt <= c.params.FillConfirmAttempts; attempt++ {
		if err := sleepCtx(ctx, c.params.FillConfirmDelay); err != nil {
			return err
		}

		positions, err := c.venue.OpenPositions(ctx)
		if err != nil {
			logger.Warn("fill confirmation poll failed", "attempt", attempt, "err", err)
			c.recorder.RecordRetry("fill_confirm")
			continue
		}

		for _, p := range positions {
			if p.Symbol == intent.Symbol && p.EntrySide() == intent.Action {
				return nil
			}
		}
		logger.Debug("fill not yet visible", "attempt", attempt, "attempts", c.params.FillConfirmAttempts)
		c.recorder.RecordRetry("fill_confirm")
	}

	return fmt.Errorf("%w: position never appeared for %s", types.ErrFillTimeout, intent.Symbol)
}

// confirmFlattened polls the feed until the position is gone.
func (c *Coordinator) confirmFlattened(ctx context.Context, symbol string, logger *slog.Logger) error {
	for attempt := 1; attempt <= c.params.FillConfirmAttempts; attempt++ {
		if err := sleepCtx(ctx, c.params.FillConfirmDelay); err != nil {
			return err
		}

		positions, err := c.venue.OpenPositions(ctx)
		if err != nil {
			logger.Warn("flatten confirmation poll failed", "attempt", attempt, "err", err)
			c.recorder.RecordRetry("fill_confirm")
			continue
		}

		open := false
		for _, p := range positions {
			if p.Symbol == symbol {
				open = true
				break
			}
		}
		if !open {
			return nil
		}
		logger.Debug("position still open", "attempt", attempt, "attempts", c.params.FillConfirmAttempts)
		c.recorder.RecordRetry("fill_confirm")
	}

	return fmt.Errorf("%w: position still open for %s", types.ErrFillTimeout, symbol)
}

// confirmHistory polls order history until the exit fill is visible,
// then returns the matched entry and exit orders. History is only
// trusted once it holds at least two orders: a single row means the
// venue has not caught up with the round trip yet.
func (c *Coordinator) confirmHistory(ctx context.Context, exitSide types.Side, seriesCode string, logger *slog.Logger) (entry, exit types.Order, err error) {
	for attempt := 1; attempt <= c.params.HistoryConfirmAttempts; attempt++ {
		if err := sleepCtx(ctx, c.params.HistoryConfirmDelay); err != nil {
			return types.Order{}, types.Order{}, err
		}

		orders, err := c.venue.OrderHistory(ctx)
		if err != nil {
			logger.Warn("history confirmation poll failed", "attempt", attempt, "err", err)
			c.recorder.RecordRetry("history_confirm")
			continue
		}

		if e, x, ok := matchRecentPair(orders, exitSide, seriesCode); ok {
			return e, x, nil
		}
		logger.Debug("exit fill not yet in history", "attempt", attempt, "attempts", c.params.HistoryConfirmAttempts)
		c.recorder.RecordRetry("history_confirm")
	}

	return types.Order{}, types.Order{}, fmt.Errorf("%w: exit fill never appeared in order history", types.ErrConfirmationTimeout)
}

// matchRecentPair scans history (most recent first) for the freshest
// filled order on the exit side of seriesCode, and the filled
// opposite-side order that preceded it.
func matchRecentPair(orders []types.Order, exitSide types.Side, seriesCode string) (entry, exit types.Order, ok bool) {
	if len(orders) < 2 {
		return types.Order{}, types.Order{}, false
	}

	exitIdx := -1
	for i, o := range orders {
		if o.Status == types.OrderStatusFilled && o.Side == exitSide && o.SeriesCode == seriesCode {
			exitIdx = i
			break
		}
	}
	if exitIdx < 0 {
		return types.Order{}, types.Order{}, false
	}

	for _, o := range orders[exitIdx+1:] {
		if o.Status == types.OrderStatusFilled && o.Side == exitSide.Opposite() && o.SeriesCode == seriesCode {
			return o, orders[exitIdx], true
		}
	}
	return types.Order{}, types.Order{}, false
}

func (c *Coordinator) placeOrder(ctx context.Context, side types.Side, seriesCode string, quantity int) (*venue.OrderAck, error) {
	start := c.now()
	ack, err := c.venue.PlaceMarketOrder(ctx, side, seriesCode, quantity)
	c.recorder.RecordOrderLatency(time.Since(start))

	if err != nil {
		c.recorder.RecordOrderPlaced(side.String(), "error")
		if errors.Is(err, types.ErrSessionExpired) {
			c.recorder.RecordSessionExpired()
		}
		return nil, err
	}

	c.recorder.RecordOrderPlaced(side.String(), "accepted")
	return ack, nil
}

func (c *Coordinator) alert(ctx context.Context, severity alerting.Severity, message string, intent types.Intent) {
	err := c.alerter.Alert(ctx, severity, message, map[string]string{
		"strategy": intent.StrategyID,
		"symbol":   intent.Symbol,
		"kind":     intent.Kind.String(),
	})
	if err != nil {
		c.logger.Error("alert delivery failed", "err", err)
	}
}

func (c *Coordinator) alertRaw(ctx context.Context, severity alerting.Severity, message string) {
	if err := c.alerter.Alert(ctx, severity, message, nil); err != nil {
		c.logger.Error("alert delivery failed", "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
