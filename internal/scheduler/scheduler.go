// Package scheduler runs the periodic jobs: the market-close check
// that triggers force-exit and the order-history sync.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericyong81/nova-trader/internal/calendar"
	"github.com/ericyong81/nova-trader/internal/coordinator"
	"github.com/ericyong81/nova-trader/internal/history"
	"github.com/ericyong81/nova-trader/internal/metrics"
	"github.com/ericyong81/nova-trader/internal/types"
)

// IntentHandler executes a trade intent to its terminal state.
type IntentHandler interface {
	Handle(ctx context.Context, intent types.Intent) (coordinator.Outcome, error)
}

// Instrument carries the fields stamped onto scheduler-originated
// intents.
type Instrument struct {
	Symbol     string
	SeriesCode string
	LotSize    int
	StrategyID string
}

// Scheduler drives the periodic jobs off wall-clock tickers.
type Scheduler struct {
	cal        *calendar.Calendar
	handler    IntentHandler
	syncer     *history.Syncer
	toggle     *ForceExitToggle
	recorder   *metrics.Recorder
	instrument Instrument
	logger     *slog.Logger

	checkInterval time.Duration
	syncInterval  time.Duration
	now           func() time.Time

	wg sync.WaitGroup // in-flight force-exit actions
}

// New creates a scheduler. syncer may be nil to disable history sync.
func New(cal *calendar.Calendar, handler IntentHandler, syncer *history.Syncer, toggle *ForceExitToggle, recorder *metrics.Recorder, instrument Instrument, checkInterval, syncInterval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Scheduler{
		cal:           cal,
		handler:       handler,
		syncer:        syncer,
		toggle:        toggle,
		recorder:      recorder,
		instrument:    instrument,
		logger:        logger,
		checkInterval: checkInterval,
		syncInterval:  syncInterval,
		now:           time.Now,
	}
}

// Run blocks until ctx is cancelled, firing the periodic jobs. On
// return any in-flight force-exit has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.wg.Wait()

	check := time.NewTicker(s.checkInterval)
	defer check.Stop()

	sync := time.NewTicker(s.syncInterval)
	defer sync.Stop()

	s.logger.Info("scheduler started",
		"calendar_check", s.checkInterval.String(),
		"history_sync", s.syncInterval.String())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-check.C:
			s.checkForceExit(ctx, s.now())
		case <-sync.C:
			s.runHistorySync(ctx)
		}
	}
}

// checkForceExit fires a force-exit intent when a close window has
// just opened. The calendar marks each close instant fired, so a slow
// action never triggers twice for the same close. The toggle is probed
// before the marker is consumed: flipping it on mid-window still fires
// for that close.
func (s *Scheduler) checkForceExit(ctx context.Context, now time.Time) {
	// Prune yesterday's fired markers as a side effect of the tick.
	s.cal.Reset(now.Add(-24 * time.Hour))

	if s.toggle != nil && !s.toggle.Enabled() {
		if s.cal.InForceExitWindow(now) {
			s.logger.Info("force-exit window reached but toggle is off")
		}
		return
	}

	closeAt := s.cal.ForceExitDue(now)
	if closeAt.IsZero() {
		return
	}

	s.recorder.RecordForceExit()
	intent := types.Intent{
		ID:         uuid.NewString(),
		Kind:       types.IntentForceExit,
		Symbol:     s.instrument.Symbol,
		SeriesCode: s.instrument.SeriesCode,
		LotSize:    s.instrument.LotSize,
		StrategyID: s.instrument.StrategyID,
		ReceivedAt: now,
	}

	s.logger.Info("force-exit triggered", "close_at", closeAt, "intent_id", intent.ID)

	// The action polls the venue for confirmation and can run for a
	// minute or more; it must not stall the ticker loop. The lease
	// registry already rejects a concurrent duplicate.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		outcome, err := s.handler.Handle(ctx, intent)
		if err != nil {
			s.logger.Error("force-exit failed", "intent_id", intent.ID, "err", err)
			return
		}
		s.logger.Info("force-exit finished", "intent_id", intent.ID, "status", string(outcome.Status))
	}()
}

func (s *Scheduler) runHistorySync(ctx context.Context) {
	if s.syncer == nil {
		return
	}
	if _, err := s.syncer.Sync(ctx); err != nil {
		s.logger.Warn("history sync failed", "err", err)
	}
}
