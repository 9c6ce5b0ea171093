package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ericyong81/nova-trader/internal/calendar"
	"github.com/ericyong81/nova-trader/internal/coordinator"
	"github.com/ericyong81/nova-trader/internal/types"
)

type mockHandler struct {
	mu      sync.Mutex
	intents []types.Intent
	outcome coordinator.Outcome
}

func (m *mockHandler) Handle(_ context.Context, intent types.Intent) (coordinator.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents = append(m.intents, intent)
	return m.outcome, nil
}

func (m *mockHandler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.intents)
}

func testCalendar() *calendar.Calendar {
	return calendar.New(calendar.Config{
		Location: time.UTC,
		Closes: map[time.Weekday][]string{
			time.Monday: {"12:30"},
		},
		TradeGuard:     6 * time.Minute,
		ForceExitGuard: 5 * time.Minute,
	})
}

func testScheduler(handler IntentHandler, toggle *ForceExitToggle) *Scheduler {
	instrument := Instrument{Symbol: "FCPO", SeriesCode: "F.BMD.FCPO.202603", LotSize: 1, StrategyID: "alpha"}
	return New(testCalendar(), handler, nil, toggle, nil, instrument, time.Minute, time.Minute, nil)
}

func TestCheckForceExitFiresInWindow(t *testing.T) {
	handler := &mockHandler{outcome: coordinator.Outcome{Status: coordinator.StatusExecuted}}
	sched := testScheduler(handler, nil)

	// Monday 12:26, inside the five-minute force-exit window.
	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, time.UTC)
	sched.checkForceExit(context.Background(), inside)
	sched.wg.Wait()

	if handler.count() != 1 {
		t.Fatalf("expected 1 intent, got %d", handler.count())
	}
	intent := handler.intents[0]
	if intent.Kind != types.IntentForceExit {
		t.Errorf("kind = %s, want force_exit", intent.Kind)
	}
	if intent.Symbol != "FCPO" || intent.StrategyID != "alpha" {
		t.Errorf("unexpected intent fields: %+v", intent)
	}
}

func TestCheckForceExitFiresOncePerClose(t *testing.T) {
	handler := &mockHandler{}
	sched := testScheduler(handler, nil)

	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, time.UTC)
	sched.checkForceExit(context.Background(), inside)
	sched.checkForceExit(context.Background(), inside.Add(time.Minute))
	sched.wg.Wait()

	if handler.count() != 1 {
		t.Errorf("expected 1 intent across repeated ticks, got %d", handler.count())
	}
}

func TestCheckForceExitOutsideWindow(t *testing.T) {
	handler := &mockHandler{}
	sched := testScheduler(handler, nil)

	// Monday 12:20, before the window opens.
	outside := time.Date(2025, 1, 6, 12, 20, 0, 0, time.UTC)
	sched.checkForceExit(context.Background(), outside)

	if handler.count() != 0 {
		t.Errorf("expected no intents outside the window, got %d", handler.count())
	}
}

func TestCheckForceExitToggleOff(t *testing.T) {
	toggle := NewForceExitToggle(filepath.Join(t.TempDir(), "force.control"))
	handler := &mockHandler{}
	sched := testScheduler(handler, toggle)

	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, time.UTC)
	sched.checkForceExit(context.Background(), inside)

	if handler.count() != 0 {
		t.Errorf("expected no intents with toggle off, got %d", handler.count())
	}
}

func TestCheckForceExitToggleEnabledMidWindow(t *testing.T) {
	toggle := NewForceExitToggle(filepath.Join(t.TempDir(), "force.control"))
	handler := &mockHandler{outcome: coordinator.Outcome{Status: coordinator.StatusExecuted}}
	sched := testScheduler(handler, toggle)

	// First tick inside the window with the toggle off must not spend
	// the close's one shot.
	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, time.UTC)
	sched.checkForceExit(context.Background(), inside)
	if handler.count() != 0 {
		t.Fatalf("expected no intents with toggle off, got %d", handler.count())
	}

	if err := toggle.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	sched.checkForceExit(context.Background(), inside.Add(time.Minute))
	sched.wg.Wait()

	if handler.count() != 1 {
		t.Errorf("expected the close to fire after enabling mid-window, got %d intents", handler.count())
	}
}

type blockingHandler struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingHandler) Handle(_ context.Context, _ types.Intent) (coordinator.Outcome, error) {
	close(b.started)
	<-b.release
	return coordinator.Outcome{Status: coordinator.StatusExecuted}, nil
}

func TestCheckForceExitDoesNotBlockTicker(t *testing.T) {
	handler := &blockingHandler{started: make(chan struct{}), release: make(chan struct{})}
	sched := testScheduler(handler, nil)

	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, time.UTC)

	returned := make(chan struct{})
	go func() {
		sched.checkForceExit(context.Background(), inside)
		close(returned)
	}()

	// The tick must come back while the action is still in flight.
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("checkForceExit blocked on the action")
	}
	select {
	case <-handler.started:
	case <-time.After(time.Second):
		t.Fatal("action never started")
	}

	close(handler.release)
	sched.wg.Wait()
}

func TestForceExitToggle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "force.control")

	toggle := NewForceExitToggle(path)
	if toggle.Enabled() {
		t.Error("expected toggle off when control file absent")
	}

	if err := toggle.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if !toggle.Enabled() {
		t.Error("expected toggle on after Enable")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected control file to exist: %v", err)
	}

	// A fresh toggle picks the state up from disk.
	if !NewForceExitToggle(path).Enabled() {
		t.Error("expected persisted state to survive restart")
	}

	if err := toggle.Disable(); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}
	if toggle.Enabled() {
		t.Error("expected toggle off after Disable")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected control file removed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	handler := &mockHandler{}
	sched := testScheduler(handler, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
