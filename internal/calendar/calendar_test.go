package calendar

import (
	"testing"
	"time"
)

func mustLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func bursaSchedule() map[time.Weekday][]string {
	return map[time.Weekday][]string{
		time.Monday:    {"12:30", "18:00", "23:30"},
		time.Tuesday:   {"12:30", "18:00", "23:30"},
		time.Wednesday: {"12:30", "18:00", "23:30"},
		time.Thursday:  {"12:30", "18:00", "23:30"},
		time.Friday:    {"12:30", "18:00"},
	}
}

func newTestCalendar(t *testing.T) *Calendar {
	t.Helper()
	return New(Config{
		Location:       mustLocation(t),
		Closes:         bursaSchedule(),
		TradeGuard:     6 * time.Minute,
		ForceExitGuard: 5 * time.Minute,
	})
}

func TestCanTrade(t *testing.T) {
	cal := newTestCalendar(t)
	loc := mustLocation(t)

	// 2025-01-06 is a Monday.
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"mid morning", time.Date(2025, 1, 6, 10, 0, 0, 0, loc), true},
		{"inside midday guard", time.Date(2025, 1, 6, 12, 25, 0, 0, loc), false},
		{"exactly at guard edge", time.Date(2025, 1, 6, 12, 24, 0, 0, loc), false},
		{"just before guard", time.Date(2025, 1, 6, 12, 23, 59, 0, loc), true},
		{"after midday close", time.Date(2025, 1, 6, 12, 31, 0, 0, loc), true},
		{"inside evening guard", time.Date(2025, 1, 6, 17, 55, 0, 0, loc), false},
		{"inside night guard", time.Date(2025, 1, 6, 23, 26, 0, 0, loc), false},
		{"friday night has no session", time.Date(2025, 1, 10, 23, 26, 0, 0, loc), true},
		{"saturday", time.Date(2025, 1, 11, 10, 0, 0, 0, loc), false},
		{"sunday", time.Date(2025, 1, 12, 10, 0, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.CanTrade(tt.now); got != tt.want {
				t.Errorf("CanTrade(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestCanTrade_UTCInput(t *testing.T) {
	cal := newTestCalendar(t)

	// 04:26 UTC is 12:26 in Kuala Lumpur (UTC+8), inside the guard.
	now := time.Date(2025, 1, 6, 4, 26, 0, 0, time.UTC)
	if cal.CanTrade(now) {
		t.Error("guard window must apply regardless of the input zone")
	}
}

func TestForceExitDue_FiresOncePerClose(t *testing.T) {
	cal := newTestCalendar(t)
	loc := mustLocation(t)

	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, loc)

	first := cal.ForceExitDue(inside)
	if first.IsZero() {
		t.Fatal("expected a due close inside the window")
	}
	if first.Hour() != 12 || first.Minute() != 30 {
		t.Errorf("due close = %s, want 12:30", first)
	}

	// A periodic scheduler polls again one minute later: same close must
	// not fire twice.
	again := cal.ForceExitDue(inside.Add(time.Minute))
	if !again.IsZero() {
		t.Errorf("close fired twice: %s", again)
	}

	// The evening close is a new event.
	evening := cal.ForceExitDue(time.Date(2025, 1, 6, 17, 56, 0, 0, loc))
	if evening.IsZero() {
		t.Error("evening close should fire independently")
	}
}

func TestForceExitDue_OutsideWindow(t *testing.T) {
	cal := newTestCalendar(t)
	loc := mustLocation(t)

	if due := cal.ForceExitDue(time.Date(2025, 1, 6, 10, 0, 0, 0, loc)); !due.IsZero() {
		t.Errorf("nothing due mid-morning, got %s", due)
	}
	// 12:24 is inside the trade guard (6m) but outside force-exit (5m).
	if due := cal.ForceExitDue(time.Date(2025, 1, 6, 12, 24, 0, 0, loc)); !due.IsZero() {
		t.Errorf("force-exit guard is narrower than trade guard, got %s", due)
	}
	// Past the close.
	if due := cal.ForceExitDue(time.Date(2025, 1, 6, 12, 31, 0, 0, loc)); !due.IsZero() {
		t.Errorf("nothing due after the close, got %s", due)
	}
}

func TestInForceExitWindow(t *testing.T) {
	cal := newTestCalendar(t)
	loc := mustLocation(t)

	inside := time.Date(2025, 1, 6, 12, 27, 0, 0, loc)
	if !cal.InForceExitWindow(inside) {
		t.Error("12:27 should be inside the window")
	}
	// Probing must not consume the fire-once marker.
	if due := cal.ForceExitDue(inside); due.IsZero() {
		t.Error("probe consumed the fire-once marker")
	}
}

func TestReset(t *testing.T) {
	cal := newTestCalendar(t)
	loc := mustLocation(t)

	inside := time.Date(2025, 1, 6, 12, 26, 0, 0, loc)
	if cal.ForceExitDue(inside).IsZero() {
		t.Fatal("expected first fire")
	}

	cal.Reset(time.Date(2025, 1, 7, 0, 0, 0, 0, loc))

	if cal.ForceExitDue(inside).IsZero() {
		t.Error("reset should clear fired markers")
	}
}
