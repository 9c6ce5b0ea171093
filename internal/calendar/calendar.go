// Package calendar decides, for a given instant, whether trading is
// permitted and whether a scheduled force-exit should fire. Both checks
// are pure functions of the clock and a per-weekday close schedule.
package calendar

import (
	"sync"
	"time"
)

// Calendar holds the close schedule for one market.
type Calendar struct {
	loc            *time.Location
	closes         map[time.Weekday][]string // "HH:MM" close instants per weekday
	tradeGuard     time.Duration
	forceExitGuard time.Duration

	mu    sync.Mutex
	fired map[time.Time]struct{} // close instants that already triggered force-exit
}

// Config holds calendar construction parameters.
type Config struct {
	Location       *time.Location
	Closes         map[time.Weekday][]string
	TradeGuard     time.Duration // no new entries this close to a session close
	ForceExitGuard time.Duration // force-exit fires inside this window
}

// New creates a calendar.
func New(cfg Config) *Calendar {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	tradeGuard := cfg.TradeGuard
	if tradeGuard == 0 {
		tradeGuard = 6 * time.Minute
	}
	forceExitGuard := cfg.ForceExitGuard
	if forceExitGuard == 0 {
		forceExitGuard = 5 * time.Minute
	}

	return &Calendar{
		loc:            loc,
		closes:         cfg.Closes,
		tradeGuard:     tradeGuard,
		forceExitGuard: forceExitGuard,
		fired:          make(map[time.Time]struct{}),
	}
}

// closeInstants returns today's close instants for now's weekday.
func (c *Calendar) closeInstants(now time.Time) []time.Time {
	local := now.In(c.loc)
	closes, ok := c.closes[local.Weekday()]
	if !ok {
		return nil
	}

	instants := make([]time.Time, 0, len(closes))
	for _, hhmm := range closes {
		t, err := time.Parse("15:04", hhmm)
		if err != nil {
			continue
		}
		instant := time.Date(local.Year(), local.Month(), local.Day(),
			t.Hour(), t.Minute(), 0, 0, c.loc)
		instants = append(instants, instant)
	}
	return instants
}

// CanTrade reports whether a new entry is allowed at now. It is false on
// days with no session and inside the trade guard window before any
// scheduled close.
func (c *Calendar) CanTrade(now time.Time) bool {
	instants := c.closeInstants(now)
	if len(instants) == 0 {
		return false
	}

	for _, close := range instants {
		until := close.Sub(now.In(c.loc))
		if until >= 0 && until <= c.tradeGuard {
			return false
		}
	}
	return true
}

// ForceExitDue returns the close instant a force-exit should fire for,
// or the zero time if none is due. Each close instant fires at most
// once: a periodic scheduler polling inside the guard window gets the
// instant on the first call only.
func (c *Calendar) ForceExitDue(now time.Time) time.Time {
	for _, close := range c.closeInstants(now) {
		until := close.Sub(now.In(c.loc))
		if until < 0 || until > c.forceExitGuard {
			continue
		}

		c.mu.Lock()
		_, seen := c.fired[close]
		if !seen {
			c.fired[close] = struct{}{}
		}
		c.mu.Unlock()

		if !seen {
			return close
		}
	}
	return time.Time{}
}

// InForceExitWindow reports whether now falls inside the force-exit
// guard of any close, without consuming the fire-once marker.
func (c *Calendar) InForceExitWindow(now time.Time) bool {
	for _, close := range c.closeInstants(now) {
		until := close.Sub(now.In(c.loc))
		if until >= 0 && until <= c.forceExitGuard {
			return true
		}
	}
	return false
}

// Reset clears fired close markers older than the retention horizon.
// Called by the scheduler once a day to keep the set from growing.
func (c *Calendar) Reset(before time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for instant := range c.fired {
		if instant.Before(before) {
			delete(c.fired, instant)
		}
	}
}
