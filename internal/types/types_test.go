package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSide_String(t *testing.T) {
	tests := []struct {
		side Side
		want string
	}{
		{SideBuy, "BUY"},
		{SideSell, "SELL"},
		{SideUnknown, "UNKNOWN"},
		{Side(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.side.String(); got != tt.want {
				t.Errorf("Side.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSide_Opposite(t *testing.T) {
	if got := SideBuy.Opposite(); got != SideSell {
		t.Errorf("SideBuy.Opposite() = %v, want SELL", got)
	}
	if got := SideSell.Opposite(); got != SideBuy {
		t.Errorf("SideSell.Opposite() = %v, want BUY", got)
	}
	if got := SideUnknown.Opposite(); got != SideUnknown {
		t.Errorf("SideUnknown.Opposite() = %v, want UNKNOWN", got)
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in   string
		want Side
	}{
		{"buy", SideBuy},
		{"BUY", SideBuy},
		{"sell", SideSell},
		{"SELL", SideSell},
		{"exit", SideUnknown},
		{"", SideUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSide(tt.in); got != tt.want {
				t.Errorf("ParseSide(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSideFromQuantity(t *testing.T) {
	if got := SideFromQuantity(decimal.NewFromInt(-2)); got != SideSell {
		t.Errorf("negative quantity = %v, want SELL", got)
	}
	if got := SideFromQuantity(decimal.NewFromInt(1)); got != SideBuy {
		t.Errorf("positive quantity = %v, want BUY", got)
	}
}

func TestPosition_Sides(t *testing.T) {
	short := Position{OpenQuantity: decimal.NewFromInt(-1)}
	if short.EntrySide() != SideSell {
		t.Errorf("short entry side = %v, want SELL", short.EntrySide())
	}
	if short.ExitSide() != SideBuy {
		t.Errorf("short exit side = %v, want BUY", short.ExitSide())
	}

	long := Position{OpenQuantity: decimal.NewFromInt(3)}
	if long.EntrySide() != SideBuy {
		t.Errorf("long entry side = %v, want BUY", long.EntrySide())
	}
	if long.ExitSide() != SideSell {
		t.Errorf("long exit side = %v, want SELL", long.ExitSide())
	}
}

func TestOrderStatus_IsFinal(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusFilled, true},
		{OrderStatusRejected, true},
		{OrderStatusCancelled, true},
		{OrderStatusPending, false},
		{OrderStatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsFinal(); got != tt.want {
				t.Errorf("IsFinal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultLabel(t *testing.T) {
	if got := ResultLabel(decimal.NewFromInt(250)); got != "Profit" {
		t.Errorf("positive amount = %q, want Profit", got)
	}
	if got := ResultLabel(decimal.Zero); got != "Profit" {
		t.Errorf("zero amount = %q, want Profit", got)
	}
	if got := ResultLabel(decimal.NewFromInt(-75)); got != "Loss" {
		t.Errorf("negative amount = %q, want Loss", got)
	}
}

func TestIntent_Key(t *testing.T) {
	entry := Intent{Kind: IntentEntry, StrategyID: "breakout-v2"}
	exit := Intent{Kind: IntentExit, StrategyID: "breakout-v2"}
	force := Intent{Kind: IntentForceExit, StrategyID: "breakout-v2"}

	if entry.Key() == exit.Key() {
		t.Error("entry and exit must use distinct lease keys")
	}
	if force.Key() != exit.Key() {
		t.Error("force-exit must share the exit lease key")
	}
	if got := entry.Key().String(); got != "breakout-v2/entry" {
		t.Errorf("key string = %q", got)
	}
}
