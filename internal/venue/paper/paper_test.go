package paper

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
)

func newTestVenue() *Venue {
	return New(Config{
		Symbol:     "FCPO",
		SeriesCode: "F.BMD.FCPO.H25",
		MarkPrice:  decimal.NewFromInt(4100),
	}, nil)
}

func TestVenue_EntryAndExit(t *testing.T) {
	v := newTestVenue()
	ctx := context.Background()

	positions, err := v.OpenPositions(ctx)
	if err != nil {
		t.Fatalf("open positions: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("positions = %d, want 0", len(positions))
	}

	if _, err := v.PlaceMarketOrder(ctx, types.SideSell, "F.BMD.FCPO.H25", 1); err != nil {
		t.Fatalf("place entry: %v", err)
	}

	positions, _ = v.OpenPositions(ctx)
	if len(positions) != 1 {
		t.Fatalf("positions after entry = %d, want 1", len(positions))
	}
	if positions[0].EntrySide() != types.SideSell {
		t.Errorf("entry side = %v, want SELL", positions[0].EntrySide())
	}

	v.SetMarkPrice(decimal.NewFromInt(4050))
	if _, err := v.PlaceMarketOrder(ctx, types.SideBuy, "F.BMD.FCPO.H25", 1); err != nil {
		t.Fatalf("place exit: %v", err)
	}

	positions, _ = v.OpenPositions(ctx)
	if len(positions) != 0 {
		t.Fatalf("positions after exit = %d, want 0", len(positions))
	}

	history, err := v.OrderHistory(ctx)
	if err != nil {
		t.Fatalf("order history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d, want 2", len(history))
	}
	// Most recent first.
	if history[0].Side != types.SideBuy {
		t.Errorf("latest order side = %v, want BUY", history[0].Side)
	}
	if history[0].Price.String() != "4050" {
		t.Errorf("exit price = %s, want 4050", history[0].Price)
	}
}

func TestVenue_DefaultQuantity(t *testing.T) {
	v := newTestVenue()
	ctx := context.Background()

	if _, err := v.PlaceMarketOrder(ctx, types.SideBuy, "F.BMD.FCPO.H25", 0); err != nil {
		t.Fatalf("place order: %v", err)
	}

	history, _ := v.OrderHistory(ctx)
	if history[0].Quantity != 1 {
		t.Errorf("quantity = %d, want default 1", history[0].Quantity)
	}
}
