package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"
)

func setupTestDB(t *testing.T) (*SQLiteRepository, func()) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "testdb-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	_ = tmpfile.Close()

	repo, err := NewSQLiteRepository(tmpfile.Name())
	if err != nil {
		_ = os.Remove(tmpfile.Name())
		t.Fatalf("failed to create repository: %v", err)
	}

	cleanup := func() {
		_ = repo.Close()
		_ = os.Remove(tmpfile.Name())
	}

	return repo, cleanup
}

func testOrder(id string, side types.Side, qty int, price string, created time.Time) types.Order {
	p, _ := decimal.NewFromString(price)
	return types.Order{
		OrderID:     id,
		Symbol:      "FCPO",
		SeriesCode:  "F.BMD.FCPO.202603",
		Side:        side,
		Quantity:    qty,
		Price:       p,
		Status:      types.OrderStatusFilled,
		CreatedTime: created,
	}
}

func TestSaveOrderIdempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	order := testOrder("ORD-1", types.SideBuy, 1, "4100", base)

	if err := repo.SaveOrder(ctx, order); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	// Same order again must not error or duplicate.
	order.Price = decimal.NewFromInt(9999)
	if err := repo.SaveOrder(ctx, order); err != nil {
		t.Fatalf("second SaveOrder failed: %v", err)
	}

	orders, err := repo.GetFilledOrders(ctx)
	if err != nil {
		t.Fatalf("GetFilledOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if !orders[0].Price.Equal(decimal.NewFromInt(4100)) {
		t.Errorf("expected original price 4100 preserved, got %s", orders[0].Price)
	}
}

func TestGetFilledOrdersOrdering(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	// Insert out of chronological order.
	if err := repo.SaveOrder(ctx, testOrder("ORD-2", types.SideSell, 1, "4150", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}
	if err := repo.SaveOrder(ctx, testOrder("ORD-1", types.SideBuy, 1, "4100", base)); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	pending := testOrder("ORD-3", types.SideBuy, 1, "4120", base.Add(2*time.Hour))
	pending.Status = types.OrderStatusPending
	if err := repo.SaveOrder(ctx, pending); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	orders, err := repo.GetFilledOrders(ctx)
	if err != nil {
		t.Fatalf("GetFilledOrders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 filled orders, got %d", len(orders))
	}
	if orders[0].OrderID != "ORD-1" || orders[1].OrderID != "ORD-2" {
		t.Errorf("expected chronological order ORD-1, ORD-2; got %s, %s", orders[0].OrderID, orders[1].OrderID)
	}
	if orders[0].Side != types.SideBuy {
		t.Errorf("expected buy side round-tripped, got %s", orders[0].Side)
	}
}

func TestGetFilledOrdersBySymbol(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	if err := repo.SaveOrder(ctx, testOrder("ORD-1", types.SideBuy, 1, "4100", base)); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}
	other := testOrder("ORD-2", types.SideBuy, 1, "80", base)
	other.Symbol = "FKLI"
	if err := repo.SaveOrder(ctx, other); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	orders, err := repo.GetFilledOrdersBySymbol(ctx, "FCPO")
	if err != nil {
		t.Fatalf("GetFilledOrdersBySymbol failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if orders[0].OrderID != "ORD-1" {
		t.Errorf("expected ORD-1, got %s", orders[0].OrderID)
	}
}

func TestUpdateOrderProfitLoss(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	if err := repo.SaveOrder(ctx, testOrder("ORD-1", types.SideSell, 1, "4150", base)); err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	amount := decimal.NewFromInt(1250)
	if err := repo.UpdateOrderProfitLoss(ctx, "ORD-1", amount, "Profit"); err != nil {
		t.Fatalf("UpdateOrderProfitLoss failed: %v", err)
	}

	orders, err := repo.GetFilledOrders(ctx)
	if err != nil {
		t.Fatalf("GetFilledOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if !orders[0].ProfitLossAmount.Equal(amount) {
		t.Errorf("expected amount 1250, got %s", orders[0].ProfitLossAmount)
	}
	if orders[0].ProfitLossResult != "Profit" {
		t.Errorf("expected result Profit, got %q", orders[0].ProfitLossResult)
	}
}

func TestSaveRealizedTradeIdempotent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	trade := types.RealizedTrade{
		EntryOrderID:     "ORD-1",
		ExitOrderID:      "ORD-2",
		Quantity:         1,
		ProfitLossAmount: decimal.NewFromInt(1250),
		ProfitLossResult: "Profit",
		CreatedAt:        time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC),
	}

	inserted, err := repo.SaveRealizedTrade(ctx, trade)
	if err != nil {
		t.Fatalf("SaveRealizedTrade failed: %v", err)
	}
	if !inserted {
		t.Error("expected first save to insert")
	}

	inserted, err = repo.SaveRealizedTrade(ctx, trade)
	if err != nil {
		t.Fatalf("second SaveRealizedTrade failed: %v", err)
	}
	if inserted {
		t.Error("expected duplicate save to be ignored")
	}

	count, err := repo.CountRealizedTrades(ctx)
	if err != nil {
		t.Fatalf("CountRealizedTrades failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 realized trade, got %d", count)
	}
}

func TestGetRealizedTradesRange(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	trades := []types.RealizedTrade{
		{EntryOrderID: "E1", ExitOrderID: "X1", Quantity: 1, ProfitLossAmount: decimal.NewFromInt(500), ProfitLossResult: "Profit", CreatedAt: day.Add(10 * time.Hour)},
		{EntryOrderID: "E2", ExitOrderID: "X2", Quantity: 2, ProfitLossAmount: decimal.NewFromInt(-300), ProfitLossResult: "Loss", CreatedAt: day.Add(14 * time.Hour)},
		{EntryOrderID: "E3", ExitOrderID: "X3", Quantity: 1, ProfitLossAmount: decimal.NewFromInt(100), ProfitLossResult: "Profit", CreatedAt: day.AddDate(0, 0, 1).Add(10 * time.Hour)},
	}
	for _, tr := range trades {
		if _, err := repo.SaveRealizedTrade(ctx, tr); err != nil {
			t.Fatalf("SaveRealizedTrade failed: %v", err)
		}
	}

	got, err := repo.GetRealizedTrades(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("GetRealizedTrades failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades in range, got %d", len(got))
	}
	if got[0].EntryOrderID != "E1" || got[1].EntryOrderID != "E2" {
		t.Errorf("expected E1 then E2, got %s then %s", got[0].EntryOrderID, got[1].EntryOrderID)
	}
	if !got[1].ProfitLossAmount.Equal(decimal.NewFromInt(-300)) {
		t.Errorf("expected -300, got %s", got[1].ProfitLossAmount)
	}
}
