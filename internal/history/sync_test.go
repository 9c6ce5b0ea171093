package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/persistence"
	"github.com/ericyong81/nova-trader/internal/types"
)

type mockHistory struct {
	orders []types.Order
	err    error
}

func (m *mockHistory) OrderHistory(_ context.Context) ([]types.Order, error) {
	return m.orders, m.err
}

func setupSyncer(t *testing.T, feed *mockHistory) (*Syncer, persistence.Repository) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "history-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	_ = tmpfile.Close()

	repo, err := persistence.NewSQLiteRepository(tmpfile.Name())
	if err != nil {
		_ = os.Remove(tmpfile.Name())
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.Remove(tmpfile.Name())
	})

	return NewSyncer(feed, repo, nil), repo
}

func histOrder(id string, status types.OrderStatus, minute int) types.Order {
	return types.Order{
		OrderID:     id,
		Symbol:      "FCPO",
		SeriesCode:  "F.BMD.FCPO.202603",
		Side:        types.SideBuy,
		Quantity:    1,
		Price:       decimal.NewFromInt(4100),
		Status:      status,
		CreatedTime: time.Date(2025, 1, 6, 10, minute, 0, 0, time.UTC),
	}
}

func TestSyncPersistsFilledOnly(t *testing.T) {
	feed := &mockHistory{orders: []types.Order{
		histOrder("ORD-3", types.OrderStatusPending, 30),
		histOrder("ORD-2", types.OrderStatusFilled, 20),
		histOrder("ORD-1", types.OrderStatusCancelled, 10),
	}}
	syncer, repo := setupSyncer(t, feed)

	n, err := syncer.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 filled order, got %d", n)
	}

	orders, err := repo.GetFilledOrders(context.Background())
	if err != nil {
		t.Fatalf("GetFilledOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != "ORD-2" {
		t.Errorf("unexpected stored orders: %+v", orders)
	}
}

func TestSyncIdempotent(t *testing.T) {
	feed := &mockHistory{orders: []types.Order{
		histOrder("ORD-1", types.OrderStatusFilled, 10),
	}}
	syncer, repo := setupSyncer(t, feed)

	for i := 0; i < 3; i++ {
		if _, err := syncer.Sync(context.Background()); err != nil {
			t.Fatalf("Sync %d failed: %v", i, err)
		}
	}

	orders, err := repo.GetFilledOrders(context.Background())
	if err != nil {
		t.Fatalf("GetFilledOrders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected 1 order after repeated syncs, got %d", len(orders))
	}
}

func TestSyncFeedError(t *testing.T) {
	feed := &mockHistory{err: errors.New("timeout")}
	syncer, _ := setupSyncer(t, feed)

	if _, err := syncer.Sync(context.Background()); err == nil {
		t.Error("expected error from failing feed")
	}
}
