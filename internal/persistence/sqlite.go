package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericyong81/nova-trader/internal/types"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT UNIQUE NOT NULL,
			symbol TEXT NOT NULL,
			series_code TEXT NOT NULL DEFAULT '',
			side TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price TEXT NOT NULL,
			status TEXT NOT NULL,
			created_time DATETIME NOT NULL,
			profit_loss_amount TEXT,
			profit_loss_result TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created_time ON orders(created_time)`,

		`CREATE TABLE IF NOT EXISTS realized_trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_order_id TEXT NOT NULL,
			exit_order_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			profit_loss_amount TEXT NOT NULL,
			profit_loss_result TEXT NOT NULL,
			created_at DATETIME,
			UNIQUE(entry_order_id, exit_order_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_realized_created_at ON realized_trades(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// SaveOrder inserts an order; an order already present is left untouched.
func (r *SQLiteRepository) SaveOrder(ctx context.Context, order types.Order) error {
	query := `INSERT OR IGNORE INTO orders
		(order_id, symbol, series_code, side, quantity, price, status, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		order.OrderID,
		order.Symbol,
		order.SeriesCode,
		order.Side.String(),
		order.Quantity,
		order.Price.String(),
		string(order.Status),
		order.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetFilledOrders returns all filled orders ordered by creation time
// ascending, the order the FIFO matcher consumes them in.
func (r *SQLiteRepository) GetFilledOrders(ctx context.Context) ([]types.Order, error) {
	query := `SELECT order_id, symbol, series_code, side, quantity, price, status, created_time, profit_loss_amount, profit_loss_result
		FROM orders WHERE status = ? ORDER BY created_time ASC`

	rows, err := r.db.QueryContext(ctx, query, string(types.OrderStatusFilled))
	if err != nil {
		return nil, fmt.Errorf("query filled orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.scanOrders(rows)
}

// GetFilledOrdersBySymbol returns filled orders for one symbol in
// creation time order.
func (r *SQLiteRepository) GetFilledOrdersBySymbol(ctx context.Context, symbol string) ([]types.Order, error) {
	query := `SELECT order_id, symbol, series_code, side, quantity, price, status, created_time, profit_loss_amount, profit_loss_result
		FROM orders WHERE status = ? AND symbol = ? ORDER BY created_time ASC`

	rows, err := r.db.QueryContext(ctx, query, string(types.OrderStatusFilled), symbol)
	if err != nil {
		return nil, fmt.Errorf("query filled orders by symbol: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.scanOrders(rows)
}

func (r *SQLiteRepository) scanOrders(rows *sql.Rows) ([]types.Order, error) {
	var orders []types.Order
	for rows.Next() {
		var o types.Order
		var side, price, status string
		var plAmount, plResult sql.NullString

		if err := rows.Scan(&o.OrderID, &o.Symbol, &o.SeriesCode, &side, &o.Quantity, &price, &status, &o.CreatedTime, &plAmount, &plResult); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		o.Side = types.ParseSide(side)
		o.Price, _ = decimal.NewFromString(price)
		o.Status = types.OrderStatus(status)
		if plAmount.Valid {
			o.ProfitLossAmount, _ = decimal.NewFromString(plAmount.String)
		}
		o.ProfitLossResult = plResult.String

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// UpdateOrderProfitLoss writes the realized amount against an order row.
func (r *SQLiteRepository) UpdateOrderProfitLoss(ctx context.Context, orderID string, amount decimal.Decimal, result string) error {
	query := `UPDATE orders SET profit_loss_amount = ?, profit_loss_result = ? WHERE order_id = ?`

	_, err := r.db.ExecContext(ctx, query, amount.String(), result, orderID)
	if err != nil {
		return fmt.Errorf("update order profit/loss: %w", err)
	}

	return nil
}

// SaveRealizedTrade inserts a realized trade. A duplicate
// (entry_order_id, exit_order_id) pair is a silent no-op; the return
// value reports whether a row was actually written.
func (r *SQLiteRepository) SaveRealizedTrade(ctx context.Context, trade types.RealizedTrade) (bool, error) {
	query := `INSERT OR IGNORE INTO realized_trades
		(entry_order_id, exit_order_id, quantity, profit_loss_amount, profit_loss_result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		trade.EntryOrderID,
		trade.ExitOrderID,
		trade.Quantity,
		trade.ProfitLossAmount.String(),
		trade.ProfitLossResult,
		trade.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert realized trade: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

// GetRealizedTrades returns realized trades in a time range.
func (r *SQLiteRepository) GetRealizedTrades(ctx context.Context, from, to time.Time) ([]types.RealizedTrade, error) {
	query := `SELECT id, entry_order_id, exit_order_id, quantity, profit_loss_amount, profit_loss_result, created_at
		FROM realized_trades WHERE created_at BETWEEN ? AND ? ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query realized trades: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var trades []types.RealizedTrade
	for rows.Next() {
		var t types.RealizedTrade
		var amount string

		if err := rows.Scan(&t.ID, &t.EntryOrderID, &t.ExitOrderID, &t.Quantity, &amount, &t.ProfitLossResult, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		t.ProfitLossAmount, _ = decimal.NewFromString(amount)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// CountRealizedTrades returns the total number of realized trades.
func (r *SQLiteRepository) CountRealizedTrades(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM realized_trades`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count realized trades: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
