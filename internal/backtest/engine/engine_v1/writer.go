package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gfob-engine/internal/backtest/engine"
	"github.com/rxtech-lab/gfob-engine/internal/logger"
	"github.com/rxtech-lab/gfob-engine/internal/types"
	"github.com/rxtech-lab/gfob-engine/pkg/errors"
)

// resultsWriter exports a finished run to a results folder: one parquet file
// per journal plus a stats.yaml. DuckDB is an output adapter only, so the
// DOUBLE columns hold approximate values; the exact decimals live in
// engine.Results.
type resultsWriter struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

func newResultsWriter(log *logger.Logger) (*resultsWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to open duckdb", err)
	}

	return &resultsWriter{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

func (w *resultsWriter) Close() error {
	return w.db.Close()
}

// writeResults exports the run to the results folder.
func (b *BacktestEngineV1) writeResults(folder string, results *engine.Results) error {
	writer, err := newResultsWriter(b.log)
	if err != nil {
		return err
	}
	defer writer.Close()

	return writer.Write(folder, results)
}

// Write exports the run's journals and stats. The folder is cleaned first,
// so it only ever holds the latest run.
func (w *resultsWriter) Write(folder string, results *engine.Results) error {
	if err := os.RemoveAll(folder); err != nil {
		return errors.Wrapf(errors.ErrCodeResultsWriteFailed, err, "failed to clean results folder %s", folder)
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeResultsWriteFailed, err, "failed to create results folder %s", folder)
	}

	if err := w.createTables(); err != nil {
		return err
	}

	if err := w.insertOrders(results.Orders); err != nil {
		return err
	}

	if err := w.insertTrades(results.Trades); err != nil {
		return err
	}

	if err := w.insertEquity(results.EquityCurve); err != nil {
		return err
	}

	if err := w.insertTransactions(results.Transactions); err != nil {
		return err
	}

	ordersPath := filepath.Join(folder, "orders.parquet")
	if err := w.exportParquet("orders", ordersPath); err != nil {
		return err
	}

	tradesPath := filepath.Join(folder, "trades.parquet")
	if err := w.exportParquet("trades", tradesPath); err != nil {
		return err
	}

	equityPath := filepath.Join(folder, "equity.parquet")
	if err := w.exportParquet("equity", equityPath); err != nil {
		return err
	}

	transactionsPath := filepath.Join(folder, "transactions.parquet")
	if err := w.exportParquet("transactions", transactionsPath); err != nil {
		return err
	}

	results.Stats.OrdersFilePath = ordersPath
	results.Stats.TradesFilePath = tradesPath
	results.Stats.EquityFilePath = equityPath

	statsPath := filepath.Join(folder, "stats.yaml")
	if err := types.WriteBacktestStats(statsPath, []types.BacktestStats{results.Stats}); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to write stats file", err)
	}

	w.log.Info("Backtest results written",
		zap.String("folder", folder),
		zap.Int("orders", len(results.Orders)),
		zap.Int("trades", len(results.Trades)),
		zap.Int("equity_points", len(results.EquityCurve)),
	)

	return nil
}

func (w *resultsWriter) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			price DOUBLE,
			quantity DOUBLE,
			created_at TIMESTAMP,
			created_at_bar_index INTEGER,
			valid_from_bar_index INTEGER,
			status TEXT,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			holding_id TEXT,
			frozen_amount DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			executed_at TIMESTAMP,
			executed_bar_index INTEGER,
			executed_qty DOUBLE,
			executed_price DOUBLE,
			pnl DOUBLE,
			reason TEXT,
			strategy_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS equity (
			bar_index INTEGER,
			timestamp TIMESTAMP,
			equity DOUBLE,
			available DOUBLE,
			frozen DOUBLE,
			holdings_value DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			seq INTEGER,
			bar_index INTEGER,
			timestamp TIMESTAMP,
			type TEXT,
			amount DOUBLE,
			available_after DOUBLE,
			frozen_after DOUBLE,
			note TEXT
		)`,
	}

	for _, statement := range statements {
		if _, err := w.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to create results tables", err)
		}
	}

	return nil
}

func (w *resultsWriter) insertOrders(orders []types.PendingOrder) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to begin transaction", err)
	}

	insert := w.sq.Insert("orders").Columns(
		"order_id", "symbol", "side", "price", "quantity",
		"created_at", "created_at_bar_index", "valid_from_bar_index",
		"status", "reason", "message", "strategy_name", "holding_id", "frozen_amount",
	)
	for _, order := range orders {
		insert = insert.Values(
			order.ID,
			order.Symbol,
			string(order.Side),
			order.Price.InexactFloat64(),
			order.Quantity.InexactFloat64(),
			order.CreatedAt,
			order.CreatedAtBarIndex,
			order.ValidFromBarIndex,
			string(order.Status),
			order.Reason.Reason,
			order.Reason.Message,
			order.StrategyName,
			order.HoldingID,
			order.FrozenAmount.InexactFloat64(),
		)
	}

	if _, err := insert.RunWith(tx).Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert orders", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to commit orders", err)
	}

	return nil
}

func (w *resultsWriter) insertTrades(trades []types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to begin transaction", err)
	}

	insert := w.sq.Insert("trades").Columns(
		"order_id", "symbol", "side", "executed_at", "executed_bar_index",
		"executed_qty", "executed_price", "pnl", "reason", "strategy_name",
	)
	for _, trade := range trades {
		insert = insert.Values(
			trade.Order.ID,
			trade.Order.Symbol,
			string(trade.Order.Side),
			trade.ExecutedAt,
			trade.ExecutedBarIndex,
			trade.ExecutedQty.InexactFloat64(),
			trade.ExecutedPrice.InexactFloat64(),
			trade.PnL.InexactFloat64(),
			trade.Order.Reason.Reason,
			trade.Order.StrategyName,
		)
	}

	if _, err := insert.RunWith(tx).Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert trades", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to commit trades", err)
	}

	return nil
}

func (w *resultsWriter) insertEquity(points []types.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to begin transaction", err)
	}

	insert := w.sq.Insert("equity").Columns(
		"bar_index", "timestamp", "equity", "available", "frozen", "holdings_value",
	)
	for _, point := range points {
		insert = insert.Values(
			point.BarIndex,
			point.Timestamp,
			point.Equity.InexactFloat64(),
			point.Available.InexactFloat64(),
			point.Frozen.InexactFloat64(),
			point.HoldingsValue.InexactFloat64(),
		)
	}

	if _, err := insert.RunWith(tx).Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert equity curve", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to commit equity curve", err)
	}

	return nil
}

func (w *resultsWriter) insertTransactions(transactions []types.CapitalTransaction) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to begin transaction", err)
	}

	insert := w.sq.Insert("transactions").Columns(
		"seq", "bar_index", "timestamp", "type", "amount",
		"available_after", "frozen_after", "note",
	)
	for _, transaction := range transactions {
		insert = insert.Values(
			transaction.Seq,
			transaction.BarIndex,
			transaction.Timestamp,
			string(transaction.Type),
			transaction.Amount.InexactFloat64(),
			transaction.AvailableAfter.InexactFloat64(),
			transaction.FrozenAfter.InexactFloat64(),
			transaction.Note,
		)
	}

	if _, err := insert.RunWith(tx).Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert transactions", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to commit transactions", err)
	}

	return nil
}

// exportParquet uses raw SQL because squirrel has no COPY support.
func (w *resultsWriter) exportParquet(table, path string) error {
	if _, err := w.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path)); err != nil {
		return errors.Wrapf(errors.ErrCodeResultsWriteFailed, err, "failed to export %s to parquet", table)
	}

	return nil
}
