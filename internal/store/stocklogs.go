package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// appendStockLog writes the single log entry for a ledger mutation. It only
// runs inside the transaction that changed the quantity.
func appendStockLog(ctx context.Context, tx *Tx, adj model.Adjustment, newQty int) (*model.StockLogEntry, error) {
	entry := &model.StockLogEntry{
		LoggedAt:   time.Now().UTC(),
		Actor:      adj.Actor,
		ActionType: adj.Reason,
		Item:       adj.Item,
		Location:   adj.Location,
		Delta:      adj.Delta,
		Unit:       adj.Unit,
		NewQty:     newQty,
		OpID:       tx.OpID,
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO stock_logs (logged_at, actor, action_type, item, location, delta, unit, new_qty, op_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.LoggedAt, entry.Actor, entry.ActionType, entry.Item, entry.Location,
		entry.Delta, entry.Unit, entry.NewQty, entry.OpID,
	)
	if err != nil {
		return nil, fmt.Errorf("writing stock log: %w", err)
	}

	entry.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting stock log id: %w", err)
	}
	return entry, nil
}

// StockLogFilter narrows stock log listings. Zero values match everything.
type StockLogFilter struct {
	Item     string
	Location string
	OpID     string
	Limit    int
}

// ListStockLogs returns stock log entries, newest first.
func ListStockLogs(ctx context.Context, db *sql.DB, f StockLogFilter) ([]model.StockLogEntry, error) {
	query := `SELECT id, logged_at, actor, action_type, item, location, delta, unit, new_qty, op_id
	          FROM stock_logs WHERE 1=1`
	var args []any

	if f.Item != "" {
		query += ` AND item = ?`
		args = append(args, f.Item)
	}
	if f.Location != "" {
		query += ` AND location = ?`
		args = append(args, f.Location)
	}
	if f.OpID != "" {
		query += ` AND op_id = ?`
		args = append(args, f.OpID)
	}

	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock logs: %w", err)
	}
	defer rows.Close()

	var entries []model.StockLogEntry
	for rows.Next() {
		var e model.StockLogEntry
		if err := rows.Scan(&e.ID, &e.LoggedAt, &e.Actor, &e.ActionType, &e.Item, &e.Location,
			&e.Delta, &e.Unit, &e.NewQty, &e.OpID); err != nil {
			return nil, fmt.Errorf("scanning stock log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CheckLedger sums the logged deltas of a row for comparison with its quantity.
func CheckLedger(ctx context.Context, db *sql.DB, item, location string) (*model.LedgerCheck, error) {
	check := &model.LedgerCheck{Item: item, Location: location}
	err := db.QueryRowContext(ctx,
		`SELECT inv.qty, inv.initial_qty,
		        COALESCE((SELECT SUM(l.delta) FROM stock_logs l
		                  WHERE l.item = inv.name AND l.location = inv.location), 0)
		 FROM inventory inv WHERE inv.name = ? AND inv.location = ?`,
		item, location,
	).Scan(&check.Qty, &check.InitialQty, &check.LoggedDelta)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s at %s", ErrItemNotFound, item, location)
	}
	if err != nil {
		return nil, fmt.Errorf("checking ledger: %w", err)
	}
	return check, nil
}
