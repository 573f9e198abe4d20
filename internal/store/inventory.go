package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/model"
)

// AdjustStock applies a signed delta to an existing (item, location) row and
// appends the matching stock log entry in the same transaction.
//
// The quantity guard lives in the UPDATE itself, so two concurrent debits can
// never both pass a check made against the same stale quantity.
func AdjustStock(ctx context.Context, db *sql.DB, adj model.Adjustment) (*model.StockLogEntry, error) {
	var entry *model.StockLogEntry
	err := inTx(ctx, db, func(tx *Tx) error {
		var err error
		entry, err = adjustTx(ctx, tx, adj)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func adjustTx(ctx context.Context, tx *Tx, adj model.Adjustment) (*model.StockLogEntry, error) {
	if adj.Delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrInvalid)
	}
	if err := checkQuantity("delta", adj.Delta); err != nil {
		return nil, err
	}

	var newQty int
	var unit string
	err := tx.QueryRowContext(ctx,
		`UPDATE inventory SET qty = qty + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE name = ? AND location = ? AND qty + ? BETWEEN 0 AND ?
		 RETURNING qty, unit`,
		adj.Delta, adj.Item, adj.Location, adj.Delta, model.MaxQuantity,
	).Scan(&newQty, &unit)
	if err == sql.ErrNoRows {
		return nil, refusedAdjustment(ctx, tx, adj)
	}
	if err != nil {
		return nil, fmt.Errorf("adjusting stock: %w", err)
	}

	if adj.Unit == "" {
		adj.Unit = unit
	}
	return appendStockLog(ctx, tx, adj, newQty)
}

// refusedAdjustment explains why the guarded UPDATE matched no row.
func refusedAdjustment(ctx context.Context, tx *Tx, adj model.Adjustment) error {
	var available int
	err := tx.QueryRowContext(ctx,
		`SELECT qty FROM inventory WHERE name = ? AND location = ?`,
		adj.Item, adj.Location,
	).Scan(&available)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s at %s", ErrItemNotFound, adj.Item, adj.Location)
	}
	if err != nil {
		return fmt.Errorf("checking available quantity: %w", err)
	}
	if adj.Delta > 0 {
		return fmt.Errorf("%w: %s at %s would exceed %d", ErrInvalid, adj.Item, adj.Location, model.MaxQuantity)
	}
	return &InsufficientStockError{
		Item:      adj.Item,
		Location:  adj.Location,
		Available: available,
		Requested: -adj.Delta,
	}
}

// SetStockCount records a physical count for one row. The difference from the
// system quantity is logged as a "Stock Take" delta; an unchanged count writes
// nothing and returns a nil entry.
func SetStockCount(ctx context.Context, db *sql.DB, item, location string, physical int, actor string) (*model.StockLogEntry, error) {
	if physical < 0 {
		return nil, fmt.Errorf("%w: counted quantity cannot be negative", ErrInvalid)
	}
	if err := checkQuantity("counted quantity", physical); err != nil {
		return nil, err
	}

	var entry *model.StockLogEntry
	err := inTx(ctx, db, func(tx *Tx) error {
		var current int
		var unit string
		err := tx.QueryRowContext(ctx,
			`SELECT qty, unit FROM inventory WHERE name = ? AND location = ?`,
			item, location,
		).Scan(&current, &unit)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s at %s", ErrItemNotFound, item, location)
		}
		if err != nil {
			return fmt.Errorf("reading system quantity: %w", err)
		}

		delta := physical - current
		if delta == 0 {
			return nil
		}

		// Apply as a signed increment guarded on the quantity just read.
		result, err := tx.ExecContext(ctx,
			`UPDATE inventory SET qty = qty + ?, updated_at = CURRENT_TIMESTAMP
			 WHERE name = ? AND location = ? AND qty = ?`,
			delta, item, location, current,
		)
		if err != nil {
			return fmt.Errorf("applying stock take: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ErrStockChanged
		}

		entry, err = appendStockLog(ctx, tx, model.Adjustment{
			Item:     item,
			Location: location,
			Delta:    delta,
			Actor:    actor,
			Reason:   model.ActionStockTake,
			Unit:     unit,
		}, physical)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// StockTake applies a counted quantity for every listed item at location as
// one batch. Each log statement runs before its row is overwritten, so it sees
// the system quantity and records the difference; rows whose count matches
// produce no entry. Returns how many rows changed.
func StockTake(ctx context.Context, db *sql.DB, location string, counts []model.Count, actor string) (int, error) {
	opID := uuid.NewString()
	now := time.Now().UTC()

	stmts := make([]Statement, 0, 2*len(counts))
	for _, c := range counts {
		if c.Qty < 0 {
			return 0, fmt.Errorf("%w: counted quantity for %s cannot be negative", ErrInvalid, c.Item)
		}
		if err := checkQuantity("counted quantity", c.Qty); err != nil {
			return 0, err
		}
		stmts = append(stmts,
			Statement{
				Query: `INSERT INTO stock_logs (logged_at, actor, action_type, item, location, delta, unit, new_qty, op_id)
				        SELECT ?, ?, ?, name, location, ? - qty, unit, ?, ?
				        FROM inventory WHERE name = ? AND location = ? AND qty <> ?`,
				Args: []any{now, actor, model.ActionStockTake, c.Qty, c.Qty, opID, c.Item, location, c.Qty},
			},
			Statement{
				Query: `UPDATE inventory SET qty = ?, updated_at = CURRENT_TIMESTAMP
				        WHERE name = ? AND location = ?`,
				Args:       []any{c.Qty, c.Item, location},
				MustAffect: true,
			},
		)
	}

	affected, err := runBatch(ctx, db, opID, stmts)
	var be *BatchError
	if errors.As(err, &be) && errors.Is(be.Err, errNoRowsAffected) {
		return 0, fmt.Errorf("stock take at %s: %w: %s: %w", location, ErrItemNotFound, counts[be.Index/2].Item, err)
	}
	if err != nil {
		return 0, fmt.Errorf("stock take at %s: %w", location, err)
	}

	changed := 0
	for i := 0; i < len(affected); i += 2 {
		changed += int(affected[i])
	}
	return changed, nil
}
