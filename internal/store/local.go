package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// creditLocalTx adds delta to a region's holding, creating the row at zero
// first if needed.
func creditLocalTx(ctx context.Context, tx *Tx, region, item string, delta int, actor string) error {
	if delta <= 0 {
		return fmt.Errorf("%w: local credit must be positive", ErrInvalid)
	}
	if err := checkQuantity("local credit", delta); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO local_inventory (region, item, qty, updated_at, updated_by)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)
		 ON CONFLICT (region, item) DO UPDATE SET
		     qty = qty + excluded.qty,
		     updated_at = CURRENT_TIMESTAMP,
		     updated_by = excluded.updated_by`,
		region, item, delta, actor,
	)
	if err != nil {
		return fmt.Errorf("crediting local inventory: %w", err)
	}
	return nil
}

// CreditLocalInventory adds delta to a region's local holding of item.
func CreditLocalInventory(ctx context.Context, db *sql.DB, region, item string, delta int, actor string) error {
	return inTx(ctx, db, func(tx *Tx) error {
		return creditLocalTx(ctx, tx, region, item, delta, actor)
	})
}

func setLocalStatement(region, item string, qty int, actor string) Statement {
	return Statement{
		Query: `INSERT INTO local_inventory (region, item, qty, updated_at, updated_by)
		        VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)
		        ON CONFLICT (region, item) DO UPDATE SET
		            qty = excluded.qty,
		            updated_at = CURRENT_TIMESTAMP,
		            updated_by = excluded.updated_by`,
		Args: []any{region, item, qty, actor},
	}
}

// SetLocalInventoryCount overwrites a region's holding with a counted quantity.
func SetLocalInventoryCount(ctx context.Context, db *sql.DB, region, item string, qty int, actor string) error {
	return SetLocalInventoryCounts(ctx, db, region, []model.Count{{Item: item, Qty: qty}}, actor)
}

// SetLocalInventoryCounts overwrites several holdings of one region at once.
// Either every count is stored or none is.
func SetLocalInventoryCounts(ctx context.Context, db *sql.DB, region string, counts []model.Count, actor string) error {
	stmts := make([]Statement, len(counts))
	for i, c := range counts {
		if c.Item == "" {
			return fmt.Errorf("%w: item name is required", ErrInvalid)
		}
		if c.Qty < 0 {
			return fmt.Errorf("%w: local quantity for %s cannot be negative", ErrInvalid, c.Item)
		}
		if err := checkQuantity("local quantity", c.Qty); err != nil {
			return err
		}
		stmts[i] = setLocalStatement(region, c.Item, c.Qty, actor)
	}
	if err := RunBatch(ctx, db, stmts); err != nil {
		return fmt.Errorf("updating local inventory of %s: %w", region, err)
	}
	return nil
}

// GetLocalInventory returns one region's holding of item, or nil.
func GetLocalInventory(ctx context.Context, db *sql.DB, region, item string) (*model.LocalInventoryRecord, error) {
	r := &model.LocalInventoryRecord{}
	err := db.QueryRowContext(ctx,
		`SELECT region, item, qty, updated_at, updated_by
		 FROM local_inventory WHERE region = ? AND item = ?`, region, item,
	).Scan(&r.Region, &r.Item, &r.Qty, &r.UpdatedAt, &r.UpdatedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting local inventory: %w", err)
	}
	return r, nil
}

// ListLocalInventory returns holdings of the given regions, or of every
// region when regions is nil.
func ListLocalInventory(ctx context.Context, db *sql.DB, regions []string) ([]model.LocalInventoryRecord, error) {
	if regions != nil && len(regions) == 0 {
		return nil, nil
	}

	query := `SELECT region, item, qty, updated_at, updated_by FROM local_inventory`
	var args []any
	if len(regions) > 0 {
		query += ` WHERE region IN (` + placeholders(len(regions)) + `)`
		for _, r := range regions {
			args = append(args, r)
		}
	}
	query += ` ORDER BY region, item`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing local inventory: %w", err)
	}
	defer rows.Close()

	var records []model.LocalInventoryRecord
	for rows.Next() {
		var r model.LocalInventoryRecord
		if err := rows.Scan(&r.Region, &r.Item, &r.Qty, &r.UpdatedAt, &r.UpdatedBy); err != nil {
			return nil, fmt.Errorf("scanning local inventory: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
