package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

const itemColumns = `id, name, category, unit, qty, initial_qty, location, status, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }, item *model.InventoryItem) error {
	return row.Scan(&item.ID, &item.Name, &item.Category, &item.Unit, &item.Qty, &item.InitialQty,
		&item.Location, &item.Status, &item.CreatedAt, &item.UpdatedAt)
}

// CreateItem adds a new (name, location) row. The starting quantity is kept
// as initial_qty; later changes go through the ledger.
func CreateItem(ctx context.Context, db *sql.DB, item model.InventoryItem) (*model.InventoryItem, error) {
	if item.Name == "" || item.Location == "" {
		return nil, fmt.Errorf("%w: item name and location are required", ErrInvalid)
	}
	if item.Qty < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalid)
	}
	if err := checkQuantity("quantity", item.Qty); err != nil {
		return nil, err
	}
	if item.Status == "" {
		item.Status = model.ItemStatusAvailable
	}
	if !model.ValidItemStatus(item.Status) {
		return nil, fmt.Errorf("%w: unknown item status %q", ErrInvalid, item.Status)
	}

	err := inTx(ctx, db, func(tx *Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM inventory WHERE name = ? AND location = ?`,
			item.Name, item.Location,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking existing item: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s at %s", ErrDuplicateItem, item.Name, item.Location)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO inventory (name, category, unit, qty, initial_qty, location, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.Name, item.Category, item.Unit, item.Qty, item.Qty, item.Location, item.Status,
		)
		if err != nil {
			return fmt.Errorf("creating item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetItem(ctx, db, item.Name, item.Location)
}

// GetItem returns the row for an item at a location, or nil if there is none.
func GetItem(ctx context.Context, db *sql.DB, name, location string) (*model.InventoryItem, error) {
	item := &model.InventoryItem{}
	err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE name = ? AND location = ?`,
		name, location,
	), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListInventory returns the items held at location ordered by name. An empty
// location lists every location.
func ListInventory(ctx context.Context, db *sql.DB, location string) ([]model.InventoryItem, error) {
	var rows *sql.Rows
	var err error

	if location != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM inventory WHERE location = ? ORDER BY name`, location,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM inventory ORDER BY location, name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListLocations returns every location that holds at least one item row.
func ListLocations(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT location FROM inventory ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// UpdateItem changes an item's descriptive fields. Quantity is never written here.
func UpdateItem(ctx context.Context, db *sql.DB, name, location, category, unit, status string) error {
	if !model.ValidItemStatus(status) {
		return fmt.Errorf("%w: unknown item status %q", ErrInvalid, status)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE inventory SET category = ?, unit = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE name = ? AND location = ?`,
		category, unit, status, name, location,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s at %s", ErrItemNotFound, name, location)
	}
	return nil
}

// ensureItemTx creates a zero-quantity row for name at location if none
// exists. The new row's initial_qty is 0, so credits that follow stay
// accounted for in the stock log.
func ensureItemTx(ctx context.Context, tx *Tx, name, location, category, unit string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (name, category, unit, qty, initial_qty, location, status)
		 VALUES (?, ?, ?, 0, 0, ?, ?)
		 ON CONFLICT (name, location) DO NOTHING`,
		name, category, unit, location, model.ItemStatusAvailable,
	)
	if err != nil {
		return fmt.Errorf("creating destination row: %w", err)
	}
	return nil
}
