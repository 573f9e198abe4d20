package model

import "time"

// InventoryItem is the stock record of one item at one location.
// The (Name, Location) pair is unique.
type InventoryItem struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Unit       string    `json:"unit"`
	Qty        int       `json:"qty"`
	InitialQty int       `json:"initial_qty"`
	Location   string    `json:"location"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Item statuses.
const (
	ItemStatusAvailable    = "Available"
	ItemStatusDamaged      = "Damaged"
	ItemStatusDiscontinued = "Discontinued"
)

// ValidItemStatus reports whether status is a known item status.
func ValidItemStatus(status string) bool {
	switch status {
	case ItemStatusAvailable, ItemStatusDamaged, ItemStatusDiscontinued:
		return true
	}
	return false
}

// MaxQuantity bounds every stored quantity and every single movement.
const MaxQuantity = 1_000_000_000

// CategoryTransferred is assigned to destination rows created by a transfer.
const CategoryTransferred = "Transferred"

// Count is a physically counted quantity for one item, used by stock-takes.
type Count struct {
	Item string `json:"item"`
	Qty  int    `json:"qty"`
}
