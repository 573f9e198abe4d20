package model

import "time"

// LocalInventoryRecord is the quantity physically held by a region.
type LocalInventoryRecord struct {
	Region    string    `json:"region"`
	Item      string    `json:"item"`
	Qty       int       `json:"qty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}
