package model

import "time"

// ActivityEntry records a user action for the activity log.
type ActivityEntry struct {
	ID       int64     `json:"id"`
	LoggedAt time.Time `json:"logged_at"`
	User     string    `json:"user"`
	Action   string    `json:"action"`
	Details  string    `json:"details,omitempty"`
	Module   string    `json:"module,omitempty"`
}

// Activity modules.
const (
	ModuleWarehouse = "Warehouse"
	ModuleRequests  = "Requests"
	ModuleLocal     = "Local Inventory"
	ModuleUsers     = "Users"
)
