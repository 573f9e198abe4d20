package model

import (
	"slices"
	"time"
)

// Request is a supervisor's material request for a region.
type Request struct {
	ID         int64      `json:"id"`
	Supervisor string     `json:"supervisor"`
	Region     string     `json:"region"`
	Item       string     `json:"item"`
	Category   string     `json:"category"`
	Qty        int        `json:"qty"`
	Unit       string     `json:"unit"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedBy  string     `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	IssuedBy   string     `json:"issued_by,omitempty"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// Request statuses.
const (
	RequestPending  = "Pending"
	RequestApproved = "Approved"
	RequestRejected = "Rejected"
	RequestIssued   = "Issued"
	RequestReceived = "Received"
)

// transitions lists the statuses reachable from each status.
// Pending -> Pending covers supervisor edits.
var transitions = map[string][]string{
	RequestPending:  {RequestPending, RequestApproved, RequestRejected},
	RequestApproved: {RequestIssued},
	RequestIssued:   {RequestReceived},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(transitions[from], to)
}

// ValidRequestStatus reports whether status is a known request status.
func ValidRequestStatus(status string) bool {
	switch status {
	case RequestPending, RequestApproved, RequestRejected, RequestIssued, RequestReceived:
		return true
	}
	return false
}

// NewRequest holds the fields a supervisor submits.
type NewRequest struct {
	Supervisor string `json:"supervisor"`
	Region     string `json:"region"`
	Item       string `json:"item"`
	Category   string `json:"category"`
	Qty        int    `json:"qty"`
	Unit       string `json:"unit"`
	Notes      string `json:"notes,omitempty"`
}

// IssueLine is one request issued in a bulk issuance.
type IssueLine struct {
	RequestID int64 `json:"request_id"`
	Qty       int   `json:"qty"`
}

// RequestFilter narrows request listings. Empty fields match everything.
type RequestFilter struct {
	Status     string
	Supervisor string
	Regions    []string
}
