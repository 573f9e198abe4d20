package model

import (
	"fmt"
	"time"
)

// StockLogEntry is an immutable record of one ledger mutation.
type StockLogEntry struct {
	ID         int64     `json:"id"`
	LoggedAt   time.Time `json:"logged_at"`
	Actor      string    `json:"actor"`
	ActionType string    `json:"action_type"`
	Item       string    `json:"item"`
	Location   string    `json:"location"`
	Delta      int       `json:"delta"`
	Unit       string    `json:"unit"`
	NewQty     int       `json:"new_qty"`
	// OpID groups the entries written by one ledger transaction.
	OpID string `json:"op_id"`
}

// Stock log action tags.
const (
	ActionTransferOut  = "Transfer Out"
	ActionTransferIn   = "Transfer In"
	ActionStockTake    = "Stock Take"
	ActionManualAdjust = "Manual Adjust"
)

// Loan directions.
const (
	LoanLend   = "Lend"
	LoanBorrow = "Borrow"
)

// ActionIssued tags the central-stock debit of an issued request.
func ActionIssued(region string) string {
	return "Issued to " + region
}

// ActionLoan tags a loan adjustment against an external party.
func ActionLoan(direction, party string) string {
	return fmt.Sprintf("Loan %s %s", direction, party)
}

// ActionReceived tags stock received from an external source.
func ActionReceived(source string) string {
	return "Received from " + source
}

// Adjustment describes one signed change to the stock ledger.
type Adjustment struct {
	Item     string
	Location string
	Delta    int
	Actor    string
	Reason   string
	Unit     string
}

// LedgerCheck compares a row's quantity against its stock log.
type LedgerCheck struct {
	Item        string `json:"item"`
	Location    string `json:"location"`
	Qty         int    `json:"qty"`
	InitialQty  int    `json:"initial_qty"`
	LoggedDelta int    `json:"logged_delta"`
}

// Balanced reports whether the logged deltas account for every change since
// the row was created.
func (c LedgerCheck) Balanced() bool {
	return c.InitialQty+c.LoggedDelta == c.Qty
}
