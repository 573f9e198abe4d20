package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestTransferCreatesDestination(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Helmets", "SNC", 50)

	tr, err := TransferStock(ctx, database, "Helmets", "SNC", "NTCC", 20, "manager", "")
	if err != nil {
		t.Fatalf("TransferStock: %v", err)
	}

	if got := qtyOf(t, database, "Helmets", "SNC"); got != 30 {
		t.Errorf("expected 30 left at SNC, got %d", got)
	}
	dest, _ := GetItem(ctx, database, "Helmets", "NTCC")
	if dest == nil || dest.Qty != 20 {
		t.Fatalf("expected 20 at NTCC, got %+v", dest)
	}
	if dest.Category != model.CategoryTransferred || dest.Unit != "pcs" {
		t.Errorf("expected new row with category Transferred and source unit, got %+v", dest)
	}

	if tr.Out.Delta != -20 || tr.Out.ActionType != model.ActionTransferOut {
		t.Errorf("unexpected out leg: %+v", tr.Out)
	}
	if tr.In.Delta != 20 || tr.In.ActionType != model.ActionTransferIn {
		t.Errorf("unexpected in leg: %+v", tr.In)
	}
	if tr.Out.OpID != tr.In.OpID {
		t.Error("both legs of a transfer should share an op id")
	}

	logs, _ := ListStockLogs(ctx, database, StockLogFilter{OpID: tr.Out.OpID})
	if len(logs) != 2 {
		t.Errorf("expected 2 entries for the transfer, got %d", len(logs))
	}
}

func TestTransferInsufficientRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Helmets", "SNC", 50)

	_, err := TransferStock(ctx, database, "Helmets", "SNC", "NTCC", 60, "manager", "")
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	if got := qtyOf(t, database, "Helmets", "SNC"); got != 50 {
		t.Errorf("expected SNC unchanged at 50, got %d", got)
	}
	dest, _ := GetItem(ctx, database, "Helmets", "NTCC")
	if dest != nil {
		t.Errorf("refused transfer should not create the destination row, got %+v", dest)
	}
}

func TestTransferValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Helmets", "SNC", 50)

	if _, err := TransferStock(ctx, database, "Helmets", "SNC", "SNC", 1, "manager", ""); err == nil {
		t.Error("expected error for same source and destination")
	}
	if _, err := TransferStock(ctx, database, "Helmets", "SNC", "NTCC", 0, "manager", ""); err == nil {
		t.Error("expected error for zero quantity")
	}
	if _, err := TransferStock(ctx, database, "Boots", "SNC", "NTCC", 1, "manager", ""); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestTransferConservesTotals(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Helmets", "SNC", 50)
	seedItem(t, database, "Helmets", "NTCC", 5)

	for _, qty := range []int{10, 7, 3} {
		if _, err := TransferStock(ctx, database, "Helmets", "SNC", "NTCC", qty, "manager", ""); err != nil {
			t.Fatalf("TransferStock: %v", err)
		}
	}

	total := qtyOf(t, database, "Helmets", "SNC") + qtyOf(t, database, "Helmets", "NTCC")
	if total != 55 {
		t.Errorf("expected total 55 across locations, got %d", total)
	}
	for _, loc := range []string{"SNC", "NTCC"} {
		check, err := CheckLedger(ctx, database, "Helmets", loc)
		if err != nil {
			t.Fatalf("CheckLedger: %v", err)
		}
		if !check.Balanced() {
			t.Errorf("ledger at %s not balanced: %+v", loc, check)
		}
	}
}

func TestLoan(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Ladders", "NTCC", 4)

	entry, err := Loan(ctx, database, "Ladders", "NTCC", "Contractor A", model.LoanLend, 3, "sk", "")
	if err != nil {
		t.Fatalf("Loan lend: %v", err)
	}
	if entry.Delta != -3 || entry.ActionType != model.ActionLoan(model.LoanLend, "Contractor A") {
		t.Errorf("unexpected lend entry: %+v", entry)
	}

	if _, err := Loan(ctx, database, "Ladders", "NTCC", "Contractor A", model.LoanLend, 2, "sk", ""); err == nil {
		t.Error("expected lending more than held to fail")
	}

	entry, err = Loan(ctx, database, "Ladders", "NTCC", "Contractor A", model.LoanBorrow, 3, "sk", "")
	if err != nil {
		t.Fatalf("Loan borrow: %v", err)
	}
	if entry.NewQty != 4 {
		t.Errorf("expected 4 after the loan came back, got %d", entry.NewQty)
	}

	if _, err := Loan(ctx, database, "Ladders", "NTCC", "Contractor A", "Steal", 1, "sk", ""); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestReceiveExternal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	entry, err := ReceiveExternal(ctx, database, "Cones", "NTCC", "Central Works", 12, "sk", "Traffic", "pcs")
	if err != nil {
		t.Fatalf("ReceiveExternal: %v", err)
	}
	if entry.ActionType != model.ActionReceived("Central Works") || entry.NewQty != 12 {
		t.Errorf("unexpected entry: %+v", entry)
	}

	item, _ := GetItem(ctx, database, "Cones", "NTCC")
	if item == nil || item.Category != "Traffic" || item.InitialQty != 0 {
		t.Fatalf("expected new row with initial qty 0, got %+v", item)
	}

	check, _ := CheckLedger(ctx, database, "Cones", "NTCC")
	if !check.Balanced() {
		t.Errorf("ledger not balanced: %+v", check)
	}
}
