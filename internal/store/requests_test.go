package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func seedRequest(t *testing.T, database *sql.DB, region, item string, qty int) *model.Request {
	t.Helper()
	r, err := CreateRequest(context.Background(), database, model.NewRequest{
		Supervisor: "sup", Region: region, Item: item, Category: "PPE", Qty: qty, Unit: "pairs",
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return r
}

func TestRequestLifecycleCreditOnIssue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Gloves", "NTCC", 100)
	r := seedRequest(t, database, "OPD", "Gloves", 20)
	if r.Status != model.RequestPending {
		t.Fatalf("expected Pending, got %q", r.Status)
	}

	if err := ApproveRequest(ctx, database, r.ID, 15, "manager"); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
	if got := qtyOf(t, database, "Gloves", "NTCC"); got != 100 {
		t.Errorf("approval must not move stock, NTCC has %d", got)
	}

	issued, err := IssueRequest(ctx, database, r.ID, 0, "sk", "NTCC", true)
	if err != nil {
		t.Fatalf("IssueRequest: %v", err)
	}
	if issued.Status != model.RequestIssued || issued.Qty != 15 || issued.IssuedBy != "sk" || issued.IssuedAt == nil {
		t.Errorf("unexpected issued request: %+v", issued)
	}
	if got := qtyOf(t, database, "Gloves", "NTCC"); got != 85 {
		t.Errorf("expected NTCC 85, got %d", got)
	}
	local, _ := GetLocalInventory(ctx, database, "OPD", "Gloves")
	if local == nil || local.Qty != 15 {
		t.Fatalf("expected OPD local 15 after issue, got %+v", local)
	}

	logs, _ := ListStockLogs(ctx, database, StockLogFilter{Item: "Gloves", Location: "NTCC"})
	if len(logs) != 1 || logs[0].ActionType != model.ActionIssued("OPD") || logs[0].Delta != -15 {
		t.Errorf("unexpected issue log: %+v", logs)
	}

	received, err := ReceiveRequest(ctx, database, r.ID, "sup", false)
	if err != nil {
		t.Fatalf("ReceiveRequest: %v", err)
	}
	if received.Status != model.RequestReceived || received.ReceivedAt == nil {
		t.Errorf("unexpected received request: %+v", received)
	}
	local, _ = GetLocalInventory(ctx, database, "OPD", "Gloves")
	if local.Qty != 15 {
		t.Errorf("receipt must not credit a second time, OPD has %d", local.Qty)
	}
	if got := qtyOf(t, database, "Gloves", "NTCC"); got != 85 {
		t.Errorf("receipt must not move central stock, NTCC has %d", got)
	}
}

func TestRequestLifecycleCreditOnReceive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Gloves", "NTCC", 100)
	r := seedRequest(t, database, "OPD", "Gloves", 20)

	ApproveRequest(ctx, database, r.ID, 0, "manager")
	if _, err := IssueRequest(ctx, database, r.ID, 0, "sk", "NTCC", false); err != nil {
		t.Fatalf("IssueRequest: %v", err)
	}
	if local, _ := GetLocalInventory(ctx, database, "OPD", "Gloves"); local != nil {
		t.Errorf("expected no local credit before receipt, got %+v", local)
	}

	if _, err := ReceiveRequest(ctx, database, r.ID, "sup", true); err != nil {
		t.Fatalf("ReceiveRequest: %v", err)
	}
	local, _ := GetLocalInventory(ctx, database, "OPD", "Gloves")
	if local == nil || local.Qty != 20 {
		t.Errorf("expected OPD local 20 after receipt, got %+v", local)
	}
}

func TestIssueInsufficientKeepsApproved(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Gloves", "NTCC", 5)
	r := seedRequest(t, database, "OPD", "Gloves", 20)
	ApproveRequest(ctx, database, r.ID, 0, "manager")

	_, err := IssueRequest(ctx, database, r.ID, 0, "sk", "NTCC", true)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	got, _ := GetRequest(ctx, database, r.ID)
	if got.Status != model.RequestApproved {
		t.Errorf("refused issue must leave request Approved, got %q", got.Status)
	}
	if q := qtyOf(t, database, "Gloves", "NTCC"); q != 5 {
		t.Errorf("expected NTCC unchanged at 5, got %d", q)
	}
	if local, _ := GetLocalInventory(ctx, database, "OPD", "Gloves"); local != nil {
		t.Errorf("refused issue must not credit local inventory, got %+v", local)
	}
}

func TestIssuePartialQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Gloves", "NTCC", 100)
	r := seedRequest(t, database, "OPD", "Gloves", 20)
	ApproveRequest(ctx, database, r.ID, 0, "manager")

	if _, err := IssueRequest(ctx, database, r.ID, 25, "sk", "NTCC", true); err == nil {
		t.Fatal("expected error issuing more than approved")
	}

	issued, err := IssueRequest(ctx, database, r.ID, 12, "sk", "NTCC", true)
	if err != nil {
		t.Fatalf("IssueRequest: %v", err)
	}
	if issued.Qty != 12 {
		t.Errorf("expected issued qty 12, got %d", issued.Qty)
	}
	if q := qtyOf(t, database, "Gloves", "NTCC"); q != 88 {
		t.Errorf("expected NTCC 88, got %d", q)
	}
}

func TestInvalidTransitions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Gloves", "NTCC", 100)
	r := seedRequest(t, database, "OPD", "Gloves", 20)

	var te *TransitionError
	if _, err := IssueRequest(ctx, database, r.ID, 0, "sk", "NTCC", true); !errors.As(err, &te) {
		t.Errorf("issuing a Pending request: expected TransitionError, got %v", err)
	}
	if _, err := ReceiveRequest(ctx, database, r.ID, "sup", false); !errors.As(err, &te) {
		t.Errorf("receiving a Pending request: expected TransitionError, got %v", err)
	}

	if err := RejectRequest(ctx, database, r.ID, "", "manager"); err != nil {
		t.Fatalf("RejectRequest: %v", err)
	}
	got, _ := GetRequest(ctx, database, r.ID)
	if got.Status != model.RequestRejected || got.Notes == "" || got.DecidedBy != "manager" {
		t.Errorf("unexpected rejected request: %+v", got)
	}

	err := ApproveRequest(ctx, database, r.ID, 0, "manager")
	if !errors.As(err, &te) || te.From != model.RequestRejected {
		t.Errorf("approving a Rejected request: expected TransitionError from Rejected, got %v", err)
	}
	if err := EditRequest(ctx, database, r.ID, 5, nil); !errors.As(err, &te) {
		t.Errorf("editing a Rejected request: expected TransitionError, got %v", err)
	}
	if err := DeleteRequest(ctx, database, r.ID); !errors.As(err, &te) {
		t.Errorf("deleting a Rejected request: expected TransitionError, got %v", err)
	}

	if err := ApproveRequest(ctx, database, 9999, 0, "manager"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestEditAndDeletePending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	r := seedRequest(t, database, "OPD", "Gloves", 20)

	notes := "urgent"
	if err := EditRequest(ctx, database, r.ID, 8, &notes); err != nil {
		t.Fatalf("EditRequest: %v", err)
	}
	got, _ := GetRequest(ctx, database, r.ID)
	if got.Qty != 8 || got.Notes != "urgent" {
		t.Errorf("edit not applied: %+v", got)
	}

	if err := EditRequest(ctx, database, r.ID, 9, nil); err != nil {
		t.Fatalf("EditRequest: %v", err)
	}
	got, _ = GetRequest(ctx, database, r.ID)
	if got.Notes != "urgent" {
		t.Errorf("nil notes should keep existing notes, got %q", got.Notes)
	}

	if err := EditRequest(ctx, database, r.ID, 0, nil); err == nil {
		t.Error("expected error for zero quantity")
	}

	if err := DeleteRequest(ctx, database, r.ID); err != nil {
		t.Fatalf("DeleteRequest: %v", err)
	}
	if got, _ := GetRequest(ctx, database, r.ID); got != nil {
		t.Errorf("expected request gone, got %+v", got)
	}
}

func TestBulkApproveIsAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := seedRequest(t, database, "OPD", "Gloves", 1)
	b := seedRequest(t, database, "OPD", "Masks", 1)
	c := seedRequest(t, database, "ER", "Boots", 1)
	RejectRequest(ctx, database, b.ID, "no", "manager")

	err := ApproveRequests(ctx, database, []int64{a.ID, b.ID, c.ID}, "manager")
	var te *TransitionError
	if !errors.As(err, &te) || te.ID != b.ID {
		t.Fatalf("expected TransitionError for #%d, got %v", b.ID, err)
	}
	if !errors.Is(err, ErrTransactionFailed) {
		t.Errorf("expected ErrTransactionFailed, got %v", err)
	}

	for _, id := range []int64{a.ID, c.ID} {
		got, _ := GetRequest(ctx, database, id)
		if got.Status != model.RequestPending {
			t.Errorf("request #%d should still be Pending, got %q", id, got.Status)
		}
	}

	if err := ApproveRequests(ctx, database, []int64{a.ID, c.ID}, "manager"); err != nil {
		t.Fatalf("ApproveRequests: %v", err)
	}
	if err := RejectRequests(ctx, database, []int64{a.ID}, "", "manager"); !errors.As(err, &te) {
		t.Errorf("rejecting an Approved request: expected TransitionError, got %v", err)
	}
}

func TestBulkIssueRollsBackAllLines(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	seedItem(t, database, "Gloves", "NTCC", 100)
	seedItem(t, database, "Masks", "NTCC", 2)
	a := seedRequest(t, database, "OPD", "Gloves", 10)
	b := seedRequest(t, database, "OPD", "Masks", 5)
	ApproveRequests(ctx, database, []int64{a.ID, b.ID}, "manager")

	err := IssueRequests(ctx, database, []model.IssueLine{{RequestID: a.ID}, {RequestID: b.ID}}, "sk", "NTCC", true)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Item != "Masks" {
		t.Fatalf("expected insufficient Masks, got %v", err)
	}

	if q := qtyOf(t, database, "Gloves", "NTCC"); q != 100 {
		t.Errorf("first line should be rolled back, Gloves at %d", q)
	}
	got, _ := GetRequest(ctx, database, a.ID)
	if got.Status != model.RequestApproved {
		t.Errorf("first request should still be Approved, got %q", got.Status)
	}

	if err := IssueRequests(ctx, database, []model.IssueLine{{RequestID: a.ID}, {RequestID: b.ID, Qty: 2}}, "sk", "NTCC", true); err != nil {
		t.Fatalf("IssueRequests: %v", err)
	}
	if err := ReceiveRequests(ctx, database, []int64{a.ID, b.ID}, "sup", false); err != nil {
		t.Fatalf("ReceiveRequests: %v", err)
	}
}

func TestCreateRequestsAndList(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ids, err := CreateRequests(ctx, database, []model.NewRequest{
		{Supervisor: "ana", Region: "OPD", Item: "Gloves", Qty: 5},
		{Supervisor: "ana", Region: "ER", Item: "Masks", Qty: 3},
		{Supervisor: "bob", Region: "ICU", Item: "Gowns", Qty: 1},
	})
	if err != nil {
		t.Fatalf("CreateRequests: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}

	_, err = CreateRequests(ctx, database, []model.NewRequest{
		{Supervisor: "ana", Region: "OPD", Item: "Gloves", Qty: 5},
		{Supervisor: "ana", Region: "OPD", Item: "Gloves", Qty: 0},
	})
	if err == nil {
		t.Error("expected validation error for zero quantity")
	}

	all, _ := ListRequests(ctx, database, model.RequestFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 requests, got %d", len(all))
	}

	ana, _ := ListRequests(ctx, database, model.RequestFilter{Supervisor: "ana"})
	if len(ana) != 2 {
		t.Errorf("expected 2 requests by ana, got %d", len(ana))
	}

	scoped, _ := ListRequests(ctx, database, model.RequestFilter{Regions: []string{"OPD", "ICU"}})
	if len(scoped) != 2 {
		t.Errorf("expected 2 requests in OPD and ICU, got %d", len(scoped))
	}

	none, _ := ListRequests(ctx, database, model.RequestFilter{Regions: []string{}})
	if len(none) != 0 {
		t.Errorf("empty region set should match nothing, got %d", len(none))
	}

	ApproveRequest(ctx, database, ids[0], 0, "manager")
	approved, _ := ListRequests(ctx, database, model.RequestFilter{Status: model.RequestApproved})
	if len(approved) != 1 || approved[0].ID != ids[0] {
		t.Errorf("expected only #%d approved, got %+v", ids[0], approved)
	}
}
