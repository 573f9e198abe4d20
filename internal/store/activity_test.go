package store

import (
	"context"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestRecordAndListActivity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RecordActivity(ctx, database, "manager", "Approved request", "#1", model.ModuleRequests)
	RecordActivity(ctx, database, "sk", "Transfer", "Helmets SNC -> NTCC", model.ModuleWarehouse)
	RecordActivity(ctx, database, "manager", "Rejected request", "#2", model.ModuleRequests)

	all, err := ListActivity(ctx, database, "", 0)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Action != "Rejected request" {
		t.Errorf("expected newest first, got %q", all[0].Action)
	}

	requests, _ := ListActivity(ctx, database, model.ModuleRequests, 0)
	if len(requests) != 2 {
		t.Errorf("expected 2 request entries, got %d", len(requests))
	}

	limited, _ := ListActivity(ctx, database, "", 1)
	if len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}
}
