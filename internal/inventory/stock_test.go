package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

func TestListInventoryIsCachedUntilWrite(t *testing.T) {
	s, database, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Gloves", "NTCC", 100)

	items, err := s.ListInventory(ctx, supOPD, "NTCC")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 100, items[0].Qty)

	// A write that bypasses the service is not seen until the TTL expires.
	_, err = store.AdjustStock(ctx, database, model.Adjustment{
		Item: "Gloves", Location: "NTCC", Delta: -10, Actor: "x", Reason: model.ActionManualAdjust,
	})
	require.NoError(t, err)
	items, _ = s.ListInventory(ctx, supOPD, "NTCC")
	assert.Equal(t, 100, items[0].Qty, "served from cache")

	// A write through the service invalidates.
	_, err = s.AdjustStock(ctx, storekeeper, "Gloves", "NTCC", -5, "", "")
	require.NoError(t, err)
	items, _ = s.ListInventory(ctx, supOPD, "NTCC")
	assert.Equal(t, 85, items[0].Qty)
}

func TestAdjustStockRefusesOverdraw(t *testing.T) {
	s, database, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Gloves", "NTCC", 3)

	_, err := s.AdjustStock(ctx, storekeeper, "Gloves", "NTCC", -4, "", "")
	var insufficient *store.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 3, qtyAt(t, database, "Gloves", "NTCC"))

	_, err = s.AdjustStock(ctx, storekeeper, "Ghost", "NTCC", 1, "", "")
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestTransferScenario(t *testing.T) {
	s, database, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Helmets", "SNC", 50)

	tr, err := s.TransferStock(ctx, storekeeper, "Helmets", 10, "")
	require.NoError(t, err)

	assert.Equal(t, 40, qtyAt(t, database, "Helmets", "SNC"))
	assert.Equal(t, 10, qtyAt(t, database, "Helmets", "NTCC"))

	logs, err := s.ListStockLogs(ctx, manager, store.StockLogFilter{OpID: tr.Out.OpID})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	var actions []string
	sum := 0
	for _, l := range logs {
		actions = append(actions, l.ActionType)
		sum += l.Delta
	}
	assert.ElementsMatch(t, []string{model.ActionTransferOut, model.ActionTransferIn}, actions)
	assert.Zero(t, sum)

	for _, loc := range []string{"SNC", "NTCC"} {
		check, err := s.VerifyLedger(ctx, manager, "Helmets", loc)
		require.NoError(t, err)
		assert.True(t, check.Balanced(), "%s: %+v", loc, check)
	}
}

func TestStockTakeThroughService(t *testing.T) {
	s, database, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Boots", "NTCC", 10)
	seed(t, s, "Masks", "NTCC", 40)

	counts := []model.Count{{Item: "Boots", Qty: 8}, {Item: "Masks", Qty: 40}}
	changed, err := s.StockTake(ctx, storekeeper, "NTCC", counts)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, 8, qtyAt(t, database, "Boots", "NTCC"))

	changed, err = s.StockTake(ctx, storekeeper, "NTCC", counts)
	require.NoError(t, err)
	assert.Zero(t, changed)

	_, err = s.StockTake(ctx, storekeeper, "NTCC", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.StockTake(ctx, storekeeper, "NTCC", []model.Count{{Item: "Ghost", Qty: 1}})
	assert.ErrorIs(t, err, store.ErrTransactionFailed)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestSetStockCountUnchanged(t *testing.T) {
	s, _, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Boots", "NTCC", 10)

	entry, err := s.SetStockCount(ctx, storekeeper, "Boots", "NTCC", 10)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = s.SetStockCount(ctx, storekeeper, "Boots", "NTCC", 13)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 3, entry.Delta)
}

func TestLoanAndReceiveExternal(t *testing.T) {
	s, database, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Ladders", "NTCC", 5)

	entry, err := s.Loan(ctx, storekeeper, "Ladders", "NTCC", "Project X", model.LoanLend, 2, "")
	require.NoError(t, err)
	assert.Equal(t, "Loan Lend Project X", entry.ActionType)
	assert.Equal(t, 3, qtyAt(t, database, "Ladders", "NTCC"))

	_, err = s.Loan(ctx, storekeeper, "Ladders", "NTCC", "Project X", model.LoanLend, 9, "")
	var insufficient *store.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)

	entry, err = s.ReceiveExternal(ctx, storekeeper, "Cones", "NTCC", "CWW", 20, "Traffic", "pcs")
	require.NoError(t, err)
	assert.Equal(t, "Received from CWW", entry.ActionType)
	assert.Equal(t, 20, qtyAt(t, database, "Cones", "NTCC"))
}

func TestCreateItemDuplicate(t *testing.T) {
	s, _, _ := newTestService(t, config.CreditOnIssue)
	seed(t, s, "Gloves", "NTCC", 1)

	_, err := s.CreateItem(context.Background(), storekeeper, model.InventoryItem{Name: "Gloves", Location: "NTCC"})
	assert.ErrorIs(t, err, store.ErrDuplicateItem)
}

func TestUpdateItemStatus(t *testing.T) {
	s, _, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Gloves", "NTCC", 1)

	require.NoError(t, s.UpdateItem(ctx, storekeeper, "Gloves", "NTCC", "PPE", "pairs", model.ItemStatusDamaged))
	err := s.UpdateItem(ctx, storekeeper, "Gloves", "NTCC", "PPE", "pairs", "Lost")
	assert.ErrorIs(t, err, ErrInvalidInput)

	items, err := s.ListInventory(ctx, manager, "NTCC")
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusDamaged, items[0].Status)
}

func TestRunBatchAtomic(t *testing.T) {
	s, database, _ := newTestService(t, config.CreditOnIssue)
	ctx := context.Background()
	seed(t, s, "Gloves", "NTCC", 1)

	err := s.RunBatch(ctx, manager, []store.Statement{
		{Query: `UPDATE inventory SET status = 'Damaged' WHERE name = 'Gloves'`, MustAffect: true},
		{Query: `UPDATE inventory SET qty = -1 WHERE name = 'Gloves'`},
	})
	assert.ErrorIs(t, err, store.ErrTransactionFailed)

	item, _ := store.GetItem(ctx, database, "Gloves", "NTCC")
	assert.Equal(t, model.ItemStatusAvailable, item.Status)
}
