package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ListInventory returns the rows at location ordered by name, or every row
// when location is empty. Results may be up to one cache TTL old.
func (s *Service) ListInventory(ctx context.Context, actor model.Actor, location string) ([]model.InventoryItem, error) {
	if err := s.authorize(actor, model.OpListInventory); err != nil {
		return nil, err
	}
	return s.stockAt(ctx, location)
}

// ListLocations returns every location holding at least one row.
func (s *Service) ListLocations(ctx context.Context, actor model.Actor) ([]string, error) {
	if err := s.authorize(actor, model.OpListInventory); err != nil {
		return nil, err
	}
	return store.ListLocations(ctx, s.db)
}

// CreateItem adds an item row at a location with its starting quantity.
func (s *Service) CreateItem(ctx context.Context, actor model.Actor, item model.InventoryItem) (*model.InventoryItem, error) {
	if err := s.authorize(actor, model.OpCreateItem); err != nil {
		return nil, err
	}

	created, err := store.CreateItem(ctx, s.db, item)
	if err != nil {
		return nil, s.refused("create item", actor, err, "item", item.Name, "location", item.Location)
	}
	s.invalidate()

	slog.Info("item created", "user", actor.Name, "item", created.Name, "location", created.Location, "qty", created.Qty)
	s.record(ctx, actor, model.ModuleWarehouse, "Created item",
		fmt.Sprintf("%s at %s, qty %d %s", created.Name, created.Location, created.Qty, created.Unit))
	return created, nil
}

// UpdateItem changes an item's category, unit and status.
func (s *Service) UpdateItem(ctx context.Context, actor model.Actor, name, location, category, unit, status string) error {
	if err := s.authorize(actor, model.OpUpdateItem); err != nil {
		return err
	}
	if err := store.UpdateItem(ctx, s.db, name, location, category, unit, status); err != nil {
		return s.refused("update item", actor, err, "item", name, "location", location)
	}
	s.invalidate()

	slog.Info("item updated", "user", actor.Name, "item", name, "location", location, "status", status)
	s.record(ctx, actor, model.ModuleWarehouse, "Updated item", fmt.Sprintf("%s at %s: %s", name, location, status))
	return nil
}

// AdjustStock applies a signed delta to an existing row. An empty reason is
// logged as a manual adjustment.
func (s *Service) AdjustStock(ctx context.Context, actor model.Actor, item, location string, delta int, reason, unit string) (*model.StockLogEntry, error) {
	if err := s.authorize(actor, model.OpAdjustStock); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = model.ActionManualAdjust
	}

	entry, err := store.AdjustStock(ctx, s.db, model.Adjustment{
		Item:     item,
		Location: location,
		Delta:    delta,
		Actor:    actor.Name,
		Reason:   reason,
		Unit:     unit,
	})
	if err != nil {
		return nil, s.refused("adjust stock", actor, err, "item", item, "location", location, "delta", delta)
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindAdjust)

	slog.Info("stock adjusted", "user", actor.Name, "item", item, "location", location,
		"delta", delta, "qty", entry.NewQty, "reason", reason)
	s.record(ctx, actor, model.ModuleWarehouse, reason,
		fmt.Sprintf("%s at %s: %+d, now %d", item, location, delta, entry.NewQty))
	return entry, nil
}

// SetStockCount records a physical count for one row. It returns a nil entry
// when the count matches the system quantity.
func (s *Service) SetStockCount(ctx context.Context, actor model.Actor, item, location string, physical int) (*model.StockLogEntry, error) {
	if err := s.authorize(actor, model.OpStockTake); err != nil {
		return nil, err
	}

	entry, err := store.SetStockCount(ctx, s.db, item, location, physical, actor.Name)
	if err != nil {
		return nil, s.refused("stock count", actor, err, "item", item, "location", location)
	}
	if entry == nil {
		return nil, nil
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindStockTake)

	slog.Info("stock counted", "user", actor.Name, "item", item, "location", location, "delta", entry.Delta, "qty", physical)
	s.record(ctx, actor, model.ModuleWarehouse, model.ActionStockTake,
		fmt.Sprintf("%s at %s: counted %d (%+d)", item, location, physical, entry.Delta))
	return entry, nil
}

// StockTake applies counted quantities for a whole location at once and
// returns how many rows changed. Either every count applies or none does.
func (s *Service) StockTake(ctx context.Context, actor model.Actor, location string, counts []model.Count) (int, error) {
	if err := s.authorize(actor, model.OpStockTake); err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, invalid("no counts given")
	}

	changed, err := store.StockTake(ctx, s.db, location, counts, actor.Name)
	s.metrics.Batch(err)
	if err != nil {
		return 0, s.refused("stock take", actor, err, "location", location, "counts", len(counts))
	}
	if changed > 0 {
		s.invalidate()
		s.metrics.Mutation(metrics.KindStockTake)
	}

	slog.Info("stock take applied", "user", actor.Name, "location", location, "counted", len(counts), "changed", changed)
	s.record(ctx, actor, model.ModuleWarehouse, model.ActionStockTake,
		fmt.Sprintf("%s: %d items counted, %d changed", location, len(counts), changed))
	return changed, nil
}

// TransferStock moves qty of item from the transfer source into the main
// location.
func (s *Service) TransferStock(ctx context.Context, actor model.Actor, item string, qty int, unit string) (*store.Transfer, error) {
	return s.TransferBetween(ctx, actor, item, s.transferSource, s.mainLocation, qty, unit)
}

// TransferBetween moves qty of item between two tracked locations in one
// transaction.
func (s *Service) TransferBetween(ctx context.Context, actor model.Actor, item, from, to string, qty int, unit string) (*store.Transfer, error) {
	if err := s.authorize(actor, model.OpTransferStock); err != nil {
		return nil, err
	}

	t, err := store.TransferStock(ctx, s.db, item, from, to, qty, actor.Name, unit)
	if err != nil {
		return nil, s.refused("transfer", actor, err, "item", item, "from", from, "to", to, "qty", qty)
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindTransfer)

	slog.Info("stock transferred", "user", actor.Name, "item", item, "from", from, "to", to, "qty", qty, "op_id", t.Out.OpID)
	s.record(ctx, actor, model.ModuleWarehouse, "Transfer",
		fmt.Sprintf("%d %s %s: %s -> %s", qty, t.Out.Unit, item, from, to))
	return t, nil
}

// Loan lends stock to (debit) or borrows it from (credit) an external party.
func (s *Service) Loan(ctx context.Context, actor model.Actor, item, location, party, direction string, qty int, unit string) (*model.StockLogEntry, error) {
	if err := s.authorize(actor, model.OpLoan); err != nil {
		return nil, err
	}

	entry, err := store.Loan(ctx, s.db, item, location, party, direction, qty, actor.Name, unit)
	if err != nil {
		return nil, s.refused("loan", actor, err, "item", item, "location", location, "party", party)
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindLoan)

	slog.Info("loan recorded", "user", actor.Name, "item", item, "location", location,
		"party", party, "direction", direction, "qty", qty)
	s.record(ctx, actor, model.ModuleWarehouse, entry.ActionType,
		fmt.Sprintf("%d %s %s at %s", qty, entry.Unit, item, location))
	return entry, nil
}

// ReceiveExternal credits stock arriving from an untracked source.
func (s *Service) ReceiveExternal(ctx context.Context, actor model.Actor, item, location, source string, qty int, category, unit string) (*model.StockLogEntry, error) {
	if err := s.authorize(actor, model.OpReceiveExternal); err != nil {
		return nil, err
	}

	entry, err := store.ReceiveExternal(ctx, s.db, item, location, source, qty, actor.Name, category, unit)
	if err != nil {
		return nil, s.refused("receive external", actor, err, "item", item, "location", location, "source", source)
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindReceive)

	slog.Info("stock received", "user", actor.Name, "item", item, "location", location, "source", source, "qty", qty)
	s.record(ctx, actor, model.ModuleWarehouse, entry.ActionType,
		fmt.Sprintf("%d %s %s into %s", qty, entry.Unit, item, location))
	return entry, nil
}

// ListStockLogs returns stock log entries, newest first.
func (s *Service) ListStockLogs(ctx context.Context, actor model.Actor, f store.StockLogFilter) ([]model.StockLogEntry, error) {
	if err := s.authorize(actor, model.OpListStockLogs); err != nil {
		return nil, err
	}
	return store.ListStockLogs(ctx, s.db, f)
}

// VerifyLedger compares a row's quantity with the sum of its logged deltas.
// An unbalanced row is logged at ERROR.
func (s *Service) VerifyLedger(ctx context.Context, actor model.Actor, item, location string) (*model.LedgerCheck, error) {
	if err := s.authorize(actor, model.OpListStockLogs); err != nil {
		return nil, err
	}
	check, err := store.CheckLedger(ctx, s.db, item, location)
	if err != nil {
		return nil, err
	}
	if !check.Balanced() {
		slog.Error("ledger out of balance", "item", item, "location", location,
			"qty", check.Qty, "initial_qty", check.InitialQty, "logged_delta", check.LoggedDelta)
	}
	return check, nil
}

// RunBatch executes raw statements as one transaction. It exists for
// maintenance tooling; regular operations use their own batched calls.
func (s *Service) RunBatch(ctx context.Context, actor model.Actor, stmts []store.Statement) error {
	if err := s.authorize(actor, model.OpRunBatch); err != nil {
		return err
	}
	err := store.RunBatch(ctx, s.db, stmts)
	s.metrics.Batch(err)
	if err != nil {
		return s.refused("run batch", actor, err, "statements", len(stmts))
	}
	s.invalidate()

	slog.Info("batch committed", "user", actor.Name, "statements", len(stmts))
	s.record(ctx, actor, model.ModuleWarehouse, "Batch", fmt.Sprintf("%d statements", len(stmts)))
	return nil
}
