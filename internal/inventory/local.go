package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// CreditLocalInventory adds delta to a region's local holding. It is not
// idempotent: every call adds again.
func (s *Service) CreditLocalInventory(ctx context.Context, actor model.Actor, region, item string, delta int) error {
	if err := s.authorizeRegion(actor, model.OpUpdateLocal, region); err != nil {
		return err
	}
	if err := store.CreditLocalInventory(ctx, s.db, region, item, delta, actor.Name); err != nil {
		return s.refused("credit local", actor, err, "region", region, "item", item)
	}
	s.metrics.Mutation(metrics.KindLocal)

	slog.Info("local inventory credited", "user", actor.Name, "region", region, "item", item, "delta", delta)
	s.record(ctx, actor, model.ModuleLocal, "Credited", fmt.Sprintf("%s in %s: %+d", item, region, delta))
	return nil
}

// SetLocalInventoryCount overwrites a region's holding with a counted
// quantity.
func (s *Service) SetLocalInventoryCount(ctx context.Context, actor model.Actor, region, item string, qty int) error {
	return s.SetLocalInventoryCounts(ctx, actor, region, []model.Count{{Item: item, Qty: qty}})
}

// SetLocalInventoryCounts overwrites several holdings of one region as one
// batch.
func (s *Service) SetLocalInventoryCounts(ctx context.Context, actor model.Actor, region string, counts []model.Count) error {
	if err := s.authorizeRegion(actor, model.OpUpdateLocal, region); err != nil {
		return err
	}
	if len(counts) == 0 {
		return invalid("no counts given")
	}

	err := store.SetLocalInventoryCounts(ctx, s.db, region, counts, actor.Name)
	s.metrics.Batch(err)
	if err != nil {
		return s.refused("local count", actor, err, "region", region, "counts", len(counts))
	}
	s.metrics.Mutation(metrics.KindLocal)

	slog.Info("local inventory counted", "user", actor.Name, "region", region, "counts", len(counts))
	s.record(ctx, actor, model.ModuleLocal, "Stock take", fmt.Sprintf("%s: %d items", region, len(counts)))
	return nil
}

// ListLocalInventory returns local holdings of region, or of every region
// the actor can see when region is empty.
func (s *Service) ListLocalInventory(ctx context.Context, actor model.Actor, region string) ([]model.LocalInventoryRecord, error) {
	if err := s.authorize(actor, model.OpListLocal); err != nil {
		return nil, err
	}

	var regions []string
	if region != "" {
		regions = []string{region}
	}
	if model.IsSupervisor(actor.Role) {
		regions = scopeRegions(actor.Regions, regions)
	}
	return store.ListLocalInventory(ctx, s.db, regions)
}

// ListActivity returns recent activity entries, optionally for one module.
func (s *Service) ListActivity(ctx context.Context, actor model.Actor, module string, limit int) ([]model.ActivityEntry, error) {
	if err := s.authorize(actor, model.OpListActivity); err != nil {
		return nil, err
	}
	return store.ListActivity(ctx, s.db, module, limit)
}
