// Package inventory is the inventory and fulfillment engine. Every operation
// takes the acting user explicitly, checks that the user's role permits it,
// runs the store writes in a single transaction and invalidates the stock
// list cache afterwards.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/zaloga/internal/cache"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

var (
	// ErrForbidden is returned when the actor's role or regions do not allow
	// the operation.
	ErrForbidden = errors.New("not permitted")
	// ErrInvalidInput is returned for requests rejected before any write.
	ErrInvalidInput = store.ErrInvalid
)

// Service runs core operations against one database.
type Service struct {
	db             *sql.DB
	mainLocation   string
	transferSource string
	creditOnIssue  bool

	stock   *cache.Cache[string, []model.InventoryItem]
	metrics *metrics.Metrics
}

// New creates a service. cfg must already be validated. A nil m gets a
// private metrics registry.
func New(db *sql.DB, cfg *config.Config, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		db:             db,
		mainLocation:   cfg.MainLocation,
		transferSource: cfg.TransferSource,
		creditOnIssue:  cfg.LocalCreditOn == config.CreditOnIssue,
		stock:          cache.New[string, []model.InventoryItem](time.Duration(cfg.CacheTTL)),
		metrics:        m,
	}
}

// MainLocation is the location requests are fulfilled from.
func (s *Service) MainLocation() string {
	return s.mainLocation
}

// authorize checks the capability table.
func (s *Service) authorize(actor model.Actor, op model.Operation) error {
	if model.Permits(actor.Role, op) {
		return nil
	}
	s.metrics.Refused(metrics.ReasonForbidden)
	slog.Warn("operation refused", "user", actor.Name, "role", actor.Role, "op", op)
	return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, actor.Role, op)
}

// authorizeRegion checks op and that the actor may act for region.
func (s *Service) authorizeRegion(actor model.Actor, op model.Operation, region string) error {
	if err := s.authorize(actor, op); err != nil {
		return err
	}
	if actor.CoversRegion(region) {
		return nil
	}
	s.metrics.Refused(metrics.ReasonForbidden)
	slog.Warn("region refused", "user", actor.Name, "region", region, "op", op)
	return fmt.Errorf("%w: %s is not assigned to region %s", ErrForbidden, actor.Name, region)
}

// refused logs and counts a failed write, then returns err unchanged.
func (s *Service) refused(op string, actor model.Actor, err error, attrs ...any) error {
	reason := classify(err)
	s.metrics.Refused(reason)
	attrs = append([]any{"op", op, "user", actor.Name, "reason", reason, "error", err}, attrs...)
	if reason == metrics.ReasonOther {
		slog.Error("operation failed", attrs...)
	} else {
		slog.Warn("operation refused", attrs...)
	}
	return err
}

func classify(err error) string {
	var insufficient *store.InsufficientStockError
	var transition *store.TransitionError
	switch {
	case errors.As(err, &insufficient):
		return metrics.ReasonInsufficient
	case errors.As(err, &transition):
		return metrics.ReasonTransition
	case errors.Is(err, store.ErrItemNotFound), errors.Is(err, store.ErrRequestNotFound),
		errors.Is(err, store.ErrUserNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, ErrForbidden):
		return metrics.ReasonForbidden
	case errors.Is(err, ErrInvalidInput), errors.Is(err, store.ErrDuplicateItem),
		errors.Is(err, store.ErrUsernameTaken), errors.Is(err, store.ErrStockChanged):
		return metrics.ReasonInvalid
	}
	return metrics.ReasonOther
}

// record appends to the activity log. Failures are logged and dropped.
func (s *Service) record(ctx context.Context, actor model.Actor, module, action, details string) {
	if err := store.RecordActivity(ctx, s.db, actor.Name, action, details, module); err != nil {
		slog.Warn("activity log write failed", "user", actor.Name, "action", action, "error", err)
	}
}

// invalidate drops cached stock lists after a ledger write.
func (s *Service) invalidate() {
	s.stock.Invalidate()
}

// stockAt returns the (possibly cached) inventory list of location.
func (s *Service) stockAt(ctx context.Context, location string) ([]model.InventoryItem, error) {
	items, hit, err := s.stock.GetOrLoad(ctx, location, func(ctx context.Context) ([]model.InventoryItem, error) {
		return store.ListInventory(ctx, s.db, location)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CacheLookup(hit)
	return items, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
