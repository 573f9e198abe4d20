package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/erazemk/zaloga/internal/metrics"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// CreateRequest files a Pending request on behalf of the actor.
func (s *Service) CreateRequest(ctx context.Context, actor model.Actor, nr model.NewRequest) (*model.Request, error) {
	if err := s.authorizeRegion(actor, model.OpCreateRequest, nr.Region); err != nil {
		return nil, err
	}
	nr.Supervisor = actor.Name

	r, err := store.CreateRequest(ctx, s.db, nr)
	if err != nil {
		return nil, s.refused("create request", actor, err, "item", nr.Item, "region", nr.Region)
	}
	s.metrics.Transition(model.RequestPending, 1)

	slog.Info("request created", "user", actor.Name, "id", r.ID, "region", r.Region, "item", r.Item, "qty", r.Qty)
	s.record(ctx, actor, model.ModuleRequests, "Created request",
		fmt.Sprintf("#%d: %d %s %s for %s", r.ID, r.Qty, r.Unit, r.Item, r.Region))
	return r, nil
}

// CreateRequests files several requests at once. Either all are created or
// none.
func (s *Service) CreateRequests(ctx context.Context, actor model.Actor, nrs []model.NewRequest) ([]int64, error) {
	if len(nrs) == 0 {
		return nil, invalid("no requests given")
	}
	for i := range nrs {
		if err := s.authorizeRegion(actor, model.OpCreateRequest, nrs[i].Region); err != nil {
			return nil, err
		}
		nrs[i].Supervisor = actor.Name
	}

	ids, err := store.CreateRequests(ctx, s.db, nrs)
	s.metrics.Batch(err)
	if err != nil {
		return nil, s.refused("create requests", actor, err, "count", len(nrs))
	}
	s.metrics.Transition(model.RequestPending, len(ids))

	slog.Info("requests created", "user", actor.Name, "count", len(ids))
	s.record(ctx, actor, model.ModuleRequests, "Created requests", fmt.Sprintf("%d requests", len(ids)))
	return ids, nil
}

// GetRequest returns one request. Supervisors only see their regions.
func (s *Service) GetRequest(ctx context.Context, actor model.Actor, id int64) (*model.Request, error) {
	if err := s.authorize(actor, model.OpListRequests); err != nil {
		return nil, err
	}
	r, err := store.GetRequest(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if r == nil || (model.IsSupervisor(actor.Role) && !actor.CoversRegion(r.Region)) {
		return nil, fmt.Errorf("%w: #%d", store.ErrRequestNotFound, id)
	}
	return r, nil
}

// ListRequests returns requests matching f. Supervisors are limited to their
// own regions whatever f asks for.
func (s *Service) ListRequests(ctx context.Context, actor model.Actor, f model.RequestFilter) ([]model.Request, error) {
	if err := s.authorize(actor, model.OpListRequests); err != nil {
		return nil, err
	}
	if f.Status != "" && !model.ValidRequestStatus(f.Status) {
		return nil, invalid("unknown request status %q", f.Status)
	}
	if model.IsSupervisor(actor.Role) {
		f.Regions = scopeRegions(actor.Regions, f.Regions)
	}
	return store.ListRequests(ctx, s.db, f)
}

// scopeRegions narrows asked to the regions in allowed. An empty asked means
// all of allowed. The result is never nil.
func scopeRegions(allowed, asked []string) []string {
	scoped := []string{}
	if len(asked) == 0 {
		return append(scoped, allowed...)
	}
	for _, r := range asked {
		if slices.Contains(allowed, r) {
			scoped = append(scoped, r)
		}
	}
	return scoped
}

// ownPending loads a request the actor may edit or delete: managers any,
// supervisors only their own in their regions.
func (s *Service) ownPending(ctx context.Context, actor model.Actor, op model.Operation, id int64) (*model.Request, error) {
	if err := s.authorize(actor, op); err != nil {
		return nil, err
	}
	r, err := s.GetRequest(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleManager && r.Supervisor != actor.Name {
		s.metrics.Refused(metrics.ReasonForbidden)
		return nil, fmt.Errorf("%w: request #%d belongs to %s", ErrForbidden, id, r.Supervisor)
	}
	return r, nil
}

// EditRequest changes the quantity and optionally the notes of a Pending
// request.
func (s *Service) EditRequest(ctx context.Context, actor model.Actor, id int64, qty int, notes *string) error {
	if _, err := s.ownPending(ctx, actor, model.OpEditRequest, id); err != nil {
		return err
	}
	if err := store.EditRequest(ctx, s.db, id, qty, notes); err != nil {
		return s.refused("edit request", actor, err, "id", id)
	}

	slog.Info("request edited", "user", actor.Name, "id", id, "qty", qty)
	s.record(ctx, actor, model.ModuleRequests, "Edited request", fmt.Sprintf("#%d: qty %d", id, qty))
	return nil
}

// DeleteRequest cancels a Pending request.
func (s *Service) DeleteRequest(ctx context.Context, actor model.Actor, id int64) error {
	r, err := s.ownPending(ctx, actor, model.OpDeleteRequest, id)
	if err != nil {
		return err
	}
	if err := store.DeleteRequest(ctx, s.db, id); err != nil {
		return s.refused("delete request", actor, err, "id", id)
	}

	slog.Info("request deleted", "user", actor.Name, "id", id)
	s.record(ctx, actor, model.ModuleRequests, "Deleted request", fmt.Sprintf("#%d: %s for %s", id, r.Item, r.Region))
	return nil
}

// checkAvailable is the non-binding approval check: central stock, read
// through the cache, must cover every requested quantity.
func (s *Service) checkAvailable(ctx context.Context, need map[string]int) error {
	items, err := s.stockAt(ctx, s.mainLocation)
	if err != nil {
		return err
	}
	for item, qty := range need {
		available := 0
		for _, it := range items {
			if it.Name == item {
				available = it.Qty
				break
			}
		}
		if available < qty {
			return &store.InsufficientStockError{
				Item:      item,
				Location:  s.mainLocation,
				Available: available,
				Requested: qty,
			}
		}
	}
	return nil
}

// ApproveRequest approves a Pending request, optionally revising its
// quantity. No stock moves; the quantity is only checked against central
// stock.
func (s *Service) ApproveRequest(ctx context.Context, actor model.Actor, id int64, finalQty int) error {
	if err := s.authorize(actor, model.OpDecideRequest); err != nil {
		return err
	}
	if finalQty < 0 {
		return invalid("quantity cannot be negative")
	}

	r, err := s.GetRequest(ctx, actor, id)
	if err != nil {
		return s.refused("approve request", actor, err, "id", id)
	}
	qty := r.Qty
	if finalQty > 0 {
		qty = finalQty
	}
	if err := s.checkAvailable(ctx, map[string]int{r.Item: qty}); err != nil {
		return s.refused("approve request", actor, err, "id", id)
	}

	if err := store.ApproveRequest(ctx, s.db, id, finalQty, actor.Name); err != nil {
		return s.refused("approve request", actor, err, "id", id)
	}
	s.metrics.Transition(model.RequestApproved, 1)

	slog.Info("request approved", "user", actor.Name, "id", id, "qty", qty)
	s.record(ctx, actor, model.ModuleRequests, "Approved request", fmt.Sprintf("#%d: %d %s", id, qty, r.Item))
	return nil
}

// ApproveRequests approves several Pending requests at their requested
// quantities. Either all are approved or none.
func (s *Service) ApproveRequests(ctx context.Context, actor model.Actor, ids []int64) error {
	if err := s.authorize(actor, model.OpDecideRequest); err != nil {
		return err
	}
	if len(ids) == 0 {
		return invalid("no requests given")
	}

	need := make(map[string]int)
	for _, id := range ids {
		r, err := s.GetRequest(ctx, actor, id)
		if err != nil {
			return s.refused("approve requests", actor, err, "id", id)
		}
		need[r.Item] += r.Qty
	}
	if err := s.checkAvailable(ctx, need); err != nil {
		return s.refused("approve requests", actor, err)
	}

	err := store.ApproveRequests(ctx, s.db, ids, actor.Name)
	s.metrics.Batch(err)
	if err != nil {
		return s.refused("approve requests", actor, err, "count", len(ids))
	}
	s.metrics.Transition(model.RequestApproved, len(ids))

	slog.Info("requests approved", "user", actor.Name, "count", len(ids))
	s.record(ctx, actor, model.ModuleRequests, "Approved requests", fmt.Sprintf("%v", ids))
	return nil
}

// RejectRequest rejects a Pending request with a note.
func (s *Service) RejectRequest(ctx context.Context, actor model.Actor, id int64, notes string) error {
	if err := s.authorize(actor, model.OpDecideRequest); err != nil {
		return err
	}
	if err := store.RejectRequest(ctx, s.db, id, notes, actor.Name); err != nil {
		return s.refused("reject request", actor, err, "id", id)
	}
	s.metrics.Transition(model.RequestRejected, 1)

	slog.Info("request rejected", "user", actor.Name, "id", id)
	s.record(ctx, actor, model.ModuleRequests, "Rejected request", fmt.Sprintf("#%d: %s", id, notes))
	return nil
}

// RejectRequests rejects several Pending requests with the same note.
func (s *Service) RejectRequests(ctx context.Context, actor model.Actor, ids []int64, notes string) error {
	if err := s.authorize(actor, model.OpDecideRequest); err != nil {
		return err
	}
	if len(ids) == 0 {
		return invalid("no requests given")
	}

	err := store.RejectRequests(ctx, s.db, ids, notes, actor.Name)
	s.metrics.Batch(err)
	if err != nil {
		return s.refused("reject requests", actor, err, "count", len(ids))
	}
	s.metrics.Transition(model.RequestRejected, len(ids))

	slog.Info("requests rejected", "user", actor.Name, "count", len(ids))
	s.record(ctx, actor, model.ModuleRequests, "Rejected requests", fmt.Sprintf("%v", ids))
	return nil
}

// IssueRequest hands out an Approved request from the main location. qty may
// lower the approved quantity; 0 issues it in full. The stock check here is
// authoritative and runs in the same transaction as the debit.
func (s *Service) IssueRequest(ctx context.Context, actor model.Actor, id int64, qty int) (*model.Request, error) {
	if err := s.authorize(actor, model.OpIssueRequest); err != nil {
		return nil, err
	}

	r, err := store.IssueRequest(ctx, s.db, id, qty, actor.Name, s.mainLocation, s.creditOnIssue)
	if err != nil {
		return nil, s.refused("issue request", actor, err, "id", id, "qty", qty)
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindIssue)
	s.metrics.Transition(model.RequestIssued, 1)

	slog.Info("request issued", "user", actor.Name, "id", id, "item", r.Item, "region", r.Region,
		"qty", r.Qty, "location", s.mainLocation)
	s.record(ctx, actor, model.ModuleRequests, model.ActionIssued(r.Region),
		fmt.Sprintf("#%d: %d %s %s", id, r.Qty, r.Unit, r.Item))
	return r, nil
}

// IssueRequests issues several requests in one transaction.
func (s *Service) IssueRequests(ctx context.Context, actor model.Actor, lines []model.IssueLine) error {
	if err := s.authorize(actor, model.OpIssueRequest); err != nil {
		return err
	}
	if len(lines) == 0 {
		return invalid("no requests given")
	}

	err := store.IssueRequests(ctx, s.db, lines, actor.Name, s.mainLocation, s.creditOnIssue)
	s.metrics.Batch(err)
	if err != nil {
		return s.refused("issue requests", actor, err, "count", len(lines))
	}
	s.invalidate()
	s.metrics.Mutation(metrics.KindIssue)
	s.metrics.Transition(model.RequestIssued, len(lines))

	slog.Info("requests issued", "user", actor.Name, "count", len(lines), "location", s.mainLocation)
	s.record(ctx, actor, model.ModuleRequests, "Issued requests", fmt.Sprintf("%d requests", len(lines)))
	return nil
}

// ReceiveRequest confirms physical receipt of an Issued request.
func (s *Service) ReceiveRequest(ctx context.Context, actor model.Actor, id int64) (*model.Request, error) {
	r, err := s.GetRequest(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRegion(actor, model.OpReceiveRequest, r.Region); err != nil {
		return nil, err
	}

	r, err = store.ReceiveRequest(ctx, s.db, id, actor.Name, !s.creditOnIssue)
	if err != nil {
		return nil, s.refused("receive request", actor, err, "id", id)
	}
	s.metrics.Transition(model.RequestReceived, 1)

	slog.Info("request received", "user", actor.Name, "id", id, "region", r.Region, "item", r.Item, "qty", r.Qty)
	s.record(ctx, actor, model.ModuleRequests, "Confirmed receipt",
		fmt.Sprintf("#%d: %d %s %s in %s", id, r.Qty, r.Unit, r.Item, r.Region))
	return r, nil
}

// ReceiveRequests confirms several requests in one transaction.
func (s *Service) ReceiveRequests(ctx context.Context, actor model.Actor, ids []int64) error {
	if len(ids) == 0 {
		return invalid("no requests given")
	}
	for _, id := range ids {
		r, err := s.GetRequest(ctx, actor, id)
		if err != nil {
			return err
		}
		if err := s.authorizeRegion(actor, model.OpReceiveRequest, r.Region); err != nil {
			return err
		}
	}

	err := store.ReceiveRequests(ctx, s.db, ids, actor.Name, !s.creditOnIssue)
	s.metrics.Batch(err)
	if err != nil {
		return s.refused("receive requests", actor, err, "count", len(ids))
	}
	s.metrics.Transition(model.RequestReceived, len(ids))

	slog.Info("requests received", "user", actor.Name, "count", len(ids))
	s.record(ctx, actor, model.ModuleRequests, "Confirmed receipts", fmt.Sprintf("%v", ids))
	return nil
}

// statusOps maps each settable status to the operation that reaches it.
var statusOps = map[string]model.Operation{
	model.RequestApproved: model.OpDecideRequest,
	model.RequestRejected: model.OpDecideRequest,
	model.RequestIssued:   model.OpIssueRequest,
	model.RequestReceived: model.OpReceiveRequest,
}

// SetRequestStatus moves a request to status, dispatching to the matching
// transition. finalQty revises the quantity on approval and issue; notes is
// the rejection note. Moves the transition table does not allow are refused
// before anything is written.
func (s *Service) SetRequestStatus(ctx context.Context, actor model.Actor, id int64, status string, finalQty int, notes string) error {
	op, ok := statusOps[status]
	if !ok {
		return invalid("cannot set request status to %q", status)
	}
	if err := s.authorize(actor, op); err != nil {
		return err
	}

	r, err := store.GetRequest(ctx, s.db, id)
	if err != nil {
		return err
	}
	if r == nil || (model.IsSupervisor(actor.Role) && !actor.CoversRegion(r.Region)) {
		return s.refused("set_request_status", actor, fmt.Errorf("%w: #%d", store.ErrRequestNotFound, id))
	}
	if !model.CanTransition(r.Status, status) {
		return s.refused("set_request_status", actor,
			&store.TransitionError{ID: id, From: r.Status, To: status}, "request", id)
	}

	switch status {
	case model.RequestApproved:
		err = s.ApproveRequest(ctx, actor, id, finalQty)
	case model.RequestRejected:
		err = s.RejectRequest(ctx, actor, id, notes)
	case model.RequestIssued:
		_, err = s.IssueRequest(ctx, actor, id, finalQty)
	case model.RequestReceived:
		_, err = s.ReceiveRequest(ctx, actor, id)
	}
	return err
}
