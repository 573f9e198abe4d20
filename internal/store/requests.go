package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

const requestColumns = `id, supervisor, region, item, category, qty, unit, status, notes, created_at,
	decided_by, decided_at, issued_by, issued_at, received_at`

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanRequest(row interface{ Scan(...any) error }, r *model.Request) error {
	var decidedBy, issuedBy sql.NullString
	err := row.Scan(&r.ID, &r.Supervisor, &r.Region, &r.Item, &r.Category, &r.Qty, &r.Unit,
		&r.Status, &r.Notes, &r.CreatedAt, &decidedBy, &r.DecidedAt, &issuedBy, &r.IssuedAt, &r.ReceivedAt)
	r.DecidedBy = decidedBy.String
	r.IssuedBy = issuedBy.String
	return err
}

func validateNewRequest(nr model.NewRequest) error {
	if nr.Supervisor == "" || nr.Region == "" || nr.Item == "" {
		return fmt.Errorf("%w: supervisor, region and item are required", ErrInvalid)
	}
	if nr.Qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	return checkQuantity("quantity", nr.Qty)
}

func insertRequestTx(ctx context.Context, tx *Tx, nr model.NewRequest) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (supervisor, region, item, category, qty, unit, status, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nr.Supervisor, nr.Region, nr.Item, nr.Category, nr.Qty, nr.Unit, model.RequestPending, nr.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	return result.LastInsertId()
}

// CreateRequest inserts a new Pending request.
func CreateRequest(ctx context.Context, db *sql.DB, nr model.NewRequest) (*model.Request, error) {
	if err := validateNewRequest(nr); err != nil {
		return nil, err
	}

	var id int64
	err := inTx(ctx, db, func(tx *Tx) error {
		var err error
		id, err = insertRequestTx(ctx, tx, nr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return GetRequest(ctx, db, id)
}

// CreateRequests inserts several Pending requests atomically.
func CreateRequests(ctx context.Context, db *sql.DB, nrs []model.NewRequest) ([]int64, error) {
	for i, nr := range nrs {
		if err := validateNewRequest(nr); err != nil {
			return nil, fmt.Errorf("request %d: %w", i+1, err)
		}
	}

	ids := make([]int64, 0, len(nrs))
	err := inTx(ctx, db, func(tx *Tx) error {
		for _, nr := range nrs {
			id, err := insertRequestTx(ctx, tx, nr)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetRequest returns a request by ID, or nil if there is none.
func GetRequest(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	r := &model.Request{}
	err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id,
	), r)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	return r, nil
}

// ListRequests returns requests matching f, newest first. A non-nil but empty
// region list matches nothing.
func ListRequests(ctx context.Context, db *sql.DB, f model.RequestFilter) ([]model.Request, error) {
	if f.Regions != nil && len(f.Regions) == 0 {
		return nil, nil
	}

	query := `SELECT ` + requestColumns + ` FROM requests WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Supervisor != "" {
		query += ` AND supervisor = ?`
		args = append(args, f.Supervisor)
	}
	if len(f.Regions) > 0 {
		query += ` AND region IN (` + placeholders(len(f.Regions)) + `)`
		for _, r := range f.Regions {
			args = append(args, r)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		var r model.Request
		if err := scanRequest(rows, &r); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// refusedTransition explains why a status-guarded write matched no row.
func refusedTransition(ctx context.Context, q rowQuerier, id int64, to string) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM requests WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: #%d", ErrRequestNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking request status: %w", err)
	}
	return &TransitionError{ID: id, From: status, To: to}
}

// EditRequest changes the quantity and, if notes is non-nil, the notes of a
// request that is still Pending.
func EditRequest(ctx context.Context, db *sql.DB, id int64, qty int, notes *string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	if err := checkQuantity("quantity", qty); err != nil {
		return err
	}
	result, err := db.ExecContext(ctx,
		`UPDATE requests SET qty = ?, notes = COALESCE(?, notes)
		 WHERE id = ? AND status = ?`,
		qty, notes, id, model.RequestPending,
	)
	if err != nil {
		return fmt.Errorf("editing request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return refusedTransition(ctx, db, id, model.RequestPending)
	}
	return nil
}

// DeleteRequest cancels a request. Only Pending requests can be deleted.
func DeleteRequest(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM requests WHERE id = ? AND status = ?`, id, model.RequestPending,
	)
	if err != nil {
		return fmt.Errorf("deleting request: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return refusedTransition(ctx, db, id, "deleted")
	}
	return nil
}

func approveStatement(id int64, finalQty int, decidedBy string) Statement {
	return Statement{
		Query: `UPDATE requests SET status = ?, qty = CASE WHEN ? > 0 THEN ? ELSE qty END,
		               decided_by = ?, decided_at = CURRENT_TIMESTAMP
		        WHERE id = ? AND status = ?`,
		Args:       []any{model.RequestApproved, finalQty, finalQty, decidedBy, id, model.RequestPending},
		MustAffect: true,
	}
}

func rejectStatement(id int64, notes, decidedBy string) Statement {
	if notes == "" {
		notes = "Rejected by manager"
	}
	return Statement{
		Query: `UPDATE requests SET status = ?, notes = ?, decided_by = ?, decided_at = CURRENT_TIMESTAMP
		        WHERE id = ? AND status = ?`,
		Args:       []any{model.RequestRejected, notes, decidedBy, id, model.RequestPending},
		MustAffect: true,
	}
}

// ApproveRequest moves a Pending request to Approved, optionally revising its
// quantity (finalQty <= 0 keeps the requested quantity). No stock moves.
func ApproveRequest(ctx context.Context, db *sql.DB, id int64, finalQty int, decidedBy string) error {
	return decide(ctx, db, []int64{id}, model.RequestApproved, []Statement{approveStatement(id, finalQty, decidedBy)})
}

// RejectRequest moves a Pending request to Rejected and stores the note.
func RejectRequest(ctx context.Context, db *sql.DB, id int64, notes, decidedBy string) error {
	return decide(ctx, db, []int64{id}, model.RequestRejected, []Statement{rejectStatement(id, notes, decidedBy)})
}

// ApproveRequests approves every listed request or none of them.
func ApproveRequests(ctx context.Context, db *sql.DB, ids []int64, decidedBy string) error {
	stmts := make([]Statement, len(ids))
	for i, id := range ids {
		stmts[i] = approveStatement(id, 0, decidedBy)
	}
	return decide(ctx, db, ids, model.RequestApproved, stmts)
}

// RejectRequests rejects every listed request or none of them.
func RejectRequests(ctx context.Context, db *sql.DB, ids []int64, notes, decidedBy string) error {
	stmts := make([]Statement, len(ids))
	for i, id := range ids {
		stmts[i] = rejectStatement(id, notes, decidedBy)
	}
	return decide(ctx, db, ids, model.RequestRejected, stmts)
}

// decide runs one guarded status statement per id. A refused row is reported
// as a not-found or transition error for that request.
func decide(ctx context.Context, db *sql.DB, ids []int64, to string, stmts []Statement) error {
	err := RunBatch(ctx, db, stmts)
	var be *BatchError
	if errors.As(err, &be) && errors.Is(be.Err, errNoRowsAffected) {
		if refused := refusedTransition(ctx, db, ids[be.Index], to); refused != nil {
			return fmt.Errorf("%w: %w", ErrTransactionFailed, refused)
		}
	}
	return err
}

// IssueRequest hands out an Approved request: the request becomes Issued and
// the quantity is debited from the main location in the same transaction.
// qty may lower the approved quantity; 0 issues it in full. When creditLocal
// is set, the region's local inventory is credited here as well.
func IssueRequest(ctx context.Context, db *sql.DB, id int64, qty int, issuedBy, mainLocation string, creditLocal bool) (*model.Request, error) {
	err := inTx(ctx, db, func(tx *Tx) error {
		return issueTx(ctx, tx, id, qty, issuedBy, mainLocation, creditLocal)
	})
	if err != nil {
		return nil, err
	}
	return GetRequest(ctx, db, id)
}

// IssueRequests issues several requests in one transaction.
func IssueRequests(ctx context.Context, db *sql.DB, lines []model.IssueLine, issuedBy, mainLocation string, creditLocal bool) error {
	return inTx(ctx, db, func(tx *Tx) error {
		for _, l := range lines {
			if err := issueTx(ctx, tx, l.RequestID, l.Qty, issuedBy, mainLocation, creditLocal); err != nil {
				return fmt.Errorf("issuing request #%d: %w", l.RequestID, err)
			}
		}
		return nil
	})
}

func issueTx(ctx context.Context, tx *Tx, id int64, qty int, issuedBy, mainLocation string, creditLocal bool) error {
	if qty < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalid)
	}

	var item, region, unit string
	var issued int
	err := tx.QueryRowContext(ctx,
		`UPDATE requests SET status = ?, qty = CASE WHEN ? > 0 THEN ? ELSE qty END,
		        issued_by = ?, issued_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ? AND ? <= qty
		 RETURNING item, region, unit, qty`,
		model.RequestIssued, qty, qty, issuedBy, id, model.RequestApproved, qty,
	).Scan(&item, &region, &unit, &issued)
	if err == sql.ErrNoRows {
		return refusedIssue(ctx, tx, id, qty)
	}
	if err != nil {
		return fmt.Errorf("issuing request: %w", err)
	}

	_, err = adjustTx(ctx, tx, model.Adjustment{
		Item:     item,
		Location: mainLocation,
		Delta:    -issued,
		Actor:    issuedBy,
		Reason:   model.ActionIssued(region),
		Unit:     unit,
	})
	if err != nil {
		return err
	}

	if creditLocal {
		return creditLocalTx(ctx, tx, region, item, issued, issuedBy)
	}
	return nil
}

func refusedIssue(ctx context.Context, tx *Tx, id int64, qty int) error {
	var status string
	var approved int
	err := tx.QueryRowContext(ctx, `SELECT status, qty FROM requests WHERE id = ?`, id).Scan(&status, &approved)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: #%d", ErrRequestNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking request status: %w", err)
	}
	if status != model.RequestApproved {
		return &TransitionError{ID: id, From: status, To: model.RequestIssued}
	}
	return fmt.Errorf("%w: cannot issue %d, only %d approved", ErrInvalid, qty, approved)
}

// ReceiveRequest confirms physical receipt of an Issued request. When
// creditLocal is set, the region's local inventory is credited here.
func ReceiveRequest(ctx context.Context, db *sql.DB, id int64, receivedBy string, creditLocal bool) (*model.Request, error) {
	err := inTx(ctx, db, func(tx *Tx) error {
		return receiveTx(ctx, tx, id, receivedBy, creditLocal)
	})
	if err != nil {
		return nil, err
	}
	return GetRequest(ctx, db, id)
}

// ReceiveRequests confirms several requests in one transaction.
func ReceiveRequests(ctx context.Context, db *sql.DB, ids []int64, receivedBy string, creditLocal bool) error {
	return inTx(ctx, db, func(tx *Tx) error {
		for _, id := range ids {
			if err := receiveTx(ctx, tx, id, receivedBy, creditLocal); err != nil {
				return fmt.Errorf("receiving request #%d: %w", id, err)
			}
		}
		return nil
	})
}

func receiveTx(ctx context.Context, tx *Tx, id int64, receivedBy string, creditLocal bool) error {
	var region, item string
	var qty int
	err := tx.QueryRowContext(ctx,
		`UPDATE requests SET status = ?, received_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?
		 RETURNING region, item, qty`,
		model.RequestReceived, id, model.RequestIssued,
	).Scan(&region, &item, &qty)
	if err == sql.ErrNoRows {
		return refusedTransition(ctx, tx, id, model.RequestReceived)
	}
	if err != nil {
		return fmt.Errorf("confirming receipt: %w", err)
	}

	if creditLocal {
		return creditLocalTx(ctx, tx, region, item, qty, receivedBy)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
