package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// Transfer is the pair of ledger entries written by a move between locations.
type Transfer struct {
	Out *model.StockLogEntry `json:"out"`
	In  *model.StockLogEntry `json:"in"`
}

// TransferStock moves qty of an item from one location to another in a single
// transaction: debit the source, create the destination row at zero if it is
// missing, credit the destination. A failure on either leg rolls back both.
func TransferStock(ctx context.Context, db *sql.DB, item, from, to string, qty int, actor, unit string) (*Transfer, error) {
	if from == to {
		return nil, fmt.Errorf("%w: source and destination must be different", ErrInvalid)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}

	t := &Transfer{}
	err := inTx(ctx, db, func(tx *Tx) error {
		var err error
		t.Out, err = adjustTx(ctx, tx, model.Adjustment{
			Item:     item,
			Location: from,
			Delta:    -qty,
			Actor:    actor,
			Reason:   model.ActionTransferOut,
			Unit:     unit,
		})
		if err != nil {
			return fmt.Errorf("debiting %s: %w", from, err)
		}

		if err := ensureItemTx(ctx, tx, item, to, model.CategoryTransferred, t.Out.Unit); err != nil {
			return err
		}

		t.In, err = adjustTx(ctx, tx, model.Adjustment{
			Item:     item,
			Location: to,
			Delta:    qty,
			Actor:    actor,
			Reason:   model.ActionTransferIn,
			Unit:     t.Out.Unit,
		})
		if err != nil {
			return fmt.Errorf("crediting %s: %w", to, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Loan records stock lent to or borrowed from an external party. Only the
// local row changes; the counterparty is not tracked.
func Loan(ctx context.Context, db *sql.DB, item, location, party, direction string, qty int, actor, unit string) (*model.StockLogEntry, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	if party == "" {
		return nil, fmt.Errorf("%w: loan counterparty is required", ErrInvalid)
	}

	delta := qty
	switch direction {
	case model.LoanLend:
		delta = -qty
	case model.LoanBorrow:
	default:
		return nil, fmt.Errorf("%w: unknown loan direction %q", ErrInvalid, direction)
	}

	return AdjustStock(ctx, db, model.Adjustment{
		Item:     item,
		Location: location,
		Delta:    delta,
		Actor:    actor,
		Reason:   model.ActionLoan(direction, party),
		Unit:     unit,
	})
}

// ReceiveExternal credits stock arriving from an untracked source such as a
// central works warehouse or a returning project. The row is created at zero
// first if the location has never held the item.
func ReceiveExternal(ctx context.Context, db *sql.DB, item, location, source string, qty int, actor, category, unit string) (*model.StockLogEntry, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	if source == "" {
		return nil, fmt.Errorf("%w: source is required", ErrInvalid)
	}

	var entry *model.StockLogEntry
	err := inTx(ctx, db, func(tx *Tx) error {
		if err := ensureItemTx(ctx, tx, item, location, category, unit); err != nil {
			return err
		}
		var err error
		entry, err = adjustTx(ctx, tx, model.Adjustment{
			Item:     item,
			Location: location,
			Delta:    qty,
			Actor:    actor,
			Reason:   model.ActionReceived(source),
			Unit:     unit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
