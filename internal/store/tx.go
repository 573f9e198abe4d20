package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Tx is a ledger transaction. Every stock log entry written through it
// carries its OpID, so the legs of one logical move can be found together.
type Tx struct {
	*sql.Tx
	OpID string
}

// inTx runs fn inside a single database transaction. Any error from fn rolls
// back everything fn wrote.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *Tx) error) error {
	return inTxWithID(ctx, db, uuid.NewString(), fn)
}

func inTxWithID(ctx context.Context, db *sql.DB, opID string, fn func(tx *Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{Tx: sqlTx, OpID: opID}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Statement is one parameterized write in a batch.
type Statement struct {
	Query string
	Args  []any
	// MustAffect fails the batch when the statement changes no rows, which is
	// how guarded writes (WHERE status = ...) report a refused row.
	MustAffect bool
}

// RunBatch executes statements in order inside one transaction. If any
// statement fails, none of the batch is applied and a *BatchError is returned.
func RunBatch(ctx context.Context, db *sql.DB, stmts []Statement) error {
	_, err := runBatch(ctx, db, uuid.NewString(), stmts)
	return err
}

// runBatch is RunBatch with a caller-chosen op id. It returns the rows
// affected by each statement.
func runBatch(ctx context.Context, db *sql.DB, opID string, stmts []Statement) ([]int64, error) {
	var affected []int64
	err := inTxWithID(ctx, db, opID, func(tx *Tx) error {
		var err error
		affected, err = execBatch(ctx, tx, stmts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

func execBatch(ctx context.Context, tx *Tx, stmts []Statement) ([]int64, error) {
	affected := make([]int64, len(stmts))
	for i, s := range stmts {
		result, err := tx.ExecContext(ctx, s.Query, s.Args...)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		if s.MustAffect && n == 0 {
			return nil, &BatchError{Index: i, Err: errNoRowsAffected}
		}
		affected[i] = n
	}
	return affected, nil
}
