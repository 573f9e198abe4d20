package store

import (
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

var (
	// ErrItemNotFound is returned when an (item, location) row does not exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrDuplicateItem is returned when creating an existing (item, location) row.
	ErrDuplicateItem = errors.New("item already exists in this location")
	// ErrRequestNotFound is returned for unknown request ids.
	ErrRequestNotFound = errors.New("request not found")
	// ErrUserNotFound is returned for unknown or deleted user ids.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when an active user already has the username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalid marks input rejected before anything was written.
	ErrInvalid = errors.New("invalid input")
	// ErrTransactionFailed marks a batch that was rolled back.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrStockChanged is returned when a stock-take raced with another write.
	ErrStockChanged = errors.New("stock changed while counting, count again")

	errNoRowsAffected = errors.New("statement changed no rows")
)

// checkQuantity rejects quantities and deltas beyond model.MaxQuantity.
func checkQuantity(what string, n int) error {
	if n > model.MaxQuantity || n < -model.MaxQuantity {
		return fmt.Errorf("%w: %s %d is out of range", ErrInvalid, what, n)
	}
	return nil
}

// InsufficientStockError is returned when a debit would drive a quantity below zero.
type InsufficientStockError struct {
	Item      string
	Location  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s at %s: available %d, requested %d",
		e.Item, e.Location, e.Available, e.Requested)
}

// TransitionError is returned when a request is not in a state that allows
// the attempted transition.
type TransitionError struct {
	ID   int64
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request #%d is %s and cannot become %s", e.ID, e.From, e.To)
}

// BatchError reports which statement of a batch failed. The whole batch has
// been rolled back when it is returned.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%v: statement %d: %v", ErrTransactionFailed, e.Index+1, e.Err)
}

func (e *BatchError) Unwrap() []error {
	return []error{ErrTransactionFailed, e.Err}
}
