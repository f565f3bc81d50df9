package core

import (
	"errors"
	"fmt"
)

// Business-rule failures are returned as typed errors so callers can match
// with errors.Is/errors.As and render an actionable message. Only
// InvariantViolationError and raw storage errors indicate a bug.
var (
	ErrUnknownProduct    = errors.New("product not found")
	ErrUnknownConsultant = errors.New("consultant not found")
	ErrRequestNotFound   = errors.New("loan request not found")
	ErrInvalidTransfer   = errors.New("source and destination locations must differ")
	ErrAlreadyProcessed  = errors.New("loan request has already been resolved")
	ErrNotAuthorized     = errors.New("only the stock owner may resolve this request")
	ErrConflict          = errors.New("operation conflicted with a concurrent update")
)

// InsufficientStockError reports an exit larger than the available balance.
// Location is filled in by the service that knows it.
type InsufficientStockError struct {
	Location  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock at %q: requested %d, available %d", e.Location, e.Requested, e.Available)
}

// InvariantViolationError means a write would have produced a negative
// quantity or cost. The costing engine never does this on validated input, so
// seeing one is a bug, not a user error.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Detail
}

// ValidationError rejects malformed caller input (non-positive quantity,
// negative cost, blank location, bad movement type).
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}
