package app

import "stockbook/internal/core"

// InventoryResult is an owner's full stock picture plus summary numbers.
type InventoryResult struct {
	Products []core.ProductStock `json:"products"`
	Summary  core.OwnerSummary   `json:"summary"`
}

// LoanRequestResult returns the ID of a newly created borrow request.
type LoanRequestResult struct {
	RequestID string `json:"request_id"`
}
