package app

import (
	"context"

	"stockbook/internal/core"
)

// Service is the single interface UI adapters call. It decouples
// presentation from the stock engine; implementations contain no display
// logic. Identity (owner/requester IDs) arrives already authenticated by the
// upstream gateway — only loan-resolution authorization is enforced below.
type Service interface {
	// AddStock records a goods entry into one of the owner's locations.
	AddStock(ctx context.Context, req AddStockRequest) error
	// RemoveStock records a costed exit (sale, adjustment, loan-out,
	// transfer-out) from one of the owner's locations.
	RemoveStock(ctx context.Context, req RemoveStockRequest) error
	// MoveStock transfers stock between two of the owner's locations,
	// cost-neutrally.
	MoveStock(ctx context.Context, req MoveStockRequest) error
	// RecordSale decrements every ticket line atomically.
	RecordSale(ctx context.Context, req RecordSaleRequest) error
	// CompleteOnboarding loads a consultant's initial stock and marks them
	// onboarded.
	CompleteOnboarding(ctx context.Context, req OnboardingRequest) error

	// GetBalance returns one balance, or nil when the triple holds nothing.
	GetBalance(ctx context.Context, ownerID, productID int, location string) (*core.StockBalance, error)
	// GetInventory returns the owner's stock grouped by product across
	// locations.
	GetInventory(ctx context.Context, ownerID int) (*InventoryResult, error)
	// GetLedger returns the owner's movement history, optionally for one
	// product.
	GetLedger(ctx context.Context, ownerID int, productID *int) ([]core.LedgerEntry, error)

	// CreateLoanRequest opens a PENDING borrow request; no stock moves yet.
	CreateLoanRequest(ctx context.Context, req CreateLoanRequest) (*LoanRequestResult, error)
	// ApproveLoanRequest atomically moves stock and cost from the owner's
	// book to the requester's and resolves the request.
	ApproveLoanRequest(ctx context.Context, requestID string, ownerID int) error
	// RejectLoanRequest resolves the request with no stock effect.
	RejectLoanRequest(ctx context.Context, requestID string, ownerID int) error
	ListIncomingRequests(ctx context.Context, ownerID int) ([]core.LoanRequestView, error)
	ListOutgoingRequests(ctx context.Context, requesterID int) ([]core.LoanRequestView, error)

	// RegisterConsultant creates a consultant profile, defaulting the home
	// location when the request leaves it blank.
	RegisterConsultant(ctx context.Context, req RegisterConsultantRequest) (*core.Consultant, error)
	// GetConsultant resolves a consultant's profile, including their home
	// location and onboarding state.
	GetConsultant(ctx context.Context, id int) (*core.Consultant, error)

	GetPartnerShowcase(ctx context.Context, consultantID int) ([]core.ShowcaseProduct, error)
	GetTeamSummary(ctx context.Context, leaderID int) (*core.TeamSummary, error)
	GetOwnerSummary(ctx context.Context, ownerID int) (*core.OwnerSummary, error)

	ListProducts(ctx context.Context) ([]core.Product, error)
	SearchProducts(ctx context.Context, query string) ([]core.Product, error)
}
