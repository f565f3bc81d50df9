package core_test

import (
	"errors"
	"testing"

	"stockbook/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func newLoanServices(pool *pgxpool.Pool) (core.StockService, core.LoanService, *core.Ledger) {
	ledger := core.NewLedger(pool)
	return core.NewStockService(pool, ledger), core.NewLoanService(pool, ledger), ledger
}

func TestLoan_ApproveMovesValueBetweenOwners(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, loans, ledger := newLoanServices(pool)

	// Maria (2) holds 5 units at 4.00 each; Carla (3) borrows 2.
	if err := stock.AddStock(ctx, 2, "BAT-001", 5, decimal.RequireFromString("4.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}

	requestID, err := loans.CreateRequest(ctx, 3, 2, 1, 2, "need for a client demo")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if err := loans.ApproveRequest(ctx, requestID, 2); err != nil {
		t.Fatalf("ApproveRequest failed: %v", err)
	}

	requireBalance(t, ctx, stock, 2, 1, "Casa", 3, "12.00")
	requireBalance(t, ctx, stock, 3, 1, "Casa", 2, "8.00")
	requireReconciled(t, ctx, ledger, 2, 3)

	// Paired entries carry the same value and point at each other's owner.
	ownerEntries, err := ledger.Entries(ctx, 2, nil)
	if err != nil {
		t.Fatalf("Entries(owner) failed: %v", err)
	}
	out := ownerEntries[len(ownerEntries)-1]
	if out.Type != core.MovementLoanOut || out.QuantityDelta != -2 {
		t.Errorf("Expected LOAN_OUT delta -2, got %s delta %d", out.Type, out.QuantityDelta)
	}
	if out.PartnerID == nil || *out.PartnerID != 3 {
		t.Errorf("Expected LOAN_OUT partner 3, got %v", out.PartnerID)
	}

	reqEntries, err := ledger.Entries(ctx, 3, nil)
	if err != nil {
		t.Fatalf("Entries(requester) failed: %v", err)
	}
	in := reqEntries[len(reqEntries)-1]
	if in.Type != core.MovementLoanIn || in.QuantityDelta != 2 {
		t.Errorf("Expected LOAN_IN delta 2, got %s delta %d", in.Type, in.QuantityDelta)
	}
	if !in.TotalCost.Equal(out.TotalCost) {
		t.Errorf("Loan legs disagree on value: out %s, in %s", out.TotalCost, in.TotalCost)
	}

	outgoing, err := loans.ListOutgoing(ctx, 3)
	if err != nil {
		t.Fatalf("ListOutgoing failed: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].Status != core.LoanApproved {
		t.Errorf("Expected one APPROVED outgoing request, got %+v", outgoing)
	}
}

func TestLoan_RejectLeavesStockUntouched(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, loans, _ := newLoanServices(pool)

	if err := stock.AddStock(ctx, 2, "BAT-001", 5, decimal.RequireFromString("4.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	requestID, err := loans.CreateRequest(ctx, 3, 2, 1, 2, "")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if err := loans.RejectRequest(ctx, requestID, 2); err != nil {
		t.Fatalf("RejectRequest failed: %v", err)
	}

	requireBalance(t, ctx, stock, 2, 1, "Casa", 5, "20.00")
	if b, _ := stock.GetBalance(ctx, 3, 1, "Casa"); b != nil {
		t.Errorf("Expected requester to hold nothing, got %+v", b)
	}

	outgoing, err := loans.ListOutgoing(ctx, 3)
	if err != nil {
		t.Fatalf("ListOutgoing failed: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].Status != core.LoanRejected {
		t.Errorf("Expected one REJECTED outgoing request, got %+v", outgoing)
	}
}

func TestLoan_ResolvedExactlyOnce(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, loans, _ := newLoanServices(pool)

	if err := stock.AddStock(ctx, 2, "BAT-001", 5, decimal.RequireFromString("4.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	requestID, err := loans.CreateRequest(ctx, 3, 2, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if err := loans.ApproveRequest(ctx, requestID, 2); err != nil {
		t.Fatalf("First approve failed: %v", err)
	}
	if err := loans.ApproveRequest(ctx, requestID, 2); !errors.Is(err, core.ErrAlreadyProcessed) {
		t.Errorf("Expected ErrAlreadyProcessed on second approve, got %v", err)
	}
	if err := loans.RejectRequest(ctx, requestID, 2); !errors.Is(err, core.ErrAlreadyProcessed) {
		t.Errorf("Expected ErrAlreadyProcessed on reject after approve, got %v", err)
	}

	// The stock moved exactly once.
	requireBalance(t, ctx, stock, 2, 1, "Casa", 4, "16.00")
	requireBalance(t, ctx, stock, 3, 1, "Casa", 1, "4.00")
}

func TestLoan_OnlyOwnerResolves(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, loans, _ := newLoanServices(pool)

	if err := stock.AddStock(ctx, 2, "BAT-001", 5, decimal.RequireFromString("4.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	requestID, err := loans.CreateRequest(ctx, 3, 2, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	// The requester cannot approve their own request.
	if err := loans.ApproveRequest(ctx, requestID, 3); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized for requester, got %v", err)
	}
	// Neither can an unrelated consultant.
	if err := loans.RejectRequest(ctx, requestID, 1); !errors.Is(err, core.ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized for third party, got %v", err)
	}

	// Still pending for the real owner.
	incoming, err := loans.ListIncoming(ctx, 2)
	if err != nil {
		t.Fatalf("ListIncoming failed: %v", err)
	}
	if len(incoming) != 1 || incoming[0].Status != core.LoanPending {
		t.Errorf("Expected one PENDING incoming request, got %+v", incoming)
	}
}

func TestLoan_ApproveWithInsufficientStock(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, loans, _ := newLoanServices(pool)

	if err := stock.AddStock(ctx, 2, "BAT-001", 1, decimal.RequireFromString("4.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	requestID, err := loans.CreateRequest(ctx, 3, 2, 1, 3, "")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	err = loans.ApproveRequest(ctx, requestID, 2)
	var insufficient *core.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}

	// The failed approval rolled back whole: request still pending, stock intact.
	incoming, err := loans.ListIncoming(ctx, 2)
	if err != nil {
		t.Fatalf("ListIncoming failed: %v", err)
	}
	if len(incoming) != 1 {
		t.Fatalf("Expected request still pending, got %d incoming", len(incoming))
	}
	requireBalance(t, ctx, stock, 2, 1, "Casa", 1, "4.00")
}

func TestLoan_CreateValidation(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	_, loans, _ := newLoanServices(pool)

	var validation *core.ValidationError
	if _, err := loans.CreateRequest(ctx, 2, 2, 1, 1, ""); !errors.As(err, &validation) {
		t.Errorf("Expected ValidationError for self-request, got %v", err)
	}
	if _, err := loans.CreateRequest(ctx, 3, 2, 1, 0, ""); !errors.As(err, &validation) {
		t.Errorf("Expected ValidationError for zero quantity, got %v", err)
	}
	if _, err := loans.CreateRequest(ctx, 3, 2, 999, 1, ""); !errors.Is(err, core.ErrUnknownProduct) {
		t.Errorf("Expected ErrUnknownProduct, got %v", err)
	}
	if _, err := loans.CreateRequest(ctx, 3, 999, 1, 1, ""); !errors.Is(err, core.ErrUnknownConsultant) {
		t.Errorf("Expected ErrUnknownConsultant, got %v", err)
	}
}

func TestLoan_UnknownRequest(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	_, loans, _ := newLoanServices(pool)

	err := loans.ApproveRequest(ctx, uuid.NewString(), 2)
	if !errors.Is(err, core.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound, got %v", err)
	}
}
