package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoanService runs the cross-owner borrow workflow. A request is PENDING
// until the stock owner resolves it, exactly once, to APPROVED or REJECTED.
// Approval is the single authorized path that moves value between two owners'
// books: it exits quantity and cost from the owner's home location and enters
// the same quantity and cost into the requester's, with paired LOAN_OUT /
// LOAN_IN ledger entries, all in one transaction.
type LoanService interface {
	CreateRequest(ctx context.Context, requesterID, ownerID, productID, qty int, note string) (string, error)
	ApproveRequest(ctx context.Context, requestID string, ownerID int) error
	RejectRequest(ctx context.Context, requestID string, ownerID int) error
	// ListIncoming returns the pending requests a consultant must resolve,
	// newest first.
	ListIncoming(ctx context.Context, ownerID int) ([]LoanRequestView, error)
	// ListOutgoing returns every request a consultant has made, any status.
	ListOutgoing(ctx context.Context, requesterID int) ([]LoanRequestView, error)
}

type loanService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewLoanService(pool *pgxpool.Pool, ledger *Ledger) LoanService {
	return &loanService{pool: pool, ledger: ledger}
}

func (s *loanService) CreateRequest(ctx context.Context, requesterID, ownerID, productID, qty int, note string) (string, error) {
	if qty <= 0 {
		return "", &ValidationError{Field: "quantity", Detail: fmt.Sprintf("must be positive, got %d", qty)}
	}
	if requesterID == ownerID {
		return "", &ValidationError{Field: "owner_id", Detail: "cannot request stock from yourself"}
	}

	id := uuid.NewString()
	err := runTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, consultantID := range []int{requesterID, ownerID} {
			if _, err := consultantHomeTx(ctx, tx, consultantID); err != nil {
				return err
			}
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active = true)", productID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product %d: %w", productID, err)
		}
		if !exists {
			return fmt.Errorf("%w: id %d", ErrUnknownProduct, productID)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO loan_requests (id, requester_id, owner_id, product_id, quantity, status, note)
			VALUES ($1, $2, $3, $4, $5, 'PENDING', $6)
		`, id, requesterID, ownerID, productID, qty, note)
		if err != nil {
			return fmt.Errorf("failed to create loan request: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// lockRequestTx loads a request FOR UPDATE and runs the resolution
// preconditions shared by approve and reject.
func lockRequestTx(ctx context.Context, tx pgx.Tx, requestID string, ownerID int) (*LoanRequest, error) {
	var req LoanRequest
	err := tx.QueryRow(ctx, `
		SELECT id, requester_id, owner_id, product_id, quantity, status, note, created_at, resolved_at
		FROM loan_requests WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&req.ID, &req.RequesterID, &req.OwnerID, &req.ProductID,
		&req.Quantity, &req.Status, &req.Note, &req.CreatedAt, &req.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load loan request %s: %w", requestID, err)
	}

	if req.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}
	if req.Status != LoanPending {
		return nil, fmt.Errorf("%w: status %s", ErrAlreadyProcessed, req.Status)
	}
	return &req, nil
}

func (s *loanService) ApproveRequest(ctx context.Context, requestID string, ownerID int) error {
	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		req, err := lockRequestTx(ctx, tx, requestID, ownerID)
		if err != nil {
			return err
		}

		ownerHome, err := consultantHomeTx(ctx, tx, req.OwnerID)
		if err != nil {
			return err
		}
		requesterHome, err := consultantHomeTx(ctx, tx, req.RequesterID)
		if err != nil {
			return err
		}

		// Lock both parties' balances in owner-id order so concurrent
		// approvals in opposite directions cannot deadlock. The requester's
		// row is created on first loan.
		var ownerBal, reqBal *balanceRow
		if req.OwnerID < req.RequesterID {
			if ownerBal, err = lockBalance(ctx, tx, req.OwnerID, req.ProductID, ownerHome); err != nil {
				return err
			}
			if reqBal, err = ensureBalance(ctx, tx, req.RequesterID, req.ProductID, requesterHome); err != nil {
				return err
			}
		} else {
			if reqBal, err = ensureBalance(ctx, tx, req.RequesterID, req.ProductID, requesterHome); err != nil {
				return err
			}
			if ownerBal, err = lockBalance(ctx, tx, req.OwnerID, req.ProductID, ownerHome); err != nil {
				return err
			}
		}

		if ownerBal == nil {
			return &InsufficientStockError{Location: ownerHome, Requested: req.Quantity, Available: 0}
		}

		newOwner, unitCost, moved, err := ApplyExit(ownerBal.Balance, req.Quantity)
		if err != nil {
			return stampLocation(err, ownerHome)
		}
		if err := writeBalance(ctx, tx, ownerBal.ID, newOwner); err != nil {
			return err
		}
		if err := writeBalance(ctx, tx, reqBal.ID, ApplyEntryValue(reqBal.Balance, req.Quantity, moved)); err != nil {
			return err
		}

		shortID := requestID
		if len(shortID) > 6 {
			shortID = shortID[:6]
		}
		out := LedgerEntry{
			OwnerID:       req.OwnerID,
			ProductID:     req.ProductID,
			Type:          MovementLoanOut,
			QuantityDelta: -req.Quantity,
			UnitCost:      unitCost,
			TotalCost:     moved,
			Location:      ownerHome,
			PartnerID:     &req.RequesterID,
			Note:          fmt.Sprintf("Loan approved #%s", shortID),
		}
		if err := s.ledger.AppendInTx(ctx, tx, &out); err != nil {
			return err
		}
		in := LedgerEntry{
			OwnerID:       req.RequesterID,
			ProductID:     req.ProductID,
			Type:          MovementLoanIn,
			QuantityDelta: req.Quantity,
			UnitCost:      unitCost,
			TotalCost:     moved,
			Location:      requesterHome,
			PartnerID:     &req.OwnerID,
			Note:          fmt.Sprintf("Loan received #%s", shortID),
		}
		if err := s.ledger.AppendInTx(ctx, tx, &in); err != nil {
			return err
		}

		return resolveRequestTx(ctx, tx, requestID, LoanApproved)
	})
}

func (s *loanService) RejectRequest(ctx context.Context, requestID string, ownerID int) error {
	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := lockRequestTx(ctx, tx, requestID, ownerID); err != nil {
			return err
		}
		return resolveRequestTx(ctx, tx, requestID, LoanRejected)
	})
}

func resolveRequestTx(ctx context.Context, tx pgx.Tx, requestID string, status LoanStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE loan_requests SET status = $1, resolved_at = now() WHERE id = $2
	`, string(status), requestID)
	if err != nil {
		return fmt.Errorf("failed to resolve loan request %s: %w", requestID, err)
	}
	return nil
}

func (s *loanService) ListIncoming(ctx context.Context, ownerID int) ([]LoanRequestView, error) {
	return s.listRequests(ctx, `
		WHERE lr.owner_id = $1 AND lr.status = 'PENDING'
	`, ownerID)
}

func (s *loanService) ListOutgoing(ctx context.Context, requesterID int) ([]LoanRequestView, error) {
	return s.listRequests(ctx, `
		WHERE lr.requester_id = $1
	`, requesterID)
}

func (s *loanService) listRequests(ctx context.Context, where string, arg any) ([]LoanRequestView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT lr.id, lr.requester_id, lr.owner_id, lr.product_id, lr.quantity,
		       lr.status, lr.note, lr.created_at, lr.resolved_at,
		       req.name, own.name, p.name, p.sku, p.image_url
		FROM loan_requests lr
		JOIN consultants req ON req.id = lr.requester_id
		JOIN consultants own ON own.id = lr.owner_id
		JOIN products p ON p.id = lr.product_id
		`+where+`
		ORDER BY lr.created_at DESC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query loan requests: %w", err)
	}
	defer rows.Close()

	var views []LoanRequestView
	for rows.Next() {
		var v LoanRequestView
		if err := rows.Scan(&v.ID, &v.RequesterID, &v.OwnerID, &v.ProductID, &v.Quantity,
			&v.Status, &v.Note, &v.CreatedAt, &v.ResolvedAt,
			&v.RequesterName, &v.OwnerName, &v.ProductName, &v.ProductSKU, &v.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan loan request: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
