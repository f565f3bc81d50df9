package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger records stock movements. Entries are insert-only; no update or
// delete path exists anywhere in the codebase.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// AppendInTx inserts one entry within the caller's transaction, so the
// movement lands atomically with the balance write it describes.
func (l *Ledger) AppendInTx(ctx context.Context, tx pgx.Tx, e *LedgerEntry) error {
	if e.QuantityDelta == 0 {
		return &InvariantViolationError{Detail: "ledger entry with zero quantity delta"}
	}
	if e.UnitCost.IsNegative() || e.TotalCost.IsNegative() {
		return &InvariantViolationError{Detail: "ledger entry with negative cost"}
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO ledger_entries
			(owner_id, product_id, entry_type, quantity_delta, unit_cost, total_cost, location, partner_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, e.OwnerID, e.ProductID, string(e.Type), e.QuantityDelta,
		e.UnitCost, e.TotalCost, e.Location, e.PartnerID, e.Note,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// Entries returns an owner's movements in chronological order, optionally
// narrowed to one product.
func (l *Ledger) Entries(ctx context.Context, ownerID int, productID *int) ([]LedgerEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, owner_id, product_id, entry_type, quantity_delta,
		       unit_cost, total_cost, location, partner_id, note, created_at
		FROM ledger_entries
		WHERE owner_id = $1 AND ($2::int IS NULL OR product_id = $2)
		ORDER BY id
	`, ownerID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.ProductID, &e.Type, &e.QuantityDelta,
			&e.UnitCost, &e.TotalCost, &e.Location, &e.PartnerID, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReconciliationMismatch is one (owner, product) whose ledger sums disagree
// with the current balances.
type ReconciliationMismatch struct {
	OwnerID        int             `json:"owner_id"`
	ProductID      int             `json:"product_id"`
	LedgerQuantity int             `json:"ledger_quantity"`
	StockQuantity  int             `json:"stock_quantity"`
	LedgerCost     decimal.Decimal `json:"ledger_cost"`
	StockCost      decimal.Decimal `json:"stock_cost"`
}

// VerifyOwner recomputes per-product quantity and cost from the ledger and
// compares them to the balances: SUM(quantity_delta) must equal the summed
// balance quantity, and SUM(sign(quantity_delta) * total_cost) the summed
// cost amount. A non-empty result means the books are inconsistent.
func (l *Ledger) VerifyOwner(ctx context.Context, ownerID int) ([]ReconciliationMismatch, error) {
	rows, err := l.pool.Query(ctx, `
		WITH ledger AS (
			SELECT product_id,
			       SUM(quantity_delta)::int AS qty,
			       SUM(SIGN(quantity_delta) * total_cost) AS cost
			FROM ledger_entries
			WHERE owner_id = $1
			GROUP BY product_id
		), stock AS (
			SELECT product_id,
			       SUM(quantity)::int AS qty,
			       SUM(cost_amount) AS cost
			FROM stock_balances
			WHERE owner_id = $1
			GROUP BY product_id
		)
		SELECT COALESCE(ledger.product_id, stock.product_id),
		       COALESCE(ledger.qty, 0), COALESCE(stock.qty, 0),
		       COALESCE(ledger.cost, 0), COALESCE(stock.cost, 0)
		FROM ledger
		FULL OUTER JOIN stock USING (product_id)
		WHERE COALESCE(ledger.qty, 0) <> COALESCE(stock.qty, 0)
		   OR COALESCE(ledger.cost, 0) <> COALESCE(stock.cost, 0)
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var mismatches []ReconciliationMismatch
	for rows.Next() {
		m := ReconciliationMismatch{OwnerID: ownerID}
		if err := rows.Scan(&m.ProductID, &m.LedgerQuantity, &m.StockQuantity,
			&m.LedgerCost, &m.StockCost); err != nil {
			return nil, fmt.Errorf("failed to scan mismatch: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}
