package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Tx-scoped balance access. All mutating services go through these helpers so
// the non-negative invariant is enforced in exactly one place (backed up by
// CHECK constraints in the schema).

type balanceRow struct {
	ID       int
	Location string
	Balance  Balance
}

// lockBalance reads a balance row FOR UPDATE. Absent rows mean zero stock and
// return nil without error.
func lockBalance(ctx context.Context, tx pgx.Tx, ownerID, productID int, location string) (*balanceRow, error) {
	row := balanceRow{Location: location}
	err := tx.QueryRow(ctx, `
		SELECT id, quantity, cost_amount
		FROM stock_balances
		WHERE owner_id = $1 AND product_id = $2 AND location = $3
		FOR UPDATE
	`, ownerID, productID, location).Scan(&row.ID, &row.Balance.Quantity, &row.Balance.CostAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance at %q: %w", location, err)
	}
	return &row, nil
}

// ensureBalance creates the zero row on first entry into a location, then
// locks it. The upsert-then-lock two-step mirrors how concurrent creators
// converge on the same row.
func ensureBalance(ctx context.Context, tx pgx.Tx, ownerID, productID int, location string) (*balanceRow, error) {
	row := balanceRow{Location: location}
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_balances (owner_id, product_id, location, quantity, cost_amount)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (owner_id, product_id, location) DO UPDATE SET updated_at = now()
		RETURNING id
	`, ownerID, productID, location).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert balance at %q: %w", location, err)
	}

	err = tx.QueryRow(ctx,
		"SELECT quantity, cost_amount FROM stock_balances WHERE id = $1 FOR UPDATE",
		row.ID,
	).Scan(&row.Balance.Quantity, &row.Balance.CostAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance at %q: %w", location, err)
	}
	return &row, nil
}

// writeBalance persists a computed balance, refusing anything negative.
func writeBalance(ctx context.Context, tx pgx.Tx, id int, b Balance) error {
	if b.Quantity < 0 {
		return &InvariantViolationError{Detail: fmt.Sprintf("balance %d would hold negative quantity %d", id, b.Quantity)}
	}
	if b.CostAmount.IsNegative() {
		return &InvariantViolationError{Detail: fmt.Sprintf("balance %d would hold negative cost %s", id, b.CostAmount)}
	}
	if b.Quantity == 0 && !b.CostAmount.IsZero() {
		return &InvariantViolationError{Detail: fmt.Sprintf("balance %d would hold cost %s with zero quantity", id, b.CostAmount)}
	}

	_, err := tx.Exec(ctx, `
		UPDATE stock_balances SET quantity = $1, cost_amount = $2, updated_at = now()
		WHERE id = $3
	`, b.Quantity, b.CostAmount, id)
	if err != nil {
		return fmt.Errorf("failed to write balance %d: %w", id, err)
	}
	return nil
}
