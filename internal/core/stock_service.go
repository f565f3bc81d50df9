package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService is the mutation and query surface for a single owner's stock.
// Every mutating call is one atomic unit: balance writes and their ledger
// entries commit together or not at all.
type StockService interface {
	// AddStock receives qty units at unitCost into a location, blending the
	// weighted average. Appends one PURCHASE entry.
	AddStock(ctx context.Context, ownerID int, sku string, qty int, unitCost decimal.Decimal, location, note string) error
	// RemoveStock takes qty units out of a location at the current average
	// cost. movement must be one of SALE, ADJUSTMENT, LOAN_OUT, TRANSFER_OUT.
	RemoveStock(ctx context.Context, ownerID int, sku string, qty int, location string, movement MovementType, note string) error
	// MoveStock shifts qty units between two of the owner's locations,
	// carrying the exact average cost of the moved units. Cost-neutral for
	// the owner: TRANSFER_OUT and TRANSFER_IN entries share one total cost.
	MoveStock(ctx context.Context, ownerID int, sku string, qty int, fromLocation, toLocation string) error
	// RecordSale decrements every line of a point-of-sale ticket from the
	// owner's home location in one transaction. Any short line aborts all.
	RecordSale(ctx context.Context, ownerID int, lines []SaleLine, note string) error
	// SeedInitialStock loads a new consultant's starting inventory at an
	// estimated cost (70% of base price) and marks onboarding complete.
	SeedInitialStock(ctx context.Context, ownerID int, items []InitialStockItem) error

	GetBalance(ctx context.Context, ownerID, productID int, location string) (*StockBalance, error)
	GetBalancesByOwner(ctx context.Context, ownerID int) ([]ProductStock, error)
}

// SaleLine is one ticket line of a point-of-sale sale.
type SaleLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// InitialStockItem is one product a consultant starts out holding.
type InitialStockItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// LocationBalance is one location's share of a product's stock.
type LocationBalance struct {
	Location   string          `json:"location"`
	Quantity   int             `json:"quantity"`
	CostAmount decimal.Decimal `json:"cost_amount"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

// ProductStock groups an owner's balances for one product across locations.
type ProductStock struct {
	Product     Product           `json:"product"`
	Locations   []LocationBalance `json:"locations"`
	Quantity    int               `json:"quantity"`
	CostAmount  decimal.Decimal   `json:"cost_amount"`
	AvgUnitCost decimal.Decimal   `json:"avg_unit_cost"`
}

type stockService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
}

func NewStockService(pool *pgxpool.Pool, ledger *Ledger) StockService {
	return &stockService{pool: pool, ledger: ledger}
}

// ── Tx-scoped lookups ─────────────────────────────────────────────────────────

func productBySKUTx(ctx context.Context, tx pgx.Tx, sku string) (*Product, error) {
	var p Product
	err := tx.QueryRow(ctx, `
		SELECT id, sku, name, description, base_price, cost_price, image_url, is_active
		FROM products WHERE sku = $1 AND is_active = true
	`, sku).Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.BasePrice, &p.CostPrice, &p.ImageURL, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: sku %s", ErrUnknownProduct, sku)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product %s: %w", sku, err)
	}
	return &p, nil
}

func consultantHomeTx(ctx context.Context, tx pgx.Tx, consultantID int) (string, error) {
	var home string
	err := tx.QueryRow(ctx,
		"SELECT home_location FROM consultants WHERE id = $1", consultantID,
	).Scan(&home)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: id %d", ErrUnknownConsultant, consultantID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve consultant %d: %w", consultantID, err)
	}
	return home, nil
}

// ── Mutations ─────────────────────────────────────────────────────────────────

func (s *stockService) AddStock(ctx context.Context, ownerID int, sku string, qty int, unitCost decimal.Decimal, location, note string) error {
	if qty <= 0 {
		return &ValidationError{Field: "quantity", Detail: fmt.Sprintf("must be positive, got %d", qty)}
	}
	if unitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Detail: fmt.Sprintf("cannot be negative, got %s", unitCost)}
	}
	if location == "" {
		return &ValidationError{Field: "location", Detail: "must not be empty"}
	}

	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := consultantHomeTx(ctx, tx, ownerID); err != nil {
			return err
		}
		product, err := productBySKUTx(ctx, tx, sku)
		if err != nil {
			return err
		}

		row, err := ensureBalance(ctx, tx, ownerID, product.ID, location)
		if err != nil {
			return err
		}
		if err := writeBalance(ctx, tx, row.ID, ApplyEntry(row.Balance, qty, unitCost)); err != nil {
			return err
		}

		return s.ledger.AppendInTx(ctx, tx, &LedgerEntry{
			OwnerID:       ownerID,
			ProductID:     product.ID,
			Type:          MovementPurchase,
			QuantityDelta: qty,
			UnitCost:      unitCost.Round(unitCostScale),
			TotalCost:     unitCost.Mul(decimal.NewFromInt(int64(qty))).Round(amountScale),
			Location:      location,
			Note:          note,
		})
	})
}

func (s *stockService) RemoveStock(ctx context.Context, ownerID int, sku string, qty int, location string, movement MovementType, note string) error {
	if qty <= 0 {
		return &ValidationError{Field: "quantity", Detail: fmt.Sprintf("must be positive, got %d", qty)}
	}
	if !movement.IsExit() {
		return &ValidationError{Field: "movement_type", Detail: fmt.Sprintf("%s is not an exit movement", movement)}
	}

	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := consultantHomeTx(ctx, tx, ownerID); err != nil {
			return err
		}
		product, err := productBySKUTx(ctx, tx, sku)
		if err != nil {
			return err
		}
		_, err = exitStock(ctx, tx, s.ledger, ownerID, product.ID, qty, location, movement, nil, note)
		return err
	})
}

func (s *stockService) MoveStock(ctx context.Context, ownerID int, sku string, qty int, fromLocation, toLocation string) error {
	if qty <= 0 {
		return &ValidationError{Field: "quantity", Detail: fmt.Sprintf("must be positive, got %d", qty)}
	}
	if fromLocation == toLocation {
		return fmt.Errorf("%w: %q", ErrInvalidTransfer, fromLocation)
	}

	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := consultantHomeTx(ctx, tx, ownerID); err != nil {
			return err
		}
		product, err := productBySKUTx(ctx, tx, sku)
		if err != nil {
			return err
		}

		// Lock both rows in location order so two concurrent opposite moves
		// cannot deadlock. The destination row is created if absent.
		var src, dst *balanceRow
		if fromLocation < toLocation {
			if src, err = lockBalance(ctx, tx, ownerID, product.ID, fromLocation); err != nil {
				return err
			}
			if dst, err = ensureBalance(ctx, tx, ownerID, product.ID, toLocation); err != nil {
				return err
			}
		} else {
			if dst, err = ensureBalance(ctx, tx, ownerID, product.ID, toLocation); err != nil {
				return err
			}
			if src, err = lockBalance(ctx, tx, ownerID, product.ID, fromLocation); err != nil {
				return err
			}
		}

		if src == nil {
			return &InsufficientStockError{Location: fromLocation, Requested: qty, Available: 0}
		}

		newSrc, unitCost, moved, err := ApplyExit(src.Balance, qty)
		if err != nil {
			return stampLocation(err, fromLocation)
		}
		if err := writeBalance(ctx, tx, src.ID, newSrc); err != nil {
			return err
		}
		if err := writeBalance(ctx, tx, dst.ID, ApplyEntryValue(dst.Balance, qty, moved)); err != nil {
			return err
		}

		note := fmt.Sprintf("Transfer %s: %s -> %s", sku, fromLocation, toLocation)
		out := LedgerEntry{
			OwnerID:       ownerID,
			ProductID:     product.ID,
			Type:          MovementTransferOut,
			QuantityDelta: -qty,
			UnitCost:      unitCost,
			TotalCost:     moved,
			Location:      fromLocation,
			Note:          note,
		}
		if err := s.ledger.AppendInTx(ctx, tx, &out); err != nil {
			return err
		}
		in := out
		in.Type = MovementTransferIn
		in.QuantityDelta = qty
		in.Location = toLocation
		return s.ledger.AppendInTx(ctx, tx, &in)
	})
}

func (s *stockService) RecordSale(ctx context.Context, ownerID int, lines []SaleLine, note string) error {
	if len(lines) == 0 {
		return &ValidationError{Field: "lines", Detail: "sale must have at least one line"}
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return &ValidationError{Field: "quantity", Detail: fmt.Sprintf("must be positive, got %d for %s", line.Quantity, line.SKU)}
		}
	}

	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		home, err := consultantHomeTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			product, err := productBySKUTx(ctx, tx, line.SKU)
			if err != nil {
				return err
			}
			if _, err := exitStock(ctx, tx, s.ledger, ownerID, product.ID, line.Quantity, home, MovementSale, nil, note); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *stockService) SeedInitialStock(ctx context.Context, ownerID int, items []InitialStockItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return &ValidationError{Field: "quantity", Detail: fmt.Sprintf("must be positive, got %d for %s", item.Quantity, item.SKU)}
		}
	}

	return runTx(ctx, s.pool, func(tx pgx.Tx) error {
		home, err := consultantHomeTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		for _, item := range items {
			product, err := productBySKUTx(ctx, tx, item.SKU)
			if err != nil {
				return err
			}

			// Consultants rarely know their historical purchase price during
			// onboarding; estimate cost as 70% of the catalog base price.
			estCost := product.BasePrice.Mul(decimal.NewFromFloat(0.7)).Round(unitCostScale)

			row, err := ensureBalance(ctx, tx, ownerID, product.ID, home)
			if err != nil {
				return err
			}
			if err := writeBalance(ctx, tx, row.ID, ApplyEntry(row.Balance, item.Quantity, estCost)); err != nil {
				return err
			}
			err = s.ledger.AppendInTx(ctx, tx, &LedgerEntry{
				OwnerID:       ownerID,
				ProductID:     product.ID,
				Type:          MovementPurchase,
				QuantityDelta: item.Quantity,
				UnitCost:      estCost,
				TotalCost:     estCost.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(amountScale),
				Location:      home,
				Note:          "Initial stock (onboarding)",
			})
			if err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx,
			"UPDATE consultants SET onboarding_completed = true WHERE id = $1", ownerID)
		if err != nil {
			return fmt.Errorf("failed to mark onboarding complete: %w", err)
		}
		return nil
	})
}

// exitStock locks a balance, applies a costed exit, writes the result, and
// appends the signed ledger entry. Shared by RemoveStock, RecordSale, and the
// loan workflow.
func exitStock(ctx context.Context, tx pgx.Tx, ledger *Ledger, ownerID, productID, qty int,
	location string, movement MovementType, partnerID *int, note string) (*LedgerEntry, error) {

	row, err := lockBalance(ctx, tx, ownerID, productID, location)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &InsufficientStockError{Location: location, Requested: qty, Available: 0}
	}

	next, unitCost, removed, err := ApplyExit(row.Balance, qty)
	if err != nil {
		return nil, stampLocation(err, location)
	}
	if err := writeBalance(ctx, tx, row.ID, next); err != nil {
		return nil, err
	}

	entry := &LedgerEntry{
		OwnerID:       ownerID,
		ProductID:     productID,
		Type:          movement,
		QuantityDelta: -qty,
		UnitCost:      unitCost,
		TotalCost:     removed,
		Location:      location,
		PartnerID:     partnerID,
		Note:          note,
	}
	if err := ledger.AppendInTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// stampLocation fills the location into an InsufficientStockError produced by
// the location-agnostic costing engine.
func stampLocation(err error, location string) error {
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) && insufficient.Location == "" {
		insufficient.Location = location
	}
	return err
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *stockService) GetBalance(ctx context.Context, ownerID, productID int, location string) (*StockBalance, error) {
	var b StockBalance
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_id, product_id, location, quantity, cost_amount, updated_at
		FROM stock_balances
		WHERE owner_id = $1 AND product_id = $2 AND location = $3
	`, ownerID, productID, location).Scan(&b.ID, &b.OwnerID, &b.ProductID, &b.Location,
		&b.Balance.Quantity, &b.Balance.CostAmount, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query balance: %w", err)
	}
	return &b, nil
}

func (s *stockService) GetBalancesByOwner(ctx context.Context, ownerID int) ([]ProductStock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.sku, p.name, p.description, p.base_price, p.cost_price, p.image_url, p.is_active,
		       sb.location, sb.quantity, sb.cost_amount
		FROM stock_balances sb
		JOIN products p ON p.id = sb.product_id
		WHERE sb.owner_id = $1
		ORDER BY p.name, sb.location
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var result []ProductStock
	index := map[int]int{}
	for rows.Next() {
		var p Product
		var lb LocationBalance
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.BasePrice, &p.CostPrice,
			&p.ImageURL, &p.IsActive, &lb.Location, &lb.Quantity, &lb.CostAmount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		lb.UnitCost = Balance{Quantity: lb.Quantity, CostAmount: lb.CostAmount}.UnitCost()

		i, ok := index[p.ID]
		if !ok {
			i = len(result)
			index[p.ID] = i
			result = append(result, ProductStock{Product: p, CostAmount: decimal.Zero})
		}
		result[i].Locations = append(result[i].Locations, lb)
		result[i].Quantity += lb.Quantity
		result[i].CostAmount = result[i].CostAmount.Add(lb.CostAmount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].AvgUnitCost = Balance{
			Quantity:   result[i].Quantity,
			CostAmount: result[i].CostAmount,
		}.UnitCost()
	}
	return result, nil
}
