package core

import "github.com/shopspring/decimal"

// Weighted-average costing: all units at a balance share one blended unit
// cost, recomputed on every entry. Exits extract value at the current average
// and never change the average of what remains. No FIFO/LIFO, no per-batch
// identity.
//
// Quantities are integers. Costs stay in decimal throughout: amounts at 2
// fractional digits, derived unit costs at 4, so repeated recomputation never
// accumulates binary-float drift into a reconciliation mismatch.

const (
	amountScale   = 2
	unitCostScale = 4
)

// ApplyEntry blends qty units at unitCost into the balance.
func ApplyEntry(b Balance, qty int, unitCost decimal.Decimal) Balance {
	return ApplyEntryValue(b, qty, unitCost.Mul(decimal.NewFromInt(int64(qty))).Round(amountScale))
}

// ApplyEntryValue adds qty units carrying an exact total value. Transfers and
// loan approvals use it so the destination receives precisely what the source
// gave up.
func ApplyEntryValue(b Balance, qty int, value decimal.Decimal) Balance {
	return Balance{
		Quantity:   b.Quantity + qty,
		CostAmount: b.CostAmount.Add(value),
	}
}

// ApplyExit removes qty units at the current weighted-average unit cost.
// It returns the new balance, the unit cost used, and the total value
// removed. Draining the balance removes the exact remaining cost, so an empty
// balance always holds zero value regardless of rounding.
func ApplyExit(b Balance, qty int) (Balance, decimal.Decimal, decimal.Decimal, error) {
	if qty > b.Quantity {
		return Balance{}, decimal.Zero, decimal.Zero, &InsufficientStockError{Requested: qty, Available: b.Quantity}
	}

	unitCost := b.UnitCost()

	var removed decimal.Decimal
	if qty == b.Quantity {
		removed = b.CostAmount
	} else {
		removed = unitCost.Mul(decimal.NewFromInt(int64(qty))).Round(amountScale)
		if removed.GreaterThan(b.CostAmount) {
			removed = b.CostAmount
		}
	}

	next := Balance{
		Quantity:   b.Quantity - qty,
		CostAmount: b.CostAmount.Sub(removed),
	}
	return next, unitCost, removed, nil
}
