package core_test

import (
	"errors"
	"testing"

	"stockbook/internal/core"

	"github.com/shopspring/decimal"
)

func bal(qty int, cost string) core.Balance {
	return core.Balance{Quantity: qty, CostAmount: decimal.RequireFromString(cost)}
}

func TestCosting_BlendedAverage(t *testing.T) {
	b := core.ApplyEntry(core.Balance{}, 10, decimal.RequireFromString("2.00"))
	b = core.ApplyEntry(b, 10, decimal.RequireFromString("4.00"))

	if b.Quantity != 20 {
		t.Errorf("Expected quantity 20, got %d", b.Quantity)
	}
	if !b.CostAmount.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("Expected cost 60.00, got %s", b.CostAmount)
	}
	if !b.UnitCost().Equal(decimal.RequireFromString("3.0000")) {
		t.Errorf("Expected blended unit cost 3.0000, got %s", b.UnitCost())
	}
}

func TestCosting_ExitPreservesAverage(t *testing.T) {
	b := bal(20, "60.00")

	next, unitCost, removed, err := core.ApplyExit(b, 5)
	if err != nil {
		t.Fatalf("ApplyExit failed: %v", err)
	}
	if !unitCost.Equal(decimal.RequireFromString("3.0000")) {
		t.Errorf("Expected exit at unit cost 3.0000, got %s", unitCost)
	}
	if !removed.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected 15.00 removed, got %s", removed)
	}
	if next.Quantity != 15 || !next.CostAmount.Equal(decimal.RequireFromString("45.00")) {
		t.Errorf("Expected 15 units at 45.00, got %d at %s", next.Quantity, next.CostAmount)
	}
	// The remaining units still average 3.0000.
	if !next.UnitCost().Equal(unitCost) {
		t.Errorf("Exit changed the remaining average: %s", next.UnitCost())
	}
}

func TestCosting_FullDrainRemovesAllCost(t *testing.T) {
	// 10.00 over 3 units does not divide evenly: unit cost 3.3333.
	b := bal(3, "10.00")

	b, _, removed, err := core.ApplyExit(b, 1)
	if err != nil {
		t.Fatalf("First exit failed: %v", err)
	}
	if !removed.Equal(decimal.RequireFromString("3.33")) {
		t.Errorf("Expected 3.33 removed, got %s", removed)
	}

	b, _, removed, err = core.ApplyExit(b, 2)
	if err != nil {
		t.Fatalf("Draining exit failed: %v", err)
	}
	// The drain takes whatever is left, not 2 x 3.3333 rounded.
	if !removed.Equal(decimal.RequireFromString("6.67")) {
		t.Errorf("Expected drain to remove 6.67, got %s", removed)
	}
	if b.Quantity != 0 || !b.CostAmount.IsZero() {
		t.Errorf("Expected empty balance with zero cost, got %d at %s", b.Quantity, b.CostAmount)
	}
}

func TestCosting_PartialExitNeverOverdraws(t *testing.T) {
	// 10.05 over 1000 units rounds the unit cost up to 0.0101; a naive
	// 999 x 0.0101 would remove 10.09, more than the balance holds.
	b := bal(1000, "10.05")

	next, _, removed, err := core.ApplyExit(b, 999)
	if err != nil {
		t.Fatalf("ApplyExit failed: %v", err)
	}
	if !removed.Equal(decimal.RequireFromString("10.05")) {
		t.Errorf("Expected removal capped at 10.05, got %s", removed)
	}
	if next.CostAmount.IsNegative() {
		t.Errorf("Balance went negative: %s", next.CostAmount)
	}
}

func TestCosting_InsufficientStock(t *testing.T) {
	_, _, _, err := core.ApplyExit(bal(3, "9.00"), 5)
	if err == nil {
		t.Fatal("Expected insufficient stock error, got nil")
	}

	var insufficient *core.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientStockError, got %T: %v", err, err)
	}
	if insufficient.Requested != 5 || insufficient.Available != 3 {
		t.Errorf("Expected requested=5 available=3, got requested=%d available=%d",
			insufficient.Requested, insufficient.Available)
	}
}

func TestCosting_ZeroCostEntry(t *testing.T) {
	b := core.ApplyEntry(core.Balance{}, 5, decimal.Zero)
	if b.Quantity != 5 || !b.CostAmount.IsZero() {
		t.Errorf("Expected 5 units at zero cost, got %d at %s", b.Quantity, b.CostAmount)
	}
	if !b.UnitCost().IsZero() {
		t.Errorf("Expected zero unit cost, got %s", b.UnitCost())
	}
}

func TestCosting_EmptyBalanceUnitCost(t *testing.T) {
	if !(core.Balance{}).UnitCost().IsZero() {
		t.Error("Expected zero unit cost on empty balance")
	}
}
