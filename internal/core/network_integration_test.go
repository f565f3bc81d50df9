package core_test

import (
	"testing"

	"stockbook/internal/core"

	"github.com/shopspring/decimal"
)

func TestNetwork_PartnerShowcase(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	network := core.NewNetworkService(pool)

	// Leader Ana (1) and peer Maria (2) hold stock; Carla (3) asks what she
	// can borrow.
	if err := stock.AddStock(ctx, 1, "BAT-001", 5, decimal.RequireFromString("2.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock for leader failed: %v", err)
	}
	if err := stock.AddStock(ctx, 2, "BAT-001", 3, decimal.RequireFromString("2.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock for peer failed: %v", err)
	}
	// Carla's own stock must never show up in her showcase.
	if err := stock.AddStock(ctx, 3, "BAS-001", 2, decimal.RequireFromString("5.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock for self failed: %v", err)
	}
	// A drained balance is not borrowable.
	if err := stock.AddStock(ctx, 2, "BAS-001", 1, decimal.RequireFromString("5.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if err := stock.RemoveStock(ctx, 2, "BAS-001", 1, "Casa", core.MovementSale, ""); err != nil {
		t.Fatalf("RemoveStock failed: %v", err)
	}

	showcase, err := network.PartnerShowcase(ctx, 3)
	if err != nil {
		t.Fatalf("PartnerShowcase failed: %v", err)
	}
	if len(showcase) != 1 {
		t.Fatalf("Expected 1 showcase product, got %d", len(showcase))
	}
	sp := showcase[0]
	if sp.SKU != "BAT-001" {
		t.Errorf("Expected BAT-001, got %s", sp.SKU)
	}
	if len(sp.Holders) != 2 {
		t.Fatalf("Expected 2 holders, got %d", len(sp.Holders))
	}
	for _, h := range sp.Holders {
		if h.ConsultantID == 3 {
			t.Error("Showcase included the requesting consultant's own stock")
		}
		if h.Quantity <= 0 {
			t.Errorf("Showcase included an empty balance for consultant %d", h.ConsultantID)
		}
	}
}

func TestNetwork_ShowcaseWithoutLeader(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	network := core.NewNetworkService(pool)

	// Ana (1) has no leader, so no network to borrow from.
	showcase, err := network.PartnerShowcase(ctx, 1)
	if err != nil {
		t.Fatalf("PartnerShowcase failed: %v", err)
	}
	if showcase != nil {
		t.Errorf("Expected empty showcase for leaderless consultant, got %d products", len(showcase))
	}
}

func TestNetwork_TeamSummary(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	network := core.NewNetworkService(pool)

	// Maria (2): 5 lipsticks. Carla (3): 2 bases, below the low-stock line.
	if err := stock.AddStock(ctx, 2, "BAT-001", 5, decimal.RequireFromString("20.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if err := stock.AddStock(ctx, 3, "BAS-001", 2, decimal.RequireFromString("45.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}

	summary, err := network.TeamSummary(ctx, 1)
	if err != nil {
		t.Fatalf("TeamSummary failed: %v", err)
	}
	if len(summary.Members) != 2 {
		t.Fatalf("Expected 2 team members, got %d", len(summary.Members))
	}
	if summary.TotalItems != 7 {
		t.Errorf("Expected 7 items across the team, got %d", summary.TotalItems)
	}
	// Retail: 5 x 49.90 + 2 x 89.90 = 429.30
	if !summary.TotalRetail.Equal(decimal.RequireFromString("429.30")) {
		t.Errorf("Expected team retail 429.30, got %s", summary.TotalRetail)
	}
	if summary.TotalLowStock != 1 {
		t.Errorf("Expected 1 low-stock item, got %d", summary.TotalLowStock)
	}

	for _, m := range summary.Members {
		switch m.ConsultantID {
		case 2:
			if m.ItemCount != 5 || m.LowStockItems != 0 {
				t.Errorf("Maria: expected 5 items, 0 low stock; got %d, %d", m.ItemCount, m.LowStockItems)
			}
		case 3:
			if m.ItemCount != 2 || m.LowStockItems != 1 {
				t.Errorf("Carla: expected 2 items, 1 low stock; got %d, %d", m.ItemCount, m.LowStockItems)
			}
		default:
			t.Errorf("Unexpected team member %d", m.ConsultantID)
		}
	}
}

func TestNetwork_OwnerSummary(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	stock, _ := newStockService(pool)
	network := core.NewNetworkService(pool)

	if err := stock.AddStock(ctx, 2, "BAT-001", 5, decimal.RequireFromString("20.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if err := stock.AddStock(ctx, 2, "BAS-001", 2, decimal.RequireFromString("45.00"), "Casa", ""); err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}

	summary, err := network.OwnerSummary(ctx, 2)
	if err != nil {
		t.Fatalf("OwnerSummary failed: %v", err)
	}
	if summary.TotalItems != 7 {
		t.Errorf("Expected 7 items, got %d", summary.TotalItems)
	}
	// Retail: 5 x 49.90 + 2 x 89.90 = 429.30
	if !summary.RetailValue.Equal(decimal.RequireFromString("429.30")) {
		t.Errorf("Expected retail 429.30, got %s", summary.RetailValue)
	}
	// Cost: 5 x 20.00 + 2 x 45.00 = 190.00
	if !summary.CostValue.Equal(decimal.RequireFromString("190.00")) {
		t.Errorf("Expected cost 190.00, got %s", summary.CostValue)
	}
	if summary.LowStockItems != 1 {
		t.Errorf("Expected 1 low-stock item, got %d", summary.LowStockItems)
	}
}
