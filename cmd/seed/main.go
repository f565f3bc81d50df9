// seed loads a development dataset: one leader, one consultant on their team,
// a small catalog, and starting stock for the consultant. Stock goes in through
// the real service path so ledger entries and balances stay consistent.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"stockbook/internal/core"
	"stockbook/internal/db"
)

type seedProduct struct {
	sku         string
	name        string
	description string
	basePrice   string
	costPrice   string
}

var catalog = []seedProduct{
	{"BAT-001", "Batom Matte Merlot", "Batom líquido matte de longa duração cor Merlot.", "49.90", "20.00"},
	{"BAS-001", "Base VFX Pro Camera Ready", "Base de alta cobertura com efeito filtro de foto.", "89.90", "45.00"},
	{"MAS-001", "Máscara Double Lash Extend", "Máscara para cílios efeito 2 em 1.", "59.90", "25.00"},
	{"CRE-001", "Dr. C. Tuna Tea Tree Cream", "Creme hidratante com óleo de melaleuca.", "39.90", "15.00"},
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()

	leaderID := upsertConsultant(ctx, pool, "Líder Supremo", "lider@farmasi.com", "LEADER", nil)
	consultantID := upsertConsultant(ctx, pool, "Maria Consultora", "consultora@farmasi.com", "CONSULTANT", &leaderID)
	log.Printf("[SEED] leader=%d consultant=%d", leaderID, consultantID)

	for _, p := range catalog {
		upsertProduct(ctx, pool, p)
	}
	log.Printf("[SEED] %d catalog products", len(catalog))

	ledger := core.NewLedger(pool)
	stock := core.NewStockService(pool, ledger)

	// Maria starts with 5 lipsticks: 2 in the sales bag, 3 at home.
	cost := decimal.RequireFromString("20.00")
	seedStock(ctx, stock, consultantID, "BAT-001", 2, cost, "Bolsa de Vendas")
	seedStock(ctx, stock, consultantID, "BAT-001", 3, cost, "Casa")

	log.Println("[DONE] seed complete")
}

func upsertConsultant(ctx context.Context, pool *pgxpool.Pool, name, email, role string, leaderID *int) int {
	var id int
	err := pool.QueryRow(ctx, `
		INSERT INTO consultants (name, email, role, leader_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, email, role, leaderID).Scan(&id)
	if err != nil {
		log.Fatalf("[SEED] failed to upsert consultant %s: %v", email, err)
	}
	return id
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p seedProduct) {
	_, err := pool.Exec(ctx, `
		INSERT INTO products (sku, name, description, base_price, cost_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			base_price = EXCLUDED.base_price,
			cost_price = EXCLUDED.cost_price
	`, p.sku, p.name, p.description, p.basePrice, p.costPrice)
	if err != nil {
		log.Fatalf("[SEED] failed to upsert product %s: %v", p.sku, err)
	}
}

func seedStock(ctx context.Context, stock core.StockService, ownerID int, sku string, qty int, unitCost decimal.Decimal, location string) {
	exists, err := hasStock(ctx, stock, ownerID, sku, location)
	if err != nil {
		log.Fatalf("[SEED] failed to check stock %s at %s: %v", sku, location, err)
	}
	if exists {
		log.Printf("[SKIP] %s at %s already stocked", sku, location)
		return
	}
	if err := stock.AddStock(ctx, ownerID, sku, qty, unitCost, location, "Seed stock"); err != nil {
		log.Fatalf("[SEED] failed to add %d x %s at %s: %v", qty, sku, location, err)
	}
	log.Printf("[SEED] %d x %s at %s", qty, sku, location)
}

func hasStock(ctx context.Context, stock core.StockService, ownerID int, sku, location string) (bool, error) {
	balances, err := stock.GetBalancesByOwner(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, ps := range balances {
		if ps.Product.SKU != sku {
			continue
		}
		for _, lb := range ps.Locations {
			if lb.Location == location && lb.Quantity > 0 {
				return true, nil
			}
		}
	}
	return false, nil
}
