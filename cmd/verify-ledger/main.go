// verify-ledger audits the books: for every consultant it recomputes per-product
// quantity and cost from the ledger and compares them to the stored balances.
// Exits non-zero when any mismatch is found.
//
// Usage: go run ./cmd/verify-ledger
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"stockbook/internal/core"
	"stockbook/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT id, name FROM consultants ORDER BY id")
	if err != nil {
		log.Fatalf("[QUERY] failed to list consultants: %v", err)
	}
	type owner struct {
		id   int
		name string
	}
	var owners []owner
	for rows.Next() {
		var o owner
		if err := rows.Scan(&o.id, &o.name); err != nil {
			rows.Close()
			log.Fatalf("[QUERY] failed to scan consultant: %v", err)
		}
		owners = append(owners, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Fatalf("[QUERY] %v", err)
	}

	ledger := core.NewLedger(pool)
	failed := false
	for _, o := range owners {
		mismatches, err := ledger.VerifyOwner(ctx, o.id)
		if err != nil {
			log.Fatalf("[ERROR] owner %d (%s): %v", o.id, o.name, err)
		}
		if len(mismatches) == 0 {
			log.Printf("[OK]   owner %d (%s)", o.id, o.name)
			continue
		}
		failed = true
		for _, m := range mismatches {
			log.Printf("[FAIL] owner %d (%s) product %d: ledger qty=%d cost=%s, stock qty=%d cost=%s",
				o.id, o.name, m.ProductID,
				m.LedgerQuantity, m.LedgerCost.StringFixed(2),
				m.StockQuantity, m.StockCost.StringFixed(2))
		}
	}

	if failed {
		log.Println("[DONE] reconciliation FAILED")
		os.Exit(1)
	}
	log.Println("[DONE] ledger and balances reconcile")
}
