package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// lowStockThreshold marks products a consultant is about to run out of.
const lowStockThreshold = 3

// ShowcaseHolder is one consultant holding borrowable stock of a product.
type ShowcaseHolder struct {
	ConsultantID   int    `json:"consultant_id"`
	ConsultantName string `json:"consultant_name"`
	Location       string `json:"location"`
	Quantity       int    `json:"quantity"`
}

// ShowcaseProduct groups a product's availability across the network.
type ShowcaseProduct struct {
	ProductID   int              `json:"product_id"`
	ProductName string           `json:"product_name"`
	SKU         string           `json:"sku"`
	ImageURL    *string          `json:"image_url,omitempty"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	Holders     []ShowcaseHolder `json:"holders"`
}

// TeamMemberSummary is one consultant's line on their leader's dashboard.
type TeamMemberSummary struct {
	ConsultantID  int             `json:"consultant_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	ItemCount     int             `json:"item_count"`
	RetailValue   decimal.Decimal `json:"retail_value"`
	CostValue     decimal.Decimal `json:"cost_value"`
	LowStockItems int             `json:"low_stock_items"`
}

// TeamSummary aggregates a leader's whole team.
type TeamSummary struct {
	Members       []TeamMemberSummary `json:"members"`
	TotalItems    int                 `json:"total_items"`
	TotalRetail   decimal.Decimal     `json:"total_retail"`
	TotalLowStock int                 `json:"total_low_stock"`
}

// OwnerSummary is one consultant's own dashboard numbers.
type OwnerSummary struct {
	TotalItems    int             `json:"total_items"`
	RetailValue   decimal.Decimal `json:"retail_value"`
	CostValue     decimal.Decimal `json:"cost_value"`
	LowStockItems int             `json:"low_stock_items"`
}

// NetworkService answers the read-only network and team questions: what can
// I borrow from my network, how is my team doing, how am I doing.
type NetworkService interface {
	// PartnerShowcase lists stock available to borrow across the user's
	// network: their leader plus peers under the same leader, never the user
	// themselves, never empty balances.
	PartnerShowcase(ctx context.Context, consultantID int) ([]ShowcaseProduct, error)
	TeamSummary(ctx context.Context, leaderID int) (*TeamSummary, error)
	OwnerSummary(ctx context.Context, ownerID int) (*OwnerSummary, error)
}

type networkService struct {
	pool *pgxpool.Pool
}

func NewNetworkService(pool *pgxpool.Pool) NetworkService {
	return &networkService{pool: pool}
}

func (s *networkService) PartnerShowcase(ctx context.Context, consultantID int) ([]ShowcaseProduct, error) {
	var leaderID *int
	err := s.pool.QueryRow(ctx,
		"SELECT leader_id FROM consultants WHERE id = $1", consultantID,
	).Scan(&leaderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownConsultant, consultantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve consultant %d: %w", consultantID, err)
	}
	if leaderID == nil {
		// No leader means no network to borrow from.
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.sku, p.image_url, p.base_price,
		       c.id, c.name, sb.location, sb.quantity
		FROM stock_balances sb
		JOIN consultants c ON c.id = sb.owner_id
		JOIN products p ON p.id = sb.product_id
		WHERE sb.quantity > 0
		  AND c.id <> $1
		  AND (c.id = $2 OR c.leader_id = $2)
		ORDER BY p.name, c.name, sb.location
	`, consultantID, *leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query network stock: %w", err)
	}
	defer rows.Close()

	var showcase []ShowcaseProduct
	index := map[int]int{}
	for rows.Next() {
		var sp ShowcaseProduct
		var h ShowcaseHolder
		if err := rows.Scan(&sp.ProductID, &sp.ProductName, &sp.SKU, &sp.ImageURL, &sp.BasePrice,
			&h.ConsultantID, &h.ConsultantName, &h.Location, &h.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan network stock: %w", err)
		}
		i, ok := index[sp.ProductID]
		if !ok {
			i = len(showcase)
			index[sp.ProductID] = i
			showcase = append(showcase, sp)
		}
		showcase[i].Holders = append(showcase[i].Holders, h)
	}
	return showcase, rows.Err()
}

func (s *networkService) TeamSummary(ctx context.Context, leaderID int) (*TeamSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.email,
		       COALESCE(SUM(sb.quantity), 0)::int,
		       COALESCE(SUM(sb.quantity * p.base_price), 0),
		       COALESCE(SUM(sb.cost_amount), 0),
		       COUNT(*) FILTER (WHERE sb.quantity > 0 AND sb.quantity < $2)::int
		FROM consultants c
		LEFT JOIN stock_balances sb ON sb.owner_id = c.id
		LEFT JOIN products p ON p.id = sb.product_id
		WHERE c.leader_id = $1
		GROUP BY c.id, c.name, c.email
		ORDER BY c.name
	`, leaderID, lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query team summary: %w", err)
	}
	defer rows.Close()

	summary := &TeamSummary{TotalRetail: decimal.Zero}
	for rows.Next() {
		var m TeamMemberSummary
		if err := rows.Scan(&m.ConsultantID, &m.Name, &m.Email,
			&m.ItemCount, &m.RetailValue, &m.CostValue, &m.LowStockItems); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		summary.Members = append(summary.Members, m)
		summary.TotalItems += m.ItemCount
		summary.TotalRetail = summary.TotalRetail.Add(m.RetailValue)
		summary.TotalLowStock += m.LowStockItems
	}
	return summary, rows.Err()
}

func (s *networkService) OwnerSummary(ctx context.Context, ownerID int) (*OwnerSummary, error) {
	var o OwnerSummary
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(sb.quantity), 0)::int,
		       COALESCE(SUM(sb.quantity * p.base_price), 0),
		       COALESCE(SUM(sb.cost_amount), 0),
		       COUNT(*) FILTER (WHERE sb.quantity > 0 AND sb.quantity < $2)::int
		FROM stock_balances sb
		JOIN products p ON p.id = sb.product_id
		WHERE sb.owner_id = $1
	`, ownerID, lowStockThreshold).Scan(&o.TotalItems, &o.RetailValue, &o.CostValue, &o.LowStockItems)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner summary: %w", err)
	}
	return &o, nil
}
