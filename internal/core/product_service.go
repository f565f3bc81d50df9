package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = "id, sku, name, description, base_price, cost_price, image_url, is_active"

// ProductService is the read-only catalog the ledger references.
type ProductService interface {
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	GetByID(ctx context.Context, id int) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	// Search matches name or SKU, case-insensitive, at least 2 characters.
	Search(ctx context.Context, query string) ([]Product, error)
}

type productService struct {
	pool *pgxpool.Pool
}

func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

func (s *productService) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.getOne(ctx, "sku = $1", sku)
}

func (s *productService) GetByID(ctx context.Context, id int) (*Product, error) {
	return s.getOne(ctx, "id = $1", id)
}

func (s *productService) getOne(ctx context.Context, where string, arg any) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE "+where+" AND is_active = true", arg,
	).Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.BasePrice, &p.CostPrice, &p.ImageURL, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownProduct, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

func (s *productService) List(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = true ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return scanProducts(rows)
}

func (s *productService) Search(ctx context.Context, query string) ([]Product, error) {
	if len(query) < 2 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE is_active = true AND (name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT 10
	`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.BasePrice,
			&p.CostPrice, &p.ImageURL, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
