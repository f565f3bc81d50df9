package app

import (
	"github.com/shopspring/decimal"

	"stockbook/internal/core"
)

type AddStockRequest struct {
	OwnerID  int             `json:"owner_id"`
	SKU      string          `json:"sku"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Location string          `json:"location"`
	Note     string          `json:"note"`
}

type RemoveStockRequest struct {
	OwnerID      int    `json:"owner_id"`
	SKU          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	Location     string `json:"location"`
	MovementType string `json:"movement_type"`
	Note         string `json:"note"`
}

type MoveStockRequest struct {
	OwnerID      int    `json:"owner_id"`
	SKU          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
}

type RecordSaleRequest struct {
	OwnerID int             `json:"owner_id"`
	Lines   []core.SaleLine `json:"lines"`
	Note    string          `json:"note"`
}

type OnboardingRequest struct {
	OwnerID int                     `json:"owner_id"`
	Items   []core.InitialStockItem `json:"items"`
}

type RegisterConsultantRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	LeaderID     *int   `json:"leader_id,omitempty"`
	HomeLocation string `json:"home_location,omitempty"`
}

type CreateLoanRequest struct {
	RequesterID int    `json:"requester_id"`
	OwnerID     int    `json:"owner_id"`
	ProductID   int    `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note"`
}
