package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleLeader     Role = "LEADER"
	RoleConsultant Role = "CONSULTANT"
	RoleCustomer   Role = "CUSTOMER"
)

// Consultant is an independent sales rep (or their leader) who owns stock.
type Consultant struct {
	ID                  int       `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Role                Role      `json:"role"`
	LeaderID            *int      `json:"leader_id,omitempty"`
	HomeLocation        string    `json:"home_location"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

// Product is a catalog entry. The ledger only ever reads it.
type Product struct {
	ID          int             `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	ImageURL    *string         `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
}

type MovementType string

const (
	MovementPurchase    MovementType = "PURCHASE"
	MovementSale        MovementType = "SALE"
	MovementAdjustment  MovementType = "ADJUSTMENT"
	MovementLoanOut     MovementType = "LOAN_OUT"
	MovementLoanIn      MovementType = "LOAN_IN"
	MovementTransferOut MovementType = "TRANSFER_OUT"
	MovementTransferIn  MovementType = "TRANSFER_IN"
)

// IsExit reports whether this movement takes stock out of a balance.
func (m MovementType) IsExit() bool {
	switch m {
	case MovementSale, MovementAdjustment, MovementLoanOut, MovementTransferOut:
		return true
	}
	return false
}

// Balance is the quantity and accumulated cost held at one (owner, product,
// location). CostAmount is the total cost of all units, not the unit cost;
// CostAmount / Quantity is the current weighted-average unit cost.
type Balance struct {
	Quantity   int             `json:"quantity"`
	CostAmount decimal.Decimal `json:"cost_amount"`
}

// UnitCost returns the implied weighted-average unit cost, or zero for an
// empty balance.
func (b Balance) UnitCost() decimal.Decimal {
	if b.Quantity <= 0 {
		return decimal.Zero
	}
	return b.CostAmount.DivRound(decimal.NewFromInt(int64(b.Quantity)), unitCostScale)
}

// StockBalance is a persisted Balance row.
type StockBalance struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	ProductID int       `json:"product_id"`
	Location  string    `json:"location"`
	Balance   Balance   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEntry is one immutable stock movement. QuantityDelta carries the sign
// (exits negative); UnitCost and TotalCost are non-negative magnitudes, with
// TotalCost the value actually moved (authoritative for reconciliation).
type LedgerEntry struct {
	ID            int64           `json:"id"`
	OwnerID       int             `json:"owner_id"`
	ProductID     int             `json:"product_id"`
	Type          MovementType    `json:"type"`
	QuantityDelta int             `json:"quantity_delta"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Location      string          `json:"location"`
	PartnerID     *int            `json:"partner_id,omitempty"`
	Note          string          `json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
}

type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanApproved LoanStatus = "APPROVED"
	LoanRejected LoanStatus = "REJECTED"
)

// LoanRequest is a pending or resolved request to borrow stock from another
// consultant. PENDING resolves exactly once, to APPROVED or REJECTED.
type LoanRequest struct {
	ID          string     `json:"id"`
	RequesterID int        `json:"requester_id"`
	OwnerID     int        `json:"owner_id"`
	ProductID   int        `json:"product_id"`
	Quantity    int        `json:"quantity"`
	Status      LoanStatus `json:"status"`
	Note        string     `json:"note"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// LoanRequestView is a LoanRequest joined with the names the UI needs to
// render it.
type LoanRequestView struct {
	LoanRequest
	RequesterName string  `json:"requester_name"`
	OwnerName     string  `json:"owner_name"`
	ProductName   string  `json:"product_name"`
	ProductSKU    string  `json:"product_sku"`
	ImageURL      *string `json:"image_url,omitempty"`
}
