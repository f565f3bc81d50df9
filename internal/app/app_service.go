package app

import (
	"context"
	"fmt"

	"stockbook/internal/core"
)

type appService struct {
	stock       core.StockService
	loans       core.LoanService
	network     core.NetworkService
	products    core.ProductService
	consultants core.ConsultantService
	ledger      *core.Ledger
}

func NewService(
	stock core.StockService,
	loans core.LoanService,
	network core.NetworkService,
	products core.ProductService,
	consultants core.ConsultantService,
	ledger *core.Ledger,
) Service {
	return &appService{
		stock:       stock,
		loans:       loans,
		network:     network,
		products:    products,
		consultants: consultants,
		ledger:      ledger,
	}
}

// ── Stock mutations ───────────────────────────────────────────────────────────

func (s *appService) AddStock(ctx context.Context, req AddStockRequest) error {
	return s.stock.AddStock(ctx, req.OwnerID, req.SKU, req.Quantity, req.UnitCost, req.Location, req.Note)
}

func (s *appService) RemoveStock(ctx context.Context, req RemoveStockRequest) error {
	return s.stock.RemoveStock(ctx, req.OwnerID, req.SKU, req.Quantity, req.Location,
		core.MovementType(req.MovementType), req.Note)
}

func (s *appService) MoveStock(ctx context.Context, req MoveStockRequest) error {
	return s.stock.MoveStock(ctx, req.OwnerID, req.SKU, req.Quantity, req.FromLocation, req.ToLocation)
}

func (s *appService) RecordSale(ctx context.Context, req RecordSaleRequest) error {
	return s.stock.RecordSale(ctx, req.OwnerID, req.Lines, req.Note)
}

func (s *appService) CompleteOnboarding(ctx context.Context, req OnboardingRequest) error {
	return s.stock.SeedInitialStock(ctx, req.OwnerID, req.Items)
}

// ── Stock queries ─────────────────────────────────────────────────────────────

func (s *appService) GetBalance(ctx context.Context, ownerID, productID int, location string) (*core.StockBalance, error) {
	return s.stock.GetBalance(ctx, ownerID, productID, location)
}

func (s *appService) GetInventory(ctx context.Context, ownerID int) (*InventoryResult, error) {
	products, err := s.stock.GetBalancesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	summary, err := s.network.OwnerSummary(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory summary: %w", err)
	}
	return &InventoryResult{Products: products, Summary: *summary}, nil
}

func (s *appService) GetLedger(ctx context.Context, ownerID int, productID *int) ([]core.LedgerEntry, error) {
	return s.ledger.Entries(ctx, ownerID, productID)
}

// ── Loans ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateLoanRequest(ctx context.Context, req CreateLoanRequest) (*LoanRequestResult, error) {
	id, err := s.loans.CreateRequest(ctx, req.RequesterID, req.OwnerID, req.ProductID, req.Quantity, req.Note)
	if err != nil {
		return nil, err
	}
	return &LoanRequestResult{RequestID: id}, nil
}

func (s *appService) ApproveLoanRequest(ctx context.Context, requestID string, ownerID int) error {
	return s.loans.ApproveRequest(ctx, requestID, ownerID)
}

func (s *appService) RejectLoanRequest(ctx context.Context, requestID string, ownerID int) error {
	return s.loans.RejectRequest(ctx, requestID, ownerID)
}

func (s *appService) ListIncomingRequests(ctx context.Context, ownerID int) ([]core.LoanRequestView, error) {
	return s.loans.ListIncoming(ctx, ownerID)
}

func (s *appService) ListOutgoingRequests(ctx context.Context, requesterID int) ([]core.LoanRequestView, error) {
	return s.loans.ListOutgoing(ctx, requesterID)
}

func (s *appService) RegisterConsultant(ctx context.Context, req RegisterConsultantRequest) (*core.Consultant, error) {
	return s.consultants.Create(ctx, req.Name, req.Email, core.Role(req.Role), req.LeaderID, req.HomeLocation)
}

func (s *appService) GetConsultant(ctx context.Context, id int) (*core.Consultant, error) {
	return s.consultants.GetByID(ctx, id)
}

// ── Network / team ────────────────────────────────────────────────────────────

func (s *appService) GetPartnerShowcase(ctx context.Context, consultantID int) ([]core.ShowcaseProduct, error) {
	return s.network.PartnerShowcase(ctx, consultantID)
}

func (s *appService) GetTeamSummary(ctx context.Context, leaderID int) (*core.TeamSummary, error) {
	return s.network.TeamSummary(ctx, leaderID)
}

func (s *appService) GetOwnerSummary(ctx context.Context, ownerID int) (*core.OwnerSummary, error) {
	return s.network.OwnerSummary(ctx, ownerID)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.products.List(ctx)
}

func (s *appService) SearchProducts(ctx context.Context, query string) ([]core.Product, error) {
	return s.products.Search(ctx, query)
}
