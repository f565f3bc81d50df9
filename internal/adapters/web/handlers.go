package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"stockbook/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes the stock engine as a JSON API. All identity fields in
// requests are trusted: authentication happens at the upstream gateway.
type Handler struct {
	svc app.Service
	log *zap.Logger
}

// NewHandler wires the chi router with all routes and middleware.
func NewHandler(svc app.Service, log *zap.Logger, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Route("/api/stock", func(r chi.Router) {
		r.Post("/add", h.addStock)
		r.Post("/remove", h.removeStock)
		r.Post("/move", h.moveStock)
		r.Post("/sale", h.recordSale)
		r.Post("/onboarding", h.completeOnboarding)
		r.Get("/balance", h.getBalance)
		r.Get("/balances", h.getInventory)
	})

	r.Get("/api/ledger", h.getLedger)

	r.Route("/api/loans", func(r chi.Router) {
		r.Post("/", h.createLoanRequest)
		r.Post("/{id}/approve", h.approveLoanRequest)
		r.Post("/{id}/reject", h.rejectLoanRequest)
		r.Get("/incoming", h.listIncoming)
		r.Get("/outgoing", h.listOutgoing)
	})

	r.Post("/api/consultants", h.registerConsultant)
	r.Get("/api/consultants/{id}", h.getConsultant)

	r.Get("/api/network/showcase", h.partnerShowcase)
	r.Get("/api/team/summary", h.teamSummary)
	r.Get("/api/summary", h.ownerSummary)

	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/search", h.searchProducts)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	var req app.AddStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.AddStock(r.Context(), req); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (h *Handler) removeStock(w http.ResponseWriter, r *http.Request) {
	var req app.RemoveStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.RemoveStock(r.Context(), req); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (h *Handler) moveStock(w http.ResponseWriter, r *http.Request) {
	var req app.MoveStockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.MoveStock(r.Context(), req); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req app.RecordSaleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.RecordSale(r.Context(), req); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (h *Handler) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	var req app.OnboardingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.CompleteOnboarding(r.Context(), req); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := queryInt(w, r, "owner")
	if !ok {
		return
	}
	productID, ok := queryInt(w, r, "product")
	if !ok {
		return
	}
	location := r.URL.Query().Get("location")
	if location == "" {
		writeError(w, r, "location query parameter is required", "VALIDATION", http.StatusUnprocessableEntity)
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), ownerID, productID, location)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	if balance == nil {
		writeError(w, r, "no stock at this location", "BALANCE_NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, balance)
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := queryInt(w, r, "owner")
	if !ok {
		return
	}
	result, err := h.svc.GetInventory(r.Context(), ownerID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := queryInt(w, r, "owner")
	if !ok {
		return
	}
	var productID *int
	if raw := r.URL.Query().Get("product"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, "product must be an integer", "VALIDATION", http.StatusUnprocessableEntity)
			return
		}
		productID = &id
	}

	entries, err := h.svc.GetLedger(r.Context(), ownerID, productID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"entries": entries})
}

// ── Loans ─────────────────────────────────────────────────────────────────────

func (h *Handler) createLoanRequest(w http.ResponseWriter, r *http.Request) {
	var req app.CreateLoanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.svc.CreateLoanRequest(r.Context(), req)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) approveLoanRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveLoanRequest(w, r, h.svc.ApproveLoanRequest)
}

func (h *Handler) rejectLoanRequest(w http.ResponseWriter, r *http.Request) {
	h.resolveLoanRequest(w, r, h.svc.RejectLoanRequest)
}

// resolveLoanRequest handles the shared approve/reject shape: the request ID
// from the path, the acting owner from the body.
func (h *Handler) resolveLoanRequest(w http.ResponseWriter, r *http.Request,
	resolve func(ctx context.Context, requestID string, ownerID int) error) {

	requestID := chi.URLParam(r, "id")
	var body struct {
		OwnerID int `json:"owner_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := resolve(r.Context(), requestID, body.OwnerID); err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (h *Handler) listIncoming(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := queryInt(w, r, "owner")
	if !ok {
		return
	}
	requests, err := h.svc.ListIncomingRequests(r.Context(), ownerID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"requests": requests})
}

func (h *Handler) listOutgoing(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := queryInt(w, r, "requester")
	if !ok {
		return
	}
	requests, err := h.svc.ListOutgoingRequests(r.Context(), requesterID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"requests": requests})
}

func (h *Handler) registerConsultant(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterConsultantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	consultant, err := h.svc.RegisterConsultant(r.Context(), req)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, consultant)
}

func (h *Handler) getConsultant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "id must be an integer", "VALIDATION", http.StatusUnprocessableEntity)
		return
	}
	consultant, svcErr := h.svc.GetConsultant(r.Context(), id)
	if svcErr != nil {
		h.writeCoreError(w, r, svcErr)
		return
	}
	writeJSON(w, consultant)
}

// ── Network / team ────────────────────────────────────────────────────────────

func (h *Handler) partnerShowcase(w http.ResponseWriter, r *http.Request) {
	consultantID, ok := queryInt(w, r, "consultant")
	if !ok {
		return
	}
	showcase, err := h.svc.GetPartnerShowcase(r.Context(), consultantID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"products": showcase})
}

func (h *Handler) teamSummary(w http.ResponseWriter, r *http.Request) {
	leaderID, ok := queryInt(w, r, "leader")
	if !ok {
		return
	}
	summary, err := h.svc.GetTeamSummary(r.Context(), leaderID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

func (h *Handler) ownerSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := queryInt(w, r, "owner")
	if !ok {
		return
	}
	summary, err := h.svc.GetOwnerSummary(r.Context(), ownerID)
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"products": products})
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"products": products})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, r, name+" query parameter is required", "VALIDATION", http.StatusUnprocessableEntity)
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, name+" must be an integer", "VALIDATION", http.StatusUnprocessableEntity)
		return 0, false
	}
	return id, true
}

func errField(err error) zap.Field {
	return zap.Error(err)
}

func reqField(r *http.Request) zap.Field {
	return zap.String("request_id", requestIDFromContext(r.Context()))
}
