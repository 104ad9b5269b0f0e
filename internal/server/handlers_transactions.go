package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/fitrackhq/fitrack/internal/models"
)

// transactionPayload is the request body for transaction create/update.
type transactionPayload struct {
	Type            models.TransactionType `json:"type"`
	TransactionDate time.Time              `json:"transaction_date"`
	Amount          float64                `json:"amount"`
	Description     string                 `json:"description"`
}

// handleInvestmentTransactions dispatches GET/POST for
// /api/investments/{id}/transactions.
func (s *Server) handleInvestmentTransactions(w http.ResponseWriter, r *http.Request, investmentID string) {
	switch r.Method {
	case http.MethodGet:
		s.handleTransactionList(w, r, investmentID)
	case http.MethodPost:
		s.handleTransactionCreate(w, r, investmentID)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleTransactionList handles GET /api/investments/{id}/transactions.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request, investmentID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts := interfaces.ListOptions{Limit: 50}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Skip = n
		}
	}
	if r.URL.Query().Get("order") == "asc" {
		opts.OrderBy = "date_asc"
	}

	items, total, err := s.app.InvestmentService.ListTransactions(r.Context(), userID, investmentID, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", investmentID).Msg("Failed to list transactions")
		WriteError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if items == nil {
		items = []*models.Transaction{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data": map[string]interface{}{
			"transactions": items,
			"total":        total,
			"limit":        opts.Limit,
			"skip":         opts.Skip,
		},
	})
}

// handleTransactionCreate handles POST /api/investments/{id}/transactions.
func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request, investmentID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req transactionPayload
	if !DecodeJSON(w, r, &req) {
		return
	}

	tx, err := s.app.InvestmentService.SaveTransaction(r.Context(), userID, &models.Transaction{
		InvestmentID:    investmentID,
		Type:            req.Type,
		TransactionDate: req.TransactionDate,
		Amount:          req.Amount,
		Description:     req.Description,
	})
	if err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to create transaction")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data":   tx,
	})
}

// handleTransactionUpdate handles PUT /api/transactions/{id}.
func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		transactionPayload
		InvestmentID string `json:"investment_id"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	// Default the investment from the stored entry so clients only send
	// the fields they change.
	if req.InvestmentID == "" {
		existing, err := s.app.Storage.LedgerStore().Get(r.Context(), userID, id)
		if err != nil {
			s.logger.Error().Err(err).Str("transaction_id", id).Msg("Failed to load transaction")
			WriteError(w, http.StatusInternalServerError, "failed to load transaction")
			return
		}
		if existing == nil {
			WriteError(w, http.StatusNotFound, "transaction not found")
			return
		}
		req.InvestmentID = existing.InvestmentID
	}

	tx, err := s.app.InvestmentService.SaveTransaction(r.Context(), userID, &models.Transaction{
		ID:              id,
		InvestmentID:    req.InvestmentID,
		Type:            req.Type,
		TransactionDate: req.TransactionDate,
		Amount:          req.Amount,
		Description:     req.Description,
	})
	if err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to update transaction")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   tx,
	})
}

// handleTransactionDelete handles DELETE /api/transactions/{id}.
func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.app.InvestmentService.DeleteTransaction(r.Context(), userID, id); err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to delete transaction")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
