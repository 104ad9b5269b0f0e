package server

import (
	"errors"
	"net/http"

	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/fitrackhq/fitrack/internal/services/investment"
)

// handleAccountsRoot dispatches GET/POST for /api/accounts.
func (s *Server) handleAccountsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleAccountList(w, r)
	case http.MethodPost:
		s.handleAccountCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAccountList handles GET /api/accounts.
func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := s.app.InvestmentService.ListAccounts(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list accounts")
		WriteError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   accounts,
	})
}

// handleAccountCreate handles POST /api/accounts.
func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	account, err := s.app.InvestmentService.SaveAccount(r.Context(), userID, &models.Account{
		Description: req.Description,
	})
	if err != nil {
		s.writeAccountError(w, err, userID, "Failed to create account")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data":   account,
	})
}

// handleAccountUpdate handles PUT /api/accounts/{id}.
func (s *Server) handleAccountUpdate(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	account, err := s.app.InvestmentService.SaveAccount(r.Context(), userID, &models.Account{
		ID:          id,
		Description: req.Description,
	})
	if err != nil {
		s.writeAccountError(w, err, userID, "Failed to update account")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   account,
	})
}

// handleAccountDelete handles DELETE /api/accounts/{id}.
func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.app.InvestmentService.DeleteAccount(r.Context(), userID, id); err != nil {
		s.writeAccountError(w, err, userID, "Failed to delete account")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// handleAccountMetrics handles GET /api/accounts/{id}/metrics.
func (s *Server) handleAccountMetrics(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	bundle, err := s.app.MetricsService.AccountMetrics(r.Context(), userID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to compute account metrics")
		WriteError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}
	if bundle == nil {
		WriteError(w, http.StatusNotFound, "account not found or has no investments")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   bundle,
	})
}

// writeAccountError maps service errors onto HTTP responses.
func (s *Server) writeAccountError(w http.ResponseWriter, err error, userID, logMsg string) {
	switch {
	case errors.Is(err, investment.ErrNotFound):
		WriteError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, investment.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Str("user_id", userID).Msg(logMsg)
		WriteError(w, http.StatusInternalServerError, "account operation failed")
	}
}
