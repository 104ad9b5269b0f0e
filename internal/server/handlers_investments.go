package server

import (
	"errors"
	"net/http"

	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/fitrackhq/fitrack/internal/services/investment"
	"github.com/fitrackhq/fitrack/internal/services/portfolio"
)

// investmentPayload is the request body for create/update.
type investmentPayload struct {
	AccountID    string                `json:"account_id"`
	Description  string                `json:"description"`
	Type         models.InvestmentType `json:"type"`
	AccountType  models.AccountType    `json:"account_type"`
	CostBasis    float64               `json:"cost_basis"`
	CurrentDebt  float64               `json:"current_debt"`
	CurrentValue float64               `json:"current_value"`
}

// handleInvestmentsRoot dispatches GET/POST for /api/investments.
func (s *Server) handleInvestmentsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleInvestmentList(w, r)
	case http.MethodPost:
		s.handleInvestmentCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleInvestmentList handles GET /api/investments (optional ?account= filter).
func (s *Server) handleInvestmentList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accountID := r.URL.Query().Get("account")

	investments, err := s.app.InvestmentService.ListInvestments(r.Context(), userID, accountID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list investments")
		WriteError(w, http.StatusInternalServerError, "failed to list investments")
		return
	}
	if investments == nil {
		investments = []*models.Investment{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   investments,
	})
}

// handleInvestmentCreate handles POST /api/investments.
func (s *Server) handleInvestmentCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req investmentPayload
	if !DecodeJSON(w, r, &req) {
		return
	}

	inv, err := s.app.InvestmentService.SaveInvestment(r.Context(), userID, &models.Investment{
		AccountID:    req.AccountID,
		Description:  req.Description,
		Type:         req.Type,
		AccountType:  req.AccountType,
		CostBasis:    req.CostBasis,
		CurrentDebt:  req.CurrentDebt,
		CurrentValue: req.CurrentValue,
	})
	if err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to create investment")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "ok",
		"data":   inv,
	})
}

// handleInvestmentGet handles GET /api/investments/{id}.
func (s *Server) handleInvestmentGet(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	inv, err := s.app.InvestmentService.GetInvestment(r.Context(), userID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", id).Msg("Failed to load investment")
		WriteError(w, http.StatusInternalServerError, "failed to load investment")
		return
	}
	if inv == nil {
		WriteError(w, http.StatusNotFound, "investment not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   inv,
	})
}

// handleInvestmentUpdate handles PUT /api/investments/{id}.
func (s *Server) handleInvestmentUpdate(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req investmentPayload
	if !DecodeJSON(w, r, &req) {
		return
	}

	inv, err := s.app.InvestmentService.SaveInvestment(r.Context(), userID, &models.Investment{
		ID:           id,
		AccountID:    req.AccountID,
		Description:  req.Description,
		Type:         req.Type,
		AccountType:  req.AccountType,
		CostBasis:    req.CostBasis,
		CurrentDebt:  req.CurrentDebt,
		CurrentValue: req.CurrentValue,
	})
	if err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to update investment")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   inv,
	})
}

// handleInvestmentDelete handles DELETE /api/investments/{id}.
func (s *Server) handleInvestmentDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.app.InvestmentService.DeleteInvestment(r.Context(), userID, id); err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to delete investment")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// handleInvestmentMetrics handles GET /api/investments/{id}/metrics.
func (s *Server) handleInvestmentMetrics(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	bundle, err := s.app.MetricsService.InvestmentMetrics(r.Context(), userID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", id).Msg("Failed to compute investment metrics")
		WriteError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}
	if bundle == nil {
		WriteError(w, http.StatusNotFound, "investment not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   bundle,
	})
}

// handleInvestmentPerformance handles GET /api/investments/{id}/performance.
func (s *Server) handleInvestmentPerformance(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	points, err := s.app.MetricsService.MonthlyPerformance(r.Context(), userID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", id).Msg("Failed to build performance series")
		WriteError(w, http.StatusInternalServerError, "failed to build performance series")
		return
	}
	if points == nil {
		WriteError(w, http.StatusNotFound, "investment not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   points,
	})
}

// handleInvestmentPerformanceChart handles GET /api/investments/{id}/performance/chart.
func (s *Server) handleInvestmentPerformanceChart(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	points, err := s.app.MetricsService.MonthlyPerformance(r.Context(), userID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", id).Msg("Failed to build performance series for chart")
		WriteError(w, http.StatusInternalServerError, "failed to build performance series")
		return
	}
	if points == nil {
		WriteError(w, http.StatusNotFound, "investment not found")
		return
	}

	png, err := portfolio.RenderPerformanceChart(points)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", id).Msg("Failed to render performance chart")
		WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleInvestmentRecompute handles POST /api/investments/{id}/recompute.
func (s *Server) handleInvestmentRecompute(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	inv, err := s.app.InvestmentService.RecomputeSnapshot(r.Context(), userID, id)
	if err != nil {
		s.writeInvestmentError(w, err, userID, "Failed to recompute snapshot")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   inv,
	})
}

// writeInvestmentError maps service errors onto HTTP responses.
func (s *Server) writeInvestmentError(w http.ResponseWriter, err error, userID, logMsg string) {
	switch {
	case errors.Is(err, investment.ErrNotFound):
		WriteError(w, http.StatusNotFound, "investment not found")
	case errors.Is(err, investment.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Str("user_id", userID).Msg(logMsg)
		WriteError(w, http.StatusInternalServerError, "investment operation failed")
	}
}
