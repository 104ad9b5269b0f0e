package server

import (
	"net/http"
	"time"

	"github.com/fitrackhq/fitrack/internal/models"
	"github.com/google/uuid"
)

// handleProfile dispatches GET/PUT for /api/profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleProfileGet(w, r)
	case http.MethodPut:
		s.handleProfileUpdate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}

// handleProfileGet handles GET /api/profile.
func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load user profile")
		WriteError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if user == nil {
		WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   user.Profile,
	})
}

// handleProfileUpdate handles PUT /api/profile: flat overwrite of the
// expense/income/retirement lists and withdrawal rate.
func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UserProfile
	if !DecodeJSON(w, r, &req) {
		return
	}

	if errMsg := validateProfile(&req); errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	ctx := r.Context()
	store := s.app.Storage.UserStore()

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for profile update")
		WriteError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	if user == nil {
		WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	assignItemIDs(req.Expenses)
	assignItemIDs(req.Income)
	assignItemIDs(req.Retirement)

	user.Profile = req
	user.ModifiedAt = time.Now()

	if err := store.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save profile")
		WriteError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   user.Profile,
	})
}

// validateProfile returns a validation error message, or "" when valid.
func validateProfile(p *models.UserProfile) string {
	for _, list := range [][]models.ProfileItem{p.Expenses, p.Income, p.Retirement} {
		for _, item := range list {
			if item.Amount < 0 {
				return "profile amounts must not be negative"
			}
		}
	}
	if p.WithdrawalRate < 0 || p.WithdrawalRate > 100 {
		return "withdrawal rate must be between 0 and 100"
	}
	return ""
}

// assignItemIDs fills in IDs for newly added profile items.
func assignItemIDs(items []models.ProfileItem) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
	}
}
