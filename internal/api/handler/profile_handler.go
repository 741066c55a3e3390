package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"workhub.service/internal/core"
	"workhub.service/internal/core/model"
)

// ProfileHandler reads and writes the extended employee profile.
type ProfileHandler struct {
	Service *core.ProfileService
}

// Get returns the profile for a user, or an empty object when none exists.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	profile, err := h.Service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, "Missing userId")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Profile lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load profile.")
		return
	}
	if profile == nil {
		profile = &model.EmployeeProfile{UserID: userID}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

type updateProfileRequest struct {
	Name    string                `json:"name"`
	Email   string                `json:"email"`
	Profile model.EmployeeProfile `json:"profile"`
}

// Update replaces the profile and the user's name/email in one transaction.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Service.UpdateProfile(r.Context(), userID, &req.Profile, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, "Missing userId")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Profile update failed")
		writeError(w, http.StatusInternalServerError, "Failed to update profile.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
