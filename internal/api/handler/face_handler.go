package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"workhub.service/internal/core"
)

// FaceHandler exposes enrollment template management.
type FaceHandler struct {
	Service *core.FaceService
}

type enrollRequest struct {
	UserID         string    `json:"userId"`
	FaceDescriptor []float64 `json:"faceDescriptor"`
}

// Enroll stores the averaged descriptor as the user's template.
func (h *FaceHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || len(req.FaceDescriptor) == 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if err := h.Service.Enroll(r.Context(), req.UserID, req.FaceDescriptor); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, "User not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Face enrollment failed")
		writeError(w, http.StatusInternalServerError, "Failed to enroll face")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type resetRequest struct {
	UserID string `json:"userId"`
}

// Reset clears the template; the user must re-enroll afterwards.
func (h *FaceHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "Missing userId")
		return
	}

	if err := h.Service.Reset(r.Context(), req.UserID); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, "User not found")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Face reset failed")
		writeError(w, http.StatusInternalServerError, "Failed to reset face data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Face data reset successfully",
	})
}
