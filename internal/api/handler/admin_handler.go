package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"workhub.service/internal/core"
	"workhub.service/internal/core/model"
)

// AdminHandler covers the user-management endpoints. All routes here sit
// behind the admin middleware.
type AdminHandler struct {
	Service *core.UserService
}

// ListUsers returns every account without password hashes.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("User listing failed")
		writeError(w, http.StatusInternalServerError, "Failed to load users.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type addUserRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// AddUser creates an account with a temporary password.
func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.Service.AddUser(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if core.IsAuthError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("User creation failed")
		writeError(w, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

type updateUserRequest struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// UpdateUser changes the admin-editable account fields.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Service.UpdateUser(r.Context(), userID, req.Name, req.Email, req.Role); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("User update failed")
		writeError(w, http.StatusInternalServerError, "Failed to update user.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	if err := h.Service.DeleteUser(r.Context(), userID); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("User deletion failed")
		writeError(w, http.StatusInternalServerError, "Failed to delete user.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets an admin-chosen password; the user must change it on
// their next login.
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Service.ResetPassword(r.Context(), userID, req.Password); err != nil {
		if core.IsAuthError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Password reset failed")
		writeError(w, http.StatusInternalServerError, "Failed to reset password.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
