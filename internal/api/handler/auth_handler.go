package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"workhub.service/internal/api/middleware"
	"workhub.service/internal/core"
)

// AuthHandler runs login and the first-login password flow, issuing the
// session cookie on success.
type AuthHandler struct {
	Service       *core.AuthService
	SessionMaxAge int
	SecureCookies bool
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if core.IsAuthError(err) {
			writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Login failed")
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if result.ResetRequired {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       false,
			"resetRequired": true,
			"userId":        result.User.ID,
		})
		return
	}

	middleware.SetSessionCookie(w, middleware.Session{ID: result.User.ID, Role: result.User.Role}, h.SessionMaxAge, h.SecureCookies)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"redirectUrl": result.RedirectURL,
	})
}

type firstLoginRequest struct {
	UserID          string `json:"userId"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *AuthHandler) CompleteFirstLogin(w http.ResponseWriter, r *http.Request) {
	var req firstLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Service.CompleteFirstLogin(r.Context(), req.UserID, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if core.IsAuthError(err) {
			writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("First-login password change failed")
		writeError(w, http.StatusInternalServerError, "Failed to reset password.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
