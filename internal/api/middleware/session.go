package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"workhub.service/internal/core/model"
)

const sessionCookieName = "session"

// Session is the authenticated principal carried by the session cookie:
// an opaque user id plus a role. The cookie value is the base64 of the JSON
// payload.
type Session struct {
	ID   string     `json:"id"`
	Role model.Role `json:"role"`
}

type sessionContextKey struct{}

// SetSessionCookie issues the httpOnly session cookie.
func SetSessionCookie(w http.ResponseWriter, s Session, maxAge int, secure bool) {
	payload, _ := json.Marshal(s)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    base64.URLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// SessionFromRequest decodes the cookie, nil when absent or malformed.
func SessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	payload, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil || s.ID == "" {
		return nil
	}
	return &s
}

// SessionFromContext returns the principal stored by the auth middleware.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}

// RequireSession rejects unauthenticated requests and stores the principal
// in the request context.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFromRequest(r)
		if s == nil {
			writeDenied(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin additionally rejects non-admin principals.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFromContext(r.Context())
		if s.Role != model.RoleAdmin {
			writeDenied(w, http.StatusForbidden, "Access denied. Admins only.")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
