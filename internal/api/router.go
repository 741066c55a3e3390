package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"workhub.service/internal/api/handler"
	"workhub.service/internal/api/middleware"
	"workhub.service/internal/core"
)

// RouterDeps bundles the services the HTTP layer fans out to.
type RouterDeps struct {
	Attendance    *core.AttendanceService
	Auth          *core.AuthService
	Users         *core.UserService
	Profiles      *core.ProfileService
	Faces         *core.FaceService
	SessionMaxAge int
	SecureCookies bool
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(deps RouterDeps) *mux.Router {
	attendanceHandler := handler.AttendanceHandler{Service: deps.Attendance}
	authHandler := handler.AuthHandler{
		Service:       deps.Auth,
		SessionMaxAge: deps.SessionMaxAge,
		SecureCookies: deps.SecureCookies,
	}
	adminHandler := handler.AdminHandler{Service: deps.Users}
	profileHandler := handler.ProfileHandler{Service: deps.Profiles}
	faceHandler := handler.FaceHandler{Service: deps.Faces}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/first-login", authHandler.CompleteFirstLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(middleware.RequireSession)
	authed.HandleFunc("/attendance/punch", attendanceHandler.Punch).Methods(http.MethodPost)
	authed.HandleFunc("/attendance/status", attendanceHandler.PunchStatus).Methods(http.MethodGet)
	authed.HandleFunc("/attendance/monthly", attendanceHandler.Monthly).Methods(http.MethodGet)
	authed.HandleFunc("/profile/{id}", profileHandler.Get).Methods(http.MethodGet)
	authed.HandleFunc("/profile/{id}", profileHandler.Update).Methods(http.MethodPut)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", adminHandler.AddUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", adminHandler.UpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{id}/reset-password", adminHandler.ResetPassword).Methods(http.MethodPost)

	// The enrollment UI talks to these unversioned paths.
	face := r.PathPrefix("/api/face").Subrouter()
	face.Use(middleware.RequireSession)
	face.HandleFunc("/enroll", faceHandler.Enroll).Methods(http.MethodPost)
	face.HandleFunc("/reset", faceHandler.Reset).Methods(http.MethodPost)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
