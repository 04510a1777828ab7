package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ukydev/opsboard/internal/auth"
	"github.com/ukydev/opsboard/internal/middleware"
	"github.com/ukydev/opsboard/internal/models"
)

// RouterConfig collects what NewRouter mounts.
type RouterConfig struct {
	API         *API
	Auth        *AuthHandler
	AuthService *auth.Service
	// Stream serves the websocket feed at /api/stream. Optional.
	Stream http.Handler
	// Limiter is shared so the caller can sweep it. Optional.
	Limiter            *middleware.RateLimitMiddleware
	RateLimitPerMinute int
	// Health reports whether dependencies are reachable. Optional.
	Health func(ctx context.Context) error
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(cfg RouterConfig) http.Handler {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimitMiddleware()
	}
	authMW := middleware.NewAuthMiddleware(cfg.AuthService)
	can := authMW.RequirePermission

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(limiter.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Health(ctx); err != nil {
				middleware.Logger(r.Context()).WithError(err).Warn("health check failed")
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW.Authenticate)

		r.Post("/auth/login", cfg.Auth.Login)
		r.Post("/auth/register", cfg.Auth.Register)
		r.Post("/auth/refresh", cfg.Auth.Refresh)
		r.Get("/auth/profile", cfg.Auth.GetProfile)
		r.Put("/auth/profile", cfg.Auth.UpdateProfile)
		r.Post("/auth/password", cfg.Auth.ChangePassword)

		r.Route("/users", func(r chi.Router) {
			r.Use(authMW.RequireRole(models.RoleAdmin))
			r.With(can(models.ActionManageUsers)).Get("/", cfg.Auth.ListUsers)
			r.With(can(models.ActionManageUsers)).Put("/{id}", cfg.Auth.UpdateUser)
			r.With(can(models.ActionDeleteUser)).Delete("/{id}", cfg.Auth.DeleteUser)
		})

		a := cfg.API
		r.Route("/employees", func(r chi.Router) {
			r.With(can(models.ActionViewEmployees)).Get("/", a.ListEmployees)
			r.With(can(models.ActionManageEmployees)).Post("/", a.CreateEmployee)
			r.With(can(models.ActionViewEmployees)).Get("/{id}", a.GetEmployee)
			r.With(can(models.ActionManageEmployees)).Put("/{id}", a.UpdateEmployee)
			r.With(can(models.ActionManageEmployees)).Delete("/{id}", a.DeleteEmployee)
			r.With(can(models.ActionViewHolidays)).Get("/{id}/balance", a.EmployeeBalance)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.With(can(models.ActionViewHolidays)).Get("/", a.ListHolidays)
			r.With(can(models.ActionRequestHoliday)).Post("/", a.CreateHoliday)
			r.With(can(models.ActionViewHolidays)).Get("/{id}", a.GetHoliday)
			r.With(can(models.ActionRequestHoliday)).Put("/{id}", a.UpdateHoliday)
			r.With(can(models.ActionRequestHoliday)).Delete("/{id}", a.DeleteHoliday)
			r.With(can(models.ActionDecideHoliday)).Post("/{id}/decision", a.DecideHoliday)
		})

		r.Route("/bank-holidays", func(r chi.Router) {
			r.With(can(models.ActionViewHolidays)).Get("/", a.ListBankHolidays)
			r.With(can(models.ActionManageBankHolidays)).Post("/", a.CreateBankHoliday)
			r.With(can(models.ActionManageBankHolidays)).Delete("/{id}", a.DeleteBankHoliday)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.With(can(models.ActionViewVehicles)).Get("/", a.ListVehicles)
			r.With(can(models.ActionManageVehicles)).Post("/", a.CreateVehicle)
			r.With(can(models.ActionViewVehicles)).Get("/status", a.FleetStatus)
			r.With(can(models.ActionViewVehicles)).Get("/{id}", a.GetVehicle)
			r.With(can(models.ActionManageVehicles)).Put("/{id}", a.UpdateVehicle)
			r.With(can(models.ActionManageVehicles)).Delete("/{id}", a.DeleteVehicle)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.With(can(models.ActionViewBookings)).Get("/", a.ListBookings)
			r.With(can(models.ActionManageBookings)).Post("/", a.CreateBooking)
			r.With(can(models.ActionViewBookings)).Get("/{id}", a.GetBooking)
			r.With(can(models.ActionManageBookings)).Put("/{id}", a.UpdateBooking)
			r.With(can(models.ActionManageBookings)).Delete("/{id}", a.DeleteBooking)
			r.With(can(models.ActionManageBookings)).Post("/{id}/status", a.SetBookingStatus)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.With(can(models.ActionViewMaintenance)).Get("/", a.ListMaintenance)
			r.With(can(models.ActionManageMaintenance)).Post("/", a.CreateMaintenance)
			r.With(can(models.ActionViewMaintenance)).Get("/{id}", a.GetMaintenance)
			r.With(can(models.ActionManageMaintenance)).Put("/{id}", a.UpdateMaintenance)
			r.With(can(models.ActionManageMaintenance)).Delete("/{id}", a.DeleteMaintenance)
		})

		r.Route("/checks", func(r chi.Router) {
			r.With(can(models.ActionViewChecks)).Get("/template", a.CheckTemplate)
			r.With(can(models.ActionViewChecks)).Get("/", a.ListChecks)
			r.With(can(models.ActionSubmitCheck)).Post("/", a.CreateCheck)
			r.With(can(models.ActionViewChecks)).Get("/{id}", a.GetCheck)
			r.With(can(models.ActionManageDefects)).Delete("/{id}", a.DeleteCheck)
		})

		r.Route("/defects", func(r chi.Router) {
			r.With(can(models.ActionViewChecks)).Get("/", a.ListDefects)
			r.With(can(models.ActionManageDefects)).Post("/{id}/status", a.SetDefectStatus)
		})

		r.With(can(models.ActionViewBookings)).Get("/calendar", a.Calendar)
		r.With(can(models.ActionViewBookings)).Get("/dashboard", a.Dashboard)

		if cfg.Stream != nil {
			r.Get("/stream", cfg.Stream.ServeHTTP)
		}
	})

	return r
}
