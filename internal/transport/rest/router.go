package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/analytics"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/frahmantamala/expense-approval/internal/setting"
	"github.com/frahmantamala/expense-approval/internal/transport/middleware"
	"github.com/frahmantamala/expense-approval/internal/transport/swagger"
	"github.com/frahmantamala/expense-approval/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
)

// Handlers groups the domain handlers mounted under /api/v1. A nil
// handler leaves its routes unregistered.
type Handlers struct {
	Expense      *expense.Handler
	Analytics    *analytics.Handler
	User         *user.Handler
	ApprovalRule *approvalrule.Handler
	Setting      *setting.Handler
	Health       *HealthHandler
}

type RouterOptions struct {
	Server  internal.ServerConfig
	Metrics internal.MetricsConfig
	Limiter *limiter.Limiter
	OpenAPI *swagger.Document
	Logger  *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID(opts.Logger))
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.CORS(opts.Server.AllowedOrigins))
	router.Use(middleware.Actor)
	if opts.Metrics.Enabled {
		router.Use(middleware.Metrics)
		router.Handle(opts.Metrics.Path, promhttp.Handler())
	}

	if opts.OpenAPI != nil {
		router.Get("/openapi.yml", opts.OpenAPI.ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		r.Group(func(ar chi.Router) {
			ar.Use(middleware.LoggingMiddleware)
			if opts.Limiter != nil {
				ar.Use(middleware.RateLimit(opts.Limiter))
			}

			if h.Expense != nil {
				ar.Route("/expenses", func(er chi.Router) {
					er.Get("/", h.Expense.ListExpenses)
					er.Post("/", h.Expense.CreateExpense)
					er.Put("/", h.Expense.UpdateExpenseByQuery)
					er.Delete("/", h.Expense.DeleteExpense)
					er.Get("/{id}", h.Expense.GetExpense)
					er.Patch("/{id}", h.Expense.UpdateExpense)
					er.Post("/{id}/approve", h.Expense.ApproveExpense)
					er.Post("/{id}/reject", h.Expense.RejectExpense)
				})
			}

			if h.Analytics != nil {
				ar.Get("/analytics", h.Analytics.GetAnalytics)
			}

			if h.User != nil {
				ar.Get("/users", h.User.ListUsers)
			}

			if h.ApprovalRule != nil {
				ar.Route("/approval-rules", func(rr chi.Router) {
					rr.Get("/", h.ApprovalRule.ListRules)
					rr.Post("/", h.ApprovalRule.CreateRule)
					rr.Get("/match", h.ApprovalRule.MatchRule)
					rr.Get("/coverage", h.ApprovalRule.Coverage)
				})
			}

			if h.Setting != nil {
				ar.Get("/settings", h.Setting.GetSettings)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Route not found","code":"NOT_FOUND"}`))
	})
}
