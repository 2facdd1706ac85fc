// Package server собирает HTTP API backend: маршруты, middleware и handlers.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/gophbudget/internal/server/handlers"
	"github.com/iudanet/gophbudget/internal/server/idempotency"
	"github.com/iudanet/gophbudget/internal/server/jwt"
	"github.com/iudanet/gophbudget/internal/server/middleware"
	"github.com/iudanet/gophbudget/internal/server/storage"
)

// HealthPath путь health check, его опрашивает клиентский prober
const HealthPath = "/api/v1/health"

// Deps зависимости HTTP API
type Deps struct {
	Logger      *slog.Logger
	Users       storage.UserStorage
	Finance     storage.FinanceStorage
	DB          handlers.Pinger
	Idempotency idempotency.Store
	WriteLimit  *middleware.RateLimiter
	AuthLimit   *middleware.RateLimiter
	JWT         jwt.Config
	Version     string
}

// NewRouter создает chi router backend
func NewRouter(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Logger, d.Users, d.JWT)
	healthHandler := handlers.NewHealthHandler(d.Logger, d.DB, d.Version)
	financeHandler := handlers.NewFinanceHandler(d.Logger, d.Finance, d.Idempotency)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RecoveryMiddleware(d.Logger))
	r.Use(middleware.LoggingWithSkip(d.Logger, []string{HealthPath}))

	r.Get(HealthPath, healthHandler.Health)

	r.Route("/api/v1/auth", func(r chi.Router) {
		if d.AuthLimit != nil {
			r.Use(middleware.RateLimitMiddleware(d.AuthLimit, middleware.ByIP))
		}
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(d.Logger, d.JWT))
		if d.WriteLimit != nil {
			r.Use(middleware.RateLimitMiddleware(d.WriteLimit, middleware.ByUser))
		}

		r.Post("/api/v1/transactions", financeHandler.CreateTransaction)
		r.Post("/api/v1/categories", financeHandler.CreateCategory)
		r.Post("/api/v1/budgets", financeHandler.CreateBudget)
		r.Post("/api/v1/goals", financeHandler.CreateGoal)
	})

	return r
}
