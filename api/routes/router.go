package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stuvendor/stuvendor-backend/api/controllers"
	"github.com/stuvendor/stuvendor-backend/api/middleware"
	authsvc "github.com/stuvendor/stuvendor-backend/internal/auth"
	"github.com/stuvendor/stuvendor-backend/internal/identity"
	"github.com/stuvendor/stuvendor-backend/internal/ledger"
	"github.com/stuvendor/stuvendor-backend/internal/orders"
	"github.com/stuvendor/stuvendor-backend/internal/vendors"
	"github.com/stuvendor/stuvendor-backend/internal/withdrawals"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/db"
	"github.com/stuvendor/stuvendor-backend/pkg/enums"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
	"github.com/stuvendor/stuvendor-backend/pkg/redis"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Resolver *identity.Resolver
	Accounts middleware.AccountFinder

	Auth        *authsvc.Service
	Vendors     vendors.Service
	Ledger      *ledger.Service
	Withdrawals *withdrawals.Service
	Orders      *orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.Login(deps.Auth, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.Register(deps.Auth, logg))
	})

	r.Route("/api/v1/vendor", func(r chi.Router) {
		// Onboarding is the one route a vendor-role account may hit before
		// its storefront exists.
		r.With(
			middleware.Auth(deps.Resolver, identity.ResolveOptions{AllowMissingVendorProfile: true}, logg),
			middleware.RequireRole(enums.AccountRoleVendor, deps.Accounts, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/profile", controllers.CreateVendorProfile(deps.Vendors, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(deps.Resolver, identity.ResolveOptions{}, logg),
				middleware.RequireRole(enums.AccountRoleVendor, deps.Accounts, logg),
				middleware.Idempotency(deps.Redis, logg),
			)
			r.Get("/balance", controllers.VendorBalance(deps.Ledger, logg))
			r.Get("/ledger", controllers.VendorLedger(deps.Ledger, logg))
			r.Post("/withdraw", controllers.VendorWithdraw(deps.Withdrawals, logg))
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(
			middleware.Auth(deps.Resolver, identity.ResolveOptions{}, logg),
			middleware.RequireRole(enums.AccountRoleAdmin, deps.Accounts, logg),
		)
		r.Post("/orders/{orderId}/complete", controllers.AdminCompleteOrder(deps.Orders, logg))
	})

	return r
}
