package adapthttp

import (
	"net/http"

	"fareclaim/internal/app"
	applog "fareclaim/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Services groups the application services the HTTP adapter drives.
type Services struct {
	Auth     *app.AuthService
	Fares    *app.FareRuleService
	Passes   *app.CommuterPassService
	Expenses *app.ExpenseService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	authSvc    *app.AuthService
	fareSvc    *app.FareRuleService
	passSvc    *app.CommuterPassService
	expenseSvc *app.ExpenseService

	logger           *applog.Logger
	oidcConfig       OIDCConfig
	corsOrigins      []string
	trustForwardAuth bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger used for request logging.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithOIDC enables SSO login.
func WithOIDC(cfg OIDCConfig) Option {
	return func(s *Server) { s.oidcConfig = cfg }
}

// WithCORSOrigins allows credentialed cross-origin requests from origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithForwardAuth trusts the Remote-User header set by an authenticating
// reverse proxy. Only enable behind such a proxy.
func WithForwardAuth(trust bool) Option {
	return func(s *Server) { s.trustForwardAuth = trust }
}

// New creates a Server wired to the given application services.
func New(svc Services, opts ...Option) *Server {
	s := &Server{
		authSvc:    svc.Auth,
		fareSvc:    svc.Fares,
		passSvc:    svc.Passes,
		expenseSvc: svc.Expenses,
		logger:     applog.New(applog.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(withNoCache)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/setup", s.handleSetupUser)
			r.Get("/config", s.handleConfig)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)
			r.With(s.authMiddleware).Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/commuter-pass", s.handleCommuterPassGet)
			r.Put("/commuter-pass", s.handleCommuterPassPut)
			r.Patch("/commuter-pass", s.handleCommuterPassPatch)

			r.Get("/expenses", s.handleExpenseList)
			r.Post("/expenses", s.handleExpenseCreate)
			r.Post("/expenses/bulk", s.handleExpenseBulkCreate)

			r.Get("/fare-rules", s.handleFareRuleList)
		})
	})

	return r
}
