// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/auth"
	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/order"
	"github.com/abgdnv/storefront/internal/transport/rest"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependencies struct {
	AuthService    auth.AuthService
	CatalogService catalog.CatalogService
	OrderService   order.OrderService
	Logger         *slog.Logger
}

func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, cfg *config.Config, logger *slog.Logger) *Dependencies {
	authService := auth.NewService(auth.NewPgStore(dbPool), cfg.Auth.TokenTTL, cfg.Auth.BcryptCost, logger)
	catalogService := catalog.NewService(catalog.NewPgStore(dbPool), logger)
	orderService := order.NewService(order.NewPgStore(dbPool), publisher, cfg.Orders.HistoryCache.TTL, logger)

	return &Dependencies{
		AuthService:    authService,
		CatalogService: catalogService,
		OrderService:   orderService,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	authMW := rest.Authenticator(deps.AuthService, deps.Logger)

	rest.NewAuthHandler(deps.AuthService, authMW, deps.Logger).RegisterRoutes(mux)
	rest.NewCatalogHandler(deps.CatalogService, deps.Logger).RegisterRoutes(mux)
	rest.NewOrderHandler(deps.OrderService, authMW, deps.Logger).RegisterRoutes(mux)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// SetupHttpServer creates and configures an HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
