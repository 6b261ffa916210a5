package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/handler"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/auth"
	"github.com/Azure/cosmos-explorer-sub003/internal/k8s"
	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	K8sChecker  k8s.HealthChecker
	DBPinger    handler.DBPinger
	Version     string
	OpenAPISpec []byte
	Gatherer    prometheus.Gatherer

	Authenticator middleware.Authenticator
	Keys          handler.KeyGenerator
	UserRepo      auth.UserRepository

	Account  account.Context
	Engine   handler.OfferEngine
	Creator  handler.ResourceCreator
	Console  handler.ConsoleReader
	Sessions *settings.Store
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Account(deps.Account.AccountName))
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.K8sChecker, deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec, deps.Version)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Authenticator == nil {
		return r
	}

	operator := middleware.RequireRole(auth.RoleOperator)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Authenticator))

		if deps.Engine != nil {
			offerHandler := handler.NewOfferHandler(deps.Engine, deps.Account)
			r.Route("/offers", func(r chi.Router) {
				r.Get("/", offerHandler.Get)
				r.With(operator).Put("/", offerHandler.Update)
			})
		}

		if deps.Engine != nil && deps.Sessions != nil {
			settingsHandler := handler.NewSettingsHandler(deps.Engine, deps.Sessions, deps.Account)
			r.Route("/settings", func(r chi.Router) {
				r.Post("/", settingsHandler.Open)
				r.Get("/{id}", settingsHandler.Get)
				r.Patch("/{id}", settingsHandler.Change)
				r.Delete("/{id}", settingsHandler.Close)
				r.Post("/{id}/discard", settingsHandler.Discard)
				r.Post("/{id}/refresh", settingsHandler.Refresh)
				r.With(operator).Post("/{id}/save", settingsHandler.Save)
			})
		}

		if deps.Creator != nil {
			dbHandler := handler.NewDatabaseHandler(deps.Creator, deps.Account)
			r.With(operator).Post("/databases", dbHandler.Create)
			collHandler := handler.NewCollectionHandler(deps.Creator, deps.Account)
			r.With(operator).Post("/collections", collHandler.Create)
		}

		if deps.Console != nil {
			consoleHandler := handler.NewConsoleHandler(deps.Console)
			r.Get("/console", consoleHandler.List)
		}

		if deps.Keys != nil && deps.UserRepo != nil {
			userHandler := handler.NewUserHandler(deps.Keys, deps.UserRepo)
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireSuperuser())
				r.Post("/", userHandler.Create)
				r.Get("/", userHandler.List)
				r.Delete("/{id}", userHandler.Delete)
			})
		}
	})

	return r
}
