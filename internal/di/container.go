// Package di provides dependency injection configuration for the GetOnAPod
// dashboard server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/backend"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/catalog"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/config"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/di/providers"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Event and storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Engine layer
	do.Provide(injector, providers.ProvideBackendClient)
	do.Provide(injector, providers.ProvideNotifier)
	do.Provide(injector, providers.ProvideCatalogStore)
	do.Provide(injector, providers.ProvideSessionManager)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of the whole graph.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*backend.Client](injector)
	_ = do.MustInvoke[*catalog.Store](injector)
	_ = do.MustInvoke[*providers.SessionManagerHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	return nil
}
