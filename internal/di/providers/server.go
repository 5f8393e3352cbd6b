package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/api"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/config"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/logger"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	sessionsHandle := do.MustInvoke[*SessionManagerHandle](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger)

	apiServer := api.NewServer(
		sessionsHandle.Manager,
		storeHandle.Store,
		sseHandle.Manager,
		sseHandler,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
