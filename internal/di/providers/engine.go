package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/backend"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/catalog"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/config"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/feedback"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/logger"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/notify"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/session"
)

// ProvideBackendClient provides the matching backend HTTP client.
func ProvideBackendClient(i do.Injector) (*backend.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, log.Logger), nil
}

// ProvideNotifier provides the approval notifier.
func ProvideNotifier(i do.Injector) (feedback.Notifier, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return notify.New(cfg.Notify.NtfyTopic, 10*time.Second), nil
}

// ProvideCatalogStore provides the per-session catalog cache.
func ProvideCatalogStore(i do.Injector) (*catalog.Store, error) {
	client := do.MustInvoke[*backend.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.New(client, log.Logger), nil
}

// SessionManagerHandle wraps the session manager with shutdown capability.
type SessionManagerHandle struct {
	*session.Manager
}

// Shutdown implements do.Shutdownable.
func (h *SessionManagerHandle) Shutdown() error {
	h.Manager.Shutdown()
	return nil
}

// ProvideSessionManager provides the dashboard session manager.
func ProvideSessionManager(i do.Injector) (*SessionManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*backend.Client](i)
	cat := do.MustInvoke[*catalog.Store](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	notifier := do.MustInvoke[feedback.Notifier](i)

	manager := session.NewManager(
		cat,
		client,
		client,
		storeHandle.Store,
		storeHandle.Store,
		notifier,
		sseHandle.Manager,
		session.Config{
			PageSize:       cfg.Engine.PageSize,
			DebounceWindow: cfg.Engine.DebounceWindow,
		},
		log.Logger,
	)

	return &SessionManagerHandle{Manager: manager}, nil
}
