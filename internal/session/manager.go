package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/catalog"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/debounce"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/derived"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/errors"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/feedback"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/pipeline"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/search"
)

// FeedbackHistory lists durably stored feedback for a session, used to
// re-hydrate the in-memory map when a dashboard is reopened.
type FeedbackHistory interface {
	ListFeedback(ctx context.Context, sessionKey string) ([]*domain.FeedbackRecord, error)
}

// Config tunes per-session behavior.
type Config struct {
	PageSize       int           // Defaults to pipeline.DefaultPageSize
	DebounceWindow time.Duration // Defaults to debounce.DefaultWindow
}

// Manager creates, tracks, and tears down dashboard sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	catalog           *catalog.Store
	analysisFetch     AnalysisFetcher
	demographicsFetch DemographicsFetcher
	upserter          feedback.Upserter
	history           FeedbackHistory
	notifier          feedback.Notifier
	emitter           Emitter
	cfg               Config
	logger            *slog.Logger
}

// NewManager creates a session manager.
func NewManager(
	cat *catalog.Store,
	analysisFetch AnalysisFetcher,
	demographicsFetch DemographicsFetcher,
	upserter feedback.Upserter,
	history FeedbackHistory,
	notifier feedback.Notifier,
	emitter Emitter,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	if cfg.PageSize <= 0 {
		cfg.PageSize = pipeline.DefaultPageSize
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		catalog:           cat,
		analysisFetch:     analysisFetch,
		demographicsFetch: demographicsFetch,
		upserter:          upserter,
		history:           history,
		notifier:          notifier,
		emitter:           emitter,
		cfg:               cfg,
		logger:            logger,
	}
}

// Open returns the session for a key, creating it on first use: the catalog
// is loaded (once), feedback is re-hydrated from the durable store, both
// derived caches are pre-warmed from embedded data, and the suggest index is
// built. Opening an already-open session returns it unchanged.
func (m *Manager) Open(ctx context.Context, sessionKey string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionKey]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	podcasts, err := m.catalog.Load(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	s, err = m.build(ctx, sessionKey, podcasts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[sessionKey]; ok {
		// Another caller finished first; keep theirs.
		m.mu.Unlock()
		s.Teardown()
		return existing, nil
	}
	m.sessions[sessionKey] = s
	m.mu.Unlock()

	settled, total := s.Progress()
	m.logger.Info("dashboard session opened",
		"session_key", sessionKey,
		"podcasts", total,
		"insights_prewarmed", settled)
	return s, nil
}

func (m *Manager) build(ctx context.Context, sessionKey string, podcasts []*domain.Podcast) (*Session, error) {
	byID := make(map[string]*domain.Podcast, len(podcasts))
	for _, p := range podcasts {
		byID[p.ID] = p
	}

	fb := feedback.New(sessionKey, m.upserter, m.notifier, m.logger)
	if m.history != nil {
		recs, err := m.history.ListFeedback(ctx, sessionKey)
		if err != nil {
			// A dashboard without prior verdicts is still usable; log and move on.
			m.logger.Warn("failed to hydrate feedback history",
				"session_key", sessionKey, "error", err)
		} else {
			fb.Hydrate(recs)
		}
	}

	idx, err := search.New(podcasts, m.logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "build suggest index")
	}

	s := &Session{
		key:               sessionKey,
		podcasts:          podcasts,
		byID:              byID,
		criteria:          domain.Criteria{},
		page:              1,
		pageSize:          m.cfg.PageSize,
		analysis:          derived.New[domain.FitAnalysis]("analysis", m.logger),
		demographics:      derived.New[domain.Demographics]("demographics", m.logger),
		feedback:          fb,
		suggest:           idx,
		analysisFetch:     m.analysisFetch,
		demographicsFetch: m.demographicsFetch,
		emitter:           m.emitter,
		logger:            m.logger,
	}
	s.debouncer = debounce.New(m.cfg.DebounceWindow, s.setQuery)
	s.prewarm()

	return s, nil
}

// Get returns an already-open session.
func (m *Manager) Get(sessionKey string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionKey]
	if !ok {
		return nil, errors.NotFoundf("no open dashboard for session %s", sessionKey)
	}
	return s, nil
}

// Close tears down a session and forgets its catalog.
func (m *Manager) Close(sessionKey string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionKey]
	if ok {
		delete(m.sessions, sessionKey)
	}
	m.mu.Unlock()

	if ok {
		s.Teardown()
		m.catalog.Evict(sessionKey)
		m.logger.Info("dashboard session closed", "session_key", sessionKey)
	}
}

// Shutdown tears down every open session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for key, s := range sessions {
		s.Teardown()
		m.catalog.Evict(key)
	}
}
